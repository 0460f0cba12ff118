// Copyright 2025-2026 aturzone
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package bale is the delivery client for the Bale messenger Bot API. It
// implements the three send shapes the forwarder needs (text, single photo,
// photo group) with a single format-relaxation retry: when Bale rejects a
// payload with an error description mentioning parsing or markdown, the same
// content is reissued once with formatting disabled.
package bale

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mau.fi/util/ptr"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the production Bale Bot API endpoint.
const DefaultBaseURL = "https://tapi.bale.ai"

const (
	messageTimeout = 30 * time.Second
	uploadTimeout  = 60 * time.Second
)

// apiError is a server-side rejection. The description is the platform's
// free-text error message; it decides whether a format-relaxation retry is
// worth attempting.
type apiError struct {
	method      string
	description string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s rejected: %s", e.method, e.description)
}

// isFormatRejection reports whether an error is a server rejection caused by
// markdown parsing, i.e. worth one retry with formatting disabled.
func isFormatRejection(err error) bool {
	var ae *apiError
	if !errors.As(err, &ae) {
		return false
	}
	desc := strings.ToLower(ae.description)
	return strings.Contains(desc, "parse") || strings.Contains(desc, "markdown")
}

// Client talks to the Bale Bot API for a single bot token. All sends go
// through a shared rate limiter so bursts of forwarded posts do not trip the
// platform's throttling.
type Client struct {
	apiURL  string
	http    *http.Client
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewClient creates a client for the given API base URL and bot token.
// A nil limiter disables send pacing.
func NewClient(baseURL, token string, limiter *rate.Limiter, log zerolog.Logger) *Client {
	return &Client{
		apiURL:  baseURL + "/bot" + token,
		http:    &http.Client{},
		limiter: limiter,
		log:     log.With().Str("component", "bale_client").Logger(),
	}
}

// GetMe verifies the bot token is accepted by the API.
func (c *Client) GetMe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, messageTimeout)
	defer cancel()
	return c.postJSON(ctx, "getMe", []byte("{}"))
}

// SendText delivers a markdown-formatted text message. If Bale rejects the
// markup, the same text is resent once as plain text; literal [text](url)
// sequences in the fallback are an accepted degradation.
func (c *Client) SendText(ctx context.Context, chatID, text string, keyboard *InlineKeyboardMarkup) error {
	req := sendMessageRequest{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   ptr.Ptr(ParseModeMarkdown),
		ReplyMarkup: keyboard,
	}
	err := c.sendMessage(ctx, req)
	if isFormatRejection(err) {
		c.log.Info().Str("chat_id", chatID).Msg("Markup rejected, retrying as plain text")
		req.ParseMode = nil
		err = c.sendMessage(ctx, req)
	}
	return err
}

func (c *Client) sendMessage(ctx context.Context, req sendMessageRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, messageTimeout)
	defer cancel()
	return c.postJSON(ctx, "sendMessage", body)
}

// SendPhoto delivers a single photo with an optional caption and keyboard.
// The caption's markdown gets the same one-shot relaxation retry as text,
// reissuing the photo bytes.
func (c *Client) SendPhoto(ctx context.Context, chatID string, photo []byte, caption string, keyboard *InlineKeyboardMarkup) error {
	err := c.sendPhoto(ctx, chatID, photo, caption, keyboard, true)
	if caption != "" && isFormatRejection(err) {
		c.log.Info().Str("chat_id", chatID).Msg("Caption markup rejected, retrying as plain text")
		err = c.sendPhoto(ctx, chatID, photo, caption, keyboard, false)
	}
	return err
}

func (c *Client) sendPhoto(ctx context.Context, chatID string, photo []byte, caption string, keyboard *InlineKeyboardMarkup, markdown bool) error {
	fields := map[string]string{"chat_id": chatID}
	if caption != "" {
		fields["caption"] = caption
		if markdown {
			fields["parse_mode"] = ParseModeMarkdown
		}
	}
	if keyboard != nil {
		kb, err := json.Marshal(keyboard)
		if err != nil {
			return err
		}
		fields["reply_markup"] = string(kb)
	}

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()
	return c.postMultipart(ctx, "sendPhoto", fields, map[string][]byte{"photo": photo})
}

// SendPhotoGroup delivers a set of photos sharing one caption. A keyboard
// cannot be attached to the group-send primitive, so a keyboarded group is
// degraded to sequential single-photo sends with the caption and keyboard on
// the first photo only. A single-photo group always takes the single path so
// captions and keyboards behave identically either way.
func (c *Client) SendPhotoGroup(ctx context.Context, chatID string, photos [][]byte, caption string, keyboard *InlineKeyboardMarkup) error {
	if len(photos) == 0 {
		return fmt.Errorf("photo group is empty")
	}
	if len(photos) == 1 || keyboard != nil {
		for i, photo := range photos {
			itemCaption := ""
			var itemKeyboard *InlineKeyboardMarkup
			if i == 0 {
				itemCaption = caption
				itemKeyboard = keyboard
			}
			if err := c.SendPhoto(ctx, chatID, photo, itemCaption, itemKeyboard); err != nil {
				return fmt.Errorf("photo %d/%d: %w", i+1, len(photos), err)
			}
		}
		return nil
	}

	err := c.sendMediaGroup(ctx, chatID, photos, caption, true)
	if caption != "" && isFormatRejection(err) {
		c.log.Info().Str("chat_id", chatID).Msg("Group caption markup rejected, retrying as plain text")
		err = c.sendMediaGroup(ctx, chatID, photos, caption, false)
	}
	return err
}

func (c *Client) sendMediaGroup(ctx context.Context, chatID string, photos [][]byte, caption string, markdown bool) error {
	media := make([]inputMediaPhoto, len(photos))
	parts := make(map[string][]byte, len(photos))
	for i, photo := range photos {
		name := fmt.Sprintf("photo_%d", i+1)
		media[i] = inputMediaPhoto{
			Type:  "photo",
			Media: "attach://" + name,
		}
		if i == 0 && caption != "" {
			media[i].Caption = caption
			if markdown {
				media[i].ParseMode = ptr.Ptr(ParseModeMarkdown)
			}
		}
		parts[name] = photo
	}

	mediaJSON, err := json.Marshal(media)
	if err != nil {
		return err
	}
	fields := map[string]string{
		"chat_id": chatID,
		"media":   string(mediaJSON),
	}

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()
	return c.postMultipart(ctx, "sendMediaGroup", fields, parts)
}

func (c *Client) postJSON(ctx context.Context, method string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, method)
}

func (c *Client) postMultipart(ctx context.Context, method string, fields map[string]string, files map[string][]byte) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return err
		}
	}
	for name, data := range files {
		part, err := w.CreateFormFile(name, name+".jpg")
		if err != nil {
			return err
		}
		if _, err := part.Write(data); err != nil {
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/"+method, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.do(req, method)
}

func (c *Client) do(req *http.Request, method string) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return err
		}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s response read failed: %w", method, err)
	}
	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("%s response decode failed: %w", method, err)
	}
	if !envelope.OK {
		desc := envelope.Description
		if desc == "" {
			desc = resp.Status
		}
		return &apiError{method: method, description: desc}
	}
	return nil
}
