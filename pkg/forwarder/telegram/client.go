// Copyright 2025-2026 aturzone
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package telegram is a minimal Telegram Bot API client covering the calls
// the forwarder needs: identity and chat resolution, long polling, and the
// two-step file download.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// DefaultBaseURL is the production Bot API endpoint. Tests substitute an
// httptest server.
const DefaultBaseURL = "https://api.telegram.org"

const (
	shortCallTimeout = 10 * time.Second
	fileCallTimeout  = 30 * time.Second
	downloadTimeout  = 60 * time.Second
	// pollSlack is added on top of the server-side long-poll timeout so the
	// HTTP request does not give up before the server responds.
	pollSlack = 5 * time.Second
)

// apiResponse is the Bot API envelope shared by every method.
type apiResponse[T any] struct {
	OK          bool   `json:"ok"`
	Result      T      `json:"result,omitempty"`
	Description string `json:"description,omitempty"`
}

// Client talks to the Telegram Bot API for a single bot token.
type Client struct {
	apiURL  string
	fileURL string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient creates a client for the given API base URL and bot token.
func NewClient(baseURL, token string, log zerolog.Logger) *Client {
	return &Client{
		apiURL:  baseURL + "/bot" + token,
		fileURL: baseURL + "/file/bot" + token,
		http:    &http.Client{},
		log:     log.With().Str("component", "tg_client").Logger(),
	}
}

// GetMe verifies the bot token and returns the bot's own identity.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, shortCallTimeout)
	defer cancel()

	var me User
	if err := c.get(ctx, "getMe", nil, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// GetChat resolves a chat reference (numeric id or @username) to full chat
// info. The forwarder uses it once at startup to turn the configured source
// channel username into a numeric id for update filtering.
func (c *Client) GetChat(ctx context.Context, ref string) (*Chat, error) {
	ctx, cancel := context.WithTimeout(ctx, shortCallTimeout)
	defer cancel()

	body, err := json.Marshal(map[string]string{"chat_id": ref})
	if err != nil {
		return nil, err
	}
	var chat Chat
	if err := c.post(ctx, "getChat", body, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

// GetUpdates long-polls for new updates past the given cursor. It blocks up
// to timeout seconds server-side and returns at most limit updates.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout, limit int) ([]Update, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second+pollSlack)
	defer cancel()

	params := url.Values{
		"offset":  {strconv.FormatInt(offset, 10)},
		"timeout": {strconv.Itoa(timeout)},
		"limit":   {strconv.Itoa(limit)},
	}
	var updates []Update
	if err := c.get(ctx, "getUpdates", params, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// DownloadFile resolves a file id via getFile and fetches the bytes from
// the file endpoint.
func (c *Client) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	fileCtx, cancel := context.WithTimeout(ctx, fileCallTimeout)
	defer cancel()

	params := url.Values{"file_id": {fileID}}
	var file File
	if err := c.get(fileCtx, "getFile", params, &file); err != nil {
		return nil, err
	}
	if file.FilePath == "" {
		return nil, fmt.Errorf("getFile returned no file path for %s", fileID)
	}

	dlCtx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(dlCtx, http.MethodGet, c.fileURL+"/"+file.FilePath, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("file download failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("file download failed: %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("file download read failed: %w", err)
	}
	c.log.Debug().Str("file_id", fileID).Int("size", len(data)).Msg("Downloaded file")
	return data, nil
}

func (c *Client) get(ctx context.Context, method string, params url.Values, result any) error {
	endpoint := c.apiURL + "/" + method
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return c.do(req, method, result)
}

func (c *Client) post(ctx context.Context, method string, body []byte, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, method, result)
}

func (c *Client) do(req *http.Request, method string, result any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	var envelope apiResponse[json.RawMessage]
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("%s response decode failed: %w", method, err)
	}
	if !envelope.OK {
		desc := envelope.Description
		if desc == "" {
			desc = resp.Status
		}
		return fmt.Errorf("%s failed: %s", method, desc)
	}
	if result != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("%s result decode failed: %w", method, err)
		}
	}
	return nil
}
