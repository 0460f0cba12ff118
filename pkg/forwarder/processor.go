// Copyright 2025-2026 aturzone
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package forwarder

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aturzone/Telegram-Multi-Platform-Forwarder/pkg/forwarder/balefmt"
	"github.com/aturzone/Telegram-Multi-Platform-Forwarder/pkg/forwarder/telegram"
)

// traceLogger returns a child logger tagged with a fresh trace id so the
// log lines of one processed item can be correlated across workers.
func (f *Forwarder) traceLogger() zerolog.Logger {
	return f.log.With().Str("trace_id", uuid.NewString()).Logger()
}

// processSingle forwards one standalone text or photo message. Runs on a
// worker pool goroutine; failures are logged and terminal for the message.
func (f *Forwarder) processSingle(msg telegram.Message) {
	ctx := context.Background()
	log := f.traceLogger().With().Int64("message_id", msg.MessageID).Logger()

	switch {
	case msg.Text != "":
		links := balefmt.ExtractLinks(msg.Text, msg.Entities)
		text := balefmt.Format(msg.Text, links)
		keyboard := balefmt.TranslateKeyboard(msg.ReplyMarkup)
		log.Info().
			Int("links", len(links)).
			Bool("keyboard", keyboard != nil).
			Msg("Forwarding text message")
		if err := f.bale.SendText(ctx, f.cfg.BaleChatID, text, keyboard); err != nil {
			log.Error().Err(err).Msg("Failed to forward text message")
			return
		}
		log.Info().Msg("Text message forwarded")

	case len(msg.Photo) > 0:
		photo := msg.LargestPhoto()
		data, err := f.tg.DownloadFile(ctx, photo.FileID)
		if err != nil {
			log.Error().Err(err).Str("file_id", photo.FileID).Msg("Failed to download photo, dropping message")
			return
		}
		links := balefmt.ExtractLinks(msg.Caption, msg.CaptionEntities)
		caption := balefmt.Format(msg.Caption, links)
		keyboard := balefmt.TranslateKeyboard(msg.ReplyMarkup)
		log.Info().
			Int("links", len(links)).
			Bool("keyboard", keyboard != nil).
			Msg("Forwarding single photo")
		// One-photo group path so captions and keyboards behave the same as
		// in group posts.
		if err := f.bale.SendPhotoGroup(ctx, f.cfg.BaleChatID, [][]byte{data}, caption, keyboard); err != nil {
			log.Error().Err(err).Msg("Failed to forward single photo")
			return
		}
		log.Info().Msg("Single photo forwarded")

	default:
		log.Debug().Msg("Unsupported message type, skipping")
	}
}

// processMediaGroup forwards a flushed media group as one unit. The first
// message's caption, entities, and keyboard represent the whole group;
// captions on later siblings are ignored by platform convention. Runs on
// the aggregator's flush timer goroutine.
func (f *Forwarder) processMediaGroup(groupID string, messages []telegram.Message) {
	ctx := context.Background()
	log := f.traceLogger().With().
		Str("media_group_id", groupID).
		Int("siblings", len(messages)).
		Logger()

	first := messages[0]
	var photos [][]byte
	for _, msg := range messages {
		photo := msg.LargestPhoto()
		if photo == nil {
			continue
		}
		data, err := f.tg.DownloadFile(ctx, photo.FileID)
		if err != nil {
			log.Warn().Err(err).
				Int64("message_id", msg.MessageID).
				Str("file_id", photo.FileID).
				Msg("Failed to download group photo, skipping sibling")
			continue
		}
		photos = append(photos, data)
	}
	if len(photos) == 0 {
		log.Warn().Msg("No photos could be downloaded, dropping media group")
		return
	}

	links := balefmt.ExtractLinks(first.Caption, first.CaptionEntities)
	caption := balefmt.Format(first.Caption, links)
	keyboard := balefmt.TranslateKeyboard(first.ReplyMarkup)
	log.Info().
		Int("photos", len(photos)).
		Int("links", len(links)).
		Bool("keyboard", keyboard != nil).
		Msg("Forwarding media group")

	if err := f.bale.SendPhotoGroup(ctx, f.cfg.BaleChatID, photos, caption, keyboard); err != nil {
		log.Error().Err(err).Msg("Failed to forward media group")
		return
	}
	log.Info().Msg("Media group forwarded")
}
