// Copyright 2025-2026 aturzone
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package forwarder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/aturzone/Telegram-Multi-Platform-Forwarder/pkg/forwarder/bale"
	"github.com/aturzone/Telegram-Multi-Platform-Forwarder/pkg/forwarder/telegram"
)

const (
	idleDelay      = 1 * time.Second
	pollErrorDelay = 5 * time.Second
)

// Forwarder owns the process state of the relay: the polling cursor, the
// media group accumulator, and the worker pool. It polls one Telegram
// channel and forwards its posts to one Bale chat.
type Forwarder struct {
	cfg    *Config
	tg     *telegram.Client
	bale   *bale.Client
	pool   *Pool
	groups *Aggregator

	// sourceChatID is resolved from cfg.SourceChannel at startup; updates
	// from any other chat are ignored.
	sourceChatID int64
	// cursor is the getUpdates offset. Consumption is at-least-once: the
	// cursor advances past processed updates, so an update in flight during
	// a crash may be redelivered, and one missed during downtime is lost.
	cursor int64

	stopOnce sync.Once
	stopChan chan struct{}
	log      zerolog.Logger
}

// New wires a forwarder from configuration. Startup connectivity checks
// happen in Start.
func New(cfg *Config, log zerolog.Logger) *Forwarder {
	f := &Forwarder{
		cfg:      cfg,
		stopChan: make(chan struct{}),
		log:      log,
	}
	f.tg = telegram.NewClient(cfg.TelegramAPIURL, cfg.TelegramToken, log)
	limiter := rate.NewLimiter(rate.Limit(cfg.SendRate), cfg.SendBurst)
	f.bale = bale.NewClient(cfg.BaleAPIURL, cfg.BaleToken, limiter, log)
	f.pool = NewPool(cfg.Workers)
	f.groups = NewAggregator(cfg.MediaGroupWindow(), f.processMediaGroup, log)
	return f
}

// Start verifies connectivity to both platforms, resolves the source
// channel, and runs the polling loop until Stop is called or the context is
// canceled. Any failure before the loop starts is fatal and returned; once
// polling has started, per-message failures are logged and absorbed.
func (f *Forwarder) Start(ctx context.Context) error {
	me, err := f.tg.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("telegram connectivity check failed: %w", err)
	}
	f.log.Info().Str("bot", me.FirstName).Msg("Telegram API connected")

	chat, err := f.tg.GetChat(ctx, f.cfg.SourceChannel)
	if err != nil {
		return fmt.Errorf("failed to resolve source channel %s (is the bot an admin?): %w", f.cfg.SourceChannel, err)
	}
	f.sourceChatID = chat.ID
	f.log.Info().
		Str("channel", f.cfg.SourceChannel).
		Int64("chat_id", chat.ID).
		Str("title", chat.Title).
		Msg("Source channel resolved")

	if err := f.bale.GetMe(ctx); err != nil {
		return fmt.Errorf("bale connectivity check failed: %w", err)
	}
	f.log.Info().Str("target_chat", f.cfg.BaleChatID).Msg("Bale API connected, forwarder ready")

	f.poll(ctx)
	f.pool.Close()
	return nil
}

// Stop signals the polling loop to exit. Safe to call more than once.
func (f *Forwarder) Stop() {
	f.stopOnce.Do(func() {
		close(f.stopChan)
	})
}

func (f *Forwarder) poll(ctx context.Context) {
	for {
		select {
		case <-f.stopChan:
			return
		case <-ctx.Done():
			return
		default:
		}

		updates, err := f.tg.GetUpdates(ctx, f.cursor+1, f.cfg.PollTimeout, f.cfg.PollLimit)
		if err != nil {
			f.log.Error().Err(err).Msg("Polling error")
			if !f.sleep(pollErrorDelay) {
				return
			}
			continue
		}

		for _, update := range updates {
			f.cursor = update.UpdateID
			f.handleUpdate(update)
		}
		if len(updates) == 0 {
			if !f.sleep(idleDelay) {
				return
			}
		}
	}
}

// sleep waits for d, returning false if the forwarder was stopped meanwhile.
func (f *Forwarder) sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-f.stopChan:
		return false
	case <-timer.C:
		return true
	}
}

// handleUpdate routes one update: filter to the source channel, then media
// group accumulation or single-message dispatch. Runs on the polling
// goroutine; actual processing happens on the worker pool or the
// aggregator's flush timer.
func (f *Forwarder) handleUpdate(update telegram.Update) {
	msg := update.Post()
	if msg == nil {
		return
	}
	if msg.Chat.ID != f.sourceChatID {
		f.log.Debug().Int64("chat_id", msg.Chat.ID).Msg("Ignoring message from other chat")
		return
	}
	f.log.Info().
		Int64("update_id", update.UpdateID).
		Int64("message_id", msg.MessageID).
		Msg("New post from source channel")

	if msg.MediaGroupID != "" {
		f.groups.Add(*msg)
		return
	}

	m := *msg
	f.pool.Submit(func() { f.processSingle(m) })
}
