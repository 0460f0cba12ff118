// Copyright 2025-2026 aturzone
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package forwarder

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aturzone/Telegram-Multi-Platform-Forwarder/pkg/forwarder/telegram"
)

// FlushFunc receives a completed media group in arrival order.
type FlushFunc func(groupID string, messages []telegram.Message)

// Aggregator buffers messages sharing a media group id and hands each group
// to the flush callback once after a fixed window. The window is armed when
// the first message of a group arrives and is deliberately not reset by
// later siblings: the platform delivers group siblings as a burst, and a
// sibling arriving after the window expired is logged and dropped rather
// than starting a second partial group.
//
// Per-group lifecycle: collecting from the first Add until the timer fires,
// then flushed; a flushed group id is never reused for the life of the
// process. The flush pop is atomic, so a duplicate timer is a no-op.
type Aggregator struct {
	window time.Duration
	flush  FlushFunc
	log    zerolog.Logger

	mu         sync.Mutex
	collecting map[string][]telegram.Message
	flushed    map[string]struct{}

	// afterFunc is a seam for tests; production uses time.AfterFunc.
	afterFunc func(d time.Duration, fn func()) *time.Timer
}

// NewAggregator creates an aggregator with the given collection window.
func NewAggregator(window time.Duration, flush FlushFunc, log zerolog.Logger) *Aggregator {
	return &Aggregator{
		window:     window,
		flush:      flush,
		log:        log.With().Str("component", "aggregator").Logger(),
		collecting: make(map[string][]telegram.Message),
		flushed:    make(map[string]struct{}),
		afterFunc:  time.AfterFunc,
	}
}

// Add appends a message to its media group, creating the group and arming
// its one-shot flush timer if this is the first sibling.
func (a *Aggregator) Add(msg telegram.Message) {
	groupID := msg.MediaGroupID
	if groupID == "" {
		return
	}

	a.mu.Lock()
	if _, done := a.flushed[groupID]; done {
		a.mu.Unlock()
		a.log.Warn().
			Str("media_group_id", groupID).
			Int64("message_id", msg.MessageID).
			Msg("Sibling arrived after group was flushed, dropping")
		return
	}
	_, exists := a.collecting[groupID]
	a.collecting[groupID] = append(a.collecting[groupID], msg)
	a.mu.Unlock()

	if !exists {
		a.log.Debug().
			Str("media_group_id", groupID).
			Dur("window", a.window).
			Msg("New media group, collection window armed")
		a.afterFunc(a.window, func() { a.Flush(groupID) })
	}
}

// Flush atomically removes the group's accumulated messages and hands them
// to the flush callback. Flushing an unknown or already-flushed group does
// nothing; only ids that were actually collecting are retired, so flushing
// an id the aggregator never saw does not block it from collecting later.
func (a *Aggregator) Flush(groupID string) {
	a.mu.Lock()
	messages, collecting := a.collecting[groupID]
	if !collecting {
		a.mu.Unlock()
		return
	}
	delete(a.collecting, groupID)
	a.flushed[groupID] = struct{}{}
	a.mu.Unlock()

	a.flush(groupID, messages)
}

// Pending returns the number of groups currently collecting.
func (a *Aggregator) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.collecting)
}
