// Copyright 2025-2026 aturzone
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package forwarder

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/aturzone/Telegram-Multi-Platform-Forwarder/pkg/forwarder/telegram"
)

// fakeTimers captures armed timers instead of scheduling them, so tests
// control exactly when a group flushes.
type fakeTimers struct {
	mu    sync.Mutex
	armed []func()
}

func (ft *fakeTimers) afterFunc(_ time.Duration, fn func()) *time.Timer {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.armed = append(ft.armed, fn)
	return time.NewTimer(time.Hour)
}

func (ft *fakeTimers) count() int {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return len(ft.armed)
}

func (ft *fakeTimers) fire(i int) {
	ft.mu.Lock()
	fn := ft.armed[i]
	ft.mu.Unlock()
	fn()
}

type flushRecorder struct {
	mu      sync.Mutex
	flushes []flushedGroup
}

type flushedGroup struct {
	groupID  string
	messages []telegram.Message
}

func (fr *flushRecorder) flush(groupID string, messages []telegram.Message) {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	fr.flushes = append(fr.flushes, flushedGroup{groupID: groupID, messages: messages})
}

func (fr *flushRecorder) all() []flushedGroup {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	return fr.flushes
}

func newTestAggregator() (*Aggregator, *fakeTimers, *flushRecorder) {
	timers := &fakeTimers{}
	recorder := &flushRecorder{}
	agg := NewAggregator(5*time.Second, recorder.flush, zerolog.Nop())
	agg.afterFunc = timers.afterFunc
	return agg, timers, recorder
}

func groupMessage(id int64, groupID string) telegram.Message {
	return telegram.Message{
		MessageID:    id,
		MediaGroupID: groupID,
		Photo:        []telegram.PhotoSize{{FileID: "file", FileSize: 1}},
	}
}

func TestAggregatorCollectsAndFlushesOnce(t *testing.T) {
	t.Parallel()
	agg, timers, recorder := newTestAggregator()

	agg.Add(groupMessage(1, "g1"))
	agg.Add(groupMessage(2, "g1"))
	agg.Add(groupMessage(3, "g1"))

	// Only the first sibling arms a timer; later ones do not reset it.
	if got := timers.count(); got != 1 {
		t.Fatalf("armed timers: got %d, want 1", got)
	}
	if got := agg.Pending(); got != 1 {
		t.Fatalf("pending groups: got %d, want 1", got)
	}

	timers.fire(0)

	flushes := recorder.all()
	if len(flushes) != 1 {
		t.Fatalf("flushes: got %d, want 1", len(flushes))
	}
	if flushes[0].groupID != "g1" {
		t.Errorf("group id: got %q, want g1", flushes[0].groupID)
	}
	if len(flushes[0].messages) != 3 {
		t.Fatalf("messages: got %d, want 3", len(flushes[0].messages))
	}
	// Arrival order preserved.
	for i, want := range []int64{1, 2, 3} {
		if got := flushes[0].messages[i].MessageID; got != want {
			t.Errorf("message %d: got id %d, want %d", i, got, want)
		}
	}
	if got := agg.Pending(); got != 0 {
		t.Errorf("pending groups after flush: got %d, want 0", got)
	}
}

func TestAggregatorDoubleFlushIsNoop(t *testing.T) {
	t.Parallel()
	agg, _, recorder := newTestAggregator()

	agg.Add(groupMessage(1, "g1"))
	agg.Flush("g1")
	agg.Flush("g1")

	if got := len(recorder.all()); got != 1 {
		t.Errorf("flushes after duplicate flush: got %d, want 1", got)
	}
}

func TestAggregatorFlushUnknownGroupIsNoop(t *testing.T) {
	t.Parallel()
	agg, timers, recorder := newTestAggregator()

	agg.Flush("never-seen")

	if got := len(recorder.all()); got != 0 {
		t.Errorf("flushes: got %d, want 0", got)
	}

	// A spurious flush must not retire the id: a group arriving under it
	// afterwards still collects and flushes normally.
	agg.Add(groupMessage(1, "never-seen"))
	if got := agg.Pending(); got != 1 {
		t.Fatalf("pending groups: got %d, want 1", got)
	}
	if got := timers.count(); got != 1 {
		t.Fatalf("armed timers: got %d, want 1", got)
	}
	timers.fire(0)
	flushes := recorder.all()
	if len(flushes) != 1 || flushes[0].groupID != "never-seen" {
		t.Errorf("flushes after collection: got %+v, want one for never-seen", flushes)
	}
}

func TestAggregatorDropsLateSiblings(t *testing.T) {
	t.Parallel()
	agg, timers, recorder := newTestAggregator()

	agg.Add(groupMessage(1, "g1"))
	agg.Flush("g1")

	// A sibling arriving after the flush must not resurrect the group.
	agg.Add(groupMessage(2, "g1"))

	if got := agg.Pending(); got != 0 {
		t.Errorf("pending groups: got %d, want 0", got)
	}
	if got := timers.count(); got != 1 {
		t.Errorf("armed timers: got %d, want 1", got)
	}
	if got := len(recorder.all()); got != 1 {
		t.Errorf("flushes: got %d, want 1", got)
	}
}

func TestAggregatorIndependentGroups(t *testing.T) {
	t.Parallel()
	agg, timers, recorder := newTestAggregator()

	agg.Add(groupMessage(1, "g1"))
	agg.Add(groupMessage(2, "g2"))
	agg.Add(groupMessage(3, "g1"))

	if got := timers.count(); got != 2 {
		t.Fatalf("armed timers: got %d, want 2", got)
	}

	timers.fire(1) // g2 first
	timers.fire(0)

	flushes := recorder.all()
	if len(flushes) != 2 {
		t.Fatalf("flushes: got %d, want 2", len(flushes))
	}
	if flushes[0].groupID != "g2" || len(flushes[0].messages) != 1 {
		t.Errorf("first flush: got %q with %d messages", flushes[0].groupID, len(flushes[0].messages))
	}
	if flushes[1].groupID != "g1" || len(flushes[1].messages) != 2 {
		t.Errorf("second flush: got %q with %d messages", flushes[1].groupID, len(flushes[1].messages))
	}
}

func TestAggregatorIgnoresMessagesWithoutGroupID(t *testing.T) {
	t.Parallel()
	agg, timers, _ := newTestAggregator()

	agg.Add(telegram.Message{MessageID: 1})

	if got := agg.Pending(); got != 0 {
		t.Errorf("pending groups: got %d, want 0", got)
	}
	if got := timers.count(); got != 0 {
		t.Errorf("armed timers: got %d, want 0", got)
	}
}

func TestAggregatorConcurrentAddAndFlush(t *testing.T) {
	t.Parallel()
	recorder := &flushRecorder{}
	agg := NewAggregator(time.Hour, recorder.flush, zerolog.Nop())
	agg.afterFunc = func(time.Duration, func()) *time.Timer { return time.NewTimer(time.Hour) }

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			agg.Add(groupMessage(id, "g1"))
		}(int64(i))
	}
	wg.Wait()
	agg.Flush("g1")
	agg.Flush("g1")

	flushes := recorder.all()
	if len(flushes) != 1 {
		t.Fatalf("flushes: got %d, want 1", len(flushes))
	}
	if got := len(flushes[0].messages); got != 50 {
		t.Errorf("messages: got %d, want 50", got)
	}
}
