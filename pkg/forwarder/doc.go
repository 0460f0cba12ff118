// Copyright 2025-2026 aturzone
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package forwarder relays posts from a Telegram channel to a Bale chat.
//
// The relay is a single long-poll loop over the Telegram Bot API. Each
// update is filtered to the configured source channel, then either buffered
// into a media group or dispatched to a bounded worker pool for immediate
// processing. Delivery converts Telegram's entity-based formatting to Bale
// inline markdown and degrades gracefully: if Bale rejects the markup, the
// content is resent once as plain text.
//
// # Core Types
//
// [Forwarder] owns the process state: the polling cursor, the source chat
// id, the worker pool, and the media group accumulator. Consumption is
// at-least-once; there is no persistence across restarts.
//
// [Aggregator] buffers messages sharing a media group id for a fixed window
// armed at group creation, then flushes each group exactly once. The pop is
// atomic, so duplicate flushes are no-ops.
//
// [Pool] caps processing concurrency. Ordering across distinct messages is
// not guaranteed; siblings within one media group stay in arrival order.
//
// # Sub-packages
//
//   - telegram is the inbound Bot API client (long poll, file download).
//   - bale is the outbound delivery client (text, photo, photo group).
//   - balefmt translates entities, text, and keyboards between the two.
package forwarder
