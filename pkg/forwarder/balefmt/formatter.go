// Copyright 2025-2026 aturzone
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package balefmt converts Telegram rich-text messages to Bale markdown.
//
// Telegram describes formatting as a flat entity list with offsets measured
// in UTF-16 code units; Bale takes inline markdown. The conversion extracts
// the hyperlink-like entities, sanitizes the text, and substitutes each
// link's display text with an inline [text](url) form.
package balefmt

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/aturzone/Telegram-Multi-Platform-Forwarder/pkg/forwarder/telegram"
)

// Link is one (display text, destination URL) pair extracted from a
// message's entities, in source entity order.
type Link struct {
	Text string
	URL  string
}

// mentionURLPrefix is the profile URL synthesized for @mentions.
const mentionURLPrefix = "https://t.me/"

// UTF16ToRuneOffset converts an offset measured in UTF-16 code units into a
// rune offset in text. A prefix ending in the middle of a surrogate pair is
// shortened to the last whole code point. Offsets past the end of the text
// clamp to the rune length.
func UTF16ToRuneOffset(text string, offset int) int {
	if offset <= 0 {
		return 0
	}
	runes := []rune(text)
	units := utf16.Encode(runes)
	if offset >= len(units) {
		return len(runes)
	}
	prefix := units[:offset]
	if last := prefix[len(prefix)-1]; utf16.IsSurrogate(rune(last)) && last < 0xDC00 {
		prefix = prefix[:len(prefix)-1]
	}
	return len(utf16.Decode(prefix))
}

// ExtractLinks returns the (text, url) pairs for hyperlink-like entities:
// explicit text links, bare URLs, and @mentions. The result preserves source
// entity order (ascending UTF-16 offset, original order on ties) and may
// contain duplicates.
func ExtractLinks(text string, entities []telegram.MessageEntity) []Link {
	var linkEntities []telegram.MessageEntity
	for _, e := range entities {
		switch e.Type {
		case telegram.EntityTextLink, telegram.EntityURL, telegram.EntityMention:
			linkEntities = append(linkEntities, e)
		}
	}
	sort.SliceStable(linkEntities, func(i, j int) bool {
		return linkEntities[i].Offset < linkEntities[j].Offset
	})

	runes := []rune(text)
	var links []Link
	for _, e := range linkEntities {
		start := UTF16ToRuneOffset(text, e.Offset)
		end := UTF16ToRuneOffset(text, e.Offset+e.Length)
		if start > end || end > len(runes) {
			continue
		}
		span := strings.TrimSpace(string(runes[start:end]))

		switch e.Type {
		case telegram.EntityTextLink:
			if span != "" && e.URL != "" {
				links = append(links, Link{Text: span, URL: e.URL})
			}
		case telegram.EntityURL:
			if span != "" {
				links = append(links, Link{Text: span, URL: span})
			}
		case telegram.EntityMention:
			if strings.HasPrefix(span, "@") {
				links = append(links, Link{Text: span, URL: mentionURLPrefix + span[1:]})
			}
		}
	}
	return links
}

// Zero-width and directional characters Bale renders as tofu or that break
// its markdown parser.
var zeroWidthRunes = map[rune]struct{}{
	'\u200c': {}, // ZWNJ
	'\u200d': {}, // ZWJ
	'\u200e': {}, // LRM
	'\u200f': {}, // RLM
	'\ufeff': {}, // BOM
}

var spaceRun = regexp.MustCompile(`[ \t]+`)

// Sanitize strips zero-width characters and normalizes whitespace: runs of
// spaces and tabs collapse to a single space, lines lose leading and
// trailing whitespace, and runs of blank lines collapse to at most one.
// Sanitize is idempotent.
func Sanitize(text string) string {
	text = strings.Map(func(r rune) rune {
		if _, drop := zeroWidthRunes[r]; drop {
			return -1
		}
		return r
	}, text)

	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = spaceRun.ReplaceAllString(strings.Trim(line, " \t"), " ")
		if line != "" {
			out = append(out, line)
		} else if len(out) > 0 && out[len(out)-1] != "" {
			out = append(out, "")
		}
	}
	return strings.Join(out, "\n")
}

var (
	excessSpaces = regexp.MustCompile(` {3,}`)
	spaceBefPipe = regexp.MustCompile(` +\|`)
	spaceAftPipe = regexp.MustCompile(`\| +`)
)

// Format sanitizes text and substitutes each link's display text with an
// inline markdown link. Longer display texts are substituted first so a
// short link whose text is a substring of a longer one cannot corrupt the
// longer match; each link replaces only the first remaining occurrence of
// its text, and links whose text was already consumed by an earlier
// substitution are skipped. The markdown form is padded with spaces to keep
// it from visually merging with adjacent emoji or punctuation; excess runs
// of spaces are then collapsed and spaces around '|' separators trimmed.
func Format(text string, links []Link) string {
	formatted := Sanitize(text)
	if len(links) == 0 {
		return formatted
	}

	ordered := make([]Link, len(links))
	copy(ordered, links)
	sort.SliceStable(ordered, func(i, j int) bool {
		return utf8.RuneCountInString(ordered[i].Text) > utf8.RuneCountInString(ordered[j].Text)
	})

	// Step 1: replace each match with a placeholder so a shorter link
	// cannot rematch inside an already-substituted markdown form.
	var applied []Link
	for _, link := range ordered {
		if !strings.Contains(formatted, link.Text) {
			continue
		}
		placeholder := "\x00LINK" + strconv.Itoa(len(applied)) + "\x00"
		formatted = strings.Replace(formatted, link.Text, placeholder, 1)
		applied = append(applied, link)
	}

	// Step 2: expand the placeholders into the markdown form.
	for i, link := range applied {
		placeholder := "\x00LINK" + strconv.Itoa(i) + "\x00"
		markdown := " [" + link.Text + "](" + link.URL + ") "
		formatted = strings.Replace(formatted, placeholder, markdown, 1)
	}

	formatted = excessSpaces.ReplaceAllString(formatted, "  ")
	formatted = spaceBefPipe.ReplaceAllString(formatted, " |")
	formatted = spaceAftPipe.ReplaceAllString(formatted, "| ")
	return formatted
}
