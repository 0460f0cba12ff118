// Copyright 2025-2026 aturzone

package balefmt

import (
	"github.com/aturzone/Telegram-Multi-Platform-Forwarder/pkg/forwarder/bale"
	"github.com/aturzone/Telegram-Multi-Platform-Forwarder/pkg/forwarder/telegram"
)

// TranslateKeyboard maps a Telegram inline keyboard to the Bale schema.
// Only buttons with both a display text and a URL survive; buttons with
// other actions (callback data, web apps) have no Bale equivalent and are
// dropped. Rows left empty are omitted, and a grid with no remaining rows
// translates to nil. Row order and intra-row order are preserved.
func TranslateKeyboard(markup *telegram.InlineKeyboardMarkup) *bale.InlineKeyboardMarkup {
	if markup == nil {
		return nil
	}
	var rows [][]bale.InlineKeyboardButton
	for _, row := range markup.InlineKeyboard {
		var buttons []bale.InlineKeyboardButton
		for _, button := range row {
			if button.Text == "" || button.URL == "" {
				continue
			}
			buttons = append(buttons, bale.InlineKeyboardButton{
				Text: button.Text,
				URL:  button.URL,
			})
		}
		if len(buttons) > 0 {
			rows = append(rows, buttons)
		}
	}
	if len(rows) == 0 {
		return nil
	}
	return &bale.InlineKeyboardMarkup{InlineKeyboard: rows}
}
