// Copyright 2025-2026 aturzone

package bale

// ParseModeMarkdown is the only formatting mode the forwarder emits.
const ParseModeMarkdown = "Markdown"

// InlineKeyboardMarkup is the Bale-side keyboard schema. Bale only supports
// URL buttons, so the button type carries no other action fields.
type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

// InlineKeyboardButton is a single URL button.
type InlineKeyboardButton struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// sendMessageRequest is the JSON body for sendMessage.
type sendMessageRequest struct {
	ChatID      string                `json:"chat_id"`
	Text        string                `json:"text"`
	ParseMode   *string               `json:"parse_mode,omitempty"`
	ReplyMarkup *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// inputMediaPhoto is one item of a sendMediaGroup media list. Media holds an
// attach://<name> reference to a multipart part carrying the photo bytes.
type inputMediaPhoto struct {
	Type      string  `json:"type"`
	Media     string  `json:"media"`
	Caption   string  `json:"caption,omitempty"`
	ParseMode *string `json:"parse_mode,omitempty"`
}

// apiResponse is the Bot-API-compatible envelope Bale replies with. Only the
// success flag and the human-readable description matter to the forwarder.
type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
}
