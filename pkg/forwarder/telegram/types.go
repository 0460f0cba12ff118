// Copyright 2025-2026 aturzone
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package telegram

// Update is one inbound notification from getUpdates.
// See https://core.telegram.org/bots/api#update
type Update struct {
	UpdateID    int64    `json:"update_id"`
	Message     *Message `json:"message,omitempty"`
	ChannelPost *Message `json:"channel_post,omitempty"`
}

// Post returns the message carried by the update, whether it arrived as a
// direct message or a channel post. Returns nil if the update carries neither.
func (u *Update) Post() *Message {
	if u.Message != nil {
		return u.Message
	}
	return u.ChannelPost
}

// Message represents a Telegram message or channel post.
// See https://core.telegram.org/bots/api#message
type Message struct {
	MessageID       int64                 `json:"message_id"`
	Chat            Chat                  `json:"chat"`
	Date            int64                 `json:"date"`
	Text            string                `json:"text,omitempty"`
	Entities        []MessageEntity       `json:"entities,omitempty"`
	Photo           []PhotoSize           `json:"photo,omitempty"`
	Caption         string                `json:"caption,omitempty"`
	CaptionEntities []MessageEntity       `json:"caption_entities,omitempty"`
	MediaGroupID    string                `json:"media_group_id,omitempty"`
	ReplyMarkup     *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// LargestPhoto returns the photo size variant with the biggest reported
// file size, or nil if the message carries no photo.
func (m *Message) LargestPhoto() *PhotoSize {
	if len(m.Photo) == 0 {
		return nil
	}
	largest := &m.Photo[0]
	for i := range m.Photo[1:] {
		if m.Photo[i+1].FileSize > largest.FileSize {
			largest = &m.Photo[i+1]
		}
	}
	return largest
}

// Chat represents a Telegram chat.
// See https://core.telegram.org/bots/api#chat
type Chat struct {
	ID       int64  `json:"id"`
	Type     string `json:"type"`
	Title    string `json:"title,omitempty"`
	Username string `json:"username,omitempty"`
}

// User represents a Telegram user or bot.
// See https://core.telegram.org/bots/api#user
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	Username  string `json:"username,omitempty"`
}

// Entity types relevant to link extraction. Telegram defines more
// (hashtag, bold, ...) but the forwarder only translates these three.
const (
	EntityTextLink = "text_link"
	EntityURL      = "url"
	EntityMention  = "mention"
)

// MessageEntity describes a span of a message's text or caption. Offset and
// Length are measured in UTF-16 code units, not bytes or runes.
// See https://core.telegram.org/bots/api#messageentity
type MessageEntity struct {
	Type   string `json:"type"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
	URL    string `json:"url,omitempty"`
}

// PhotoSize represents one resolution variant of a photo.
// See https://core.telegram.org/bots/api#photosize
type PhotoSize struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	FileSize     int    `json:"file_size,omitempty"`
}

// File is the result of getFile: a file id resolved to a transient
// server-side path that can be fetched through the file endpoint.
// See https://core.telegram.org/bots/api#file
type File struct {
	FileID   string `json:"file_id"`
	FilePath string `json:"file_path,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`
}

// InlineKeyboardMarkup is a grid of inline buttons attached to a message.
// See https://core.telegram.org/bots/api#inlinekeyboardmarkup
type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

// InlineKeyboardButton is one button of an inline keyboard. Exactly one of
// the action fields is set; only URL buttons survive translation to Bale.
type InlineKeyboardButton struct {
	Text         string `json:"text"`
	URL          string `json:"url,omitempty"`
	CallbackData string `json:"callback_data,omitempty"`
	WebApp       *struct {
		URL string `json:"url"`
	} `json:"web_app,omitempty"`
}
