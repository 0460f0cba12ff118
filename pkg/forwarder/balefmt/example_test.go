// Copyright 2025-2026 aturzone

package balefmt_test

import (
	"fmt"

	"github.com/aturzone/Telegram-Multi-Platform-Forwarder/pkg/forwarder/balefmt"
	"github.com/aturzone/Telegram-Multi-Platform-Forwarder/pkg/forwarder/telegram"
)

func ExampleFormat() {
	text := "read the docs"
	links := balefmt.ExtractLinks(text, []telegram.MessageEntity{
		{Type: telegram.EntityTextLink, Offset: 9, Length: 4, URL: "https://example.com"},
	})
	fmt.Println(balefmt.Format(text, links))
	// Output: read the  [docs](https://example.com)
}

func ExampleSanitize() {
	fmt.Println(balefmt.Sanitize("hello   world\n\n\n\nbye"))
	// Output:
	// hello world
	//
	// bye
}
