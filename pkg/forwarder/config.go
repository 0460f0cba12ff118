// Copyright 2025-2026 aturzone

package forwarder

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aturzone/Telegram-Multi-Platform-Forwarder/pkg/forwarder/bale"
	"github.com/aturzone/Telegram-Multi-Platform-Forwarder/pkg/forwarder/telegram"
)

// Config holds the forwarder configuration. Values come from an optional
// YAML file with environment variables taking precedence; the four platform
// identifiers are required and their absence is fatal at startup.
type Config struct {
	TelegramToken string `yaml:"telegram_token"`
	BaleToken     string `yaml:"bale_token"`
	BaleChatID    string `yaml:"bale_chat_id"`
	// SourceChannel is the Telegram channel to relay, as @username or
	// numeric id. Resolved to a numeric id once at startup.
	SourceChannel string `yaml:"source_channel"`

	TelegramAPIURL string `yaml:"telegram_api_url"`
	BaleAPIURL     string `yaml:"bale_api_url"`

	// PollTimeout is the server-side long-poll timeout in seconds.
	PollTimeout int `yaml:"poll_timeout"`
	// PollLimit caps the number of updates returned per poll.
	PollLimit int `yaml:"poll_limit"`
	// MediaGroupSeconds is the fixed collection window for media group
	// siblings, measured from the first message of the group.
	MediaGroupSeconds int `yaml:"media_group_seconds"`
	// Workers bounds the number of messages processed concurrently.
	Workers int `yaml:"workers"`
	// SendRate and SendBurst configure outbound send pacing (sends/second).
	SendRate  float64 `yaml:"send_rate"`
	SendBurst int     `yaml:"send_burst"`

	LogFile  string `yaml:"log_file"`
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the configuration defaults, matching the behavior
// of the long-poll Bot API surface.
func DefaultConfig() Config {
	return Config{
		TelegramAPIURL:    telegram.DefaultBaseURL,
		BaleAPIURL:        bale.DefaultBaseURL,
		PollTimeout:       30,
		PollLimit:         100,
		MediaGroupSeconds: 5,
		Workers:           4,
		SendRate:          3,
		SendBurst:         3,
		LogFile:           "telegram_bale_forwarder.log",
		LogLevel:          "info",
	}
}

// LoadConfig builds the configuration from defaults, an optional YAML file,
// and environment variable overrides, then validates it. An empty path
// skips the file layer; a named file that does not exist is an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	setString := func(dst *string, key string) {
		if val := os.Getenv(key); val != "" {
			*dst = val
		}
	}
	setInt := func(dst *int, key string) {
		if val := os.Getenv(key); val != "" {
			if parsed, err := strconv.Atoi(val); err == nil {
				*dst = parsed
			}
		}
	}

	setString(&c.TelegramToken, "TELEGRAM_BOT_TOKEN")
	setString(&c.BaleToken, "BALE_BOT_TOKEN")
	setString(&c.BaleChatID, "BALE_CHAT_ID")
	setString(&c.SourceChannel, "SOURCE_CHANNEL")
	setString(&c.TelegramAPIURL, "TELEGRAM_API_URL")
	setString(&c.BaleAPIURL, "BALE_API_URL")
	setInt(&c.PollTimeout, "POLL_TIMEOUT")
	setInt(&c.PollLimit, "POLL_LIMIT")
	setInt(&c.MediaGroupSeconds, "MEDIA_GROUP_SECONDS")
	setInt(&c.Workers, "WORKERS")
	setInt(&c.SendBurst, "SEND_BURST")
	if val := os.Getenv("SEND_RATE"); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			c.SendRate = parsed
		}
	}
	setString(&c.LogFile, "LOG_FILE")
	setString(&c.LogLevel, "LOG_LEVEL")
}

// Validate checks the required platform identifiers.
func (c *Config) Validate() error {
	switch {
	case c.TelegramToken == "":
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	case c.BaleToken == "":
		return fmt.Errorf("BALE_BOT_TOKEN is required")
	case c.BaleChatID == "":
		return fmt.Errorf("BALE_CHAT_ID is required")
	case c.SourceChannel == "":
		return fmt.Errorf("SOURCE_CHANNEL is required")
	}
	return nil
}

// MediaGroupWindow returns the media group collection window as a duration.
func (c *Config) MediaGroupWindow() time.Duration {
	return time.Duration(c.MediaGroupSeconds) * time.Second
}
