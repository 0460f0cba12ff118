// Copyright 2025-2026 aturzone
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Command telegram-forwarder relays posts from a Telegram channel to a Bale
// chat, translating rich-text entities, inline keyboards, and media groups
// between the two Bot API dialects.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/aturzone/Telegram-Multi-Platform-Forwarder/pkg/forwarder"
)

// These are filled at build time with -ldflags.
var (
	Tag       = "unknown"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found, using environment variables")
	}

	cfg, err := forwarder.LoadConfig(os.Getenv("CONFIG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		fmt.Fprintln(os.Stderr, "\nRequired environment variables (or .env entries):")
		fmt.Fprintln(os.Stderr, "  TELEGRAM_BOT_TOKEN=your_telegram_bot_token")
		fmt.Fprintln(os.Stderr, "  BALE_BOT_TOKEN=your_bale_bot_token")
		fmt.Fprintln(os.Stderr, "  BALE_CHAT_ID=@your_bale_channel")
		fmt.Fprintln(os.Stderr, "  SOURCE_CHANNEL=@your_telegram_channel")
		os.Exit(1)
	}

	log := buildLogger(cfg)
	log.Info().
		Str("version", Tag).
		Str("commit", Commit).
		Str("built", BuildTime).
		Msg("Telegram channel to Bale forwarder")

	f := forwarder.New(cfg, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("Shutting down")
		f.Stop()
		cancel()
	}()

	if err := f.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start forwarder")
	}
}

// buildLogger writes human-readable logs to stdout and, when a log file is
// configured, structured JSON to a size-rotated file.
func buildLogger(cfg *forwarder.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	writers := []io.Writer{zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}}
	if cfg.LogFile != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    20, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		})
	}

	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger()
}
