// partyline - Birthday party RSVP service with WhatsApp relay
// Copyright (C) 2026  partyline contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/jredh-dev/partyline/config"
	"github.com/jredh-dev/partyline/internal/attendee"
	"github.com/jredh-dev/partyline/internal/auth"
	"github.com/jredh-dev/partyline/internal/database"
	"github.com/jredh-dev/partyline/internal/groups"
	"github.com/jredh-dev/partyline/internal/handlers"
	"github.com/jredh-dev/partyline/internal/logging"
	"github.com/jredh-dev/partyline/internal/notify"
	"github.com/jredh-dev/partyline/internal/phone"
	"github.com/jredh-dev/partyline/internal/reminder"
	"github.com/jredh-dev/partyline/internal/server"
	"github.com/jredh-dev/partyline/internal/wasender"
	"github.com/jredh-dev/partyline/internal/webhook"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "partyline: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		envFile     string
		port        string
		showVersion bool
	)
	flagSet := pflag.NewFlagSet("partyline", pflag.ContinueOnError)
	flagSet.StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment (ignored if absent)")
	flagSet.StringVarP(&port, "port", "p", "", "listen port (overrides PORT)")
	flagSet.BoolVar(&showVersion, "version", false, "show version information")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	if showVersion {
		fmt.Printf("partyline %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", buildDate)
		return nil
	}

	cfg, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if port != "" {
		cfg.Server.Port = port
	}

	log, err := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	ctx := context.Background()
	store, err := database.Open(ctx, database.Options{
		URL:             cfg.Store.URL,
		CredentialsPath: cfg.Firebase.CredentialsPath,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	client := wasender.New(cfg.Wasender.APIKey, cfg.Wasender.BaseURL)
	if !client.Configured() {
		log.Warn().Msg("WASENDER_API_KEY is empty, outbound WhatsApp messages are disabled")
	}
	if cfg.Admin.JWTSigningKey == "" {
		log.Warn().Msg("JWT_SIGNING_KEY is empty, admin API is disabled")
	}

	details := cfg.Party.Details()
	matcher := phone.NewMatcher(cfg.Reminder.PhoneMatch)
	notifier := notify.New(client, details, log)

	h := handlers.New(handlers.Deps{
		Store: store,
		Processor: webhook.NewProcessor(
			attendee.NewResolver(store, matcher),
			attendee.NewRecorder(store),
			notifier,
			nil,
			log,
		),
		Secret: webhook.Verifier{
			Secret:  cfg.Webhook.Secret,
			Enforce: cfg.Webhook.EnforceSecret,
		},
		Notifier: notifier,
		Reminders: reminder.New(reminder.Config{
			Source:        store,
			Sender:        client,
			Compose:       func(name string) string { return notify.ReminderText(details, name) },
			Matcher:       matcher,
			TestRecipient: cfg.Reminder.TestRecipient,
			DelaySeconds:  cfg.Reminder.DelaySeconds,
		}, log),
		Groups: groups.NewBuilder(client, nil, cfg.Party.GroupName, log),
		Party:  details,
		Log:    log,
	})

	srv := server.New(server.Options{AllowedOrigin: cfg.Server.AllowedOrigin}, log)
	verifier := auth.NewVerifier(cfg.Admin.JWTSigningKey, cfg.Admin.JWTIssuer, cfg.Admin.Role)
	h.Routes(srv.Router, verifier.Middleware, cfg.Server.RequestTimeout)

	log.Info().
		Str("version", version).
		Str("env", cfg.Server.Env).
		Str("phone_match", string(cfg.Reminder.PhoneMatch)).
		Int("reminder_delay_seconds", cfg.Reminder.DelaySeconds).
		Msg("partyline configured")

	return srv.ListenAndServe(ctx, ":"+cfg.Server.Port)
}
