// remind sends the party-day reminder to every approved attendee and exits.
//
//	remind                 # everyone, configured delay
//	remind --test          # only TEST_RECIPIENT
//	remind --delay 12      # 12s between messages (clamped to 10-20)
//	remind --dry-run       # list recipients, send nothing
//
// It reads the same configuration as the server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/jredh-dev/partyline/config"
	"github.com/jredh-dev/partyline/internal/database"
	"github.com/jredh-dev/partyline/internal/logging"
	"github.com/jredh-dev/partyline/internal/notify"
	"github.com/jredh-dev/partyline/internal/phone"
	"github.com/jredh-dev/partyline/internal/reminder"
	"github.com/jredh-dev/partyline/internal/wasender"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "remind: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		envFile  string
		testMode bool
		delay    int
		dryRun   bool
	)
	flagSet := pflag.NewFlagSet("remind", pflag.ContinueOnError)
	flagSet.StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment (ignored if absent)")
	flagSet.BoolVar(&testMode, "test", false, "send a single reminder to TEST_RECIPIENT")
	flagSet.IntVar(&delay, "delay", 0, "seconds between messages (0 uses REMINDER_DELAY_SECONDS)")
	flagSet.BoolVar(&dryRun, "dry-run", false, "print recipients without sending")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	cfg, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := database.Open(ctx, database.Options{
		URL:             cfg.Store.URL,
		CredentialsPath: cfg.Firebase.CredentialsPath,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	client := wasender.New(cfg.Wasender.APIKey, cfg.Wasender.BaseURL)
	if !dryRun && !client.Configured() {
		return wasender.ErrNotConfigured
	}

	details := cfg.Party.Details()
	d := reminder.New(reminder.Config{
		Source:        store,
		Sender:        client,
		Compose:       func(name string) string { return notify.ReminderText(details, name) },
		Matcher:       phone.NewMatcher(cfg.Reminder.PhoneMatch),
		TestRecipient: cfg.Reminder.TestRecipient,
		DelaySeconds:  cfg.Reminder.DelaySeconds,
	}, log)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if dryRun {
		recipients, err := d.Recipients(ctx)
		if err != nil {
			return err
		}
		return enc.Encode(recipients)
	}

	report, err := d.Dispatch(ctx, reminder.Options{TestMode: testMode, DelaySeconds: delay})
	if report != nil {
		if encErr := enc.Encode(report); encErr != nil {
			return encErr
		}
	}
	if err != nil {
		return err
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d of %d reminders failed", report.Failed, report.Total)
	}
	return nil
}
