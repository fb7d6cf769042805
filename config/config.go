package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/jredh-dev/partyline/internal/party"
	"github.com/jredh-dev/partyline/internal/phone"
	"github.com/jredh-dev/partyline/internal/reminder"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Firebase FirebaseConfig
	Wasender WasenderConfig
	Webhook  WebhookConfig
	Reminder ReminderConfig
	Party    PartyConfig
	Admin    AdminConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	RequestTimeout time.Duration
	AllowedOrigin  string // CORS origin for the admin dashboard
}

type StoreConfig struct {
	URL string // SQLite path, postgres:// URL or firestore://<project>
}

type FirebaseConfig struct {
	CredentialsPath string
}

type WasenderConfig struct {
	APIKey  string
	BaseURL string
}

type WebhookConfig struct {
	Secret        string
	EnforceSecret bool
}

type ReminderConfig struct {
	TestRecipient string
	DelaySeconds  int // already clamped
	PhoneMatch    phone.MatchMode
}

type PartyConfig struct {
	Title       string
	Description string
	Venue       string
	Address     string
	Start       time.Time
	End         time.Time
	GroupName   string
}

type AdminConfig struct {
	JWTSigningKey string
	JWTIssuer     string
	Role          string
}

type LogConfig struct {
	Level  string
	Format string // console or json
}

// Details returns the party as used by messages and the calendar.
func (p PartyConfig) Details() party.Details {
	return party.Details{
		Title:       p.Title,
		Description: p.Description,
		Venue:       p.Venue,
		Address:     p.Address,
		Start:       p.Start,
		End:         p.End,
	}
}

var defaults = map[string]any{
	"port":                      "8080",
	"env":                       "development",
	"request_timeout":           "60s",
	"allowed_origin":            "*",
	"store_url":                 "partyline.db",
	"firebase_credentials_path": "",
	"wasender_api_key":          "",
	"wasender_api_url":          "https://www.wasenderapi.com/api",
	"webhook_secret":            "",
	"webhook_enforce_secret":    false,
	"test_recipient":            "",
	"reminder_delay_seconds":    reminder.DefaultDelaySeconds,
	"phone_match":               string(phone.MatchSuffix),
	"party_title":               "Toby's 22nd Birthday Party",
	"party_description":         "Join us for an unforgettable evening of celebration at A'DAM 360!",
	"party_venue":               "A'DAM 360",
	"party_address":             "Overhoeksplein 5, 1031 KS Amsterdam, Netherlands",
	"party_timezone":            "Europe/Amsterdam",
	"party_start":               "2026-02-21T21:00:00",
	"party_end":                 "2026-02-22T02:00:00",
	"party_group_name":          "Toby's Birthday Party Group",
	"jwt_signing_key":           "",
	"jwt_issuer":                "portal.jredh.dev",
	"admin_role":                "admin",
	"log_level":                 "info",
	"log_format":                "console",
}

// Load reads configuration from the environment. When envFile is non-empty
// it is loaded first; variables already set in the environment win. A
// missing envFile is not an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	match, err := phone.ParseMatchMode(v.GetString("phone_match"))
	if err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(v.GetString("party_timezone"))
	if err != nil {
		return nil, fmt.Errorf("party timezone: %w", err)
	}
	start, err := parseLocal(v.GetString("party_start"), loc)
	if err != nil {
		return nil, fmt.Errorf("party start: %w", err)
	}
	end, err := parseLocal(v.GetString("party_end"), loc)
	if err != nil {
		return nil, fmt.Errorf("party end: %w", err)
	}
	if !end.After(start) {
		return nil, fmt.Errorf("party end %s is not after start %s", end, start)
	}

	format := strings.ToLower(v.GetString("log_format"))
	if format != "console" && format != "json" {
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("port"),
			Env:            v.GetString("env"),
			RequestTimeout: v.GetDuration("request_timeout"),
			AllowedOrigin:  v.GetString("allowed_origin"),
		},
		Store: StoreConfig{
			URL: v.GetString("store_url"),
		},
		Firebase: FirebaseConfig{
			CredentialsPath: v.GetString("firebase_credentials_path"),
		},
		Wasender: WasenderConfig{
			APIKey:  v.GetString("wasender_api_key"),
			BaseURL: v.GetString("wasender_api_url"),
		},
		Webhook: WebhookConfig{
			Secret:        v.GetString("webhook_secret"),
			EnforceSecret: v.GetBool("webhook_enforce_secret"),
		},
		Reminder: ReminderConfig{
			TestRecipient: v.GetString("test_recipient"),
			DelaySeconds:  int(reminder.ClampDelay(v.GetInt("reminder_delay_seconds")) / time.Second),
			PhoneMatch:    match,
		},
		Party: PartyConfig{
			Title:       v.GetString("party_title"),
			Description: v.GetString("party_description"),
			Venue:       v.GetString("party_venue"),
			Address:     v.GetString("party_address"),
			Start:       start,
			End:         end,
			GroupName:   v.GetString("party_group_name"),
		},
		Admin: AdminConfig{
			JWTSigningKey: v.GetString("jwt_signing_key"),
			JWTIssuer:     v.GetString("jwt_issuer"),
			Role:          v.GetString("admin_role"),
		},
		Log: LogConfig{
			Level:  v.GetString("log_level"),
			Format: format,
		},
	}, nil
}

// parseLocal accepts RFC 3339, or a wall-clock time without offset which is
// interpreted in loc.
func parseLocal(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q", s)
}
