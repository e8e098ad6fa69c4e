// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes the bot credential,
// channel identifiers, the artist role map, persistence paths, scheduling
// windows, rate limiting, and the keep-alive server settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// FallbackRoleKey is the artist-role map key whose role id catches every
// unrecognized artist.
const FallbackRoleKey = "other"

// Config holds all configuration values for the application.
type Config struct {
	// Platform
	DiscordToken     string // DISCORD_TOKEN (secret, required)
	DiscordAppID     string // DISCORD_APP_ID (enables slash-command registration)
	DiscordPublicKey string // DISCORD_PUBLIC_KEY (enables the interactions webhook)
	RequestChannelID string // REQUEST_CHANNEL_ID (required)
	AdminChannelID   string // ADMIN_CHANNEL_ID (required)

	// ArtistRoles maps recognized artist names to role-group ids, parsed
	// from ARTIST_ROLES ("carti=123,ken carson=456,other=789"). The
	// "other" entry is the mandatory fallback group.
	ArtistRoles    map[string]string
	FallbackRoleID string

	// Persistence
	StorePath     string // REQUESTS_FILE, the JSON ledger (with .bak sibling)
	ArchiveDBPath string // ARCHIVE_DB_PATH, SQLite archive of resolutions

	// Scheduling
	MaturityWindow   time.Duration // MATURITY_WINDOW, how long voting stays open
	SweepInterval    time.Duration // SWEEP_INTERVAL
	ReminderInterval time.Duration // REMINDER_INTERVAL
	FetchTimeout     time.Duration // FETCH_TIMEOUT, per tally fetch
	LeaderboardSize  int           // LEADERBOARD_SIZE

	// Rate limiting (per submitter)
	RateRPS   float64 // RATE_RPS (tokens per second, 0 disables)
	RateBurst int     // RATE_BURST (bucket size, >= 1)

	// Keep-alive server
	Port    string // just the number
	GinMode string // debug|release|test

	// Logging
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool   // pretty console logs in dev
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables, applies defaults,
// normalizes values, and validates the result. A missing DISCORD_TOKEN is
// the one startup-fatal case: the process cannot do anything without it.
func Load() (Config, error) {
	roles, err := parseRoles(getenv("ARTIST_ROLES", ""))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		// Platform
		DiscordToken:     getenv("DISCORD_TOKEN", ""),
		DiscordAppID:     getenv("DISCORD_APP_ID", ""),
		DiscordPublicKey: getenv("DISCORD_PUBLIC_KEY", ""),
		RequestChannelID: getenv("REQUEST_CHANNEL_ID", ""),
		AdminChannelID:   getenv("ADMIN_CHANNEL_ID", ""),
		ArtistRoles:      roles,
		FallbackRoleID:   roles[FallbackRoleKey],

		// Persistence
		StorePath:     getenv("REQUESTS_FILE", "requests.json"),
		ArchiveDBPath: getenv("ARCHIVE_DB_PATH", "archive.db"),

		// Scheduling
		MaturityWindow:   getdur("MATURITY_WINDOW", 48*time.Hour),
		SweepInterval:    getdur("SWEEP_INTERVAL", 15*time.Minute),
		ReminderInterval: getdur("REMINDER_INTERVAL", 24*time.Hour),
		FetchTimeout:     getdur("FETCH_TIMEOUT", 10*time.Second),
		LeaderboardSize:  getint("LEADERBOARD_SIZE", 5),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 0.5),
		RateBurst: getint("RATE_BURST", 3),

		// Keep-alive server
		Port:    getenv("PORT", "5000"),
		GinMode: strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging
		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	if strings.TrimSpace(cfg.DiscordToken) == "" {
		return cfg, errors.New("DISCORD_TOKEN must not be empty")
	}
	if strings.TrimSpace(cfg.RequestChannelID) == "" {
		return cfg, errors.New("REQUEST_CHANNEL_ID must not be empty")
	}
	if strings.TrimSpace(cfg.AdminChannelID) == "" {
		return cfg, errors.New("ADMIN_CHANNEL_ID must not be empty")
	}
	if len(cfg.ArtistRoles) > 0 && cfg.FallbackRoleID == "" {
		return cfg, fmt.Errorf("ARTIST_ROLES must include an %q fallback entry", FallbackRoleKey)
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if strings.TrimSpace(cfg.StorePath) == "" {
		return cfg, errors.New("REQUESTS_FILE must not be empty")
	}
	if strings.TrimSpace(cfg.ArchiveDBPath) == "" {
		return cfg, errors.New("ARCHIVE_DB_PATH must not be empty")
	}
	if cfg.MaturityWindow <= 0 || cfg.SweepInterval <= 0 || cfg.ReminderInterval <= 0 {
		return cfg, errors.New("windows and intervals must be positive durations")
	}
	if cfg.FetchTimeout < 0 {
		return cfg, errors.New("FETCH_TIMEOUT must be >= 0")
	}
	if cfg.LeaderboardSize < 1 {
		return cfg, errors.New("LEADERBOARD_SIZE must be >= 1")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}

	return cfg, nil
}

// parseRoles parses the ARTIST_ROLES value: comma-separated name=roleID
// pairs. Names keep their spacing ("ken carson=456"); lookup folding
// happens in the domain layer.
func parseRoles(s string) (map[string]string, error) {
	roles := map[string]string{}
	if strings.TrimSpace(s) == "" {
		return roles, nil
	}
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, id, ok := strings.Cut(pair, "=")
		name, id = strings.TrimSpace(name), strings.TrimSpace(id)
		if !ok || name == "" || id == "" {
			return nil, fmt.Errorf("ARTIST_ROLES entry %q is not name=roleID", pair)
		}
		roles[name] = id
	}
	return roles, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
