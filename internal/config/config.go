// Package config provides centralized configuration loaded from
// environment variables. Shared by every alerter subcommand.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fiftyclub/alerter/internal/scorer"
)

// --------------------------------------------------------------------------
// Season registry
// --------------------------------------------------------------------------

// SeasonLabel returns the NBA season label containing now, e.g. "2025-26".
// The season rolls over in October.
func SeasonLabel(now time.Time) string {
	year := now.Year()
	if now.Month() >= time.October {
		return fmt.Sprintf("%d-%02d", year, (year+1)%100)
	}
	return fmt.Sprintf("%d-%02d", year-1, year%100)
}

// DefaultSeasonStart returns the approximate start (October 15) of the
// season containing now.
func DefaultSeasonStart(now time.Time) time.Time {
	year := now.Year()
	if now.Month() < time.October {
		year--
	}
	return time.Date(year, time.October, 15, 0, 0, 0, 0, time.UTC)
}

// --------------------------------------------------------------------------
// Config struct — populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Data files
	DataDir         string
	LedgerPath      string
	ClubDataPath    string
	SubscribersPath string
	LockPath        string

	// Stats provider
	ESPNBaseURL           string
	ESPNRequestsPerMinute int
	FetchRetries          int

	// Mailing provider
	EmailOctopusAPIKey  string
	EmailOctopusListID  string
	EmailOctopusBaseURL string
	SenderName          string
	SenderEmail         string

	// Dispatch policy: the minimum delivery success ratio below which a
	// run is treated as failed and the ledger is not advanced.
	MinSuccessRatio float64

	// Season
	SeasonStart time.Time
}

// Load reads configuration from environment variables with sensible
// defaults. Nothing is hard-required here; commands that need provider
// credentials check for them themselves.
func Load() (*Config, error) {
	dataDir := envOr("DATA_DIR", "data")

	seasonStart := DefaultSeasonStart(time.Now().UTC())
	if v := os.Getenv("SEASON_START"); v != "" {
		parsed, err := time.Parse(scorer.DateLayout, v)
		if err != nil {
			return nil, fmt.Errorf("parse SEASON_START %q: %w", v, err)
		}
		seasonStart = parsed
	}

	ratio := envFloat("MIN_SUCCESS_RATIO", 0.95)
	if ratio <= 0 || ratio > 1 {
		return nil, fmt.Errorf("MIN_SUCCESS_RATIO must be in (0, 1], got %v", ratio)
	}

	return &Config{
		DataDir:         dataDir,
		LedgerPath:      envOr("LEDGER_PATH", filepath.Join(dataDir, "sent_alerts.json")),
		ClubDataPath:    envOr("CLUB_DATA_PATH", filepath.Join(dataDir, "50_club.json")),
		SubscribersPath: envOr("SUBSCRIBERS_PATH", filepath.Join(dataDir, "subscribers.json")),
		LockPath:        envOr("LOCK_PATH", filepath.Join(dataDir, "alerter.lock")),

		ESPNBaseURL:           envOr("ESPN_BASE_URL", ""),
		ESPNRequestsPerMinute: envInt("ESPN_REQUESTS_PER_MINUTE", 120),
		FetchRetries:          envInt("FETCH_RETRIES", 3),

		EmailOctopusAPIKey:  envOr("EMAILOCTOPUS_API_KEY", ""),
		EmailOctopusListID:  envOr("EMAILOCTOPUS_LIST_ID", ""),
		EmailOctopusBaseURL: envOr("EMAILOCTOPUS_BASE_URL", ""),
		SenderName:          envOr("SENDER_NAME", "NBA 50-Point Alert"),
		SenderEmail:         envOr("SENDER_EMAIL", "alerts@nba50alert.com"),

		MinSuccessRatio: ratio,

		SeasonStart: seasonStart,
	}, nil
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
