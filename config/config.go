package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Settings holds the process-wide configuration. It is loaded once at
// startup and passed into each component constructor; nothing reads it
// from ambient global state.
type Settings struct {
	AddonID   string
	AddonName string
	Host      string
	Port      int

	DatabasePath string

	// FankaiURL is the base URL of the metadata API and, with APIKey,
	// the endpoint that serves the authoritative dataset.
	FankaiURL string
	APIKey    string

	StremThruURL string

	MetadataTTL           time.Duration
	DebridAvailabilityTTL time.Duration
	CustomSourceTTL       time.Duration

	ScrapeLockTTL     time.Duration
	ScrapeWaitTimeout time.Duration

	CustomSourceURL      string
	CustomSourcePath     string
	CustomSourceInterval time.Duration

	// PlaceholderVideo is served when a debrid link is not ready yet.
	PlaceholderVideo string

	LogFile string
}

// Load reads settings from the environment, with a best-effort .env file.
func Load() (*Settings, error) {
	_ = godotenv.Load()

	s := &Settings{
		AddonID:               envString("ADDON_ID", "community.fkstream"),
		AddonName:             envString("ADDON_NAME", "FKStream"),
		Host:                  envString("HOST", "0.0.0.0"),
		Port:                  envInt("PORT", 8000),
		DatabasePath:          envString("DATABASE_PATH", "data/fkstream.db"),
		FankaiURL:             strings.TrimSuffix(envString("FANKAI_URL", ""), "/"),
		APIKey:                envString("API_KEY", ""),
		StremThruURL:          strings.TrimSuffix(envString("STREMTHRU_URL", "https://stremthru.13377001.xyz"), "/"),
		MetadataTTL:           envSeconds("METADATA_TTL", 86400),
		DebridAvailabilityTTL: envSeconds("DEBRID_AVAILABILITY_TTL", 86400),
		CustomSourceTTL:       envSeconds("CUSTOM_SOURCE_TTL", 3600),
		ScrapeLockTTL:         envSeconds("SCRAPE_LOCK_TTL", 300),
		ScrapeWaitTimeout:     envSeconds("SCRAPE_WAIT_TIMEOUT", 30),
		CustomSourceURL:       envString("CUSTOM_SOURCE_URL", ""),
		CustomSourcePath:      envString("CUSTOM_SOURCE_PATH", "data/custom_sources.json"),
		CustomSourceInterval:  envSeconds("CUSTOM_SOURCE_INTERVAL", 3600),
		PlaceholderVideo:      envString("PLACEHOLDER_VIDEO", ""),
		LogFile:               envString("LOG_FILE", ""),
	}

	if s.FankaiURL == "" {
		return nil, fmt.Errorf("FANKAI_URL is required")
	}
	if s.APIKey == "" {
		return nil, fmt.Errorf("API_KEY is required")
	}
	return s, nil
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return fallback
}

func envSeconds(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Second
}
