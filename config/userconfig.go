package config

import (
	"encoding/base64"
	"encoding/json"
	"log"
)

// DebridServices lists the accepted debrid service identifiers. "torrent"
// means raw torrent output with no debrid resolution.
var DebridServices = []string{
	"realdebrid", "alldebrid", "premiumize", "torbox", "easydebrid",
	"debridlink", "offcloud", "pikpak", "torrent",
}

var streamFilters = []string{"all", "cached_only", "cached_unknown"}

var sortKeys = []string{"last_update", "rating_value", "title", "year"}

var maxActorsOptions = []string{"5", "10", "15", "all"}

// UserConfig is the per-user configuration carried as a base64 JSON path
// segment in every addon URL.
type UserConfig struct {
	StreamFilter     string `json:"streamFilter"`
	DebridService    string `json:"debridService"`
	DebridAPIKey     string `json:"debridApiKey"`
	MaxActorsDisplay string `json:"maxActorsDisplay"`
	DefaultSort      string `json:"defaultSort"`
}

// DefaultUserConfig returns the configuration used when no path segment is
// present: raw torrent streams, no debrid account.
func DefaultUserConfig() UserConfig {
	return UserConfig{
		StreamFilter:     "all",
		DebridService:    "torrent",
		MaxActorsDisplay: "all",
		DefaultSort:      "last_update",
	}
}

// ParseUserConfig decodes and validates a base64 config segment. An empty
// segment yields the default configuration; an invalid one yields (zero,
// false) and callers respond with an empty result rather than an error.
func ParseUserConfig(b64 string) (UserConfig, bool) {
	cfg := DefaultUserConfig()
	if b64 == "" {
		return cfg, true
	}

	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		if raw, err = base64.URLEncoding.DecodeString(b64); err != nil {
			log.Printf("[config] invalid base64 config segment: %v", err)
			return UserConfig{}, false
		}
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		log.Printf("[config] invalid config payload: %v", err)
		return UserConfig{}, false
	}

	if cfg.StreamFilter == "" {
		cfg.StreamFilter = "all"
	}
	if cfg.DebridService == "" {
		cfg.DebridService = "torrent"
	}
	if cfg.MaxActorsDisplay == "" {
		cfg.MaxActorsDisplay = "all"
	}
	if cfg.DefaultSort == "" {
		cfg.DefaultSort = "last_update"
	}

	if !contains(DebridServices, cfg.DebridService) ||
		!contains(streamFilters, cfg.StreamFilter) ||
		!contains(sortKeys, cfg.DefaultSort) ||
		!contains(maxActorsOptions, cfg.MaxActorsDisplay) {
		return UserConfig{}, false
	}
	return cfg, true
}

// Debrid reports whether streams should be resolved through a debrid
// service instead of emitted as raw torrents.
func (c UserConfig) Debrid() bool {
	return c.DebridService != "torrent"
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
