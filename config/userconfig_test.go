package config

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func encodeConfig(t *testing.T, cfg UserConfig) string {
	t.Helper()
	raw, err := json.Marshal(cfg)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(raw)
}

func TestParseUserConfig_EmptyYieldsDefaults(t *testing.T) {
	cfg, ok := ParseUserConfig("")
	require.True(t, ok)
	require.Equal(t, "torrent", cfg.DebridService)
	require.Equal(t, "all", cfg.StreamFilter)
	require.Equal(t, "last_update", cfg.DefaultSort)
	require.False(t, cfg.Debrid())
}

func TestParseUserConfig_RoundTrip(t *testing.T) {
	in := UserConfig{
		StreamFilter:     "cached_only",
		DebridService:    "realdebrid",
		DebridAPIKey:     "key",
		MaxActorsDisplay: "10",
		DefaultSort:      "rating_value",
	}

	cfg, ok := ParseUserConfig(encodeConfig(t, in))
	require.True(t, ok)
	require.Equal(t, in, cfg)
	require.True(t, cfg.Debrid())
}

func TestParseUserConfig_URLSafeEncoding(t *testing.T) {
	raw, err := json.Marshal(UserConfig{DebridService: "torbox"})
	require.NoError(t, err)

	cfg, ok := ParseUserConfig(base64.URLEncoding.EncodeToString(raw))
	require.True(t, ok)
	require.Equal(t, "torbox", cfg.DebridService)
}

func TestParseUserConfig_PartialPayloadGetsDefaults(t *testing.T) {
	cfg, ok := ParseUserConfig(encodeConfig(t, UserConfig{DebridService: "alldebrid"}))
	require.True(t, ok)
	require.Equal(t, "alldebrid", cfg.DebridService)
	require.Equal(t, "all", cfg.StreamFilter)
	require.Equal(t, "all", cfg.MaxActorsDisplay)
}

func TestParseUserConfig_Invalid(t *testing.T) {
	tests := map[string]string{
		"not base64":       "!!!",
		"not json":         base64.StdEncoding.EncodeToString([]byte("hello")),
		"unknown service":  encodeConfig(t, UserConfig{DebridService: "bogusdebrid"}),
		"unknown filter":   encodeConfig(t, UserConfig{StreamFilter: "some_filter"}),
		"unknown sort":     encodeConfig(t, UserConfig{DefaultSort: "popularity"}),
		"bad actors limit": encodeConfig(t, UserConfig{MaxActorsDisplay: "7"}),
	}
	for name, segment := range tests {
		t.Run(name, func(t *testing.T) {
			_, ok := ParseUserConfig(segment)
			require.False(t, ok)
		})
	}
}
