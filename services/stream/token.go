package stream

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// PlaybackToken is the opaque payload embedded in debrid stream URLs. It
// defers the expensive provider call until a user actually selects the
// stream.
type PlaybackToken struct {
	MediaID   string `json:"mediaId"`
	Hash      string `json:"hash"`
	FileIndex int    `json:"fileIndex"`
	Filename  string `json:"filename"`
}

// Encode serializes the token to a URL-safe opaque string.
func (t PlaybackToken) Encode() string {
	payload, _ := json.Marshal(t)
	return base64.RawURLEncoding.EncodeToString(payload)
}

// DecodePlaybackToken reverses Encode. Any malformed input is an error;
// callers respond with a placeholder, never an error status.
func DecodePlaybackToken(raw string) (PlaybackToken, error) {
	var token PlaybackToken
	payload, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return token, fmt.Errorf("decode playback token: %w", err)
	}
	if err := json.Unmarshal(payload, &token); err != nil {
		return token, fmt.Errorf("parse playback token: %w", err)
	}
	if token.MediaID == "" || token.Hash == "" {
		return token, fmt.Errorf("incomplete playback token")
	}
	return token, nil
}

// ParseMediaID splits the canonical "fk:{anime}:{episode}" token. Both ids
// are empty when the token is malformed: the wrong prefix or fewer than
// three parts fails closed.
func ParseMediaID(mediaID string) (animeID, episodeID string) {
	if !strings.Contains(mediaID, "fk:") {
		return "", ""
	}
	parts := strings.Split(mediaID, ":")
	if len(parts) < 3 {
		return "", ""
	}
	return parts[1], parts[2]
}
