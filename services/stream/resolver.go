package stream

import (
	"context"
	"fmt"
	"log"

	"fkstream/services/debrid"
)

// Resolver turns a playback token back into a direct video URL through the
// user's debrid provider. It runs when the user actually starts playback,
// which is the first moment the provider call is worth its cost.
type Resolver struct {
	metadata episodeResolver
}

// NewResolver creates a playback resolver.
func NewResolver(metadata episodeResolver) *Resolver {
	return &Resolver{metadata: metadata}
}

// Resolve decodes rawToken and asks the provider for a streaming link.
// An empty URL with a nil error means the content is not ready yet; the
// caller serves the placeholder video.
func (r *Resolver) Resolve(ctx context.Context, provider debrid.Provider, rawToken, clientIP string) (string, error) {
	token, err := DecodePlaybackToken(rawToken)
	if err != nil {
		return "", err
	}

	animeID, episodeID := ParseMediaID(token.MediaID)
	if animeID == "" {
		return "", fmt.Errorf("malformed media id in token: %q", token.MediaID)
	}

	req := debrid.DownloadRequest{
		Hash:      token.Hash,
		FileIndex: token.FileIndex,
		Filename:  token.Filename,
		MediaID:   token.MediaID,
		ClientIP:  clientIP,
	}
	if _, episode := r.metadata.Episode(ctx, animeID, episodeID, token.MediaID); episode != nil {
		req.Season = episode.SeasonNumber
		req.Episode = episode.Number
	} else {
		log.Printf("[stream] resolving %s without episode metadata", token.MediaID)
	}

	link, err := provider.GenerateDownloadLink(ctx, req)
	if err != nil {
		return "", fmt.Errorf("generate download link: %w", err)
	}
	return link, nil
}
