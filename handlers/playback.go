package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"fkstream/config"
	"fkstream/services/debrid"
	streampkg "fkstream/services/stream"
	"fkstream/utils"
)

type playbackResolver interface {
	Resolve(ctx context.Context, provider debrid.Provider, rawToken, clientIP string) (string, error)
}

var _ playbackResolver = (*streampkg.Resolver)(nil)

type PlaybackHandler struct {
	Resolver playbackResolver
	Settings *config.Settings
}

func NewPlaybackHandler(resolver playbackResolver, settings *config.Settings) *PlaybackHandler {
	return &PlaybackHandler{Resolver: resolver, Settings: settings}
}

// Playback redirects the player to the resolved debrid link. Every failure
// mode falls back to the placeholder video: players handle a redirect far
// better than an error status mid-playback.
func (h *PlaybackHandler) Playback(w http.ResponseWriter, r *http.Request) {
	cfg, _, ok := requestConfig(r)
	if !ok || !cfg.Debrid() {
		h.placeholder(w, r)
		return
	}

	provider := providerFor(h.Settings, cfg, utils.ClientIP(r))
	link, err := h.Resolver.Resolve(r.Context(), provider, mux.Vars(r)["token"], utils.ClientIP(r))
	if err != nil {
		log.Printf("[playback] resolve failed: %v", err)
		h.placeholder(w, r)
		return
	}
	if link == "" {
		// Not downloaded on the debrid service yet.
		h.placeholder(w, r)
		return
	}
	if err := utils.ValidateMediaURL(link); err != nil {
		log.Printf("[playback] rejecting provider link: %v", err)
		h.placeholder(w, r)
		return
	}

	if encoded, err := utils.EncodeURLWithSpaces(link); err == nil {
		link = encoded
	}
	http.Redirect(w, r, link, http.StatusFound)
}

func (h *PlaybackHandler) placeholder(w http.ResponseWriter, r *http.Request) {
	if h.Settings.PlaceholderVideo == "" {
		http.Error(w, "content not ready", http.StatusNotFound)
		return
	}
	http.Redirect(w, r, h.Settings.PlaceholderVideo, http.StatusFound)
}
