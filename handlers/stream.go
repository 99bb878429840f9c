package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"fkstream/config"
	"fkstream/models"
	"fkstream/services/debrid"
	streampkg "fkstream/services/stream"
	"fkstream/utils"
)

type streamBuilder interface {
	BuildStreams(ctx context.Context, mediaID, configB64 string, cfg config.UserConfig, provider debrid.Provider) []models.Stream
}

var _ streamBuilder = (*streampkg.Builder)(nil)

type StreamHandler struct {
	Builder  streamBuilder
	Settings *config.Settings
}

func NewStreamHandler(builder streamBuilder, settings *config.Settings) *StreamHandler {
	return &StreamHandler{Builder: builder, Settings: settings}
}

func (h *StreamHandler) Streams(w http.ResponseWriter, r *http.Request) {
	cfg, b64, ok := requestConfig(r)
	if !ok {
		writeJSON(w, models.StreamsResponse{Streams: []models.Stream{}})
		return
	}

	mediaID := strings.TrimSuffix(mux.Vars(r)["id"], ".json")
	provider := providerFor(h.Settings, cfg, utils.ClientIP(r))

	streams := h.Builder.BuildStreams(r.Context(), mediaID, b64, cfg, provider)
	if streams == nil {
		streams = []models.Stream{}
	}
	writeJSON(w, models.StreamsResponse{Streams: streams})
}
