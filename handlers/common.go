package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"fkstream/config"
	"fkstream/models"
	"fkstream/services/debrid"
	metadatapkg "fkstream/services/metadata"
)

type metadataService interface {
	AllSeries(ctx context.Context) []models.Series
	Anime(ctx context.Context, animeID string) *models.AnimeDetail
}

var _ metadataService = (*metadatapkg.Service)(nil)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// requestConfig decodes the optional base64 config path segment. ok is
// false for a present-but-invalid segment; callers answer with an empty
// result, never an error status, so clients keep working.
func requestConfig(r *http.Request) (cfg config.UserConfig, b64 string, ok bool) {
	b64 = mux.Vars(r)["config"]
	cfg, ok = config.ParseUserConfig(b64)
	return cfg, b64, ok
}

// providerFor builds the debrid provider matching the user configuration,
// or nil for raw torrent mode.
func providerFor(settings *config.Settings, cfg config.UserConfig, clientIP string) debrid.Provider {
	if !cfg.Debrid() {
		return nil
	}
	return debrid.NewStremThru(settings.StremThruURL, cfg.DebridService, cfg.DebridAPIKey, clientIP, nil)
}
