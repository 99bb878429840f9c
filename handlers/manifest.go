package handlers

import (
	"net/http"
	"sort"
	"strings"

	"fkstream/config"
	"fkstream/models"
)

// Sort pseudo-genres exposed in the catalog genre list, mapped to the
// series fields they order by. Labels are French like the rest of the
// catalog surface.
var sortOptions = []struct {
	Label string
	Key   string
}{
	{"Derniers ajouts", "last_update"},
	{"Mieux notés", "rating_value"},
	{"Ordre alphabétique", "title"},
	{"Plus récents", "year"},
}

type ManifestHandler struct {
	Metadata metadataService
	Settings *config.Settings
}

func NewManifestHandler(metadata metadataService, settings *config.Settings) *ManifestHandler {
	return &ManifestHandler{Metadata: metadata, Settings: settings}
}

func (h *ManifestHandler) Manifest(w http.ResponseWriter, r *http.Request) {
	_, _, ok := requestConfig(r)
	if !ok {
		// Invalid config still yields a valid manifest so the client can
		// surface the problem instead of erroring out.
		writeJSON(w, models.Manifest{
			ID:          h.Settings.AddonID + ".invalid",
			Name:        h.Settings.AddonName + " (configuration invalide)",
			Description: "La configuration fournie est invalide. Réinstallez l'addon.",
			Version:     Version,
			Types:       []string{"anime"},
			Catalogs:    []models.Catalog{},
			Resources:   []any{},
		})
		return
	}

	genres := make([]string, 0, len(sortOptions))
	for _, opt := range sortOptions {
		genres = append(genres, opt.Label)
	}
	genres = append(genres, seriesGenres(h.Metadata.AllSeries(r.Context()))...)

	writeJSON(w, models.Manifest{
		ID:          h.Settings.AddonID,
		Name:        h.Settings.AddonName,
		Description: "Films et séries d'animation remastérisés par la Fankai team",
		Version:     Version,
		Types:       []string{"anime"},
		Catalogs: []models.Catalog{
			{
				Type: "anime",
				ID:   "fankai_catalog",
				Name: "Fankai",
				Extra: []models.ExtraProperty{
					{Name: "search"},
					{Name: "genre", Options: genres},
					{Name: "skip"},
				},
			},
		},
		Resources: []any{
			"catalog",
			"meta",
			models.ManifestResource{Name: "stream", Types: []string{"anime"}, IDPrefixes: []string{"fk"}},
		},
		Logo:          "https://fankai.fr/img/logo.png",
		BehaviorHints: map[string]bool{"configurable": true, "configurationRequired": false},
	})
}

// seriesGenres collects the distinct genres across the listing, sorted.
// Provider genre strings are comma-separated.
func seriesGenres(series []models.Series) []string {
	seen := make(map[string]struct{})
	for _, s := range series {
		for _, genre := range strings.Split(s.Genres, ",") {
			genre = strings.TrimSpace(genre)
			if genre != "" {
				seen[genre] = struct{}{}
			}
		}
	}
	genres := make([]string, 0, len(seen))
	for genre := range seen {
		genres = append(genres, genre)
	}
	sort.Strings(genres)
	return genres
}
