package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"fkstream/models"
)

const catalogPageSize = 100

// datasetIndex narrows the catalog to entries that actually have sources.
type datasetIndex interface {
	APIIDs() map[string]struct{}
}

type CatalogHandler struct {
	Metadata metadataService
	Dataset  datasetIndex
}

func NewCatalogHandler(metadata metadataService, dataset datasetIndex) *CatalogHandler {
	return &CatalogHandler{Metadata: metadata, Dataset: dataset}
}

func (h *CatalogHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	cfg, _, ok := requestConfig(r)
	if !ok {
		writeJSON(w, models.MetasResponse{Metas: []models.MetaItem{}})
		return
	}

	extra, err := url.ParseQuery(strings.TrimSuffix(mux.Vars(r)["extra"], ".json"))
	if err != nil {
		extra = url.Values{}
	}
	search := strings.TrimSpace(extra.Get("search"))
	genre := strings.TrimSpace(extra.Get("genre"))
	skip, _ := strconv.Atoi(extra.Get("skip"))

	series := h.Metadata.AllSeries(r.Context())
	available := h.Dataset.APIIDs()

	filtered := make([]models.Series, 0, len(series))
	for _, s := range series {
		if _, ok := available[strconv.FormatInt(s.ID, 10)]; !ok {
			continue
		}
		if search != "" && !matchesSearch(s.Title, search) {
			continue
		}
		filtered = append(filtered, s)
	}

	sortKey := cfg.DefaultSort
	if genre != "" {
		if key, isSort := sortKeyForLabel(genre); isSort {
			sortKey = key
		} else {
			kept := filtered[:0]
			for _, s := range filtered {
				if hasGenre(s.Genres, genre) {
					kept = append(kept, s)
				}
			}
			filtered = kept
		}
	}
	sortSeries(filtered, sortKey)

	if skip > 0 {
		if skip >= len(filtered) {
			filtered = nil
		} else {
			filtered = filtered[skip:]
		}
	}
	if len(filtered) > catalogPageSize {
		filtered = filtered[:catalogPageSize]
	}

	metas := make([]models.MetaItem, 0, len(filtered))
	for _, s := range filtered {
		metas = append(metas, models.MetaItem{
			ID:          fmt.Sprintf("fk:%d", s.ID),
			Type:        "anime",
			Name:        s.Title,
			Poster:      s.PosterImage,
			PosterShape: "poster",
			Logo:        s.LogoImage,
			Background:  s.FanartImage,
			Genres:      splitGenres(s.Genres),
			Description: s.Plot,
			ReleaseInfo: releaseInfo(s.Year),
			IMDBRating:  imdbRating(s.RatingValue),
		})
	}
	writeJSON(w, models.MetasResponse{Metas: metas})
}

func matchesSearch(title, search string) bool {
	return strings.Contains(strings.ToLower(title), strings.ToLower(search))
}

func sortKeyForLabel(genre string) (string, bool) {
	for _, opt := range sortOptions {
		if strings.EqualFold(opt.Label, genre) {
			return opt.Key, true
		}
	}
	return "", false
}

func hasGenre(genres, wanted string) bool {
	for _, genre := range strings.Split(genres, ",") {
		if strings.EqualFold(strings.TrimSpace(genre), wanted) {
			return true
		}
	}
	return false
}

func splitGenres(genres string) []string {
	var out []string
	for _, genre := range strings.Split(genres, ",") {
		if genre = strings.TrimSpace(genre); genre != "" {
			out = append(out, genre)
		}
	}
	return out
}

func sortSeries(series []models.Series, key string) {
	switch key {
	case "rating_value":
		sort.SliceStable(series, func(i, j int) bool { return series[i].RatingValue > series[j].RatingValue })
	case "title":
		sort.SliceStable(series, func(i, j int) bool {
			return strings.ToLower(series[i].Title) < strings.ToLower(series[j].Title)
		})
	case "year":
		sort.SliceStable(series, func(i, j int) bool { return series[i].Year > series[j].Year })
	default:
		// last_update, newest first; the provider formats dates so that
		// lexicographic order is chronological.
		sort.SliceStable(series, func(i, j int) bool { return series[i].LastUpdate > series[j].LastUpdate })
	}
}

func releaseInfo(year int) string {
	if year <= 0 {
		return ""
	}
	return strconv.Itoa(year)
}

func imdbRating(rating float64) string {
	if rating <= 0 {
		return ""
	}
	return strconv.FormatFloat(rating, 'f', 1, 64)
}
