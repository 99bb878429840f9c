package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"fkstream/config"
	"fkstream/models"
)

type MetaHandler struct {
	Metadata metadataService
}

func NewMetaHandler(metadata metadataService) *MetaHandler {
	return &MetaHandler{Metadata: metadata}
}

func (h *MetaHandler) Meta(w http.ResponseWriter, r *http.Request) {
	cfg, _, ok := requestConfig(r)
	if !ok {
		writeJSON(w, models.MetaResponse{})
		return
	}

	animeID, ok := parseAnimeID(mux.Vars(r)["id"])
	if !ok {
		writeJSON(w, models.MetaResponse{})
		return
	}

	detail := h.Metadata.Anime(r.Context(), animeID)
	if detail == nil {
		writeJSON(w, models.MetaResponse{})
		return
	}

	meta := models.MetaItem{
		ID:          fmt.Sprintf("fk:%d", detail.ID),
		Type:        "anime",
		Name:        detail.Title,
		Poster:      detail.PosterImage,
		PosterShape: "poster",
		Logo:        detail.LogoImage,
		Background:  detail.FanartImage,
		Genres:      splitGenres(detail.Genres),
		Description: detail.Plot,
		ReleaseInfo: releaseInfo(detail.Year),
		IMDBRating:  imdbRating(detail.RatingValue),
		IMDBID:      detail.IMDBID,
		Links:       metaLinks(detail, cfg),
		Videos:      metaVideos(detail),
	}
	if detail.TrailerURL != "" {
		if source := youtubeID(detail.TrailerURL); source != "" {
			meta.Trailers = []models.Trailer{{Source: source, Type: "Trailer"}}
		}
	}

	writeJSON(w, models.MetaResponse{Meta: &meta})
}

// parseAnimeID validates the "fk:{n}" meta id. Anything outside the
// numeric 1..999999 range is rejected before it reaches the provider.
func parseAnimeID(id string) (string, bool) {
	id = strings.TrimSuffix(id, ".json")
	raw, found := strings.CutPrefix(id, "fk:")
	if !found {
		return "", false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > 999999 {
		return "", false
	}
	return raw, true
}

func metaVideos(detail *models.AnimeDetail) []models.Video {
	var videos []models.Video
	for idx, season := range detail.Seasons {
		seasonNumber := season.SeasonNumber
		if seasonNumber == 0 {
			seasonNumber = season.Number
		}
		if seasonNumber == 0 {
			seasonNumber = idx + 1
		}
		for _, ep := range season.Episodes {
			n := ep.SeasonNumber
			if n == 0 {
				n = seasonNumber
			}
			videos = append(videos, models.Video{
				ID:       fmt.Sprintf("fk:%d:%d", detail.ID, ep.ID),
				Title:    ep.Title,
				Season:   n,
				Episode:  ep.EpisodeNumber,
				Overview: ep.Plot,
				Released: ep.Aired,
			})
		}
	}
	return videos
}

func metaLinks(detail *models.AnimeDetail, cfg config.UserConfig) []models.MetaLink {
	var links []models.MetaLink

	actors := detail.Actors
	if cfg.MaxActorsDisplay != "all" {
		if limit, err := strconv.Atoi(cfg.MaxActorsDisplay); err == nil && limit < len(actors) {
			actors = actors[:limit]
		}
	}
	for _, actor := range actors {
		links = append(links, models.MetaLink{
			Name:     actor.Name,
			Category: "Cast",
			URL:      "stremio:///search?search=" + actor.Name,
		})
	}

	if detail.IMDBID != "" {
		links = append(links, models.MetaLink{
			Name:     "IMDb",
			Category: "imdb",
			URL:      "https://imdb.com/title/" + detail.IMDBID,
		})
	}

	for _, genre := range splitGenres(detail.Genres) {
		links = append(links, models.MetaLink{
			Name:     genre,
			Category: "Genres",
			URL:      "stremio:///discover/catalog/anime/fankai_catalog?genre=" + genre,
		})
	}
	return links
}

// youtubeID extracts the video id Stremio expects as trailer source.
func youtubeID(trailerURL string) string {
	for _, marker := range []string{"v=", "youtu.be/", "embed/"} {
		if idx := strings.Index(trailerURL, marker); idx >= 0 {
			id := trailerURL[idx+len(marker):]
			if amp := strings.IndexAny(id, "&?"); amp >= 0 {
				id = id[:amp]
			}
			return id
		}
	}
	return ""
}
