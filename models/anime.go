package models

import "fmt"

// Series is one entry of the metadata API series listing. The same fields
// appear on the detail endpoint, so AnimeDetail embeds it.
type Series struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Genres      string  `json:"genres"`
	Plot        string  `json:"plot"`
	Status      string  `json:"status"`
	Year        int     `json:"year"`
	RatingValue float64 `json:"rating_value"`
	IMDBID      string  `json:"imdb_id"`
	PosterImage string  `json:"poster_image"`
	LogoImage   string  `json:"logo_image"`
	FanartImage string  `json:"fanart_image"`
	TrailerURL  string  `json:"trailer_url"`
	LastUpdate  string  `json:"last_update"`
}

// Season groups episodes as returned by the metadata API. Some payloads
// carry the season index as "season_number", older ones as "number".
type Season struct {
	ID           int64        `json:"id"`
	SeasonNumber int          `json:"season_number"`
	Number       int          `json:"number"`
	Episodes     []APIEpisode `json:"episodes"`
}

// APIEpisode is the provider's episode record.
type APIEpisode struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	EpisodeNumber int    `json:"episode_number"`
	SeasonNumber  int    `json:"season_number"`
	NFOFilename   string `json:"nfo_filename"`
	Plot          string `json:"plot"`
	Aired         string `json:"aired"`
}

// Actor is a cast entry attached to a series.
type Actor struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// AnimeDetail is the cache unit of the fetch orchestrator: series details
// composed with seasons, per-season episodes and actors. The aggregate, not
// the parts, is what gets cached.
type AnimeDetail struct {
	Series
	Seasons []Season `json:"seasons"`
	Actors  []Actor  `json:"actors"`
}

// Episode is the request-scoped episode view used by the stream pipeline,
// addressed by the canonical "fk:{anime}:{episode}" token.
type Episode struct {
	ID           string
	Name         string
	Number       int
	SeasonNumber int
	NFOFilename  string
}

// FlattenEpisodes walks seasons in order and produces addressable episodes.
// The season number on the episode wins over the season's own when present.
func (a *AnimeDetail) FlattenEpisodes() []Episode {
	var episodes []Episode
	for idx, season := range a.Seasons {
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
			episodes = append(episodes, Episode{
				ID:           fmt.Sprintf("fk:%d:%d", a.ID, ep.ID),
				Name:         ep.Title,
				Number:       ep.EpisodeNumber,
				SeasonNumber: n,
				NFOFilename:  ep.NFOFilename,
			})
		}
	}
	return episodes
}
