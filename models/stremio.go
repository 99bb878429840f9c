package models

// Stremio addon wire types. These mirror the addon protocol JSON and carry
// no behavior.

type Manifest struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Version       string          `json:"version"`
	Catalogs      []Catalog       `json:"catalogs"`
	Resources     []any           `json:"resources"`
	Types         []string        `json:"types"`
	Logo          string          `json:"logo,omitempty"`
	Background    string          `json:"background,omitempty"`
	BehaviorHints map[string]bool `json:"behaviorHints,omitempty"`
}

type Catalog struct {
	Type  string          `json:"type"`
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Extra []ExtraProperty `json:"extra,omitempty"`
}

type ExtraProperty struct {
	Name       string   `json:"name"`
	IsRequired bool     `json:"isRequired,omitempty"`
	Options    []string `json:"options,omitempty"`
}

// ManifestResource is the object form of a manifest resource entry
// (string entries go into Manifest.Resources directly).
type ManifestResource struct {
	Name       string   `json:"name"`
	Types      []string `json:"types"`
	IDPrefixes []string `json:"idPrefixes,omitempty"`
}

type MetaItem struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Name          string          `json:"name"`
	Logo          string          `json:"logo,omitempty"`
	Poster        string          `json:"poster,omitempty"`
	PosterShape   string          `json:"posterShape,omitempty"`
	Background    string          `json:"background,omitempty"`
	Genres        []string        `json:"genres,omitempty"`
	IMDBRating    string          `json:"imdbRating,omitempty"`
	ReleaseInfo   string          `json:"releaseInfo,omitempty"`
	Runtime       string          `json:"runtime,omitempty"`
	IMDBID        string          `json:"imdb_id,omitempty"`
	Description   string          `json:"description,omitempty"`
	Links         []MetaLink      `json:"links,omitempty"`
	Trailers      []Trailer       `json:"trailers,omitempty"`
	Videos        []Video         `json:"videos,omitempty"`
	BehaviorHints map[string]bool `json:"behaviorHints,omitempty"`
}

type MetaLink struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	URL      string `json:"url"`
}

type Trailer struct {
	Source string `json:"source"`
	Type   string `json:"type"`
}

type Video struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Season    int    `json:"season"`
	Episode   int    `json:"episode"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Overview  string `json:"overview,omitempty"`
	Released  string `json:"released,omitempty"`
}

// Stream is one playable stream descriptor. Exactly one of URL or
// InfoHash/FileIdx is set: direct/debrid streams carry a URL, raw torrent
// streams carry the hash and file index.
type Stream struct {
	Name          string               `json:"name"`
	Description   string               `json:"description,omitempty"`
	URL           string               `json:"url,omitempty"`
	InfoHash      string               `json:"infoHash,omitempty"`
	FileIdx       *int                 `json:"fileIdx,omitempty"`
	Sources       []string             `json:"sources,omitempty"`
	BehaviorHints *StreamBehaviorHints `json:"behaviorHints,omitempty"`
}

type StreamBehaviorHints struct {
	BingeGroup string `json:"bingeGroup,omitempty"`
	Filename   string `json:"filename,omitempty"`
	VideoSize  int64  `json:"videoSize,omitempty"`
}

type MetasResponse struct {
	Metas []MetaItem `json:"metas"`
}

type MetaResponse struct {
	Meta *MetaItem `json:"meta"`
}

type StreamsResponse struct {
	Streams []Stream `json:"streams"`
}
