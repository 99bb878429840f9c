package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"fkstream/utils"
)

// RegisterRoutes attaches the addon routes. Every resource is reachable
// both with and without the base64 config segment; a bare install uses
// the defaults. Playback is rate limited per IP because it fans out to
// the debrid provider.
func RegisterRoutes(r *mux.Router, limiter *utils.IPRateLimiter, manifest *ManifestHandler, catalog *CatalogHandler, meta *MetaHandler, stream *StreamHandler, playback *PlaybackHandler) {
	r.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/configure", http.StatusFound)
	}).Methods(http.MethodGet)
	r.HandleFunc("/configure", configure).Methods(http.MethodGet)

	for _, prefix := range []string{"", "/{config}"} {
		r.HandleFunc(prefix+"/manifest.json", manifest.Manifest).Methods(http.MethodGet)
		r.HandleFunc(prefix+"/catalog/anime/fankai_catalog.json", catalog.Catalog).Methods(http.MethodGet)
		r.HandleFunc(prefix+"/catalog/anime/fankai_catalog/{extra}", catalog.Catalog).Methods(http.MethodGet)
		r.HandleFunc(prefix+"/meta/anime/{id}", meta.Meta).Methods(http.MethodGet)
		r.HandleFunc(prefix+"/stream/anime/{id}", stream.Streams).Methods(http.MethodGet)
	}
	r.HandleFunc("/{config}/playback/{token}", utils.RateLimit(limiter, playback.Playback)).Methods(http.MethodGet)
}

// configure returns a minimal page; configuration encoding happens
// client-side and lands in the URL path segment.
func configure(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte("<html><body><h1>FKStream</h1><p>Configurez l'addon depuis l'application Stremio.</p></body></html>"))
}
