package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/afero"
)

const datasetJSON = `{
	"top": [
		{
			"api_id": 42,
			"name": "Test Anime",
			"sources": [
				{"magnet": "magnet:?xt=urn:btih:1111111111111111111111111111111111111111", "files": ["ep1.mkv"], "size": 100, "seeders": 3}
			]
		},
		{"api_id": 7, "name": "Other", "sources": []}
	]
}`

const customJSON = `{
	"animes": [
		{
			"api_id": 42,
			"seasons": [
				{
					"season_number": 1,
					"episodes": [
						{"episode_number": 2, "urls": ["http://pages.example/a", "http://pages.example/b"]}
					]
				}
			]
		}
	]
}`

func TestLoadDataset(t *testing.T) {
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		w.Write([]byte(datasetJSON))
	}))
	defer server.Close()

	store := NewStore(Options{DatasetURL: server.URL, APIKey: "secret"}, server.Client(), afero.NewMemMapFs())
	if err := store.LoadDataset(context.Background()); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if gotKey != "secret" {
		t.Fatalf("expected api key header, got %q", gotKey)
	}

	entry, ok := store.AnimeByAPIID("42")
	if !ok {
		t.Fatal("expected anime 42 in dataset")
	}
	if entry.Name != "Test Anime" || len(entry.Sources) != 1 {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if _, ok := store.AnimeByAPIID("999"); ok {
		t.Fatal("expected miss for unknown anime")
	}

	ids := store.APIIDs()
	if len(ids) != 2 {
		t.Fatalf("expected two dataset ids, got %d", len(ids))
	}
	if _, ok := ids["7"]; !ok {
		t.Fatal("expected id 7 in dataset ids")
	}
}

func TestLoadDataset_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	store := NewStore(Options{DatasetURL: server.URL}, server.Client(), afero.NewMemMapFs())
	if err := store.LoadDataset(context.Background()); err == nil {
		t.Fatal("expected error on server failure")
	}
}

func TestLoadCustom_PersistsAndFallsBack(t *testing.T) {
	fs := afero.NewMemMapFs()
	failing := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(customJSON))
	}))
	defer server.Close()

	opts := Options{CustomURL: server.URL, CustomPath: "/data/custom.json"}
	store := NewStore(opts, server.Client(), fs)
	store.LoadCustom(context.Background())

	urls := store.CustomURLs("42", 1, 2)
	if len(urls) != 2 || urls[0] != "http://pages.example/a" {
		t.Fatalf("unexpected custom urls: %v", urls)
	}
	if urls := store.CustomURLs("42", 1, 3); urls != nil {
		t.Fatalf("expected no urls for unknown episode, got %v", urls)
	}

	// A fresh store must recover the snapshot from disk when the fetch
	// fails.
	failing = true
	fresh := NewStore(opts, server.Client(), fs)
	fresh.LoadCustom(context.Background())

	urls = fresh.CustomURLs("42", 1, 2)
	if len(urls) != 2 {
		t.Fatalf("expected fallback snapshot, got %v", urls)
	}
}

func TestLoadCustom_NoURLConfigured(t *testing.T) {
	store := NewStore(Options{}, nil, afero.NewMemMapFs())
	store.LoadCustom(context.Background())

	if urls := store.CustomURLs("42", 1, 2); urls != nil {
		t.Fatalf("expected empty store, got %v", urls)
	}
}
