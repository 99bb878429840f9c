package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/spf13/afero"
)

// DatasetSource is one torrent release listed for an anime.
type DatasetSource struct {
	Magnet  string   `json:"magnet"`
	Files   []string `json:"files"`
	Size    int64    `json:"size"`
	Seeders int      `json:"seeders"`
}

// DatasetAnime ties an anime (by metadata API id) to its torrent sources.
type DatasetAnime struct {
	APIID   int64           `json:"api_id"`
	Name    string          `json:"name"`
	Sources []DatasetSource `json:"sources"`
}

type dataset struct {
	Top []DatasetAnime `json:"top"`
}

// CustomEpisode lists scrape-target page URLs for one episode.
type CustomEpisode struct {
	EpisodeNumber int      `json:"episode_number"`
	URLs          []string `json:"urls"`
}

// CustomSeason groups custom episodes.
type CustomSeason struct {
	SeasonNumber int             `json:"season_number"`
	Episodes     []CustomEpisode `json:"episodes"`
}

// CustomAnime lists custom scraped sources for an anime.
type CustomAnime struct {
	APIID   int64          `json:"api_id"`
	Seasons []CustomSeason `json:"seasons"`
}

type customSources struct {
	Animes []CustomAnime `json:"animes"`
}

// Options configures the dataset store.
type Options struct {
	DatasetURL string // authoritative dataset endpoint (requires APIKey)
	APIKey     string
	CustomURL  string // custom-sources JSON endpoint; optional
	CustomPath string // on-disk fallback for the custom snapshot
	Interval   time.Duration
}

// Store holds the periodically refreshed read-only snapshots the pipeline
// consumes: the authoritative torrent dataset and the custom sources.
type Store struct {
	opts       Options
	httpClient *http.Client
	fs         afero.Fs

	mu     sync.RWMutex
	data   dataset
	custom customSources

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewStore creates a dataset store. fs backs the custom-sources fallback
// file; pass afero.NewOsFs() in production.
func NewStore(opts Options, httpClient *http.Client, fs afero.Fs) *Store {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Store{
		opts:       opts,
		httpClient: httpClient,
		fs:         fs,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// LoadDataset fetches the authoritative dataset. A failure here is fatal
// at startup: the dataset, not the metadata provider, decides which
// torrent sources exist.
func (s *Store) LoadDataset(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.opts.DatasetURL, nil)
	if err != nil {
		return fmt.Errorf("build dataset request: %w", err)
	}
	req.Header.Set("X-API-Key", s.opts.APIKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch dataset: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch dataset: unexpected status %d", resp.StatusCode)
	}

	var data dataset
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return fmt.Errorf("decode dataset: %w", err)
	}

	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	log.Printf("[sources] dataset loaded: %d anime entries", len(data.Top))
	return nil
}

// LoadCustom fetches the custom-sources snapshot, persisting it for later
// runs; on fetch failure it falls back to the last persisted copy. Both
// failing is not fatal: custom sources are an optional enrichment.
func (s *Store) LoadCustom(ctx context.Context) {
	if s.opts.CustomURL == "" {
		log.Printf("[sources] no custom source URL configured")
		return
	}

	data, err := s.fetchCustom(ctx)
	if err != nil {
		log.Printf("[sources] custom sources fetch failed: %v", err)
		data, err = s.readCustomFallback()
		if err != nil {
			log.Printf("[sources] custom sources fallback unavailable: %v", err)
			return
		}
		log.Printf("[sources] custom sources restored from disk")
	}

	s.mu.Lock()
	s.custom = *data
	s.mu.Unlock()
	log.Printf("[sources] custom sources loaded: %d anime entries", len(data.Animes))
}

func (s *Store) fetchCustom(ctx context.Context) (*customSources, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.opts.CustomURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var data customSources
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}

	if s.opts.CustomPath != "" {
		if err := s.fs.MkdirAll(filepath.Dir(s.opts.CustomPath), 0o755); err == nil {
			if err := afero.WriteFile(s.fs, s.opts.CustomPath, raw, 0o644); err != nil {
				log.Printf("[sources] failed to persist custom sources: %v", err)
			}
		}
	}
	return &data, nil
}

func (s *Store) readCustomFallback() (*customSources, error) {
	if s.opts.CustomPath == "" {
		return nil, fmt.Errorf("no fallback path configured")
	}
	raw, err := afero.ReadFile(s.fs, s.opts.CustomPath)
	if err != nil {
		return nil, err
	}
	var data customSources
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// StartCustomRefresh re-fetches the custom snapshot on a fixed interval
// until Stop is called or ctx is cancelled.
func (s *Store) StartCustomRefresh(ctx context.Context) {
	go func() {
		defer close(s.doneCh)
		interval := s.opts.Interval
		if interval <= 0 {
			interval = time.Hour
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			case <-ticker.C:
				s.LoadCustom(ctx)
			}
		}
	}()
}

// Stop halts the refresh loop.
func (s *Store) Stop() {
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
	<-s.doneCh
}

// AnimeByAPIID returns the dataset entry whose api_id matches animeID.
func (s *Store) AnimeByAPIID(animeID string) (*DatasetAnime, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.data.Top {
		if strconv.FormatInt(s.data.Top[i].APIID, 10) == animeID {
			entry := s.data.Top[i]
			return &entry, true
		}
	}
	return nil, false
}

// APIIDs returns the set of anime ids present in the dataset; the catalog
// is filtered down to these.
func (s *Store) APIIDs() map[string]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make(map[string]struct{}, len(s.data.Top))
	for i := range s.data.Top {
		ids[strconv.FormatInt(s.data.Top[i].APIID, 10)] = struct{}{}
	}
	return ids
}

// CustomURLs returns the scrape-target page URLs registered for one
// anime/season/episode, in listing order.
func (s *Store) CustomURLs(animeID string, season, episode int) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, anime := range s.custom.Animes {
		if strconv.FormatInt(anime.APIID, 10) != animeID {
			continue
		}
		var urls []string
		for _, ss := range anime.Seasons {
			if ss.SeasonNumber != season {
				continue
			}
			for _, ep := range ss.Episodes {
				if ep.EpisodeNumber == episode {
					urls = append(urls, ep.URLs...)
				}
			}
		}
		return urls
	}
	return nil
}

// SetSnapshots replaces both snapshots; intended for tests.
func (s *Store) SetSnapshots(top []DatasetAnime, animes []CustomAnime) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = dataset{Top: top}
	s.custom = customSources{Animes: animes}
}
