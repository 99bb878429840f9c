package metadata

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	"fkstream/internal/database"
	"fkstream/models"
)

// apiClient is the metadata provider contract consumed by the service.
type apiClient interface {
	GetAllSeries(ctx context.Context) ([]models.Series, error)
	GetSeriesDetails(ctx context.Context, seriesID string) (*models.Series, error)
	GetSeasons(ctx context.Context, seriesID string) ([]models.Season, error)
	GetEpisodes(ctx context.Context, seasonID string) ([]models.APIEpisode, error)
	GetActors(ctx context.Context, seriesID string) ([]models.Actor, error)
}

var _ apiClient = (*Client)(nil)

// Options tunes cache and lock durations.
type Options struct {
	MetadataTTL time.Duration
	LockTTL     time.Duration
	WaitTimeout time.Duration
}

// Service resolves anime metadata with at-most-one-fetch-in-flight
// semantics: cache first, then a scoped cross-process lock around the
// remote fetch, with an unlocked fallback when waiting for the lock times
// out. "No data" is an expected outcome, never an error.
type Service struct {
	client apiClient
	repo   *database.Repository
	opts   Options
}

// NewService creates a metadata service.
func NewService(client apiClient, repo *database.Repository, opts Options) *Service {
	return &Service{client: client, repo: repo, opts: opts}
}

// Anime returns the cached or freshly fetched aggregate for one anime id.
func (s *Service) Anime(ctx context.Context, animeID string) *models.AnimeDetail {
	mediaID := "fk:" + animeID

	var cached models.AnimeDetail
	if s.repo.GetMetadata(ctx, mediaID, &cached) {
		log.Printf("[metadata] cache hit: %s", mediaID)
		return &cached
	}

	lock := s.repo.AcquireScoped(ctx, "metadata_fetch_"+animeID, s.opts.LockTTL, s.opts.WaitTimeout)
	defer lock.Release(ctx)

	if lock.TimedOut {
		// Another worker is stuck or slow; fetching unlocked risks
		// duplicate work but never blocks the request indefinitely.
		log.Printf("[metadata] lock wait timed out for %s, fetching unlocked", animeID)
		return s.fetchAndCache(ctx, mediaID, animeID)
	}

	// Double-checked read: a concurrent winner may have populated the
	// cache while we were waiting on the lock.
	if s.repo.GetMetadata(ctx, mediaID, &cached) {
		log.Printf("[metadata] cache hit after lock: %s", mediaID)
		return &cached
	}

	log.Printf("[metadata] cache miss: %s, fetching with lock held", mediaID)
	return s.fetchAndCache(ctx, mediaID, animeID)
}

func (s *Service) fetchAndCache(ctx context.Context, mediaID, animeID string) *models.AnimeDetail {
	detail := s.fetchComplete(ctx, animeID)
	if detail == nil {
		return nil
	}
	if err := s.repo.SetMetadata(ctx, mediaID, detail, s.opts.MetadataTTL); err != nil {
		log.Printf("[metadata] failed to cache %s: %v", mediaID, err)
	}
	return detail
}

// fetchComplete composes series details, seasons, per-season episodes and
// actors into the single aggregate that is the cache unit.
func (s *Service) fetchComplete(ctx context.Context, animeID string) *models.AnimeDetail {
	series, err := s.client.GetSeriesDetails(ctx, animeID)
	if err != nil || series == nil {
		log.Printf("[metadata] series details unavailable for %s: %v", animeID, err)
		return nil
	}

	seasons, err := s.client.GetSeasons(ctx, animeID)
	if err != nil {
		log.Printf("[metadata] seasons unavailable for %s: %v", animeID, err)
		seasons = nil
	}
	for i := range seasons {
		episodes, epErr := s.client.GetEpisodes(ctx, strconv.FormatInt(seasons[i].ID, 10))
		if epErr != nil {
			log.Printf("[metadata] episodes unavailable for season %d: %v", seasons[i].ID, epErr)
			continue
		}
		seasons[i].Episodes = episodes
	}

	actors, err := s.client.GetActors(ctx, animeID)
	if err != nil {
		log.Printf("[metadata] actors unavailable for %s: %v", animeID, err)
		actors = nil
	}

	return &models.AnimeDetail{Series: *series, Seasons: seasons, Actors: actors}
}

// AllSeries returns the full series listing, cached under "fk:list". The
// listing is one cheap call, so no lock is taken around it.
func (s *Service) AllSeries(ctx context.Context) []models.Series {
	var cached []models.Series
	if s.repo.GetMetadata(ctx, "fk:list", &cached) {
		return cached
	}

	series, err := s.client.GetAllSeries(ctx)
	if err != nil {
		log.Printf("[metadata] series list unavailable: %v", err)
		return nil
	}
	if err := s.repo.SetMetadata(ctx, "fk:list", series, s.opts.MetadataTTL); err != nil {
		log.Printf("[metadata] failed to cache series list: %v", err)
	}
	return series
}

// Episode resolves the aggregate for animeID and locates the episode
// addressed by mediaID, falling back to a suffix match on the episode id
// alone (older token shapes). A nil episode with a non-nil detail means
// the anime exists but the token matched nothing.
func (s *Service) Episode(ctx context.Context, animeID, episodeID, mediaID string) (*models.AnimeDetail, *models.Episode) {
	detail := s.Anime(ctx, animeID)
	if detail == nil {
		return nil, nil
	}

	episodes := detail.FlattenEpisodes()
	for i := range episodes {
		if episodes[i].ID == mediaID {
			return detail, &episodes[i]
		}
	}
	for i := range episodes {
		if strings.HasSuffix(episodes[i].ID, ":"+episodeID) {
			return detail, &episodes[i]
		}
	}
	log.Printf("[metadata] no episode matches %s", mediaID)
	return detail, nil
}
