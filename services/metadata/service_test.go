package metadata

import (
	"context"
	"path/filepath"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fkstream/internal/database"
	"fkstream/models"
)

// fakeClient serves a fixed anime and counts provider calls.
type fakeClient struct {
	detailCalls atomic.Int64
	listCalls   atomic.Int64
	fetchDelay  time.Duration
	failDetails bool
}

func (f *fakeClient) GetAllSeries(ctx context.Context) ([]models.Series, error) {
	f.listCalls.Add(1)
	return []models.Series{{ID: 42, Title: "Dragon Ball Kai"}}, nil
}

func (f *fakeClient) GetSeriesDetails(ctx context.Context, seriesID string) (*models.Series, error) {
	f.detailCalls.Add(1)
	if f.fetchDelay > 0 {
		time.Sleep(f.fetchDelay)
	}
	if f.failDetails {
		return nil, context.DeadlineExceeded
	}
	return &models.Series{ID: 42, Title: "Dragon Ball Kai", Genres: "Action, Aventure"}, nil
}

func (f *fakeClient) GetSeasons(ctx context.Context, seriesID string) ([]models.Season, error) {
	return []models.Season{{ID: 7, SeasonNumber: 1}}, nil
}

func (f *fakeClient) GetEpisodes(ctx context.Context, seasonID string) ([]models.APIEpisode, error) {
	return []models.APIEpisode{
		{ID: 55, Title: "L'aventure commence", EpisodeNumber: 1},
		{ID: 56, Title: "La suite", EpisodeNumber: 2},
	}, nil
}

func (f *fakeClient) GetActors(ctx context.Context, seriesID string) ([]models.Actor, error) {
	return []models.Actor{{ID: 1, Name: "Masako Nozawa"}}, nil
}

func setupService(t *testing.T, client apiClient, opts Options) (*Service, *database.Repository) {
	t.Helper()
	db, err := database.NewDB(database.Config{DatabasePath: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if opts.MetadataTTL == 0 {
		opts.MetadataTTL = time.Minute
	}
	if opts.LockTTL == 0 {
		opts.LockTTL = time.Minute
	}
	if opts.WaitTimeout == 0 {
		opts.WaitTimeout = 5 * time.Second
	}
	return NewService(client, db.Repository, opts), db.Repository
}

func TestAnime_FetchesAndCaches(t *testing.T) {
	client := &fakeClient{}
	svc, _ := setupService(t, client, Options{})
	ctx := context.Background()

	detail := svc.Anime(ctx, "42")
	if detail == nil {
		t.Fatal("expected aggregate")
	}
	if detail.Title != "Dragon Ball Kai" || len(detail.Seasons) != 1 || len(detail.Seasons[0].Episodes) != 2 {
		t.Fatalf("unexpected aggregate: %+v", detail)
	}

	// Second resolve must come from the cache.
	if again := svc.Anime(ctx, "42"); again == nil {
		t.Fatal("expected cached aggregate")
	}
	if calls := client.detailCalls.Load(); calls != 1 {
		t.Fatalf("expected exactly one provider fetch, got %d", calls)
	}
}

func TestAnime_ProviderFailureIsNoData(t *testing.T) {
	svc, _ := setupService(t, &fakeClient{failDetails: true}, Options{})
	if detail := svc.Anime(context.Background(), "42"); detail != nil {
		t.Fatalf("expected nil on provider failure, got %+v", detail)
	}
}

func TestAnime_SingleFlight(t *testing.T) {
	client := &fakeClient{fetchDelay: 100 * time.Millisecond}
	svc, _ := setupService(t, client, Options{})
	ctx := context.Background()

	const n = 5
	results := make([]*models.AnimeDetail, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = svc.Anime(ctx, "42")
		}(i)
	}
	wg.Wait()

	if calls := client.detailCalls.Load(); calls != 1 {
		t.Fatalf("expected exactly one in-flight fetch under contention, got %d", calls)
	}
	for i := 0; i < n; i++ {
		if results[i] == nil {
			t.Fatalf("caller %d got no data", i)
		}
		if !reflect.DeepEqual(results[i], results[0]) {
			t.Fatalf("caller %d got a different aggregate", i)
		}
	}
}

func TestAnime_LockTimeoutFallsBackUnlocked(t *testing.T) {
	client := &fakeClient{}
	svc, repo := setupService(t, client, Options{WaitTimeout: 50 * time.Millisecond})
	ctx := context.Background()

	// Simulate another worker holding the fetch lock well past our wait.
	if !repo.AcquireLock(ctx, "metadata_fetch_42", "other-worker", time.Minute) {
		t.Fatal("setup acquire failed")
	}

	detail := svc.Anime(ctx, "42")
	if detail == nil {
		t.Fatal("expected data despite the held lock")
	}
	if calls := client.detailCalls.Load(); calls != 1 {
		t.Fatalf("expected one unlocked fetch, got %d", calls)
	}
}

func TestAllSeries_Caches(t *testing.T) {
	client := &fakeClient{}
	svc, _ := setupService(t, client, Options{})
	ctx := context.Background()

	if series := svc.AllSeries(ctx); len(series) != 1 {
		t.Fatalf("unexpected listing: %+v", series)
	}
	svc.AllSeries(ctx)
	if calls := client.listCalls.Load(); calls != 1 {
		t.Fatalf("expected one listing fetch, got %d", calls)
	}
}

func TestEpisode_MatchesFullTokenThenSuffix(t *testing.T) {
	svc, _ := setupService(t, &fakeClient{}, Options{})
	ctx := context.Background()

	_, ep := svc.Episode(ctx, "42", "55", "fk:42:55")
	if ep == nil || ep.ID != "fk:42:55" || ep.Number != 1 || ep.SeasonNumber != 1 {
		t.Fatalf("unexpected episode: %+v", ep)
	}

	// Older token shapes only line up on the episode id suffix.
	_, ep = svc.Episode(ctx, "42", "56", "fk:oldshape:56")
	if ep == nil || ep.ID != "fk:42:56" {
		t.Fatalf("expected suffix fallback match, got %+v", ep)
	}

	detail, ep := svc.Episode(ctx, "42", "99", "fk:42:99")
	if detail == nil {
		t.Fatal("anime should resolve even when the episode does not")
	}
	if ep != nil {
		t.Fatalf("expected no match for unknown episode, got %+v", ep)
	}
}
