package debrid

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"fkstream/internal/database"
)

type fakeProvider struct {
	name     string
	statuses map[string]string
	calls    int
	queried  [][]string
	fail     bool
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) GetAvailability(ctx context.Context, hashes []string) ([]HashStatus, error) {
	f.calls++
	f.queried = append(f.queried, hashes)
	if f.fail {
		return nil, context.DeadlineExceeded
	}
	var out []HashStatus
	for _, h := range hashes {
		if status, ok := f.statuses[h]; ok {
			out = append(out, HashStatus{Hash: h, Status: status})
		}
	}
	return out, nil
}

func (f *fakeProvider) GenerateDownloadLink(ctx context.Context, req DownloadRequest) (string, error) {
	return "", nil
}

func setupAvailability(t *testing.T) *AvailabilityService {
	t.Helper()
	db, err := database.NewDB(database.Config{DatabasePath: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewAvailabilityService(db.Repository, time.Minute)
}

const (
	hashA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	hashB = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

func TestLookup_CachesProviderResults(t *testing.T) {
	svc := setupAvailability(t)
	provider := &fakeProvider{name: "realdebrid", statuses: map[string]string{hashA: StatusCached, hashB: StatusDownloading}}
	ctx := context.Background()

	statuses := svc.Lookup(ctx, provider, "fk:42:55", []string{hashA, hashB})
	if statuses[hashA] != StatusCached || statuses[hashB] != StatusDownloading {
		t.Fatalf("unexpected statuses: %v", statuses)
	}

	// Second lookup inside the TTL must not reach the provider.
	statuses = svc.Lookup(ctx, provider, "fk:42:55", []string{hashA, hashB})
	if provider.calls != 1 {
		t.Fatalf("expected one provider call, got %d", provider.calls)
	}
	if statuses[hashA] != StatusCached {
		t.Fatalf("unexpected cached status: %v", statuses)
	}
}

func TestLookup_OnlyMissesGoToProvider(t *testing.T) {
	svc := setupAvailability(t)
	provider := &fakeProvider{name: "realdebrid", statuses: map[string]string{hashA: StatusCached, hashB: StatusMagnet}}
	ctx := context.Background()

	svc.Lookup(ctx, provider, "fk:1:1", []string{hashA})
	svc.Lookup(ctx, provider, "fk:1:1", []string{hashA, hashB})

	if provider.calls != 2 {
		t.Fatalf("expected two provider calls, got %d", provider.calls)
	}
	second := provider.queried[1]
	if len(second) != 1 || second[0] != hashB {
		t.Fatalf("expected only the uncached hash in the second query, got %v", second)
	}
}

func TestLookup_ProviderFailureDegradesToUnknown(t *testing.T) {
	svc := setupAvailability(t)
	provider := &fakeProvider{name: "realdebrid", fail: true}

	statuses := svc.Lookup(context.Background(), provider, "fk:1:1", []string{hashA, hashB})
	if statuses[hashA] != StatusUnknown || statuses[hashB] != StatusUnknown {
		t.Fatalf("expected unknown statuses on provider failure, got %v", statuses)
	}
}

func TestLookup_UnreportedHashIsUnknown(t *testing.T) {
	svc := setupAvailability(t)
	provider := &fakeProvider{name: "realdebrid", statuses: map[string]string{hashA: StatusCached}}

	statuses := svc.Lookup(context.Background(), provider, "fk:1:1", []string{hashA, hashB})
	if statuses[hashB] != StatusUnknown {
		t.Fatalf("expected unknown for unreported hash, got %q", statuses[hashB])
	}
}

func TestExtension(t *testing.T) {
	if Extension("realdebrid") != "RD" {
		t.Fatalf("unexpected extension: %s", Extension("realdebrid"))
	}
	if Extension("nope") != "UNKNOWN" {
		t.Fatalf("unexpected extension: %s", Extension("nope"))
	}
}
