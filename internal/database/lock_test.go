package database

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestLock_MutualExclusion(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := db.Repository

	if !repo.AcquireLock(ctx, "L", "A", time.Minute) {
		t.Fatal("A should acquire the free lock")
	}
	if repo.AcquireLock(ctx, "L", "B", time.Minute) {
		t.Fatal("B must not acquire a lock held by A")
	}
}

func TestLock_Reentrant(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := db.Repository

	if !repo.AcquireLock(ctx, "L", "A", time.Minute) {
		t.Fatal("first acquire failed")
	}
	if !repo.AcquireLock(ctx, "L", "A", time.Minute) {
		t.Fatal("reacquire by the same owner must succeed")
	}
}

func TestLock_ConcurrentAcquire_SingleWinner(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := db.Repository

	var wg sync.WaitGroup
	results := make([]bool, 2)
	for i, owner := range []string{"A", "B"} {
		wg.Add(1)
		go func(i int, owner string) {
			defer wg.Done()
			results[i] = repo.AcquireLock(ctx, "L", owner, time.Minute)
		}(i, owner)
	}
	wg.Wait()

	if results[0] == results[1] {
		t.Fatalf("expected exactly one winner, got A=%v B=%v", results[0], results[1])
	}
}

func TestLock_ReleaseByOwner(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := db.Repository

	if !repo.AcquireLock(ctx, "L", "A", time.Minute) {
		t.Fatal("acquire failed")
	}
	repo.ReleaseLock(ctx, "L", "A")
	if !repo.AcquireLock(ctx, "L", "B", time.Minute) {
		t.Fatal("B should acquire after release")
	}
}

func TestLock_ReleaseByNonOwnerIsNoOp(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := db.Repository

	if !repo.AcquireLock(ctx, "L", "A", time.Minute) {
		t.Fatal("acquire failed")
	}
	repo.ReleaseLock(ctx, "L", "B")
	if repo.AcquireLock(ctx, "L", "C", time.Minute) {
		t.Fatal("lock must still be held by A after foreign release")
	}
}

func TestLock_ExpiredRowIsReclaimed(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := db.Repository

	// Simulate a crashed holder: a row whose expiry has already passed.
	past := unixSeconds(time.Now().Add(-time.Minute))
	if _, err := db.sql.ExecContext(ctx,
		"INSERT INTO scrape_lock (lock_key, instance_id, timestamp, expires_at) VALUES (?, ?, ?, ?)",
		"L", "dead", past, past,
	); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	if !repo.AcquireLock(ctx, "L", "B", time.Minute) {
		t.Fatal("expired lock must be reclaimable without external recovery")
	}
}

func TestAcquireScoped_TimesOutOnHeldLock(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := db.Repository

	if !repo.AcquireLock(ctx, "L", "holder", time.Minute) {
		t.Fatal("setup acquire failed")
	}

	a := repo.AcquireScoped(ctx, "L", time.Minute, 50*time.Millisecond)
	defer a.Release(ctx)
	if !a.TimedOut {
		t.Fatal("expected TimedOut outcome on a held lock")
	}

	// Releasing a timed-out acquisition must not touch the holder's row.
	a.Release(ctx)
	if repo.AcquireLock(ctx, "L", "other", time.Minute) {
		t.Fatal("holder's lock must survive a timed-out Release")
	}
}

func TestAcquireScoped_AcquiresAndReleases(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := db.Repository

	a := repo.AcquireScoped(ctx, "L", time.Minute, time.Second)
	if a.TimedOut {
		t.Fatal("expected acquisition of a free lock")
	}
	a.Release(ctx)

	if !repo.AcquireLock(ctx, "L", "next", time.Minute) {
		t.Fatal("lock should be free after Release")
	}
}

func TestAcquireScoped_WaitsForRelease(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := db.Repository

	old := lockPollInterval
	lockPollInterval = 10 * time.Millisecond
	defer func() { lockPollInterval = old }()

	if !repo.AcquireLock(ctx, "L", "holder", time.Minute) {
		t.Fatal("setup acquire failed")
	}
	go func() {
		time.Sleep(30 * time.Millisecond)
		repo.ReleaseLock(ctx, "L", "holder")
	}()

	a := repo.AcquireScoped(ctx, "L", time.Minute, time.Second)
	defer a.Release(ctx)
	if a.TimedOut {
		t.Fatal("expected the waiter to win once the holder released")
	}
}
