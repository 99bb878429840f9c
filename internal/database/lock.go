package database

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
)

// lockPollInterval is how often a waiting caller re-attempts acquisition.
var lockPollInterval = time.Second

// AcquireLock attempts to take the named lock for owner. A row held by the
// same owner is a reentrant success; an expired row is removed and the
// acquisition retried once. Any storage error degrades to false: the lock
// is best-effort single-flight, not strict mutual exclusion.
func (r *Repository) AcquireLock(ctx context.Context, key, owner string, duration time.Duration) bool {
	return r.acquireLock(ctx, key, owner, duration, true)
}

func (r *Repository) acquireLock(ctx context.Context, key, owner string, duration time.Duration, retry bool) bool {
	now := time.Now()
	_, err := r.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO scrape_lock (lock_key, instance_id, timestamp, expires_at) VALUES (?, ?, ?, ?)",
		key, owner, unixSeconds(now), unixSeconds(now.Add(duration)),
	)
	if err != nil {
		log.Printf("[lock] acquire insert failed for %s: %v", key, err)
		return false
	}

	var holder string
	var expiresAt float64
	err = r.db.QueryRowContext(ctx,
		"SELECT instance_id, expires_at FROM scrape_lock WHERE lock_key = ?", key,
	).Scan(&holder, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Row vanished between insert and read; treat as contended.
			return false
		}
		log.Printf("[lock] acquire read failed for %s: %v", key, err)
		return false
	}

	switch {
	case expiresAt < unixSeconds(now):
		res, delErr := r.db.ExecContext(ctx,
			"DELETE FROM scrape_lock WHERE lock_key = ? AND expires_at < ?",
			key, unixSeconds(now),
		)
		if delErr != nil {
			log.Printf("[lock] stale lock cleanup failed for %s: %v", key, delErr)
			return false
		}
		if deleted, _ := res.RowsAffected(); deleted > 0 && retry {
			return r.acquireLock(ctx, key, owner, duration, false)
		}
		return false
	case holder == owner:
		return true
	default:
		return false
	}
}

// ReleaseLock deletes the lock row only if still owned by owner; a release
// by a non-owner is a no-op.
func (r *Repository) ReleaseLock(ctx context.Context, key, owner string) {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM scrape_lock WHERE lock_key = ? AND instance_id = ?", key, owner,
	)
	if err != nil {
		log.Printf("[lock] release failed for %s: %v", key, err)
	}
}

// Acquisition is the tagged outcome of a scoped lock attempt: either the
// caller holds the lock (TimedOut false) or waiting gave up (TimedOut
// true) and the caller decides whether to proceed unlocked.
type Acquisition struct {
	Key      string
	Owner    string
	TimedOut bool

	repo     *Repository
	released bool
}

// AcquireScoped polls AcquireLock until success or wait elapses. Callers
// must defer Release on every exit path; Release on a timed-out
// acquisition is a no-op.
func (r *Repository) AcquireScoped(ctx context.Context, key string, duration, wait time.Duration) *Acquisition {
	a := &Acquisition{Key: key, Owner: uuid.NewString(), repo: r}
	deadline := time.Now().Add(wait)
	for {
		if r.AcquireLock(ctx, key, a.Owner, duration) {
			return a
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			a.TimedOut = true
			return a
		}
		pause := lockPollInterval
		if remaining < pause {
			pause = remaining
		}
		select {
		case <-ctx.Done():
			a.TimedOut = true
			return a
		case <-time.After(pause):
		}
	}
}

// Release gives the lock back if this acquisition holds it.
func (a *Acquisition) Release(ctx context.Context) {
	if a == nil || a.TimedOut || a.released {
		return
	}
	a.released = true
	a.repo.ReleaseLock(ctx, a.Key, a.Owner)
}
