package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"
)

// GetMetadata loads a cached metadata aggregate into v. Expired rows and
// rows that fail to decode read as a miss, never as an error.
func (r *Repository) GetMetadata(ctx context.Context, mediaID string, v any) bool {
	var payload sql.NullString
	err := r.db.QueryRowContext(ctx,
		"SELECT media_data FROM metadata WHERE media_id = ? AND expires_at > ?",
		mediaID, unixSeconds(time.Now()),
	).Scan(&payload)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("[cache] metadata read failed for %s: %v", mediaID, err)
		}
		return false
	}
	if !payload.Valid || payload.String == "" {
		return false
	}
	if err := json.Unmarshal([]byte(payload.String), v); err != nil {
		log.Printf("[cache] undecodable metadata for %s treated as miss: %v", mediaID, err)
		return false
	}
	return true
}

// SetMetadata upserts a metadata aggregate with the given TTL.
func (r *Repository) SetMetadata(ctx context.Context, mediaID string, v any, ttl time.Duration) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	now := time.Now()
	_, err = r.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO metadata (media_id, media_data, timestamp, expires_at) VALUES (?, ?, ?, ?)",
		mediaID, string(payload), unixSeconds(now), unixSeconds(now.Add(ttl)),
	)
	if err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// GetDebridStatus returns the cached availability status of one hash for
// one debrid service within a media lookup.
func (r *Repository) GetDebridStatus(ctx context.Context, mediaID, hash, service string) (string, bool) {
	var status string
	err := r.db.QueryRowContext(ctx,
		`SELECT status FROM debrid_availability
		 WHERE media_id = ? AND hash = ? AND debrid_service = ?
		   AND (expires_at IS NULL OR expires_at > ?)`,
		mediaID, hash, service, unixSeconds(time.Now()),
	).Scan(&status)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("[cache] availability read failed for %s/%s: %v", mediaID, hash, err)
		}
		return "", false
	}
	return status, true
}

// SetDebridStatus upserts one hash's availability status.
func (r *Repository) SetDebridStatus(ctx context.Context, mediaID, hash, service, status string, ttl time.Duration) error {
	now := time.Now()
	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO debrid_availability
		 (media_id, hash, debrid_service, status, timestamp, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		mediaID, hash, service, status, unixSeconds(now), unixSeconds(now.Add(ttl)),
	)
	if err != nil {
		return fmt.Errorf("write availability: %w", err)
	}
	return nil
}

// GetCustomSource returns the cached direct URL for a scraped page.
func (r *Repository) GetCustomSource(ctx context.Context, pageURL string) (string, bool) {
	var directURL string
	err := r.db.QueryRowContext(ctx,
		"SELECT direct_url FROM custom_source WHERE page_url = ? AND expires_at > ?",
		pageURL, unixSeconds(time.Now()),
	).Scan(&directURL)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("[cache] custom source read failed for %s: %v", pageURL, err)
		}
		return "", false
	}
	return directURL, true
}

// SetCustomSource upserts the resolved direct URL for a scraped page.
func (r *Repository) SetCustomSource(ctx context.Context, pageURL, directURL string, ttl time.Duration) error {
	now := time.Now()
	_, err := r.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO custom_source (page_url, direct_url, timestamp, expires_at) VALUES (?, ?, ?, ?)",
		pageURL, directURL, unixSeconds(now), unixSeconds(now.Add(ttl)),
	)
	if err != nil {
		return fmt.Errorf("write custom source: %w", err)
	}
	return nil
}
