package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"itinerary-engine/internal/ports"
)

// Postgres-backed durable caches. These survive process restarts and back
// the Redis layer in deployments that run both; either works alone.

// InitSchema creates the cache tables if they do not exist.
func InitSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS duration_cache (
			cache_key TEXT PRIMARY KEY,
			provider TEXT NOT NULL,
			mode TEXT NOT NULL,
			duration_sec INTEGER NOT NULL,
			distance_m INTEGER,
			expires_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS directions_cache (
			cache_key TEXT PRIMARY KEY,
			provider TEXT NOT NULL,
			mode TEXT NOT NULL,
			polyline TEXT,
			duration_sec INTEGER,
			distance_m INTEGER,
			expires_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
	}
	for _, q := range stmts {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("init cache schema: %w", err)
		}
	}
	return nil
}

// PurgeExpired removes rows past their expiry and reports how many went.
func PurgeExpired(ctx context.Context, db *sql.DB) (int64, error) {
	var total int64
	for _, table := range []string{"duration_cache", "directions_cache"} {
		res, err := db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE expires_at <= now();", table))
		if err != nil {
			return total, fmt.Errorf("purge expired: %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

// PGDurationCache stores pairwise travel times in Postgres.
type PGDurationCache struct {
	DB  *sql.DB
	TTL time.Duration
}

func NewPGDurationCache(db *sql.DB) *PGDurationCache {
	return &PGDurationCache{DB: db, TTL: DurationTTL}
}

func (c *PGDurationCache) Get(ctx context.Context, key ports.DurationKey) (ports.DurationEntry, error) {
	if c.DB == nil {
		return ports.DurationEntry{}, errors.New("duration cache: db is nil")
	}

	q := `
	SELECT duration_sec, COALESCE(distance_m, 0)
	FROM duration_cache
	WHERE cache_key = $1
	  AND expires_at > now();
	`
	var entry ports.DurationEntry
	err := c.DB.QueryRowContext(ctx, q, key.String()).Scan(&entry.Seconds, &entry.Meters)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.DurationEntry{}, ports.ErrCacheMiss
	}
	if err != nil {
		return ports.DurationEntry{}, fmt.Errorf("get duration cache: query duration_cache table: %w", err)
	}
	return entry, nil
}

func (c *PGDurationCache) Put(ctx context.Context, key ports.DurationKey, entry ports.DurationEntry) error {
	if c.DB == nil {
		return errors.New("duration cache: db is nil")
	}

	q := `
	INSERT INTO duration_cache (cache_key, provider, mode, duration_sec, distance_m, expires_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (cache_key) DO UPDATE
	SET duration_sec = EXCLUDED.duration_sec,
		distance_m = EXCLUDED.distance_m,
		expires_at = EXCLUDED.expires_at,
		provider = EXCLUDED.provider,
		mode = EXCLUDED.mode;
	`
	expiry := time.Now().UTC().Add(c.TTL)
	if _, err := c.DB.ExecContext(ctx, q, key.String(), key.Provider, key.Mode, entry.Seconds, entry.Meters, expiry); err != nil {
		return fmt.Errorf("insert duration cache key=%q: %w", key.String(), err)
	}
	return nil
}

// PGDirectionsCache stores encoded polylines in Postgres.
type PGDirectionsCache struct {
	DB  *sql.DB
	TTL time.Duration
}

func NewPGDirectionsCache(db *sql.DB) *PGDirectionsCache {
	return &PGDirectionsCache{DB: db, TTL: DirectionsTTL}
}

func (c *PGDirectionsCache) Get(ctx context.Context, key ports.DirectionsKey) (ports.DirectionsEntry, error) {
	if c.DB == nil {
		return ports.DirectionsEntry{}, errors.New("directions cache: db is nil")
	}

	q := `
	SELECT COALESCE(polyline, ''), COALESCE(duration_sec, 0), COALESCE(distance_m, 0)
	FROM directions_cache
	WHERE cache_key = $1
	  AND expires_at > now();
	`
	var entry ports.DirectionsEntry
	err := c.DB.QueryRowContext(ctx, q, key.String()).Scan(&entry.Polyline, &entry.Seconds, &entry.Meters)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.DirectionsEntry{}, ports.ErrCacheMiss
	}
	if err != nil {
		return ports.DirectionsEntry{}, fmt.Errorf("get directions cache: query directions_cache table: %w", err)
	}
	return entry, nil
}

func (c *PGDirectionsCache) Put(ctx context.Context, key ports.DirectionsKey, entry ports.DirectionsEntry) error {
	if c.DB == nil {
		return errors.New("directions cache: db is nil")
	}

	q := `
	INSERT INTO directions_cache (cache_key, provider, mode, polyline, duration_sec, distance_m, expires_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (cache_key) DO UPDATE
	SET polyline = EXCLUDED.polyline,
		duration_sec = EXCLUDED.duration_sec,
		distance_m = EXCLUDED.distance_m,
		expires_at = EXCLUDED.expires_at,
		provider = EXCLUDED.provider,
		mode = EXCLUDED.mode;
	`
	expiry := time.Now().UTC().Add(c.TTL)
	if _, err := c.DB.ExecContext(ctx, q, key.String(), key.Provider, key.Mode, entry.Polyline, entry.Seconds, entry.Meters, expiry); err != nil {
		return fmt.Errorf("insert directions cache key=%q: %w", key.String(), err)
	}
	return nil
}
