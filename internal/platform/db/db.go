package db

import (
	"database/sql"
	"fmt"
	"time"
)

// Open a Postgres connection pool for the durable travel caches.
//
// Cache traffic is short single-row reads and upserts issued by at most five
// concurrent matrix-prefill workers per solve, so the pool stays small with
// a modest idle set and long-lived connections.
func Open(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("openDB: open postgres database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("openDB: verify postgres connection: %w", err)
	}

	return db, nil
}
