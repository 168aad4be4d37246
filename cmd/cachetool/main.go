package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	_ "github.com/jackc/pgx/v5/stdlib"

	"itinerary-engine/internal/adapters/cache"
	"itinerary-engine/internal/platform/db"
)

// cachetool manages the durable Postgres travel caches: it creates the
// schema and, with -purge, deletes expired rows.
func main() {
	purge := flag.Bool("purge", false, "delete expired cache rows after ensuring the schema")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found (using environment variables)")
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if databaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is required")
	}

	sqlDB, err := db.Open(databaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer sqlDB.Close()

	if err := cache.InitSchema(sqlDB); err != nil {
		log.Fatal().Err(err).Msg("initialize cache schema")
	}
	log.Info().Msg("cache schema ready")

	if *purge {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		n, err := cache.PurgeExpired(ctx, sqlDB)
		if err != nil {
			log.Fatal().Err(err).Msg("purge expired cache rows")
		}
		log.Info().Int64("rows", n).Msg("expired cache rows purged")
	}
}
