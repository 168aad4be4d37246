package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	_ "github.com/jackc/pgx/v5/stdlib"

	"itinerary-engine/internal/adapters/cache"
	"itinerary-engine/internal/adapters/directions"
	"itinerary-engine/internal/adapters/travel"
	"itinerary-engine/internal/domain"
	"itinerary-engine/internal/platform/db"
	"itinerary-engine/internal/ports"
	"itinerary-engine/internal/solver"
)

// main is the composition root: it wires concrete adapters (Mapbox, Redis,
// Postgres) behind ports, reads one solve request as JSON, and prints the
// response as JSON.
//
// Usage: solve [request.json]   (reads stdin when no file is given)
func main() {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found (using environment variables)")
	}
	zerolog.SetGlobalLevel(logLevel())
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	req, err := readRequest(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("read request")
	}
	req = req.Normalized()

	provider, dirProvider, cleanup, err := buildProviders(req.WalkingSpeed)
	if err != nil {
		log.Fatal().Err(err).Msg("wire providers")
	}
	defer cleanup()

	eng := solver.NewEngine(provider, dirProvider, solver.Config{})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := eng.Solve(ctx, req)
	if err != nil {
		log.Fatal().Err(err).Msg("solve failed")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		log.Fatal().Err(err).Msg("encode response")
	}
}

func readRequest(args []string) (domain.SolveRequest, error) {
	var r io.Reader = os.Stdin
	if len(args) > 0 {
		f, err := os.Open(args[0])
		if err != nil {
			return domain.SolveRequest{}, fmt.Errorf("open request file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var req domain.SolveRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return domain.SolveRequest{}, fmt.Errorf("decode request: %w", err)
	}
	return req, nil
}

// buildProviders assembles the travel-time and directions stacks from the
// environment. With no MAPBOX_ACCESS_TOKEN everything runs on the offline
// estimate provider; with no REDIS_ADDRESS or DATABASE_URL the caches are
// process-local.
func buildProviders(walkingSpeed float64) (ports.TravelTimeProvider, ports.DirectionsProvider, func(), error) {
	estimate := travel.NewEstimateProvider(walkingSpeed)
	cleanup := func() {}

	token := strings.TrimSpace(os.Getenv("MAPBOX_ACCESS_TOKEN"))
	if token == "" {
		log.Info().Msg("MAPBOX_ACCESS_TOKEN not set; using straight-line estimates")
		return estimate, directions.NewStraightLine(), cleanup, nil
	}

	durCache, dirCache, cleanup, err := buildCaches()
	if err != nil {
		return nil, nil, nil, err
	}

	mapbox, err := travel.NewMapboxProvider(token)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("mapbox matrix provider: %w", err)
	}
	provider := travel.NewCachedProvider(mapbox, durCache, estimate, "mapbox")

	mapboxDir, err := directions.NewMapboxDirections(token)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("mapbox directions provider: %w", err)
	}
	dirProvider := directions.NewCachedDirections(mapboxDir, dirCache, "mapbox")

	return provider, dirProvider, cleanup, nil
}

func buildCaches() (ports.DurationCache, ports.DirectionsCache, func(), error) {
	cleanup := func() {}

	if addr := strings.TrimSpace(os.Getenv("REDIS_ADDRESS")); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		cleanup = func() { rdb.Close() }
		return cache.NewRedisDurationCache(rdb), cache.NewRedisDirectionsCache(rdb), cleanup, nil
	}

	if url := strings.TrimSpace(os.Getenv("DATABASE_URL")); url != "" {
		sqlDB, err := db.Open(url)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open cache database: %w", err)
		}
		cleanup = func() { sqlDB.Close() }
		return cache.NewPGDurationCache(sqlDB), cache.NewPGDirectionsCache(sqlDB), cleanup, nil
	}

	log.Info().Msg("no REDIS_ADDRESS or DATABASE_URL; using in-process caches")
	mem := cache.NewMemoryCache()
	return mem, mem.Directions(), cleanup, nil
}

func logLevel() zerolog.Level {
	if lvl, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && lvl != zerolog.NoLevel {
		return lvl
	}
	return zerolog.InfoLevel
}
