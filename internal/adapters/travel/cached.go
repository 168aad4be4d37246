package travel

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"itinerary-engine/internal/domain"
	"itinerary-engine/internal/ports"
)

// CachedProvider memoizes a routed provider behind a DurationCache and
// guarantees single-flight fills: concurrent misses on the same key await
// one outstanding provider call instead of issuing duplicates.
//
// Provider failures are absorbed locally: the caller gets a straight-line
// estimate with the Degraded flag set, never an error.
type CachedProvider struct {
	inner    ports.TravelTimeProvider
	cache    ports.DurationCache
	estimate *EstimateProvider
	name     string
	mode     string
	sf       singleflight.Group
}

func NewCachedProvider(
	inner ports.TravelTimeProvider,
	cache ports.DurationCache,
	estimate *EstimateProvider,
	providerName string,
) *CachedProvider {
	return &CachedProvider{
		inner:    inner,
		cache:    cache,
		estimate: estimate,
		name:     providerName,
		mode:     "walk",
	}
}

func (c *CachedProvider) Duration(
	ctx context.Context,
	from, to domain.LatLng,
	departAt time.Time,
) (ports.TravelResult, error) {
	key := ports.NewDurationKey(c.name, c.mode, from, to, departAt)

	if c.cache != nil {
		entry, err := c.cache.Get(ctx, key)
		if err == nil {
			return ports.TravelResult{
				Seconds: entry.Seconds,
				Meters:  entry.Meters,
				Source:  c.name + ":cache",
			}, nil
		}
		if !errors.Is(err, ports.ErrCacheMiss) {
			log.Warn().Err(err).Str("key", key.String()).Msg("duration cache read failed")
		}
	}

	v, err, _ := c.sf.Do(key.String(), func() (any, error) {
		r, err := c.inner.Duration(ctx, from, to, departAt)
		if err != nil {
			return ports.TravelResult{}, err
		}
		if c.cache != nil {
			entry := ports.DurationEntry{Seconds: r.Seconds, Meters: r.Meters}
			if putErr := c.cache.Put(ctx, key, entry); putErr != nil {
				log.Warn().Err(putErr).Str("key", key.String()).Msg("duration cache write failed")
			}
		}
		return r, nil
	})
	if err == nil {
		return v.(ports.TravelResult), nil
	}

	// Recover locally: provider errors are a degraded-result condition, not
	// a solve failure.
	log.Warn().Err(err).Str("provider", c.name).Msg("routed provider failed; using estimate")
	r, estErr := c.estimate.Duration(ctx, from, to, departAt)
	if estErr != nil {
		return ports.TravelResult{}, estErr
	}
	r.Degraded = true
	return r, nil
}

// Matrix fans out per-pair lookups with a fixed concurrency bound, so each
// pair benefits from the cache and the single-flight guarantee.
func (c *CachedProvider) Matrix(
	ctx context.Context,
	points []domain.LatLng,
	departAt time.Time,
) (*ports.TravelMatrix, error) {
	n := len(points)
	out := &ports.TravelMatrix{
		Points:  points,
		Seconds: make([][]int, n),
		Meters:  make([][]int, n),
	}
	degraded := make([][]bool, n)
	for i := 0; i < n; i++ {
		out.Seconds[i] = make([]int, n)
		out.Meters[i] = make([]int, n)
		degraded[i] = make([]bool, n)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(5)

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			i, j := i, j
			g.Go(func() error {
				r, err := c.Duration(gctx, points[i], points[j], departAt)
				if err != nil {
					return err
				}
				out.Seconds[i][j] = r.Seconds
				out.Meters[i][j] = r.Meters
				degraded[i][j] = r.Degraded
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i := range degraded {
		for j := range degraded[i] {
			if degraded[i][j] {
				out.Degraded = true
			}
		}
	}
	return out, nil
}
