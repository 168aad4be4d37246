package directions

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"itinerary-engine/internal/domain"
	"itinerary-engine/internal/ports"
)

// CachedDirections memoizes a routed directions provider and degrades to a
// straight-line polyline on failure. Single-flight keeps concurrent misses
// on the same leg down to one upstream call.
type CachedDirections struct {
	inner    ports.DirectionsProvider
	cache    ports.DirectionsCache
	fallback *StraightLine
	name     string
	mode     string
	sf       singleflight.Group
}

func NewCachedDirections(
	inner ports.DirectionsProvider,
	cache ports.DirectionsCache,
	providerName string,
) *CachedDirections {
	return &CachedDirections{
		inner:    inner,
		cache:    cache,
		fallback: NewStraightLine(),
		name:     providerName,
		mode:     "walk",
	}
}

func (c *CachedDirections) Directions(
	ctx context.Context,
	from, to domain.LatLng,
) (ports.DirectionsResult, error) {
	key := ports.NewDirectionsKey(c.name, c.mode, from, to)

	if c.cache != nil {
		entry, err := c.cache.Get(ctx, key)
		if err == nil {
			return ports.DirectionsResult{
				Polyline: entry.Polyline,
				Seconds:  entry.Seconds,
				Meters:   entry.Meters,
				Source:   c.name + ":cache",
			}, nil
		}
		if !errors.Is(err, ports.ErrCacheMiss) {
			log.Warn().Err(err).Str("key", key.String()).Msg("directions cache read failed")
		}
	}

	v, err, _ := c.sf.Do(key.String(), func() (any, error) {
		r, err := c.inner.Directions(ctx, from, to)
		if err != nil {
			return ports.DirectionsResult{}, err
		}
		if c.cache != nil {
			entry := ports.DirectionsEntry{Polyline: r.Polyline, Seconds: r.Seconds, Meters: r.Meters}
			if putErr := c.cache.Put(ctx, key, entry); putErr != nil {
				log.Warn().Err(putErr).Str("key", key.String()).Msg("directions cache write failed")
			}
		}
		return r, nil
	})
	if err == nil {
		return v.(ports.DirectionsResult), nil
	}

	log.Warn().Err(err).Str("provider", c.name).Msg("directions provider failed; using straight polyline")
	return c.fallback.Directions(ctx, from, to)
}
