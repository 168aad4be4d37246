package travel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"itinerary-engine/internal/domain"
	"itinerary-engine/internal/ports"
)

// Mapbox caps the number of coordinates per matrix request.
const mapboxMaxCoords = 25

// MapboxProvider implements TravelTimeProvider using the Mapbox
// Directions-Matrix API with the walking profile.
//
// It coordinates external API calls with retry/backoff and maps failures
// onto the provider error taxonomy. The provider is safe for concurrent use.
type MapboxProvider struct {
	session *http.Client
	token   string
	baseURL string
	profile string
}

func NewMapboxProvider(token string) (*MapboxProvider, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("mapbox access token is empty")
	}
	return &MapboxProvider{
		session: &http.Client{Timeout: 10 * time.Second},
		token:   token,
		baseURL: "https://api.mapbox.com/directions-matrix/v1/mapbox",
		profile: "walking",
	}, nil
}

type matrixResponse struct {
	Durations [][]*float64 `json:"durations"`
	Distances [][]*float64 `json:"distances"`
}

func coordList(points []domain.LatLng) string {
	parts := make([]string, 0, len(points))
	for _, p := range points {
		parts = append(parts, fmt.Sprintf("%.6f,%.6f", p.Lng, p.Lat))
	}
	return strings.Join(parts, ";")
}

// fetchRow retrieves durations and distances from one origin to many
// destinations in a single matrix call.
func (m *MapboxProvider) fetchRow(
	ctx context.Context,
	origin domain.LatLng,
	destinations []domain.LatLng,
) ([]ports.TravelResult, error) {
	if len(destinations) == 0 {
		return nil, nil
	}
	if len(destinations) > mapboxMaxCoords-1 {
		return nil, fmt.Errorf("fetch matrix row: %d destinations exceeds the per-call limit", len(destinations))
	}

	points := append([]domain.LatLng{origin}, destinations...)
	destIdx := make([]string, 0, len(destinations))
	for i := 1; i < len(points); i++ {
		destIdx = append(destIdx, strconv.Itoa(i))
	}

	q := url.Values{}
	q.Set("access_token", m.token)
	q.Set("annotations", "duration,distance")
	q.Set("sources", "0")
	q.Set("destinations", strings.Join(destIdx, ";"))

	endpoint := fmt.Sprintf("%s/%s/%s?%s", m.baseURL, m.profile, coordList(points), q.Encode())

	resp, err := m.doWithRetry(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("matrix request failed: %w", err)
	}
	defer resp.Body.Close()

	var mr matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return nil, fmt.Errorf("%w: decode matrix response: %v", ports.ErrProviderUnavailable, err)
	}
	if len(mr.Durations) != 1 || len(mr.Durations[0]) != len(destinations) {
		return nil, fmt.Errorf("%w: expected 1x%d durations row, got %dx%d",
			ports.ErrProviderUnavailable, len(destinations), len(mr.Durations), rowLen(mr.Durations))
	}

	out := make([]ports.TravelResult, len(destinations))
	for i := range destinations {
		secPtr := mr.Durations[0][i]
		if secPtr == nil {
			return nil, fmt.Errorf("%w: matrix returned no duration for destination %d", ports.ErrProviderUnavailable, i)
		}
		meters := 0
		if len(mr.Distances) == 1 && i < len(mr.Distances[0]) && mr.Distances[0][i] != nil {
			meters = int(math.Round(*mr.Distances[0][i]))
		}
		out[i] = ports.TravelResult{
			Seconds: int(math.Round(*secPtr)),
			Meters:  meters,
			Source:  "mapbox",
		}
	}
	return out, nil
}

func rowLen(rows [][]*float64) int {
	if len(rows) == 0 {
		return 0
	}
	return len(rows[0])
}

func (m *MapboxProvider) Duration(
	ctx context.Context,
	from, to domain.LatLng,
	_ time.Time,
) (ports.TravelResult, error) {
	row, err := m.fetchRow(ctx, from, []domain.LatLng{to})
	if err != nil {
		return ports.TravelResult{}, fmt.Errorf("mapbox duration: %w", err)
	}
	return row[0], nil
}

// Matrix fills the full pairwise matrix, chunking destinations to stay under
// the per-call coordinate limit and bounding concurrent calls to respect
// provider rate limits.
func (m *MapboxProvider) Matrix(
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
	for i := range out.Seconds {
		out.Seconds[i] = make([]int, n)
		out.Meters[i] = make([]int, n)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(5)

	for i := 0; i < n; i++ {
		for chunkStart := 0; chunkStart < n; chunkStart += mapboxMaxCoords - 1 {
			i := i
			lo := chunkStart
			hi := min(lo+mapboxMaxCoords-1, n)

			g.Go(func() error {
				dests := make([]domain.LatLng, 0, hi-lo)
				cols := make([]int, 0, hi-lo)
				for j := lo; j < hi; j++ {
					if j == i {
						continue
					}
					dests = append(dests, points[j])
					cols = append(cols, j)
				}
				if len(dests) == 0 {
					return nil
				}
				row, err := m.fetchRow(gctx, points[i], dests)
				if err != nil {
					return fmt.Errorf("mapbox matrix row %d: %w", i, err)
				}
				for k, j := range cols {
					out.Seconds[i][j] = row[k].Seconds
					out.Meters[i][j] = row[k].Meters
				}
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
