package directions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"itinerary-engine/internal/domain"
	"itinerary-engine/internal/ports"
)

// MapboxDirections fetches walking paths from the Mapbox Directions API.
// Unlike the matrix provider there is no retry loop: a failed directions
// lookup costs only polyline fidelity and the caller falls straight through
// to the straight-line provider.
type MapboxDirections struct {
	session *http.Client
	token   string
	baseURL string
	profile string
}

func NewMapboxDirections(token string) (*MapboxDirections, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("mapbox access token is empty")
	}
	return &MapboxDirections{
		session: &http.Client{Timeout: 8 * time.Second},
		token:   token,
		baseURL: "https://api.mapbox.com/directions/v5/mapbox",
		profile: "walking",
	}, nil
}

type directionsResponse struct {
	Routes []struct {
		Geometry string  `json:"geometry"`
		Duration float64 `json:"duration"`
		Distance float64 `json:"distance"`
	} `json:"routes"`
}

func (m *MapboxDirections) Directions(
	ctx context.Context,
	from, to domain.LatLng,
) (ports.DirectionsResult, error) {
	coords := fmt.Sprintf("%.6f,%.6f;%.6f,%.6f", from.Lng, from.Lat, to.Lng, to.Lat)

	q := url.Values{}
	q.Set("access_token", m.token)
	q.Set("geometries", "polyline6")
	q.Set("overview", "full")
	q.Set("steps", "false")

	endpoint := fmt.Sprintf("%s/%s/%s?%s", m.baseURL, m.profile, coords, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ports.DirectionsResult{}, fmt.Errorf("%w: create directions request: %v", ports.ErrProviderUnavailable, err)
	}

	resp, err := m.session.Do(req)
	if err != nil {
		return ports.DirectionsResult{}, fmt.Errorf("%w: %v", ports.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, resp.Body)
		return ports.DirectionsResult{}, fmt.Errorf("%w: directions", ports.ErrProviderRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return ports.DirectionsResult{}, fmt.Errorf("%w: unexpected status %d", ports.ErrProviderUnavailable, resp.StatusCode)
	}

	var decoded directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ports.DirectionsResult{}, fmt.Errorf("%w: decode directions response: %v", ports.ErrProviderUnavailable, err)
	}
	if len(decoded.Routes) == 0 {
		return ports.DirectionsResult{}, fmt.Errorf("%w: no routes in directions response", ports.ErrProviderUnavailable)
	}

	route := decoded.Routes[0]
	return ports.DirectionsResult{
		Polyline: route.Geometry,
		Seconds:  int(route.Duration),
		Meters:   int(route.Distance),
		Source:   "mapbox",
	}, nil
}
