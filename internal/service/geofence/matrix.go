package geofence

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"googlemaps.github.io/maps"

	"timeclock/backend/internal/entity"
)

// DistanceMatrix asks the Google Distance Matrix API for the travel distance
// between two points.
type DistanceMatrix struct {
	client *maps.Client
}

// NewDistanceMatrix returns an oracle using apiKey. An empty baseURL uses the
// public endpoint.
func NewDistanceMatrix(apiKey, baseURL string) (*DistanceMatrix, error) {
	opts := []maps.ClientOption{
		maps.WithAPIKey(apiKey),
		maps.WithHTTPClient(&http.Client{Timeout: 10 * time.Second}),
	}
	if baseURL != "" {
		opts = append(opts, maps.WithBaseURL(baseURL))
	}

	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "constructing maps client")
	}
	return &DistanceMatrix{client: client}, nil
}

func (m *DistanceMatrix) DistanceMeters(ctx context.Context, a, b entity.Point) (float64, error) {
	res, err := m.client.DistanceMatrix(ctx, &maps.DistanceMatrixRequest{
		Origins:      []string{a.String()},
		Destinations: []string{b.String()},
	})
	if err != nil {
		return 0, errors.Wrapf(ErrOracleUnavailable, "distance matrix: %v", err)
	}

	return elementMeters(res)
}

func elementMeters(res *maps.DistanceMatrixResponse) (float64, error) {
	if res == nil || len(res.Rows) == 0 || len(res.Rows[0].Elements) == 0 {
		return 0, errors.Wrap(ErrOracleUnavailable, "distance matrix returned no elements")
	}

	element := res.Rows[0].Elements[0]
	if element == nil {
		return 0, errors.Wrap(ErrOracleUnavailable, "distance matrix returned an empty element")
	}
	if element.Status != "OK" {
		return 0, errors.Wrapf(ErrOracleUnavailable, "distance matrix element status %s", element.Status)
	}

	return float64(element.Distance.Meters), nil
}
