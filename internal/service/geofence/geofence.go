// Package geofence decides whether a candidate location lies within a radius
// of a reference location.
package geofence

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"

	"timeclock/backend/internal/entity"
)

const (
	// DefaultRadius is the accepted distance, in meters, around a reference point.
	DefaultRadius = 100.0
	// DefaultTimeout bounds a single oracle call.
	DefaultTimeout = 5 * time.Second
)

var (
	// ErrLocationUnavailable means no trustworthy distance could be obtained.
	ErrLocationUnavailable = errors.New("location unavailable")
	// ErrOracleUnavailable is returned by oracles that cannot answer.
	ErrOracleUnavailable = errors.New("distance oracle unavailable")
	// ErrInvalidPoint is returned for coordinates outside the WGS84 ranges.
	ErrInvalidPoint = errors.New("invalid coordinates")
)

// Oracle measures the distance in meters between two points.
type Oracle interface {
	DistanceMeters(ctx context.Context, a, b entity.Point) (float64, error)
}

// Decision is the outcome of a radius check.
type Decision struct {
	Accepted  bool
	Distance  float64
	Threshold float64
}

// Gate accepts or rejects a candidate point against a fixed radius.
type Gate struct {
	oracle    Oracle
	threshold float64
	timeout   time.Duration
}

// NewGate returns a gate with the radius in meters. A zero timeout uses
// DefaultTimeout.
func NewGate(oracle Oracle, thresholdMeters float64, timeout time.Duration) (*Gate, error) {
	if oracle == nil {
		return nil, errors.New("geofence: nil oracle")
	}
	if thresholdMeters < 0 || math.IsNaN(thresholdMeters) {
		return nil, errors.Errorf("geofence: invalid threshold %v", thresholdMeters)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Gate{oracle: oracle, threshold: thresholdMeters, timeout: timeout}, nil
}

// Threshold returns the radius in meters.
func (g *Gate) Threshold() float64 {
	return g.threshold
}

// CheckWithinRadius measures the distance between reference and candidate.
// Oracle failures, timeouts and malformed distances return
// ErrLocationUnavailable, never a decision.
func (g *Gate) CheckWithinRadius(ctx context.Context, reference, candidate entity.Point) (Decision, error) {
	if !reference.Valid() {
		return Decision{}, errors.Wrap(ErrInvalidPoint, "reference point")
	}
	if !candidate.Valid() {
		return Decision{}, errors.Wrap(ErrInvalidPoint, "candidate point")
	}

	distance, err := g.measure(ctx, reference, candidate)
	if err != nil {
		return Decision{}, err
	}

	return Decision{
		Accepted:  distance <= g.threshold,
		Distance:  distance,
		Threshold: g.threshold,
	}, nil
}

type result struct {
	distance float64
	err      error
}

func (g *Gate) measure(ctx context.Context, a, b entity.Point) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	// The oracle runs on its own goroutine so an oracle that ignores ctx
	// still cannot hold the request past the timeout.
	done := make(chan result, 1)
	go func() {
		d, err := g.oracle.DistanceMeters(ctx, a, b)
		done <- result{distance: d, err: err}
	}()

	select {
	case <-ctx.Done():
		return 0, errors.Wrapf(ErrLocationUnavailable, "distance oracle: %v", ctx.Err())
	case r := <-done:
		if r.err != nil {
			return 0, errors.Wrapf(ErrLocationUnavailable, "distance oracle: %v", r.err)
		}
		if math.IsNaN(r.distance) || math.IsInf(r.distance, 0) || r.distance < 0 {
			return 0, errors.Wrapf(ErrLocationUnavailable, "distance oracle returned %v", r.distance)
		}
		return r.distance, nil
	}
}
