package attendance

import (
	"fmt"

	"github.com/pkg/errors"

	"timeclock/backend/internal/service/geofence"
)

// Errors returned by the service. Callers branch on them with errors.Is.
var (
	ErrPersonNotFound      = errors.New("person not found")
	ErrAlreadyOpen         = errors.New("already clocked in")
	ErrNoActiveSession     = errors.New("no active clock-in record")
	ErrNoPausedSession     = errors.New("no paused clock-in record")
	ErrOutOfArea           = errors.New("not in the allowed area")
	ErrLocationUnavailable = geofence.ErrLocationUnavailable
	ErrInvalidPoint        = geofence.ErrInvalidPoint
	ErrAccessDenied        = errors.New("access denied")

	// ErrInvariantViolation reports stored data that breaks the session
	// rules, such as two open sessions or a pause ending before it starts.
	ErrInvariantViolation = errors.New("attendance invariant violated")
)

// OutOfAreaError is returned when the geofence rejects a candidate point.
type OutOfAreaError struct {
	Distance  float64
	Threshold float64
}

func (e *OutOfAreaError) Error() string {
	return fmt.Sprintf("%s: %.1f m from the registered location, limit %.0f m", ErrOutOfArea, e.Distance, e.Threshold)
}

func (e *OutOfAreaError) Is(target error) bool {
	return target == ErrOutOfArea
}
