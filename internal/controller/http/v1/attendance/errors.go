package attendance

import (
	"net/http"

	"github.com/pkg/errors"

	"timeclock/backend/foundation/web"
	"timeclock/backend/internal/repository/postgres"
	"timeclock/backend/internal/service/attendance"
)

var errorCodes = []struct {
	err    error
	status int
	code   string
}{
	{attendance.ErrPersonNotFound, http.StatusNotFound, "person_not_found"},
	{postgres.ErrNotFound, http.StatusNotFound, "person_not_found"},
	{attendance.ErrAlreadyOpen, http.StatusConflict, "already_open"},
	{attendance.ErrNoActiveSession, http.StatusConflict, "no_active_session"},
	{attendance.ErrNoPausedSession, http.StatusConflict, "no_paused_session"},
	{attendance.ErrInvalidPoint, http.StatusBadRequest, "invalid_request"},
	{attendance.ErrLocationUnavailable, http.StatusServiceUnavailable, "location_unavailable"},
	{attendance.ErrAccessDenied, http.StatusForbidden, "access_denied"},
	{attendance.ErrInvariantViolation, http.StatusInternalServerError, "invariant_violation"},
}

// toWebError maps service errors to their HTTP status and code. Unknown
// errors are passed through and reported as internal failures.
func toWebError(err error) error {
	var webErr *web.Error
	if errors.As(err, &webErr) {
		return err
	}

	var outOfArea *attendance.OutOfAreaError
	if errors.As(err, &outOfArea) {
		e := web.NewCodedError(err, http.StatusForbidden, "out_of_area")
		e.Fields = map[string]interface{}{
			"distance":  outOfArea.Distance,
			"threshold": outOfArea.Threshold,
		}
		return e
	}

	for _, m := range errorCodes {
		if errors.Is(err, m.err) {
			return web.NewCodedError(err, m.status, m.code)
		}
	}

	return err
}
