package attendance

import (
	"bytes"
	"fmt"
	"net/http"
	"reflect"
	"time"

	"github.com/Azure/go-autorest/autorest/date"
	"github.com/pkg/errors"

	"timeclock/backend/foundation/web"
	"timeclock/backend/internal/auth"
	"timeclock/backend/internal/entity"
	"timeclock/backend/internal/service/attendance"
	"timeclock/backend/internal/service/export"
)

type Controller struct {
	attendance Attendance
	people     People
}

func NewController(attendance Attendance, people People) *Controller {
	return &Controller{attendance: attendance, people: people}
}

// LocationRequest is the body of clock-in and clock-out. Coordinates are
// pointers so that an omitted value is told apart from 0.
type LocationRequest struct {
	Latitude  *float64 `json:"latitude"  form:"latitude"`
	Longitude *float64 `json:"longitude" form:"longitude"`
}

func (uc Controller) ClockIn(c *web.Context) error {
	claims, err := callerClaims(c)
	if err != nil {
		return c.RespondError(err)
	}

	var data LocationRequest
	if err := c.BindFunc(&data, "Latitude", "Longitude"); err != nil {
		return c.RespondError(err)
	}

	ack, err := uc.attendance.ClockIn(c.Ctx, claims.UserId, entity.Point{Latitude: *data.Latitude, Longitude: *data.Longitude})
	if err != nil {
		return c.RespondError(toWebError(err))
	}

	return c.Respond(map[string]interface{}{
		"data":   ack,
		"status": true,
	}, http.StatusCreated)
}

func (uc Controller) Pause(c *web.Context) error {
	claims, err := callerClaims(c)
	if err != nil {
		return c.RespondError(err)
	}

	ack, err := uc.attendance.Pause(c.Ctx, claims.UserId)
	if err != nil {
		return c.RespondError(toWebError(err))
	}

	return c.Respond(map[string]interface{}{
		"data":   ack,
		"status": true,
	}, http.StatusOK)
}

func (uc Controller) Resume(c *web.Context) error {
	claims, err := callerClaims(c)
	if err != nil {
		return c.RespondError(err)
	}

	ack, err := uc.attendance.Resume(c.Ctx, claims.UserId)
	if err != nil {
		return c.RespondError(toWebError(err))
	}

	return c.Respond(map[string]interface{}{
		"data":   ack,
		"status": true,
	}, http.StatusOK)
}

func (uc Controller) ClockOut(c *web.Context) error {
	claims, err := callerClaims(c)
	if err != nil {
		return c.RespondError(err)
	}

	var data LocationRequest
	if err := c.BindFunc(&data, "Latitude", "Longitude"); err != nil {
		return c.RespondError(err)
	}

	ack, err := uc.attendance.ClockOut(c.Ctx, claims.UserId, entity.Point{Latitude: *data.Latitude, Longitude: *data.Longitude})
	if err != nil {
		return c.RespondError(toWebError(err))
	}

	return c.Respond(map[string]interface{}{
		"data":   ack,
		"status": true,
	}, http.StatusOK)
}

func (uc Controller) Status(c *web.Context) error {
	claims, err := callerClaims(c)
	if err != nil {
		return c.RespondError(err)
	}

	status, err := uc.attendance.Status(c.Ctx, claims.UserId)
	if err != nil {
		return c.RespondError(toWebError(err))
	}

	return c.Respond(map[string]interface{}{
		"data":   status,
		"status": true,
	}, http.StatusOK)
}

func (uc Controller) TotalTime(c *web.Context) error {
	claims, err := callerClaims(c)
	if err != nil {
		return c.RespondError(err)
	}

	id := c.GetParam(reflect.Int, "id").(int)
	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	total, err := uc.attendance.TotalWorkedTime(c.Ctx, id, claims.Role)
	if err != nil {
		return c.RespondError(toWebError(err))
	}

	return c.Respond(map[string]interface{}{
		"data":   total,
		"status": true,
	}, http.StatusOK)
}

func (uc Controller) History(c *web.Context) error {
	claims, err := callerClaims(c)
	if err != nil {
		return c.RespondError(err)
	}

	id := c.GetParam(reflect.Int, "id").(int)
	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	period, err := periodFilter(c)
	if err != nil {
		return c.RespondError(err)
	}

	report, err := uc.attendance.SessionReport(c.Ctx, id, claims.Role, period)
	if err != nil {
		return c.RespondError(toWebError(err))
	}

	return c.Respond(map[string]interface{}{
		"data":   report,
		"status": true,
	}, http.StatusOK)
}

// Export sends the session report of the person as an xlsx attachment.
func (uc Controller) Export(c *web.Context) error {
	claims, err := callerClaims(c)
	if err != nil {
		return c.RespondError(err)
	}

	id := c.GetParam(reflect.Int, "id").(int)
	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	period, err := periodFilter(c)
	if err != nil {
		return c.RespondError(err)
	}

	report, err := uc.attendance.SessionReport(c.Ctx, id, claims.Role, period)
	if err != nil {
		return c.RespondError(toWebError(err))
	}

	person, err := uc.people.GetPerson(c.Ctx, id)
	if err != nil {
		return c.RespondError(toWebError(err))
	}

	var buf bytes.Buffer
	if err := export.WriteReport(&buf, person, report); err != nil {
		return c.RespondError(web.NewRequestError(errors.Wrap(err, "exporting report"), http.StatusInternalServerError))
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="attendance_%d.xlsx"`, id))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())

	return nil
}

func callerClaims(c *web.Context) (auth.Claims, error) {
	claims, ok := auth.FromContext(c.Ctx)
	if !ok {
		return auth.Claims{}, web.NewCodedError(errors.New("claims missing from context"), http.StatusUnauthorized, "unauthorized")
	}
	return claims, nil
}

// periodFilter reads the optional from and to query parameters as
// YYYY-MM-DD dates.
func periodFilter(c *web.Context) (attendance.Period, error) {
	var period attendance.Period

	for key, dst := range map[string]**time.Time{"from": &period.From, "to": &period.To} {
		raw, ok := c.GetQueryFunc(reflect.String, key).(*string)
		if !ok || raw == nil {
			continue
		}
		d, err := date.ParseDate(*raw)
		if err != nil {
			return attendance.Period{}, web.NewCodedError(errors.Wrapf(err, "parsing %s", key), http.StatusBadRequest, "invalid_request")
		}
		t := d.ToTime()
		*dst = &t
	}
	if err := c.ValidQuery(); err != nil {
		return attendance.Period{}, err
	}

	if period.From != nil && period.To != nil && period.To.Before(*period.From) {
		return attendance.Period{}, web.NewCodedError(errors.New("to is before from"), http.StatusBadRequest, "invalid_request")
	}

	return period, nil
}
