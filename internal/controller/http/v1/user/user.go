package user

import (
	"net/http"
	"reflect"

	"github.com/pkg/errors"

	"timeclock/backend/foundation/web"
	"timeclock/backend/internal/entity"
	"timeclock/backend/internal/repository/postgres/user"
)

type Controller struct {
	user User
}

func NewController(user User) *Controller {
	return &Controller{user}
}

func (uc Controller) CreateUser(c *web.Context) error {
	var request user.CreateRequest

	if err := c.BindFunc(&request, "EmployeeID", "Password", "FullName"); err != nil {
		return c.RespondError(err)
	}

	response, err := uc.user.Create(c.Ctx, request)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data":   response,
		"status": true,
	}, http.StatusCreated)
}

// SetLocation registers the reference location used by the geofence.
func (uc Controller) SetLocation(c *web.Context) error {
	id := c.GetParam(reflect.Int, "id").(int)

	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	var request user.SetLocationRequest
	if err := c.BindFunc(&request, "Latitude", "Longitude"); err != nil {
		return c.RespondError(err)
	}
	if p := (entity.Point{Latitude: *request.Latitude, Longitude: *request.Longitude}); !p.Valid() {
		return c.RespondError(web.NewCodedError(errors.Errorf("invalid coordinates %s", p), http.StatusBadRequest, "invalid_request"))
	}

	response, err := uc.user.SetLocation(c.Ctx, id, request)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data":   response,
		"status": true,
	}, http.StatusOK)
}
