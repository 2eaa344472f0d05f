package auth

import (
	"net/http"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"timeclock/backend/foundation/web"
	"timeclock/backend/internal/repository/postgres/user"
)

type Controller struct {
	user   User
	tokens TokenIssuer
}

func NewController(user User, tokens TokenIssuer) *Controller {
	return &Controller{user: user, tokens: tokens}
}

func (uc Controller) SignIn(c *web.Context) error {
	var data user.SignInRequest

	err := c.BindFunc(&data, "EmployeeID", "Password")
	if err != nil {
		return c.RespondError(err)
	}

	detail, err := uc.user.GetByEmployeeID(c.Ctx, data.EmployeeID)
	if err != nil {
		return c.RespondError(err)
	}

	if detail.Password == nil {
		return c.RespondError(web.NewCodedError(errors.New("password is not set"), http.StatusUnauthorized, "unauthorized"))
	}

	if err = bcrypt.CompareHashAndPassword([]byte(*detail.Password), []byte(data.Password)); err != nil {
		return c.RespondError(web.NewCodedError(errors.New("incorrect password"), http.StatusUnauthorized, "unauthorized"))
	}

	accessToken, err := uc.tokens.GenerateToken(detail.ID, detail.RoleName())
	if err != nil {
		return c.RespondError(web.NewRequestError(errors.Wrap(err, "generating token"), http.StatusInternalServerError))
	}

	return c.Respond(map[string]interface{}{
		"status": true,
		"data": map[string]interface{}{
			"access_token": accessToken,
			"user_id":      detail.ID,
			"role":         detail.RoleName(),
		},
	}, http.StatusOK)
}
