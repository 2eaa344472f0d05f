package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"timeclock/backend/foundation/web"
	"timeclock/backend/internal/auth"
)

// Authenticate validates a JWT from the `Authorization` header and, when
// roles are given, rejects callers holding none of them.
func Authenticate(a *auth.Auth, role ...string) web.Middleware {
	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(c *web.Context) error {

			// Expecting: Bearer <token>
			authStr := c.Request.Header.Get("authorization")

			// Parse the authorization header.
			parts := strings.Split(authStr, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				err := errors.New("expected authorization header format: Bearer <token>")
				return c.RespondError(web.NewCodedError(err, http.StatusUnauthorized, "unauthorized"))
			}

			// Validate the token is signed by us.
			claims, err := a.ValidateToken(parts[1])
			if err != nil {
				return c.RespondError(web.NewCodedError(err, http.StatusUnauthorized, "unauthorized"))
			}

			// check role inside token data
			if len(role) > 0 && !claims.Authorized(role...) {
				return c.RespondError(web.NewCodedError(errors.New("attempted action is not allowed"), http.StatusForbidden, "access_denied"))
			}

			// Add claims to the context so that they can be retrieved later.
			c.Ctx = context.WithValue(c.Ctx, auth.Key, claims)

			// Call the next handler.
			return handler(c)
		}

		return h
	}

	return m
}
