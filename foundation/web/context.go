package web

import (
	"context"
	"net/http"
	"reflect"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// Context wraps the gin context with the request scoped context.Context that
// middleware enriches (claims, deadlines).
type Context struct {
	*gin.Context
	Ctx context.Context

	paramErr error
	queryErr error
}

// Respond converts a Go value to JSON and sends it to the client.
func (c *Context) Respond(data interface{}, status int) error {
	if status == http.StatusNoContent {
		c.Status(status)
		return nil
	}

	c.JSON(status, data)
	return nil
}

// RespondError sends an error response back to the client. Failures that end
// in a 5xx are returned so the App can log them.
func (c *Context) RespondError(err error) error {
	status, body := toResponse(err)

	c.AbortWithStatusJSON(status, map[string]interface{}{
		"status": false,
		"error":  body,
	})

	if status >= http.StatusInternalServerError {
		return err
	}
	return nil
}

// BindFunc decodes the request body into obj and checks that the named
// fields were provided.
func (c *Context) BindFunc(obj interface{}, required ...string) error {
	if err := c.ShouldBind(obj); err != nil {
		return &Error{
			Err:    errors.Wrap(err, "binding request"),
			Status: http.StatusBadRequest,
			Code:   "invalid_request",
		}
	}

	return ValidateRequired(obj, required...)
}

// GetParam parses the path parameter key as the given kind. Parse failures
// are collected and reported by ValidParam; the zero value is returned in
// that case.
func (c *Context) GetParam(kind reflect.Kind, key string) interface{} {
	raw := c.Param(key)

	v, err := parse(kind, raw)
	if err != nil {
		if c.paramErr == nil {
			c.paramErr = errors.Wrapf(err, "path parameter %q", key)
		}
		return reflect.Zero(kindType(kind)).Interface()
	}

	return v
}

// ValidParam reports the first path parameter that failed to parse.
func (c *Context) ValidParam() error {
	if c.paramErr != nil {
		return &Error{Err: c.paramErr, Status: http.StatusBadRequest, Code: "invalid_request"}
	}
	return nil
}

// GetQueryFunc parses an optional query parameter and returns a pointer to
// the value, or nil when the parameter is absent.
func (c *Context) GetQueryFunc(kind reflect.Kind, key string) interface{} {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return nil
	}

	v, err := parse(kind, raw)
	if err != nil {
		if c.queryErr == nil {
			c.queryErr = errors.Wrapf(err, "query parameter %q", key)
		}
		return nil
	}

	ptr := reflect.New(kindType(kind))
	ptr.Elem().Set(reflect.ValueOf(v))
	return ptr.Interface()
}

// ValidQuery reports the first query parameter that failed to parse.
func (c *Context) ValidQuery() error {
	if c.queryErr != nil {
		return &Error{Err: c.queryErr, Status: http.StatusBadRequest, Code: "invalid_request"}
	}
	return nil
}

func parse(kind reflect.Kind, raw string) (interface{}, error) {
	switch kind {
	case reflect.Int:
		return strconv.Atoi(raw)
	case reflect.Float64:
		return strconv.ParseFloat(raw, 64)
	case reflect.Bool:
		return strconv.ParseBool(raw)
	case reflect.String:
		if raw == "" {
			return "", errors.New("empty value")
		}
		return raw, nil
	default:
		return nil, errors.Errorf("unsupported kind %s", kind)
	}
}

func kindType(kind reflect.Kind) reflect.Type {
	switch kind {
	case reflect.Int:
		return reflect.TypeOf(0)
	case reflect.Float64:
		return reflect.TypeOf(float64(0))
	case reflect.Bool:
		return reflect.TypeOf(false)
	default:
		return reflect.TypeOf("")
	}
}
