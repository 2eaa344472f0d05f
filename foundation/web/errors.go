package web

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

// Error is used to pass an error during the request through the
// application with web specific context.
type Error struct {
	Err    error
	Status int
	Code   string
	Fields map[string]interface{}
}

// NewRequestError wraps a provided error with an HTTP status code. This
// function should be used when handlers encounter expected errors.
func NewRequestError(err error, status int) error {
	return &Error{Err: err, Status: status}
}

// NewCodedError is NewRequestError with a stable machine readable code that
// clients can branch on.
func NewCodedError(err error, status int, code string) *Error {
	return &Error{Err: err, Status: status, Code: code}
}

// Error implements the error interface. It uses the default message of the
// wrapped error. This is what will be shown in the services' logs.
func (e *Error) Error() string {
	if e.Err == nil {
		return http.StatusText(e.Status)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorResponse is the form used for API responses from failures in the API.
type ErrorResponse struct {
	Code    string                 `json:"code,omitempty"`
	Message string                 `json:"message"`
	Fields  map[string]interface{} `json:"fields,omitempty"`
}

// toResponse resolves any error to the status and body sent to the client.
// Errors that are not *Error are treated as internal failures and their
// message is not exposed.
func toResponse(err error) (int, ErrorResponse) {
	var webErr *Error
	if errors.As(err, &webErr) {
		status := webErr.Status
		if status == 0 {
			status = http.StatusInternalServerError
		}
		return status, ErrorResponse{
			Code:    webErr.Code,
			Message: webErr.Error(),
			Fields:  webErr.Fields,
		}
	}

	return http.StatusInternalServerError, ErrorResponse{
		Code:    "internal",
		Message: http.StatusText(http.StatusInternalServerError),
	}
}

// ValidateRequired reports a bad request for every named field of the struct
// pointed to by v that holds its zero value. A name may list several fields
// separated by commas.
func ValidateRequired(v interface{}, fields ...string) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return NewRequestError(errors.New("request body is empty"), http.StatusBadRequest)
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return errors.Errorf("validate: %s is not a struct", rv.Kind())
	}

	var missing []string
	for _, group := range fields {
		for _, name := range strings.Split(group, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			f := rv.FieldByName(name)
			if !f.IsValid() {
				return errors.Errorf("validate: unknown field %q", name)
			}
			if f.IsZero() {
				missing = append(missing, name)
			}
		}
	}

	if len(missing) > 0 {
		return &Error{
			Err:    errors.Errorf("required fields are missing: %s", strings.Join(missing, ", ")),
			Status: http.StatusBadRequest,
			Code:   "invalid_request",
		}
	}

	return nil
}
