package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Status bool          `json:"status"`
	Error  ErrorResponse `json:"error"`
}

func do(t *testing.T, app *App, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func TestRespondErrorUsesWebError(t *testing.T) {
	app := NewApp(nil)
	app.Get("/fail", func(c *Context) error {
		return c.RespondError(NewCodedError(errors.New("already clocked in"), http.StatusConflict, "already_open"))
	})

	rec, env := do(t, app, http.MethodGet, "/fail", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
	if env.Status {
		t.Error("status flag = true, want false")
	}
	if env.Error.Code != "already_open" {
		t.Errorf("code = %q, want already_open", env.Error.Code)
	}
	if env.Error.Message != "already clocked in" {
		t.Errorf("message = %q", env.Error.Message)
	}
}

func TestRespondErrorHidesInternalErrors(t *testing.T) {
	app := NewApp(nil)
	app.Get("/boom", func(c *Context) error {
		return c.RespondError(errors.New("pq: connection refused"))
	})

	rec, env := do(t, app, http.MethodGet, "/boom", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(env.Error.Message, "connection refused") {
		t.Errorf("internal error leaked to client: %q", env.Error.Message)
	}
}

func TestMiddlewareOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next Handler) Handler {
			return func(c *Context) error {
				order = append(order, name)
				return next(c)
			}
		}
	}

	app := NewApp(nil, mark("app"))
	app.Get("/ok", func(c *Context) error {
		order = append(order, "handler")
		return c.Respond(map[string]interface{}{"status": true}, http.StatusOK)
	}, mark("route"))

	rec, _ := do(t, app, http.MethodGet, "/ok", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	want := []string{"app", "route", "handler"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

type pointRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func TestBindFuncRequiredFields(t *testing.T) {
	app := NewApp(nil)
	app.Post("/point", func(c *Context) error {
		var req pointRequest
		if err := c.BindFunc(&req, "Latitude,Longitude"); err != nil {
			return c.RespondError(err)
		}
		return c.Respond(map[string]interface{}{"status": true}, http.StatusOK)
	})

	tests := []struct {
		name string
		body string
		want int
	}{
		{"both present", `{"latitude": 0, "longitude": 0}`, http.StatusOK},
		{"missing longitude", `{"latitude": 41.1}`, http.StatusBadRequest},
		{"malformed json", `{"latitude":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := do(t, app, http.MethodPost, "/point", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestGetParam(t *testing.T) {
	app := NewApp(nil)
	app.Get("/people/:id", func(c *Context) error {
		id := c.GetParam(reflect.Int, "id").(int)
		if err := c.ValidParam(); err != nil {
			return c.RespondError(err)
		}
		return c.Respond(map[string]interface{}{"id": id}, http.StatusOK)
	})

	if rec, _ := do(t, app, http.MethodGet, "/people/42", ""); rec.Code != http.StatusOK {
		t.Errorf("valid id: status = %d, want 200", rec.Code)
	}
	if rec, _ := do(t, app, http.MethodGet, "/people/abc", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid id: status = %d, want 400", rec.Code)
	}
}

func TestValidateRequiredUnknownField(t *testing.T) {
	err := ValidateRequired(&pointRequest{}, "Altitude")
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
	var webErr *Error
	if errors.As(err, &webErr) {
		t.Errorf("unknown field should be a programming error, got web error %v", webErr)
	}
}
