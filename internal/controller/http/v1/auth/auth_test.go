package auth

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"timeclock/backend/foundation/web"
	"timeclock/backend/internal/auth"
	"timeclock/backend/internal/entity"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeUsers map[string]entity.User

func (f fakeUsers) GetByEmployeeID(_ context.Context, employeeID string) (entity.User, error) {
	u, ok := f[employeeID]
	if !ok {
		return entity.User{}, web.NewCodedError(errors.New("employee not found"), http.StatusUnauthorized, "unauthorized")
	}
	return u, nil
}

func TestSignIn(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	password, role := string(hash), auth.RoleEmployee
	users := fakeUsers{"E-001": {BasicEntity: entity.BasicEntity{ID: 42}, Password: &password, Role: &role}}

	a, err := auth.New("test-signing-key", time.Hour)
	if err != nil {
		t.Fatalf("auth: %v", err)
	}

	app := web.NewApp(slog.New(slog.NewTextHandler(io.Discard, nil)))
	app.Post("/sign-in", NewController(users, a).SignIn)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"valid", `{"employee_id":"E-001","password":"s3cret"}`, http.StatusOK},
		{"wrong password", `{"employee_id":"E-001","password":"nope"}`, http.StatusUnauthorized},
		{"unknown employee", `{"employee_id":"E-404","password":"s3cret"}`, http.StatusUnauthorized},
		{"missing password", `{"employee_id":"E-001"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/sign-in", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			app.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var body struct {
				Data struct {
					AccessToken string `json:"access_token"`
				} `json:"data"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			claims, err := a.ValidateToken(body.Data.AccessToken)
			if err != nil {
				t.Fatalf("validate token: %v", err)
			}
			if claims.UserId != 42 || claims.Role != auth.RoleEmployee {
				t.Errorf("claims = %+v", claims)
			}
		})
	}
}
