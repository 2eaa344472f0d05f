package attendance

import (
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"timeclock/backend/internal/entity"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	db := bun.NewDB(sql.OpenDB(pgdriver.NewConnector()), pgdialect.New())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestUpdateQuery(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)
	at := time.Date(2024, 5, 6, 11, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		update  entity.SessionUpdate
		want    []string
		notWant []string
	}{
		{
			name:   "pause",
			update: entity.SessionUpdate{PausedAt: &at},
			want: []string{
				`UPDATE "attendance_session"`,
				"paused_at = '",
				"(id = 5 AND clock_out IS NULL)",
				"(paused_at IS NULL)",
				"updated_at = '",
				"RETURNING *",
			},
			notWant: []string{"resumed_at =", "clock_out ="},
		},
		{
			name:   "resume",
			update: entity.SessionUpdate{ResumedAt: &at},
			want: []string{
				"resumed_at = '",
				"(id = 5 AND clock_out IS NULL)",
				"(paused_at IS NOT NULL AND resumed_at IS NULL)",
			},
			notWant: []string{"paused_at = '", "clock_out ="},
		},
		{
			name:   "clock out with point",
			update: entity.SessionUpdate{ClockOut: &at, ClockOutPoint: &entity.Point{Latitude: 35.5, Longitude: 139.25}},
			want: []string{
				"clock_out = '",
				"clock_out_latitude = 35.5",
				"clock_out_longitude = 139.25",
				"(id = 5 AND clock_out IS NULL)",
			},
			notWant: []string{"paused_at IS NULL", "resumed_at IS NULL"},
		},
		{
			name:    "clock out without point",
			update:  entity.SessionUpdate{ClockOut: &at},
			want:    []string{"clock_out = '", "(id = 5 AND clock_out IS NULL)"},
			notWant: []string{"clock_out_latitude"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var session entity.AttendanceSession
			q, err := updateQuery(db, &session, 5, tt.update, now)
			if err != nil {
				t.Fatalf("build: %v", err)
			}

			query := q.String()
			for _, w := range tt.want {
				if !strings.Contains(query, w) {
					t.Errorf("query missing %q:\n%s", w, query)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(query, w) {
					t.Errorf("query contains %q:\n%s", w, query)
				}
			}
		})
	}
}

func TestUpdateQueryRejectsEmptyUpdate(t *testing.T) {
	db := newTestDB(t)
	var session entity.AttendanceSession

	point := entity.Point{Latitude: 35.5, Longitude: 139.25}
	for _, u := range []entity.SessionUpdate{{}, {ClockOutPoint: &point}} {
		if _, err := updateQuery(db, &session, 5, u, time.Now()); !errors.Is(err, errEmptyUpdate) {
			t.Errorf("update %+v: err = %v, want errEmptyUpdate", u, err)
		}
	}
}
