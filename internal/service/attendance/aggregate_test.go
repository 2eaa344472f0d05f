package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"

	"timeclock/backend/internal/entity"
)

func at(h, m int) *time.Time {
	t := day(h, m)
	return &t
}

func TestWorkedDuration(t *testing.T) {
	tests := []struct {
		name    string
		session entity.AttendanceSession
		policy  PausePolicy
		want    time.Duration
		wantErr error
	}{
		{
			name:    "open session counts nothing",
			session: entity.AttendanceSession{ClockIn: day(9, 0)},
			want:    0,
		},
		{
			name:    "no pause",
			session: entity.AttendanceSession{ClockIn: day(9, 0), ClockOut: at(17, 0)},
			want:    8 * time.Hour,
		},
		{
			name: "completed pause is subtracted",
			session: entity.AttendanceSession{
				ClockIn: day(9, 0), PausedAt: at(12, 0), ResumedAt: at(12, 30), ClockOut: at(17, 0),
			},
			want: 7*time.Hour + 30*time.Minute,
		},
		{
			name: "unresumed pause ignored",
			session: entity.AttendanceSession{
				ClockIn: day(9, 0), PausedAt: at(16, 0), ClockOut: at(17, 0),
			},
			policy: PauseIgnoreUnresumed,
			want:   8 * time.Hour,
		},
		{
			name: "unresumed pause deducted to clock-out",
			session: entity.AttendanceSession{
				ClockIn: day(9, 0), PausedAt: at(16, 0), ClockOut: at(17, 0),
			},
			policy: PauseDeductToClockOut,
			want:   7 * time.Hour,
		},
		{
			name: "completed pause ignores policy",
			session: entity.AttendanceSession{
				ClockIn: day(9, 0), PausedAt: at(12, 0), ResumedAt: at(12, 30), ClockOut: at(17, 0),
			},
			policy: PauseDeductToClockOut,
			want:   7*time.Hour + 30*time.Minute,
		},
		{
			name:    "clock-out before clock-in",
			session: entity.AttendanceSession{ClockIn: day(9, 0), ClockOut: at(8, 0)},
			wantErr: ErrInvariantViolation,
		},
		{
			name: "resumed before paused",
			session: entity.AttendanceSession{
				ClockIn: day(9, 0), PausedAt: at(12, 0), ResumedAt: at(11, 0), ClockOut: at(17, 0),
			},
			wantErr: ErrInvariantViolation,
		},
		{
			name: "resumed without pause",
			session: entity.AttendanceSession{
				ClockIn: day(9, 0), ResumedAt: at(11, 0), ClockOut: at(17, 0),
			},
			wantErr: ErrInvariantViolation,
		},
		{
			name: "pause after clock-out",
			session: entity.AttendanceSession{
				ClockIn: day(9, 0), PausedAt: at(18, 0), ClockOut: at(17, 0),
			},
			wantErr: ErrInvariantViolation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := WorkedDuration(tt.session, tt.policy)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("worked = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSumExcludesOpenSessions(t *testing.T) {
	sessions := []entity.AttendanceSession{
		{ClockIn: day(9, 0), ClockOut: at(17, 0)},
		{ClockIn: day(9, 0), PausedAt: at(12, 0), ResumedAt: at(12, 30), ClockOut: at(17, 0)},
		{ClockIn: day(18, 0)},
	}

	total, err := Sum(alice, sessions, PauseIgnoreUnresumed)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if total.Worked != 15*time.Hour+30*time.Minute {
		t.Errorf("worked = %v", total.Worked)
	}
	if total.Hours != 15.5 || total.Seconds != 55800 {
		t.Errorf("hours = %v, seconds = %d", total.Hours, total.Seconds)
	}
	if total.ClosedSessions != 2 || total.OpenSessions != 1 {
		t.Errorf("closed = %d, open = %d", total.ClosedSessions, total.OpenSessions)
	}
}

func TestSumEmpty(t *testing.T) {
	total, err := Sum(alice, nil, PauseIgnoreUnresumed)
	if err != nil || total.Worked != 0 || total.Hours != 0 {
		t.Errorf("total = %+v, err %v", total, err)
	}
}

func TestTotalWorkedTime(t *testing.T) {
	ctx := context.Background()

	t.Run("employee denied", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.svc.TotalWorkedTime(ctx, alice, "EMPLOYEE"); !errors.Is(err, ErrAccessDenied) {
			t.Fatalf("err = %v, want ErrAccessDenied", err)
		}
	})

	t.Run("unknown person", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.svc.TotalWorkedTime(ctx, 99, "ADMIN"); !errors.Is(err, ErrPersonNotFound) {
			t.Fatalf("err = %v, want ErrPersonNotFound", err)
		}
	})

	t.Run("no sessions", func(t *testing.T) {
		f := newFixture(t)
		total, err := f.svc.TotalWorkedTime(ctx, alice, "ADMIN")
		if err != nil || total.Hours != 0 {
			t.Fatalf("total = %+v, err %v", total, err)
		}
	})

	t.Run("pause policy", func(t *testing.T) {
		sessions := []entity.AttendanceSession{
			{BasicEntity: entity.BasicEntity{ID: 1}, UserID: alice, ClockIn: day(9, 0), PausedAt: at(16, 0), ClockOut: at(17, 0)},
		}

		ignore := newFixture(t)
		ignore.store.sessions = append([]entity.AttendanceSession(nil), sessions...)
		total, err := ignore.svc.TotalWorkedTime(ctx, alice, "ADMIN")
		if err != nil || total.Hours != 8 {
			t.Errorf("ignore policy: total = %+v, err %v", total, err)
		}

		deduct := newFixture(t, WithPausePolicy(PauseDeductToClockOut))
		deduct.store.sessions = append([]entity.AttendanceSession(nil), sessions...)
		total, err = deduct.svc.TotalWorkedTime(ctx, alice, "ADMIN")
		if err != nil || total.Hours != 7 {
			t.Errorf("deduct policy: total = %+v, err %v", total, err)
		}
	})

	t.Run("corrupt session", func(t *testing.T) {
		f := newFixture(t)
		f.store.sessions = []entity.AttendanceSession{
			{BasicEntity: entity.BasicEntity{ID: 1}, UserID: alice, ClockIn: day(9, 0), PausedAt: at(12, 0), ResumedAt: at(11, 0), ClockOut: at(17, 0)},
		}
		if _, err := f.svc.TotalWorkedTime(ctx, alice, "ADMIN"); !errors.Is(err, ErrInvariantViolation) {
			t.Fatalf("err = %v, want ErrInvariantViolation", err)
		}
	})
}

func TestSessionReportPeriod(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	monday := day(9, 0)
	tuesday := monday.AddDate(0, 0, 1)
	wednesday := monday.AddDate(0, 0, 2)
	end := func(t time.Time) *time.Time { e := t.Add(8 * time.Hour); return &e }

	f.store.sessions = []entity.AttendanceSession{
		{BasicEntity: entity.BasicEntity{ID: 1}, UserID: alice, ClockIn: monday, ClockOut: end(monday)},
		{BasicEntity: entity.BasicEntity{ID: 2}, UserID: alice, ClockIn: tuesday, ClockOut: end(tuesday)},
		{BasicEntity: entity.BasicEntity{ID: 3}, UserID: alice, ClockIn: wednesday},
	}

	report, err := f.svc.SessionReport(ctx, alice, "ADMIN", Period{})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(report.Lines) != 3 || report.Total.Hours != 16 || report.Total.OpenSessions != 1 {
		t.Errorf("unbounded report: %d lines, total %+v", len(report.Lines), report.Total)
	}
	if report.Lines[2].State != StateOpenActive || report.Lines[0].State != StateClosed {
		t.Errorf("line states = %s, %s", report.Lines[0].State, report.Lines[2].State)
	}

	from, to := dayStart(tuesday), dayStart(tuesday)
	report, err = f.svc.SessionReport(ctx, alice, "ADMIN", Period{From: &from, To: &to})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(report.Lines) != 1 || report.Lines[0].Session.ID != 2 || report.Lines[0].Hours != 8 {
		t.Errorf("tuesday report = %+v", report)
	}

	if _, err := f.svc.SessionReport(ctx, alice, "EMPLOYEE", Period{}); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("err = %v, want ErrAccessDenied", err)
	}
}

func TestParsePausePolicy(t *testing.T) {
	for in, want := range map[string]PausePolicy{
		"":        PauseIgnoreUnresumed,
		"ignore":  PauseIgnoreUnresumed,
		"DEDUCT":  PauseDeductToClockOut,
		" deduct": PauseDeductToClockOut,
	} {
		got, err := ParsePausePolicy(in)
		if err != nil || got != want {
			t.Errorf("ParsePausePolicy(%q) = %v, %v", in, got, err)
		}
	}

	if _, err := ParsePausePolicy("half"); err == nil {
		t.Error("expected an error for an unknown policy")
	}
}

func TestStateOf(t *testing.T) {
	tests := []struct {
		session *entity.AttendanceSession
		want    State
	}{
		{nil, StateNoOpenSession},
		{&entity.AttendanceSession{ClockIn: day(9, 0)}, StateOpenActive},
		{&entity.AttendanceSession{ClockIn: day(9, 0), PausedAt: at(10, 0)}, StateOpenPaused},
		{&entity.AttendanceSession{ClockIn: day(9, 0), PausedAt: at(10, 0), ResumedAt: at(10, 5)}, StateOpenActive},
		{&entity.AttendanceSession{ClockIn: day(9, 0), PausedAt: at(10, 0), ClockOut: at(11, 0)}, StateClosed},
	}
	for _, tt := range tests {
		if got := StateOf(tt.session); got != tt.want {
			t.Errorf("StateOf(%+v) = %s, want %s", tt.session, got, tt.want)
		}
	}
}
