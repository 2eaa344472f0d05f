package attendance

import (
	"context"

	"timeclock/backend/internal/entity"
	"timeclock/backend/internal/service/attendance"
)

type Attendance interface {
	ClockIn(ctx context.Context, personID int, at entity.Point) (attendance.Ack, error)
	Pause(ctx context.Context, personID int) (attendance.Ack, error)
	Resume(ctx context.Context, personID int) (attendance.Ack, error)
	ClockOut(ctx context.Context, personID int, at entity.Point) (attendance.Ack, error)
	Status(ctx context.Context, personID int) (attendance.Status, error)
	TotalWorkedTime(ctx context.Context, personID int, callerRole string) (attendance.Total, error)
	SessionReport(ctx context.Context, personID int, callerRole string, period attendance.Period) (attendance.Report, error)
}

type People interface {
	GetPerson(ctx context.Context, personID int) (entity.User, error)
}
