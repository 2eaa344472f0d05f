// Package export renders attendance reports as spreadsheets.
package export

import (
	"io"
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"timeclock/backend/internal/entity"
	"timeclock/backend/internal/service/attendance"
)

const (
	Sheet       = "Attendance"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	timeLayout = "2006-01-02 15:04:05"
)

var headers = []string{"Session ID", "Clock In", "Paused At", "Resumed At", "Clock Out", "State", "Worked Hours"}

// WriteReport writes the report of the person as an xlsx workbook with one
// row per session followed by a total row.
func WriteReport(w io.Writer, person entity.User, report attendance.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", Sheet); err != nil {
		return errors.Wrap(err, "naming sheet")
	}

	employeeID, fullName := "", ""
	if person.EmployeeID != nil {
		employeeID = *person.EmployeeID
	}
	if person.FullName != nil {
		fullName = *person.FullName
	}

	rows := [][]interface{}{
		{"Employee ID", employeeID},
		{"Full Name", fullName},
		{},
		toRow(headers),
	}

	for _, line := range report.Lines {
		s := line.Session
		rows = append(rows, []interface{}{
			s.ID,
			formatTime(&s.ClockIn),
			formatTime(s.PausedAt),
			formatTime(s.ResumedAt),
			formatTime(s.ClockOut),
			string(line.State),
			round(line.Hours),
		})
	}

	rows = append(rows, []interface{}{}, []interface{}{"Total Hours", round(report.Total.Hours)})

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return errors.Wrap(err, "resolving cell")
		}
		if err := f.SetSheetRow(Sheet, cell, &row); err != nil {
			return errors.Wrapf(err, "writing row %d", i+1)
		}
	}

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "writing workbook")
	}

	return nil
}

func toRow(values []string) []interface{} {
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return row
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func round(hours float64) float64 {
	return math.Round(hours*100) / 100
}
