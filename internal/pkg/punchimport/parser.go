package punchimport

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/xuri/excelize/v2"
)

var ErrMissingColumns = errors.New("header must name a user column, a type column and either a timestamp column or date and time columns")

// RowError - a spreadsheet line that could not be turned into a punch
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// Sheet - punches grouped per user in the order users first appear
type Sheet struct {
	Rows    int
	Batches []attendance.RecordPunchesRequest
	Errors  []RowError
}

var (
	userHeaders      = []string{"user_id", "user id", "userid", "employee_id", "employee id", "emp id", "ac-no.", "id"}
	timestampHeaders = []string{"timestamp", "datetime", "date/time", "date time", "punch time"}
	dateHeaders      = []string{"date"}
	timeHeaders      = []string{"time"}
	typeHeaders      = []string{"type", "punch", "state", "in/out", "status"}
)

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 3:04 PM",
	"01-02-06 15:04",
}

type columns struct {
	user, timestamp, date, clock, kind int
}

// Parse reads a header row followed by one punch per row. Wall-clock values are taken in loc.
func Parse(rows [][]string, loc *time.Location) (Sheet, error) {
	if loc == nil {
		loc = time.UTC
	}
	if len(rows) == 0 {
		return Sheet{}, ErrEmptyWorksheet
	}

	cols, ok := locateColumns(rows[0])
	if !ok {
		return Sheet{}, ErrMissingColumns
	}

	sheet := Sheet{}
	index := make(map[string]int)
	for i, row := range rows[1:] {
		line := i + 2
		if blank(row) {
			continue
		}
		sheet.Rows++

		userID := cell(row, cols.user)
		if userID == "" {
			sheet.Errors = append(sheet.Errors, RowError{Line: line, Message: "user id is empty"})
			continue
		}

		kind, ok := parseType(cell(row, cols.kind))
		if !ok {
			sheet.Errors = append(sheet.Errors, RowError{Line: line, Message: fmt.Sprintf("unknown punch type %q", cell(row, cols.kind))})
			continue
		}

		ts, err := cols.timestampOf(row, loc)
		if err != nil {
			sheet.Errors = append(sheet.Errors, RowError{Line: line, Message: err.Error()})
			continue
		}

		pos, seen := index[userID]
		if !seen {
			pos = len(sheet.Batches)
			index[userID] = pos
			sheet.Batches = append(sheet.Batches, attendance.RecordPunchesRequest{UserID: userID})
		}
		sheet.Batches[pos].Punches = append(sheet.Batches[pos].Punches, attendance.PunchInput{
			Timestamp: ts.Format(time.RFC3339),
			Type:      kind,
			Source:    attendance.PunchSourceImport,
		})
	}

	return sheet, nil
}

func locateColumns(header []string) (columns, bool) {
	cols := columns{
		user:      find(header, userHeaders),
		timestamp: find(header, timestampHeaders),
		date:      find(header, dateHeaders),
		clock:     find(header, timeHeaders),
		kind:      find(header, typeHeaders),
	}
	if cols.user < 0 || cols.kind < 0 {
		return cols, false
	}
	if cols.timestamp < 0 && (cols.date < 0 || cols.clock < 0) {
		return cols, false
	}
	return cols, true
}

func find(header []string, names []string) int {
	for _, name := range names {
		for i, h := range header {
			if strings.ToLower(strings.TrimSpace(h)) == name {
				return i
			}
		}
	}
	return -1
}

func (c columns) timestampOf(row []string, loc *time.Location) (time.Time, error) {
	if c.timestamp >= 0 {
		if value := cell(row, c.timestamp); value != "" {
			return parseTimestamp(value, loc)
		}
	}
	if c.date < 0 || c.clock < 0 {
		return time.Time{}, errors.New("timestamp is empty")
	}

	date, clock := cell(row, c.date), cell(row, c.clock)
	if date == "" || clock == "" {
		return time.Time{}, errors.New("date or time is empty")
	}

	// both cells raw serials: whole days plus a day fraction
	if d, err := strconv.ParseFloat(date, 64); err == nil {
		if f, err := strconv.ParseFloat(clock, 64); err == nil && f < 1 {
			return fromSerial(d+f, loc)
		}
		day, err := fromSerial(d, loc)
		if err != nil {
			return time.Time{}, err
		}
		date = day.Format("2006-01-02")
	}
	return parseTimestamp(date+" "+clock, loc)
}

func parseTimestamp(value string, loc *time.Location) (time.Time, error) {
	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		return fromSerial(serial, loc)
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", value)
}

// fromSerial converts an Excel date serial, read as wall-clock time in loc
func fromSerial(serial float64, loc *time.Location) (time.Time, error) {
	if serial <= 0 {
		return time.Time{}, fmt.Errorf("invalid date serial %v", serial)
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date serial %v: %w", serial, err)
	}
	t = t.Round(time.Second)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
}

func parseType(value string) (attendance.PunchType, bool) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(value), " ", "")) {
	case "in", "c/in", "checkin", "clockin", "timein", "0":
		return attendance.PunchTypeIn, true
	case "out", "c/out", "checkout", "clockout", "timeout", "1":
		return attendance.PunchTypeOut, true
	}
	return "", false
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
