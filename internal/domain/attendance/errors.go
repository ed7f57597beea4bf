package attendance

import "errors"

var (
	ErrRecordNotFound    = errors.New("attendance record not found")
	ErrNoAttendanceData  = errors.New("no attendance data for the period")
	ErrInvalidPunchType  = errors.New("punch type must be IN or OUT")
	ErrInvalidDateRange  = errors.New("date range is invalid")
	ErrDateRangeTooLarge = errors.New("date range must not exceed 93 days")
	ErrInvalidImportFile = errors.New("invalid punch import file")
)
