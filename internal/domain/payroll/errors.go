package payroll

import "errors"

var (
	ErrScheduleNotFound     = errors.New("payroll schedule not found")
	ErrNoActiveSchedule     = errors.New("no active payroll schedule")
	ErrInvalidCutoffType    = errors.New("cutoff type must be monthly, bi-monthly or weekly")
	ErrInvalidProcessingDay = errors.New("invalid processing day")
	ErrRuleNotFound         = errors.New("payroll rule not found")
	ErrSettingsNotFound     = errors.New("payroll settings not found")
	ErrResultNotFound       = errors.New("payroll result not found")
	ErrResultLocked         = errors.New("payroll result already paid, cannot recompute")
	ErrInvalidPeriod        = errors.New("invalid payroll period")
	ErrInvalidScope         = errors.New("scope must be all, user or current_month")
	ErrNoAttendanceData     = errors.New("no attendance data for the period")
	ErrNoEligibleEmployees  = errors.New("no eligible employees for the period")
)
