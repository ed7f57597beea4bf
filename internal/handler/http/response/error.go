package response

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/calendar"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/statutory"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Calendar domain errors
	case errors.Is(err, calendar.ErrInvalidYear),
		errors.Is(err, calendar.ErrInvalidMonth),
		errors.Is(err, calendar.ErrOverlappingOverride):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, calendar.ErrOverrideNotFound):
		NotFound(w, "Work calendar override not found")

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrEmployeeNotPayable),
		errors.Is(err, employee.ErrEmployeeHasNoGrade),
		errors.Is(err, employee.ErrEmployeeHasNoSalary):
		UnprocessableEntity(w, err.Error())

	// Attendance domain errors
	case errors.Is(err, attendance.ErrInvalidImportFile):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, attendance.ErrRecordNotFound):
		NotFound(w, "Attendance record not found")

	// Payroll domain errors
	case errors.Is(err, payroll.ErrScheduleNotFound):
		NotFound(w, "Payroll schedule not found")
	case errors.Is(err, payroll.ErrNoActiveSchedule):
		NotFound(w, "No active payroll schedule")
	case errors.Is(err, payroll.ErrRuleNotFound):
		NotFound(w, "Payroll rule not found")
	case errors.Is(err, payroll.ErrResultNotFound):
		NotFound(w, "Payroll result not found")
	case errors.Is(err, payroll.ErrResultLocked):
		Conflict(w, err.Error())
	case errors.Is(err, payroll.ErrInvalidPeriod),
		errors.Is(err, payroll.ErrInvalidScope),
		errors.Is(err, payroll.ErrInvalidCutoffType),
		errors.Is(err, payroll.ErrInvalidProcessingDay):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, payroll.ErrNoAttendanceData),
		errors.Is(err, payroll.ErrNoEligibleEmployees):
		UnprocessableEntity(w, err.Error())

	// Configuration that cannot be computed with
	case errors.Is(err, schedule.ErrInvalidSchedule),
		errors.Is(err, statutory.ErrBracketsUnordered),
		errors.Is(err, statutory.ErrBracketsNotOpenEnd),
		errors.Is(err, statutory.ErrInvalidContribution):
		slog.Error("Payroll configuration error", "error", err)
		UnprocessableEntity(w, err.Error())

	case errors.Is(err, context.DeadlineExceeded):
		GatewayTimeout(w, "Request timed out")

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
