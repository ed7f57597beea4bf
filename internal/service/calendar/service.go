package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/calendar"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
)

type CalendarServiceImpl struct {
	calendarRepo calendar.CalendarRepository
}

func NewCalendarService(calendarRepo calendar.CalendarRepository) calendar.CalendarService {
	return &CalendarServiceImpl{calendarRepo: calendarRepo}
}

// GetWorkingDays implements calendar.CalendarService.
func (s *CalendarServiceImpl) GetWorkingDays(ctx context.Context, year, month int) (calendar.WorkingDaysResponse, error) {
	if err := validateYearMonth(year, month); err != nil {
		return calendar.WorkingDaysResponse{}, err
	}

	snapshot, err := s.Snapshot(ctx, year, month)
	if err != nil {
		return calendar.WorkingDaysResponse{}, err
	}

	resolved, err := Resolve(year, month, snapshot.Holidays, snapshot.Override)
	if err != nil {
		return calendar.WorkingDaysResponse{}, err
	}

	return calendar.WorkingDaysResponse{
		Year:               resolved.Year,
		Month:              resolved.Month,
		TotalDays:          resolved.TotalDays,
		Weekends:           resolved.Weekends,
		Holidays:           resolved.Holidays,
		NoWorkDays:         resolved.NoWorkDays,
		WorkingWeekendDays: resolved.WorkingWeekendDays,
		WorkingDays:        resolved.WorkingDayList,
		WorkingDaysCount:   resolved.WorkingDaysCount,
	}, nil
}

// SaveOverride implements calendar.CalendarService.
func (s *CalendarServiceImpl) SaveOverride(ctx context.Context, req calendar.SaveOverrideRequest) (calendar.OverrideResponse, error) {
	if err := req.Validate(); err != nil {
		return calendar.OverrideResponse{}, err
	}
	req.Normalize()

	for _, d := range req.NoWorkDays {
		if containsDay(req.WorkingWeekendDays, d) {
			return calendar.OverrideResponse{}, fmt.Errorf("day %d: %w", d, calendar.ErrOverlappingOverride)
		}
	}

	saved, err := s.calendarRepo.UpsertOverride(ctx, calendar.Override{
		Year:               req.Year,
		Month:              req.Month,
		NoWorkDays:         req.NoWorkDays,
		WorkingWeekendDays: req.WorkingWeekendDays,
	})
	if err != nil {
		return calendar.OverrideResponse{}, fmt.Errorf("failed to save work calendar override: %w", err)
	}

	slog.Info("Work calendar override saved",
		"key", saved.Key(),
		"no_work_days", len(saved.NoWorkDays),
		"working_weekend_days", len(saved.WorkingWeekendDays))

	return calendar.OverrideResponse{
		Year:               saved.Year,
		Month:              saved.Month,
		NoWorkDays:         saved.NoWorkDays,
		WorkingWeekendDays: saved.WorkingWeekendDays,
		UpdatedAt:          saved.UpdatedAt.Format(time.RFC3339),
	}, nil
}

// Snapshot implements calendar.CalendarService.
func (s *CalendarServiceImpl) Snapshot(ctx context.Context, year, month int) (calendar.MonthSnapshot, error) {
	if err := validateYearMonth(year, month); err != nil {
		return calendar.MonthSnapshot{}, err
	}

	holidays, err := s.calendarRepo.ListHolidays(ctx)
	if err != nil {
		return calendar.MonthSnapshot{}, fmt.Errorf("failed to list holidays: %w", err)
	}

	override, err := s.calendarRepo.GetOverride(ctx, year, month)
	if err != nil {
		if !errors.Is(err, calendar.ErrOverrideNotFound) {
			return calendar.MonthSnapshot{}, fmt.Errorf("failed to get work calendar override: %w", err)
		}
		// Absent key means no overrides
		override = calendar.Override{Year: year, Month: month}
	}

	return calendar.MonthSnapshot{
		Year:     year,
		Month:    month,
		Holidays: holidays,
		Override: override,
	}, nil
}

// AnnualWorkingDays implements calendar.CalendarService.
func (s *CalendarServiceImpl) AnnualWorkingDays(ctx context.Context, year int) (int, error) {
	holidays, err := s.calendarRepo.ListHolidays(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list holidays: %w", err)
	}
	return AnnualWorkingDays(year, holidays)
}

func validateYearMonth(year, month int) error {
	var errs validator.ValidationErrors
	if !validator.IsValidYear(year) {
		errs = append(errs, validator.ValidationError{Field: "year", Message: "must be between 1900 and 9999"})
	}
	if month < 1 || month > 12 {
		errs = append(errs, validator.ValidationError{Field: "month", Message: "must be between 1 and 12"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
