package calendar

import (
	"context"
	"time"
)

type CalendarService interface {
	GetWorkingDays(ctx context.Context, year, month int) (WorkingDaysResponse, error)
	SaveOverride(ctx context.Context, req SaveOverrideRequest) (OverrideResponse, error)

	// Snapshot loads holidays and the override of one month for repeated day lookups
	Snapshot(ctx context.Context, year, month int) (MonthSnapshot, error)
	AnnualWorkingDays(ctx context.Context, year int) (int, error)
}

// MonthSnapshot is the read-only calendar input of one month
type MonthSnapshot struct {
	Year     int
	Month    int
	Holidays []Holiday
	Override Override
}

// HolidayOn returns the holiday falling on date, if any.
func (s MonthSnapshot) HolidayOn(date time.Time) *Holiday {
	y, m, d := date.Date()
	for i := range s.Holidays {
		if s.Holidays[i].Matches(y, m, d) {
			h := s.Holidays[i]
			return &h
		}
	}
	return nil
}
