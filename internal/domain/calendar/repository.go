package calendar

import "context"

type CalendarRepository interface {
	// Holidays
	ListHolidays(ctx context.Context) ([]Holiday, error)

	// Overrides, keyed by "<year>_<month>"
	GetOverride(ctx context.Context, year, month int) (Override, error)
	UpsertOverride(ctx context.Context, override Override) (Override, error)
}
