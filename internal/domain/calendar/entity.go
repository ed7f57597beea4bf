package calendar

import (
	"fmt"
	"time"
)

// HolidayType enum
type HolidayType string

const (
	HolidayTypeRegular HolidayType = "REGULAR"
	HolidayTypeSpecial HolidayType = "SPECIAL"
)

// Holiday - either a fixed date or a month/day that recurs every year
type Holiday struct {
	ID          string
	Name        string
	Type        HolidayType
	Date        *time.Time
	IsRecurring bool
	Month       int
	Day         int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Matches reports whether the holiday falls on the given civil date.
func (h Holiday) Matches(year int, month time.Month, day int) bool {
	if h.IsRecurring {
		return h.Month == int(month) && h.Day == day
	}
	if h.Date == nil {
		return false
	}
	y, m, d := h.Date.Date()
	return y == year && m == month && d == day
}

// Override - admin day-level corrections for a single month, stored under "<year>_<month>"
type Override struct {
	Year               int
	Month              int
	NoWorkDays         []int
	WorkingWeekendDays []int
	UpdatedAt          time.Time
}

// Key returns the storage key of the override blob
func (o Override) Key() string {
	return OverrideKey(o.Year, o.Month)
}

// WorkingDays - resolved calendar for one month
type WorkingDays struct {
	Year               int
	Month              int
	TotalDays          int
	Weekends           []int
	Holidays           []int
	NoWorkDays         []int
	WorkingWeekendDays []int
	WorkingDayList     []int
	WorkingDaysCount   int
}

// OverrideKey builds the "<year>_<month>" key overrides are stored under
func OverrideKey(year, month int) string {
	return fmt.Sprintf("%d_%d", year, month)
}
