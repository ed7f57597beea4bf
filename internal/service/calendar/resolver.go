package calendar

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/calendar"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
)

// Resolve enumerates every day of the month and classifies it. A day is a working day when
// it is a non-holiday weekday outside the no-work overrides, or a weekend day explicitly
// marked as working.
func Resolve(year, month int, holidays []calendar.Holiday, override calendar.Override) (calendar.WorkingDays, error) {
	if !validator.IsValidYear(year) {
		return calendar.WorkingDays{}, calendar.ErrInvalidYear
	}
	if month < 1 || month > 12 {
		return calendar.WorkingDays{}, calendar.ErrInvalidMonth
	}

	noWork := toSet(override.NoWorkDays)
	workingWeekend := toSet(override.WorkingWeekendDays)

	total := validator.DaysInMonth(year, time.Month(month))
	result := calendar.WorkingDays{
		Year:               year,
		Month:              month,
		TotalDays:          total,
		Weekends:           []int{},
		Holidays:           []int{},
		NoWorkDays:         []int{},
		WorkingWeekendDays: []int{},
		WorkingDayList:     []int{},
	}

	for day := 1; day <= total; day++ {
		date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		weekend := IsWeekend(date)
		holiday := isHoliday(holidays, year, time.Month(month), day)
		_, isNoWork := noWork[day]
		_, isWorkingWeekend := workingWeekend[day]

		if weekend {
			result.Weekends = append(result.Weekends, day)
		}
		if holiday {
			result.Holidays = append(result.Holidays, day)
		}
		if isNoWork {
			result.NoWorkDays = append(result.NoWorkDays, day)
		}
		if isWorkingWeekend && weekend {
			result.WorkingWeekendDays = append(result.WorkingWeekendDays, day)
		}

		if (!weekend && !holiday && !isNoWork) || (weekend && isWorkingWeekend) {
			result.WorkingDayList = append(result.WorkingDayList, day)
		}
	}
	result.WorkingDaysCount = len(result.WorkingDayList)

	return result, nil
}

// IsWorkingDay applies the same classification as Resolve to a single date.
func IsWorkingDay(date time.Time, holidays []calendar.Holiday, override calendar.Override) bool {
	y, m, d := date.Date()
	weekend := IsWeekend(date)
	if weekend {
		return containsDay(override.WorkingWeekendDays, d)
	}
	if isHoliday(holidays, y, m, d) {
		return false
	}
	return !containsDay(override.NoWorkDays, d)
}

// AnnualWorkingDays counts weekdays that are not holidays. Overrides are ignored.
func AnnualWorkingDays(year int, holidays []calendar.Holiday) (int, error) {
	if !validator.IsValidYear(year) {
		return 0, calendar.ErrInvalidYear
	}

	count := 0
	for date := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC); date.Year() == year; date = date.AddDate(0, 0, 1) {
		if IsWeekend(date) {
			continue
		}
		if isHoliday(holidays, year, date.Month(), date.Day()) {
			continue
		}
		count++
	}
	return count, nil
}

func IsWeekend(date time.Time) bool {
	wd := date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func isHoliday(holidays []calendar.Holiday, year int, month time.Month, day int) bool {
	for _, h := range holidays {
		if h.Matches(year, month, day) {
			return true
		}
	}
	return false
}

func containsDay(days []int, day int) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}

func toSet(days []int) map[int]struct{} {
	set := make(map[int]struct{}, len(days))
	for _, d := range days {
		set[d] = struct{}{}
	}
	return set
}
