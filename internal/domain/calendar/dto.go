package calendar

import (
	"sort"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
)

type WorkingDaysResponse struct {
	Year               int   `json:"year"`
	Month              int   `json:"month"`
	TotalDays          int   `json:"total_days"`
	Weekends           []int `json:"weekends"`
	Holidays           []int `json:"holidays"`
	NoWorkDays         []int `json:"no_work_days"`
	WorkingWeekendDays []int `json:"working_weekend_days"`
	WorkingDays        []int `json:"working_days"`
	WorkingDaysCount   int   `json:"working_days_count"`
}

type SaveOverrideRequest struct {
	Year               int   `json:"year"`
	Month              int   `json:"month"`
	NoWorkDays         []int `json:"no_work_days"`
	WorkingWeekendDays []int `json:"working_weekend_days"`
}

func (r *SaveOverrideRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidYear(r.Year) {
		errs = append(errs, validator.ValidationError{Field: "year", Message: "must be between 1900 and 9999"})
	}
	if r.Month < 1 || r.Month > 12 {
		errs = append(errs, validator.ValidationError{Field: "month", Message: "must be between 1 and 12"})
	}
	if len(errs) > 0 {
		return errs
	}

	daysInMonth := validator.DaysInMonth(r.Year, time.Month(r.Month))
	for _, d := range r.NoWorkDays {
		if d < 1 || d > daysInMonth {
			errs = append(errs, validator.ValidationError{Field: "no_work_days", Message: "contains a day outside the month"})
			break
		}
	}
	for _, d := range r.WorkingWeekendDays {
		if d < 1 || d > daysInMonth {
			errs = append(errs, validator.ValidationError{Field: "working_weekend_days", Message: "contains a day outside the month"})
			break
		}
		wd := time.Date(r.Year, time.Month(r.Month), d, 0, 0, 0, 0, time.UTC).Weekday()
		if wd != time.Saturday && wd != time.Sunday {
			errs = append(errs, validator.ValidationError{Field: "working_weekend_days", Message: "may only contain Saturdays and Sundays"})
			break
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Normalize sorts and de-duplicates both day sets
func (r *SaveOverrideRequest) Normalize() {
	r.NoWorkDays = uniqueSorted(r.NoWorkDays)
	r.WorkingWeekendDays = uniqueSorted(r.WorkingWeekendDays)
}

type OverrideResponse struct {
	Year               int    `json:"year"`
	Month              int    `json:"month"`
	NoWorkDays         []int  `json:"no_work_days"`
	WorkingWeekendDays []int  `json:"working_weekend_days"`
	UpdatedAt          string `json:"updated_at"`
}

func uniqueSorted(days []int) []int {
	seen := make(map[int]struct{}, len(days))
	out := make([]int, 0, len(days))
	for _, d := range days {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Ints(out)
	return out
}
