package payroll

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
)

const (
	defaultFirstProcessingDay  = 20
	defaultSecondProcessingDay = 5
)

// Decision is the outcome of the generation check for one day
type Decision struct {
	ShouldGenerate bool
	Period         *payroll.Period
	Reason         string
}

// PeriodFor returns the pay period that is due relative to today.
//
//	monthly:    the previous calendar month
//	bi-monthly: [1,15] from the first processing day on, [16,end] of the previous month
//	            from the second processing day on, else [1,15] of the previous month
//	weekly:     the last completed Sunday to Saturday week
func PeriodFor(today time.Time, cutoff payroll.CutoffType, processingDays []int) (payroll.Period, error) {
	today = civil(today)
	switch cutoff {
	case payroll.CutoffTypeMonthly:
		return previousMonth(today), nil
	case payroll.CutoffTypeBiMonthly:
		if err := validateBiMonthly(processingDays); err != nil {
			return payroll.Period{}, err
		}
		period, _ := biMonthlyDue(today, processingDays)
		return period, nil
	case payroll.CutoffTypeWeekly:
		return lastCompletedWeek(today), nil
	default:
		return payroll.Period{}, fmt.Errorf("%w: %q", payroll.ErrInvalidCutoffType, cutoff)
	}
}

// Decide reports whether payroll should be generated today for the active schedule.
// A nil schedule or an unusable configuration is a negative decision, never an error.
func Decide(schedule *payroll.Schedule, today time.Time) Decision {
	if schedule == nil {
		return Decision{Reason: "no active payroll schedule"}
	}
	today = civil(today)

	period, err := PeriodFor(today, schedule.CutoffType, schedule.ProcessingDays)
	if err != nil {
		return Decision{Reason: err.Error()}
	}

	switch schedule.CutoffType {
	case payroll.CutoffTypeMonthly:
		releaseDay, ok := monthlyReleaseDay(schedule)
		if !ok {
			return Decision{Period: &period, Reason: "monthly schedule has no release day configured"}
		}
		releaseDay = clampDay(today.Year(), today.Month(), releaseDay)
		if today.Day() != releaseDay {
			return Decision{Period: &period, Reason: fmt.Sprintf("monthly payroll is released on day %d", releaseDay)}
		}
		return Decision{ShouldGenerate: true, Period: &period, Reason: "release day"}

	case payroll.CutoffTypeBiMonthly:
		_, due := biMonthlyDue(today, schedule.ProcessingDays)
		if today.Equal(due) {
			return Decision{ShouldGenerate: true, Period: &period, Reason: "processing day"}
		}
		return Decision{ShouldGenerate: true, Period: &period, Reason: fmt.Sprintf("catch-up, processing day was %s", due.Format("2006-01-02"))}

	default:
		if today.Weekday() != time.Monday {
			return Decision{Period: &period, Reason: "weekly payroll runs on Mondays"}
		}
		return Decision{ShouldGenerate: true, Period: &period, Reason: "processing day"}
	}
}

// CurrentMonth returns the calendar month containing today
func CurrentMonth(today time.Time) payroll.Period {
	today = civil(today)
	start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	return payroll.NewPeriod(start, start.AddDate(0, 1, -1))
}

func previousMonth(today time.Time) payroll.Period {
	start := time.Date(today.Year(), today.Month()-1, 1, 0, 0, 0, 0, time.UTC)
	return payroll.NewPeriod(start, start.AddDate(0, 1, -1))
}

// biMonthlyDue returns the most recent half-month period whose processing day is on or
// before today, and that processing day.
func biMonthlyDue(today time.Time, processingDays []int) (payroll.Period, time.Time) {
	first, second := processingDaysOrDefault(processingDays)
	y, m := today.Year(), today.Month()

	firstDue := time.Date(y, m, clampDay(y, m, first), 0, 0, 0, 0, time.UTC)
	secondDue := time.Date(y, m, second, 0, 0, 0, 0, time.UTC)

	switch {
	case !today.Before(firstDue):
		return firstHalf(y, m), firstDue
	case !today.Before(secondDue):
		return secondHalf(y, m-1), secondDue
	default:
		prev := time.Date(y, m-1, 1, 0, 0, 0, 0, time.UTC)
		py, pm := prev.Year(), prev.Month()
		return firstHalf(py, pm), time.Date(py, pm, clampDay(py, pm, first), 0, 0, 0, 0, time.UTC)
	}
}

func firstHalf(year int, month time.Month) payroll.Period {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return payroll.NewPeriod(start, start.AddDate(0, 0, 14))
}

func secondHalf(year int, month time.Month) payroll.Period {
	start := time.Date(year, month, 16, 0, 0, 0, 0, time.UTC)
	return payroll.NewPeriod(start, time.Date(start.Year(), start.Month()+1, 0, 0, 0, 0, 0, time.UTC))
}

// lastCompletedWeek ends on the Saturday strictly before today
func lastCompletedWeek(today time.Time) payroll.Period {
	back := int(today.Weekday()) + 1
	end := today.AddDate(0, 0, -back)
	return payroll.NewPeriod(end.AddDate(0, 0, -6), end)
}

func processingDaysOrDefault(days []int) (first, second int) {
	first, second = defaultFirstProcessingDay, defaultSecondProcessingDay
	if len(days) > 0 && days[0] > 0 {
		first = days[0]
	}
	if len(days) > 1 && days[1] > 0 {
		second = days[1]
	}
	return first, second
}

func validateBiMonthly(days []int) error {
	first, second := processingDaysOrDefault(days)
	if first < 16 || first > 31 {
		return fmt.Errorf("%w: first processing day %d must fall between the 16th and 31st", payroll.ErrInvalidProcessingDay, first)
	}
	if second < 1 || second >= first || second > 28 {
		return fmt.Errorf("%w: second processing day %d must fall before the first and by the 28th", payroll.ErrInvalidProcessingDay, second)
	}
	return nil
}

func monthlyReleaseDay(schedule *payroll.Schedule) (int, bool) {
	if schedule.PayrollReleaseDay != nil && *schedule.PayrollReleaseDay > 0 {
		return *schedule.PayrollReleaseDay, true
	}
	if len(schedule.ProcessingDays) > 0 && schedule.ProcessingDays[0] > 0 {
		return schedule.ProcessingDays[0], true
	}
	return 0, false
}

func clampDay(year int, month time.Month, day int) int {
	return min(day, validator.DaysInMonth(year, month))
}

func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
