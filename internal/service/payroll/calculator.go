package payroll

import (
	"fmt"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/calendar"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/statutory"
	statutoryService "github.com/cmlabs-hris/payroll-engine/internal/service/statutory"
	"github.com/shopspring/decimal"
)

var (
	sixty = decimal.NewFromInt(60)
	half  = decimal.NewFromFloat(0.5)
	one   = decimal.NewFromInt(1)
)

// Input is everything one user's payroll needs, already fetched
type Input struct {
	Employee          employee.Employee
	Period            payroll.Period
	Schedule          schedule.SessionSchedule
	Records           []attendance.Record
	Rules             []payroll.Rule
	Settings          payroll.Settings
	Schemes           []statutory.ContributionScheme
	Brackets          []statutory.TaxBracket
	AnnualWorkingDays int
}

// rates resolved for one user
type rates struct {
	daily         decimal.Decimal
	hourly        decimal.Decimal
	monthlySalary decimal.Decimal
	override      *payroll.Rule
}

// attendance sums over the period
type tally struct {
	days             decimal.Decimal
	hours            decimal.Decimal
	holidayHours     decimal.Decimal
	holidayPay       decimal.Decimal
	lateMinutes      int
	undertimeMinutes int
	overtimeMinutes  int
	deductibleMins   int
}

// Compute turns attendance records, rules and statutory tables into a payroll result.
// It has no side effects; identical input yields an identical result.
func Compute(in Input) (payroll.Result, error) {
	r, err := resolveRates(in)
	if err != nil {
		return payroll.Result{}, err
	}

	t := tallyRecords(in.Records, in.Schedule, in.Settings, r.hourly)
	ppy := in.Period.PeriodsPerYear()

	basicPay := t.days.Mul(r.daily).Round(2)
	overtimeHours := decimal.NewFromInt(int64(t.overtimeMinutes)).Div(sixty)
	overtimePay := decimal.Zero
	if in.Settings.OvertimeEnabled {
		overtimePay = overtimeHours.Mul(r.hourly).Mul(multiplierOr(in.Settings.OvertimeMultiplier)).Round(2)
	}
	holidayPay := t.holidayPay.Round(2)

	// earnings rules see the attendance-based pay only
	earnings := Apply(in.Rules, in.Employee.UserID, basicPay, basicPay.Add(overtimePay).Add(holidayPay), KindEarnings)
	grossPay := basicPay.Add(overtimePay).Add(holidayPay).Add(earnings.Total).Round(2)

	deductions := Apply(in.Rules, in.Employee.UserID, basicPay, grossPay, KindDeductions)

	tardiness := decimal.NewFromInt(int64(t.deductibleMins)).Div(sixty).Mul(r.hourly).Round(2)

	factor := decimal.NewFromInt(12).Div(decimal.NewFromInt(int64(ppy)))
	lines, contributionTotal := statutoryService.Contributions(in.Schemes, r.monthlySalary, factor)

	exempt := exemptEarnings(earnings.Breakdown, in.Settings.ExemptionCaps, ppy)
	taxable := grossPay.
		Sub(contributionTotal).
		Sub(CategoryTotal(deductions.Breakdown, payroll.RuleCategoryContribution)).
		Sub(exempt)
	taxable = decimal.Max(taxable, decimal.Zero).Round(2)
	tax := statutoryService.WithholdingForPeriod(statutoryService.SortBrackets(in.Brackets), taxable, ppy)

	ruleDeductions := deductions.Total.Round(2)
	totalDeductions := tardiness.Add(contributionTotal).Add(tax).Add(ruleDeductions).Round(2)
	netPay := decimal.Max(grossPay.Sub(totalDeductions), decimal.Zero).Round(2)

	applied := make([]payroll.AppliedRule, 0, len(earnings.Breakdown)+len(deductions.Breakdown)+1)
	if r.override != nil {
		applied = append(applied, appliedRule(*r.override, r.daily))
	}
	applied = append(applied, earnings.Breakdown...)
	applied = append(applied, deductions.Breakdown...)

	return payroll.Result{
		UserID:             in.Employee.UserID,
		PayPeriodStart:     in.Period.Start,
		PayPeriodEnd:       in.Period.End,
		DailyRate:          r.daily,
		HourlyRate:         r.hourly,
		DaysWorked:         t.days,
		HoursWorked:        t.hours.Round(2),
		OvertimeHours:      overtimeHours.Round(2),
		LateHours:          decimal.NewFromInt(int64(t.lateMinutes)).Div(sixty).Round(2),
		UndertimeHours:     decimal.NewFromInt(int64(t.undertimeMinutes)).Div(sixty).Round(2),
		HolidayHours:       t.holidayHours.Round(2),
		BasicPay:           basicPay,
		OvertimePay:        overtimePay,
		HolidayPay:         holidayPay,
		Earnings:           earnings.Total.Round(2),
		GrossPay:           grossPay,
		TardinessDeduction: tardiness,
		Contributions:      lines,
		ContributionTotal:  contributionTotal,
		TaxableIncome:      taxable,
		WithholdingTax:     tax,
		RuleDeductions:     ruleDeductions,
		TotalDeductions:    totalDeductions,
		NetPay:             netPay,
		AppliedRules:       applied,
		Status:             payroll.ResultStatusDraft,
	}, nil
}

func resolveRates(in Input) (rates, error) {
	if in.AnnualWorkingDays <= 0 {
		return rates{}, fmt.Errorf("annual working days must be positive, got %d", in.AnnualWorkingDays)
	}
	scheduledHours := decimal.NewFromInt(int64(in.Schedule.ScheduledMinutes())).Div(sixty)
	if !scheduledHours.IsPositive() {
		return rates{}, schedule.ErrInvalidSchedule
	}
	annualDays := decimal.NewFromInt(int64(in.AnnualWorkingDays))
	twelveMonths := decimal.NewFromInt(12)

	var r rates
	if rule, ok := DailyRateOverride(in.Rules, in.Employee.UserID); ok {
		r.override = &rule
		r.daily = rule.Amount.Round(2)
		r.monthlySalary = r.daily.Mul(annualDays).Div(twelveMonths).Round(2)
	} else {
		if in.Employee.GradeID == nil {
			return rates{}, employee.ErrEmployeeHasNoGrade
		}
		if in.Employee.MonthlySalary == nil || !in.Employee.MonthlySalary.IsPositive() {
			return rates{}, employee.ErrEmployeeHasNoSalary
		}
		r.monthlySalary = *in.Employee.MonthlySalary
		r.daily = r.monthlySalary.Mul(twelveMonths).Div(annualDays).Round(2)
	}
	r.hourly = r.daily.Div(scheduledHours).Round(4)
	return r, nil
}

func tallyRecords(records []attendance.Record, sched schedule.SessionSchedule, settings payroll.Settings, hourly decimal.Decimal) tally {
	t := tally{days: decimal.Zero, hours: decimal.Zero, holidayHours: decimal.Zero, holidayPay: decimal.Zero}
	scheduledMinutes := sched.ScheduledMinutes()
	scheduledHours := decimal.NewFromInt(int64(scheduledMinutes)).Div(sixty)

	for _, rec := range records {
		if !rec.Counts() {
			continue
		}
		hours := decimal.NewFromFloat(rec.HoursWorked)
		t.hours = t.hours.Add(hours)
		t.overtimeMinutes += rec.OvertimeMinutes

		switch {
		case rec.HolidayType != nil:
			t.holidayHours = t.holidayHours.Add(hours)
			t.holidayPay = t.holidayPay.Add(hours.Mul(hourly).Mul(holidayMultiplier(settings, *rec.HolidayType)))
		case !rec.IsWorkingDay:
			// rest-day work is credited pro rata, up to one day
			if hours.IsPositive() {
				t.days = t.days.Add(decimal.Min(hours.Div(scheduledHours), one).Round(4))
			}
		default:
			t.days = t.days.Add(dayCredit(rec))
			t.lateMinutes += rec.LateMinutes
			t.undertimeMinutes += rec.UndertimeMinutes
			t.deductibleMins += deductibleMinutes(rec, settings, scheduledMinutes)
		}
	}
	return t
}

func dayCredit(rec attendance.Record) decimal.Decimal {
	switch {
	case rec.IsAbsent || rec.TotalSessions == 0:
		return decimal.Zero
	case rec.IsHalfDay:
		return half
	default:
		return one
	}
}

// deductibleMinutes is the tardiness charged for one working day. A half-day is already
// paid at half credit, so its missing session is not charged again.
func deductibleMinutes(rec attendance.Record, settings payroll.Settings, scheduledMinutes int) int {
	if rec.IsAbsent || rec.TotalSessions == 0 {
		return 0
	}
	minutes := 0
	if settings.LateDeductionEnabled {
		minutes += rec.LateMinutes
	}
	if settings.UndertimeDeductionEnabled {
		minutes += rec.UndertimeMinutes
	}
	if rec.IsHalfDay {
		minutes -= rec.AbsentSessionMinutes
	}
	return min(max(minutes, 0), scheduledMinutes)
}

func holidayMultiplier(settings payroll.Settings, t calendar.HolidayType) decimal.Decimal {
	if t == calendar.HolidayTypeRegular {
		return multiplierOr(settings.RegularHolidayMultiplier)
	}
	return multiplierOr(settings.SpecialHolidayMultiplier)
}

// multiplierOr treats an unset multiplier as straight time
func multiplierOr(m decimal.Decimal) decimal.Decimal {
	if !m.IsPositive() {
		return one
	}
	return m
}

// exemptEarnings sums earnings of tax-exempt categories, each capped at its annual cap
// spread over the periods of a year. A category without a cap is fully taxable.
func exemptEarnings(breakdown []payroll.AppliedRule, caps map[payroll.RuleCategory]decimal.Decimal, periodsPerYear int) decimal.Decimal {
	total := decimal.Zero
	for _, category := range []payroll.RuleCategory{payroll.RuleCategoryThirteenthMonth, payroll.RuleCategoryServiceIncentiveLeave} {
		earned := CategoryTotal(breakdown, category)
		annualCap, ok := caps[category]
		if !ok || !earned.IsPositive() {
			continue
		}
		periodCap := annualCap.Div(decimal.NewFromInt(int64(periodsPerYear)))
		total = total.Add(decimal.Min(earned, periodCap))
	}
	return total.Round(2)
}
