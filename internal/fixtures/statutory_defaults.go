package fixtures

import (
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/statutory"
	"github.com/shopspring/decimal"
)

// ==========================================
// HELPER FUNCTIONS
// ==========================================

func intPtr(i int) *int { return &i }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// ==========================================
// DEFAULT CONTRIBUTION SCHEMES
// ==========================================

// GetDefaultContributionSchemes returns the employee shares of the three mandatory funds
func GetDefaultContributionSchemes() []statutory.ContributionScheme {
	return []statutory.ContributionScheme{
		// Retirement fund, 9% of basic monthly salary, no ceiling
		{
			Code:         "GSIS",
			Name:         "GSIS Personal Share",
			EmployeeRate: dec("0.09"),
			MinSalary:    decimal.Zero,
			IsActive:     true,
		},
		// Health insurance, 5% premium split evenly, salary floor 10,000 and ceiling 100,000
		{
			Code:            "PHILHEALTH",
			Name:            "PhilHealth Employee Share",
			EmployeeRate:    dec("0.025"),
			MinSalary:       dec("10000"),
			MaxSalary:       decPtr("100000"),
			MinContribution: decPtr("250"),
			MaxContribution: decPtr("2500"),
			IsActive:        true,
		},
		// Housing fund, 2% on a salary base capped at 10,000
		{
			Code:            "PAGIBIG",
			Name:            "Pag-IBIG Employee Share",
			EmployeeRate:    dec("0.02"),
			MinSalary:       decimal.Zero,
			MaxSalary:       decPtr("10000"),
			MaxContribution: decPtr("200"),
			IsActive:        true,
		},
	}
}

// ==========================================
// DEFAULT TAX TABLE
// ==========================================

// GetDefaultTaxBrackets returns the annual withholding table effective 2023
func GetDefaultTaxBrackets() []statutory.TaxBracket {
	return []statutory.TaxBracket{
		{Min: dec("0"), Max: decPtr("250000"), FixedAmount: dec("0"), Rate: dec("0")},
		{Min: dec("250000"), Max: decPtr("400000"), FixedAmount: dec("0"), Rate: dec("0.15")},
		{Min: dec("400000"), Max: decPtr("800000"), FixedAmount: dec("22500"), Rate: dec("0.20")},
		{Min: dec("800000"), Max: decPtr("2000000"), FixedAmount: dec("102500"), Rate: dec("0.25")},
		{Min: dec("2000000"), Max: decPtr("8000000"), FixedAmount: dec("402500"), Rate: dec("0.30")},
		{Min: dec("8000000"), Max: nil, FixedAmount: dec("2202500"), Rate: dec("0.35")},
	}
}

// ==========================================
// DEFAULT PAYROLL SETTINGS
// ==========================================

// GetDefaultPayrollSettings is used while no settings row exists
func GetDefaultPayrollSettings() payroll.Settings {
	return payroll.Settings{
		LateDeductionEnabled:      true,
		UndertimeDeductionEnabled: true,
		OvertimeEnabled:           true,
		OvertimeMultiplier:        dec("1.25"),
		RegularHolidayMultiplier:  dec("2.00"),
		SpecialHolidayMultiplier:  dec("1.30"),
		ExemptionCaps: map[payroll.RuleCategory]decimal.Decimal{
			payroll.RuleCategoryThirteenthMonth:       dec("90000"),
			payroll.RuleCategoryServiceIncentiveLeave: dec("90000"),
		},
	}
}

// ==========================================
// DEFAULT PAYROLL SCHEDULE
// ==========================================

// GetDefaultPayrollSchedule returns the twice-monthly schedule: the 1st-15th is processed
// on the 20th and the 16th-end on the 5th of the following month.
func GetDefaultPayrollSchedule() payroll.Schedule {
	return payroll.Schedule{
		Name:              "Semi-monthly",
		CutoffType:        payroll.CutoffTypeBiMonthly,
		Days:              []int{15, 30},
		CutoffDays:        []int{15, 31},
		ProcessingDays:    []int{20, 5},
		PayrollReleaseDay: intPtr(20),
		IsActive:          true,
	}
}
