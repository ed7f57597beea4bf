package statutory

import (
	"sort"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/statutory"
	"github.com/shopspring/decimal"
)

var twelve = decimal.NewFromInt(12)

// Contribution computes the monthly employee share of one scheme. Salaries below the
// scheme minimum pay the flat minimum contribution when one is configured.
func Contribution(scheme statutory.ContributionScheme, monthlySalary decimal.Decimal) decimal.Decimal {
	if !monthlySalary.IsPositive() {
		return decimal.Zero
	}
	if monthlySalary.LessThan(scheme.MinSalary) && scheme.MinContribution != nil {
		return scheme.MinContribution.Round(2)
	}

	base := decimal.Max(monthlySalary, scheme.MinSalary)
	if scheme.MaxSalary != nil {
		base = decimal.Min(base, *scheme.MaxSalary)
	}

	amount := base.Mul(scheme.EmployeeRate)
	if scheme.MinContribution != nil {
		amount = decimal.Max(amount, *scheme.MinContribution)
	}
	if scheme.MaxContribution != nil {
		amount = decimal.Min(amount, *scheme.MaxContribution)
	}
	return amount.Round(2)
}

// Contributions charges every active scheme on the monthly salary and scales each amount
// by factor, the share of a month the pay period represents.
func Contributions(schemes []statutory.ContributionScheme, monthlySalary, factor decimal.Decimal) ([]statutory.ContributionLine, decimal.Decimal) {
	lines := make([]statutory.ContributionLine, 0, len(schemes))
	total := decimal.Zero
	for _, s := range schemes {
		if !s.IsActive {
			continue
		}
		amount := Contribution(s, monthlySalary).Mul(factor).Round(2)
		lines = append(lines, statutory.ContributionLine{Code: s.Code, Name: s.Name, Amount: amount})
		total = total.Add(amount)
	}
	return lines, total
}

// AnnualTax applies the bracket containing annualIncome. Income at or below zero, or
// outside every bracket, is not taxed.
func AnnualTax(brackets []statutory.TaxBracket, annualIncome decimal.Decimal) decimal.Decimal {
	if !annualIncome.IsPositive() {
		return decimal.Zero
	}
	for _, b := range brackets {
		if b.Contains(annualIncome) {
			return b.FixedAmount.Add(annualIncome.Sub(b.Min).Mul(b.Rate))
		}
	}
	return decimal.Zero
}

// MonthlyTax is the annual tax spread over twelve months
func MonthlyTax(brackets []statutory.TaxBracket, annualIncome decimal.Decimal) decimal.Decimal {
	return AnnualTax(brackets, annualIncome).Div(twelve)
}

// WithholdingForPeriod annualizes the taxable income of one pay period and returns the
// share of the annual tax due in that period.
func WithholdingForPeriod(brackets []statutory.TaxBracket, periodTaxable decimal.Decimal, periodsPerYear int) decimal.Decimal {
	if periodsPerYear <= 0 || !periodTaxable.IsPositive() {
		return decimal.Zero
	}
	ppy := decimal.NewFromInt(int64(periodsPerYear))
	monthly := MonthlyTax(brackets, periodTaxable.Mul(ppy))
	return monthly.Mul(twelve).Div(ppy).Round(2)
}

// SortBrackets orders brackets by lower bound
func SortBrackets(brackets []statutory.TaxBracket) []statutory.TaxBracket {
	sorted := make([]statutory.TaxBracket, len(brackets))
	copy(sorted, brackets)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Min.LessThan(sorted[j].Min) })
	return sorted
}

// ValidateBrackets checks that sorted brackets are contiguous and the last one is open ended.
func ValidateBrackets(brackets []statutory.TaxBracket) error {
	if len(brackets) == 0 {
		return nil
	}
	for i := 0; i < len(brackets)-1; i++ {
		if brackets[i].Max == nil || !brackets[i].Max.Equal(brackets[i+1].Min) {
			return statutory.ErrBracketsUnordered
		}
	}
	if brackets[len(brackets)-1].Max != nil {
		return statutory.ErrBracketsNotOpenEnd
	}
	return nil
}

// ValidateScheme checks that the salary and contribution bounds of a scheme are ordered.
func ValidateScheme(s statutory.ContributionScheme) error {
	if s.EmployeeRate.IsNegative() || s.EmployeeRate.GreaterThan(decimal.NewFromInt(1)) {
		return statutory.ErrInvalidContribution
	}
	if s.MaxSalary != nil && s.MaxSalary.LessThan(s.MinSalary) {
		return statutory.ErrInvalidContribution
	}
	if s.MinContribution != nil && s.MaxContribution != nil && s.MaxContribution.LessThan(*s.MinContribution) {
		return statutory.ErrInvalidContribution
	}
	return nil
}
