package statutory

import (
	"time"

	"github.com/shopspring/decimal"
)

// ContributionScheme - a government-directed employee contribution (retirement, health, housing fund)
type ContributionScheme struct {
	ID              string
	Code            string
	Name            string
	EmployeeRate    decimal.Decimal
	MinSalary       decimal.Decimal
	MaxSalary       *decimal.Decimal
	MinContribution *decimal.Decimal
	MaxContribution *decimal.Decimal
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TaxBracket - one band of the annual withholding table. A nil Max is unbounded.
type TaxBracket struct {
	ID          string
	Min         decimal.Decimal
	Max         *decimal.Decimal
	FixedAmount decimal.Decimal
	Rate        decimal.Decimal
}

// Contains reports whether income falls in (Min, Max]
func (b TaxBracket) Contains(income decimal.Decimal) bool {
	if !income.GreaterThan(b.Min) {
		return false
	}
	return b.Max == nil || income.LessThanOrEqual(*b.Max)
}

// ContributionLine - the amount charged for one scheme in one pay period
type ContributionLine struct {
	Code   string          `json:"code"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}
