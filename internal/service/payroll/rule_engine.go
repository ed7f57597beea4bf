package payroll

import (
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

// RuleKind selects which rule types an evaluation covers
type RuleKind string

const (
	KindEarnings   RuleKind = "earnings"
	KindDeductions RuleKind = "deductions"
)

var hundred = decimal.NewFromInt(100)

func (k RuleKind) includes(t payroll.RuleType) bool {
	switch k {
	case KindEarnings:
		return t == payroll.RuleTypeBonus || t == payroll.RuleTypeAllowance || t == payroll.RuleTypeAdditional
	case KindDeductions:
		return t == payroll.RuleTypeDeduction
	}
	return false
}

// RuleOutcome is the evaluated total of one kind and the per-rule breakdown
type RuleOutcome struct {
	Total     decimal.Decimal
	Breakdown []payroll.AppliedRule
}

// Apply evaluates the active rules of kind that target userID. Percentages are taken of
// base for basic_salary rules and of gross otherwise; min and max clamp the result.
func Apply(rules []payroll.Rule, userID string, base, gross decimal.Decimal, kind RuleKind) RuleOutcome {
	outcome := RuleOutcome{Total: decimal.Zero, Breakdown: []payroll.AppliedRule{}}

	for _, r := range rules {
		if !r.IsActive || !kind.includes(r.Type) || !r.AppliesTo(userID) {
			continue
		}

		amount := ruleAmount(r, base, gross)
		outcome.Total = outcome.Total.Add(amount)
		outcome.Breakdown = append(outcome.Breakdown, appliedRule(r, amount))
	}

	return outcome
}

func ruleAmount(r payroll.Rule, base, gross decimal.Decimal) decimal.Decimal {
	amount := r.Amount
	if r.IsPercentage {
		basis := gross
		if r.ComputationBasis == payroll.ComputationBasisBasicSalary {
			basis = base
		}
		amount = basis.Mul(r.Amount).Div(hundred)
	}
	if r.MinAmount != nil {
		amount = decimal.Max(amount, *r.MinAmount)
	}
	if r.MaxAmount != nil {
		amount = decimal.Min(amount, *r.MaxAmount)
	}
	return amount.Round(2)
}

func appliedRule(r payroll.Rule, amount decimal.Decimal) payroll.AppliedRule {
	basis := r.ComputationBasis
	if basis == "" && r.IsPercentage {
		basis = payroll.ComputationBasisGross
	}
	return payroll.AppliedRule{
		RuleID:           r.ID,
		Name:             r.Name,
		Type:             r.Type,
		Category:         r.Category,
		IsPercentage:     r.IsPercentage,
		Rate:             r.Amount,
		ComputationBasis: basis,
		Amount:           amount,
	}
}

// DailyRateOverride finds the daily_rate rule for userID. A rule assigned to the user
// wins over an apply-to-all rule; ties go to the earlier rule.
func DailyRateOverride(rules []payroll.Rule, userID string) (payroll.Rule, bool) {
	var fallback *payroll.Rule
	for i, r := range rules {
		if !r.IsActive || r.Type != payroll.RuleTypeDailyRate {
			continue
		}
		if !r.ApplyToAll && r.AppliesTo(userID) {
			return r, true
		}
		if r.ApplyToAll && fallback == nil {
			fallback = &rules[i]
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return payroll.Rule{}, false
}

// CategoryTotal sums the breakdown entries of one category
func CategoryTotal(breakdown []payroll.AppliedRule, category payroll.RuleCategory) decimal.Decimal {
	total := decimal.Zero
	for _, b := range breakdown {
		if b.Category == category {
			total = total.Add(b.Amount)
		}
	}
	return total
}
