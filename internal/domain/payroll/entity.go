package payroll

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/statutory"
	"github.com/shopspring/decimal"
)

// CutoffType enum
type CutoffType string

const (
	CutoffTypeMonthly   CutoffType = "monthly"
	CutoffTypeBiMonthly CutoffType = "bi-monthly"
	CutoffTypeWeekly    CutoffType = "weekly"
)

var CutoffTypeValues = []string{
	string(CutoffTypeMonthly),
	string(CutoffTypeBiMonthly),
	string(CutoffTypeWeekly),
}

// Schedule - payroll calendar configuration. At most one row is active.
type Schedule struct {
	ID                string
	Name              string
	CutoffType        CutoffType
	Days              []int
	CutoffDays        []int
	ProcessingDays    []int
	PayrollReleaseDay *int
	IsActive          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// RuleType enum
type RuleType string

const (
	RuleTypeDeduction  RuleType = "deduction"
	RuleTypeBonus      RuleType = "bonus"
	RuleTypeAllowance  RuleType = "allowance"
	RuleTypeAdditional RuleType = "additional"
	RuleTypeDailyRate  RuleType = "daily_rate"
)

var RuleTypeValues = []string{
	string(RuleTypeDeduction),
	string(RuleTypeBonus),
	string(RuleTypeAllowance),
	string(RuleTypeAdditional),
	string(RuleTypeDailyRate),
}

// RuleCategory enum, chosen when the rule is created
type RuleCategory string

const (
	RuleCategoryGeneral               RuleCategory = "general"
	RuleCategoryContribution          RuleCategory = "contribution"
	RuleCategoryThirteenthMonth       RuleCategory = "thirteenth_month"
	RuleCategoryServiceIncentiveLeave RuleCategory = "service_incentive_leave"
	RuleCategoryLoan                  RuleCategory = "loan"
)

var RuleCategoryValues = []string{
	string(RuleCategoryGeneral),
	string(RuleCategoryContribution),
	string(RuleCategoryThirteenthMonth),
	string(RuleCategoryServiceIncentiveLeave),
	string(RuleCategoryLoan),
}

// IsTaxExempt reports categories whose earnings are exempt up to a configured cap
func (c RuleCategory) IsTaxExempt() bool {
	return c == RuleCategoryThirteenthMonth || c == RuleCategoryServiceIncentiveLeave
}

// ComputationBasis enum
type ComputationBasis string

const (
	ComputationBasisGross       ComputationBasis = "gross"
	ComputationBasisBasicSalary ComputationBasis = "basic_salary"
)

// Rule - a configured earning or deduction
type Rule struct {
	ID               string
	Name             string
	Type             RuleType
	Category         RuleCategory
	Amount           decimal.Decimal
	IsPercentage     bool
	ComputationBasis ComputationBasis
	ApplyToAll       bool
	AssignedUserIDs  []string
	IsActive         bool
	MinAmount        *decimal.Decimal
	MaxAmount        *decimal.Decimal
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// AppliesTo reports whether the rule targets userID
func (r Rule) AppliesTo(userID string) bool {
	if r.ApplyToAll {
		return true
	}
	for _, id := range r.AssignedUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Settings - institution-wide payroll policy, single row
type Settings struct {
	LateDeductionEnabled      bool
	UndertimeDeductionEnabled bool
	OvertimeEnabled           bool
	OvertimeMultiplier        decimal.Decimal
	RegularHolidayMultiplier  decimal.Decimal
	SpecialHolidayMultiplier  decimal.Decimal

	// Annual exemption caps per category
	ExemptionCaps map[RuleCategory]decimal.Decimal
	UpdatedAt     time.Time
}

// Period - inclusive pay period
type Period struct {
	Start time.Time
	End   time.Time
}

func NewPeriod(start, end time.Time) Period {
	return Period{Start: dateOnly(start), End: dateOnly(end)}
}

// Days is the inclusive length of the period
func (p Period) Days() int {
	return int(p.End.Sub(p.Start).Hours()/24) + 1
}

// PeriodsPerYear infers how many periods of this length make a year
func (p Period) PeriodsPerYear() int {
	switch days := p.Days(); {
	case days <= 7:
		return 52
	case days <= 16:
		return 24
	default:
		return 12
	}
}

func (p Period) String() string {
	return fmt.Sprintf("%s..%s", p.Start.Format("2006-01-02"), p.End.Format("2006-01-02"))
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AppliedRule - frozen evaluation of one rule, stored with the result
type AppliedRule struct {
	RuleID           string           `json:"rule_id"`
	Name             string           `json:"name"`
	Type             RuleType         `json:"type"`
	Category         RuleCategory     `json:"category"`
	IsPercentage     bool             `json:"is_percentage"`
	Rate             decimal.Decimal  `json:"rate"`
	ComputationBasis ComputationBasis `json:"computation_basis,omitempty"`
	Amount           decimal.Decimal  `json:"amount"`
}

// ResultStatus enum, owned by the approval workflow
type ResultStatus string

const (
	ResultStatusDraft    ResultStatus = "draft"
	ResultStatusApproved ResultStatus = "approved"
	ResultStatusPaid     ResultStatus = "paid"
)

// Result - one computed payroll per user and pay period
type Result struct {
	ID             string
	UserID         string
	PayPeriodStart time.Time
	PayPeriodEnd   time.Time

	DailyRate      decimal.Decimal
	HourlyRate     decimal.Decimal
	DaysWorked     decimal.Decimal
	HoursWorked    decimal.Decimal
	OvertimeHours  decimal.Decimal
	LateHours      decimal.Decimal
	UndertimeHours decimal.Decimal
	HolidayHours   decimal.Decimal

	BasicPay           decimal.Decimal
	OvertimePay        decimal.Decimal
	HolidayPay         decimal.Decimal
	Earnings           decimal.Decimal
	GrossPay           decimal.Decimal
	TardinessDeduction decimal.Decimal
	Contributions      []statutory.ContributionLine
	ContributionTotal  decimal.Decimal
	TaxableIncome      decimal.Decimal
	WithholdingTax     decimal.Decimal
	RuleDeductions     decimal.Decimal
	TotalDeductions    decimal.Decimal
	NetPay             decimal.Decimal
	AppliedRules       []AppliedRule

	Status     ResultStatus
	IsApproved bool
	IsPaid     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (r Result) Period() Period {
	return NewPeriod(r.PayPeriodStart, r.PayPeriodEnd)
}
