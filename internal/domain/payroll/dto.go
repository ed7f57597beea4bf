package payroll

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/statutory"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== GENERATION DTOs ==========

// GenerateScope enum
type GenerateScope string

const (
	ScopeAll          GenerateScope = "all"
	ScopeUser         GenerateScope = "user"
	ScopeCurrentMonth GenerateScope = "current_month"
)

var GenerateScopeValues = []string{
	string(ScopeAll),
	string(ScopeUser),
	string(ScopeCurrentMonth),
}

type GenerateRequest struct {
	PeriodStart string        `json:"period_start"`
	PeriodEnd   string        `json:"period_end"`
	UserIDs     []string      `json:"user_ids,omitempty"`
	Scope       GenerateScope `json:"scope"`
	ResetStatus bool          `json:"reset_status,omitempty"`

	Period Period `json:"-"`
}

func (r *GenerateRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Scope == "" {
		r.Scope = ScopeAll
	}
	if !validator.IsInSlice(string(r.Scope), GenerateScopeValues) {
		errs = append(errs, validator.ValidationError{Field: "scope", Message: ErrInvalidScope.Error()})
	}

	if r.Scope == ScopeUser && len(r.UserIDs) != 1 {
		errs = append(errs, validator.ValidationError{Field: "user_ids", Message: "exactly one user_id is required for scope user"})
	}
	for _, id := range r.UserIDs {
		if validator.IsEmpty(id) {
			errs = append(errs, validator.ValidationError{Field: "user_ids", Message: "must not contain empty ids"})
			break
		}
	}

	// current_month derives its own bounds
	if r.Scope != ScopeCurrentMonth {
		start, okStart := validator.IsValidDate(r.PeriodStart)
		if !okStart {
			errs = append(errs, validator.ValidationError{Field: "period_start", Message: "period_start is required, format YYYY-MM-DD"})
		}
		end, okEnd := validator.IsValidDate(r.PeriodEnd)
		if !okEnd {
			errs = append(errs, validator.ValidationError{Field: "period_end", Message: "period_end is required, format YYYY-MM-DD"})
		}
		if okStart && okEnd {
			if end.Before(start) {
				errs = append(errs, validator.ValidationError{Field: "period_end", Message: "period_end must not be before period_start"})
			} else if end.Sub(start).Hours()/24 > 31 {
				errs = append(errs, validator.ValidationError{Field: "period_end", Message: "period must not exceed one month"})
			}
			r.Period = NewPeriod(start, end)
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type GenerateError struct {
	UserID string `json:"user_id"`
	Error  string `json:"error"`
}

type SkippedResult struct {
	UserID string `json:"user_id"`
	Reason string `json:"reason"`
}

type GenerateResponse struct {
	Generated   bool             `json:"generated"`
	PeriodStart string           `json:"period_start"`
	PeriodEnd   string           `json:"period_end"`
	Results     []ResultResponse `json:"results"`
	Skipped     []SkippedResult  `json:"skipped"`
	Errors      []GenerateError  `json:"errors"`
}

type PeriodResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (p Period) ToResponse() *PeriodResponse {
	return &PeriodResponse{Start: p.Start.Format("2006-01-02"), End: p.End.Format("2006-01-02")}
}

type ShouldGenerateResponse struct {
	ShouldGenerate bool            `json:"should_generate"`
	Reason         string          `json:"reason"`
	Period         *PeriodResponse `json:"period,omitempty"`
	CutoffType     CutoffType      `json:"cutoff_type,omitempty"`
}

type ListResultsRequest struct {
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`

	Period Period `json:"-"`
}

func (r *ListResultsRequest) Validate() error {
	var errs validator.ValidationErrors

	start, okStart := validator.IsValidDate(r.PeriodStart)
	if !okStart {
		errs = append(errs, validator.ValidationError{Field: "period_start", Message: "period_start is required, format YYYY-MM-DD"})
	}
	end, okEnd := validator.IsValidDate(r.PeriodEnd)
	if !okEnd {
		errs = append(errs, validator.ValidationError{Field: "period_end", Message: "period_end is required, format YYYY-MM-DD"})
	}
	if okStart && okEnd {
		if end.Before(start) {
			errs = append(errs, validator.ValidationError{Field: "period_end", Message: "period_end must not be before period_start"})
		}
		r.Period = NewPeriod(start, end)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ResultResponse struct {
	ID                 string                       `json:"id"`
	UserID             string                       `json:"user_id"`
	PayPeriodStart     string                       `json:"pay_period_start"`
	PayPeriodEnd       string                       `json:"pay_period_end"`
	DailyRate          decimal.Decimal              `json:"daily_rate"`
	HourlyRate         decimal.Decimal              `json:"hourly_rate"`
	DaysWorked         decimal.Decimal              `json:"days_worked"`
	HoursWorked        decimal.Decimal              `json:"hours_worked"`
	OvertimeHours      decimal.Decimal              `json:"overtime_hours"`
	LateHours          decimal.Decimal              `json:"late_hours"`
	UndertimeHours     decimal.Decimal              `json:"undertime_hours"`
	HolidayHours       decimal.Decimal              `json:"holiday_hours"`
	BasicPay           decimal.Decimal              `json:"basic_pay"`
	OvertimePay        decimal.Decimal              `json:"overtime_pay"`
	HolidayPay         decimal.Decimal              `json:"holiday_pay"`
	Earnings           decimal.Decimal              `json:"earnings"`
	GrossPay           decimal.Decimal              `json:"gross_pay"`
	TardinessDeduction decimal.Decimal              `json:"tardiness_deduction"`
	Contributions      []statutory.ContributionLine `json:"contributions"`
	ContributionTotal  decimal.Decimal              `json:"contribution_total"`
	TaxableIncome      decimal.Decimal              `json:"taxable_income"`
	WithholdingTax     decimal.Decimal              `json:"withholding_tax"`
	RuleDeductions     decimal.Decimal              `json:"rule_deductions"`
	TotalDeductions    decimal.Decimal              `json:"total_deductions"`
	NetPay             decimal.Decimal              `json:"net_pay"`
	AppliedRules       []AppliedRule                `json:"applied_rules"`
	Status             ResultStatus                 `json:"status"`
	IsApproved         bool                         `json:"is_approved"`
	IsPaid             bool                         `json:"is_paid"`
	UpdatedAt          string                       `json:"updated_at"`
}

func (r Result) ToResponse() ResultResponse {
	return ResultResponse{
		ID:                 r.ID,
		UserID:             r.UserID,
		PayPeriodStart:     r.PayPeriodStart.Format("2006-01-02"),
		PayPeriodEnd:       r.PayPeriodEnd.Format("2006-01-02"),
		DailyRate:          r.DailyRate,
		HourlyRate:         r.HourlyRate,
		DaysWorked:         r.DaysWorked,
		HoursWorked:        r.HoursWorked,
		OvertimeHours:      r.OvertimeHours,
		LateHours:          r.LateHours,
		UndertimeHours:     r.UndertimeHours,
		HolidayHours:       r.HolidayHours,
		BasicPay:           r.BasicPay,
		OvertimePay:        r.OvertimePay,
		HolidayPay:         r.HolidayPay,
		Earnings:           r.Earnings,
		GrossPay:           r.GrossPay,
		TardinessDeduction: r.TardinessDeduction,
		Contributions:      r.Contributions,
		ContributionTotal:  r.ContributionTotal,
		TaxableIncome:      r.TaxableIncome,
		WithholdingTax:     r.WithholdingTax,
		RuleDeductions:     r.RuleDeductions,
		TotalDeductions:    r.TotalDeductions,
		NetPay:             r.NetPay,
		AppliedRules:       r.AppliedRules,
		Status:             r.Status,
		IsApproved:         r.IsApproved,
		IsPaid:             r.IsPaid,
		UpdatedAt:          r.UpdatedAt.Format(time.RFC3339),
	}
}

// ========== SCHEDULE DTOs ==========

type CreateScheduleRequest struct {
	Name              string     `json:"name"`
	CutoffType        CutoffType `json:"cutoff_type"`
	Days              []int      `json:"days"`
	CutoffDays        []int      `json:"cutoff_days"`
	ProcessingDays    []int      `json:"processing_days"`
	PayrollReleaseDay *int       `json:"payroll_release_day,omitempty"`
	Activate          bool       `json:"activate"`
}

func (r *CreateScheduleRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "name is required"})
	}
	if !validator.IsInSlice(string(r.CutoffType), CutoffTypeValues) {
		errs = append(errs, validator.ValidationError{Field: "cutoff_type", Message: ErrInvalidCutoffType.Error()})
	}
	for _, d := range append(append(append([]int{}, r.Days...), r.CutoffDays...), r.ProcessingDays...) {
		if d < 1 || d > 31 {
			errs = append(errs, validator.ValidationError{Field: "days", Message: "day values must be between 1 and 31"})
			break
		}
	}
	if r.PayrollReleaseDay != nil && (*r.PayrollReleaseDay < 1 || *r.PayrollReleaseDay > 31) {
		errs = append(errs, validator.ValidationError{Field: "payroll_release_day", Message: "must be between 1 and 31"})
	}

	if r.CutoffType == CutoffTypeBiMonthly && len(r.ProcessingDays) > 0 {
		first := r.ProcessingDays[0]
		if first < 16 {
			errs = append(errs, validator.ValidationError{Field: "processing_days", Message: "first processing day must fall after the 15th"})
		}
		if len(r.ProcessingDays) > 1 && r.ProcessingDays[1] >= first {
			errs = append(errs, validator.ValidationError{Field: "processing_days", Message: "second processing day must come before the first"})
		}
	}
	if r.CutoffType == CutoffTypeMonthly && r.PayrollReleaseDay == nil && len(r.ProcessingDays) == 0 {
		errs = append(errs, validator.ValidationError{Field: "payroll_release_day", Message: "monthly schedules need a release day"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ScheduleResponse struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	CutoffType        CutoffType `json:"cutoff_type"`
	Days              []int      `json:"days"`
	CutoffDays        []int      `json:"cutoff_days"`
	ProcessingDays    []int      `json:"processing_days"`
	PayrollReleaseDay *int       `json:"payroll_release_day"`
	IsActive          bool       `json:"is_active"`
	UpdatedAt         string     `json:"updated_at"`
}

func (s Schedule) ToResponse() ScheduleResponse {
	return ScheduleResponse{
		ID:                s.ID,
		Name:              s.Name,
		CutoffType:        s.CutoffType,
		Days:              s.Days,
		CutoffDays:        s.CutoffDays,
		ProcessingDays:    s.ProcessingDays,
		PayrollReleaseDay: s.PayrollReleaseDay,
		IsActive:          s.IsActive,
		UpdatedAt:         s.UpdatedAt.Format(time.RFC3339),
	}
}

// ========== RULE DTOs ==========

type CreateRuleRequest struct {
	Name             string           `json:"name"`
	Type             RuleType         `json:"type"`
	Category         RuleCategory     `json:"category"`
	Amount           decimal.Decimal  `json:"amount"`
	IsPercentage     bool             `json:"is_percentage"`
	ComputationBasis ComputationBasis `json:"computation_basis,omitempty"`
	ApplyToAll       bool             `json:"apply_to_all"`
	AssignedUserIDs  []string         `json:"assigned_user_ids,omitempty"`
	MinAmount        *decimal.Decimal `json:"min_amount,omitempty"`
	MaxAmount        *decimal.Decimal `json:"max_amount,omitempty"`
}

func (r *CreateRuleRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "name is required"})
	}
	if !validator.IsInSlice(string(r.Type), RuleTypeValues) {
		errs = append(errs, validator.ValidationError{Field: "type", Message: "type must be deduction, bonus, allowance, additional or daily_rate"})
	}

	if r.Category == "" {
		r.Category = RuleCategoryGeneral
	}
	if !validator.IsInSlice(string(r.Category), RuleCategoryValues) {
		errs = append(errs, validator.ValidationError{Field: "category", Message: "unknown rule category"})
	}

	if r.ComputationBasis == "" {
		r.ComputationBasis = ComputationBasisGross
	}
	if r.ComputationBasis != ComputationBasisGross && r.ComputationBasis != ComputationBasisBasicSalary {
		errs = append(errs, validator.ValidationError{Field: "computation_basis", Message: "computation_basis must be gross or basic_salary"})
	}

	if r.Amount.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "amount", Message: "amount must be non-negative"})
	}
	if r.IsPercentage && r.Amount.GreaterThan(decimal.NewFromInt(100)) {
		errs = append(errs, validator.ValidationError{Field: "amount", Message: "percentage must not exceed 100"})
	}
	if r.Type == RuleTypeDailyRate && r.IsPercentage {
		errs = append(errs, validator.ValidationError{Field: "is_percentage", Message: "daily_rate rules must be fixed amounts"})
	}
	if r.MinAmount != nil && r.MaxAmount != nil && r.MaxAmount.LessThan(*r.MinAmount) {
		errs = append(errs, validator.ValidationError{Field: "max_amount", Message: "max_amount must not be below min_amount"})
	}

	if !r.ApplyToAll && len(r.AssignedUserIDs) == 0 {
		errs = append(errs, validator.ValidationError{Field: "assigned_user_ids", Message: "assign at least one user or set apply_to_all"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type RuleResponse struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Type             RuleType         `json:"type"`
	Category         RuleCategory     `json:"category"`
	Amount           decimal.Decimal  `json:"amount"`
	IsPercentage     bool             `json:"is_percentage"`
	ComputationBasis ComputationBasis `json:"computation_basis"`
	ApplyToAll       bool             `json:"apply_to_all"`
	AssignedUserIDs  []string         `json:"assigned_user_ids"`
	IsActive         bool             `json:"is_active"`
	MinAmount        *decimal.Decimal `json:"min_amount"`
	MaxAmount        *decimal.Decimal `json:"max_amount"`
	CreatedAt        string           `json:"created_at"`
}

func (r Rule) ToResponse() RuleResponse {
	return RuleResponse{
		ID:               r.ID,
		Name:             r.Name,
		Type:             r.Type,
		Category:         r.Category,
		Amount:           r.Amount,
		IsPercentage:     r.IsPercentage,
		ComputationBasis: r.ComputationBasis,
		ApplyToAll:       r.ApplyToAll,
		AssignedUserIDs:  r.AssignedUserIDs,
		IsActive:         r.IsActive,
		MinAmount:        r.MinAmount,
		MaxAmount:        r.MaxAmount,
		CreatedAt:        r.CreatedAt.Format(time.RFC3339),
	}
}
