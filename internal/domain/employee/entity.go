package employee

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/schedule"
	"github.com/shopspring/decimal"
)

// Employee - the payroll view of a staff member. Salary comes from the assigned grade.
type Employee struct {
	ID               string
	UserID           string
	FullName         string
	EmployeeType     schedule.EmployeeType
	GradeID          *string
	GradeName        *string
	MonthlySalary    *decimal.Decimal
	EmploymentStatus EmploymentStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsPayable reports whether the employee takes part in batch generation
func (e Employee) IsPayable() bool {
	return e.EmploymentStatus == EmploymentStatusActive
}

type EmploymentStatus string

const (
	EmploymentStatusActive     EmploymentStatus = "active"
	EmploymentStatusInactive   EmploymentStatus = "inactive"
	EmploymentStatusResigned   EmploymentStatus = "resigned"
	EmploymentStatusTerminated EmploymentStatus = "terminated"
)
