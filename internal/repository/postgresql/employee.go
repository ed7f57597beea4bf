package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

const employeeSelect = `
	SELECT e.id, e.user_id, e.full_name, e.employee_type, e.grade_id, g.name, g.monthly_salary,
		e.employment_status, e.created_at, e.updated_at
	FROM employees e
	LEFT JOIN salary_grades g ON g.id = e.grade_id
`

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var emp employee.Employee
	err := row.Scan(
		&emp.ID, &emp.UserID, &emp.FullName, &emp.EmployeeType, &emp.GradeID, &emp.GradeName, &emp.MonthlySalary,
		&emp.EmploymentStatus, &emp.CreatedAt, &emp.UpdatedAt,
	)
	return emp, err
}

// GetByUserID implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByUserID(ctx context.Context, userID string) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	emp, err := scanEmployee(q.QueryRow(ctx, employeeSelect+` WHERE e.user_id = $1`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee for user %s: %w", userID, err)
	}

	return emp, nil
}

// ListByUserIDs implements employee.EmployeeRepository. Unknown ids are ignored.
func (e *employeeRepositoryImpl) ListByUserIDs(ctx context.Context, userIDs []string) ([]employee.Employee, error) {
	return e.list(ctx, employeeSelect+` WHERE e.user_id = ANY($1) ORDER BY e.user_id`, userIDs)
}

// ListActive implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) ListActive(ctx context.Context) ([]employee.Employee, error) {
	return e.list(ctx, employeeSelect+` WHERE e.employment_status = $1 ORDER BY e.user_id`, employee.EmploymentStatusActive)
}

func (e *employeeRepositoryImpl) list(ctx context.Context, query string, args ...interface{}) ([]employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate employees: %w", err)
	}

	return employees, nil
}
