package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/statutory"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type statutoryRepository struct {
	db *database.DB
}

func NewStatutoryRepository(db *database.DB) statutory.StatutoryRepository {
	return &statutoryRepository{db: db}
}

func (r *statutoryRepository) ListActiveSchemes(ctx context.Context) ([]statutory.ContributionScheme, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, code, name, employee_rate, min_salary, max_salary, min_contribution, max_contribution,
			is_active, created_at, updated_at
		FROM contribution_schemes
		WHERE is_active = TRUE
		ORDER BY created_at, code
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list contribution schemes: %w", err)
	}
	defer rows.Close()

	var schemes []statutory.ContributionScheme
	for rows.Next() {
		var s statutory.ContributionScheme
		err := rows.Scan(
			&s.ID, &s.Code, &s.Name, &s.EmployeeRate, &s.MinSalary, &s.MaxSalary, &s.MinContribution, &s.MaxContribution,
			&s.IsActive, &s.CreatedAt, &s.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contribution scheme: %w", err)
		}
		schemes = append(schemes, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contribution schemes: %w", err)
	}

	return schemes, nil
}

func (r *statutoryRepository) ListTaxBrackets(ctx context.Context) ([]statutory.TaxBracket, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT id, min_income, max_income, fixed_amount, rate FROM tax_brackets ORDER BY min_income`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tax brackets: %w", err)
	}
	defer rows.Close()

	var brackets []statutory.TaxBracket
	for rows.Next() {
		var b statutory.TaxBracket
		if err := rows.Scan(&b.ID, &b.Min, &b.Max, &b.FixedAmount, &b.Rate); err != nil {
			return nil, fmt.Errorf("failed to scan tax bracket: %w", err)
		}
		brackets = append(brackets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tax brackets: %w", err)
	}

	return brackets, nil
}

// SeedDefaults inserts schemes and brackets into empty tables. Tables that already hold
// rows are left alone so operator edits survive restarts.
func (r *statutoryRepository) SeedDefaults(ctx context.Context, schemes []statutory.ContributionScheme, brackets []statutory.TaxBracket) (bool, error) {
	seeded := false

	err := WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		var schemeCount, bracketCount int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM contribution_schemes`).Scan(&schemeCount); err != nil {
			return fmt.Errorf("failed to count contribution schemes: %w", err)
		}
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM tax_brackets`).Scan(&bracketCount); err != nil {
			return fmt.Errorf("failed to count tax brackets: %w", err)
		}

		if schemeCount == 0 {
			for _, s := range schemes {
				_, err := tx.Exec(ctx, `
					INSERT INTO contribution_schemes (id, code, name, employee_rate, min_salary, max_salary, min_contribution, max_contribution, is_active)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				`, newID(), s.Code, s.Name, s.EmployeeRate, s.MinSalary, s.MaxSalary, s.MinContribution, s.MaxContribution, s.IsActive)
				if err != nil {
					return fmt.Errorf("failed to seed contribution scheme %s: %w", s.Code, err)
				}
			}
			seeded = seeded || len(schemes) > 0
		}

		if bracketCount == 0 {
			for _, b := range brackets {
				_, err := tx.Exec(ctx, `
					INSERT INTO tax_brackets (id, min_income, max_income, fixed_amount, rate)
					VALUES ($1, $2, $3, $4, $5)
				`, newID(), b.Min, b.Max, b.FixedAmount, b.Rate)
				if err != nil {
					return fmt.Errorf("failed to seed tax bracket %s: %w", b.Min, err)
				}
			}
			seeded = seeded || len(brackets) > 0
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	return seeded, nil
}
