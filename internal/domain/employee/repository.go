package employee

import "context"

type EmployeeRepository interface {
	GetByUserID(ctx context.Context, userID string) (Employee, error)
	ListByUserIDs(ctx context.Context, userIDs []string) ([]Employee, error)
	ListActive(ctx context.Context) ([]Employee, error)
}
