package employee

import "context"

type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (Employee, error)
	GetByUserID(ctx context.Context, userID string) (Employee, error)
	GetActiveByCompanyID(ctx context.Context, companyID string) ([]Employee, error)
	// ListReviewerUserIDs returns the user ids of managers and owners of a company.
	ListReviewerUserIDs(ctx context.Context, companyID string) ([]string, error)
}
