package employee

import "context"

// EmployeeRepository defines data access methods for employees.
type EmployeeRepository interface {
	// GetByID retrieves an employee by ID
	GetByID(ctx context.Context, id string) (Employee, error)

	// GetByEmail retrieves an employee by email for login
	GetByEmail(ctx context.Context, email string) (Employee, error)

	// ListActive retrieves all active employees across companies.
	// Used by the nightly absence-marking job.
	ListActive(ctx context.Context) ([]Employee, error)
}
