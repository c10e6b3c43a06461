package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// Create inserts a new user
	Create(ctx context.Context, user *User) error

	// Update saves changes to an existing user
	Update(ctx context.Context, user *User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByEmail finds a user by lower-cased email
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByPhone finds a user by E.164 phone
	FindByPhone(ctx context.Context, phone string) (*User, error)

	// FindByIDs loads several users at once, skipping unknown IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*User, error)

	// FindAll returns users matching the filter with the total count
	FindAll(ctx context.Context, filter UserFilter) ([]*User, int64, error)

	// ExistsByEmail checks if an email is taken
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// ExistsByPhone checks if a phone is taken
	ExistsByPhone(ctx context.Context, phone string) (bool, error)

	// CountByRole returns user counts keyed by role
	CountByRole(ctx context.Context) (map[Role]int64, error)

	// CountPendingManufacturers returns manufacturers awaiting verification
	CountPendingManufacturers(ctx context.Context) (int64, error)
}

// UserFilter contains filter options for querying users
type UserFilter struct {
	Keyword    string
	Role       *Role
	IsVerified *bool
	IsActive   *bool
	Page       int
	PageSize   int
}
