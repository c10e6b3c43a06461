package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists carts, one per retailer
type Repository interface {
	// Get loads the retailer's cart, returning an empty cart when none exists
	Get(ctx context.Context, retailerID uuid.UUID) (*Cart, error)

	// Save replaces the stored cart lines and activity timestamps
	Save(ctx context.Context, c *Cart) error

	// FindIdle returns non-empty carts whose last activity falls in [from, to]
	// and that have not been reminded since that activity
	FindIdle(ctx context.Context, from, to time.Time, limit int) ([]*Cart, error)

	// MarkReminderSent stamps the reminder without touching activity
	MarkReminderSent(ctx context.Context, retailerID uuid.UUID, at time.Time) error
}
