package marketing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ContactFilter narrows contact listings
type ContactFilter struct {
	Search   string
	Tag      string
	OptedOut *bool
	Page     int
	PageSize int
}

// ContactRepository persists contacts
type ContactRepository interface {
	Create(ctx context.Context, c *Contact) error
	Update(ctx context.Context, c *Contact) error
	FindByID(ctx context.Context, id uuid.UUID) (*Contact, error)
	FindByPhone(ctx context.Context, phone string) (*Contact, error)
	FindAll(ctx context.Context, filter ContactFilter) ([]*Contact, int64, error)

	// FindAudience pages through reachable contacts (not opted out) carrying
	// any of the tags; no tags means everyone. afterID is an exclusive cursor.
	FindAudience(ctx context.Context, tags []string, afterID uuid.UUID, limit int) ([]*Contact, error)
}

// MessageRepository persists the conversation log
type MessageRepository interface {
	Create(ctx context.Context, m *MessageLog) error

	// CreateInbound logs a received message unless one with the same
	// provider message ID is already stored. It reports whether a row was
	// written.
	CreateInbound(ctx context.Context, m *MessageLog) (bool, error)
	Recent(ctx context.Context, contactID uuid.UUID, limit int) ([]*MessageLog, error)
}

// CampaignRepository persists campaigns
type CampaignRepository interface {
	Create(ctx context.Context, c *Campaign) error
	Update(ctx context.Context, c *Campaign) error
	FindByID(ctx context.Context, id uuid.UUID) (*Campaign, error)
	FindAll(ctx context.Context, page, pageSize int) ([]*Campaign, int64, error)
	FindDue(ctx context.Context, now time.Time, limit int) ([]*Campaign, error)

	// ClaimForRun atomically moves a scheduled campaign to running
	ClaimForRun(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	// Touch records progress on a running campaign
	Touch(ctx context.Context, id uuid.UUID, now time.Time) error
	// FailStale marks running campaigns with no progress since cutoff as failed
	FailStale(ctx context.Context, cutoff, now time.Time) (int64, error)
}
