package identity

import (
	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/google/uuid"
)

const (
	AggregateTypeUser = "User"

	EventTypeUserRegistered = "UserRegistered"
	EventTypeUserVerified   = "UserVerified"
)

// UserRegisteredEvent is raised when a new account signs up
type UserRegisteredEvent struct {
	shared.BaseDomainEvent
	UserID uuid.UUID `json:"user_id"`
	Role   Role      `json:"role"`
	Phone  string    `json:"phone"`
	Name   string    `json:"name"`
}

// NewUserRegisteredEvent creates a UserRegisteredEvent
func NewUserRegisteredEvent(u *User) *UserRegisteredEvent {
	return &UserRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserRegistered, AggregateTypeUser, u.ID),
		UserID:          u.ID,
		Role:            u.Role,
		Phone:           u.Phone,
		Name:            u.Name,
	}
}

// UserVerifiedEvent is raised when an admin approves a manufacturer
type UserVerifiedEvent struct {
	shared.BaseDomainEvent
	UserID uuid.UUID `json:"user_id"`
	Phone  string    `json:"phone"`
}

// NewUserVerifiedEvent creates a UserVerifiedEvent
func NewUserVerifiedEvent(u *User) *UserVerifiedEvent {
	return &UserVerifiedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserVerified, AggregateTypeUser, u.ID),
		UserID:          u.ID,
		Phone:           u.Phone,
	}
}
