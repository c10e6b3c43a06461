package event

import (
	"context"

	"github.com/d2bcart/backend/internal/domain/shared"
)

// HandlerFunc adapts a function to an EventHandler
type HandlerFunc struct {
	types []string
	fn    func(ctx context.Context, event shared.DomainEvent) error
}

// NewHandlerFunc creates a handler for the given event types
func NewHandlerFunc(fn func(ctx context.Context, event shared.DomainEvent) error, eventTypes ...string) *HandlerFunc {
	return &HandlerFunc{types: eventTypes, fn: fn}
}

func (h *HandlerFunc) Handle(ctx context.Context, event shared.DomainEvent) error {
	return h.fn(ctx, event)
}

func (h *HandlerFunc) EventTypes() []string {
	return h.types
}

var _ shared.EventHandler = (*HandlerFunc)(nil)
