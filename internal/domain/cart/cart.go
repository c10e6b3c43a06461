package cart

import (
	"time"

	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Item is one product line in a cart
type Item struct {
	ProductID uuid.UUID
	Quantity  int
	AddedAt   time.Time
}

// Cart is the server-side cart of a retailer. Quantities are validated against
// the product (MOQ, stock) by the application layer before they reach the cart.
type Cart struct {
	RetailerID     uuid.UUID
	Items          []Item
	LastActivityAt time.Time
	ReminderSentAt *time.Time
	UpdatedAt      time.Time
}

// New creates an empty cart for a retailer
func New(retailerID uuid.UUID) *Cart {
	now := time.Now()
	return &Cart{
		RetailerID:     retailerID,
		Items:          []Item{},
		LastActivityAt: now,
		UpdatedAt:      now,
	}
}

// Find returns the line for a product, if any
func (c *Cart) Find(productID uuid.UUID) (Item, bool) {
	for _, it := range c.Items {
		if it.ProductID == productID {
			return it, true
		}
	}
	return Item{}, false
}

// QuantityOf returns the quantity currently in the cart for a product
func (c *Cart) QuantityOf(productID uuid.UUID) int {
	it, _ := c.Find(productID)
	return it.Quantity
}

// Set puts a product at an exact quantity, inserting or replacing its line.
// A quantity of zero removes the line.
func (c *Cart) Set(productID uuid.UUID, qty int) error {
	if productID == uuid.Nil {
		return shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if qty < 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be negative")
	}
	if qty == 0 {
		c.Remove(productID)
		return nil
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = qty
			c.touch()
			return nil
		}
	}
	c.Items = append(c.Items, Item{ProductID: productID, Quantity: qty, AddedAt: time.Now()})
	c.touch()
	return nil
}

// Remove drops a product line; removing an absent product is a no-op
func (c *Cart) Remove(productID uuid.UUID) {
	kept := c.Items[:0]
	for _, it := range c.Items {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	c.Items = kept
	c.touch()
}

// Clear empties the cart
func (c *Cart) Clear() {
	c.Items = []Item{}
	c.touch()
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// ProductIDs lists the products in the cart
func (c *Cart) ProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(c.Items))
	for _, it := range c.Items {
		ids = append(ids, it.ProductID)
	}
	return ids
}

// MarkReminderSent records an abandoned-cart reminder
func (c *Cart) MarkReminderSent(at time.Time) {
	c.ReminderSentAt = &at
}

// IsAbandoned reports whether the cart qualifies for a reminder: it has items,
// has been idle for at least idleAfter but not longer than maxAge, and no
// reminder went out since the last activity.
func (c *Cart) IsAbandoned(now time.Time, idleAfter, maxAge time.Duration) bool {
	if c.IsEmpty() {
		return false
	}
	idle := now.Sub(c.LastActivityAt)
	if idle < idleAfter || idle > maxAge {
		return false
	}
	return c.ReminderSentAt == nil || c.ReminderSentAt.Before(c.LastActivityAt)
}

// every mutation counts as activity and re-arms the reminder
func (c *Cart) touch() {
	now := time.Now()
	c.LastActivityAt = now
	c.UpdatedAt = now
	c.ReminderSentAt = nil
}
