package models

import (
	"time"

	"github.com/d2bcart/backend/internal/domain/cart"
	"github.com/google/uuid"
)

// CartModel stores one row per retailer; lines live in cart_items
type CartModel struct {
	RetailerID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	LastActivityAt time.Time `gorm:"not null;index"`
	ReminderSentAt *time.Time
	UpdatedAt      time.Time       `gorm:"not null"`
	Items          []CartItemModel `gorm:"foreignKey:RetailerID;references:RetailerID"`
}

// TableName returns the table name for GORM
func (CartModel) TableName() string {
	return "carts"
}

// CartItemModel is a single cart line
type CartItemModel struct {
	RetailerID uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProductID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Quantity   int       `gorm:"not null"`
	AddedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CartItemModel) TableName() string {
	return "cart_items"
}

// ToDomain converts the persistence model to a domain Cart
func (m *CartModel) ToDomain() *cart.Cart {
	c := &cart.Cart{
		RetailerID:     m.RetailerID,
		Items:          make([]cart.Item, 0, len(m.Items)),
		LastActivityAt: m.LastActivityAt,
		ReminderSentAt: m.ReminderSentAt,
		UpdatedAt:      m.UpdatedAt,
	}
	for _, it := range m.Items {
		c.Items = append(c.Items, cart.Item{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			AddedAt:   it.AddedAt,
		})
	}
	return c
}

// CartModelFromDomain creates a persistence model from a domain Cart
func CartModelFromDomain(c *cart.Cart) *CartModel {
	m := &CartModel{
		RetailerID:     c.RetailerID,
		LastActivityAt: c.LastActivityAt,
		ReminderSentAt: c.ReminderSentAt,
		UpdatedAt:      c.UpdatedAt,
		Items:          make([]CartItemModel, 0, len(c.Items)),
	}
	for _, it := range c.Items {
		m.Items = append(m.Items, CartItemModel{
			RetailerID: c.RetailerID,
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			AddedAt:    it.AddedAt,
		})
	}
	return m
}
