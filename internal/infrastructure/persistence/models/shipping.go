package models

import (
	"time"

	"github.com/d2bcart/backend/internal/domain/shipping"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShipmentModel is the persistence model for Shipment
type ShipmentModel struct {
	BaseModel
	OrderID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	ProviderOrderID string          `gorm:"type:varchar(64)"`
	ShipmentID      string          `gorm:"type:varchar(64)"`
	AWB             string          `gorm:"column:awb;type:varchar(64);index"`
	CourierID       int             `gorm:"not null;default:0"`
	CourierName     string          `gorm:"type:varchar(100)"`
	Rate            decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Status          string          `gorm:"type:varchar(50)"`
	TrackingURL     string          `gorm:"type:varchar(500)"`
	PickupScheduled bool            `gorm:"not null;default:false"`
	LastEventAt     *time.Time
}

// TableName returns the table name for GORM
func (ShipmentModel) TableName() string {
	return "shipments"
}

// ToDomain converts the persistence model to a domain Shipment
func (m *ShipmentModel) ToDomain() *shipping.Shipment {
	return &shipping.Shipment{
		BaseEntity:      m.BaseModel.ToDomain(),
		OrderID:         m.OrderID,
		ProviderOrderID: m.ProviderOrderID,
		ShipmentID:      m.ShipmentID,
		AWB:             m.AWB,
		CourierID:       m.CourierID,
		CourierName:     m.CourierName,
		Rate:            m.Rate,
		Status:          m.Status,
		TrackingURL:     m.TrackingURL,
		PickupScheduled: m.PickupScheduled,
		LastEventAt:     m.LastEventAt,
	}
}

// ShipmentModelFromDomain creates a persistence model from a domain Shipment
func ShipmentModelFromDomain(s *shipping.Shipment) *ShipmentModel {
	m := &ShipmentModel{
		OrderID:         s.OrderID,
		ProviderOrderID: s.ProviderOrderID,
		ShipmentID:      s.ShipmentID,
		AWB:             s.AWB,
		CourierID:       s.CourierID,
		CourierName:     s.CourierName,
		Rate:            s.Rate,
		Status:          s.Status,
		TrackingURL:     s.TrackingURL,
		PickupScheduled: s.PickupScheduled,
		LastEventAt:     s.LastEventAt,
	}
	m.FromDomainBaseEntity(s.BaseEntity)
	return m
}
