package models

import (
	"time"

	"github.com/d2bcart/backend/internal/domain/payout"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayoutModel is the persistence model for Payout
type PayoutModel struct {
	BaseModel
	ManufacturerID uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	OrderNumber    string          `gorm:"type:varchar(32);not null"`
	Amount         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	PlatformFee    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Status         payout.Status   `gorm:"type:varchar(20);not null;index"`
	EligibleAt     time.Time       `gorm:"not null;index"`
	PaidAt         *time.Time
	UTRReference   string `gorm:"column:utr_reference;type:varchar(64)"`
	HoldReason     string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PayoutModel) TableName() string {
	return "payouts"
}

// ToDomain converts the persistence model to a domain Payout
func (m *PayoutModel) ToDomain() *payout.Payout {
	return &payout.Payout{
		BaseEntity:     m.BaseModel.ToDomain(),
		ManufacturerID: m.ManufacturerID,
		OrderID:        m.OrderID,
		OrderNumber:    m.OrderNumber,
		Amount:         m.Amount,
		PlatformFee:    m.PlatformFee,
		Status:         m.Status,
		EligibleAt:     m.EligibleAt,
		PaidAt:         m.PaidAt,
		UTRReference:   m.UTRReference,
		HoldReason:     m.HoldReason,
	}
}

// PayoutModelFromDomain creates a persistence model from a domain Payout
func PayoutModelFromDomain(p *payout.Payout) *PayoutModel {
	m := &PayoutModel{
		ManufacturerID: p.ManufacturerID,
		OrderID:        p.OrderID,
		OrderNumber:    p.OrderNumber,
		Amount:         p.Amount,
		PlatformFee:    p.PlatformFee,
		Status:         p.Status,
		EligibleAt:     p.EligibleAt,
		PaidAt:         p.PaidAt,
		UTRReference:   p.UTRReference,
		HoldReason:     p.HoldReason,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}
