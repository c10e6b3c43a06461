package shipping

import (
	"context"
	"time"

	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Shipment is the aggregator-side record of an order's parcel
type Shipment struct {
	shared.BaseEntity
	OrderID         uuid.UUID
	ProviderOrderID string
	ShipmentID      string
	AWB             string
	CourierID       int
	CourierName     string
	Rate            decimal.Decimal
	Status          string
	TrackingURL     string
	PickupScheduled bool
	LastEventAt     *time.Time
}

// RecordEvent stores the latest aggregator status label
func (s *Shipment) RecordEvent(status string, at time.Time) {
	s.Status = status
	s.LastEventAt = &at
	s.Touch()
}

// Parcel describes what is being shipped and between which pincodes
type Parcel struct {
	PickupPincode   string
	DeliveryPincode string
	WeightGrams     int
	LengthCM        decimal.Decimal
	BreadthCM       decimal.Decimal
	HeightCM        decimal.Decimal
	COD             bool
	DeclaredValue   decimal.Decimal
}

// ShipmentRequest is everything the aggregator needs to book a parcel
type ShipmentRequest struct {
	OrderNumber    string
	OrderDate      time.Time
	PickupLocation string
	Parcel         Parcel
	CODAmount      decimal.Decimal
	SubTotal       decimal.Decimal
	BillingName    string
	BillingPhone   string
	BillingEmail   string
	BillingAddress string
	BillingCity    string
	BillingState   string
	BillingPincode string
	Items          []ShipmentItem
}

// ShipmentItem is a line on the aggregator order
type ShipmentItem struct {
	Name    string
	SKU     string
	Units   int
	Price   decimal.Decimal
	HSN     string
	TaxRate int
}

// BookedShipment is the aggregator's answer to a booking
type BookedShipment struct {
	ProviderOrderID string
	ShipmentID      string
	AWB             string
	CourierID       int
	CourierName     string
	TrackingURL     string
	PickupScheduled bool
}

// Aggregator is the shipping aggregator API
type Aggregator interface {
	// Serviceability lists couriers that can carry the parcel
	Serviceability(ctx context.Context, p Parcel) ([]CourierRate, error)

	// Book creates the aggregator order, assigns an AWB with the given courier
	// (0 lets the aggregator choose) and schedules pickup
	Book(ctx context.Context, req ShipmentRequest, courierID int) (*BookedShipment, error)
}

// RateCache caches serviceability answers
type RateCache interface {
	Get(ctx context.Context, key string) ([]CourierRate, bool)
	Set(ctx context.Context, key string, rates []CourierRate, ttl time.Duration)
}

// Repository persists shipments
type Repository interface {
	Create(ctx context.Context, s *Shipment) error
	Update(ctx context.Context, s *Shipment) error
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*Shipment, error)
	FindByAWB(ctx context.Context, awb string) (*Shipment, error)
}
