package shipping

import (
	"time"

	"github.com/d2bcart/backend/internal/domain/shipping"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RatesRequest previews courier options for a parcel
type RatesRequest struct {
	PickupPincode   string `form:"pickup_pincode" binding:"required,pincode"`
	DeliveryPincode string `form:"delivery_pincode" binding:"required,pincode"`
	WeightGrams     int    `form:"weight_grams" binding:"required,min=1"`
	COD             bool   `form:"cod"`
}

// RatesResponse lists serviceable couriers and the one the strategy picks
type RatesResponse struct {
	Rates    []shipping.CourierRate `json:"rates"`
	Selected *shipping.CourierRate  `json:"selected,omitempty"`
	Strategy shipping.Strategy      `json:"strategy"`
}

// TrackingResponse is the current shipment state of an order
type TrackingResponse struct {
	OrderID         uuid.UUID       `json:"order_id"`
	OrderNumber     string          `json:"order_number"`
	OrderStatus     string          `json:"order_status"`
	AWB             string          `json:"awb,omitempty"`
	CourierName     string          `json:"courier_name,omitempty"`
	TrackingURL     string          `json:"tracking_url,omitempty"`
	ShipmentStatus  string          `json:"shipment_status,omitempty"`
	PickupScheduled bool            `json:"pickup_scheduled"`
	Rate            decimal.Decimal `json:"rate"`
	ShippedAt       *time.Time      `json:"shipped_at,omitempty"`
	LastEventAt     *time.Time      `json:"last_event_at,omitempty"`
}
