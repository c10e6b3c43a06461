package models

import (
	"time"

	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/d2bcart/backend/internal/domain/shared/valueobject"
	"github.com/d2bcart/backend/internal/domain/tax"
	"github.com/d2bcart/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentAttemptModel is the persistence model for PaymentAttempt
type PaymentAttemptModel struct {
	BaseModel
	RetailerID       uuid.UUID               `gorm:"type:uuid;not null;index"`
	GatewayOrderID   string                  `gorm:"type:varchar(64);index"`
	GatewayPaymentID string                  `gorm:"type:varchar(64)"`
	Status           trade.AttemptStatus     `gorm:"type:varchar(20);not null;index"`
	Mode             trade.PaymentMode       `gorm:"type:varchar(20);not null"`
	Snapshot         trade.Snapshot          `gorm:"type:jsonb;serializer:json;not null"`
	ShippingAddress  valueobject.Address     `gorm:"type:jsonb;serializer:json;not null"`
	ItemsTotal       decimal.Decimal         `gorm:"type:decimal(18,2);not null"`
	TaxTotal         decimal.Decimal         `gorm:"type:decimal(18,2);not null"`
	ShippingTotal    decimal.Decimal         `gorm:"type:decimal(18,2);not null"`
	GrandTotal       decimal.Decimal         `gorm:"type:decimal(18,2);not null"`
	AmountPayable    decimal.Decimal         `gorm:"type:decimal(18,2);not null"`
	AmountPaid       decimal.Decimal         `gorm:"type:decimal(18,2);not null;default:0"`
	Attribution      valueobject.Attribution `gorm:"type:jsonb;serializer:json"`
	OrderIDs         []uuid.UUID             `gorm:"type:jsonb;serializer:json"`
	FailureReason    string                  `gorm:"type:text"`
	CompletedAt      *time.Time
}

// TableName returns the table name for GORM
func (PaymentAttemptModel) TableName() string {
	return "payment_attempts"
}

// ToDomain converts the persistence model to a domain PaymentAttempt
func (m *PaymentAttemptModel) ToDomain() *trade.PaymentAttempt {
	return &trade.PaymentAttempt{
		BaseEntity:       m.BaseModel.ToDomain(),
		RetailerID:       m.RetailerID,
		GatewayOrderID:   m.GatewayOrderID,
		GatewayPaymentID: m.GatewayPaymentID,
		Status:           m.Status,
		Mode:             m.Mode,
		Snapshot:         m.Snapshot,
		ShippingAddress:  m.ShippingAddress,
		Totals: trade.Totals{
			ItemsTotal:    m.ItemsTotal,
			TaxTotal:      m.TaxTotal,
			ShippingTotal: m.ShippingTotal,
			GrandTotal:    m.GrandTotal,
			AmountPayable: m.AmountPayable,
		},
		AmountPaid:    m.AmountPaid,
		Attribution:   m.Attribution,
		OrderIDs:      m.OrderIDs,
		FailureReason: m.FailureReason,
		CompletedAt:   m.CompletedAt,
	}
}

// PaymentAttemptModelFromDomain creates a persistence model from a domain PaymentAttempt
func PaymentAttemptModelFromDomain(a *trade.PaymentAttempt) *PaymentAttemptModel {
	m := &PaymentAttemptModel{
		RetailerID:       a.RetailerID,
		GatewayOrderID:   a.GatewayOrderID,
		GatewayPaymentID: a.GatewayPaymentID,
		Status:           a.Status,
		Mode:             a.Mode,
		Snapshot:         a.Snapshot,
		ShippingAddress:  a.ShippingAddress,
		ItemsTotal:       a.Totals.ItemsTotal,
		TaxTotal:         a.Totals.TaxTotal,
		ShippingTotal:    a.Totals.ShippingTotal,
		GrandTotal:       a.Totals.GrandTotal,
		AmountPayable:    a.Totals.AmountPayable,
		AmountPaid:       a.AmountPaid,
		Attribution:      a.Attribution,
		OrderIDs:         a.OrderIDs,
		FailureReason:    a.FailureReason,
		CompletedAt:      a.CompletedAt,
	}
	m.FromDomainBaseEntity(a.BaseEntity)
	return m
}

// OrderModel is the persistence model for the Order aggregate. Attribution
// is kept whole as JSON and also flattened into source/medium/campaign so the
// attribution report can group in SQL.
type OrderModel struct {
	AggregateModel
	OrderNumber         string                  `gorm:"type:varchar(32);not null;uniqueIndex"`
	RetailerID          uuid.UUID               `gorm:"type:uuid;not null;index"`
	ManufacturerID      uuid.UUID               `gorm:"type:uuid;not null;index"`
	PaymentAttemptID    uuid.UUID               `gorm:"type:uuid;not null;index"`
	GatewayPaymentID    string                  `gorm:"type:varchar(64)"`
	ItemsSubtotal       decimal.Decimal         `gorm:"type:decimal(18,2);not null"`
	TaxType             tax.Type                `gorm:"type:varchar(20);not null"`
	CGST                decimal.Decimal         `gorm:"column:cgst;type:decimal(18,2);not null;default:0"`
	SGST                decimal.Decimal         `gorm:"column:sgst;type:decimal(18,2);not null;default:0"`
	IGST                decimal.Decimal         `gorm:"column:igst;type:decimal(18,2);not null;default:0"`
	ShippingCost        decimal.Decimal         `gorm:"type:decimal(18,2);not null;default:0"`
	Total               decimal.Decimal         `gorm:"type:decimal(18,2);not null"`
	PlatformMargin      decimal.Decimal         `gorm:"type:decimal(18,2);not null;default:0"`
	PaymentMode         trade.PaymentMode       `gorm:"type:varchar(20);not null"`
	AmountPaid          decimal.Decimal         `gorm:"type:decimal(18,2);not null"`
	BalanceDue          decimal.Decimal         `gorm:"type:decimal(18,2);not null;default:0"`
	PaymentStatus       trade.PaymentStatus     `gorm:"type:varchar(20);not null"`
	Status              trade.OrderStatus       `gorm:"type:varchar(20);not null;index"`
	ShippingAddress     valueobject.Address     `gorm:"type:jsonb;serializer:json;not null"`
	Attribution         valueobject.Attribution `gorm:"type:jsonb;serializer:json"`
	AttributionSource   string                  `gorm:"type:varchar(100);index"`
	AttributionMedium   string                  `gorm:"type:varchar(100)"`
	AttributionCampaign string                  `gorm:"type:varchar(200)"`
	AWB                 string                  `gorm:"column:awb;type:varchar(64);index"`
	CourierName         string                  `gorm:"type:varchar(100)"`
	TrackingURL         string                  `gorm:"type:varchar(500)"`
	CancelReason        string                  `gorm:"type:text"`
	ConfirmedAt         *time.Time
	PackedAt            *time.Time
	ShippedAt           *time.Time
	DeliveredAt         *time.Time
	CancelledAt         *time.Time
	Items               []OrderItemModel `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel is the persistence model for an order line
type OrderItemModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name          string          `gorm:"type:varchar(200);not null"`
	SKU           string          `gorm:"column:sku;type:varchar(64)"`
	HSNCode       string          `gorm:"column:hsn_code;type:varchar(8)"`
	Quantity      int             `gorm:"not null"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	UnitBasePrice decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	GSTRate       int             `gorm:"column:gst_rate;not null"`
	LineTotal     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CGST          decimal.Decimal `gorm:"column:cgst;type:decimal(18,2);not null;default:0"`
	SGST          decimal.Decimal `gorm:"column:sgst;type:decimal(18,2);not null;default:0"`
	IGST          decimal.Decimal `gorm:"column:igst;type:decimal(18,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain Order
func (m *OrderModel) ToDomain() *trade.Order {
	o := &trade.Order{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: m.BaseModel.ToDomain(),
			Version:    m.Version,
		},
		OrderNumber:      m.OrderNumber,
		RetailerID:       m.RetailerID,
		ManufacturerID:   m.ManufacturerID,
		PaymentAttemptID: m.PaymentAttemptID,
		GatewayPaymentID: m.GatewayPaymentID,
		Items:            make([]trade.OrderItem, 0, len(m.Items)),
		ItemsSubtotal:    m.ItemsSubtotal,
		TaxType:          m.TaxType,
		CGST:             m.CGST,
		SGST:             m.SGST,
		IGST:             m.IGST,
		ShippingCost:     m.ShippingCost,
		Total:            m.Total,
		PaymentMode:      m.PaymentMode,
		AmountPaid:       m.AmountPaid,
		BalanceDue:       m.BalanceDue,
		PaymentStatus:    m.PaymentStatus,
		Status:           m.Status,
		ShippingAddress:  m.ShippingAddress,
		Attribution:      m.Attribution,
		AWB:              m.AWB,
		CourierName:      m.CourierName,
		TrackingURL:      m.TrackingURL,
		CancelReason:     m.CancelReason,
		ConfirmedAt:      m.ConfirmedAt,
		PackedAt:         m.PackedAt,
		ShippedAt:        m.ShippedAt,
		DeliveredAt:      m.DeliveredAt,
		CancelledAt:      m.CancelledAt,
	}
	for _, it := range m.Items {
		o.Items = append(o.Items, trade.OrderItem{
			ID:            it.ID,
			OrderID:       it.OrderID,
			ProductID:     it.ProductID,
			Name:          it.Name,
			SKU:           it.SKU,
			HSNCode:       it.HSNCode,
			Quantity:      it.Quantity,
			UnitPrice:     it.UnitPrice,
			UnitBasePrice: it.UnitBasePrice,
			GSTRate:       it.GSTRate,
			LineTotal:     it.LineTotal,
			CGST:          it.CGST,
			SGST:          it.SGST,
			IGST:          it.IGST,
		})
	}
	return o
}

// OrderModelFromDomain creates a persistence model from a domain Order
func OrderModelFromDomain(o *trade.Order) *OrderModel {
	m := &OrderModel{
		OrderNumber:         o.OrderNumber,
		RetailerID:          o.RetailerID,
		ManufacturerID:      o.ManufacturerID,
		PaymentAttemptID:    o.PaymentAttemptID,
		GatewayPaymentID:    o.GatewayPaymentID,
		ItemsSubtotal:       o.ItemsSubtotal,
		TaxType:             o.TaxType,
		CGST:                o.CGST,
		SGST:                o.SGST,
		IGST:                o.IGST,
		ShippingCost:        o.ShippingCost,
		Total:               o.Total,
		PlatformMargin:      o.PlatformMargin(),
		PaymentMode:         o.PaymentMode,
		AmountPaid:          o.AmountPaid,
		BalanceDue:          o.BalanceDue,
		PaymentStatus:       o.PaymentStatus,
		Status:              o.Status,
		ShippingAddress:     o.ShippingAddress,
		Attribution:         o.Attribution,
		AttributionSource:   o.Attribution.Source(),
		AttributionMedium:   o.Attribution.Medium(),
		AttributionCampaign: o.Attribution.UTMCampaign,
		AWB:                 o.AWB,
		CourierName:         o.CourierName,
		TrackingURL:         o.TrackingURL,
		CancelReason:        o.CancelReason,
		ConfirmedAt:         o.ConfirmedAt,
		PackedAt:            o.PackedAt,
		ShippedAt:           o.ShippedAt,
		DeliveredAt:         o.DeliveredAt,
		CancelledAt:         o.CancelledAt,
		Items:               make([]OrderItemModel, 0, len(o.Items)),
	}
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	for _, it := range o.Items {
		id := it.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		m.Items = append(m.Items, OrderItemModel{
			ID:            id,
			OrderID:       o.ID,
			ProductID:     it.ProductID,
			Name:          it.Name,
			SKU:           it.SKU,
			HSNCode:       it.HSNCode,
			Quantity:      it.Quantity,
			UnitPrice:     it.UnitPrice,
			UnitBasePrice: it.UnitBasePrice,
			GSTRate:       it.GSTRate,
			LineTotal:     it.LineTotal,
			CGST:          it.CGST,
			SGST:          it.SGST,
			IGST:          it.IGST,
		})
	}
	return m
}
