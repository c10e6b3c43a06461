package trade

import (
	"time"

	appcart "github.com/d2bcart/backend/internal/application/cart"
	"github.com/d2bcart/backend/internal/domain/identity"
	"github.com/d2bcart/backend/internal/domain/shared/valueobject"
	"github.com/d2bcart/backend/internal/domain/shipping"
	"github.com/d2bcart/backend/internal/domain/tax"
	"github.com/d2bcart/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuoteRequest asks for checkout totals. Pincode defaults to the
// retailer's business pincode.
type QuoteRequest struct {
	Mode    string `form:"mode" binding:"omitempty,oneof=full advance"`
	Pincode string `form:"pincode" binding:"omitempty,pincode"`
}

// QuoteGroup is one manufacturer's share of the checkout
type QuoteGroup struct {
	ManufacturerID   uuid.UUID       `json:"manufacturer_id"`
	ManufacturerName string          `json:"manufacturer_name"`
	TaxType          tax.Type        `json:"tax_type"`
	Lines            []appcart.Line  `json:"lines"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	Tax              decimal.Decimal `json:"tax"`
	Shipping         shipping.Quote  `json:"shipping"`
	Total            decimal.Decimal `json:"total"`

	pickupPincode string
}

// QuoteResponse carries the totals for both payment modes
type QuoteResponse struct {
	Groups            []QuoteGroup    `json:"groups"`
	ItemsTotal        decimal.Decimal `json:"items_total"`
	TaxTotal          decimal.Decimal `json:"tax_total"`
	ShippingTotal     decimal.Decimal `json:"shipping_total"`
	GrandTotal        decimal.Decimal `json:"grand_total"`
	AdvancePercent    decimal.Decimal `json:"advance_percent"`
	PayableFull       decimal.Decimal `json:"payable_full"`
	PayableAdvance    decimal.Decimal `json:"payable_advance"`
	BalanceOnDelivery decimal.Decimal `json:"balance_on_delivery"`
	HasIssues         bool            `json:"has_issues"`
}

// Payable returns the amount collected online for a mode
func (q *QuoteResponse) Payable(mode trade.PaymentMode) decimal.Decimal {
	if mode == trade.PaymentModeAdvance {
		return q.PayableAdvance
	}
	return q.PayableFull
}

// CheckoutRequest starts an online payment
type CheckoutRequest struct {
	Mode        trade.PaymentMode       `json:"mode" binding:"required,oneof=full advance"`
	Address     valueobject.Address     `json:"address" binding:"required"`
	Attribution valueobject.Attribution `json:"attribution"`
}

// Prefill is passed to the client checkout widget
type Prefill struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

// CheckoutResponse is what the client needs to open the payment widget
type CheckoutResponse struct {
	AttemptID      uuid.UUID       `json:"attempt_id"`
	KeyID          string          `json:"key_id"`
	GatewayOrderID string          `json:"order_id"`
	Amount         decimal.Decimal `json:"amount"`
	AmountPaise    int64           `json:"amount_paise"`
	Currency       string          `json:"currency"`
	GrandTotal     decimal.Decimal `json:"grand_total"`
	Mode           string          `json:"mode"`
	Prefill        Prefill         `json:"prefill"`
}

// VerifyPaymentRequest is the payload the checkout widget hands back
type VerifyPaymentRequest struct {
	GatewayOrderID string `json:"razorpay_order_id" binding:"required"`
	PaymentID      string `json:"razorpay_payment_id" binding:"required"`
	Signature      string `json:"razorpay_signature" binding:"required"`
}

// OrderSummary is a compact view of an order
type OrderSummary struct {
	ID             uuid.UUID       `json:"id"`
	OrderNumber    string          `json:"order_number"`
	ManufacturerID uuid.UUID       `json:"manufacturer_id"`
	Status         string          `json:"status"`
	Total          decimal.Decimal `json:"total"`
	AmountPaid     decimal.Decimal `json:"amount_paid"`
	BalanceDue     decimal.Decimal `json:"balance_due"`
}

// PaymentResult reports the orders created for a payment
type PaymentResult struct {
	AttemptID        uuid.UUID      `json:"attempt_id"`
	AlreadyProcessed bool           `json:"already_processed"`
	Orders           []OrderSummary `json:"orders"`
}

// OrderItemResponse is an order line
type OrderItemResponse struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	HSNCode   string          `json:"hsn_code"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	GSTRate   int             `json:"gst_rate"`
	LineTotal decimal.Decimal `json:"line_total"`
	CGST      decimal.Decimal `json:"cgst"`
	SGST      decimal.Decimal `json:"sgst"`
	IGST      decimal.Decimal `json:"igst"`
	// BaseTotal is only shown to the seller and admins
	BaseTotal *decimal.Decimal `json:"base_total,omitempty"`
}

// OrderResponse is the full order view
type OrderResponse struct {
	ID               uuid.UUID           `json:"id"`
	OrderNumber      string              `json:"order_number"`
	RetailerID       uuid.UUID           `json:"retailer_id"`
	ManufacturerID   uuid.UUID           `json:"manufacturer_id"`
	Status           string              `json:"status"`
	PaymentMode      string              `json:"payment_mode"`
	PaymentStatus    string              `json:"payment_status"`
	Items            []OrderItemResponse `json:"items"`
	ItemsSubtotal    decimal.Decimal     `json:"items_subtotal"`
	TaxType          string              `json:"tax_type"`
	CGST             decimal.Decimal     `json:"cgst"`
	SGST             decimal.Decimal     `json:"sgst"`
	IGST             decimal.Decimal     `json:"igst"`
	ShippingCost     decimal.Decimal     `json:"shipping_cost"`
	Total            decimal.Decimal     `json:"total"`
	AmountPaid       decimal.Decimal     `json:"amount_paid"`
	BalanceDue       decimal.Decimal     `json:"balance_due"`
	ShippingAddress  valueobject.Address `json:"shipping_address"`
	AWB              string              `json:"awb,omitempty"`
	CourierName      string              `json:"courier_name,omitempty"`
	TrackingURL      string              `json:"tracking_url,omitempty"`
	CancelReason     string              `json:"cancel_reason,omitempty"`
	PlacedAt         time.Time           `json:"placed_at"`
	ConfirmedAt      *time.Time          `json:"confirmed_at,omitempty"`
	PackedAt         *time.Time          `json:"packed_at,omitempty"`
	ShippedAt        *time.Time          `json:"shipped_at,omitempty"`
	DeliveredAt      *time.Time          `json:"delivered_at,omitempty"`
	CancelledAt      *time.Time          `json:"cancelled_at,omitempty"`
	UTMSource        string              `json:"utm_source,omitempty"`
	UTMCampaign      string              `json:"utm_campaign,omitempty"`
	PaymentAttemptID *uuid.UUID          `json:"payment_attempt_id,omitempty"`
}

// ToOrderResponse maps an order for a viewer. Base prices and attribution are
// only included for the seller and admins.
func ToOrderResponse(o *trade.Order, role identity.Role) OrderResponse {
	seller := role == identity.RoleManufacturer || role == identity.RoleAdmin
	resp := OrderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		RetailerID:      o.RetailerID,
		ManufacturerID:  o.ManufacturerID,
		Status:          string(o.Status),
		PaymentMode:     string(o.PaymentMode),
		PaymentStatus:   string(o.PaymentStatus),
		Items:           make([]OrderItemResponse, 0, len(o.Items)),
		ItemsSubtotal:   o.ItemsSubtotal,
		TaxType:         string(o.TaxType),
		CGST:            o.CGST,
		SGST:            o.SGST,
		IGST:            o.IGST,
		ShippingCost:    o.ShippingCost,
		Total:           o.Total,
		AmountPaid:      o.AmountPaid,
		BalanceDue:      o.BalanceDue,
		ShippingAddress: o.ShippingAddress,
		AWB:             o.AWB,
		CourierName:     o.CourierName,
		TrackingURL:     o.TrackingURL,
		CancelReason:    o.CancelReason,
		PlacedAt:        o.CreatedAt,
		ConfirmedAt:     o.ConfirmedAt,
		PackedAt:        o.PackedAt,
		ShippedAt:       o.ShippedAt,
		DeliveredAt:     o.DeliveredAt,
		CancelledAt:     o.CancelledAt,
	}
	for _, it := range o.Items {
		item := OrderItemResponse{
			ProductID: it.ProductID,
			Name:      it.Name,
			SKU:       it.SKU,
			HSNCode:   it.HSNCode,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			GSTRate:   it.GSTRate,
			LineTotal: it.LineTotal,
			CGST:      it.CGST,
			SGST:      it.SGST,
			IGST:      it.IGST,
		}
		if seller {
			base := it.BaseTotal()
			item.BaseTotal = &base
		}
		resp.Items = append(resp.Items, item)
	}
	if role == identity.RoleAdmin {
		resp.UTMSource = o.Attribution.UTMSource
		resp.UTMCampaign = o.Attribution.UTMCampaign
		id := o.PaymentAttemptID
		resp.PaymentAttemptID = &id
	}
	return resp
}

func toSummary(o *trade.Order) OrderSummary {
	return OrderSummary{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		ManufacturerID: o.ManufacturerID,
		Status:         string(o.Status),
		Total:          o.Total,
		AmountPaid:     o.AmountPaid,
		BalanceDue:     o.BalanceDue,
	}
}

// OrderQuery filters order listings
type OrderQuery struct {
	Status   string     `form:"status"`
	Search   string     `form:"search"`
	From     *time.Time `form:"from" time_format:"2006-01-02"`
	To       *time.Time `form:"to" time_format:"2006-01-02"`
	Page     int        `form:"page"`
	PageSize int        `form:"page_size"`
}

func (q OrderQuery) toFilter() (trade.OrderFilter, error) {
	f := trade.OrderFilter{
		Search:   q.Search,
		From:     q.From,
		To:       q.To,
		Page:     q.Page,
		PageSize: q.PageSize,
	}
	if q.Status != "" {
		status := trade.OrderStatus(q.Status)
		if !status.IsValid() {
			return f, errInvalidStatus
		}
		f.Status = &status
	}
	if q.To != nil {
		// inclusive end date
		end := q.To.Add(24*time.Hour - time.Nanosecond)
		f.To = &end
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 100 {
		f.PageSize = 20
	}
	return f, nil
}

// CancelRequest carries a cancellation reason
type CancelRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// StatusUpdateRequest is an admin status override
type StatusUpdateRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason" binding:"max=500"`
}
