package trade

import (
	"time"

	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/d2bcart/backend/internal/domain/shared/valueobject"
	"github.com/d2bcart/backend/internal/domain/tax"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SplitOrders fans a paid attempt out into one order per manufacturer.
//
// Items and GST come from the snapshot. A manufacturer with its own shipping
// quote keeps it; the rest of the attempt's shipping total is shared among the
// remaining manufacturers in proportion to their item subtotals. The amount
// paid is spread across orders in proportion to their totals, the last order
// absorbing rounding so the shares add up to amountPaid exactly.
func SplitOrders(a *PaymentAttempt, paymentID string, amountPaid decimal.Decimal, now time.Time) ([]*Order, error) {
	if len(a.Snapshot.Lines) == 0 {
		return nil, shared.NewDomainError("EMPTY_SNAPSHOT", "Payment attempt has no lines")
	}
	if amountPaid.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount paid cannot be negative")
	}

	manufacturers := a.Snapshot.ManufacturerIDs()
	orders := make([]*Order, 0, len(manufacturers))
	for _, mid := range manufacturers {
		group, _ := a.Snapshot.Group(mid)
		taxType := group.TaxType
		if taxType == "" {
			taxType = tax.InterState
		}

		o := &Order{
			BaseAggregateRoot: shared.NewBaseAggregateRoot(),
			RetailerID:        a.RetailerID,
			ManufacturerID:    mid,
			PaymentAttemptID:  a.ID,
			GatewayPaymentID:  paymentID,
			TaxType:           taxType,
			PaymentMode:       a.Mode,
			Status:            OrderStatusPlaced,
			ShippingAddress:   a.ShippingAddress,
			Attribution:       a.Attribution,
			ItemsSubtotal:     decimal.Zero,
			CGST:              decimal.Zero,
			SGST:              decimal.Zero,
			IGST:              decimal.Zero,
			ShippingCost:      decimal.Zero,
		}
		o.CreatedAt = now
		o.UpdatedAt = now
		o.OrderNumber = NewOrderNumber(now, o.ID)

		for _, l := range a.Snapshot.Lines {
			if l.ManufacturerID != mid {
				continue
			}
			lineTotal := l.LineTotal().Round(2)
			b := tax.Compute(lineTotal, l.GSTRate, taxType)
			o.Items = append(o.Items, OrderItem{
				ID:            uuid.New(),
				OrderID:       o.ID,
				ProductID:     l.ProductID,
				Name:          l.Name,
				SKU:           l.SKU,
				HSNCode:       l.HSNCode,
				Quantity:      l.Quantity,
				UnitPrice:     l.UnitDisplayPrice,
				UnitBasePrice: l.UnitBasePrice,
				GSTRate:       l.GSTRate,
				LineTotal:     lineTotal,
				CGST:          b.CGST,
				SGST:          b.SGST,
				IGST:          b.IGST,
			})
			o.ItemsSubtotal = o.ItemsSubtotal.Add(lineTotal)
			o.CGST = o.CGST.Add(b.CGST)
			o.SGST = o.SGST.Add(b.SGST)
			o.IGST = o.IGST.Add(b.IGST)
		}
		orders = append(orders, o)
	}

	assignShipping(orders, a.Snapshot, a.Totals.ShippingTotal)

	totals := make([]decimal.Decimal, len(orders))
	for i, o := range orders {
		o.Total = o.ItemsSubtotal.Add(o.TaxTotal()).Add(o.ShippingCost)
		totals[i] = o.Total
	}

	paid := valueobject.Allocate(amountPaid, totals)
	for i, o := range orders {
		o.AmountPaid = paid[i]
		o.BalanceDue = o.Total.Sub(o.AmountPaid)
		if o.BalanceDue.IsNegative() {
			o.BalanceDue = decimal.Zero
		}
		if o.BalanceDue.IsZero() {
			o.PaymentStatus = PaymentStatusPaid
		} else {
			o.PaymentStatus = PaymentStatusPartiallyPaid
		}
		o.AddDomainEvent(NewOrderPlacedEvent(o))
	}
	return orders, nil
}

func assignShipping(orders []*Order, snap Snapshot, shippingTotal decimal.Decimal) {
	remaining := shippingTotal
	var unquoted []*Order
	for _, o := range orders {
		g, ok := snap.Group(o.ManufacturerID)
		if ok && g.ShippingCost != nil {
			o.ShippingCost = g.ShippingCost.Round(2)
			remaining = remaining.Sub(o.ShippingCost)
			continue
		}
		unquoted = append(unquoted, o)
	}
	if len(unquoted) == 0 || !remaining.IsPositive() {
		return
	}
	weights := make([]decimal.Decimal, len(unquoted))
	for i, o := range unquoted {
		weights[i] = o.ItemsSubtotal
	}
	for i, share := range valueobject.Allocate(remaining, weights) {
		unquoted[i].ShippingCost = share
	}
}
