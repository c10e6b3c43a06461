package trade

import (
	"context"

	"github.com/d2bcart/backend/internal/infrastructure/sheetimport"
)

const (
	exportPageSize = 200
	maxExportRows  = 10000
)

var exportHeaders = []string{
	"Order Number", "Placed At", "Status", "Retailer ID", "Manufacturer ID",
	"Payment Mode", "Payment Status", "Items Subtotal", "CGST", "SGST", "IGST",
	"Shipping", "Total", "Amount Paid", "Balance Due", "AWB", "Courier",
	"City", "State", "Pincode", "UTM Source", "UTM Campaign",
}

// Export writes the orders matching the query to an .xlsx workbook
func (s *OrderService) Export(ctx context.Context, q OrderQuery) ([]byte, error) {
	filter, err := q.toFilter()
	if err != nil {
		return nil, err
	}
	filter.PageSize = exportPageSize

	var rows [][]any
	for page := 1; len(rows) < maxExportRows; page++ {
		filter.Page = page
		orders, total, err := s.orders.FindAll(ctx, filter)
		if err != nil {
			return nil, err
		}
		for _, o := range orders {
			rows = append(rows, []any{
				o.OrderNumber,
				o.CreatedAt.Format("2006-01-02 15:04"),
				string(o.Status),
				o.RetailerID.String(),
				o.ManufacturerID.String(),
				string(o.PaymentMode),
				string(o.PaymentStatus),
				o.ItemsSubtotal.InexactFloat64(),
				o.CGST.InexactFloat64(),
				o.SGST.InexactFloat64(),
				o.IGST.InexactFloat64(),
				o.ShippingCost.InexactFloat64(),
				o.Total.InexactFloat64(),
				o.AmountPaid.InexactFloat64(),
				o.BalanceDue.InexactFloat64(),
				o.AWB,
				o.CourierName,
				o.ShippingAddress.City,
				o.ShippingAddress.State,
				o.ShippingAddress.Pincode,
				o.Attribution.UTMSource,
				o.Attribution.UTMCampaign,
			})
		}
		if len(orders) < exportPageSize || int64(page*exportPageSize) >= total {
			break
		}
	}
	if len(rows) > maxExportRows {
		rows = rows[:maxExportRows]
	}
	return sheetimport.WriteWorkbook(sheetimport.Sheet{
		Name:    "Orders",
		Headers: exportHeaders,
		Rows:    rows,
	})
}
