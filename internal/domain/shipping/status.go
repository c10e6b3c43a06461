package shipping

import (
	"strings"

	"github.com/d2bcart/backend/internal/domain/trade"
)

// MapTrackingStatus converts an aggregator status label to an order status.
// The second result is false for statuses that should not move the order
// (pickup scheduling noise, cancellations handled elsewhere).
func MapTrackingStatus(label string) (trade.OrderStatus, bool) {
	s := strings.ToUpper(strings.Join(strings.Fields(strings.ReplaceAll(label, "_", " ")), " "))
	switch {
	case s == "":
		return "", false
	case strings.HasPrefix(s, "RTO"):
		return trade.OrderStatusRTO, true
	case s == "DELIVERED":
		return trade.OrderStatusDelivered, true
	case s == "IN TRANSIT", s == "OUT FOR DELIVERY", s == "SHIPPED", s == "PICKED UP",
		s == "REACHED AT DESTINATION HUB", s == "REACHED DESTINATION HUB", s == "IN TRANSIT-AT DESTINATION HUB":
		return trade.OrderStatusInTransit, true
	}
	return "", false
}
