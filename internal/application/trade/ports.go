package trade

import (
	"context"

	"github.com/d2bcart/backend/internal/domain/shipping"
)

// ShippingQuoter prices one parcel. Implementations fall back to a flat rate
// instead of failing, so checkout is never blocked by the aggregator.
type ShippingQuoter interface {
	Quote(ctx context.Context, parcel shipping.Parcel) shipping.Quote
}
