package cart

import "github.com/google/uuid"

// ProductLimits are the purchase constraints of a product at sync time
type ProductLimits struct {
	Purchasable bool
	MOQ         int
	Stock       int
}

// DropReason explains why a synced line was discarded
type DropReason string

const (
	DropUnknownProduct DropReason = "unknown_product"
	DropUnavailable    DropReason = "unavailable"
	DropOutOfStock     DropReason = "out_of_stock"
)

// Dropped is a line that could not be merged
type Dropped struct {
	ProductID uuid.UUID
	Reason    DropReason
}

// Adjusted is a line whose quantity was clamped into [MOQ, stock]
type Adjusted struct {
	ProductID uuid.UUID
	Requested int
	Quantity  int
}

// SyncResult summarises a merge
type SyncResult struct {
	Dropped  []Dropped
	Adjusted []Adjusted
}

// Merge folds a client-side cart into the server cart. For products present in
// both, the larger quantity wins. Every resulting line is clamped into
// [MOQ, stock]; incoming lines without a positive quantity are ignored, and
// lines for unknown or inactive products, or products whose
// stock is below MOQ, are removed and reported.
func (c *Cart) Merge(incoming []Item, limits map[uuid.UUID]ProductLimits) SyncResult {
	var res SyncResult

	desired := make(map[uuid.UUID]int, len(c.Items)+len(incoming))
	order := make([]uuid.UUID, 0, len(c.Items)+len(incoming))
	for _, it := range append(append([]Item{}, c.Items...), incoming...) {
		if it.Quantity <= 0 {
			continue
		}
		prev, seen := desired[it.ProductID]
		if !seen {
			order = append(order, it.ProductID)
		}
		if it.Quantity > prev {
			desired[it.ProductID] = it.Quantity
		}
	}

	for _, id := range order {
		qty := desired[id]
		lim, ok := limits[id]
		switch {
		case !ok:
			res.Dropped = append(res.Dropped, Dropped{ProductID: id, Reason: DropUnknownProduct})
			c.Remove(id)
			continue
		case !lim.Purchasable:
			res.Dropped = append(res.Dropped, Dropped{ProductID: id, Reason: DropUnavailable})
			c.Remove(id)
			continue
		case lim.Stock < lim.MOQ:
			res.Dropped = append(res.Dropped, Dropped{ProductID: id, Reason: DropOutOfStock})
			c.Remove(id)
			continue
		}

		clamped := qty
		if clamped < lim.MOQ {
			clamped = lim.MOQ
		}
		if clamped > lim.Stock {
			clamped = lim.Stock
		}
		if clamped != qty {
			res.Adjusted = append(res.Adjusted, Adjusted{ProductID: id, Requested: qty, Quantity: clamped})
		}
		_ = c.Set(id, clamped)
	}
	return res
}
