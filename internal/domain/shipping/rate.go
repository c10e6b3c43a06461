package shipping

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CourierRate is one serviceable courier option quoted by the aggregator
type CourierRate struct {
	CourierID     int             `json:"courier_id"`
	Name          string          `json:"name"`
	Rate          decimal.Decimal `json:"rate"`
	EstimatedDays int             `json:"estimated_days"`
	Rating        float64         `json:"rating"`
	COD           bool            `json:"cod"`
}

// Strategy decides which courier to use
type Strategy string

const (
	StrategyCheapest Strategy = "cheapest"
	StrategyFastest  Strategy = "fastest"
	StrategyBalanced Strategy = "balanced"
)

// ParseStrategy maps a config value to a Strategy, defaulting to cheapest
func ParseStrategy(s string) Strategy {
	switch Strategy(s) {
	case StrategyFastest, StrategyBalanced:
		return Strategy(s)
	}
	return StrategyCheapest
}

// SelectRate picks a courier from the quotes. Couriers slower than maxDays are
// excluded unless that would leave nothing. maxDays <= 0 disables the cap.
func SelectRate(rates []CourierRate, strategy Strategy, maxDays int) (CourierRate, bool) {
	if len(rates) == 0 {
		return CourierRate{}, false
	}

	candidates := rates
	if maxDays > 0 {
		fast := make([]CourierRate, 0, len(rates))
		for _, r := range rates {
			if r.EstimatedDays <= maxDays {
				fast = append(fast, r)
			}
		}
		if len(fast) > 0 {
			candidates = fast
		}
	}

	sorted := append([]CourierRate(nil), candidates...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		switch ParseStrategy(string(strategy)) {
		case StrategyFastest:
			if a.EstimatedDays != b.EstimatedDays {
				return a.EstimatedDays < b.EstimatedDays
			}
			if !a.Rate.Equal(b.Rate) {
				return a.Rate.LessThan(b.Rate)
			}
		case StrategyBalanced:
			sa, sb := balancedScore(a), balancedScore(b)
			if !sa.Equal(sb) {
				return sa.LessThan(sb)
			}
		default:
			if !a.Rate.Equal(b.Rate) {
				return a.Rate.LessThan(b.Rate)
			}
			if a.EstimatedDays != b.EstimatedDays {
				return a.EstimatedDays < b.EstimatedDays
			}
		}
		return a.Rating > b.Rating
	})
	return sorted[0], true
}

// rate × (1 + days/10)
func balancedScore(r CourierRate) decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(decimal.NewFromInt(int64(r.EstimatedDays)).Div(decimal.NewFromInt(10)))
	return r.Rate.Mul(factor)
}

// WeightBucketGrams rounds a weight up to the next 500 g slab, the granularity
// couriers bill at. Used to key rate caches.
func WeightBucketGrams(grams int) int {
	const slab = 500
	if grams <= 0 {
		return slab
	}
	return ((grams + slab - 1) / slab) * slab
}

// Quote is the shipping price settled on for one parcel
type Quote struct {
	Cost          decimal.Decimal `json:"cost"`
	CourierID     int             `json:"courier_id,omitempty"`
	Courier       string          `json:"courier,omitempty"`
	EstimatedDays int             `json:"estimated_days,omitempty"`
	// Fallback is set when no courier answered and the flat rate was used
	Fallback bool `json:"fallback"`
}

// FlatQuote is the quote used when the aggregator cannot price a parcel
func FlatQuote(rate decimal.Decimal) Quote {
	return Quote{Cost: rate, Fallback: true}
}
