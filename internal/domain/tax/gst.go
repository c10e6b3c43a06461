// Package tax determines how GST applies to a sale between two businesses.
//
// A sale within one state is intra-state and splits tax evenly into CGST and
// SGST. A sale across states (or where either state cannot be resolved) is
// inter-state and charges IGST. Prices are tax exclusive.
package tax

import (
	"github.com/d2bcart/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Type is the GST regime of a sale
type Type string

const (
	IntraState Type = "intra_state"
	InterState Type = "inter_state"
)

// Party is one side of a sale as seen by GST
type Party struct {
	State string
	GSTIN string
}

// StateCode resolves the party's state, preferring the explicit state name and
// falling back to the GSTIN prefix
func (p Party) StateCode() (string, bool) {
	if code, ok := valueobject.StateCodeFromName(p.State); ok {
		return code, true
	}
	return valueobject.StateCodeFromGSTIN(p.GSTIN)
}

// DetermineType returns IntraState when seller and buyer resolve to the same
// state and InterState otherwise
func DetermineType(seller, buyer Party) Type {
	s, okS := seller.StateCode()
	b, okB := buyer.StateCode()
	if okS && okB && s == b {
		return IntraState
	}
	return InterState
}

// Breakdown is the tax on an amount
type Breakdown struct {
	Taxable decimal.Decimal
	CGST    decimal.Decimal
	SGST    decimal.Decimal
	IGST    decimal.Decimal
}

// Total is the full tax amount
func (b Breakdown) Total() decimal.Decimal {
	return b.CGST.Add(b.SGST).Add(b.IGST)
}

// Add sums two breakdowns
func (b Breakdown) Add(o Breakdown) Breakdown {
	return Breakdown{
		Taxable: b.Taxable.Add(o.Taxable),
		CGST:    b.CGST.Add(o.CGST),
		SGST:    b.SGST.Add(o.SGST),
		IGST:    b.IGST.Add(o.IGST),
	}
}

// Zero returns an empty breakdown
func Zero() Breakdown {
	return Breakdown{Taxable: decimal.Zero, CGST: decimal.Zero, SGST: decimal.Zero, IGST: decimal.Zero}
}

// Compute taxes a taxable amount at rate percent. The tax is rounded to paise
// first; for intra-state sales CGST takes the rounded half and SGST the rest so
// the components always add up to the rounded tax.
func Compute(taxable decimal.Decimal, ratePercent int, t Type) Breakdown {
	tax := taxable.Mul(decimal.NewFromInt(int64(ratePercent))).Div(decimal.NewFromInt(100)).Round(2)
	b := Zero()
	b.Taxable = taxable
	if t == IntraState {
		b.CGST = tax.Div(decimal.NewFromInt(2)).Round(2)
		b.SGST = tax.Sub(b.CGST)
		return b
	}
	b.IGST = tax
	return b
}
