package cart

import (
	"context"
	"errors"

	"github.com/d2bcart/backend/internal/domain/cart"
	"github.com/d2bcart/backend/internal/domain/catalog"
	"github.com/d2bcart/backend/internal/domain/identity"
	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/d2bcart/backend/internal/domain/tax"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line issues
const (
	IssueUnavailable = "unavailable"
	IssueBelowMOQ    = "below_moq"
	IssueOutOfStock  = "insufficient_stock"
)

// Pricer turns cart lines into priced, per-manufacturer groups with a GST
// estimate based on the buyer's and each seller's state
type Pricer struct {
	productRepo catalog.ProductRepository
	userRepo    identity.UserRepository
}

// NewPricer creates a new Pricer
func NewPricer(productRepo catalog.ProductRepository, userRepo identity.UserRepository) *Pricer {
	return &Pricer{productRepo: productRepo, userRepo: userRepo}
}

// Price prices a cart for a buyer. Lines for products that no longer exist
// are left out; lines that cannot be bought as is carry an Issue.
func (p *Pricer) Price(ctx context.Context, buyer *identity.User, c *cart.Cart) (*View, error) {
	view := &View{
		Groups:      []Group{},
		Subtotal:    decimal.Zero,
		TaxEstimate: decimal.Zero,
	}
	if c.IsEmpty() {
		view.Total = decimal.Zero
		return view, nil
	}

	products, err := p.productRepo.FindByIDs(ctx, c.ProductIDs())
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	sellerIDs := make([]uuid.UUID, 0)
	seenSeller := make(map[uuid.UUID]bool)
	for _, prod := range products {
		byID[prod.ID] = prod
		if !seenSeller[prod.ManufacturerID] {
			seenSeller[prod.ManufacturerID] = true
			sellerIDs = append(sellerIDs, prod.ManufacturerID)
		}
	}
	sellers, err := p.userRepo.FindByIDs(ctx, sellerIDs)
	if err != nil {
		return nil, err
	}
	sellerByID := make(map[uuid.UUID]*identity.User, len(sellers))
	for _, u := range sellers {
		sellerByID[u.ID] = u
	}

	buyerParty := tax.Party{}
	if buyer != nil {
		buyerParty = tax.Party{State: buyer.State, GSTIN: buyer.GSTIN}
	}

	groupIdx := make(map[uuid.UUID]int)
	for _, item := range c.Items {
		prod, ok := byID[item.ProductID]
		if !ok {
			continue
		}
		idx, ok := groupIdx[prod.ManufacturerID]
		if !ok {
			g := Group{
				ManufacturerID: prod.ManufacturerID,
				Lines:          []Line{},
				Subtotal:       decimal.Zero,
				Tax:            decimal.Zero,
				TaxType:        tax.InterState,
			}
			if seller := sellerByID[prod.ManufacturerID]; seller != nil {
				g.Seller = seller
				g.ManufacturerName = seller.BusinessName
				if g.ManufacturerName == "" {
					g.ManufacturerName = seller.Name
				}
				g.TaxType = tax.DetermineType(tax.Party{State: seller.State, GSTIN: seller.GSTIN}, buyerParty)
			}
			view.Groups = append(view.Groups, g)
			idx = len(view.Groups) - 1
			groupIdx[prod.ManufacturerID] = idx
		}
		g := &view.Groups[idx]

		line := Line{
			ProductID: prod.ID,
			Name:      prod.Name,
			Slug:      prod.Slug,
			SKU:       prod.SKU,
			UnitPrice: prod.DisplayPrice,
			Quantity:  item.Quantity,
			LineTotal: prod.DisplayPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
			MOQ:       prod.MOQ,
			Stock:     prod.Stock,
			GSTRate:   prod.GSTRate,
			Issue:     lineIssue(prod, item.Quantity),
			Product:   prod,
		}
		line.Tax = tax.Compute(line.LineTotal, prod.GSTRate, g.TaxType).Total()
		if line.Issue != "" {
			view.HasIssues = true
		}

		g.Lines = append(g.Lines, line)
		g.Subtotal = g.Subtotal.Add(line.LineTotal)
		g.Tax = g.Tax.Add(line.Tax)
		g.WeightGrams += prod.WeightGrams * item.Quantity
		view.ItemCount += item.Quantity
	}

	for _, g := range view.Groups {
		view.Subtotal = view.Subtotal.Add(g.Subtotal)
		view.TaxEstimate = view.TaxEstimate.Add(g.Tax)
	}
	view.Total = view.Subtotal.Add(view.TaxEstimate)
	return view, nil
}

func lineIssue(p *catalog.Product, qty int) string {
	err := p.ValidateQuantity(qty)
	if err == nil {
		return ""
	}
	if errors.Is(err, shared.ErrInsufficientStock) {
		return IssueOutOfStock
	}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) && domainErr.Code == "BELOW_MOQ" {
		return IssueBelowMOQ
	}
	return IssueUnavailable
}
