package cart

import (
	"context"

	"github.com/d2bcart/backend/internal/domain/cart"
	"github.com/d2bcart/backend/internal/domain/catalog"
	"github.com/d2bcart/backend/internal/domain/identity"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CartService handles the retailer's server-side cart
type CartService struct {
	cartRepo    cart.Repository
	productRepo catalog.ProductRepository
	userRepo    identity.UserRepository
	pricer      *Pricer
	logger      *zap.Logger
}

// NewCartService creates a new CartService
func NewCartService(
	cartRepo cart.Repository,
	productRepo catalog.ProductRepository,
	userRepo identity.UserRepository,
	logger *zap.Logger,
) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		pricer:      NewPricer(productRepo, userRepo),
		logger:      logger,
	}
}

// Pricer exposes the cart pricer to checkout
func (s *CartService) Pricer() *Pricer {
	return s.pricer
}

// Get returns the priced cart
func (s *CartService) Get(ctx context.Context, retailerID uuid.UUID) (*View, error) {
	c, err := s.cartRepo.Get(ctx, retailerID)
	if err != nil {
		return nil, err
	}
	return s.price(ctx, retailerID, c)
}

// AddItem adds quantity to a line. A zero quantity adds the MOQ. The
// resulting quantity must satisfy MOQ and stock.
func (s *CartService) AddItem(ctx context.Context, retailerID uuid.UUID, req ItemRequest) (*View, error) {
	c, err := s.cartRepo.Get(ctx, retailerID)
	if err != nil {
		return nil, err
	}
	product, err := s.productRepo.FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	qty := req.Quantity
	if qty <= 0 {
		qty = product.MOQ
	}
	total := c.QuantityOf(product.ID) + qty
	if err := product.ValidateQuantity(total); err != nil {
		return nil, err
	}
	if err := c.Set(product.ID, total); err != nil {
		return nil, err
	}
	if err := s.cartRepo.Save(ctx, c); err != nil {
		return nil, err
	}
	return s.price(ctx, retailerID, c)
}

// UpdateItem sets a line to an exact quantity; zero removes it
func (s *CartService) UpdateItem(ctx context.Context, retailerID uuid.UUID, req ItemRequest) (*View, error) {
	c, err := s.cartRepo.Get(ctx, retailerID)
	if err != nil {
		return nil, err
	}
	if req.Quantity > 0 {
		product, err := s.productRepo.FindByID(ctx, req.ProductID)
		if err != nil {
			return nil, err
		}
		if err := product.ValidateQuantity(req.Quantity); err != nil {
			return nil, err
		}
	}
	if err := c.Set(req.ProductID, req.Quantity); err != nil {
		return nil, err
	}
	if err := s.cartRepo.Save(ctx, c); err != nil {
		return nil, err
	}
	return s.price(ctx, retailerID, c)
}

// RemoveItem drops a line
func (s *CartService) RemoveItem(ctx context.Context, retailerID, productID uuid.UUID) (*View, error) {
	c, err := s.cartRepo.Get(ctx, retailerID)
	if err != nil {
		return nil, err
	}
	c.Remove(productID)
	if err := s.cartRepo.Save(ctx, c); err != nil {
		return nil, err
	}
	return s.price(ctx, retailerID, c)
}

// Clear empties the cart
func (s *CartService) Clear(ctx context.Context, retailerID uuid.UUID) error {
	c, err := s.cartRepo.Get(ctx, retailerID)
	if err != nil {
		return err
	}
	c.Clear()
	return s.cartRepo.Save(ctx, c)
}

// Sync merges a guest cart into the server cart
func (s *CartService) Sync(ctx context.Context, retailerID uuid.UUID, req SyncRequest) (*SyncResponse, error) {
	c, err := s.cartRepo.Get(ctx, retailerID)
	if err != nil {
		return nil, err
	}

	incoming := make([]cart.Item, 0, len(req.Items))
	ids := c.ProductIDs()
	for _, it := range req.Items {
		incoming = append(incoming, cart.Item{ProductID: it.ProductID, Quantity: it.Quantity})
		ids = append(ids, it.ProductID)
	}

	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	limits := make(map[uuid.UUID]cart.ProductLimits, len(products))
	for _, p := range products {
		limits[p.ID] = cart.ProductLimits{
			Purchasable: p.Status == catalog.ProductStatusActive,
			MOQ:         p.MOQ,
			Stock:       p.Stock,
		}
	}

	result := c.Merge(incoming, limits)
	if err := s.cartRepo.Save(ctx, c); err != nil {
		return nil, err
	}

	resp := &SyncResponse{
		Dropped:  make([]DroppedLine, 0, len(result.Dropped)),
		Adjusted: make([]AdjustedLine, 0, len(result.Adjusted)),
	}
	for _, d := range result.Dropped {
		resp.Dropped = append(resp.Dropped, DroppedLine{ProductID: d.ProductID, Reason: string(d.Reason)})
	}
	for _, a := range result.Adjusted {
		resp.Adjusted = append(resp.Adjusted, AdjustedLine{ProductID: a.ProductID, Requested: a.Requested, Quantity: a.Quantity})
	}
	if len(result.Dropped) > 0 || len(result.Adjusted) > 0 {
		s.logger.Info("Cart synced with changes",
			zap.String("retailer_id", retailerID.String()),
			zap.Int("dropped", len(result.Dropped)),
			zap.Int("adjusted", len(result.Adjusted)),
		)
	}

	resp.Cart, err = s.price(ctx, retailerID, c)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *CartService) price(ctx context.Context, retailerID uuid.UUID, c *cart.Cart) (*View, error) {
	buyer, err := s.userRepo.FindByID(ctx, retailerID)
	if err != nil {
		return nil, err
	}
	return s.pricer.Price(ctx, buyer, c)
}
