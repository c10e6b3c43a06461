package catalog

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/d2bcart/backend/internal/domain/catalog"
	"github.com/d2bcart/backend/internal/domain/identity"
	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductServiceConfig holds pricing and media settings
type ProductServiceConfig struct {
	DefaultMarginPercent decimal.Decimal
	PresignExpiry        time.Duration
}

// ProductService handles product listing, moderation and media
type ProductService struct {
	productRepo  catalog.ProductRepository
	categoryRepo catalog.CategoryRepository
	userRepo     identity.UserRepository
	storage      ObjectStorage
	events       shared.EventPublisher
	cfg          ProductServiceConfig
	logger       *zap.Logger
}

// NewProductService creates a new ProductService. storage may be nil when
// object storage is disabled; image operations then fail.
func NewProductService(
	productRepo catalog.ProductRepository,
	categoryRepo catalog.CategoryRepository,
	userRepo identity.UserRepository,
	storage ObjectStorage,
	events shared.EventPublisher,
	cfg ProductServiceConfig,
	logger *zap.Logger,
) *ProductService {
	if cfg.PresignExpiry <= 0 {
		cfg.PresignExpiry = 15 * time.Minute
	}
	return &ProductService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		userRepo:     userRepo,
		storage:      storage,
		events:       events,
		cfg:          cfg,
		logger:       logger,
	}
}

// Create adds a draft product for a manufacturer
func (s *ProductService) Create(ctx context.Context, manufacturerID uuid.UUID, req ProductRequest) (*ProductResponse, error) {
	if err := s.ensureCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}
	if err := s.ensureSKUFree(ctx, manufacturerID, req.SKU, uuid.Nil); err != nil {
		return nil, err
	}

	product, err := catalog.NewProduct(manufacturerID, req.toInput(), s.cfg.DefaultMarginPercent)
	if err != nil {
		return nil, err
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, errSKUTaken
		}
		return nil, err
	}

	s.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("manufacturer_id", manufacturerID.String()),
	)
	return s.toResponse(ctx, product, true), nil
}

// Update changes a manufacturer's own product
func (s *ProductService) Update(ctx context.Context, manufacturerID, productID uuid.UUID, req ProductRequest) (*ProductResponse, error) {
	product, err := s.findOwned(ctx, manufacturerID, productID)
	if err != nil {
		return nil, err
	}
	if product.Status == catalog.ProductStatusArchived {
		return nil, shared.NewDomainError("INVALID_STATE", "Archived products cannot be edited")
	}
	if err := s.ensureCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}
	if err := s.ensureSKUFree(ctx, manufacturerID, req.SKU, product.ID); err != nil {
		return nil, err
	}
	if err := product.Update(req.toInput()); err != nil {
		return nil, err
	}
	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	return s.toResponse(ctx, product, true), nil
}

// UpdateStock overwrites the stock of a manufacturer's product
func (s *ProductService) UpdateStock(ctx context.Context, manufacturerID, productID uuid.UUID, stock int) (*ProductResponse, error) {
	product, err := s.findOwned(ctx, manufacturerID, productID)
	if err != nil {
		return nil, err
	}
	if err := product.SetStock(stock); err != nil {
		return nil, err
	}
	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	return s.toResponse(ctx, product, true), nil
}

// Submit sends a product for admin approval. Only verified manufacturers
// may submit.
func (s *ProductService) Submit(ctx context.Context, manufacturerID, productID uuid.UUID) (*ProductResponse, error) {
	seller, err := s.userRepo.FindByID(ctx, manufacturerID)
	if err != nil {
		return nil, err
	}
	if !seller.CanSell() {
		return nil, shared.NewDomainError("NOT_VERIFIED", "Your account must be verified before listing products")
	}
	product, err := s.findOwned(ctx, manufacturerID, productID)
	if err != nil {
		return nil, err
	}
	if err := product.SubmitForApproval(); err != nil {
		return nil, err
	}
	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	return s.toResponse(ctx, product, true), nil
}

// Archive withdraws a manufacturer's product
func (s *ProductService) Archive(ctx context.Context, manufacturerID, productID uuid.UUID) error {
	product, err := s.findOwned(ctx, manufacturerID, productID)
	if err != nil {
		return err
	}
	if err := product.Archive(); err != nil {
		return err
	}
	return s.productRepo.Update(ctx, product)
}

// ListOwn lists a manufacturer's products in any status
func (s *ProductService) ListOwn(ctx context.Context, manufacturerID uuid.UUID, q ProductQuery) (*shared.Paginated[ProductResponse], error) {
	filter := q.toFilter()
	filter.ManufacturerID = &manufacturerID
	return s.list(ctx, filter, true)
}

// List is the public catalog; only active products are returned
func (s *ProductService) List(ctx context.Context, q ProductQuery) (*shared.Paginated[ProductResponse], error) {
	filter := q.toFilter()
	active := catalog.ProductStatusActive
	filter.Status = &active
	return s.list(ctx, filter, false)
}

// AdminList lists products in any status with cost fields
func (s *ProductService) AdminList(ctx context.Context, q ProductQuery) (*shared.Paginated[ProductResponse], error) {
	return s.list(ctx, q.toFilter(), true)
}

// Get returns an active product by ID or slug
func (s *ProductService) Get(ctx context.Context, idOrSlug string) (*ProductResponse, error) {
	var (
		product *catalog.Product
		err     error
	)
	if id, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		product, err = s.productRepo.FindByID(ctx, id)
	} else {
		product, err = s.productRepo.FindBySlug(ctx, idOrSlug)
	}
	if err != nil {
		return nil, err
	}
	if product.Status != catalog.ProductStatusActive {
		return nil, shared.ErrNotFound
	}
	return s.toResponse(ctx, product, false), nil
}

// GetOwn returns a manufacturer's product in any status
func (s *ProductService) GetOwn(ctx context.Context, manufacturerID, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.findOwned(ctx, manufacturerID, productID)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, product, true), nil
}

// Approve publishes a product pending approval
func (s *ProductService) Approve(ctx context.Context, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := product.Approve(); err != nil {
		return nil, err
	}
	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	if s.events != nil {
		if err := s.events.Publish(ctx, product.GetDomainEvents()...); err != nil {
			s.logger.Warn("Failed to publish product events", zap.Error(err))
		}
		product.ClearDomainEvents()
	}
	s.logger.Info("Product approved", zap.String("product_id", product.ID.String()))
	return s.toResponse(ctx, product, true), nil
}

// Reject returns a product to its manufacturer with a reason
func (s *ProductService) Reject(ctx context.Context, productID uuid.UUID, reason string) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := product.Reject(reason); err != nil {
		return nil, err
	}
	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	return s.toResponse(ctx, product, true), nil
}

// SetMargin changes the platform margin of a product
func (s *ProductService) SetMargin(ctx context.Context, productID uuid.UUID, marginPercent decimal.Decimal) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := product.SetMargin(marginPercent); err != nil {
		return nil, err
	}
	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	s.logger.Info("Product margin changed",
		zap.String("product_id", product.ID.String()),
		zap.String("margin_percent", marginPercent.String()),
		zap.String("display_price", product.DisplayPrice.StringFixed(2)),
	)
	return s.toResponse(ctx, product, true), nil
}

// RequestImageUpload returns a presigned PUT URL for a new product image
func (s *ProductService) RequestImageUpload(ctx context.Context, manufacturerID, productID uuid.UUID, req ImageUploadRequest) (*ImageUploadResponse, error) {
	if s.storage == nil {
		return nil, ErrStorageUnavailable
	}
	product, err := s.findOwned(ctx, manufacturerID, productID)
	if err != nil {
		return nil, err
	}
	if len(product.Images) >= catalog.MaxImages {
		return nil, shared.NewDomainError("TOO_MANY_IMAGES", "A product can have at most 8 images")
	}
	key := path.Join("products", product.ID.String(), uuid.NewString()+imageExtension(req.ContentType))
	url, expiresAt, err := s.storage.GenerateUploadURL(ctx, key, req.ContentType, s.cfg.PresignExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}
	return &ImageUploadResponse{Key: key, UploadURL: url, ExpiresAt: expiresAt}, nil
}

// AttachImage adds an uploaded object to the product gallery
func (s *ProductService) AttachImage(ctx context.Context, manufacturerID, productID uuid.UUID, key string) (*ProductResponse, error) {
	if s.storage == nil {
		return nil, ErrStorageUnavailable
	}
	product, err := s.findOwned(ctx, manufacturerID, productID)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(key, "products/"+product.ID.String()+"/") {
		return nil, shared.NewDomainError("INVALID_IMAGE_KEY", "Image does not belong to this product")
	}
	exists, err := s.storage.ObjectExists(ctx, key)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, shared.NewDomainError("IMAGE_NOT_UPLOADED", "Upload the image before attaching it")
	}
	if err := product.AddImage(key); err != nil {
		return nil, err
	}
	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	return s.toResponse(ctx, product, true), nil
}

// RemoveImage drops an image from the gallery and deletes the object
func (s *ProductService) RemoveImage(ctx context.Context, manufacturerID, productID uuid.UUID, key string) (*ProductResponse, error) {
	product, err := s.findOwned(ctx, manufacturerID, productID)
	if err != nil {
		return nil, err
	}
	product.RemoveImage(key)
	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	if s.storage != nil {
		if err := s.storage.DeleteObject(ctx, key); err != nil {
			s.logger.Warn("Failed to delete product image", zap.String("key", key), zap.Error(err))
		}
	}
	return s.toResponse(ctx, product, true), nil
}

var errSKUTaken = shared.NewDomainError("SKU_TAKEN", "You already have a product with this SKU")

func (s *ProductService) list(ctx context.Context, filter catalog.ProductFilter, withCost bool) (*shared.Paginated[ProductResponse], error) {
	products, total, err := s.productRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		items = append(items, *s.toResponse(ctx, p, withCost))
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

func (s *ProductService) findOwned(ctx context.Context, manufacturerID, productID uuid.UUID) (*catalog.Product, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.ManufacturerID != manufacturerID {
		return nil, shared.ErrNotFound
	}
	return product, nil
}

func (s *ProductService) ensureCategory(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	if _, err := s.categoryRepo.FindByID(ctx, *id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("INVALID_CATEGORY", "Category not found")
		}
		return err
	}
	return nil
}

func (s *ProductService) ensureSKUFree(ctx context.Context, manufacturerID uuid.UUID, sku string, self uuid.UUID) error {
	existing, err := s.productRepo.FindBySKU(ctx, manufacturerID, strings.ToUpper(strings.TrimSpace(sku)))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	if existing.ID != self {
		return errSKUTaken
	}
	return nil
}

func (s *ProductService) toResponse(ctx context.Context, p *catalog.Product, withCost bool) *ProductResponse {
	resp := &ProductResponse{
		ID:              p.ID,
		ManufacturerID:  p.ManufacturerID,
		CategoryID:      p.CategoryID,
		Name:            p.Name,
		Slug:            p.Slug,
		SKU:             p.SKU,
		Description:     p.Description,
		DisplayPrice:    p.DisplayPrice,
		MOQ:             p.MOQ,
		Stock:           p.Stock,
		InStock:         p.Stock >= p.MOQ,
		HSNCode:         p.HSNCode,
		GSTRate:         p.GSTRate,
		WeightGrams:     p.WeightGrams,
		Images:          resolveImageURLs(ctx, s.storage, p.Images, s.cfg.PresignExpiry),
		Status:          string(p.Status),
		RejectionReason: p.RejectionReason,
		ApprovedAt:      p.ApprovedAt,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
	if withCost {
		base, margin := p.BasePrice, p.MarginPercent
		resp.BasePrice = &base
		resp.MarginPercent = &margin
	}
	return resp
}

// resolveImageURLs maps object keys to URLs: the public URL when the bucket
// is public, a presigned GET otherwise. Keys that fail to resolve are dropped.
func resolveImageURLs(ctx context.Context, storage ObjectStorage, keys []string, expiry time.Duration) []string {
	urls := make([]string, 0, len(keys))
	if storage == nil {
		return urls
	}
	for _, key := range keys {
		if u := storage.PublicURL(key); u != "" {
			urls = append(urls, u)
			continue
		}
		u, _, err := storage.GenerateDownloadURL(ctx, key, expiry)
		if err != nil {
			continue
		}
		urls = append(urls, u)
	}
	return urls
}

func imageExtension(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	}
	return ".jpg"
}
