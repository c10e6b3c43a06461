package catalog

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/d2bcart/backend/internal/domain/catalog"
	"github.com/d2bcart/backend/internal/domain/identity"
	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	catalogPageSize    = 100
	maxCatalogProducts = 500
	uncategorized      = "Other Products"
)

// CatalogPDFConfig holds branding and link settings for printed catalogs
type CatalogPDFConfig struct {
	StoreName   string
	ContactLine string
	LinkExpiry  time.Duration
}

// CatalogPDFService renders the active catalog to a PDF stored in object storage
type CatalogPDFService struct {
	productRepo  catalog.ProductRepository
	categoryRepo catalog.CategoryRepository
	userRepo     identity.UserRepository
	storage      ObjectStorage
	renderer     PDFRenderer
	template     CatalogTemplate
	cfg          CatalogPDFConfig
	logger       *zap.Logger
	now          func() time.Time
}

// NewCatalogPDFService creates a new CatalogPDFService
func NewCatalogPDFService(
	productRepo catalog.ProductRepository,
	categoryRepo catalog.CategoryRepository,
	userRepo identity.UserRepository,
	storage ObjectStorage,
	renderer PDFRenderer,
	template CatalogTemplate,
	cfg CatalogPDFConfig,
	logger *zap.Logger,
) *CatalogPDFService {
	if cfg.LinkExpiry <= 0 {
		cfg.LinkExpiry = 7 * 24 * time.Hour
	}
	return &CatalogPDFService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		userRepo:     userRepo,
		storage:      storage,
		renderer:     renderer,
		template:     template,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}
}

// Generate prints the selected active products and uploads the PDF under
// catalogs/<yyyy>/<mm>/<id>.pdf, returning a presigned download link
func (s *CatalogPDFService) Generate(ctx context.Context, req CatalogPDFRequest) (*CatalogPDFResult, error) {
	if s.storage == nil {
		return nil, ErrStorageUnavailable
	}

	products, err := s.loadProducts(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, shared.NewDomainError("EMPTY_CATALOG", "No active products match the selection")
	}

	doc, err := s.buildDocument(ctx, req, products)
	if err != nil {
		return nil, err
	}
	html, err := s.template.RenderCatalog(ctx, doc)
	if err != nil {
		return nil, err
	}
	pdf, err := s.renderer.RenderPDF(ctx, html)
	if err != nil {
		return nil, fmt.Errorf("failed to render catalog pdf: %w", err)
	}

	now := s.now().UTC()
	key := fmt.Sprintf("catalogs/%04d/%02d/%s.pdf", now.Year(), int(now.Month()), uuid.NewString())
	if err := s.storage.Upload(ctx, key, pdf, "application/pdf"); err != nil {
		return nil, fmt.Errorf("failed to upload catalog: %w", err)
	}
	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, key, s.cfg.LinkExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to presign catalog: %w", err)
	}

	s.logger.Info("Catalog generated",
		zap.String("key", key),
		zap.Int("products", len(products)),
		zap.Int("bytes", len(pdf)),
	)
	return &CatalogPDFResult{
		Key:          key,
		URL:          url,
		ExpiresAt:    expiresAt,
		ProductCount: len(products),
		SizeBytes:    len(pdf),
	}, nil
}

func (s *CatalogPDFService) loadProducts(ctx context.Context, req CatalogPDFRequest) ([]*catalog.Product, error) {
	active := catalog.ProductStatusActive
	filter := catalog.ProductFilter{
		CategoryID:     req.CategoryID,
		ManufacturerID: req.ManufacturerID,
		Status:         &active,
		InStockOnly:    true,
		OrderBy:        "name",
		OrderDir:       "asc",
		PageSize:       catalogPageSize,
	}
	var all []*catalog.Product
	for page := 1; len(all) < maxCatalogProducts; page++ {
		filter.Page = page
		batch, total, err := s.productRepo.FindAll(ctx, filter)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < catalogPageSize || int64(len(all)) >= total {
			break
		}
	}
	if len(all) > maxCatalogProducts {
		all = all[:maxCatalogProducts]
	}
	return all, nil
}

func (s *CatalogPDFService) buildDocument(ctx context.Context, req CatalogPDFRequest, products []*catalog.Product) (CatalogDocument, error) {
	categories, err := s.categoryRepo.FindAll(ctx)
	if err != nil {
		return CatalogDocument{}, err
	}
	categoryNames := make(map[uuid.UUID]string, len(categories))
	for _, c := range categories {
		categoryNames[c.ID] = c.Name
	}

	sellerIDs := make([]uuid.UUID, 0)
	seen := make(map[uuid.UUID]bool)
	for _, p := range products {
		if !seen[p.ManufacturerID] {
			seen[p.ManufacturerID] = true
			sellerIDs = append(sellerIDs, p.ManufacturerID)
		}
	}
	sellers, err := s.userRepo.FindByIDs(ctx, sellerIDs)
	if err != nil {
		return CatalogDocument{}, err
	}
	sellerNames := make(map[uuid.UUID]string, len(sellers))
	for _, u := range sellers {
		name := u.BusinessName
		if name == "" {
			name = u.Name
		}
		sellerNames[u.ID] = name
	}

	sections := make(map[string]*CatalogSection)
	for _, p := range products {
		heading := uncategorized
		if p.CategoryID != nil {
			if name, ok := categoryNames[*p.CategoryID]; ok {
				heading = name
			}
		}
		section, ok := sections[heading]
		if !ok {
			section = &CatalogSection{Category: heading}
			sections[heading] = section
		}
		item := CatalogItem{
			Name:         p.Name,
			SKU:          p.SKU,
			Manufacturer: sellerNames[p.ManufacturerID],
			DisplayPrice: p.DisplayPrice,
			MOQ:          p.MOQ,
			GSTRate:      p.GSTRate,
			Description:  p.Description,
		}
		if urls := resolveImageURLs(ctx, s.storage, p.Images[:min(1, len(p.Images))], s.cfg.LinkExpiry); len(urls) > 0 {
			item.ImageURL = urls[0]
		}
		section.Items = append(section.Items, item)
	}

	ordered := make([]CatalogSection, 0, len(sections))
	for _, sec := range sections {
		ordered = append(ordered, *sec)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Category == uncategorized {
			return false
		}
		if ordered[j].Category == uncategorized {
			return true
		}
		return ordered[i].Category < ordered[j].Category
	})

	title := req.Title
	if title == "" {
		title = "Wholesale Catalog"
	}
	return CatalogDocument{
		Title:       title,
		StoreName:   s.cfg.StoreName,
		ContactLine: s.cfg.ContactLine,
		GeneratedAt: s.now(),
		Sections:    ordered,
	}, nil
}
