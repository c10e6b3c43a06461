package catalog

import (
	"context"
	"time"

	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

var (
	// ErrStorageUnavailable is returned by operations that need object storage
	// when none is configured
	ErrStorageUnavailable = shared.NewDomainError("STORAGE_UNAVAILABLE", "Object storage is not configured")
	// ErrCatalogUnavailable is returned when catalog printing is disabled
	ErrCatalogUnavailable = shared.NewDomainError("CATALOG_UNAVAILABLE", "Catalog generation is not configured")
)

// ObjectStorage stores product images and generated catalogs
type ObjectStorage interface {
	// GenerateUploadURL returns a presigned PUT URL
	GenerateUploadURL(ctx context.Context, key, contentType string, expiresIn time.Duration) (string, time.Time, error)
	// GenerateDownloadURL returns a presigned GET URL
	GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	ObjectExists(ctx context.Context, key string) (bool, error)
	DeleteObject(ctx context.Context, key string) error
	// PublicURL is the permanent URL of a public object, or "" when objects
	// are only reachable through presigned URLs
	PublicURL(key string) string
}

// PDFRenderer turns an HTML document into a PDF
type PDFRenderer interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}

// CatalogItem is one product row of a printed catalog
type CatalogItem struct {
	Name         string
	SKU          string
	Manufacturer string
	ImageURL     string
	DisplayPrice decimal.Decimal
	MOQ          int
	GSTRate      int
	Description  string
}

// CatalogSection groups catalog items under a category heading
type CatalogSection struct {
	Category string
	Items    []CatalogItem
}

// CatalogDocument is the data bound to the catalog template
type CatalogDocument struct {
	Title       string
	StoreName   string
	ContactLine string
	GeneratedAt time.Time
	Sections    []CatalogSection
}

// CatalogTemplate renders catalog data to HTML
type CatalogTemplate interface {
	RenderCatalog(ctx context.Context, doc CatalogDocument) (string, error)
}
