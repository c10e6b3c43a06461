package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/d2bcart/backend/internal/domain/catalog"
	"github.com/d2bcart/backend/internal/domain/identity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRenderer struct{ html string }

func (f *fakeRenderer) RenderPDF(_ context.Context, html string) ([]byte, error) {
	f.html = html
	return []byte("%PDF-1.4"), nil
}

type fakeTemplate struct{ doc CatalogDocument }

func (f *fakeTemplate) RenderCatalog(_ context.Context, doc CatalogDocument) (string, error) {
	f.doc = doc
	return "<html></html>", nil
}

func TestCatalogPDFService_Generate(t *testing.T) {
	ctx := context.Background()
	seller := &identity.User{Name: "Ravi", BusinessProfile: identity.BusinessProfile{BusinessName: "Ravi Steel"}}
	seller.ID = uuid.New()
	kitchen, _ := catalog.NewCategory("Kitchen", nil, 0)

	tiffin := newTestProduct(t, seller.ID)
	tiffin.CategoryID = &kitchen.ID
	tiffin.Images = []string{"products/a/1.jpg", "products/a/2.jpg"}
	loose := newTestProduct(t, seller.ID)
	loose.Name = "Loose Spoon"

	products := new(MockProductRepository)
	products.On("FindAll", ctx, mock.MatchedBy(func(f catalog.ProductFilter) bool {
		return f.Status != nil && *f.Status == catalog.ProductStatusActive && f.Page == 1
	})).Return([]*catalog.Product{tiffin, loose}, int64(2), nil)
	categories := new(MockCategoryRepository)
	categories.On("FindAll", ctx).Return([]*catalog.Category{kitchen}, nil)
	users := new(MockUserRepository)
	users.On("FindByIDs", ctx, []uuid.UUID{seller.ID}).Return([]*identity.User{seller}, nil)

	storage := new(MockObjectStorage)
	storage.On("PublicURL", "products/a/1.jpg").Return("")
	storage.On("GenerateDownloadURL", ctx, "products/a/1.jpg", 7*24*time.Hour).Return("https://s3/img", time.Now(), nil)
	storage.On("Upload", ctx, mock.MatchedBy(func(key string) bool {
		return len(key) > len("catalogs/2026/10/") && key[:len("catalogs/2026/10/")] == "catalogs/2026/10/"
	}), []byte("%PDF-1.4"), "application/pdf").Return(nil)
	storage.On("GenerateDownloadURL", ctx, mock.AnythingOfType("string"), 7*24*time.Hour).Return("https://s3/catalog.pdf", time.Now(), nil)

	tpl := &fakeTemplate{}
	svc := NewCatalogPDFService(products, categories, users, storage, &fakeRenderer{}, tpl, CatalogPDFConfig{StoreName: "D2BCart"}, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC) }

	result, err := svc.Generate(ctx, CatalogPDFRequest{})

	require.NoError(t, err)
	assert.Equal(t, "https://s3/catalog.pdf", result.URL)
	assert.Equal(t, 2, result.ProductCount)
	assert.Equal(t, 8, result.SizeBytes)

	require.Len(t, tpl.doc.Sections, 2)
	assert.Equal(t, "Kitchen", tpl.doc.Sections[0].Category)
	assert.Equal(t, "Ravi Steel", tpl.doc.Sections[0].Items[0].Manufacturer)
	assert.Equal(t, "https://s3/img", tpl.doc.Sections[0].Items[0].ImageURL)
	assert.Equal(t, uncategorized, tpl.doc.Sections[1].Category)
	assert.Equal(t, "Wholesale Catalog", tpl.doc.Title)
	storage.AssertExpectations(t)
}

func TestCatalogPDFService_Generate_Empty(t *testing.T) {
	ctx := context.Background()
	products := new(MockProductRepository)
	products.On("FindAll", ctx, mock.Anything).Return([]*catalog.Product{}, int64(0), nil)

	svc := NewCatalogPDFService(products, new(MockCategoryRepository), new(MockUserRepository), new(MockObjectStorage), &fakeRenderer{}, &fakeTemplate{}, CatalogPDFConfig{}, zap.NewNop())
	_, err := svc.Generate(ctx, CatalogPDFRequest{})

	assert.Equal(t, "EMPTY_CATALOG", domainCode(t, err))
}
