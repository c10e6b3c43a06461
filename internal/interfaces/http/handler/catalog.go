package handler

import (
	"github.com/d2bcart/backend/internal/application/catalog"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CatalogHandler serves the public catalog
type CatalogHandler struct {
	BaseHandler
	products   *catalog.ProductService
	categories *catalog.CategoryService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(products *catalog.ProductService, categories *catalog.CategoryService) *CatalogHandler {
	return &CatalogHandler{products: products, categories: categories}
}

// ListProducts lists active products
// @Summary     Browse active products
// @Description Retailers see wholesale prices with platform margin applied. Anonymous callers see prices hidden.
// @Tags        catalog
// @Produce     json
// @Param       query query catalog.ProductQuery false "Filters"
// @Success     200 {object} dto.Response{data=[]catalog.ProductResponse,meta=dto.Meta}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Router      /catalog/products [get]
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	q, ok := h.bindProductQuery(c)
	if !ok {
		return
	}
	page, err := h.products.List(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(&h.BaseHandler, c, page)
}

// GetProduct returns an active product by ID or slug
// @Summary     Get a product by ID or slug
// @Tags        catalog
// @Produce     json
// @Param       ref path string true "Product ID or slug"
// @Success     200 {object} dto.Response{data=catalog.ProductResponse}
// @Failure     404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Router      /catalog/products/{ref} [get]
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	product, err := h.products.Get(c.Request.Context(), c.Param("ref"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// ListCategories returns the category tree
// @Summary     Get the category tree
// @Tags        catalog
// @Produce     json
// @Success     200 {object} dto.Response{data=[]catalog.CategoryResponse}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Router      /catalog/categories [get]
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	tree, err := h.categories.Tree(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tree)
}

// bindProductQuery reads the listing filters shared by every product list
func (h *BaseHandler) bindProductQuery(c *gin.Context) (catalog.ProductQuery, bool) {
	var q catalog.ProductQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return q, false
	}
	var ok bool
	if q.CategoryID, ok = h.OptionalUUIDQuery(c, "category_id"); !ok {
		return q, false
	}
	if q.ManufacturerID, ok = h.OptionalUUIDQuery(c, "manufacturer_id"); !ok {
		return q, false
	}
	if q.MinPrice != nil && q.MaxPrice != nil && q.MinPrice.GreaterThan(*q.MaxPrice) {
		h.BadRequest(c, "min_price must not exceed max_price")
		return q, false
	}
	if q.MinPrice != nil && q.MinPrice.LessThan(decimal.Zero) {
		h.BadRequest(c, "min_price must not be negative")
		return q, false
	}
	return q, true
}
