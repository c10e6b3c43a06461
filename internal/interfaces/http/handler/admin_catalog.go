package handler

import (
	"github.com/d2bcart/backend/internal/application/catalog"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// RejectRequest carries a moderation reason
type RejectRequest struct {
	Reason string `json:"reason" binding:"required,min=3,max=500"`
}

// MarginRequest sets a product's platform margin
type MarginRequest struct {
	MarginPercent decimal.Decimal `json:"margin_percent" binding:"required"`
}

// AdminCatalogHandler moderates products and manages categories
type AdminCatalogHandler struct {
	BaseHandler
	products   *catalog.ProductService
	categories *catalog.CategoryService
	pdf        *catalog.CatalogPDFService
}

// NewAdminCatalogHandler creates a new handler. pdf may be nil when catalog
// printing is disabled.
func NewAdminCatalogHandler(products *catalog.ProductService, categories *catalog.CategoryService, pdf *catalog.CatalogPDFService) *AdminCatalogHandler {
	return &AdminCatalogHandler{products: products, categories: categories, pdf: pdf}
}

// ListProducts lists products in any status
// @Summary     List products in any status
// @Tags        admin-catalog
// @Produce     json
// @Param       query query catalog.ProductQuery false "Filters"
// @Success     200 {object} dto.Response{data=[]catalog.ProductResponse,meta=dto.Meta}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /admin/products [get]
func (h *AdminCatalogHandler) ListProducts(c *gin.Context) {
	q, ok := h.bindProductQuery(c)
	if !ok {
		return
	}
	page, err := h.products.AdminList(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(&h.BaseHandler, c, page)
}

// Approve publishes a pending product
// @Summary     Approve a pending product
// @Tags        admin-catalog
// @Produce     json
// @Param       id path string true "Product ID" format(uuid)
// @Success     200 {object} dto.Response{data=catalog.ProductResponse}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /admin/products/{id}/approve [post]
func (h *AdminCatalogHandler) Approve(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	product, err := h.products.Approve(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Reject sends a pending product back with a reason
// @Summary     Reject a pending product
// @Tags        admin-catalog
// @Accept      json
// @Produce     json
// @Param       id path string true "Product ID" format(uuid)
// @Param       request body RejectRequest true "Reason"
// @Success     200 {object} dto.Response{data=catalog.ProductResponse}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /admin/products/{id}/reject [post]
func (h *AdminCatalogHandler) Reject(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	product, err := h.products.Reject(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// SetMargin changes the margin and display price
// @Summary     Override a product margin
// @Tags        admin-catalog
// @Accept      json
// @Produce     json
// @Param       id path string true "Product ID" format(uuid)
// @Param       request body MarginRequest true "Margin percent"
// @Success     200 {object} dto.Response{data=catalog.ProductResponse}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /admin/products/{id}/margin [put]
func (h *AdminCatalogHandler) SetMargin(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req MarginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	product, err := h.products.SetMargin(c.Request.Context(), id, req.MarginPercent)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// CreateCategory adds a category
// @Summary     Create a category
// @Tags        admin-catalog
// @Accept      json
// @Produce     json
// @Param       request body catalog.CategoryRequest true "Category"
// @Success     201 {object} dto.Response{data=catalog.CategoryResponse}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /admin/categories [post]
func (h *AdminCatalogHandler) CreateCategory(c *gin.Context) {
	var req catalog.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	category, err := h.categories.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, category)
}

// UpdateCategory renames or moves a category
// @Summary     Update a category
// @Tags        admin-catalog
// @Accept      json
// @Produce     json
// @Param       id path string true "Category ID" format(uuid)
// @Param       request body catalog.CategoryRequest true "Category"
// @Success     200 {object} dto.Response{data=catalog.CategoryResponse}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /admin/categories/{id} [put]
func (h *AdminCatalogHandler) UpdateCategory(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req catalog.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	category, err := h.categories.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, category)
}

// DeleteCategory removes an unused category
// @Summary     Delete a category
// @Tags        admin-catalog
// @Param       id path string true "Category ID" format(uuid)
// @Success     204 "No Content"
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /admin/categories/{id} [delete]
func (h *AdminCatalogHandler) DeleteCategory(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.categories.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// GenerateCatalogPDF prints the selected products and returns a download link
// @Summary     Render a catalog PDF
// @Tags        admin-catalog
// @Accept      json
// @Produce     json
// @Param       request body catalog.CatalogPDFRequest true "Selection"
// @Success     201 {object} dto.Response{data=catalog.CatalogPDFResult}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     503 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /admin/catalog/pdf [post]
func (h *AdminCatalogHandler) GenerateCatalogPDF(c *gin.Context) {
	if h.pdf == nil {
		h.HandleError(c, catalog.ErrCatalogUnavailable)
		return
	}
	var req catalog.CatalogPDFRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	result, err := h.pdf.Generate(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}
