package handler

import (
	"net/http"
	"path/filepath"

	"github.com/d2bcart/backend/internal/application/catalog"
	"github.com/d2bcart/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// StockRequest sets the units on hand
type StockRequest struct {
	Stock *int `json:"stock" binding:"required,min=0"`
}

// ImageKeyRequest names an uploaded image object
type ImageKeyRequest struct {
	Key string `json:"key" binding:"required,max=300"`
}

// ManufacturerProductHandler manages a manufacturer's own listings
type ManufacturerProductHandler struct {
	BaseHandler
	products    *catalog.ProductService
	importer    *catalog.ProductImportService
	maxUploadMB int64
}

// NewManufacturerProductHandler creates a new handler; maxUploadMB bounds
// bulk import files
func NewManufacturerProductHandler(products *catalog.ProductService, importer *catalog.ProductImportService, maxUploadMB int64) *ManufacturerProductHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = 5
	}
	return &ManufacturerProductHandler{products: products, importer: importer, maxUploadMB: maxUploadMB}
}

// List returns the caller's products in every status
// @Summary     List own products
// @Tags        manufacturer-products
// @Produce     json
// @Param       query query catalog.ProductQuery false "Filters"
// @Success     200 {object} dto.Response{data=[]catalog.ProductResponse,meta=dto.Meta}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /manufacturer/products [get]
func (h *ManufacturerProductHandler) List(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	q, ok := h.bindProductQuery(c)
	if !ok {
		return
	}
	page, err := h.products.ListOwn(c.Request.Context(), userID, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(&h.BaseHandler, c, page)
}

// Get returns one of the caller's products with cost fields
// @Summary     Get an own product
// @Tags        manufacturer-products
// @Produce     json
// @Param       id path string true "Product ID" format(uuid)
// @Success     200 {object} dto.Response{data=catalog.ProductResponse}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /manufacturer/products/{id} [get]
func (h *ManufacturerProductHandler) Get(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	product, err := h.products.GetOwn(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Create adds a draft product
// @Summary     Create a draft product
// @Tags        manufacturer-products
// @Accept      json
// @Produce     json
// @Param       request body catalog.ProductRequest true "Product"
// @Success     201 {object} dto.Response{data=catalog.ProductResponse}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /manufacturer/products [post]
func (h *ManufacturerProductHandler) Create(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	var req catalog.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	product, err := h.products.Create(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// Update edits a product
// @Summary     Update a product
// @Tags        manufacturer-products
// @Accept      json
// @Produce     json
// @Param       id path string true "Product ID" format(uuid)
// @Param       request body catalog.ProductRequest true "Product"
// @Success     200 {object} dto.Response{data=catalog.ProductResponse}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /manufacturer/products/{id} [put]
func (h *ManufacturerProductHandler) Update(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req catalog.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	product, err := h.products.Update(c.Request.Context(), userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// UpdateStock sets the units on hand
// @Summary     Set stock on hand
// @Tags        manufacturer-products
// @Accept      json
// @Produce     json
// @Param       id path string true "Product ID" format(uuid)
// @Param       request body StockRequest true "Stock"
// @Success     200 {object} dto.Response{data=catalog.ProductResponse}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /manufacturer/products/{id}/stock [patch]
func (h *ManufacturerProductHandler) UpdateStock(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req StockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	product, err := h.products.UpdateStock(c.Request.Context(), userID, id, *req.Stock)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Submit sends a product for approval
// @Summary     Submit a product for approval
// @Tags        manufacturer-products
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
// @Router      /manufacturer/products/{id}/submit [post]
func (h *ManufacturerProductHandler) Submit(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	product, err := h.products.Submit(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Archive withdraws a product
// @Summary     Archive a product
// @Tags        manufacturer-products
// @Param       id path string true "Product ID" format(uuid)
// @Success     204 "No Content"
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /manufacturer/products/{id} [delete]
func (h *ManufacturerProductHandler) Archive(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.products.Archive(c.Request.Context(), userID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// RequestImageUpload returns a presigned PUT URL
// @Summary     Get a presigned image upload URL
// @Tags        manufacturer-products
// @Accept      json
// @Produce     json
// @Param       id path string true "Product ID" format(uuid)
// @Param       request body catalog.ImageUploadRequest true "Image metadata"
// @Success     201 {object} dto.Response{data=catalog.ImageUploadResponse}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     503 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /manufacturer/products/{id}/images/upload-url [post]
func (h *ManufacturerProductHandler) RequestImageUpload(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req catalog.ImageUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	upload, err := h.products.RequestImageUpload(c.Request.Context(), userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, upload)
}

// AttachImage adds an uploaded image to the product
// @Summary     Attach an uploaded image
// @Tags        manufacturer-products
// @Accept      json
// @Produce     json
// @Param       id path string true "Product ID" format(uuid)
// @Param       request body ImageKeyRequest true "Object key"
// @Success     200 {object} dto.Response{data=catalog.ProductResponse}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /manufacturer/products/{id}/images [post]
func (h *ManufacturerProductHandler) AttachImage(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req ImageKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	product, err := h.products.AttachImage(c.Request.Context(), userID, id, req.Key)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// RemoveImage detaches an image
// @Summary     Remove a product image
// @Tags        manufacturer-products
// @Produce     json
// @Param       id path string true "Product ID" format(uuid)
// @Param       key query string true "Object key"
// @Success     200 {object} dto.Response{data=catalog.ProductResponse}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /manufacturer/products/{id}/images [delete]
func (h *ManufacturerProductHandler) RemoveImage(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	key := c.Query("key")
	if key == "" {
		h.BadRequest(c, "key is required")
		return
	}
	product, err := h.products.RemoveImage(c.Request.Context(), userID, id, key)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// ImportTemplate downloads the bulk upload workbook
// @Summary     Download the bulk upload template
// @Tags        manufacturer-products
// @Produce     application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success     200 {file} binary
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /manufacturer/products/import/template [get]
func (h *ManufacturerProductHandler) ImportTemplate(c *gin.Context) {
	data, err := h.importer.Template()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="d2bcart-products-template.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

// Import creates or updates products from a CSV or XLSX upload
// @Summary     Bulk import products
// @Tags        manufacturer-products
// @Accept      multipart/form-data
// @Produce     json
// @Param       file formData file true "CSV or XLSX file"
// @Param       conflict_mode formData string false "What to do with existing SKUs" Enums(skip, update) default(skip)
// @Success     200 {object} dto.Response{data=catalog.ImportResult}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     413 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /manufacturer/products/import [post]
func (h *ManufacturerProductHandler) Import(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "file is required")
		return
	}
	if header.Size > h.maxUploadMB<<20 {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "File is too large")
		return
	}
	switch filepath.Ext(header.Filename) {
	case ".csv", ".xlsx", ".CSV", ".XLSX":
	default:
		h.BadRequest(c, "Upload a .csv or .xlsx file")
		return
	}

	f, err := header.Open()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer f.Close()

	mode := catalog.ConflictMode(c.DefaultPostForm("conflict_mode", string(catalog.ConflictModeSkip)))
	result, err := h.importer.Import(c.Request.Context(), userID, f, header.Filename, mode)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
