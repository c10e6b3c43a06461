package handler

import (
	"github.com/d2bcart/backend/internal/application/cart"
	"github.com/gin-gonic/gin"
)

// CartHandler serves the retailer's server-side cart
type CartHandler struct {
	BaseHandler
	carts *cart.CartService
}

// NewCartHandler creates a new cart handler
func NewCartHandler(carts *cart.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

// Get returns the priced cart
// @Summary     Get the priced cart
// @Tags        cart
// @Produce     json
// @Success     200 {object} dto.Response{data=cart.View}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /cart [get]
func (h *CartHandler) Get(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	view, err := h.carts.Get(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// AddItem adds a product; quantity 0 means one MOQ
// @Summary     Add a product to the cart
// @Description A zero quantity adds the product at its minimum order quantity.
// @Tags        cart
// @Accept      json
// @Produce     json
// @Param       request body cart.ItemRequest true "Cart line"
// @Success     200 {object} dto.Response{data=cart.View}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	var req cart.ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	view, err := h.carts.AddItem(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// UpdateItem sets a line's quantity; 0 removes it
// @Summary     Set a cart line quantity
// @Description A zero quantity removes the line.
// @Tags        cart
// @Accept      json
// @Produce     json
// @Param       productId path string true "Product ID" format(uuid)
// @Param       request body cart.ItemRequest true "Only quantity is read"
// @Success     200 {object} dto.Response{data=cart.View}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /cart/items/{productId} [put]
func (h *CartHandler) UpdateItem(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	productID, ok := h.ParseID(c, "productId")
	if !ok {
		return
	}
	var body struct {
		Quantity *int `json:"quantity" binding:"required,min=0"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BindError(c, err)
		return
	}
	view, err := h.carts.UpdateItem(c.Request.Context(), userID, cart.ItemRequest{ProductID: productID, Quantity: *body.Quantity})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// RemoveItem drops a line
// @Summary     Remove a cart line
// @Tags        cart
// @Produce     json
// @Param       productId path string true "Product ID" format(uuid)
// @Success     200 {object} dto.Response{data=cart.View}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /cart/items/{productId} [delete]
func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	productID, ok := h.ParseID(c, "productId")
	if !ok {
		return
	}
	view, err := h.carts.RemoveItem(c.Request.Context(), userID, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// Clear empties the cart
// @Summary     Empty the cart
// @Tags        cart
// @Success     204 "No Content"
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /cart [delete]
func (h *CartHandler) Clear(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	if err := h.carts.Clear(c.Request.Context(), userID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Sync merges a guest cart into the server cart
// @Summary     Merge a guest cart
// @Description Folds a cart kept on the client into the server cart and reports dropped or adjusted lines.
// @Tags        cart
// @Accept      json
// @Produce     json
// @Param       request body cart.SyncRequest true "Guest cart lines"
// @Success     200 {object} dto.Response{data=cart.SyncResponse}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /cart/sync [post]
func (h *CartHandler) Sync(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	var req cart.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	result, err := h.carts.Sync(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
