package handler

import (
	"github.com/d2bcart/backend/internal/application/trade"
	"github.com/gin-gonic/gin"
)

// CheckoutHandler quotes carts and starts online payments
type CheckoutHandler struct {
	BaseHandler
	checkout *trade.CheckoutService
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkout *trade.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

// Quote prices the cart with GST and shipping for both payment modes
// @Summary     Price the cart for checkout
// @Tags        checkout
// @Produce     json
// @Param       query query trade.QuoteRequest false "Payment option"
// @Success     200 {object} dto.Response{data=trade.QuoteResponse}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /checkout/quote [get]
func (h *CheckoutHandler) Quote(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	var req trade.QuoteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}
	quote, err := h.checkout.Quote(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quote)
}

// Create opens a gateway order for the cart
// @Summary     Start checkout
// @Description Snapshots the cart into a payment attempt and opens a gateway order.
// @Tags        checkout
// @Accept      json
// @Produce     json
// @Param       request body trade.CheckoutRequest true "Checkout options"
// @Success     201 {object} dto.Response{data=trade.CheckoutResponse}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /checkout [post]
func (h *CheckoutHandler) Create(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	var req trade.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	resp, err := h.checkout.CreateCheckout(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Verify confirms a payment reported by the checkout widget and places the
// orders
// @Summary     Confirm a client-side payment
// @Tags        checkout
// @Accept      json
// @Produce     json
// @Param       request body trade.VerifyPaymentRequest true "Gateway payment result"
// @Success     200 {object} dto.Response{data=trade.PaymentResult}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /checkout/verify [post]
func (h *CheckoutHandler) Verify(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	var req trade.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	result, err := h.checkout.VerifyClientPayment(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
