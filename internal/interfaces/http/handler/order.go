package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/d2bcart/backend/internal/application/shipping"
	"github.com/d2bcart/backend/internal/application/trade"
	"github.com/gin-gonic/gin"
)

// OrderHandler serves the order lifecycle for every role. The caller's role
// from the token decides which orders are visible.
type OrderHandler struct {
	BaseHandler
	orders   *trade.OrderService
	shipping *shipping.Service
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders *trade.OrderService, shipping *shipping.Service) *OrderHandler {
	return &OrderHandler{orders: orders, shipping: shipping}
}

// List returns the caller's orders: placed for retailers, incoming for
// manufacturers, all for admins
// @Summary     List orders visible to the caller
// @Tags        orders
// @Produce     json
// @Param       query query trade.OrderQuery false "Filters"
// @Success     200 {object} dto.Response{data=[]trade.OrderResponse,meta=dto.Meta}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /orders [get]
// @Router      /manufacturer/orders [get]
// @Router      /admin/orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	actor, ok := h.CurrentActor(c)
	if !ok {
		return
	}
	var q trade.OrderQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	page, err := h.orders.List(c.Request.Context(), actor, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(&h.BaseHandler, c, page)
}

// Get returns an order the caller may see
// @Summary     Get an order
// @Tags        orders
// @Produce     json
// @Param       id path string true "Order ID" format(uuid)
// @Success     200 {object} dto.Response{data=trade.OrderResponse}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /orders/{id} [get]
// @Router      /admin/orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	actor, ok := h.CurrentActor(c)
	if !ok {
		return
	}
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Cancel cancels an order with a reason. Retailers may only cancel placed
// orders.
// @Summary     Cancel an order
// @Description Retailers may cancel until the manufacturer confirms. Stock is restored.
// @Tags        orders
// @Accept      json
// @Produce     json
// @Param       id path string true "Order ID" format(uuid)
// @Param       request body trade.CancelRequest true "Reason"
// @Success     200 {object} dto.Response{data=trade.OrderResponse}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *gin.Context) {
	actor, ok := h.CurrentActor(c)
	if !ok {
		return
	}
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req trade.CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	order, err := h.orders.Cancel(c.Request.Context(), actor, id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Track returns the shipment view of an order
// @Summary     Get shipment tracking
// @Tags        orders
// @Produce     json
// @Param       id path string true "Order ID" format(uuid)
// @Success     200 {object} dto.Response{data=shipping.TrackingResponse}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /orders/{id}/tracking [get]
func (h *OrderHandler) Track(c *gin.Context) {
	actor, ok := h.CurrentActor(c)
	if !ok {
		return
	}
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	tracking, err := h.shipping.Track(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tracking)
}

// Confirm accepts an incoming order
// @Summary     Confirm an order
// @Tags        orders
// @Produce     json
// @Param       id path string true "Order ID" format(uuid)
// @Success     200 {object} dto.Response{data=trade.OrderResponse}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /manufacturer/orders/{id}/confirm [post]
func (h *OrderHandler) Confirm(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.Confirm(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// MarkPacked marks a confirmed order ready for pickup
// @Summary     Mark an order packed
// @Tags        orders
// @Produce     json
// @Param       id path string true "Order ID" format(uuid)
// @Success     200 {object} dto.Response{data=trade.OrderResponse}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /manufacturer/orders/{id}/pack [post]
func (h *OrderHandler) MarkPacked(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.MarkPacked(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Ship books a courier for a packed order
// @Summary     Book a courier for a packed order
// @Description Books the courier picked by the configured strategy. A retry reuses a booking that was already stored.
// @Tags        orders
// @Produce     json
// @Param       id path string true "Order ID" format(uuid)
// @Success     200 {object} dto.Response{data=shipping.TrackingResponse}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     502 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /manufacturer/orders/{id}/ship [post]
// @Router      /admin/orders/{id}/ship [post]
func (h *OrderHandler) Ship(c *gin.Context) {
	actor, ok := h.CurrentActor(c)
	if !ok {
		return
	}
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	tracking, err := h.shipping.Ship(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tracking)
}

// UpdateStatus moves an order by hand
// @Summary     Override an order status
// @Tags        orders
// @Accept      json
// @Produce     json
// @Param       id path string true "Order ID" format(uuid)
// @Param       request body trade.StatusUpdateRequest true "Target status"
// @Success     200 {object} dto.Response{data=trade.OrderResponse}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /admin/orders/{id}/status [patch]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req trade.StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	order, err := h.orders.UpdateStatus(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Export downloads the filtered orders as a workbook
// @Summary     Export orders as a spreadsheet
// @Tags        orders
// @Produce     application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param       query query trade.OrderQuery false "Filters"
// @Success     200 {file} binary
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /admin/orders/export [get]
func (h *OrderHandler) Export(c *gin.Context) {
	var q trade.OrderQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	data, err := h.orders.Export(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	filename := fmt.Sprintf("d2bcart-orders-%s.xlsx", time.Now().Format("20060102-1504"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

// Rates lists serviceable couriers between two pincodes
// @Summary     Quote courier rates
// @Tags        shipping
// @Produce     json
// @Param       query query shipping.RatesRequest true "Parcel"
// @Success     200 {object} dto.Response{data=shipping.RatesResponse}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     502 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /shipping/rates [get]
func (h *OrderHandler) Rates(c *gin.Context) {
	var req shipping.RatesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}
	rates, err := h.shipping.Rates(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rates)
}
