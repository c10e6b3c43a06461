package handler

import (
	"github.com/d2bcart/backend/internal/application/payout"
	"github.com/gin-gonic/gin"
)

// PayoutHandler serves manufacturer settlements
type PayoutHandler struct {
	BaseHandler
	payouts *payout.Service
}

// NewPayoutHandler creates a new payout handler
func NewPayoutHandler(payouts *payout.Service) *PayoutHandler {
	return &PayoutHandler{payouts: payouts}
}

// ListMine returns the calling manufacturer's payouts
// @Summary     List own payouts
// @Tags        payouts
// @Produce     json
// @Param       query query payout.Query false "Filters"
// @Success     200 {object} dto.Response{data=[]payout.Response,meta=dto.Meta}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /manufacturer/payouts [get]
func (h *PayoutHandler) ListMine(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	var q payout.Query
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	page, err := h.payouts.ListMine(c.Request.Context(), userID, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(&h.BaseHandler, c, page)
}

// MySummary totals the calling manufacturer's payouts by status
// @Summary     Summarise own payouts
// @Tags        payouts
// @Produce     json
// @Success     200 {object} dto.Response{data=payout.SummaryResponse}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /manufacturer/payouts/summary [get]
func (h *PayoutHandler) MySummary(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	summary, err := h.payouts.Summary(c.Request.Context(), &userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// List returns payouts across manufacturers
// @Summary     List payouts
// @Tags        payouts
// @Produce     json
// @Param       query query payout.Query false "Filters"
// @Success     200 {object} dto.Response{data=[]payout.Response,meta=dto.Meta}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /admin/payouts [get]
func (h *PayoutHandler) List(c *gin.Context) {
	var q payout.Query
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	var ok bool
	if q.ManufacturerID, ok = h.OptionalUUIDQuery(c, "manufacturer_id"); !ok {
		return
	}
	page, err := h.payouts.List(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(&h.BaseHandler, c, page)
}

// Summary totals payouts by status, optionally for one manufacturer
// @Summary     Summarise payouts
// @Tags        payouts
// @Produce     json
// @Param       manufacturer_id query string false "Limit to one manufacturer" format(uuid)
// @Success     200 {object} dto.Response{data=payout.SummaryResponse}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /admin/payouts/summary [get]
func (h *PayoutHandler) Summary(c *gin.Context) {
	mfrID, ok := h.OptionalUUIDQuery(c, "manufacturer_id")
	if !ok {
		return
	}
	summary, err := h.payouts.Summary(c.Request.Context(), mfrID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// MarkPaid records the bank transfer reference
// @Summary     Record a bank transfer
// @Tags        payouts
// @Accept      json
// @Produce     json
// @Param       id path string true "Payout ID" format(uuid)
// @Param       request body payout.MarkPaidRequest true "Transfer reference"
// @Success     200 {object} dto.Response{data=payout.Response}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /admin/payouts/{id}/paid [post]
func (h *PayoutHandler) MarkPaid(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req payout.MarkPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	resp, err := h.payouts.MarkPaid(c.Request.Context(), id, req.UTR)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Hold freezes a payout with a reason
// @Summary     Hold a payout
// @Tags        payouts
// @Accept      json
// @Produce     json
// @Param       id path string true "Payout ID" format(uuid)
// @Param       request body payout.HoldRequest true "Reason"
// @Success     200 {object} dto.Response{data=payout.Response}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /admin/payouts/{id}/hold [post]
func (h *PayoutHandler) Hold(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req payout.HoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	resp, err := h.payouts.Hold(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Release returns a held payout to eligible
// @Summary     Release a held payout
// @Tags        payouts
// @Produce     json
// @Param       id path string true "Payout ID" format(uuid)
// @Success     200 {object} dto.Response{data=payout.Response}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /admin/payouts/{id}/release [post]
func (h *PayoutHandler) Release(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.payouts.Release(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
