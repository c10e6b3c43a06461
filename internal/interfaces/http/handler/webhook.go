package handler

import (
	"io"
	"net/http"

	"github.com/d2bcart/backend/internal/application/marketing"
	"github.com/d2bcart/backend/internal/application/shipping"
	"github.com/d2bcart/backend/internal/application/trade"
	"github.com/d2bcart/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// Maximum webhook payload size. Gateway and courier payloads are small;
// WhatsApp batches stay well below this.
const maxWebhookPayloadSize = 1 << 20

// WebhookResponse acknowledges a webhook delivery
type WebhookResponse struct {
	Status string `json:"status"`
}

// WebhookHandler receives callbacks from Razorpay, Shiprocket and WhatsApp.
// These endpoints are unauthenticated; each provider's signature or token is
// checked by the service before anything is applied.
type WebhookHandler struct {
	BaseHandler
	checkout      *trade.CheckoutService
	shipping      *shipping.Service
	conversations *marketing.ConversationService
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(
	checkout *trade.CheckoutService,
	shippingSvc *shipping.Service,
	conversations *marketing.ConversationService,
) *WebhookHandler {
	return &WebhookHandler{
		checkout:      checkout,
		shipping:      shippingSvc,
		conversations: conversations,
	}
}

// readPayload reads the raw body; signatures are computed over the exact bytes
func (h *WebhookHandler) readPayload(c *gin.Context) ([]byte, bool) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookPayloadSize+1))
	if err != nil {
		h.BadRequest(c, "Failed to read request body")
		return nil, false
	}
	if len(payload) > maxWebhookPayloadSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "Payload too large")
		return nil, false
	}
	return payload, true
}

// Razorpay handles payment gateway events
// @Summary     Receive Razorpay events
// @Description Signed with the webhook secret. Redelivered events are acknowledged without reprocessing.
// @Tags        webhooks
// @Accept      json
// @Produce     json
// @Param       X-Razorpay-Signature header string true "HMAC-SHA256 of the body"
// @Param       X-Razorpay-Event-Id header string false "Event ID used for deduplication"
// @Param       payload body object true "Razorpay event"
// @Success     200 {object} WebhookResponse
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     413 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Router      /webhooks/razorpay [post]
func (h *WebhookHandler) Razorpay(c *gin.Context) {
	payload, ok := h.readPayload(c)
	if !ok {
		return
	}
	outcome, err := h.checkout.HandleWebhook(
		c.Request.Context(),
		payload,
		c.GetHeader("X-Razorpay-Signature"),
		c.GetHeader("X-Razorpay-Event-Id"),
	)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, WebhookResponse{Status: outcome})
}

// Shiprocket handles courier tracking updates
// @Summary     Receive Shiprocket tracking updates
// @Tags        webhooks
// @Accept      json
// @Produce     json
// @Param       x-api-key header string true "Shared webhook token"
// @Param       payload body object true "Tracking event"
// @Success     200 {object} WebhookResponse
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     413 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Router      /webhooks/shiprocket [post]
func (h *WebhookHandler) Shiprocket(c *gin.Context) {
	payload, ok := h.readPayload(c)
	if !ok {
		return
	}
	outcome, err := h.shipping.HandleTrackingWebhook(c.Request.Context(), payload, c.GetHeader("x-api-key"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, WebhookResponse{Status: outcome})
}

// VerifyWhatsApp answers the Meta subscription handshake
// @Summary     WhatsApp subscription handshake
// @Tags        webhooks
// @Produce     plain
// @Param       hub.mode query string true "Always subscribe"
// @Param       hub.verify_token query string true "Configured verify token"
// @Param       hub.challenge query string true "Echoed back on success"
// @Success     200 {string} string "The challenge"
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Router      /webhooks/whatsapp [get]
func (h *WebhookHandler) VerifyWhatsApp(c *gin.Context) {
	challenge, ok := h.conversations.VerifySubscription(
		c.Query("hub.mode"),
		c.Query("hub.verify_token"),
		c.Query("hub.challenge"),
	)
	if !ok {
		h.Forbidden(c, "Verification failed")
		return
	}
	c.String(http.StatusOK, challenge)
}

// WhatsApp handles inbound messages and delivery statuses
// @Summary     Receive WhatsApp messages and statuses
// @Tags        webhooks
// @Accept      json
// @Produce     json
// @Param       X-Hub-Signature-256 header string true "sha256= HMAC of the body"
// @Param       payload body object true "Cloud API notification"
// @Success     200 {object} WebhookResponse
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     413 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Router      /webhooks/whatsapp [post]
func (h *WebhookHandler) WhatsApp(c *gin.Context) {
	payload, ok := h.readPayload(c)
	if !ok {
		return
	}
	outcome, err := h.conversations.HandleWebhook(c.Request.Context(), payload, c.GetHeader("X-Hub-Signature-256"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, WebhookResponse{Status: outcome})
}
