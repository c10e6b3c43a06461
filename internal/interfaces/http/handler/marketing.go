package handler

import (
	"github.com/d2bcart/backend/internal/application/marketing"
	"github.com/gin-gonic/gin"
)

const defaultConversationLimit = 50

// MarketingHandler serves the WhatsApp inbox, campaigns and attribution
type MarketingHandler struct {
	BaseHandler
	conversations *marketing.ConversationService
	campaigns     *marketing.CampaignService
	attribution   *marketing.AttributionService
}

// NewMarketingHandler creates a new marketing handler
func NewMarketingHandler(
	conversations *marketing.ConversationService,
	campaigns *marketing.CampaignService,
	attribution *marketing.AttributionService,
) *MarketingHandler {
	return &MarketingHandler{
		conversations: conversations,
		campaigns:     campaigns,
		attribution:   attribution,
	}
}

// ListContacts returns WhatsApp contacts
// @Summary     List WhatsApp contacts
// @Tags        marketing
// @Produce     json
// @Param       query query marketing.ContactQuery false "Filters"
// @Success     200 {object} dto.Response{data=[]marketing.ContactResponse,meta=dto.Meta}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /admin/marketing/contacts [get]
func (h *MarketingHandler) ListContacts(c *gin.Context) {
	var q marketing.ContactQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	page, err := h.conversations.ListContacts(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(&h.BaseHandler, c, page)
}

// Conversation returns the latest messages exchanged with a contact
// @Summary     Get a contact's messages
// @Tags        marketing
// @Produce     json
// @Param       id path string true "Contact ID" format(uuid)
// @Param       limit query int false "Messages to return" default(50)
// @Success     200 {object} dto.Response{data=[]marketing.MessageResponse}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /admin/marketing/contacts/{id}/messages [get]
func (h *MarketingHandler) Conversation(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	limit := queryInt(c, "limit", defaultConversationLimit)
	if limit <= 0 || limit > 500 {
		limit = defaultConversationLimit
	}
	messages, err := h.conversations.Conversation(c.Request.Context(), id, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, messages)
}

// SendManual sends an operator message and takes over the conversation
// @Summary     Reply as a human agent
// @Description Pauses the auto-responder for the contact until the takeover cooldown passes.
// @Tags        marketing
// @Accept      json
// @Produce     json
// @Param       id path string true "Contact ID" format(uuid)
// @Param       request body marketing.ManualMessageRequest true "Message"
// @Success     200 {object} dto.Response{data=marketing.ContactResponse}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     502 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /admin/marketing/contacts/{id}/messages [post]
func (h *MarketingHandler) SendManual(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req marketing.ManualMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	contact, err := h.conversations.SendManual(c.Request.Context(), id, req.Text)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, contact)
}

// ReleaseTakeover hands the conversation back to the assistant
// @Summary     Hand a contact back to the auto-responder
// @Tags        marketing
// @Produce     json
// @Param       id path string true "Contact ID" format(uuid)
// @Success     200 {object} dto.Response{data=marketing.ContactResponse}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /admin/marketing/contacts/{id}/release [post]
func (h *MarketingHandler) ReleaseTakeover(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	contact, err := h.conversations.ReleaseTakeover(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, contact)
}

// ShareCatalog renders a catalog PDF and sends it to a contact
// @Summary     Send a catalog PDF to a contact
// @Tags        marketing
// @Accept      json
// @Produce     json
// @Param       id path string true "Contact ID" format(uuid)
// @Param       request body marketing.ShareCatalogRequest true "Selection"
// @Success     200 {object} dto.Response{data=catalog.CatalogPDFResult}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     502 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     503 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /admin/marketing/contacts/{id}/catalog [post]
func (h *MarketingHandler) ShareCatalog(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req marketing.ShareCatalogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	result, err := h.conversations.ShareCatalog(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// CreateCampaign creates a broadcast, scheduling it when a time is given
// @Summary     Create a broadcast campaign
// @Tags        marketing
// @Accept      json
// @Produce     json
// @Param       request body marketing.CampaignRequest true "Campaign"
// @Success     201 {object} dto.Response{data=marketing.CampaignResponse}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /admin/marketing/campaigns [post]
func (h *MarketingHandler) CreateCampaign(c *gin.Context) {
	var req marketing.CampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	campaign, err := h.campaigns.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, campaign)
}

// ListCampaigns pages through campaigns, newest first
// @Summary     List campaigns
// @Tags        marketing
// @Produce     json
// @Param       page query int false "Page" default(1)
// @Param       page_size query int false "Page size" default(20)
// @Success     200 {object} dto.Response{data=[]marketing.CampaignResponse,meta=dto.Meta}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /admin/marketing/campaigns [get]
func (h *MarketingHandler) ListCampaigns(c *gin.Context) {
	page, err := h.campaigns.List(c.Request.Context(), queryInt(c, "page", 1), queryInt(c, "page_size", 20))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(&h.BaseHandler, c, page)
}

// GetCampaign returns one campaign with its counters
// @Summary     Get a campaign
// @Tags        marketing
// @Produce     json
// @Param       id path string true "Campaign ID" format(uuid)
// @Success     200 {object} dto.Response{data=marketing.CampaignResponse}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /admin/marketing/campaigns/{id} [get]
func (h *MarketingHandler) GetCampaign(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	campaign, err := h.campaigns.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, campaign)
}

// ScheduleCampaign sets when a draft campaign goes out
// @Summary     Schedule a campaign
// @Tags        marketing
// @Accept      json
// @Produce     json
// @Param       id path string true "Campaign ID" format(uuid)
// @Param       request body marketing.ScheduleRequest true "Send time"
// @Success     200 {object} dto.Response{data=marketing.CampaignResponse}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /admin/marketing/campaigns/{id}/schedule [post]
func (h *MarketingHandler) ScheduleCampaign(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req marketing.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	campaign, err := h.campaigns.Schedule(c.Request.Context(), id, req.At)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, campaign)
}

// CancelCampaign cancels a campaign that has not started
// @Summary     Cancel a campaign
// @Tags        marketing
// @Produce     json
// @Param       id path string true "Campaign ID" format(uuid)
// @Success     200 {object} dto.Response{data=marketing.CampaignResponse}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /admin/marketing/campaigns/{id}/cancel [post]
func (h *MarketingHandler) CancelCampaign(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	campaign, err := h.campaigns.Cancel(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, campaign)
}

// Attribution reports orders and revenue per UTM source
// @Summary     Orders and revenue by marketing source
// @Tags        marketing
// @Produce     json
// @Param       query query marketing.ReportQuery false "Period"
// @Success     200 {object} dto.Response{data=marketing.AttributionReport}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /admin/marketing/attribution [get]
func (h *MarketingHandler) Attribution(c *gin.Context) {
	var q marketing.ReportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	report, err := h.attribution.Report(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}
