package marketing

import (
	"time"

	"github.com/d2bcart/backend/internal/domain/marketing"
	"github.com/d2bcart/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ContactResponse is a contact in the admin inbox
type ContactResponse struct {
	ID               uuid.UUID  `json:"id"`
	Phone            string     `json:"phone"`
	Name             string     `json:"name"`
	BusinessName     string     `json:"business_name,omitempty"`
	UserID           *uuid.UUID `json:"user_id,omitempty"`
	Tags             []string   `json:"tags"`
	Source           string     `json:"source,omitempty"`
	OptedOut         bool       `json:"opted_out"`
	LastInboundAt    *time.Time `json:"last_inbound_at,omitempty"`
	LastHumanReplyAt *time.Time `json:"last_human_reply_at,omitempty"`
	HumanTakeover    bool       `json:"human_takeover"`
}

func toContactResponse(c *marketing.Contact, now time.Time, cooldown time.Duration) ContactResponse {
	return ContactResponse{
		ID:               c.ID,
		Phone:            c.Phone,
		Name:             c.Name,
		BusinessName:     c.BusinessName,
		UserID:           c.UserID,
		Tags:             c.Tags,
		Source:           c.Source,
		OptedOut:         c.OptedOut,
		LastInboundAt:    c.LastInboundAt,
		LastHumanReplyAt: c.LastHumanReplyAt,
		HumanTakeover:    c.UnderHumanTakeover(now, cooldown),
	}
}

// ContactQuery filters the contact listing
type ContactQuery struct {
	Search   string `form:"search"`
	Tag      string `form:"tag"`
	OptedOut *bool  `form:"opted_out"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// MessageResponse is one entry of a conversation
type MessageResponse struct {
	ID         uuid.UUID  `json:"id"`
	Direction  string     `json:"direction"`
	Sender     string     `json:"sender"`
	Body       string     `json:"body"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	CampaignID *uuid.UUID `json:"campaign_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func toMessageResponse(m *marketing.MessageLog) MessageResponse {
	return MessageResponse{
		ID:         m.ID,
		Direction:  string(m.Direction),
		Sender:     string(m.Sender),
		Body:       m.Body,
		Status:     string(m.Status),
		Error:      m.Error,
		CampaignID: m.CampaignID,
		CreatedAt:  m.CreatedAt,
	}
}

// ManualMessageRequest is an admin reply that takes over the conversation
type ManualMessageRequest struct {
	Text string `json:"text" binding:"required,max=4096"`
}

// ShareCatalogRequest sends a generated catalog PDF to a contact
type ShareCatalogRequest struct {
	Title          string     `json:"title"`
	CategoryID     *uuid.UUID `json:"category_id"`
	ManufacturerID *uuid.UUID `json:"manufacturer_id"`
	Caption        string     `json:"caption" binding:"max=1024"`
}

// CampaignRequest creates a broadcast
type CampaignRequest struct {
	Name         string     `json:"name" binding:"required,max=200"`
	TemplateName string     `json:"template_name" binding:"required,max=512"`
	Language     string     `json:"language" binding:"omitempty,max=10"`
	Parameters   []string   `json:"parameters" binding:"max=10"`
	AudienceTags []string   `json:"audience_tags"`
	ScheduledAt  *time.Time `json:"scheduled_at"`
}

// ScheduleRequest sets when a campaign goes out
type ScheduleRequest struct {
	At time.Time `json:"at" binding:"required"`
}

// CampaignResponse is a campaign with its delivery counters
type CampaignResponse struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	TemplateName string     `json:"template_name"`
	Language     string     `json:"language"`
	Parameters   []string   `json:"parameters"`
	AudienceTags []string   `json:"audience_tags"`
	ScheduledAt  *time.Time `json:"scheduled_at,omitempty"`
	Status       string     `json:"status"`
	Sent         int        `json:"sent"`
	Failed       int        `json:"failed"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func toCampaignResponse(c *marketing.Campaign) CampaignResponse {
	return CampaignResponse{
		ID:           c.ID,
		Name:         c.Name,
		TemplateName: c.TemplateName,
		Language:     c.Language,
		Parameters:   c.Parameters,
		AudienceTags: c.AudienceTags,
		ScheduledAt:  c.ScheduledAt,
		Status:       string(c.Status),
		Sent:         c.Sent,
		Failed:       c.Failed,
		StartedAt:    c.StartedAt,
		FinishedAt:   c.FinishedAt,
		CreatedAt:    c.CreatedAt,
	}
}

// ReportQuery is a date range, inclusive of both days
type ReportQuery struct {
	From *time.Time `form:"from" time_format:"2006-01-02"`
	To   *time.Time `form:"to" time_format:"2006-01-02"`
}

// AttributionRow is orders and revenue for one source/medium/campaign
type AttributionRow struct {
	Source     string          `json:"source"`
	Medium     string          `json:"medium"`
	Campaign   string          `json:"campaign"`
	OrderCount int64           `json:"order_count"`
	Revenue    decimal.Decimal `json:"revenue"`
	Share      decimal.Decimal `json:"share_percent"`
}

// AttributionReport aggregates orders by where the buyer came from
type AttributionReport struct {
	From         time.Time        `json:"from"`
	To           time.Time        `json:"to"`
	Rows         []AttributionRow `json:"rows"`
	TotalOrders  int64            `json:"total_orders"`
	TotalRevenue decimal.Decimal  `json:"total_revenue"`
}

func toAttributionReport(from, to time.Time, rows []trade.AttributionRow) *AttributionReport {
	report := &AttributionReport{From: from, To: to, Rows: make([]AttributionRow, 0, len(rows)), TotalRevenue: decimal.Zero}
	for _, r := range rows {
		report.TotalOrders += r.OrderCount
		report.TotalRevenue = report.TotalRevenue.Add(r.Revenue)
	}
	for _, r := range rows {
		share := decimal.Zero
		if report.TotalRevenue.IsPositive() {
			share = r.Revenue.Mul(decimal.NewFromInt(100)).Div(report.TotalRevenue).Round(2)
		}
		report.Rows = append(report.Rows, AttributionRow{
			Source:     r.Source,
			Medium:     r.Medium,
			Campaign:   r.Campaign,
			OrderCount: r.OrderCount,
			Revenue:    r.Revenue,
			Share:      share,
		})
	}
	return report
}
