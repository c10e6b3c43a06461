package marketing

import (
	"strings"
	"time"

	"github.com/d2bcart/backend/internal/domain/shared"
)

// CampaignStatus is the lifecycle state of a broadcast
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusScheduled CampaignStatus = "scheduled"
	CampaignStatusRunning   CampaignStatus = "running"
	CampaignStatusCompleted CampaignStatus = "completed"
	CampaignStatusFailed    CampaignStatus = "failed"
	CampaignStatusCancelled CampaignStatus = "cancelled"
)

// Campaign is a WhatsApp template broadcast to a tagged audience
type Campaign struct {
	shared.BaseEntity
	Name         string
	TemplateName string
	Language     string
	Parameters   []string
	AudienceTags []string
	ScheduledAt  *time.Time
	Status       CampaignStatus
	Sent         int
	Failed       int
	StartedAt    *time.Time
	FinishedAt   *time.Time
}

// NewCampaign creates a draft campaign
func NewCampaign(name, templateName, language string, params, audienceTags []string) (*Campaign, error) {
	name = strings.TrimSpace(name)
	templateName = strings.TrimSpace(templateName)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Campaign name cannot be empty")
	}
	if templateName == "" {
		return nil, shared.NewDomainError("INVALID_TEMPLATE", "An approved WhatsApp template is required")
	}
	if language == "" {
		language = "en"
	}
	tags := make([]string, 0, len(audienceTags))
	for _, t := range audienceTags {
		if t = NormalizeTag(t); t != "" {
			tags = append(tags, t)
		}
	}
	return &Campaign{
		BaseEntity:   shared.NewBaseEntity(),
		Name:         name,
		TemplateName: templateName,
		Language:     language,
		Parameters:   params,
		AudienceTags: tags,
		Status:       CampaignStatusDraft,
	}, nil
}

// Schedule queues the campaign for dispatch at the given time
func (c *Campaign) Schedule(at time.Time) error {
	if c.Status != CampaignStatusDraft && c.Status != CampaignStatusScheduled {
		return shared.NewDomainError("INVALID_STATE", "Only draft campaigns can be scheduled")
	}
	c.ScheduledAt = &at
	c.Status = CampaignStatusScheduled
	c.Touch()
	return nil
}

// Cancel stops a campaign that has not started
func (c *Campaign) Cancel() error {
	if c.Status != CampaignStatusDraft && c.Status != CampaignStatusScheduled {
		return shared.NewDomainError("INVALID_STATE", "Only draft or scheduled campaigns can be cancelled")
	}
	c.Status = CampaignStatusCancelled
	c.Touch()
	return nil
}

// IsDue reports whether a scheduled campaign should start
func (c *Campaign) IsDue(now time.Time) bool {
	return c.Status == CampaignStatusScheduled && c.ScheduledAt != nil && !c.ScheduledAt.After(now)
}

// Start marks the campaign running
func (c *Campaign) Start(now time.Time) error {
	if c.Status != CampaignStatusScheduled {
		return shared.NewDomainError("INVALID_STATE", "Only scheduled campaigns can start")
	}
	c.Status = CampaignStatusRunning
	c.StartedAt = &now
	c.Sent, c.Failed = 0, 0
	c.Touch()
	return nil
}

// Finish records the outcome; a campaign where every send failed is failed
func (c *Campaign) Finish(sent, failed int, now time.Time) {
	c.Sent = sent
	c.Failed = failed
	c.FinishedAt = &now
	if sent == 0 && failed > 0 {
		c.Status = CampaignStatusFailed
	} else {
		c.Status = CampaignStatusCompleted
	}
	c.Touch()
}
