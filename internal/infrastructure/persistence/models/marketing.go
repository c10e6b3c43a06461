package models

import (
	"strings"
	"time"

	"github.com/d2bcart/backend/internal/domain/marketing"
	"github.com/google/uuid"
)

// ContactModel is the persistence model for Contact. Tags are stored as a
// comma-delimited string with leading and trailing commas (",a,b,") so a
// tag can be matched with LIKE on any SQL dialect.
type ContactModel struct {
	BaseModel
	Phone            string     `gorm:"type:varchar(20);not null;uniqueIndex"`
	Name             string     `gorm:"type:varchar(200)"`
	BusinessName     string     `gorm:"type:varchar(200)"`
	UserID           *uuid.UUID `gorm:"type:uuid;index"`
	Tags             string     `gorm:"type:text;not null;default:''"`
	Source           string     `gorm:"type:varchar(50)"`
	OptedOut         bool       `gorm:"not null;default:false;index"`
	LastInboundAt    *time.Time
	LastHumanReplyAt *time.Time
}

// TableName returns the table name for GORM
func (ContactModel) TableName() string {
	return "contacts"
}

// EncodeTags renders tags in the stored ",a,b," form
func EncodeTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return "," + strings.Join(tags, ",") + ","
}

// DecodeTags parses the stored tag string
func DecodeTags(s string) []string {
	tags := []string{}
	for _, t := range strings.Split(s, ",") {
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// ToDomain converts the persistence model to a domain Contact
func (m *ContactModel) ToDomain() *marketing.Contact {
	return &marketing.Contact{
		BaseEntity:       m.BaseModel.ToDomain(),
		Phone:            m.Phone,
		Name:             m.Name,
		BusinessName:     m.BusinessName,
		UserID:           m.UserID,
		Tags:             DecodeTags(m.Tags),
		Source:           m.Source,
		OptedOut:         m.OptedOut,
		LastInboundAt:    m.LastInboundAt,
		LastHumanReplyAt: m.LastHumanReplyAt,
	}
}

// ContactModelFromDomain creates a persistence model from a domain Contact
func ContactModelFromDomain(c *marketing.Contact) *ContactModel {
	m := &ContactModel{
		Phone:            c.Phone,
		Name:             c.Name,
		BusinessName:     c.BusinessName,
		UserID:           c.UserID,
		Tags:             EncodeTags(c.Tags),
		Source:           c.Source,
		OptedOut:         c.OptedOut,
		LastInboundAt:    c.LastInboundAt,
		LastHumanReplyAt: c.LastHumanReplyAt,
	}
	m.FromDomainBaseEntity(c.BaseEntity)
	return m
}

// MessageLogModel is the persistence model for MessageLog
type MessageLogModel struct {
	ID                uuid.UUID               `gorm:"type:uuid;primaryKey"`
	ContactID         uuid.UUID               `gorm:"type:uuid;not null;index:idx_message_contact_created,priority:1"`
	Direction         marketing.Direction     `gorm:"type:varchar(10);not null"`
	Sender            marketing.Sender        `gorm:"type:varchar(20);not null"`
	Body              string                  `gorm:"type:text"`
	ProviderMessageID string                  `gorm:"type:varchar(128);uniqueIndex:idx_message_logs_provider_message_id,where:provider_message_id <> ''"`
	Status            marketing.MessageStatus `gorm:"type:varchar(20);not null"`
	Error             string                  `gorm:"type:text"`
	CampaignID        *uuid.UUID              `gorm:"type:uuid;index"`
	CreatedAt         time.Time               `gorm:"not null;index:idx_message_contact_created,priority:2"`
}

// TableName returns the table name for GORM
func (MessageLogModel) TableName() string {
	return "message_logs"
}

// ToDomain converts the persistence model to a domain MessageLog
func (m *MessageLogModel) ToDomain() *marketing.MessageLog {
	return &marketing.MessageLog{
		ID:                m.ID,
		ContactID:         m.ContactID,
		Direction:         m.Direction,
		Sender:            m.Sender,
		Body:              m.Body,
		ProviderMessageID: m.ProviderMessageID,
		Status:            m.Status,
		Error:             m.Error,
		CampaignID:        m.CampaignID,
		CreatedAt:         m.CreatedAt,
	}
}

// MessageLogModelFromDomain creates a persistence model from a domain MessageLog
func MessageLogModelFromDomain(l *marketing.MessageLog) *MessageLogModel {
	return &MessageLogModel{
		ID:                l.ID,
		ContactID:         l.ContactID,
		Direction:         l.Direction,
		Sender:            l.Sender,
		Body:              l.Body,
		ProviderMessageID: l.ProviderMessageID,
		Status:            l.Status,
		Error:             l.Error,
		CampaignID:        l.CampaignID,
		CreatedAt:         l.CreatedAt,
	}
}

// CampaignModel is the persistence model for Campaign
type CampaignModel struct {
	BaseModel
	Name         string                   `gorm:"type:varchar(200);not null"`
	TemplateName string                   `gorm:"type:varchar(100);not null"`
	Language     string                   `gorm:"type:varchar(10);not null"`
	Parameters   []string                 `gorm:"type:jsonb;serializer:json"`
	AudienceTags []string                 `gorm:"type:jsonb;serializer:json"`
	ScheduledAt  *time.Time               `gorm:"index"`
	Status       marketing.CampaignStatus `gorm:"type:varchar(20);not null;index"`
	Sent         int                      `gorm:"not null;default:0"`
	Failed       int                      `gorm:"not null;default:0"`
	StartedAt    *time.Time
	FinishedAt   *time.Time
}

// TableName returns the table name for GORM
func (CampaignModel) TableName() string {
	return "campaigns"
}

// ToDomain converts the persistence model to a domain Campaign
func (m *CampaignModel) ToDomain() *marketing.Campaign {
	return &marketing.Campaign{
		BaseEntity:   m.BaseModel.ToDomain(),
		Name:         m.Name,
		TemplateName: m.TemplateName,
		Language:     m.Language,
		Parameters:   m.Parameters,
		AudienceTags: m.AudienceTags,
		ScheduledAt:  m.ScheduledAt,
		Status:       m.Status,
		Sent:         m.Sent,
		Failed:       m.Failed,
		StartedAt:    m.StartedAt,
		FinishedAt:   m.FinishedAt,
	}
}

// CampaignModelFromDomain creates a persistence model from a domain Campaign
func CampaignModelFromDomain(c *marketing.Campaign) *CampaignModel {
	m := &CampaignModel{
		Name:         c.Name,
		TemplateName: c.TemplateName,
		Language:     c.Language,
		Parameters:   c.Parameters,
		AudienceTags: c.AudienceTags,
		ScheduledAt:  c.ScheduledAt,
		Status:       c.Status,
		Sent:         c.Sent,
		Failed:       c.Failed,
		StartedAt:    c.StartedAt,
		FinishedAt:   c.FinishedAt,
	}
	m.FromDomainBaseEntity(c.BaseEntity)
	return m
}
