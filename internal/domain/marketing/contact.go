package marketing

import (
	"strings"
	"time"

	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/d2bcart/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Contact is a WhatsApp audience member: a lead, retailer or manufacturer
type Contact struct {
	shared.BaseEntity
	Phone            string
	Name             string
	BusinessName     string
	UserID           *uuid.UUID
	Tags             []string
	Source           string
	OptedOut         bool
	LastInboundAt    *time.Time
	LastHumanReplyAt *time.Time
}

// NewContact creates a contact for a phone number
func NewContact(phone, name, source string) (*Contact, error) {
	normalized, ok := valueobject.NormalizePhone(phone)
	if !ok {
		return nil, shared.NewDomainError("INVALID_PHONE", "Phone must be a valid Indian mobile number")
	}
	return &Contact{
		BaseEntity: shared.NewBaseEntity(),
		Phone:      normalized,
		Name:       strings.TrimSpace(name),
		Source:     source,
		Tags:       []string{},
	}, nil
}

// AddTags merges normalized tags into the contact
func (c *Contact) AddTags(tags ...string) {
	for _, t := range tags {
		t = NormalizeTag(t)
		if t == "" || c.HasTag(t) {
			continue
		}
		c.Tags = append(c.Tags, t)
	}
	c.Touch()
}

// HasTag reports whether the contact carries a tag
func (c *Contact) HasTag(tag string) bool {
	tag = NormalizeTag(tag)
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// MatchesAudience reports whether the contact is in an audience. An empty
// audience matches everyone; otherwise any shared tag matches.
func (c *Contact) MatchesAudience(tags []string) bool {
	if len(tags) == 0 {
		return true
	}
	for _, t := range tags {
		if c.HasTag(t) {
			return true
		}
	}
	return false
}

// RecordInbound stamps a message received from the contact
func (c *Contact) RecordInbound(at time.Time) {
	c.LastInboundAt = &at
	c.Touch()
}

// RecordHumanReply starts a human takeover window
func (c *Contact) RecordHumanReply(at time.Time) {
	c.LastHumanReplyAt = &at
	c.Touch()
}

// ReleaseTakeover hands the conversation back to the auto-responder
func (c *Contact) ReleaseTakeover() {
	c.LastHumanReplyAt = nil
	c.Touch()
}

// UnderHumanTakeover reports whether a human replied within the cooldown
func (c *Contact) UnderHumanTakeover(now time.Time, cooldown time.Duration) bool {
	return c.LastHumanReplyAt != nil && now.Sub(*c.LastHumanReplyAt) < cooldown
}

// OptOut stops all outbound marketing to the contact
func (c *Contact) OptOut() {
	c.OptedOut = true
	c.Touch()
}

// OptIn re-enables outbound marketing
func (c *Contact) OptIn() {
	c.OptedOut = false
	c.Touch()
}

// NormalizeTag lower-cases and trims a tag
func NormalizeTag(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}

var (
	optOutKeywords = map[string]bool{"STOP": true, "UNSUBSCRIBE": true, "STOP ALL": true}
	optInKeywords  = map[string]bool{"START": true, "SUBSCRIBE": true}
)

// Keyword classifies an inbound message body
type Keyword int

const (
	KeywordNone Keyword = iota
	KeywordOptOut
	KeywordOptIn
)

// ParseKeyword detects opt-out and opt-in commands
func ParseKeyword(body string) Keyword {
	b := strings.ToUpper(strings.Join(strings.Fields(body), " "))
	switch {
	case optOutKeywords[b]:
		return KeywordOptOut
	case optInKeywords[b]:
		return KeywordOptIn
	}
	return KeywordNone
}
