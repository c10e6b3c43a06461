package marketing

import (
	"time"

	"github.com/google/uuid"
)

// Direction of a WhatsApp message
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// Sender identifies who authored a message
type Sender string

const (
	SenderContact  Sender = "contact"
	SenderAI       Sender = "ai"
	SenderHuman    Sender = "human"
	SenderCampaign Sender = "campaign"
	SenderSystem   Sender = "system"
)

// MessageStatus tracks outbound delivery
type MessageStatus string

const (
	MessageStatusReceived MessageStatus = "received"
	MessageStatusSent     MessageStatus = "sent"
	MessageStatusFailed   MessageStatus = "failed"
)

// MessageLog is one message in a contact's conversation history
type MessageLog struct {
	ID                uuid.UUID
	ContactID         uuid.UUID
	Direction         Direction
	Sender            Sender
	Body              string
	ProviderMessageID string
	Status            MessageStatus
	Error             string
	CampaignID        *uuid.UUID
	CreatedAt         time.Time
}

// NewInbound logs a message received from a contact
func NewInbound(contactID uuid.UUID, body, providerID string, at time.Time) *MessageLog {
	return &MessageLog{
		ID:                uuid.New(),
		ContactID:         contactID,
		Direction:         DirectionInbound,
		Sender:            SenderContact,
		Body:              body,
		ProviderMessageID: providerID,
		Status:            MessageStatusReceived,
		CreatedAt:         at,
	}
}

// NewOutbound logs a message sent to a contact; err marks it failed
func NewOutbound(contactID uuid.UUID, sender Sender, body, providerID string, err error) *MessageLog {
	m := &MessageLog{
		ID:                uuid.New(),
		ContactID:         contactID,
		Direction:         DirectionOutbound,
		Sender:            sender,
		Body:              body,
		ProviderMessageID: providerID,
		Status:            MessageStatusSent,
		CreatedAt:         time.Now(),
	}
	if err != nil {
		m.Status = MessageStatusFailed
		m.Error = err.Error()
	}
	return m
}
