package marketing

import (
	"context"
	"errors"
	"time"
)

// ErrMessagingUnavailable is returned when no WhatsApp provider is configured
var ErrMessagingUnavailable = errors.New("marketing: messaging provider not configured")

// TemplateMessage is an approved WhatsApp template send
type TemplateMessage struct {
	To         string
	Template   string
	Language   string
	Parameters []string
}

// Messenger sends WhatsApp messages and returns the provider message ID
type Messenger interface {
	SendText(ctx context.Context, to, body string) (string, error)
	SendTemplate(ctx context.Context, msg TemplateMessage) (string, error)
	SendDocument(ctx context.Context, to, url, filename, caption string) (string, error)
}

// InboundMessage is a message a contact sent to the business number
type InboundMessage struct {
	ProviderID  string
	From        string // E.164
	ProfileName string
	Body        string
	ReceivedAt  time.Time
}

// InboundChannel authenticates and decodes the messaging provider's webhooks
type InboundChannel interface {
	// VerifySubscription answers the provider's endpoint verification handshake
	VerifySubscription(mode, token string) bool
	VerifySignature(body []byte, signature string) bool
	ParseInbound(body []byte) ([]InboundMessage, error)
}

// ChatTurn is one message of a conversation given to the reply generator
type ChatTurn struct {
	FromContact bool
	Text        string
}

// ReplyGenerator drafts an auto-reply for a conversation
type ReplyGenerator interface {
	GenerateReply(ctx context.Context, systemPrompt string, history []ChatTurn) (string, error)
}

// ConversionEvent is a purchase reported to an ad platform
type ConversionEvent struct {
	EventID    string
	EventName  string
	EventTime  int64
	Email      string
	Phone      string
	FBCLID     string
	Value      string
	Currency   string
	SourceURL  string
	ContentIDs []string
}

// ConversionSink forwards conversions to an ad platform
type ConversionSink interface {
	Send(ctx context.Context, event ConversionEvent) error
}
