package marketing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	appcatalog "github.com/d2bcart/backend/internal/application/catalog"
	"github.com/d2bcart/backend/internal/domain/catalog"
	"github.com/d2bcart/backend/internal/domain/identity"
	"github.com/d2bcart/backend/internal/domain/marketing"
	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/d2bcart/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	webhookProvider      = "whatsapp"
	historyTurns         = 12
	catalogExcerptSize   = 8
	defaultCooldown      = 30 * time.Minute
	optOutConfirmation   = "You have been unsubscribed from D2BCart updates. Reply START to subscribe again."
	optInConfirmation    = "Welcome back! You will receive D2BCart updates again. Reply STOP to unsubscribe."
	fallbackCatalogTitle = "D2BCart Wholesale Catalog"
)

var errInvalidSignature = shared.NewDomainError("INVALID_SIGNATURE", "Webhook signature verification failed")

// CatalogGenerator renders and uploads a catalog PDF
type CatalogGenerator interface {
	Generate(ctx context.Context, req appcatalog.CatalogPDFRequest) (*appcatalog.CatalogPDFResult, error)
}

// ConversationConfig tunes the WhatsApp inbox
type ConversationConfig struct {
	HumanTakeoverCooldown time.Duration
	StoreInfo             string
	SupportName           string
}

// ConversationService runs the WhatsApp inbox: inbound webhooks, opt-out
// keywords, the AI auto-responder and human takeover
type ConversationService struct {
	contacts  marketing.ContactRepository
	messages  marketing.MessageRepository
	products  catalog.ProductRepository
	messenger marketing.Messenger
	channel   marketing.InboundChannel
	replier   marketing.ReplyGenerator
	catalogs  CatalogGenerator
	metrics   *telemetry.BusinessMetrics
	cfg       ConversationConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewConversationService creates a new ConversationService. messenger,
// channel, replier and catalogs may be nil when the integration is not
// configured.
func NewConversationService(
	contacts marketing.ContactRepository,
	messages marketing.MessageRepository,
	products catalog.ProductRepository,
	messenger marketing.Messenger,
	channel marketing.InboundChannel,
	replier marketing.ReplyGenerator,
	catalogs CatalogGenerator,
	metrics *telemetry.BusinessMetrics,
	cfg ConversationConfig,
	logger *zap.Logger,
) *ConversationService {
	if cfg.HumanTakeoverCooldown <= 0 {
		cfg.HumanTakeoverCooldown = defaultCooldown
	}
	return &ConversationService{
		contacts:  contacts,
		messages:  messages,
		products:  products,
		messenger: messenger,
		channel:   channel,
		replier:   replier,
		catalogs:  catalogs,
		metrics:   metrics,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// VerifySubscription answers the webhook verification handshake, returning
// the challenge to echo when the token matches
func (s *ConversationService) VerifySubscription(mode, token, challenge string) (string, bool) {
	if s.channel == nil || !s.channel.VerifySubscription(mode, token) {
		return "", false
	}
	return challenge, true
}

// HandleWebhook processes an inbound webhook delivery and returns its outcome
func (s *ConversationService) HandleWebhook(ctx context.Context, body []byte, signature string) (string, error) {
	if s.channel == nil {
		return telemetry.WebhookIgnored, marketing.ErrMessagingUnavailable
	}
	if !s.channel.VerifySignature(body, signature) {
		s.metrics.RecordWebhook(ctx, webhookProvider, telemetry.WebhookRejected)
		return telemetry.WebhookRejected, errInvalidSignature
	}

	inbound, err := s.channel.ParseInbound(body)
	if err != nil {
		s.logger.Warn("Unparseable WhatsApp webhook", zap.Error(err))
		s.metrics.RecordWebhook(ctx, webhookProvider, telemetry.WebhookIgnored)
		return telemetry.WebhookIgnored, nil
	}
	if len(inbound) == 0 {
		// status callbacks carry no messages
		s.metrics.RecordWebhook(ctx, webhookProvider, telemetry.WebhookIgnored)
		return telemetry.WebhookIgnored, nil
	}

	outcome := telemetry.WebhookDuplicate
	for _, msg := range inbound {
		fresh, err := s.receive(ctx, msg)
		if err != nil {
			s.metrics.RecordWebhook(ctx, webhookProvider, telemetry.WebhookFailed)
			return telemetry.WebhookFailed, err
		}
		if fresh {
			outcome = telemetry.WebhookProcessed
		}
	}
	s.metrics.RecordWebhook(ctx, webhookProvider, outcome)
	return outcome, nil
}

// receive applies one inbound message to its contact, logs it and reacts to
// it. The contact is saved before the message is logged so a failure leaves
// the message unseen and the provider's redelivery applies it again. The log
// insert is the dedupe step: a redelivery that loses it gets no second reply,
// even while the first delivery is still waiting on the AI responder.
func (s *ConversationService) receive(ctx context.Context, msg marketing.InboundMessage) (bool, error) {
	contact, err := s.upsertContact(ctx, msg.From, msg.ProfileName, "whatsapp")
	if err != nil {
		if errors.Is(err, shared.ErrInvalidInput) {
			s.logger.Warn("Dropping message from invalid number", zap.String("from", msg.From))
			return false, nil
		}
		return false, err
	}

	receivedAt := msg.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = s.now()
	}
	contact.RecordInbound(receivedAt)
	keyword := marketing.ParseKeyword(msg.Body)
	switch keyword {
	case marketing.KeywordOptOut:
		contact.OptOut()
	case marketing.KeywordOptIn:
		contact.OptIn()
	}
	if err := s.contacts.Update(ctx, contact); err != nil {
		return false, err
	}

	logged, err := s.messages.CreateInbound(ctx, marketing.NewInbound(contact.ID, msg.Body, msg.ProviderID, receivedAt))
	if err != nil {
		return false, err
	}
	if !logged {
		return false, nil
	}

	switch keyword {
	case marketing.KeywordOptOut:
		s.logger.Info("Contact opted out", zap.String("contact_id", contact.ID.String()))
		s.send(ctx, contact, marketing.SenderSystem, optOutConfirmation)
	case marketing.KeywordOptIn:
		s.logger.Info("Contact opted in", zap.String("contact_id", contact.ID.String()))
		s.send(ctx, contact, marketing.SenderSystem, optInConfirmation)
	default:
		s.autoReply(ctx, contact)
	}
	return true, nil
}

// autoReply answers with the AI responder unless the contact opted out or a
// human is handling the conversation. Failures are logged, never returned,
// so the provider does not redeliver the message.
func (s *ConversationService) autoReply(ctx context.Context, contact *marketing.Contact) {
	if s.replier == nil || s.messenger == nil {
		return
	}
	if contact.OptedOut {
		return
	}
	if contact.UnderHumanTakeover(s.now(), s.cfg.HumanTakeoverCooldown) {
		s.logger.Debug("Auto-reply suppressed by human takeover", zap.String("contact_id", contact.ID.String()))
		return
	}

	recent, err := s.messages.Recent(ctx, contact.ID, historyTurns)
	if err != nil {
		s.logger.Error("Failed to load conversation", zap.Error(err))
		return
	}
	history := make([]marketing.ChatTurn, 0, len(recent))
	for _, m := range recent {
		history = append(history, marketing.ChatTurn{FromContact: m.Direction == marketing.DirectionInbound, Text: m.Body})
	}

	reply, err := s.replier.GenerateReply(ctx, s.systemPrompt(ctx, contact), history)
	if err != nil {
		s.logger.Warn("Auto-reply generation failed",
			zap.String("contact_id", contact.ID.String()),
			zap.Error(err))
		return
	}
	s.send(ctx, contact, marketing.SenderAI, reply)
}

func (s *ConversationService) systemPrompt(ctx context.Context, contact *marketing.Contact) string {
	var b strings.Builder
	name := s.cfg.SupportName
	if name == "" {
		name = "D2BCart"
	}
	fmt.Fprintf(&b, "You are the WhatsApp assistant of %s, a B2B wholesale marketplace where retailers buy directly from Indian manufacturers. ", name)
	b.WriteString("Reply in the customer's language, keep answers under 80 words, never invent prices or stock, and offer a human agent for order problems.\n")
	if s.cfg.StoreInfo != "" {
		b.WriteString("\nStore information:\n")
		b.WriteString(s.cfg.StoreInfo)
		b.WriteString("\n")
	}
	if contact.Name != "" {
		fmt.Fprintf(&b, "\nThe customer's name is %s.\n", contact.Name)
	}
	if excerpt := s.catalogExcerpt(ctx); excerpt != "" {
		b.WriteString("\nSome products currently available (prices per unit, excluding GST):\n")
		b.WriteString(excerpt)
	}
	return b.String()
}

func (s *ConversationService) catalogExcerpt(ctx context.Context) string {
	if s.products == nil {
		return ""
	}
	active := catalog.ProductStatusActive
	products, _, err := s.products.FindAll(ctx, catalog.ProductFilter{
		Status:      &active,
		InStockOnly: true,
		OrderBy:     "created_at",
		OrderDir:    "desc",
		Page:        1,
		PageSize:    catalogExcerptSize,
	})
	if err != nil {
		s.logger.Warn("Failed to load catalog excerpt", zap.Error(err))
		return ""
	}
	var b strings.Builder
	for _, p := range products {
		fmt.Fprintf(&b, "- %s: Rs %s, MOQ %d\n", p.Name, p.DisplayPrice.StringFixed(2), p.MOQ)
	}
	return b.String()
}

// send delivers a text and logs it, returning the send error
func (s *ConversationService) send(ctx context.Context, contact *marketing.Contact, sender marketing.Sender, text string) error {
	if s.messenger == nil {
		return marketing.ErrMessagingUnavailable
	}
	providerID, err := s.messenger.SendText(ctx, contact.Phone, text)
	s.metrics.RecordMessage(ctx, string(sender), err == nil)
	if err != nil {
		s.logger.Warn("WhatsApp send failed",
			zap.String("contact_id", contact.ID.String()),
			zap.String("sender", string(sender)),
			zap.Error(err))
	}
	if logErr := s.messages.Create(ctx, marketing.NewOutbound(contact.ID, sender, text, providerID, err)); logErr != nil {
		s.logger.Error("Failed to log outbound message", zap.Error(logErr))
	}
	return err
}

// SendManual sends an admin reply and starts the human takeover window
func (s *ConversationService) SendManual(ctx context.Context, contactID uuid.UUID, text string) (*ContactResponse, error) {
	if s.messenger == nil {
		return nil, marketing.ErrMessagingUnavailable
	}
	contact, err := s.contacts.FindByID(ctx, contactID)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, shared.NewDomainError("INVALID_MESSAGE", "Message cannot be empty")
	}
	if err := s.send(ctx, contact, marketing.SenderHuman, text); err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	contact.RecordHumanReply(s.now())
	if err := s.contacts.Update(ctx, contact); err != nil {
		return nil, err
	}
	resp := toContactResponse(contact, s.now(), s.cfg.HumanTakeoverCooldown)
	return &resp, nil
}

// ReleaseTakeover hands a conversation back to the auto-responder
func (s *ConversationService) ReleaseTakeover(ctx context.Context, contactID uuid.UUID) (*ContactResponse, error) {
	contact, err := s.contacts.FindByID(ctx, contactID)
	if err != nil {
		return nil, err
	}
	contact.ReleaseTakeover()
	if err := s.contacts.Update(ctx, contact); err != nil {
		return nil, err
	}
	resp := toContactResponse(contact, s.now(), s.cfg.HumanTakeoverCooldown)
	return &resp, nil
}

// ShareCatalog generates a catalog PDF and sends it as a WhatsApp document
func (s *ConversationService) ShareCatalog(ctx context.Context, contactID uuid.UUID, req ShareCatalogRequest) (*appcatalog.CatalogPDFResult, error) {
	if s.messenger == nil {
		return nil, marketing.ErrMessagingUnavailable
	}
	if s.catalogs == nil {
		return nil, appcatalog.ErrCatalogUnavailable
	}
	contact, err := s.contacts.FindByID(ctx, contactID)
	if err != nil {
		return nil, err
	}
	if contact.OptedOut {
		return nil, shared.NewDomainError("CONTACT_OPTED_OUT", "Contact has opted out of messages")
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = fallbackCatalogTitle
	}
	result, err := s.catalogs.Generate(ctx, appcatalog.CatalogPDFRequest{
		Title:          title,
		CategoryID:     req.CategoryID,
		ManufacturerID: req.ManufacturerID,
	})
	if err != nil {
		return nil, err
	}

	filename := strings.ReplaceAll(strings.ToLower(title), " ", "-") + ".pdf"
	providerID, sendErr := s.messenger.SendDocument(ctx, contact.Phone, result.URL, filename, req.Caption)
	s.metrics.RecordMessage(ctx, string(marketing.SenderHuman), sendErr == nil)
	body := fmt.Sprintf("[catalog] %s (%d products)", title, result.ProductCount)
	if err := s.messages.Create(ctx, marketing.NewOutbound(contact.ID, marketing.SenderHuman, body, providerID, sendErr)); err != nil {
		s.logger.Error("Failed to log catalog share", zap.Error(err))
	}
	if sendErr != nil {
		return nil, fmt.Errorf("send catalog: %w", sendErr)
	}
	s.logger.Info("Catalog shared",
		zap.String("contact_id", contact.ID.String()),
		zap.Int("products", result.ProductCount))
	return result, nil
}

// ListContacts pages through the contact book
func (s *ConversationService) ListContacts(ctx context.Context, q ContactQuery) (*shared.Paginated[ContactResponse], error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 100 {
		q.PageSize = 20
	}
	contacts, total, err := s.contacts.FindAll(ctx, marketing.ContactFilter{
		Search:   q.Search,
		Tag:      marketing.NormalizeTag(q.Tag),
		OptedOut: q.OptedOut,
		Page:     q.Page,
		PageSize: q.PageSize,
	})
	if err != nil {
		return nil, err
	}
	now := s.now()
	items := make([]ContactResponse, 0, len(contacts))
	for _, c := range contacts {
		items = append(items, toContactResponse(c, now, s.cfg.HumanTakeoverCooldown))
	}
	page := shared.NewPaginated(items, total, q.Page, q.PageSize)
	return &page, nil
}

// Conversation returns the latest messages exchanged with a contact
func (s *ConversationService) Conversation(ctx context.Context, contactID uuid.UUID, limit int) ([]MessageResponse, error) {
	if _, err := s.contacts.FindByID(ctx, contactID); err != nil {
		return nil, err
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	logs, err := s.messages.Recent(ctx, contactID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]MessageResponse, 0, len(logs))
	for _, m := range logs {
		out = append(out, toMessageResponse(m))
	}
	return out, nil
}

// HandleUserRegistered adds a new account to the contact book, tagged with
// its role
func (s *ConversationService) HandleUserRegistered(ctx context.Context, event shared.DomainEvent) error {
	ev, ok := event.(*identity.UserRegisteredEvent)
	if !ok {
		return nil
	}
	contact, err := s.upsertContact(ctx, ev.Phone, ev.Name, "signup")
	if err != nil {
		return err
	}
	userID := ev.UserID
	contact.UserID = &userID
	contact.AddTags(string(ev.Role))
	return s.contacts.Update(ctx, contact)
}

// upsertContact finds a contact by phone or creates it. Invalid numbers
// surface as ErrInvalidInput.
func (s *ConversationService) upsertContact(ctx context.Context, phone, name, source string) (*marketing.Contact, error) {
	candidate, err := marketing.NewContact(phone, name, source)
	if err != nil {
		return nil, shared.ErrInvalidInput.WithDetail("phone", phone)
	}
	existing, err := s.contacts.FindByPhone(ctx, candidate.Phone)
	switch {
	case err == nil:
		if existing.Name == "" && candidate.Name != "" {
			existing.Name = candidate.Name
		}
		return existing, nil
	case errors.Is(err, shared.ErrNotFound):
	default:
		return nil, err
	}

	if err := s.contacts.Create(ctx, candidate); err != nil {
		if !errors.Is(err, shared.ErrAlreadyExists) {
			return nil, err
		}
		// concurrent delivery created it first
		return s.contacts.FindByPhone(ctx, candidate.Phone)
	}
	return candidate, nil
}
