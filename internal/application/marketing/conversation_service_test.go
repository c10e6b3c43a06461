package marketing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	appcatalog "github.com/d2bcart/backend/internal/application/catalog"
	"github.com/d2bcart/backend/internal/domain/catalog"
	"github.com/d2bcart/backend/internal/domain/identity"
	"github.com/d2bcart/backend/internal/domain/marketing"
	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const buyerPhone = "+919876543210"

type conversationFixture struct {
	svc       *ConversationService
	contacts  *MockContactRepository
	messages  *MockMessageRepository
	products  *MockProductRepository
	messenger *MockMessenger
	channel   *MockInboundChannel
	replier   *MockReplyGenerator
	now       time.Time
}

func newConversationFixture(t *testing.T) *conversationFixture {
	t.Helper()
	f := &conversationFixture{
		contacts:  new(MockContactRepository),
		messages:  new(MockMessageRepository),
		products:  new(MockProductRepository),
		messenger: new(MockMessenger),
		channel:   new(MockInboundChannel),
		replier:   new(MockReplyGenerator),
		now:       time.Date(2026, 10, 19, 11, 0, 0, 0, time.UTC),
	}
	f.svc = NewConversationService(f.contacts, f.messages, f.products, f.messenger, f.channel, f.replier, nil, nil,
		ConversationConfig{HumanTakeoverCooldown: 30 * time.Minute, StoreInfo: "Open 10am to 7pm IST", SupportName: "D2BCart"},
		zap.NewNop())
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *conversationFixture) inbound(body []byte, text string) {
	f.channel.On("VerifySignature", body, "sha256=ok").Return(true)
	f.channel.On("ParseInbound", body).Return([]marketing.InboundMessage{{
		ProviderID:  "wamid.in.1",
		From:        buyerPhone,
		ProfileName: "Asha",
		Body:        text,
		ReceivedAt:  f.now,
	}}, nil)
	f.messages.On("CreateInbound", mock.Anything, mock.MatchedBy(func(m *marketing.MessageLog) bool {
		return m.ProviderMessageID == "wamid.in.1"
	})).Return(true, nil)
}

func existingContact(t *testing.T) *marketing.Contact {
	t.Helper()
	c, err := marketing.NewContact(buyerPhone, "Asha", "whatsapp")
	require.NoError(t, err)
	return c
}

func TestConversationService_VerifySubscription(t *testing.T) {
	f := newConversationFixture(t)
	f.channel.On("VerifySubscription", "subscribe", "good").Return(true)
	f.channel.On("VerifySubscription", "subscribe", "bad").Return(false)

	challenge, ok := f.svc.VerifySubscription("subscribe", "good", "1158201444")
	assert.True(t, ok)
	assert.Equal(t, "1158201444", challenge)

	_, ok = f.svc.VerifySubscription("subscribe", "bad", "1158201444")
	assert.False(t, ok)
}

func TestConversationService_RejectsBadSignature(t *testing.T) {
	f := newConversationFixture(t)
	body := []byte(`{}`)
	f.channel.On("VerifySignature", body, "sha256=forged").Return(false)

	outcome, err := f.svc.HandleWebhook(context.Background(), body, "sha256=forged")

	assert.Equal(t, "rejected", outcome)
	assert.ErrorIs(t, err, errInvalidSignature)
	f.channel.AssertNotCalled(t, "ParseInbound", mock.Anything)
}

func TestConversationService_NewContactGetsAutoReply(t *testing.T) {
	ctx := context.Background()
	f := newConversationFixture(t)
	body := []byte(`{"entry":[]}`)
	f.inbound(body, "Do you have steel bottles?")

	f.contacts.On("FindByPhone", ctx, buyerPhone).Return(nil, shared.ErrNotFound)
	f.contacts.On("Create", ctx, mock.AnythingOfType("*marketing.Contact")).Return(nil)
	f.contacts.On("Update", ctx, mock.AnythingOfType("*marketing.Contact")).Return(nil)
	f.messages.On("Create", ctx, mock.Anything).Return(nil)
	f.messages.On("Recent", ctx, mock.Anything, historyTurns).Return([]*marketing.MessageLog{
		marketing.NewInbound(uuid.New(), "Do you have steel bottles?", "wamid.in.1", f.now),
	}, nil)
	f.products.On("FindAll", ctx, mock.Anything).Return([]*catalog.Product{
		{Name: "Steel Bottle 1L", DisplayPrice: dec("110"), MOQ: 24},
	}, int64(1), nil)
	f.replier.On("GenerateReply", ctx, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "Asha") &&
			strings.Contains(prompt, "Steel Bottle 1L: Rs 110.00, MOQ 24") &&
			strings.Contains(prompt, "Open 10am to 7pm IST")
	}), []marketing.ChatTurn{{FromContact: true, Text: "Do you have steel bottles?"}}).
		Return("Yes! Steel Bottle 1L is Rs 110 per unit, MOQ 24.", nil)
	f.messenger.On("SendText", ctx, buyerPhone, "Yes! Steel Bottle 1L is Rs 110 per unit, MOQ 24.").Return("wamid.out.1", nil)

	outcome, err := f.svc.HandleWebhook(ctx, body, "sha256=ok")

	require.NoError(t, err)
	assert.Equal(t, "processed", outcome)
	f.messenger.AssertExpectations(t)

	var senders []marketing.Sender
	for _, call := range f.messages.Calls {
		if call.Method == "Create" || call.Method == "CreateInbound" {
			senders = append(senders, call.Arguments.Get(1).(*marketing.MessageLog).Sender)
		}
	}
	assert.Equal(t, []marketing.Sender{marketing.SenderContact, marketing.SenderAI}, senders)
}

func TestConversationService_StopOptsOut(t *testing.T) {
	ctx := context.Background()
	f := newConversationFixture(t)
	body := []byte(`{"stop":true}`)
	f.inbound(body, " stop ")
	contact := existingContact(t)

	f.contacts.On("FindByPhone", ctx, buyerPhone).Return(contact, nil)
	f.contacts.On("Update", ctx, contact).Return(nil)
	f.messages.On("Create", ctx, mock.Anything).Return(nil)
	f.messenger.On("SendText", ctx, buyerPhone, optOutConfirmation).Return("wamid.out.2", nil)

	outcome, err := f.svc.HandleWebhook(ctx, body, "sha256=ok")

	require.NoError(t, err)
	assert.Equal(t, "processed", outcome)
	assert.True(t, contact.OptedOut)
	f.replier.AssertNotCalled(t, "GenerateReply", mock.Anything, mock.Anything, mock.Anything)
}

func TestConversationService_HumanTakeoverSuppressesAI(t *testing.T) {
	ctx := context.Background()
	f := newConversationFixture(t)
	body := []byte(`{"takeover":true}`)
	f.inbound(body, "When will my order ship?")
	contact := existingContact(t)
	contact.RecordHumanReply(f.now.Add(-5 * time.Minute))

	f.contacts.On("FindByPhone", ctx, buyerPhone).Return(contact, nil)
	f.contacts.On("Update", ctx, contact).Return(nil)
	f.messages.On("Create", ctx, mock.Anything).Return(nil)

	outcome, err := f.svc.HandleWebhook(ctx, body, "sha256=ok")

	require.NoError(t, err)
	assert.Equal(t, "processed", outcome)
	f.replier.AssertNotCalled(t, "GenerateReply", mock.Anything, mock.Anything, mock.Anything)
	f.messenger.AssertNotCalled(t, "SendText", mock.Anything, mock.Anything, mock.Anything)
}

func TestConversationService_OptedOutContactGetsNoReply(t *testing.T) {
	ctx := context.Background()
	f := newConversationFixture(t)
	body := []byte(`{"optedout":true}`)
	f.inbound(body, "hello")
	contact := existingContact(t)
	contact.OptOut()

	f.contacts.On("FindByPhone", ctx, buyerPhone).Return(contact, nil)
	f.contacts.On("Update", ctx, contact).Return(nil)
	f.messages.On("Create", ctx, mock.Anything).Return(nil)

	_, err := f.svc.HandleWebhook(ctx, body, "sha256=ok")

	require.NoError(t, err)
	f.replier.AssertNotCalled(t, "GenerateReply", mock.Anything, mock.Anything, mock.Anything)
}

func TestConversationService_RedeliveryIsDuplicate(t *testing.T) {
	ctx := context.Background()
	f := newConversationFixture(t)
	body := []byte(`{"dup":true}`)
	f.channel.On("VerifySignature", body, "sha256=ok").Return(true)
	f.channel.On("ParseInbound", body).Return([]marketing.InboundMessage{{ProviderID: "wamid.seen", From: buyerPhone, Body: "hi"}}, nil)
	contact := existingContact(t)
	f.contacts.On("FindByPhone", ctx, buyerPhone).Return(contact, nil)
	f.contacts.On("Update", ctx, contact).Return(nil)
	f.messages.On("CreateInbound", ctx, mock.Anything).Return(false, nil)

	outcome, err := f.svc.HandleWebhook(ctx, body, "sha256=ok")

	require.NoError(t, err)
	assert.Equal(t, "duplicate", outcome)
	f.replier.AssertNotCalled(t, "GenerateReply", mock.Anything, mock.Anything, mock.Anything)
	f.messenger.AssertNotCalled(t, "SendText", mock.Anything, mock.Anything, mock.Anything)
}

func TestConversationService_FailedContactUpdateLeavesMessageUnseen(t *testing.T) {
	ctx := context.Background()
	f := newConversationFixture(t)
	body := []byte(`{"stop":"retry"}`)
	f.inbound(body, "STOP")
	contact := existingContact(t)
	f.contacts.On("FindByPhone", ctx, buyerPhone).Return(contact, nil)
	f.contacts.On("Update", ctx, contact).Return(errors.New("connection reset"))

	outcome, err := f.svc.HandleWebhook(ctx, body, "sha256=ok")

	require.Error(t, err)
	assert.Equal(t, "failed", outcome)
	f.messages.AssertNotCalled(t, "CreateInbound", mock.Anything, mock.Anything)
	f.messenger.AssertNotCalled(t, "SendText", mock.Anything, mock.Anything, mock.Anything)
}

func TestConversationService_StatusCallbackIgnored(t *testing.T) {
	f := newConversationFixture(t)
	body := []byte(`{"statuses":[]}`)
	f.channel.On("VerifySignature", body, "sha256=ok").Return(true)
	f.channel.On("ParseInbound", body).Return([]marketing.InboundMessage{}, nil)

	outcome, err := f.svc.HandleWebhook(context.Background(), body, "sha256=ok")

	require.NoError(t, err)
	assert.Equal(t, "ignored", outcome)
}

func TestConversationService_SendManualStartsTakeover(t *testing.T) {
	ctx := context.Background()
	f := newConversationFixture(t)
	contact := existingContact(t)
	f.contacts.On("FindByID", ctx, contact.ID).Return(contact, nil)
	f.contacts.On("Update", ctx, contact).Return(nil)
	f.messenger.On("SendText", ctx, buyerPhone, "Your order ships today").Return("wamid.out.3", nil)
	f.messages.On("Create", ctx, mock.MatchedBy(func(m *marketing.MessageLog) bool {
		return m.Sender == marketing.SenderHuman && m.Status == marketing.MessageStatusSent
	})).Return(nil)

	resp, err := f.svc.SendManual(ctx, contact.ID, " Your order ships today ")

	require.NoError(t, err)
	assert.True(t, resp.HumanTakeover)
	require.NotNil(t, contact.LastHumanReplyAt)
	assert.Equal(t, f.now, *contact.LastHumanReplyAt)

	resp, err = f.svc.ReleaseTakeover(ctx, contact.ID)
	require.NoError(t, err)
	assert.False(t, resp.HumanTakeover)
}

func TestConversationService_SendManualFailureKeepsAutoReply(t *testing.T) {
	ctx := context.Background()
	f := newConversationFixture(t)
	contact := existingContact(t)
	f.contacts.On("FindByID", ctx, contact.ID).Return(contact, nil)
	f.messenger.On("SendText", ctx, buyerPhone, "hi").Return("", errors.New("131047: re-engagement message"))
	f.messages.On("Create", ctx, mock.Anything).Return(nil)

	_, err := f.svc.SendManual(ctx, contact.ID, "hi")

	assert.Error(t, err)
	assert.Nil(t, contact.LastHumanReplyAt)
	f.contacts.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

type fakeCatalogs struct {
	req appcatalog.CatalogPDFRequest
}

func (f *fakeCatalogs) Generate(_ context.Context, req appcatalog.CatalogPDFRequest) (*appcatalog.CatalogPDFResult, error) {
	f.req = req
	return &appcatalog.CatalogPDFResult{Key: "catalogs/x.pdf", URL: "https://cdn.example/catalogs/x.pdf", ProductCount: 42}, nil
}

func TestConversationService_ShareCatalog(t *testing.T) {
	ctx := context.Background()
	f := newConversationFixture(t)
	catalogs := &fakeCatalogs{}
	f.svc.catalogs = catalogs
	contact := existingContact(t)
	f.contacts.On("FindByID", ctx, contact.ID).Return(contact, nil)
	f.messenger.On("SendDocument", ctx, buyerPhone, "https://cdn.example/catalogs/x.pdf", "diwali-specials.pdf", "Fresh stock").
		Return("wamid.doc", nil)
	f.messages.On("Create", ctx, mock.Anything).Return(nil)

	result, err := f.svc.ShareCatalog(ctx, contact.ID, ShareCatalogRequest{Title: "Diwali Specials", Caption: "Fresh stock"})

	require.NoError(t, err)
	assert.Equal(t, 42, result.ProductCount)
	assert.Equal(t, "Diwali Specials", catalogs.req.Title)
	f.messenger.AssertExpectations(t)
}

func TestConversationService_ShareCatalogRespectsOptOut(t *testing.T) {
	ctx := context.Background()
	f := newConversationFixture(t)
	f.svc.catalogs = &fakeCatalogs{}
	contact := existingContact(t)
	contact.OptOut()
	f.contacts.On("FindByID", ctx, contact.ID).Return(contact, nil)

	_, err := f.svc.ShareCatalog(ctx, contact.ID, ShareCatalogRequest{})

	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "CONTACT_OPTED_OUT", de.Code)
}

func TestConversationService_HandleUserRegistered(t *testing.T) {
	ctx := context.Background()
	f := newConversationFixture(t)
	user := &identity.User{BaseAggregateRoot: shared.NewBaseAggregateRoot(), Name: "Ravi", Phone: buyerPhone, Role: identity.RoleRetailer}
	var created *marketing.Contact
	f.contacts.On("FindByPhone", ctx, buyerPhone).Return(nil, shared.ErrNotFound)
	f.contacts.On("Create", ctx, mock.AnythingOfType("*marketing.Contact")).
		Run(func(args mock.Arguments) { created = args.Get(1).(*marketing.Contact) }).
		Return(nil)
	f.contacts.On("Update", ctx, mock.AnythingOfType("*marketing.Contact")).Return(nil)

	require.NoError(t, f.svc.HandleUserRegistered(ctx, identity.NewUserRegisteredEvent(user)))

	require.NotNil(t, created)
	assert.Equal(t, []string{"retailer"}, created.Tags)
	require.NotNil(t, created.UserID)
	assert.Equal(t, user.ID, *created.UserID)
	assert.Equal(t, "signup", created.Source)
}
