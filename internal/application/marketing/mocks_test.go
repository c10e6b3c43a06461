package marketing

import (
	"context"
	"time"

	"github.com/d2bcart/backend/internal/domain/cart"
	"github.com/d2bcart/backend/internal/domain/catalog"
	"github.com/d2bcart/backend/internal/domain/identity"
	"github.com/d2bcart/backend/internal/domain/marketing"
	"github.com/d2bcart/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockContactRepository is a mock implementation of marketing.ContactRepository
type MockContactRepository struct {
	mock.Mock
}

func (m *MockContactRepository) Create(ctx context.Context, c *marketing.Contact) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockContactRepository) Update(ctx context.Context, c *marketing.Contact) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockContactRepository) FindByID(ctx context.Context, id uuid.UUID) (*marketing.Contact, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*marketing.Contact), args.Error(1)
}

func (m *MockContactRepository) FindByPhone(ctx context.Context, phone string) (*marketing.Contact, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*marketing.Contact), args.Error(1)
}

func (m *MockContactRepository) FindAll(ctx context.Context, filter marketing.ContactFilter) ([]*marketing.Contact, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*marketing.Contact), args.Get(1).(int64), args.Error(2)
}

func (m *MockContactRepository) FindAudience(ctx context.Context, tags []string, afterID uuid.UUID, limit int) ([]*marketing.Contact, error) {
	args := m.Called(ctx, tags, afterID, limit)
	return args.Get(0).([]*marketing.Contact), args.Error(1)
}

// MockMessageRepository is a mock implementation of marketing.MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Create(ctx context.Context, msg *marketing.MessageLog) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *MockMessageRepository) CreateInbound(ctx context.Context, msg *marketing.MessageLog) (bool, error) {
	args := m.Called(ctx, msg)
	return args.Bool(0), args.Error(1)
}

func (m *MockMessageRepository) Recent(ctx context.Context, contactID uuid.UUID, limit int) ([]*marketing.MessageLog, error) {
	args := m.Called(ctx, contactID, limit)
	return args.Get(0).([]*marketing.MessageLog), args.Error(1)
}

// MockCampaignRepository is a mock implementation of marketing.CampaignRepository
type MockCampaignRepository struct {
	mock.Mock
}

func (m *MockCampaignRepository) Create(ctx context.Context, c *marketing.Campaign) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCampaignRepository) Update(ctx context.Context, c *marketing.Campaign) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCampaignRepository) FindByID(ctx context.Context, id uuid.UUID) (*marketing.Campaign, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*marketing.Campaign), args.Error(1)
}

func (m *MockCampaignRepository) FindAll(ctx context.Context, page, pageSize int) ([]*marketing.Campaign, int64, error) {
	args := m.Called(ctx, page, pageSize)
	return args.Get(0).([]*marketing.Campaign), args.Get(1).(int64), args.Error(2)
}

func (m *MockCampaignRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]*marketing.Campaign, error) {
	args := m.Called(ctx, now, limit)
	return args.Get(0).([]*marketing.Campaign), args.Error(1)
}

func (m *MockCampaignRepository) ClaimForRun(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	args := m.Called(ctx, id, now)
	return args.Bool(0), args.Error(1)
}

func (m *MockCampaignRepository) Touch(ctx context.Context, id uuid.UUID, now time.Time) error {
	args := m.Called(ctx, id, now)
	return args.Error(0)
}

func (m *MockCampaignRepository) FailStale(ctx context.Context, cutoff, now time.Time) (int64, error) {
	args := m.Called(ctx, cutoff, now)
	return args.Get(0).(int64), args.Error(1)
}

// MockMessenger is a mock implementation of marketing.Messenger
type MockMessenger struct {
	mock.Mock
}

func (m *MockMessenger) SendText(ctx context.Context, to, body string) (string, error) {
	args := m.Called(ctx, to, body)
	return args.String(0), args.Error(1)
}

func (m *MockMessenger) SendTemplate(ctx context.Context, msg marketing.TemplateMessage) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

func (m *MockMessenger) SendDocument(ctx context.Context, to, url, filename, caption string) (string, error) {
	args := m.Called(ctx, to, url, filename, caption)
	return args.String(0), args.Error(1)
}

// MockInboundChannel is a mock implementation of marketing.InboundChannel
type MockInboundChannel struct {
	mock.Mock
}

func (m *MockInboundChannel) VerifySubscription(mode, token string) bool {
	return m.Called(mode, token).Bool(0)
}

func (m *MockInboundChannel) VerifySignature(body []byte, signature string) bool {
	return m.Called(body, signature).Bool(0)
}

func (m *MockInboundChannel) ParseInbound(body []byte) ([]marketing.InboundMessage, error) {
	args := m.Called(body)
	return args.Get(0).([]marketing.InboundMessage), args.Error(1)
}

// MockReplyGenerator is a mock implementation of marketing.ReplyGenerator
type MockReplyGenerator struct {
	mock.Mock
}

func (m *MockReplyGenerator) GenerateReply(ctx context.Context, systemPrompt string, history []marketing.ChatTurn) (string, error) {
	args := m.Called(ctx, systemPrompt, history)
	return args.String(0), args.Error(1)
}

// MockConversionSink is a mock implementation of marketing.ConversionSink
type MockConversionSink struct {
	mock.Mock
}

func (m *MockConversionSink) Send(ctx context.Context, event marketing.ConversionEvent) error {
	return m.Called(ctx, event).Error(0)
}

// MockCartRepository is a mock implementation of cart.Repository
type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) Get(ctx context.Context, retailerID uuid.UUID) (*cart.Cart, error) {
	args := m.Called(ctx, retailerID)
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCartRepository) Save(ctx context.Context, c *cart.Cart) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCartRepository) FindIdle(ctx context.Context, from, to time.Time, limit int) ([]*cart.Cart, error) {
	args := m.Called(ctx, from, to, limit)
	return args.Get(0).([]*cart.Cart), args.Error(1)
}

func (m *MockCartRepository) MarkReminderSent(ctx context.Context, retailerID uuid.UUID, at time.Time) error {
	return m.Called(ctx, retailerID, at).Error(0)
}

// MockUserRepository mocks the user lookups used here
type MockUserRepository struct {
	identity.UserRepository
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*identity.User, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]*identity.User), args.Error(1)
}

// MockOrderRepository mocks the order reads used here
type MockOrderRepository struct {
	trade.OrderRepository
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Order), args.Error(1)
}

func (m *MockOrderRepository) AttributionReport(ctx context.Context, from, to time.Time) ([]trade.AttributionRow, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]trade.AttributionRow), args.Error(1)
}

// MockProductRepository mocks the catalog listing used for prompts
type MockProductRepository struct {
	catalog.ProductRepository
	mock.Mock
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter catalog.ProductFilter) ([]*catalog.Product, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*catalog.Product), args.Get(1).(int64), args.Error(2)
}
