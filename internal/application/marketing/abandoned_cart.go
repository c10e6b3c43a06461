package marketing

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/d2bcart/backend/internal/domain/cart"
	"github.com/d2bcart/backend/internal/domain/identity"
	"github.com/d2bcart/backend/internal/domain/marketing"
	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/d2bcart/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const remindersPerRun = 100

// AbandonedCartConfig controls cart reminders
type AbandonedCartConfig struct {
	After     time.Duration
	MaxAge    time.Duration
	Template  string
	Language  string
	PublicURL string
}

// AbandonedCartService reminds retailers about carts they left behind
type AbandonedCartService struct {
	carts     cart.Repository
	users     identity.UserRepository
	contacts  marketing.ContactRepository
	messages  marketing.MessageRepository
	messenger marketing.Messenger
	metrics   *telemetry.BusinessMetrics
	cfg       AbandonedCartConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewAbandonedCartService creates a new AbandonedCartService
func NewAbandonedCartService(
	carts cart.Repository,
	users identity.UserRepository,
	contacts marketing.ContactRepository,
	messages marketing.MessageRepository,
	messenger marketing.Messenger,
	metrics *telemetry.BusinessMetrics,
	cfg AbandonedCartConfig,
	logger *zap.Logger,
) *AbandonedCartService {
	if cfg.After <= 0 {
		cfg.After = 2 * time.Hour
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 7 * 24 * time.Hour
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	return &AbandonedCartService{
		carts:     carts,
		users:     users,
		contacts:  contacts,
		messages:  messages,
		messenger: messenger,
		metrics:   metrics,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// SendReminders messages retailers whose carts went idle and returns how many
// reminders were sent
func (s *AbandonedCartService) SendReminders(ctx context.Context) (int, error) {
	if s.messenger == nil || s.cfg.Template == "" {
		return 0, nil
	}
	now := s.now()
	idle, err := s.carts.FindIdle(ctx, now.Add(-s.cfg.MaxAge), now.Add(-s.cfg.After), remindersPerRun)
	if err != nil {
		return 0, err
	}
	if len(idle) == 0 {
		return 0, nil
	}

	ids := make([]uuid.UUID, 0, len(idle))
	for _, c := range idle {
		ids = append(ids, c.RetailerID)
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return 0, err
	}
	byID := make(map[uuid.UUID]*identity.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	sent := 0
	for _, c := range idle {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if !c.IsAbandoned(now, s.cfg.After, s.cfg.MaxAge) {
			continue
		}
		user, ok := byID[c.RetailerID]
		if !ok || !user.IsActive {
			s.markReminded(ctx, c.RetailerID, now)
			continue
		}
		contact, err := s.contacts.FindByPhone(ctx, user.Phone)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return sent, err
		}
		if contact != nil && contact.OptedOut {
			s.markReminded(ctx, c.RetailerID, now)
			continue
		}

		providerID, sendErr := s.messenger.SendTemplate(ctx, marketing.TemplateMessage{
			To:       user.Phone,
			Template: s.cfg.Template,
			Language: s.cfg.Language,
			Parameters: []string{
				firstName(user.Name),
				strconv.Itoa(len(c.Items)),
				strings.TrimRight(s.cfg.PublicURL, "/") + "/cart",
			},
		})
		s.metrics.RecordMessage(ctx, string(marketing.SenderSystem), sendErr == nil)
		if contact != nil {
			entry := marketing.NewOutbound(contact.ID, marketing.SenderSystem, "[template] "+s.cfg.Template, providerID, sendErr)
			if err := s.messages.Create(ctx, entry); err != nil {
				s.logger.Warn("Failed to log cart reminder", zap.Error(err))
			}
		}
		if sendErr != nil {
			s.logger.Warn("Cart reminder failed",
				zap.String("retailer_id", c.RetailerID.String()),
				zap.Error(sendErr))
			continue
		}
		s.markReminded(ctx, c.RetailerID, now)
		sent++
	}

	if sent > 0 {
		s.logger.Info("Abandoned cart reminders sent", zap.Int("count", sent))
	}
	return sent, nil
}

func (s *AbandonedCartService) markReminded(ctx context.Context, retailerID uuid.UUID, at time.Time) {
	if err := s.carts.MarkReminderSent(ctx, retailerID, at); err != nil {
		s.logger.Error("Failed to stamp cart reminder",
			zap.String("retailer_id", retailerID.String()),
			zap.Error(err))
	}
}

func firstName(name string) string {
	if fields := strings.Fields(name); len(fields) > 0 {
		return fields[0]
	}
	return "there"
}
