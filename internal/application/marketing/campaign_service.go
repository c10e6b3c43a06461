package marketing

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/d2bcart/backend/internal/domain/marketing"
	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/d2bcart/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const dueCampaignsPerRun = 5

// CampaignConfig bounds broadcast fan-out
type CampaignConfig struct {
	Concurrency int
	BatchSize   int
	StaleAfter  time.Duration
}

// CampaignService manages WhatsApp template broadcasts
type CampaignService struct {
	campaigns marketing.CampaignRepository
	contacts  marketing.ContactRepository
	messages  marketing.MessageRepository
	messenger marketing.Messenger
	metrics   *telemetry.BusinessMetrics
	cfg       CampaignConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewCampaignService creates a new CampaignService
func NewCampaignService(
	campaigns marketing.CampaignRepository,
	contacts marketing.ContactRepository,
	messages marketing.MessageRepository,
	messenger marketing.Messenger,
	metrics *telemetry.BusinessMetrics,
	cfg CampaignConfig,
	logger *zap.Logger,
) *CampaignService {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 5
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 200
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 30 * time.Minute
	}
	return &CampaignService{
		campaigns: campaigns,
		contacts:  contacts,
		messages:  messages,
		messenger: messenger,
		metrics:   metrics,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Create stores a draft campaign, scheduling it when a time is given
func (s *CampaignService) Create(ctx context.Context, req CampaignRequest) (*CampaignResponse, error) {
	c, err := marketing.NewCampaign(req.Name, req.TemplateName, req.Language, req.Parameters, req.AudienceTags)
	if err != nil {
		return nil, err
	}
	if req.ScheduledAt != nil {
		if err := s.schedule(c, *req.ScheduledAt); err != nil {
			return nil, err
		}
	}
	if err := s.campaigns.Create(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info("Campaign created",
		zap.String("campaign_id", c.ID.String()),
		zap.String("template", c.TemplateName),
		zap.Strings("audience", c.AudienceTags))
	resp := toCampaignResponse(c)
	return &resp, nil
}

// Schedule sets or moves the send time of a draft or scheduled campaign
func (s *CampaignService) Schedule(ctx context.Context, id uuid.UUID, at time.Time) (*CampaignResponse, error) {
	c, err := s.campaigns.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.schedule(c, at); err != nil {
		return nil, err
	}
	if err := s.campaigns.Update(ctx, c); err != nil {
		return nil, err
	}
	resp := toCampaignResponse(c)
	return &resp, nil
}

func (s *CampaignService) schedule(c *marketing.Campaign, at time.Time) error {
	if at.Before(s.now().Add(-time.Minute)) {
		return shared.NewDomainError("INVALID_SCHEDULE", "Campaigns cannot be scheduled in the past")
	}
	return c.Schedule(at)
}

// Cancel stops a campaign that has not started
func (s *CampaignService) Cancel(ctx context.Context, id uuid.UUID) (*CampaignResponse, error) {
	c, err := s.campaigns.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.Cancel(); err != nil {
		return nil, err
	}
	if err := s.campaigns.Update(ctx, c); err != nil {
		return nil, err
	}
	resp := toCampaignResponse(c)
	return &resp, nil
}

// Get returns one campaign
func (s *CampaignService) Get(ctx context.Context, id uuid.UUID) (*CampaignResponse, error) {
	c, err := s.campaigns.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toCampaignResponse(c)
	return &resp, nil
}

// List pages through campaigns, newest first
func (s *CampaignService) List(ctx context.Context, page, pageSize int) (*shared.Paginated[CampaignResponse], error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	campaigns, total, err := s.campaigns.FindAll(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}
	items := make([]CampaignResponse, 0, len(campaigns))
	for _, c := range campaigns {
		items = append(items, toCampaignResponse(c))
	}
	result := shared.NewPaginated(items, total, page, pageSize)
	return &result, nil
}

// DispatchDue sends every scheduled campaign whose time has come and returns
// how many it ran. Campaigns left running by a crashed worker are failed first.
func (s *CampaignService) DispatchDue(ctx context.Context) (int, error) {
	if s.messenger == nil {
		return 0, nil
	}
	now := s.now()
	stale, err := s.campaigns.FailStale(ctx, now.Add(-s.cfg.StaleAfter), now)
	if err != nil {
		return 0, err
	}
	if stale > 0 {
		s.logger.Warn("Marked stale running campaigns as failed", zap.Int64("count", stale))
	}

	due, err := s.campaigns.FindDue(ctx, now, dueCampaignsPerRun)
	if err != nil {
		return 0, err
	}

	ran := 0
	for _, c := range due {
		claimed, err := s.campaigns.ClaimForRun(ctx, c.ID, now)
		if err != nil {
			return ran, err
		}
		if !claimed {
			continue
		}
		if err := c.Start(now); err != nil {
			return ran, err
		}
		if err := s.run(ctx, c); err != nil {
			return ran, err
		}
		ran++
	}
	return ran, nil
}

// run sends the template to every reachable contact in the audience, page by
// page, with bounded concurrency
func (s *CampaignService) run(ctx context.Context, c *marketing.Campaign) error {
	var sent, failed atomic.Int64
	campaignID := c.ID
	cursor := uuid.Nil

	for {
		batch, err := s.contacts.FindAudience(ctx, c.AudienceTags, cursor, s.cfg.BatchSize)
		if err != nil {
			return s.abort(ctx, c, int(sent.Load()), int(failed.Load()), err)
		}
		if len(batch) == 0 {
			break
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.cfg.Concurrency)
		for _, contact := range batch {
			g.Go(func() error {
				providerID, err := s.messenger.SendTemplate(gctx, marketing.TemplateMessage{
					To:         contact.Phone,
					Template:   c.TemplateName,
					Language:   c.Language,
					Parameters: c.Parameters,
				})
				s.metrics.RecordMessage(gctx, string(marketing.SenderCampaign), err == nil)
				if err != nil {
					failed.Add(1)
				} else {
					sent.Add(1)
				}
				entry := marketing.NewOutbound(contact.ID, marketing.SenderCampaign, "[template] "+c.TemplateName, providerID, err)
				entry.CampaignID = &campaignID
				if logErr := s.messages.Create(gctx, entry); logErr != nil {
					s.logger.Warn("Failed to log campaign message", zap.Error(logErr))
				}
				return nil
			})
		}
		_ = g.Wait()

		if ctx.Err() != nil {
			return s.abort(ctx, c, int(sent.Load()), int(failed.Load()), ctx.Err())
		}
		cursor = batch[len(batch)-1].ID
		if len(batch) < s.cfg.BatchSize {
			break
		}
		if err := s.campaigns.Touch(ctx, c.ID, s.now()); err != nil {
			s.logger.Warn("Failed to record campaign progress", zap.Error(err))
		}
	}

	c.Finish(int(sent.Load()), int(failed.Load()), s.now())
	if err := s.campaigns.Update(ctx, c); err != nil {
		return err
	}
	s.logger.Info("Campaign finished",
		zap.String("campaign_id", c.ID.String()),
		zap.String("status", string(c.Status)),
		zap.Int("sent", c.Sent),
		zap.Int("failed", c.Failed))
	return nil
}

// abort records what was sent before the run stopped
func (s *CampaignService) abort(ctx context.Context, c *marketing.Campaign, sent, failed int, cause error) error {
	c.Finish(sent, failed, s.now())
	c.Status = marketing.CampaignStatusFailed
	if err := s.campaigns.Update(context.WithoutCancel(ctx), c); err != nil {
		s.logger.Error("Failed to record aborted campaign", zap.Error(err))
	}
	s.logger.Error("Campaign aborted",
		zap.String("campaign_id", c.ID.String()),
		zap.Int("sent", sent),
		zap.Error(cause))
	return cause
}
