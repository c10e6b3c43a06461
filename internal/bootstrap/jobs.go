package bootstrap

import (
	"context"

	"github.com/d2bcart/backend/internal/infrastructure/scheduler"
	"go.uber.org/zap"
)

// Background job names
const (
	JobAbandonedCart    = "abandoned_cart"
	JobCampaignDispatch = "campaign_dispatch"
	JobPayoutPromote    = "payout_promote"
	JobAttemptExpiry    = "attempt_expiry"
)

func (a *App) registerJobs() error {
	cfg := a.Config.Scheduler
	a.Scheduler = scheduler.NewScheduler(scheduler.Config{
		Enabled:    cfg.Enabled,
		JobTimeout: cfg.JobTimeout,
	}, a.Logger)

	s := a.Services
	jobs := []*scheduler.Job{
		{
			Name:     JobAbandonedCart,
			Interval: cfg.AbandonedCartInterval,
			Run: func(ctx context.Context) error {
				sent, err := s.AbandonedCarts.SendReminders(ctx)
				a.logJob(ctx, JobAbandonedCart, zap.Int("sent", sent))
				return err
			},
		},
		{
			Name:     JobCampaignDispatch,
			Interval: cfg.CampaignInterval,
			Run: func(ctx context.Context) error {
				started, err := s.Campaigns.DispatchDue(ctx)
				a.logJob(ctx, JobCampaignDispatch, zap.Int("campaigns", started))
				return err
			},
		},
		{
			Name:       JobPayoutPromote,
			Interval:   cfg.PayoutInterval,
			RunOnStart: true,
			Run: func(ctx context.Context) error {
				promoted, err := s.Payouts.PromoteEligible(ctx)
				a.logJob(ctx, JobPayoutPromote, zap.Int64("promoted", promoted))
				return err
			},
		},
		{
			Name:       JobAttemptExpiry,
			Interval:   cfg.AttemptExpiryInterval,
			RunOnStart: true,
			Run: func(ctx context.Context) error {
				expired, err := s.Checkout.ExpireStale(ctx)
				a.logJob(ctx, JobAttemptExpiry, zap.Int64("expired", expired))
				return err
			},
		},
	}
	for _, job := range jobs {
		if err := a.Scheduler.Register(job); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) logJob(_ context.Context, name string, fields ...zap.Field) {
	a.Logger.Debug("Job finished", append([]zap.Field{zap.String("job", name)}, fields...)...)
}
