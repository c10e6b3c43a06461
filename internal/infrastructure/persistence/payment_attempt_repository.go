package persistence

import (
	"context"
	"time"

	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/d2bcart/backend/internal/domain/trade"
	"github.com/d2bcart/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPaymentAttemptRepository implements PaymentAttemptRepository using GORM
type GormPaymentAttemptRepository struct {
	db *gorm.DB
}

// NewGormPaymentAttemptRepository creates a new GormPaymentAttemptRepository
func NewGormPaymentAttemptRepository(db *gorm.DB) *GormPaymentAttemptRepository {
	return &GormPaymentAttemptRepository{db: db}
}

// Create inserts a new attempt
func (r *GormPaymentAttemptRepository) Create(ctx context.Context, a *trade.PaymentAttempt) error {
	return r.db.WithContext(ctx).Create(models.PaymentAttemptModelFromDomain(a)).Error
}

// Update saves an attempt
func (r *GormPaymentAttemptRepository) Update(ctx context.Context, a *trade.PaymentAttempt) error {
	return r.db.WithContext(ctx).Save(models.PaymentAttemptModelFromDomain(a)).Error
}

// FindByID finds an attempt by ID
func (r *GormPaymentAttemptRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.PaymentAttempt, error) {
	var model models.PaymentAttemptModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindByGatewayOrderID finds an attempt by the gateway's order ID
func (r *GormPaymentAttemptRepository) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*trade.PaymentAttempt, error) {
	if gatewayOrderID == "" {
		return nil, shared.ErrNotFound
	}
	var model models.PaymentAttemptModel
	if err := r.db.WithContext(ctx).Where("gateway_order_id = ?", gatewayOrderID).First(&model).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// Claim moves a claimable attempt to processing with a conditional UPDATE.
// Exactly one concurrent caller sees a row affected.
func (r *GormPaymentAttemptRepository) Claim(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PaymentAttemptModel{}).
		Where("id = ? AND status IN ?", id, trade.ClaimableAttemptStatuses()).
		Updates(map[string]any{
			"status":     trade.AttemptStatusProcessing,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// RecordFailure stores the reason a materialization was rolled back. The
// attempt keeps its claimable status.
func (r *GormPaymentAttemptRepository) RecordFailure(ctx context.Context, id uuid.UUID, reason string) error {
	return r.db.WithContext(ctx).
		Model(&models.PaymentAttemptModel{}).
		Where("id = ? AND status IN ?", id, trade.ClaimableAttemptStatuses()).
		Updates(map[string]any{
			"failure_reason": reason,
			"updated_at":     time.Now().UTC(),
		}).Error
}

// MarkFailed records a gateway failure on a claimable attempt
func (r *GormPaymentAttemptRepository) MarkFailed(ctx context.Context, id uuid.UUID, paymentID, reason string) error {
	return r.db.WithContext(ctx).
		Model(&models.PaymentAttemptModel{}).
		Where("id = ? AND status IN ?", id, trade.ClaimableAttemptStatuses()).
		Updates(map[string]any{
			"status":             trade.AttemptStatusFailed,
			"gateway_payment_id": paymentID,
			"failure_reason":     reason,
			"updated_at":         time.Now().UTC(),
		}).Error
}

// ExpireStale marks claimable attempts created before cutoff as expired
func (r *GormPaymentAttemptRepository) ExpireStale(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PaymentAttemptModel{}).
		Where("status IN ? AND created_at < ?", trade.ClaimableAttemptStatuses(), cutoff).
		Updates(map[string]any{
			"status":     trade.AttemptStatusExpired,
			"updated_at": time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}

var _ trade.PaymentAttemptRepository = (*GormPaymentAttemptRepository)(nil)
