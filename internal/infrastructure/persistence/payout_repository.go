package persistence

import (
	"context"
	"time"

	"github.com/d2bcart/backend/internal/domain/payout"
	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/d2bcart/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormPayoutRepository implements payout.Repository using GORM
type GormPayoutRepository struct {
	db *gorm.DB
}

// NewGormPayoutRepository creates a new GormPayoutRepository
func NewGormPayoutRepository(db *gorm.DB) *GormPayoutRepository {
	return &GormPayoutRepository{db: db}
}

// Create inserts a payout; the unique order index rejects duplicates
func (r *GormPayoutRepository) Create(ctx context.Context, p *payout.Payout) error {
	err := r.db.WithContext(ctx).Create(models.PayoutModelFromDomain(p)).Error
	if isUniqueViolation(err) {
		return shared.ErrAlreadyExists
	}
	return err
}

// Update saves a payout
func (r *GormPayoutRepository) Update(ctx context.Context, p *payout.Payout) error {
	return r.db.WithContext(ctx).Save(models.PayoutModelFromDomain(p)).Error
}

// FindByID finds a payout by ID
func (r *GormPayoutRepository) FindByID(ctx context.Context, id uuid.UUID) (*payout.Payout, error) {
	var model models.PayoutModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindByOrderID finds the payout created for an order
func (r *GormPayoutRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*payout.Payout, error) {
	var model models.PayoutModel
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&model).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns payouts matching the filter with pagination
func (r *GormPayoutRepository) FindAll(ctx context.Context, filter payout.Filter) ([]*payout.Payout, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.PayoutModel{})
	if filter.ManufacturerID != nil {
		query = query.Where("manufacturer_id = ?", *filter.ManufacturerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.PayoutModel
	paged, _ := paginate(query.Order("eligible_at DESC"), filter.Page, filter.PageSize)
	if err := paged.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	payouts := make([]*payout.Payout, len(rows))
	for i := range rows {
		payouts[i] = rows[i].ToDomain()
	}
	return payouts, total, nil
}

// PromoteEligible flips pending payouts whose hold has elapsed
func (r *GormPayoutRepository) PromoteEligible(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PayoutModel{}).
		Where("status = ? AND eligible_at <= ?", payout.StatusPending, now).
		Updates(map[string]any{
			"status":     payout.StatusEligible,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}

// Summarize totals amounts per status, optionally for one manufacturer
func (r *GormPayoutRepository) Summarize(ctx context.Context, manufacturerID *uuid.UUID) (payout.Summary, error) {
	query := r.db.WithContext(ctx).Model(&models.PayoutModel{}).
		Select("status, SUM(amount) AS total").
		Group("status")
	if manufacturerID != nil {
		query = query.Where("manufacturer_id = ?", *manufacturerID)
	}
	var rows []struct {
		Status payout.Status
		Total  decimal.NullDecimal
	}
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	summary := payout.Summary{}
	for _, row := range rows {
		summary[row.Status] = nullToZero(row.Total).Round(2)
	}
	return summary, nil
}

var _ payout.Repository = (*GormPayoutRepository)(nil)
