package persistence

import (
	"context"
	"time"

	"github.com/d2bcart/backend/internal/domain/marketing"
	"github.com/d2bcart/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCampaignRepository implements CampaignRepository using GORM
type GormCampaignRepository struct {
	db *gorm.DB
}

// NewGormCampaignRepository creates a new GormCampaignRepository
func NewGormCampaignRepository(db *gorm.DB) *GormCampaignRepository {
	return &GormCampaignRepository{db: db}
}

// Create inserts a campaign
func (r *GormCampaignRepository) Create(ctx context.Context, c *marketing.Campaign) error {
	return r.db.WithContext(ctx).Create(models.CampaignModelFromDomain(c)).Error
}

// Update saves a campaign
func (r *GormCampaignRepository) Update(ctx context.Context, c *marketing.Campaign) error {
	return r.db.WithContext(ctx).Save(models.CampaignModelFromDomain(c)).Error
}

// FindByID finds a campaign by ID
func (r *GormCampaignRepository) FindByID(ctx context.Context, id uuid.UUID) (*marketing.Campaign, error) {
	var model models.CampaignModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists campaigns, newest first
func (r *GormCampaignRepository) FindAll(ctx context.Context, page, pageSize int) ([]*marketing.Campaign, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.CampaignModel{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.CampaignModel
	paged, _ := paginate(query.Order("created_at DESC"), page, pageSize)
	if err := paged.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toCampaigns(rows), total, nil
}

// FindDue returns scheduled campaigns whose time has come
func (r *GormCampaignRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]*marketing.Campaign, error) {
	var rows []models.CampaignModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_at <= ?", marketing.CampaignStatusScheduled, now).
		Order("scheduled_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toCampaigns(rows), nil
}

// ClaimForRun moves a scheduled campaign to running; false means another
// worker got it first
func (r *GormCampaignRepository) ClaimForRun(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CampaignModel{}).
		Where("id = ? AND status = ?", id, marketing.CampaignStatusScheduled).
		Updates(map[string]any{
			"status":     marketing.CampaignStatusRunning,
			"started_at": now,
			"updated_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Touch bumps updated_at on a running campaign
func (r *GormCampaignRepository) Touch(ctx context.Context, id uuid.UUID, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.CampaignModel{}).
		Where("id = ? AND status = ?", id, marketing.CampaignStatusRunning).
		Update("updated_at", now).Error
}

// FailStale fails running campaigns last touched before cutoff. A worker that
// died mid-run leaves its campaign in running forever otherwise.
func (r *GormCampaignRepository) FailStale(ctx context.Context, cutoff, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CampaignModel{}).
		Where("status = ? AND updated_at < ?", marketing.CampaignStatusRunning, cutoff).
		Updates(map[string]any{
			"status":      marketing.CampaignStatusFailed,
			"finished_at": now,
			"updated_at":  now,
		})
	return result.RowsAffected, result.Error
}

func toCampaigns(rows []models.CampaignModel) []*marketing.Campaign {
	campaigns := make([]*marketing.Campaign, len(rows))
	for i := range rows {
		campaigns[i] = rows[i].ToDomain()
	}
	return campaigns
}

var _ marketing.CampaignRepository = (*GormCampaignRepository)(nil)
