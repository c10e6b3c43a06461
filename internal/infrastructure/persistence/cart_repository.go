package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/d2bcart/backend/internal/domain/cart"
	"github.com/d2bcart/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCartRepository implements cart.Repository using GORM
type GormCartRepository struct {
	db *gorm.DB
}

// NewGormCartRepository creates a new GormCartRepository
func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// Get loads a retailer's cart, returning an empty one when none is stored
func (r *GormCartRepository) Get(ctx context.Context, retailerID uuid.UUID) (*cart.Cart, error) {
	var model models.CartModel
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("added_at ASC") }).
		First(&model, "retailer_id = ?", retailerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return cart.New(retailerID), nil
	}
	if err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save replaces the stored lines and activity stamps in one transaction.
// It joins the caller's transaction when the repository was built on one.
func (r *GormCartRepository) Save(ctx context.Context, c *cart.Cart) error {
	model := models.CartModelFromDomain(c)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "retailer_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_activity_at", "reminder_sent_at", "updated_at"}),
		}).Omit("Items").Create(model).Error; err != nil {
			return err
		}
		if err := tx.Where("retailer_id = ?", c.RetailerID).Delete(&models.CartItemModel{}).Error; err != nil {
			return err
		}
		if len(model.Items) == 0 {
			return nil
		}
		return tx.Create(&model.Items).Error
	})
}

// FindIdle returns non-empty carts idle within [from, to] that have not been
// reminded since their last activity
func (r *GormCartRepository) FindIdle(ctx context.Context, from, to time.Time, limit int) ([]*cart.Cart, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []models.CartModel
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("last_activity_at BETWEEN ? AND ?", from, to).
		Where("(reminder_sent_at IS NULL OR reminder_sent_at < last_activity_at)").
		Where("EXISTS (SELECT 1 FROM cart_items ci WHERE ci.retailer_id = carts.retailer_id)").
		Order("last_activity_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	carts := make([]*cart.Cart, len(rows))
	for i := range rows {
		carts[i] = rows[i].ToDomain()
	}
	return carts, nil
}

// MarkReminderSent stamps the reminder without touching activity
func (r *GormCartRepository) MarkReminderSent(ctx context.Context, retailerID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.CartModel{}).
		Where("retailer_id = ?", retailerID).
		Update("reminder_sent_at", at).Error
}

var _ cart.Repository = (*GormCartRepository)(nil)
