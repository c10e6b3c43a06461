package persistence

import (
	"context"

	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/d2bcart/backend/internal/domain/shipping"
	"github.com/d2bcart/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormShipmentRepository implements shipping.Repository using GORM
type GormShipmentRepository struct {
	db *gorm.DB
}

// NewGormShipmentRepository creates a new GormShipmentRepository
func NewGormShipmentRepository(db *gorm.DB) *GormShipmentRepository {
	return &GormShipmentRepository{db: db}
}

// Create inserts a shipment
func (r *GormShipmentRepository) Create(ctx context.Context, s *shipping.Shipment) error {
	return r.db.WithContext(ctx).Create(models.ShipmentModelFromDomain(s)).Error
}

// Update saves a shipment
func (r *GormShipmentRepository) Update(ctx context.Context, s *shipping.Shipment) error {
	return r.db.WithContext(ctx).Save(models.ShipmentModelFromDomain(s)).Error
}

// FindByOrderID finds the shipment of an order
func (r *GormShipmentRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*shipping.Shipment, error) {
	var model models.ShipmentModel
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&model).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindByAWB finds a shipment by air waybill
func (r *GormShipmentRepository) FindByAWB(ctx context.Context, awb string) (*shipping.Shipment, error) {
	if awb == "" {
		return nil, shared.ErrNotFound
	}
	var model models.ShipmentModel
	if err := r.db.WithContext(ctx).Where("awb = ?", awb).First(&model).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

var _ shipping.Repository = (*GormShipmentRepository)(nil)
