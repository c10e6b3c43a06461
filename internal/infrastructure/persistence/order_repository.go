package persistence

import (
	"context"
	"time"

	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/d2bcart/backend/internal/domain/trade"
	"github.com/d2bcart/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// statuses that do not count towards sales figures
var nonRevenueStatuses = []trade.OrderStatus{trade.OrderStatusCancelled, trade.OrderStatusRTO}

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// CreateBatch inserts orders together with their items
func (r *GormOrderRepository) CreateBatch(ctx context.Context, orders []*trade.Order) error {
	if len(orders) == 0 {
		return nil
	}
	rows := make([]*models.OrderModel, len(orders))
	for i, o := range orders {
		rows[i] = models.OrderModelFromDomain(o)
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// Update saves order header fields with optimistic locking. The aggregate
// bumps its version once per status change, so the stored row must still
// carry the previous version. Items are immutable after placement.
func (r *GormOrderRepository) Update(ctx context.Context, o *trade.Order) error {
	model := models.OrderModelFromDomain(o)
	result := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("id = ? AND version = ?", o.ID, o.Version-1).
		Select("*").
		Omit("Items", "ID", "CreatedAt").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.OrderModel{}).Where("id = ?", o.ID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.ErrNotFound
	}
	return shared.ErrConcurrencyConflict
}

// FindByID finds an order with its items
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).Preload("Items").First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindByAWB finds the order carrying an air waybill
func (r *GormOrderRepository) FindByAWB(ctx context.Context, awb string) (*trade.Order, error) {
	if awb == "" {
		return nil, shared.ErrNotFound
	}
	var model models.OrderModel
	if err := r.db.WithContext(ctx).Preload("Items").Where("awb = ?", awb).First(&model).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindByPaymentAttemptID returns the orders materialized from an attempt
func (r *GormOrderRepository) FindByPaymentAttemptID(ctx context.Context, attemptID uuid.UUID) ([]*trade.Order, error) {
	var rows []models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("payment_attempt_id = ?", attemptID).
		Order("order_number ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toOrders(rows), nil
}

// FindAll returns orders matching the filter with pagination
func (r *GormOrderRepository) FindAll(ctx context.Context, filter trade.OrderFilter) ([]*trade.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.OrderModel{})

	if filter.RetailerID != nil {
		query = query.Where("retailer_id = ?", *filter.RetailerID)
	}
	if filter.ManufacturerID != nil {
		query = query.Where("manufacturer_id = ?", *filter.ManufacturerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Search != "" {
		p := likePattern(filter.Search)
		query = query.Where(`(LOWER(order_number) LIKE ? ESCAPE '\' OR LOWER(awb) LIKE ? ESCAPE '\')`, p, p)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.OrderModel
	paged, _ := paginate(query.Preload("Items").Order("created_at DESC"), filter.Page, filter.PageSize)
	if err := paged.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toOrders(rows), total, nil
}

// CountByStatus returns order counts keyed by status
func (r *GormOrderRepository) CountByStatus(ctx context.Context) (map[trade.OrderStatus]int64, error) {
	var rows []struct {
		Status trade.OrderStatus
		Count  int64
	}
	if err := r.db.WithContext(ctx).Model(&models.OrderModel{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[trade.OrderStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// SalesSummary totals GMV and platform margin for orders placed in [from, to)
func (r *GormOrderRepository) SalesSummary(ctx context.Context, from, to time.Time) (trade.SalesSummary, error) {
	var row struct {
		OrderCount int64
		GMV        decimal.NullDecimal
		Margin     decimal.NullDecimal
	}
	err := r.db.WithContext(ctx).Model(&models.OrderModel{}).
		Select("COUNT(*) AS order_count, SUM(total) AS gmv, SUM(platform_margin) AS margin").
		Where("created_at >= ? AND created_at < ?", from, to).
		Where("status NOT IN ?", nonRevenueStatuses).
		Scan(&row).Error
	if err != nil {
		return trade.SalesSummary{}, err
	}
	return trade.SalesSummary{
		OrderCount:     row.OrderCount,
		GMV:            nullToZero(row.GMV).Round(2),
		PlatformMargin: nullToZero(row.Margin).Round(2),
	}, nil
}

// AttributionReport groups orders placed in [from, to) by marketing source
func (r *GormOrderRepository) AttributionReport(ctx context.Context, from, to time.Time) ([]trade.AttributionRow, error) {
	var rows []struct {
		Source     string
		Medium     string
		Campaign   string
		OrderCount int64
		Revenue    decimal.NullDecimal
	}
	err := r.db.WithContext(ctx).Model(&models.OrderModel{}).
		Select(`attribution_source AS source, attribution_medium AS medium, attribution_campaign AS campaign,
			COUNT(*) AS order_count, SUM(total) AS revenue`).
		Where("created_at >= ? AND created_at < ?", from, to).
		Where("status NOT IN ?", nonRevenueStatuses).
		Group("attribution_source, attribution_medium, attribution_campaign").
		Order("revenue DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	report := make([]trade.AttributionRow, len(rows))
	for i, row := range rows {
		report[i] = trade.AttributionRow{
			Source:     row.Source,
			Medium:     row.Medium,
			Campaign:   row.Campaign,
			OrderCount: row.OrderCount,
			Revenue:    nullToZero(row.Revenue).Round(2),
		}
	}
	return report, nil
}

func nullToZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}

func toOrders(rows []models.OrderModel) []*trade.Order {
	orders := make([]*trade.Order, len(rows))
	for i := range rows {
		orders[i] = rows[i].ToDomain()
	}
	return orders
}

var _ trade.OrderRepository = (*GormOrderRepository)(nil)
