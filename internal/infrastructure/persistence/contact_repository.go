package persistence

import (
	"context"

	"github.com/d2bcart/backend/internal/domain/marketing"
	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/d2bcart/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormContactRepository implements ContactRepository using GORM
type GormContactRepository struct {
	db *gorm.DB
}

// NewGormContactRepository creates a new GormContactRepository
func NewGormContactRepository(db *gorm.DB) *GormContactRepository {
	return &GormContactRepository{db: db}
}

// Create inserts a contact
func (r *GormContactRepository) Create(ctx context.Context, c *marketing.Contact) error {
	err := r.db.WithContext(ctx).Create(models.ContactModelFromDomain(c)).Error
	if isUniqueViolation(err) {
		return shared.ErrAlreadyExists
	}
	return err
}

// Update saves a contact
func (r *GormContactRepository) Update(ctx context.Context, c *marketing.Contact) error {
	return r.db.WithContext(ctx).Save(models.ContactModelFromDomain(c)).Error
}

// FindByID finds a contact by ID
func (r *GormContactRepository) FindByID(ctx context.Context, id uuid.UUID) (*marketing.Contact, error) {
	var model models.ContactModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindByPhone finds a contact by normalized phone
func (r *GormContactRepository) FindByPhone(ctx context.Context, phone string) (*marketing.Contact, error) {
	var model models.ContactModel
	if err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&model).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns contacts matching the filter with pagination
func (r *GormContactRepository) FindAll(ctx context.Context, filter marketing.ContactFilter) ([]*marketing.Contact, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ContactModel{})
	if filter.Search != "" {
		p := likePattern(filter.Search)
		query = query.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(business_name) LIKE ? ESCAPE '\' OR phone LIKE ? ESCAPE '\')`, p, p, p)
	}
	if filter.Tag != "" {
		query = query.Where("tags LIKE ?", tagPattern(filter.Tag))
	}
	if filter.OptedOut != nil {
		query = query.Where("opted_out = ?", *filter.OptedOut)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ContactModel
	paged, _ := paginate(query.Order("created_at DESC"), filter.Page, filter.PageSize)
	if err := paged.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toContacts(rows), total, nil
}

// FindAudience pages through reachable contacts by ascending ID
func (r *GormContactRepository) FindAudience(ctx context.Context, tags []string, afterID uuid.UUID, limit int) ([]*marketing.Contact, error) {
	query := r.db.WithContext(ctx).Model(&models.ContactModel{}).Where("opted_out = ?", false)
	if afterID != uuid.Nil {
		query = query.Where("id > ?", afterID)
	}
	if len(tags) > 0 {
		cond := r.db.Where("tags LIKE ?", tagPattern(tags[0]))
		for _, t := range tags[1:] {
			cond = cond.Or("tags LIKE ?", tagPattern(t))
		}
		query = query.Where(cond)
	}
	var rows []models.ContactModel
	if err := query.Order("id ASC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toContacts(rows), nil
}

func tagPattern(tag string) string {
	return "%," + marketing.NormalizeTag(tag) + ",%"
}

func toContacts(rows []models.ContactModel) []*marketing.Contact {
	contacts := make([]*marketing.Contact, len(rows))
	for i := range rows {
		contacts[i] = rows[i].ToDomain()
	}
	return contacts
}

var _ marketing.ContactRepository = (*GormContactRepository)(nil)

// GormMessageRepository implements MessageRepository using GORM
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a new GormMessageRepository
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// Create appends a message to the log
func (r *GormMessageRepository) Create(ctx context.Context, m *marketing.MessageLog) error {
	return r.db.WithContext(ctx).Create(models.MessageLogModelFromDomain(m)).Error
}

// CreateInbound inserts a received message, skipping provider message IDs
// that are already logged. The unique index on provider_message_id makes the
// insert itself the dedupe check.
func (r *GormMessageRepository) CreateInbound(ctx context.Context, m *marketing.MessageLog) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(models.MessageLogModelFromDomain(m))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Recent returns the latest messages for a contact, oldest first
func (r *GormMessageRepository) Recent(ctx context.Context, contactID uuid.UUID, limit int) ([]*marketing.MessageLog, error) {
	var rows []models.MessageLogModel
	if err := r.db.WithContext(ctx).
		Where("contact_id = ?", contactID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	logs := make([]*marketing.MessageLog, len(rows))
	for i := range rows {
		logs[len(rows)-1-i] = rows[i].ToDomain()
	}
	return logs, nil
}

var _ marketing.MessageRepository = (*GormMessageRepository)(nil)
