package catalog

import (
	"strings"

	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Category groups products in the catalog. Categories nest one level deep.
type Category struct {
	shared.BaseEntity
	Name      string
	Slug      string
	ParentID  *uuid.UUID
	SortOrder int
	ImageKey  string
}

// NewCategory creates a category; the slug is derived from the name
func NewCategory(name string, parentID *uuid.UUID, sortOrder int) (*Category, error) {
	c := &Category{BaseEntity: shared.NewBaseEntity()}
	if err := c.Rename(name); err != nil {
		return nil, err
	}
	c.ParentID = parentID
	c.SortOrder = sortOrder
	return c, nil
}

// Rename changes the display name and slug
func (c *Category) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Category name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Category name cannot exceed 100 characters")
	}
	c.Name = name
	c.Slug = Slugify(name)
	c.Touch()
	return nil
}
