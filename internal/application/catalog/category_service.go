package catalog

import (
	"context"
	"errors"
	"sort"

	"github.com/d2bcart/backend/internal/domain/catalog"
	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CategoryService manages the category tree
type CategoryService struct {
	categoryRepo catalog.CategoryRepository
	logger       *zap.Logger
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(categoryRepo catalog.CategoryRepository, logger *zap.Logger) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo, logger: logger}
}

// Tree returns top-level categories with their children, ordered by sort
// order then name
func (s *CategoryService) Tree(ctx context.Context) ([]CategoryResponse, error) {
	categories, err := s.categoryRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(categories, func(i, j int) bool {
		if categories[i].SortOrder != categories[j].SortOrder {
			return categories[i].SortOrder < categories[j].SortOrder
		}
		return categories[i].Name < categories[j].Name
	})

	children := make(map[uuid.UUID][]CategoryResponse)
	for _, c := range categories {
		if c.ParentID != nil {
			children[*c.ParentID] = append(children[*c.ParentID], toCategoryResponse(c))
		}
	}
	roots := make([]CategoryResponse, 0)
	for _, c := range categories {
		if c.ParentID == nil {
			resp := toCategoryResponse(c)
			resp.Children = children[c.ID]
			roots = append(roots, resp)
		}
	}
	return roots, nil
}

// Create adds a category
func (s *CategoryService) Create(ctx context.Context, req CategoryRequest) (*CategoryResponse, error) {
	if err := s.ensureParent(ctx, req.ParentID, uuid.Nil); err != nil {
		return nil, err
	}
	category, err := catalog.NewCategory(req.Name, req.ParentID, req.SortOrder)
	if err != nil {
		return nil, err
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewDomainError("CATEGORY_EXISTS", "A category with this name already exists")
		}
		return nil, err
	}
	s.logger.Info("Category created", zap.String("category_id", category.ID.String()), zap.String("slug", category.Slug))
	resp := toCategoryResponse(category)
	return &resp, nil
}

// Update renames or moves a category
func (s *CategoryService) Update(ctx context.Context, id uuid.UUID, req CategoryRequest) (*CategoryResponse, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureParent(ctx, req.ParentID, id); err != nil {
		return nil, err
	}
	if err := category.Rename(req.Name); err != nil {
		return nil, err
	}
	category.ParentID = req.ParentID
	category.SortOrder = req.SortOrder
	if err := s.categoryRepo.Update(ctx, category); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewDomainError("CATEGORY_EXISTS", "A category with this name already exists")
		}
		return nil, err
	}
	resp := toCategoryResponse(category)
	return &resp, nil
}

// Delete removes a category that has no products
func (s *CategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.categoryRepo.FindByID(ctx, id); err != nil {
		return err
	}
	inUse, err := s.categoryRepo.HasProducts(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return shared.NewDomainError("CATEGORY_IN_USE", "Move or archive the products in this category first")
	}
	return s.categoryRepo.Delete(ctx, id)
}

// ensureParent allows one level of nesting only
func (s *CategoryService) ensureParent(ctx context.Context, parentID *uuid.UUID, self uuid.UUID) error {
	if parentID == nil {
		return nil
	}
	if *parentID == self {
		return shared.NewDomainError("INVALID_PARENT", "A category cannot be its own parent")
	}
	parent, err := s.categoryRepo.FindByID(ctx, *parentID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("INVALID_PARENT", "Parent category not found")
		}
		return err
	}
	if parent.ParentID != nil {
		return shared.NewDomainError("INVALID_PARENT", "Categories can only be nested one level deep")
	}
	return nil
}

func toCategoryResponse(c *catalog.Category) CategoryResponse {
	return CategoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		Slug:      c.Slug,
		ParentID:  c.ParentID,
		SortOrder: c.SortOrder,
	}
}
