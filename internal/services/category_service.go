package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"ledger/internal/core"
)

// CategoryService owns the category lifecycle. Names are unique per
// owner+type pair.
type CategoryService struct {
	store    CategoryStore
	resolver *CachedResolver
}

// NewCategoryService wires the service. resolver may be nil when no name
// cache needs invalidating.
func NewCategoryService(store CategoryStore, resolver *CachedResolver) *CategoryService {
	return &CategoryService{store: store, resolver: resolver}
}

// Create stores a new category after checking name uniqueness.
func (s *CategoryService) Create(ctx context.Context, ownerID, name string, typ core.TransactionType) (core.Category, error) {
	c := core.Category{
		ID:      uuid.NewString(),
		OwnerID: ownerID,
		Name:    name,
		Type:    typ,
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	exists, err := s.store.CategoryExists(ctx, ownerID, name, typ)
	if err != nil {
		return core.Category{}, fmt.Errorf("check category uniqueness: %w", err)
	}
	if exists {
		return core.Category{}, core.ErrDuplicateName
	}

	if err := s.store.CreateCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

// Get returns one category, scoped to its owner.
func (s *CategoryService) Get(ctx context.Context, ownerID, id string) (core.Category, error) {
	return s.store.GetCategory(ctx, id, ownerID)
}

// List returns the owner's categories, optionally restricted to one type.
func (s *CategoryService) List(ctx context.Context, ownerID string, typ core.TransactionType) ([]core.Category, error) {
	return s.store.ListCategories(ctx, ownerID, typ)
}

// Update renames or retypes an owner's category.
func (s *CategoryService) Update(ctx context.Context, ownerID, id, name string, typ core.TransactionType) (core.Category, error) {
	existing, err := s.store.GetCategory(ctx, id, ownerID)
	if err != nil {
		return core.Category{}, err
	}

	if existing.Name != name || existing.Type != typ {
		exists, err := s.store.CategoryExists(ctx, ownerID, name, typ)
		if err != nil {
			return core.Category{}, fmt.Errorf("check category uniqueness: %w", err)
		}
		if exists {
			return core.Category{}, core.ErrDuplicateName
		}
	}

	updated := existing
	updated.Name = name
	updated.Type = typ
	if err := updated.Validate(); err != nil {
		return core.Category{}, err
	}

	if err := s.store.UpdateCategory(ctx, updated); err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	s.invalidate(id)
	return updated, nil
}

// Delete removes an owner's category. Transactions keep their dangling
// category id; summaries tolerate it.
func (s *CategoryService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.store.DeleteCategory(ctx, id, ownerID); err != nil {
		return err
	}
	s.invalidate(id)
	return nil
}

func (s *CategoryService) invalidate(id string) {
	if s.resolver != nil {
		s.resolver.Invalidate(id)
	}
}
