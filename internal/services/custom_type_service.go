package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/opsdesk/opsdesk-api/internal/cache"
	"github.com/opsdesk/opsdesk-api/internal/models"
	"github.com/opsdesk/opsdesk-api/internal/repository"
)

var (
	ErrCustomTypeNameEmpty       = errors.New("custom type name is required")
	ErrCustomTypeCategoryInvalid = errors.New("custom type category must be contact or item")
)

// CustomTypeService handles tenant-defined taxonomy values
type CustomTypeService struct {
	customTypeRepo repository.CustomTypeRepository
	cache          cache.Cache
}

// NewCustomTypeService creates a new CustomTypeService
func NewCustomTypeService(customTypeRepo repository.CustomTypeRepository, c cache.Cache) *CustomTypeService {
	return &CustomTypeService{customTypeRepo: customTypeRepo, cache: c}
}

// Create adds a taxonomy value
func (s *CustomTypeService) Create(ctx context.Context, businessID uint64, category models.CustomTypeCategory, name string) (*models.CustomType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrCustomTypeNameEmpty
	}
	if category != models.CustomTypeCategoryContact && category != models.CustomTypeCategoryItem {
		return nil, ErrCustomTypeCategoryInvalid
	}

	ct := &models.CustomType{
		BusinessID: businessID,
		Category:   category,
		Name:       name,
		Active:     true,
	}
	if err := s.customTypeRepo.Create(ct); err != nil {
		return nil, fmt.Errorf("failed to create custom type: %w", err)
	}

	invalidate(ctx, s.cache, businessID, cache.EntityCustomTypes)
	return ct, nil
}

// List lists taxonomy values for a category
func (s *CustomTypeService) List(ctx context.Context, businessID uint64, category models.CustomTypeCategory, activeOnly bool) ([]models.CustomType, error) {
	key := cache.Key(businessID, cache.EntityCustomTypes, struct {
		Category   models.CustomTypeCategory
		ActiveOnly bool
	}{category, activeOnly})
	return fetchCached(ctx, s.cache, businessID, key,
		[]cache.Entity{cache.EntityCustomTypes},
		func() ([]models.CustomType, error) {
			return s.customTypeRepo.List(businessID, category, activeOnly)
		})
}

// Rename renames a taxonomy value
func (s *CustomTypeService) Rename(ctx context.Context, businessID, id uint64, name string) (*models.CustomType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrCustomTypeNameEmpty
	}

	ct, err := s.customTypeRepo.FindByID(businessID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find custom type: %w", err)
	}

	ct.Name = name
	if err := s.customTypeRepo.Update(ct); err != nil {
		return nil, fmt.Errorf("failed to rename custom type: %w", err)
	}

	invalidate(ctx, s.cache, businessID, cache.EntityCustomTypes)
	return ct, nil
}

// Deactivate soft-deletes a taxonomy value; rows referencing it keep the label.
func (s *CustomTypeService) Deactivate(ctx context.Context, businessID, id uint64) error {
	if err := s.customTypeRepo.Deactivate(businessID, id); err != nil {
		return fmt.Errorf("failed to deactivate custom type: %w", err)
	}
	invalidate(ctx, s.cache, businessID, cache.EntityCustomTypes)
	return nil
}
