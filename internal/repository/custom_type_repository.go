package repository

import (
	"gorm.io/gorm"

	"github.com/opsdesk/opsdesk-api/internal/models"
)

// GormCustomTypeRepository is a GORM implementation of CustomTypeRepository
type GormCustomTypeRepository struct {
	db *gorm.DB
}

// NewCustomTypeRepository creates a new CustomTypeRepository
func NewCustomTypeRepository(db *gorm.DB) CustomTypeRepository {
	return &GormCustomTypeRepository{db: db}
}

// Create creates a new custom type
func (r *GormCustomTypeRepository) Create(ct *models.CustomType) error {
	return r.db.Create(ct).Error
}

// List lists custom types for a category
func (r *GormCustomTypeRepository) List(businessID uint64, category models.CustomTypeCategory, activeOnly bool) ([]models.CustomType, error) {
	var types []models.CustomType
	query := r.db.Where("business_id = ? AND category = ?", businessID, category)
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	if err := query.Order("name ASC").Find(&types).Error; err != nil {
		return nil, err
	}
	return types, nil
}

// FindByID finds a custom type by ID
func (r *GormCustomTypeRepository) FindByID(businessID, id uint64) (*models.CustomType, error) {
	var ct models.CustomType
	if err := r.db.Where("business_id = ?", businessID).First(&ct, id).Error; err != nil {
		return nil, err
	}
	return &ct, nil
}

// Update updates a custom type
func (r *GormCustomTypeRepository) Update(ct *models.CustomType) error {
	return r.db.Save(ct).Error
}

// Deactivate soft-deletes a custom type so existing rows keep their label
func (r *GormCustomTypeRepository) Deactivate(businessID, id uint64) error {
	return r.db.Model(&models.CustomType{}).
		Where("business_id = ? AND id = ?", businessID, id).
		Update("active", false).Error
}
