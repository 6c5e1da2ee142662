package repository

import (
	"gorm.io/gorm"

	"github.com/opsdesk/opsdesk-api/internal/models"
)

// GormBusinessRepository is a GORM implementation of BusinessRepository
type GormBusinessRepository struct {
	db *gorm.DB
}

// NewBusinessRepository creates a new BusinessRepository
func NewBusinessRepository(db *gorm.DB) BusinessRepository {
	return &GormBusinessRepository{db: db}
}

// FindByID finds a business by ID
func (r *GormBusinessRepository) FindByID(id uint64) (*models.Business, error) {
	var business models.Business
	if err := r.db.First(&business, id).Error; err != nil {
		return nil, err
	}
	return &business, nil
}

// Update updates a business
func (r *GormBusinessRepository) Update(business *models.Business) error {
	return r.db.Save(business).Error
}

// FindProfileByUserID finds the profile for a user
func (r *GormBusinessRepository) FindProfileByUserID(userID uint64) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.Preload("Business").Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// ListProfiles lists all member profiles of a business
func (r *GormBusinessRepository) ListProfiles(businessID uint64) ([]models.Profile, error) {
	var profiles []models.Profile
	if err := r.db.Preload("User").
		Where("business_id = ?", businessID).
		Order("joined_at ASC").
		Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

// UpdateProfileRole changes a member's role
func (r *GormBusinessRepository) UpdateProfileRole(businessID, userID uint64, role models.Role) error {
	return r.db.Model(&models.Profile{}).
		Where("business_id = ? AND user_id = ?", businessID, userID).
		Update("role", role).Error
}

// RemoveProfile removes a member from a business
func (r *GormBusinessRepository) RemoveProfile(businessID, userID uint64) error {
	return r.db.Where("business_id = ? AND user_id = ?", businessID, userID).
		Delete(&models.Profile{}).Error
}
