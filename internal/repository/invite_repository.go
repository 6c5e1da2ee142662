package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/opsdesk/opsdesk-api/internal/models"
)

// GormInviteRepository is a GORM implementation of InviteRepository
type GormInviteRepository struct {
	db *gorm.DB
}

// NewInviteRepository creates a new InviteRepository
func NewInviteRepository(db *gorm.DB) InviteRepository {
	return &GormInviteRepository{db: db}
}

// Create creates a new invite
func (r *GormInviteRepository) Create(invite *models.Invite) error {
	return r.db.Create(invite).Error
}

// ListPending lists unaccepted, unexpired invites for a business
func (r *GormInviteRepository) ListPending(businessID uint64) ([]models.Invite, error) {
	var invites []models.Invite
	if err := r.db.Preload("Inviter").
		Where("business_id = ? AND accepted_at IS NULL AND expires_at > ?", businessID, time.Now()).
		Order("created_at DESC").
		Find(&invites).Error; err != nil {
		return nil, err
	}
	return invites, nil
}

// FindPendingByEmail finds an open invite for an email within a business
func (r *GormInviteRepository) FindPendingByEmail(businessID uint64, email string) (*models.Invite, error) {
	var invite models.Invite
	if err := r.db.
		Where("business_id = ? AND email = ? AND accepted_at IS NULL AND expires_at > ?",
			businessID, email, time.Now()).
		First(&invite).Error; err != nil {
		return nil, err
	}
	return &invite, nil
}

// FindByToken finds an invite by its token
func (r *GormInviteRepository) FindByToken(token string) (*models.Invite, error) {
	var invite models.Invite
	if err := r.db.Preload("Business").Where("token = ?", token).First(&invite).Error; err != nil {
		return nil, err
	}
	return &invite, nil
}

// Delete revokes an invite
func (r *GormInviteRepository) Delete(businessID, id uint64) error {
	return r.db.Where("business_id = ?", businessID).Delete(&models.Invite{}, id).Error
}

// Accept marks the invite used and creates or moves the member profile atomically.
func (r *GormInviteRepository) Accept(invite *models.Invite, user *models.User) (*models.Profile, error) {
	profile := &models.Profile{
		UserID:     user.ID,
		BusinessID: invite.BusinessID,
		Role:       invite.Role,
		JoinedAt:   time.Now(),
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		if err := tx.Model(invite).Update("accepted_at", &now).Error; err != nil {
			return err
		}

		// A user switching businesses keeps one profile row.
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"business_id": invite.BusinessID,
				"role":        invite.Role,
				"joined_at":   now,
			}),
		}).Create(profile).Error
	})
	if err != nil {
		return nil, err
	}

	return profile, nil
}
