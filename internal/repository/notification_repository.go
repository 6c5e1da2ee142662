package repository

import (
	"gorm.io/gorm"

	"github.com/opsdesk/opsdesk-api/internal/database"
	"github.com/opsdesk/opsdesk-api/internal/models"
)

// GormNotificationRepository is a GORM implementation of NotificationRepository
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &GormNotificationRepository{db: db}
}

// CreateBatch inserts notification rows
func (r *GormNotificationRepository) CreateBatch(notifications []models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return r.db.Create(&notifications).Error
}

// List retrieves a member's notifications, newest first
func (r *GormNotificationRepository) List(businessID, userID uint64, page, pageSize int) ([]models.Notification, int64, error) {
	var notifications []models.Notification

	query := r.db.Model(&models.Notification{}).
		Scopes(database.TenantScope(businessID)).
		Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("created_at DESC").Scopes(database.Paginate(page, pageSize))

	if err := listQuery.Preload("Actor").Find(&notifications).Error; err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

// UnreadCount counts a member's unread notifications
func (r *GormNotificationRepository) UnreadCount(businessID, userID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("business_id = ? AND user_id = ? AND read = ?", businessID, userID, false).
		Count(&count).Error
	return count, err
}

// MarkRead marks one notification read
func (r *GormNotificationRepository) MarkRead(businessID, userID, id uint64) error {
	result := r.db.Model(&models.Notification{}).
		Where("business_id = ? AND user_id = ? AND id = ?", businessID, userID, id).
		Update("read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkAllRead marks all of a member's notifications read
func (r *GormNotificationRepository) MarkAllRead(businessID, userID uint64) (int64, error) {
	result := r.db.Model(&models.Notification{}).
		Where("business_id = ? AND user_id = ? AND read = ?", businessID, userID, false).
		Update("read", true)
	return result.RowsAffected, result.Error
}
