package services

import (
	"context"
	"fmt"

	"github.com/opsdesk/opsdesk-api/internal/cache"
	"github.com/opsdesk/opsdesk-api/internal/models"
	"github.com/opsdesk/opsdesk-api/internal/repository"
)

// NotificationService handles the per-member notification inbox. Rows are
// created by the task repository inside comment and assignment transactions;
// this service only reads and marks them.
type NotificationService struct {
	notificationRepo repository.NotificationRepository
	cache            cache.Cache
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(notificationRepo repository.NotificationRepository, c cache.Cache) *NotificationService {
	return &NotificationService{notificationRepo: notificationRepo, cache: c}
}

// List lists the user's notifications, newest first
func (s *NotificationService) List(ctx context.Context, businessID, userID uint64, page, pageSize int) ([]models.Notification, int64, error) {
	key := cache.Key(businessID, cache.EntityNotifications, struct {
		UserID   uint64
		Page     int
		PageSize int
	}{userID, page, pageSize})

	type result struct {
		Notifications []models.Notification `json:"notifications"`
		Total         int64                 `json:"total"`
	}
	r, err := fetchCached(ctx, s.cache, businessID, key,
		[]cache.Entity{cache.EntityNotifications},
		func() (result, error) {
			notifications, total, err := s.notificationRepo.List(businessID, userID, page, pageSize)
			return result{Notifications: notifications, Total: total}, err
		})
	if err != nil {
		return nil, 0, err
	}
	return r.Notifications, r.Total, nil
}

// UnreadCount returns the user's unread notification count
func (s *NotificationService) UnreadCount(businessID, userID uint64) (int64, error) {
	return s.notificationRepo.UnreadCount(businessID, userID)
}

// MarkRead marks one notification read
func (s *NotificationService) MarkRead(ctx context.Context, businessID, userID, id uint64) error {
	if err := s.notificationRepo.MarkRead(businessID, userID, id); err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	invalidate(ctx, s.cache, businessID, cache.EntityNotifications)
	return nil
}

// MarkAllRead marks every unread notification of the user read
func (s *NotificationService) MarkAllRead(ctx context.Context, businessID, userID uint64) (int64, error) {
	marked, err := s.notificationRepo.MarkAllRead(businessID, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	if marked > 0 {
		invalidate(ctx, s.cache, businessID, cache.EntityNotifications)
	}
	return marked, nil
}
