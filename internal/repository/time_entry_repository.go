package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/opsdesk/opsdesk-api/internal/database"
	"github.com/opsdesk/opsdesk-api/internal/models"
)

// GormTimeEntryRepository is a GORM implementation of TimeEntryRepository
type GormTimeEntryRepository struct {
	db *gorm.DB
}

// NewTimeEntryRepository creates a new TimeEntryRepository
func NewTimeEntryRepository(db *gorm.DB) TimeEntryRepository {
	return &GormTimeEntryRepository{db: db}
}

// Create creates a time entry
func (r *GormTimeEntryRepository) Create(entry *models.TimeEntry) error {
	return r.db.Create(entry).Error
}

// StartTimer inserts an open entry after verifying no other open entry exists
// for the user. The partial unique index backs the check up under races.
func (r *GormTimeEntryRepository) StartTimer(entry *models.TimeEntry) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.TimeEntry{}).
			Where("business_id = ? AND user_id = ? AND end_time IS NULL",
				entry.BusinessID, entry.UserID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrOpenTimerExists
		}
		return tx.Create(entry).Error
	})
}

// FindByID finds a time entry by ID
func (r *GormTimeEntryRepository) FindByID(businessID, id uint64) (*models.TimeEntry, error) {
	var entry models.TimeEntry
	if err := r.db.Where("business_id = ?", businessID).First(&entry, id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindOpenByUser finds the user's open entry, nil when there is none
func (r *GormTimeEntryRepository) FindOpenByUser(businessID, userID uint64) (*models.TimeEntry, error) {
	var entry models.TimeEntry
	err := r.db.
		Where("business_id = ? AND user_id = ? AND end_time IS NULL", businessID, userID).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// List retrieves time entries with filtering and pagination
func (r *GormTimeEntryRepository) List(filter TimeEntryFilter) ([]models.TimeEntry, int64, error) {
	var entries []models.TimeEntry

	query := r.db.Model(&models.TimeEntry{}).Scopes(database.TenantScope(filter.BusinessID))

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.ContactID != nil {
		query = query.Where("contact_id = ?", *filter.ContactID)
	}
	if filter.ItemID != nil {
		query = query.Where("item_id = ?", *filter.ItemID)
	}
	if filter.From != nil {
		query = query.Where("start_time >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("start_time < ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("start_time DESC").Scopes(database.Paginate(filter.Page, filter.PageSize))

	if err := listQuery.Preload("User").Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// Update updates a time entry
func (r *GormTimeEntryRepository) Update(entry *models.TimeEntry) error {
	return r.db.Save(entry).Error
}

// Delete removes a time entry
func (r *GormTimeEntryRepository) Delete(businessID, id uint64) error {
	return r.db.Where("business_id = ?", businessID).Delete(&models.TimeEntry{}, id).Error
}

// MinutesSince sums closed-entry minutes started at or after the given time
func (r *GormTimeEntryRepository) MinutesSince(businessID uint64, since time.Time) (int64, error) {
	var minutes int64
	err := r.db.Model(&models.TimeEntry{}).
		Where("business_id = ? AND start_time >= ? AND duration_minutes IS NOT NULL", businessID, since).
		Select("COALESCE(SUM(duration_minutes), 0)").
		Scan(&minutes).Error
	return minutes, err
}
