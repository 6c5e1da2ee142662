package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/opsdesk/opsdesk-api/internal/models"
)

// GormCalendarRepository is a GORM implementation of CalendarRepository
type GormCalendarRepository struct {
	db *gorm.DB
}

// NewCalendarRepository creates a new CalendarRepository
func NewCalendarRepository(db *gorm.DB) CalendarRepository {
	return &GormCalendarRepository{db: db}
}

// CreateWithAttendees creates the entry and its attendee rows atomically
func (r *GormCalendarRepository) CreateWithAttendees(entry *models.CalendarEntry, attendees []models.CalendarAttendee) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		for i := range attendees {
			attendees[i].EntryID = entry.ID
		}
		if len(attendees) > 0 {
			if err := tx.Create(&attendees).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// FindByID finds an entry by ID with optional preloading
func (r *GormCalendarRepository) FindByID(businessID, id uint64, preload ...string) (*models.CalendarEntry, error) {
	var entry models.CalendarEntry
	query := r.db.Where("business_id = ?", businessID)
	for _, p := range preload {
		query = query.Preload(p)
	}
	if err := query.First(&entry, id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// List returns entries overlapping [from, to)
func (r *GormCalendarRepository) List(businessID uint64, from, to time.Time) ([]models.CalendarEntry, error) {
	var entries []models.CalendarEntry
	if err := r.db.
		Where("business_id = ? AND start_time < ? AND end_time > ?", businessID, to, from).
		Order("start_time ASC").
		Preload("Attendees.User").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Update updates an entry. Attendee rows are managed by ReplaceAttendees and
// Respond, so the preloaded association is omitted from the save.
func (r *GormCalendarRepository) Update(entry *models.CalendarEntry) error {
	return r.db.Omit(clause.Associations).Save(entry).Error
}

// ReplaceAttendees swaps the attendee set atomically
func (r *GormCalendarRepository) ReplaceAttendees(entryID uint64, attendees []models.CalendarAttendee) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("entry_id = ?", entryID).Delete(&models.CalendarAttendee{}).Error; err != nil {
			return err
		}
		for i := range attendees {
			attendees[i].EntryID = entryID
		}
		if len(attendees) > 0 {
			if err := tx.Create(&attendees).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes an entry and its attendees
func (r *GormCalendarRepository) Delete(businessID, id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("entry_id = ?", id).Delete(&models.CalendarAttendee{}).Error; err != nil {
			return err
		}
		return tx.Where("business_id = ?", businessID).Delete(&models.CalendarEntry{}, id).Error
	})
}

// Respond records an attendee's response
func (r *GormCalendarRepository) Respond(entryID, userID uint64, status models.AttendeeStatus) error {
	result := r.db.Model(&models.CalendarAttendee{}).
		Where("entry_id = ? AND user_id = ?", entryID, userID).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// TeamEntries returns entries overlapping [from, to) attended by any of the given users
func (r *GormCalendarRepository) TeamEntries(businessID uint64, userIDs []uint64, from, to time.Time) ([]models.CalendarEntry, error) {
	var entries []models.CalendarEntry
	if err := r.db.
		Distinct("calendar_entries.*").
		Joins("JOIN calendar_attendees ON calendar_attendees.entry_id = calendar_entries.id").
		Where("calendar_entries.business_id = ?", businessID).
		Where("calendar_attendees.user_id IN ?", userIDs).
		Where("calendar_entries.start_time < ? AND calendar_entries.end_time > ?", to, from).
		Order("calendar_entries.start_time ASC").
		Preload("Attendees.User").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
