package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/opsdesk/opsdesk-api/internal/billing"
	"github.com/opsdesk/opsdesk-api/internal/cache"
	"github.com/opsdesk/opsdesk-api/internal/models"
	"github.com/opsdesk/opsdesk-api/internal/repository"
)

var (
	ErrTimerAlreadyRunning = errors.New("a timer is already running")
	ErrNoTimerRunning      = errors.New("no timer is running")
	ErrEntryTimesBackwards = errors.New("entry must end after it starts")
)

// TimeEntryService handles timers and manual time entries
type TimeEntryService struct {
	timeEntryRepo repository.TimeEntryRepository
	cache         cache.Cache
}

// NewTimeEntryService creates a new TimeEntryService
func NewTimeEntryService(timeEntryRepo repository.TimeEntryRepository, c cache.Cache) *TimeEntryService {
	return &TimeEntryService{timeEntryRepo: timeEntryRepo, cache: c}
}

// StartTimerInput represents input for starting a timer
type StartTimerInput struct {
	BusinessID  uint64
	UserID      uint64
	ContactID   *uint64
	ItemID      *uint64
	Description string
	HourlyRate  *float64
	Billable    bool
}

// StartTimer opens a running entry. At most one open entry per user.
func (s *TimeEntryService) StartTimer(ctx context.Context, input StartTimerInput) (*models.TimeEntry, error) {
	entry := &models.TimeEntry{
		BusinessID:  input.BusinessID,
		UserID:      input.UserID,
		ContactID:   input.ContactID,
		ItemID:      input.ItemID,
		Description: input.Description,
		StartTime:   time.Now(),
		HourlyRate:  input.HourlyRate,
		Billable:    input.Billable,
	}
	if err := s.timeEntryRepo.StartTimer(entry); err != nil {
		if errors.Is(err, repository.ErrOpenTimerExists) {
			return nil, ErrTimerAlreadyRunning
		}
		return nil, fmt.Errorf("failed to start timer: %w", err)
	}

	invalidate(ctx, s.cache, input.BusinessID, cache.EntityTimeEntries)
	return entry, nil
}

// StopTimer closes the user's running entry, deriving duration and billed
// amount.
func (s *TimeEntryService) StopTimer(ctx context.Context, businessID, userID uint64) (*models.TimeEntry, error) {
	entry, err := s.timeEntryRepo.FindOpenByUser(businessID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find open entry: %w", err)
	}
	if entry == nil {
		return nil, ErrNoTimerRunning
	}

	now := time.Now()
	minutes := billing.DurationMinutes(entry.StartTime, now)
	entry.EndTime = &now
	entry.DurationMinutes = &minutes
	if entry.Billable {
		entry.BilledAmount = billing.BilledAmount(entry.HourlyRate, entry.DurationMinutes)
	}

	if err := s.timeEntryRepo.Update(entry); err != nil {
		return nil, fmt.Errorf("failed to stop timer: %w", err)
	}

	invalidate(ctx, s.cache, businessID, cache.EntityTimeEntries)
	return entry, nil
}

// ActiveTimer returns the user's running entry, or nil when none is open
func (s *TimeEntryService) ActiveTimer(businessID, userID uint64) (*models.TimeEntry, error) {
	entry, err := s.timeEntryRepo.FindOpenByUser(businessID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find open entry: %w", err)
	}
	return entry, nil
}

// CreateEntryManualInput represents input for a manually entered duration
type CreateEntryManualInput struct {
	BusinessID  uint64
	UserID      uint64
	ContactID   *uint64
	ItemID      *uint64
	Description string
	StartTime   time.Time
	EndTime     time.Time
	HourlyRate  *float64
	Billable    bool
}

// CreateManual records a closed entry with derived duration and billing
func (s *TimeEntryService) CreateManual(ctx context.Context, input CreateEntryManualInput) (*models.TimeEntry, error) {
	if !input.EndTime.After(input.StartTime) {
		return nil, ErrEntryTimesBackwards
	}

	minutes := billing.DurationMinutes(input.StartTime, input.EndTime)
	entry := &models.TimeEntry{
		BusinessID:      input.BusinessID,
		UserID:          input.UserID,
		ContactID:       input.ContactID,
		ItemID:          input.ItemID,
		Description:     input.Description,
		StartTime:       input.StartTime,
		EndTime:         &input.EndTime,
		DurationMinutes: &minutes,
		HourlyRate:      input.HourlyRate,
		Billable:        input.Billable,
	}
	if entry.Billable {
		entry.BilledAmount = billing.BilledAmount(entry.HourlyRate, entry.DurationMinutes)
	}

	if err := s.timeEntryRepo.Create(entry); err != nil {
		return nil, fmt.Errorf("failed to create time entry: %w", err)
	}

	invalidate(ctx, s.cache, input.BusinessID, cache.EntityTimeEntries)
	return entry, nil
}

// List lists time entries with filtering and pagination
func (s *TimeEntryService) List(ctx context.Context, filter repository.TimeEntryFilter) ([]models.TimeEntry, int64, error) {
	key := cache.Key(filter.BusinessID, cache.EntityTimeEntries, filter)

	type page struct {
		Entries []models.TimeEntry `json:"entries"`
		Total   int64              `json:"total"`
	}
	result, err := fetchCached(ctx, s.cache, filter.BusinessID, key,
		[]cache.Entity{cache.EntityTimeEntries},
		func() (page, error) {
			entries, total, err := s.timeEntryRepo.List(filter)
			return page{Entries: entries, Total: total}, err
		})
	if err != nil {
		return nil, 0, err
	}
	return result.Entries, result.Total, nil
}

// UpdateTimeEntryInput represents editable fields of a time entry
type UpdateTimeEntryInput struct {
	ContactID   *uint64
	ItemID      *uint64
	Description *string
	StartTime   *time.Time
	EndTime     *time.Time
	HourlyRate  *float64
	Billable    *bool
}

// Update edits a closed entry, re-deriving duration and billed amount
func (s *TimeEntryService) Update(ctx context.Context, businessID, id uint64, input UpdateTimeEntryInput) (*models.TimeEntry, error) {
	entry, err := s.timeEntryRepo.FindByID(businessID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find time entry: %w", err)
	}

	if input.ContactID != nil {
		entry.ContactID = input.ContactID
	}
	if input.ItemID != nil {
		entry.ItemID = input.ItemID
	}
	if input.Description != nil {
		entry.Description = *input.Description
	}
	if input.StartTime != nil {
		entry.StartTime = *input.StartTime
	}
	if input.EndTime != nil {
		entry.EndTime = input.EndTime
	}
	if input.HourlyRate != nil {
		entry.HourlyRate = input.HourlyRate
	}
	if input.Billable != nil {
		entry.Billable = *input.Billable
	}

	if entry.EndTime != nil {
		if !entry.EndTime.After(entry.StartTime) {
			return nil, ErrEntryTimesBackwards
		}
		minutes := billing.DurationMinutes(entry.StartTime, *entry.EndTime)
		entry.DurationMinutes = &minutes
	}
	if entry.Billable {
		entry.BilledAmount = billing.BilledAmount(entry.HourlyRate, entry.DurationMinutes)
	} else {
		entry.BilledAmount = nil
	}

	if err := s.timeEntryRepo.Update(entry); err != nil {
		return nil, fmt.Errorf("failed to update time entry: %w", err)
	}

	invalidate(ctx, s.cache, businessID, cache.EntityTimeEntries)
	return entry, nil
}

// Delete deletes a time entry
func (s *TimeEntryService) Delete(ctx context.Context, businessID, id uint64) error {
	if err := s.timeEntryRepo.Delete(businessID, id); err != nil {
		return fmt.Errorf("failed to delete time entry: %w", err)
	}
	invalidate(ctx, s.cache, businessID, cache.EntityTimeEntries)
	return nil
}
