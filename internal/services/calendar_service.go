package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/opsdesk/opsdesk-api/internal/cache"
	"github.com/opsdesk/opsdesk-api/internal/models"
	"github.com/opsdesk/opsdesk-api/internal/repository"
)

var (
	ErrEntryTitleEmpty       = errors.New("entry title is required")
	ErrEntryTimesInvalid     = errors.New("entry must end after it starts")
	ErrAttendeeStatusInvalid = errors.New("invalid attendee response")
	ErrAttendeeNotMember     = errors.New("all attendees must be members of the business")
	ErrNotAttendee           = errors.New("you are not an attendee of this entry")
)

// CalendarService handles calendar entries, attendees and team views
type CalendarService struct {
	calendarRepo repository.CalendarRepository
	taskRepo     repository.TaskRepository
	cache        cache.Cache
}

// NewCalendarService creates a new CalendarService
func NewCalendarService(calendarRepo repository.CalendarRepository, taskRepo repository.TaskRepository, c cache.Cache) *CalendarService {
	return &CalendarService{calendarRepo: calendarRepo, taskRepo: taskRepo, cache: c}
}

// CreateEntryInput represents input for creating a calendar entry
type CreateEntryInput struct {
	BusinessID  uint64
	Title       string
	StartTime   time.Time
	EndTime     time.Time
	Location    string
	Color       string
	TaskID      *uint64
	AttendeeIDs []uint64
	CreatorID   uint64
}

// Create creates an entry with its attendees. The creator is always an
// attendee and starts accepted; everyone else starts pending.
func (s *CalendarService) Create(ctx context.Context, input CreateEntryInput) (*models.CalendarEntry, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrEntryTitleEmpty
	}
	if !input.EndTime.After(input.StartTime) {
		return nil, ErrEntryTimesInvalid
	}

	others := make([]uint64, 0, len(input.AttendeeIDs))
	for _, uid := range input.AttendeeIDs {
		if uid != input.CreatorID {
			others = append(others, uid)
		}
	}
	if len(others) > 0 {
		count, err := s.taskRepo.CountMembers(input.BusinessID, others)
		if err != nil {
			return nil, fmt.Errorf("failed to verify members: %w", err)
		}
		if count != int64(len(others)) {
			return nil, ErrAttendeeNotMember
		}
	}

	entry := &models.CalendarEntry{
		BusinessID: input.BusinessID,
		Title:      strings.TrimSpace(input.Title),
		StartTime:  input.StartTime,
		EndTime:    input.EndTime,
		Location:   input.Location,
		Color:      input.Color,
		TaskID:     input.TaskID,
		CreatorID:  input.CreatorID,
	}

	attendees := []models.CalendarAttendee{
		{UserID: input.CreatorID, Status: models.AttendeeStatusAccepted},
	}
	for _, uid := range others {
		attendees = append(attendees, models.CalendarAttendee{
			UserID: uid,
			Status: models.AttendeeStatusPending,
		})
	}

	if err := s.calendarRepo.CreateWithAttendees(entry, attendees); err != nil {
		return nil, fmt.Errorf("failed to create entry: %w", err)
	}

	invalidate(ctx, s.cache, input.BusinessID, cache.EntityCalendarEntries, cache.EntityCalendarAttendees)
	return entry, nil
}

// Get returns an entry with its attendees
func (s *CalendarService) Get(businessID, id uint64) (*models.CalendarEntry, error) {
	return s.calendarRepo.FindByID(businessID, id, "Attendees.User", "Task")
}

// List lists entries overlapping the window [from, to)
func (s *CalendarService) List(ctx context.Context, businessID uint64, from, to time.Time) ([]models.CalendarEntry, error) {
	if !to.After(from) {
		return nil, ErrEntryTimesInvalid
	}
	key := cache.Key(businessID, cache.EntityCalendarEntries, struct {
		From, To time.Time
	}{from, to})
	return fetchCached(ctx, s.cache, businessID, key,
		[]cache.Entity{cache.EntityCalendarEntries, cache.EntityCalendarAttendees},
		func() ([]models.CalendarEntry, error) {
			return s.calendarRepo.List(businessID, from, to)
		})
}

// UpdateEntryInput represents input for updating a calendar entry
type UpdateEntryInput struct {
	Title       *string
	StartTime   *time.Time
	EndTime     *time.Time
	Location    *string
	Color       *string
	TaskID      *uint64
	ClearTask   bool
	AttendeeIDs []uint64
	SetAttend   bool
}

// Update updates an entry; when SetAttend is true the attendee set is
// replaced, keeping existing responses for attendees who stay.
func (s *CalendarService) Update(ctx context.Context, businessID, id uint64, input UpdateEntryInput) (*models.CalendarEntry, error) {
	entry, err := s.calendarRepo.FindByID(businessID, id, "Attendees")
	if err != nil {
		return nil, fmt.Errorf("failed to find entry: %w", err)
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, ErrEntryTitleEmpty
		}
		entry.Title = strings.TrimSpace(*input.Title)
	}
	if input.StartTime != nil {
		entry.StartTime = *input.StartTime
	}
	if input.EndTime != nil {
		entry.EndTime = *input.EndTime
	}
	if !entry.EndTime.After(entry.StartTime) {
		return nil, ErrEntryTimesInvalid
	}
	if input.Location != nil {
		entry.Location = *input.Location
	}
	if input.Color != nil {
		entry.Color = *input.Color
	}
	if input.TaskID != nil {
		entry.TaskID = input.TaskID
	}
	if input.ClearTask {
		entry.TaskID = nil
	}

	if err := s.calendarRepo.Update(entry); err != nil {
		return nil, fmt.Errorf("failed to update entry: %w", err)
	}

	if input.SetAttend {
		existing := make(map[uint64]models.AttendeeStatus, len(entry.Attendees))
		for _, a := range entry.Attendees {
			existing[a.UserID] = a.Status
		}

		attendees := make([]models.CalendarAttendee, 0, len(input.AttendeeIDs)+1)
		seen := map[uint64]bool{}
		for _, uid := range append([]uint64{entry.CreatorID}, input.AttendeeIDs...) {
			if seen[uid] {
				continue
			}
			seen[uid] = true
			status := models.AttendeeStatusPending
			if prev, ok := existing[uid]; ok {
				status = prev
			} else if uid == entry.CreatorID {
				status = models.AttendeeStatusAccepted
			}
			attendees = append(attendees, models.CalendarAttendee{
				UserID: uid,
				Status: status,
			})
		}

		if err := s.calendarRepo.ReplaceAttendees(entry.ID, attendees); err != nil {
			return nil, fmt.Errorf("failed to replace attendees: %w", err)
		}
	}

	invalidate(ctx, s.cache, businessID, cache.EntityCalendarEntries, cache.EntityCalendarAttendees)
	return entry, nil
}

// Delete deletes an entry and its attendee rows
func (s *CalendarService) Delete(ctx context.Context, businessID, id uint64) error {
	if err := s.calendarRepo.Delete(businessID, id); err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	invalidate(ctx, s.cache, businessID, cache.EntityCalendarEntries, cache.EntityCalendarAttendees)
	return nil
}

// Respond records the caller's RSVP on an entry
func (s *CalendarService) Respond(ctx context.Context, businessID, entryID, userID uint64, status models.AttendeeStatus) error {
	switch status {
	case models.AttendeeStatusAccepted, models.AttendeeStatusDeclined, models.AttendeeStatusTentative:
	default:
		return ErrAttendeeStatusInvalid
	}

	entry, err := s.calendarRepo.FindByID(businessID, entryID, "Attendees")
	if err != nil {
		return fmt.Errorf("failed to find entry: %w", err)
	}

	attending := false
	for _, a := range entry.Attendees {
		if a.UserID == userID {
			attending = true
			break
		}
	}
	if !attending {
		return ErrNotAttendee
	}

	if err := s.calendarRepo.Respond(entryID, userID, status); err != nil {
		return fmt.Errorf("failed to record response: %w", err)
	}

	invalidate(ctx, s.cache, businessID, cache.EntityCalendarAttendees)
	return nil
}

// TeamEntries lists entries in the window attended by any of the given users
func (s *CalendarService) TeamEntries(ctx context.Context, businessID uint64, userIDs []uint64, from, to time.Time) ([]models.CalendarEntry, error) {
	if !to.After(from) {
		return nil, ErrEntryTimesInvalid
	}
	if len(userIDs) == 0 {
		return nil, ErrNoIDsGiven
	}
	key := cache.Key(businessID, cache.EntityCalendarAttendees, struct {
		UserIDs  []uint64
		From, To time.Time
	}{userIDs, from, to})
	return fetchCached(ctx, s.cache, businessID, key,
		[]cache.Entity{cache.EntityCalendarEntries, cache.EntityCalendarAttendees},
		func() ([]models.CalendarEntry, error) {
			return s.calendarRepo.TeamEntries(businessID, userIDs, from, to)
		})
}
