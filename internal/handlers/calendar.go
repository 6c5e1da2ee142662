package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	apierrors "github.com/opsdesk/opsdesk-api/internal/errors"
	"github.com/opsdesk/opsdesk-api/internal/middleware"
	"github.com/opsdesk/opsdesk-api/internal/models"
	"github.com/opsdesk/opsdesk-api/internal/services"
)

// CalendarHandler coordinates calendar-related HTTP handlers.
type CalendarHandler struct {
	calendarService *services.CalendarService
}

// NewCalendarHandler creates a new CalendarHandler.
func NewCalendarHandler(calendarService *services.CalendarService) *CalendarHandler {
	return &CalendarHandler{
		calendarService: calendarService,
	}
}

// CreateEntry creates a calendar entry with its attendees.
func (h *CalendarHandler) CreateEntry(c *gin.Context) {
	type CreateRequest struct {
		Title       string    `json:"title" binding:"required"`
		StartTime   time.Time `json:"start_time" binding:"required"`
		EndTime     time.Time `json:"end_time" binding:"required"`
		Location    string    `json:"location"`
		Color       string    `json:"color"`
		TaskID      *uint64   `json:"task_id"`
		AttendeeIDs []uint64  `json:"attendee_ids"`
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	profile, _ := middleware.GetProfile(c)
	entry, err := h.calendarService.Create(c.Request.Context(), services.CreateEntryInput{
		BusinessID:  profile.BusinessID,
		Title:       req.Title,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Location:    req.Location,
		Color:       req.Color,
		TaskID:      req.TaskID,
		AttendeeIDs: req.AttendeeIDs,
		CreatorID:   profile.UserID,
	})
	if err != nil {
		respondCalendarError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// GetEntry returns an entry with its attendees.
func (h *CalendarHandler) GetEntry(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid entry ID")
		return
	}

	profile, _ := middleware.GetProfile(c)
	entry, err := h.calendarService.Get(profile.BusinessID, id)
	if err != nil {
		apierrors.NotFound(c, "Entry not found")
		return
	}

	c.JSON(http.StatusOK, entry)
}

// parseWindow extracts the [from, to) query window.
func parseWindow(c *gin.Context) (time.Time, time.Time, bool) {
	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		apierrors.BadRequest(c, "Invalid or missing from timestamp")
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		apierrors.BadRequest(c, "Invalid or missing to timestamp")
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// ListEntries lists entries overlapping the query window.
func (h *CalendarHandler) ListEntries(c *gin.Context) {
	from, to, ok := parseWindow(c)
	if !ok {
		return
	}

	profile, _ := middleware.GetProfile(c)
	entries, err := h.calendarService.List(c.Request.Context(), profile.BusinessID, from, to)
	if err != nil {
		respondCalendarError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// TeamEntries lists entries in the window for selected team members.
func (h *CalendarHandler) TeamEntries(c *gin.Context) {
	from, to, ok := parseWindow(c)
	if !ok {
		return
	}

	var userIDs []uint64
	for _, raw := range strings.Split(c.Query("user_ids"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid user_ids")
			return
		}
		userIDs = append(userIDs, id)
	}

	profile, _ := middleware.GetProfile(c)
	entries, err := h.calendarService.TeamEntries(c.Request.Context(), profile.BusinessID, userIDs, from, to)
	if err != nil {
		respondCalendarError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// UpdateEntry updates an entry and optionally replaces its attendees.
func (h *CalendarHandler) UpdateEntry(c *gin.Context) {
	type UpdateRequest struct {
		Title       *string    `json:"title"`
		StartTime   *time.Time `json:"start_time"`
		EndTime     *time.Time `json:"end_time"`
		Location    *string    `json:"location"`
		Color       *string    `json:"color"`
		TaskID      *uint64    `json:"task_id"`
		ClearTask   bool       `json:"clear_task"`
		AttendeeIDs *[]uint64  `json:"attendee_ids"`
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid entry ID")
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.UpdateEntryInput{
		Title:     req.Title,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Location:  req.Location,
		Color:     req.Color,
		TaskID:    req.TaskID,
		ClearTask: req.ClearTask,
	}
	if req.AttendeeIDs != nil {
		input.AttendeeIDs = *req.AttendeeIDs
		input.SetAttend = true
	}

	profile, _ := middleware.GetProfile(c)
	entry, err := h.calendarService.Update(c.Request.Context(), profile.BusinessID, id, input)
	if err != nil {
		respondCalendarError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

// DeleteEntry deletes an entry.
func (h *CalendarHandler) DeleteEntry(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid entry ID")
		return
	}

	profile, _ := middleware.GetProfile(c)
	if err := h.calendarService.Delete(c.Request.Context(), profile.BusinessID, id); err != nil {
		apierrors.InternalError(c, "Failed to delete entry")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Entry deleted"})
}

// RespondEntry records the caller's RSVP.
func (h *CalendarHandler) RespondEntry(c *gin.Context) {
	type RespondRequest struct {
		Status models.AttendeeStatus `json:"status" binding:"required"`
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid entry ID")
		return
	}

	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	profile, _ := middleware.GetProfile(c)
	if err := h.calendarService.Respond(c.Request.Context(), profile.BusinessID, id, profile.UserID, req.Status); err != nil {
		respondCalendarError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Response recorded"})
}

func respondCalendarError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEntryTitleEmpty),
		errors.Is(err, services.ErrEntryTimesInvalid),
		errors.Is(err, services.ErrAttendeeStatusInvalid),
		errors.Is(err, services.ErrNoIDsGiven):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrAttendeeNotMember),
		errors.Is(err, services.ErrNotAttendee):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		apierrors.NotFound(c, "Entry not found")
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
