package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	apierrors "github.com/opsdesk/opsdesk-api/internal/errors"
	"github.com/opsdesk/opsdesk-api/internal/middleware"
	"github.com/opsdesk/opsdesk-api/internal/repository"
	"github.com/opsdesk/opsdesk-api/internal/services"
	"github.com/opsdesk/opsdesk-api/internal/utils"
)

// TimeEntryHandler coordinates time tracking HTTP handlers.
type TimeEntryHandler struct {
	timeEntryService *services.TimeEntryService
}

// NewTimeEntryHandler creates a new TimeEntryHandler.
func NewTimeEntryHandler(timeEntryService *services.TimeEntryService) *TimeEntryHandler {
	return &TimeEntryHandler{
		timeEntryService: timeEntryService,
	}
}

// StartTimer opens a running entry for the caller.
func (h *TimeEntryHandler) StartTimer(c *gin.Context) {
	type StartRequest struct {
		ContactID   *uint64  `json:"contact_id"`
		ItemID      *uint64  `json:"item_id"`
		Description string   `json:"description"`
		HourlyRate  *float64 `json:"hourly_rate"`
		Billable    *bool    `json:"billable"`
	}

	var req StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	billable := true
	if req.Billable != nil {
		billable = *req.Billable
	}

	profile, _ := middleware.GetProfile(c)
	entry, err := h.timeEntryService.StartTimer(c.Request.Context(), services.StartTimerInput{
		BusinessID:  profile.BusinessID,
		UserID:      profile.UserID,
		ContactID:   req.ContactID,
		ItemID:      req.ItemID,
		Description: req.Description,
		HourlyRate:  req.HourlyRate,
		Billable:    billable,
	})
	if err != nil {
		respondTimeEntryError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// StopTimer closes the caller's running entry.
func (h *TimeEntryHandler) StopTimer(c *gin.Context) {
	profile, _ := middleware.GetProfile(c)

	entry, err := h.timeEntryService.StopTimer(c.Request.Context(), profile.BusinessID, profile.UserID)
	if err != nil {
		respondTimeEntryError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

// ActiveTimer returns the caller's running entry, if any.
func (h *TimeEntryHandler) ActiveTimer(c *gin.Context) {
	profile, _ := middleware.GetProfile(c)

	entry, err := h.timeEntryService.ActiveTimer(profile.BusinessID, profile.UserID)
	if err != nil {
		apierrors.InternalError(c, "Failed to load timer")
		return
	}

	c.JSON(http.StatusOK, gin.H{"entry": entry})
}

// CreateEntry records a closed entry with explicit times.
func (h *TimeEntryHandler) CreateEntry(c *gin.Context) {
	type CreateRequest struct {
		ContactID   *uint64   `json:"contact_id"`
		ItemID      *uint64   `json:"item_id"`
		Description string    `json:"description"`
		StartTime   time.Time `json:"start_time" binding:"required"`
		EndTime     time.Time `json:"end_time" binding:"required"`
		HourlyRate  *float64  `json:"hourly_rate"`
		Billable    *bool     `json:"billable"`
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	billable := true
	if req.Billable != nil {
		billable = *req.Billable
	}

	profile, _ := middleware.GetProfile(c)
	entry, err := h.timeEntryService.CreateManual(c.Request.Context(), services.CreateEntryManualInput{
		BusinessID:  profile.BusinessID,
		UserID:      profile.UserID,
		ContactID:   req.ContactID,
		ItemID:      req.ItemID,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		HourlyRate:  req.HourlyRate,
		Billable:    billable,
	})
	if err != nil {
		respondTimeEntryError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// ListEntries lists time entries with filtering and pagination.
func (h *TimeEntryHandler) ListEntries(c *gin.Context) {
	profile, _ := middleware.GetProfile(c)
	params := utils.GetPaginationParams(c)

	filter := repository.TimeEntryFilter{
		BusinessID: profile.BusinessID,
		Page:       params.Page,
		PageSize:   params.Limit,
	}
	if raw := c.Query("user_id"); raw != "" {
		userID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid user ID")
			return
		}
		filter.UserID = &userID
	}
	if raw := c.Query("contact_id"); raw != "" {
		contactID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid contact ID")
			return
		}
		filter.ContactID = &contactID
	}
	if raw := c.Query("item_id"); raw != "" {
		itemID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid item ID")
			return
		}
		filter.ItemID = &itemID
	}
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			apierrors.BadRequest(c, "Invalid from timestamp")
			return
		}
		filter.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			apierrors.BadRequest(c, "Invalid to timestamp")
			return
		}
		filter.To = &to
	}

	entries, total, err := h.timeEntryService.List(c.Request.Context(), filter)
	if err != nil {
		apierrors.InternalError(c, "Failed to list time entries")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries":     entries,
		"page":        params.Page,
		"page_size":   params.Limit,
		"total_count": total,
	})
}

// UpdateEntry edits a time entry.
func (h *TimeEntryHandler) UpdateEntry(c *gin.Context) {
	type UpdateRequest struct {
		ContactID   *uint64    `json:"contact_id"`
		ItemID      *uint64    `json:"item_id"`
		Description *string    `json:"description"`
		StartTime   *time.Time `json:"start_time"`
		EndTime     *time.Time `json:"end_time"`
		HourlyRate  *float64   `json:"hourly_rate"`
		Billable    *bool      `json:"billable"`
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

	profile, _ := middleware.GetProfile(c)
	entry, err := h.timeEntryService.Update(c.Request.Context(), profile.BusinessID, id, services.UpdateTimeEntryInput{
		ContactID:   req.ContactID,
		ItemID:      req.ItemID,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		HourlyRate:  req.HourlyRate,
		Billable:    req.Billable,
	})
	if err != nil {
		respondTimeEntryError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

// DeleteEntry deletes a time entry.
func (h *TimeEntryHandler) DeleteEntry(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid entry ID")
		return
	}

	profile, _ := middleware.GetProfile(c)
	if err := h.timeEntryService.Delete(c.Request.Context(), profile.BusinessID, id); err != nil {
		apierrors.InternalError(c, "Failed to delete time entry")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Time entry deleted"})
}

func respondTimeEntryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEntryTimesBackwards):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrTimerAlreadyRunning):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrNoTimerRunning):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		apierrors.NotFound(c, "Time entry not found")
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
