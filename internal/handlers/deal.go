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
	"github.com/opsdesk/opsdesk-api/internal/models"
	"github.com/opsdesk/opsdesk-api/internal/repository"
	"github.com/opsdesk/opsdesk-api/internal/services"
	"github.com/opsdesk/opsdesk-api/internal/utils"
)

// DealHandler coordinates pipeline and deal HTTP handlers.
type DealHandler struct {
	dealService *services.DealService
}

// NewDealHandler creates a new DealHandler.
func NewDealHandler(dealService *services.DealService) *DealHandler {
	return &DealHandler{
		dealService: dealService,
	}
}

// CreateStage adds a pipeline stage.
func (h *DealHandler) CreateStage(c *gin.Context) {
	type StageRequest struct {
		Name         string `json:"name" binding:"required"`
		Position     int    `json:"position"`
		IsClosedWon  bool   `json:"is_closed_won"`
		IsClosedLost bool   `json:"is_closed_lost"`
	}

	var req StageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	profile, _ := middleware.GetProfile(c)
	stage, err := h.dealService.CreateStage(c.Request.Context(), services.CreateStageInput{
		BusinessID:   profile.BusinessID,
		Name:         req.Name,
		Position:     req.Position,
		IsClosedWon:  req.IsClosedWon,
		IsClosedLost: req.IsClosedLost,
	})
	if err != nil {
		respondDealError(c, err)
		return
	}

	c.JSON(http.StatusCreated, stage)
}

// ListStages lists stages in board order.
func (h *DealHandler) ListStages(c *gin.Context) {
	profile, _ := middleware.GetProfile(c)

	stages, err := h.dealService.ListStages(c.Request.Context(), profile.BusinessID)
	if err != nil {
		apierrors.InternalError(c, "Failed to list stages")
		return
	}

	c.JSON(http.StatusOK, gin.H{"stages": stages})
}

// UpdateStage edits a pipeline stage.
func (h *DealHandler) UpdateStage(c *gin.Context) {
	type StageRequest struct {
		Name         *string `json:"name"`
		Position     *int    `json:"position"`
		IsClosedWon  *bool   `json:"is_closed_won"`
		IsClosedLost *bool   `json:"is_closed_lost"`
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid stage ID")
		return
	}

	var req StageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	profile, _ := middleware.GetProfile(c)
	stage, err := h.dealService.UpdateStage(c.Request.Context(), profile.BusinessID, id, services.UpdateStageInput{
		Name:         req.Name,
		Position:     req.Position,
		IsClosedWon:  req.IsClosedWon,
		IsClosedLost: req.IsClosedLost,
	})
	if err != nil {
		respondDealError(c, err)
		return
	}

	c.JSON(http.StatusOK, stage)
}

// DeleteStage removes an empty stage.
func (h *DealHandler) DeleteStage(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid stage ID")
		return
	}

	profile, _ := middleware.GetProfile(c)
	if err := h.dealService.DeleteStage(c.Request.Context(), profile.BusinessID, id); err != nil {
		respondDealError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Stage deleted"})
}

// CreateDeal creates a deal in a stage.
func (h *DealHandler) CreateDeal(c *gin.Context) {
	type CreateRequest struct {
		Title             string     `json:"title" binding:"required"`
		StageID           uint64     `json:"stage_id" binding:"required"`
		Value             float64    `json:"value"`
		Probability       *int       `json:"probability"`
		ContactID         *uint64    `json:"contact_id"`
		ItemID            *uint64    `json:"item_id"`
		ExpectedCloseDate *time.Time `json:"expected_close_date"`
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	profile, _ := middleware.GetProfile(c)
	deal, err := h.dealService.Create(c.Request.Context(), services.CreateDealInput{
		BusinessID:        profile.BusinessID,
		Title:             req.Title,
		StageID:           req.StageID,
		Value:             req.Value,
		Probability:       req.Probability,
		ContactID:         req.ContactID,
		ItemID:            req.ItemID,
		ExpectedCloseDate: req.ExpectedCloseDate,
		CreatedBy:         profile.UserID,
	})
	if err != nil {
		respondDealError(c, err)
		return
	}

	c.JSON(http.StatusCreated, deal)
}

// GetDeal returns a deal with its relations.
func (h *DealHandler) GetDeal(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid deal ID")
		return
	}

	profile, _ := middleware.GetProfile(c)
	deal, err := h.dealService.Get(profile.BusinessID, id)
	if err != nil {
		apierrors.NotFound(c, "Deal not found")
		return
	}

	c.JSON(http.StatusOK, deal)
}

// ListDeals lists deals with filtering and pagination.
func (h *DealHandler) ListDeals(c *gin.Context) {
	profile, _ := middleware.GetProfile(c)
	params := utils.GetPaginationParams(c)

	filter := repository.DealFilter{
		BusinessID: profile.BusinessID,
		Page:       params.Page,
		PageSize:   params.Limit,
	}
	if raw := c.Query("status"); raw != "" {
		status := models.DealStatus(raw)
		filter.Status = &status
	}
	if raw := c.Query("stage_id"); raw != "" {
		stageID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid stage ID")
			return
		}
		filter.StageID = &stageID
	}
	if raw := c.Query("contact_id"); raw != "" {
		contactID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid contact ID")
			return
		}
		filter.ContactID = &contactID
	}

	deals, total, err := h.dealService.List(c.Request.Context(), filter)
	if err != nil {
		apierrors.InternalError(c, "Failed to list deals")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"deals":       deals,
		"page":        params.Page,
		"page_size":   params.Limit,
		"total_count": total,
	})
}

// Board returns open deals grouped by stage.
func (h *DealHandler) Board(c *gin.Context) {
	profile, _ := middleware.GetProfile(c)

	columns, err := h.dealService.Board(c.Request.Context(), profile.BusinessID)
	if err != nil {
		apierrors.InternalError(c, "Failed to load board")
		return
	}

	c.JSON(http.StatusOK, gin.H{"columns": columns})
}

// UpdateDeal edits deal fields.
func (h *DealHandler) UpdateDeal(c *gin.Context) {
	type UpdateRequest struct {
		Title             *string    `json:"title"`
		Value             *float64   `json:"value"`
		Probability       *int       `json:"probability"`
		ContactID         *uint64    `json:"contact_id"`
		ItemID            *uint64    `json:"item_id"`
		ExpectedCloseDate *time.Time `json:"expected_close_date"`
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid deal ID")
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	profile, _ := middleware.GetProfile(c)
	deal, err := h.dealService.Update(c.Request.Context(), profile.BusinessID, id, profile.UserID, services.UpdateDealInput{
		Title:             req.Title,
		Value:             req.Value,
		Probability:       req.Probability,
		ContactID:         req.ContactID,
		ItemID:            req.ItemID,
		ExpectedCloseDate: req.ExpectedCloseDate,
	})
	if err != nil {
		respondDealError(c, err)
		return
	}

	c.JSON(http.StatusOK, deal)
}

// MoveDeal moves a deal to another stage.
func (h *DealHandler) MoveDeal(c *gin.Context) {
	type MoveRequest struct {
		StageID uint64 `json:"stage_id" binding:"required"`
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid deal ID")
		return
	}

	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	profile, _ := middleware.GetProfile(c)
	deal, err := h.dealService.MoveStage(c.Request.Context(), profile.BusinessID, id, profile.UserID, req.StageID)
	if err != nil {
		respondDealError(c, err)
		return
	}

	c.JSON(http.StatusOK, deal)
}

// AddDealNote appends an activity note.
func (h *DealHandler) AddDealNote(c *gin.Context) {
	type NoteRequest struct {
		Note string `json:"note" binding:"required"`
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid deal ID")
		return
	}

	var req NoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	profile, _ := middleware.GetProfile(c)
	if err := h.dealService.AddNote(c.Request.Context(), profile.BusinessID, id, profile.UserID, req.Note); err != nil {
		respondDealError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Note added"})
}

// ListDealActivity lists a deal's activity.
func (h *DealHandler) ListDealActivity(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid deal ID")
		return
	}

	profile, _ := middleware.GetProfile(c)
	activity, err := h.dealService.ListActivity(c.Request.Context(), profile.BusinessID, id)
	if err != nil {
		respondDealError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"activity": activity})
}

// DeleteDeal deletes a deal.
func (h *DealHandler) DeleteDeal(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid deal ID")
		return
	}

	profile, _ := middleware.GetProfile(c)
	if err := h.dealService.Delete(c.Request.Context(), profile.BusinessID, id); err != nil {
		apierrors.InternalError(c, "Failed to delete deal")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Deal deleted"})
}

func respondDealError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrStageNameEmpty),
		errors.Is(err, services.ErrStageBothTerminal),
		errors.Is(err, services.ErrDealTitleEmpty),
		errors.Is(err, services.ErrDealValueNegative),
		errors.Is(err, services.ErrProbabilityOutOfRange),
		errors.Is(err, services.ErrDealNoteEmpty):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrStageInUse):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		apierrors.NotFound(c, "Deal or stage not found")
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
