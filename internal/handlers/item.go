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

// ItemHandler coordinates item-related HTTP handlers.
type ItemHandler struct {
	itemService *services.ItemService
}

// NewItemHandler creates a new ItemHandler.
func NewItemHandler(itemService *services.ItemService) *ItemHandler {
	return &ItemHandler{
		itemService: itemService,
	}
}

// contactLinkRequest names a contact to link at item creation.
type contactLinkRequest struct {
	ContactID uint64 `json:"contact_id" binding:"required"`
	Role      string `json:"role"`
	Note      string `json:"note"`
}

// CreateItem creates an item with its initial contact links.
func (h *ItemHandler) CreateItem(c *gin.Context) {
	type CreateRequest struct {
		Title        string              `json:"title" binding:"required"`
		Description  string              `json:"description"`
		Category     models.ItemCategory `json:"category"`
		Status       models.ItemStatus   `json:"status"`
		CustomTypeID *uint64             `json:"custom_type_id"`
		Amount       *float64            `json:"amount"`
		StartDate    *time.Time          `json:"start_date"`
		EndDate      *time.Time          `json:"end_date"`

		Bedrooms          *int     `json:"bedrooms"`
		MonthlyRent       *float64 `json:"monthly_rent"`
		LandlordContactID *uint64  `json:"landlord_contact_id"`

		Contacts []contactLinkRequest `json:"contacts"`
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	links := make([]services.ContactLinkInput, len(req.Contacts))
	for i, link := range req.Contacts {
		links[i] = services.ContactLinkInput{
			ContactID: link.ContactID,
			Role:      link.Role,
			Note:      link.Note,
		}
	}

	profile, _ := middleware.GetProfile(c)
	item, err := h.itemService.Create(c.Request.Context(), services.CreateItemInput{
		BusinessID:        profile.BusinessID,
		Title:             req.Title,
		Description:       req.Description,
		Category:          req.Category,
		Status:            req.Status,
		CustomTypeID:      req.CustomTypeID,
		Amount:            req.Amount,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		Bedrooms:          req.Bedrooms,
		MonthlyRent:       req.MonthlyRent,
		LandlordContactID: req.LandlordContactID,
		Contacts:          links,
		CreatedBy:         profile.UserID,
	})
	if err != nil {
		respondItemError(c, err)
		return
	}

	c.JSON(http.StatusCreated, item)
}

// GetItem returns an item with its relations.
func (h *ItemHandler) GetItem(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid item ID")
		return
	}

	profile, _ := middleware.GetProfile(c)
	item, err := h.itemService.Get(profile.BusinessID, id)
	if err != nil {
		apierrors.NotFound(c, "Item not found")
		return
	}

	c.JSON(http.StatusOK, item)
}

// ListItems lists items with filtering and pagination.
func (h *ItemHandler) ListItems(c *gin.Context) {
	profile, _ := middleware.GetProfile(c)
	params := utils.GetPaginationParams(c)

	filter := repository.ItemFilter{
		BusinessID: profile.BusinessID,
		Search:     c.Query("search"),
		Page:       params.Page,
		PageSize:   params.Limit,
	}
	if raw := c.Query("category"); raw != "" {
		category := models.ItemCategory(raw)
		filter.Category = &category
	}
	if raw := c.Query("status"); raw != "" {
		status := models.ItemStatus(raw)
		filter.Status = &status
	}
	if raw := c.Query("custom_type_id"); raw != "" {
		ctID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid custom type ID")
			return
		}
		filter.CustomTypeID = &ctID
	}

	items, total, err := h.itemService.List(c.Request.Context(), filter)
	if err != nil {
		apierrors.InternalError(c, "Failed to list items")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":       items,
		"page":        params.Page,
		"page_size":   params.Limit,
		"total_count": total,
	})
}

// UpdateItem updates an item.
func (h *ItemHandler) UpdateItem(c *gin.Context) {
	type UpdateRequest struct {
		Title        *string              `json:"title"`
		Description  *string              `json:"description"`
		Category     *models.ItemCategory `json:"category"`
		Status       *models.ItemStatus   `json:"status"`
		CustomTypeID *uint64              `json:"custom_type_id"`
		ClearCustom  bool                 `json:"clear_custom_type"`
		Amount       *float64             `json:"amount"`
		StartDate    *time.Time           `json:"start_date"`
		EndDate      *time.Time           `json:"end_date"`

		Bedrooms          *int     `json:"bedrooms"`
		MonthlyRent       *float64 `json:"monthly_rent"`
		LandlordContactID *uint64  `json:"landlord_contact_id"`
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid item ID")
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	profile, _ := middleware.GetProfile(c)
	item, err := h.itemService.Update(c.Request.Context(), profile.BusinessID, id, services.UpdateItemInput{
		Title:             req.Title,
		Description:       req.Description,
		Category:          req.Category,
		Status:            req.Status,
		CustomTypeID:      req.CustomTypeID,
		ClearCustom:       req.ClearCustom,
		Amount:            req.Amount,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		Bedrooms:          req.Bedrooms,
		MonthlyRent:       req.MonthlyRent,
		LandlordContactID: req.LandlordContactID,
	})
	if err != nil {
		respondItemError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// DeleteItem deletes an item.
func (h *ItemHandler) DeleteItem(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid item ID")
		return
	}

	profile, _ := middleware.GetProfile(c)
	if err := h.itemService.Delete(c.Request.Context(), profile.BusinessID, id); err != nil {
		apierrors.InternalError(c, "Failed to delete item")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Item deleted"})
}

// BulkDeleteItems deletes a set of items atomically.
func (h *ItemHandler) BulkDeleteItems(c *gin.Context) {
	type BulkRequest struct {
		IDs []uint64 `json:"ids" binding:"required"`
	}

	var req BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	profile, _ := middleware.GetProfile(c)
	deleted, err := h.itemService.BulkDelete(c.Request.Context(), profile.BusinessID, req.IDs)
	if err != nil {
		if errors.Is(err, services.ErrNoIDsGiven) {
			apierrors.BadRequest(c, err.Error())
			return
		}
		apierrors.InternalError(c, "Failed to delete items")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// AddNote appends a note to an item.
func (h *ItemHandler) AddNote(c *gin.Context) {
	type NoteRequest struct {
		Body string `json:"body" binding:"required"`
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid item ID")
		return
	}

	var req NoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	profile, _ := middleware.GetProfile(c)
	note, err := h.itemService.AddNote(c.Request.Context(), profile.BusinessID, id, profile.UserID, req.Body)
	if err != nil {
		respondItemError(c, err)
		return
	}

	c.JSON(http.StatusCreated, note)
}

// ListNotes lists an item's notes.
func (h *ItemHandler) ListNotes(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid item ID")
		return
	}

	profile, _ := middleware.GetProfile(c)
	notes, err := h.itemService.ListNotes(c.Request.Context(), profile.BusinessID, id)
	if err != nil {
		respondItemError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notes": notes})
}

// DeleteNote removes a note from an item.
func (h *ItemHandler) DeleteNote(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid item ID")
		return
	}
	noteID, err := strconv.ParseUint(c.Param("note_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid note ID")
		return
	}

	profile, _ := middleware.GetProfile(c)
	if err := h.itemService.DeleteNote(c.Request.Context(), profile.BusinessID, id, noteID); err != nil {
		respondItemError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Note deleted"})
}

func respondItemError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrItemTitleEmpty),
		errors.Is(err, services.ErrItemCategoryInvalid),
		errors.Is(err, services.ErrItemStatusInvalid),
		errors.Is(err, services.ErrPropertyFieldsMisplaced),
		errors.Is(err, services.ErrItemNoteEmpty):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		apierrors.NotFound(c, "Item not found")
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
