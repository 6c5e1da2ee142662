package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/opsdesk/opsdesk-api/internal/dto"
	apierrors "github.com/opsdesk/opsdesk-api/internal/errors"
	"github.com/opsdesk/opsdesk-api/internal/middleware"
	"github.com/opsdesk/opsdesk-api/internal/models"
	"github.com/opsdesk/opsdesk-api/internal/repository"
	"github.com/opsdesk/opsdesk-api/internal/services"
	"github.com/opsdesk/opsdesk-api/internal/utils"
)

// ContactHandler coordinates contact-related HTTP handlers.
type ContactHandler struct {
	contactService *services.ContactService
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(contactService *services.ContactService) *ContactHandler {
	return &ContactHandler{
		contactService: contactService,
	}
}

// CreateContact creates a new contact.
func (h *ContactHandler) CreateContact(c *gin.Context) {
	type CreateRequest struct {
		Name         string             `json:"name" binding:"required"`
		Email        string             `json:"email"`
		Phone        string             `json:"phone"`
		Type         models.ContactType `json:"type"`
		CustomTypeID *uint64            `json:"custom_type_id"`
		Address      string             `json:"address"`
		Notes        string             `json:"notes"`
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	profile, _ := middleware.GetProfile(c)
	contact, err := h.contactService.Create(c.Request.Context(), services.CreateContactInput{
		BusinessID:   profile.BusinessID,
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Type:         req.Type,
		CustomTypeID: req.CustomTypeID,
		Address:      req.Address,
		Notes:        req.Notes,
		CreatedBy:    profile.UserID,
	})
	if err != nil {
		respondContactError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToContactDTO(*contact))
}

// GetContact returns a contact with its item links.
func (h *ContactHandler) GetContact(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid contact ID")
		return
	}

	profile, _ := middleware.GetProfile(c)
	contact, err := h.contactService.Get(profile.BusinessID, id)
	if err != nil {
		apierrors.NotFound(c, "Contact not found")
		return
	}

	c.JSON(http.StatusOK, dto.ToContactDTO(*contact))
}

// ListContacts lists contacts with filtering and pagination.
func (h *ContactHandler) ListContacts(c *gin.Context) {
	profile, _ := middleware.GetProfile(c)
	params := utils.GetPaginationParams(c)

	filter := repository.ContactFilter{
		BusinessID: profile.BusinessID,
		Search:     c.Query("search"),
		Page:       params.Page,
		PageSize:   params.Limit,
	}
	if t := c.Query("type"); t != "" {
		ct := models.ContactType(t)
		filter.Type = &ct
	}
	if raw := c.Query("custom_type_id"); raw != "" {
		ctID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid custom type ID")
			return
		}
		filter.CustomTypeID = &ctID
	}

	contacts, total, err := h.contactService.List(c.Request.Context(), filter)
	if err != nil {
		apierrors.InternalError(c, "Failed to list contacts")
		return
	}

	c.JSON(http.StatusOK, dto.ToContactListResponse(contacts, params.Page, params.Limit, total))
}

// UpdateContact updates a contact.
func (h *ContactHandler) UpdateContact(c *gin.Context) {
	type UpdateRequest struct {
		Name         *string             `json:"name"`
		Email        *string             `json:"email"`
		Phone        *string             `json:"phone"`
		Type         *models.ContactType `json:"type"`
		CustomTypeID *uint64             `json:"custom_type_id"`
		ClearCustom  bool                `json:"clear_custom_type"`
		Address      *string             `json:"address"`
		Notes        *string             `json:"notes"`
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid contact ID")
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	profile, _ := middleware.GetProfile(c)
	contact, err := h.contactService.Update(c.Request.Context(), profile.BusinessID, id, services.UpdateContactInput{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Type:         req.Type,
		CustomTypeID: req.CustomTypeID,
		ClearCustom:  req.ClearCustom,
		Address:      req.Address,
		Notes:        req.Notes,
	})
	if err != nil {
		respondContactError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToContactDTO(*contact))
}

// DeleteContact deletes a contact.
func (h *ContactHandler) DeleteContact(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid contact ID")
		return
	}

	profile, _ := middleware.GetProfile(c)
	if err := h.contactService.Delete(c.Request.Context(), profile.BusinessID, id); err != nil {
		apierrors.InternalError(c, "Failed to delete contact")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Contact deleted"})
}

// BulkDeleteContacts deletes a set of contacts atomically.
func (h *ContactHandler) BulkDeleteContacts(c *gin.Context) {
	type BulkRequest struct {
		IDs []uint64 `json:"ids" binding:"required"`
	}

	var req BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	profile, _ := middleware.GetProfile(c)
	deleted, err := h.contactService.BulkDelete(c.Request.Context(), profile.BusinessID, req.IDs)
	if err != nil {
		if errors.Is(err, services.ErrNoIDsGiven) {
			apierrors.BadRequest(c, err.Error())
			return
		}
		apierrors.InternalError(c, "Failed to delete contacts")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// LinkItem links a contact to an item.
func (h *ContactHandler) LinkItem(c *gin.Context) {
	type LinkRequest struct {
		ItemID uint64 `json:"item_id" binding:"required"`
		Role   string `json:"role"`
		Note   string `json:"note"`
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid contact ID")
		return
	}

	var req LinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	profile, _ := middleware.GetProfile(c)
	link, err := h.contactService.LinkItem(c.Request.Context(), profile.BusinessID, id, req.ItemID, req.Role, req.Note)
	if err != nil {
		apierrors.InternalError(c, "Failed to link item")
		return
	}

	c.JSON(http.StatusCreated, link)
}

// UnlinkItem removes a contact-item link.
func (h *ContactHandler) UnlinkItem(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid contact ID")
		return
	}
	itemID, err := strconv.ParseUint(c.Param("item_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid item ID")
		return
	}

	profile, _ := middleware.GetProfile(c)
	if err := h.contactService.UnlinkItem(c.Request.Context(), profile.BusinessID, id, itemID); err != nil {
		apierrors.InternalError(c, "Failed to unlink item")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Item unlinked"})
}

// ExportContacts streams the business's contacts as CSV.
func (h *ContactHandler) ExportContacts(c *gin.Context) {
	profile, _ := middleware.GetProfile(c)

	csv, err := h.contactService.ExportCSV(profile.BusinessID)
	if err != nil {
		apierrors.InternalError(c, "Failed to export contacts")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=contacts-%d.csv", profile.BusinessID))
	c.Data(http.StatusOK, "text/csv", []byte(csv))
}

// ImportContacts imports contacts from an uploaded CSV file.
func (h *ContactHandler) ImportContacts(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		apierrors.BadRequest(c, "Missing csv file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		apierrors.BadRequest(c, "Failed to read csv file")
		return
	}

	profile, _ := middleware.GetProfile(c)
	result, err := h.contactService.ImportCSV(c.Request.Context(), profile.BusinessID, profile.UserID, string(data))
	if err != nil {
		if errors.Is(err, services.ErrCSVMissingHeader) {
			apierrors.BadRequest(c, err.Error())
			return
		}
		apierrors.InternalError(c, "Failed to import contacts")
		return
	}

	c.JSON(http.StatusOK, result)
}

func respondContactError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrContactNameEmpty),
		errors.Is(err, services.ErrContactTypeInvalid):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		apierrors.NotFound(c, "Contact not found")
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
