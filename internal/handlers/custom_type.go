package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	apierrors "github.com/opsdesk/opsdesk-api/internal/errors"
	"github.com/opsdesk/opsdesk-api/internal/middleware"
	"github.com/opsdesk/opsdesk-api/internal/models"
	"github.com/opsdesk/opsdesk-api/internal/services"
)

// CustomTypeHandler coordinates taxonomy HTTP handlers.
type CustomTypeHandler struct {
	customTypeService *services.CustomTypeService
}

// NewCustomTypeHandler creates a new CustomTypeHandler.
func NewCustomTypeHandler(customTypeService *services.CustomTypeService) *CustomTypeHandler {
	return &CustomTypeHandler{
		customTypeService: customTypeService,
	}
}

// CreateCustomType adds a taxonomy value.
func (h *CustomTypeHandler) CreateCustomType(c *gin.Context) {
	type CreateRequest struct {
		Category models.CustomTypeCategory `json:"category" binding:"required"`
		Name     string                    `json:"name" binding:"required"`
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	profile, _ := middleware.GetProfile(c)
	ct, err := h.customTypeService.Create(c.Request.Context(), profile.BusinessID, req.Category, req.Name)
	if err != nil {
		respondCustomTypeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ct)
}

// ListCustomTypes lists taxonomy values for a category.
func (h *CustomTypeHandler) ListCustomTypes(c *gin.Context) {
	category := models.CustomTypeCategory(c.Query("category"))
	if category != models.CustomTypeCategoryContact && category != models.CustomTypeCategoryItem {
		apierrors.BadRequest(c, "category must be contact or item")
		return
	}
	activeOnly := c.Query("include_inactive") != "true"

	profile, _ := middleware.GetProfile(c)
	types, err := h.customTypeService.List(c.Request.Context(), profile.BusinessID, category, activeOnly)
	if err != nil {
		apierrors.InternalError(c, "Failed to list custom types")
		return
	}

	c.JSON(http.StatusOK, gin.H{"custom_types": types})
}

// RenameCustomType renames a taxonomy value.
func (h *CustomTypeHandler) RenameCustomType(c *gin.Context) {
	type RenameRequest struct {
		Name string `json:"name" binding:"required"`
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid custom type ID")
		return
	}

	var req RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	profile, _ := middleware.GetProfile(c)
	ct, err := h.customTypeService.Rename(c.Request.Context(), profile.BusinessID, id, req.Name)
	if err != nil {
		respondCustomTypeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ct)
}

// DeactivateCustomType retires a taxonomy value.
func (h *CustomTypeHandler) DeactivateCustomType(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid custom type ID")
		return
	}

	profile, _ := middleware.GetProfile(c)
	if err := h.customTypeService.Deactivate(c.Request.Context(), profile.BusinessID, id); err != nil {
		respondCustomTypeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Custom type deactivated"})
}

func respondCustomTypeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrCustomTypeNameEmpty),
		errors.Is(err, services.ErrCustomTypeCategoryInvalid):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		apierrors.NotFound(c, "Custom type not found")
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
