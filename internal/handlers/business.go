package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/opsdesk/opsdesk-api/internal/dto"
	apierrors "github.com/opsdesk/opsdesk-api/internal/errors"
	"github.com/opsdesk/opsdesk-api/internal/middleware"
	"github.com/opsdesk/opsdesk-api/internal/models"
	"github.com/opsdesk/opsdesk-api/internal/services"
)

// BusinessHandler coordinates business settings, team and dashboard handlers.
type BusinessHandler struct {
	businessService *services.BusinessService
	inviteService   *services.InviteService
}

// NewBusinessHandler creates a new BusinessHandler.
func NewBusinessHandler(businessService *services.BusinessService, inviteService *services.InviteService) *BusinessHandler {
	return &BusinessHandler{
		businessService: businessService,
		inviteService:   inviteService,
	}
}

// GetBusiness returns the caller's business.
func (h *BusinessHandler) GetBusiness(c *gin.Context) {
	profile, _ := middleware.GetProfile(c)

	business, err := h.businessService.Get(profile.BusinessID)
	if err != nil {
		apierrors.NotFound(c, "Business not found")
		return
	}

	c.JSON(http.StatusOK, dto.ToBusinessDTO(*business))
}

// UpdateBusiness edits the business name and navigation labels.
func (h *BusinessHandler) UpdateBusiness(c *gin.Context) {
	type UpdateRequest struct {
		Name          *string `json:"name"`
		ItemsLabel    *string `json:"items_label"`
		ContactsLabel *string `json:"contacts_label"`
		DealsLabel    *string `json:"deals_label"`
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	profile, _ := middleware.GetProfile(c)
	business, err := h.businessService.Update(c.Request.Context(), profile.BusinessID, services.UpdateBusinessInput{
		Name:          req.Name,
		ItemsLabel:    req.ItemsLabel,
		ContactsLabel: req.ContactsLabel,
		DealsLabel:    req.DealsLabel,
	})
	if err != nil {
		if errors.Is(err, services.ErrBusinessNameNeeded) {
			apierrors.BadRequest(c, err.Error())
			return
		}
		apierrors.InternalError(c, "Failed to update business")
		return
	}

	c.JSON(http.StatusOK, dto.ToBusinessDTO(*business))
}

// ListMembers returns the team roster.
func (h *BusinessHandler) ListMembers(c *gin.Context) {
	profile, _ := middleware.GetProfile(c)

	members, err := h.businessService.ListMembers(c.Request.Context(), profile.BusinessID)
	if err != nil {
		apierrors.InternalError(c, "Failed to list members")
		return
	}

	out := make([]dto.ProfileDTO, len(members))
	for i, member := range members {
		out[i] = dto.ToProfileDTO(member)
	}
	c.JSON(http.StatusOK, gin.H{"members": out})
}

// ChangeMemberRole changes another member's role.
func (h *BusinessHandler) ChangeMemberRole(c *gin.Context) {
	type RoleRequest struct {
		Role models.Role `json:"role" binding:"required"`
	}

	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	profile, _ := middleware.GetProfile(c)
	if err := h.businessService.ChangeRole(c.Request.Context(), profile.BusinessID, userID, req.Role); err != nil {
		switch {
		case errors.Is(err, services.ErrMemberNotFound):
			apierrors.NotFound(c, err.Error())
		case errors.Is(err, services.ErrCannotDemoteOwner):
			apierrors.Forbidden(c, err.Error())
		default:
			apierrors.InternalError(c, "Failed to change role")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Role updated"})
}

// RemoveMember removes a member from the business.
func (h *BusinessHandler) RemoveMember(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	profile, _ := middleware.GetProfile(c)
	if err := h.businessService.RemoveMember(c.Request.Context(), profile.BusinessID, profile.UserID, userID); err != nil {
		if errors.Is(err, services.ErrCannotRemoveSelf) {
			apierrors.BadRequest(c, err.Error())
			return
		}
		apierrors.InternalError(c, "Failed to remove member")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Member removed"})
}

// Dashboard returns the headline stats.
func (h *BusinessHandler) Dashboard(c *gin.Context) {
	profile, _ := middleware.GetProfile(c)

	stats, err := h.businessService.Dashboard(profile.BusinessID)
	if err != nil {
		apierrors.InternalError(c, "Failed to load dashboard")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// CreateInvite issues a membership invite.
func (h *BusinessHandler) CreateInvite(c *gin.Context) {
	type InviteRequest struct {
		Email string      `json:"email" binding:"required,email"`
		Role  models.Role `json:"role" binding:"required"`
	}

	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	profile, _ := middleware.GetProfile(c)
	invite, err := h.inviteService.Create(c.Request.Context(), services.CreateInviteInput{
		BusinessID: profile.BusinessID,
		Email:      req.Email,
		Role:       req.Role,
		InvitedBy:  profile.UserID,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDuplicateInvite):
			apierrors.Conflict(c, err.Error())
		case errors.Is(err, services.ErrInviteRoleInvalid), errors.Is(err, services.ErrEmailRequired):
			apierrors.BadRequest(c, err.Error())
		default:
			apierrors.InternalError(c, "Failed to create invite")
		}
		return
	}

	c.JSON(http.StatusCreated, invite)
}

// ListInvites lists the business's pending invites.
func (h *BusinessHandler) ListInvites(c *gin.Context) {
	profile, _ := middleware.GetProfile(c)

	invites, err := h.inviteService.ListPending(c.Request.Context(), profile.BusinessID)
	if err != nil {
		apierrors.InternalError(c, "Failed to list invites")
		return
	}

	c.JSON(http.StatusOK, gin.H{"invites": invites})
}

// RevokeInvite deletes a pending invite.
func (h *BusinessHandler) RevokeInvite(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid invite ID")
		return
	}

	profile, _ := middleware.GetProfile(c)
	if err := h.inviteService.Revoke(c.Request.Context(), profile.BusinessID, id); err != nil {
		apierrors.InternalError(c, "Failed to revoke invite")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invite revoked"})
}

// AcceptInvite joins the caller to the inviting business.
func (h *BusinessHandler) AcceptInvite(c *gin.Context) {
	type AcceptRequest struct {
		Token string `json:"token" binding:"required"`
	}

	var req AcceptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	joined, err := h.inviteService.Accept(c.Request.Context(), req.Token, userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInviteNotFound):
			apierrors.NotFound(c, err.Error())
		case errors.Is(err, services.ErrInviteExpired),
			errors.Is(err, services.ErrInviteAlreadyAccepted),
			errors.Is(err, services.ErrInviteEmailMismatch):
			apierrors.BadRequest(c, err.Error())
		default:
			apierrors.InternalError(c, "Failed to accept invite")
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToProfileDTO(*joined))
}
