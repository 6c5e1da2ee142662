package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/opsdesk/opsdesk-api/internal/cache"
	"github.com/opsdesk/opsdesk-api/internal/constants"
	"github.com/opsdesk/opsdesk-api/internal/models"
	"github.com/opsdesk/opsdesk-api/internal/repository"
	"github.com/opsdesk/opsdesk-api/internal/utils"
)

var (
	ErrDuplicateInvite       = errors.New("an invite for this email is already pending")
	ErrInviteNotFound        = errors.New("invite not found")
	ErrInviteExpired         = errors.New("this invite has expired")
	ErrInviteAlreadyAccepted = errors.New("this invite has already been accepted")
	ErrInviteEmailMismatch   = errors.New("this invite was issued to a different email address")
	ErrInviteRoleInvalid     = errors.New("invalid role for invite")
)

// InviteService handles pending membership offers
type InviteService struct {
	inviteRepo repository.InviteRepository
	userRepo   repository.UserRepository
	cache      cache.Cache
}

// NewInviteService creates a new InviteService
func NewInviteService(inviteRepo repository.InviteRepository, userRepo repository.UserRepository, c cache.Cache) *InviteService {
	return &InviteService{inviteRepo: inviteRepo, userRepo: userRepo, cache: c}
}

// CreateInviteInput represents input for inviting a member
type CreateInviteInput struct {
	BusinessID uint64
	Email      string
	Role       models.Role
	InvitedBy  uint64
}

// Create issues an invite. A pending invite for the same email is rejected.
func (s *InviteService) Create(ctx context.Context, input CreateInviteInput) (*models.Invite, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, ErrEmailRequired
	}
	switch input.Role {
	case models.RoleAdmin, models.RoleMember, models.RoleViewer:
	default:
		return nil, ErrInviteRoleInvalid
	}

	if _, err := s.inviteRepo.FindPendingByEmail(input.BusinessID, email); err == nil {
		return nil, ErrDuplicateInvite
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check pending invites: %w", err)
	}

	token, err := utils.GenerateInviteToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate invite token: %w", err)
	}

	invite := &models.Invite{
		BusinessID: input.BusinessID,
		Email:      email,
		Role:       input.Role,
		Token:      token,
		InvitedBy:  input.InvitedBy,
		ExpiresAt:  time.Now().AddDate(0, 0, constants.InviteExpiryDays),
	}

	if err := s.inviteRepo.Create(invite); err != nil {
		return nil, fmt.Errorf("failed to create invite: %w", err)
	}

	invalidate(ctx, s.cache, input.BusinessID, cache.EntityInvites)
	return invite, nil
}

// ListPending lists open invites for a business
func (s *InviteService) ListPending(ctx context.Context, businessID uint64) ([]models.Invite, error) {
	key := cache.Key(businessID, cache.EntityInvites, "pending")
	return fetchCached(ctx, s.cache, businessID, key,
		[]cache.Entity{cache.EntityInvites},
		func() ([]models.Invite, error) {
			return s.inviteRepo.ListPending(businessID)
		})
}

// Revoke deletes a pending invite
func (s *InviteService) Revoke(ctx context.Context, businessID, id uint64) error {
	if err := s.inviteRepo.Delete(businessID, id); err != nil {
		return fmt.Errorf("failed to revoke invite: %w", err)
	}
	invalidate(ctx, s.cache, businessID, cache.EntityInvites)
	return nil
}

// Accept validates the invite and atomically creates the member profile.
func (s *InviteService) Accept(ctx context.Context, token string, userID uint64) (*models.Profile, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	invite, err := s.inviteRepo.FindByToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("failed to find invite: %w", err)
	}

	if invite.AcceptedAt != nil {
		return nil, ErrInviteAlreadyAccepted
	}
	if time.Now().After(invite.ExpiresAt) {
		return nil, ErrInviteExpired
	}
	if !strings.EqualFold(invite.Email, user.Email) {
		return nil, ErrInviteEmailMismatch
	}

	profile, err := s.inviteRepo.Accept(invite, user)
	if err != nil {
		return nil, fmt.Errorf("failed to accept invite: %w", err)
	}

	invalidate(ctx, s.cache, invite.BusinessID, cache.EntityInvites, cache.EntityProfiles)
	return profile, nil
}
