package dto

import (
	"time"

	"github.com/opsdesk/opsdesk-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID       uint64 `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// ProfileDTO represents a business membership in API responses
type ProfileDTO struct {
	ID       uint64      `json:"id"`
	UserID   uint64      `json:"user_id"`
	Role     models.Role `json:"role"`
	JoinedAt time.Time   `json:"joined_at"`
	User     *UserDTO    `json:"user,omitempty"`
}

// BusinessDTO represents the tenant in API responses
type BusinessDTO struct {
	ID            uint64 `json:"id"`
	Name          string `json:"name"`
	ItemsLabel    string `json:"items_label"`
	ContactsLabel string `json:"contacts_label"`
	DealsLabel    string `json:"deals_label"`
}

// ListMeta carries pagination metadata in list responses
type ListMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalCount int64 `json:"total_count"`
	TotalPages int   `json:"total_pages"`
}

// NewListMeta builds pagination metadata from a page and a total
func NewListMeta(page, pageSize int, totalCount int64) ListMeta {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int(totalCount) / pageSize
		if int(totalCount)%pageSize > 0 {
			totalPages++
		}
	}
	return ListMeta{
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.FullName,
	}
}

// ToProfileDTO converts a Profile model to ProfileDTO
func ToProfileDTO(profile models.Profile) ProfileDTO {
	dto := ProfileDTO{
		ID:       profile.ID,
		UserID:   profile.UserID,
		Role:     profile.Role,
		JoinedAt: profile.JoinedAt,
	}
	if profile.User.ID != 0 {
		user := ToUserDTO(profile.User)
		dto.User = &user
	}
	return dto
}

// ToBusinessDTO converts a Business model to BusinessDTO
func ToBusinessDTO(business models.Business) BusinessDTO {
	return BusinessDTO{
		ID:            business.ID,
		Name:          business.Name,
		ItemsLabel:    business.ItemsLabel,
		ContactsLabel: business.ContactsLabel,
		DealsLabel:    business.DealsLabel,
	}
}
