package dto

import (
	"time"

	"github.com/opsdesk/opsdesk-api/internal/models"
)

// ContactDTO represents a contact in API responses
type ContactDTO struct {
	ID           uint64             `json:"id"`
	Name         string             `json:"name"`
	Email        string             `json:"email"`
	Phone        string             `json:"phone"`
	Type         models.ContactType `json:"type"`
	CustomTypeID *uint64            `json:"custom_type_id"`
	CustomType   string             `json:"custom_type,omitempty"`
	Address      string             `json:"address"`
	Notes        string             `json:"notes"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`

	Items []ContactItemDTO `json:"items,omitempty"`
}

// ContactItemDTO represents a contact-item link in API responses
type ContactItemDTO struct {
	ItemID    uint64 `json:"item_id"`
	ItemTitle string `json:"item_title,omitempty"`
	Role      string `json:"role"`
	Note      string `json:"note"`
}

// ContactListResponse represents a paginated list of contacts
type ContactListResponse struct {
	Contacts []ContactDTO `json:"contacts"`
	ListMeta
}

// ToContactDTO converts a Contact model to ContactDTO
func ToContactDTO(contact models.Contact) ContactDTO {
	dto := ContactDTO{
		ID:           contact.ID,
		Name:         contact.Name,
		Email:        contact.Email,
		Phone:        contact.Phone,
		Type:         contact.Type,
		CustomTypeID: contact.CustomTypeID,
		Address:      contact.Address,
		Notes:        contact.Notes,
		CreatedAt:    contact.CreatedAt,
		UpdatedAt:    contact.UpdatedAt,
	}
	if contact.CustomType != nil {
		dto.CustomType = contact.CustomType.Name
	}
	for _, link := range contact.ItemLinks {
		item := ContactItemDTO{
			ItemID: link.ItemID,
			Role:   link.Role,
			Note:   link.Note,
		}
		if link.Item.ID != 0 {
			item.ItemTitle = link.Item.Title
		}
		dto.Items = append(dto.Items, item)
	}
	return dto
}

// ToContactListResponse converts contacts to a paginated response
func ToContactListResponse(contacts []models.Contact, page, pageSize int, totalCount int64) ContactListResponse {
	items := make([]ContactDTO, len(contacts))
	for i, contact := range contacts {
		items[i] = ToContactDTO(contact)
	}
	return ContactListResponse{
		Contacts: items,
		ListMeta: NewListMeta(page, pageSize, totalCount),
	}
}
