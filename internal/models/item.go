package models

import "time"

// ItemCategory discriminates what kind of tracked object an item is. Real
// estate specific columns are only meaningful for the property category.
type ItemCategory string

const (
	ItemCategoryGeneral  ItemCategory = "general"
	ItemCategoryProperty ItemCategory = "property"
	ItemCategoryListing  ItemCategory = "listing"
	ItemCategoryJob      ItemCategory = "job"
)

type ItemStatus string

const (
	ItemStatusActive   ItemStatus = "active"
	ItemStatusPending  ItemStatus = "pending"
	ItemStatusClosed   ItemStatus = "closed"
	ItemStatusArchived ItemStatus = "archived"
)

// Item is the platform's generic tracked business object: a property, a
// listing, a job. The tenant can relabel the whole section.
type Item struct {
	ID           uint64       `gorm:"primarykey" json:"id"`
	BusinessID   uint64       `gorm:"not null;index" json:"business_id"`
	Title        string       `gorm:"type:varchar(255);not null" json:"title"`
	Description  string       `gorm:"type:text" json:"description"`
	Category     ItemCategory `gorm:"type:varchar(20);not null;default:'general'" json:"category"`
	Status       ItemStatus   `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	CustomTypeID *uint64      `json:"custom_type_id"`
	Amount       *float64     `json:"amount"`
	StartDate    *time.Time   `json:"start_date"`
	EndDate      *time.Time   `json:"end_date"`

	// Property category fields
	Bedrooms          *int     `json:"bedrooms"`
	MonthlyRent       *float64 `json:"monthly_rent"`
	LandlordContactID *uint64  `json:"landlord_contact_id"`

	CreatedBy uint64    `gorm:"not null" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	CustomType      *CustomType   `gorm:"foreignKey:CustomTypeID" json:"custom_type,omitempty"`
	LandlordContact *Contact      `gorm:"foreignKey:LandlordContactID" json:"landlord_contact,omitempty"`
	Notes           []ItemNote    `gorm:"foreignKey:ItemID" json:"notes,omitempty"`
	ContactLinks    []ContactItem `gorm:"foreignKey:ItemID" json:"contact_links,omitempty"`
}

// ItemNote is a free-text note on an item, listed in creation order.
type ItemNote struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	ItemID    uint64    `gorm:"not null;index" json:"item_id"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedBy uint64    `gorm:"not null" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Author User `gorm:"foreignKey:CreatedBy" json:"author,omitempty"`
}
