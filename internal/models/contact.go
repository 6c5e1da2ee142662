package models

import "time"

type ContactType string

const (
	ContactTypeClient     ContactType = "client"
	ContactTypeVendor     ContactType = "vendor"
	ContactTypeLandlord   ContactType = "landlord"
	ContactTypeTenant     ContactType = "tenant"
	ContactTypeContractor ContactType = "contractor"
	ContactTypeOther      ContactType = "other"
)

type Contact struct {
	ID         uint64      `gorm:"primarykey" json:"id"`
	BusinessID uint64      `gorm:"not null;index" json:"business_id"`
	Name       string      `gorm:"type:varchar(255);not null" json:"name"`
	Email      string      `gorm:"type:varchar(255)" json:"email"`
	Phone      string      `gorm:"type:varchar(50)" json:"phone"`
	Type       ContactType `gorm:"type:varchar(30);not null;default:'other'" json:"type"`
	// Set when the contact uses a tenant-defined type instead of the fixed enum.
	CustomTypeID *uint64   `json:"custom_type_id"`
	Address      string    `gorm:"type:text" json:"address"`
	Notes        string    `gorm:"type:text" json:"notes"`
	CreatedBy    uint64    `gorm:"not null" json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relations
	CustomType *CustomType   `gorm:"foreignKey:CustomTypeID" json:"custom_type,omitempty"`
	ItemLinks  []ContactItem `gorm:"foreignKey:ContactID" json:"item_links,omitempty"`
}

// ContactItem links a contact to an item with an optional role and note.
type ContactItem struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	ContactID uint64    `gorm:"not null;uniqueIndex:ux_contact_item,priority:1" json:"contact_id"`
	ItemID    uint64    `gorm:"not null;uniqueIndex:ux_contact_item,priority:2" json:"item_id"`
	Role      string    `gorm:"type:varchar(100)" json:"role"`
	Note      string    `gorm:"type:text" json:"note"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Contact Contact `gorm:"foreignKey:ContactID" json:"contact,omitempty"`
	Item    Item    `gorm:"foreignKey:ItemID" json:"item,omitempty"`
}
