package models

import "time"

// Business is the tenant. Every other row carries its ID and every query
// filters by it.
type Business struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Configurable navigation labels; empty means the default wording.
	ItemsLabel    string `gorm:"type:varchar(50)" json:"items_label"`
	ContactsLabel string `gorm:"type:varchar(50)" json:"contacts_label"`
	DealsLabel    string `gorm:"type:varchar(50)" json:"deals_label"`

	// Relations
	Profiles []Profile `gorm:"foreignKey:BusinessID" json:"profiles,omitempty"`
}
