package models

import "time"

type CustomTypeCategory string

const (
	CustomTypeCategoryContact CustomTypeCategory = "contact"
	CustomTypeCategoryItem    CustomTypeCategory = "item"
)

// CustomType is a tenant-defined taxonomy value. Deleting one deactivates it
// instead of removing the row so historical records keep their label.
type CustomType struct {
	ID         uint64             `gorm:"primarykey" json:"id"`
	BusinessID uint64             `gorm:"not null;index" json:"business_id"`
	Category   CustomTypeCategory `gorm:"type:varchar(20);not null" json:"category"`
	Name       string             `gorm:"type:varchar(100);not null" json:"name"`
	Active     bool               `gorm:"not null;default:true" json:"active"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}
