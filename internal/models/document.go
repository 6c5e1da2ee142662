package models

import "time"

// Document is file metadata pointing at an object-store key. Versions form a
// chain through ParentID with exactly one row per chain flagged latest.
type Document struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	BusinessID  uint64    `gorm:"not null;index" json:"business_id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	StoragePath string    `gorm:"type:varchar(512);not null" json:"storage_path"`
	ContentType string    `gorm:"type:varchar(100)" json:"content_type"`
	Size        int64     `gorm:"not null;default:0" json:"size"`
	ParentID    *uint64   `json:"parent_id"`
	IsLatest    bool      `gorm:"not null;default:true" json:"is_latest"`
	ContactID   *uint64   `json:"contact_id"`
	ItemID      *uint64   `json:"item_id"`
	UploadedBy  uint64    `gorm:"not null" json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Uploader User               `gorm:"foreignKey:UploadedBy" json:"uploader,omitempty"`
	Activity []DocumentActivity `gorm:"foreignKey:DocumentID" json:"activity,omitempty"`
}

type DocumentAction string

const (
	DocumentActionUpload   DocumentAction = "upload"
	DocumentActionView     DocumentAction = "view"
	DocumentActionDownload DocumentAction = "download"
	DocumentActionEdit     DocumentAction = "edit"
	DocumentActionDelete   DocumentAction = "delete"
	DocumentActionShare    DocumentAction = "share"
)

type DocumentActivity struct {
	ID         uint64         `gorm:"primarykey" json:"id"`
	DocumentID uint64         `gorm:"not null;index" json:"document_id"`
	ActorID    uint64         `gorm:"not null" json:"actor_id"`
	Action     DocumentAction `gorm:"type:varchar(20);not null" json:"action"`
	CreatedAt  time.Time      `json:"created_at"`

	// Relations
	Actor User `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
}
