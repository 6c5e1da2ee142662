package models

import "time"

// PipelineStage is an ordered bucket a deal occupies. Stages flagged as
// closed-won or closed-lost are terminal.
type PipelineStage struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	BusinessID   uint64    `gorm:"not null;index" json:"business_id"`
	Name         string    `gorm:"type:varchar(100);not null" json:"name"`
	Position     int       `gorm:"not null" json:"position"`
	IsClosedWon  bool      `gorm:"not null;default:false" json:"is_closed_won"`
	IsClosedLost bool      `gorm:"not null;default:false" json:"is_closed_lost"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type DealStatus string

const (
	DealStatusOpen DealStatus = "open"
	DealStatusWon  DealStatus = "won"
	DealStatusLost DealStatus = "lost"
)

type Deal struct {
	ID                uint64     `gorm:"primarykey" json:"id"`
	BusinessID        uint64     `gorm:"not null;index" json:"business_id"`
	Title             string     `gorm:"type:varchar(255);not null" json:"title"`
	StageID           uint64     `gorm:"not null;index" json:"stage_id"`
	Status            DealStatus `gorm:"type:varchar(20);not null;default:'open'" json:"status"`
	Value             float64    `gorm:"not null;default:0" json:"value"`
	Probability       *int       `json:"probability"`
	ContactID         *uint64    `json:"contact_id"`
	ItemID            *uint64    `json:"item_id"`
	ExpectedCloseDate *time.Time `json:"expected_close_date"`
	ActualCloseDate   *time.Time `json:"actual_close_date"`
	CreatedBy         uint64     `gorm:"not null" json:"created_by"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	// Relations
	Stage    PipelineStage  `gorm:"foreignKey:StageID" json:"stage,omitempty"`
	Contact  *Contact       `gorm:"foreignKey:ContactID" json:"contact,omitempty"`
	Item     *Item          `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	Activity []DealActivity `gorm:"foreignKey:DealID" json:"activity,omitempty"`
}

type DealActivityKind string

const (
	DealActivityStageChanged DealActivityKind = "stage_changed"
	DealActivityValueChanged DealActivityKind = "value_changed"
	DealActivityNote         DealActivityKind = "note"
)

// DealActivity is an append-only record of stage moves, value changes and notes.
type DealActivity struct {
	ID        uint64           `gorm:"primarykey" json:"id"`
	DealID    uint64           `gorm:"not null;index" json:"deal_id"`
	ActorID   uint64           `gorm:"not null" json:"actor_id"`
	Kind      DealActivityKind `gorm:"type:varchar(30);not null" json:"kind"`
	Detail    string           `gorm:"type:text" json:"detail"`
	CreatedAt time.Time        `json:"created_at"`

	// Relations
	Actor User `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
}
