package models

import "time"

type AttendeeStatus string

const (
	AttendeeStatusPending   AttendeeStatus = "pending"
	AttendeeStatusAccepted  AttendeeStatus = "accepted"
	AttendeeStatusDeclined  AttendeeStatus = "declined"
	AttendeeStatusTentative AttendeeStatus = "tentative"
)

type CalendarEntry struct {
	ID         uint64    `gorm:"primarykey" json:"id"`
	BusinessID uint64    `gorm:"not null;index" json:"business_id"`
	Title      string    `gorm:"type:varchar(255);not null" json:"title"`
	StartTime  time.Time `gorm:"not null;index" json:"start_time"`
	EndTime    time.Time `gorm:"not null" json:"end_time"`
	Location   string    `gorm:"type:varchar(255)" json:"location"`
	Color      string    `gorm:"type:varchar(20)" json:"color"`
	TaskID     *uint64   `json:"task_id"`
	CreatorID  uint64    `gorm:"not null" json:"creator_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Relations
	Task      *Task              `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	Creator   User               `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Attendees []CalendarAttendee `gorm:"foreignKey:EntryID" json:"attendees,omitempty"`
}

type CalendarAttendee struct {
	EntryID   uint64         `gorm:"primarykey" json:"entry_id"`
	UserID    uint64         `gorm:"primarykey" json:"user_id"`
	Status    AttendeeStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
