package models

import "time"

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityUrgent TaskPriority = "urgent"
)

type Task struct {
	ID          uint64       `gorm:"primarykey" json:"id"`
	BusinessID  uint64       `gorm:"not null;index" json:"business_id"`
	Title       string       `gorm:"not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	Status      TaskStatus   `gorm:"type:varchar(20);not null;default:'todo'" json:"status"`
	Priority    TaskPriority `gorm:"type:varchar(20);not null;default:'medium'" json:"priority"`
	DueDate     *time.Time   `json:"due_date"`
	ContactID   *uint64      `json:"contact_id"`
	ItemID      *uint64      `json:"item_id"`
	CreatorID   uint64       `gorm:"not null" json:"creator_id"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`

	// Relations
	Creator     User             `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Contact     *Contact         `gorm:"foreignKey:ContactID" json:"contact,omitempty"`
	Item        *Item            `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	Assignments []TaskAssignment `gorm:"foreignKey:TaskID" json:"assignments,omitempty"`
	Comments    []TaskComment    `gorm:"foreignKey:TaskID" json:"comments,omitempty"`
	Activity    []TaskActivity   `gorm:"foreignKey:TaskID" json:"activity,omitempty"`
}

// TaskAssignment records who a task is assigned to and who assigned them.
type TaskAssignment struct {
	TaskID     uint64    `gorm:"primarykey" json:"task_id"`
	UserID     uint64    `gorm:"primarykey" json:"user_id"`
	AssignedBy uint64    `gorm:"not null" json:"assigned_by"`
	CreatedAt  time.Time `json:"created_at"`

	// Relations
	Task Task `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

type TaskComment struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	TaskID    uint64    `gorm:"not null;index" json:"task_id"`
	AuthorID  uint64    `gorm:"not null" json:"author_id"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Author   User                 `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Mentions []TaskCommentMention `gorm:"foreignKey:CommentID" json:"mentions,omitempty"`
}

// TaskCommentMention is an @mention of a member inside a comment.
type TaskCommentMention struct {
	CommentID uint64 `gorm:"primarykey" json:"comment_id"`
	UserID    uint64 `gorm:"primarykey" json:"user_id"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

type TaskActivityKind string

const (
	TaskActivityStatusChanged   TaskActivityKind = "status_changed"
	TaskActivityPriorityChanged TaskActivityKind = "priority_changed"
	TaskActivityAssigned        TaskActivityKind = "assigned"
)

// TaskActivity is an append-only change record.
type TaskActivity struct {
	ID        uint64           `gorm:"primarykey" json:"id"`
	TaskID    uint64           `gorm:"not null;index" json:"task_id"`
	ActorID   uint64           `gorm:"not null" json:"actor_id"`
	Kind      TaskActivityKind `gorm:"type:varchar(30);not null" json:"kind"`
	OldValue  string           `gorm:"type:varchar(255)" json:"old_value"`
	NewValue  string           `gorm:"type:varchar(255)" json:"new_value"`
	CreatedAt time.Time        `json:"created_at"`

	// Relations
	Actor User `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
}
