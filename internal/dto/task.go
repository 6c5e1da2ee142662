package dto

import (
	"time"

	"github.com/opsdesk/opsdesk-api/internal/models"
)

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID          uint64              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority"`
	DueDate     *time.Time          `json:"due_date"`
	ContactID   *uint64             `json:"contact_id"`
	ItemID      *uint64             `json:"item_id"`
	CreatorID   uint64              `json:"creator_id"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`

	Creator   *UserDTO  `json:"creator,omitempty"`
	Assignees []UserDTO `json:"assignees,omitempty"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks []TaskDTO `json:"tasks"`
	ListMeta
}

// TaskCommentDTO represents a task comment in API responses
type TaskCommentDTO struct {
	ID         uint64    `json:"id"`
	Body       string    `json:"body"`
	AuthorID   uint64    `json:"author_id"`
	Author     *UserDTO  `json:"author,omitempty"`
	MentionIDs []uint64  `json:"mention_ids,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// TaskActivityDTO represents a task change record in API responses
type TaskActivityDTO struct {
	ID        uint64                  `json:"id"`
	Kind      models.TaskActivityKind `json:"kind"`
	OldValue  string                  `json:"old_value"`
	NewValue  string                  `json:"new_value"`
	ActorID   uint64                  `json:"actor_id"`
	CreatedAt time.Time               `json:"created_at"`
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		DueDate:     task.DueDate,
		ContactID:   task.ContactID,
		ItemID:      task.ItemID,
		CreatorID:   task.CreatorID,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
	if task.Creator.ID != 0 {
		creator := ToUserDTO(task.Creator)
		dto.Creator = &creator
	}
	for _, assignment := range task.Assignments {
		if assignment.User.ID != 0 {
			dto.Assignees = append(dto.Assignees, ToUserDTO(assignment.User))
		}
	}
	return dto
}

// ToTaskListResponse converts tasks to a paginated response
func ToTaskListResponse(tasks []models.Task, page, pageSize int, totalCount int64) TaskListResponse {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}
	return TaskListResponse{
		Tasks:    items,
		ListMeta: NewListMeta(page, pageSize, totalCount),
	}
}

// ToTaskCommentDTO converts a TaskComment model to TaskCommentDTO
func ToTaskCommentDTO(comment models.TaskComment) TaskCommentDTO {
	dto := TaskCommentDTO{
		ID:        comment.ID,
		Body:      comment.Body,
		AuthorID:  comment.AuthorID,
		CreatedAt: comment.CreatedAt,
	}
	if comment.Author.ID != 0 {
		author := ToUserDTO(comment.Author)
		dto.Author = &author
	}
	for _, mention := range comment.Mentions {
		dto.MentionIDs = append(dto.MentionIDs, mention.UserID)
	}
	return dto
}

// ToTaskActivityDTO converts a TaskActivity model to TaskActivityDTO
func ToTaskActivityDTO(activity models.TaskActivity) TaskActivityDTO {
	return TaskActivityDTO{
		ID:        activity.ID,
		Kind:      activity.Kind,
		OldValue:  activity.OldValue,
		NewValue:  activity.NewValue,
		ActorID:   activity.ActorID,
		CreatedAt: activity.CreatedAt,
	}
}
