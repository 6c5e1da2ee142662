package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/opsdesk/opsdesk-api/internal/cache"
	"github.com/opsdesk/opsdesk-api/internal/models"
	"github.com/opsdesk/opsdesk-api/internal/repository"
)

var (
	ErrTaskTitleEmpty      = errors.New("task title is required")
	ErrTaskStatusInvalid   = errors.New("invalid task status")
	ErrTaskPriorityInvalid = errors.New("invalid task priority")
	ErrAssigneeNotMember   = errors.New("all assignees must be members of the business")
	ErrMentionNotMember    = errors.New("all mentioned users must be members of the business")
	ErrTaskCommentEmpty    = errors.New("comment body is required")
)

// TaskService handles tasks, assignments, comments and activity
type TaskService struct {
	taskRepo repository.TaskRepository
	cache    cache.Cache
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, c cache.Cache) *TaskService {
	return &TaskService{taskRepo: taskRepo, cache: c}
}

func validTaskStatus(s models.TaskStatus) bool {
	switch s {
	case models.TaskStatusTodo, models.TaskStatusInProgress,
		models.TaskStatusCompleted, models.TaskStatusCancelled:
		return true
	}
	return false
}

func validTaskPriority(p models.TaskPriority) bool {
	switch p {
	case models.TaskPriorityLow, models.TaskPriorityMedium,
		models.TaskPriorityHigh, models.TaskPriorityUrgent:
		return true
	}
	return false
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	BusinessID  uint64
	Title       string
	Description string
	Status      models.TaskStatus
	Priority    models.TaskPriority
	DueDate     *time.Time
	ContactID   *uint64
	ItemID      *uint64
	CreatorID   uint64
}

// Create creates a new task
func (s *TaskService) Create(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrTaskTitleEmpty
	}
	if input.Status == "" {
		input.Status = models.TaskStatusTodo
	}
	if !validTaskStatus(input.Status) {
		return nil, ErrTaskStatusInvalid
	}
	if input.Priority == "" {
		input.Priority = models.TaskPriorityMedium
	}
	if !validTaskPriority(input.Priority) {
		return nil, ErrTaskPriorityInvalid
	}

	task := &models.Task{
		BusinessID:  input.BusinessID,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Status:      input.Status,
		Priority:    input.Priority,
		DueDate:     input.DueDate,
		ContactID:   input.ContactID,
		ItemID:      input.ItemID,
		CreatorID:   input.CreatorID,
	}
	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	invalidate(ctx, s.cache, input.BusinessID, cache.EntityTasks)
	return task, nil
}

// Get returns a task with its relations
func (s *TaskService) Get(businessID, id uint64) (*models.Task, error) {
	return s.taskRepo.FindByID(businessID, id,
		"Creator", "Contact", "Item", "Assignments.User", "Comments.Author")
}

// List lists tasks with filtering and pagination
func (s *TaskService) List(ctx context.Context, filter repository.TaskFilter) ([]models.Task, int64, error) {
	key := cache.Key(filter.BusinessID, cache.EntityTasks, filter)

	type page struct {
		Tasks []models.Task `json:"tasks"`
		Total int64         `json:"total"`
	}
	result, err := fetchCached(ctx, s.cache, filter.BusinessID, key,
		[]cache.Entity{cache.EntityTasks, cache.EntityTaskAssignments},
		func() (page, error) {
			tasks, total, err := s.taskRepo.List(filter)
			return page{Tasks: tasks, Total: total}, err
		})
	if err != nil {
		return nil, 0, err
	}
	return result.Tasks, result.Total, nil
}

// UpdateTaskInput represents input for updating a task
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *models.TaskStatus
	Priority    *models.TaskPriority
	DueDate     *time.Time
	ClearDue    bool
	ContactID   *uint64
	ItemID      *uint64
}

// Update updates a task, recording an activity row for every status or
// priority change.
func (s *TaskService) Update(ctx context.Context, businessID, id, actorID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(businessID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	var activity []models.TaskActivity

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, ErrTaskTitleEmpty
		}
		task.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil && *input.Status != task.Status {
		if !validTaskStatus(*input.Status) {
			return nil, ErrTaskStatusInvalid
		}
		activity = append(activity, models.TaskActivity{
			TaskID:   task.ID,
			ActorID:  actorID,
			Kind:     models.TaskActivityStatusChanged,
			OldValue: string(task.Status),
			NewValue: string(*input.Status),
		})
		task.Status = *input.Status
	}
	if input.Priority != nil && *input.Priority != task.Priority {
		if !validTaskPriority(*input.Priority) {
			return nil, ErrTaskPriorityInvalid
		}
		activity = append(activity, models.TaskActivity{
			TaskID:   task.ID,
			ActorID:  actorID,
			Kind:     models.TaskActivityPriorityChanged,
			OldValue: string(task.Priority),
			NewValue: string(*input.Priority),
		})
		task.Priority = *input.Priority
	}
	if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	if input.ClearDue {
		task.DueDate = nil
	}
	if input.ContactID != nil {
		task.ContactID = input.ContactID
	}
	if input.ItemID != nil {
		task.ItemID = input.ItemID
	}

	if err := s.taskRepo.UpdateWithActivity(task, activity); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	invalidate(ctx, s.cache, businessID, cache.EntityTasks, cache.EntityTaskActivity)
	return task, nil
}

// Delete deletes a task with its assignments, comments and activity
func (s *TaskService) Delete(ctx context.Context, businessID, id uint64) error {
	if err := s.taskRepo.Delete(businessID, id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	invalidate(ctx, s.cache, businessID,
		cache.EntityTasks, cache.EntityTaskAssignments, cache.EntityTaskComments, cache.EntityTaskActivity)
	return nil
}

// BulkDelete deletes the given tasks in one transaction
func (s *TaskService) BulkDelete(ctx context.Context, businessID uint64, ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrNoIDsGiven
	}
	deleted, err := s.taskRepo.BulkDelete(businessID, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to bulk delete tasks: %w", err)
	}
	invalidate(ctx, s.cache, businessID,
		cache.EntityTasks, cache.EntityTaskAssignments, cache.EntityTaskComments, cache.EntityTaskActivity)
	return deleted, nil
}

// BulkUpdateStatus moves the given tasks to one status in one transaction
func (s *TaskService) BulkUpdateStatus(ctx context.Context, businessID uint64, ids []uint64, status models.TaskStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrNoIDsGiven
	}
	if !validTaskStatus(status) {
		return 0, ErrTaskStatusInvalid
	}
	updated, err := s.taskRepo.BulkUpdateStatus(businessID, ids, status)
	if err != nil {
		return 0, fmt.Errorf("failed to bulk update tasks: %w", err)
	}
	invalidate(ctx, s.cache, businessID, cache.EntityTasks)
	return updated, nil
}

// Assign replaces the task's assignee set. Every assignee must be a member;
// newly assigned users other than the actor are notified.
func (s *TaskService) Assign(ctx context.Context, businessID, taskID, actorID uint64, userIDs []uint64) error {
	task, err := s.taskRepo.FindByID(businessID, taskID, "Assignments")
	if err != nil {
		return fmt.Errorf("failed to find task: %w", err)
	}

	if len(userIDs) > 0 {
		count, err := s.taskRepo.CountMembers(businessID, userIDs)
		if err != nil {
			return fmt.Errorf("failed to verify members: %w", err)
		}
		if count != int64(len(userIDs)) {
			return ErrAssigneeNotMember
		}
	}

	previous := make(map[uint64]bool, len(task.Assignments))
	for _, a := range task.Assignments {
		previous[a.UserID] = true
	}

	assignments := make([]models.TaskAssignment, 0, len(userIDs))
	var notifications []models.Notification
	for _, uid := range userIDs {
		assignments = append(assignments, models.TaskAssignment{
			TaskID:     taskID,
			UserID:     uid,
			AssignedBy: actorID,
		})
		if uid != actorID && !previous[uid] {
			tid := taskID
			notifications = append(notifications, models.Notification{
				BusinessID: businessID,
				UserID:     uid,
				ActorID:    actorID,
				Kind:       models.NotificationKindTaskAssigned,
				Message:    fmt.Sprintf("You were assigned to %q", task.Title),
				TaskID:     &tid,
			})
		}
	}

	activity := &models.TaskActivity{
		TaskID:   taskID,
		ActorID:  actorID,
		Kind:     models.TaskActivityAssigned,
		NewValue: fmt.Sprintf("%d assignees", len(userIDs)),
	}

	if err := s.taskRepo.ReplaceAssignees(taskID, assignments, activity, notifications); err != nil {
		return fmt.Errorf("failed to assign task: %w", err)
	}

	invalidate(ctx, s.cache, businessID,
		cache.EntityTasks, cache.EntityTaskAssignments, cache.EntityTaskActivity, cache.EntityNotifications)
	return nil
}

// Comment adds a comment with optional @mentions. Mentioned members other
// than the author are notified in the same transaction as the comment.
func (s *TaskService) Comment(ctx context.Context, businessID, taskID, authorID uint64, body string, mentionIDs []uint64) (*models.TaskComment, error) {
	if strings.TrimSpace(body) == "" {
		return nil, ErrTaskCommentEmpty
	}
	task, err := s.taskRepo.FindByID(businessID, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if len(mentionIDs) > 0 {
		count, err := s.taskRepo.CountMembers(businessID, mentionIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to verify members: %w", err)
		}
		if count != int64(len(mentionIDs)) {
			return nil, ErrMentionNotMember
		}
	}

	comment := &models.TaskComment{
		TaskID:   taskID,
		AuthorID: authorID,
		Body:     body,
	}

	mentions := make([]models.TaskCommentMention, 0, len(mentionIDs))
	var notifications []models.Notification
	for _, uid := range mentionIDs {
		mentions = append(mentions, models.TaskCommentMention{UserID: uid})
		if uid != authorID {
			tid := taskID
			notifications = append(notifications, models.Notification{
				BusinessID: businessID,
				UserID:     uid,
				ActorID:    authorID,
				Kind:       models.NotificationKindMention,
				Message:    fmt.Sprintf("You were mentioned on %q", task.Title),
				TaskID:     &tid,
			})
		}
	}

	if err := s.taskRepo.AddComment(comment, mentions, notifications); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	invalidate(ctx, s.cache, businessID, cache.EntityTaskComments, cache.EntityNotifications)
	return comment, nil
}

// ListComments lists a task's comments in creation order
func (s *TaskService) ListComments(ctx context.Context, businessID, taskID uint64) ([]models.TaskComment, error) {
	if _, err := s.taskRepo.FindByID(businessID, taskID); err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	key := cache.Key(businessID, cache.EntityTaskComments, taskID)
	return fetchCached(ctx, s.cache, businessID, key,
		[]cache.Entity{cache.EntityTaskComments},
		func() ([]models.TaskComment, error) {
			return s.taskRepo.ListComments(taskID)
		})
}

// ListActivity lists a task's change records chronologically
func (s *TaskService) ListActivity(ctx context.Context, businessID, taskID uint64) ([]models.TaskActivity, error) {
	if _, err := s.taskRepo.FindByID(businessID, taskID); err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	key := cache.Key(businessID, cache.EntityTaskActivity, taskID)
	return fetchCached(ctx, s.cache, businessID, key,
		[]cache.Entity{cache.EntityTaskActivity},
		func() ([]models.TaskActivity, error) {
			return s.taskRepo.ListActivity(taskID)
		})
}

// MyAssigned lists open tasks assigned to the user, soonest due first
func (s *TaskService) MyAssigned(ctx context.Context, businessID, userID uint64) ([]models.Task, error) {
	key := cache.Key(businessID, cache.EntityTaskAssignments, struct {
		Scope  string
		UserID uint64
	}{"assigned", userID})
	return fetchCached(ctx, s.cache, businessID, key,
		[]cache.Entity{cache.EntityTasks, cache.EntityTaskAssignments},
		func() ([]models.Task, error) {
			return s.taskRepo.ListAssignedTo(businessID, userID)
		})
}
