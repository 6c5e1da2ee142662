package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/opsdesk/opsdesk-api/internal/dto"
	apierrors "github.com/opsdesk/opsdesk-api/internal/errors"
	"github.com/opsdesk/opsdesk-api/internal/middleware"
	"github.com/opsdesk/opsdesk-api/internal/models"
	"github.com/opsdesk/opsdesk-api/internal/repository"
	"github.com/opsdesk/opsdesk-api/internal/services"
	"github.com/opsdesk/opsdesk-api/internal/utils"
)

// TaskHandler coordinates task-related HTTP handlers.
type TaskHandler struct {
	taskService *services.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// CreateTask creates a new task.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	type CreateRequest struct {
		Title       string              `json:"title" binding:"required"`
		Description string              `json:"description"`
		Status      models.TaskStatus   `json:"status"`
		Priority    models.TaskPriority `json:"priority"`
		DueDate     *time.Time          `json:"due_date"`
		ContactID   *uint64             `json:"contact_id"`
		ItemID      *uint64             `json:"item_id"`
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	profile, _ := middleware.GetProfile(c)
	task, err := h.taskService.Create(c.Request.Context(), services.CreateTaskInput{
		BusinessID:  profile.BusinessID,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		ContactID:   req.ContactID,
		ItemID:      req.ItemID,
		CreatorID:   profile.UserID,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// GetTask returns a task with its relations.
func (h *TaskHandler) GetTask(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	profile, _ := middleware.GetProfile(c)
	task, err := h.taskService.Get(profile.BusinessID, id)
	if err != nil {
		apierrors.NotFound(c, "Task not found")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// ListTasks lists tasks with filtering and pagination.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	profile, _ := middleware.GetProfile(c)
	params := utils.GetPaginationParams(c)

	filter := repository.TaskFilter{
		BusinessID:    profile.BusinessID,
		SortByDueDate: c.Query("sort") == "due_date",
		Page:          params.Page,
		PageSize:      params.Limit,
	}
	if raw := c.Query("status"); raw != "" {
		status := models.TaskStatus(raw)
		filter.Status = &status
	}
	if raw := c.Query("priority"); raw != "" {
		priority := models.TaskPriority(raw)
		filter.Priority = &priority
	}
	if raw := c.Query("contact_id"); raw != "" {
		contactID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid contact ID")
			return
		}
		filter.ContactID = &contactID
	}
	if raw := c.Query("item_id"); raw != "" {
		itemID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid item ID")
			return
		}
		filter.ItemID = &itemID
	}
	if raw := c.Query("assigned_to"); raw != "" {
		userID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid user ID")
			return
		}
		filter.AssignedUserID = &userID
	}
	if raw := c.Query("due_from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			apierrors.BadRequest(c, "Invalid due_from timestamp")
			return
		}
		filter.DueDateFrom = &from
	}
	if raw := c.Query("due_to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			apierrors.BadRequest(c, "Invalid due_to timestamp")
			return
		}
		filter.DueDateTo = &to
	}

	tasks, total, err := h.taskService.List(c.Request.Context(), filter)
	if err != nil {
		apierrors.InternalError(c, "Failed to list tasks")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params.Page, params.Limit, total))
}

// MyTasks lists open tasks assigned to the caller.
func (h *TaskHandler) MyTasks(c *gin.Context) {
	profile, _ := middleware.GetProfile(c)

	tasks, err := h.taskService.MyAssigned(c.Request.Context(), profile.BusinessID, profile.UserID)
	if err != nil {
		apierrors.InternalError(c, "Failed to list tasks")
		return
	}

	out := make([]dto.TaskDTO, len(tasks))
	for i, task := range tasks {
		out[i] = dto.ToTaskDTO(task)
	}
	c.JSON(http.StatusOK, gin.H{"tasks": out})
}

// UpdateTask updates a task, recording status and priority changes.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	type UpdateRequest struct {
		Title       *string              `json:"title"`
		Description *string              `json:"description"`
		Status      *models.TaskStatus   `json:"status"`
		Priority    *models.TaskPriority `json:"priority"`
		DueDate     *time.Time           `json:"due_date"`
		ClearDue    bool                 `json:"clear_due_date"`
		ContactID   *uint64              `json:"contact_id"`
		ItemID      *uint64              `json:"item_id"`
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	profile, _ := middleware.GetProfile(c)
	task, err := h.taskService.Update(c.Request.Context(), profile.BusinessID, id, profile.UserID, services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		ClearDue:    req.ClearDue,
		ContactID:   req.ContactID,
		ItemID:      req.ItemID,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// DeleteTask deletes a task.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	profile, _ := middleware.GetProfile(c)
	if err := h.taskService.Delete(c.Request.Context(), profile.BusinessID, id); err != nil {
		apierrors.InternalError(c, "Failed to delete task")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted"})
}

// BulkDeleteTasks deletes a set of tasks atomically.
func (h *TaskHandler) BulkDeleteTasks(c *gin.Context) {
	type BulkRequest struct {
		IDs []uint64 `json:"ids" binding:"required"`
	}

	var req BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	profile, _ := middleware.GetProfile(c)
	deleted, err := h.taskService.BulkDelete(c.Request.Context(), profile.BusinessID, req.IDs)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// BulkUpdateTaskStatus moves a set of tasks to one status atomically.
func (h *TaskHandler) BulkUpdateTaskStatus(c *gin.Context) {
	type BulkRequest struct {
		IDs    []uint64          `json:"ids" binding:"required"`
		Status models.TaskStatus `json:"status" binding:"required"`
	}

	var req BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	profile, _ := middleware.GetProfile(c)
	updated, err := h.taskService.BulkUpdateStatus(c.Request.Context(), profile.BusinessID, req.IDs, req.Status)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// AssignTask replaces the task's assignee set.
func (h *TaskHandler) AssignTask(c *gin.Context) {
	type AssignRequest struct {
		UserIDs []uint64 `json:"user_ids"`
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	profile, _ := middleware.GetProfile(c)
	if err := h.taskService.Assign(c.Request.Context(), profile.BusinessID, id, profile.UserID, req.UserIDs); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Assignees updated"})
}

// CommentTask adds a comment with optional mentions.
func (h *TaskHandler) CommentTask(c *gin.Context) {
	type CommentRequest struct {
		Body       string   `json:"body" binding:"required"`
		MentionIDs []uint64 `json:"mention_ids"`
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	profile, _ := middleware.GetProfile(c)
	comment, err := h.taskService.Comment(c.Request.Context(), profile.BusinessID, id, profile.UserID, req.Body, req.MentionIDs)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskCommentDTO(*comment))
}

// ListTaskComments lists a task's comments.
func (h *TaskHandler) ListTaskComments(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	profile, _ := middleware.GetProfile(c)
	comments, err := h.taskService.ListComments(c.Request.Context(), profile.BusinessID, id)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	out := make([]dto.TaskCommentDTO, len(comments))
	for i, comment := range comments {
		out[i] = dto.ToTaskCommentDTO(comment)
	}
	c.JSON(http.StatusOK, gin.H{"comments": out})
}

// ListTaskActivity lists a task's change records.
func (h *TaskHandler) ListTaskActivity(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	profile, _ := middleware.GetProfile(c)
	activity, err := h.taskService.ListActivity(c.Request.Context(), profile.BusinessID, id)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	out := make([]dto.TaskActivityDTO, len(activity))
	for i, record := range activity {
		out[i] = dto.ToTaskActivityDTO(record)
	}
	c.JSON(http.StatusOK, gin.H{"activity": out})
}

func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskTitleEmpty),
		errors.Is(err, services.ErrTaskStatusInvalid),
		errors.Is(err, services.ErrTaskPriorityInvalid),
		errors.Is(err, services.ErrTaskCommentEmpty),
		errors.Is(err, services.ErrNoIDsGiven):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrAssigneeNotMember),
		errors.Is(err, services.ErrMentionNotMember):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		apierrors.NotFound(c, "Task not found")
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
