package repository

import (
	"gorm.io/gorm"

	"github.com/opsdesk/opsdesk-api/internal/database"
	"github.com/opsdesk/opsdesk-api/internal/models"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Create(task).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(businessID, id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db.Where("business_id = ?", businessID)
	for _, p := range preload {
		query = query.Preload(p)
	}
	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// List retrieves tasks with filtering and pagination
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

	query := r.db.Model(&models.Task{}).Where("tasks.business_id = ?", filter.BusinessID)

	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("tasks.priority = ?", *filter.Priority)
	}
	if filter.ContactID != nil {
		query = query.Where("tasks.contact_id = ?", *filter.ContactID)
	}
	if filter.ItemID != nil {
		query = query.Where("tasks.item_id = ?", *filter.ItemID)
	}
	if filter.AssignedUserID != nil {
		assignmentSubQuery := r.db.Model(&models.TaskAssignment{}).
			Select("1").
			Where("task_assignments.task_id = tasks.id").
			Where("task_assignments.user_id = ?", *filter.AssignedUserID)
		query = query.Where("EXISTS (?)", assignmentSubQuery)
	}
	if filter.DueDateFrom != nil {
		query = query.Where("tasks.due_date >= ?", *filter.DueDateFrom)
	}
	if filter.DueDateTo != nil {
		query = query.Where("tasks.due_date < ?", *filter.DueDateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query
	if filter.SortByDueDate {
		listQuery = listQuery.Order("CASE WHEN tasks.due_date IS NULL THEN 1 ELSE 0 END, tasks.due_date ASC")
	} else {
		listQuery = listQuery.Order("tasks.created_at DESC")
	}

	listQuery = listQuery.Scopes(database.Paginate(filter.Page, filter.PageSize))

	if err := listQuery.Preload("Creator").Preload("Assignments.User").Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// UpdateWithActivity saves the task and appends change records atomically
func (r *GormTaskRepository) UpdateWithActivity(task *models.Task, activity []models.TaskActivity) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(task).Error; err != nil {
			return err
		}
		if len(activity) > 0 {
			if err := tx.Create(&activity).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes a task and its child rows
func (r *GormTaskRepository) Delete(businessID, id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return deleteTaskChildren(tx, businessID, []uint64{id})
	})
}

// BulkDelete removes the given tasks in one transaction; all or nothing
func (r *GormTaskRepository) BulkDelete(businessID uint64, ids []uint64) (int64, error) {
	var affected int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Task{}).
			Where("business_id = ? AND id IN ?", businessID, ids).
			Count(&count).Error; err != nil {
			return err
		}
		affected = count
		return deleteTaskChildren(tx, businessID, ids)
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

func deleteTaskChildren(tx *gorm.DB, businessID uint64, ids []uint64) error {
	if err := tx.Where("task_id IN ?", ids).Delete(&models.TaskAssignment{}).Error; err != nil {
		return err
	}
	var commentIDs []uint64
	if err := tx.Model(&models.TaskComment{}).
		Where("task_id IN ?", ids).
		Pluck("id", &commentIDs).Error; err != nil {
		return err
	}
	if len(commentIDs) > 0 {
		if err := tx.Where("comment_id IN ?", commentIDs).Delete(&models.TaskCommentMention{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", commentIDs).Delete(&models.TaskComment{}).Error; err != nil {
			return err
		}
	}
	if err := tx.Where("task_id IN ?", ids).Delete(&models.TaskActivity{}).Error; err != nil {
		return err
	}
	return tx.Where("business_id = ? AND id IN ?", businessID, ids).Delete(&models.Task{}).Error
}

// BulkUpdateStatus updates the status of the given tasks in one statement
func (r *GormTaskRepository) BulkUpdateStatus(businessID uint64, ids []uint64, status models.TaskStatus) (int64, error) {
	result := r.db.Model(&models.Task{}).
		Where("business_id = ? AND id IN ?", businessID, ids).
		Update("status", status)
	return result.RowsAffected, result.Error
}

// ReplaceAssignees swaps the full assignment set atomically
func (r *GormTaskRepository) ReplaceAssignees(taskID uint64, assignments []models.TaskAssignment, activity *models.TaskActivity, notifications []models.Notification) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", taskID).Delete(&models.TaskAssignment{}).Error; err != nil {
			return err
		}
		if len(assignments) > 0 {
			if err := tx.Create(&assignments).Error; err != nil {
				return err
			}
		}
		if activity != nil {
			if err := tx.Create(activity).Error; err != nil {
				return err
			}
		}
		if len(notifications) > 0 {
			if err := tx.Create(&notifications).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// AddComment inserts the comment, its mentions and their notifications atomically
func (r *GormTaskRepository) AddComment(comment *models.TaskComment, mentions []models.TaskCommentMention, notifications []models.Notification) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		for i := range mentions {
			mentions[i].CommentID = comment.ID
		}
		if len(mentions) > 0 {
			if err := tx.Create(&mentions).Error; err != nil {
				return err
			}
		}
		if len(notifications) > 0 {
			if err := tx.Create(&notifications).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ListComments lists a task's comments chronologically
func (r *GormTaskRepository) ListComments(taskID uint64) ([]models.TaskComment, error) {
	var comments []models.TaskComment
	if err := r.db.Preload("Author").Preload("Mentions.User").
		Where("task_id = ?", taskID).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// ListActivity lists a task's change records chronologically
func (r *GormTaskRepository) ListActivity(taskID uint64) ([]models.TaskActivity, error) {
	var activity []models.TaskActivity
	if err := r.db.Preload("Actor").
		Where("task_id = ?", taskID).
		Order("created_at ASC").
		Find(&activity).Error; err != nil {
		return nil, err
	}
	return activity, nil
}

// ListAssignedTo lists open tasks assigned to a user
func (r *GormTaskRepository) ListAssignedTo(businessID, userID uint64) ([]models.Task, error) {
	var tasks []models.Task
	if err := r.db.
		Joins("JOIN task_assignments ON task_assignments.task_id = tasks.id").
		Where("tasks.business_id = ? AND task_assignments.user_id = ?", businessID, userID).
		Where("tasks.status IN ?", []models.TaskStatus{models.TaskStatusTodo, models.TaskStatusInProgress}).
		Order("CASE WHEN tasks.due_date IS NULL THEN 1 ELSE 0 END, tasks.due_date ASC").
		Preload("Creator").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// CountOpen counts todo and in-progress tasks
func (r *GormTaskRepository) CountOpen(businessID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.Task{}).
		Where("business_id = ? AND status IN ?", businessID,
			[]models.TaskStatus{models.TaskStatusTodo, models.TaskStatusInProgress}).
		Count(&count).Error
	return count, err
}

// CountMembers counts how many of the given user IDs are members of the business
func (r *GormTaskRepository) CountMembers(businessID uint64, userIDs []uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.Profile{}).
		Where("business_id = ? AND user_id IN ?", businessID, userIDs).
		Count(&count).Error
	return count, err
}
