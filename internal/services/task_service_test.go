package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/opsdesk/opsdesk-api/internal/cache"
	"github.com/opsdesk/opsdesk-api/internal/database"
	"github.com/opsdesk/opsdesk-api/internal/models"
	"github.com/opsdesk/opsdesk-api/internal/repository"
)

// TaskServiceTestSuite defines the test suite for TaskService
type TaskServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *TaskService
	ctx     context.Context

	business *models.Business
	owner    *models.User
	member   *models.User
	outsider *models.User
}

// SetupTest runs before each test
func (suite *TaskServiceTestSuite) SetupTest() {
	var err error
	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)
	suite.Require().NoError(database.MigrateWith(suite.db))
	database.SetDB(suite.db)

	suite.service = NewTaskService(repository.NewTaskRepository(suite.db), cache.NewMemory())
	suite.ctx = context.Background()

	suite.business = &models.Business{Name: "Test Business"}
	suite.db.Create(suite.business)

	suite.owner = suite.createMember("owner@example.com", models.RoleOwner)
	suite.member = suite.createMember("member@example.com", models.RoleMember)

	// A user with no profile in the business.
	suite.outsider = &models.User{Email: "outsider@example.com", PasswordHash: "hashedpassword"}
	suite.db.Create(suite.outsider)
}

// TearDownTest runs after each test
func (suite *TaskServiceTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *TaskServiceTestSuite) createMember(email string, role models.Role) *models.User {
	user := &models.User{Email: email, PasswordHash: "hashedpassword"}
	suite.db.Create(user)
	suite.db.Create(&models.Profile{UserID: user.ID, BusinessID: suite.business.ID, Role: role})
	return user
}

func (suite *TaskServiceTestSuite) createTask(title string) *models.Task {
	task, err := suite.service.Create(suite.ctx, CreateTaskInput{
		BusinessID: suite.business.ID,
		Title:      title,
		CreatorID:  suite.owner.ID,
	})
	suite.Require().NoError(err)
	return task
}

func (suite *TaskServiceTestSuite) notificationsFor(userID uint64) []models.Notification {
	var notifications []models.Notification
	suite.db.Where("business_id = ? AND user_id = ?", suite.business.ID, userID).Find(&notifications)
	return notifications
}

func (suite *TaskServiceTestSuite) TestCreateDefaults() {
	task := suite.createTask("Fix the gutter")
	suite.Equal(models.TaskStatusTodo, task.Status)
	suite.Equal(models.TaskPriorityMedium, task.Priority)
}

func (suite *TaskServiceTestSuite) TestStatusChangeRecordsActivity() {
	task := suite.createTask("Fix the gutter")

	status := models.TaskStatusInProgress
	_, err := suite.service.Update(suite.ctx, suite.business.ID, task.ID, suite.owner.ID, UpdateTaskInput{
		Status: &status,
	})
	suite.NoError(err)

	// Saving the same status again adds nothing.
	_, err = suite.service.Update(suite.ctx, suite.business.ID, task.ID, suite.owner.ID, UpdateTaskInput{
		Status: &status,
	})
	suite.NoError(err)

	activity, err := suite.service.ListActivity(suite.ctx, suite.business.ID, task.ID)
	suite.NoError(err)
	suite.Require().Len(activity, 1)
	suite.Equal(models.TaskActivityStatusChanged, activity[0].Kind)
	suite.Equal("todo", activity[0].OldValue)
	suite.Equal("in_progress", activity[0].NewValue)
}

func (suite *TaskServiceTestSuite) TestAssignNotifiesNewAssigneesOnly() {
	task := suite.createTask("Fix the gutter")

	// Owner assigns both members; only the other member is notified.
	err := suite.service.Assign(suite.ctx, suite.business.ID, task.ID, suite.owner.ID,
		[]uint64{suite.owner.ID, suite.member.ID})
	suite.NoError(err)

	suite.Empty(suite.notificationsFor(suite.owner.ID))
	notifications := suite.notificationsFor(suite.member.ID)
	suite.Require().Len(notifications, 1)
	suite.Equal(models.NotificationKindTaskAssigned, notifications[0].Kind)
	suite.Equal(`You were assigned to "Fix the gutter"`, notifications[0].Message)

	// Re-assigning the same set does not notify again.
	err = suite.service.Assign(suite.ctx, suite.business.ID, task.ID, suite.owner.ID,
		[]uint64{suite.owner.ID, suite.member.ID})
	suite.NoError(err)
	suite.Len(suite.notificationsFor(suite.member.ID), 1)
}

func (suite *TaskServiceTestSuite) TestAssignRejectsNonMembers() {
	task := suite.createTask("Fix the gutter")

	err := suite.service.Assign(suite.ctx, suite.business.ID, task.ID, suite.owner.ID,
		[]uint64{suite.outsider.ID})
	suite.ErrorIs(err, ErrAssigneeNotMember)
}

func (suite *TaskServiceTestSuite) TestCommentWithMentions() {
	task := suite.createTask("Fix the gutter")

	comment, err := suite.service.Comment(suite.ctx, suite.business.ID, task.ID, suite.owner.ID,
		"On it, ping @member", []uint64{suite.member.ID})
	suite.NoError(err)
	suite.NotZero(comment.ID)

	notifications := suite.notificationsFor(suite.member.ID)
	suite.Require().Len(notifications, 1)
	suite.Equal(models.NotificationKindMention, notifications[0].Kind)
	suite.Equal(`You were mentioned on "Fix the gutter"`, notifications[0].Message)

	comments, err := suite.service.ListComments(suite.ctx, suite.business.ID, task.ID)
	suite.NoError(err)
	suite.Require().Len(comments, 1)
	suite.Len(comments[0].Mentions, 1)
}

func (suite *TaskServiceTestSuite) TestCommentRejectsNonMemberMentions() {
	task := suite.createTask("Fix the gutter")

	_, err := suite.service.Comment(suite.ctx, suite.business.ID, task.ID, suite.owner.ID,
		"hello", []uint64{suite.outsider.ID})
	suite.ErrorIs(err, ErrMentionNotMember)

	_, err = suite.service.Comment(suite.ctx, suite.business.ID, task.ID, suite.owner.ID, "   ", nil)
	suite.ErrorIs(err, ErrTaskCommentEmpty)
}

func (suite *TaskServiceTestSuite) TestMyAssignedListsOpenTasksOnly() {
	open := suite.createTask("Open task")
	done := suite.createTask("Done task")

	suite.Require().NoError(suite.service.Assign(suite.ctx, suite.business.ID, open.ID, suite.owner.ID,
		[]uint64{suite.member.ID}))
	suite.Require().NoError(suite.service.Assign(suite.ctx, suite.business.ID, done.ID, suite.owner.ID,
		[]uint64{suite.member.ID}))

	status := models.TaskStatusCompleted
	_, err := suite.service.Update(suite.ctx, suite.business.ID, done.ID, suite.owner.ID, UpdateTaskInput{
		Status: &status,
	})
	suite.Require().NoError(err)

	tasks, err := suite.service.MyAssigned(suite.ctx, suite.business.ID, suite.member.ID)
	suite.NoError(err)
	suite.Require().Len(tasks, 1)
	suite.Equal(open.ID, tasks[0].ID)
}

func (suite *TaskServiceTestSuite) TestBulkUpdateStatus() {
	a := suite.createTask("A")
	b := suite.createTask("B")

	updated, err := suite.service.BulkUpdateStatus(suite.ctx, suite.business.ID,
		[]uint64{a.ID, b.ID}, models.TaskStatusCancelled)
	suite.NoError(err)
	suite.Equal(int64(2), updated)

	_, err = suite.service.BulkUpdateStatus(suite.ctx, suite.business.ID,
		[]uint64{a.ID}, models.TaskStatus("bogus"))
	suite.ErrorIs(err, ErrTaskStatusInvalid)
}

func TestTaskServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TaskServiceTestSuite))
}
