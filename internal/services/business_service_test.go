package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/opsdesk/opsdesk-api/internal/cache"
	"github.com/opsdesk/opsdesk-api/internal/database"
	"github.com/opsdesk/opsdesk-api/internal/models"
	"github.com/opsdesk/opsdesk-api/internal/repository"
)

// BusinessServiceTestSuite defines the test suite for BusinessService
type BusinessServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *BusinessService
	ctx     context.Context

	business *models.Business
	owner    *models.User
	member   *models.User
}

// SetupTest runs before each test
func (suite *BusinessServiceTestSuite) SetupTest() {
	var err error
	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)

	// Dashboard queries run concurrently; a second pool connection would see
	// its own empty in-memory database.
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)

	suite.Require().NoError(database.MigrateWith(suite.db))
	database.SetDB(suite.db)

	suite.service = NewBusinessService(
		repository.NewBusinessRepository(suite.db),
		repository.NewTaskRepository(suite.db),
		repository.NewDealRepository(suite.db),
		repository.NewInvoiceRepository(suite.db),
		repository.NewTimeEntryRepository(suite.db),
		cache.NewMemory(),
	)
	suite.ctx = context.Background()

	suite.business = &models.Business{Name: "Test Business"}
	suite.db.Create(suite.business)

	suite.owner = suite.createMember("owner@example.com", models.RoleOwner)
	suite.member = suite.createMember("member@example.com", models.RoleMember)
}

// TearDownTest runs after each test
func (suite *BusinessServiceTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *BusinessServiceTestSuite) createMember(email string, role models.Role) *models.User {
	user := &models.User{Email: email, PasswordHash: "hashedpassword"}
	suite.db.Create(user)
	suite.db.Create(&models.Profile{UserID: user.ID, BusinessID: suite.business.ID, Role: role})
	return user
}

func (suite *BusinessServiceTestSuite) TestUpdateSettings() {
	name := "Renamed Business"
	label := "Properties"
	business, err := suite.service.Update(suite.ctx, suite.business.ID, UpdateBusinessInput{
		Name:       &name,
		ItemsLabel: &label,
	})
	suite.NoError(err)
	suite.Equal("Renamed Business", business.Name)
	suite.Equal("Properties", business.ItemsLabel)

	empty := ""
	_, err = suite.service.Update(suite.ctx, suite.business.ID, UpdateBusinessInput{Name: &empty})
	suite.ErrorIs(err, ErrBusinessNameNeeded)
}

func (suite *BusinessServiceTestSuite) TestChangeRole() {
	suite.NoError(suite.service.ChangeRole(suite.ctx, suite.business.ID, suite.member.ID, models.RoleAdmin))

	members, err := suite.service.ListMembers(suite.ctx, suite.business.ID)
	suite.NoError(err)
	for _, p := range members {
		if p.UserID == suite.member.ID {
			suite.Equal(models.RoleAdmin, p.Role)
		}
	}

	err = suite.service.ChangeRole(suite.ctx, suite.business.ID, suite.owner.ID, models.RoleMember)
	suite.ErrorIs(err, ErrCannotDemoteOwner)

	err = suite.service.ChangeRole(suite.ctx, suite.business.ID, suite.member.ID, models.RoleOwner)
	suite.ErrorIs(err, ErrCannotDemoteOwner)

	err = suite.service.ChangeRole(suite.ctx, suite.business.ID, 9999, models.RoleAdmin)
	suite.ErrorIs(err, ErrMemberNotFound)
}

func (suite *BusinessServiceTestSuite) TestRemoveMember() {
	err := suite.service.RemoveMember(suite.ctx, suite.business.ID, suite.owner.ID, suite.owner.ID)
	suite.ErrorIs(err, ErrCannotRemoveSelf)

	suite.NoError(suite.service.RemoveMember(suite.ctx, suite.business.ID, suite.owner.ID, suite.member.ID))

	members, err := suite.service.ListMembers(suite.ctx, suite.business.ID)
	suite.NoError(err)
	suite.Len(members, 1)
}

func (suite *BusinessServiceTestSuite) TestDashboard() {
	suite.seedDashboardData()

	stats, err := suite.service.Dashboard(suite.business.ID)
	suite.NoError(err)
	suite.Equal(int64(2), stats.OpenTasks)
	suite.Equal(1500.0, stats.OpenDealValue)
	suite.Equal(210.0, stats.UnpaidInvoices)
	suite.Equal(1.5, stats.HoursThisWeek)
}

func (suite *BusinessServiceTestSuite) seedDashboardData() {
	bizID := suite.business.ID

	suite.db.Create(&models.Task{BusinessID: bizID, Title: "A", Status: models.TaskStatusTodo,
		Priority: models.TaskPriorityMedium, CreatorID: suite.owner.ID})
	suite.db.Create(&models.Task{BusinessID: bizID, Title: "B", Status: models.TaskStatusInProgress,
		Priority: models.TaskPriorityMedium, CreatorID: suite.owner.ID})
	suite.db.Create(&models.Task{BusinessID: bizID, Title: "C", Status: models.TaskStatusCompleted,
		Priority: models.TaskPriorityMedium, CreatorID: suite.owner.ID})

	stage := &models.PipelineStage{BusinessID: bizID, Name: "Lead"}
	suite.db.Create(stage)
	suite.db.Create(&models.Deal{BusinessID: bizID, Title: "Roof job", StageID: stage.ID,
		Status: models.DealStatusOpen, Value: 1000, CreatedBy: suite.owner.ID})
	suite.db.Create(&models.Deal{BusinessID: bizID, Title: "Fence job", StageID: stage.ID,
		Status: models.DealStatusOpen, Value: 500, CreatedBy: suite.owner.ID})
	suite.db.Create(&models.Deal{BusinessID: bizID, Title: "Done job", StageID: stage.ID,
		Status: models.DealStatusWon, Value: 800, CreatedBy: suite.owner.ID})

	contact := &models.Contact{BusinessID: bizID, Name: "Client", Type: models.ContactTypeClient,
		CreatedBy: suite.owner.ID}
	suite.db.Create(contact)
	suite.db.Create(&models.Invoice{BusinessID: bizID, Number: "INV-0001", ContactID: contact.ID,
		Status: models.InvoiceStatusSent, Total: 150})
	suite.db.Create(&models.Invoice{BusinessID: bizID, Number: "INV-0002", ContactID: contact.ID,
		Status: models.InvoiceStatusOverdue, Total: 60})
	suite.db.Create(&models.Invoice{BusinessID: bizID, Number: "INV-0003", ContactID: contact.ID,
		Status: models.InvoiceStatusDraft, Total: 999})
	suite.db.Create(&models.Invoice{BusinessID: bizID, Number: "INV-0004", ContactID: contact.ID,
		Status: models.InvoiceStatusPaid, Total: 75})

	now := time.Now()
	end := now.Add(90 * time.Minute)
	minutes := 90
	suite.db.Create(&models.TimeEntry{BusinessID: bizID, UserID: suite.owner.ID,
		StartTime: now, EndTime: &end, DurationMinutes: &minutes, Billable: true})

	// Last month's hours stay off this week's counter.
	oldStart := now.AddDate(0, -1, 0)
	oldEnd := oldStart.Add(time.Hour)
	oldMinutes := 60
	suite.db.Create(&models.TimeEntry{BusinessID: bizID, UserID: suite.owner.ID,
		StartTime: oldStart, EndTime: &oldEnd, DurationMinutes: &oldMinutes, Billable: true})
}

func TestBusinessServiceTestSuite(t *testing.T) {
	suite.Run(t, new(BusinessServiceTestSuite))
}
