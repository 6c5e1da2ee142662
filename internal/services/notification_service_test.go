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

// NotificationServiceTestSuite defines the test suite for NotificationService
type NotificationServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *NotificationService
	ctx     context.Context

	business *models.Business
	user     *models.User
	other    *models.User
}

// SetupTest runs before each test
func (suite *NotificationServiceTestSuite) SetupTest() {
	var err error
	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)
	suite.Require().NoError(database.MigrateWith(suite.db))
	database.SetDB(suite.db)

	suite.service = NewNotificationService(repository.NewNotificationRepository(suite.db), cache.NewMemory())
	suite.ctx = context.Background()

	suite.business = &models.Business{Name: "Test Business"}
	suite.db.Create(suite.business)
	suite.user = &models.User{Email: "member@example.com", PasswordHash: "hashedpassword"}
	suite.db.Create(suite.user)
	suite.other = &models.User{Email: "other@example.com", PasswordHash: "hashedpassword"}
	suite.db.Create(suite.other)
}

// TearDownTest runs after each test
func (suite *NotificationServiceTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *NotificationServiceTestSuite) notify(userID uint64, message string) *models.Notification {
	n := &models.Notification{
		BusinessID: suite.business.ID,
		UserID:     userID,
		ActorID:    suite.other.ID,
		Kind:       models.NotificationKindTaskAssigned,
		Message:    message,
	}
	suite.db.Create(n)
	return n
}

func (suite *NotificationServiceTestSuite) TestListIsScopedToUser() {
	suite.notify(suite.user.ID, "one")
	suite.notify(suite.user.ID, "two")
	suite.notify(suite.other.ID, "not yours")

	notifications, total, err := suite.service.List(suite.ctx, suite.business.ID, suite.user.ID, 1, 10)
	suite.NoError(err)
	suite.Equal(int64(2), total)
	suite.Len(notifications, 2)
}

func (suite *NotificationServiceTestSuite) TestMarkRead() {
	n := suite.notify(suite.user.ID, "one")
	suite.notify(suite.user.ID, "two")

	count, err := suite.service.UnreadCount(suite.business.ID, suite.user.ID)
	suite.NoError(err)
	suite.Equal(int64(2), count)

	suite.NoError(suite.service.MarkRead(suite.ctx, suite.business.ID, suite.user.ID, n.ID))

	count, err = suite.service.UnreadCount(suite.business.ID, suite.user.ID)
	suite.NoError(err)
	suite.Equal(int64(1), count)
}

func (suite *NotificationServiceTestSuite) TestMarkAllRead() {
	suite.notify(suite.user.ID, "one")
	suite.notify(suite.user.ID, "two")
	suite.notify(suite.other.ID, "not yours")

	marked, err := suite.service.MarkAllRead(suite.ctx, suite.business.ID, suite.user.ID)
	suite.NoError(err)
	suite.Equal(int64(2), marked)

	count, err := suite.service.UnreadCount(suite.business.ID, suite.other.ID)
	suite.NoError(err)
	suite.Equal(int64(1), count)

	marked, err = suite.service.MarkAllRead(suite.ctx, suite.business.ID, suite.user.ID)
	suite.NoError(err)
	suite.Equal(int64(0), marked)
}

func TestNotificationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(NotificationServiceTestSuite))
}
