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

// InviteServiceTestSuite defines the test suite for InviteService
type InviteServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *InviteService
	ctx     context.Context

	business *models.Business
	owner    *models.User
	joiner   *models.User
}

// SetupTest runs before each test
func (suite *InviteServiceTestSuite) SetupTest() {
	var err error
	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)
	suite.Require().NoError(database.MigrateWith(suite.db))
	database.SetDB(suite.db)

	suite.service = NewInviteService(
		repository.NewInviteRepository(suite.db),
		repository.NewUserRepository(suite.db),
		cache.NewMemory(),
	)
	suite.ctx = context.Background()

	suite.business = &models.Business{Name: "Test Business"}
	suite.db.Create(suite.business)
	suite.owner = &models.User{Email: "owner@example.com", PasswordHash: "hashedpassword"}
	suite.db.Create(suite.owner)
	suite.db.Create(&models.Profile{UserID: suite.owner.ID, BusinessID: suite.business.ID, Role: models.RoleOwner})

	suite.joiner = &models.User{Email: "newhire@example.com", PasswordHash: "hashedpassword"}
	suite.db.Create(suite.joiner)
}

// TearDownTest runs after each test
func (suite *InviteServiceTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *InviteServiceTestSuite) createInvite(email string, role models.Role) *models.Invite {
	invite, err := suite.service.Create(suite.ctx, CreateInviteInput{
		BusinessID: suite.business.ID,
		Email:      email,
		Role:       role,
		InvitedBy:  suite.owner.ID,
	})
	suite.Require().NoError(err)
	return invite
}

func (suite *InviteServiceTestSuite) TestCreateNormalizesAndValidates() {
	invite := suite.createInvite("  NewHire@Example.com ", models.RoleMember)
	suite.Equal("newhire@example.com", invite.Email)
	suite.NotEmpty(invite.Token)
	suite.WithinDuration(time.Now().AddDate(0, 0, 7), invite.ExpiresAt, time.Minute)

	_, err := suite.service.Create(suite.ctx, CreateInviteInput{
		BusinessID: suite.business.ID,
		Email:      "someone@example.com",
		Role:       models.RoleOwner,
		InvitedBy:  suite.owner.ID,
	})
	suite.ErrorIs(err, ErrInviteRoleInvalid)
}

func (suite *InviteServiceTestSuite) TestDuplicatePendingInviteRejected() {
	suite.createInvite("newhire@example.com", models.RoleMember)

	_, err := suite.service.Create(suite.ctx, CreateInviteInput{
		BusinessID: suite.business.ID,
		Email:      "newhire@example.com",
		Role:       models.RoleViewer,
		InvitedBy:  suite.owner.ID,
	})
	suite.ErrorIs(err, ErrDuplicateInvite)
}

func (suite *InviteServiceTestSuite) TestAcceptCreatesProfile() {
	invite := suite.createInvite("newhire@example.com", models.RoleMember)

	profile, err := suite.service.Accept(suite.ctx, invite.Token, suite.joiner.ID)
	suite.NoError(err)
	suite.Equal(suite.business.ID, profile.BusinessID)
	suite.Equal(models.RoleMember, profile.Role)

	// Second acceptance of the same token fails.
	_, err = suite.service.Accept(suite.ctx, invite.Token, suite.joiner.ID)
	suite.ErrorIs(err, ErrInviteAlreadyAccepted)

	// Accepted invites no longer show as pending.
	pending, err := suite.service.ListPending(suite.ctx, suite.business.ID)
	suite.NoError(err)
	suite.Empty(pending)
}

func (suite *InviteServiceTestSuite) TestAcceptValidation() {
	_, err := suite.service.Accept(suite.ctx, "no-such-token", suite.joiner.ID)
	suite.ErrorIs(err, ErrInviteNotFound)

	invite := suite.createInvite("newhire@example.com", models.RoleMember)

	// Logged in as the wrong user.
	_, err = suite.service.Accept(suite.ctx, invite.Token, suite.owner.ID)
	suite.ErrorIs(err, ErrInviteEmailMismatch)

	// Past the expiry window.
	suite.Require().NoError(suite.db.Model(&models.Invite{}).
		Where("id = ?", invite.ID).
		Update("expires_at", time.Now().Add(-time.Hour)).Error)
	_, err = suite.service.Accept(suite.ctx, invite.Token, suite.joiner.ID)
	suite.ErrorIs(err, ErrInviteExpired)
}

func (suite *InviteServiceTestSuite) TestRevoke() {
	invite := suite.createInvite("newhire@example.com", models.RoleMember)

	suite.NoError(suite.service.Revoke(suite.ctx, suite.business.ID, invite.ID))

	pending, err := suite.service.ListPending(suite.ctx, suite.business.ID)
	suite.NoError(err)
	suite.Empty(pending)
}

func TestInviteServiceTestSuite(t *testing.T) {
	suite.Run(t, new(InviteServiceTestSuite))
}
