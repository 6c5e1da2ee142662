package services

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/opsdesk/opsdesk-api/internal/database"
	"github.com/opsdesk/opsdesk-api/internal/models"
	"github.com/opsdesk/opsdesk-api/internal/repository"
)

// AuthServiceTestSuite defines the test suite for AuthService
type AuthServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *AuthService
}

// SetupTest runs before each test
func (suite *AuthServiceTestSuite) SetupTest() {
	var err error
	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)
	suite.Require().NoError(database.MigrateWith(suite.db))
	database.SetDB(suite.db)

	suite.service = NewAuthService(repository.NewUserRepository(suite.db))
}

// TearDownTest runs after each test
func (suite *AuthServiceTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *AuthServiceTestSuite) signup() *models.User {
	user, err := suite.service.Signup(SignupInput{
		Email:        "Owner@Example.com",
		Password:     "correct-horse",
		FullName:     "Pat Owner",
		BusinessName: "Pat's Properties",
	})
	suite.Require().NoError(err)
	return user
}

func (suite *AuthServiceTestSuite) TestSignupCreatesOwnerAccount() {
	user := suite.signup()
	suite.Equal("owner@example.com", user.Email)
	suite.NotEqual("correct-horse", user.PasswordHash)

	var profile models.Profile
	suite.Require().NoError(suite.db.Where("user_id = ?", user.ID).First(&profile).Error)
	suite.Equal(models.RoleOwner, profile.Role)

	var business models.Business
	suite.Require().NoError(suite.db.First(&business, profile.BusinessID).Error)
	suite.Equal("Pat's Properties", business.Name)
}

func (suite *AuthServiceTestSuite) TestSignupValidation() {
	_, err := suite.service.Signup(SignupInput{
		Password:     "correct-horse",
		BusinessName: "Biz",
	})
	suite.ErrorIs(err, ErrEmailRequired)

	_, err = suite.service.Signup(SignupInput{
		Email:        "a@example.com",
		Password:     "short",
		BusinessName: "Biz",
	})
	suite.ErrorIs(err, ErrPasswordTooShort)

	_, err = suite.service.Signup(SignupInput{
		Email:    "a@example.com",
		Password: "correct-horse",
	})
	suite.ErrorIs(err, ErrBusinessNameEmpty)
}

func (suite *AuthServiceTestSuite) TestSignupRejectsDuplicateEmail() {
	suite.signup()

	_, err := suite.service.Signup(SignupInput{
		Email:        "owner@example.com",
		Password:     "another-pass",
		BusinessName: "Second Biz",
	})
	suite.ErrorIs(err, ErrEmailTaken)
}

func (suite *AuthServiceTestSuite) TestLogin() {
	suite.signup()

	user, err := suite.service.Login("  OWNER@example.com ", "correct-horse")
	suite.NoError(err)
	suite.NoError(bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct-horse")))

	_, err = suite.service.Login("owner@example.com", "wrong-pass")
	suite.ErrorIs(err, ErrInvalidCredentials)

	_, err = suite.service.Login("nobody@example.com", "correct-horse")
	suite.ErrorIs(err, ErrInvalidCredentials)
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
