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

// CustomTypeServiceTestSuite defines the test suite for CustomTypeService
type CustomTypeServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *CustomTypeService
	ctx     context.Context

	business *models.Business
}

// SetupTest runs before each test
func (suite *CustomTypeServiceTestSuite) SetupTest() {
	var err error
	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)
	suite.Require().NoError(database.MigrateWith(suite.db))
	database.SetDB(suite.db)

	suite.service = NewCustomTypeService(repository.NewCustomTypeRepository(suite.db), cache.NewMemory())
	suite.ctx = context.Background()

	suite.business = &models.Business{Name: "Test Business"}
	suite.db.Create(suite.business)
}

// TearDownTest runs after each test
func (suite *CustomTypeServiceTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *CustomTypeServiceTestSuite) TestCreateValidation() {
	_, err := suite.service.Create(suite.ctx, suite.business.ID, models.CustomTypeCategoryContact, "  ")
	suite.ErrorIs(err, ErrCustomTypeNameEmpty)

	_, err = suite.service.Create(suite.ctx, suite.business.ID, models.CustomTypeCategory("deal"), "Hot")
	suite.ErrorIs(err, ErrCustomTypeCategoryInvalid)

	ct, err := suite.service.Create(suite.ctx, suite.business.ID, models.CustomTypeCategoryItem, " Boat ")
	suite.NoError(err)
	suite.Equal("Boat", ct.Name)
	suite.True(ct.Active)
}

func (suite *CustomTypeServiceTestSuite) TestDeactivateHidesFromDefaultList() {
	ct, err := suite.service.Create(suite.ctx, suite.business.ID, models.CustomTypeCategoryItem, "Boat")
	suite.Require().NoError(err)
	_, err = suite.service.Create(suite.ctx, suite.business.ID, models.CustomTypeCategoryItem, "Trailer")
	suite.Require().NoError(err)

	suite.NoError(suite.service.Deactivate(suite.ctx, suite.business.ID, ct.ID))

	active, err := suite.service.List(suite.ctx, suite.business.ID, models.CustomTypeCategoryItem, true)
	suite.NoError(err)
	suite.Require().Len(active, 1)
	suite.Equal("Trailer", active[0].Name)

	all, err := suite.service.List(suite.ctx, suite.business.ID, models.CustomTypeCategoryItem, false)
	suite.NoError(err)
	suite.Len(all, 2)
}

func (suite *CustomTypeServiceTestSuite) TestRename() {
	ct, err := suite.service.Create(suite.ctx, suite.business.ID, models.CustomTypeCategoryContact, "Suplier")
	suite.Require().NoError(err)

	renamed, err := suite.service.Rename(suite.ctx, suite.business.ID, ct.ID, "Supplier")
	suite.NoError(err)
	suite.Equal("Supplier", renamed.Name)

	_, err = suite.service.Rename(suite.ctx, suite.business.ID, ct.ID, " ")
	suite.ErrorIs(err, ErrCustomTypeNameEmpty)
}

func TestCustomTypeServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CustomTypeServiceTestSuite))
}
