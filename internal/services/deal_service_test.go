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

// DealServiceTestSuite defines the test suite for DealService
type DealServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *DealService
	ctx     context.Context

	business *models.Business
	user     *models.User
	lead     *models.PipelineStage
	won      *models.PipelineStage
	lost     *models.PipelineStage
}

// SetupTest runs before each test
func (suite *DealServiceTestSuite) SetupTest() {
	var err error
	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)
	suite.Require().NoError(database.MigrateWith(suite.db))
	database.SetDB(suite.db)

	suite.service = NewDealService(repository.NewDealRepository(suite.db), cache.NewMemory())
	suite.ctx = context.Background()

	suite.business = &models.Business{Name: "Test Business"}
	suite.db.Create(suite.business)
	suite.user = &models.User{Email: "seller@example.com", PasswordHash: "hashedpassword", FullName: "Seller"}
	suite.db.Create(suite.user)

	suite.lead = suite.createStage("Lead", 1, false, false)
	suite.won = suite.createStage("Closed Won", 2, true, false)
	suite.lost = suite.createStage("Closed Lost", 3, false, true)
}

// TearDownTest runs after each test
func (suite *DealServiceTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *DealServiceTestSuite) createStage(name string, position int, isWon, isLost bool) *models.PipelineStage {
	stage, err := suite.service.CreateStage(suite.ctx, CreateStageInput{
		BusinessID:   suite.business.ID,
		Name:         name,
		Position:     position,
		IsClosedWon:  isWon,
		IsClosedLost: isLost,
	})
	suite.Require().NoError(err)
	return stage
}

func (suite *DealServiceTestSuite) createDeal(title string, value float64) *models.Deal {
	deal, err := suite.service.Create(suite.ctx, CreateDealInput{
		BusinessID: suite.business.ID,
		Title:      title,
		StageID:    suite.lead.ID,
		Value:      value,
		CreatedBy:  suite.user.ID,
	})
	suite.Require().NoError(err)
	return deal
}

func (suite *DealServiceTestSuite) TestStageCannotBeBothTerminal() {
	_, err := suite.service.CreateStage(suite.ctx, CreateStageInput{
		BusinessID:   suite.business.ID,
		Name:         "Broken",
		IsClosedWon:  true,
		IsClosedLost: true,
	})
	suite.ErrorIs(err, ErrStageBothTerminal)
}

func (suite *DealServiceTestSuite) TestCreateRecordsFirstActivity() {
	deal := suite.createDeal("New roof", 5000)

	activity, err := suite.service.ListActivity(suite.ctx, suite.business.ID, deal.ID)
	suite.NoError(err)
	suite.Require().Len(activity, 1)
	suite.Equal(models.DealActivityStageChanged, activity[0].Kind)
	suite.Equal("Created in Lead", activity[0].Detail)
}

func (suite *DealServiceTestSuite) TestMoveToClosedWonMarksWon() {
	deal := suite.createDeal("New roof", 5000)

	moved, err := suite.service.MoveStage(suite.ctx, suite.business.ID, deal.ID, suite.user.ID, suite.won.ID)
	suite.NoError(err)
	suite.Equal(models.DealStatusWon, moved.Status)
	suite.NotNil(moved.ActualCloseDate)

	// The new stage must survive a reload, not just sit on the returned struct.
	stored, err := suite.service.Get(suite.business.ID, deal.ID)
	suite.NoError(err)
	suite.Equal(suite.won.ID, stored.StageID)
	suite.Equal(models.DealStatusWon, stored.Status)

	activity, err := suite.service.ListActivity(suite.ctx, suite.business.ID, deal.ID)
	suite.NoError(err)
	suite.Require().Len(activity, 2)
	suite.Equal("Lead -> Closed Won", activity[1].Detail)
}

func (suite *DealServiceTestSuite) TestMoveBackToOpenStageReopens() {
	deal := suite.createDeal("New roof", 5000)

	_, err := suite.service.MoveStage(suite.ctx, suite.business.ID, deal.ID, suite.user.ID, suite.lost.ID)
	suite.Require().NoError(err)

	reopened, err := suite.service.MoveStage(suite.ctx, suite.business.ID, deal.ID, suite.user.ID, suite.lead.ID)
	suite.NoError(err)
	suite.Equal(models.DealStatusOpen, reopened.Status)
	suite.Nil(reopened.ActualCloseDate)
}

func (suite *DealServiceTestSuite) TestBoardGroupsOpenDealsByStage() {
	suite.createDeal("Deal A", 1000)
	suite.createDeal("Deal B", 2500)
	closed := suite.createDeal("Deal C", 9000)
	_, err := suite.service.MoveStage(suite.ctx, suite.business.ID, closed.ID, suite.user.ID, suite.won.ID)
	suite.Require().NoError(err)

	columns, err := suite.service.Board(suite.ctx, suite.business.ID)
	suite.NoError(err)
	suite.Require().Len(columns, 3)
	suite.Equal("Lead", columns[0].Stage.Name)
	suite.Len(columns[0].Deals, 2)
	suite.Equal(3500.0, columns[0].Value)
	// Won deals leave the board entirely.
	suite.Empty(columns[1].Deals)
}

func (suite *DealServiceTestSuite) TestValueChangeIsRecorded() {
	deal := suite.createDeal("New roof", 5000)

	newValue := 7500.0
	_, err := suite.service.Update(suite.ctx, suite.business.ID, deal.ID, suite.user.ID, UpdateDealInput{
		Value: &newValue,
	})
	suite.NoError(err)

	activity, err := suite.service.ListActivity(suite.ctx, suite.business.ID, deal.ID)
	suite.NoError(err)
	suite.Require().Len(activity, 2)
	suite.Equal(models.DealActivityValueChanged, activity[1].Kind)
	suite.Equal("5000.00 -> 7500.00", activity[1].Detail)
}

func (suite *DealServiceTestSuite) TestDeleteStageInUse() {
	suite.createDeal("New roof", 5000)

	err := suite.service.DeleteStage(suite.ctx, suite.business.ID, suite.lead.ID)
	suite.ErrorIs(err, ErrStageInUse)

	empty := suite.createStage("Negotiation", 4, false, false)
	suite.NoError(suite.service.DeleteStage(suite.ctx, suite.business.ID, empty.ID))
}

func TestDealServiceTestSuite(t *testing.T) {
	suite.Run(t, new(DealServiceTestSuite))
}
