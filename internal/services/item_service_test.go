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

// ItemServiceTestSuite defines the test suite for ItemService
type ItemServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *ItemService
	ctx     context.Context

	business *models.Business
	user     *models.User
}

// SetupTest runs before each test
func (suite *ItemServiceTestSuite) SetupTest() {
	var err error
	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)
	suite.Require().NoError(database.MigrateWith(suite.db))
	database.SetDB(suite.db)

	suite.service = NewItemService(repository.NewItemRepository(suite.db), cache.NewMemory())
	suite.ctx = context.Background()

	suite.business = &models.Business{Name: "Test Business"}
	suite.db.Create(suite.business)
	suite.user = &models.User{Email: "owner@example.com", PasswordHash: "hashedpassword"}
	suite.db.Create(suite.user)
}

// TearDownTest runs after each test
func (suite *ItemServiceTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *ItemServiceTestSuite) createItem(title string, category models.ItemCategory) *models.Item {
	item, err := suite.service.Create(suite.ctx, CreateItemInput{
		BusinessID: suite.business.ID,
		Title:      title,
		Category:   category,
		CreatedBy:  suite.user.ID,
	})
	suite.Require().NoError(err)
	return item
}

func (suite *ItemServiceTestSuite) TestCreateDefaults() {
	item := suite.createItem("Garden shed", "")
	suite.Equal(models.ItemCategoryGeneral, item.Category)
	suite.Equal(models.ItemStatusActive, item.Status)
}

func (suite *ItemServiceTestSuite) TestCreateValidation() {
	_, err := suite.service.Create(suite.ctx, CreateItemInput{
		BusinessID: suite.business.ID,
		Title:      "  ",
		CreatedBy:  suite.user.ID,
	})
	suite.ErrorIs(err, ErrItemTitleEmpty)

	_, err = suite.service.Create(suite.ctx, CreateItemInput{
		BusinessID: suite.business.ID,
		Title:      "Thing",
		Category:   models.ItemCategory("gadget"),
		CreatedBy:  suite.user.ID,
	})
	suite.ErrorIs(err, ErrItemCategoryInvalid)
}

func (suite *ItemServiceTestSuite) TestPropertyFieldsOnlyOnProperties() {
	bedrooms := 3
	_, err := suite.service.Create(suite.ctx, CreateItemInput{
		BusinessID: suite.business.ID,
		Title:      "Not a house",
		Category:   models.ItemCategoryJob,
		Bedrooms:   &bedrooms,
		CreatedBy:  suite.user.ID,
	})
	suite.ErrorIs(err, ErrPropertyFieldsMisplaced)

	rent := 1200.0
	item, err := suite.service.Create(suite.ctx, CreateItemInput{
		BusinessID:  suite.business.ID,
		Title:       "Unit 4",
		Category:    models.ItemCategoryProperty,
		Bedrooms:    &bedrooms,
		MonthlyRent: &rent,
		CreatedBy:   suite.user.ID,
	})
	suite.NoError(err)
	suite.Equal(3, *item.Bedrooms)
	suite.Equal(1200.0, *item.MonthlyRent)
}

func (suite *ItemServiceTestSuite) TestLeavingPropertyCategoryClearsFields() {
	bedrooms := 2
	rent := 900.0
	item, err := suite.service.Create(suite.ctx, CreateItemInput{
		BusinessID:  suite.business.ID,
		Title:       "Unit 7",
		Category:    models.ItemCategoryProperty,
		Bedrooms:    &bedrooms,
		MonthlyRent: &rent,
		CreatedBy:   suite.user.ID,
	})
	suite.Require().NoError(err)

	general := models.ItemCategoryGeneral
	updated, err := suite.service.Update(suite.ctx, suite.business.ID, item.ID, UpdateItemInput{
		Category: &general,
	})
	suite.NoError(err)
	suite.Nil(updated.Bedrooms)
	suite.Nil(updated.MonthlyRent)
	suite.Nil(updated.LandlordContactID)
}

func (suite *ItemServiceTestSuite) TestCreateWithContactLinks() {
	contact := &models.Contact{BusinessID: suite.business.ID, Name: "Tenant",
		Type: models.ContactTypeTenant, CreatedBy: suite.user.ID}
	suite.db.Create(contact)

	item, err := suite.service.Create(suite.ctx, CreateItemInput{
		BusinessID: suite.business.ID,
		Title:      "Unit 9",
		Category:   models.ItemCategoryProperty,
		Contacts:   []ContactLinkInput{{ContactID: contact.ID, Role: "tenant"}},
		CreatedBy:  suite.user.ID,
	})
	suite.NoError(err)

	fetched, err := suite.service.Get(suite.business.ID, item.ID)
	suite.NoError(err)
	suite.Require().Len(fetched.ContactLinks, 1)
	suite.Equal(contact.ID, fetched.ContactLinks[0].ContactID)
}

func (suite *ItemServiceTestSuite) TestNotes() {
	item := suite.createItem("Garden shed", "")

	_, err := suite.service.AddNote(suite.ctx, suite.business.ID, item.ID, suite.user.ID, "   ")
	suite.ErrorIs(err, ErrItemNoteEmpty)

	first, err := suite.service.AddNote(suite.ctx, suite.business.ID, item.ID, suite.user.ID, "needs paint")
	suite.NoError(err)
	_, err = suite.service.AddNote(suite.ctx, suite.business.ID, item.ID, suite.user.ID, "painted")
	suite.NoError(err)

	notes, err := suite.service.ListNotes(suite.ctx, suite.business.ID, item.ID)
	suite.NoError(err)
	suite.Require().Len(notes, 2)
	suite.Equal("needs paint", notes[0].Body)

	suite.NoError(suite.service.DeleteNote(suite.ctx, suite.business.ID, item.ID, first.ID))
	notes, err = suite.service.ListNotes(suite.ctx, suite.business.ID, item.ID)
	suite.NoError(err)
	suite.Len(notes, 1)
}

func (suite *ItemServiceTestSuite) TestBulkDelete() {
	a := suite.createItem("A", "")
	b := suite.createItem("B", "")
	suite.createItem("C", "")

	_, err := suite.service.BulkDelete(suite.ctx, suite.business.ID, nil)
	suite.ErrorIs(err, ErrNoIDsGiven)

	deleted, err := suite.service.BulkDelete(suite.ctx, suite.business.ID, []uint64{a.ID, b.ID})
	suite.NoError(err)
	suite.Equal(int64(2), deleted)

	_, total, err := suite.service.List(suite.ctx, repository.ItemFilter{BusinessID: suite.business.ID})
	suite.NoError(err)
	suite.Equal(int64(1), total)
}

func TestItemServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ItemServiceTestSuite))
}
