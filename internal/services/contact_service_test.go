package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/opsdesk/opsdesk-api/internal/cache"
	"github.com/opsdesk/opsdesk-api/internal/database"
	"github.com/opsdesk/opsdesk-api/internal/models"
	"github.com/opsdesk/opsdesk-api/internal/repository"
)

// ContactServiceTestSuite defines the test suite for ContactService
type ContactServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *ContactService
	ctx     context.Context

	business *models.Business
	user     *models.User
}

// SetupTest runs before each test
func (suite *ContactServiceTestSuite) SetupTest() {
	var err error
	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)
	suite.Require().NoError(database.MigrateWith(suite.db))
	database.SetDB(suite.db)

	suite.service = NewContactService(repository.NewContactRepository(suite.db), cache.NewMemory())
	suite.ctx = context.Background()

	suite.business = &models.Business{Name: "Test Business"}
	suite.db.Create(suite.business)
	suite.user = &models.User{Email: "owner@example.com", PasswordHash: "hashedpassword", FullName: "Owner"}
	suite.db.Create(suite.user)
}

// TearDownTest runs after each test
func (suite *ContactServiceTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *ContactServiceTestSuite) createContact(name string, ctype models.ContactType) *models.Contact {
	contact, err := suite.service.Create(suite.ctx, CreateContactInput{
		BusinessID: suite.business.ID,
		Name:       name,
		Type:       ctype,
		CreatedBy:  suite.user.ID,
	})
	suite.Require().NoError(err)
	return contact
}

func (suite *ContactServiceTestSuite) TestCreateValidation() {
	_, err := suite.service.Create(suite.ctx, CreateContactInput{
		BusinessID: suite.business.ID,
		Name:       "   ",
		CreatedBy:  suite.user.ID,
	})
	suite.ErrorIs(err, ErrContactNameEmpty)

	_, err = suite.service.Create(suite.ctx, CreateContactInput{
		BusinessID: suite.business.ID,
		Name:       "Jo",
		Type:       models.ContactType("alien"),
		CreatedBy:  suite.user.ID,
	})
	suite.ErrorIs(err, ErrContactTypeInvalid)

	// Missing type falls back to other.
	contact := suite.createContact("Jo", "")
	suite.Equal(models.ContactTypeOther, contact.Type)
}

func (suite *ContactServiceTestSuite) TestBulkDelete() {
	a := suite.createContact("A", models.ContactTypeClient)
	b := suite.createContact("B", models.ContactTypeClient)
	suite.createContact("C", models.ContactTypeClient)

	_, err := suite.service.BulkDelete(suite.ctx, suite.business.ID, nil)
	suite.ErrorIs(err, ErrNoIDsGiven)

	deleted, err := suite.service.BulkDelete(suite.ctx, suite.business.ID, []uint64{a.ID, b.ID})
	suite.NoError(err)
	suite.Equal(int64(2), deleted)

	_, total, err := suite.service.List(suite.ctx, repository.ContactFilter{BusinessID: suite.business.ID})
	suite.NoError(err)
	suite.Equal(int64(1), total)
}

func (suite *ContactServiceTestSuite) TestExportRoundTripsQuotedFields() {
	_, err := suite.service.Create(suite.ctx, CreateContactInput{
		BusinessID: suite.business.ID,
		Name:       "Quote, Inc.",
		Email:      "sales@quote.example",
		Type:       models.ContactTypeVendor,
		Notes:      `He said ""hi"", thanks`,
		CreatedBy:  suite.user.ID,
	})
	suite.Require().NoError(err)

	out, err := suite.service.ExportCSV(suite.business.ID)
	suite.NoError(err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	suite.Require().Len(lines, 2)
	suite.Equal(`"name","email","phone","type","address","notes"`, lines[0])

	// Re-import what we exported into a second tenant.
	other := &models.Business{Name: "Other Business"}
	suite.db.Create(other)
	result, err := suite.service.ImportCSV(suite.ctx, other.ID, suite.user.ID, out)
	suite.NoError(err)
	suite.Equal(1, result.Imported)
	suite.Equal(0, result.Failed)

	imported, _, err := suite.service.List(suite.ctx, repository.ContactFilter{BusinessID: other.ID})
	suite.NoError(err)
	suite.Require().Len(imported, 1)
	suite.Equal("Quote, Inc.", imported[0].Name)
	suite.Equal(`He said ""hi"", thanks`, imported[0].Notes)
}

func (suite *ContactServiceTestSuite) TestImportToleratesBadRows() {
	csv := strings.Join([]string{
		"name,email,type",
		"Ann,ann@example.com,client",
		",missing@example.com,client",
		"Bob,bob@example.com,vendor",
		"Cid,cid@example.com,martian",
		"Dee,dee@example.com,",
		"Eve,eve@example.com,tenant",
	}, "\n")

	result, err := suite.service.ImportCSV(suite.ctx, suite.business.ID, suite.user.ID, csv)
	suite.NoError(err)
	suite.Equal(4, result.Imported)
	suite.Equal(2, result.Failed)
	suite.Require().Len(result.Errors, 2)
	suite.Contains(result.Errors[0], "row 3")
	suite.Contains(result.Errors[1], "row 5")

	_, total, err := suite.service.List(suite.ctx, repository.ContactFilter{BusinessID: suite.business.ID})
	suite.NoError(err)
	suite.Equal(int64(4), total)
}

func (suite *ContactServiceTestSuite) TestImportRequiresHeader() {
	_, err := suite.service.ImportCSV(suite.ctx, suite.business.ID, suite.user.ID, "")
	suite.ErrorIs(err, ErrCSVMissingHeader)

	_, err = suite.service.ImportCSV(suite.ctx, suite.business.ID, suite.user.ID, "email,phone\nx@example.com,1")
	suite.ErrorIs(err, ErrCSVMissingHeader)
}

func (suite *ContactServiceTestSuite) TestLinkAndUnlinkItem() {
	contact := suite.createContact("Landlady", models.ContactTypeLandlord)
	item := &models.Item{BusinessID: suite.business.ID, Title: "Unit 4", CreatedBy: suite.user.ID}
	suite.db.Create(item)

	link, err := suite.service.LinkItem(suite.ctx, suite.business.ID, contact.ID, item.ID, "owner", "")
	suite.NoError(err)
	suite.Equal(contact.ID, link.ContactID)

	fetched, err := suite.service.Get(suite.business.ID, contact.ID)
	suite.NoError(err)
	suite.Len(fetched.ItemLinks, 1)

	suite.NoError(suite.service.UnlinkItem(suite.ctx, suite.business.ID, contact.ID, item.ID))
	fetched, err = suite.service.Get(suite.business.ID, contact.ID)
	suite.NoError(err)
	suite.Empty(fetched.ItemLinks)
}

func TestContactServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ContactServiceTestSuite))
}
