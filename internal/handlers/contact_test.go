package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/opsdesk/opsdesk-api/internal/cache"
	"github.com/opsdesk/opsdesk-api/internal/constants"
	"github.com/opsdesk/opsdesk-api/internal/database"
	"github.com/opsdesk/opsdesk-api/internal/dto"
	"github.com/opsdesk/opsdesk-api/internal/models"
	"github.com/opsdesk/opsdesk-api/internal/repository"
	"github.com/opsdesk/opsdesk-api/internal/services"
)

// ContactHandlerTestSuite defines the test suite for ContactHandler
type ContactHandlerTestSuite struct {
	suite.Suite
	db      *gorm.DB
	handler *ContactHandler

	business *models.Business
	profile  models.Profile
}

// SetupTest runs before each test
func (suite *ContactHandlerTestSuite) SetupTest() {
	var err error
	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)
	suite.Require().NoError(database.MigrateWith(suite.db))
	database.SetDB(suite.db)

	service := services.NewContactService(repository.NewContactRepository(suite.db), cache.NewMemory())
	suite.handler = NewContactHandler(service)

	gin.SetMode(gin.TestMode)

	suite.business = &models.Business{Name: "Test Business"}
	suite.db.Create(suite.business)
	user := &models.User{Email: "owner@example.com", PasswordHash: "hashedpassword"}
	suite.db.Create(user)
	profile := &models.Profile{UserID: user.ID, BusinessID: suite.business.ID, Role: models.RoleOwner}
	suite.db.Create(profile)
	suite.profile = *profile
}

// TearDownTest runs after each test
func (suite *ContactHandlerTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

// Helper function to create an authenticated, business-scoped context
func (suite *ContactHandlerTestSuite) createAuthContext(method, url string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, url, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set(constants.ContextKeyUserID, suite.profile.UserID)
	c.Set(constants.ContextKeyProfile, suite.profile)

	return c, w
}

func (suite *ContactHandlerTestSuite) createContact(name string) *models.Contact {
	contact := &models.Contact{
		BusinessID: suite.business.ID,
		Name:       name,
		Type:       models.ContactTypeClient,
		CreatedBy:  suite.profile.UserID,
	}
	suite.db.Create(contact)
	return contact
}

func (suite *ContactHandlerTestSuite) TestCreateContact() {
	body, _ := json.Marshal(map[string]string{
		"name":  "Ann Client",
		"email": "ann@example.com",
		"type":  "client",
	})

	c, w := suite.createAuthContext(http.MethodPost, "/api/contacts", body)
	suite.handler.CreateContact(c)

	suite.Equal(http.StatusCreated, w.Code)

	var response dto.ContactDTO
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	suite.Equal("Ann Client", response.Name)
	suite.Equal(models.ContactTypeClient, response.Type)
}

func (suite *ContactHandlerTestSuite) TestCreateContactRejectsBadType() {
	body, _ := json.Marshal(map[string]string{
		"name": "Ann Client",
		"type": "alien",
	})

	c, w := suite.createAuthContext(http.MethodPost, "/api/contacts", body)
	suite.handler.CreateContact(c)

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *ContactHandlerTestSuite) TestGetContact() {
	contact := suite.createContact("Ann Client")

	c, w := suite.createAuthContext(http.MethodGet, "/api/contacts/1", nil)
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	suite.handler.GetContact(c)

	suite.Equal(http.StatusOK, w.Code)

	var response dto.ContactDTO
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	suite.Equal(contact.Name, response.Name)
}

func (suite *ContactHandlerTestSuite) TestGetContactNotFound() {
	c, w := suite.createAuthContext(http.MethodGet, "/api/contacts/999", nil)
	c.Params = gin.Params{{Key: "id", Value: "999"}}
	suite.handler.GetContact(c)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *ContactHandlerTestSuite) TestListContactsFiltersByType() {
	suite.createContact("Ann Client")
	vendor := &models.Contact{
		BusinessID: suite.business.ID,
		Name:       "Vic Vendor",
		Type:       models.ContactTypeVendor,
		CreatedBy:  suite.profile.UserID,
	}
	suite.db.Create(vendor)

	c, w := suite.createAuthContext(http.MethodGet, "/api/contacts?type=vendor", nil)
	suite.handler.ListContacts(c)

	suite.Equal(http.StatusOK, w.Code)

	var response dto.ContactListResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	suite.Equal(int64(1), response.TotalCount)
	suite.Require().Len(response.Contacts, 1)
	suite.Equal("Vic Vendor", response.Contacts[0].Name)
}

func (suite *ContactHandlerTestSuite) TestUpdateContact() {
	suite.createContact("Ann Client")

	body, _ := json.Marshal(map[string]string{"phone": "555-0100"})
	c, w := suite.createAuthContext(http.MethodPatch, "/api/contacts/1", body)
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	suite.handler.UpdateContact(c)

	suite.Equal(http.StatusOK, w.Code)

	var response dto.ContactDTO
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	suite.Equal("555-0100", response.Phone)
}

func (suite *ContactHandlerTestSuite) TestBulkDeleteContacts() {
	suite.createContact("Ann Client")
	suite.createContact("Bob Client")

	body, _ := json.Marshal(map[string][]uint64{"ids": {1, 2}})
	c, w := suite.createAuthContext(http.MethodPost, "/api/contacts/bulk-delete", body)
	suite.handler.BulkDeleteContacts(c)

	suite.Equal(http.StatusOK, w.Code)

	var response map[string]int64
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	suite.Equal(int64(2), response["deleted"])
}

func (suite *ContactHandlerTestSuite) TestExportContacts() {
	suite.createContact("Ann Client")

	c, w := suite.createAuthContext(http.MethodGet, "/api/contacts/export", nil)
	suite.handler.ExportContacts(c)

	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("text/csv", w.Header().Get("Content-Type"))
	suite.Contains(w.Body.String(), "Ann Client")
}

func TestContactHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(ContactHandlerTestSuite))
}
