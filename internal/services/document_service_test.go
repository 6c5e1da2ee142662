package services

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/opsdesk/opsdesk-api/internal/cache"
	"github.com/opsdesk/opsdesk-api/internal/database"
	"github.com/opsdesk/opsdesk-api/internal/models"
	"github.com/opsdesk/opsdesk-api/internal/repository"
	"github.com/opsdesk/opsdesk-api/internal/storage"
)

// DocumentServiceTestSuite defines the test suite for DocumentService
type DocumentServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	store   *storage.Memory
	service *DocumentService
	ctx     context.Context

	business *models.Business
	user     *models.User
}

// SetupTest runs before each test
func (suite *DocumentServiceTestSuite) SetupTest() {
	var err error
	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)
	suite.Require().NoError(database.MigrateWith(suite.db))
	database.SetDB(suite.db)

	suite.store = storage.NewMemory()
	suite.service = NewDocumentService(repository.NewDocumentRepository(suite.db), suite.store, cache.NewMemory())
	suite.ctx = context.Background()

	suite.business = &models.Business{Name: "Test Business"}
	suite.db.Create(suite.business)
	suite.user = &models.User{Email: "owner@example.com", PasswordHash: "hashedpassword"}
	suite.db.Create(suite.user)
}

// TearDownTest runs after each test
func (suite *DocumentServiceTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *DocumentServiceTestSuite) upload(name, body string) *models.Document {
	doc, err := suite.service.Upload(suite.ctx, UploadInput{
		BusinessID:  suite.business.ID,
		Name:        name,
		Body:        strings.NewReader(body),
		ContentType: "text/plain",
		Size:        int64(len(body)),
		UploadedBy:  suite.user.ID,
	})
	suite.Require().NoError(err)
	return doc
}

func (suite *DocumentServiceTestSuite) TestUploadStoresBlobAndMetadata() {
	doc := suite.upload("lease.txt", "twelve months")

	suite.True(doc.IsLatest)
	suite.True(suite.store.Has(doc.StoragePath))

	activity, err := suite.service.ListActivity(suite.ctx, suite.business.ID, doc.ID)
	suite.NoError(err)
	suite.Require().Len(activity, 1)
	suite.Equal(models.DocumentActionUpload, activity[0].Action)
}

func (suite *DocumentServiceTestSuite) TestUploadValidation() {
	_, err := suite.service.Upload(suite.ctx, UploadInput{
		BusinessID: suite.business.ID,
		Name:       "  ",
		Body:       strings.NewReader("x"),
		UploadedBy: suite.user.ID,
	})
	suite.ErrorIs(err, ErrDocumentNameEmpty)

	_, err = suite.service.Upload(suite.ctx, UploadInput{
		BusinessID: suite.business.ID,
		Name:       "lease.txt",
		UploadedBy: suite.user.ID,
	})
	suite.ErrorIs(err, ErrDocumentEmptyBody)
}

func (suite *DocumentServiceTestSuite) TestUploadFailureLeavesNoMetadata() {
	suite.store.FailPut = true

	_, err := suite.service.Upload(suite.ctx, UploadInput{
		BusinessID: suite.business.ID,
		Name:       "lease.txt",
		Body:       strings.NewReader("twelve months"),
		UploadedBy: suite.user.ID,
	})
	suite.Error(err)

	_, total, listErr := suite.service.List(suite.ctx, repository.DocumentFilter{
		BusinessID: suite.business.ID,
	})
	suite.NoError(listErr)
	suite.Equal(int64(0), total)
}

func (suite *DocumentServiceTestSuite) TestVersionChain() {
	v1 := suite.upload("lease.txt", "draft")

	v2, err := suite.service.UploadVersion(suite.ctx, suite.business.ID, v1.ID, UploadInput{
		Body:        strings.NewReader("signed"),
		ContentType: "text/plain",
		Size:        6,
		UploadedBy:  suite.user.ID,
	})
	suite.NoError(err)
	suite.Equal("lease.txt", v2.Name) // inherits the parent's name
	suite.True(v2.IsLatest)

	old, err := suite.service.Get(suite.ctx, suite.business.ID, v1.ID, suite.user.ID)
	suite.NoError(err)
	suite.False(old.IsLatest)

	versions, err := suite.service.ListVersions(suite.ctx, suite.business.ID, v2.ID)
	suite.NoError(err)
	suite.Require().Len(versions, 2)
	suite.Equal(v2.ID, versions[0].ID)
	suite.Equal(v1.ID, versions[1].ID)

	// Default listing shows only the latest version.
	docs, total, err := suite.service.List(suite.ctx, repository.DocumentFilter{
		BusinessID: suite.business.ID,
		LatestOnly: true,
	})
	suite.NoError(err)
	suite.Equal(int64(1), total)
	suite.Require().Len(docs, 1)
	suite.Equal(v2.ID, docs[0].ID)
}

func (suite *DocumentServiceTestSuite) TestDownloadStreamsAndLogs() {
	doc := suite.upload("lease.txt", "twelve months")

	fetched, body, err := suite.service.Download(suite.ctx, suite.business.ID, doc.ID, suite.user.ID)
	suite.NoError(err)
	defer body.Close()

	data, err := io.ReadAll(body)
	suite.NoError(err)
	suite.Equal("twelve months", string(data))
	suite.Equal("text/plain", fetched.ContentType)

	activity, err := suite.service.ListActivity(suite.ctx, suite.business.ID, doc.ID)
	suite.NoError(err)
	suite.Require().Len(activity, 2)
	suite.Equal(models.DocumentActionDownload, activity[1].Action)
}

func (suite *DocumentServiceTestSuite) TestSignedURL() {
	doc := suite.upload("lease.txt", "twelve months")

	url, err := suite.service.SignedURL(suite.ctx, suite.business.ID, doc.ID, suite.user.ID)
	suite.NoError(err)
	suite.Contains(url, doc.StoragePath)
}

func (suite *DocumentServiceTestSuite) TestRename() {
	doc := suite.upload("lease.txt", "twelve months")

	renamed, err := suite.service.Rename(suite.ctx, suite.business.ID, doc.ID, suite.user.ID, " lease-final.txt ")
	suite.NoError(err)
	suite.Equal("lease-final.txt", renamed.Name)

	_, err = suite.service.Rename(suite.ctx, suite.business.ID, doc.ID, suite.user.ID, "")
	suite.ErrorIs(err, ErrDocumentNameEmpty)
}

func (suite *DocumentServiceTestSuite) TestDeleteRemovesMetadataAndBlob() {
	doc := suite.upload("lease.txt", "twelve months")

	suite.NoError(suite.service.Delete(suite.ctx, suite.business.ID, doc.ID))
	suite.False(suite.store.Has(doc.StoragePath))

	_, err := suite.service.Get(suite.ctx, suite.business.ID, doc.ID, suite.user.ID)
	suite.Error(err)
}

func TestDocumentServiceTestSuite(t *testing.T) {
	suite.Run(t, new(DocumentServiceTestSuite))
}
