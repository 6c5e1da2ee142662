package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/opsdesk/opsdesk-api/internal/cache"
	"github.com/opsdesk/opsdesk-api/internal/constants"
	"github.com/opsdesk/opsdesk-api/internal/models"
	"github.com/opsdesk/opsdesk-api/internal/repository"
	"github.com/opsdesk/opsdesk-api/internal/storage"
)

var (
	ErrDocumentNameEmpty = errors.New("document name is required")
	ErrDocumentEmptyBody = errors.New("document body is empty")
)

// DocumentService handles document blobs, metadata, versions and activity
type DocumentService struct {
	documentRepo repository.DocumentRepository
	store        storage.ObjectStore
	cache        cache.Cache
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(documentRepo repository.DocumentRepository, store storage.ObjectStore, c cache.Cache) *DocumentService {
	return &DocumentService{documentRepo: documentRepo, store: store, cache: c}
}

// objectKey builds the tenant-scoped object store key for a new blob.
func objectKey(businessID uint64, name string) string {
	return fmt.Sprintf("documents/%d/%s%s", businessID, uuid.NewString(), path.Ext(name))
}

// UploadInput represents input for uploading a document
type UploadInput struct {
	BusinessID  uint64
	Name        string
	Body        io.ReadSeeker
	ContentType string
	Size        int64
	ContactID   *uint64
	ItemID      *uint64
	UploadedBy  uint64
}

// Upload stores the blob first, then the metadata row with its upload
// activity. A failed metadata write removes the orphaned blob.
func (s *DocumentService) Upload(ctx context.Context, input UploadInput) (*models.Document, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrDocumentNameEmpty
	}
	if input.Body == nil {
		return nil, ErrDocumentEmptyBody
	}

	key := objectKey(input.BusinessID, input.Name)
	if err := s.store.Put(ctx, key, input.Body, input.ContentType); err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}

	doc := &models.Document{
		BusinessID:  input.BusinessID,
		Name:        strings.TrimSpace(input.Name),
		StoragePath: key,
		ContentType: input.ContentType,
		Size:        input.Size,
		IsLatest:    true,
		ContactID:   input.ContactID,
		ItemID:      input.ItemID,
		UploadedBy:  input.UploadedBy,
	}
	activity := &models.DocumentActivity{
		ActorID: input.UploadedBy,
		Action:  models.DocumentActionUpload,
	}

	if err := s.documentRepo.Create(doc, activity); err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			log.WithError(delErr).WithField("key", key).Warn("failed to remove orphaned blob")
		}
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	invalidate(ctx, s.cache, input.BusinessID, cache.EntityDocuments, cache.EntityDocumentActivity)
	return doc, nil
}

// UploadVersion stores a new blob as the next version of an existing
// document. The superseded row keeps its blob but loses the latest flag.
func (s *DocumentService) UploadVersion(ctx context.Context, businessID, documentID uint64, input UploadInput) (*models.Document, error) {
	if input.Body == nil {
		return nil, ErrDocumentEmptyBody
	}

	parent, err := s.documentRepo.FindByID(businessID, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to find document: %w", err)
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = parent.Name
	}

	key := objectKey(businessID, name)
	if err := s.store.Put(ctx, key, input.Body, input.ContentType); err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}

	doc := &models.Document{
		BusinessID:  businessID,
		Name:        name,
		StoragePath: key,
		ContentType: input.ContentType,
		Size:        input.Size,
		ContactID:   parent.ContactID,
		ItemID:      parent.ItemID,
		UploadedBy:  input.UploadedBy,
	}

	if err := s.documentRepo.CreateVersion(doc, parent.ID); err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			log.WithError(delErr).WithField("key", key).Warn("failed to remove orphaned blob")
		}
		return nil, fmt.Errorf("failed to create document version: %w", err)
	}

	invalidate(ctx, s.cache, businessID, cache.EntityDocuments, cache.EntityDocumentActivity)
	return doc, nil
}

// Get returns a document's metadata, logging a view
func (s *DocumentService) Get(ctx context.Context, businessID, id, actorID uint64) (*models.Document, error) {
	doc, err := s.documentRepo.FindByID(businessID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find document: %w", err)
	}

	activity := &models.DocumentActivity{
		DocumentID: doc.ID,
		ActorID:    actorID,
		Action:     models.DocumentActionView,
	}
	if err := s.documentRepo.AppendActivity(activity); err != nil {
		log.WithError(err).WithField("document_id", doc.ID).Warn("failed to log document view")
	}

	return doc, nil
}

// List lists documents with filtering and pagination
func (s *DocumentService) List(ctx context.Context, filter repository.DocumentFilter) ([]models.Document, int64, error) {
	key := cache.Key(filter.BusinessID, cache.EntityDocuments, filter)

	type page struct {
		Documents []models.Document `json:"documents"`
		Total     int64             `json:"total"`
	}
	result, err := fetchCached(ctx, s.cache, filter.BusinessID, key,
		[]cache.Entity{cache.EntityDocuments},
		func() (page, error) {
			docs, total, err := s.documentRepo.List(filter)
			return page{Documents: docs, Total: total}, err
		})
	if err != nil {
		return nil, 0, err
	}
	return result.Documents, result.Total, nil
}

// Download streams the blob, logging a download
func (s *DocumentService) Download(ctx context.Context, businessID, id, actorID uint64) (*models.Document, io.ReadCloser, error) {
	doc, err := s.documentRepo.FindByID(businessID, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find document: %w", err)
	}

	body, err := s.store.Get(ctx, doc.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch blob: %w", err)
	}

	activity := &models.DocumentActivity{
		DocumentID: doc.ID,
		ActorID:    actorID,
		Action:     models.DocumentActionDownload,
	}
	if err := s.documentRepo.AppendActivity(activity); err != nil {
		log.WithError(err).WithField("document_id", doc.ID).Warn("failed to log document download")
	}

	return doc, body, nil
}

// SignedURL returns a short-lived direct download link, logging a share
func (s *DocumentService) SignedURL(ctx context.Context, businessID, id, actorID uint64) (string, error) {
	doc, err := s.documentRepo.FindByID(businessID, id)
	if err != nil {
		return "", fmt.Errorf("failed to find document: %w", err)
	}

	url, err := s.store.SignedURL(doc.StoragePath, constants.SignedURLExpirySeconds*time.Second)
	if err != nil {
		return "", fmt.Errorf("failed to sign url: %w", err)
	}

	activity := &models.DocumentActivity{
		DocumentID: doc.ID,
		ActorID:    actorID,
		Action:     models.DocumentActionShare,
	}
	if err := s.documentRepo.AppendActivity(activity); err != nil {
		log.WithError(err).WithField("document_id", doc.ID).Warn("failed to log document share")
	}

	return url, nil
}

// Rename renames a document, logging an edit
func (s *DocumentService) Rename(ctx context.Context, businessID, id, actorID uint64, name string) (*models.Document, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrDocumentNameEmpty
	}

	doc, err := s.documentRepo.FindByID(businessID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find document: %w", err)
	}

	doc.Name = strings.TrimSpace(name)
	if err := s.documentRepo.Update(doc); err != nil {
		return nil, fmt.Errorf("failed to rename document: %w", err)
	}

	activity := &models.DocumentActivity{
		DocumentID: doc.ID,
		ActorID:    actorID,
		Action:     models.DocumentActionEdit,
	}
	if err := s.documentRepo.AppendActivity(activity); err != nil {
		log.WithError(err).WithField("document_id", doc.ID).Warn("failed to log document edit")
	}

	invalidate(ctx, s.cache, businessID, cache.EntityDocuments, cache.EntityDocumentActivity)
	return doc, nil
}

// ListVersions returns the whole version chain, newest first
func (s *DocumentService) ListVersions(ctx context.Context, businessID, id uint64) ([]models.Document, error) {
	key := cache.Key(businessID, cache.EntityDocuments, struct {
		Scope string
		ID    uint64
	}{"versions", id})
	return fetchCached(ctx, s.cache, businessID, key,
		[]cache.Entity{cache.EntityDocuments},
		func() ([]models.Document, error) {
			return s.documentRepo.ListVersions(businessID, id)
		})
}

// ListActivity lists a document's activity chronologically
func (s *DocumentService) ListActivity(ctx context.Context, businessID, id uint64) ([]models.DocumentActivity, error) {
	if _, err := s.documentRepo.FindByID(businessID, id); err != nil {
		return nil, fmt.Errorf("failed to find document: %w", err)
	}
	key := cache.Key(businessID, cache.EntityDocumentActivity, id)
	return fetchCached(ctx, s.cache, businessID, key,
		[]cache.Entity{cache.EntityDocumentActivity},
		func() ([]models.DocumentActivity, error) {
			return s.documentRepo.ListActivity(id)
		})
}

// Delete removes the metadata row first, then the blob. A blob the store
// fails to delete is logged and left behind; metadata is the source of truth.
func (s *DocumentService) Delete(ctx context.Context, businessID, id uint64) error {
	doc, err := s.documentRepo.FindByID(businessID, id)
	if err != nil {
		return fmt.Errorf("failed to find document: %w", err)
	}

	if err := s.documentRepo.Delete(businessID, id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	if err := s.store.Delete(ctx, doc.StoragePath); err != nil {
		log.WithError(err).WithField("key", doc.StoragePath).Warn("failed to delete blob")
	}

	invalidate(ctx, s.cache, businessID, cache.EntityDocuments, cache.EntityDocumentActivity)
	return nil
}
