package repository

import (
	"gorm.io/gorm"

	"github.com/opsdesk/opsdesk-api/internal/database"
	"github.com/opsdesk/opsdesk-api/internal/models"
)

// GormDocumentRepository is a GORM implementation of DocumentRepository
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository creates a new DocumentRepository
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &GormDocumentRepository{db: db}
}

// Create inserts the metadata row and its upload activity atomically
func (r *GormDocumentRepository) Create(doc *models.Document, activity *models.DocumentActivity) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(doc).Error; err != nil {
			return err
		}
		if activity != nil {
			activity.DocumentID = doc.ID
			if err := tx.Create(activity).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// CreateVersion inserts a new version, clears the superseded latest flag and
// logs the upload, all in one transaction.
func (r *GormDocumentRepository) CreateVersion(doc *models.Document, parentID uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var parent models.Document
		if err := tx.Where("business_id = ?", doc.BusinessID).First(&parent, parentID).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Document{}).
			Where("id = ?", parent.ID).
			Update("is_latest", false).Error; err != nil {
			return err
		}

		doc.ParentID = &parent.ID
		doc.IsLatest = true
		if err := tx.Create(doc).Error; err != nil {
			return err
		}

		return tx.Create(&models.DocumentActivity{
			DocumentID: doc.ID,
			ActorID:    doc.UploadedBy,
			Action:     models.DocumentActionUpload,
		}).Error
	})
}

// FindByID finds a document by ID
func (r *GormDocumentRepository) FindByID(businessID, id uint64) (*models.Document, error) {
	var doc models.Document
	if err := r.db.Where("business_id = ?", businessID).First(&doc, id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// List retrieves documents with filtering and pagination
func (r *GormDocumentRepository) List(filter DocumentFilter) ([]models.Document, int64, error) {
	var docs []models.Document

	query := r.db.Model(&models.Document{}).Scopes(database.TenantScope(filter.BusinessID))

	if filter.LatestOnly {
		query = query.Where("is_latest = ?", true)
	}
	if filter.ContactID != nil {
		query = query.Where("contact_id = ?", *filter.ContactID)
	}
	if filter.ItemID != nil {
		query = query.Where("item_id = ?", *filter.ItemID)
	}
	if filter.Search != "" {
		query = query.Where("name LIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("created_at DESC").Scopes(database.Paginate(filter.Page, filter.PageSize))

	if err := listQuery.Preload("Uploader").Find(&docs).Error; err != nil {
		return nil, 0, err
	}

	return docs, total, nil
}

// Update updates document metadata
func (r *GormDocumentRepository) Update(doc *models.Document) error {
	return r.db.Save(doc).Error
}

// Delete removes a document row and its activity
func (r *GormDocumentRepository) Delete(businessID, id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", id).Delete(&models.DocumentActivity{}).Error; err != nil {
			return err
		}
		return tx.Where("business_id = ?", businessID).Delete(&models.Document{}, id).Error
	})
}

// AppendActivity records a document action
func (r *GormDocumentRepository) AppendActivity(activity *models.DocumentActivity) error {
	return r.db.Create(activity).Error
}

// ListActivity lists a document's activity chronologically
func (r *GormDocumentRepository) ListActivity(documentID uint64) ([]models.DocumentActivity, error) {
	var activity []models.DocumentActivity
	if err := r.db.Preload("Actor").
		Where("document_id = ?", documentID).
		Order("created_at ASC").
		Find(&activity).Error; err != nil {
		return nil, err
	}
	return activity, nil
}

// ListVersions walks the version chain from any member, newest first
func (r *GormDocumentRepository) ListVersions(businessID, id uint64) ([]models.Document, error) {
	doc, err := r.FindByID(businessID, id)
	if err != nil {
		return nil, err
	}

	// Walk up to the chain root.
	root := *doc
	for root.ParentID != nil {
		parent, err := r.FindByID(businessID, *root.ParentID)
		if err != nil {
			return nil, err
		}
		root = *parent
	}

	// Walk down collecting descendants. Chains are linear: one child per row.
	versions := []models.Document{root}
	current := root.ID
	for {
		var child models.Document
		err := r.db.Where("business_id = ? AND parent_id = ?", businessID, current).
			First(&child).Error
		if err == gorm.ErrRecordNotFound {
			break
		}
		if err != nil {
			return nil, err
		}
		versions = append(versions, child)
		current = child.ID
	}

	// Newest first.
	for i, j := 0, len(versions)-1; i < j; i, j = i+1, j-1 {
		versions[i], versions[j] = versions[j], versions[i]
	}
	return versions, nil
}
