package repository

import (
	"gorm.io/gorm"

	"github.com/opsdesk/opsdesk-api/internal/database"
	"github.com/opsdesk/opsdesk-api/internal/models"
)

// GormContactRepository is a GORM implementation of ContactRepository
type GormContactRepository struct {
	db *gorm.DB
}

// NewContactRepository creates a new ContactRepository
func NewContactRepository(db *gorm.DB) ContactRepository {
	return &GormContactRepository{db: db}
}

// Create creates a new contact
func (r *GormContactRepository) Create(contact *models.Contact) error {
	return r.db.Create(contact).Error
}

// FindByID finds a contact by ID with optional preloading
func (r *GormContactRepository) FindByID(businessID, id uint64, preload ...string) (*models.Contact, error) {
	var contact models.Contact
	query := r.db.Where("business_id = ?", businessID)
	for _, p := range preload {
		query = query.Preload(p)
	}
	if err := query.First(&contact, id).Error; err != nil {
		return nil, err
	}
	return &contact, nil
}

// List retrieves contacts with filtering and pagination
func (r *GormContactRepository) List(filter ContactFilter) ([]models.Contact, int64, error) {
	var contacts []models.Contact

	query := r.db.Model(&models.Contact{}).Scopes(database.TenantScope(filter.BusinessID))

	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.CustomTypeID != nil {
		query = query.Where("custom_type_id = ?", *filter.CustomTypeID)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR email LIKE ? OR phone LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("created_at DESC").Scopes(database.Paginate(filter.Page, filter.PageSize))

	if err := listQuery.Preload("CustomType").Find(&contacts).Error; err != nil {
		return nil, 0, err
	}

	return contacts, total, nil
}

// Update updates a contact
func (r *GormContactRepository) Update(contact *models.Contact) error {
	return r.db.Save(contact).Error
}

// Delete removes a contact and its item links
func (r *GormContactRepository) Delete(businessID, id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("contact_id = ?", id).Delete(&models.ContactItem{}).Error; err != nil {
			return err
		}
		return tx.Where("business_id = ?", businessID).Delete(&models.Contact{}, id).Error
	})
}

// BulkDelete removes the given contacts in one transaction
func (r *GormContactRepository) BulkDelete(businessID uint64, ids []uint64) (int64, error) {
	var affected int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("contact_id IN ?", ids).Delete(&models.ContactItem{}).Error; err != nil {
			return err
		}
		result := tx.Where("business_id = ? AND id IN ?", businessID, ids).Delete(&models.Contact{})
		if result.Error != nil {
			return result.Error
		}
		affected = result.RowsAffected
		return nil
	})
	return affected, err
}

// LinkItem links a contact to an item
func (r *GormContactRepository) LinkItem(link *models.ContactItem) error {
	return r.db.Create(link).Error
}

// UnlinkItem removes a contact-item link
func (r *GormContactRepository) UnlinkItem(contactID, itemID uint64) error {
	return r.db.Where("contact_id = ? AND item_id = ?", contactID, itemID).
		Delete(&models.ContactItem{}).Error
}

// ListLinks lists an item links of a contact
func (r *GormContactRepository) ListLinks(contactID uint64) ([]models.ContactItem, error) {
	var links []models.ContactItem
	if err := r.db.Preload("Item").
		Where("contact_id = ?", contactID).
		Order("created_at ASC").
		Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}
