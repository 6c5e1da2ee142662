package repository

import (
	"gorm.io/gorm"

	"github.com/opsdesk/opsdesk-api/internal/database"
	"github.com/opsdesk/opsdesk-api/internal/models"
)

// GormItemRepository is a GORM implementation of ItemRepository
type GormItemRepository struct {
	db *gorm.DB
}

// NewItemRepository creates a new ItemRepository
func NewItemRepository(db *gorm.DB) ItemRepository {
	return &GormItemRepository{db: db}
}

// CreateWithLinks creates the item and its contact links atomically
func (r *GormItemRepository) CreateWithLinks(item *models.Item, links []models.ContactItem) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(item).Error; err != nil {
			return err
		}
		for i := range links {
			links[i].ItemID = item.ID
		}
		if len(links) > 0 {
			if err := tx.Create(&links).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// FindByID finds an item by ID with optional preloading
func (r *GormItemRepository) FindByID(businessID, id uint64, preload ...string) (*models.Item, error) {
	var item models.Item
	query := r.db.Where("business_id = ?", businessID)
	for _, p := range preload {
		query = query.Preload(p)
	}
	if err := query.First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// List retrieves items with filtering and pagination
func (r *GormItemRepository) List(filter ItemFilter) ([]models.Item, int64, error) {
	var items []models.Item

	query := r.db.Model(&models.Item{}).Scopes(database.TenantScope(filter.BusinessID))

	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.CustomTypeID != nil {
		query = query.Where("custom_type_id = ?", *filter.CustomTypeID)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("title LIKE ? OR description LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("created_at DESC").Scopes(database.Paginate(filter.Page, filter.PageSize))

	if err := listQuery.Preload("CustomType").Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// Update updates an item
func (r *GormItemRepository) Update(item *models.Item) error {
	return r.db.Save(item).Error
}

// Delete removes an item with its notes and links
func (r *GormItemRepository) Delete(businessID, id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("item_id = ?", id).Delete(&models.ItemNote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("item_id = ?", id).Delete(&models.ContactItem{}).Error; err != nil {
			return err
		}
		return tx.Where("business_id = ?", businessID).Delete(&models.Item{}, id).Error
	})
}

// BulkDelete removes the given items in one transaction
func (r *GormItemRepository) BulkDelete(businessID uint64, ids []uint64) (int64, error) {
	var affected int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("item_id IN ?", ids).Delete(&models.ItemNote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("item_id IN ?", ids).Delete(&models.ContactItem{}).Error; err != nil {
			return err
		}
		result := tx.Where("business_id = ? AND id IN ?", businessID, ids).Delete(&models.Item{})
		if result.Error != nil {
			return result.Error
		}
		affected = result.RowsAffected
		return nil
	})
	return affected, err
}

// AddNote appends a note to an item
func (r *GormItemRepository) AddNote(note *models.ItemNote) error {
	return r.db.Create(note).Error
}

// ListNotes lists an item's notes in creation order
func (r *GormItemRepository) ListNotes(itemID uint64) ([]models.ItemNote, error) {
	var notes []models.ItemNote
	if err := r.db.Preload("Author").
		Where("item_id = ?", itemID).
		Order("created_at ASC").
		Find(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

// DeleteNote removes a note
func (r *GormItemRepository) DeleteNote(itemID, noteID uint64) error {
	return r.db.Where("item_id = ?", itemID).Delete(&models.ItemNote{}, noteID).Error
}
