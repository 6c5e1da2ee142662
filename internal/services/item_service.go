package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/opsdesk/opsdesk-api/internal/cache"
	"github.com/opsdesk/opsdesk-api/internal/models"
	"github.com/opsdesk/opsdesk-api/internal/repository"
)

var (
	ErrItemTitleEmpty          = errors.New("item title is required")
	ErrItemCategoryInvalid     = errors.New("invalid item category")
	ErrItemStatusInvalid       = errors.New("invalid item status")
	ErrPropertyFieldsMisplaced = errors.New("bedrooms, monthly rent and landlord only apply to properties")
	ErrItemNoteEmpty           = errors.New("note body is required")
)

// ItemService handles items (properties, listings, jobs), their notes and
// contact links
type ItemService struct {
	itemRepo repository.ItemRepository
	cache    cache.Cache
}

// NewItemService creates a new ItemService
func NewItemService(itemRepo repository.ItemRepository, c cache.Cache) *ItemService {
	return &ItemService{itemRepo: itemRepo, cache: c}
}

func validItemCategory(c models.ItemCategory) bool {
	switch c {
	case models.ItemCategoryGeneral, models.ItemCategoryProperty,
		models.ItemCategoryListing, models.ItemCategoryJob:
		return true
	}
	return false
}

func validItemStatus(s models.ItemStatus) bool {
	switch s {
	case models.ItemStatusActive, models.ItemStatusPending,
		models.ItemStatusClosed, models.ItemStatusArchived:
		return true
	}
	return false
}

// ContactLinkInput names a contact to link at item creation
type ContactLinkInput struct {
	ContactID uint64
	Role      string
	Note      string
}

// CreateItemInput represents input for creating an item
type CreateItemInput struct {
	BusinessID   uint64
	Title        string
	Description  string
	Category     models.ItemCategory
	Status       models.ItemStatus
	CustomTypeID *uint64
	Amount       *float64
	StartDate    *time.Time
	EndDate      *time.Time

	Bedrooms          *int
	MonthlyRent       *float64
	LandlordContactID *uint64

	Contacts  []ContactLinkInput
	CreatedBy uint64
}

// Create creates an item together with its initial contact links.
func (s *ItemService) Create(ctx context.Context, input CreateItemInput) (*models.Item, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrItemTitleEmpty
	}
	if input.Category == "" {
		input.Category = models.ItemCategoryGeneral
	}
	if !validItemCategory(input.Category) {
		return nil, ErrItemCategoryInvalid
	}
	if input.Status == "" {
		input.Status = models.ItemStatusActive
	}
	if !validItemStatus(input.Status) {
		return nil, ErrItemStatusInvalid
	}
	if input.Category != models.ItemCategoryProperty &&
		(input.Bedrooms != nil || input.MonthlyRent != nil || input.LandlordContactID != nil) {
		return nil, ErrPropertyFieldsMisplaced
	}

	item := &models.Item{
		BusinessID:        input.BusinessID,
		Title:             strings.TrimSpace(input.Title),
		Description:       input.Description,
		Category:          input.Category,
		Status:            input.Status,
		CustomTypeID:      input.CustomTypeID,
		Amount:            input.Amount,
		StartDate:         input.StartDate,
		EndDate:           input.EndDate,
		Bedrooms:          input.Bedrooms,
		MonthlyRent:       input.MonthlyRent,
		LandlordContactID: input.LandlordContactID,
		CreatedBy:         input.CreatedBy,
	}

	links := make([]models.ContactItem, 0, len(input.Contacts))
	for _, c := range input.Contacts {
		links = append(links, models.ContactItem{
			ContactID: c.ContactID,
			Role:      c.Role,
			Note:      c.Note,
		})
	}

	if err := s.itemRepo.CreateWithLinks(item, links); err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	invalidate(ctx, s.cache, input.BusinessID, cache.EntityItems, cache.EntityContactItems)
	return item, nil
}

// Get returns an item with its relations
func (s *ItemService) Get(businessID, id uint64) (*models.Item, error) {
	return s.itemRepo.FindByID(businessID, id, "CustomType", "LandlordContact", "ContactLinks.Contact")
}

// List lists items with filtering and pagination
func (s *ItemService) List(ctx context.Context, filter repository.ItemFilter) ([]models.Item, int64, error) {
	key := cache.Key(filter.BusinessID, cache.EntityItems, filter)

	type page struct {
		Items []models.Item `json:"items"`
		Total int64         `json:"total"`
	}
	result, err := fetchCached(ctx, s.cache, filter.BusinessID, key,
		[]cache.Entity{cache.EntityItems},
		func() (page, error) {
			items, total, err := s.itemRepo.List(filter)
			return page{Items: items, Total: total}, err
		})
	if err != nil {
		return nil, 0, err
	}
	return result.Items, result.Total, nil
}

// UpdateItemInput represents input for updating an item
type UpdateItemInput struct {
	Title        *string
	Description  *string
	Category     *models.ItemCategory
	Status       *models.ItemStatus
	CustomTypeID *uint64
	ClearCustom  bool
	Amount       *float64
	StartDate    *time.Time
	EndDate      *time.Time

	Bedrooms          *int
	MonthlyRent       *float64
	LandlordContactID *uint64
}

// Update updates an item
func (s *ItemService) Update(ctx context.Context, businessID, id uint64, input UpdateItemInput) (*models.Item, error) {
	item, err := s.itemRepo.FindByID(businessID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find item: %w", err)
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, ErrItemTitleEmpty
		}
		item.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		item.Description = *input.Description
	}
	if input.Category != nil {
		if !validItemCategory(*input.Category) {
			return nil, ErrItemCategoryInvalid
		}
		item.Category = *input.Category
	}
	if input.Status != nil {
		if !validItemStatus(*input.Status) {
			return nil, ErrItemStatusInvalid
		}
		item.Status = *input.Status
	}
	if input.CustomTypeID != nil {
		item.CustomTypeID = input.CustomTypeID
	}
	if input.ClearCustom {
		item.CustomTypeID = nil
	}
	if input.Amount != nil {
		item.Amount = input.Amount
	}
	if input.StartDate != nil {
		item.StartDate = input.StartDate
	}
	if input.EndDate != nil {
		item.EndDate = input.EndDate
	}

	if item.Category == models.ItemCategoryProperty {
		if input.Bedrooms != nil {
			item.Bedrooms = input.Bedrooms
		}
		if input.MonthlyRent != nil {
			item.MonthlyRent = input.MonthlyRent
		}
		if input.LandlordContactID != nil {
			item.LandlordContactID = input.LandlordContactID
		}
	} else {
		if input.Bedrooms != nil || input.MonthlyRent != nil || input.LandlordContactID != nil {
			return nil, ErrPropertyFieldsMisplaced
		}
		// Leaving the property category clears its fields.
		item.Bedrooms = nil
		item.MonthlyRent = nil
		item.LandlordContactID = nil
	}

	if err := s.itemRepo.Update(item); err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}

	invalidate(ctx, s.cache, businessID, cache.EntityItems)
	return item, nil
}

// Delete deletes an item, its notes and links
func (s *ItemService) Delete(ctx context.Context, businessID, id uint64) error {
	if err := s.itemRepo.Delete(businessID, id); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	invalidate(ctx, s.cache, businessID, cache.EntityItems, cache.EntityItemNotes, cache.EntityContactItems)
	return nil
}

// BulkDelete deletes the given items in one transaction
func (s *ItemService) BulkDelete(ctx context.Context, businessID uint64, ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrNoIDsGiven
	}
	deleted, err := s.itemRepo.BulkDelete(businessID, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to bulk delete items: %w", err)
	}
	invalidate(ctx, s.cache, businessID, cache.EntityItems, cache.EntityItemNotes, cache.EntityContactItems)
	return deleted, nil
}

// AddNote appends a note to an item
func (s *ItemService) AddNote(ctx context.Context, businessID, itemID, userID uint64, body string) (*models.ItemNote, error) {
	if strings.TrimSpace(body) == "" {
		return nil, ErrItemNoteEmpty
	}
	if _, err := s.itemRepo.FindByID(businessID, itemID); err != nil {
		return nil, fmt.Errorf("failed to find item: %w", err)
	}

	note := &models.ItemNote{
		ItemID:    itemID,
		Body:      body,
		CreatedBy: userID,
	}
	if err := s.itemRepo.AddNote(note); err != nil {
		return nil, fmt.Errorf("failed to add note: %w", err)
	}

	invalidate(ctx, s.cache, businessID, cache.EntityItemNotes)
	return note, nil
}

// ListNotes lists an item's notes in creation order
func (s *ItemService) ListNotes(ctx context.Context, businessID, itemID uint64) ([]models.ItemNote, error) {
	if _, err := s.itemRepo.FindByID(businessID, itemID); err != nil {
		return nil, fmt.Errorf("failed to find item: %w", err)
	}
	key := cache.Key(businessID, cache.EntityItemNotes, itemID)
	return fetchCached(ctx, s.cache, businessID, key,
		[]cache.Entity{cache.EntityItemNotes},
		func() ([]models.ItemNote, error) {
			return s.itemRepo.ListNotes(itemID)
		})
}

// DeleteNote removes a note from an item
func (s *ItemService) DeleteNote(ctx context.Context, businessID, itemID, noteID uint64) error {
	if _, err := s.itemRepo.FindByID(businessID, itemID); err != nil {
		return fmt.Errorf("failed to find item: %w", err)
	}
	if err := s.itemRepo.DeleteNote(itemID, noteID); err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	invalidate(ctx, s.cache, businessID, cache.EntityItemNotes)
	return nil
}
