package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/opsdesk/opsdesk-api/internal/cache"
	"github.com/opsdesk/opsdesk-api/internal/csvutil"
	"github.com/opsdesk/opsdesk-api/internal/models"
	"github.com/opsdesk/opsdesk-api/internal/repository"
)

var (
	ErrContactNameEmpty   = errors.New("contact name is required")
	ErrContactTypeInvalid = errors.New("invalid contact type")
	ErrNoIDsGiven         = errors.New("no ids given")
	ErrCSVMissingHeader   = errors.New("csv file is missing the header row")
)

// contactCSVHeader is the fixed export column order; import accepts the same.
var contactCSVHeader = []string{"name", "email", "phone", "type", "address", "notes"}

// ContactService handles contact CRUD, item links and CSV import/export
type ContactService struct {
	contactRepo repository.ContactRepository
	cache       cache.Cache
}

// NewContactService creates a new ContactService
func NewContactService(contactRepo repository.ContactRepository, c cache.Cache) *ContactService {
	return &ContactService{contactRepo: contactRepo, cache: c}
}

// CreateContactInput represents input for creating a contact
type CreateContactInput struct {
	BusinessID   uint64
	Name         string
	Email        string
	Phone        string
	Type         models.ContactType
	CustomTypeID *uint64
	Address      string
	Notes        string
	CreatedBy    uint64
}

func validContactType(t models.ContactType) bool {
	switch t {
	case models.ContactTypeClient, models.ContactTypeVendor, models.ContactTypeLandlord,
		models.ContactTypeTenant, models.ContactTypeContractor, models.ContactTypeOther:
		return true
	}
	return false
}

// Create creates a new contact
func (s *ContactService) Create(ctx context.Context, input CreateContactInput) (*models.Contact, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrContactNameEmpty
	}
	if input.Type == "" {
		input.Type = models.ContactTypeOther
	}
	if !validContactType(input.Type) {
		return nil, ErrContactTypeInvalid
	}

	contact := &models.Contact{
		BusinessID:   input.BusinessID,
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.TrimSpace(input.Email),
		Phone:        strings.TrimSpace(input.Phone),
		Type:         input.Type,
		CustomTypeID: input.CustomTypeID,
		Address:      input.Address,
		Notes:        input.Notes,
		CreatedBy:    input.CreatedBy,
	}
	if err := s.contactRepo.Create(contact); err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}

	invalidate(ctx, s.cache, input.BusinessID, cache.EntityContacts)
	return contact, nil
}

// Get returns a contact with its custom type and item links
func (s *ContactService) Get(businessID, id uint64) (*models.Contact, error) {
	return s.contactRepo.FindByID(businessID, id, "CustomType", "ItemLinks.Item")
}

// List lists contacts with filtering and pagination
func (s *ContactService) List(ctx context.Context, filter repository.ContactFilter) ([]models.Contact, int64, error) {
	key := cache.Key(filter.BusinessID, cache.EntityContacts, filter)

	type page struct {
		Contacts []models.Contact `json:"contacts"`
		Total    int64            `json:"total"`
	}
	result, err := fetchCached(ctx, s.cache, filter.BusinessID, key,
		[]cache.Entity{cache.EntityContacts},
		func() (page, error) {
			contacts, total, err := s.contactRepo.List(filter)
			return page{Contacts: contacts, Total: total}, err
		})
	if err != nil {
		return nil, 0, err
	}
	return result.Contacts, result.Total, nil
}

// UpdateContactInput represents input for updating a contact
type UpdateContactInput struct {
	Name         *string
	Email        *string
	Phone        *string
	Type         *models.ContactType
	CustomTypeID *uint64
	ClearCustom  bool
	Address      *string
	Notes        *string
}

// Update updates a contact
func (s *ContactService) Update(ctx context.Context, businessID, id uint64, input UpdateContactInput) (*models.Contact, error) {
	contact, err := s.contactRepo.FindByID(businessID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find contact: %w", err)
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, ErrContactNameEmpty
		}
		contact.Name = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil {
		contact.Email = strings.TrimSpace(*input.Email)
	}
	if input.Phone != nil {
		contact.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Type != nil {
		if !validContactType(*input.Type) {
			return nil, ErrContactTypeInvalid
		}
		contact.Type = *input.Type
	}
	if input.CustomTypeID != nil {
		contact.CustomTypeID = input.CustomTypeID
	}
	if input.ClearCustom {
		contact.CustomTypeID = nil
	}
	if input.Address != nil {
		contact.Address = *input.Address
	}
	if input.Notes != nil {
		contact.Notes = *input.Notes
	}

	if err := s.contactRepo.Update(contact); err != nil {
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}

	invalidate(ctx, s.cache, businessID, cache.EntityContacts)
	return contact, nil
}

// Delete deletes a contact and its item links
func (s *ContactService) Delete(ctx context.Context, businessID, id uint64) error {
	if err := s.contactRepo.Delete(businessID, id); err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	invalidate(ctx, s.cache, businessID, cache.EntityContacts, cache.EntityContactItems)
	return nil
}

// BulkDelete deletes the given contacts in one transaction
func (s *ContactService) BulkDelete(ctx context.Context, businessID uint64, ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrNoIDsGiven
	}
	deleted, err := s.contactRepo.BulkDelete(businessID, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to bulk delete contacts: %w", err)
	}
	invalidate(ctx, s.cache, businessID, cache.EntityContacts, cache.EntityContactItems)
	return deleted, nil
}

// LinkItem links a contact to an item
func (s *ContactService) LinkItem(ctx context.Context, businessID, contactID, itemID uint64, role, note string) (*models.ContactItem, error) {
	if _, err := s.contactRepo.FindByID(businessID, contactID); err != nil {
		return nil, fmt.Errorf("failed to find contact: %w", err)
	}

	link := &models.ContactItem{
		ContactID: contactID,
		ItemID:    itemID,
		Role:      role,
		Note:      note,
	}
	if err := s.contactRepo.LinkItem(link); err != nil {
		return nil, fmt.Errorf("failed to link item: %w", err)
	}

	invalidate(ctx, s.cache, businessID, cache.EntityContactItems)
	return link, nil
}

// UnlinkItem removes a contact-item link
func (s *ContactService) UnlinkItem(ctx context.Context, businessID, contactID, itemID uint64) error {
	if _, err := s.contactRepo.FindByID(businessID, contactID); err != nil {
		return fmt.Errorf("failed to find contact: %w", err)
	}
	if err := s.contactRepo.UnlinkItem(contactID, itemID); err != nil {
		return fmt.Errorf("failed to unlink item: %w", err)
	}
	invalidate(ctx, s.cache, businessID, cache.EntityContactItems)
	return nil
}

// ExportCSV renders all contacts of the business as CSV with a header row.
func (s *ContactService) ExportCSV(businessID uint64) (string, error) {
	filter := repository.ContactFilter{BusinessID: businessID}
	contacts, _, err := s.contactRepo.List(filter)
	if err != nil {
		return "", fmt.Errorf("failed to list contacts: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(csvutil.FormatRow(contactCSVHeader))
	sb.WriteString("\n")
	for _, c := range contacts {
		sb.WriteString(csvutil.FormatRow([]string{
			c.Name, c.Email, c.Phone, string(c.Type), c.Address, c.Notes,
		}))
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// ImportResult reports the outcome of a CSV import.
type ImportResult struct {
	Imported int      `json:"imported"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

// ImportCSV imports contacts from CSV content. Rows are independent: a
// malformed row is counted and reported without aborting the rest.
func (s *ContactService) ImportCSV(ctx context.Context, businessID, createdBy uint64, data string) (*ImportResult, error) {
	lines := csvutil.SplitLines(data)
	if len(lines) == 0 {
		return nil, ErrCSVMissingHeader
	}

	header := csvutil.ParseLine(lines[0])
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := col["name"]; !ok {
		return nil, ErrCSVMissingHeader
	}

	pick := func(fields []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[i])
	}

	result := &ImportResult{}
	for n, line := range lines[1:] {
		fields := csvutil.ParseLine(line)

		name := pick(fields, "name")
		if name == "" {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: name is required", n+2))
			continue
		}

		ctype := models.ContactType(strings.ToLower(pick(fields, "type")))
		if ctype == "" {
			ctype = models.ContactTypeOther
		}
		if !validContactType(ctype) {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: unknown type %q", n+2, ctype))
			continue
		}

		contact := &models.Contact{
			BusinessID: businessID,
			Name:       name,
			Email:      pick(fields, "email"),
			Phone:      pick(fields, "phone"),
			Type:       ctype,
			Address:    pick(fields, "address"),
			Notes:      pick(fields, "notes"),
			CreatedBy:  createdBy,
		}
		if err := s.contactRepo.Create(contact); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", n+2, err))
			continue
		}
		result.Imported++
	}

	if result.Imported > 0 {
		invalidate(ctx, s.cache, businessID, cache.EntityContacts)
	}
	return result, nil
}
