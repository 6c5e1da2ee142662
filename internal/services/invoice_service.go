package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/opsdesk/opsdesk-api/internal/billing"
	"github.com/opsdesk/opsdesk-api/internal/cache"
	"github.com/opsdesk/opsdesk-api/internal/models"
	"github.com/opsdesk/opsdesk-api/internal/repository"
)

var (
	ErrInvoiceStatusInvalid = errors.New("invalid invoice status")
	ErrInvoiceNotDraft      = errors.New("only draft invoices can be edited")
	ErrLineDescriptionEmpty = errors.New("line item description is required")
	ErrLineQuantityInvalid  = errors.New("line item quantity must be positive")
	ErrPaymentAmountInvalid = errors.New("payment amount must be positive")
	ErrInvoiceAlreadyPaid   = errors.New("invoice is already paid")
	ErrInvoiceCancelled     = errors.New("invoice is cancelled")
	ErrInvoiceTransition    = errors.New("invalid invoice status transition")
)

// InvoiceService handles invoices, line items and payments
type InvoiceService struct {
	invoiceRepo repository.InvoiceRepository
	cache       cache.Cache
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(invoiceRepo repository.InvoiceRepository, c cache.Cache) *InvoiceService {
	return &InvoiceService{invoiceRepo: invoiceRepo, cache: c}
}

// LineItemInput represents one line of an invoice
type LineItemInput struct {
	Description string
	Quantity    float64
	UnitPrice   float64
}

// CreateInvoiceInput represents input for creating an invoice
type CreateInvoiceInput struct {
	BusinessID     uint64
	ContactID      uint64
	ItemID         *uint64
	IssueDate      time.Time
	DueDate        *time.Time
	TaxRate        float64
	DiscountAmount float64
	Notes          string
	LineItems      []LineItemInput
	CreatedBy      uint64
}

// Create creates a draft invoice with a generated sequential number and its
// line items, totals computed up front.
func (s *InvoiceService) Create(ctx context.Context, input CreateInvoiceInput) (*models.Invoice, error) {
	lineItems := make([]models.InvoiceLineItem, 0, len(input.LineItems))
	for i, li := range input.LineItems {
		if strings.TrimSpace(li.Description) == "" {
			return nil, ErrLineDescriptionEmpty
		}
		if li.Quantity <= 0 {
			return nil, ErrLineQuantityInvalid
		}
		lineItems = append(lineItems, models.InvoiceLineItem{
			Position:    i + 1,
			Description: strings.TrimSpace(li.Description),
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
			Total:       billing.LineTotal(li.Quantity, li.UnitPrice),
		})
	}

	count, err := s.invoiceRepo.Count(input.BusinessID)
	if err != nil {
		return nil, fmt.Errorf("failed to count invoices: %w", err)
	}

	issueDate := input.IssueDate
	if issueDate.IsZero() {
		issueDate = time.Now()
	}

	totals := billing.ComputeTotals(lineItems, input.TaxRate, input.DiscountAmount)
	invoice := &models.Invoice{
		BusinessID:     input.BusinessID,
		Number:         fmt.Sprintf("INV-%04d", count+1),
		ContactID:      input.ContactID,
		ItemID:         input.ItemID,
		Status:         models.InvoiceStatusDraft,
		IssueDate:      issueDate,
		DueDate:        input.DueDate,
		TaxRate:        input.TaxRate,
		DiscountAmount: input.DiscountAmount,
		Subtotal:       totals.Subtotal,
		TaxAmount:      totals.TaxAmount,
		Total:          totals.Total,
		Notes:          input.Notes,
		CreatedBy:      input.CreatedBy,
	}

	if err := s.invoiceRepo.CreateWithLineItems(invoice, lineItems); err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}

	invalidate(ctx, s.cache, input.BusinessID, cache.EntityInvoices, cache.EntityInvoiceLineItems)
	return invoice, nil
}

// Get returns an invoice with its line items and payments
func (s *InvoiceService) Get(businessID, id uint64) (*models.Invoice, error) {
	return s.invoiceRepo.FindByID(businessID, id, "Contact", "LineItems", "Payments")
}

// List lists invoices with filtering and pagination
func (s *InvoiceService) List(ctx context.Context, filter repository.InvoiceFilter) ([]models.Invoice, int64, error) {
	key := cache.Key(filter.BusinessID, cache.EntityInvoices, filter)

	type page struct {
		Invoices []models.Invoice `json:"invoices"`
		Total    int64            `json:"total"`
	}
	result, err := fetchCached(ctx, s.cache, filter.BusinessID, key,
		[]cache.Entity{cache.EntityInvoices},
		func() (page, error) {
			invoices, total, err := s.invoiceRepo.List(filter)
			return page{Invoices: invoices, Total: total}, err
		})
	if err != nil {
		return nil, 0, err
	}
	return result.Invoices, result.Total, nil
}

// UpdateInvoiceInput represents editable invoice header fields
type UpdateInvoiceInput struct {
	ContactID      *uint64
	ItemID         *uint64
	IssueDate      *time.Time
	DueDate        *time.Time
	TaxRate        *float64
	DiscountAmount *float64
	Notes          *string
}

// Update edits a draft invoice's header fields; totals are recomputed when
// tax rate or discount change.
func (s *InvoiceService) Update(ctx context.Context, businessID, id uint64, input UpdateInvoiceInput) (*models.Invoice, error) {
	invoice, err := s.invoiceRepo.FindByID(businessID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find invoice: %w", err)
	}
	if invoice.Status != models.InvoiceStatusDraft {
		return nil, ErrInvoiceNotDraft
	}

	if input.ContactID != nil {
		invoice.ContactID = *input.ContactID
	}
	if input.ItemID != nil {
		invoice.ItemID = input.ItemID
	}
	if input.IssueDate != nil {
		invoice.IssueDate = *input.IssueDate
	}
	if input.DueDate != nil {
		invoice.DueDate = input.DueDate
	}
	if input.TaxRate != nil {
		invoice.TaxRate = *input.TaxRate
	}
	if input.DiscountAmount != nil {
		invoice.DiscountAmount = *input.DiscountAmount
	}
	if input.Notes != nil {
		invoice.Notes = *input.Notes
	}

	if err := s.invoiceRepo.UpdateWithRecalc(invoice); err != nil {
		return nil, fmt.Errorf("failed to update invoice: %w", err)
	}

	invalidate(ctx, s.cache, businessID, cache.EntityInvoices)
	return s.invoiceRepo.FindByID(businessID, id, "LineItems")
}

// validTransitions maps each invoice status to the statuses it may move to
// directly. Paid is reached through RecordPayment, never set by hand.
var validTransitions = map[models.InvoiceStatus][]models.InvoiceStatus{
	models.InvoiceStatusDraft:   {models.InvoiceStatusSent, models.InvoiceStatusCancelled},
	models.InvoiceStatusSent:    {models.InvoiceStatusCancelled},
	models.InvoiceStatusOverdue: {models.InvoiceStatusCancelled},
}

// ChangeStatus moves an invoice along the allowed status transitions
func (s *InvoiceService) ChangeStatus(ctx context.Context, businessID, id uint64, status models.InvoiceStatus) (*models.Invoice, error) {
	switch status {
	case models.InvoiceStatusDraft, models.InvoiceStatusSent, models.InvoiceStatusPaid,
		models.InvoiceStatusOverdue, models.InvoiceStatusCancelled:
	default:
		return nil, ErrInvoiceStatusInvalid
	}

	invoice, err := s.invoiceRepo.FindByID(businessID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find invoice: %w", err)
	}

	allowed := false
	for _, next := range validTransitions[invoice.Status] {
		if next == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, ErrInvoiceTransition
	}

	invoice.Status = status
	if err := s.invoiceRepo.UpdateWithRecalc(invoice); err != nil {
		return nil, fmt.Errorf("failed to change status: %w", err)
	}

	invalidate(ctx, s.cache, businessID, cache.EntityInvoices)
	return invoice, nil
}

// Delete deletes an invoice with its line items and payments
func (s *InvoiceService) Delete(ctx context.Context, businessID, id uint64) error {
	if err := s.invoiceRepo.Delete(businessID, id); err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}
	invalidate(ctx, s.cache, businessID,
		cache.EntityInvoices, cache.EntityInvoiceLineItems, cache.EntityPayments)
	return nil
}

// AddLineItem appends a line to a draft invoice; the stored totals are
// recomputed in the same transaction.
func (s *InvoiceService) AddLineItem(ctx context.Context, businessID, invoiceID uint64, input LineItemInput) (*models.Invoice, error) {
	if strings.TrimSpace(input.Description) == "" {
		return nil, ErrLineDescriptionEmpty
	}
	if input.Quantity <= 0 {
		return nil, ErrLineQuantityInvalid
	}

	invoice, err := s.invoiceRepo.FindByID(businessID, invoiceID, "LineItems")
	if err != nil {
		return nil, fmt.Errorf("failed to find invoice: %w", err)
	}
	if invoice.Status != models.InvoiceStatusDraft {
		return nil, ErrInvoiceNotDraft
	}

	lineItem := &models.InvoiceLineItem{
		InvoiceID:   invoiceID,
		Position:    len(invoice.LineItems) + 1,
		Description: strings.TrimSpace(input.Description),
		Quantity:    input.Quantity,
		UnitPrice:   input.UnitPrice,
		Total:       billing.LineTotal(input.Quantity, input.UnitPrice),
	}
	if err := s.invoiceRepo.AddLineItem(businessID, lineItem); err != nil {
		return nil, fmt.Errorf("failed to add line item: %w", err)
	}

	invalidate(ctx, s.cache, businessID, cache.EntityInvoices, cache.EntityInvoiceLineItems)
	return s.invoiceRepo.FindByID(businessID, invoiceID, "LineItems")
}

// UpdateLineItemInput represents editable line item fields
type UpdateLineItemInput struct {
	Description *string
	Quantity    *float64
	UnitPrice   *float64
}

// UpdateLineItem edits a line on a draft invoice, recomputing totals
func (s *InvoiceService) UpdateLineItem(ctx context.Context, businessID, invoiceID, lineItemID uint64, input UpdateLineItemInput) (*models.Invoice, error) {
	invoice, err := s.invoiceRepo.FindByID(businessID, invoiceID, "LineItems")
	if err != nil {
		return nil, fmt.Errorf("failed to find invoice: %w", err)
	}
	if invoice.Status != models.InvoiceStatusDraft {
		return nil, ErrInvoiceNotDraft
	}

	var lineItem *models.InvoiceLineItem
	for i := range invoice.LineItems {
		if invoice.LineItems[i].ID == lineItemID {
			lineItem = &invoice.LineItems[i]
			break
		}
	}
	if lineItem == nil {
		return nil, fmt.Errorf("line item %d not found on invoice %d", lineItemID, invoiceID)
	}

	if input.Description != nil {
		if strings.TrimSpace(*input.Description) == "" {
			return nil, ErrLineDescriptionEmpty
		}
		lineItem.Description = strings.TrimSpace(*input.Description)
	}
	if input.Quantity != nil {
		if *input.Quantity <= 0 {
			return nil, ErrLineQuantityInvalid
		}
		lineItem.Quantity = *input.Quantity
	}
	if input.UnitPrice != nil {
		lineItem.UnitPrice = *input.UnitPrice
	}
	lineItem.Total = billing.LineTotal(lineItem.Quantity, lineItem.UnitPrice)

	if err := s.invoiceRepo.UpdateLineItem(businessID, lineItem); err != nil {
		return nil, fmt.Errorf("failed to update line item: %w", err)
	}

	invalidate(ctx, s.cache, businessID, cache.EntityInvoices, cache.EntityInvoiceLineItems)
	return s.invoiceRepo.FindByID(businessID, invoiceID, "LineItems")
}

// DeleteLineItem removes a line from a draft invoice, recomputing totals
func (s *InvoiceService) DeleteLineItem(ctx context.Context, businessID, invoiceID, lineItemID uint64) (*models.Invoice, error) {
	invoice, err := s.invoiceRepo.FindByID(businessID, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to find invoice: %w", err)
	}
	if invoice.Status != models.InvoiceStatusDraft {
		return nil, ErrInvoiceNotDraft
	}

	if err := s.invoiceRepo.DeleteLineItem(businessID, invoiceID, lineItemID); err != nil {
		return nil, fmt.Errorf("failed to delete line item: %w", err)
	}

	invalidate(ctx, s.cache, businessID, cache.EntityInvoices, cache.EntityInvoiceLineItems)
	return s.invoiceRepo.FindByID(businessID, invoiceID, "LineItems")
}

// RecordPaymentInput represents input for recording a payment
type RecordPaymentInput struct {
	Amount    float64
	PaidAt    time.Time
	Method    string
	Note      string
	CreatedBy uint64
}

// RecordPayment records a payment against a sent or overdue invoice. When
// cumulative payments reach the total the invoice flips to paid with the
// payment date stamped, in the same transaction.
func (s *InvoiceService) RecordPayment(ctx context.Context, businessID, invoiceID uint64, input RecordPaymentInput) (*models.Invoice, error) {
	if input.Amount <= 0 {
		return nil, ErrPaymentAmountInvalid
	}

	invoice, err := s.invoiceRepo.FindByID(businessID, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to find invoice: %w", err)
	}
	switch invoice.Status {
	case models.InvoiceStatusPaid:
		return nil, ErrInvoiceAlreadyPaid
	case models.InvoiceStatusCancelled:
		return nil, ErrInvoiceCancelled
	}

	paidAt := input.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now()
	}

	payment := &models.Payment{
		InvoiceID: invoiceID,
		Amount:    input.Amount,
		PaidAt:    paidAt,
		Method:    input.Method,
		Note:      input.Note,
		CreatedBy: input.CreatedBy,
	}
	updated, err := s.invoiceRepo.RecordPayment(businessID, payment)
	if err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	invalidate(ctx, s.cache, businessID, cache.EntityInvoices, cache.EntityPayments)
	return updated, nil
}

// MarkOverdue flips sent invoices past their due date to overdue
func (s *InvoiceService) MarkOverdue(ctx context.Context, businessID uint64) (int64, error) {
	flipped, err := s.invoiceRepo.MarkOverdue(businessID, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to mark overdue invoices: %w", err)
	}
	if flipped > 0 {
		invalidate(ctx, s.cache, businessID, cache.EntityInvoices)
	}
	return flipped, nil
}
