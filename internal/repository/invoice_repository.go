package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/opsdesk/opsdesk-api/internal/billing"
	"github.com/opsdesk/opsdesk-api/internal/database"
	"github.com/opsdesk/opsdesk-api/internal/models"
)

// GormInvoiceRepository is a GORM implementation of InvoiceRepository
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new InvoiceRepository
func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// CreateWithLineItems creates the invoice and its line items atomically,
// computing line and invoice totals before they hit the table.
func (r *GormInvoiceRepository) CreateWithLineItems(invoice *models.Invoice, lineItems []models.InvoiceLineItem) error {
	for i := range lineItems {
		lineItems[i].Position = i + 1
		lineItems[i].Total = billing.LineTotal(lineItems[i].Quantity, lineItems[i].UnitPrice)
	}
	totals := billing.ComputeTotals(lineItems, invoice.TaxRate, invoice.DiscountAmount)
	invoice.Subtotal = totals.Subtotal
	invoice.TaxAmount = totals.TaxAmount
	invoice.Total = totals.Total

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(invoice).Error; err != nil {
			return err
		}
		for i := range lineItems {
			lineItems[i].InvoiceID = invoice.ID
		}
		if len(lineItems) > 0 {
			if err := tx.Create(&lineItems).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// FindByID finds an invoice by ID with optional preloading
func (r *GormInvoiceRepository) FindByID(businessID, id uint64, preload ...string) (*models.Invoice, error) {
	var invoice models.Invoice
	query := r.db.Where("business_id = ?", businessID)
	for _, p := range preload {
		query = query.Preload(p)
	}
	if err := query.First(&invoice, id).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

// List retrieves invoices with filtering and pagination
func (r *GormInvoiceRepository) List(filter InvoiceFilter) ([]models.Invoice, int64, error) {
	var invoices []models.Invoice

	query := r.db.Model(&models.Invoice{}).Scopes(database.TenantScope(filter.BusinessID))

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.ContactID != nil {
		query = query.Where("contact_id = ?", *filter.ContactID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("created_at DESC").Scopes(database.Paginate(filter.Page, filter.PageSize))

	if err := listQuery.Preload("Contact").Find(&invoices).Error; err != nil {
		return nil, 0, err
	}

	return invoices, total, nil
}

// Count counts a business's invoices
func (r *GormInvoiceRepository) Count(businessID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.Invoice{}).Where("business_id = ?", businessID).Count(&count).Error
	return count, err
}

// UpdateWithRecalc saves header fields and recomputes totals in one transaction
func (r *GormInvoiceRepository) UpdateWithRecalc(invoice *models.Invoice) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(invoice).Error; err != nil {
			return err
		}
		return recalcTotals(tx, invoice.BusinessID, invoice.ID)
	})
}

// Delete removes an invoice with its line items and payments
func (r *GormInvoiceRepository) Delete(businessID, id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", id).Delete(&models.InvoiceLineItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", id).Delete(&models.Payment{}).Error; err != nil {
			return err
		}
		return tx.Where("business_id = ?", businessID).Delete(&models.Invoice{}, id).Error
	})
}

// AddLineItem appends a line item and recomputes totals in one transaction
func (r *GormInvoiceRepository) AddLineItem(businessID uint64, lineItem *models.InvoiceLineItem) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := requireInvoice(tx, businessID, lineItem.InvoiceID); err != nil {
			return err
		}

		var maxPosition int
		if err := tx.Model(&models.InvoiceLineItem{}).
			Where("invoice_id = ?", lineItem.InvoiceID).
			Select("COALESCE(MAX(position), 0)").
			Scan(&maxPosition).Error; err != nil {
			return err
		}
		lineItem.Position = maxPosition + 1
		lineItem.Total = billing.LineTotal(lineItem.Quantity, lineItem.UnitPrice)

		if err := tx.Create(lineItem).Error; err != nil {
			return err
		}
		return recalcTotals(tx, businessID, lineItem.InvoiceID)
	})
}

// UpdateLineItem saves a line item and recomputes totals in one transaction
func (r *GormInvoiceRepository) UpdateLineItem(businessID uint64, lineItem *models.InvoiceLineItem) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := requireInvoice(tx, businessID, lineItem.InvoiceID); err != nil {
			return err
		}
		lineItem.Total = billing.LineTotal(lineItem.Quantity, lineItem.UnitPrice)
		if err := tx.Save(lineItem).Error; err != nil {
			return err
		}
		return recalcTotals(tx, businessID, lineItem.InvoiceID)
	})
}

// DeleteLineItem removes a line item and recomputes totals in one transaction
func (r *GormInvoiceRepository) DeleteLineItem(businessID, invoiceID, lineItemID uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := requireInvoice(tx, businessID, invoiceID); err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", invoiceID).
			Delete(&models.InvoiceLineItem{}, lineItemID).Error; err != nil {
			return err
		}
		return recalcTotals(tx, businessID, invoiceID)
	})
}

// RecordPayment inserts the payment and flips the invoice to paid when
// cumulative payments reach the total, in one transaction.
func (r *GormInvoiceRepository) RecordPayment(businessID uint64, payment *models.Payment) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("business_id = ?", businessID).
			First(&invoice, payment.InvoiceID).Error; err != nil {
			return err
		}

		if err := tx.Create(payment).Error; err != nil {
			return err
		}

		var payments []models.Payment
		if err := tx.Where("invoice_id = ?", invoice.ID).Find(&payments).Error; err != nil {
			return err
		}

		if invoice.Status != models.InvoiceStatusPaid && billing.PaymentsCover(payments, invoice.Total) {
			paidDate := payment.PaidAt
			invoice.Status = models.InvoiceStatusPaid
			invoice.PaidDate = &paidDate
			return tx.Model(&invoice).
				Updates(map[string]interface{}{"status": invoice.Status, "paid_date": invoice.PaidDate}).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// MarkOverdue flips sent invoices past their due date
func (r *GormInvoiceRepository) MarkOverdue(businessID uint64, asOf time.Time) (int64, error) {
	result := r.db.Model(&models.Invoice{}).
		Where("business_id = ? AND status = ? AND due_date IS NOT NULL AND due_date < ?",
			businessID, models.InvoiceStatusSent, asOf).
		Update("status", models.InvoiceStatusOverdue)
	return result.RowsAffected, result.Error
}

// SumUnpaid sums the total of sent and overdue invoices
func (r *GormInvoiceRepository) SumUnpaid(businessID uint64) (float64, error) {
	var sum float64
	err := r.db.Model(&models.Invoice{}).
		Where("business_id = ? AND status IN ?", businessID,
			[]models.InvoiceStatus{models.InvoiceStatusSent, models.InvoiceStatusOverdue}).
		Select("COALESCE(SUM(total), 0)").
		Scan(&sum).Error
	return sum, err
}

// requireInvoice guards line-item writes against cross-tenant invoice ids.
func requireInvoice(tx *gorm.DB, businessID, invoiceID uint64) error {
	var count int64
	if err := tx.Model(&models.Invoice{}).
		Where("business_id = ? AND id = ?", businessID, invoiceID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// recalcTotals recomputes the invoice aggregates from persisted line items.
// Runs inside the caller's transaction so a concurrent line-item write
// cannot interleave between the read and the write.
func recalcTotals(tx *gorm.DB, businessID, invoiceID uint64) error {
	var invoice models.Invoice
	if err := tx.Where("business_id = ?", businessID).First(&invoice, invoiceID).Error; err != nil {
		return err
	}

	var lineItems []models.InvoiceLineItem
	if err := tx.Where("invoice_id = ?", invoiceID).Find(&lineItems).Error; err != nil {
		return err
	}

	totals := billing.ComputeTotals(lineItems, invoice.TaxRate, invoice.DiscountAmount)
	return tx.Model(&models.Invoice{}).
		Where("id = ?", invoiceID).
		Updates(map[string]interface{}{
			"subtotal":   totals.Subtotal,
			"tax_amount": totals.TaxAmount,
			"total":      totals.Total,
		}).Error
}
