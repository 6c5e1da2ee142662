package dto

import (
	"time"

	"github.com/opsdesk/opsdesk-api/internal/models"
)

// InvoiceDTO represents an invoice in API responses
type InvoiceDTO struct {
	ID             uint64               `json:"id"`
	Number         string               `json:"number"`
	ContactID      uint64               `json:"contact_id"`
	ContactName    string               `json:"contact_name,omitempty"`
	ItemID         *uint64              `json:"item_id"`
	Status         models.InvoiceStatus `json:"status"`
	IssueDate      time.Time            `json:"issue_date"`
	DueDate        *time.Time           `json:"due_date"`
	TaxRate        float64              `json:"tax_rate"`
	DiscountAmount float64              `json:"discount_amount"`
	Subtotal       float64              `json:"subtotal"`
	TaxAmount      float64              `json:"tax_amount"`
	Total          float64              `json:"total"`
	PaidDate       *time.Time           `json:"paid_date"`
	Notes          string               `json:"notes"`
	CreatedAt      time.Time            `json:"created_at"`

	LineItems []InvoiceLineItemDTO `json:"line_items,omitempty"`
	Payments  []PaymentDTO         `json:"payments,omitempty"`
}

// InvoiceLineItemDTO represents an invoice line in API responses
type InvoiceLineItemDTO struct {
	ID          uint64  `json:"id"`
	Position    int     `json:"position"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Total       float64 `json:"total"`
}

// PaymentDTO represents a recorded payment in API responses
type PaymentDTO struct {
	ID     uint64    `json:"id"`
	Amount float64   `json:"amount"`
	PaidAt time.Time `json:"paid_at"`
	Method string    `json:"method"`
	Note   string    `json:"note"`
}

// InvoiceListResponse represents a paginated list of invoices
type InvoiceListResponse struct {
	Invoices []InvoiceDTO `json:"invoices"`
	ListMeta
}

// ToInvoiceDTO converts an Invoice model to InvoiceDTO
func ToInvoiceDTO(invoice models.Invoice) InvoiceDTO {
	dto := InvoiceDTO{
		ID:             invoice.ID,
		Number:         invoice.Number,
		ContactID:      invoice.ContactID,
		ItemID:         invoice.ItemID,
		Status:         invoice.Status,
		IssueDate:      invoice.IssueDate,
		DueDate:        invoice.DueDate,
		TaxRate:        invoice.TaxRate,
		DiscountAmount: invoice.DiscountAmount,
		Subtotal:       invoice.Subtotal,
		TaxAmount:      invoice.TaxAmount,
		Total:          invoice.Total,
		PaidDate:       invoice.PaidDate,
		Notes:          invoice.Notes,
		CreatedAt:      invoice.CreatedAt,
	}
	if invoice.Contact.ID != 0 {
		dto.ContactName = invoice.Contact.Name
	}
	for _, li := range invoice.LineItems {
		dto.LineItems = append(dto.LineItems, InvoiceLineItemDTO{
			ID:          li.ID,
			Position:    li.Position,
			Description: li.Description,
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
			Total:       li.Total,
		})
	}
	for _, p := range invoice.Payments {
		dto.Payments = append(dto.Payments, PaymentDTO{
			ID:     p.ID,
			Amount: p.Amount,
			PaidAt: p.PaidAt,
			Method: p.Method,
			Note:   p.Note,
		})
	}
	return dto
}

// ToInvoiceListResponse converts invoices to a paginated response
func ToInvoiceListResponse(invoices []models.Invoice, page, pageSize int, totalCount int64) InvoiceListResponse {
	items := make([]InvoiceDTO, len(invoices))
	for i, invoice := range invoices {
		items[i] = ToInvoiceDTO(invoice)
	}
	return InvoiceListResponse{
		Invoices: items,
		ListMeta: NewListMeta(page, pageSize, totalCount),
	}
}
