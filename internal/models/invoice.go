package models

import "time"

type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// Invoice aggregate fields (Subtotal, TaxAmount, Total) are derived from the
// line items and recomputed in the same transaction as any line-item write.
type Invoice struct {
	ID             uint64        `gorm:"primarykey" json:"id"`
	BusinessID     uint64        `gorm:"not null;index;uniqueIndex:ux_invoice_number,priority:1" json:"business_id"`
	Number         string        `gorm:"type:varchar(50);not null;uniqueIndex:ux_invoice_number,priority:2" json:"number"`
	ContactID      uint64        `gorm:"not null" json:"contact_id"`
	ItemID         *uint64       `json:"item_id"`
	Status         InvoiceStatus `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`
	IssueDate      time.Time     `gorm:"not null" json:"issue_date"`
	DueDate        *time.Time    `json:"due_date"`
	TaxRate        float64       `gorm:"not null;default:0" json:"tax_rate"`
	DiscountAmount float64       `gorm:"not null;default:0" json:"discount_amount"`
	Subtotal       float64       `gorm:"not null;default:0" json:"subtotal"`
	TaxAmount      float64       `gorm:"not null;default:0" json:"tax_amount"`
	Total          float64       `gorm:"not null;default:0" json:"total"`
	PaidDate       *time.Time    `json:"paid_date"`
	Notes          string        `gorm:"type:text" json:"notes"`
	CreatedBy      uint64        `gorm:"not null" json:"created_by"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`

	// Relations
	Contact   Contact           `gorm:"foreignKey:ContactID" json:"contact,omitempty"`
	Item      *Item             `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	LineItems []InvoiceLineItem `gorm:"foreignKey:InvoiceID" json:"line_items,omitempty"`
	Payments  []Payment         `gorm:"foreignKey:InvoiceID" json:"payments,omitempty"`
}

type InvoiceLineItem struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	InvoiceID   uint64    `gorm:"not null;index" json:"invoice_id"`
	Position    int       `gorm:"not null" json:"position"`
	Description string    `gorm:"type:varchar(255);not null" json:"description"`
	Quantity    float64   `gorm:"not null;default:1" json:"quantity"`
	UnitPrice   float64   `gorm:"not null;default:0" json:"unit_price"`
	Total       float64   `gorm:"not null;default:0" json:"total"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Payment struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	InvoiceID uint64    `gorm:"not null;index" json:"invoice_id"`
	Amount    float64   `gorm:"not null" json:"amount"`
	PaidAt    time.Time `gorm:"not null" json:"paid_at"`
	Method    string    `gorm:"type:varchar(50)" json:"method"`
	Note      string    `gorm:"type:varchar(255)" json:"note"`
	CreatedBy uint64    `gorm:"not null" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}
