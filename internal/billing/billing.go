// Package billing holds the pure derived-aggregate calculations: invoice
// totals and time-entry duration/billing. Repositories run them inside the
// same transaction as the write that made them stale.
package billing

import (
	"math"
	"time"

	"github.com/opsdesk/opsdesk-api/internal/models"
)

// Totals are the derived aggregate fields of an invoice.
type Totals struct {
	Subtotal  float64
	TaxAmount float64
	Total     float64
}

// LineTotal computes a line item's stored total.
func LineTotal(quantity, unitPrice float64) float64 {
	return round2(quantity * unitPrice)
}

// ComputeTotals recomputes invoice aggregates from the persisted line items.
// subtotal = Σ line totals, tax = subtotal × rate/100,
// total = subtotal + tax − discount. Idempotent by construction.
func ComputeTotals(lineItems []models.InvoiceLineItem, taxRate, discountAmount float64) Totals {
	var subtotal float64
	for _, li := range lineItems {
		subtotal += LineTotal(li.Quantity, li.UnitPrice)
	}
	subtotal = round2(subtotal)
	tax := round2(subtotal * taxRate / 100)
	return Totals{
		Subtotal:  subtotal,
		TaxAmount: tax,
		Total:     round2(subtotal + tax - discountAmount),
	}
}

// PaymentsCover reports whether cumulative payments reach the invoice total.
// A small epsilon absorbs float accumulation on the sum.
func PaymentsCover(payments []models.Payment, total float64) bool {
	var paid float64
	for _, p := range payments {
		paid += p.Amount
	}
	return paid >= total-0.005
}

// DurationMinutes derives a time entry's duration, rounded to the nearest
// minute.
func DurationMinutes(start, end time.Time) int {
	return int(math.Round(end.Sub(start).Minutes()))
}

// BilledAmount derives the billed amount from an hourly rate and a duration.
// Nil when either input is missing.
func BilledAmount(hourlyRate *float64, durationMinutes *int) *float64 {
	if hourlyRate == nil || durationMinutes == nil {
		return nil
	}
	amount := round2(*hourlyRate / 60 * float64(*durationMinutes))
	return &amount
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
