package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/opsdesk/opsdesk-api/internal/dto"
	apierrors "github.com/opsdesk/opsdesk-api/internal/errors"
	"github.com/opsdesk/opsdesk-api/internal/middleware"
	"github.com/opsdesk/opsdesk-api/internal/models"
	"github.com/opsdesk/opsdesk-api/internal/repository"
	"github.com/opsdesk/opsdesk-api/internal/services"
	"github.com/opsdesk/opsdesk-api/internal/utils"
)

// InvoiceHandler coordinates invoice-related HTTP handlers.
type InvoiceHandler struct {
	invoiceService *services.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(invoiceService *services.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
	}
}

// lineItemRequest represents one invoice line in requests.
type lineItemRequest struct {
	Description string  `json:"description" binding:"required"`
	Quantity    float64 `json:"quantity" binding:"required"`
	UnitPrice   float64 `json:"unit_price"`
}

// CreateInvoice creates a draft invoice with its line items.
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	type CreateRequest struct {
		ContactID      uint64            `json:"contact_id" binding:"required"`
		ItemID         *uint64           `json:"item_id"`
		IssueDate      *time.Time        `json:"issue_date"`
		DueDate        *time.Time        `json:"due_date"`
		TaxRate        float64           `json:"tax_rate"`
		DiscountAmount float64           `json:"discount_amount"`
		Notes          string            `json:"notes"`
		LineItems      []lineItemRequest `json:"line_items"`
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.CreateInvoiceInput{
		ContactID:      req.ContactID,
		ItemID:         req.ItemID,
		DueDate:        req.DueDate,
		TaxRate:        req.TaxRate,
		DiscountAmount: req.DiscountAmount,
		Notes:          req.Notes,
	}
	if req.IssueDate != nil {
		input.IssueDate = *req.IssueDate
	}
	for _, li := range req.LineItems {
		input.LineItems = append(input.LineItems, services.LineItemInput{
			Description: li.Description,
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
		})
	}

	profile, _ := middleware.GetProfile(c)
	input.BusinessID = profile.BusinessID
	input.CreatedBy = profile.UserID

	invoice, err := h.invoiceService.Create(c.Request.Context(), input)
	if err != nil {
		respondInvoiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToInvoiceDTO(*invoice))
}

// GetInvoice returns an invoice with its line items and payments.
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid invoice ID")
		return
	}

	profile, _ := middleware.GetProfile(c)
	invoice, err := h.invoiceService.Get(profile.BusinessID, id)
	if err != nil {
		apierrors.NotFound(c, "Invoice not found")
		return
	}

	c.JSON(http.StatusOK, dto.ToInvoiceDTO(*invoice))
}

// ListInvoices lists invoices with filtering and pagination.
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	profile, _ := middleware.GetProfile(c)
	params := utils.GetPaginationParams(c)

	filter := repository.InvoiceFilter{
		BusinessID: profile.BusinessID,
		Page:       params.Page,
		PageSize:   params.Limit,
	}
	if raw := c.Query("status"); raw != "" {
		status := models.InvoiceStatus(raw)
		filter.Status = &status
	}
	if raw := c.Query("contact_id"); raw != "" {
		contactID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid contact ID")
			return
		}
		filter.ContactID = &contactID
	}

	invoices, total, err := h.invoiceService.List(c.Request.Context(), filter)
	if err != nil {
		apierrors.InternalError(c, "Failed to list invoices")
		return
	}

	c.JSON(http.StatusOK, dto.ToInvoiceListResponse(invoices, params.Page, params.Limit, total))
}

// UpdateInvoice edits a draft invoice's header fields.
func (h *InvoiceHandler) UpdateInvoice(c *gin.Context) {
	type UpdateRequest struct {
		ContactID      *uint64    `json:"contact_id"`
		ItemID         *uint64    `json:"item_id"`
		IssueDate      *time.Time `json:"issue_date"`
		DueDate        *time.Time `json:"due_date"`
		TaxRate        *float64   `json:"tax_rate"`
		DiscountAmount *float64   `json:"discount_amount"`
		Notes          *string    `json:"notes"`
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid invoice ID")
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	profile, _ := middleware.GetProfile(c)
	invoice, err := h.invoiceService.Update(c.Request.Context(), profile.BusinessID, id, services.UpdateInvoiceInput{
		ContactID:      req.ContactID,
		ItemID:         req.ItemID,
		IssueDate:      req.IssueDate,
		DueDate:        req.DueDate,
		TaxRate:        req.TaxRate,
		DiscountAmount: req.DiscountAmount,
		Notes:          req.Notes,
	})
	if err != nil {
		respondInvoiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToInvoiceDTO(*invoice))
}

// ChangeInvoiceStatus moves an invoice along its status transitions.
func (h *InvoiceHandler) ChangeInvoiceStatus(c *gin.Context) {
	type StatusRequest struct {
		Status models.InvoiceStatus `json:"status" binding:"required"`
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid invoice ID")
		return
	}

	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	profile, _ := middleware.GetProfile(c)
	invoice, err := h.invoiceService.ChangeStatus(c.Request.Context(), profile.BusinessID, id, req.Status)
	if err != nil {
		respondInvoiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToInvoiceDTO(*invoice))
}

// DeleteInvoice deletes an invoice.
func (h *InvoiceHandler) DeleteInvoice(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid invoice ID")
		return
	}

	profile, _ := middleware.GetProfile(c)
	if err := h.invoiceService.Delete(c.Request.Context(), profile.BusinessID, id); err != nil {
		apierrors.InternalError(c, "Failed to delete invoice")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invoice deleted"})
}

// AddLineItem appends a line to a draft invoice.
func (h *InvoiceHandler) AddLineItem(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid invoice ID")
		return
	}

	var req lineItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	profile, _ := middleware.GetProfile(c)
	invoice, err := h.invoiceService.AddLineItem(c.Request.Context(), profile.BusinessID, id, services.LineItemInput{
		Description: req.Description,
		Quantity:    req.Quantity,
		UnitPrice:   req.UnitPrice,
	})
	if err != nil {
		respondInvoiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToInvoiceDTO(*invoice))
}

// UpdateLineItem edits a line on a draft invoice.
func (h *InvoiceHandler) UpdateLineItem(c *gin.Context) {
	type UpdateRequest struct {
		Description *string  `json:"description"`
		Quantity    *float64 `json:"quantity"`
		UnitPrice   *float64 `json:"unit_price"`
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid invoice ID")
		return
	}
	lineItemID, err := strconv.ParseUint(c.Param("line_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid line item ID")
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	profile, _ := middleware.GetProfile(c)
	invoice, err := h.invoiceService.UpdateLineItem(c.Request.Context(), profile.BusinessID, id, lineItemID, services.UpdateLineItemInput{
		Description: req.Description,
		Quantity:    req.Quantity,
		UnitPrice:   req.UnitPrice,
	})
	if err != nil {
		respondInvoiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToInvoiceDTO(*invoice))
}

// DeleteLineItem removes a line from a draft invoice.
func (h *InvoiceHandler) DeleteLineItem(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid invoice ID")
		return
	}
	lineItemID, err := strconv.ParseUint(c.Param("line_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid line item ID")
		return
	}

	profile, _ := middleware.GetProfile(c)
	invoice, err := h.invoiceService.DeleteLineItem(c.Request.Context(), profile.BusinessID, id, lineItemID)
	if err != nil {
		respondInvoiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToInvoiceDTO(*invoice))
}

// RecordPayment records a payment against an invoice.
func (h *InvoiceHandler) RecordPayment(c *gin.Context) {
	type PaymentRequest struct {
		Amount float64    `json:"amount" binding:"required"`
		PaidAt *time.Time `json:"paid_at"`
		Method string     `json:"method"`
		Note   string     `json:"note"`
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid invoice ID")
		return
	}

	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	profile, _ := middleware.GetProfile(c)
	input := services.RecordPaymentInput{
		Amount:    req.Amount,
		Method:    req.Method,
		Note:      req.Note,
		CreatedBy: profile.UserID,
	}
	if req.PaidAt != nil {
		input.PaidAt = *req.PaidAt
	}

	invoice, err := h.invoiceService.RecordPayment(c.Request.Context(), profile.BusinessID, id, input)
	if err != nil {
		respondInvoiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToInvoiceDTO(*invoice))
}

// MarkOverdue flips sent invoices past their due date.
func (h *InvoiceHandler) MarkOverdue(c *gin.Context) {
	profile, _ := middleware.GetProfile(c)

	flipped, err := h.invoiceService.MarkOverdue(c.Request.Context(), profile.BusinessID)
	if err != nil {
		apierrors.InternalError(c, "Failed to mark overdue invoices")
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": flipped})
}

func respondInvoiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvoiceStatusInvalid),
		errors.Is(err, services.ErrLineDescriptionEmpty),
		errors.Is(err, services.ErrLineQuantityInvalid),
		errors.Is(err, services.ErrPaymentAmountInvalid):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrInvoiceNotDraft),
		errors.Is(err, services.ErrInvoiceAlreadyPaid),
		errors.Is(err, services.ErrInvoiceCancelled),
		errors.Is(err, services.ErrInvoiceTransition):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		apierrors.NotFound(c, "Invoice not found")
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
