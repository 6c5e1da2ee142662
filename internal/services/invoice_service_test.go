package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/opsdesk/opsdesk-api/internal/cache"
	"github.com/opsdesk/opsdesk-api/internal/database"
	"github.com/opsdesk/opsdesk-api/internal/models"
	"github.com/opsdesk/opsdesk-api/internal/repository"
)

// InvoiceServiceTestSuite defines the test suite for InvoiceService
type InvoiceServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *InvoiceService
	ctx     context.Context

	business *models.Business
	user     *models.User
	contact  *models.Contact
}

// SetupTest runs before each test
func (suite *InvoiceServiceTestSuite) SetupTest() {
	var err error
	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)
	suite.Require().NoError(database.MigrateWith(suite.db))
	database.SetDB(suite.db)

	suite.service = NewInvoiceService(repository.NewInvoiceRepository(suite.db), cache.NewMemory())
	suite.ctx = context.Background()

	suite.business = &models.Business{Name: "Test Business"}
	suite.db.Create(suite.business)
	suite.user = &models.User{Email: "owner@example.com", PasswordHash: "hashedpassword", FullName: "Owner"}
	suite.db.Create(suite.user)
	suite.contact = &models.Contact{
		BusinessID: suite.business.ID,
		Name:       "Acme Corp",
		Type:       models.ContactTypeClient,
		CreatedBy:  suite.user.ID,
	}
	suite.db.Create(suite.contact)
}

// TearDownTest runs after each test
func (suite *InvoiceServiceTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *InvoiceServiceTestSuite) createDraft(lines []LineItemInput, taxRate, discount float64) *models.Invoice {
	invoice, err := suite.service.Create(suite.ctx, CreateInvoiceInput{
		BusinessID:     suite.business.ID,
		ContactID:      suite.contact.ID,
		TaxRate:        taxRate,
		DiscountAmount: discount,
		LineItems:      lines,
		CreatedBy:      suite.user.ID,
	})
	suite.Require().NoError(err)
	return invoice
}

func (suite *InvoiceServiceTestSuite) TestCreateComputesNumberAndTotals() {
	invoice := suite.createDraft([]LineItemInput{
		{Description: "Consulting", Quantity: 2, UnitPrice: 50},
		{Description: "Materials", Quantity: 1, UnitPrice: 100},
	}, 10, 20)

	suite.Equal("INV-0001", invoice.Number)
	suite.Equal(models.InvoiceStatusDraft, invoice.Status)
	suite.Equal(200.0, invoice.Subtotal)
	suite.Equal(20.0, invoice.TaxAmount)
	suite.Equal(200.0, invoice.Total) // 200 + 20 - 20

	second := suite.createDraft([]LineItemInput{
		{Description: "Follow-up", Quantity: 1, UnitPrice: 10},
	}, 0, 0)
	suite.Equal("INV-0002", second.Number)
}

func (suite *InvoiceServiceTestSuite) TestCreateRejectsBadLines() {
	_, err := suite.service.Create(suite.ctx, CreateInvoiceInput{
		BusinessID: suite.business.ID,
		ContactID:  suite.contact.ID,
		LineItems:  []LineItemInput{{Description: "  ", Quantity: 1, UnitPrice: 10}},
		CreatedBy:  suite.user.ID,
	})
	suite.ErrorIs(err, ErrLineDescriptionEmpty)

	_, err = suite.service.Create(suite.ctx, CreateInvoiceInput{
		BusinessID: suite.business.ID,
		ContactID:  suite.contact.ID,
		LineItems:  []LineItemInput{{Description: "Work", Quantity: 0, UnitPrice: 10}},
		CreatedBy:  suite.user.ID,
	})
	suite.ErrorIs(err, ErrLineQuantityInvalid)
}

func (suite *InvoiceServiceTestSuite) TestAddLineItemRecalculatesTotals() {
	invoice := suite.createDraft([]LineItemInput{
		{Description: "Consulting", Quantity: 1, UnitPrice: 100},
	}, 0, 0)

	updated, err := suite.service.AddLineItem(suite.ctx, suite.business.ID, invoice.ID, LineItemInput{
		Description: "Travel",
		Quantity:    2,
		UnitPrice:   25,
	})
	suite.NoError(err)
	suite.Len(updated.LineItems, 2)
	suite.Equal(2, updated.LineItems[1].Position)
	suite.Equal(150.0, updated.Subtotal)
	suite.Equal(150.0, updated.Total)
}

func (suite *InvoiceServiceTestSuite) TestOnlyDraftInvoicesAreEditable() {
	invoice := suite.createDraft([]LineItemInput{
		{Description: "Consulting", Quantity: 1, UnitPrice: 100},
	}, 0, 0)

	_, err := suite.service.ChangeStatus(suite.ctx, suite.business.ID, invoice.ID, models.InvoiceStatusSent)
	suite.NoError(err)

	notes := "late edit"
	_, err = suite.service.Update(suite.ctx, suite.business.ID, invoice.ID, UpdateInvoiceInput{Notes: &notes})
	suite.ErrorIs(err, ErrInvoiceNotDraft)

	_, err = suite.service.AddLineItem(suite.ctx, suite.business.ID, invoice.ID, LineItemInput{
		Description: "Extra",
		Quantity:    1,
		UnitPrice:   10,
	})
	suite.ErrorIs(err, ErrInvoiceNotDraft)
}

func (suite *InvoiceServiceTestSuite) TestStatusTransitions() {
	invoice := suite.createDraft([]LineItemInput{
		{Description: "Consulting", Quantity: 1, UnitPrice: 100},
	}, 0, 0)

	// Paid is never reachable by hand.
	_, err := suite.service.ChangeStatus(suite.ctx, suite.business.ID, invoice.ID, models.InvoiceStatusPaid)
	suite.ErrorIs(err, ErrInvoiceTransition)

	sent, err := suite.service.ChangeStatus(suite.ctx, suite.business.ID, invoice.ID, models.InvoiceStatusSent)
	suite.NoError(err)
	suite.Equal(models.InvoiceStatusSent, sent.Status)

	// Sent cannot go back to draft.
	_, err = suite.service.ChangeStatus(suite.ctx, suite.business.ID, invoice.ID, models.InvoiceStatusDraft)
	suite.ErrorIs(err, ErrInvoiceTransition)
}

func (suite *InvoiceServiceTestSuite) TestRecordPaymentFlipsPaidWhenCovered() {
	invoice := suite.createDraft([]LineItemInput{
		{Description: "Consulting", Quantity: 1, UnitPrice: 100},
	}, 0, 0)
	_, err := suite.service.ChangeStatus(suite.ctx, suite.business.ID, invoice.ID, models.InvoiceStatusSent)
	suite.Require().NoError(err)

	partial, err := suite.service.RecordPayment(suite.ctx, suite.business.ID, invoice.ID, RecordPaymentInput{
		Amount:    40,
		CreatedBy: suite.user.ID,
	})
	suite.NoError(err)
	suite.Equal(models.InvoiceStatusSent, partial.Status)
	suite.Nil(partial.PaidDate)

	paid, err := suite.service.RecordPayment(suite.ctx, suite.business.ID, invoice.ID, RecordPaymentInput{
		Amount:    60,
		CreatedBy: suite.user.ID,
	})
	suite.NoError(err)
	suite.Equal(models.InvoiceStatusPaid, paid.Status)
	suite.NotNil(paid.PaidDate)

	// A paid invoice takes no further payments.
	_, err = suite.service.RecordPayment(suite.ctx, suite.business.ID, invoice.ID, RecordPaymentInput{
		Amount:    1,
		CreatedBy: suite.user.ID,
	})
	suite.ErrorIs(err, ErrInvoiceAlreadyPaid)
}

func (suite *InvoiceServiceTestSuite) TestRecordPaymentRejectsCancelledAndBadAmounts() {
	invoice := suite.createDraft([]LineItemInput{
		{Description: "Consulting", Quantity: 1, UnitPrice: 100},
	}, 0, 0)

	_, err := suite.service.RecordPayment(suite.ctx, suite.business.ID, invoice.ID, RecordPaymentInput{
		Amount:    -5,
		CreatedBy: suite.user.ID,
	})
	suite.ErrorIs(err, ErrPaymentAmountInvalid)

	_, err = suite.service.ChangeStatus(suite.ctx, suite.business.ID, invoice.ID, models.InvoiceStatusCancelled)
	suite.Require().NoError(err)

	_, err = suite.service.RecordPayment(suite.ctx, suite.business.ID, invoice.ID, RecordPaymentInput{
		Amount:    100,
		CreatedBy: suite.user.ID,
	})
	suite.ErrorIs(err, ErrInvoiceCancelled)
}

func (suite *InvoiceServiceTestSuite) TestMarkOverdue() {
	invoice := suite.createDraft([]LineItemInput{
		{Description: "Consulting", Quantity: 1, UnitPrice: 100},
	}, 0, 0)
	_, err := suite.service.ChangeStatus(suite.ctx, suite.business.ID, invoice.ID, models.InvoiceStatusSent)
	suite.Require().NoError(err)

	yesterday := time.Now().Add(-24 * time.Hour)
	suite.Require().NoError(suite.db.Model(&models.Invoice{}).
		Where("id = ?", invoice.ID).Update("due_date", yesterday).Error)

	flipped, err := suite.service.MarkOverdue(suite.ctx, suite.business.ID)
	suite.NoError(err)
	suite.Equal(int64(1), flipped)

	refreshed, err := suite.service.Get(suite.business.ID, invoice.ID)
	suite.NoError(err)
	suite.Equal(models.InvoiceStatusOverdue, refreshed.Status)
}

func TestInvoiceServiceTestSuite(t *testing.T) {
	suite.Run(t, new(InvoiceServiceTestSuite))
}
