package repository

import (
	"errors"
	"time"

	"github.com/opsdesk/opsdesk-api/internal/models"
)

// ErrOpenTimerExists is returned when starting a timer while another entry
// is still open for the same user.
var ErrOpenTimerExists = errors.New("an open time entry already exists for this user")

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(user *models.User) error

	// CreateWithBusiness creates a user, their business, and the owner
	// profile within a single transaction.
	CreateWithBusiness(user *models.User, business *models.Business, profile *models.Profile) error

	FindByID(id uint64) (*models.User, error)
	FindByEmail(email string) (*models.User, error)
}

// BusinessRepository defines the interface for business and member data access
type BusinessRepository interface {
	FindByID(id uint64) (*models.Business, error)
	Update(business *models.Business) error

	// FindProfileByUserID resolves the caller's tenant scope.
	FindProfileByUserID(userID uint64) (*models.Profile, error)
	ListProfiles(businessID uint64) ([]models.Profile, error)
	UpdateProfileRole(businessID, userID uint64, role models.Role) error
	RemoveProfile(businessID, userID uint64) error
}

// InviteRepository defines the interface for invite data access
type InviteRepository interface {
	Create(invite *models.Invite) error
	ListPending(businessID uint64) ([]models.Invite, error)
	FindPendingByEmail(businessID uint64, email string) (*models.Invite, error)
	FindByToken(token string) (*models.Invite, error)
	Delete(businessID, id uint64) error

	// Accept marks the invite used and creates or moves the member profile
	// in one transaction.
	Accept(invite *models.Invite, user *models.User) (*models.Profile, error)
}

// CustomTypeRepository defines the interface for tenant taxonomy data access
type CustomTypeRepository interface {
	Create(ct *models.CustomType) error
	List(businessID uint64, category models.CustomTypeCategory, activeOnly bool) ([]models.CustomType, error)
	FindByID(businessID, id uint64) (*models.CustomType, error)
	Update(ct *models.CustomType) error

	// Deactivate soft-deletes so historical rows keep their label.
	Deactivate(businessID, id uint64) error
}

// ContactFilter holds filtering options for listing contacts
type ContactFilter struct {
	BusinessID   uint64
	Type         *models.ContactType
	CustomTypeID *uint64
	Search       string
	Page         int
	PageSize     int
}

// ContactRepository defines the interface for contact data access
type ContactRepository interface {
	Create(contact *models.Contact) error
	FindByID(businessID, id uint64, preload ...string) (*models.Contact, error)
	List(filter ContactFilter) ([]models.Contact, int64, error)
	Update(contact *models.Contact) error
	Delete(businessID, id uint64) error

	// BulkDelete removes the given ids in one statement; all or nothing.
	BulkDelete(businessID uint64, ids []uint64) (int64, error)

	LinkItem(link *models.ContactItem) error
	UnlinkItem(contactID, itemID uint64) error
	ListLinks(contactID uint64) ([]models.ContactItem, error)
}

// ItemFilter holds filtering options for listing items
type ItemFilter struct {
	BusinessID   uint64
	Category     *models.ItemCategory
	Status       *models.ItemStatus
	CustomTypeID *uint64
	Search       string
	Page         int
	PageSize     int
}

// ItemRepository defines the interface for item data access
type ItemRepository interface {
	// CreateWithLinks creates the item and its contact links atomically.
	CreateWithLinks(item *models.Item, links []models.ContactItem) error

	FindByID(businessID, id uint64, preload ...string) (*models.Item, error)
	List(filter ItemFilter) ([]models.Item, int64, error)
	Update(item *models.Item) error
	Delete(businessID, id uint64) error
	BulkDelete(businessID uint64, ids []uint64) (int64, error)

	AddNote(note *models.ItemNote) error
	ListNotes(itemID uint64) ([]models.ItemNote, error)
	DeleteNote(itemID, noteID uint64) error
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	BusinessID     uint64
	Status         *models.TaskStatus
	Priority       *models.TaskPriority
	ContactID      *uint64
	ItemID         *uint64
	AssignedUserID *uint64
	DueDateFrom    *time.Time
	DueDateTo      *time.Time
	SortByDueDate  bool
	Page           int
	PageSize       int
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	Create(task *models.Task) error
	FindByID(businessID, id uint64, preload ...string) (*models.Task, error)
	List(filter TaskFilter) ([]models.Task, int64, error)

	// UpdateWithActivity saves the task and appends change records atomically.
	UpdateWithActivity(task *models.Task, activity []models.TaskActivity) error

	Delete(businessID, id uint64) error
	BulkDelete(businessID uint64, ids []uint64) (int64, error)
	BulkUpdateStatus(businessID uint64, ids []uint64, status models.TaskStatus) (int64, error)

	// ReplaceAssignees swaps the full assignment set (delete then insert),
	// appending the activity record and assignment notifications in the same
	// transaction.
	ReplaceAssignees(taskID uint64, assignments []models.TaskAssignment, activity *models.TaskActivity, notifications []models.Notification) error

	// AddComment inserts the comment, its mention rows and the mention
	// notifications atomically.
	AddComment(comment *models.TaskComment, mentions []models.TaskCommentMention, notifications []models.Notification) error

	ListComments(taskID uint64) ([]models.TaskComment, error)
	ListActivity(taskID uint64) ([]models.TaskActivity, error)
	ListAssignedTo(businessID, userID uint64) ([]models.Task, error)
	CountOpen(businessID uint64) (int64, error)
	CountMembers(businessID uint64, userIDs []uint64) (int64, error)
}

// CalendarRepository defines the interface for calendar data access
type CalendarRepository interface {
	// CreateWithAttendees creates the entry and its attendee rows atomically.
	CreateWithAttendees(entry *models.CalendarEntry, attendees []models.CalendarAttendee) error

	FindByID(businessID, id uint64, preload ...string) (*models.CalendarEntry, error)
	List(businessID uint64, from, to time.Time) ([]models.CalendarEntry, error)
	Update(entry *models.CalendarEntry) error
	ReplaceAttendees(entryID uint64, attendees []models.CalendarAttendee) error
	Delete(businessID, id uint64) error
	Respond(entryID, userID uint64, status models.AttendeeStatus) error

	// TeamEntries returns entries overlapping [from, to) attended by any of
	// the given users.
	TeamEntries(businessID uint64, userIDs []uint64, from, to time.Time) ([]models.CalendarEntry, error)
}

// DealFilter holds filtering options for listing deals
type DealFilter struct {
	BusinessID uint64
	Status     *models.DealStatus
	StageID    *uint64
	ContactID  *uint64
	Page       int
	PageSize   int
}

// DealRepository defines the interface for pipeline data access
type DealRepository interface {
	CreateStage(stage *models.PipelineStage) error
	ListStages(businessID uint64) ([]models.PipelineStage, error)
	FindStage(businessID, id uint64) (*models.PipelineStage, error)
	UpdateStage(stage *models.PipelineStage) error
	DeleteStage(businessID, id uint64) error
	CountDealsInStage(businessID, stageID uint64) (int64, error)

	// Create inserts the deal and its first activity row atomically.
	Create(deal *models.Deal, activity *models.DealActivity) error

	FindByID(businessID, id uint64, preload ...string) (*models.Deal, error)
	List(filter DealFilter) ([]models.Deal, int64, error)

	// UpdateWithActivity saves the deal and appends activity atomically.
	UpdateWithActivity(deal *models.Deal, activity []models.DealActivity) error

	Delete(businessID, id uint64) error
	ListActivity(dealID uint64) ([]models.DealActivity, error)
	SumOpenValue(businessID uint64) (float64, error)
}

// InvoiceFilter holds filtering options for listing invoices
type InvoiceFilter struct {
	BusinessID uint64
	Status     *models.InvoiceStatus
	ContactID  *uint64
	Page       int
	PageSize   int
}

// InvoiceRepository defines the interface for invoice data access. Every
// line-item mutation recomputes the stored aggregates inside its transaction.
type InvoiceRepository interface {
	CreateWithLineItems(invoice *models.Invoice, lineItems []models.InvoiceLineItem) error
	FindByID(businessID, id uint64, preload ...string) (*models.Invoice, error)
	List(filter InvoiceFilter) ([]models.Invoice, int64, error)
	Count(businessID uint64) (int64, error)

	// UpdateWithRecalc saves header fields and recomputes totals (tax rate or
	// discount may have changed).
	UpdateWithRecalc(invoice *models.Invoice) error

	Delete(businessID, id uint64) error

	AddLineItem(businessID uint64, lineItem *models.InvoiceLineItem) error
	UpdateLineItem(businessID uint64, lineItem *models.InvoiceLineItem) error
	DeleteLineItem(businessID, invoiceID, lineItemID uint64) error

	// RecordPayment inserts the payment and flips the invoice to paid when
	// cumulative payments reach the total, all in one transaction.
	RecordPayment(businessID uint64, payment *models.Payment) (*models.Invoice, error)

	// MarkOverdue flips sent invoices past their due date.
	MarkOverdue(businessID uint64, asOf time.Time) (int64, error)

	SumUnpaid(businessID uint64) (float64, error)
}

// TimeEntryFilter holds filtering options for listing time entries
type TimeEntryFilter struct {
	BusinessID uint64
	UserID     *uint64
	ContactID  *uint64
	ItemID     *uint64
	From       *time.Time
	To         *time.Time
	Page       int
	PageSize   int
}

// TimeEntryRepository defines the interface for time tracking data access
type TimeEntryRepository interface {
	Create(entry *models.TimeEntry) error

	// StartTimer inserts an open entry after verifying no other open entry
	// exists for the user, in one transaction. Returns ErrOpenTimerExists.
	StartTimer(entry *models.TimeEntry) error

	FindByID(businessID, id uint64) (*models.TimeEntry, error)
	FindOpenByUser(businessID, userID uint64) (*models.TimeEntry, error)
	List(filter TimeEntryFilter) ([]models.TimeEntry, int64, error)
	Update(entry *models.TimeEntry) error
	Delete(businessID, id uint64) error
	MinutesSince(businessID uint64, since time.Time) (int64, error)
}

// DocumentFilter holds filtering options for listing documents
type DocumentFilter struct {
	BusinessID uint64
	ContactID  *uint64
	ItemID     *uint64
	LatestOnly bool
	Search     string
	Page       int
	PageSize   int
}

// DocumentRepository defines the interface for document metadata access
type DocumentRepository interface {
	// Create inserts the metadata row and its upload activity atomically.
	Create(doc *models.Document, activity *models.DocumentActivity) error

	// CreateVersion inserts the new version, clears the latest flag on the
	// superseded row and logs the upload, all in one transaction.
	CreateVersion(doc *models.Document, parentID uint64) error

	FindByID(businessID, id uint64) (*models.Document, error)
	List(filter DocumentFilter) ([]models.Document, int64, error)
	Update(doc *models.Document) error
	Delete(businessID, id uint64) error
	AppendActivity(activity *models.DocumentActivity) error
	ListActivity(documentID uint64) ([]models.DocumentActivity, error)

	// ListVersions returns the document's whole version chain, newest first.
	ListVersions(businessID, id uint64) ([]models.Document, error)
}

// NotificationRepository defines the interface for notification data access
type NotificationRepository interface {
	CreateBatch(notifications []models.Notification) error
	List(businessID, userID uint64, page, pageSize int) ([]models.Notification, int64, error)
	UnreadCount(businessID, userID uint64) (int64, error)
	MarkRead(businessID, userID, id uint64) error
	MarkAllRead(businessID, userID uint64) (int64, error)
}
