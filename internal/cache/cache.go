// Package cache is the read-through query cache shared by every entity
// service. Cached query results register under each entity kind they read;
// a mutation declares the kinds it wrote and every registered key over those
// kinds is dropped. Services never maintain per-mutation key lists.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Entity identifies a table-level dependency of a cached query.
type Entity string

const (
	EntityBusinesses        Entity = "businesses"
	EntityProfiles          Entity = "profiles"
	EntityInvites           Entity = "invites"
	EntityContacts          Entity = "contacts"
	EntityContactItems      Entity = "contact_items"
	EntityItems             Entity = "items"
	EntityItemNotes         Entity = "item_notes"
	EntityCustomTypes       Entity = "custom_types"
	EntityTasks             Entity = "tasks"
	EntityTaskAssignments   Entity = "task_assignments"
	EntityTaskComments      Entity = "task_comments"
	EntityTaskActivity      Entity = "task_activity"
	EntityCalendarEntries   Entity = "calendar_entries"
	EntityCalendarAttendees Entity = "calendar_attendees"
	EntityPipelineStages    Entity = "pipeline_stages"
	EntityDeals             Entity = "deals"
	EntityDealActivity      Entity = "deal_activity"
	EntityInvoices          Entity = "invoices"
	EntityInvoiceLineItems  Entity = "invoice_line_items"
	EntityPayments          Entity = "payments"
	EntityTimeEntries       Entity = "time_entries"
	EntityDocuments         Entity = "documents"
	EntityDocumentActivity  Entity = "document_activity"
	EntityNotifications     Entity = "notifications"
)

// Cache is the query/mutation cache contract. Implementations: Redis for the
// running service, Memory for tests and single-node development.
type Cache interface {
	// GetJSON loads a cached query result into dest. The second return is
	// false on a miss.
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)

	// SetJSON stores a query result and registers the key under every entity
	// kind the query read, scoped to the business.
	SetJSON(ctx context.Context, businessID uint64, key string, value interface{}, reads ...Entity) error

	// Invalidate drops every cached query in the business that read any of
	// the written entity kinds.
	Invalidate(ctx context.Context, businessID uint64, wrote ...Entity) error
}

// Key derives a stable cache key from a query's entity kind and its filter
// parameters. Filters are hashed by value: json.Marshal follows pointer
// fields to their pointees, so two filters describing the same query always
// share a key regardless of where their optional fields were allocated.
func Key(businessID uint64, entity Entity, filter interface{}) string {
	raw, err := json.Marshal(filter)
	if err != nil {
		raw = []byte(fmt.Sprintf("%#v", filter))
	}
	sum := sha256.Sum256(raw)
	return fmt.Sprintf("q:%d:%s:%s", businessID, entity, hex.EncodeToString(sum[:16]))
}

func registryKey(businessID uint64, entity Entity) string {
	return fmt.Sprintf("qreg:%d:%s", businessID, entity)
}
