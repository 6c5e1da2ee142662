package database

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/opsdesk/opsdesk-api/internal/models"
)

func setupScopesDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, MigrateWith(db))
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		require.NoError(t, err)
		sqlDB.Close()
	})
	return db
}

func seedContacts(t *testing.T, db *gorm.DB, businessID uint64, n int) {
	for i := 0; i < n; i++ {
		contact := &models.Contact{
			BusinessID: businessID,
			Name:       fmt.Sprintf("Contact %d-%d", businessID, i),
			Type:       models.ContactTypeClient,
			CreatedBy:  1,
		}
		require.NoError(t, db.Create(contact).Error)
	}
}

func TestTenantScopeRestrictsToOneBusiness(t *testing.T) {
	db := setupScopesDB(t)
	seedContacts(t, db, 1, 3)
	seedContacts(t, db, 2, 2)

	var contacts []models.Contact
	require.NoError(t, db.Scopes(TenantScope(1)).Find(&contacts).Error)
	require.Len(t, contacts, 3)
	for _, c := range contacts {
		require.Equal(t, uint64(1), c.BusinessID)
	}
}

func TestPaginateSlicesByPage(t *testing.T) {
	db := setupScopesDB(t)
	seedContacts(t, db, 1, 5)

	var page []models.Contact
	require.NoError(t, db.Scopes(Paginate(2, 2)).Order("id ASC").Find(&page).Error)
	require.Len(t, page, 2)
	require.Equal(t, "Contact 1-2", page[0].Name)

	var last []models.Contact
	require.NoError(t, db.Scopes(Paginate(3, 2)).Order("id ASC").Find(&last).Error)
	require.Len(t, last, 1)
}

func TestPaginateIgnoresUnsetValues(t *testing.T) {
	db := setupScopesDB(t)
	seedContacts(t, db, 1, 4)

	var all []models.Contact
	require.NoError(t, db.Scopes(Paginate(0, 0)).Find(&all).Error)
	require.Len(t, all, 4)

	require.NoError(t, db.Scopes(Paginate(-1, 20)).Find(&all).Error)
	require.Len(t, all, 4)
}
