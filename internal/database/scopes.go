package database

import "gorm.io/gorm"

// Paginate applies page-numbered pagination. Zero or negative inputs leave
// the query unpaged, so callers can pass filter values straight through.
func Paginate(page, pageSize int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if page <= 0 || pageSize <= 0 {
			return db
		}
		return db.Offset((page - 1) * pageSize).Limit(pageSize)
	}
}

// TenantScope filters a query to one business. List queries go through it
// so the tenant restriction is applied the same way everywhere.
func TenantScope(businessID uint64) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("business_id = ?", businessID)
	}
}
