package scope

import "gorm.io/gorm"

// Keyset orders a collection table by record id and, when cursor is set,
// keeps only ids strictly beyond it in that direction.
func Keyset(cursor string, desc bool) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if desc {
			if cursor != "" {
				db = db.Where("id < ?", cursor)
			}
			return db.Order("id DESC")
		}
		if cursor != "" {
			db = db.Where("id > ?", cursor)
		}
		return db.Order("id ASC")
	}
}
