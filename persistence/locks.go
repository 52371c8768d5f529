package persistence

import "github.com/jinzhu/gorm"

const dialectSqlite = "sqlite3"

// LockForUpdate makes the next read on tx take row locks where the dialect supports it,
// sqlite serializes writers anyway.
func LockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialect().GetName() == dialectSqlite {
		return tx
	}
	return tx.Set("gorm:query_option", "FOR UPDATE")
}
