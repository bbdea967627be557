package pagination

import (
	"fmt"

	"gorm.io/gorm"
)

func column(table, name string) string {
	if table == "" {
		return name
	}
	return table + "." + name
}

// Apply restricts db to rows strictly after cursor under (created_at DESC, id DESC).
// A nil cursor leaves the query untouched.
func Apply(db *gorm.DB, table string, cursor *Cursor) *gorm.DB {
	if cursor == nil {
		return db
	}
	createdAt := column(table, "created_at")
	id := column(table, "id")
	at := cursor.CreatedAt.UTC()
	return db.Where(
		fmt.Sprintf("(%s < ? OR (%s = ? AND %s < ?))", createdAt, createdAt, id),
		at, at, cursor.ID,
	)
}

// Order appends the composite ordering every keyset query must use.
func Order(db *gorm.DB, table string) *gorm.DB {
	return db.Order(column(table, "created_at") + " DESC").Order(column(table, "id") + " DESC")
}

// Scope combines Apply, Order and a limit+1 fetch into a gorm scope.
func Scope(table string, cursor *Cursor, limit int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return Order(Apply(db, table, cursor), table).Limit(FetchSize(limit))
	}
}
