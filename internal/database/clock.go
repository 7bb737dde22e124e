package database

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CurrentTimestamp is evaluated by the database, so every timestamp compared
// by OlderThan comes from the same clock.
func CurrentTimestamp() clause.Expr {
	return gorm.Expr("CURRENT_TIMESTAMP")
}

// OlderThan builds a predicate that holds when column is more than window in
// the past according to the database clock. column must be a trusted
// identifier.
func OlderThan(db *gorm.DB, column string, window time.Duration) clause.Expr {
	seconds := int64(window / time.Second)

	switch db.Dialector.Name() {
	case DriverPostgres:
		return gorm.Expr(fmt.Sprintf("%s < NOW() - (? * INTERVAL '1 second')", column), seconds)
	case DriverMySQL:
		return gorm.Expr(fmt.Sprintf("%s < NOW() - INTERVAL ? SECOND", column), seconds)
	default:
		return gorm.Expr(fmt.Sprintf("datetime(%s) < datetime('now', ?)", column), fmt.Sprintf("-%d seconds", seconds))
	}
}
