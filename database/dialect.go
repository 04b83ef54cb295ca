package database

import "gorm.io/gorm"

// SupportsReturning reports whether UPDATE ... RETURNING can be used.
// MySQL cannot; callers re-read the locked row inside the transaction instead.
func SupportsReturning(db *gorm.DB) bool {
	return db.Dialector.Name() != "mysql"
}

// Greatest returns the two-argument maximum function of the dialect.
func Greatest(db *gorm.DB) string {
	if db.Dialector.Name() == "sqlite" {
		return "MAX"
	}
	return "GREATEST"
}
