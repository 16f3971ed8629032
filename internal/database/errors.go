package database

import "strings"

// IsUniqueViolation reports whether err is a SQLite UNIQUE constraint
// failure. The modernc driver surfaces constraint errors as plain strings,
// so this matches on the message.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
