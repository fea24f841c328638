package db

import (
	"strings"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports a unique constraint failure. Postgres errors are matched
// on SQLSTATE and constraint name; SQLite only exposes a message, so constraintName
// is matched against it.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	if pg := pkgerrors.PostgresDetail(err); pg != nil {
		return pg.Code == pgUniqueViolation && (constraintName == "" || pg.Constraint == constraintName)
	}
	msg := err.Error()
	if constraintName != "" && !strings.Contains(msg, constraintName) {
		return false
	}
	return strings.Contains(msg, "UNIQUE constraint failed")
}
