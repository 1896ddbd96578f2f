package sql

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// PostgreSQL SQLSTATE codes.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgDuplicateTable      = "42P07" // also raised for duplicate index names
	pgDuplicateObject     = "42710" // duplicate constraint name
)

// MySQL error numbers.
const (
	mysqlTableExists      = 1050
	mysqlDuplicateKey     = 1022
	mysqlDuplicateKeyName = 1061
	mysqlDuplicateEntry   = 1062
	mysqlFKDuplicateName  = 1826
	mysqlForeignKeyParent = 1451
	mysqlForeignKeyChild  = 1452
)

// IsAlreadyExistsError reports whether err resulted from creating a table,
// index or constraint that already exists.
func IsAlreadyExistsError(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := pgCode(err); ok {
		return code == pgDuplicateTable || code == pgDuplicateObject
	}
	if num, ok := mysqlNumber(err); ok {
		switch num {
		case mysqlTableExists, mysqlDuplicateKeyName, mysqlFKDuplicateName, mysqlDuplicateKey:
			return true
		}
		return false
	}
	// SQLite has no error codes for this case.
	return strings.Contains(err.Error(), "already exists")
}

// IsUniqueConstraintError reports if the error resulted from a DB uniqueness constraint violation.
func IsUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := pgCode(err); ok {
		return code == pgUniqueViolation
	}
	if num, ok := mysqlNumber(err); ok {
		return num == mysqlDuplicateEntry
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsForeignKeyConstraintError reports if the error resulted from a database foreign-key constraint violation.
func IsForeignKeyConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := pgCode(err); ok {
		return code == pgForeignKeyViolation
	}
	if num, ok := mysqlNumber(err); ok {
		return num == mysqlForeignKeyParent || num == mysqlForeignKeyChild
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

func pgCode(err error) (string, bool) {
	var e *pq.Error
	if errors.As(err, &e) {
		return string(e.Code), true
	}
	return "", false
}

func mysqlNumber(err error) (uint16, bool) {
	var e *mysql.MySQLError
	if errors.As(err, &e) {
		return e.Number, true
	}
	return 0, false
}
