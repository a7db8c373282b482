// Package repository implements the catalog and physical store ports on top
// of database/sql.
package repository

import (
	"database/sql"
	"errors"

	"github.com/mattn/go-sqlite3"

	"dyntable/internal/domain"
)

// msgCatalogMiss is returned when no catalog entry matches a lookup.
const msgCatalogMiss = "Table name not found."

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func mapDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound(msgCatalogMiss)
	}
	if isUniqueViolation(err) {
		return domain.ErrAlreadyRegistered
	}
	return err
}
