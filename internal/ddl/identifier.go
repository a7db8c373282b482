package ddl

import (
	"fmt"
	"regexp"
	"strings"
)

// identifierRe allows alphanumeric + underscores, starting with a letter or underscore.
var identifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// columnTypeRe matches simple SQL type names, optionally with a length or
// precision/scale: BIGINT, BOOLEAN, VARCHAR(255), DECIMAL(10,2).
// Case-insensitive.
var columnTypeRe = regexp.MustCompile(`(?i)^[A-Z][A-Z0-9_ ]*(?:\(\s*\d+\s*(?:,\s*\d+\s*)?\))?$`)

// defaultRe matches the literal forms accepted in DEFAULT clauses: quoted
// strings, integers, and boolean keywords.
var defaultRe = regexp.MustCompile(`(?i)^(?:'(?:[^']|'')*'|-?\d+|true|false|null)$`)

// MaxIdentifierLen is the maximum length allowed for a SQL identifier.
const MaxIdentifierLen = 128

const maxColumnTypeLen = 64

// ValidateIdentifier checks that name is a safe SQL identifier:
//   - Non-empty
//   - At most 128 characters
//   - Matches [a-zA-Z_][a-zA-Z0-9_]*
func ValidateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if len(name) > MaxIdentifierLen {
		return fmt.Errorf("name must be at most %d characters", MaxIdentifierLen)
	}
	if !identifierRe.MatchString(name) {
		return fmt.Errorf("name must match [a-zA-Z_][a-zA-Z0-9_]*")
	}
	return nil
}

// QuoteIdentifier wraps a SQL identifier in double quotes, escaping any
// embedded double-quote characters by doubling them (standard SQL).
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteLiteral wraps a string value in single quotes, escaping any
// embedded single-quote characters by doubling them (standard SQL).
func QuoteLiteral(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

// ValidateColumnType checks that typeName is a plain column type with an
// optional length/precision and nothing else.
func ValidateColumnType(typeName string) error {
	if typeName == "" {
		return fmt.Errorf("column type is required")
	}
	if len(typeName) > maxColumnTypeLen {
		return fmt.Errorf("column type must be at most %d characters", maxColumnTypeLen)
	}
	if strings.ContainsAny(typeName, ";-'\"\\") {
		return fmt.Errorf("column type contains invalid characters")
	}
	if !columnTypeRe.MatchString(typeName) {
		return fmt.Errorf("column type %q is not a recognized type pattern", typeName)
	}
	return nil
}

// ValidateDefault checks that a DEFAULT expression is a single literal.
func ValidateDefault(expr string) error {
	if expr == "" {
		return nil
	}
	if !defaultRe.MatchString(expr) {
		return fmt.Errorf("default %q is not a literal", expr)
	}
	return nil
}
