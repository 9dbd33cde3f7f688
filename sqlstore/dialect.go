// Package sqlstore is the SQL query backend. It compiles predicate ASTs to SQL
// with squirrel, runs them through database/sql and decodes rows into
// schema.Document values. SQLite (mattn/go-sqlite3) and PostgreSQL (pgx) are
// supported; drivers are registered by the importing program.
package sqlstore

import (
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/MBrOssss/RESTApi/core/schema"
)

// Dialect selects the SQL flavour of a store.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// sqliteTimeLayout is fixed-width so that stored timestamps order as text.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

// ParseDialect maps a driver or dialect name to a Dialect.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "postgres", "postgresql", "pgx":
		return DialectPostgres, nil
	}
	return "", fmt.Errorf("unsupported SQL dialect '%s'", name)
}

// DriverName returns the database/sql driver name registered for the dialect.
func (d Dialect) DriverName() string {
	if d == DialectPostgres {
		return "pgx"
	}
	return "sqlite3"
}

func (d Dialect) placeholder() squirrel.PlaceholderFormat {
	if d == DialectPostgres {
		return squirrel.Dollar
	}
	return squirrel.Question
}

// ColumnType returns the column type used to store a field type.
func (d Dialect) ColumnType(t schema.FieldType) string {
	if d == DialectPostgres {
		switch t {
		case schema.FieldTypeBoolean:
			return "BOOLEAN"
		case schema.FieldTypeInt32:
			return "INTEGER"
		case schema.FieldTypeInt64:
			return "BIGINT"
		case schema.FieldTypeFloat64:
			return "DOUBLE PRECISION"
		case schema.FieldTypeUUID:
			return "UUID"
		case schema.FieldTypeDateTime:
			return "TIMESTAMPTZ"
		default:
			return "TEXT"
		}
	}
	switch t {
	case schema.FieldTypeBoolean, schema.FieldTypeInt32, schema.FieldTypeInt64:
		return "INTEGER"
	case schema.FieldTypeFloat64:
		return "REAL"
	default:
		// Timestamps and UUIDs are stored as TEXT and decoded by field type.
		return "TEXT"
	}
}

// encodeValue converts a value to the parameter form stored for the field type.
func (d Dialect) encodeValue(t schema.FieldType, v any) (any, error) {
	n, err := schema.Normalize(t, v)
	if err != nil || n == nil {
		return nil, err
	}
	switch val := n.(type) {
	case bool:
		if d == DialectSQLite {
			if val {
				return 1, nil
			}
			return 0, nil
		}
	case uuid.UUID:
		return val.String(), nil
	case time.Time:
		if d == DialectSQLite {
			return val.UTC().Format(sqliteTimeLayout), nil
		}
		return val.UTC(), nil
	}
	return n, nil
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
