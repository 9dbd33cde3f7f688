package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/MBrOssss/RESTApi/core/schema"
)

// CreateTableSQL generates the CREATE TABLE statement for a schema. Non-nullable
// fields are NOT NULL and the identifier field, when present, is the primary key.
func CreateTableSQL(dialect Dialect, def *schema.SchemaDefinition) (string, error) {
	if def == nil {
		return "", fmt.Errorf("schema definition cannot be nil")
	}
	if err := def.Validate(); err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("CREATE TABLE IF NOT EXISTS ")
	sb.WriteString(quoteIdentifier(def.Name) + " (\n")

	names := def.FieldNames()
	columns := make([]string, 0, len(names)+1)
	for _, name := range names {
		columns = append(columns, "    "+buildColumnDefinition(dialect, def.Fields[name]))
	}
	for _, id := range schema.IDFieldNames {
		if _, ok := def.Fields[id]; ok {
			columns = append(columns, "    PRIMARY KEY ("+quoteIdentifier(id)+")")
			break
		}
	}
	sb.WriteString(strings.Join(columns, ",\n"))
	sb.WriteString("\n);")
	return sb.String(), nil
}

func buildColumnDefinition(dialect Dialect, field *schema.FieldDefinition) string {
	parts := []string{quoteIdentifier(field.Name), dialect.ColumnType(field.Type)}
	if !field.Nullable {
		parts = append(parts, "NOT NULL")
	}
	return strings.Join(parts, " ")
}

// CreateIndexSQL generates the CREATE INDEX statement for one index of a table.
// Unnamed indexes are named after the table and their fields.
func CreateIndexSQL(table string, index schema.IndexDefinition) string {
	var sb strings.Builder
	sb.WriteString("CREATE ")
	if index.Unique {
		sb.WriteString("UNIQUE ")
	}
	sb.WriteString("INDEX IF NOT EXISTS ")
	name := index.Name
	if name == "" {
		name = fmt.Sprintf("idx_%s_%s", table, strings.Join(index.Fields, "_"))
	}
	sb.WriteString(quoteIdentifier(name))
	sb.WriteString(" ON " + quoteIdentifier(table) + " (")
	fields := make([]string, 0, len(index.Fields))
	for _, f := range index.Fields {
		fields = append(fields, quoteIdentifier(f))
	}
	sb.WriteString(strings.Join(fields, ", ") + ");")
	return sb.String()
}

// CreateTable creates the table of a schema and its indexes in one transaction.
func CreateTable(ctx context.Context, db *sql.DB, dialect Dialect, def *schema.SchemaDefinition) error {
	table, err := CreateTableSQL(dialect, def)
	if err != nil {
		return fmt.Errorf("failed to generate SQL for table %s: %w", def.Name, err)
	}
	statements := []string{table}
	for _, index := range def.Indexes {
		statements = append(statements, CreateIndexSQL(def.Name, index))
	}

	return inTx(ctx, db, func(tx *sql.Tx) error {
		for _, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to execute SQL statement '%s': %w", stmt, err)
			}
		}
		return nil
	})
}

// DropTable drops the table of a schema if it exists.
func DropTable(ctx context.Context, db Runner, name string) error {
	if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdentifier(name)+";"); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", name, err)
	}
	return nil
}

// TableExists reports whether a table with the given name exists.
func TableExists(ctx context.Context, db Runner, dialect Dialect, name string) (bool, error) {
	var sb squirrel.SelectBuilder
	if dialect == DialectPostgres {
		sb = squirrel.Select("table_name").
			From("information_schema.tables").
			Where(squirrel.Eq{"table_name": name}).
			Where("table_schema = current_schema()")
	} else {
		sb = squirrel.Select("name").
			From("sqlite_master").
			Where(squirrel.Eq{"type": "table", "name": name})
	}
	sqlStr, args, err := sb.PlaceholderFormat(dialect.placeholder()).ToSql()
	if err != nil {
		return false, err
	}

	var found string
	if err := db.QueryRowContext(ctx, sqlStr, args...).Scan(&found); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func inTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
