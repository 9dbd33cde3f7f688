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

// ErrInvalidDocument is returned when a document does not conform to its schema.
var ErrInvalidDocument = errors.New("invalid document")

// Insert validates the documents against the schema and inserts them in one
// transaction. Nothing is written if any document is invalid. Missing nullable
// fields are stored as NULL.
func Insert(ctx context.Context, db *sql.DB, dialect Dialect, def *schema.SchemaDefinition, docs ...schema.Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	if err := def.Validate(); err != nil {
		return 0, err
	}

	validator := schema.NewValidator(def)
	for i, doc := range docs {
		if ok, issues := validator.Validate(doc, false); !ok {
			messages := make([]string, 0, len(issues))
			for _, issue := range issues {
				messages = append(messages, issue.Message)
			}
			return 0, fmt.Errorf("%w: document %d: %s", ErrInvalidDocument, i, strings.Join(messages, "; "))
		}
	}

	names := def.FieldNames()
	columns := make([]string, 0, len(names))
	for _, name := range names {
		columns = append(columns, quoteIdentifier(name))
	}

	ib := squirrel.Insert(quoteIdentifier(def.Name)).Columns(columns...)
	for _, doc := range docs {
		values := make([]any, 0, len(names))
		for _, name := range names {
			v, err := dialect.encodeValue(def.Fields[name].Type, doc[name])
			if err != nil {
				return 0, fmt.Errorf("field '%s': %w", name, err)
			}
			values = append(values, v)
		}
		ib = ib.Values(values...)
	}

	sqlStr, args, err := ib.PlaceholderFormat(dialect.placeholder()).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build insert: %w", err)
	}

	var inserted int64
	err = inTx(ctx, db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, sqlStr, args...)
		if err != nil {
			return fmt.Errorf("failed to insert into %s: %w", def.Name, err)
		}
		inserted, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	return int(inserted), nil
}

// SoftDelete sets the delete flag of the record with the given identifier. The
// schema must declare both an identifier and a delete flag field.
func SoftDelete(ctx context.Context, db Runner, dialect Dialect, def *schema.SchemaDefinition, id any) (bool, error) {
	descriptor, err := schema.NewDocumentDescriptor(def)
	if err != nil {
		return false, err
	}
	idField, ok := descriptor.IDField()
	if !ok {
		return false, fmt.Errorf("entity '%s' has no identifier field", def.Name)
	}
	flag, ok := descriptor.DeletedField()
	if !ok {
		return false, fmt.Errorf("entity '%s' has no delete flag field", def.Name)
	}

	idValue, err := dialect.encodeValue(idField.Type, id)
	if err != nil {
		return false, fmt.Errorf("field '%s': %w", idField.Name, err)
	}
	flagValue, err := dialect.encodeValue(flag.Type, true)
	if err != nil {
		return false, err
	}

	sqlStr, args, err := squirrel.Update(quoteIdentifier(def.Name)).
		Set(quoteIdentifier(flag.Name), flagValue).
		Where(squirrel.Eq{quoteIdentifier(idField.Name): idValue}).
		PlaceholderFormat(dialect.placeholder()).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build update: %w", err)
	}

	res, err := db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return false, fmt.Errorf("failed to mark %s deleted: %w", def.Name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
