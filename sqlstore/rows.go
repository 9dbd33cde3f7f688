package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/MBrOssss/RESTApi/core/schema"
)

// Runner abstracts the methods shared by *sql.DB and *sql.Tx, so the same code
// serves transactional and non-transactional access.
type Runner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ Runner = (*sql.DB)(nil)
	_ Runner = (*sql.Tx)(nil)
)

// readRows scans all rows into documents, converting each column to the
// canonical Go type of its schema field. Columns unknown to the schema keep
// their raw driver value.
func readRows(logger *zap.Logger, def *schema.SchemaDefinition, rows *sql.Rows) ([]schema.Document, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	results := []schema.Document{}
	for rows.Next() {
		values := make([]any, len(columns))
		scanArgs := make([]any, len(columns))
		for i := range values {
			scanArgs[i] = &values[i]
		}
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(schema.Document, len(columns))
		for i, col := range columns {
			fd, ok := def.Fields[col]
			if !ok {
				logger.Warn("Column not found in schema, using raw value", zap.String("column", col))
				row[col] = values[i]
				continue
			}
			v, err := schema.Normalize(fd.Type, values[i])
			if err != nil {
				return nil, fmt.Errorf("failed to decode column '%s': %w", col, err)
			}
			row[col] = v
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return results, nil
}
