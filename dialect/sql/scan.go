package sql

import (
	"context"
	"fmt"

	"github.com/blockscms/blocks/dialect"
)

// ScanMaps scans all rows into a slice of column-name keyed maps and closes
// the rows. Byte slices are converted to strings, since every driver in use
// returns TEXT and VARCHAR columns that way for untyped destinations.
func ScanMaps(rows ColumnScanner) ([]map[string]any, error) {
	defer rows.Close()
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: columns: %w", err)
	}
	var result []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("dialect/sql: scan: %w", err)
		}
		row := make(map[string]any, len(columns))
		for i, c := range columns {
			if b, ok := values[i].([]byte); ok {
				row[c] = string(b)
				continue
			}
			row[c] = values[i]
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ScanInt scans a single integer from the first column of the first row and
// closes the rows. It is used for COUNT queries.
func ScanInt(rows ColumnScanner) (int, error) {
	defer rows.Close()
	var n int
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("dialect/sql: no rows to scan")
	}
	if err := rows.Scan(&n); err != nil {
		return 0, fmt.Errorf("dialect/sql: scan: %w", err)
	}
	return n, rows.Close()
}

// QueryMaps executes the query on eq and returns all rows as maps.
func QueryMaps(ctx context.Context, eq dialect.ExecQuerier, query string, args []any) ([]map[string]any, error) {
	rows := &Rows{}
	if err := eq.Query(ctx, query, args, rows); err != nil {
		return nil, err
	}
	return ScanMaps(rows)
}

// QueryInt executes the query on eq and returns the single integer it selects.
func QueryInt(ctx context.Context, eq dialect.ExecQuerier, query string, args []any) (int, error) {
	rows := &Rows{}
	if err := eq.Query(ctx, query, args, rows); err != nil {
		return 0, err
	}
	return ScanInt(rows)
}
