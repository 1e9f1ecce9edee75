package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/andrewjk/Watsonia.Data-sub000/internal/queryir"
)

// Load runs sel and materializes each row as a new item of entity. Column
// values are assigned through the mapping: scalar columns to their
// properties, navigation-only foreign keys to related-item stubs.
//
// Returns an empty slice (not nil) when no rows match.
func (s *Store) Load(ctx context.Context, sel *queryir.Select, entity string) ([]any, error) {
	if s.mapping == nil {
		return nil, fmt.Errorf("load %s: store has no mapping", entity)
	}

	columns, rows, err := s.run(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", entity, err)
	}

	items := make([]any, 0, len(rows))
	for _, row := range rows {
		item, err := s.mapping.NewItem(entity)
		if err != nil {
			return nil, err
		}
		for i, col := range columns {
			if err := s.mapping.SetColumn(item, col, row[i]); err != nil {
				return nil, fmt.Errorf("load %s: %w", entity, err)
			}
		}
		items = append(items, item)
	}

	s.logger.Debug("loaded rows", "entity", entity, "rows", len(items))
	return items, nil
}

// Query runs sel and returns each row keyed by result column name. Use it
// for projections and aggregates that are not entity shaped.
func (s *Store) Query(ctx context.Context, sel *queryir.Select) ([]Row, error) {
	columns, rows, err := s.run(ctx, sel)
	if err != nil {
		return nil, err
	}
	out := make([]Row, 0, len(rows))
	for _, values := range rows {
		out = append(out, newRow(columns, values))
	}
	return out, nil
}

// run compiles and executes sel, returning result column names and raw
// row values.
func (s *Store) run(ctx context.Context, sel *queryir.Select) ([]string, [][]any, error) {
	query, params, err := s.compiler.Compile(sel)
	if err != nil {
		return nil, nil, fmt.Errorf("compile select: %w", err)
	}
	s.logger.Debug("executing select", "sql", query, "params", len(params))

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("columns: %w", err)
	}

	var out [][]any
	for rows.Next() {
		values, err := scanValues(rows, len(columns))
		if err != nil {
			return nil, nil, err
		}
		out = append(out, values)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate rows: %w", err)
	}
	return columns, out, nil
}

// scanValues scans one row into driver values.
func scanValues(rows *sql.Rows, n int) ([]any, error) {
	values := make([]any, n)
	ptrs := make([]any, n)
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scan row: %w", err)
	}
	return values, nil
}
