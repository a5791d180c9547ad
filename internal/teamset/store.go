package teamset

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dbsmedya/teamsweep/internal/sqlutil"
)

// Catalog lists the tables of a schema and their columns.
type Catalog interface {
	ListTables(ctx context.Context) ([]string, error)
	ListColumns(ctx context.Context, table string) (map[string]bool, error)
}

// Store is everything the sweep needs from the database: schema listing
// plus single-column SELECTs and UPDATEs. Every call is its own auto-commit
// unit.
type Store interface {
	Catalog
	Select(ctx context.Context, q sqlutil.Select) ([]string, error)
	Update(ctx context.Context, u sqlutil.Update) (int64, error)
}

// SQLStore implements Store over database/sql.
type SQLStore struct {
	Catalog
	db *sql.DB
}

// NewSQLStore wraps db, using catalog for schema listing.
func NewSQLStore(db *sql.DB, catalog Catalog) (*SQLStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database is nil")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog is nil")
	}
	return &SQLStore{Catalog: catalog, db: db}, nil
}

// Select runs q and returns the non-NULL values of its column.
func (s *SQLStore) Select(ctx context.Context, q sqlutil.Select) ([]string, error) {
	query, args, err := q.Build()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select from %s failed: %w", q.Table, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v sql.NullString
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan of %s.%s failed: %w", q.Table, q.Column, err)
		}
		if v.Valid {
			values = append(values, v.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return values, nil
}

// Update runs u and returns the number of rows it changed.
func (s *SQLStore) Update(ctx context.Context, u sqlutil.Update) (int64, error) {
	query, args, err := u.Build()
	if err != nil {
		return 0, err
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("update of %s failed: %w", u.Table, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected, nil
}
