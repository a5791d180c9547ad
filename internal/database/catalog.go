package database

import (
	"context"
	"database/sql"
	"fmt"
)

// MySQLCatalog lists tables and columns of one schema through
// information_schema.
type MySQLCatalog struct {
	db     *sql.DB
	schema string
}

// NewMySQLCatalog creates a catalog for the given schema.
func NewMySQLCatalog(db *sql.DB, schema string) (*MySQLCatalog, error) {
	if db == nil {
		return nil, fmt.Errorf("database is nil")
	}
	if schema == "" {
		return nil, fmt.Errorf("schema name is required")
	}
	return &MySQLCatalog{db: db, schema: schema}, nil
}

// Schema returns the schema this catalog reads.
func (c *MySQLCatalog) Schema() string {
	return c.schema
}

// ListTables returns the base tables of the schema in name order. Views are
// skipped: they cannot hold references of their own.
func (c *MySQLCatalog) ListTables(ctx context.Context) ([]string, error) {
	const query = `
		SELECT TABLE_NAME
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = ?
		AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME`

	rows, err := c.db.QueryContext(ctx, query, c.schema)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tables, nil
}

// ListColumns returns the column names of table as a set.
func (c *MySQLCatalog) ListColumns(ctx context.Context, table string) (map[string]bool, error) {
	const query = `
		SELECT COLUMN_NAME
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = ?
		AND TABLE_NAME = ?`

	rows, err := c.db.QueryContext(ctx, query, c.schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns of %s: %w", table, err)
	}
	defer rows.Close()

	columns := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		columns[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return columns, nil
}
