package db

import (
	"fmt"
	"strings"
)

// UpsertRow handles inserting or updating a row in the sink table
func (c *Connection) UpsertRow(schema *TableSchema, data map[string]interface{}) error {
	if c.db == nil {
		return fmt.Errorf("sql: database is closed")
	}

	// For tables without ID, just do a regular insert
	if !schema.HasID {
		return c.insertRow(schema, data)
	}

	switch c.Type {
	case MySQL:
		return c.mysqlUpsert(schema, data)
	case PostgreSQL:
		return c.postgresUpsert(schema, data)
	default:
		return fmt.Errorf("unsupported database type: %s", c.Type)
	}
}

func escapeIdentifier(identifier string, dbType DBType) string {
	switch dbType {
	case MySQL:
		return "`" + strings.ReplaceAll(identifier, "`", "``") + "`"
	case PostgreSQL:
		return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
	default:
		return identifier
	}
}

func escapeIdentifiers(identifiers []string, dbType DBType) []string {
	escaped := make([]string, len(identifiers))
	for i, id := range identifiers {
		escaped[i] = escapeIdentifier(id, dbType)
	}
	return escaped
}

func (c *Connection) placeholder(n int) string {
	if c.Type == PostgreSQL {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// collect returns the schema columns present in data with their values and
// placeholders, in schema order.
func (c *Connection) collect(schema *TableSchema, data map[string]interface{}) (columns, placeholders []string, values []interface{}) {
	columns = make([]string, 0, len(schema.Columns))
	placeholders = make([]string, 0, len(schema.Columns))
	values = make([]interface{}, 0, len(schema.Columns))
	for _, col := range schema.Columns {
		if val, ok := data[col.Name]; ok {
			columns = append(columns, col.Name)
			values = append(values, val)
			placeholders = append(placeholders, c.placeholder(len(values)))
		}
	}
	return columns, placeholders, values
}

func (c *Connection) insertRow(schema *TableSchema, data map[string]interface{}) error {
	columns, placeholders, values := c.collect(schema, data)

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		escapeIdentifier(schema.Name, c.Type),
		strings.Join(escapeIdentifiers(columns, c.Type), ", "),
		strings.Join(placeholders, ", "),
	)

	return c.execInTx(query, values)
}

func (c *Connection) mysqlUpsert(schema *TableSchema, data map[string]interface{}) error {
	columns, placeholders, values := c.collect(schema, data)

	// Only create update clauses for non-ID columns
	updateClauses := make([]string, 0)
	for _, col := range schema.Columns {
		if !col.IsID {
			if _, ok := data[col.Name]; ok {
				name := escapeIdentifier(col.Name, c.Type)
				updateClauses = append(updateClauses, fmt.Sprintf("%s = VALUES(%s)", name, name))
			}
		}
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		escapeIdentifier(schema.Name, c.Type),
		strings.Join(escapeIdentifiers(columns, c.Type), ", "),
		strings.Join(placeholders, ", "),
	)
	if len(updateClauses) > 0 {
		query += " ON DUPLICATE KEY UPDATE " + strings.Join(updateClauses, ", ")
	}

	return c.execInTx(query, values)
}

func (c *Connection) postgresUpsert(schema *TableSchema, data map[string]interface{}) error {
	columns, placeholders, values := c.collect(schema, data)

	idColumns := make([]string, 0)
	updateClauses := make([]string, 0)
	for _, col := range schema.Columns {
		if _, ok := data[col.Name]; !ok {
			continue
		}
		name := escapeIdentifier(col.Name, c.Type)
		if col.IsID {
			idColumns = append(idColumns, name)
		} else {
			updateClauses = append(updateClauses, fmt.Sprintf("%s = EXCLUDED.%s", name, name))
		}
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s)",
		escapeIdentifier(schema.Name, c.Type),
		strings.Join(escapeIdentifiers(columns, c.Type), ", "),
		strings.Join(placeholders, ", "),
		strings.Join(idColumns, ", "),
	)
	if len(updateClauses) > 0 {
		query += " DO UPDATE SET " + strings.Join(updateClauses, ", ")
	} else {
		query += " DO NOTHING"
	}

	c.logQuery(query)
	if _, err := c.db.Exec(query, values...); err != nil {
		return fmt.Errorf("failed to execute query: %s, error: %w", query, err)
	}
	return nil
}

func (c *Connection) execInTx(query string, values []interface{}) error {
	c.logQuery(query)

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(query, values...); err != nil {
		return fmt.Errorf("failed to execute query: %s, error: %w", query, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
