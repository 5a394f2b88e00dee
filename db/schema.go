package db

import (
	"fmt"
	"strings"

	"github.com/andys/ifsc_enricher/sheet"
)

// IDColumn is the primary key of a sink table: the 1-based position of the
// row in the enriched file.
const IDColumn = "row_id"

// TableSchema represents the structure of a database table
type TableSchema struct {
	Name    string
	Columns []ColumnSchema
	HasID   bool // Indicates if table has an ID field for upsert logic
}

// ColumnSchema represents the structure of a table column
type ColumnSchema struct {
	Name      string
	Type      string
	IsID      bool // True if this is an ID column
	Nullable  bool
	MaxLength int // Maximum length for varchar fields
}

// SchemaFromHeader builds the sink table layout for an export header: the
// row id followed by one text column per spreadsheet column.
func SchemaFromHeader(table string, header []string) *TableSchema {
	schema := &TableSchema{
		Name:  table,
		HasID: true,
		Columns: []ColumnSchema{
			{Name: IDColumn, Type: "bigint", IsID: true},
		},
	}
	for _, name := range header {
		if name == "" || name == IDColumn {
			continue
		}
		schema.Columns = append(schema.Columns, ColumnSchema{Name: name, Type: "text", Nullable: true})
	}
	return schema
}

// RowData maps a spreadsheet row to column values for UpsertRow. Missing
// cells become NULL.
func (s *TableSchema) RowData(index int, row *sheet.Row) map[string]interface{} {
	data := make(map[string]interface{}, len(s.Columns))
	for _, col := range s.Columns {
		if col.IsID {
			data[col.Name] = int64(index + 1)
			continue
		}
		v, ok := row.Get(col.Name)
		if !ok || v == nil {
			data[col.Name] = nil
			continue
		}
		data[col.Name] = sheet.Text(v)
	}
	return data
}

// GetTableSchema retrieves the schema of one table, or nil if it does not exist
func (c *Connection) GetTableSchema(table string) (*TableSchema, error) {
	var schemas []TableSchema
	var err error
	switch c.Type {
	case MySQL:
		schemas, err = c.getMySQLSchema(table)
	case PostgreSQL:
		schemas, err = c.getPostgresSchema(table)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.Type)
	}
	if err != nil {
		return nil, err
	}
	if len(schemas) == 0 {
		return nil, nil
	}
	return &schemas[0], nil
}

func (c *Connection) getMySQLSchema(table string) ([]TableSchema, error) {
	query := `
        SELECT
            c.TABLE_NAME,
            c.COLUMN_NAME,
            c.DATA_TYPE,
            CASE WHEN c.IS_NULLABLE = 'YES' THEN 1 ELSE 0 END as IS_NULLABLE,
            CASE WHEN c.COLUMN_KEY = 'PRI' THEN 1 ELSE 0 END as IS_PRIMARY,
            COALESCE(c.CHARACTER_MAXIMUM_LENGTH, 0) as MAX_LENGTH
        FROM information_schema.COLUMNS c
        WHERE c.TABLE_SCHEMA = DATABASE()
            AND c.TABLE_NAME = ?
        ORDER BY c.ORDINAL_POSITION`

	return c.processSchemaRows(query, table)
}

func (c *Connection) getPostgresSchema(table string) ([]TableSchema, error) {
	query := `
        SELECT
            c.table_name,
            c.column_name,
            c.data_type,
            CASE WHEN c.is_nullable = 'YES' THEN 1 ELSE 0 END as is_nullable,
            CASE WHEN pk.column_name IS NOT NULL THEN 1 ELSE 0 END as is_primary,
            COALESCE(c.character_maximum_length, 0) as max_length
        FROM information_schema.columns c
        LEFT JOIN (
            SELECT tc.table_name, kcu.column_name
            FROM information_schema.table_constraints tc
            JOIN information_schema.key_column_usage kcu
                ON tc.constraint_name = kcu.constraint_name
            WHERE tc.constraint_type = 'PRIMARY KEY'
        ) pk ON c.table_name = pk.table_name
            AND c.column_name = pk.column_name
        WHERE c.table_schema = 'public'
            AND c.table_name = $1
        ORDER BY c.ordinal_position`

	return c.processSchemaRows(query, table)
}

func (c *Connection) processSchemaRows(query string, args ...interface{}) ([]TableSchema, error) {
	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query schema: %w", err)
	}
	defer rows.Close()

	schemas := make([]TableSchema, 0)
	currentTable := ""
	var currentSchema *TableSchema

	for rows.Next() {
		var tableName, columnName, dataType string
		var isNullable, isPrimary bool
		var maxLength int

		if err := rows.Scan(&tableName, &columnName, &dataType, &isNullable, &isPrimary, &maxLength); err != nil {
			return nil, fmt.Errorf("failed to scan schema row: %w", err)
		}

		if tableName != currentTable {
			if currentSchema != nil {
				schemas = append(schemas, *currentSchema)
			}
			currentTable = tableName
			currentSchema = &TableSchema{
				Name:    tableName,
				Columns: make([]ColumnSchema, 0),
			}
		}

		column := ColumnSchema{
			Name:      columnName,
			Type:      dataType,
			IsID:      isPrimary && columnName == IDColumn,
			Nullable:  isNullable,
			MaxLength: maxLength,
		}

		if column.IsID {
			currentSchema.HasID = true
		}

		currentSchema.Columns = append(currentSchema.Columns, column)
	}

	if currentSchema != nil {
		schemas = append(schemas, *currentSchema)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schema rows: %w", err)
	}

	return schemas, nil
}

// EnsureTable creates the sink table, or adds the columns an existing table
// lacks. HasID on schema is updated to match the table actually present.
func (c *Connection) EnsureTable(schema *TableSchema) error {
	existing, err := c.GetTableSchema(schema.Name)
	if err != nil {
		return err
	}

	if existing == nil {
		query := c.createTableQuery(schema)
		c.logQuery(query)
		if _, err := c.db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", schema.Name, err)
		}
		return nil
	}

	present := make(map[string]bool, len(existing.Columns))
	for _, col := range existing.Columns {
		present[col.Name] = true
	}
	for _, col := range schema.Columns {
		if present[col.Name] {
			continue
		}
		query := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s",
			escapeIdentifier(schema.Name, c.Type),
			escapeIdentifier(col.Name, c.Type),
			c.columnType(col))
		c.logQuery(query)
		if _, err := c.db.Exec(query); err != nil {
			return fmt.Errorf("failed to add column %s to table %s: %w", col.Name, schema.Name, err)
		}
	}
	schema.HasID = existing.HasID
	return nil
}

func (c *Connection) createTableQuery(schema *TableSchema) string {
	defs := make([]string, 0, len(schema.Columns)+1)
	var ids []string
	for _, col := range schema.Columns {
		def := escapeIdentifier(col.Name, c.Type) + " " + c.columnType(col)
		if col.IsID {
			def += " NOT NULL"
			ids = append(ids, escapeIdentifier(col.Name, c.Type))
		}
		defs = append(defs, def)
	}
	if len(ids) > 0 {
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(ids, ", ")))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		escapeIdentifier(schema.Name, c.Type), strings.Join(defs, ", "))
}

func (c *Connection) columnType(col ColumnSchema) string {
	if col.IsID {
		return "BIGINT"
	}
	return "TEXT"
}
