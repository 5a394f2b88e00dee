package db

import (
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/andys/ifsc_enricher/config"
	"github.com/andys/ifsc_enricher/sheet"
	"github.com/frankban/quicktest"
)

var schemaColumns = []string{
	"TABLE_NAME", "COLUMN_NAME", "DATA_TYPE", "IS_NULLABLE", "IS_PRIMARY", "MAX_LENGTH",
}

func TestSchemaFromHeader(t *testing.T) {
	c := quicktest.New(t)
	schema := SchemaFromHeader("ifsc_enriched", []string{"Remitter IFSC", "", IDColumn, "BANK"})

	c.Assert(schema.HasID, quicktest.IsTrue)
	c.Assert(schema.Columns, quicktest.DeepEquals, []ColumnSchema{
		{Name: IDColumn, Type: "bigint", IsID: true},
		{Name: "Remitter IFSC", Type: "text", Nullable: true},
		{Name: "BANK", Type: "text", Nullable: true},
	})
}

func TestRowData(t *testing.T) {
	c := quicktest.New(t)
	schema := SchemaFromHeader("ifsc_enriched", []string{"Remitter IFSC", "MICR", "UPI", "BRANCH"})
	row := sheet.RowOf("Remitter IFSC", "SBIN0000001", "MICR", 400002003.0, "UPI", true)

	c.Assert(schema.RowData(4, row), quicktest.DeepEquals, map[string]interface{}{
		IDColumn:        int64(5),
		"Remitter IFSC": "SBIN0000001",
		"MICR":          "400002003",
		"UPI":           "true",
		"BRANCH":        nil,
	})
}

func TestGetTableSchema_MySQL(t *testing.T) {
	c := quicktest.New(t)
	dbMock, mock, err := sqlmock.New()
	c.Assert(err, quicktest.IsNil)
	defer dbMock.Close()

	mock.ExpectQuery("FROM information_schema.COLUMNS").
		WithArgs("ifsc_enriched").
		WillReturnRows(sqlmock.NewRows(schemaColumns).
			AddRow("ifsc_enriched", IDColumn, "bigint", false, true, 0).
			AddRow("ifsc_enriched", "BANK", "text", true, false, 65535),
		)

	conn := &Connection{db: dbMock, Type: MySQL, cfg: &config.Config{}}
	schema, err := conn.GetTableSchema("ifsc_enriched")
	c.Assert(err, quicktest.IsNil)
	c.Assert(schema.Name, quicktest.Equals, "ifsc_enriched")
	c.Assert(schema.HasID, quicktest.IsTrue)
	c.Assert(schema.Columns, quicktest.HasLen, 2)
	c.Assert(schema.Columns[0].IsID, quicktest.IsTrue)
	c.Assert(schema.Columns[1].MaxLength, quicktest.Equals, 65535)
}

func TestGetTableSchema_PostgreSQLMissingTable(t *testing.T) {
	c := quicktest.New(t)
	dbMock, mock, err := sqlmock.New()
	c.Assert(err, quicktest.IsNil)
	defer dbMock.Close()

	mock.ExpectQuery("FROM information_schema.columns").
		WithArgs("ifsc_enriched").
		WillReturnRows(sqlmock.NewRows(schemaColumns))

	conn := &Connection{db: dbMock, Type: PostgreSQL, cfg: &config.Config{}}
	schema, err := conn.GetTableSchema("ifsc_enriched")
	c.Assert(err, quicktest.IsNil)
	c.Assert(schema, quicktest.IsNil)
}

func TestEnsureTable_CreatesMissingTable(t *testing.T) {
	c := quicktest.New(t)
	dbMock, mock, err := sqlmock.New()
	c.Assert(err, quicktest.IsNil)
	defer dbMock.Close()

	mock.ExpectQuery("FROM information_schema.columns").
		WithArgs("ifsc_enriched").
		WillReturnRows(sqlmock.NewRows(schemaColumns))
	mock.ExpectExec(regexp.QuoteMeta(
		`CREATE TABLE IF NOT EXISTS "ifsc_enriched" ("row_id" BIGINT NOT NULL, "BANK" TEXT, PRIMARY KEY ("row_id"))`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	conn := &Connection{db: dbMock, Type: PostgreSQL, cfg: &config.Config{}}
	schema := SchemaFromHeader("ifsc_enriched", []string{"BANK"})
	c.Assert(conn.EnsureTable(schema), quicktest.IsNil)
	c.Assert(schema.HasID, quicktest.IsTrue)
	c.Assert(mock.ExpectationsWereMet(), quicktest.IsNil)
}

func TestEnsureTable_AddsMissingColumns(t *testing.T) {
	c := quicktest.New(t)
	dbMock, mock, err := sqlmock.New()
	c.Assert(err, quicktest.IsNil)
	defer dbMock.Close()

	mock.ExpectQuery("FROM information_schema.COLUMNS").
		WithArgs("ifsc_enriched").
		WillReturnRows(sqlmock.NewRows(schemaColumns).
			AddRow("ifsc_enriched", "BANK", "text", true, false, 0),
		)
	mock.ExpectExec(regexp.QuoteMeta("ALTER TABLE `ifsc_enriched` ADD COLUMN `row_id` BIGINT")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("ALTER TABLE `ifsc_enriched` ADD COLUMN `BRANCH` TEXT")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	conn := &Connection{db: dbMock, Type: MySQL, cfg: &config.Config{}}
	schema := SchemaFromHeader("ifsc_enriched", []string{"BANK", "BRANCH"})
	c.Assert(conn.EnsureTable(schema), quicktest.IsNil)
	// the existing table has no primary key, so rows are plain inserts
	c.Assert(schema.HasID, quicktest.IsFalse)
	c.Assert(mock.ExpectationsWereMet(), quicktest.IsNil)
}

func TestEnsureTable_CreateError(t *testing.T) {
	c := quicktest.New(t)
	dbMock, mock, err := sqlmock.New()
	c.Assert(err, quicktest.IsNil)
	defer dbMock.Close()

	mock.ExpectQuery("FROM information_schema.COLUMNS").
		WillReturnRows(sqlmock.NewRows(schemaColumns))
	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("denied"))

	conn := &Connection{db: dbMock, Type: MySQL, cfg: &config.Config{}}
	err = conn.EnsureTable(SchemaFromHeader("ifsc_enriched", []string{"BANK"}))
	c.Assert(err, quicktest.ErrorMatches, "failed to create table ifsc_enriched: denied")
}

func TestProcessSchemaRows_QueryError(t *testing.T) {
	c := quicktest.New(t)
	dbMock, mock, err := sqlmock.New()
	c.Assert(err, quicktest.IsNil)
	defer dbMock.Close()

	mock.ExpectQuery("bad query").WillReturnError(errors.New("fail"))
	conn := &Connection{db: dbMock, Type: MySQL, cfg: &config.Config{}}
	_, err = conn.processSchemaRows("bad query")
	c.Assert(err, quicktest.ErrorMatches, "failed to query schema: fail")
}

func TestProcessSchemaRows_RowsErr(t *testing.T) {
	c := quicktest.New(t)
	dbMock, mock, err := sqlmock.New()
	c.Assert(err, quicktest.IsNil)
	defer dbMock.Close()

	rows := sqlmock.NewRows(schemaColumns).AddRow("ifsc_enriched", IDColumn, "bigint", false, true, 0)
	rows.RowError(0, errors.New("row error"))
	mock.ExpectQuery("FROM information_schema.COLUMNS").WillReturnRows(rows)

	conn := &Connection{db: dbMock, Type: MySQL, cfg: &config.Config{}}
	_, err = conn.processSchemaRows("FROM information_schema.COLUMNS")
	c.Assert(err, quicktest.ErrorMatches, "error iterating schema rows: row error")
}

func TestGetTableSchema_UnsupportedDB(t *testing.T) {
	c := quicktest.New(t)
	conn := &Connection{Type: "sqlite", cfg: &config.Config{}}
	_, err := conn.GetTableSchema("ifsc_enriched")
	c.Assert(err, quicktest.ErrorMatches, "unsupported database type: sqlite")
}
