package db

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/andys/ifsc_enricher/config"
	"github.com/frankban/quicktest"
)

func TestConnect_UnsupportedScheme(t *testing.T) {
	c := quicktest.New(t)
	_, err := Connect("sqlite://local.db", &config.Config{}, 1)
	c.Assert(err, quicktest.ErrorMatches, "unsupported database type: sqlite")
}

func TestConnect_InvalidURL(t *testing.T) {
	c := quicktest.New(t)
	_, err := Connect("://nope", &config.Config{}, 1)
	c.Assert(err, quicktest.ErrorMatches, "invalid database URL: .*")
}

func TestClose(t *testing.T) {
	c := quicktest.New(t)
	dbMock, mock, err := sqlmock.New()
	c.Assert(err, quicktest.IsNil)
	mock.ExpectClose()

	conn := &Connection{db: dbMock, Type: MySQL, cfg: &config.Config{}}
	c.Assert(conn.GetDB(), quicktest.Equals, dbMock)
	c.Assert(conn.Close(), quicktest.IsNil)
	c.Assert(mock.ExpectationsWereMet(), quicktest.IsNil)

	c.Assert((&Connection{}).Close(), quicktest.IsNil)
}
