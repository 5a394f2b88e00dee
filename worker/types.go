package worker

import (
	"context"

	"github.com/andys/ifsc_enricher/db"
	"github.com/andys/ifsc_enricher/sheet"
)

// Lookuper fetches the fields for one lookup key
type Lookuper interface {
	Lookup(ctx context.Context, code string) (*sheet.Row, error)
}

// Sink stores one row of an enriched file
type Sink interface {
	UpsertRow(schema *db.TableSchema, data map[string]interface{}) error
}
