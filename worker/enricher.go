package worker

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/andys/ifsc_enricher/config"
	"github.com/andys/ifsc_enricher/sheet"
)

const (
	// ErrorColumn holds the failure message on rows whose lookup failed
	ErrorColumn = "error"
	// KeyColumn repeats the lookup key on rows whose lookup failed
	KeyColumn = "IFSC"
	// ErrorMessage is the value of ErrorColumn
	ErrorMessage = "Invalid IFSC or not found"
)

// Progress tracks the progress of an enrichment batch
type Progress struct {
	TotalRows     atomic.Int64
	CompletedRows atomic.Int64
	FailedRows    atomic.Int64
	StartTime     time.Time
}

// ProgressSnapshot is a point-in-time copy of Progress
type ProgressSnapshot struct {
	TotalRows     int64
	CompletedRows int64
	FailedRows    int64
	Elapsed       time.Duration
}

// Enricher looks up every row of a RowSet using a worker pool
type Enricher struct {
	lookup   Lookuper
	workers  int
	progress *Progress
	cfg      *config.Config
}

// NewEnricher creates an enricher. A WorkerCount of 0 runs every lookup of
// a batch at once.
func NewEnricher(lookup Lookuper, cfg *config.Config) *Enricher {
	return &Enricher{
		lookup:   lookup,
		workers:  cfg.WorkerCount,
		progress: &Progress{StartTime: time.Now()},
		cfg:      cfg,
	}
}

// Enrich issues one lookup per row and waits for all of them. The result has
// the same length and order as rows. A failed lookup turns into an error
// row; only cancellation of ctx fails the batch, and then no rows are
// returned.
func (e *Enricher) Enrich(ctx context.Context, rows sheet.RowSet, column string) (sheet.RowSet, error) {
	e.progress.TotalRows.Store(int64(len(rows)))
	e.progress.CompletedRows.Store(0)
	e.progress.FailedRows.Store(0)

	if len(rows) == 0 {
		return sheet.RowSet{}, nil
	}

	workers := e.workers
	if workers <= 0 || workers > len(rows) {
		workers = len(rows)
	}

	pool := pond.NewPool(workers, pond.WithContext(ctx))
	defer pool.StopAndWait()

	group := pool.NewGroup()
	enriched := make(sheet.RowSet, len(rows))

	for i, row := range rows {
		group.Submit(func() {
			enriched[i] = e.enrichRow(ctx, row, column)
			e.progress.CompletedRows.Add(1)
		})
	}

	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("enrichment aborted: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("enrichment aborted: %w", err)
	}

	return enriched, nil
}

// enrichRow merges the lookup result into a copy of row, or marks it as failed
func (e *Enricher) enrichRow(ctx context.Context, row *sheet.Row, column string) *sheet.Row {
	key, _ := row.Get(column)
	code := sheet.Text(key)
	if code == "" {
		e.progress.FailedRows.Add(1)
		if e.cfg.Debug {
			fmt.Fprintf(os.Stderr, "Row has no value in column %q\n", column)
		}
		return ErrorRow(row, key)
	}

	fields, err := e.lookup.Lookup(ctx, code)
	if err != nil {
		e.progress.FailedRows.Add(1)
		if e.cfg.Debug {
			fmt.Fprintf(os.Stderr, "Error looking up %s: %v\n", code, err)
		}
		return ErrorRow(row, key)
	}

	return row.Merge(fields)
}

// ErrorRow returns a copy of row marked with the lookup key and the failure message
func ErrorRow(row *sheet.Row, key interface{}) *sheet.Row {
	failed := row.Clone()
	failed.Set(KeyColumn, key)
	failed.Set(ErrorColumn, ErrorMessage)
	return failed
}

// GetProgress returns the current progress
func (e *Enricher) GetProgress() ProgressSnapshot {
	return ProgressSnapshot{
		TotalRows:     e.progress.TotalRows.Load(),
		CompletedRows: e.progress.CompletedRows.Load(),
		FailedRows:    e.progress.FailedRows.Load(),
		Elapsed:       time.Since(e.progress.StartTime),
	}
}
