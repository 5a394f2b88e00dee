package worker

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/andys/ifsc_enricher/config"
	"github.com/andys/ifsc_enricher/db"
	"github.com/andys/ifsc_enricher/sheet"
)

// WriterProgress tracks the progress of writing operations
type WriterProgress struct {
	ProcessedRows atomic.Int64
	ErrorCount    atomic.Int64
	StartTime     time.Time
}

// Writer manages writing enriched rows to a sink using a worker pool
type Writer struct {
	dest     Sink
	pool     pond.Pool
	progress *WriterProgress
	cfg      *config.Config
}

// NewWriter creates a new writer worker pool
func NewWriter(dest Sink, maxWorkers int, cfg *config.Config) *Writer {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	return &Writer{
		dest: dest,
		pool: pond.NewPool(maxWorkers, pond.WithQueueSize(maxWorkers*2000)),
		progress: &WriterProgress{
			StartTime: time.Now(),
		},
		cfg: cfg,
	}
}

// WriteRows stores every row and returns the first error
func (w *Writer) WriteRows(schema *db.TableSchema, rows sheet.RowSet) error {
	group := w.pool.NewGroup()

	for i, row := range rows {
		data := schema.RowData(i, row)
		group.SubmitErr(func() error {
			return w.upsertRow(schema, data)
		})
	}

	return group.Wait()
}

// upsertRow handles the upsert operation for a single row
func (w *Writer) upsertRow(schema *db.TableSchema, data map[string]interface{}) error {
	err := w.dest.UpsertRow(schema, data)
	if err != nil {
		w.progress.ErrorCount.Add(1)
		if w.cfg.Debug {
			fmt.Fprintf(os.Stderr, "Error writing to table %s: %v\n", schema.Name, err)
		}
		return err
	}
	w.progress.ProcessedRows.Add(1)
	return nil
}

// Processed returns the number of rows written so far
func (w *Writer) Processed() int64 {
	return w.progress.ProcessedRows.Load()
}

// Errors returns the number of rows that failed to write
func (w *Writer) Errors() int64 {
	return w.progress.ErrorCount.Load()
}

// StopAndWait stops the worker pool and waits for all tasks to complete
func (w *Writer) StopAndWait() {
	w.pool.StopAndWait()
}
