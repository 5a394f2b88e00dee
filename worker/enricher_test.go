package worker

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andys/ifsc_enricher/config"
	"github.com/andys/ifsc_enricher/lookup"
	"github.com/andys/ifsc_enricher/sheet"
	"github.com/frankban/quicktest"
)

// fakeLookup answers from a fixed table; unknown codes are not found.
type fakeLookup struct {
	mu       sync.Mutex
	known    map[string]*sheet.Row
	calls    []string
	maxDelay time.Duration
	inFlight atomic.Int64
	peak     atomic.Int64
}

func (f *fakeLookup) Lookup(ctx context.Context, code string) (*sheet.Row, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, code)
	f.mu.Unlock()

	if f.maxDelay > 0 {
		select {
		case <-time.After(time.Duration(rand.Int63n(int64(f.maxDelay)))):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if fields, ok := f.known[code]; ok {
		return fields, nil
	}
	return nil, fmt.Errorf("lookup %s: %w", code, lookup.ErrNotFound)
}

const column = "Remitter IFSC"

func TestEnrich_Scenario(t *testing.T) {
	c := quicktest.New(t)
	fake := &fakeLookup{known: map[string]*sheet.Row{
		"SBIN0000001": sheet.RowOf("BANK", "SBI", "BRANCH", "X"),
	}}
	rows := sheet.RowSet{
		sheet.RowOf(column, "SBIN0000001"),
		sheet.RowOf(column, "BADCODE"),
	}

	enriched, err := NewEnricher(fake, &config.Config{}).Enrich(context.Background(), rows, column)
	c.Assert(err, quicktest.IsNil)
	c.Assert(enriched, quicktest.HasLen, 2)
	c.Assert(enriched[0].Keys(), quicktest.DeepEquals, []string{column, "BANK", "BRANCH"})
	c.Assert(enriched[0].Map(), quicktest.DeepEquals, map[string]interface{}{
		column: "SBIN0000001", "BANK": "SBI", "BRANCH": "X",
	})
	c.Assert(enriched[1].Keys(), quicktest.DeepEquals, []string{column, "IFSC", "error"})
	c.Assert(enriched[1].Map(), quicktest.DeepEquals, map[string]interface{}{
		column: "BADCODE", "IFSC": "BADCODE", "error": "Invalid IFSC or not found",
	})
	// input rows are not modified
	c.Assert(rows[0].Len(), quicktest.Equals, 1)
	c.Assert(rows[1].Len(), quicktest.Equals, 1)
}

func TestEnrich_PreservesOrder(t *testing.T) {
	for _, workers := range []int{0, 3} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			c := quicktest.New(t)
			fake := &fakeLookup{known: map[string]*sheet.Row{}, maxDelay: 5 * time.Millisecond}
			rows := make(sheet.RowSet, 40)
			for i := range rows {
				code := fmt.Sprintf("CODE%07d", i)
				if i%4 != 0 {
					fake.known[code] = sheet.RowOf("BANK", fmt.Sprintf("bank-%d", i))
				}
				rows[i] = sheet.RowOf("n", float64(i), column, code)
			}

			enricher := NewEnricher(fake, &config.Config{WorkerCount: workers})
			enriched, err := enricher.Enrich(context.Background(), rows, column)
			c.Assert(err, quicktest.IsNil)
			c.Assert(enriched, quicktest.HasLen, len(rows))
			for i, row := range enriched {
				n, _ := row.Get("n")
				c.Assert(n, quicktest.Equals, float64(i))
				_, failed := row.Get("error")
				c.Assert(failed, quicktest.Equals, i%4 == 0)
			}

			progress := enricher.GetProgress()
			c.Assert(progress.TotalRows, quicktest.Equals, int64(40))
			c.Assert(progress.CompletedRows, quicktest.Equals, int64(40))
			c.Assert(progress.FailedRows, quicktest.Equals, int64(10))
			if workers > 0 {
				c.Assert(fake.peak.Load() <= int64(workers), quicktest.IsTrue)
			}
		})
	}
}

func TestEnrich_MissingKeySkipsLookup(t *testing.T) {
	c := quicktest.New(t)
	fake := &fakeLookup{known: map[string]*sheet.Row{}}
	rows := sheet.RowSet{sheet.RowOf("Remitter Name", "Asha")}

	enriched, err := NewEnricher(fake, &config.Config{}).Enrich(context.Background(), rows, column)
	c.Assert(err, quicktest.IsNil)
	c.Assert(fake.calls, quicktest.HasLen, 0)
	c.Assert(enriched[0].Map(), quicktest.DeepEquals, map[string]interface{}{
		"Remitter Name": "Asha", "IFSC": nil, "error": ErrorMessage,
	})
}

func TestEnrich_NumericKey(t *testing.T) {
	c := quicktest.New(t)
	fake := &fakeLookup{known: map[string]*sheet.Row{"12345": sheet.RowOf("BANK", "Numeric")}}
	rows := sheet.RowSet{sheet.RowOf(column, 12345.0)}

	enriched, err := NewEnricher(fake, &config.Config{}).Enrich(context.Background(), rows, column)
	c.Assert(err, quicktest.IsNil)
	c.Assert(fake.calls, quicktest.DeepEquals, []string{"12345"})
	v, _ := enriched[0].Get("BANK")
	c.Assert(v, quicktest.Equals, "Numeric")
}

func TestEnrich_LookupFieldsOverrideRow(t *testing.T) {
	c := quicktest.New(t)
	fake := &fakeLookup{known: map[string]*sheet.Row{
		"SBIN0000001": sheet.RowOf("BANK", "State Bank of India"),
	}}
	rows := sheet.RowSet{sheet.RowOf("BANK", "typo", column, "SBIN0000001")}

	enriched, err := NewEnricher(fake, &config.Config{}).Enrich(context.Background(), rows, column)
	c.Assert(err, quicktest.IsNil)
	c.Assert(enriched[0].Keys(), quicktest.DeepEquals, []string{"BANK", column})
	v, _ := enriched[0].Get("BANK")
	c.Assert(v, quicktest.Equals, "State Bank of India")
}

func TestEnrich_Empty(t *testing.T) {
	c := quicktest.New(t)
	enriched, err := NewEnricher(&fakeLookup{}, &config.Config{}).Enrich(context.Background(), nil, column)
	c.Assert(err, quicktest.IsNil)
	c.Assert(enriched, quicktest.HasLen, 0)
}

func TestEnrich_Cancelled(t *testing.T) {
	c := quicktest.New(t)
	fake := &fakeLookup{known: map[string]*sheet.Row{}, maxDelay: time.Hour}
	rows := sheet.RowSet{sheet.RowOf(column, "A"), sheet.RowOf(column, "B")}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	enriched, err := NewEnricher(fake, &config.Config{}).Enrich(ctx, rows, column)
	c.Assert(errors.Is(err, context.Canceled), quicktest.IsTrue)
	c.Assert(enriched, quicktest.IsNil)
}
