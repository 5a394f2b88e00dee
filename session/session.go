// Package session holds the state of one enrichment session: the uploaded
// rows, the enriched rows and the page being viewed.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/andys/ifsc_enricher/sheet"
)

var (
	// ErrNothingToEnrich is returned by Enrich before a valid upload.
	ErrNothingToEnrich = errors.New("no rows to enrich")
	// ErrNothingToExport is returned by Export before enrichment.
	ErrNothingToExport = errors.New("no enriched rows to export")
	// ErrBatchRunning is returned when an enrichment is already in flight.
	ErrBatchRunning = errors.New("enrichment already running")
	// ErrStaleBatch is returned when a newer upload replaced the rows a
	// batch was started for; its result is discarded.
	ErrStaleBatch = errors.New("enrichment superseded by a newer upload")
)

// Enricher turns raw rows into enriched rows.
type Enricher interface {
	Enrich(ctx context.Context, rows sheet.RowSet, column string) (sheet.RowSet, error)
}

// Session is the controller state of one user. All methods are safe for
// concurrent use.
type Session struct {
	mu sync.Mutex

	column    string // setting for the next upload
	keyColumn string // column the current raw rows were validated against
	fileName  string
	raw       sheet.RowSet
	enriched  sheet.RowSet
	page      int
	lastErr   error

	generation uint64
	loading    bool
	cancel     context.CancelFunc
}

// View is a snapshot of a session for rendering.
type View struct {
	FileName   string
	Column     string
	RawCount   int
	Enriched   int
	Loading    bool
	Page       int
	TotalPages int
	Header     []string
	Rows       sheet.RowSet
	Err        error
}

// New creates a session that looks up keys in column.
func New(column string) *Session {
	return &Session{column: column, page: 1}
}

// SetColumn changes the lookup column used by the next Ingest.
func (s *Session) SetColumn(column string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.column = column
}

// Column returns the lookup column setting.
func (s *Session) Column() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.column
}

// Ingest replaces the session's rows with the first sheet of a file. Any
// previous enrichment is cleared and an in-flight batch is cancelled. On
// decode or validation failure the session holds no rows.
func (s *Session) Ingest(name string, data []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.loading = false
	s.fileName = name
	s.raw = nil
	s.enriched = nil
	s.page = 1
	s.keyColumn = ""
	s.lastErr = nil

	rows, err := sheet.Read(name, data)
	if err == nil {
		err = Validate(rows, s.column)
	}
	if err != nil {
		s.lastErr = err
		return 0, err
	}

	s.raw = rows
	s.keyColumn = s.column
	return len(rows), nil
}

// Close cancels an in-flight enrichment; its result is discarded.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.loading = false
}

type batch struct {
	ctx        context.Context
	rows       sheet.RowSet
	column     string
	generation uint64
}

func (s *Session) begin(ctx context.Context) (*batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.raw) == 0 {
		return nil, ErrNothingToEnrich
	}
	if s.loading {
		return nil, ErrBatchRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.loading = true
	s.lastErr = nil
	return &batch{ctx: ctx, rows: s.raw, column: s.keyColumn, generation: s.generation}, nil
}

func (s *Session) finish(b *batch, enriched sheet.RowSet, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.generation != s.generation {
		return ErrStaleBatch
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.loading = false
	if err != nil {
		s.lastErr = err
		return err
	}
	s.enriched = enriched
	s.page = 1
	return nil
}

// Enrich runs e over the current rows and stores the result. It blocks
// until every lookup has settled.
func (s *Session) Enrich(ctx context.Context, e Enricher) error {
	b, err := s.begin(ctx)
	if err != nil {
		return err
	}
	enriched, err := e.Enrich(b.ctx, b.rows, b.column)
	return s.finish(b, enriched, err)
}

// Start is Enrich in the background. The session reports Loading from the
// moment Start returns; the channel receives the outcome.
func (s *Session) Start(ctx context.Context, e Enricher) (<-chan error, error) {
	b, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	done := make(chan error, 1)
	go func() {
		enriched, err := e.Enrich(b.ctx, b.rows, b.column)
		done <- s.finish(b, enriched, err)
	}()
	return done, nil
}

// Loading reports whether an enrichment is in flight.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Rows returns the ingested rows.
func (s *Session) Rows() sheet.RowSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.raw
}

// Enriched returns the enriched rows.
func (s *Session) Enriched() sheet.RowSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enriched
}

// Page returns the current page number.
func (s *Session) Page() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// SetPage moves to page, clamped to the available pages.
func (s *Session) SetPage(page int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page = ClampPage(len(s.enriched), page)
	return s.page
}

// NextPage moves forward one page, stopping at the last.
func (s *Session) NextPage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page = ClampPage(len(s.enriched), s.page+1)
	return s.page
}

// PrevPage moves back one page, stopping at the first.
func (s *Session) PrevPage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page = ClampPage(len(s.enriched), s.page-1)
	return s.page
}

// View returns a snapshot for rendering the current page.
func (s *Session) View(mode sheet.HeaderMode) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		FileName:   s.fileName,
		Column:     s.column,
		RawCount:   len(s.raw),
		Enriched:   len(s.enriched),
		Loading:    s.loading,
		Page:       s.page,
		TotalPages: TotalPages(len(s.enriched)),
		Header:     s.enriched.Header(mode),
		Rows:       Page(s.enriched, s.page),
		Err:        s.lastErr,
	}
}

// Export encodes the enriched rows as an xlsx workbook. It does not change
// the session.
func (s *Session) Export(mode sheet.HeaderMode) ([]byte, error) {
	rows := s.Enriched()
	if len(rows) == 0 {
		return nil, ErrNothingToExport
	}
	return sheet.Bytes(rows, mode)
}
