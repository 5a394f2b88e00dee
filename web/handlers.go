package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/andys/ifsc_enricher/session"
	"github.com/andys/ifsc_enricher/sheet"
	"github.com/andys/ifsc_enricher/worker"
	"github.com/labstack/echo/v4"
)

type indexPage struct {
	View    session.View
	Cells   [][]string
	Error   string
	HasPrev bool
	HasNext bool
}

type rowsResponse struct {
	Page       int          `json:"page"`
	TotalPages int          `json:"totalPages"`
	Total      int          `json:"total"`
	Loading    bool         `json:"loading"`
	Header     []string     `json:"header"`
	Rows       sheet.RowSet `json:"rows"`
}

// Index renders the tool. A page query parameter moves to that page first.
func (s *Server) Index(c echo.Context) error {
	sess := s.sessions.Get(c)
	if p := c.QueryParam("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid page: %s", p))
		}
		sess.SetPage(n)
	}

	view := sess.View(s.mode)
	page := indexPage{
		View:    view,
		Cells:   make([][]string, len(view.Rows)),
		HasPrev: view.Page > 1,
		HasNext: view.Page < view.TotalPages,
	}
	for i, row := range view.Rows {
		cells := make([]string, len(view.Header))
		for j, name := range view.Header {
			v, _ := row.Get(name)
			cells[j] = sheet.Text(v)
		}
		page.Cells[i] = cells
	}
	if view.Err != nil {
		page.Error = view.Err.Error()
	}
	return c.Render(http.StatusOK, "index.html", page)
}

// Upload ingests the posted file. Decode and validation errors are kept on
// the session and shown by Index.
func (s *Server) Upload(c echo.Context) error {
	sess := s.sessions.Get(c)
	if column := c.FormValue("column"); column != "" {
		sess.SetColumn(column)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "No file found in the request")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("Failed to open file %s: %v", fileHeader.Filename, err))
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("Failed to read file %s: %v", fileHeader.Filename, err))
	}

	if _, err := sess.Ingest(fileHeader.Filename, data); err != nil && s.cfg.Debug {
		fmt.Fprintf(os.Stderr, "Upload %s rejected: %v\n", fileHeader.Filename, err)
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

// Fetch starts enriching the session's rows in the background.
func (s *Server) Fetch(c echo.Context) error {
	sess := s.sessions.Get(c)
	done, err := sess.Start(s.ctx, worker.NewEnricher(s.lookup, s.cfg))
	switch {
	case errors.Is(err, session.ErrNothingToEnrich):
		return echo.NewHTTPError(http.StatusBadRequest, "Upload a file before fetching bank details")
	case errors.Is(err, session.ErrBatchRunning):
		return c.Redirect(http.StatusSeeOther, "/")
	case err != nil:
		return err
	}

	go func() {
		if err := <-done; err != nil && s.cfg.Debug {
			fmt.Fprintf(os.Stderr, "Enrichment finished with error: %v\n", err)
		}
	}()
	return c.Redirect(http.StatusSeeOther, "/")
}

// Turn moves one page back or forward.
func (s *Server) Turn(c echo.Context) error {
	sess := s.sessions.Get(c)
	switch c.Param("dir") {
	case "prev":
		sess.PrevPage()
	case "next":
		sess.NextPage()
	default:
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unknown direction: %s", c.Param("dir")))
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

// Download sends the enriched rows as an xlsx attachment.
func (s *Server) Download(c echo.Context) error {
	sess := s.sessions.Get(c)
	data, err := sess.Export(s.mode)
	if errors.Is(err, session.ErrNothingToExport) {
		return echo.NewHTTPError(http.StatusNotFound, "Nothing to download yet")
	}
	if err != nil {
		return fmt.Errorf("failed to export workbook: %w", err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", sheet.DefaultFileName))
	return c.Blob(http.StatusOK, sheet.ContentType, data)
}

// Rows returns one page of enriched rows as JSON.
func (s *Server) Rows(c echo.Context) error {
	sess := s.sessions.Get(c)
	if p := c.QueryParam("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid page: %s", p))
		}
		sess.SetPage(n)
	}

	view := sess.View(s.mode)
	return c.JSON(http.StatusOK, rowsResponse{
		Page:       view.Page,
		TotalPages: view.TotalPages,
		Total:      view.Enriched,
		Loading:    view.Loading,
		Header:     view.Header,
		Rows:       view.Rows,
	})
}

func (s *Server) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
