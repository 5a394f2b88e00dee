// Package web serves the upload, enrich, page and download tool over HTTP.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/andys/ifsc_enricher/config"
	"github.com/andys/ifsc_enricher/sheet"
	"github.com/andys/ifsc_enricher/worker"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// MaxUploadSize is the largest accepted request body.
const MaxUploadSize = 32 << 20

// Server is the web front end. Each browser gets its own session.
type Server struct {
	ctx      context.Context
	cfg      *config.Config
	lookup   worker.Lookuper
	mode     sheet.HeaderMode
	sessions *SessionStore
	echo     *echo.Echo
}

// NewServer sets up routes. Background enrichments run under ctx and are
// cancelled with it.
func NewServer(ctx context.Context, cfg *config.Config, lookup worker.Lookuper) (*Server, error) {
	mode, err := sheet.ParseHeaderMode(cfg.HeaderMode)
	if err != nil {
		return nil, err
	}
	renderer, err := NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	s := &Server{
		ctx:      ctx,
		cfg:      cfg,
		lookup:   lookup,
		mode:     mode,
		sessions: NewSessionStore(cfg.Column, DefaultSessionTTL, DefaultMaxSessions),
	}

	e := echo.New()
	e.HideBanner = true
	e.Renderer = renderer
	if cfg.Debug {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", MaxUploadSize>>20)))

	e.GET("/", s.Index)
	e.POST("/upload", s.Upload)
	e.POST("/fetch", s.Fetch)
	e.GET("/page/:dir", s.Turn)
	e.GET("/download", s.Download)
	e.GET("/api/rows", s.Rows)
	e.GET("/health", s.Health)

	s.echo = e
	return s, nil
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	err := s.echo.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
