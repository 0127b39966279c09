// Package server provides a public API for embedding the sat-gbdx catalog
// service in another application.
package server

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rkm/sat-gbdx/internal/api"
	"github.com/rkm/sat-gbdx/internal/gbdx"
	"github.com/rkm/sat-gbdx/internal/registry"
	"github.com/rkm/sat-gbdx/internal/translate"
)

// Options configures the sat-gbdx server.
type Options struct {
	// GBDXBaseURL is the GBDX API base URL.
	// Default: "https://geobigdata.io"
	GBDXBaseURL string

	// Token is the GBDX API token. Catalog search works without one.
	Token string

	// Timeout is the upstream request timeout.
	// Default: 60s
	Timeout time.Duration

	// Logger is the slog logger to use.
	// Default: slog.Default()
	Logger *slog.Logger
}

// Server is a catalog search server that can be embedded in another
// application.
type Server struct {
	router chi.Router
}

// New creates a server with the given options.
func New(opts Options) (*Server, error) {
	if opts.GBDXBaseURL == "" {
		opts.GBDXBaseURL = "https://geobigdata.io"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	reg, err := registry.Load()
	if err != nil {
		return nil, err
	}

	translator := translate.NewTranslator(reg, opts.Logger)
	client := gbdx.NewClient(opts.GBDXBaseURL, opts.Token, opts.Timeout).WithLogger(opts.Logger)

	handlers := api.NewHandlers(reg, translator, client, opts.Logger)
	return &Server{router: api.NewRouter(handlers, opts.Logger)}, nil
}

// Router returns the chi.Router for mounting in another application.
func (s *Server) Router() chi.Router {
	return s.router
}
