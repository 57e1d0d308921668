// Package httpapi serves flowchart translation over HTTP: a multipart
// upload endpoint, a JSON translate endpoint and rendering of stored
// diagrams.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dusk-indust/flowchart/internal/service"
)

// multipartOverhead is the room allowed for multipart framing on top of
// the source size limit.
const multipartOverhead = 64 << 10

// Server routes HTTP requests to the translation service.
type Server struct {
	svc    *service.Service
	logger *log.Logger
	router chi.Router
}

// New builds the router over svc. A nil logger uses log.Default().
func New(svc *service.Service, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{svc: svc, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors)

	r.Get("/healthz", s.handleHealth)
	r.Post("/upload", s.handleUpload)
	r.Route("/api", func(r chi.Router) {
		r.Get("/languages", s.handleLanguages)
		r.Post("/translate", s.handleTranslate)
		r.Get("/sources", s.handleSources)
		r.Get("/units", s.handleUnits)
		r.Get("/diagram", s.handleDiagram)
		r.Get("/stats", s.handleStats)
	})

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves h on addr until ctx is cancelled, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, addr string, h http.Handler) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
