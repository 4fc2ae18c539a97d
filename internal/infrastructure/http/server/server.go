package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"3tcapital/ms_extraccion_gastos/internal/infrastructure/http/middleware"
)

// Server expone el endpoint de extracción de gastos y el health check.
type Server struct {
	log             *slog.Logger
	httpServer      *http.Server
	shutdownTimeout time.Duration
}

// Options de construcción del servidor.
type Options struct {
	Addr            string
	Logger          *slog.Logger
	ServiceName     string
	Version         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// ExtractHandler atiende POST /api/documentos/extraer.
	ExtractHandler http.HandlerFunc
	// Auth es opcional; nil deja los endpoints abiertos.
	Auth *middleware.JWTAuthenticator
	// BreakerState se reporta en /health; nil lo omite.
	BreakerState func() string
}

// New crea el servidor con los endpoints requeridos.
func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.ExtractHandler == nil {
		return nil, errors.New("extract handler is required")
	}
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 30 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		// The extraction pipeline uploads, polls and generates before it
		// can answer, so the write timeout covers the whole remote leg.
		opts.WriteTimeout = 120 * time.Second
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 120 * time.Second
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(opts.Logger))
	if opts.Auth != nil {
		r.Use(opts.Auth.Middleware)
	}

	// Health
	r.Method(http.MethodGet, "/health", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		payload := map[string]any{
			"status":  "ok",
			"service": opts.ServiceName,
			"version": opts.Version,
		}
		if opts.BreakerState != nil {
			payload["circuitBreaker"] = opts.BreakerState()
		}
		writeJSON(w, http.StatusOK, payload)
	}))

	// Extracción de documentos de gasto. El deadline del contexto queda
	// por debajo del WriteTimeout para que el pipeline aborte antes de
	// que el servidor corte la conexión.
	requestDeadline := opts.WriteTimeout - 2*time.Second
	if requestDeadline <= 0 {
		requestDeadline = opts.WriteTimeout
	}
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequestTimeout(requestDeadline))
		r.Method(http.MethodPost, "/api/documentos/extraer", opts.ExtractHandler)
	})

	srv := &http.Server{
		Addr:         opts.Addr,
		Handler:      r,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		IdleTimeout:  opts.IdleTimeout,
	}

	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 30 * time.Second
	}

	return &Server{log: opts.Logger, httpServer: srv, shutdownTimeout: opts.ShutdownTimeout}, nil
}

// Run arranca el servidor hasta que el contexto se cancele.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server started", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		_ = s.httpServer.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

// Handler expone el router para pruebas.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
