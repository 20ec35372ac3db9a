package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"document_editing_agent/generator"
)

// EditPlanner is the part of generator.Service the handlers use.
type EditPlanner interface {
	GenerateEditPlan(ctx context.Context, req generator.Request) (*generator.GenerationResult, error)
}

// DefaultMaxBodyBytes bounds a request including its semantic document.
const DefaultMaxBodyBytes = 8 << 20

// Options configures the HTTP surface.
type Options struct {
	Addr           string
	Model          string
	CORSOrigins    []string
	RequestTimeout time.Duration
	// MaxBodyBytes caps the request body; larger bodies get 413.
	MaxBodyBytes int64
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

type Server struct {
	planner EditPlanner
	opts    Options
	logger  *zap.Logger
	httpSrv *http.Server
}

func New(planner EditPlanner, opts Options, logger *zap.Logger) (*Server, error) {
	if planner == nil {
		return nil, errors.New("edit planner required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 180 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	s := &Server{planner: planner, opts: opts, logger: logger}
	s.httpSrv = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logMiddleware(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Post("/api/generate-edit-plan", s.handleGenerateEditPlan)
	r.Get("/health", s.handleHealth)
	if s.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.opts.Metrics)
	}
	return r
}

// Start blocks until the server stops. A server stopped before Start
// returns nil immediately.
func (s *Server) Start() error {
	s.logger.Info("starting web server", zap.String("addr", s.opts.Addr))
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "listen")
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// --- Handlers ---

type errorResp struct {
	Detail string `json:"detail"`
}

func (s *Server) handleGenerateEditPlan(w http.ResponseWriter, r *http.Request) {
	var req generator.Request
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResp{Detail: "request body too large"})
			return
		}
		writeJSON(w, http.StatusUnprocessableEntity, errorResp{Detail: "invalid request body: " + err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
	defer cancel()
	res, err := s.planner.GenerateEditPlan(ctx, req)
	if err != nil {
		writeJSON(w, statusFor(err), errorResp{Detail: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "model": s.opts.Model})
}

// --- Helpers ---

func statusFor(err error) int {
	var se *generator.ServiceError
	if errors.As(err, &se) && se.Status == generator.StatusInvalidRequest {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func logMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
