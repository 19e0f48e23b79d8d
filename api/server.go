// Package api serves the book catalog over HTTP.
package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/aluiziolira/go-books-insights/auth"
	"github.com/aluiziolira/go-books-insights/config"
	"github.com/aluiziolira/go-books-insights/dataset"
	"github.com/aluiziolira/go-books-insights/models"
)

// Server holds the long-lived collaborators shared by every request. The
// dataset itself is reloaded per request.
type Server struct {
	cfg      *config.ServerConfig
	source   *dataset.Source
	tokens   *auth.Manager
	creds    auth.Credentials
	metrics  *Metrics
	validate *validator.Validate
	logger   *slog.Logger
}

// NewServer wires a Server from cfg. A nil logger uses slog.Default.
func NewServer(cfg *config.ServerConfig, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		cfg = config.DefaultServerConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	tokens, err := auth.NewManager(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("token manager: %w", err)
	}

	return &Server{
		cfg:      cfg,
		source:   dataset.NewSource(cfg.DataPath),
		tokens:   tokens,
		creds:    auth.Credentials{Username: cfg.Username, Password: cfg.Password},
		metrics:  NewMetrics(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.With("component", "api"),
	}, nil
}

// Metrics exposes the server's collectors.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Handler builds the router. Everything except the metrics endpoint is
// mounted under the configured prefix.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.accessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(s.instrument)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	r.Handle(s.cfg.MetricsPath, s.metrics.Handler())

	routes := func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.With(s.loginLimiter()).Post("/auth/token", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Get("/books", s.handleListBooks)
			r.Get("/books/search", s.handleSearchBooks)
			r.Get("/books/top-rated", s.handleTopRated)
			r.Get("/books/price-range", s.handlePriceRange)
			r.Get("/books/{id}", s.handleGetBook)
			r.Get("/categories", s.handleCategories)

			r.Get("/stats/overview", s.handleOverview)
			r.Get("/stats/categories", s.handleCategoryStats)

			r.Get("/ml/features", s.handleFeatures)
			r.Get("/ml/training-data", s.handleTrainingData)
			r.Post("/ml/predictions", s.handlePredictions)
		})
	}

	if s.cfg.APIPrefix == "" {
		routes(r)
	} else {
		r.Route(s.cfg.APIPrefix, routes)
	}
	return r
}

// HTTPServer returns an http.Server bound to cfg.Addr with its timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}
}

func (s *Server) loginLimiter() func(http.Handler) http.Handler {
	if s.cfg.LoginRateLimit == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		s.cfg.LoginRateLimit,
		s.cfg.LoginRateWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			s.metrics.AuthFailure("rate_limited")
			writeError(w, http.StatusTooManyRequests, "Too many login attempts")
		}),
	)
}

// table loads the dataset for one request. On failure it has already written
// the 500 response.
func (s *Server) table(w http.ResponseWriter, r *http.Request) (*models.Table, bool) {
	t, err := s.source.Table()
	if err != nil {
		s.metrics.DatasetLoadErrors.Inc()
		s.logger.Error("dataset_load_failed",
			"path", s.cfg.DataPath,
			"request_id", chimiddleware.GetReqID(r.Context()),
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "Failed to load dataset")
		return nil, false
	}
	s.metrics.DatasetRows.Set(float64(t.Len()))
	return t, true
}
