package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/bnema/audiochunk/internal/adapter/http/middleware"
	"github.com/bnema/audiochunk/internal/adapter/http/ratelimit"
	"github.com/bnema/audiochunk/internal/infrastructure/logger"
)

type ServerConfig struct {
	Defaults       Defaults
	AllowedOrigins []string
	// Limiter guards the submission routes; nil disables it.
	Limiter *ratelimit.SubmissionLimiter
}

type Server struct {
	router     chi.Router
	handlers   *Handlers
	sseHandler *SSEHandler
	limiter    *ratelimit.SubmissionLimiter
	cors       *cors.Cors
}

func NewServer(conversions ConversionService, status StatusQuerier, events EventSource, cfg ServerConfig) *Server {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s := &Server{
		router:     chi.NewRouter(),
		handlers:   NewHandlers(conversions, status, cfg.Defaults),
		sseHandler: NewSSEHandler(events, status),
		limiter:    cfg.Limiter,
		cors: cors.New(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type"},
			ExposedHeaders: []string{"Content-Disposition", "Retry-After"},
			MaxAge:         int((10 * time.Minute).Seconds()),
		}),
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	r := s.router
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger)
	r.Use(chimw.Recoverer)
	r.Use(s.cors.Handler)
	r.Use(middleware.SecurityHeaders)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found", "no such endpoint")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
	})

	r.Route("/api", func(r chi.Router) {
		r.With(middleware.NoStore).Get("/health", s.handlers.Health())

		r.Route("/conversion", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if s.limiter != nil {
					r.Use(s.limiter.Middleware)
				}
				r.Post("/file", s.handlers.SubmitFile())
				r.Post("/url", s.handlers.SubmitURL())
			})
			r.With(middleware.NoStore).Get("/{jobID}", s.handlers.Status())
			r.Get("/{jobID}/events", s.sseHandler.Events())
		})

		r.Get("/download/{jobID}/{filename}", s.handlers.Download())
	})
}

// requestLogger logs one line per request with chi's request ID.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.Debug.Printf("[%s] %s %s %d %s",
			chimw.GetReqID(r.Context()), r.Method, logger.SanitizeForLog(r.URL.Path), ww.Status(), time.Since(start).Round(time.Millisecond))
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
