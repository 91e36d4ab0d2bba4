package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"smartexpense/internal/core"
	"smartexpense/internal/log"
	"smartexpense/internal/middleware/security"
	"smartexpense/internal/voice"
	appweb "smartexpense/web"
)

const defaultVoiceTimeout = 15 * time.Second

// Tracker is the expense store the handlers drive.
type Tracker interface {
	Add(ctx context.Context, description, amountText, category string) (core.Expense, error)
	AddVoice(ctx context.Context, transcript string) (core.Expense, error)
	Delete(ctx context.Context, id string) error
	SetBudget(ctx context.Context, text string) (core.Money, error)
	SetIncome(ctx context.Context, text string) (core.Money, error)
	Expenses(month string) []core.Expense
	Summary() core.Summary
	Chart() core.Chart
}

// ReadinessChecker reports whether the storage backend is reachable.
type ReadinessChecker interface {
	Ping(ctx context.Context) error
}

type Server struct {
	http.Server
	templates    *template.Template
	tracker      Tracker
	recognizer   voice.Recognizer
	readiness    ReadinessChecker
	voiceTimeout time.Duration
	logger       *log.Logger
}

type Option func(*Server)

// WithRecognizer enables POST /voice/listen.
func WithRecognizer(rec voice.Recognizer) Option {
	return func(s *Server) { s.recognizer = rec }
}

func WithReadiness(rc ReadinessChecker) Option {
	return func(s *Server) { s.readiness = rc }
}

func WithVoiceTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.voiceTimeout = d
		}
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, trk Tracker, opts ...Option) *Server {
	s := &Server{
		tracker:      trk,
		voiceTimeout: defaultVoiceTimeout,
		logger:       log.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(log.ComponentHTTP)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(log.Middleware(s.logger))
	r.Use(log.RequestIDMiddleware(func(r *http.Request) string {
		return middleware.GetReqID(r.Context())
	}))
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.requestLogger)

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.With(security.StaticAssetMiddleware(3600)).Handle("/static/*", static)
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	r.Get("/", s.handleIndex)
	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/ui", func(r chi.Router) {
		r.Get("/expenses", s.handleExpensesPartial)
		r.Get("/summary", s.handleSummaryPartial)
		r.Get("/chart", s.handleChart)
	})

	r.Post("/expenses", s.handleCreateExpense)
	r.Post("/expenses/{id}/delete", s.handleDeleteExpense)
	r.Delete("/expenses/{id}", s.handleDeleteExpense)
	r.Post("/budget", s.handleSetBudget)
	r.Post("/income", s.handleSetIncome)
	r.Post("/voice", s.handleVoiceTranscript)
	r.Post("/voice/listen", s.handleVoiceListen)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// requestLogger logs one line per request with status and duration.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		logger := log.FromContext(r.Context())
		fields := []any{
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, status,
			log.FieldDuration, time.Since(start).Milliseconds(),
			log.FieldClientIP, extractClientIP(r),
		}
		if status >= http.StatusInternalServerError {
			logger.WarnContext(r.Context(), "Request completed", fields...)
			return
		}
		logger.InfoContext(r.Context(), "Request completed", fields...)
	})
}
