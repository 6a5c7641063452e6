package http

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"expenses/internal/core"
	applog "expenses/internal/log"
	"expenses/internal/middleware/ratelimit"
	"expenses/internal/middleware/security"
	"expenses/internal/middleware/trace"
	appweb "expenses/web"
)

// ExpenseService is what the page needs from the service layer.
type ExpenseService interface {
	Create(ctx context.Context, req core.ExpenseCreate) (core.Expense, error)
	ListAll(ctx context.Context) ([]core.Expense, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Total(ctx context.Context) (decimal.Decimal, error)
	Ping(ctx context.Context) error
}

// Options tunes the server; zero values pick defaults.
type Options struct {
	Logger             *applog.Logger
	RateLimitPerMinute int
	// Today overrides the date used to prefill the form.
	Today func() core.Date
}

type Server struct {
	http.Server
	templates *template.Template
	expenses  ExpenseService
	logger    *applog.Logger
	log       *applog.StructuredLogger
	today     func() core.Date
	started   time.Time

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	// mu runs page events one at a time: each mutation and its re-render
	// completes before the next event is handled.
	mu sync.Mutex
}

// NewServer wires the page, probes and middleware around svc.
func NewServer(addr string, svc ExpenseService, opts Options) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("expense service is nil")
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	today := opts.Today
	if today == nil {
		today = core.Today
	}

	rlConfig := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		rlConfig.RequestsPerMinute = opts.RateLimitPerMinute
	}
	rlConfig.Methods = []string{http.MethodPost}

	detector := security.NewDetector()

	s := &Server{
		templates:        t,
		expenses:         svc,
		logger:           logger,
		log:              applog.NewStructuredLogger(logger),
		today:            today,
		started:          time.Now(),
		rateLimiter:      ratelimit.NewLimiter(rlConfig),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(logger, detector.ExtractClientIP),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(detector.ExtractClientIP, s.handleRateLimited)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = detector.Middleware(logger.Logger)(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
	s.RegisterOnShutdown(s.rateLimiter.Stop)

	return s, nil
}
