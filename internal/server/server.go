// Package server wires together storage, services, background workers,
// and the HTTP API.
package server

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	"github.com/zkredit/vault/internal/alerts"
	"github.com/zkredit/vault/internal/config"
	"github.com/zkredit/vault/internal/creditscore"
	"github.com/zkredit/vault/internal/dashboard"
	"github.com/zkredit/vault/internal/events"
	"github.com/zkredit/vault/internal/health"
	"github.com/zkredit/vault/internal/intent"
	"github.com/zkredit/vault/internal/ledger"
	"github.com/zkredit/vault/internal/logging"
	"github.com/zkredit/vault/internal/metrics"
	"github.com/zkredit/vault/internal/prices"
	"github.com/zkredit/vault/internal/ratelimit"
	"github.com/zkredit/vault/internal/realtime"
	"github.com/zkredit/vault/internal/risk"
	"github.com/zkredit/vault/internal/security"
	"github.com/zkredit/vault/internal/transactions"
	"github.com/zkredit/vault/internal/validation"
)

// Server is the top-level application container.
type Server struct {
	cfg    *config.Config
	logger *slog.Logger

	router  *gin.Engine
	httpSrv *http.Server

	db  *sql.DB
	bus *events.Bus
	hub *realtime.Hub

	rateLimiter *ratelimit.Limiter
	checks      *health.Registry

	riskStore  risk.Store
	txStore    transactions.Store
	alertStore alerts.Store

	analyzer      *risk.Analyzer
	ledger        *ledger.Ledger
	creditService *creditscore.Service
	factory       *transactions.Factory
	oracle        *prices.Oracle
	poller        *prices.Poller
	watcher       *alerts.Watcher

	cancelRunCtx context.CancelFunc
	stopBridge   func()

	ready   atomic.Bool
	healthy atomic.Bool
}

// Option customizes server construction.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates a fully wired server. Storage backends are selected from
// configuration: Postgres when DATABASE_URL is set, with an optional
// Redis cache for credit score snapshots when REDIS_URL is set, and
// in-memory stores otherwise.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.healthy.Store(true)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s.bus = events.NewBus(s.logger)
	s.hub = realtime.NewHub(s.logger)
	s.checks = health.NewRegistry()

	scoreStore, ledgerStore, err := s.setupStorage()
	if err != nil {
		return nil, err
	}

	provider := s.creditProvider()
	s.creditService = creditscore.NewService(scoreStore, provider, s.bus, s.logger)
	s.ledger = ledger.New(ledgerStore)
	s.analyzer = risk.NewAnalyzer()

	scorer := risk.NewScorer(s.riskStore)
	s.factory = transactions.NewFactory(s.txStore, s.ledger, scorer, s.creditService, s.bus, cfg.WalletAddress, s.logger)

	s.oracle = prices.NewOracle(cfg.PriceAPIURL, cfg.PriceCacheTTL)
	s.poller = prices.NewPoller(s.oracle, s.bus, cfg.PricePollInterval, []string{"bitcoin", "ethereum"}, s.logger)
	s.watcher = alerts.NewWatcher(s.alertStore, s.oracle, s.bus, cfg.PricePollInterval, s.logger)

	s.registerHealthChecks()

	s.router = gin.New()
	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

// setupStorage selects and migrates the storage backend. It returns the
// credit score and ledger stores; the risk, transaction, and alert
// stores are assigned on the server directly since handlers need them.
func (s *Server) setupStorage() (creditscore.Store, ledger.Store, error) {
	var (
		scoreStore  creditscore.Store
		ledgerStore ledger.Store
	)

	if s.cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", s.cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("ping database: %w", err)
		}

		s.db = db
		s.logger.Info("using postgres storage", "dsn", maskDSN(s.cfg.DatabaseURL))

		riskStore := risk.NewPostgresStore(db)
		csStore := creditscore.NewPostgresStore(db)
		ledStore := ledger.NewPostgresStore(db, s.cfg.InitialBalance)
		txStore := transactions.NewPostgresStore(db)
		alertStore := alerts.NewPostgresStore(db)

		migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancelMigrate()
		for name, m := range map[string]interface {
			Migrate(ctx context.Context) error
		}{
			"risk":         riskStore,
			"creditscore":  csStore,
			"ledger":       ledStore,
			"transactions": txStore,
			"alerts":       alertStore,
		} {
			if err := m.Migrate(migrateCtx); err != nil {
				s.logger.Warn("migration failed", "store", name, "error", err)
			}
		}

		s.riskStore = riskStore
		s.txStore = txStore
		s.alertStore = alertStore
		scoreStore = csStore
		ledgerStore = ledStore
	} else {
		s.logger.Info("using in-memory storage")
		s.riskStore = risk.NewMemoryStore()
		s.txStore = transactions.NewMemoryStore()
		s.alertStore = alerts.NewMemoryStore()
		scoreStore = creditscore.NewMemoryStore()
		ledgerStore = ledger.NewMemoryStore(s.cfg.InitialBalance)
	}

	// Redis overrides the credit score store when configured. Credit
	// score snapshots are the one piece of state the original kept in
	// a KV cache; everything else stays in the primary store.
	if s.cfg.RedisURL != "" {
		redisStore, err := creditscore.NewRedisStoreFromURL(s.cfg.RedisURL)
		if err != nil {
			s.logger.Warn("redis unavailable, keeping primary credit score store", "error", err)
		} else {
			s.logger.Info("using redis credit score store")
			scoreStore = redisStore
		}
	}

	return scoreStore, ledgerStore, nil
}

// creditProvider selects the external credit score provider, falling
// back to the deterministic mock when no URL is configured or the URL
// fails the SSRF check.
func (s *Server) creditProvider() creditscore.Provider {
	if s.cfg.CreditScoreURL == "" {
		s.logger.Info("using mock credit score provider")
		return creditscore.NewMockProvider()
	}
	if err := security.ValidateEndpointURL(s.cfg.CreditScoreURL); err != nil {
		s.logger.Warn("credit score provider URL rejected, using mock", "error", err)
		return creditscore.NewMockProvider()
	}
	s.logger.Info("using external credit score provider", "url", s.cfg.CreditScoreURL)
	return creditscore.NewHTTPProvider(s.cfg.CreditScoreURL)
}

func (s *Server) registerHealthChecks() {
	s.checks.Register("storage", func(ctx context.Context) health.Status {
		if s.db == nil {
			return health.Status{Name: "storage", Healthy: true, Detail: "in-memory"}
		}
		if err := s.db.PingContext(ctx); err != nil {
			return health.Status{Name: "storage", Healthy: false, Detail: err.Error()}
		}
		return health.Status{Name: "storage", Healthy: true, Detail: "postgres"}
	})
	s.checks.Register("event_bus", func(ctx context.Context) health.Status {
		return health.Status{
			Name:    "event_bus",
			Healthy: true,
			Detail:  fmt.Sprintf("subscribers=%d dropped=%d", s.bus.SubscriberCount(), s.bus.Dropped()),
		}
	})
}

// maskDSN hides credentials in a connection string for logging.
func maskDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "(unparseable)"
	}
	if u.User != nil {
		u.User = url.User(u.User.Username())
	}
	return u.String()
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logging.L(c.Request.Context()).Error("panic recovered",
			"error", recovered,
			"path", c.Request.URL.Path,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "An unexpected error occurred",
		})
	}))

	s.router.Use(security.HeadersMiddleware())
	s.router.Use(security.CORSMiddleware(strings.Split(s.cfg.AllowedOrigins, ",")))
	s.router.Use(validation.RequestSizeMiddleware(validation.MaxRequestSize))

	s.rateLimiter = ratelimit.New(ratelimit.Config{
		RequestsPerMinute: s.cfg.RateLimitRPS * 60,
		BurstSize:         s.cfg.RateLimitRPS,
		CleanupInterval:   time.Minute,
	})
	s.router.Use(s.rateLimiter.Middleware())

	s.router.Use(metrics.Middleware())
	s.router.Use(s.requestIDMiddleware())
	s.router.Use(s.loggingMiddleware())
}

func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
		}

		ctx := logging.WithRequestID(c.Request.Context(), requestID)
		ctx = logging.WithLogger(ctx, s.logger)
		c.Request = c.Request.WithContext(ctx)

		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		logger := logging.L(c.Request.Context())

		switch {
		case status >= 500:
			logger.Error("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
				"client_ip", c.ClientIP(),
			)
		case status >= 400:
			logger.Warn("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		default:
			logger.Info("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		}
	}
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthHandler)
	s.router.GET("/health/live", s.livenessHandler)
	s.router.GET("/health/ready", s.readinessHandler)
	s.router.GET("/metrics", metrics.Handler())

	s.router.GET("/ws", func(c *gin.Context) {
		s.hub.HandleWebSocket(c.Writer, c.Request)
	})

	v1 := s.router.Group("/v1")
	risk.NewHandler(s.analyzer, s.riskStore).RegisterRoutes(v1)
	creditscore.NewHandler(s.creditService).RegisterRoutes(v1)
	transactions.NewHandler(s.factory, s.txStore).RegisterRoutes(v1)
	intent.NewHandler(intent.NewPredictor()).RegisterRoutes(v1)
	prices.NewHandler(s.oracle).RegisterRoutes(v1)
	ledger.NewHandler(s.ledger).RegisterRoutes(v1)
	dashboard.NewHandler(s.ledger, s.creditService, s.txStore, s.oracle, s.cfg.WalletAddress).RegisterRoutes(v1)

	// Price alerts keep their original /api prefix.
	api := s.router.Group("/api")
	alerts.NewHandler(s.alertStore).RegisterRoutes(api)
}

func (s *Server) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	healthy, statuses := s.checks.CheckAll(ctx)

	status := "healthy"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, gin.H{
		"status":    status,
		"checks":    statuses,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) livenessHandler(c *gin.Context) {
	if !s.healthy.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (s *Server) readinessHandler(c *gin.Context) {
	if !s.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// bridgeEvents forwards bus events to the websocket hub so browser
// clients see the same stream internal subscribers do.
func (s *Server) bridgeEvents() func() {
	ch, cancel := s.bus.Subscribe()
	go func() {
		for ev := range ch {
			var typ realtime.EventType
			switch ev.Topic {
			case events.TopicTransactionProcessed:
				typ = realtime.EventTransaction
			case events.TopicCreditScoreUpdated:
				typ = realtime.EventCreditScore
			case events.TopicPriceAlertTriggered:
				typ = realtime.EventPriceAlert
			case events.TopicPriceUpdated:
				typ = realtime.EventPriceUpdate
			default:
				continue
			}
			s.hub.Broadcast(&realtime.Event{
				Type:      typ,
				Timestamp: ev.Timestamp,
				Data:      ev.Payload,
			})
		}
	}()
	return cancel
}

// Run starts the HTTP server and background workers, then blocks until
// a shutdown signal, a server error, or context cancellation.
func (s *Server) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancelRunCtx = cancel

	s.httpSrv = &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)

	go func() {
		s.logger.Info("starting server",
			"port", s.cfg.Port,
			"env", s.cfg.Env,
			"wallet", s.cfg.WalletAddress,
		)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	go s.hub.Run(runCtx)
	s.stopBridge = s.bridgeEvents()
	go s.poller.Run(runCtx)
	go s.watcher.Run(runCtx)
	if s.db != nil {
		go metrics.StartDBStatsCollector(runCtx, s.db, 15*time.Second)
	}

	// Mark as ready after brief delay for startup
	go func() {
		time.Sleep(100 * time.Millisecond)
		s.ready.Store(true)
		s.logger.Info("server ready")
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		s.logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	s.ready.Store(false)
	s.logger.Info("starting graceful shutdown")

	// Stop background goroutines (hub, poller, watcher)
	if s.cancelRunCtx != nil {
		s.cancelRunCtx()
	}

	// Give load balancers time to stop sending traffic
	time.Sleep(5 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpSrv.Shutdown(ctx); err != nil {
		s.logger.Error("shutdown error", "error", err)
		return err
	}

	if s.stopBridge != nil {
		s.stopBridge()
	}

	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
		s.logger.Info("rate limiter stopped")
	}

	s.bus.Close()

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("database close error", "error", err)
		} else {
			s.logger.Info("database connection closed")
		}
	}

	s.logger.Info("server stopped")
	return nil
}

// Router returns the gin router for testing.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func generateRequestID() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(bytes)
}
