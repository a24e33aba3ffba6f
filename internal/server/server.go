package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/JustJay7/court-case-tracker/internal/api"
	"github.com/JustJay7/court-case-tracker/internal/cache"
	"github.com/JustJay7/court-case-tracker/internal/config"
	"github.com/JustJay7/court-case-tracker/internal/database"
	"github.com/JustJay7/court-case-tracker/internal/fetcher"
	"github.com/JustJay7/court-case-tracker/internal/metrics"
	"github.com/JustJay7/court-case-tracker/internal/ratelimit"
	"github.com/JustJay7/court-case-tracker/internal/scraper"
	"github.com/JustJay7/court-case-tracker/internal/service"
	"github.com/JustJay7/court-case-tracker/pkg/logger"
)

const requestIDHeader = "X-Request-ID"

type Server struct {
	cfg     *config.Config
	store   *database.Store
	cache   cache.Cache
	adapter fetcher.Adapter
	limiter ratelimit.RateLimiter
	logger  *logger.Logger
	router  *gin.Engine
}

// NewAdapter builds the court fetch adapter named by cfg.Adapter.
func NewAdapter(cfg *config.Config, log *logger.Logger) (fetcher.Adapter, error) {
	switch cfg.Adapter {
	case "demo", "":
		return fetcher.NewDemoAdapter(), nil
	case "http":
		return fetcher.NewHTTPAdapter(fetcher.HTTPOptions{
			BaseURL:   cfg.AdapterURL,
			UserAgent: cfg.UserAgent,
			Retries:   cfg.AdapterRetries,
		}, log), nil
	case "browser":
		s, err := scraper.NewScraper(cfg, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported adapter: %s", cfg.Adapter)
	}
}

// Services builds the case and cause-list services over one store.
func Services(cfg *config.Config, store *database.Store, c cache.Cache, adapter fetcher.Adapter, log *logger.Logger) (*service.CaseService, *service.CauseListService) {
	opts := service.Options{
		FetchTimeout: cfg.FetchTimeout,
		DefaultCourt: cfg.CourtName,
	}
	return service.NewCaseService(store, c, adapter, log, opts),
		service.NewCauseListService(store, adapter, log, opts)
}

func New(cfg *config.Config, db *gorm.DB, c cache.Cache, adapter fetcher.Adapter, log *logger.Logger) *Server {
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	store := database.NewStore(db)

	var limiter ratelimit.RateLimiter = ratelimit.NoOpRateLimiter{}
	if cfg.APIRateLimit > 0 {
		if rc, ok := c.(*cache.RedisCache); ok {
			limiter = ratelimit.NewRedisRateLimiter(rc.Client(), cfg.APIRateLimit, cfg.APIRateWindow)
		} else {
			limiter = ratelimit.NewMemoryRateLimiter(cfg.APIRateLimit, cfg.APIRateWindow)
		}
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())
	router.Use(metricsMiddleware())

	// Registered before the limiter, so scrapes are never throttled.
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	cases, causeList := Services(cfg, store, c, adapter, log)
	h := api.NewHandlers(cases, causeList, store, c, log, cfg)

	router.Use(ratelimit.Middleware(limiter, log))
	api.SetupRoutes(router, h)

	return &Server{
		cfg:     cfg,
		store:   store,
		cache:   c,
		adapter: adapter,
		limiter: limiter,
		logger:  log,
		router:  router,
	}
}

// Handler returns the HTTP handler with all routes and middleware.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Run() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: s.cfg.FetchTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	s.logger.Info("Server started", "address", srv.Addr, "adapter", s.cfg.Adapter)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		s.Close()
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		s.logger.Error("Server forced to shutdown", "error", err)
		s.Close()
		return err
	}

	s.Close()
	s.logger.Info("Server exited gracefully")
	return nil
}

// Close releases the adapter, the rate limiter and the cache connection.
func (s *Server) Close() {
	if closer, ok := s.adapter.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			s.logger.Error("Failed to close adapter", "error", err)
		}
	}
	if err := s.limiter.Close(); err != nil {
		s.logger.Error("Failed to close rate limiter", "error", err)
	}
	if closer, ok := s.cache.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			s.logger.Error("Failed to close cache", "error", err)
		}
	}
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header(requestIDHeader, requestID)
		c.Next()
	}
}

func loggingMiddleware(logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		clientIP := c.ClientIP()
		method := c.Request.Method
		statusCode := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		logger.Info("HTTP Request",
			"request_id", c.GetString("request_id"),
			"client_ip", clientIP,
			"method", method,
			"path", path,
			"status", statusCode,
			"latency", latency.String(),
			"user_agent", c.Request.UserAgent(),
		)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", requestIDHeader)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// metricsMiddleware counts requests by route template so case numbers in
// paths do not become label values.
func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		metrics.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
