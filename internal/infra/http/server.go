package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"carverify/internal/config"
	"carverify/internal/domain"
	"carverify/internal/usecase"

	"github.com/gin-gonic/gin"
)

const shutdownGrace = 15 * time.Second

type ReportGenerator interface {
	GenerateReport(ctx context.Context, req usecase.ReportRequest) (*domain.VehicleReport, error)
}

type Server struct {
	cfg    config.Config
	r      *gin.Engine
	logger *slog.Logger

	reports   ReportGenerator
	ppsrAdmin usecase.PPSRAdmin

	adminAPIKey string

	rateLimiter         domain.RateLimiter
	rateLimitRequests   int
	rateLimitWindow     time.Duration
	rateLimitFailClosed bool
}

type ServerDeps struct {
	Reports ReportGenerator
	// PPSRAdmin is nil when the B2G integration is not configured.
	PPSRAdmin   usecase.PPSRAdmin
	RateLimiter domain.RateLimiter
	Logger      *slog.Logger
}

func NewServer(cfg config.Config, deps ServerDeps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	s := &Server{
		cfg:         cfg,
		r:           r,
		logger:      logger,
		reports:     deps.Reports,
		ppsrAdmin:   deps.PPSRAdmin,
		adminAPIKey: cfg.AdminAPIKey,
	}
	s.initRateLimit(deps.RateLimiter)
	s.routes()
	return s
}

func (s *Server) initRateLimit(limiter domain.RateLimiter) {
	s.rateLimiter = limiter
	s.rateLimitRequests = s.cfg.RateLimitRequests
	s.rateLimitWindow = s.cfg.RateLimitWindow()
	s.rateLimitFailClosed = s.cfg.RateLimitFailClosed
}

func (s *Server) routes() {
	s.r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, healthResponse{
			Status: "ok",
			Env:    s.cfg.AppEnv,
			Mocks:  s.cfg.MocksAllowed(),
		})
	})

	v1 := s.r.Group("/v1")
	{
		v1.POST("/reports", s.handleGenerateReport)
		v1.GET("/ppsr/connection", s.handlePPSRConnection)
		v1.POST("/ppsr/password", s.handlePPSRPassword)
	}

	s.r.NoRoute(func(c *gin.Context) {
		writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "route not found")
	})
}

func (s *Server) Handler() http.Handler { return s.r }

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
	}
}
