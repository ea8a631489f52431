package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/deskshell/deskshell/internal/api/http"
	"github.com/deskshell/deskshell/internal/api/middleware"
	"github.com/deskshell/deskshell/internal/infrastructure/config"
	"github.com/deskshell/deskshell/internal/infrastructure/logging"
	"github.com/deskshell/deskshell/internal/infrastructure/monitoring"
	"github.com/deskshell/deskshell/internal/infrastructure/tracing"
)

const shutdownTimeout = 10 * time.Second

// Server owns the diagnostics HTTP listener.
type Server struct {
	router *gin.Engine
	addr   string
	log    *logging.Logger
}

// New builds the router around the given handlers.
func New(cfg *config.Config, handlers *apihttp.Handlers, metrics *monitoring.Metrics, log *logging.Logger) *Server {
	if log == nil {
		log = logging.NewNop()
	}
	log = log.Component("server")

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(log))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		log.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)

	router.GET("/diagnostics", handlers.Diagnostics)
	router.GET("/diagnostics/history", handlers.History)
	router.GET("/diagnostics/stream", handlers.Stream)

	// Export compresses the full history; one shared small budget.
	router.GET("/diagnostics/export",
		middleware.GlobalRateLimit(middleware.RateLimitConfig{RequestsPerSecond: 2, Burst: 5}),
		handlers.Export,
	)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &Server{
		router: router,
		addr:   cfg.Server.Host + ":" + cfg.Server.Port,
		log:    log,
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until the context is cancelled, then drains in-flight
// requests. Request contexts derive from ctx, so long-lived SSE streams
// unwind as soon as shutdown starts instead of pinning the drain.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.router,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Diagnostics server listening", zap.String("addr", s.addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.log.Info("Shutting down diagnostics server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Warn("Graceful shutdown failed, forcing close", zap.Error(err))
			_ = srv.Close()
		}
		return ctx.Err()

	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
