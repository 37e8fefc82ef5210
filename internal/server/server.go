package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gogotex/todo-service/handlers"
	"github.com/gogotex/todo-service/internal/config"
	"github.com/gogotex/todo-service/internal/respond"
	"github.com/gogotex/todo-service/internal/todo"
	todohandler "github.com/gogotex/todo-service/internal/todo/handler"
	"github.com/gogotex/todo-service/internal/version"
	"github.com/gogotex/todo-service/pkg/logger"
	"github.com/gogotex/todo-service/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

const readyTimeout = 2 * time.Second

// Deps are the collaborators the router serves.
type Deps struct {
	Config *config.Config
	Todos  *todo.Repository
	// Redis is optional; it backs the distributed rate limiter and is
	// checked by /ready when that limiter is in use.
	Redis *redis.Client
	// Gatherer serves /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
}

var startTime = time.Now()

// NewRouter builds the gin engine with the middleware chain, the ambient
// routes and the todo routes.
func NewRouter(d Deps) *gin.Engine {
	cfg := d.Config
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog(), middleware.CORS())

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && d.Redis != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(d.Redis, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win, nil))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst, nil))
		}
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, respond.Envelope{OK: true, Data: map[string]any{
			"status":      "running",
			"app_version": version.Version,
		}})
	})
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", readiness(d))

	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	handlers.RegisterSwagger(r)
	todohandler.New(d.Todos).Register(r)
	return r
}

// readiness returns 200 only when the store (and Redis, when the Redis
// limiter is configured) answers a ping.
func readiness(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
		defer cancel()

		ready := true
		deps := map[string]bool{}

		if err := d.Todos.Ping(ctx); err != nil {
			logger.Warnf("readiness: store ping failed: %v", err)
			deps["store"] = false
			ready = false
		} else {
			deps["store"] = true
		}

		if d.Config.RateLimit.Enabled && d.Config.RateLimit.UseRedis {
			deps["redis"] = d.Redis != nil && d.Redis.Ping(ctx).Err() == nil
			if !deps["redis"] {
				ready = false
			}
		}

		status, label := http.StatusOK, "ready"
		if !ready {
			status, label = http.StatusServiceUnavailable, "not_ready"
		}
		c.JSON(status, gin.H{"status": label, "deps": deps, "uptime": time.Since(startTime).String()})
	}
}

// Server wraps http.Server with the configured timeouts.
type Server struct {
	srv             *http.Server
	shutdownTimeout time.Duration
}

func New(cfg config.ServerConfig, h http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      h,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		shutdownTimeout: cfg.ShutdownTimeout,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Infof("shutting down (timeout %s)", s.shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
