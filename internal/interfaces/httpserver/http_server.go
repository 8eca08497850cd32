package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"bookdrop/internal/config"
	"bookdrop/internal/domain/session"
	"bookdrop/internal/domain/upload"
	"bookdrop/internal/infrastructure/storage"
	"bookdrop/internal/interfaces/httpserver/handlers"
	"bookdrop/internal/interfaces/httpserver/middlewares"
)

// HttpServer wraps the gin engine with graceful shutdown helpers.
type HttpServer struct {
	cfg     *config.Config
	engine  *gin.Engine
	log     zerolog.Logger
	limiter *middlewares.RateLimiter
}

// New constructs the HTTP server with default middleware and routes.
func New(cfg *config.Config, log zerolog.Logger, registry *session.Registry, uploads *upload.Service, store *storage.LocalStorage) *HttpServer {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), middlewares.RequestID(), middlewares.Logging(log))

	var limiter *middlewares.RateLimiter
	if cfg.RateLimitEnabled {
		limiter = middlewares.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	provider := handlers.NewProvider(cfg, registry, uploads, store, log)
	registerRoutes(engine, cfg, provider, limiter)

	return &HttpServer{
		cfg:     cfg,
		engine:  engine,
		log:     log,
		limiter: limiter,
	}
}

// Engine exposes the underlying router, mainly for tests.
func (s *HttpServer) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP listener and handles graceful shutdown via context cancellation.
func (s *HttpServer) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    s.cfg.Addr(),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr()).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.log.Info().Msg("context cancelled, shutting down HTTP server")
	case err := <-errCh:
		if s.limiter != nil {
			s.limiter.Stop()
		}
		return err
	}

	if s.limiter != nil {
		s.limiter.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func registerRoutes(engine *gin.Engine, cfg *config.Config, provider *handlers.Provider, limiter *middlewares.RateLimiter) {
	engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": cfg.ServiceName, "status": "ok"})
	})
	engine.GET("/health", provider.Session.Health)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Only the endpoints that create work are throttled; status polling and
	// downloads stay unlimited.
	throttled := func(h gin.HandlerFunc) []gin.HandlerFunc {
		if limiter == nil {
			return []gin.HandlerFunc{h}
		}
		return []gin.HandlerFunc{limiter.Middleware(), h}
	}
	engine.POST("/generate", throttled(provider.Session.Generate)...)
	engine.POST("/upload", throttled(provider.Upload.Upload)...)
	engine.GET("/status/:key", provider.Session.Status)
	engine.DELETE("/file/:key/:filename", provider.Session.DeleteFile)

	// Top-level filenames are resolved by the download gate as a router
	// fallthrough so they never shadow the fixed routes above.
	engine.NoRoute(provider.Download.Resolve)
}
