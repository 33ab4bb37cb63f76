package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/definitie-platform/lookup-server/internal/config"
	"github.com/definitie-platform/lookup-server/internal/interfaces/httpserver/middlewares"
	"github.com/definitie-platform/lookup-server/internal/interfaces/httpserver/routes"
	"github.com/definitie-platform/lookup-server/internal/interfaces/httpserver/routes/mcp"
)

type HTTPServer struct {
	router      *gin.Engine
	config      *config.Config
	lookupRoute *routes.LookupRoute
	mcpRoute    *mcp.MCPRoute
}

func NewHTTPServer(
	cfg *config.Config,
	lookupRoute *routes.LookupRoute,
	mcpRoute *mcp.MCPRoute,
) *HTTPServer {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middlewares.RequestID())
	router.Use(middlewares.Tracing(cfg.ServiceName))
	router.Use(middlewares.RequestLogger())
	router.Use(middlewares.CORS(cfg.CORSAllowOrigins))
	router.Use(middlewares.MetricsRecorder())

	return &HTTPServer{
		router:      router,
		config:      cfg,
		lookupRoute: lookupRoute,
		mcpRoute:    mcpRoute,
	}
}

func (s *HTTPServer) setupRoutes() {
	// Health check endpoints
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": s.config.ServiceName})
	})

	s.router.GET("/readyz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ready", "service": s.config.ServiceName})
	})

	// Prometheus metrics endpoint
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("/v1")
	s.lookupRoute.RegisterRouter(v1)
	s.mcpRoute.RegisterRouter(v1)
}

// Run starts the HTTP server and blocks until the context is cancelled or
// the listener fails. Shutdown drains in-flight requests within the
// configured timeout.
func (s *HTTPServer) Run(ctx context.Context) error {
	s.setupRoutes()

	server := &http.Server{
		Addr:    ":" + s.config.HTTPPort,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("context cancelled, shutting down HTTP server")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(s.config.ShutdownTimeout)*time.Second,
	)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
