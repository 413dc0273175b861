// Package server exposes the forecast, photo, and chat operations over a
// small REST API. It owns nothing model-specific: every request funnels
// into the same Capability the CLI uses.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"auroracast/internal/config"
	"auroracast/internal/logging"
	"auroracast/internal/oracle"
	"auroracast/internal/store"
)

// Server bundles router and dependencies for the REST API.
type Server struct {
	cfg     *config.Config
	oracle  oracle.Capability
	tracker *oracle.Tracker
	archive *store.Archive // nil when the archive is disabled
	chats   *chatRegistry
	logger  *zap.Logger
	engine  *gin.Engine
}

// New constructs a server with routes and middleware. archive may be nil;
// history endpoints then answer 503 and fetches are simply not saved.
func New(cfg *config.Config, capability oracle.Capability, archive *store.Archive, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(logger))
	engine.Use(corsMiddleware(cfg.Server.CORSOrigins))

	s := &Server{
		cfg:     cfg,
		oracle:  capability,
		tracker: oracle.NewTracker(capability),
		archive: archive,
		chats:   newChatRegistry(capability),
		logger:  logger,
		engine:  engine,
	}
	s.registerRoutes()
	return s
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: s.engine,
	}

	s.logger.Info("listening", zap.String("addr", addr), zap.Bool("live", s.oracle.Live()))
	logging.Server("listening on %s (live=%v)", addr, s.oracle.Live())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.handleHealth)

	v1 := s.engine.Group("/api/v1")
	{
		v1.POST("/forecast", s.handleForecast)
		v1.GET("/forecast/latest", s.handleLatestForecast)
		v1.POST("/photo", s.handlePhoto)

		v1.POST("/chat/sessions", s.handleChatCreate)
		v1.GET("/chat/sessions/:id", s.handleChatTranscript)
		v1.DELETE("/chat/sessions/:id", s.handleChatDelete)
		v1.POST("/chat/sessions/:id/messages", s.handleChatMessage)

		v1.GET("/reports", s.handleReports)
		v1.GET("/reports/:id", s.handleReport)
	}
}
