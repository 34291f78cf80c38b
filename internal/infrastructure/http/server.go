// Package http provides the HTTP server infrastructure.
// Framework/driver layer: it translates requests into use case calls.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/0xcro3dile/docqa-go/internal/config"
	"github.com/0xcro3dile/docqa-go/internal/domain/session"
	"github.com/0xcro3dile/docqa-go/internal/domain/usecases"
	"github.com/0xcro3dile/docqa-go/internal/logger"
	"github.com/0xcro3dile/docqa-go/internal/metrics"
)

// SessionCookie names the cookie carrying the session ID.
const SessionCookie = "docqa_session"

// Server is the HTTP server for the document Q&A UI and API.
type Server struct {
	ingest    *usecases.IngestUseCase
	query     *usecases.QueryUseCase
	sessions  *session.Registry
	cfg       config.ServerConfig
	maxUpload int64
	log       *logger.Logger
	engine    *gin.Engine
}

// NewServer creates a new HTTP server and registers its routes.
func NewServer(
	ingest *usecases.IngestUseCase,
	query *usecases.QueryUseCase,
	sessions *session.Registry,
	cfg config.ServerConfig,
	maxUploadBytes int64,
	log *logger.Logger,
) *Server {
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{
		ingest:    ingest,
		query:     query,
		sessions:  sessions,
		cfg:       cfg,
		maxUpload: maxUploadBytes,
		log:       log,
	}
	s.engine = s.routes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	if len(s.cfg.AllowOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     s.cfg.AllowOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type"},
			AllowCredentials: true,
		}))
	}

	router.GET("/api/health", s.handleHealth)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	ui := router.Group("/")
	ui.Use(s.withSession())
	{
		ui.GET("/", s.handleIndex)
	}

	api := router.Group("/api")
	api.Use(s.withSession())
	{
		api.POST("/session/key", s.handleSetKey)
		api.POST("/documents", s.handleUpload)
		api.GET("/documents/current", s.handleCurrentDocument)
		api.POST("/query", s.handleQuery)
		api.GET("/query/stream", s.handleQueryStream) // SSE streaming
		api.GET("/history", s.handleHistory)
		api.POST("/history/clear", s.handleClearHistory)
	}
	return router
}

// Start runs the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.engine,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 300 * time.Second, // Longer for streaming
	}

	go s.sweepSessions(ctx)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.log.Warn("server shutdown", "error", err)
		}
	}()

	s.log.Info("docqa server starting", "addr", s.cfg.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) sweepSessions(ctx context.Context) {
	ttl := s.cfg.SessionIdleTTL
	if ttl <= 0 {
		return
	}
	interval := ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sessions.Sweep(ttl)
		}
	}
}

// withSession resolves the session cookie, starting a new session when the
// cookie is missing or stale.
func (s *Server) withSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := c.Cookie(SessionCookie)
		sess, created := s.sessions.GetOrCreate(id)
		if created {
			c.SetSameSite(http.SameSiteStrictMode)
			c.SetCookie(SessionCookie, sess.ID, 0, "/", "", false, true)
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

const sessionKey = "docqa.session"

func currentSession(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds())
	}
}
