// Package webui serves the browser frontend and the JSON API: one
// orchestrated assistant session per browser session.
package webui

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"wikiqa/internal/assistant"
	"wikiqa/internal/logging"
)

//go:embed static
var staticFS embed.FS

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	EnableCORS   bool          `json:"enable_cors"`
	Debug        bool          `json:"debug"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

// DefaultServerConfig returns the local-development defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "localhost",
		Port:         8080,
		EnableCORS:   true,
		Debug:        false,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}
}

// OrchestratorFactory builds a fresh assistant session. Each browser
// session gets its own orchestrator so no state crosses sessions.
type OrchestratorFactory func() *assistant.Orchestrator

// Server is the web UI server.
type Server struct {
	factory    OrchestratorFactory
	engine     *gin.Engine
	httpServer *http.Server
	logger     logging.Logger
	startTime  time.Time

	mu       sync.Mutex
	sessions map[string]*assistant.Orchestrator
}

// NewServer wires routes and middleware. factory must not be nil.
func NewServer(factory OrchestratorFactory, cfg ServerConfig, logger logging.Logger) (*Server, error) {
	if factory == nil {
		return nil, fmt.Errorf("nil orchestrator factory")
	}

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	if cfg.EnableCORS {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Requested-With"}
		engine.Use(cors.New(corsConfig))
	}

	server := &Server{
		factory:   factory,
		engine:    engine,
		logger:    logging.OrNop(logger),
		startTime: time.Now(),
		sessions:  make(map[string]*assistant.Orchestrator),
	}

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	server.setupRoutes()
	return server, nil
}

func (s *Server) setupRoutes() {
	static, err := fs.Sub(staticFS, "static")
	if err == nil {
		s.engine.StaticFS("/ui", http.FS(static))
		s.engine.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusTemporaryRedirect, "/ui/")
		})
	}

	api := s.engine.Group("/api")
	{
		api.GET("/health", s.handleHealth)
		api.POST("/sessions", s.handleCreateSession)
		api.GET("/search", s.handleSearch)

		sess := api.Group("/sessions/:id")
		{
			sess.POST("/page", s.handleLoadPage)
			sess.GET("/page", s.handleGetPage)
			sess.POST("/ask", s.handleAsk)
			sess.GET("/turns", s.handleTurns)
			sess.POST("/clear", s.handleClear)
			sess.GET("/export", s.handleExport)
			sess.GET("/summary", s.handleSummary)
		}
	}
}

// Start runs the HTTP server until the listener fails or Stop is called.
func (s *Server) Start() error {
	s.logger.Info("web UI listening on http://%s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("shutting down web UI")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the gin engine for tests.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) createSession() (string, *assistant.Orchestrator) {
	id := uuid.NewString()
	orch := s.factory()
	s.mu.Lock()
	s.sessions[id] = orch
	s.mu.Unlock()
	return id, orch
}

func (s *Server) session(id string) (*assistant.Orchestrator, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	orch, ok := s.sessions[id]
	return orch, ok
}
