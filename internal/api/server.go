// Package api hosts the HTTP surface: authentication, prediction submission
// and history, and the admin read-only views. Handlers translate pipeline and
// store errors into the response codes clients rely on; all business rules
// live below this package.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/snaptaplaque/plateapi/internal/auth"
	"github.com/snaptaplaque/plateapi/internal/config"
	"github.com/snaptaplaque/plateapi/internal/queue"
	"github.com/snaptaplaque/plateapi/internal/repository"
	"github.com/snaptaplaque/plateapi/internal/vision"
)

// ModelInfo describes the inference engines behind /model/info.
type ModelInfo struct {
	Loaded    bool   `json:"loaded"`
	ModelType string `json:"model_type"`
	Pipeline  string `json:"pipeline"`
}

// Server stitches together configuration, stores, the vision pipeline and the
// token issuer behind a gin router.
type Server struct {
	cfg        *config.Config
	users      repository.UserStore
	detections repository.DetectionStore
	pipeline   *vision.Pipeline
	tokens     *auth.TokenIssuer
	archiver   queue.Archiver
	info       ModelInfo
}

// New creates a configured server. archiver may be nil, in which case uploads
// are never archived to object storage.
func New(cfg *config.Config, users repository.UserStore, detections repository.DetectionStore,
	pipeline *vision.Pipeline, tokens *auth.TokenIssuer, archiver queue.Archiver, info ModelInfo) *Server {
	return &Server{
		cfg:        cfg,
		users:      users,
		detections: detections,
		pipeline:   pipeline,
		tokens:     tokens,
		archiver:   archiver,
		info:       info,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/healthz", s.handleHealth)
	r.GET("/model/info", s.handleModelInfo)

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", s.handleRegister)
		authGroup.POST("/login", s.handleLogin)
		authGroup.GET("/me", s.requireUser(), s.handleMe)
	}

	predictions := r.Group("/predictions", s.requireUser())
	{
		predictions.POST("/predict", s.handlePredict)
		predictions.GET("/history", s.handleHistory)
		predictions.GET("/stats", s.handleStats)
	}

	admin := r.Group("/admin", s.requireUser(), s.requireAdmin())
	{
		admin.GET("/users", s.handleAdminUsers)
		admin.GET("/stats", s.handleAdminStats)
	}

	return r
}

// Run serves HTTP until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.cfg.Address,
		Handler: s.Router(),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleModelInfo(c *gin.Context) {
	c.JSON(http.StatusOK, s.info)
}

// fail writes the error body shape every endpoint shares.
func fail(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}
