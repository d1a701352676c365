// Package server exposes run status, manual triggers and Prometheus metrics over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"go-jobscout/internal/models"
	"go-jobscout/internal/runner"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Runs is what the server needs from the application.
type Runs interface {
	// Start begins a run in the background, or returns runner.ErrRunInProgress.
	Start(ctx context.Context) error
	Latest() (models.RunResult, bool)
	Running() bool
}

type Server struct {
	runs     Runs
	registry *prometheus.Registry
	engine   *gin.Engine
	baseCtx  context.Context
	log      *slog.Logger
}

// New builds the gin engine. baseCtx bounds runs triggered over HTTP so they outlive the
// request but stop on shutdown.
func New(baseCtx context.Context, runs Runs, registry *prometheus.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		runs:     runs,
		registry: registry,
		baseCtx:  baseCtx,
		log:      logger.With("component", "server"),
	}
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", s.health)
	r.GET("/runs/latest", s.latest)
	r.POST("/runs", s.trigger)
	if registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}
	s.engine = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("🌐 server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"running": s.runs.Running(),
	})
}

func (s *Server) latest(c *gin.Context) {
	res, ok := s.runs.Latest()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no run has finished yet"})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) trigger(c *gin.Context) {
	err := s.runs.Start(s.baseCtx)
	switch {
	case errors.Is(err, runner.ErrRunInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		s.log.Error("❌ could not start run", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		s.log.Info("▶️ run triggered over http", "remote", c.ClientIP())
		c.JSON(http.StatusAccepted, gin.H{"status": "started"})
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"took", time.Since(start))
	}
}
