package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/zerotwo/solar-watcher/services/watcher/internal/ingest"
	"github.com/zerotwo/solar-watcher/services/watcher/internal/models"
)

// SnapshotSource is the read side of the ingestion loop.
type SnapshotSource interface {
	Snapshot() *models.Snapshot
	Status() ingest.Status
}

// StoreStats reports how much history the store holds.
type StoreStats interface {
	Count(ctx context.Context) (int64, error)
	SelectMinTimestamp(ctx context.Context) (*time.Time, error)
}

// Server bundles router and dependencies for the dashboard.
type Server struct {
	addr     string
	loop     SnapshotSource
	store    StoreStats
	log      logrus.FieldLogger
	engine   *gin.Engine
	location *time.Location
}

// New constructs a server with routes and middleware. Timestamps on the page
// are shown in loc; nil means local time.
func New(addr string, loop SnapshotSource, store StoreStats, log logrus.FieldLogger, loc *time.Location) *Server {
	if loc == nil {
		loc = time.Local
	}
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(log))
	engine.Use(corsMiddleware())
	engine.SetHTMLTemplate(pageTemplate)

	server := &Server{addr: addr, loop: loop, store: store, log: log, engine: engine, location: loc}
	server.registerRoutes()
	return server
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.log.WithField("addr", s.addr).Info("dashboard listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/", s.handleIndex)
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := s.engine.Group("/api/v1")
	v1.Use(apiVersionMiddleware())
	{
		v1.GET("/snapshot", s.handleSnapshot)
		v1.GET("/charts/:index", s.handleChart)
		v1.GET("/status", s.handleStatus)
	}
}

func requestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
		}).Debug("request")
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func apiVersionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-API-Version", "v1")
		c.Next()
	}
}

// handleSnapshot returns the current snapshot without chart images.
// GET /api/v1/snapshot
func (s *Server) handleSnapshot(c *gin.Context) {
	snap := s.loop.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"data": snap,
		"meta": gin.H{
			"charts_count": len(snap.Charts),
			"generated_at": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// handleChart serves one rendered chart.
// GET /api/v1/charts/:index
func (s *Server) handleChart(c *gin.Context) {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil || idx < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chart index"})
		return
	}

	charts := s.loop.Snapshot().Charts
	if idx >= len(charts) {
		c.JSON(http.StatusNotFound, gin.H{"error": "chart not found"})
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "image/svg+xml", charts[idx].SVG)
}

// handleStatus reports loop progress, the stored row count and the first
// reading's time.
// GET /api/v1/status
func (s *Server) handleStatus(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	body := gin.H{"loop": s.loop.Status()}
	rows, err := s.store.Count(ctx)
	if err != nil {
		body["store_error"] = err.Error()
		c.JSON(http.StatusServiceUnavailable, gin.H{"data": body})
		return
	}
	body["rows"] = rows

	first, err := s.store.SelectMinTimestamp(ctx)
	if err != nil {
		body["store_error"] = err.Error()
		c.JSON(http.StatusServiceUnavailable, gin.H{"data": body})
		return
	}
	if first != nil {
		body["first_reading"] = first.Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, gin.H{"data": body})
}
