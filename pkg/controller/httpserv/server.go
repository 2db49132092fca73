package httpserv

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/minaret/pkg/model"
	"github.com/m-mizutani/minaret/pkg/usecase/notify"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the administrative HTTP surface: manual notification triggers,
// liveness, and metrics. The notify endpoints call the Router's broadcast
// path directly, bypassing the event detector.
type Server struct {
	router *gin.Engine
	notify *notify.Router
	addr   string
}

func New(addr string, router *notify.Router) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		router: engine,
		notify: router,
		addr:   addr,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "service": "minaret"})
	})
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.router.Group("/api/notify")
	{
		api.POST("/praying-now", s.handleNotify(model.EventPrayingNow))
		api.POST("/prayer-completed", s.handleNotify(model.EventPrayerCompleted))
	}
}

type notifyRequest struct {
	GroupID    string `json:"groupId"`
	MemberName string `json:"memberName"`
	PrayerName string `json:"prayerName"`
}

func (s *Server) handleNotify(kind model.EventKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req notifyRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.GroupID == "" || req.MemberName == "" || req.PrayerName == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing groupId, memberName, or prayerName"})
			return
		}

		err := s.notify.BroadcastActivity(c.Request.Context(), kind,
			model.GroupID(req.GroupID), req.MemberName, model.PrayerName(req.PrayerName))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// Handler exposes the underlying handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return goerr.Wrap(err, "http server failed", goerr.V("addr", s.addr))
	}
	return nil
}
