// Package httpapi exposes the tracker and report services as a JSON API.
// Every response body is an apperr.Result envelope.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sadopc/punchclock/internal/clock"
	"github.com/sadopc/punchclock/internal/report"
	"github.com/sadopc/punchclock/internal/tracker"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	JWTSecret      string
	AllowedOrigins []string
	Logger         *slog.Logger
	// Health is pinged by GET /api/health when set.
	Health Pinger
	Clock  clock.Clock
}

type Handler struct {
	tracker *tracker.Service
	reports *report.Service
	health  Pinger
	clock   clock.Clock
	log     *slog.Logger
}

func NewRouter(t *tracker.Service, r *report.Service, opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.System{}
	}
	h := &Handler{tracker: t, reports: r, health: opts.Health, clock: clk, log: logger}

	router := gin.New()
	router.Use(gin.Recovery(), requestID(), requestLogger(logger), corsMiddleware(opts.AllowedOrigins))
	Register(router, h, opts.JWTSecret)
	return router
}

func Register(router *gin.Engine, h *Handler, secret string) {
	api := router.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/shared/:token", h.ResolveShare)
	}

	protected := api.Group("/")
	protected.Use(AuthRequired(secret))
	{
		protected.GET("/session", h.SessionState)
		protected.POST("/session/start", h.StartSession)
		protected.POST("/session/break/start", h.StartBreak)
		protected.POST("/session/break/end", h.EndBreak)
		protected.POST("/session/end", h.EndSession)

		protected.GET("/entries", h.ListEntries)
		protected.POST("/entries", h.CreateEntry)
		protected.GET("/entries/:id", h.GetEntry)
		protected.PUT("/entries/:id", h.UpdateEntry)
		protected.DELETE("/entries/:id", h.DeleteEntry)
		protected.POST("/entries/:id/breaks", h.AddBreak)
		protected.PUT("/breaks/:id", h.UpdateBreak)
		protected.DELETE("/breaks/:id", h.DeleteBreak)

		protected.GET("/settings", h.GetSettings)
		protected.PATCH("/settings", h.UpdateSettings)

		protected.GET("/reports", h.Report)
		protected.GET("/reports/export", h.ExportReport)

		protected.GET("/shares", h.ListShares)
		protected.POST("/shares", h.IssueShare)
		protected.DELETE("/shares/:token", h.RevokeShare)
	}
}

func (h *Handler) Health(c *gin.Context) {
	if h.health != nil {
		if err := h.health.Ping(c.Request.Context()); err != nil {
			h.log.ErrorContext(c.Request.Context(), "health check failed", "err", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "database unavailable"})
			return
		}
	}
	respond(c, http.StatusOK, gin.H{"status": "ok"})
}
