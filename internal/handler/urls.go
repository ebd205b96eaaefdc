package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"Sahaya/internal/dispatch"
	"Sahaya/pkg/config"
	"Sahaya/pkg/sse"
)

type Handlers struct {
	db       *gorm.DB
	dispatch *dispatch.Service
	events   *sse.Hub
}

func NewHandlers(db *gorm.DB, svc *dispatch.Service, events *sse.Hub) *Handlers {
	return &Handlers{db: db, dispatch: svc, events: events}
}

func (h *Handlers) Register(engine *gin.Engine) {
	engine.GET("/health", h.handleHealthCheck)
	if config.GlobalConfig.MonitorPrefix != "" {
		engine.GET(config.GlobalConfig.MonitorPrefix, gin.WrapH(promhttp.Handler()))
	}

	r := engine.Group(config.GlobalConfig.APIPrefix)
	h.registerAlertRoutes(r)
}

// SOS Module
func (h *Handlers) registerAlertRoutes(r *gin.RouterGroup) {
	sos := r.Group("/sos")
	{
		sos.POST("", h.handleCreateAlert)
		sos.GET("", h.handleListAlerts)
		sos.GET("/active/count", h.handleActiveAlertCount)

		sos.GET("/:id", h.handleGetAlert)
		sos.POST("/:id/cancel", h.handleCancelAlert)
		sos.POST("/:id/resolve", h.handleResolveAlert)
		sos.POST("/:id/false-alarm", h.handleMarkFalseAlarm)
		sos.GET("/:id/audit", h.handleAlertAudit)
	}

	// live audit feed for operator dashboards
	r.GET("/events", h.handleEventStream)
}
