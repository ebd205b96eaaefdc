package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"Sahaya/internal/models"
	"Sahaya/pkg/response"
)

type createAlertRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Accuracy  *float64 `json:"accuracy"`
	Address   string   `json:"address"`
	Notes     string   `json:"notes"`
}

type cancelAlertRequest struct {
	Reason string `json:"reason"`
}

// handleCreateAlert accepts the SOS trigger. The alert is created even when
// the body is empty: location and notes are optional by contract.
func (h *Handlers) handleCreateAlert(c *gin.Context) {
	subjectID := requesterID(c)
	if subjectID == "" {
		response.Fail(c, http.StatusUnauthorized, "missing user identity")
		return
	}

	var req createAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.Fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	alert, err := h.dispatch.Create(c.Request.Context(), subjectID, models.Location{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Accuracy:  req.Accuracy,
		Address:   req.Address,
	}, req.Notes)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, "alert created", alert)
}

func (h *Handlers) handleCancelAlert(c *gin.Context) {
	requester := requesterID(c)
	if requester == "" {
		response.Fail(c, http.StatusUnauthorized, "missing user identity")
		return
	}
	var req cancelAlertRequest
	_ = c.ShouldBindJSON(&req)

	alert, err := h.dispatch.Cancel(c.Request.Context(), c.Param("id"), requester, req.Reason)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, "alert cancelled", alert)
}

func (h *Handlers) handleResolveAlert(c *gin.Context) {
	responder := requesterID(c)
	if responder == "" {
		response.Fail(c, http.StatusUnauthorized, "missing user identity")
		return
	}
	alert, err := h.dispatch.Resolve(c.Request.Context(), c.Param("id"), responder)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, "alert resolved", alert)
}

func (h *Handlers) handleMarkFalseAlarm(c *gin.Context) {
	requester := requesterID(c)
	if requester == "" {
		response.Fail(c, http.StatusUnauthorized, "missing user identity")
		return
	}
	alert, err := h.dispatch.MarkFalseAlarm(c.Request.Context(), c.Param("id"), requester)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, "alert marked as false alarm", alert)
}

func (h *Handlers) handleListAlerts(c *gin.Context) {
	subjectID := requesterID(c)
	if subjectID == "" {
		response.Fail(c, http.StatusUnauthorized, "missing user identity")
		return
	}
	page := intQuery(c, "page", 1)
	size := intQuery(c, "page_size", 20)

	alerts, total, err := h.dispatch.ListAlerts(c.Request.Context(), subjectID, page, size)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, "ok", gin.H{"alerts": alerts, "total": total, "page": page})
}

func (h *Handlers) handleActiveAlertCount(c *gin.Context) {
	n, err := h.dispatch.ActiveAlertCount(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, "ok", gin.H{"active": n})
}

func (h *Handlers) handleAlertAudit(c *gin.Context) {
	entries, err := h.dispatch.AuditTrail(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, "ok", entries)
}

func (h *Handlers) handleGetAlert(c *gin.Context) {
	alert, err := h.dispatch.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, "ok", alert)
}

// requesterID reads the identity the (external) auth layer attaches. The
// header fallback keeps local development workable without that layer.
func requesterID(c *gin.Context) string {
	if v, ok := c.Get("user_id"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return c.GetHeader("X-User-ID")
}

func intQuery(c *gin.Context, key string, def int) int {
	if n := cast.ToInt(c.Query(key)); n > 0 {
		return n
	}
	return def
}
