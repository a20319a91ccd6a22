package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-wellness-reminder/internal/activity"
	"github.com/KasumiMercury/primind-wellness-reminder/internal/reminder"
)

// ActivityHandler receives user presence signals and reports the
// detector's view.
type ActivityHandler struct {
	engine   *reminder.Engine
	detector *activity.Detector
}

func NewActivityHandler(engine *reminder.Engine, detector *activity.Detector) *ActivityHandler {
	return &ActivityHandler{
		engine:   engine,
		detector: detector,
	}
}

// HandlePing records a user activity signal.
func (h *ActivityHandler) HandlePing(c *gin.Context) {
	h.engine.RecordActivity(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"state": string(h.detector.State())})
}

type visibilityRequest struct {
	Visible *bool `json:"visible" binding:"required"`
}

// HandleVisibility records a window visibility change.
func (h *ActivityHandler) HandleVisibility(c *gin.Context) {
	var req visibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body, expected {\"visible\": bool}"})
		return
	}
	h.engine.RecordVisibility(c.Request.Context(), *req.Visible)
	c.JSON(http.StatusOK, gin.H{"state": string(h.detector.State())})
}

// HandleGet returns the current presence snapshot.
func (h *ActivityHandler) HandleGet(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"state":            string(h.detector.State()),
		"last_activity_at": h.detector.LastActivity().UnixMilli(),
	})
}
