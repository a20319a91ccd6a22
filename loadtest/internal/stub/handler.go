package stub

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Handler is a stand-in notification endpoint: point NOTIFY_WEBHOOK_URL
// at POST /notify and inspect what the engine delivered.
type Handler struct {
	storage *SinkStorage
}

func NewHandler(storage *SinkStorage) *Handler {
	return &Handler{storage: storage}
}

// POST /notify?run_id=...
func (h *Handler) HandleNotify(c *gin.Context) {
	runID := c.DefaultQuery("run_id", "default")

	var n ReceivedNotification
	if err := c.ShouldBindJSON(&n); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	n.ReceivedAt = time.Now().UnixMilli()

	h.storage.Add(runID, n)

	slog.Debug("notification received",
		slog.String("run_id", runID),
		slog.String("kind", n.Kind),
		slog.String("title", n.Title),
	)

	c.Status(http.StatusNoContent)
}

// GET /notifications?run_id=...
func (h *Handler) HandleGetNotifications(c *gin.Context) {
	runID := c.DefaultQuery("run_id", "default")

	notifications := h.storage.Get(runID)
	c.JSON(http.StatusOK, NotificationsResponse{
		Notifications: notifications,
		Count:         len(notifications),
	})
}

// GET /notifications/counts?run_id=...
func (h *Handler) HandleGetCounts(c *gin.Context) {
	runID := c.DefaultQuery("run_id", "default")
	c.JSON(http.StatusOK, gin.H{
		"run_id": runID,
		"counts": h.storage.CountByKind(runID),
	})
}

// POST /reset?run_id=...
func (h *Handler) HandleReset(c *gin.Context) {
	runID := c.DefaultQuery("run_id", "default")

	h.storage.Reset(runID)

	slog.Info("sink reset", slog.String("run_id", runID))

	c.JSON(http.StatusOK, gin.H{
		"status": "reset complete",
		"run_id": runID,
	})
}
