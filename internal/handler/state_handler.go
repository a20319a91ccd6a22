package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-wellness-reminder/internal/domain"
	"github.com/KasumiMercury/primind-wellness-reminder/internal/state"
)

// StateHandler exposes raw state snapshots, app-state patches and the
// factory reset.
type StateHandler struct {
	states *state.Manager
}

func NewStateHandler(states *state.Manager) *StateHandler {
	return &StateHandler{states: states}
}

type appStateResponse struct {
	IsFirstUse           bool           `json:"is_first_use"`
	CompatibilityChecked bool           `json:"compatibility_checked"`
	LastActivityAt       *int64         `json:"last_activity_at,omitempty"`
	NotificationPrefs    map[string]any `json:"notification_prefs"`
}

func toAppResponse(st domain.AppState) appStateResponse {
	resp := appStateResponse{
		IsFirstUse:           st.IsFirstUse,
		CompatibilityChecked: st.CompatibilityChecked,
		NotificationPrefs:    st.NotificationPrefs,
	}
	if !st.LastActivityAt.IsZero() {
		at := st.LastActivityAt.UnixMilli()
		resp.LastActivityAt = &at
	}
	return resp
}

// HandleGetReminderState returns the raw state snapshot for one kind.
func (h *StateHandler) HandleGetReminderState(c *gin.Context) {
	kind := domain.Kind(c.Param("kind"))
	if !kind.Valid() {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown reminder kind: " + c.Param("kind")})
		return
	}

	st, err := h.states.ReminderState(kind)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"kind":              kind.String(),
		"is_active":         st.IsActive,
		"is_paused":         st.IsPaused,
		"time_remaining_ms": st.TimeRemaining.Milliseconds(),
		"next_reminder_at":  epochOrNil(st.NextReminderAt),
		"settings": gin.H{
			"interval_minutes": st.Settings.IntervalMinutes,
			"enabled":          st.Settings.Enabled,
			"sound_enabled":    st.Settings.SoundEnabled,
			"last_reminder_at": epochPtrOrNil(st.Settings.LastReminderAt),
		},
	})
}

// HandleGetAppState returns the app-level state.
func (h *StateHandler) HandleGetAppState(c *gin.Context) {
	c.JSON(http.StatusOK, toAppResponse(h.states.AppState()))
}

// HandleUpdateAppState merges a partial update into the app state.
func (h *StateHandler) HandleUpdateAppState(c *gin.Context) {
	var patch map[string]any
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body, expected a state object"})
		return
	}

	if err := h.states.UpdateApp(c.Request.Context(), state.Update(patch), true); err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAppResponse(h.states.AppState()))
}

// HandleReset restores every entry to schema defaults.
func (h *StateHandler) HandleReset(c *gin.Context) {
	if err := h.states.ResetToDefaults(c.Request.Context()); err != nil {
		// Cache is already reset; storage failure only means the write is
		// deferred.
		c.JSON(http.StatusOK, gin.H{"status": "reset", "persisted": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reset", "persisted": true})
}

func epochOrNil(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UnixMilli()
}

func epochPtrOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}
