package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-wellness-reminder/internal/domain"
	"github.com/KasumiMercury/primind-wellness-reminder/internal/reminder"
	"github.com/KasumiMercury/primind-wellness-reminder/internal/state"
)

// ReminderHandler exposes the timer lifecycle operations over HTTP.
type ReminderHandler struct {
	engine *reminder.Engine
	states *state.Manager
}

func NewReminderHandler(engine *reminder.Engine, states *state.Manager) *ReminderHandler {
	return &ReminderHandler{
		engine: engine,
		states: states,
	}
}

// reminderStateResponse is the wire shape of a reminder state snapshot.
type reminderStateResponse struct {
	Kind            string  `json:"kind"`
	Status          string  `json:"status"`
	IsActive        bool    `json:"is_active"`
	IsPaused        bool    `json:"is_paused"`
	TimeRemainingMs int64   `json:"time_remaining_ms"`
	NextReminderAt  *int64  `json:"next_reminder_at,omitempty"`
	IntervalMinutes float64 `json:"interval_minutes"`
	Enabled         bool    `json:"enabled"`
	SoundEnabled    bool    `json:"sound_enabled"`
	LastReminderAt  *int64  `json:"last_reminder_at,omitempty"`
}

func toReminderResponse(kind domain.Kind, st domain.ReminderState, status reminder.Status) reminderStateResponse {
	resp := reminderStateResponse{
		Kind:            kind.String(),
		Status:          string(status),
		IsActive:        st.IsActive,
		IsPaused:        st.IsPaused,
		TimeRemainingMs: st.TimeRemaining.Milliseconds(),
		IntervalMinutes: st.Settings.IntervalMinutes,
		Enabled:         st.Settings.Enabled,
		SoundEnabled:    st.Settings.SoundEnabled,
	}
	if !st.NextReminderAt.IsZero() {
		at := st.NextReminderAt.UnixMilli()
		resp.NextReminderAt = &at
	}
	if st.Settings.LastReminderAt != nil {
		at := st.Settings.LastReminderAt.UnixMilli()
		resp.LastReminderAt = &at
	}
	return resp
}

func (h *ReminderHandler) timerFor(c *gin.Context) (*reminder.Timer, domain.Kind, bool) {
	kind := domain.Kind(c.Param("kind"))
	timer, err := h.engine.Timer(kind)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown reminder kind: " + c.Param("kind")})
		return nil, "", false
	}
	return timer, kind, true
}

func (h *ReminderHandler) respondState(c *gin.Context, kind domain.Kind, timer *reminder.Timer) {
	st, err := h.states.ReminderState(kind)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReminderResponse(kind, st, timer.Status()))
}

func (h *ReminderHandler) HandleStart(c *gin.Context) {
	timer, kind, ok := h.timerFor(c)
	if !ok {
		return
	}
	if err := timer.Start(c.Request.Context()); err != nil {
		respondDomainError(c, err)
		return
	}
	h.respondState(c, kind, timer)
}

func (h *ReminderHandler) HandlePause(c *gin.Context) {
	timer, kind, ok := h.timerFor(c)
	if !ok {
		return
	}
	if err := timer.Pause(c.Request.Context(), reminder.SourceUser); err != nil {
		respondDomainError(c, err)
		return
	}
	h.respondState(c, kind, timer)
}

func (h *ReminderHandler) HandleResume(c *gin.Context) {
	timer, kind, ok := h.timerFor(c)
	if !ok {
		return
	}
	if err := timer.Resume(c.Request.Context(), reminder.SourceUser); err != nil {
		respondDomainError(c, err)
		return
	}
	h.respondState(c, kind, timer)
}

func (h *ReminderHandler) HandleStop(c *gin.Context) {
	timer, kind, ok := h.timerFor(c)
	if !ok {
		return
	}
	if err := timer.Stop(c.Request.Context()); err != nil {
		respondDomainError(c, err)
		return
	}
	h.respondState(c, kind, timer)
}

type snoozeRequest struct {
	Minutes float64 `json:"minutes" binding:"required"`
}

func (h *ReminderHandler) HandleSnooze(c *gin.Context) {
	timer, kind, ok := h.timerFor(c)
	if !ok {
		return
	}

	var req snoozeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body, expected {\"minutes\": n}"})
		return
	}

	d := time.Duration(req.Minutes * float64(time.Minute))
	if err := timer.Snooze(c.Request.Context(), d); err != nil {
		respondDomainError(c, err)
		return
	}
	h.respondState(c, kind, timer)
}

func (h *ReminderHandler) HandleAcknowledge(c *gin.Context) {
	timer, kind, ok := h.timerFor(c)
	if !ok {
		return
	}
	if err := timer.Acknowledge(c.Request.Context()); err != nil {
		respondDomainError(c, err)
		return
	}
	h.respondState(c, kind, timer)
}

func (h *ReminderHandler) HandleRestart(c *gin.Context) {
	timer, kind, ok := h.timerFor(c)
	if !ok {
		return
	}
	if err := timer.Restart(c.Request.Context()); err != nil {
		respondDomainError(c, err)
		return
	}
	h.respondState(c, kind, timer)
}

// HandleSettings merges a settings patch into one kind's state.
func (h *ReminderHandler) HandleSettings(c *gin.Context) {
	timer, kind, ok := h.timerFor(c)
	if !ok {
		return
	}

	var patch map[string]any
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body, expected a settings object"})
		return
	}

	err := h.states.UpdateReminder(c.Request.Context(), kind, state.Update{"settings": patch}, true)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	h.respondState(c, kind, timer)
}

// HandleStatus returns a snapshot of every timer.
func (h *ReminderHandler) HandleStatus(c *gin.Context) {
	out := make([]reminderStateResponse, 0, len(domain.Kinds()))
	for _, kind := range domain.Kinds() {
		timer, err := h.engine.Timer(kind)
		if err != nil {
			continue
		}
		st, err := h.states.ReminderState(kind)
		if err != nil {
			continue
		}
		out = append(out, toReminderResponse(kind, st, timer.Status()))
	}
	c.JSON(http.StatusOK, gin.H{"reminders": out})
}

func respondDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownField),
		errors.Is(err, domain.ErrInvalidFieldType),
		errors.Is(err, domain.ErrInvalidInterval),
		errors.Is(err, domain.ErrPausedWhileInactive),
		errors.Is(err, domain.ErrNegativeTimeRemaining),
		errors.Is(err, reminder.ErrInvalidSnooze):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrStateNotFound),
		errors.Is(err, reminder.ErrUnknownKind):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, reminder.ErrNotRunning):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
