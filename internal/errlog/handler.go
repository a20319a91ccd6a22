package errlog

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/KasumiMercury/primind-wellness-reminder/internal/domain"
)

// Type classifies a handled failure.
type Type string

const (
	TypeValidation Type = "validation"
	TypeStorage    Type = "storage"
	TypePermission Type = "permission"
	TypeTimerDrift Type = "timer_drift"
	TypeUnknown    Type = "unknown"
)

const (
	defaultMaxLogSize       = 100
	defaultMaxRecoveryTries = 3
)

// Entry describes one failure funneled into the handler. Recover, when set,
// is the originating component's recovery callback.
type Entry struct {
	ID         string
	Type       Type
	Source     string
	Message    string
	Err        error
	OccurredAt time.Time
	Recover    func() error
}

// Stats aggregates the current log only; nothing here is persisted.
type Stats struct {
	Total    int          `json:"total"`
	ByType   map[Type]int `json:"by_type"`
	LastHour int          `json:"last_hour"`
	LastDay  int          `json:"last_day"`
}

// Handler is the single triage surface for engine failures: timer tick
// panics, storage write errors and notification failures all land here.
// Handle never fails and never panics, regardless of callback behavior.
type Handler struct {
	mu         sync.Mutex
	maxLogSize int
	maxTries   int
	log        []Entry
	tries      map[string]int
	now        func() time.Time
}

func NewHandler(maxLogSize int) *Handler {
	if maxLogSize <= 0 {
		maxLogSize = defaultMaxLogSize
	}
	return &Handler{
		maxLogSize: maxLogSize,
		maxTries:   defaultMaxRecoveryTries,
		tries:      make(map[string]int),
		now:        time.Now,
	}
}

// Handle appends a bounded log entry (oldest evicted first) and runs the
// recovery callback when present. Unknown-type failures get a bounded number
// of recovery attempts per source before the handler reports terminally and
// stops retrying.
func (h *Handler) Handle(ctx context.Context, entry Entry) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Type == "" {
		entry.Type = Classify(entry.Err)
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = h.now()
	}

	h.mu.Lock()
	h.log = append(h.log, entry)
	if len(h.log) > h.maxLogSize {
		h.log = h.log[len(h.log)-h.maxLogSize:]
	}
	exhausted := false
	if entry.Type == TypeUnknown && entry.Recover != nil {
		h.tries[entry.Source]++
		exhausted = h.tries[entry.Source] > h.maxTries
	}
	h.mu.Unlock()

	attrs := []any{
		slog.String("error_id", entry.ID),
		slog.String("type", string(entry.Type)),
		slog.String("source", entry.Source),
	}
	if entry.Err != nil {
		attrs = append(attrs, slog.String("error", entry.Err.Error()))
	}
	slog.WarnContext(ctx, entry.Message, attrs...)

	if entry.Recover == nil {
		return
	}
	if exhausted {
		slog.ErrorContext(ctx, "recovery attempts exhausted, giving up",
			slog.String("source", entry.Source),
			slog.Int("max_attempts", h.maxTries),
		)
		return
	}
	h.runRecovery(ctx, entry)
}

func (h *Handler) runRecovery(ctx context.Context, entry Entry) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "recovery callback panicked",
				slog.String("source", entry.Source),
				slog.Any("panic", r),
			)
		}
	}()

	if err := entry.Recover(); err != nil {
		slog.WarnContext(ctx, "recovery callback failed",
			slog.String("source", entry.Source),
			slog.String("error", err.Error()),
		)
	}
}

// RecoverPanic converts a panic in a tick or event callback into a handled
// entry. Use as: defer h.RecoverPanic(ctx, "reminder.tick").
func (h *Handler) RecoverPanic(ctx context.Context, source string) {
	if r := recover(); r != nil {
		var err error
		if e, ok := r.(error); ok {
			err = e
		} else {
			err = errors.New("panic in callback")
		}
		h.Handle(ctx, Entry{
			Type:    TypeUnknown,
			Source:  source,
			Message: "recovered panic",
			Err:     err,
		})
	}
}

// Stats aggregates counts by type and recency over the current log.
func (h *Handler) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	stats := Stats{
		Total:  len(h.log),
		ByType: make(map[Type]int),
	}
	for _, entry := range h.log {
		stats.ByType[entry.Type]++
		age := now.Sub(entry.OccurredAt)
		if age <= time.Hour {
			stats.LastHour++
		}
		if age <= 24*time.Hour {
			stats.LastDay++
		}
	}
	return stats
}

// Entries returns a copy of the current log, oldest first.
func (h *Handler) Entries() []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Entry, len(h.log))
	copy(out, h.log)
	return out
}

// Classify maps an error to its taxonomy type.
func Classify(err error) Type {
	switch {
	case err == nil:
		return TypeUnknown
	case errors.Is(err, domain.ErrPausedWhileInactive),
		errors.Is(err, domain.ErrNegativeTimeRemaining),
		errors.Is(err, domain.ErrInvalidInterval),
		errors.Is(err, domain.ErrUnknownField),
		errors.Is(err, domain.ErrInvalidFieldType):
		return TypeValidation
	case errors.Is(err, domain.ErrStorageUnavailable):
		return TypeStorage
	default:
		return TypeUnknown
	}
}
