package errlog

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/KasumiMercury/primind-wellness-reminder/internal/domain"
)

func TestHandlerBoundedEviction(t *testing.T) {
	h := NewHandler(3)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		h.Handle(ctx, Entry{
			Type:    TypeValidation,
			Source:  "test",
			Message: fmt.Sprintf("entry %d", i),
		})
	}

	entries := h.Entries()
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want bounded at 3", len(entries))
	}
	if entries[0].Message != "entry 2" {
		t.Errorf("oldest surviving entry = %q, want %q (FIFO eviction)", entries[0].Message, "entry 2")
	}
	if entries[2].Message != "entry 4" {
		t.Errorf("newest entry = %q, want %q", entries[2].Message, "entry 4")
	}
}

func TestHandlerAssignsIDAndTimestamp(t *testing.T) {
	h := NewHandler(0)
	h.Handle(context.Background(), Entry{Source: "test", Message: "no id"})

	entries := h.Entries()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].ID == "" {
		t.Errorf("ID not assigned")
	}
	if entries[0].OccurredAt.IsZero() {
		t.Errorf("OccurredAt not assigned")
	}
}

func TestHandlerStatsWindows(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	h := NewHandler(0)
	h.now = func() time.Time { return now }

	ctx := context.Background()
	h.Handle(ctx, Entry{Type: TypeStorage, Source: "a", Message: "recent", OccurredAt: now.Add(-10 * time.Minute)})
	h.Handle(ctx, Entry{Type: TypeStorage, Source: "b", Message: "today", OccurredAt: now.Add(-5 * time.Hour)})
	h.Handle(ctx, Entry{Type: TypeValidation, Source: "c", Message: "old", OccurredAt: now.Add(-48 * time.Hour)})

	stats := h.Stats()
	if stats.Total != 3 {
		t.Errorf("Total = %d, want 3", stats.Total)
	}
	if stats.ByType[TypeStorage] != 2 || stats.ByType[TypeValidation] != 1 {
		t.Errorf("ByType = %v, want storage:2 validation:1", stats.ByType)
	}
	if stats.LastHour != 1 {
		t.Errorf("LastHour = %d, want 1", stats.LastHour)
	}
	if stats.LastDay != 2 {
		t.Errorf("LastDay = %d, want 2", stats.LastDay)
	}
}

func TestHandlerRunsRecoveryCallback(t *testing.T) {
	h := NewHandler(0)

	recovered := 0
	h.Handle(context.Background(), Entry{
		Type:    TypeStorage,
		Source:  "repo",
		Message: "write failed",
		Recover: func() error {
			recovered++
			return nil
		},
	})

	if recovered != 1 {
		t.Errorf("recovery callback ran %d times, want 1", recovered)
	}
}

func TestHandlerSurvivesPanickingCallback(t *testing.T) {
	h := NewHandler(0)

	h.Handle(context.Background(), Entry{
		Type:    TypeStorage,
		Source:  "repo",
		Message: "write failed",
		Recover: func() error {
			panic("callback bug")
		},
	})

	if got := h.Stats().Total; got != 1 {
		t.Errorf("Total = %d, want entry recorded despite panic", got)
	}
}

func TestHandlerBoundsUnknownRecoveryAttempts(t *testing.T) {
	h := NewHandler(0)

	attempts := 0
	for i := 0; i < 6; i++ {
		h.Handle(context.Background(), Entry{
			Type:    TypeUnknown,
			Source:  "flaky",
			Message: "mystery failure",
			Recover: func() error {
				attempts++
				return errors.New("still broken")
			},
		})
	}

	if attempts != defaultMaxRecoveryTries {
		t.Errorf("recovery attempts = %d, want capped at %d", attempts, defaultMaxRecoveryTries)
	}
}

func TestHandlerRecoverPanic(t *testing.T) {
	h := NewHandler(0)

	func() {
		defer h.RecoverPanic(context.Background(), "tick")
		panic(errors.New("tick exploded"))
	}()

	entries := h.Entries()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].Source != "tick" {
		t.Errorf("Source = %q, want %q", entries[0].Source, "tick")
	}
	if entries[0].Type != TypeUnknown {
		t.Errorf("Type = %q, want %q", entries[0].Type, TypeUnknown)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Type
	}{
		{"paused while inactive", domain.ErrPausedWhileInactive, TypeValidation},
		{"negative remaining", domain.ErrNegativeTimeRemaining, TypeValidation},
		{"invalid interval", fmt.Errorf("update: %w", domain.ErrInvalidInterval), TypeValidation},
		{"unknown field", domain.ErrUnknownField, TypeValidation},
		{"storage", domain.ErrStorageUnavailable, TypeStorage},
		{"anything else", errors.New("boom"), TypeUnknown},
		{"nil", nil, TypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}
