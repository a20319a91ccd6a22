//go:build !gcloud

package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/KasumiMercury/primind-wellness-reminder/internal/domain"
)

func testNotification() *domain.Notification {
	return &domain.Notification{
		Kind:         domain.KindWater,
		Title:        "Time to hydrate",
		Body:         "Grab a glass of water.",
		SoundEnabled: true,
		FiredAt:      time.Date(2026, 8, 25, 9, 30, 0, 0, time.UTC),
	}
}

func TestWebhookNotifierDelivers(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, 3)
	if err := n.Notify(context.Background(), testNotification()); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	if got.Kind != "water" {
		t.Errorf("payload kind = %q, want water", got.Kind)
	}
	if !got.SoundEnabled {
		t.Errorf("payload sound_enabled = false, want true")
	}
	if got.FiredAt != testNotification().FiredAt.UnixMilli() {
		t.Errorf("payload fired_at = %d, want %d", got.FiredAt, testNotification().FiredAt.UnixMilli())
	}
}

func TestWebhookNotifierRetriesOnServerError(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, 3)
	if err := n.Notify(context.Background(), testNotification()); err != nil {
		t.Fatalf("Notify() error = %v, want success on third attempt", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestWebhookNotifierExhaustsRetries(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, 2)
	if err := n.Notify(context.Background(), testNotification()); err == nil {
		t.Fatalf("Notify() error = nil, want failure after exhausted retries")
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}
