package repository

import (
	"context"
	"sync"

	"github.com/KasumiMercury/primind-wellness-reminder/internal/domain"
)

// memoryRepository keeps state in process memory only. It backs the engine
// when Redis is unreachable so the session keeps working; nothing survives a
// restart.
type memoryRepository struct {
	mu        sync.RWMutex
	reminders map[domain.Kind]domain.ReminderState
	app       *domain.AppState
}

func NewMemoryRepository() domain.StateRepository {
	return &memoryRepository{
		reminders: make(map[domain.Kind]domain.ReminderState),
	}
}

func (r *memoryRepository) GetReminderState(_ context.Context, kind domain.Kind) (*domain.ReminderState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.reminders[kind]
	if !ok {
		return nil, domain.ErrStateNotFound
	}
	clone := state.Clone()
	return &clone, nil
}

func (r *memoryRepository) SaveReminderState(_ context.Context, kind domain.Kind, state *domain.ReminderState) error {
	if state == nil {
		return ErrInvalidStateData
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.reminders[kind] = state.Clone()
	return nil
}

func (r *memoryRepository) GetAppState(_ context.Context) (*domain.AppState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.app == nil {
		return nil, domain.ErrStateNotFound
	}
	clone := r.app.Clone()
	return &clone, nil
}

func (r *memoryRepository) SaveAppState(_ context.Context, state *domain.AppState) error {
	if state == nil {
		return ErrInvalidStateData
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	clone := state.Clone()
	r.app = &clone
	return nil
}

func (r *memoryRepository) Available(_ context.Context) bool {
	return true
}
