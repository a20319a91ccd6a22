package stub

import (
	"sync"
)

// SinkStorage collects webhook deliveries per run so a test harness can
// assert what the engine actually sent.
type SinkStorage struct {
	mu   sync.Mutex
	runs map[string][]ReceivedNotification
}

func NewSinkStorage() *SinkStorage {
	return &SinkStorage{
		runs: make(map[string][]ReceivedNotification),
	}
}

func (s *SinkStorage) Add(runID string, n ReceivedNotification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[runID] = append(s.runs[runID], n)
}

func (s *SinkStorage) Get(runID string) []ReceivedNotification {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ReceivedNotification, len(s.runs[runID]))
	copy(out, s.runs[runID])
	return out
}

// CountByKind aggregates deliveries per reminder kind for one run.
func (s *SinkStorage) CountByKind(runID string) map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]int)
	for _, n := range s.runs[runID] {
		counts[n.Kind]++
	}
	return counts
}

func (s *SinkStorage) Reset(runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.runs, runID)
}
