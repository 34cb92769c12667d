package memory

import (
	"context"
	"sync"

	"github.com/RobertYoung/quizmaster/internal/domain"
)

// SnapshotStore is the in-memory implementation of app.SnapshotStore,
// holding the two session records for the lifetime of the process.
type SnapshotStore struct {
	mu          sync.RWMutex
	progression *domain.ProgressionSnapshot
	scores      *domain.ScoreSnapshot
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

func (s *SnapshotStore) SaveProgression(_ context.Context, snap domain.ProgressionSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progression = &snap
	return nil
}

func (s *SnapshotStore) SaveScores(_ context.Context, snap domain.ScoreSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores = &snap
	return nil
}

func (s *SnapshotStore) LoadProgression(_ context.Context) (domain.ProgressionSnapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.progression == nil {
		return domain.ProgressionSnapshot{}, false, nil
	}
	return *s.progression, true, nil
}

func (s *SnapshotStore) LoadScores(_ context.Context) (domain.ScoreSnapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.scores == nil {
		return domain.ScoreSnapshot{}, false, nil
	}
	return *s.scores, true, nil
}

func (s *SnapshotStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progression = nil
	s.scores = nil
	return nil
}
