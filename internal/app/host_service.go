package app

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/RobertYoung/quizmaster/internal/domain"
)

// SetCatalog resolves question set content (static, file-backed, Redis-cached, etc).
type SetCatalog interface {
	ListSets(ctx context.Context) ([]domain.QuestionSet, error)
	GetSet(ctx context.Context, id string) (domain.QuestionSet, error)
	DefaultSet(ctx context.Context) (domain.QuestionSet, error)
}

// SnapshotStore abstracts the durable key-value storage the session state is
// written through to (in-memory, Redis, etc). Progression and scores are two
// independent records.
type SnapshotStore interface {
	SaveProgression(ctx context.Context, snap domain.ProgressionSnapshot) error
	SaveScores(ctx context.Context, snap domain.ScoreSnapshot) error
	LoadProgression(ctx context.Context) (domain.ProgressionSnapshot, bool, error)
	LoadScores(ctx context.Context) (domain.ScoreSnapshot, bool, error)
	Clear(ctx context.Context) error
}

// StateSnapshot is the full view handed to the presentation layer after
// every mutation.
type StateSnapshot struct {
	Progression     domain.ProgressionSnapshot `json:"progression"`
	CurrentCategory *domain.Category           `json:"currentCategory,omitempty"`
	CurrentQuestion *domain.Question           `json:"currentQuestion,omitempty"`
	CategoryCount   int                        `json:"categoryCount"`
	TotalQuestions  int                        `json:"totalQuestions"`
	QuestionOrdinal int                        `json:"questionOrdinal"`
	Teams           []domain.Team              `json:"teams"`
	Leaderboard     []domain.LeaderboardEntry  `json:"leaderboard"`
	QuestionAwards  []string                   `json:"questionAwards"`
	Winners         []domain.LeaderboardEntry  `json:"winners,omitempty"`
}

// HostService owns the progression engine and the score ledger for the
// single host session, applies events one at a time, writes both snapshots
// through to the store after every mutation, and fans the resulting state
// out to subscribers.
type HostService struct {
	catalog SetCatalog
	store   SnapshotStore

	mu          sync.RWMutex
	progression Progression
	ledger      *Ledger
	subscribers map[chan StateSnapshot]struct{}
}

// NewHostService wires the service against a catalog and a snapshot store.
// Call Restore before dispatching events.
func NewHostService(catalog SetCatalog, store SnapshotStore) *HostService {
	return &HostService{
		catalog:     catalog,
		store:       store,
		ledger:      NewLedger(),
		subscribers: make(map[chan StateSnapshot]struct{}),
	}
}

// Restore loads persisted state and repairs it against current catalog
// content: an unknown set ID falls back to the default set at position
// (0,0), out-of-range indices are clamped, and corrupt or absent records
// default cleanly. It never fails for recoverable content drift.
func (s *HostService) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	progSnap, haveProg, err := s.store.LoadProgression(ctx)
	if err != nil {
		return err
	}

	set, err := s.resolveSet(ctx, progSnap.QuestionSetID, haveProg)
	if err != nil {
		return err
	}

	if haveProg && progSnap.QuestionSetID == set.ID {
		s.progression = RestoreProgression(set, progSnap)
	} else {
		s.progression = NewProgression(set)
	}

	scoreSnap, haveScores, err := s.store.LoadScores(ctx)
	if err != nil {
		return err
	}
	if haveScores {
		s.ledger = RestoreLedger(scoreSnap)
	} else {
		s.ledger = NewLedger()
	}
	return nil
}

func (s *HostService) resolveSet(ctx context.Context, id string, persisted bool) (domain.QuestionSet, error) {
	if persisted && id != "" {
		set, err := s.catalog.GetSet(ctx, id)
		if err == nil {
			return set, nil
		}
		if !errors.Is(err, domain.ErrSetNotFound) {
			return domain.QuestionSet{}, err
		}
		log.Printf("persisted question set %q no longer in catalog, falling back to default", id)
	}
	return s.catalog.DefaultSet(ctx)
}

// ListSets exposes the catalog for the presentation layer's set selector.
func (s *HostService) ListSets(ctx context.Context) ([]domain.QuestionSet, error) {
	return s.catalog.ListSets(ctx)
}

// StartQuiz moves setup -> playing and shows the first section intro.
func (s *HostService) StartQuiz(ctx context.Context) StateSnapshot {
	return s.apply(ctx, func() { s.progression = s.progression.Start() })
}

// DismissSectionIntro clears the section intro gate.
func (s *HostService) DismissSectionIntro(ctx context.Context) StateSnapshot {
	return s.apply(ctx, func() { s.progression = s.progression.DismissSectionIntro() })
}

// RevealAnswer shows the current question's answer.
func (s *HostService) RevealAnswer(ctx context.Context) StateSnapshot {
	return s.apply(ctx, func() { s.progression = s.progression.RevealAnswer() })
}

// HideAnswer hides the current question's answer.
func (s *HostService) HideAnswer(ctx context.Context) StateSnapshot {
	return s.apply(ctx, func() { s.progression = s.progression.HideAnswer() })
}

// NextQuestion advances the progression one step.
func (s *HostService) NextQuestion(ctx context.Context) StateSnapshot {
	return s.apply(ctx, func() { s.progression = s.progression.NextQuestion() })
}

// PreviousQuestion steps the progression one step back.
func (s *HostService) PreviousQuestion(ctx context.Context) StateSnapshot {
	return s.apply(ctx, func() { s.progression = s.progression.PreviousQuestion() })
}

// GoToCategory jumps to the first question of the given category.
func (s *HostService) GoToCategory(ctx context.Context, index int) StateSnapshot {
	return s.apply(ctx, func() { s.progression = s.progression.GoToCategory(index) })
}

// FinishQuiz forces the finished status.
func (s *HostService) FinishQuiz(ctx context.Context) StateSnapshot {
	return s.apply(ctx, func() { s.progression = s.progression.Finish() })
}

// ResetQuiz returns to the initial state for the current set, clears teams
// and scores, and drops the persisted snapshots.
func (s *HostService) ResetQuiz(ctx context.Context) StateSnapshot {
	s.mu.Lock()
	s.progression = s.progression.Reset()
	s.ledger.Reset()
	if err := s.store.Clear(ctx); err != nil {
		log.Printf("clear snapshots: %v", err)
	}
	snap := s.snapshotLocked()
	s.broadcastLocked(snap)
	s.mu.Unlock()
	return snap
}

// SelectQuestionSet rebinds the session to another set and resets teams and
// scores, so nothing stale carries over. Unknown IDs leave state unchanged.
func (s *HostService) SelectQuestionSet(ctx context.Context, id string) StateSnapshot {
	set, err := s.catalog.GetSet(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrSetNotFound) {
			log.Printf("select question set %q: %v", id, err)
		}
		return s.Snapshot()
	}
	return s.apply(ctx, func() {
		s.progression = NewProgression(set)
		s.ledger.Reset()
	})
}

// AddTeam registers a team and returns its fresh ID with the new state.
func (s *HostService) AddTeam(ctx context.Context, name string) (string, StateSnapshot) {
	var id string
	snap := s.apply(ctx, func() { id = s.ledger.AddTeam(name) })
	return id, snap
}

// RemoveTeam drops a team and its scores.
func (s *HostService) RemoveTeam(ctx context.Context, teamID string) StateSnapshot {
	return s.apply(ctx, func() { s.ledger.RemoveTeam(teamID) })
}

// ToggleQuestionAward credits (or revokes) the current question's points for
// a team. A no-op while no question is current or for unknown teams.
func (s *HostService) ToggleQuestionAward(ctx context.Context, teamID string) StateSnapshot {
	return s.apply(ctx, func() {
		if s.progression.Status != domain.StatusPlaying {
			return
		}
		question := s.progression.CurrentQuestion()
		s.ledger.ToggleQuestionAward(teamID, question.ID, question.CategoryID, question.Points)
	})
}

// Snapshot returns the current state without mutating anything.
func (s *HostService) Snapshot() StateSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel receiving a state snapshot after every
// mutation, primed with the current state. The cancel function must be
// called to release the subscription.
func (s *HostService) Subscribe() (<-chan StateSnapshot, func()) {
	ch := make(chan StateSnapshot, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := s.snapshotLocked()
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// apply runs a mutation under the lock, writes both snapshots through to the
// store, and broadcasts the resulting state. Persistence failures are logged
// and tolerated; the store heals on next restore.
func (s *HostService) apply(ctx context.Context, mutate func()) StateSnapshot {
	s.mu.Lock()
	mutate()
	if err := s.store.SaveProgression(ctx, s.progression.Snapshot()); err != nil {
		log.Printf("save progression: %v", err)
	}
	if err := s.store.SaveScores(ctx, s.ledger.Snapshot()); err != nil {
		log.Printf("save scores: %v", err)
	}
	snap := s.snapshotLocked()
	s.broadcastLocked(snap)
	s.mu.Unlock()
	return snap
}

func (s *HostService) snapshotLocked() StateSnapshot {
	snap := StateSnapshot{
		Progression:     s.progression.Snapshot(),
		CategoryCount:   len(s.progression.Set.Categories),
		TotalQuestions:  s.progression.TotalQuestions(),
		QuestionOrdinal: s.progression.QuestionOrdinal(),
		Teams:           s.ledger.Teams(),
		Leaderboard:     s.ledger.Leaderboard(),
	}

	if len(s.progression.Set.Categories) > 0 {
		category := s.progression.CurrentCategory()
		question := s.progression.CurrentQuestion()
		snap.CurrentCategory = &category
		snap.CurrentQuestion = &question
		snap.QuestionAwards = s.ledger.QuestionAwards(question.ID)
	}

	if s.progression.Status == domain.StatusFinished {
		snap.Winners = winners(snap.Leaderboard)
	}
	return snap
}

// winners returns the leading entries; ties share the win.
func winners(leaderboard []domain.LeaderboardEntry) []domain.LeaderboardEntry {
	if len(leaderboard) == 0 {
		return nil
	}
	top := leaderboard[0].Score
	var leading []domain.LeaderboardEntry
	for _, entry := range leaderboard {
		if entry.Score != top {
			break
		}
		leading = append(leading, entry)
	}
	return leading
}

func (s *HostService) broadcastLocked(snap StateSnapshot) {
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// Slow subscribers lose the oldest update instead of blocking.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}
