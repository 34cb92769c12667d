package memory

import (
	"context"
	"testing"

	"github.com/RobertYoung/quizmaster/internal/domain"
)

func TestSnapshotStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewSnapshotStore()

	if _, ok, err := store.LoadProgression(ctx); err != nil || ok {
		t.Fatalf("expected empty store, ok=%v err=%v", ok, err)
	}

	prog := domain.ProgressionSnapshot{Status: domain.StatusPlaying, QuestionSetID: "set-1", CurrentQuestionIndex: 2}
	if err := store.SaveProgression(ctx, prog); err != nil {
		t.Fatalf("save progression: %v", err)
	}
	if err := store.SaveScores(ctx, domain.ScoreSnapshot{Teams: []domain.Team{{ID: "t1", Name: "Alpha"}}}); err != nil {
		t.Fatalf("save scores: %v", err)
	}

	loaded, ok, err := store.LoadProgression(ctx)
	if err != nil || !ok || loaded != prog {
		t.Fatalf("expected progression round-trip, got %+v ok=%v err=%v", loaded, ok, err)
	}
	scores, ok, err := store.LoadScores(ctx)
	if err != nil || !ok || len(scores.Teams) != 1 {
		t.Fatalf("expected scores round-trip, got %+v ok=%v err=%v", scores, ok, err)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := store.LoadProgression(ctx); ok {
		t.Fatalf("expected progression cleared")
	}
	if _, ok, _ := store.LoadScores(ctx); ok {
		t.Fatalf("expected scores cleared")
	}
}
