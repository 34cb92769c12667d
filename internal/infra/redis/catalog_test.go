package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/RobertYoung/quizmaster/internal/domain"
	"github.com/RobertYoung/quizmaster/internal/infra/memory"
)

func sampleSet() domain.QuestionSet {
	return domain.QuestionSet{
		ID:   "set-1",
		Name: "Set One",
		Icon: "🎲",
		Categories: []domain.Category{
			{
				ID:            "cat-1",
				Name:          "Category One",
				Icon:          "🧠",
				Color:         "#3b82f6",
				QuestionCount: 1,
				Questions: []domain.Question{
					{ID: "q1", CategoryID: "cat-1", QuestionNumber: 1, Type: domain.QuestionTypeText, QuestionText: "?", Answer: "!", Points: 10},
				},
			},
		},
	}
}

type countingLoader struct {
	memory.SetLoader
	calls int
}

func (l *countingLoader) LoadSets(ctx context.Context) ([]domain.QuestionSet, error) {
	l.calls++
	return l.SetLoader.LoadSets(ctx)
}

func TestSetCatalogCachesInRedis(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestClient(t)

	loader := &countingLoader{SetLoader: memory.NewStaticSetLoader([]domain.QuestionSet{sampleSet()})}
	catalog := NewSetCatalog(client, loader, time.Minute)

	if _, err := catalog.GetSet(ctx, "set-1"); err != nil {
		t.Fatalf("get set: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("quizmaster:sets") {
		t.Fatalf("expected catalog cached in redis")
	}

	// Second lookup should hit the redis cache.
	if _, err := catalog.ListSets(ctx); err != nil {
		t.Fatalf("list sets: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
}

func TestSetCatalogUnknownID(t *testing.T) {
	ctx := context.Background()
	_, client := newTestClient(t)
	catalog := NewSetCatalog(client, memory.NewStaticSetLoader([]domain.QuestionSet{sampleSet()}), time.Minute)

	if _, err := catalog.GetSet(ctx, "nope"); !errors.Is(err, domain.ErrSetNotFound) {
		t.Fatalf("expected ErrSetNotFound, got %v", err)
	}

	def, err := catalog.DefaultSet(ctx)
	if err != nil || def.ID != "set-1" {
		t.Fatalf("expected default set-1, got %v %v", def.ID, err)
	}
}

func TestSetCatalogRecoversFromCorruptCache(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestClient(t)
	loader := &countingLoader{SetLoader: memory.NewStaticSetLoader([]domain.QuestionSet{sampleSet()})}
	catalog := NewSetCatalog(client, loader, time.Minute)

	if err := mr.Set("quizmaster:sets", "[{corrupt"); err != nil {
		t.Fatalf("seed corrupt cache: %v", err)
	}

	set, err := catalog.GetSet(ctx, "set-1")
	if err != nil || set.ID != "set-1" {
		t.Fatalf("expected reload from source, got %v %v", set.ID, err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected one loader call after corrupt cache, got %d", loader.calls)
	}
}
