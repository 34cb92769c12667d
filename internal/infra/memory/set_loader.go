package memory

import (
	"context"

	"github.com/RobertYoung/quizmaster/internal/domain"
)

// SetLoader fetches question set content from a backing store (files,
// Postgres, or a built-in registry). Order is the registration order and
// decides the default set.
type SetLoader interface {
	LoadSets(ctx context.Context) ([]domain.QuestionSet, error)
}

// StaticSetLoader serves a fixed, pre-validated list of question sets
// (useful for the built-in sample content and for tests).
type StaticSetLoader struct {
	sets []domain.QuestionSet
}

func NewStaticSetLoader(sets []domain.QuestionSet) *StaticSetLoader {
	return &StaticSetLoader{sets: sets}
}

func (l *StaticSetLoader) LoadSets(_ context.Context) ([]domain.QuestionSet, error) {
	if err := domain.ValidateSets(l.sets); err != nil {
		return nil, err
	}
	sets := make([]domain.QuestionSet, len(l.sets))
	copy(sets, l.sets)
	return sets, nil
}
