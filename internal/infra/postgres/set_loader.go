package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/RobertYoung/quizmaster/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// SetLoader loads question set JSONB from Postgres, ordered by position so
// the first row is the default set.
type SetLoader struct {
	pool *pgxpool.Pool
}

func NewSetLoader(pool *pgxpool.Pool) *SetLoader {
	return &SetLoader{pool: pool}
}

func (l *SetLoader) LoadSets(ctx context.Context) ([]domain.QuestionSet, error) {
	rows, err := l.pool.Query(ctx, `SELECT data FROM question_sets ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("load question sets: %w", err)
	}
	defer rows.Close()

	var sets []domain.QuestionSet
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan question set: %w", err)
		}
		var set domain.QuestionSet
		if err := json.Unmarshal(raw, &set); err != nil {
			return nil, fmt.Errorf("unmarshal question set: %w", err)
		}
		sets = append(sets, set)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load question sets: %w", err)
	}

	if err := domain.ValidateSets(sets); err != nil {
		return nil, fmt.Errorf("invalid question set content: %w", err)
	}
	return sets, nil
}
