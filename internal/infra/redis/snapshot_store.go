package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/RobertYoung/quizmaster/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	progressionKey = "quizmaster:progression"
	scoresKey      = "quizmaster:scores"
)

// SnapshotStore persists the two session records as independent JSON values
// in Redis. A zero TTL keeps them until explicitly cleared, matching the
// survive-any-reload contract of the host session.
type SnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSnapshotStore(client *redis.Client, ttl time.Duration) *SnapshotStore {
	return &SnapshotStore{client: client, ttl: ttl}
}

func (s *SnapshotStore) SaveProgression(ctx context.Context, snap domain.ProgressionSnapshot) error {
	return s.save(ctx, progressionKey, snap)
}

func (s *SnapshotStore) SaveScores(ctx context.Context, snap domain.ScoreSnapshot) error {
	return s.save(ctx, scoresKey, snap)
}

func (s *SnapshotStore) save(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, s.ttl).Err()
}

// LoadProgression reads the progression record. Corrupt payloads are
// discarded and reported as absent, never as an error.
func (s *SnapshotStore) LoadProgression(ctx context.Context) (domain.ProgressionSnapshot, bool, error) {
	var snap domain.ProgressionSnapshot
	ok, err := s.load(ctx, progressionKey, &snap)
	return snap, ok, err
}

func (s *SnapshotStore) LoadScores(ctx context.Context) (domain.ScoreSnapshot, bool, error) {
	var snap domain.ScoreSnapshot
	ok, err := s.load(ctx, scoresKey, &snap)
	return snap, ok, err
}

func (s *SnapshotStore) load(ctx context.Context, key string, into any) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, into); err != nil {
		log.Printf("discarding corrupt snapshot %s: %v", key, err)
		_ = s.client.Del(ctx, key).Err()
		return false, nil
	}
	return true, nil
}

func (s *SnapshotStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, progressionKey, scoresKey).Err()
}
