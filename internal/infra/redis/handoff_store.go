package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"mathstory-attempt-service/internal/domain"
)

// HandoffStore keeps the material/result handoff slots in Redis so an attempt
// survives a process restart within the session TTL.
// Keys: attempt:{key}:material and attempt:{key}:result, JSON values.
type HandoffStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewHandoffStore(client *redis.Client, ttl time.Duration) *HandoffStore {
	return &HandoffStore{client: client, ttl: ttl}
}

func (s *HandoffStore) PutMaterial(ctx context.Context, key string, material domain.QuizMaterial) error {
	data, err := json.Marshal(material)
	if err != nil {
		return fmt.Errorf("marshal material: %w", err)
	}
	return s.client.Set(ctx, s.materialKey(key), data, s.ttl).Err()
}

func (s *HandoffStore) Material(ctx context.Context, key string) (domain.QuizMaterial, bool, error) {
	data, err := s.client.Get(ctx, s.materialKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.QuizMaterial{}, false, nil
	}
	if err != nil {
		return domain.QuizMaterial{}, false, err
	}
	var material domain.QuizMaterial
	if err := json.Unmarshal(data, &material); err != nil {
		return domain.QuizMaterial{}, false, fmt.Errorf("unmarshal material: %w", err)
	}
	return material, true, nil
}

func (s *HandoffStore) ClearMaterial(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.materialKey(key)).Err()
}

func (s *HandoffStore) PutResult(ctx context.Context, key string, raw []byte) error {
	return s.client.Set(ctx, s.resultKey(key), raw, s.ttl).Err()
}

// TakeResult reads and atomically clears the result slot.
func (s *HandoffStore) TakeResult(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.GetDel(ctx, s.resultKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s *HandoffStore) materialKey(key string) string {
	return "attempt:" + key + ":material"
}

func (s *HandoffStore) resultKey(key string) string {
	return "attempt:" + key + ":result"
}
