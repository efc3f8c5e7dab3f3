package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"mathstory-attempt-service/internal/domain"
)

// MaterialLoader fetches quiz material from a backing store (e.g., document DB).
type MaterialLoader interface {
	LoadMaterial(ctx context.Context, quizID string) (domain.QuizMaterial, error)
}

// MaterialRepository caches the full quiz material document in Redis and falls
// back to a loader on cache miss. The attempt flow needs prompts and options,
// so the whole document is cached rather than an answers-only form.
// Stored as: SET quiz:{quizID}:material {json}
type MaterialRepository struct {
	client *redis.Client
	loader MaterialLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewMaterialRepository(client *redis.Client, loader MaterialLoader, ttl time.Duration) *MaterialRepository {
	return &MaterialRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *MaterialRepository) GetMaterial(ctx context.Context, quizID string) (domain.QuizMaterial, error) {
	key := r.materialKey(quizID)

	if material, ok := r.getCached(ctx, key); ok {
		return material, nil
	}

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if material, ok := r.getCached(ctx, key); ok {
			return material, nil
		}

		material, err := r.loader.LoadMaterial(ctx, quizID)
		if err != nil {
			return domain.QuizMaterial{}, err
		}

		data, err := json.Marshal(material)
		if err != nil {
			return domain.QuizMaterial{}, fmt.Errorf("marshal material: %w", err)
		}
		_ = r.client.Set(ctx, key, data, r.ttlWithJitter()).Err()

		return material, nil
	})
	if err != nil {
		return domain.QuizMaterial{}, err
	}
	return result.(domain.QuizMaterial), nil
}

func (r *MaterialRepository) getCached(ctx context.Context, key string) (domain.QuizMaterial, bool) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		// redis.Nil and transient errors are both a miss; the loader still serves
		return domain.QuizMaterial{}, false
	}
	var material domain.QuizMaterial
	if err := json.Unmarshal(data, &material); err != nil {
		return domain.QuizMaterial{}, false
	}
	return material, true
}

func (r *MaterialRepository) materialKey(quizID string) string {
	return "quiz:" + quizID + ":material"
}

func (r *MaterialRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
