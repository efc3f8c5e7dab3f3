package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"mathstory-attempt-service/internal/domain"
)

// MaterialLoader fetches quiz material from a backing store (e.g., document DB).
type MaterialLoader interface {
	LoadMaterial(ctx context.Context, quizID string) (domain.QuizMaterial, error)
}

// MaterialRepository caches quiz material with TTL to avoid repeated DB hits.
type MaterialRepository struct {
	loader MaterialLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedMaterial
}

type cachedMaterial struct {
	material  domain.QuizMaterial
	expiresAt time.Time
}

func NewMaterialRepository(loader MaterialLoader, ttl time.Duration) *MaterialRepository {
	return &MaterialRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedMaterial),
	}
}

func (r *MaterialRepository) GetMaterial(ctx context.Context, quizID string) (domain.QuizMaterial, error) {
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[quizID]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.material, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[quizID]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.material, nil
		}
		r.mu.RUnlock()

		material, err := r.loader.LoadMaterial(ctx, quizID)
		if err != nil {
			return domain.QuizMaterial{}, err
		}

		r.mu.Lock()
		r.cache[quizID] = cachedMaterial{
			material:  material,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return material, nil
	})
	if err != nil {
		return domain.QuizMaterial{}, err
	}
	return result.(domain.QuizMaterial), nil
}

// StaticMaterialLoader is a simple loader backed by an in-memory map (useful for tests/demos).
type StaticMaterialLoader struct {
	materials map[string]domain.QuizMaterial
}

func NewStaticMaterialLoader(materials map[string]domain.QuizMaterial) *StaticMaterialLoader {
	return &StaticMaterialLoader{materials: materials}
}

func (l *StaticMaterialLoader) LoadMaterial(_ context.Context, quizID string) (domain.QuizMaterial, error) {
	if material, ok := l.materials[quizID]; ok {
		return material, nil
	}
	return domain.QuizMaterial{}, domain.ErrQuizNotFound
}

func (r *MaterialRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
