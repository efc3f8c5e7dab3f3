package memory

import (
	"context"
	"testing"
	"time"

	"mathstory-attempt-service/internal/domain"
)

func TestMaterialRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		MaterialLoader: NewStaticMaterialLoader(map[string]domain.QuizMaterial{
			"quiz-1": sampleMaterial(),
		}),
	}
	repo := NewMaterialRepository(loader, time.Minute)

	if _, err := repo.GetMaterial(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get material: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.GetMaterial(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get material 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestStaticLoaderMiss(t *testing.T) {
	loader := NewStaticMaterialLoader(nil)
	if _, err := loader.LoadMaterial(context.Background(), "nope"); err != domain.ErrQuizNotFound {
		t.Fatalf("expected quiz not found, got %v", err)
	}
}

type countingLoader struct {
	MaterialLoader
	calls int
}

func (l *countingLoader) LoadMaterial(ctx context.Context, quizID string) (domain.QuizMaterial, error) {
	l.calls++
	return l.MaterialLoader.LoadMaterial(ctx, quizID)
}

func sampleMaterial() domain.QuizMaterial {
	return domain.QuizMaterial{
		ID:      "quiz-1",
		Subject: "Maths",
		Topic:   "Arithmetic",
		Questions: []domain.Question{
			{
				ID:      "q1",
				Kind:    domain.KindMultipleChoice,
				Prompt:  "What is 2 + 2?",
				Options: []string{"A. 3", "B. 4"},
			},
		},
	}
}
