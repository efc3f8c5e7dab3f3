package memory

import (
	"context"
	"testing"

	"mathstory-attempt-service/internal/domain"
)

func TestHandoffSlotLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewHandoffStore()

	if _, ok, _ := store.Material(ctx, "a1"); ok {
		t.Fatalf("expected empty material slot")
	}

	material := domain.QuizMaterial{ID: "quiz-1", Questions: []domain.Question{{ID: "q1", Prompt: "?"}}}
	if err := store.PutMaterial(ctx, "a1", material); err != nil {
		t.Fatalf("put material: %v", err)
	}
	got, ok, err := store.Material(ctx, "a1")
	if err != nil || !ok {
		t.Fatalf("material: ok=%v err=%v", ok, err)
	}
	if got.ID != "quiz-1" {
		t.Fatalf("unexpected material %+v", got)
	}

	if err := store.ClearMaterial(ctx, "a1"); err != nil {
		t.Fatalf("clear material: %v", err)
	}
	if _, ok, _ := store.Material(ctx, "a1"); ok {
		t.Fatalf("expected cleared material slot")
	}
}

func TestResultSlotIsReadOnce(t *testing.T) {
	ctx := context.Background()
	store := NewHandoffStore()

	raw := []byte(`{"id":"result-1","score":80}`)
	if err := store.PutResult(ctx, "a1", raw); err != nil {
		t.Fatalf("put result: %v", err)
	}

	got, ok, err := store.TakeResult(ctx, "a1")
	if err != nil || !ok {
		t.Fatalf("take result: ok=%v err=%v", ok, err)
	}
	if string(got) != string(raw) {
		t.Fatalf("result bytes changed: %s", got)
	}

	if _, ok, _ := store.TakeResult(ctx, "a1"); ok {
		t.Fatalf("result slot must be empty after first read")
	}
}
