package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mathstory-attempt-service/internal/domain"
)

// AttemptRepository abstracts how live attempts are stored (in-memory, Redis-marked, etc).
type AttemptRepository interface {
	Put(key string, attempt *Attempt)
	Get(key string) (*Attempt, bool)
	Delete(key string)
}

// MaterialRepository loads quiz material (from cache/backing store).
type MaterialRepository interface {
	GetMaterial(ctx context.Context, quizID string) (domain.QuizMaterial, error)
}

// HandoffStore holds the session-scoped handoff slots: the staged quiz
// material for an attempt, and the graded result for the results view. The
// result slot is read-once.
type HandoffStore interface {
	PutMaterial(ctx context.Context, key string, material domain.QuizMaterial) error
	Material(ctx context.Context, key string) (domain.QuizMaterial, bool, error)
	ClearMaterial(ctx context.Context, key string) error
	PutResult(ctx context.Context, key string, raw []byte) error
	TakeResult(ctx context.Context, key string) ([]byte, bool, error)
}

// Grader is the remote collaborator that authoritatively grades a submission.
type Grader interface {
	Grade(ctx context.Context, submission domain.Submission) (domain.GradedResult, error)
}

// AttemptService contains the attempt use cases: staging material, driving an
// attempt's question progression, and performing the terminal submission.
type AttemptService struct {
	attempts  AttemptRepository
	materials MaterialRepository
	handoff   HandoffStore
	grader    Grader
	clock     func() time.Time
}

func NewAttemptService(attempts AttemptRepository, materials MaterialRepository, handoff HandoffStore, grader Grader) *AttemptService {
	return NewAttemptServiceWithClock(attempts, materials, handoff, grader, time.Now)
}

// NewAttemptServiceWithClock is test-only for deterministic timestamps.
func NewAttemptServiceWithClock(attempts AttemptRepository, materials MaterialRepository, handoff HandoffStore, grader Grader, now func() time.Time) *AttemptService {
	return &AttemptService{
		attempts:  attempts,
		materials: materials,
		handoff:   handoff,
		grader:    grader,
		clock:     now,
	}
}

// Stage loads quiz material and writes it into the material handoff slot,
// returning the attempt key. An empty key mints a fresh one. This is the
// generation flow's side of the handoff; no attempt exists yet afterwards.
func (s *AttemptService) Stage(ctx context.Context, key, quizID string) (string, error) {
	material, err := s.materials.GetMaterial(ctx, quizID)
	if err != nil {
		return "", err
	}
	if err := material.Validate(); err != nil {
		return "", err
	}
	if key == "" {
		key = uuid.NewString()
	}
	if err := s.handoff.PutMaterial(ctx, key, material); err != nil {
		return "", fmt.Errorf("stage material: %w", err)
	}
	return key, nil
}

// Begin consumes the staged material for key and starts the attempt at the
// first question. A still-live attempt for the same key is resumed instead,
// since only one attempt can own the handoff slot at a time. Missing or
// malformed material creates no attempt and redirects the caller away.
func (s *AttemptService) Begin(ctx context.Context, key string) (AttemptView, error) {
	if attempt, ok := s.attempts.Get(key); ok {
		return attempt.View(), nil
	}

	material, ok, err := s.handoff.Material(ctx, key)
	if err != nil {
		return AttemptView{}, fmt.Errorf("read staged material: %w", err)
	}
	if !ok {
		return AttemptView{}, domain.ErrNoMaterial
	}

	attempt, err := NewAttemptWithClock(key, material, s.clock)
	if err != nil {
		// Malformed material can never start an attempt; drop the slot.
		_ = s.handoff.ClearMaterial(ctx, key)
		return AttemptView{}, err
	}
	s.attempts.Put(key, attempt)
	return attempt.View(), nil
}

// AnswerOutcome reports the state after an answer (or retry) was processed.
// Result is only meaningful when Submitted is true.
type AnswerOutcome struct {
	View      AttemptView
	Submitted bool
	Result    domain.GradedResult
}

// Answer records the user's input for the current question. Answering the
// final question triggers exactly one submission to the grader; on grader
// failure the attempt stays resumable and the error is returned for the
// caller to surface as a notice (retry is manual, never automatic).
func (s *AttemptService) Answer(ctx context.Context, key, raw string) (AnswerOutcome, error) {
	attempt, ok := s.attempts.Get(key)
	if !ok {
		return AnswerOutcome{}, domain.ErrAttemptNotFound
	}
	done, err := attempt.RecordAnswer(raw)
	if err != nil {
		return AnswerOutcome{View: attempt.View()}, err
	}
	if !done {
		return AnswerOutcome{View: attempt.View()}, nil
	}
	return s.submit(ctx, key, attempt)
}

// Resubmit retries a submission that previously failed. The payload sent is
// identical to the failed one.
func (s *AttemptService) Resubmit(ctx context.Context, key string) (AnswerOutcome, error) {
	attempt, ok := s.attempts.Get(key)
	if !ok {
		return AnswerOutcome{}, domain.ErrAttemptNotFound
	}
	if err := attempt.BeginSubmit(); err != nil {
		return AnswerOutcome{View: attempt.View()}, err
	}
	return s.submit(ctx, key, attempt)
}

func (s *AttemptService) submit(ctx context.Context, key string, attempt *Attempt) (AnswerOutcome, error) {
	result, err := s.grader.Grade(ctx, attempt.SubmissionPayload())
	if err != nil {
		attempt.MarkSubmitFailed()
		return AnswerOutcome{View: attempt.View()}, fmt.Errorf("submit quiz: %w", err)
	}
	if err := s.handoff.PutResult(ctx, key, result.Raw); err != nil {
		attempt.MarkSubmitFailed()
		return AnswerOutcome{View: attempt.View()}, fmt.Errorf("store result: %w", err)
	}
	_ = s.handoff.ClearMaterial(ctx, key)
	attempt.MarkSubmitted()
	s.attempts.Delete(key)
	return AnswerOutcome{View: attempt.View(), Submitted: true, Result: result}, nil
}

// RevealHint exposes the current question's hint (practice mode).
func (s *AttemptService) RevealHint(ctx context.Context, key string) (string, error) {
	attempt, ok := s.attempts.Get(key)
	if !ok {
		return "", domain.ErrAttemptNotFound
	}
	return attempt.RevealHint()
}

// Progress returns a read-only snapshot for views.
func (s *AttemptService) Progress(ctx context.Context, key string) (AttemptView, error) {
	attempt, ok := s.attempts.Get(key)
	if !ok {
		return AttemptView{}, domain.ErrAttemptNotFound
	}
	return attempt.View(), nil
}

// TakeResult hands the stored grader response to the results view and clears
// the slot; a second call reports no result.
func (s *AttemptService) TakeResult(ctx context.Context, key string) ([]byte, error) {
	raw, ok, err := s.handoff.TakeResult(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read result: %w", err)
	}
	if !ok {
		return nil, domain.ErrNoResult
	}
	return raw, nil
}
