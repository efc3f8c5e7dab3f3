package app

import (
	"strings"
	"sync"
	"time"

	"mathstory-attempt-service/internal/domain"
)

// Status is the lifecycle state of one quiz attempt.
type Status string

const (
	StatusAnswering  Status = "answering"
	StatusSubmitting Status = "submitting"
	StatusTerminated Status = "terminated"
)

// Attempt holds the progression of one quiz attempt from first question to
// final submission. Answers are append-only and the question index only moves
// forward; while answering, the index always points at the next unanswered
// question, so currentIndex == len(answers).
type Attempt struct {
	mu sync.Mutex

	key      string
	material domain.QuizMaterial

	status            Status
	currentIndex      int
	answers           []domain.AnswerRecord
	sessionStartedAt  time.Time
	questionStartedAt time.Time
	hintRevealed      bool

	now func() time.Time
}

// NewAttempt creates an attempt positioned at the first question.
func NewAttempt(key string, material domain.QuizMaterial) (*Attempt, error) {
	return NewAttemptWithClock(key, material, time.Now)
}

// NewAttemptWithClock is test-only for deterministic timestamps.
func NewAttemptWithClock(key string, material domain.QuizMaterial, now func() time.Time) (*Attempt, error) {
	if err := material.Validate(); err != nil {
		return nil, err
	}
	start := now()
	return &Attempt{
		key:               key,
		material:          material,
		status:            StatusAnswering,
		answers:           make([]domain.AnswerRecord, 0, len(material.Questions)),
		sessionStartedAt:  start,
		questionStartedAt: start,
		now:               now,
	}, nil
}

// RecordAnswer accepts the user's input for the current question. It returns
// done=true when the final question was just answered and the attempt moved to
// StatusSubmitting. Empty input (after trimming) is rejected with no state
// change.
func (a *Attempt) RecordAnswer(raw string) (done bool, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.status != StatusAnswering || len(a.answers) == len(a.material.Questions) {
		return false, domain.ErrAttemptClosed
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return false, domain.ErrEmptyAnswer
	}

	now := a.now()
	question := a.material.Questions[a.currentIndex]
	a.answers = append(a.answers, domain.AnswerRecord{
		QuestionID:       question.ID,
		UserAnswer:       trimmed,
		TimeTakenSeconds: now.Sub(a.questionStartedAt).Seconds(),
		IsCorrect:        false, // wire placeholder, grader decides
	})
	a.hintRevealed = false

	if len(a.answers) == len(a.material.Questions) {
		a.status = StatusSubmitting
		return true, nil
	}
	a.currentIndex++
	a.questionStartedAt = now
	return false, nil
}

// RevealHint marks the current question's hint as shown and returns it. The
// flag is transient and cleared as soon as the question is answered.
func (a *Attempt) RevealHint() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.status != StatusAnswering || len(a.answers) == len(a.material.Questions) {
		return "", domain.ErrAttemptClosed
	}
	a.hintRevealed = true
	return a.material.Questions[a.currentIndex].Hint, nil
}

// BeginSubmit transitions a fully answered attempt back into StatusSubmitting
// for a manual retry after a failed submission.
func (a *Attempt) BeginSubmit() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.status == StatusTerminated {
		return domain.ErrAttemptClosed
	}
	if len(a.answers) != len(a.material.Questions) {
		return domain.ErrNotSubmittable
	}
	a.status = StatusSubmitting
	return nil
}

// SubmissionPayload builds the outbound answer set. Repeated calls yield an
// identical payload, so a retried submission sends exactly the same data.
func (a *Attempt) SubmissionPayload() domain.Submission {
	a.mu.Lock()
	defer a.mu.Unlock()
	answers := make([]domain.AnswerRecord, len(a.answers))
	copy(answers, a.answers)
	return domain.Submission{QuizID: a.material.ID, Answers: answers}
}

// MarkSubmitted closes the attempt after the grader accepted the submission.
func (a *Attempt) MarkSubmitted() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status = StatusTerminated
}

// MarkSubmitFailed reverts a failed submission to the resumable
// "all answered, not yet submitted" state. Answers are left untouched.
func (a *Attempt) MarkSubmitFailed() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.status == StatusSubmitting {
		a.status = StatusAnswering
	}
}

// Status returns the current lifecycle state.
func (a *Attempt) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// CurrentQuestion returns the question awaiting an answer, if any.
func (a *Attempt) CurrentQuestion() (domain.Question, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.status != StatusAnswering || len(a.answers) == len(a.material.Questions) {
		return domain.Question{}, false
	}
	return a.material.Questions[a.currentIndex], true
}

// AttemptView is a read-only projection of attempt state for transports and
// views. Question is the current question, nil once all are answered.
type AttemptView struct {
	Key            string           `json:"attempt_id"`
	QuizID         string           `json:"quiz_id"`
	StartedAt      time.Time        `json:"started_at"`
	Subject        string           `json:"subject"`
	Topic          string           `json:"topic"`
	Status         Status           `json:"status"`
	CurrentIndex   int              `json:"current_index"`
	Answered       int              `json:"answered"`
	TotalQuestions int              `json:"total_questions"`
	Question       *domain.Question `json:"question,omitempty"`
	HintRevealed   bool             `json:"hint_revealed,omitempty"`
}

// View snapshots the attempt for rendering.
func (a *Attempt) View() AttemptView {
	a.mu.Lock()
	defer a.mu.Unlock()

	view := AttemptView{
		Key:            a.key,
		QuizID:         a.material.ID,
		StartedAt:      a.sessionStartedAt,
		Subject:        a.material.Subject,
		Topic:          a.material.Topic,
		Status:         a.status,
		CurrentIndex:   a.currentIndex,
		Answered:       len(a.answers),
		TotalQuestions: len(a.material.Questions),
		HintRevealed:   a.hintRevealed,
	}
	if a.status == StatusAnswering && len(a.answers) < len(a.material.Questions) {
		question := a.material.Questions[a.currentIndex]
		view.Question = &question
	}
	return view
}
