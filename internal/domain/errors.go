package domain

import "errors"

var (
	// ErrMalformedQuiz indicates staged quiz material is missing required parts.
	ErrMalformedQuiz = errors.New("quiz material is malformed")
	// ErrEmptyAnswer is returned when a submitted answer trims to nothing.
	ErrEmptyAnswer = errors.New("answer must not be empty")
	// ErrNoMaterial indicates the material handoff slot is empty.
	ErrNoMaterial = errors.New("no quiz material staged")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrAttemptNotFound is returned when no live attempt exists for a key.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrAttemptClosed is returned when answering after submission began.
	ErrAttemptClosed = errors.New("attempt is no longer accepting answers")
	// ErrNotSubmittable is returned when resubmitting with questions unanswered.
	ErrNotSubmittable = errors.New("attempt has unanswered questions")
	// ErrNoResult indicates the result handoff slot is empty or already consumed.
	ErrNoResult = errors.New("no quiz result available")
)
