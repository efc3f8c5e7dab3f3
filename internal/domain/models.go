package domain

import "strings"

// QuestionKind tags the two question shapes the upstream generator produces.
type QuestionKind string

const (
	KindMultipleChoice QuestionKind = "mcq"
	KindOpenAnswer     QuestionKind = "alphanumeric"
)

// Question is one quiz question as staged by the generation flow. Hint and
// StoryContext are pass-through fields; the attempt flow never interprets them.
type Question struct {
	ID           string       `json:"id"`
	Kind         QuestionKind `json:"type"`
	Prompt       string       `json:"question"`
	Options      []string     `json:"options,omitempty"`
	Hint         string       `json:"hint,omitempty"`
	StoryContext string       `json:"story_context,omitempty"`
}

// IsMultipleChoice reports whether the question carries selectable options.
func (q Question) IsMultipleChoice() bool {
	return q.Kind == KindMultipleChoice
}

// OptionLabels returns the selectable value for each option, i.e. the leading
// label letter of entries like "A. Paris". Nil for open-answer questions.
func (q Question) OptionLabels() []string {
	if !q.IsMultipleChoice() {
		return nil
	}
	labels := make([]string, 0, len(q.Options))
	for _, opt := range q.Options {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			continue
		}
		labels = append(labels, opt[:1])
	}
	return labels
}

// QuizMaterial is the ordered question list plus metadata for one attempt,
// produced upstream and handed off to the attempt flow.
type QuizMaterial struct {
	ID         string     `json:"id"`
	Subject    string     `json:"subject"`
	Topic      string     `json:"topic"`
	Subtopic   string     `json:"subtopic,omitempty"`
	Difficulty string     `json:"difficulty,omitempty"`
	Mode       string     `json:"mode,omitempty"`
	StoryMode  bool       `json:"story_mode,omitempty"`
	Questions  []Question `json:"questions"`
}

// Validate checks the minimum the attempt flow requires: an id and a non-empty
// question list. Question content itself is trusted as supplied.
func (m QuizMaterial) Validate() error {
	if m.ID == "" || len(m.Questions) == 0 {
		return ErrMalformedQuiz
	}
	return nil
}

// AnswerRecord is one user response plus timing metadata, as sent to the
// grading collaborator. IsCorrect is a wire placeholder the grader ignores and
// overwrites; it is always false here and must never be read back as truth.
type AnswerRecord struct {
	QuestionID       string  `json:"question_id"`
	UserAnswer       string  `json:"user_answer"`
	TimeTakenSeconds float64 `json:"time_taken"`
	IsCorrect        bool    `json:"is_correct"`
}

// Submission is the full answer set for one attempt, accepted atomically by
// the grader or not at all.
type Submission struct {
	QuizID  string         `json:"quiz_id"`
	Answers []AnswerRecord `json:"answers"`
}

// GradedResult is the grader's response. Raw holds the exact response bytes;
// the named fields are a convenience decode and carry no local authority.
type GradedResult struct {
	ID             string  `json:"id"`
	QuizID         string  `json:"quiz_id"`
	Score          float64 `json:"score"`
	TotalQuestions int     `json:"total_questions"`
	CorrectAnswers int     `json:"correct_answers"`
	PointsEarned   int     `json:"points_earned"`

	Raw []byte `json:"-"`
}
