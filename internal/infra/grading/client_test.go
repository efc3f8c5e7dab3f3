package grading

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mathstory-attempt-service/internal/domain"
)

func TestGradeSendsSubmissionAndKeepsRawResponse(t *testing.T) {
	response := `{"id":"result-1","quiz_id":"quiz-1","score":50,"total_questions":2,"correct_answers":1,"points_earned":15,"answers_detail":[{"question_id":"q1","is_correct":true}]}`

	var received domain.Submission
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/quiz/submit" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode submission: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(response))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	result, err := client.Grade(context.Background(), domain.Submission{
		QuizID: "quiz-1",
		Answers: []domain.AnswerRecord{
			{QuestionID: "q1", UserAnswer: "A", TimeTakenSeconds: 3},
			{QuestionID: "q2", UserAnswer: "42", TimeTakenSeconds: 1.5},
		},
	})
	if err != nil {
		t.Fatalf("grade: %v", err)
	}

	if received.QuizID != "quiz-1" || len(received.Answers) != 2 {
		t.Fatalf("grader received wrong submission: %+v", received)
	}
	if received.Answers[0].IsCorrect {
		t.Fatalf("is_correct placeholder must be false on the wire")
	}
	if result.ID != "result-1" || result.Score != 50 {
		t.Fatalf("unexpected decoded result %+v", result)
	}
	if string(result.Raw) != response {
		t.Fatalf("raw response must be preserved byte for byte")
	}
}

func TestGradeSurfacesServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	if _, err := client.Grade(context.Background(), domain.Submission{QuizID: "quiz-1"}); err == nil {
		t.Fatalf("expected error on 500")
	}
}
