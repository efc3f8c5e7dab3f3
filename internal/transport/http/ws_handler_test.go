package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"mathstory-attempt-service/internal/app"
	"mathstory-attempt-service/internal/domain"
	"mathstory-attempt-service/internal/infra/memory"
)

func TestWebSocketAttemptFlow(t *testing.T) {
	grader := &stubGrader{}
	service := newTestService(grader)
	server := newTestServer(service)
	defer server.Close()

	key, err := service.Stage(context.Background(), "", "quiz-1")
	if err != nil {
		t.Fatalf("stage: %v", err)
	}

	conn := dialWS(t, server, key)
	defer conn.Close()

	// First question arrives on connect.
	payload := readNext(conn, t, "question")
	if payload["current_index"].(float64) != 0 {
		t.Fatalf("expected question 0, got %v", payload["current_index"])
	}

	// Empty answer is rejected without advancing.
	sendMessage(t, conn, "answer", map[string]any{"answer": "   "})
	readNext(conn, t, "error")

	sendMessage(t, conn, "answer", map[string]any{"answer": "A"})
	payload = readNext(conn, t, "question")
	if payload["current_index"].(float64) != 1 {
		t.Fatalf("expected question 1, got %v", payload["current_index"])
	}

	// Final answer triggers the submission.
	sendMessage(t, conn, "answer", map[string]any{"answer": "42"})
	payload = readNext(conn, t, "submitted")
	if payload["resultId"] != "result-1" {
		t.Fatalf("expected result id, got %v", payload["resultId"])
	}
	if grader.calls != 1 {
		t.Fatalf("expected one grader call, got %d", grader.calls)
	}
}

func TestWebSocketSubmitFailureIsRetryable(t *testing.T) {
	grader := &stubGrader{failures: 1}
	service := newTestService(grader)
	server := newTestServer(service)
	defer server.Close()

	key, _ := service.Stage(context.Background(), "", "quiz-1")
	conn := dialWS(t, server, key)
	defer conn.Close()

	readNext(conn, t, "question")
	sendMessage(t, conn, "answer", map[string]any{"answer": "A"})
	readNext(conn, t, "question")

	sendMessage(t, conn, "answer", map[string]any{"answer": "42"})
	payload := readNext(conn, t, "error")
	if payload["retryable"] != true {
		t.Fatalf("expected retryable failure notice, got %v", payload)
	}

	sendMessage(t, conn, "resubmit", map[string]any{})
	readNext(conn, t, "submitted")
	if grader.calls != 2 {
		t.Fatalf("expected two grader calls, got %d", grader.calls)
	}
}

func TestWebSocketWithoutStagedMaterial(t *testing.T) {
	service := newTestService(&stubGrader{})
	server := newTestServer(service)
	defer server.Close()

	conn := dialWS(t, server, "nothing-staged")
	defer conn.Close()

	readNext(conn, t, "error")
}

func TestStageAndResultEndpoints(t *testing.T) {
	grader := &stubGrader{}
	service := newTestService(grader)
	server := newTestServer(service)
	defer server.Close()

	resp, err := http.Post(server.URL+"/attempts/stage", "application/json", strings.NewReader(`{"quiz_id":"quiz-1"}`))
	if err != nil {
		t.Fatalf("stage request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stage status %d", resp.StatusCode)
	}
	var staged struct {
		AttemptID string `json:"attempt_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&staged); err != nil {
		t.Fatalf("decode stage response: %v", err)
	}

	ctx := context.Background()
	if _, err := service.Begin(ctx, staged.AttemptID); err != nil {
		t.Fatalf("begin: %v", err)
	}
	_, _ = service.Answer(ctx, staged.AttemptID, "A")
	if _, err := service.Answer(ctx, staged.AttemptID, "42"); err != nil {
		t.Fatalf("final answer: %v", err)
	}

	res, err := http.Get(server.URL + "/attempts/result?attemptId=" + staged.AttemptID)
	if err != nil {
		t.Fatalf("result request: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("result status %d", res.StatusCode)
	}

	// Read-once: second fetch finds nothing.
	res2, err := http.Get(server.URL + "/attempts/result?attemptId=" + staged.AttemptID)
	if err != nil {
		t.Fatalf("second result request: %v", err)
	}
	defer res2.Body.Close()
	if res2.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 on second read, got %d", res2.StatusCode)
	}
}

func newTestService(grader app.Grader) *app.AttemptService {
	materials := memory.NewMaterialRepository(memory.NewStaticMaterialLoader(map[string]domain.QuizMaterial{
		"quiz-1": {
			ID:      "quiz-1",
			Subject: "Maths",
			Topic:   "Arithmetic",
			Questions: []domain.Question{
				{ID: "q1", Kind: domain.KindMultipleChoice, Prompt: "What is 2 + 2?", Options: []string{"A. 3", "B. 4"}},
				{ID: "q2", Kind: domain.KindOpenAnswer, Prompt: "What is 6 x 7?"},
			},
		},
	}), time.Minute)
	return app.NewAttemptService(memory.NewAttemptStore(), materials, memory.NewHandoffStore(), grader)
}

func newTestServer(service *app.AttemptService) *httptest.Server {
	wsHandler := NewWSHandler(service)
	attemptHandler := NewAttemptHandler(service)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.HandleFunc("/attempts/stage", attemptHandler.Stage)
	mux.HandleFunc("/attempts/result", attemptHandler.Result)
	mux.HandleFunc("/attempts/progress", attemptHandler.Progress)
	return httptest.NewServer(mux)
}

func dialWS(t *testing.T, server *httptest.Server, attemptID string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws?attemptId=" + attemptID
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func sendMessage(t *testing.T, conn *websocket.Conn, msgType string, payload map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": msgType, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) map[string]any {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s (%v)", expect, msg.Type, msg.Payload)
	}
	return msg.Payload
}

type stubGrader struct {
	failures int
	calls    int
}

func (g *stubGrader) Grade(_ context.Context, submission domain.Submission) (domain.GradedResult, error) {
	g.calls++
	if g.failures > 0 {
		g.failures--
		return domain.GradedResult{}, fmt.Errorf("grader unavailable")
	}
	raw := []byte(`{"id":"result-1","quiz_id":"` + submission.QuizID + `","score":50,"total_questions":2,"correct_answers":1}`)
	var result domain.GradedResult
	_ = json.Unmarshal(raw, &result)
	result.Raw = raw
	return result, nil
}
