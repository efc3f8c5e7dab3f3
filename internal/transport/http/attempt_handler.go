package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"mathstory-attempt-service/internal/app"
	"mathstory-attempt-service/internal/domain"
)

// AttemptHandler exposes the handoff seams around the websocket flow: the
// generation side stages material, the results view consumes the stored
// grader response.
type AttemptHandler struct {
	service *app.AttemptService
}

func NewAttemptHandler(service *app.AttemptService) *AttemptHandler {
	return &AttemptHandler{service: service}
}

type stageRequest struct {
	QuizID    string `json:"quiz_id"`
	AttemptID string `json:"attempt_id,omitempty"`
}

type stageResponse struct {
	AttemptID string `json:"attempt_id"`
}

// Stage handles POST /attempts/stage: loads quiz material and writes it into
// the material handoff slot.
func (h *AttemptHandler) Stage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req stageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.QuizID == "" {
		http.Error(w, "invalid stage payload", http.StatusBadRequest)
		return
	}

	key, err := h.service.Stage(r.Context(), req.AttemptID, req.QuizID)
	switch {
	case errors.Is(err, domain.ErrQuizNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, domain.ErrMalformedQuiz):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, stageResponse{AttemptID: key})
}

// Result handles GET /attempts/result?attemptId=...: the read-once result
// slot for the results view. The grader's response is relayed byte for byte.
func (h *AttemptHandler) Result(w http.ResponseWriter, r *http.Request) {
	attemptID := r.URL.Query().Get("attemptId")
	if attemptID == "" {
		http.Error(w, "missing attemptId", http.StatusBadRequest)
		return
	}
	raw, err := h.service.TakeResult(r.Context(), attemptID)
	switch {
	case errors.Is(err, domain.ErrNoResult):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(raw)
}

// Progress handles GET /attempts/progress?attemptId=...
func (h *AttemptHandler) Progress(w http.ResponseWriter, r *http.Request) {
	attemptID := r.URL.Query().Get("attemptId")
	if attemptID == "" {
		http.Error(w, "missing attemptId", http.StatusBadRequest)
		return
	}
	view, err := h.service.Progress(r.Context(), attemptID)
	if errors.Is(err, domain.ErrAttemptNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, view)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
