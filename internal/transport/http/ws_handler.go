package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"mathstory-attempt-service/internal/app"
	"mathstory-attempt-service/internal/domain"
)

type WSHandler struct {
	service  *app.AttemptService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.AttemptService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Answer string `json:"answer"`
}

type submittedPayload struct {
	ResultID       string  `json:"resultId"`
	Score          float64 `json:"score"`
	TotalQuestions int     `json:"totalQuestions"`
	CorrectAnswers int     `json:"correctAnswers"`
}

type hintPayload struct {
	Hint string `json:"hint"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

// ServeWS upgrades HTTP requests to websockets and drives one quiz attempt:
// the server pushes the current question, the client answers, and answering
// the last question triggers the terminal submission.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	attemptID := r.URL.Query().Get("attemptId")
	if attemptID == "" {
		http.Error(w, "missing attemptId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	view, err := h.service.Begin(r.Context(), attemptID)
	if err != nil {
		// No staged material or malformed material: nothing to resume, the
		// client is expected to navigate back to quiz selection.
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	_ = conn.WriteJSON(outboundMessage[app.AttemptView]{Type: "question", Payload: view})

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}})
				continue
			}
			outcome, err := h.service.Answer(r.Context(), attemptID, payload.Answer)
			if h.handleOutcome(conn, outcome, err) {
				return
			}
		case "hint":
			hint, err := h.service.RevealHint(r.Context(), attemptID)
			if err != nil {
				_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
				continue
			}
			_ = conn.WriteJSON(outboundMessage[hintPayload]{Type: "hint", Payload: hintPayload{Hint: hint}})
		case "resubmit":
			outcome, err := h.service.Resubmit(r.Context(), attemptID)
			if h.handleOutcome(conn, outcome, err) {
				return
			}
		default:
			_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
		}
	}
}

// handleOutcome writes the message for an answer/resubmit outcome and reports
// whether the attempt finished (connection should close).
func (h *WSHandler) handleOutcome(conn *websocket.Conn, outcome app.AnswerOutcome, err error) bool {
	switch {
	case errors.Is(err, domain.ErrEmptyAnswer):
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "answer must not be empty"}})
	case errors.Is(err, domain.ErrNotSubmittable), errors.Is(err, domain.ErrAttemptClosed), errors.Is(err, domain.ErrAttemptNotFound):
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
	case err != nil:
		// Submission failed; answers are intact and a "resubmit" message retries.
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "Failed to submit quiz", Retryable: true}})
	case outcome.Submitted:
		_ = conn.WriteJSON(outboundMessage[submittedPayload]{Type: "submitted", Payload: submittedPayload{
			ResultID:       outcome.Result.ID,
			Score:          outcome.Result.Score,
			TotalQuestions: outcome.Result.TotalQuestions,
			CorrectAnswers: outcome.Result.CorrectAnswers,
		}})
		return true
	default:
		_ = conn.WriteJSON(outboundMessage[app.AttemptView]{Type: "question", Payload: outcome.View})
	}
	return false
}
