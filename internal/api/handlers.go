package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rcliao/learning-beast/internal/model"
	"github.com/rcliao/learning-beast/internal/validation"
)

// OnboardingCompleteMessage is returned by GET /session/{id}/question once
// every question has been answered.
const OnboardingCompleteMessage = "All onboarding questions have been answered."

type startRequest struct {
	DisplayName string `json:"display_name" validate:"max=80"`
}

type startResponse struct {
	SessionID string          `json:"session_id"`
	Question  *model.Question `json:"question"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type answerQuestionRequest struct {
	Answer *string `json:"answer" validate:"required"`
}

type answerQuestionResponse struct {
	Answered     model.Question  `json:"answered"`
	NextQuestion *model.Question `json:"next_question"`
}

type answerNodeRequest struct {
	Answer     *string  `json:"answer" validate:"required"`
	Confidence *float64 `json:"confidence" validate:"omitempty,gte=0,lte=1"`
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// StartSession handles POST /session/start?display_name=.
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	req := startRequest{DisplayName: r.URL.Query().Get("display_name")}
	if err := validation.ValidateStruct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	id, q, err := h.engine.StartSession(req.DisplayName)
	if err != nil {
		h.respondEngineError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, startResponse{SessionID: id, Question: q})
}

// NextQuestion handles GET /session/{sessionID}/question.
func (h *Handler) NextQuestion(w http.ResponseWriter, r *http.Request) {
	q, err := h.engine.NextQuestion(chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondEngineError(w, r, err)
		return
	}
	if q == nil {
		h.respondJSON(w, http.StatusOK, messageResponse{Message: OnboardingCompleteMessage})
		return
	}
	h.respondJSON(w, http.StatusOK, q)
}

// AnswerQuestion handles POST /session/{sessionID}/question/{questionID}.
func (h *Handler) AnswerQuestion(w http.ResponseWriter, r *http.Request) {
	var req answerQuestionRequest
	if err := h.decodeBody(w, r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	answered, next, err := h.engine.AnswerQuestion(
		chi.URLParam(r, "sessionID"),
		chi.URLParam(r, "questionID"),
		*req.Answer,
	)
	if err != nil {
		h.respondEngineError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, answerQuestionResponse{Answered: answered, NextQuestion: next})
}

// GetNode handles GET /node/{nodeID}.
func (h *Handler) GetNode(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionFromHeader(w, r)
	if !ok {
		return
	}
	node, err := h.engine.GetNode(sessionID, chi.URLParam(r, "nodeID"))
	if err != nil {
		h.respondEngineError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, node)
}

// AnswerNode handles POST /node/{nodeID}/answer.
func (h *Handler) AnswerNode(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionFromHeader(w, r)
	if !ok {
		return
	}
	var req answerNodeRequest
	if err := h.decodeBody(w, r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	res, err := h.engine.AnswerNode(sessionID, chi.URLParam(r, "nodeID"), *req.Answer, req.Confidence)
	if err != nil {
		h.respondEngineError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, res)
}

// GetProfile handles GET /profile/{sessionID}.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	view, err := h.engine.GetProfile(chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondEngineError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

func (h *Handler) sessionFromHeader(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Header.Get(SessionHeader)
	if id == "" {
		h.respondError(w, http.StatusUnauthorized, "missing_session", "missing "+SessionHeader+" header")
		return "", false
	}
	return id, true
}
