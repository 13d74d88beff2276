// Package api exposes the turn pipeline over HTTP.
package api

// #region imports
import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"baitline/internal/orchestrator"
	"baitline/internal/session"
)

// #endregion

// #region handler

// Handler serves the session API.
type Handler struct {
	orch  *orchestrator.Orchestrator
	store session.Store
}

// NewHandler creates a handler over a wired orchestrator and its store.
func NewHandler(orch *orchestrator.Orchestrator, store session.Store) *Handler {
	return &Handler{orch: orch, store: store}
}

// RegisterRoutes mounts the session API on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/v1/sessions", func(r chi.Router) {
		r.Get("/", h.listSessions)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", h.getSession)
			r.Post("/messages", h.postMessage)
			r.Post("/end", h.endSession)
		})
	})
}

// #endregion handler

// #region message

type messageRequest struct {
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

func (h *Handler) postMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	sender := orchestrator.Sender(req.Sender)
	if sender == "" {
		sender = orchestrator.SenderCounterpart
	}

	out, err := h.orch.ProcessTurn(r.Context(), orchestrator.Message{
		SessionID: sessionID,
		Sender:    sender,
		Text:      req.Text,
		Timestamp: req.Timestamp,
	})
	if err != nil {
		log.Printf("[API] process turn session=%s: %v", sessionID, err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) endSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	out, err := h.orch.ProcessTurn(r.Context(), orchestrator.Message{
		SessionID: sessionID,
		Sender:    orchestrator.SenderControl,
		Text:      orchestrator.EndSignal,
	})
	if err != nil {
		log.Printf("[API] end session=%s: %v", sessionID, err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// #endregion message

// #region queries

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	sess, found, err := h.store.Get(sessionID)
	if err != nil {
		log.Printf("[API] get session=%s: %v", sessionID, err)
		writeError(w, http.StatusInternalServerError, "store error")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	sessions, err := h.store.List(limit)
	if err != nil {
		log.Printf("[API] list sessions: %v", err)
		writeError(w, http.StatusInternalServerError, "store error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

// #endregion queries

// #region responses

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// #endregion responses
