package handler

import (
	"net/http"

	"focustrack/internal/domain"
	"focustrack/internal/service"
)

// SessionHandler handles the session lifecycle routes: start, record, and
// the degraded end-without-totals path.
type SessionHandler struct {
	reconcile *service.ReconciliationService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(reconcile *service.ReconciliationService) *SessionHandler {
	return &SessionHandler{reconcile: reconcile}
}

// HandleStart opens a history row for a beginning session.
// POST /api/activities/{id}/start
// Request: {"title":"...","description":"...","breakCount":2}
func (h *SessionHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	id := pathID(w, r)
	if id == 0 {
		return
	}

	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		BreakCount  int    `json:"breakCount"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	record, err := h.reconcile.StartSession(r.Context(), id, user.ID, req.Title, req.Description, req.BreakCount)
	if err != nil {
		writeServiceError(w, err, "start session")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"session": toHistoryDTO(record)})
}

// HandleComplete records a finished session's totals and folds them into
// the activity counters. Retries carrying the same idempotency key are
// answered with the already-recorded row.
// POST /api/activities/{id}/complete-session
// Request: {"focusSeconds":600,"breakLog":[...],"idempotencyKey":"...","title":"...","description":"..."}
func (h *SessionHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	id := pathID(w, r)
	if id == 0 {
		return
	}

	var req struct {
		Title          string               `json:"title"`
		Description    string               `json:"description"`
		FocusSeconds   int                  `json:"focusSeconds"`
		BreakLog       []domain.BreakRecord `json:"breakLog"`
		IdempotencyKey string               `json:"idempotencyKey"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	record, err := h.reconcile.RecordSession(r.Context(), service.RecordSessionInput{
		ActivityID:     id,
		UserID:         user.ID,
		Title:          req.Title,
		Description:    req.Description,
		FocusSeconds:   req.FocusSeconds,
		BreakLog:       req.BreakLog,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		writeServiceError(w, err, "record session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": toHistoryDTO(record)})
}

// HandleEnd closes the newest open session row without folding totals.
// POST /api/activities/{id}/end-session
func (h *SessionHandler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	id := pathID(w, r)
	if id == 0 {
		return
	}

	record, err := h.reconcile.EndOpenSession(r.Context(), id, user.ID)
	if err != nil {
		writeServiceError(w, err, "end session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": toHistoryDTO(record)})
}

// HandleHistory returns the activity's recorded sessions, newest first.
// GET /api/activities/{id}/history
func (h *SessionHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	id := pathID(w, r)
	if id == 0 {
		return
	}

	records, err := h.reconcile.History(r.Context(), id, user.ID)
	if err != nil {
		writeServiceError(w, err, "list history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": toHistoryDTOs(records)})
}
