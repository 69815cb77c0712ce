package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"focustrack/internal/domain"
	"focustrack/internal/service"
)

// ActivityHandler handles activity CRUD requests.
type ActivityHandler struct {
	activities *service.ActivityService
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(activities *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activities: activities}
}

// pathID parses the {id} path segment. A zero return means the response
// has already been written.
func pathID(w http.ResponseWriter, r *http.Request) int64 {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid activity id.")
		return 0
	}
	return id
}

// writeServiceError maps domain errors onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found.")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "You do not have access to this resource.")
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrClassifierUnavailable):
		writeError(w, http.StatusBadGateway, "Verification is temporarily unavailable. Please try again.")
	default:
		slog.Error(logMsg, "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
	}
}

// HandleList returns the user's activities.
// GET /api/activities
func (h *ActivityHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	activities, err := h.activities.ListByUser(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err, "list activities")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"activities": toActivityDTOs(activities)})
}

// HandleCreate creates a new activity.
// POST /api/activities
// Request: {"title":"...","totalTime":25,"breakMinutes":5,"breakCount":2}
func (h *ActivityHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	var req struct {
		Title        string `json:"title"`
		TotalTime    int    `json:"totalTime"`
		BreakMinutes int    `json:"breakMinutes"`
		BreakCount   int    `json:"breakCount"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	activity := &domain.Activity{
		UserID:       user.ID,
		Title:        req.Title,
		TotalTime:    req.TotalTime,
		BreakMinutes: req.BreakMinutes,
		BreakCount:   req.BreakCount,
	}
	if err := h.activities.Create(r.Context(), activity); err != nil {
		writeServiceError(w, err, "create activity")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"activity": toActivityDTO(activity)})
}

// HandleGet returns one activity.
// GET /api/activities/{id}
func (h *ActivityHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	id := pathID(w, r)
	if id == 0 {
		return
	}

	activity, err := h.activities.Get(r.Context(), id, user.ID)
	if err != nil {
		writeServiceError(w, err, "get activity")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"activity": toActivityDTO(activity)})
}

// HandleUpdate applies a partial update. Absent fields are left unchanged;
// the planned total time is not editable here.
// PATCH /api/activities/{id}
func (h *ActivityHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	id := pathID(w, r)
	if id == 0 {
		return
	}

	var req struct {
		Title        *string `json:"title"`
		BreakMinutes *int    `json:"breakMinutes"`
		BreakCount   *int    `json:"breakCount"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	update := domain.ActivityUpdate{
		Title:        req.Title,
		BreakMinutes: req.BreakMinutes,
		BreakCount:   req.BreakCount,
	}
	activity, err := h.activities.Update(r.Context(), id, user.ID, update)
	if err != nil {
		writeServiceError(w, err, "update activity")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"activity": toActivityDTO(activity)})
}

// HandleDelete removes an activity and its history.
// DELETE /api/activities/{id}
func (h *ActivityHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	id := pathID(w, r)
	if id == 0 {
		return
	}

	if err := h.activities.Delete(r.Context(), id, user.ID); err != nil {
		writeServiceError(w, err, "delete activity")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
