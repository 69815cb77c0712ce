package handler

import (
	"net/http"

	"focustrack/internal/service"
)

// VerifyHandler handles session verification requests.
type VerifyHandler struct {
	verify *service.VerificationService
}

// NewVerifyHandler creates a new VerifyHandler.
func NewVerifyHandler(verify *service.VerificationService) *VerifyHandler {
	return &VerifyHandler{verify: verify}
}

// HandleVerify runs the classifier over a recorded session and attaches
// the verdict to the named history row.
// POST /api/activities/{id}/verify
// Request: {"historyId":202,"description":"...","imageBase64":"..."}
func (h *VerifyHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	id := pathID(w, r)
	if id == 0 {
		return
	}

	var req struct {
		HistoryID   int64  `json:"historyId"`
		Description string `json:"description"`
		ImageBase64 string `json:"imageBase64"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if req.HistoryID <= 0 {
		writeError(w, http.StatusBadRequest, "historyId is required.")
		return
	}

	verification, err := h.verify.Attach(r.Context(), id, user.ID, req.HistoryID, req.Description, req.ImageBase64)
	if err != nil {
		writeServiceError(w, err, "verify session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"verification": toVerificationDTO(verification)})
}
