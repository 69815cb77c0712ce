package handler

import (
	"net/http"

	"focustrack/internal/service"
)

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(
	mux *http.ServeMux,
	auth *service.AuthService,
	activities *service.ActivityService,
	reconcile *service.ReconciliationService,
	verify *service.VerificationService,
) {
	mux.HandleFunc("GET /healthz", HandleHealthz)

	authHandler := NewAuthHandler(auth)
	mux.HandleFunc("POST /api/auth/register", authHandler.HandleRegister)
	mux.HandleFunc("POST /api/auth/login", authHandler.HandleLogin)
	mux.HandleFunc("POST /api/auth/logout", authHandler.HandleLogout)
	mux.Handle("GET /api/auth/me", RequireAuth(auth, http.HandlerFunc(authHandler.HandleMe)))

	activityHandler := NewActivityHandler(activities)
	sessionHandler := NewSessionHandler(reconcile)
	verifyHandler := NewVerifyHandler(verify)

	protected := map[string]http.HandlerFunc{
		"GET /api/activities":         activityHandler.HandleList,
		"POST /api/activities":        activityHandler.HandleCreate,
		"GET /api/activities/{id}":    activityHandler.HandleGet,
		"PATCH /api/activities/{id}":  activityHandler.HandleUpdate,
		"DELETE /api/activities/{id}": activityHandler.HandleDelete,

		"POST /api/activities/{id}/start":            sessionHandler.HandleStart,
		"POST /api/activities/{id}/complete-session": sessionHandler.HandleComplete,
		"POST /api/activities/{id}/end-session":      sessionHandler.HandleEnd,
		"GET /api/activities/{id}/history":           sessionHandler.HandleHistory,

		"POST /api/activities/{id}/verify": verifyHandler.HandleVerify,
	}
	for pattern, fn := range protected {
		mux.Handle(pattern, RequireAuth(auth, fn))
	}
}
