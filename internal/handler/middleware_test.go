package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"focustrack/internal/domain"
	"focustrack/internal/handler"
	"focustrack/internal/repository/sqlite"
	"focustrack/internal/service"
)

const testJWTSecret = "test-secret-for-handler-tests"

type testServices struct {
	auth       *service.AuthService
	activities *service.ActivityService
	reconcile  *service.ReconciliationService
	verify     *service.VerificationService
}

func newTestServices(t *testing.T, classifier domain.Classifier) testServices {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return testServices{
		auth:       service.NewAuthService(db.Users(), testJWTSecret, 4),
		activities: service.NewActivityService(db.Activities()),
		reconcile:  service.NewReconciliationService(db.Activities(), db.History()),
		verify:     service.NewVerificationService(classifier, db.Activities(), db.History(), db.Verifications()),
	}
}

func registerAndLogin(t *testing.T, auth *service.AuthService, email string) string {
	t.Helper()
	ctx := context.Background()
	if _, err := auth.Register(ctx, email, "Test User", "password123", "password123"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	token, err := auth.Login(ctx, email, "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return token
}

func TestRequireAuth_BearerToken(t *testing.T) {
	svcs := newTestServices(t, nil)
	token := registerAndLogin(t, svcs.auth, "bearer@example.com")

	var gotUser string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := handler.UserFromContext(r.Context()); user != nil {
			gotUser = user.Email
		}
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.RequireAuth(svcs.auth, inner).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if gotUser != "bearer@example.com" {
		t.Fatalf("user in context = %q", gotUser)
	}
}

func TestRequireAuth_Cookie(t *testing.T) {
	svcs := newTestServices(t, nil)
	token := registerAndLogin(t, svcs.auth, "cookie@example.com")

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: token})
	w := httptest.NewRecorder()
	handler.RequireAuth(svcs.auth, inner).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestRequireAuth_Rejections(t *testing.T) {
	svcs := newTestServices(t, nil)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("inner handler should not run")
	})
	protected := handler.RequireAuth(svcs.auth, inner)

	cases := []struct {
		name  string
		setup func(r *http.Request)
	}{
		{"no credentials", func(r *http.Request) {}},
		{"garbage bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }},
		{"malformed header", func(r *http.Request) { r.Header.Set("Authorization", "Basic abc") }},
		{"garbage cookie", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "auth_token", Value: "nope"})
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			tc.setup(req)
			w := httptest.NewRecorder()
			protected.ServeHTTP(w, req)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", w.Code)
			}
		})
	}
}
