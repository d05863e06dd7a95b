package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"portfolio-tracker/internal/api/request"
	"portfolio-tracker/internal/auth"
	"portfolio-tracker/internal/config"
	"portfolio-tracker/internal/testutil"
)

func newTestAuthHandler(t *testing.T) (*AuthHandler, *auth.Manager) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash test password: %v", err)
	}

	manager, err := auth.NewManager(config.AuthConfig{
		AdminUsername:     "admin",
		AdminPasswordHash: string(hash),
		SessionTTLDays:    7,
	})
	if err != nil {
		t.Fatalf("Failed to create auth manager: %v", err)
	}

	return NewAuthHandler(manager), manager
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("sets a verifiable session cookie on success", func(t *testing.T) {
		handler, manager := newTestAuthHandler(t)

		req := testutilJSONLogin(t, "admin", "secret")
		w := httptest.NewRecorder()
		handler.Login(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		cookie := findCookie(t, w.Result().Cookies(), auth.SessionCookie)
		if cookie == nil {
			t.Fatal("Expected a session cookie")
		}
		if !cookie.HttpOnly {
			t.Error("Session cookie must be HTTP-only")
		}

		username, err := manager.Verify(cookie.Value)
		if err != nil {
			t.Fatalf("Cookie token did not verify: %v", err)
		}
		if username != "admin" {
			t.Errorf("Expected admin in token, got %s", username)
		}
	})

	t.Run("rejects a wrong password with 401", func(t *testing.T) {
		handler, _ := newTestAuthHandler(t)

		w := httptest.NewRecorder()
		handler.Login(w, testutilJSONLogin(t, "admin", "wrong"))

		if w.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401, got %d", w.Code)
		}
	})

	t.Run("rejects an unknown username with 401", func(t *testing.T) {
		handler, _ := newTestAuthHandler(t)

		w := httptest.NewRecorder()
		handler.Login(w, testutilJSONLogin(t, "root", "secret"))

		if w.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401, got %d", w.Code)
		}
	})

	t.Run("rejects missing fields with 400", func(t *testing.T) {
		handler, _ := newTestAuthHandler(t)

		w := httptest.NewRecorder()
		handler.Login(w, testutilJSONLogin(t, "", ""))

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	handler, _ := newTestAuthHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	w := httptest.NewRecorder()
	handler.Logout(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	cookie := findCookie(t, w.Result().Cookies(), auth.SessionCookie)
	if cookie == nil {
		t.Fatal("Expected the session cookie to be cleared")
	}
	if cookie.MaxAge >= 0 {
		t.Error("Expected a negative MaxAge to expire the cookie")
	}
}

func testutilJSONLogin(t *testing.T, username, password string) *http.Request {
	t.Helper()
	return testutil.NewJSONRequest(t, http.MethodPost, "/api/auth/login", request.LoginRequest{
		Username: username,
		Password: password,
	})
}

func findCookie(t *testing.T, cookies []*http.Cookie, name string) *http.Cookie {
	t.Helper()
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}
