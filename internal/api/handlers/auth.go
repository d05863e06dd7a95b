package handlers

import (
	"net/http"
	"time"

	"portfolio-tracker/internal/api/request"
	"portfolio-tracker/internal/api/response"
	"portfolio-tracker/internal/auth"
	"portfolio-tracker/internal/validation"
)

// AuthHandler handles HTTP requests for login and logout.
type AuthHandler struct {
	manager *auth.Manager
}

// NewAuthHandler creates a new AuthHandler with the provided session manager.
func NewAuthHandler(manager *auth.Manager) *AuthHandler {
	return &AuthHandler{
		manager: manager,
	}
}

// Login handles POST requests to establish an admin session. On
// success the signed token is set as an HTTP-only cookie.
//
// Endpoint: POST /api/auth/login
// Request Body: LoginRequest (username, password)
// Response: 200 OK with confirmation message
// Error: 400 Bad Request if validation fails
// Error: 401 Unauthorized if credentials are wrong
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.LoginRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateLogin(req); err != nil {
		response.RespondServiceError(w, err)
		return
	}

	token, err := h.manager.Login(req.Username, req.Password)
	if err != nil {
		response.RespondServiceError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.manager.TTL()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	response.RespondJSON(w, http.StatusOK, response.MessageResponse{Message: "logged in"})
}

// Logout handles POST requests to clear the session cookie.
//
// Endpoint: POST /api/auth/logout
// Response: 200 OK with confirmation message
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	response.RespondJSON(w, http.StatusOK, response.MessageResponse{Message: "logged out"})
}
