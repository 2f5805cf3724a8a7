package handlers

import (
	"net/http"

	"notepad/pkg/auth"
	"notepad/pkg/middleware"
	"notepad/pkg/services"
)

// AuthHandlers contains authentication-related handlers
type AuthHandlers struct {
	auth *services.AuthService
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authService *services.AuthService) *AuthHandlers {
	return &AuthHandlers{auth: authService}
}

// RegisterHandler creates an account
func (h *AuthHandlers) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterRequest
	if err := decode(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}

	user, err := h.auth.Register(req)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"username":   user.Username,
		"email":      user.Email,
		"created_at": user.CreatedAt,
	})
}

// LoginHandler checks credentials, sets the session cookie and returns the token
func (h *AuthHandlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req services.LoginRequest
	if err := decode(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}

	session, err := h.auth.Login(req)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    session.Token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, session)
}

// LogoutHandler ends the current session and clears the cookie
func (h *AuthHandlers) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(auth.TokenFromRequest(r)); err != nil {
		middleware.WriteError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	w.WriteHeader(http.StatusNoContent)
}
