package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/greenthumb/internal/domain"
	"github.com/yourorg/greenthumb/internal/security/auth"
	"github.com/yourorg/greenthumb/internal/service"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService  *service.AuthService
	cookieSecure bool
	logger       *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, cookieSecure bool, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthHandler{
		authService:  authService,
		cookieSecure: cookieSecure,
		logger:       logger,
	}
}

// RegisterRequest represents registration request
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest carries a refresh token for clients that do not use cookies
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// UserResponse is the public view of a user
type UserResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginResponse returns both tokens alongside the cookies
type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         UserResponse `json:"user"`
}

// RefreshResponse carries the new access token
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

// ChangePasswordRequest represents change password request
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

// Register handles POST /api/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warn("failed to decode register request", slog.String("error", err.Error()))
		respondError(w, r, h.logger, err)
		return
	}

	user, err := h.authService.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.logger.Info("registration failed",
			slog.String("username", req.Username),
			slog.String("error", err.Error()),
		)
		respondError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

// Login handles POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	user, tokens, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	http.SetCookie(w, h.cookie(auth.AccessCookieName, tokens.AccessToken, "/", tokens.AccessExpiresAt))
	http.SetCookie(w, h.cookie(auth.RefreshCookieName, tokens.RefreshToken, auth.RefreshCookiePath, tokens.RefreshExpiresAt))

	writeJSON(w, http.StatusOK, LoginResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		User:         toUserResponse(user),
	})
}

// Refresh handles POST /api/refresh. The refresh token is read from its
// cookie, then the body, then the Authorization header.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	access, expiresAt, err := h.authService.Refresh(r.Context(), refreshToken(w, r))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	http.SetCookie(w, h.cookie(auth.AccessCookieName, access, "/", expiresAt))
	writeJSON(w, http.StatusOK, RefreshResponse{AccessToken: access})
}

// Logout handles POST /api/logout. It always clears the cookies; the
// refresh token is revoked when the client presents it.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Logout(r.Context(), refreshToken(w, r)); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	http.SetCookie(w, h.expired(auth.AccessCookieName, "/"))
	http.SetCookie(w, h.expired(auth.RefreshCookieName, auth.RefreshCookiePath))
	writeJSON(w, http.StatusOK, MessageResponse{Message: "logged out"})
}

// ChangePassword handles POST /api/change-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var req ChangePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if err := required(map[string]string{"old_password": req.OldPassword, "new_password": req.NewPassword}); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	if err := h.authService.ChangePassword(r.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	h.logger.Info("user changed password", slog.Int64("user_id", userID))
	writeJSON(w, http.StatusOK, MessageResponse{Message: "password changed successfully"})
}

func (h *AuthHandler) cookie(name, value, path string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *AuthHandler) expired(name, path string) *http.Cookie {
	c := h.cookie(name, "", path, time.Unix(0, 0))
	c.MaxAge = -1
	return c
}

// refreshToken looks for the token without consuming a body that is absent.
func refreshToken(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(auth.RefreshCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if r.ContentLength != 0 && r.Body != nil {
		var req RefreshRequest
		if err := decodeJSON(w, r, &req); err == nil && req.RefreshToken != "" {
			return req.RefreshToken
		}
	}
	if tok, err := auth.ExtractToken(r.Header.Get("Authorization")); err == nil {
		return tok
	}
	return ""
}
