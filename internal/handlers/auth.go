package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/openconf/apiserver/internal/auth"
	"github.com/openconf/apiserver/internal/services"
	"github.com/openconf/apiserver/internal/store"
	"github.com/openconf/apiserver/types"
)

// AuthHandler provides the session endpoints: signup, login, logout,
// forgot/reset password, and the current-principal lookup.
type AuthHandler struct {
	userService   *services.UserService
	notifications *services.NotificationService
	issuer        *auth.TokenIssuer
	cookies       *auth.CookieManager
	logger        *slog.Logger
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(
	userService *services.UserService,
	notifications *services.NotificationService,
	issuer *auth.TokenIssuer,
	cookies *auth.CookieManager,
	logger *slog.Logger,
) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		userService:   userService,
		notifications: notifications,
		issuer:        issuer,
		cookies:       cookies,
		logger:        logger,
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, handler *AuthHandler, guard *Guard) {
	r.Post("/signup", handler.Signup)
	r.Post("/login", handler.Login)
	r.Post("/logout", handler.Logout)
	r.Post("/forgot-password", handler.ForgotPassword)
	r.Post("/reset-password", handler.ResetPassword)
	r.With(guard.RequireAuth).Get("/me", handler.Me)
}

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// AuthResponse is returned on successful signup and login; the session
// token itself travels only in the HTTP-only cookie.
type AuthResponse struct {
	User types.User `json:"user"`
}

// MessageResponse is a generic acknowledgement payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// Signup creates a new account and sets the session cookie. The role
// defaults to author; reviewer may be requested explicitly; admin is
// never self-assignable.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "invalid email")
		return
	}
	if len(req.Password) < auth.MinPasswordLength {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("password must be at least %d characters", auth.MinPasswordLength))
		return
	}

	role := types.RoleAuthor
	if req.Role != "" {
		parsed, err := types.ParseRole(req.Role)
		if err != nil || (parsed != types.RoleAuthor && parsed != types.RoleReviewer) {
			writeError(w, http.StatusBadRequest, "invalid role")
			return
		}
		role = parsed
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	user, err := h.userService.Create(r.Context(), types.User{
		Email:        req.Email,
		FullName:     req.FullName,
		Role:         role,
		PasswordHash: hashed,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusConflict, "email already registered")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	token, err := h.issuer.Sign(user.ID, user.Email, user.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	h.notifications.Publish(r.Context(), services.Notification{
		Kind:     services.NotifyWelcome,
		Email:    user.Email,
		FullName: user.FullName,
	})

	h.cookies.SetAuthCookie(w, token)
	writeJSON(w, http.StatusCreated, AuthResponse{User: user})
}

// Login verifies credentials and sets the session cookie. All failure
// modes answer the same 401 so responses cannot distinguish an unknown
// email from a wrong password.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing credentials")
		return
	}

	user, err := h.userService.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to authenticate")
		return
	}

	if user.PasswordHash == "" {
		// Account has no local password; fail closed.
		writeError(w, http.StatusUnauthorized, "please reset your password to log in")
		return
	}

	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.issuer.Sign(user.ID, user.Email, user.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	h.cookies.SetAuthCookie(w, token)
	writeJSON(w, http.StatusOK, AuthResponse{User: user})
}

// Logout clears the session cookie. Idempotent.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookies.ClearAuthCookie(w)
	writeJSON(w, http.StatusOK, MessageResponse{Message: "logged out"})
}

// ForgotPassword starts a password reset. The response is the same
// generic 200 whether or not the account exists, to resist account
// enumeration.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	const genericMessage = "if the account exists, a reset link has been sent"

	user, token, err := h.userService.StartPasswordReset(r.Context(), req.Email)
	if err != nil {
		// Unknown accounts and store failures both get the generic
		// answer, but a store failure must still reach the logs.
		if !errors.Is(err, store.ErrNotFound) {
			h.logger.Error("password reset start failed", slog.String("error", err.Error()))
		}
		writeJSON(w, http.StatusOK, MessageResponse{Message: genericMessage})
		return
	}

	h.notifications.Publish(r.Context(), services.Notification{
		Kind:       services.NotifyPasswordReset,
		Email:      user.Email,
		FullName:   user.FullName,
		ResetToken: token,
	})

	writeJSON(w, http.StatusOK, MessageResponse{Message: genericMessage})
}

// ResetPassword consumes a reset token and installs the new password.
// The token is single-use: it is nulled in the same statement that
// sets the new hash.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Token = strings.TrimSpace(req.Token)
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}
	if len(req.Password) < auth.MinPasswordLength {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("password must be at least %d characters", auth.MinPasswordLength))
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reset password")
		return
	}

	if _, err := h.userService.CompletePasswordReset(r.Context(), req.Token, hashed); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "invalid or expired token")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to reset password")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "password updated"})
}

// Me returns the current authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.userService.GetByID(r.Context(), principal.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	writeJSON(w, http.StatusOK, user)
}
