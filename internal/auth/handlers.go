package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cinescope/backend/internal/metrics"
)

type SignupRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name,omitempty"`
	Image    *string `json:"image,omitempty"`
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

type AuthResponse struct {
	Message string    `json:"message"`
	User    *UserInfo `json:"user,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// forgotPasswordMessage is returned whether or not the submitted email exists,
// to avoid account enumeration.
const forgotPasswordMessage = "If an account with that email exists, a password reset link has been sent"

type Handlers struct {
	service *Service
	secure  bool
	metrics *metrics.Collector
	log     *slog.Logger
}

func NewHandlers(service *Service, secure bool, collector *metrics.Collector) *Handlers {
	return &Handlers{
		service: service,
		secure:  secure,
		metrics: collector,
		log:     slog.Default().With(slog.String("component", "auth")),
	}
}

func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "email and password are required"})
		return
	}
	if err := ValidateEmail(req.Email); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if err := ValidatePassword(req.Password); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	user, err := h.service.Signup(r.Context(), req.Email, req.Password, req.Name, req.Image)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Email already registered"})
			return
		}
		h.log.Error("signup failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to create account"})
		return
	}

	h.metrics.RecordSignup()
	writeJSON(w, http.StatusCreated, AuthResponse{Message: "Account created successfully", User: user})
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "email and password are required"})
		return
	}

	user, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			h.metrics.RecordLogin("failure")
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Invalid credentials"})
			return
		}
		h.log.Error("login failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to log in"})
		return
	}

	h.metrics.RecordLogin("success")
	AttachSessionCookie(w, token, h.secure)
	writeJSON(w, http.StatusOK, AuthResponse{Message: "Logged in successfully", User: user})
}

// Logout clears the session cookie unconditionally. Sessions are stateless, so
// there is no server-side state to reconcile.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	ClearSessionCookie(w, h.secure)
	writeJSON(w, http.StatusOK, AuthResponse{Message: "Logged out successfully"})
}

func (h *Handlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if req.Email == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "email is required"})
		return
	}

	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		h.log.Error("forgot password failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to process request"})
		return
	}

	h.metrics.RecordResetRequest()
	writeJSON(w, http.StatusOK, AuthResponse{Message: forgotPasswordMessage})
}

func (h *Handlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if req.Token == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "token and password are required"})
		return
	}
	if err := ValidatePassword(req.Password); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		if errors.Is(err, ErrInvalidOrExpiredToken) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid or expired reset token"})
			return
		}
		h.log.Error("reset password failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to reset password"})
		return
	}

	h.metrics.RecordResetCompleted()
	writeJSON(w, http.StatusOK, AuthResponse{Message: "Password has been reset successfully"})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
