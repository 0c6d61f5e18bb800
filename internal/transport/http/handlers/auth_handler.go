package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/mvucic/todo-backend/internal/service"
	"github.com/mvucic/todo-backend/internal/transport/http/middleware"
	"github.com/mvucic/todo-backend/pkg/validator"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input service.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateRegister(input.Username, input.Email, input.Password); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	result, err := h.authService.Register(r.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameTaken):
			writeError(w, http.StatusBadRequest, "USERNAME_TAKEN", "Username already exists")
		case errors.Is(err, service.ErrEmailTaken):
			writeError(w, http.StatusBadRequest, "EMAIL_TAKEN", "Email already exists")
		default:
			log.Printf("ERROR register: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	message := "User created successfully. Please check your email for verification link."
	if !result.EmailSent {
		message = "User created successfully, but verification email failed to send"
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":                     message,
		"user":                        result.User,
		"email_verification_required": true,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input service.LoginInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateLogin(input.Username, input.Password); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	result, err := h.authService.Login(r.Context(), input)
	if err != nil {
		var verErr *service.VerificationRequiredError
		switch {
		case errors.As(err, &verErr):
			writeJSON(w, http.StatusForbidden, map[string]any{
				"error": map[string]string{
					"code":    "VERIFICATION_REQUIRED",
					"message": "Please verify your email address before logging in",
				},
				"email_verification_required": true,
				"user_id":                     verErr.UserID,
			})
		case errors.Is(err, service.ErrInvalidCreds):
			writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
		default:
			log.Printf("ERROR login: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"user":    result.User,
		"tokens":  result.Tokens,
	})
}

func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "INVALID_TOKEN", "Invalid or expired verification token")
		return
	}

	user, err := h.authService.VerifyEmail(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidToken):
			writeError(w, http.StatusBadRequest, "INVALID_TOKEN", "Invalid or expired verification token")
		case errors.Is(err, service.ErrTokenExpired):
			writeError(w, http.StatusBadRequest, "TOKEN_EXPIRED", "Verification token has expired")
		default:
			log.Printf("ERROR verify email: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Email verified successfully! You can now log in.",
		"user":    user,
	})
}

func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateResend(input.Email); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	err := h.authService.ResendVerification(r.Context(), input.Email)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadyVerified):
			writeError(w, http.StatusBadRequest, "ALREADY_VERIFIED", "Email is already verified")
		case errors.Is(err, service.ErrEmailSendFailed):
			log.Printf("ERROR resend verification: %v", err)
			writeError(w, http.StatusInternalServerError, "EMAIL_SEND_FAILED", "Failed to send verification email")
		default:
			log.Printf("ERROR resend verification: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	// Same message whether or not the email exists.
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "If the email exists in our system, a verification email has been sent.",
	})
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Refresh string `json:"refresh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if input.Refresh == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Refresh token is required")
		return
	}

	tokens, err := h.authService.Refresh(r.Context(), input.Refresh)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefresh) {
			writeError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired refresh token")
		} else {
			log.Printf("ERROR refresh: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"tokens": tokens})
}

func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	user, err := h.authService.Profile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
		} else {
			log.Printf("ERROR profile: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

func writeValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error": map[string]any{
			"code":   "VALIDATION_ERROR",
			"fields": errs,
		},
	})
}
