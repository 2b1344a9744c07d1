package handler

import (
	"errors"
	"net/http"

	"notes-api/internal/domain"
	"notes-api/internal/middleware"
	"notes-api/internal/service"
	"notes-api/pkg/logger"
	"notes-api/pkg/redact"
	"notes-api/pkg/response"

	"github.com/go-playground/validator/v10"
)

type AuthHandler struct {
	authService *service.AuthService
	validator   *validator.Validate
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validator:   newValidator(),
	}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req domain.SignupRequest
	if !bind(w, r, h.validator, &req) {
		return
	}

	pair, err := h.authService.Signup(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			response.Conflict(w, "Email already exists")
			return
		}
		logger.Log.Error().Err(err).Str("email", redact.Email(req.Email)).Msg("signup failed")
		response.InternalError(w, err.Error())
		return
	}

	h.authService.SetTokens(w, pair.AccessToken, pair.RefreshToken)
	response.Created(w, "User registered successfully", nil)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !bind(w, r, h.validator, &req) {
		return
	}

	pair, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Unauthorized(w, "Invalid email or password")
			return
		}
		logger.Log.Error().Err(err).Msg("login failed")
		response.InternalError(w, err.Error())
		return
	}

	h.authService.SetTokens(w, pair.AccessToken, pair.RefreshToken)
	response.Success(w, "Login successful", pair)
}

// Logout always succeeds for the caller. The access token is revoked only
// when a valid refresh token accompanies it.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	accessToken := middleware.AccessTokenFromRequest(r)
	refreshToken := middleware.RefreshTokenFromRequest(r)

	if err := h.authService.Logout(r.Context(), accessToken, refreshToken); err != nil {
		logger.Log.Error().Err(err).Msg("logout failed")
		response.InternalError(w, err.Error())
		return
	}

	h.authService.ClearTokens(w)
	response.Success(w, "Logout successful", nil)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshToken := middleware.RefreshTokenFromRequest(r)

	accessToken, ok := h.authService.ReissueAccessToken(r.Context(), refreshToken)
	if !ok {
		h.authService.ClearTokens(w)
		response.Unauthorized(w, "Access token could not be refreshed")
		return
	}

	h.authService.SetTokens(w, accessToken, "")
	response.Success(w, "Token refreshed successfully", domain.TokenPair{AccessToken: accessToken})
}
