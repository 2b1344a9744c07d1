package handler

import (
	"errors"
	"net/http"

	"notes-api/internal/domain"
	"notes-api/internal/middleware"
	"notes-api/internal/service"
	"notes-api/pkg/response"

	"github.com/go-playground/validator/v10"
)

type UserHandler struct {
	userService *service.UserService
	validator   *validator.Validate
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
		validator:   newValidator(),
	}
}

// Authenticated returns the account behind the current token.
func (h *UserHandler) Authenticated(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetByID(r.Context(), middleware.GetUserID(r))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(w, "This user does not exist")
			return
		}
		response.InternalError(w, err.Error())
		return
	}

	response.Success(w, "User details fetched successfully", user.ToResponse())
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ChangePasswordRequest
	if !bind(w, r, h.validator, &req) {
		return
	}

	err := h.userService.ChangePassword(r.Context(), middleware.GetUserID(r), req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.Unauthorized(w, "Current password is incorrect")
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFound(w, "This user does not exist")
		default:
			response.InternalError(w, err.Error())
		}
		return
	}

	response.Success(w, "Password changed successfully", nil)
}
