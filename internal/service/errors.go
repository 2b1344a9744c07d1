package service

import "errors"

var (
	ErrEmailTaken          = errors.New("email already exists")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrUserNotFound        = errors.New("user not found")
	ErrNoteNotFound        = errors.New("note not found")
	ErrAccessDenied        = errors.New("access denied")
	ErrSearchQueryRequired = errors.New("search query is required")
)
