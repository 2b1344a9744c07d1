package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"notes-api/internal/domain"
	"notes-api/internal/repository"
	"notes-api/pkg/hash"
	"notes-api/pkg/logger"
	"notes-api/pkg/redact"

	"github.com/google/uuid"
)

type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{
		userRepo: userRepo,
	}
}

// CreateUser hashes the password and stores a new account. The email is
// trimmed and lowercased first.
func (s *UserService) CreateUser(ctx context.Context, req *domain.SignupRequest) (*domain.User, error) {
	hashedPassword, err := hash.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:        uuid.New().String(),
		Email:     normalizeEmail(req.Email),
		Password:  hashedPassword,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logger.Log.Info().
		Str("user_id", user.ID).
		Str("email", redact.Email(user.Email)).
		Msg("user created")

	return user, nil
}

// ChangePassword replaces the stored hash after checking the current password.
func (s *UserService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := hash.Compare(user.Password, currentPassword); err != nil {
		return ErrInvalidCredentials
	}

	hashedPassword, err := hash.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.Password = hashedPassword
	user.UpdatedAt = time.Now().UTC()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	logger.Log.Info().Str("user_id", user.ID).Msg("password changed")
	return nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// GetUsersByEmails resolves addresses to accounts. Unknown addresses are
// omitted; callers compare against their input to find them.
func (s *UserService) GetUsersByEmails(ctx context.Context, emails []string) ([]*domain.User, error) {
	normalized := make([]string, len(emails))
	for i, email := range emails {
		normalized[i] = normalizeEmail(email)
	}

	users, err := s.userRepo.FindByEmails(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to look up users: %w", err)
	}
	return users, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
