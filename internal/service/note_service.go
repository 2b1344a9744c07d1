package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"notes-api/internal/domain"
	"notes-api/internal/repository"
	"notes-api/pkg/logger"
	"notes-api/pkg/pagination"
	"notes-api/pkg/redact"

	"github.com/google/uuid"
)

// NoteNotifier receives note changes after they are stored. Recipients are
// the note's owner and collaborators.
type NoteNotifier interface {
	NotifyNote(event domain.NoteEvent, note *domain.Note, recipients []string)
}

type NoteService struct {
	repo     repository.NoteRepository
	users    *UserService
	notifier NoteNotifier
}

func NewNoteService(repo repository.NoteRepository, users *UserService, notifier NoteNotifier) *NoteService {
	return &NoteService{
		repo:     repo,
		users:    users,
		notifier: notifier,
	}
}

func (s *NoteService) notify(event domain.NoteEvent, note *domain.Note, recipients []string) {
	if s.notifier != nil {
		s.notifier.NotifyNote(event, note, recipients)
	}
}

func (s *NoteService) List(ctx context.Context, userID string, page pagination.Request) ([]*domain.Note, pagination.Meta, error) {
	total, err := s.repo.CountAccessible(ctx, userID)
	if err != nil {
		return nil, pagination.Meta{}, err
	}

	notes, err := s.repo.ListAccessible(ctx, userID, page.Offset(), page.PerPage)
	if err != nil {
		return nil, pagination.Meta{}, err
	}

	return notes, pagination.Paginate(page, total), nil
}

// Get returns the note if userID may read it.
func (s *NoteService) Get(ctx context.Context, userID, noteID string) (*domain.Note, error) {
	note, err := s.find(ctx, noteID)
	if err != nil {
		return nil, err
	}

	if !note.HasReadAccess(userID) {
		return nil, ErrAccessDenied
	}

	return note, nil
}

func (s *NoteService) find(ctx context.Context, noteID string) (*domain.Note, error) {
	note, err := s.repo.FindByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, err
	}
	return note, nil
}

func (s *NoteService) Create(ctx context.Context, userID string, req *domain.CreateNoteRequest) (*domain.Note, error) {
	now := time.Now().UTC()
	note := &domain.Note{
		ID:         uuid.New().String(),
		Title:      strings.TrimSpace(req.Title),
		Content:    req.Content,
		Tags:       domain.NormalizeTags(req.Tags),
		OwnerID:    userID,
		SharedWith: []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Create(ctx, note); err != nil {
		return nil, err
	}

	logger.Log.Info().Str("note_id", note.ID).Str("user_id", userID).Msg("note created")
	s.notify(domain.NoteEventCreated, note, note.Audience())

	return note, nil
}

// Update applies the non-nil fields of req. Only the owner may update and
// the owner never changes.
func (s *NoteService) Update(ctx context.Context, userID, noteID string, req *domain.UpdateNoteRequest) (*domain.Note, error) {
	note, err := s.find(ctx, noteID)
	if err != nil {
		return nil, err
	}

	if !note.HasWriteAccess(userID) {
		return nil, ErrAccessDenied
	}

	if req.Title != nil {
		note.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		note.Content = *req.Content
	}
	if req.Tags != nil {
		note.Tags = domain.NormalizeTags(*req.Tags)
	}
	note.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, note); err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, err
	}

	s.notify(domain.NoteEventUpdated, note, note.Audience())
	return note, nil
}

func (s *NoteService) Delete(ctx context.Context, userID, noteID string) error {
	note, err := s.find(ctx, noteID)
	if err != nil {
		return err
	}

	if !note.HasWriteAccess(userID) {
		return ErrAccessDenied
	}

	if err := s.repo.Delete(ctx, note); err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			return ErrNoteNotFound
		}
		return err
	}

	logger.Log.Info().Str("note_id", note.ID).Str("user_id", userID).Msg("note deleted")
	s.notify(domain.NoteEventDeleted, note, note.Audience())
	return nil
}

// ShareByID loads the note and shares it. Only a missing note or a store
// failure while loading is reported as an error.
func (s *NoteService) ShareByID(ctx context.Context, requesterID, noteID string, emails []string) (domain.ShareResult, error) {
	note, err := s.find(ctx, noteID)
	if err != nil {
		return domain.ShareResult{}, err
	}

	return s.Share(ctx, note, requesterID, emails), nil
}

// Share adds the accounts behind emails to the note's collaborators. The
// note is left untouched unless every address can be added.
func (s *NoteService) Share(ctx context.Context, note *domain.Note, requesterID string, emails []string) domain.ShareResult {
	if len(emails) == 0 {
		return shareFailure("No email addresses provided")
	}
	if len(emails) > domain.MaxShareBatch {
		return shareFailure(fmt.Sprintf("Cannot share with more than %d users at once", domain.MaxShareBatch))
	}

	emails = domain.NormalizeEmails(emails)

	if !note.HasWriteAccess(requesterID) {
		return shareFailure("Only the owner can share this note")
	}

	owner, err := s.users.GetByID(ctx, requesterID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return shareFailure("Owner not found")
		}
		return shareFailure("Failed to share note: " + err.Error())
	}

	users, err := s.users.GetUsersByEmails(ctx, emails)
	if err != nil {
		return shareFailure("Failed to share note: " + err.Error())
	}

	byEmail := make(map[string]*domain.User, len(users))
	for _, u := range users {
		byEmail[u.Email] = u
	}

	var missing []string
	for _, email := range emails {
		if _, ok := byEmail[email]; !ok {
			missing = append(missing, email)
		}
	}
	if len(missing) > 0 {
		return shareFailure("Users not found: " + strings.Join(missing, ", "))
	}

	var already []string
	for _, email := range emails {
		if email == owner.Email || byEmail[email].ID == owner.ID {
			return shareFailure("Cannot share note with yourself")
		}
		if note.HasReadAccess(byEmail[email].ID) {
			already = append(already, email)
		}
	}
	if len(already) > 0 {
		return shareFailure("Note already shared with: " + strings.Join(already, ", "))
	}

	updated := *note
	updated.SharedWith = make([]string, 0, len(note.SharedWith)+len(emails))
	updated.SharedWith = append(updated.SharedWith, note.SharedWith...)
	for _, email := range emails {
		updated.SharedWith = append(updated.SharedWith, byEmail[email].ID)
	}
	updated.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, &updated); err != nil {
		logger.Log.Error().Err(err).Str("note_id", note.ID).Msg("failed to persist share")
		return shareFailure("Failed to share note: " + err.Error())
	}
	*note = updated

	logger.Log.Info().
		Str("note_id", note.ID).
		Strs("emails", redact.Emails(emails)).
		Msg("note shared")
	s.notify(domain.NoteEventShared, note, note.Audience())

	return domain.ShareResult{Success: true}
}

func shareFailure(reason string) domain.ShareResult {
	return domain.ShareResult{Success: false, Error: reason}
}

// Search finds readable notes matching any whitespace-separated term of q.
func (s *NoteService) Search(ctx context.Context, userID, q string, page pagination.Request) ([]*domain.Note, pagination.Meta, error) {
	terms := strings.Fields(q)
	if len(terms) == 0 {
		return nil, pagination.Meta{}, ErrSearchQueryRequired
	}

	total, err := s.repo.CountSearch(ctx, userID, terms)
	if err != nil {
		return nil, pagination.Meta{}, err
	}

	notes, err := s.repo.Search(ctx, userID, terms, page.Offset(), page.PerPage)
	if err != nil {
		return nil, pagination.Meta{}, err
	}

	return notes, pagination.Paginate(page, total), nil
}
