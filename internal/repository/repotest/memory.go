// Package repotest provides in-memory repositories for tests.
package repotest

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"notes-api/internal/domain"
	"notes-api/internal/repository"
)

var (
	_ repository.UserRepository = (*UserRepository)(nil)
	_ repository.NoteRepository = (*NoteRepository)(nil)
	_ repository.TokenBlacklist = (*TokenBlacklist)(nil)
)

type UserRepository struct {
	mu    sync.Mutex
	users map[string]*domain.User
	rev   int
	// Err, when set, is returned by every call.
	Err error
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]*domain.User)}
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return r.Err
	}
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrEmailExists
		}
	}

	r.rev++
	user.Rev = fmt.Sprintf("%d-user", r.rev)
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			found := *u
			return &found, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *UserRepository) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	found := *u
	return &found, nil
}

func (r *UserRepository) FindByEmails(_ context.Context, emails []string) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}
	var out []*domain.User
	for _, u := range r.users {
		for _, email := range emails {
			if strings.EqualFold(u.Email, email) {
				found := *u
				out = append(out, &found)
				break
			}
		}
	}
	return out, nil
}

func (r *UserRepository) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return r.Err
	}
	current, ok := r.users[user.ID]
	if !ok {
		return repository.ErrUserNotFound
	}
	if current.Rev != user.Rev {
		return repository.ErrRevisionConflict
	}

	r.rev++
	user.Rev = fmt.Sprintf("%d-user", r.rev)
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

// Delete removes a user directly, for tests about vanished accounts.
func (r *UserRepository) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
}

type NoteRepository struct {
	mu    sync.Mutex
	notes map[string]*domain.Note
	rev   int
	// UpdateErr, when set, fails Update and Delete.
	UpdateErr error
}

func NewNoteRepository() *NoteRepository {
	return &NoteRepository{notes: make(map[string]*domain.Note)}
}

func (r *NoteRepository) Create(_ context.Context, note *domain.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rev++
	note.Rev = fmt.Sprintf("%d-note", r.rev)
	r.notes[note.ID] = cloneNote(note)
	return nil
}

func (r *NoteRepository) FindByID(_ context.Context, id string) (*domain.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notes[id]
	if !ok {
		return nil, repository.ErrNoteNotFound
	}
	return cloneNote(n), nil
}

// Stored returns the persisted copy of a note, or nil.
func (r *NoteRepository) Stored(id string) *domain.Note {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notes[id]
	if !ok {
		return nil
	}
	return cloneNote(n)
}

func (r *NoteRepository) ListAccessible(_ context.Context, userID string, skip, limit int) ([]*domain.Note, error) {
	return page(r.filter(userID, nil), skip, limit), nil
}

func (r *NoteRepository) CountAccessible(_ context.Context, userID string) (int, error) {
	return len(r.filter(userID, nil)), nil
}

func (r *NoteRepository) Search(_ context.Context, userID string, terms []string, skip, limit int) ([]*domain.Note, error) {
	re := regexp.MustCompile(repository.TermsPattern(terms))
	return page(r.filter(userID, re), skip, limit), nil
}

func (r *NoteRepository) CountSearch(_ context.Context, userID string, terms []string) (int, error) {
	re := regexp.MustCompile(repository.TermsPattern(terms))
	return len(r.filter(userID, re)), nil
}

func (r *NoteRepository) Update(_ context.Context, note *domain.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.UpdateErr != nil {
		return r.UpdateErr
	}
	current, ok := r.notes[note.ID]
	if !ok {
		return repository.ErrNoteNotFound
	}
	if current.Rev != note.Rev {
		return repository.ErrRevisionConflict
	}

	r.rev++
	note.Rev = fmt.Sprintf("%d-note", r.rev)
	r.notes[note.ID] = cloneNote(note)
	return nil
}

func (r *NoteRepository) Delete(_ context.Context, note *domain.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.UpdateErr != nil {
		return r.UpdateErr
	}
	current, ok := r.notes[note.ID]
	if !ok {
		return repository.ErrNoteNotFound
	}
	if current.Rev != note.Rev {
		return repository.ErrRevisionConflict
	}
	delete(r.notes, note.ID)
	return nil
}

func (r *NoteRepository) filter(userID string, re *regexp.Regexp) []*domain.Note {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.Note
	for _, n := range r.notes {
		if !n.HasReadAccess(userID) {
			continue
		}
		if re != nil && !matches(n, re) {
			continue
		}
		out = append(out, cloneNote(n))
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

func matches(n *domain.Note, re *regexp.Regexp) bool {
	if re.MatchString(n.Title) || re.MatchString(n.Content) {
		return true
	}
	for _, tag := range n.Tags {
		if re.MatchString(tag) {
			return true
		}
	}
	return false
}

func page(notes []*domain.Note, skip, limit int) []*domain.Note {
	if skip >= len(notes) {
		return []*domain.Note{}
	}
	end := skip + limit
	if end > len(notes) {
		end = len(notes)
	}
	return notes[skip:end]
}

func cloneNote(n *domain.Note) *domain.Note {
	c := *n
	c.Tags = append([]string(nil), n.Tags...)
	c.SharedWith = append([]string(nil), n.SharedWith...)
	return &c
}

type TokenBlacklist struct {
	mu     sync.Mutex
	tokens []string
	// Err, when set, is returned by every call.
	Err error
}

func NewTokenBlacklist() *TokenBlacklist {
	return &TokenBlacklist{}
}

func (b *TokenBlacklist) Add(_ context.Context, token string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.Err != nil {
		return b.Err
	}
	b.tokens = append([]string{token}, b.tokens...)
	return nil
}

func (b *TokenBlacklist) Contains(_ context.Context, token string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.Err != nil {
		return false, b.Err
	}
	for _, t := range b.tokens {
		if t == token {
			return true, nil
		}
	}
	return false, nil
}

func (b *TokenBlacklist) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.tokens)
}

// ErrUnavailable stands in for a store outage.
var ErrUnavailable = errors.New("store unavailable")
