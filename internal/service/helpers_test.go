package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"notes-api/internal/domain"
	"notes-api/internal/repository/repotest"
	"notes-api/pkg/jwt/jwttest"

	"github.com/stretchr/testify/require"
)

const testPassword = "Str0ng!Pass"

type testEnv struct {
	users     *repotest.UserRepository
	notes     *repotest.NoteRepository
	blacklist *repotest.TokenBlacklist
	notifier  *recordingNotifier

	userService *UserService
	authService *AuthService
	noteService *NoteService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		users:     repotest.NewUserRepository(),
		notes:     repotest.NewNoteRepository(),
		blacklist: repotest.NewTokenBlacklist(),
		notifier:  &recordingNotifier{},
	}

	env.userService = NewUserService(env.users)
	env.authService = NewAuthService(env.userService, env.blacklist, TokenConfig{
		AccessKeys:   jwttest.NewKeyPair(t),
		RefreshKeys:  jwttest.NewKeyPair(t),
		AccessTTL:    7 * 24 * time.Hour,
		RefreshTTL:   30 * 24 * time.Hour,
		CookieDomain: "localhost",
	})
	env.noteService = NewNoteService(env.notes, env.userService, env.notifier)

	return env
}

func (e *testEnv) createUser(t *testing.T, email string) *domain.User {
	t.Helper()

	user, err := e.userService.CreateUser(context.Background(), &domain.SignupRequest{
		Email:     email,
		Password:  testPassword,
		FirstName: "Test",
		LastName:  "User",
	})
	require.NoError(t, err)
	return user
}

func (e *testEnv) createNote(t *testing.T, ownerID string) *domain.Note {
	t.Helper()

	note, err := e.noteService.Create(context.Background(), ownerID, &domain.CreateNoteRequest{
		Title:   "Shopping",
		Content: "milk, eggs",
		Tags:    []string{"Home"},
	})
	require.NoError(t, err)
	return note
}

type notification struct {
	event      domain.NoteEvent
	noteID     string
	recipients []string
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification
}

func (n *recordingNotifier) NotifyNote(event domain.NoteEvent, note *domain.Note, recipients []string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notification{event: event, noteID: note.ID, recipients: recipients})
}

func (n *recordingNotifier) last() (notification, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.events) == 0 {
		return notification{}, false
	}
	return n.events[len(n.events)-1], true
}
