package service

import (
	"context"
	"testing"

	"notes-api/internal/domain"
	"notes-api/pkg/hash"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_CreateUser(t *testing.T) {
	env := newTestEnv(t)

	user, err := env.userService.CreateUser(context.Background(), &domain.SignupRequest{
		Email:     " Bob@Example.com",
		Password:  testPassword,
		FirstName: " Bob ",
		LastName:  "Stone",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "bob@example.com", user.Email)
	assert.Equal(t, "Bob", user.FirstName)
	assert.NoError(t, hash.Compare(user.Password, testPassword))
	assert.False(t, user.CreatedAt.IsZero())
}

func TestUserService_ChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "bob@example.com")

	err := env.userService.ChangePassword(ctx, user.ID, "Wr0ng!Pass", "N3w!Password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, env.userService.ChangePassword(ctx, user.ID, testPassword, "N3w!Password"))

	stored, err := env.userService.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NoError(t, hash.Compare(stored.Password, "N3w!Password"))
	assert.ErrorIs(t, hash.Compare(stored.Password, testPassword), hash.ErrMismatch)

	err = env.userService.ChangePassword(ctx, "missing", testPassword, "N3w!Password")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_GetUsersByEmails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice@example.com")
	bob := env.createUser(t, "bob@example.com")

	users, err := env.userService.GetUsersByEmails(ctx, []string{"ALICE@example.com", "bob@example.com", "nobody@example.com"})
	require.NoError(t, err)

	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	assert.ElementsMatch(t, []string{alice.ID, bob.ID}, ids)
}

func TestUserService_GetByID(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.userService.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
