package repository

import (
	"errors"
	"testing"
	"time"

	"notes-api/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserDocLowercasesEmail(t *testing.T) {
	doc := userToDoc(&domain.User{ID: "u1", Email: "Alice@Example.COM"})
	assert.Equal(t, "user:u1", doc.ID)
	assert.Equal(t, "alice@example.com", doc.Email)
	assert.Equal(t, "email:alice@example.com", emailDocID("Alice@Example.com"))
}

func TestUserDocRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	user := &domain.User{
		ID:        "u1",
		Rev:       "2-def",
		Email:     "alice@example.com",
		Password:  "$argon2id$hash",
		FirstName: "Alice",
		LastName:  "Smith",
		CreatedAt: now,
		UpdatedAt: now,
	}

	doc := userToDoc(user)
	back, err := docToUser(&doc)
	require.NoError(t, err)
	assert.Equal(t, user, back)
}

func TestCreateUserError(t *testing.T) {
	putErr := errors.New("put failed")
	releaseErr := errors.New("delete failed")

	err := createUserError("u1", putErr, nil)
	assert.ErrorIs(t, err, putErr)
	assert.Equal(t, "failed to create user: put failed", err.Error())

	err = createUserError("u1", putErr, releaseErr)
	assert.ErrorIs(t, err, putErr)
	assert.ErrorIs(t, err, releaseErr)
	assert.Contains(t, err.Error(), "failed to release email reservation: delete failed")
}

func TestRepositoriesOwnTheirIndexes(t *testing.T) {
	assert.Contains(t, userIndexes, "users-by-email")
	assert.NotContains(t, userIndexes, "notes-by-updated")
	assert.Contains(t, noteIndexes, "notes-by-updated")
	assert.NotContains(t, noteIndexes, "users-by-email")
}
