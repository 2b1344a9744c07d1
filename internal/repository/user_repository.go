package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"notes-api/internal/domain"
	"notes-api/pkg/logger"

	"github.com/go-kivik/kivik/v4"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmails(ctx context.Context, emails []string) ([]*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

type CouchDBUserRepository struct {
	db *kivik.DB
}

type userDoc struct {
	ID        string `json:"_id"`
	Rev       string `json:"_rev,omitempty"`
	DocType   string `json:"doc_type"`
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// emailDoc reserves an address. Its id is derived from the email, so CouchDB
// rejects a second reservation with 409.
type emailDoc struct {
	ID      string `json:"_id"`
	Rev     string `json:"_rev,omitempty"`
	DocType string `json:"doc_type"`
	UserID  string `json:"user_id"`
}

func NewUserRepository(client *kivik.Client, dbName string) *CouchDBUserRepository {
	return &CouchDBUserRepository{
		db: client.DB(dbName),
	}
}

func userDocID(id string) string {
	return fmt.Sprintf("user:%s", id)
}

func emailDocID(email string) string {
	return fmt.Sprintf("email:%s", strings.ToLower(email))
}

// userIndexes back FindByEmails.
var userIndexes = map[string]interface{}{
	"users-by-email": map[string]interface{}{
		"fields": []string{"doc_type", "email"},
	},
}

func (r *CouchDBUserRepository) EnsureIndexes(ctx context.Context) error {
	return ensureIndexes(ctx, r.db, userIndexes)
}

func (r *CouchDBUserRepository) Create(ctx context.Context, user *domain.User) error {
	reservation := emailDoc{
		ID:      emailDocID(user.Email),
		DocType: docTypeEmail,
		UserID:  user.ID,
	}

	reservationRev, err := r.db.Put(ctx, reservation.ID, reservation)
	if err != nil {
		if kivik.HTTPStatus(err) == http.StatusConflict {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to reserve email: %w", err)
	}

	doc := userToDoc(user)
	rev, err := r.db.Put(ctx, doc.ID, doc)
	if err != nil {
		// Release the address so the user can retry.
		_, releaseErr := r.db.Delete(context.WithoutCancel(ctx), reservation.ID, reservationRev)
		return createUserError(user.ID, err, releaseErr)
	}

	user.Rev = rev
	return nil
}

// createUserError reports a failed user write. A failed rollback leaves the
// email reserved without a user, so it is logged and returned as well.
func createUserError(userID string, putErr, releaseErr error) error {
	err := fmt.Errorf("failed to create user: %w", putErr)
	if releaseErr == nil {
		return err
	}

	logger.Log.Error().
		Err(releaseErr).
		Str("user_id", userID).
		Msg("failed to release email reservation")
	return errors.Join(err, fmt.Errorf("failed to release email reservation: %w", releaseErr))
}

func (r *CouchDBUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var reservation emailDoc
	if err := r.db.Get(ctx, emailDocID(email)).ScanDoc(&reservation); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to query user by email: %w", err)
	}

	return r.FindByID(ctx, reservation.UserID)
}

func (r *CouchDBUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var doc userDoc
	if err := r.db.Get(ctx, userDocID(id)).ScanDoc(&doc); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	return docToUser(&doc)
}

// FindByEmails returns the users registered under any of emails. Addresses
// without an account are simply absent from the result.
func (r *CouchDBUserRepository) FindByEmails(ctx context.Context, emails []string) ([]*domain.User, error) {
	if len(emails) == 0 {
		return nil, nil
	}

	lowered := make([]string, len(emails))
	for i, email := range emails {
		lowered[i] = strings.ToLower(email)
	}

	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"doc_type": docTypeUser,
			"email":    map[string]interface{}{"$in": lowered},
		},
		"limit": len(lowered),
	}

	rows := r.db.Find(ctx, query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query users by email: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		var doc userDoc
		if err := rows.ScanDoc(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}

		user, err := docToUser(&doc)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

// Update writes user back using the revision it was read with.
func (r *CouchDBUserRepository) Update(ctx context.Context, user *domain.User) error {
	doc := userToDoc(user)

	rev, err := r.db.Put(ctx, doc.ID, doc)
	if err != nil {
		switch kivik.HTTPStatus(err) {
		case http.StatusConflict:
			return ErrRevisionConflict
		case http.StatusNotFound:
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	user.Rev = rev
	return nil
}

func userToDoc(user *domain.User) userDoc {
	return userDoc{
		ID:        userDocID(user.ID),
		Rev:       user.Rev,
		DocType:   docTypeUser,
		UserID:    user.ID,
		Email:     strings.ToLower(user.Email),
		Password:  user.Password,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		CreatedAt: formatTime(user.CreatedAt),
		UpdatedAt: formatTime(user.UpdatedAt),
	}
}

func docToUser(doc *userDoc) (*domain.User, error) {
	createdAt, err := parseTime(doc.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}

	updatedAt, err := parseTime(doc.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return &domain.User{
		ID:        doc.UserID,
		Rev:       doc.Rev,
		Email:     doc.Email,
		Password:  doc.Password,
		FirstName: doc.FirstName,
		LastName:  doc.LastName,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}
