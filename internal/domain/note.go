package domain

import (
	"slices"
	"strings"
	"time"
)

// MaxShareBatch is the largest number of addresses accepted by one share call.
const MaxShareBatch = 10

type Note struct {
	ID         string    `json:"id"`
	Rev        string    `json:"-"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Tags       []string  `json:"tags"`
	OwnerID    string    `json:"owner_id"`
	SharedWith []string  `json:"shared_with"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (n *Note) IsOwner(userID string) bool {
	return userID != "" && n.OwnerID == userID
}

// HasReadAccess reports whether userID owns the note or is a collaborator.
func (n *Note) HasReadAccess(userID string) bool {
	if userID == "" {
		return false
	}
	return n.OwnerID == userID || slices.Contains(n.SharedWith, userID)
}

// HasWriteAccess reports whether userID may modify, share or delete the note.
// Collaborators are read-only.
func (n *Note) HasWriteAccess(userID string) bool {
	return n.IsOwner(userID)
}

// Audience is the owner followed by every collaborator.
func (n *Note) Audience() []string {
	ids := make([]string, 0, len(n.SharedWith)+1)
	ids = append(ids, n.OwnerID)
	return append(ids, n.SharedWith...)
}

func (n *Note) ToResponse() *NoteResponse {
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}
	shared := n.SharedWith
	if shared == nil {
		shared = []string{}
	}

	return &NoteResponse{
		ID:         n.ID,
		Title:      n.Title,
		Content:    n.Content,
		Tags:       tags,
		OwnerID:    n.OwnerID,
		SharedWith: shared,
		CreatedAt:  n.CreatedAt,
		UpdatedAt:  n.UpdatedAt,
	}
}

// NormalizeTags trims and lowercases tags, dropping blanks and repeats while
// keeping the order of first occurrence.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// NormalizeEmails trims, lowercases and deduplicates addresses in input order.
func NormalizeEmails(emails []string) []string {
	out := make([]string, 0, len(emails))
	seen := make(map[string]struct{}, len(emails))
	for _, email := range emails {
		email = strings.ToLower(strings.TrimSpace(email))
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}
		out = append(out, email)
	}
	return out
}

type CreateNoteRequest struct {
	Title   string   `json:"title" validate:"required,notblank,max=200"`
	Content string   `json:"content" validate:"required,notblank"`
	Tags    []string `json:"tags" validate:"omitempty,max=20,dive,max=50"`
}

type UpdateNoteRequest struct {
	Title   *string   `json:"title" validate:"omitempty,notblank,max=200"`
	Content *string   `json:"content" validate:"omitempty,notblank"`
	Tags    *[]string `json:"tags" validate:"omitempty,max=20,dive,max=50"`
}

func (r *UpdateNoteRequest) IsEmpty() bool {
	return r.Title == nil && r.Content == nil && r.Tags == nil
}

type ShareNoteRequest struct {
	Emails []string `json:"emails" validate:"required,dive,email"`
}

// ShareResult is the outcome of a share attempt. Error holds the
// user-facing reason when Success is false.
type ShareResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type NoteResponse struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Tags       []string  `json:"tags"`
	OwnerID    string    `json:"ownerId"`
	SharedWith []string  `json:"sharedWith"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type NoteEvent string

const (
	NoteEventCreated NoteEvent = "note_created"
	NoteEventUpdated NoteEvent = "note_updated"
	NoteEventDeleted NoteEvent = "note_deleted"
	NoteEventShared  NoteEvent = "note_shared"
)
