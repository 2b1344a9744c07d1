package repository

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"notes-api/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

type NoteRepository interface {
	Create(ctx context.Context, note *domain.Note) error
	FindByID(ctx context.Context, id string) (*domain.Note, error)
	ListAccessible(ctx context.Context, userID string, skip, limit int) ([]*domain.Note, error)
	CountAccessible(ctx context.Context, userID string) (int, error)
	Search(ctx context.Context, userID string, terms []string, skip, limit int) ([]*domain.Note, error)
	CountSearch(ctx context.Context, userID string, terms []string) (int, error)
	Update(ctx context.Context, note *domain.Note) error
	Delete(ctx context.Context, note *domain.Note) error
}

type CouchDBNoteRepository struct {
	db *kivik.DB
}

type noteDoc struct {
	ID         string   `json:"_id"`
	Rev        string   `json:"_rev,omitempty"`
	DocType    string   `json:"doc_type"`
	NoteID     string   `json:"note_id"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Tags       []string `json:"tags"`
	OwnerID    string   `json:"owner_id"`
	SharedWith []string `json:"shared_with"`
	CreatedAt  string   `json:"created_at"`
	UpdatedAt  string   `json:"updated_at"`
}

func NewNoteRepository(client *kivik.Client, dbName string) *CouchDBNoteRepository {
	return &CouchDBNoteRepository{
		db: client.DB(dbName),
	}
}

func noteDocID(id string) string {
	return fmt.Sprintf("note:%s", id)
}

// noteIndexes back the list and search queries, which sort on updated_at.
var noteIndexes = map[string]interface{}{
	"notes-by-updated": map[string]interface{}{
		"fields": []interface{}{
			map[string]string{"doc_type": "desc"},
			map[string]string{"updated_at": "desc"},
		},
	},
}

func (r *CouchDBNoteRepository) EnsureIndexes(ctx context.Context) error {
	return ensureIndexes(ctx, r.db, noteIndexes)
}

func (r *CouchDBNoteRepository) Create(ctx context.Context, note *domain.Note) error {
	doc := noteToDoc(note)
	doc.Rev = ""

	rev, err := r.db.Put(ctx, doc.ID, doc)
	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}

	note.Rev = rev
	return nil
}

func (r *CouchDBNoteRepository) FindByID(ctx context.Context, id string) (*domain.Note, error) {
	var doc noteDoc
	if err := r.db.Get(ctx, noteDocID(id)).ScanDoc(&doc); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("failed to find note: %w", err)
	}

	return docToNote(&doc)
}

func (r *CouchDBNoteRepository) ListAccessible(ctx context.Context, userID string, skip, limit int) ([]*domain.Note, error) {
	return r.findNotes(ctx, accessibleSelector(userID), skip, limit)
}

func (r *CouchDBNoteRepository) CountAccessible(ctx context.Context, userID string) (int, error) {
	return r.count(ctx, accessibleSelector(userID))
}

func (r *CouchDBNoteRepository) Search(ctx context.Context, userID string, terms []string, skip, limit int) ([]*domain.Note, error) {
	return r.findNotes(ctx, searchSelector(userID, terms), skip, limit)
}

func (r *CouchDBNoteRepository) CountSearch(ctx context.Context, userID string, terms []string) (int, error) {
	return r.count(ctx, searchSelector(userID, terms))
}

// Update writes note with the revision it was read with, so a concurrent
// writer makes exactly one of the two calls fail with ErrRevisionConflict.
func (r *CouchDBNoteRepository) Update(ctx context.Context, note *domain.Note) error {
	doc := noteToDoc(note)

	rev, err := r.db.Put(ctx, doc.ID, doc)
	if err != nil {
		switch kivik.HTTPStatus(err) {
		case http.StatusConflict:
			return ErrRevisionConflict
		case http.StatusNotFound:
			return ErrNoteNotFound
		}
		return fmt.Errorf("failed to update note: %w", err)
	}

	note.Rev = rev
	return nil
}

func (r *CouchDBNoteRepository) Delete(ctx context.Context, note *domain.Note) error {
	_, err := r.db.Delete(ctx, noteDocID(note.ID), note.Rev)
	if err != nil {
		switch kivik.HTTPStatus(err) {
		case http.StatusConflict:
			return ErrRevisionConflict
		case http.StatusNotFound:
			return ErrNoteNotFound
		}
		return fmt.Errorf("failed to delete note: %w", err)
	}

	return nil
}

func (r *CouchDBNoteRepository) findNotes(ctx context.Context, selector map[string]interface{}, skip, limit int) ([]*domain.Note, error) {
	query := map[string]interface{}{
		"selector": selector,
		"sort": []interface{}{
			map[string]string{"doc_type": "desc"},
			map[string]string{"updated_at": "desc"},
		},
		"skip":  skip,
		"limit": limit,
	}

	rows := r.db.Find(ctx, query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer rows.Close()

	notes := make([]*domain.Note, 0, limit)
	for rows.Next() {
		var doc noteDoc
		if err := rows.ScanDoc(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}

		note, err := docToNote(&doc)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notes: %w", err)
	}

	return notes, nil
}

func (r *CouchDBNoteRepository) count(ctx context.Context, selector map[string]interface{}) (int, error) {
	query := map[string]interface{}{
		"selector": selector,
		"fields":   []string{"_id"},
		"limit":    maxQueryRows,
	}

	rows := r.db.Find(ctx, query)
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to count notes: %w", err)
	}
	defer rows.Close()

	total := 0
	for rows.Next() {
		total++
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to count notes: %w", err)
	}

	return total, nil
}

func accessibleSelector(userID string) map[string]interface{} {
	return map[string]interface{}{
		"doc_type":   docTypeNote,
		"updated_at": map[string]interface{}{"$gt": nil},
		"$or": []interface{}{
			map[string]interface{}{"owner_id": userID},
			map[string]interface{}{"shared_with": map[string]interface{}{"$elemMatch": map[string]interface{}{"$eq": userID}}},
		},
	}
}

// searchSelector matches readable notes where any term occurs, case
// insensitively, in the title, the content or one of the tags.
func searchSelector(userID string, terms []string) map[string]interface{} {
	pattern := TermsPattern(terms)

	selector := accessibleSelector(userID)
	access := selector["$or"]
	delete(selector, "$or")

	selector["$and"] = []interface{}{
		map[string]interface{}{"$or": access},
		map[string]interface{}{"$or": []interface{}{
			map[string]interface{}{"title": map[string]interface{}{"$regex": pattern}},
			map[string]interface{}{"content": map[string]interface{}{"$regex": pattern}},
			map[string]interface{}{"tags": map[string]interface{}{"$elemMatch": map[string]interface{}{"$regex": pattern}}},
		}},
	}

	return selector
}

// TermsPattern builds a case-insensitive alternation of the literal terms.
func TermsPattern(terms []string) string {
	quoted := make([]string, 0, len(terms))
	for _, term := range terms {
		quoted = append(quoted, regexp.QuoteMeta(term))
	}
	return "(?i)(" + strings.Join(quoted, "|") + ")"
}

func noteToDoc(note *domain.Note) noteDoc {
	tags := note.Tags
	if tags == nil {
		tags = []string{}
	}
	shared := note.SharedWith
	if shared == nil {
		shared = []string{}
	}

	return noteDoc{
		ID:         noteDocID(note.ID),
		Rev:        note.Rev,
		DocType:    docTypeNote,
		NoteID:     note.ID,
		Title:      note.Title,
		Content:    note.Content,
		Tags:       tags,
		OwnerID:    note.OwnerID,
		SharedWith: shared,
		CreatedAt:  formatTime(note.CreatedAt),
		UpdatedAt:  formatTime(note.UpdatedAt),
	}
}

func docToNote(doc *noteDoc) (*domain.Note, error) {
	createdAt, err := parseTime(doc.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}

	updatedAt, err := parseTime(doc.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return &domain.Note{
		ID:         doc.NoteID,
		Rev:        doc.Rev,
		Title:      doc.Title,
		Content:    doc.Content,
		Tags:       doc.Tags,
		OwnerID:    doc.OwnerID,
		SharedWith: doc.SharedWith,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}, nil
}
