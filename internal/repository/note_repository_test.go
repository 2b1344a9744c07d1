package repository

import (
	"regexp"
	"testing"
	"time"

	"notes-api/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTermsPattern(t *testing.T) {
	pattern := TermsPattern([]string{"go", "c++", "a.b"})
	assert.Equal(t, `(?i)(go|c\+\+|a\.b)`, pattern)

	re := regexp.MustCompile(pattern)
	tests := []struct {
		input string
		want  bool
	}{
		{"Learning GO today", true},
		{"notes on C++", true},
		{"a.b", true},
		{"axb", false},
		{"rust", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, re.MatchString(tt.input), tt.input)
	}
}

func TestAccessibleSelector(t *testing.T) {
	sel := accessibleSelector("u1")

	assert.Equal(t, docTypeNote, sel["doc_type"])
	or, ok := sel["$or"].([]interface{})
	require.True(t, ok)
	assert.Len(t, or, 2)
	assert.Equal(t, map[string]interface{}{"owner_id": "u1"}, or[0])
}

func TestSearchSelectorKeepsAccessRestriction(t *testing.T) {
	sel := searchSelector("u1", []string{"meeting"})

	_, hasTopOr := sel["$or"]
	assert.False(t, hasTopOr)

	and, ok := sel["$and"].([]interface{})
	require.True(t, ok)
	require.Len(t, and, 2)

	access := and[0].(map[string]interface{})["$or"]
	assert.Equal(t, accessibleSelector("u1")["$or"], access)
}

func TestNoteDocRoundTrip(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 30, 0, 123000, time.UTC)
	note := &domain.Note{
		ID:         "n1",
		Rev:        "1-abc",
		Title:      "Title",
		Content:    "Body",
		Tags:       []string{"work"},
		OwnerID:    "owner",
		SharedWith: []string{"alice"},
		CreatedAt:  now,
		UpdatedAt:  now.Add(time.Minute),
	}

	doc := noteToDoc(note)
	assert.Equal(t, "note:n1", doc.ID)
	assert.Equal(t, docTypeNote, doc.DocType)

	back, err := docToNote(&doc)
	require.NoError(t, err)
	assert.Equal(t, note, back)
}

func TestNoteToDocNeverStoresNullArrays(t *testing.T) {
	doc := noteToDoc(&domain.Note{ID: "n1"})
	assert.NotNil(t, doc.Tags)
	assert.NotNil(t, doc.SharedWith)
}

func TestFormatTimeSortsLexically(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	earlier := formatTime(base.Add(100 * time.Millisecond))
	later := formatTime(base.Add(900 * time.Millisecond))
	assert.Less(t, earlier, later)
	assert.Len(t, earlier, len(later))
}
