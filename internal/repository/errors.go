package repository

import (
	"errors"
	"time"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("email already exists")
	ErrNoteNotFound = errors.New("note not found")
	// ErrRevisionConflict means the document changed since it was read.
	ErrRevisionConflict = errors.New("document update conflict")
)

const (
	docTypeUser  = "user"
	docTypeEmail = "email"
	docTypeNote  = "note"

	// Mango queries default to 25 rows; counts and lookups pass this instead.
	maxQueryRows = 100000

	// Fixed-width UTC timestamps so that string order equals time order.
	timeLayout = "2006-01-02T15:04:05.000000Z"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
