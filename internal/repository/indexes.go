package repository

import (
	"context"
	"fmt"

	"github.com/go-kivik/kivik/v4"
)

// ensureIndexes creates each named Mango index in its own design document.
// CouchDB treats an identical index definition as a no-op.
func ensureIndexes(ctx context.Context, db *kivik.DB, indexes map[string]interface{}) error {
	for name, index := range indexes {
		if err := db.CreateIndex(ctx, "_design/"+name, name, index); err != nil {
			return fmt.Errorf("failed to create index %s: %w", name, err)
		}
	}
	return nil
}
