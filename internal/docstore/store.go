// Package docstore provides abstractions for a schema-less document store.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned by UpdateFields when the target record does not exist.
var ErrNotFound = errors.New("document not found")

// Fields is the schema-less body of a record.
type Fields map[string]any

// Record is one document together with its store-assigned ID.
type Record struct {
	ID     string `json:"id"`
	Fields Fields `json:"fields"`
}

// Store defines the document operations the wishlist views consume.
// Every call is an independent request; no operation spans records and none
// is transactional with another.
type Store interface {
	// ListAll returns every record in the collection. No pagination, no filtering.
	ListAll(ctx context.Context, collection string) ([]Record, error)

	// GetOne returns the record with the given ID.
	// Returns nil and no error if the record does not exist.
	GetOne(ctx context.Context, collection, id string) (*Record, error)

	// CreateWithGeneratedID persists a new record and returns the ID the store assigned.
	CreateWithGeneratedID(ctx context.Context, collection string, fields Fields) (string, error)

	// UpdateFields replaces the given top-level fields and leaves the rest untouched.
	// Returns ErrNotFound if the record does not exist.
	UpdateFields(ctx context.Context, collection, id string, fields Fields) error

	// DeleteOne removes a record. Deleting a missing record is not an error.
	DeleteOne(ctx context.Context, collection, id string) error
}

// Normalize round-trips fields through JSON so that every backend hands back
// the same shapes: objects as map[string]any, arrays as []any, numbers as float64.
func Normalize(fields Fields) (Fields, error) {
	if fields == nil {
		return Fields{}, nil
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode fields: %w", err)
	}
	out := Fields{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode fields: %w", err)
	}
	return out, nil
}

// Merge returns a copy of base with every key of patch replacing the key in base.
// Values are replaced whole; nested objects are not merged.
func Merge(base, patch Fields) Fields {
	out := make(Fields, len(base)+len(patch))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}
