// Package memstore is an in-memory implementation of docstore.Store and
// auth.UserStorage. Contents live only as long as the process.
package memstore

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/mmynk/wishlists/internal/auth"
	"github.com/mmynk/wishlists/internal/docstore"
	"github.com/mmynk/wishlists/internal/models"
)

var (
	_ docstore.Store   = (*Store)(nil)
	_ auth.UserStorage = (*Store)(nil)
)

type collection struct {
	order []string
	docs  map[string]docstore.Fields
}

// Store keeps documents and users in maps guarded by one mutex.
// Fields are normalized through JSON on the way in, and every read returns a
// fresh copy, so callers never share memory with the store.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
	users       map[string]models.User
}

// New returns an empty store.
func New() *Store {
	return &Store{
		collections: make(map[string]*collection),
		users:       make(map[string]models.User),
	}
}

// Close is a no-op; it lets the server treat every backend the same way.
func (s *Store) Close() error {
	return nil
}

func (s *Store) coll(name string) *collection {
	c, ok := s.collections[name]
	if !ok {
		c = &collection{docs: make(map[string]docstore.Fields)}
		s.collections[name] = c
	}
	return c
}

// copyFields returns a deep copy of stored fields. Stored fields are already
// normalized, so Normalize cannot fail on them.
func copyFields(f docstore.Fields) docstore.Fields {
	out, err := docstore.Normalize(f)
	if err != nil {
		panic(fmt.Sprintf("memstore: stored fields are not JSON: %v", err))
	}
	return out
}

// ListAll returns the collection in insertion order.
func (s *Store) ListAll(ctx context.Context, name string) ([]docstore.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return nil, nil
	}
	out := make([]docstore.Record, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, docstore.Record{ID: id, Fields: copyFields(c.docs[id])})
	}
	return out, nil
}

// GetOne returns the document or nil, nil when absent.
func (s *Store) GetOne(ctx context.Context, name, id string) (*docstore.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return nil, nil
	}
	f, ok := c.docs[id]
	if !ok {
		return nil, nil
	}
	return &docstore.Record{ID: id, Fields: copyFields(f)}, nil
}

// CreateWithGeneratedID stores fields under a new UUID.
func (s *Store) CreateWithGeneratedID(ctx context.Context, name string, fields docstore.Fields) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	norm, err := docstore.Normalize(fields)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	c := s.coll(name)
	c.order = append(c.order, id)
	c.docs[id] = norm
	return id, nil
}

// UpdateFields replaces the given top-level fields.
func (s *Store) UpdateFields(ctx context.Context, name, id string, fields docstore.Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	norm, err := docstore.Normalize(fields)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		return fmt.Errorf("%w: %s/%s", docstore.ErrNotFound, name, id)
	}
	cur, ok := c.docs[id]
	if !ok {
		return fmt.Errorf("%w: %s/%s", docstore.ErrNotFound, name, id)
	}
	c.docs[id] = docstore.Merge(cur, norm)
	return nil
}

// DeleteOne removes the document if present.
func (s *Store) DeleteOne(ctx context.Context, name, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		return nil
	}
	if _, ok := c.docs[id]; !ok {
		return nil
	}
	delete(c.docs, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// CreateUser stores a user; emails are unique and case-insensitive.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for _, u := range s.users {
		if u.Email == user.Email {
			return auth.ErrEmailExists
		}
	}
	s.users[user.ID] = *user
	return nil
}

// GetUserByEmail returns nil, nil when no user has the email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			out := u
			return &out, nil
		}
	}
	return nil, nil
}

// GetUserByID returns nil, nil when the user does not exist.
func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}
