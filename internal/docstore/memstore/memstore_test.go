package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/assert/v2"

	"github.com/mmynk/wishlists/internal/auth"
	"github.com/mmynk/wishlists/internal/docstore"
	"github.com/mmynk/wishlists/internal/docstore/storetest"
	"github.com/mmynk/wishlists/internal/models"
)

func TestMemStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) docstore.Store {
		return New()
	})
}

func TestReadsReturnCopies(t *testing.T) {
	ctx := context.Background()
	s := New()

	id, err := s.CreateWithGeneratedID(ctx, "WishLists", docstore.Fields{"name": "a"})
	if err != nil {
		t.Fatalf("CreateWithGeneratedID failed: %v", err)
	}

	rec, _ := s.GetOne(ctx, "WishLists", id)
	rec.Fields["name"] = "mutated"

	again, _ := s.GetOne(ctx, "WishLists", id)
	assert.Equal(t, "a", again.Fields["name"])
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := New()

	u := models.NewUser("Alice@Example.com", "Alice", "hash")
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	got, err := s.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected user, got nil")
	}
	assert.Equal(t, u.ID, got.ID)

	dup := models.NewUser("alice@example.com", "Other", "hash")
	if err := s.CreateUser(ctx, dup); !errors.Is(err, auth.ErrEmailExists) {
		t.Errorf("expected ErrEmailExists, got %v", err)
	}

	missing, err := s.GetUserByID(ctx, "nope")
	if err != nil || missing != nil {
		t.Errorf("expected nil, nil for missing user, got %v, %v", missing, err)
	}
}
