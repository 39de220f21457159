// Package storetest holds the behavior every docstore.Store backend must share.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/mmynk/wishlists/internal/docstore"
)

// Run exercises store against the docstore.Store contract.
// newStore must return an empty store; it is called once per subtest.
func Run(t *testing.T, newStore func(t *testing.T) docstore.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("CreateWithGeneratedID assigns distinct IDs", func(t *testing.T) {
		store := newStore(t)

		id1, err := store.CreateWithGeneratedID(ctx, "WishLists", docstore.Fields{"name": "a"})
		if err != nil {
			t.Fatalf("CreateWithGeneratedID failed: %v", err)
		}
		id2, err := store.CreateWithGeneratedID(ctx, "WishLists", docstore.Fields{"name": "a"})
		if err != nil {
			t.Fatalf("CreateWithGeneratedID failed: %v", err)
		}
		if id1 == "" || id2 == "" {
			t.Fatal("expected non-empty IDs")
		}
		if id1 == id2 {
			t.Errorf("expected distinct IDs, both were %s", id1)
		}
	})

	t.Run("GetOne returns created fields", func(t *testing.T) {
		store := newStore(t)

		id, err := store.CreateWithGeneratedID(ctx, "WishLists", docstore.Fields{
			"name":       "Birthday",
			"createdBy":  "alice",
			"sharedWith": []string{},
		})
		if err != nil {
			t.Fatalf("CreateWithGeneratedID failed: %v", err)
		}

		rec, err := store.GetOne(ctx, "WishLists", id)
		if err != nil {
			t.Fatalf("GetOne failed: %v", err)
		}
		if rec == nil {
			t.Fatal("expected record, got nil")
		}
		if rec.ID != id {
			t.Errorf("ID: got %s, want %s", rec.ID, id)
		}
		if rec.Fields["name"] != "Birthday" {
			t.Errorf("name: got %v, want Birthday", rec.Fields["name"])
		}
		if rec.Fields["createdBy"] != "alice" {
			t.Errorf("createdBy: got %v, want alice", rec.Fields["createdBy"])
		}
		shared, ok := rec.Fields["sharedWith"].([]any)
		if !ok || len(shared) != 0 {
			t.Errorf("sharedWith: got %#v, want empty array", rec.Fields["sharedWith"])
		}
	})

	t.Run("GetOne returns nil for missing record", func(t *testing.T) {
		store := newStore(t)

		rec, err := store.GetOne(ctx, "WishLists", "nonexistent-id")
		if err != nil {
			t.Fatalf("GetOne failed: %v", err)
		}
		if rec != nil {
			t.Errorf("expected nil record, got %+v", rec)
		}
	})

	t.Run("ListAll keeps insertion order and collections apart", func(t *testing.T) {
		store := newStore(t)

		var want []string
		for _, name := range []string{"first", "second", "third"} {
			id, err := store.CreateWithGeneratedID(ctx, "WishLists", docstore.Fields{"name": name})
			if err != nil {
				t.Fatalf("CreateWithGeneratedID failed: %v", err)
			}
			want = append(want, id)
		}
		if _, err := store.CreateWithGeneratedID(ctx, "Other", docstore.Fields{"name": "x"}); err != nil {
			t.Fatalf("CreateWithGeneratedID failed: %v", err)
		}

		records, err := store.ListAll(ctx, "WishLists")
		if err != nil {
			t.Fatalf("ListAll failed: %v", err)
		}
		if len(records) != len(want) {
			t.Fatalf("expected %d records, got %d", len(want), len(records))
		}
		for i, rec := range records {
			if rec.ID != want[i] {
				t.Errorf("record %d: got %s, want %s", i, rec.ID, want[i])
			}
		}
	})

	t.Run("ListAll on empty collection", func(t *testing.T) {
		store := newStore(t)

		records, err := store.ListAll(ctx, "WishLists")
		if err != nil {
			t.Fatalf("ListAll failed: %v", err)
		}
		if len(records) != 0 {
			t.Errorf("expected no records, got %d", len(records))
		}
	})

	t.Run("UpdateFields merges only the given fields", func(t *testing.T) {
		store := newStore(t)

		id, err := store.CreateWithGeneratedID(ctx, "WishLists", docstore.Fields{
			"name":      "Old",
			"createdBy": "alice",
			"items":     []any{map[string]any{"id": "1", "name": "milk"}},
		})
		if err != nil {
			t.Fatalf("CreateWithGeneratedID failed: %v", err)
		}

		if err := store.UpdateFields(ctx, "WishLists", id, docstore.Fields{"name": "New"}); err != nil {
			t.Fatalf("UpdateFields failed: %v", err)
		}

		rec, err := store.GetOne(ctx, "WishLists", id)
		if err != nil || rec == nil {
			t.Fatalf("GetOne failed: %v", err)
		}
		if rec.Fields["name"] != "New" {
			t.Errorf("name: got %v, want New", rec.Fields["name"])
		}
		if rec.Fields["createdBy"] != "alice" {
			t.Errorf("createdBy changed: %v", rec.Fields["createdBy"])
		}
		items, ok := rec.Fields["items"].([]any)
		if !ok || len(items) != 1 {
			t.Errorf("items changed: %#v", rec.Fields["items"])
		}
	})

	t.Run("UpdateFields replaces arrays whole", func(t *testing.T) {
		store := newStore(t)

		id, err := store.CreateWithGeneratedID(ctx, "WishLists", docstore.Fields{
			"items": []any{
				map[string]any{"id": "1", "name": "milk"},
				map[string]any{"id": "2", "name": "eggs"},
			},
		})
		if err != nil {
			t.Fatalf("CreateWithGeneratedID failed: %v", err)
		}

		err = store.UpdateFields(ctx, "WishLists", id, docstore.Fields{
			"items": []map[string]any{{"id": "3", "name": "tea"}},
		})
		if err != nil {
			t.Fatalf("UpdateFields failed: %v", err)
		}

		rec, err := store.GetOne(ctx, "WishLists", id)
		if err != nil || rec == nil {
			t.Fatalf("GetOne failed: %v", err)
		}
		items, ok := rec.Fields["items"].([]any)
		if !ok || len(items) != 1 {
			t.Fatalf("items: got %#v, want one element", rec.Fields["items"])
		}
		first, _ := items[0].(map[string]any)
		if first["id"] != "3" {
			t.Errorf("items[0]: got %#v", items[0])
		}
	})

	t.Run("UpdateFields on missing record returns ErrNotFound", func(t *testing.T) {
		store := newStore(t)

		err := store.UpdateFields(ctx, "WishLists", "nonexistent-id", docstore.Fields{"name": "x"})
		if !errors.Is(err, docstore.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("DeleteOne removes record and ignores missing", func(t *testing.T) {
		store := newStore(t)

		id, err := store.CreateWithGeneratedID(ctx, "WishLists", docstore.Fields{"name": "gone"})
		if err != nil {
			t.Fatalf("CreateWithGeneratedID failed: %v", err)
		}
		if err := store.DeleteOne(ctx, "WishLists", id); err != nil {
			t.Fatalf("DeleteOne failed: %v", err)
		}
		rec, err := store.GetOne(ctx, "WishLists", id)
		if err != nil {
			t.Fatalf("GetOne failed: %v", err)
		}
		if rec != nil {
			t.Error("expected record to be deleted")
		}
		if err := store.DeleteOne(ctx, "WishLists", id); err != nil {
			t.Errorf("second DeleteOne should succeed, got %v", err)
		}
	})
}
