package registry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/go-playground/assert/v2"

	"github.com/mmynk/wishlists/internal/docstore"
	"github.com/mmynk/wishlists/internal/docstore/memstore"
	"github.com/mmynk/wishlists/internal/identity"
	"github.com/mmynk/wishlists/internal/models"
)

var errBackend = errors.New("backend unavailable")

// countingStore wraps a memstore, counts calls, and can fail or run a hook
// while a ListAll is in flight.
type countingStore struct {
	*memstore.Store

	mu         sync.Mutex
	reads      int
	writes     int
	failReads  bool
	failWrites bool
	afterList  func()
}

func newCountingStore() *countingStore {
	return &countingStore{Store: memstore.New()}
}

func (s *countingStore) ListAll(ctx context.Context, collection string) ([]docstore.Record, error) {
	s.mu.Lock()
	s.reads++
	fail := s.failReads
	hook := s.afterList
	s.afterList = nil
	s.mu.Unlock()

	if fail {
		return nil, errBackend
	}
	records, err := s.Store.ListAll(ctx, collection)
	if hook != nil {
		hook()
	}
	return records, err
}

func (s *countingStore) write() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if s.failWrites {
		return errBackend
	}
	return nil
}

func (s *countingStore) CreateWithGeneratedID(ctx context.Context, collection string, fields docstore.Fields) (string, error) {
	if err := s.write(); err != nil {
		return "", err
	}
	return s.Store.CreateWithGeneratedID(ctx, collection, fields)
}

func (s *countingStore) UpdateFields(ctx context.Context, collection, id string, fields docstore.Fields) error {
	if err := s.write(); err != nil {
		return err
	}
	return s.Store.UpdateFields(ctx, collection, id, fields)
}

func (s *countingStore) DeleteOne(ctx context.Context, collection, id string) error {
	if err := s.write(); err != nil {
		return err
	}
	return s.Store.DeleteOne(ctx, collection, id)
}

func (s *countingStore) counts() (reads, writes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads, s.writes
}

func (s *countingStore) seed(t *testing.T, name, owner string, sharedWith ...string) string {
	t.Helper()
	if sharedWith == nil {
		sharedWith = []string{}
	}
	id, err := s.Store.CreateWithGeneratedID(context.Background(), models.WishlistCollection, docstore.Fields{
		models.FieldName:       name,
		models.FieldCreatedBy:  owner,
		models.FieldSharedWith: sharedWith,
	})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	return id
}

func (s *countingStore) wishlists(t *testing.T) []models.Wishlist {
	t.Helper()
	records, err := s.Store.ListAll(context.Background(), models.WishlistCollection)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	out := make([]models.Wishlist, 0, len(records))
	for _, rec := range records {
		w, err := models.WishlistFromRecord(rec)
		if err != nil {
			t.Fatalf("WishlistFromRecord failed: %v", err)
		}
		out = append(out, w)
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mounted returns a registry mounted for principal, or signed out when principal is "".
func mounted(t *testing.T, store docstore.Store, principal string) (*Registry, *identity.Local) {
	t.Helper()

	ident := identity.NewLocal()
	if principal != "" {
		ident.SignIn(identity.Principal{ID: principal})
	}
	reg := New(store, ident, discardLogger())
	if err := reg.Mount(context.Background()); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	t.Cleanup(reg.Unmount)
	return reg, ident
}

func ids(lists []models.Wishlist) []string {
	out := make([]string, len(lists))
	for i, w := range lists {
		out[i] = w.ID
	}
	return out
}

func TestPartition(t *testing.T) {
	lists := []models.Wishlist{
		{ID: "w1", CreatedBy: "alice", SharedWith: []string{}},
		{ID: "w2", CreatedBy: "bob", SharedWith: []string{"alice"}},
		{ID: "w3", CreatedBy: "carol", SharedWith: []string{"bob"}},
		{ID: "w4", CreatedBy: "alice", SharedWith: []string{"alice", "bob"}},
		{ID: "w5", CreatedBy: "dave"},
	}

	tests := []struct {
		principal  string
		wantOwned  []string
		wantShared []string
	}{
		{principal: "alice", wantOwned: []string{"w1", "w4"}, wantShared: []string{"w2"}},
		{principal: "bob", wantOwned: []string{"w2"}, wantShared: []string{"w3", "w4"}},
		{principal: "dave", wantOwned: []string{"w5"}, wantShared: []string{}},
		{principal: "erin", wantOwned: []string{}, wantShared: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.principal, func(t *testing.T) {
			owned, shared := Partition(lists, tt.principal)
			assert.Equal(t, tt.wantOwned, ids(owned))
			assert.Equal(t, tt.wantShared, ids(shared))

			// Owned and shared never overlap.
			for _, w := range owned {
				for _, s := range shared {
					if w.ID == s.ID {
						t.Errorf("%s is both owned and shared", w.ID)
					}
				}
			}
		})
	}
}

func TestLoadPartitionsAndIsIdempotent(t *testing.T) {
	store := newCountingStore()
	w1 := store.seed(t, "Birthday", "alice")
	w2 := store.seed(t, "Camping", "bob", "alice")
	store.seed(t, "Private", "carol")

	reg, _ := mounted(t, store, "alice")

	first := reg.View()
	assert.Equal(t, true, first.SignedIn)
	assert.Equal(t, true, first.Loaded)
	assert.Equal(t, []string{w1}, ids(first.Owned))
	assert.Equal(t, []string{w2}, ids(first.Shared))

	if err := reg.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	assert.Equal(t, first, reg.View())
}

func TestSignedOut(t *testing.T) {
	store := newCountingStore()
	store.seed(t, "Birthday", "alice")

	reg, _ := mounted(t, store, "")

	view := reg.View()
	assert.Equal(t, false, view.SignedIn)
	assert.Equal(t, 0, len(view.Owned))
	assert.Equal(t, 0, len(view.Shared))

	_, err := reg.Create(context.Background(), "Books")
	if !errors.Is(err, models.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	assert.Equal(t, models.ErrNotAuthenticated.Error(), reg.View().Notice)

	reads, writes := store.counts()
	assert.Equal(t, 0, reads)
	assert.Equal(t, 0, writes)
}

func TestCreate(t *testing.T) {
	store := newCountingStore()
	reg, _ := mounted(t, store, "alice")

	var navigated []string
	reg.OnNavigate(func(id string) { navigated = append(navigated, id) })

	reg.SetCreateDraft("Birthday")
	assert.Equal(t, "Birthday", reg.View().Create.Draft)

	id, err := reg.Create(context.Background(), "Birthday")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	view := reg.View()
	assert.Equal(t, []string{id}, ids(view.Owned))
	assert.Equal(t, "Birthday", view.Owned[0].Name)
	assert.Equal(t, "", view.Create.Draft)
	assert.Equal(t, []string{id}, navigated)

	stored := store.wishlists(t)
	assert.Equal(t, 1, len(stored))
	assert.Equal(t, id, stored[0].ID)
	assert.Equal(t, "alice", stored[0].CreatedBy)
	assert.Equal(t, []string{}, stored[0].SharedWith)
}

func TestCreateRejectsEmptyName(t *testing.T) {
	store := newCountingStore()
	reg, _ := mounted(t, store, "alice")
	_, writesBefore := store.counts()

	_, err := reg.Create(context.Background(), "")
	if !errors.Is(err, models.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if !errors.Is(err, models.ErrValidation) {
		t.Error("expected a validation error")
	}
	_, writes := store.counts()
	assert.Equal(t, writesBefore, writes)
}

func TestDuplicateNames(t *testing.T) {
	ctx := context.Background()
	store := newCountingStore()
	books := store.seed(t, "Books", "alice")
	games := store.seed(t, "Games", "alice")
	store.seed(t, "Toys", "bob")

	alice, _ := mounted(t, store, "alice")
	bob, _ := mounted(t, store, "bob")

	t.Run("create with own name fails without writing", func(t *testing.T) {
		_, before := store.counts()
		_, err := alice.Create(ctx, "Books")
		if !errors.Is(err, models.ErrDuplicateName) {
			t.Fatalf("expected ErrDuplicateName, got %v", err)
		}
		_, after := store.counts()
		assert.Equal(t, before, after)
		assert.Equal(t, models.ErrDuplicateName.Error(), alice.View().Notice)
		alice.DismissNotice()
		assert.Equal(t, "", alice.View().Notice)
	})

	t.Run("create with another principal's name succeeds", func(t *testing.T) {
		if _, err := bob.Create(ctx, "Books"); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	})

	t.Run("rename to own name fails and stays in rename mode", func(t *testing.T) {
		if err := alice.BeginRename(games); err != nil {
			t.Fatalf("BeginRename failed: %v", err)
		}
		_, before := store.counts()

		err := alice.Rename(ctx, games, "Books")
		if !errors.Is(err, models.ErrDuplicateName) {
			t.Fatalf("expected ErrDuplicateName, got %v", err)
		}
		_, after := store.counts()
		assert.Equal(t, before, after)
		assert.Equal(t, EditState{Mode: Renaming, Draft: "Books"}, alice.State(games))
		assert.Equal(t, RenameState{ID: games, Draft: "Books"}, alice.View().Rename)
	})

	t.Run("rename to another principal's name succeeds", func(t *testing.T) {
		if err := alice.Rename(ctx, games, "Toys"); err != nil {
			t.Fatalf("Rename failed: %v", err)
		}
		assert.Equal(t, Idle, alice.State(games).Mode)
	})

	t.Run("rename to its own current name succeeds", func(t *testing.T) {
		if err := alice.BeginRename(books); err != nil {
			t.Fatalf("BeginRename failed: %v", err)
		}
		if err := alice.Rename(ctx, books, "Books"); err != nil {
			t.Fatalf("Rename failed: %v", err)
		}
	})
}

func TestRename(t *testing.T) {
	ctx := context.Background()
	store := newCountingStore()
	id := store.seed(t, "Old", "alice")
	reg, _ := mounted(t, store, "alice")

	err := reg.Rename(ctx, id, "New")
	if !errors.Is(err, models.ErrNotRenaming) {
		t.Fatalf("expected ErrNotRenaming, got %v", err)
	}

	if err := reg.BeginRename(id); err != nil {
		t.Fatalf("BeginRename failed: %v", err)
	}
	assert.Equal(t, EditState{Mode: Renaming, Draft: "Old"}, reg.State(id))

	if err := reg.SetRenameDraft("Ne"); err != nil {
		t.Fatalf("SetRenameDraft failed: %v", err)
	}
	assert.Equal(t, "Ne", reg.View().Rename.Draft)

	if err := reg.Rename(ctx, id, ""); !errors.Is(err, models.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	assert.Equal(t, Renaming, reg.State(id).Mode)

	if err := reg.Rename(ctx, id, "New"); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}

	view := reg.View()
	assert.Equal(t, "New", view.Owned[0].Name)
	assert.Equal(t, RenameState{}, view.Rename)
	assert.Equal(t, "New", store.wishlists(t)[0].Name)
	assert.Equal(t, "alice", store.wishlists(t)[0].CreatedBy)
}

func TestCancelRename(t *testing.T) {
	store := newCountingStore()
	id := store.seed(t, "Old", "alice")
	reg, _ := mounted(t, store, "alice")

	if err := reg.BeginRename(id); err != nil {
		t.Fatalf("BeginRename failed: %v", err)
	}
	reg.CancelRename()

	assert.Equal(t, RenameState{}, reg.View().Rename)
	if err := reg.SetRenameDraft("x"); !errors.Is(err, models.ErrNotRenaming) {
		t.Errorf("expected ErrNotRenaming, got %v", err)
	}
}

func TestOnlyOwnerCanEdit(t *testing.T) {
	store := newCountingStore()
	shared := store.seed(t, "Camping", "bob", "alice")
	reg, _ := mounted(t, store, "alice")

	if err := reg.BeginRename(shared); !errors.Is(err, models.ErrNotOwner) {
		t.Errorf("BeginRename: expected ErrNotOwner, got %v", err)
	}
	if err := reg.RequestDelete(shared); !errors.Is(err, models.ErrNotOwner) {
		t.Errorf("RequestDelete: expected ErrNotOwner, got %v", err)
	}
	assert.Equal(t, Idle, reg.State(shared).Mode)
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	ctx := context.Background()
	store := newCountingStore()
	keep := store.seed(t, "Keep", "alice")
	drop := store.seed(t, "Drop", "alice")
	reg, _ := mounted(t, store, "alice")

	if err := reg.ConfirmDelete(ctx, drop); !errors.Is(err, models.ErrNotPendingDelete) {
		t.Fatalf("expected ErrNotPendingDelete, got %v", err)
	}

	// Request then cancel leaves the record alone.
	if err := reg.RequestDelete(keep); err != nil {
		t.Fatalf("RequestDelete failed: %v", err)
	}
	assert.Equal(t, DeleteConfirmState{ID: keep}, reg.View().DeleteConfirm)
	reg.CancelDelete()
	assert.Equal(t, DeleteConfirmState{}, reg.View().DeleteConfirm)
	assert.Equal(t, 2, len(store.wishlists(t)))

	// Request alone does not delete.
	if err := reg.RequestDelete(drop); err != nil {
		t.Fatalf("RequestDelete failed: %v", err)
	}
	assert.Equal(t, 2, len(store.wishlists(t)))
	assert.Equal(t, 2, len(reg.View().Owned))

	if err := reg.ConfirmDelete(ctx, drop); err != nil {
		t.Fatalf("ConfirmDelete failed: %v", err)
	}
	assert.Equal(t, []string{keep}, ids(store.wishlists(t)))
	assert.Equal(t, []string{keep}, ids(reg.View().Owned))
	assert.Equal(t, Idle, reg.State(drop).Mode)
}

func TestEditStates(t *testing.T) {
	store := newCountingStore()
	a := store.seed(t, "A", "alice")
	b := store.seed(t, "B", "alice")
	reg, _ := mounted(t, store, "alice")

	// Rename on one id and pending delete on another coexist.
	if err := reg.BeginRename(a); err != nil {
		t.Fatalf("BeginRename failed: %v", err)
	}
	if err := reg.RequestDelete(b); err != nil {
		t.Fatalf("RequestDelete failed: %v", err)
	}
	view := reg.View()
	assert.Equal(t, a, view.Rename.ID)
	assert.Equal(t, b, view.DeleteConfirm.ID)

	// Only one id renames at a time.
	if err := reg.BeginRename(b); err != nil {
		t.Fatalf("BeginRename failed: %v", err)
	}
	assert.Equal(t, Idle, reg.State(a).Mode)
	assert.Equal(t, Renaming, reg.State(b).Mode)
	assert.Equal(t, DeleteConfirmState{}, reg.View().DeleteConfirm)

	// A delete request replaces a rename on the same id.
	if err := reg.RequestDelete(b); err != nil {
		t.Fatalf("RequestDelete failed: %v", err)
	}
	assert.Equal(t, PendingDelete, reg.State(b).Mode)
	assert.Equal(t, RenameState{}, reg.View().Rename)
}

func TestIdentityChangeReloads(t *testing.T) {
	store := newCountingStore()
	aliceList := store.seed(t, "Alice's", "alice")
	bobList := store.seed(t, "Bob's", "bob")

	reg, ident := mounted(t, store, "alice")
	if err := reg.BeginRename(aliceList); err != nil {
		t.Fatalf("BeginRename failed: %v", err)
	}
	reg.SetCreateDraft("half typed")

	ident.SignIn(identity.Principal{ID: "bob"})

	view := reg.View()
	assert.Equal(t, []string{bobList}, ids(view.Owned))
	assert.Equal(t, RenameState{}, view.Rename)
	assert.Equal(t, "", view.Create.Draft)

	ident.SignOut()
	view = reg.View()
	assert.Equal(t, false, view.SignedIn)
	assert.Equal(t, 0, len(view.Owned))
}

func TestUnmountStopsReloads(t *testing.T) {
	store := newCountingStore()
	store.seed(t, "Bob's", "bob")

	reg, ident := mounted(t, store, "alice")
	reg.Unmount()
	readsBefore, _ := store.counts()

	ident.SignIn(identity.Principal{ID: "bob"})

	reads, _ := store.counts()
	assert.Equal(t, readsBefore, reads)
}

func TestStaleLoadDiscarded(t *testing.T) {
	ctx := context.Background()

	t.Run("unmounted while in flight", func(t *testing.T) {
		store := newCountingStore()
		first := store.seed(t, "First", "alice")
		reg, _ := mounted(t, store, "alice")

		store.seed(t, "Second", "alice")
		store.afterList = reg.Unmount

		if err := reg.Load(ctx); err != nil {
			t.Fatalf("Load failed: %v", err)
		}

		reg.mu.Lock()
		owned := ids(reg.owned)
		reg.mu.Unlock()
		assert.Equal(t, []string{first}, owned)
	})

	t.Run("principal changed while in flight", func(t *testing.T) {
		store := newCountingStore()
		store.seed(t, "Alice's", "alice")
		bobList := store.seed(t, "Bob's", "bob")

		ident := identity.NewLocal()
		ident.SignIn(identity.Principal{ID: "alice"})
		reg := New(store, ident, discardLogger())
		t.Cleanup(reg.Unmount)
		if err := reg.Mount(ctx); err != nil {
			t.Fatalf("Mount failed: %v", err)
		}

		// The switch to bob reloads synchronously inside the hook; alice's
		// slower result must not overwrite it.
		store.afterList = func() { ident.SignIn(identity.Principal{ID: "bob"}) }
		if err := reg.Load(ctx); err != nil {
			t.Fatalf("Load failed: %v", err)
		}

		assert.Equal(t, []string{bobList}, ids(reg.View().Owned))
	})
}

// Two creates of the same name by the same principal can both pass the
// duplicate check when each reads before the other writes. This is accepted.
func TestCreateRaceIsAccepted(t *testing.T) {
	ctx := context.Background()
	store := newCountingStore()
	first, _ := mounted(t, store, "alice")
	second, _ := mounted(t, store, "alice")

	var secondErr error
	store.afterList = func() {
		_, secondErr = second.Create(ctx, "Books")
	}

	if _, err := first.Create(ctx, "Books"); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	if secondErr != nil {
		t.Fatalf("second Create failed: %v", secondErr)
	}

	names := 0
	for _, w := range store.wishlists(t) {
		if w.Name == "Books" && w.CreatedBy == "alice" {
			names++
		}
	}
	assert.Equal(t, 2, names)
}

func TestStoreFailureLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	store := newCountingStore()
	id := store.seed(t, "Birthday", "alice")
	reg, _ := mounted(t, store, "alice")
	before := reg.View()

	t.Run("create", func(t *testing.T) {
		store.failWrites = true
		defer func() { store.failWrites = false }()

		reg.SetCreateDraft("Books")
		_, err := reg.Create(ctx, "Books")
		if !models.IsStoreError(err) {
			t.Fatalf("expected store error, got %v", err)
		}
		view := reg.View()
		assert.Equal(t, before.Owned, view.Owned)
		assert.Equal(t, "Books", view.Create.Draft)
		assert.Equal(t, err.Error(), view.Notice)
		reg.SetCreateDraft("")
	})

	t.Run("rename", func(t *testing.T) {
		if err := reg.BeginRename(id); err != nil {
			t.Fatalf("BeginRename failed: %v", err)
		}
		store.failWrites = true
		defer func() { store.failWrites = false }()

		err := reg.Rename(ctx, id, "Holidays")
		if !models.IsStoreError(err) {
			t.Fatalf("expected store error, got %v", err)
		}
		assert.Equal(t, "Birthday", reg.View().Owned[0].Name)
		assert.Equal(t, Renaming, reg.State(id).Mode)
		reg.CancelRename()
	})

	t.Run("delete", func(t *testing.T) {
		if err := reg.RequestDelete(id); err != nil {
			t.Fatalf("RequestDelete failed: %v", err)
		}
		store.failWrites = true
		defer func() { store.failWrites = false }()

		err := reg.ConfirmDelete(ctx, id)
		if !models.IsStoreError(err) {
			t.Fatalf("expected store error, got %v", err)
		}
		assert.Equal(t, []string{id}, ids(reg.View().Owned))
		assert.Equal(t, PendingDelete, reg.State(id).Mode)
		reg.CancelDelete()
	})

	t.Run("load", func(t *testing.T) {
		store.failReads = true
		defer func() { store.failReads = false }()

		err := reg.Load(ctx)
		if !errors.Is(err, errBackend) {
			t.Fatalf("expected backend error, got %v", err)
		}
		assert.Equal(t, before.Owned, reg.View().Owned)
	})

	t.Run("duplicate check", func(t *testing.T) {
		store.failReads = true
		defer func() { store.failReads = false }()

		_, writesBefore := store.counts()
		_, err := reg.Create(ctx, "Books")
		if !models.IsStoreError(err) {
			t.Fatalf("expected store error, got %v", err)
		}
		_, writes := store.counts()
		assert.Equal(t, writesBefore, writes)
	})
}

func TestCreateAfterFailedLoad(t *testing.T) {
	ctx := context.Background()
	store := newCountingStore()
	store.failReads = true

	ident := identity.NewLocal()
	ident.SignIn(identity.Principal{ID: "alice"})
	reg := New(store, ident, discardLogger())
	t.Cleanup(reg.Unmount)

	if err := reg.Mount(ctx); !models.IsStoreError(err) {
		t.Fatalf("expected store error from Mount, got %v", err)
	}
	assert.NotEqual(t, "", reg.View().Notice)
	store.failReads = false

	var navigated []string
	reg.OnNavigate(func(id string) { navigated = append(navigated, id) })

	reg.SetCreateDraft("Books")
	id, err := reg.Create(ctx, "Books")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	view := reg.View()
	assert.Equal(t, []string{id}, ids(view.Owned))
	assert.Equal(t, []string{id}, navigated)
	assert.Equal(t, "", view.Create.Draft)
	assert.Equal(t, "", view.Notice)
	assert.Equal(t, 1, len(store.wishlists(t)))
}

func TestCreateBeforeMount(t *testing.T) {
	store := newCountingStore()
	ident := identity.NewLocal()
	ident.SignIn(identity.Principal{ID: "alice"})
	reg := New(store, ident, discardLogger())

	var navigated []string
	reg.OnNavigate(func(id string) { navigated = append(navigated, id) })

	id, err := reg.Create(context.Background(), "Books")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	assert.Equal(t, []string{id}, navigated)
	assert.Equal(t, []string{id}, ids(reg.View().Owned))
}
