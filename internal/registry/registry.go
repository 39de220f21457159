// Package registry holds the state behind the wishlist collection view: the
// signed-in principal's owned and shared wishlists and the inline create,
// rename, and delete flows.
//
// A Registry keeps no durable state. Every Load is a full re-fetch of the
// WishLists collection; writes patch the local view optimistically once the
// store accepts them and leave it untouched when the store fails.
package registry

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mmynk/wishlists/internal/docstore"
	"github.com/mmynk/wishlists/internal/identity"
	"github.com/mmynk/wishlists/internal/models"
)

// CreateState is the new-wishlist input.
type CreateState struct {
	Draft string
}

// RenameState names the wishlist in rename mode. ID is empty when none is.
type RenameState struct {
	ID    string
	Draft string
}

// DeleteConfirmState names the wishlist awaiting delete confirmation.
type DeleteConfirmState struct {
	ID string
}

// ListView is the render-ready state of the collection view.
type ListView struct {
	// SignedIn is false when the view should show a sign-in prompt instead of lists.
	SignedIn bool

	// Loaded is true once a load has been applied for the current principal.
	Loaded bool

	Owned         []models.Wishlist
	Shared        []models.Wishlist
	Create        CreateState
	Rename        RenameState
	DeleteConfirm DeleteConfirmState

	// Notice is the last failure to show the user, or "".
	Notice string
}

// Registry is safe for concurrent use. Its mutex is never held across a
// store call.
type Registry struct {
	store  docstore.Store
	ident  identity.Provider
	logger *slog.Logger

	mu          sync.Mutex
	navigate    func(id string)
	mountCtx    context.Context
	unsubscribe func()
	unmounted   bool
	generation  uint64

	principal string
	signedIn  bool
	loaded    bool
	owned     []models.Wishlist
	shared    []models.Wishlist
	draft     string
	edits     edits
	notice    string
}

// New returns a Registry reading from store as the principal reported by ident.
func New(store docstore.Store, ident identity.Provider, logger *slog.Logger) *Registry {
	return &Registry{
		store:  store,
		ident:  ident,
		logger: logger,
		owned:  []models.Wishlist{},
		shared: []models.Wishlist{},
		edits:  edits{},
	}
}

// OnNavigate sets the callback invoked with a wishlist id after it is created.
func (r *Registry) OnNavigate(fn func(id string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.navigate = fn
}

// Mount subscribes to identity changes and loads. Each later identity change
// reloads on the goroutine that made the change, using ctx.
func (r *Registry) Mount(ctx context.Context) error {
	r.mu.Lock()
	r.unmounted = false
	r.mountCtx = ctx
	if r.unsubscribe == nil {
		r.unsubscribe = r.ident.Subscribe(r.identityChanged)
	}
	r.mu.Unlock()

	return r.Load(ctx)
}

// Unmount drops the identity subscription. Loads and writes that finish
// afterwards no longer touch the view.
func (r *Registry) Unmount() {
	r.mu.Lock()
	unsubscribe := r.unsubscribe
	r.unsubscribe = nil
	r.unmounted = true
	r.generation++
	r.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (r *Registry) identityChanged(identity.Principal, bool) {
	r.mu.Lock()
	ctx := r.mountCtx
	r.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := r.Load(ctx); err != nil {
		r.logger.Warn("Reload after identity change failed", "error", err)
	}
}

// Load re-fetches the collection and partitions it for the current principal.
// Without a principal the lists are cleared and nothing is read. A result is
// dropped if a newer load started, the registry was unmounted, or the
// principal changed while the fetch was in flight.
func (r *Registry) Load(ctx context.Context) error {
	p, ok := r.ident.Current()

	r.mu.Lock()
	if r.unmounted {
		r.mu.Unlock()
		return nil
	}
	r.generation++
	gen := r.generation
	if !ok {
		r.resetLocked("", false)
		r.mu.Unlock()
		return nil
	}
	r.claimLocked(p.ID)
	r.mu.Unlock()

	lists, err := r.fetch(ctx, "load wishlists")

	cur, curOK := r.ident.Current()

	r.mu.Lock()
	defer r.mu.Unlock()

	if gen != r.generation || r.unmounted || !curOK || cur.ID != p.ID {
		r.logger.Debug("Discarding stale wishlist load", "principal", p.ID)
		return nil
	}
	if err != nil {
		r.notice = err.Error()
		return err
	}

	r.claimLocked(p.ID)
	r.owned, r.shared = Partition(lists, p.ID)
	r.loaded = true

	r.logger.Debug("Wishlists loaded",
		"principal", p.ID,
		"owned", len(r.owned),
		"shared", len(r.shared),
	)
	return nil
}

// resetLocked forgets everything tied to the previous principal.
func (r *Registry) resetLocked(principal string, signedIn bool) {
	r.principal = principal
	r.signedIn = signedIn
	r.loaded = false
	r.owned = []models.Wishlist{}
	r.shared = []models.Wishlist{}
	r.draft = ""
	r.edits = edits{}
	r.notice = ""
}

// fetch lists and decodes the whole collection.
func (r *Registry) fetch(ctx context.Context, op string) ([]models.Wishlist, error) {
	records, err := r.store.ListAll(ctx, models.WishlistCollection)
	if err != nil {
		r.logger.Warn("Store read failed", "op", op, "error", err)
		return nil, &models.StoreError{Op: op, Err: err}
	}

	lists := make([]models.Wishlist, 0, len(records))
	for _, rec := range records {
		w, err := models.WishlistFromRecord(rec)
		if err != nil {
			r.logger.Warn("Skipping malformed wishlist", "id", rec.ID, "error", err)
			continue
		}
		lists = append(lists, w)
	}
	return lists, nil
}

// fail records err as the notice and returns it.
func (r *Registry) fail(err error) error {
	r.mu.Lock()
	r.notice = err.Error()
	r.mu.Unlock()
	return err
}

// liveLocked reports whether results for principal may still be applied.
func (r *Registry) liveLocked(principal string) bool {
	return !r.unmounted && r.signedIn && r.principal == principal
}

// claimLocked makes principal the owner of the local state, dropping
// whatever belonged to someone else. A failed load leaves the claim in place.
func (r *Registry) claimLocked(principal string) {
	if !r.signedIn || r.principal != principal {
		r.resetLocked(principal, true)
	}
}

// settleLocked reports whether a completed write by principal may patch the
// local state, claiming it when no load has done so yet.
func (r *Registry) settleLocked(principal string) bool {
	if r.unmounted {
		return false
	}
	if cur, ok := r.ident.Current(); !ok || cur.ID != principal {
		return false
	}
	r.claimLocked(principal)
	return true
}

// SetCreateDraft updates the new-wishlist input.
func (r *Registry) SetCreateDraft(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.draft = name
}

// Create adds a wishlist named name owned by the current principal and
// returns its id. The duplicate-name check re-fetches the collection first;
// it is not atomic with the write, so two concurrent creates of the same name
// can both succeed.
func (r *Registry) Create(ctx context.Context, name string) (string, error) {
	p, ok := r.ident.Current()
	if !ok {
		return "", r.fail(models.ErrNotAuthenticated)
	}
	if name == "" {
		return "", r.fail(models.ErrEmptyName)
	}

	lists, err := r.fetch(ctx, "check wishlist names")
	if err != nil {
		return "", r.fail(err)
	}
	if nameTaken(lists, name, p.ID, "") {
		return "", r.fail(models.ErrDuplicateName)
	}

	id, err := r.store.CreateWithGeneratedID(ctx, models.WishlistCollection, models.NewWishlistFields(name, p.ID))
	if err != nil {
		r.logger.Warn("Store write failed", "op", "create wishlist", "error", err)
		return "", r.fail(&models.StoreError{Op: "create wishlist", Err: err})
	}

	r.logger.Info("Wishlist created", "id", id, "name", name, "principal", p.ID)

	r.mu.Lock()
	if !r.settleLocked(p.ID) {
		r.mu.Unlock()
		return id, nil
	}
	r.owned = append(r.owned, models.Wishlist{
		ID:         id,
		Name:       name,
		CreatedBy:  p.ID,
		SharedWith: []string{},
	})
	r.draft = ""
	r.notice = ""
	navigate := r.navigate
	r.mu.Unlock()

	if navigate != nil {
		navigate(id)
	}
	return id, nil
}

// ownedLocked returns the index of id in the owned list, or -1.
func (r *Registry) ownedLocked(id string) int {
	for i, w := range r.owned {
		if w.ID == id {
			return i
		}
	}
	return -1
}

// BeginRename puts an owned wishlist into rename mode with its current name
// as the draft. Any other wishlist leaves rename mode.
func (r *Registry) BeginRename(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.ownedLocked(id)
	if i < 0 {
		r.notice = models.ErrNotOwner.Error()
		return models.ErrNotOwner
	}
	r.edits.set(id, EditState{Mode: Renaming, Draft: r.owned[i].Name})
	return nil
}

// SetRenameDraft updates the draft of the wishlist in rename mode.
func (r *Registry) SetRenameDraft(draft string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, _, ok := r.edits.find(Renaming)
	if !ok {
		return models.ErrNotRenaming
	}
	r.edits[id] = EditState{Mode: Renaming, Draft: draft}
	return nil
}

// CancelRename leaves rename mode, dropping the target and the draft.
func (r *Registry) CancelRename() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.edits.clear(Renaming)
}

// Rename changes the name of the wishlist in rename mode. On a duplicate
// name the wishlist stays in rename mode with newName as the draft.
func (r *Registry) Rename(ctx context.Context, id, newName string) error {
	p, ok := r.ident.Current()
	if !ok {
		return r.fail(models.ErrNotAuthenticated)
	}

	r.mu.Lock()
	if r.edits.get(id).Mode != Renaming {
		r.notice = models.ErrNotRenaming.Error()
		r.mu.Unlock()
		return models.ErrNotRenaming
	}
	r.edits[id] = EditState{Mode: Renaming, Draft: newName}
	r.mu.Unlock()

	if newName == "" {
		return r.fail(models.ErrEmptyName)
	}

	lists, err := r.fetch(ctx, "check wishlist names")
	if err != nil {
		return r.fail(err)
	}
	if nameTaken(lists, newName, p.ID, id) {
		return r.fail(models.ErrDuplicateName)
	}

	err = r.store.UpdateFields(ctx, models.WishlistCollection, id, docstore.Fields{models.FieldName: newName})
	if err != nil {
		r.logger.Warn("Store write failed", "op", "rename wishlist", "id", id, "error", err)
		return r.fail(&models.StoreError{Op: "rename wishlist", Err: err})
	}

	r.logger.Info("Wishlist renamed", "id", id, "name", newName, "principal", p.ID)

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.settleLocked(p.ID) {
		return nil
	}
	if i := r.ownedLocked(id); i >= 0 {
		r.owned[i].Name = newName
	}
	if r.edits.get(id).Mode == Renaming {
		delete(r.edits, id)
	}
	r.notice = ""
	return nil
}

// RequestDelete asks for confirmation before deleting an owned wishlist.
// It replaces any rename in progress on the same id.
func (r *Registry) RequestDelete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ownedLocked(id) < 0 {
		r.notice = models.ErrNotOwner.Error()
		return models.ErrNotOwner
	}
	r.edits.set(id, EditState{Mode: PendingDelete})
	return nil
}

// CancelDelete drops the pending delete without touching the store.
func (r *Registry) CancelDelete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.edits.clear(PendingDelete)
}

// ConfirmDelete deletes a wishlist previously passed to RequestDelete.
func (r *Registry) ConfirmDelete(ctx context.Context, id string) error {
	p, ok := r.ident.Current()
	if !ok {
		return r.fail(models.ErrNotAuthenticated)
	}

	r.mu.Lock()
	pending := r.edits.get(id).Mode == PendingDelete
	r.mu.Unlock()
	if !pending {
		return r.fail(models.ErrNotPendingDelete)
	}

	if err := r.store.DeleteOne(ctx, models.WishlistCollection, id); err != nil {
		r.logger.Warn("Store write failed", "op", "delete wishlist", "id", id, "error", err)
		return r.fail(&models.StoreError{Op: "delete wishlist", Err: err})
	}

	r.logger.Info("Wishlist deleted", "id", id, "principal", p.ID)

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.settleLocked(p.ID) {
		return nil
	}
	if i := r.ownedLocked(id); i >= 0 {
		r.owned = append(r.owned[:i:i], r.owned[i+1:]...)
	}
	delete(r.edits, id)
	r.notice = ""
	return nil
}

// State returns the edit state of id.
func (r *Registry) State(id string) EditState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.edits.get(id)
}

// DismissNotice clears the notice.
func (r *Registry) DismissNotice() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notice = ""
}

// View returns a snapshot of the view state.
func (r *Registry) View() ListView {
	p, signedIn := r.ident.Current()

	r.mu.Lock()
	defer r.mu.Unlock()

	v := ListView{
		SignedIn: signedIn,
		Owned:    []models.Wishlist{},
		Shared:   []models.Wishlist{},
		Create:   CreateState{Draft: r.draft},
		Notice:   r.notice,
	}
	// Lists loaded for a previous principal are never shown to the next one.
	if signedIn && r.liveLocked(p.ID) {
		v.Loaded = r.loaded
		v.Owned = cloneLists(r.owned)
		v.Shared = cloneLists(r.shared)
	}
	if id, st, ok := r.edits.find(Renaming); ok {
		v.Rename = RenameState{ID: id, Draft: st.Draft}
	}
	if id, _, ok := r.edits.find(PendingDelete); ok {
		v.DeleteConfirm = DeleteConfirmState{ID: id}
	}
	return v
}
