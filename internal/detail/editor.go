// Package detail holds the state behind one wishlist's item view.
//
// Items are read and written as a whole: every add or remove rewrites the
// record's items field from the editor's in-memory list. Two editors on the
// same wishlist therefore overwrite each other, and the last write wins.
package detail

import (
	"context"
	"log/slog"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/mmynk/wishlists/internal/docstore"
	"github.com/mmynk/wishlists/internal/identity"
	"github.com/mmynk/wishlists/internal/models"
)

// DefaultTitle is shown when the wishlist has no name or was not found.
const DefaultTitle = "Wishlist Items"

// DetailView is the render-ready state of the item view.
type DetailView struct {
	Items []models.Item

	// IsSignedIn is false when the view should show a sign-in prompt.
	IsSignedIn bool

	// IsValidID is false when no wishlist id was supplied.
	IsValidID bool

	Loaded bool
	Title  string
	Draft  string
	Notice string
}

// Editor is safe for concurrent use. Writes from one Editor are issued in
// call order; the state mutex is never held across a store call.
type Editor struct {
	store  docstore.Store
	ident  identity.Provider
	id     string
	logger *slog.Logger
	tokens func() string

	// writeMu orders read-modify-write cycles within this editor.
	writeMu sync.Mutex

	mu          sync.Mutex
	mountCtx    context.Context
	unsubscribe func()
	unmounted   bool
	generation  uint64

	loadedFor string
	title     string
	items     models.ItemList
	draft     string
	notice    string
}

// New returns an Editor for the wishlist with the given id.
func New(store docstore.Store, ident identity.Provider, wishlistID string, logger *slog.Logger) *Editor {
	return &Editor{
		store:  store,
		ident:  ident,
		id:     wishlistID,
		logger: logger.With("wishlist_id", wishlistID),
		tokens: func() string { return ulid.Make().String() },
		title:  DefaultTitle,
	}
}

// WithTokens replaces the item id generator.
func (e *Editor) WithTokens(fn func() string) *Editor {
	e.tokens = fn
	return e
}

// Mount subscribes to identity changes and loads.
func (e *Editor) Mount(ctx context.Context) error {
	e.mu.Lock()
	e.unmounted = false
	e.mountCtx = ctx
	if e.unsubscribe == nil {
		e.unsubscribe = e.ident.Subscribe(e.identityChanged)
	}
	e.mu.Unlock()

	return e.Load(ctx)
}

// Unmount drops the identity subscription; late results are discarded.
func (e *Editor) Unmount() {
	e.mu.Lock()
	unsubscribe := e.unsubscribe
	e.unsubscribe = nil
	e.unmounted = true
	e.generation++
	e.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (e *Editor) identityChanged(identity.Principal, bool) {
	e.mu.Lock()
	ctx := e.mountCtx
	e.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := e.Load(ctx); err != nil {
		e.logger.Warn("Reload after identity change failed", "error", err)
	}
}

// Load fetches the wishlist. An empty id fails without touching the store,
// and without a principal nothing is read. A missing record loads as an
// empty list.
func (e *Editor) Load(ctx context.Context) error {
	if e.id == "" {
		return e.fail(models.ErrInvalidID)
	}

	p, ok := e.ident.Current()

	e.mu.Lock()
	if e.unmounted {
		e.mu.Unlock()
		return nil
	}
	e.generation++
	gen := e.generation
	if !ok {
		e.resetLocked()
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	title, items, err := e.fetch(ctx)

	cur, curOK := e.ident.Current()

	e.mu.Lock()
	defer e.mu.Unlock()

	if gen != e.generation || e.unmounted || !curOK || cur.ID != p.ID {
		e.logger.Debug("Discarding stale item load", "principal", p.ID)
		return nil
	}
	if err != nil {
		e.notice = err.Error()
		return err
	}

	if e.loadedFor != p.ID {
		e.resetLocked()
	}
	e.loadedFor = p.ID
	e.title = title
	e.items = items

	e.logger.Debug("Items loaded", "principal", p.ID, "count", items.Len())
	return nil
}

func (e *Editor) resetLocked() {
	e.loadedFor = ""
	e.title = DefaultTitle
	e.items = models.ItemList{}
	e.draft = ""
	e.notice = ""
}

func (e *Editor) fetch(ctx context.Context) (string, models.ItemList, error) {
	rec, err := e.store.GetOne(ctx, models.WishlistCollection, e.id)
	if err != nil {
		e.logger.Warn("Store read failed", "op", "load items", "error", err)
		return "", models.ItemList{}, &models.StoreError{Op: "load items", Err: err}
	}
	if rec == nil {
		return DefaultTitle, models.ItemList{}, nil
	}

	w, err := models.WishlistFromRecord(*rec)
	if err != nil {
		return "", models.ItemList{}, &models.StoreError{Op: "load items", Err: err}
	}
	items, err := models.ItemsFromRecord(*rec)
	if err != nil {
		return "", models.ItemList{}, &models.StoreError{Op: "load items", Err: err}
	}

	title := w.Name
	if title == "" {
		title = DefaultTitle
	}
	return title, items, nil
}

func (e *Editor) fail(err error) error {
	e.mu.Lock()
	e.notice = err.Error()
	e.mu.Unlock()
	return err
}

// writable checks the gates shared by every item write and returns the
// principal and the current list.
func (e *Editor) writable() (string, models.ItemList, error) {
	if e.id == "" {
		return "", models.ItemList{}, models.ErrInvalidID
	}
	p, ok := e.ident.Current()
	if !ok {
		return "", models.ItemList{}, models.ErrNotAuthenticated
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.unmounted || e.loadedFor != p.ID {
		return "", models.ItemList{}, models.ErrNotLoaded
	}
	return p.ID, e.items, nil
}

// SetDraft updates the new-item input.
func (e *Editor) SetDraft(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft = name
}

// AddItem appends an item called name and writes the whole list back.
func (e *Editor) AddItem(ctx context.Context, name string) (models.Item, error) {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	principal, items, err := e.writable()
	if err != nil {
		return models.Item{}, e.fail(err)
	}
	if name == "" {
		return models.Item{}, e.fail(models.ErrEmptyName)
	}

	item := models.Item{ID: e.tokens(), Name: name}
	next := items.Append(item)
	if err := e.write(ctx, "add item", next); err != nil {
		return models.Item{}, err
	}

	e.logger.Info("Item added", "item_id", item.ID, "principal", principal)

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.unmounted && e.loadedFor == principal {
		e.items = next
		e.draft = ""
		e.notice = ""
	}
	return item, nil
}

// RemoveItem drops the item with itemID and writes the whole list back.
// There is no confirmation step.
func (e *Editor) RemoveItem(ctx context.Context, itemID string) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	principal, items, err := e.writable()
	if err != nil {
		return e.fail(err)
	}

	next := items.Without(itemID)
	if err := e.write(ctx, "remove item", next); err != nil {
		return err
	}

	e.logger.Info("Item removed", "item_id", itemID, "principal", principal)

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.unmounted && e.loadedFor == principal {
		e.items = next
		e.notice = ""
	}
	return nil
}

func (e *Editor) write(ctx context.Context, op string, items models.ItemList) error {
	err := e.store.UpdateFields(ctx, models.WishlistCollection, e.id, docstore.Fields{
		models.FieldItems: items.FieldValue(),
	})
	if err != nil {
		e.logger.Warn("Store write failed", "op", op, "error", err)
		return e.fail(&models.StoreError{Op: op, Err: err})
	}
	return nil
}

// DismissNotice clears the notice.
func (e *Editor) DismissNotice() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notice = ""
}

// View returns a snapshot of the view state.
func (e *Editor) View() DetailView {
	p, signedIn := e.ident.Current()

	e.mu.Lock()
	defer e.mu.Unlock()

	v := DetailView{
		Items:      []models.Item{},
		IsSignedIn: signedIn,
		IsValidID:  e.id != "",
		Title:      DefaultTitle,
		Draft:      e.draft,
		Notice:     e.notice,
	}
	if signedIn && e.loadedFor == p.ID {
		v.Loaded = true
		v.Title = e.title
		v.Items = e.items.Items()
	}
	return v
}
