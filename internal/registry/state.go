package registry

import (
	"slices"

	"github.com/mmynk/wishlists/internal/models"
)

// Mode is the inline edit mode of one wishlist row.
type Mode int

const (
	Idle Mode = iota
	Renaming
	PendingDelete
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Renaming:
		return "renaming"
	case PendingDelete:
		return "pending-delete"
	default:
		return "unknown"
	}
}

// EditState is the edit mode of one wishlist id. Draft is only meaningful
// while Renaming.
type EditState struct {
	Mode  Mode
	Draft string
}

// edits holds the non-idle states, keyed by wishlist id. At most one id is
// Renaming and at most one is PendingDelete.
type edits map[string]EditState

func (e edits) get(id string) EditState {
	return e[id]
}

// find returns the id currently in mode m.
func (e edits) find(m Mode) (string, EditState, bool) {
	for id, st := range e {
		if st.Mode == m {
			return id, st, true
		}
	}
	return "", EditState{}, false
}

// set puts id into st, first returning any other id in the same mode to Idle.
func (e edits) set(id string, st EditState) {
	if st.Mode == Idle {
		delete(e, id)
		return
	}
	if other, _, ok := e.find(st.Mode); ok && other != id {
		delete(e, other)
	}
	e[id] = st
}

// clear returns the id in mode m, if any, to Idle.
func (e edits) clear(m Mode) {
	if id, _, ok := e.find(m); ok {
		delete(e, id)
	}
}

// Partition splits lists into those principal owns and those shared with
// principal by someone else. Everything else is hidden. Order is preserved.
func Partition(lists []models.Wishlist, principal string) (owned, shared []models.Wishlist) {
	owned = []models.Wishlist{}
	shared = []models.Wishlist{}
	for _, w := range lists {
		switch {
		case w.OwnedBy(principal):
			owned = append(owned, w)
		case w.SharedTo(principal):
			shared = append(shared, w)
		}
	}
	return owned, shared
}

// nameTaken reports whether principal owns a wishlist called name other than except.
func nameTaken(lists []models.Wishlist, name, principal, except string) bool {
	return slices.ContainsFunc(lists, func(w models.Wishlist) bool {
		return w.ID != except && w.Name == name && w.CreatedBy == principal
	})
}

func cloneLists(lists []models.Wishlist) []models.Wishlist {
	out := make([]models.Wishlist, len(lists))
	for i, w := range lists {
		w.SharedWith = slices.Clone(w.SharedWith)
		out[i] = w
	}
	return out
}
