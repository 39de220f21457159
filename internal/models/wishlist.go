package models

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/mmynk/wishlists/internal/docstore"
)

// WishlistCollection is the document collection that holds wishlist records.
const WishlistCollection = "WishLists"

// Record field names.
const (
	FieldName       = "name"
	FieldCreatedBy  = "createdBy"
	FieldSharedWith = "sharedWith"
	FieldItems      = "items"
)

// Wishlist represents a named list owned by one principal.
type Wishlist struct {
	// ID is assigned by the document store.
	ID string

	// Name is unique among the wishlists with the same CreatedBy.
	Name string

	// CreatedBy is the owner's principal id. Immutable after creation.
	CreatedBy string

	// SharedWith lists the principals that may view the wishlist.
	// Older records may not carry the field at all.
	SharedWith []string
}

// OwnedBy reports whether principal created the wishlist.
func (w Wishlist) OwnedBy(principal string) bool {
	return w.CreatedBy == principal
}

// SharedTo reports whether the wishlist is shared with principal by someone else.
func (w Wishlist) SharedTo(principal string) bool {
	return !w.OwnedBy(principal) && slices.Contains(w.SharedWith, principal)
}

// NewWishlistFields returns the fields written when a wishlist is created.
func NewWishlistFields(name, createdBy string) docstore.Fields {
	return docstore.Fields{
		FieldName:       name,
		FieldCreatedBy:  createdBy,
		FieldSharedWith: []string{},
	}
}

// wishlistDoc is the JSON shape of a wishlist record.
type wishlistDoc struct {
	Name       string   `json:"name"`
	CreatedBy  string   `json:"createdBy"`
	SharedWith []string `json:"sharedWith"`
	Items      []Item   `json:"items"`
}

func decode(rec docstore.Record) (wishlistDoc, error) {
	var doc wishlistDoc
	raw, err := json.Marshal(rec.Fields)
	if err != nil {
		return doc, fmt.Errorf("failed to encode record %s: %w", rec.ID, err)
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return doc, fmt.Errorf("failed to decode record %s: %w", rec.ID, err)
	}
	return doc, nil
}

// WishlistFromRecord maps a stored record onto a Wishlist.
// A missing sharedWith field decodes as an empty set.
func WishlistFromRecord(rec docstore.Record) (Wishlist, error) {
	doc, err := decode(rec)
	if err != nil {
		return Wishlist{}, err
	}
	shared := doc.SharedWith
	if shared == nil {
		shared = []string{}
	}
	return Wishlist{
		ID:         rec.ID,
		Name:       doc.Name,
		CreatedBy:  doc.CreatedBy,
		SharedWith: shared,
	}, nil
}

// ItemsFromRecord returns the item sequence stored in a wishlist record.
// A missing items field decodes as an empty list.
func ItemsFromRecord(rec docstore.Record) (ItemList, error) {
	doc, err := decode(rec)
	if err != nil {
		return ItemList{}, err
	}
	return NewItemList(doc.Items), nil
}
