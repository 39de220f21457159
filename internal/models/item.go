package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
)

// Item is a single entry in a wishlist.
type Item struct {
	// ID is a client-generated token, unique within its wishlist.
	ID string `json:"id"`

	// Name is free text; the model does not validate it.
	Name string `json:"name"`

	// extra holds any other keys the stored item carried, so that rewriting
	// the items field does not drop them. Nil when there are none.
	extra map[string]any
}

// UnmarshalJSON decodes an item object, keeping keys other than id and name.
// Numeric ids written by older clients are read as their decimal text.
func (it *Item) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return fmt.Errorf("failed to decode item: %w", err)
	}

	*it = Item{}
	switch id := fields["id"].(type) {
	case string:
		it.ID = id
	case json.Number:
		it.ID = id.String()
	}
	it.Name, _ = fields["name"].(string)

	delete(fields, "id")
	delete(fields, "name")
	if len(fields) > 0 {
		it.extra = fields
	}
	return nil
}

// ItemList is the ordered item sequence of one wishlist.
// It is a value: Append and Without return new lists and never touch the receiver.
// Insertion order is display order.
type ItemList struct {
	items []Item
}

// NewItemList copies items into a new list.
func NewItemList(items []Item) ItemList {
	if len(items) == 0 {
		return ItemList{}
	}
	return ItemList{items: append([]Item(nil), items...)}
}

// Items returns a copy of the sequence. Never nil.
func (l ItemList) Items() []Item {
	out := make([]Item, len(l.items))
	copy(out, l.items)
	return out
}

// Len returns the number of items.
func (l ItemList) Len() int {
	return len(l.items)
}

// Append returns a new list with item added at the end.
func (l ItemList) Append(item Item) ItemList {
	out := make([]Item, 0, len(l.items)+1)
	out = append(out, l.items...)
	out = append(out, item)
	return ItemList{items: out}
}

// Without returns a new list with every item whose ID is id removed.
func (l ItemList) Without(id string) ItemList {
	out := make([]Item, 0, len(l.items))
	for _, it := range l.items {
		if it.ID != id {
			out = append(out, it)
		}
	}
	return ItemList{items: out}
}

// Contains reports whether an item with the given ID is present.
func (l ItemList) Contains(id string) bool {
	for _, it := range l.items {
		if it.ID == id {
			return true
		}
	}
	return false
}

// FieldValue returns the list in the shape written to the items field.
func (l ItemList) FieldValue() []map[string]any {
	out := make([]map[string]any, len(l.items))
	for i, it := range l.items {
		m := maps.Clone(it.extra)
		if m == nil {
			m = make(map[string]any, 2)
		}
		m["id"] = it.ID
		m["name"] = it.Name
		out[i] = m
	}
	return out
}
