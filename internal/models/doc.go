// Package models defines the core domain models for Wishlists.
//
// # Models
//
//   - Wishlist: a named list owned by one principal and optionally shared with others
//   - Item: one entry inside a wishlist
//   - ItemList: the ordered item sequence, always replaced as a whole
//   - User: a registered account on the identity service
//
// # Design Principles
//
// 1. **Schema-less storage**: wishlists are stored as documents; this package
// owns the mapping between documents and typed models
// 2. **Whole-field writes**: items are embedded in the wishlist record and
// rewritten wholesale on every change (last write wins)
// 3. **Avoid circular references**: relationships use ID strings, not pointers
// 4. **Visibility is derived**: owned/shared is computed from CreatedBy and
// SharedWith, never stored
package models
