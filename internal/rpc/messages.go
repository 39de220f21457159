package rpc

import (
	"time"

	"github.com/mmynk/wishlists/internal/docstore"
)

// DocumentService messages.

type ListAllRequest struct {
	Collection string `json:"collection"`
}

type ListAllResponse struct {
	Records []docstore.Record `json:"records"`
}

type GetOneRequest struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
}

type GetOneResponse struct {
	Found  bool             `json:"found"`
	Record *docstore.Record `json:"record,omitempty"`
}

type CreateRequest struct {
	Collection string          `json:"collection"`
	Fields     docstore.Fields `json:"fields"`
}

type CreateResponse struct {
	ID string `json:"id"`
}

type UpdateFieldsRequest struct {
	Collection string          `json:"collection"`
	ID         string          `json:"id"`
	Fields     docstore.Fields `json:"fields"`
}

type DeleteRequest struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
}

func (r *ListAllRequest) GetCollection() string      { return r.Collection }
func (r *GetOneRequest) GetCollection() string       { return r.Collection }
func (r *CreateRequest) GetCollection() string       { return r.Collection }
func (r *UpdateFieldsRequest) GetCollection() string { return r.Collection }
func (r *DeleteRequest) GetCollection() string       { return r.Collection }

func (r *GetOneRequest) GetID() string       { return r.ID }
func (r *UpdateFieldsRequest) GetID() string { return r.ID }
func (r *DeleteRequest) GetID() string       { return r.ID }

// AuthService messages.

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// User is the public view of an account.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// SessionResponse is returned by Register and Login.
type SessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}
