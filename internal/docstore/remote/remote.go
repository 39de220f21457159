// Package remote implements docstore.Store against the wishlists document
// service, so the views can run in a separate process from the data.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/wishlists/internal/docstore"
	"github.com/mmynk/wishlists/internal/middleware"
	"github.com/mmynk/wishlists/internal/rpc"
)

var _ docstore.Store = (*Store)(nil)

// Store forwards every call to the document service.
type Store struct {
	client *rpc.DocumentServiceClient
}

// New returns a Store that talks to the server at baseURL. token is called
// before each request; an empty result sends the request unauthenticated.
func New(httpClient connect.HTTPClient, baseURL string, token func() string) *Store {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Store{
		client: rpc.NewDocumentServiceClient(httpClient, baseURL,
			connect.WithInterceptors(middleware.BearerToken(token)),
		),
	}
}

// ListAll returns every record in the collection.
func (s *Store) ListAll(ctx context.Context, collection string) ([]docstore.Record, error) {
	resp, err := s.client.ListAll(ctx, connect.NewRequest(&rpc.ListAllRequest{Collection: collection}))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	return resp.Msg.Records, nil
}

// GetOne returns the record, or nil when the server reports it missing.
func (s *Store) GetOne(ctx context.Context, collection, id string) (*docstore.Record, error) {
	resp, err := s.client.GetOne(ctx, connect.NewRequest(&rpc.GetOneRequest{Collection: collection, ID: id}))
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	if !resp.Msg.Found || resp.Msg.Record == nil {
		return nil, nil
	}
	rec := resp.Msg.Record
	if rec.Fields == nil {
		rec.Fields = docstore.Fields{}
	}
	return rec, nil
}

// CreateWithGeneratedID creates a record and returns the server-assigned ID.
func (s *Store) CreateWithGeneratedID(ctx context.Context, collection string, fields docstore.Fields) (string, error) {
	resp, err := s.client.Create(ctx, connect.NewRequest(&rpc.CreateRequest{Collection: collection, Fields: fields}))
	if err != nil {
		return "", fmt.Errorf("create in %s: %w", collection, err)
	}
	return resp.Msg.ID, nil
}

// UpdateFields merges fields into a record. CodeNotFound maps to docstore.ErrNotFound.
func (s *Store) UpdateFields(ctx context.Context, collection, id string, fields docstore.Fields) error {
	_, err := s.client.UpdateFields(ctx, connect.NewRequest(&rpc.UpdateFieldsRequest{
		Collection: collection,
		ID:         id,
		Fields:     fields,
	}))
	if connect.CodeOf(err) == connect.CodeNotFound {
		return fmt.Errorf("%w: %s/%s", docstore.ErrNotFound, collection, id)
	}
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	return nil
}

// DeleteOne removes a record.
func (s *Store) DeleteOne(ctx context.Context, collection, id string) error {
	_, err := s.client.Delete(ctx, connect.NewRequest(&rpc.DeleteRequest{Collection: collection, ID: id}))
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// IsUnauthenticated reports whether err is the server rejecting the caller's token.
func IsUnauthenticated(err error) bool {
	var ce *connect.Error
	return errors.As(err, &ce) && ce.Code() == connect.CodeUnauthenticated
}
