package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/wishlists/internal/docstore"
	"github.com/mmynk/wishlists/internal/middleware"
	"github.com/mmynk/wishlists/internal/rpc"
)

var _ rpc.DocumentServiceHandler = (*DocumentService)(nil)

var (
	errCollectionRequired = errors.New("collection required")
	errIDRequired         = errors.New("id required")
)

// DocumentService serves the document store to signed-in clients.
// It applies no ownership rules: clients filter and guard records themselves.
type DocumentService struct {
	store  docstore.Store
	logger *slog.Logger
}

// NewDocumentService creates a DocumentService over store.
func NewDocumentService(store docstore.Store, logger *slog.Logger) *DocumentService {
	return &DocumentService{store: store, logger: logger}
}

// ListAll returns every record in a collection.
func (s *DocumentService) ListAll(ctx context.Context, req *connect.Request[rpc.ListAllRequest]) (*connect.Response[rpc.ListAllResponse], error) {
	if req.Msg.Collection == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errCollectionRequired)
	}

	records, err := s.store.ListAll(ctx, req.Msg.Collection)
	if err != nil {
		s.logger.Error("ListAll failed", "collection", req.Msg.Collection, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	if records == nil {
		records = []docstore.Record{}
	}

	s.logger.Debug("ListAll successful",
		"collection", req.Msg.Collection,
		"count", len(records),
		"user_id", middleware.GetUserID(ctx),
	)

	return connect.NewResponse(&rpc.ListAllResponse{Records: records}), nil
}

// GetOne returns one record; a missing record is reported with Found=false.
func (s *DocumentService) GetOne(ctx context.Context, req *connect.Request[rpc.GetOneRequest]) (*connect.Response[rpc.GetOneResponse], error) {
	if req.Msg.Collection == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errCollectionRequired)
	}
	if req.Msg.ID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errIDRequired)
	}

	rec, err := s.store.GetOne(ctx, req.Msg.Collection, req.Msg.ID)
	if err != nil {
		s.logger.Error("GetOne failed", "collection", req.Msg.Collection, "id", req.Msg.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	return connect.NewResponse(&rpc.GetOneResponse{Found: rec != nil, Record: rec}), nil
}

// Create stores a new record under a generated ID.
func (s *DocumentService) Create(ctx context.Context, req *connect.Request[rpc.CreateRequest]) (*connect.Response[rpc.CreateResponse], error) {
	if req.Msg.Collection == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errCollectionRequired)
	}

	id, err := s.store.CreateWithGeneratedID(ctx, req.Msg.Collection, req.Msg.Fields)
	if err != nil {
		s.logger.Error("Create failed", "collection", req.Msg.Collection, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("Document created",
		"collection", req.Msg.Collection,
		"id", id,
		"user_id", middleware.GetUserID(ctx),
	)

	return connect.NewResponse(&rpc.CreateResponse{ID: id}), nil
}

// UpdateFields merges fields into an existing record.
func (s *DocumentService) UpdateFields(ctx context.Context, req *connect.Request[rpc.UpdateFieldsRequest]) (*connect.Response[emptypb.Empty], error) {
	if req.Msg.Collection == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errCollectionRequired)
	}
	if req.Msg.ID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errIDRequired)
	}
	if len(req.Msg.Fields) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("no fields to update"))
	}

	err := s.store.UpdateFields(ctx, req.Msg.Collection, req.Msg.ID, req.Msg.Fields)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, connect.NewError(connect.CodeNotFound, err)
	}
	if err != nil {
		s.logger.Error("UpdateFields failed", "collection", req.Msg.Collection, "id", req.Msg.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("Document updated",
		"collection", req.Msg.Collection,
		"id", req.Msg.ID,
		"fields", len(req.Msg.Fields),
		"user_id", middleware.GetUserID(ctx),
	)

	return connect.NewResponse(&emptypb.Empty{}), nil
}

// Delete removes a record; deleting a missing record succeeds.
func (s *DocumentService) Delete(ctx context.Context, req *connect.Request[rpc.DeleteRequest]) (*connect.Response[emptypb.Empty], error) {
	if req.Msg.Collection == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errCollectionRequired)
	}
	if req.Msg.ID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errIDRequired)
	}

	if err := s.store.DeleteOne(ctx, req.Msg.Collection, req.Msg.ID); err != nil {
		s.logger.Error("Delete failed", "collection", req.Msg.Collection, "id", req.Msg.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("Document deleted",
		"collection", req.Msg.Collection,
		"id", req.Msg.ID,
		"user_id", middleware.GetUserID(ctx),
	)

	return connect.NewResponse(&emptypb.Empty{}), nil
}
