package rpc

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
)

// DocumentServiceName is the fully-qualified name of the document service.
const DocumentServiceName = "wishlists.v1.DocumentService"

const (
	DocumentServiceListAllProcedure      = "/wishlists.v1.DocumentService/ListAll"
	DocumentServiceGetOneProcedure       = "/wishlists.v1.DocumentService/GetOne"
	DocumentServiceCreateProcedure       = "/wishlists.v1.DocumentService/Create"
	DocumentServiceUpdateFieldsProcedure = "/wishlists.v1.DocumentService/UpdateFields"
	DocumentServiceDeleteProcedure       = "/wishlists.v1.DocumentService/Delete"
)

// DocumentServiceHandler is implemented by the server side of the document service.
type DocumentServiceHandler interface {
	ListAll(context.Context, *connect.Request[ListAllRequest]) (*connect.Response[ListAllResponse], error)
	GetOne(context.Context, *connect.Request[GetOneRequest]) (*connect.Response[GetOneResponse], error)
	Create(context.Context, *connect.Request[CreateRequest]) (*connect.Response[CreateResponse], error)
	UpdateFields(context.Context, *connect.Request[UpdateFieldsRequest]) (*connect.Response[emptypb.Empty], error)
	Delete(context.Context, *connect.Request[DeleteRequest]) (*connect.Response[emptypb.Empty], error)
}

// NewDocumentServiceHandler builds an HTTP handler for svc and returns the
// path prefix to mount it on.
func NewDocumentServiceHandler(svc DocumentServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)

	listAll := connect.NewUnaryHandler(DocumentServiceListAllProcedure, svc.ListAll, opts...)
	getOne := connect.NewUnaryHandler(DocumentServiceGetOneProcedure, svc.GetOne, opts...)
	create := connect.NewUnaryHandler(DocumentServiceCreateProcedure, svc.Create, opts...)
	updateFields := connect.NewUnaryHandler(DocumentServiceUpdateFieldsProcedure, svc.UpdateFields, opts...)
	deleteOne := connect.NewUnaryHandler(DocumentServiceDeleteProcedure, svc.Delete, opts...)

	return "/" + DocumentServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case DocumentServiceListAllProcedure:
			listAll.ServeHTTP(w, r)
		case DocumentServiceGetOneProcedure:
			getOne.ServeHTTP(w, r)
		case DocumentServiceCreateProcedure:
			create.ServeHTTP(w, r)
		case DocumentServiceUpdateFieldsProcedure:
			updateFields.ServeHTTP(w, r)
		case DocumentServiceDeleteProcedure:
			deleteOne.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// DocumentServiceClient calls the document service.
type DocumentServiceClient struct {
	listAll      *connect.Client[ListAllRequest, ListAllResponse]
	getOne       *connect.Client[GetOneRequest, GetOneResponse]
	create       *connect.Client[CreateRequest, CreateResponse]
	updateFields *connect.Client[UpdateFieldsRequest, emptypb.Empty]
	deleteOne    *connect.Client[DeleteRequest, emptypb.Empty]
}

// NewDocumentServiceClient returns a client for the service at baseURL.
func NewDocumentServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *DocumentServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{WithJSON()}, opts...)

	return &DocumentServiceClient{
		listAll:      connect.NewClient[ListAllRequest, ListAllResponse](httpClient, baseURL+DocumentServiceListAllProcedure, opts...),
		getOne:       connect.NewClient[GetOneRequest, GetOneResponse](httpClient, baseURL+DocumentServiceGetOneProcedure, opts...),
		create:       connect.NewClient[CreateRequest, CreateResponse](httpClient, baseURL+DocumentServiceCreateProcedure, opts...),
		updateFields: connect.NewClient[UpdateFieldsRequest, emptypb.Empty](httpClient, baseURL+DocumentServiceUpdateFieldsProcedure, opts...),
		deleteOne:    connect.NewClient[DeleteRequest, emptypb.Empty](httpClient, baseURL+DocumentServiceDeleteProcedure, opts...),
	}
}

func (c *DocumentServiceClient) ListAll(ctx context.Context, req *connect.Request[ListAllRequest]) (*connect.Response[ListAllResponse], error) {
	return c.listAll.CallUnary(ctx, req)
}

func (c *DocumentServiceClient) GetOne(ctx context.Context, req *connect.Request[GetOneRequest]) (*connect.Response[GetOneResponse], error) {
	return c.getOne.CallUnary(ctx, req)
}

func (c *DocumentServiceClient) Create(ctx context.Context, req *connect.Request[CreateRequest]) (*connect.Response[CreateResponse], error) {
	return c.create.CallUnary(ctx, req)
}

func (c *DocumentServiceClient) UpdateFields(ctx context.Context, req *connect.Request[UpdateFieldsRequest]) (*connect.Response[emptypb.Empty], error) {
	return c.updateFields.CallUnary(ctx, req)
}

func (c *DocumentServiceClient) Delete(ctx context.Context, req *connect.Request[DeleteRequest]) (*connect.Response[emptypb.Empty], error) {
	return c.deleteOne.CallUnary(ctx, req)
}
