package rpc

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
)

// AuthServiceName is the fully-qualified name of the auth service.
const AuthServiceName = "wishlists.v1.AuthService"

const (
	AuthServiceRegisterProcedure = "/wishlists.v1.AuthService/Register"
	AuthServiceLoginProcedure    = "/wishlists.v1.AuthService/Login"
	AuthServiceLogoutProcedure   = "/wishlists.v1.AuthService/Logout"
	AuthServiceWhoAmIProcedure   = "/wishlists.v1.AuthService/WhoAmI"
)

// AuthServiceHandler is implemented by the server side of the auth service.
type AuthServiceHandler interface {
	Register(context.Context, *connect.Request[RegisterRequest]) (*connect.Response[SessionResponse], error)
	Login(context.Context, *connect.Request[LoginRequest]) (*connect.Response[SessionResponse], error)
	Logout(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[emptypb.Empty], error)
	WhoAmI(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[User], error)
}

// NewAuthServiceHandler builds an HTTP handler for svc and returns the path
// prefix to mount it on.
func NewAuthServiceHandler(svc AuthServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)

	register := connect.NewUnaryHandler(AuthServiceRegisterProcedure, svc.Register, opts...)
	login := connect.NewUnaryHandler(AuthServiceLoginProcedure, svc.Login, opts...)
	logout := connect.NewUnaryHandler(AuthServiceLogoutProcedure, svc.Logout, opts...)
	whoAmI := connect.NewUnaryHandler(AuthServiceWhoAmIProcedure, svc.WhoAmI, opts...)

	return "/" + AuthServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case AuthServiceRegisterProcedure:
			register.ServeHTTP(w, r)
		case AuthServiceLoginProcedure:
			login.ServeHTTP(w, r)
		case AuthServiceLogoutProcedure:
			logout.ServeHTTP(w, r)
		case AuthServiceWhoAmIProcedure:
			whoAmI.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// AuthServiceClient calls the auth service.
type AuthServiceClient struct {
	register *connect.Client[RegisterRequest, SessionResponse]
	login    *connect.Client[LoginRequest, SessionResponse]
	logout   *connect.Client[emptypb.Empty, emptypb.Empty]
	whoAmI   *connect.Client[emptypb.Empty, User]
}

// NewAuthServiceClient returns a client for the service at baseURL.
func NewAuthServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AuthServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{WithJSON()}, opts...)

	return &AuthServiceClient{
		register: connect.NewClient[RegisterRequest, SessionResponse](httpClient, baseURL+AuthServiceRegisterProcedure, opts...),
		login:    connect.NewClient[LoginRequest, SessionResponse](httpClient, baseURL+AuthServiceLoginProcedure, opts...),
		logout:   connect.NewClient[emptypb.Empty, emptypb.Empty](httpClient, baseURL+AuthServiceLogoutProcedure, opts...),
		whoAmI:   connect.NewClient[emptypb.Empty, User](httpClient, baseURL+AuthServiceWhoAmIProcedure, opts...),
	}
}

func (c *AuthServiceClient) Register(ctx context.Context, req *connect.Request[RegisterRequest]) (*connect.Response[SessionResponse], error) {
	return c.register.CallUnary(ctx, req)
}

func (c *AuthServiceClient) Login(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[SessionResponse], error) {
	return c.login.CallUnary(ctx, req)
}

func (c *AuthServiceClient) Logout(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[emptypb.Empty], error) {
	return c.logout.CallUnary(ctx, req)
}

func (c *AuthServiceClient) WhoAmI(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[User], error) {
	return c.whoAmI.CallUnary(ctx, req)
}
