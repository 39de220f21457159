package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/wishlists/internal/auth"
	"github.com/mmynk/wishlists/internal/middleware"
	"github.com/mmynk/wishlists/internal/models"
	"github.com/mmynk/wishlists/internal/rpc"
)

var _ rpc.AuthServiceHandler = (*AuthService)(nil)

// AuthService implements sign-up, sign-in and session lookup.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		logger:        logger,
	}
}

// Register creates an account and signs it in.
func (s *AuthService) Register(ctx context.Context, req *connect.Request[rpc.RegisterRequest]) (*connect.Response[rpc.SessionResponse], error) {
	email := strings.TrimSpace(req.Msg.Email)
	displayName := strings.TrimSpace(req.Msg.DisplayName)
	s.logger.Info("Register request", "email", email)

	if email == "" || displayName == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("email and display name are required"))
	}

	user, err := s.authenticator.Register(ctx, email, displayName, req.Msg.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailExists):
			return nil, connect.NewError(connect.CodeAlreadyExists, err)
		case errors.Is(err, auth.ErrWeakPassword):
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		s.logger.Error("Registration failed", "email", email, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	resp, err := s.session(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User registered successfully", "user_id", user.ID, "email", user.Email)
	return connect.NewResponse(resp), nil
}

// Login checks credentials and returns a session token.
func (s *AuthService) Login(ctx context.Context, req *connect.Request[rpc.LoginRequest]) (*connect.Response[rpc.SessionResponse], error) {
	s.logger.Info("Login request", "email", req.Msg.Email)

	if req.Msg.Email == "" || req.Msg.Password == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, auth.ErrInvalidCredentials)
	}

	user, err := s.authenticator.Authenticate(ctx, req.Msg.Email, req.Msg.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.logger.Warn("Login failed", "email", req.Msg.Email)
			return nil, connect.NewError(connect.CodeUnauthenticated, err)
		}
		s.logger.Error("Login failed", "email", req.Msg.Email, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	resp, err := s.session(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User logged in successfully", "user_id", user.ID, "email", user.Email)
	return connect.NewResponse(resp), nil
}

// Logout is a no-op: tokens are stateless and the client discards its copy.
func (s *AuthService) Logout(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[emptypb.Empty], error) {
	s.logger.Info("Logout request", "user_id", middleware.GetUserID(ctx))
	return connect.NewResponse(&emptypb.Empty{}), nil
}

// WhoAmI returns the principal behind the request's token.
func (s *AuthService) WhoAmI(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[rpc.User], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}

	return connect.NewResponse(&rpc.User{
		ID:          userID,
		Email:       middleware.GetEmail(ctx),
		DisplayName: middleware.GetDisplayName(ctx),
	}), nil
}

func (s *AuthService) session(user *models.User) (*rpc.SessionResponse, error) {
	token, expires, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return &rpc.SessionResponse{
		Token:     token,
		ExpiresAt: expires,
		User: rpc.User{
			ID:          user.ID,
			Email:       user.Email,
			DisplayName: user.DisplayName,
		},
	}, nil
}
