// Package auth implements the server side of sign-in: credential checks and
// session tokens for the principals that own and share wishlists.
package auth

import (
	"context"

	"github.com/mmynk/wishlists/internal/models"
)

// Authenticator verifies credentials and creates accounts.
// Swapping implementations (password, OAuth, ...) does not change the services.
type Authenticator interface {
	// Register creates a new account. The credential format depends on the implementation.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate returns the account matching the credentials.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks the credential format before it is used.
	ValidateCredential(credential string) error
}
