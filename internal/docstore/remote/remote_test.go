package remote

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/wishlists/internal/auth"
	"github.com/mmynk/wishlists/internal/docstore"
	"github.com/mmynk/wishlists/internal/docstore/memstore"
	"github.com/mmynk/wishlists/internal/docstore/storetest"
	"github.com/mmynk/wishlists/internal/middleware"
	"github.com/mmynk/wishlists/internal/models"
	"github.com/mmynk/wishlists/internal/rpc"
	"github.com/mmynk/wishlists/internal/service"
)

// setupServer starts a document service over a fresh memstore and returns its
// URL together with a valid token.
func setupServer(t *testing.T) (string, string) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	store := memstore.New()

	path, handler := rpc.NewDocumentServiceHandler(
		service.NewDocumentService(store, logger),
		connect.WithInterceptors(middleware.RequireAuth(jwtManager)),
	)
	mux := http.NewServeMux()
	mux.Handle(path, handler)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	token, _, err := jwtManager.Generate(models.NewUser("alice@example.com", "Alice", "hash"))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	return server.URL, token
}

func TestRemoteStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) docstore.Store {
		url, token := setupServer(t)
		return New(nil, url, func() string { return token })
	})
}

func TestRemoteStoreWithoutToken(t *testing.T) {
	url, _ := setupServer(t)
	store := New(nil, url, func() string { return "" })

	_, err := store.ListAll(context.Background(), models.WishlistCollection)
	if err == nil {
		t.Fatal("expected an error without a token")
	}
	if !IsUnauthenticated(err) {
		t.Errorf("expected unauthenticated error, got %v", err)
	}
}
