package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/wishlists/internal/config"
	"github.com/mmynk/wishlists/internal/docstore/memstore"
	"github.com/mmynk/wishlists/internal/rpc"
	"github.com/mmynk/wishlists/pkg/logging"
)

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &config.Server{
		Store:     config.StoreMemory,
		JWTSecret: "test-secret",
		TokenTTL:  time.Hour,
	}
	store, err := openStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("openStore failed: %v", err)
	}
	if _, ok := store.(*memstore.Store); !ok {
		t.Fatalf("expected memstore, got %T", store)
	}

	server := httptest.NewServer(newHandler(store, cfg, logging.Discard(), prometheus.NewRegistry()))
	t.Cleanup(func() {
		server.Close()
		store.Close()
	})
	return server
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body failed: %v", err)
	}
	return resp.StatusCode, string(body)
}

func TestHealthz(t *testing.T) {
	server := setupServer(t)

	code, body := get(t, server.URL+"/healthz")
	if code != http.StatusOK || strings.TrimSpace(body) != "ok" {
		t.Errorf("healthz: got %d %q", code, body)
	}
}

func TestMetricsCountRPCs(t *testing.T) {
	server := setupServer(t)

	client := rpc.NewAuthServiceClient(http.DefaultClient, server.URL)
	_, err := client.WhoAmI(context.Background(), connect.NewRequest(&emptypb.Empty{}))
	if connect.CodeOf(err) != connect.CodeUnauthenticated {
		t.Fatalf("expected unauthenticated, got %v", err)
	}

	code, body := get(t, server.URL+"/metrics")
	if code != http.StatusOK {
		t.Fatalf("metrics: got status %d", code)
	}
	want := `wishlists_rpc_requests_total{code="unauthenticated",procedure="/wishlists.v1.AuthService/WhoAmI"} 1`
	if !strings.Contains(body, want) {
		t.Errorf("metrics output missing %q:\n%s", want, body)
	}
}

func TestCORSPreflight(t *testing.T) {
	server := setupServer(t)

	req, err := http.NewRequest(http.MethodOptions, server.URL+rpc.DocumentServiceListAllProcedure, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status: got %d", resp.StatusCode)
	}
	if !strings.Contains(resp.Header.Get("Access-Control-Allow-Headers"), "Authorization") {
		t.Errorf("Authorization not allowed: %q", resp.Header.Get("Access-Control-Allow-Headers"))
	}
}

func TestOpenStoreUnknown(t *testing.T) {
	if _, err := openStore(context.Background(), &config.Server{Store: "mongo"}); err == nil {
		t.Error("expected an error")
	}
}
