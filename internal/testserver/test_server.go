// Package testserver starts a fully wired mockdesk HTTP server for tests.
package testserver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fixfast/mockdesk/internal/backend"
	"github.com/fixfast/mockdesk/internal/mcp"
	"github.com/fixfast/mockdesk/internal/sqlite"
	"github.com/fixfast/mockdesk/internal/store"
	"github.com/fixfast/mockdesk/internal/transport"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

type TestServer struct {
	Server  *httptest.Server
	DB      *sqlite.DB
	Storage *sqlite.Storage
	Backend *backend.Service
}

// New starts a server over a per-test shared in-memory SQLite database with
// latency and rate limiting disabled.
func New(t *testing.T, opts backend.Options) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	storage := sqlite.NewStorage(db)
	svc := backend.NewService(store.New(storage), opts)
	require.NoError(t, svc.Init(context.Background()))

	mcpServer := mcp.NewServer(mcp.Config{
		Backend:       svc,
		TransportMode: "http",
	})
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		nil,
	)

	server := httptest.NewServer(transport.NewServer(transport.Config{
		Backend: svc,
		MCP:     mcpHandler,
	}))

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return &TestServer{
		Server:  server,
		DB:      db,
		Storage: storage,
		Backend: svc,
	}
}

// URL returns the absolute URL of path on the test server.
func (ts *TestServer) URL(path string) string {
	return ts.Server.URL + path
}

// MCPSession connects an MCP client to /mcp. A non-empty token is sent as a
// bearer header on every request.
func (ts *TestServer) MCPSession(t *testing.T, token string) *sdkmcp.ClientSession {
	t.Helper()

	httpClient := ts.Server.Client()
	if token != "" {
		httpClient = &http.Client{Transport: bearerTransport{token: token, next: httpClient.Transport}}
	}

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(context.Background(), &sdkmcp.StreamableClientTransport{
		Endpoint:   ts.URL("/mcp"),
		HTTPClient: httpClient,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

type bearerTransport struct {
	token string
	next  http.RoundTripper
}

func (b bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+b.token)
	next := b.next
	if next == nil {
		next = http.DefaultTransport
	}
	return next.RoundTrip(req)
}
