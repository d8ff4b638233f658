package llmclient

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/pilot-cli/api/schemas"
	"github.com/xkilldash9x/pilot-cli/internal/config"
)

// setupTestLogger is a helper to create a zap logger for testing with an observer.
func setupTestLogger(t *testing.T) (*zap.Logger, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	return zap.New(core), logs
}

// getValidLLMConfig returns a config for provider pointed at baseURL.
func getValidLLMConfig(provider config.LLMProvider, baseURL string) config.LLMConfig {
	return config.LLMConfig{
		Provider:    provider,
		ProviderURL: baseURL,
		Token:       "test-token",
		Model:       "test-model",
		Timeout:     5 * time.Second,
	}
}

// startServer runs handler on an httptest server closed at test end.
func startServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server, shutdown := newTestServer(handler)
	t.Cleanup(shutdown)
	return server
}

// newTestServer starts a server whose request contexts all derive from one
// base context. shutdown cancels it before closing, so handlers still blocked
// on an abandoned request return instead of holding up Close.
func newTestServer(handler http.Handler) (*httptest.Server, func()) {
	base, cancel := context.WithCancel(context.Background())
	server := httptest.NewUnstartedServer(handler)
	server.Config.BaseContext = func(net.Listener) context.Context { return base }
	server.Start()
	return server, func() {
		cancel()
		server.CloseClientConnections()
		server.Close()
	}
}

// decodeBody reads a JSON request body into a generic map.
func decodeBody(t *testing.T, r *http.Request) map[string]interface{} {
	t.Helper()
	raw, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

// stallHandler blocks until its request context ends, so timeouts can be
// observed without leaving a sleeping handler behind. Draining the body lets
// the server notice a client that hangs up.
func stallHandler(w http.ResponseWriter, r *http.Request) {
	_, _ = io.Copy(io.Discard, r.Body)
	select {
	case <-r.Context().Done():
	case <-time.After(stallFallback):
	}
}

const stallFallback = 2 * time.Second

var testMessages = []schemas.ChatMessage{
	{Role: schemas.RoleSystem, Content: "system prompt"},
	{Role: schemas.RoleUser, Content: "click the Login button"},
	{Role: schemas.RoleAssistant, Content: `{"actions":[],"done":false}`},
	{Role: schemas.RoleUser, Content: "observation"},
}
