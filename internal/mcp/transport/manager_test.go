package transport

import (
	"context"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunbolsss/egfr-calculator/internal/domain"
)

func newTestManager(cfg *domain.MCPConfig) *Manager {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return NewManager(logger, cfg)
}

// withArgs swaps os.Args for the duration of a test.
func withArgs(t *testing.T, args ...string) {
	t.Helper()
	saved := os.Args
	os.Args = append([]string{saved[0]}, args...)
	t.Cleanup(func() { os.Args = saved })
}

func TestAutoDetectTransport_CommandLineArguments(t *testing.T) {
	tests := []struct {
		name string
		arg  string
		want TransportType
	}{
		{"stdio flag", "--stdio", TransportStdio},
		{"short stdio flag", "-stdio", TransportStdio},
		{"http flag", "--http", TransportHTTPSSE},
		{"websocket flag", "--websocket", TransportWebSocket},
		{"short ws flag", "-ws", TransportWebSocket},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withArgs(t, tt.arg)
			// Arguments take precedence over the environment.
			t.Setenv("MCP_TRANSPORT", "stdio")

			manager := newTestManager(nil)
			got, err := manager.AutoDetectTransport()

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAutoDetectTransport_Environment(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  TransportType
	}{
		{"stdio", "stdio", TransportStdio},
		{"http", "http", TransportHTTPSSE},
		{"http-sse", "http-sse", TransportHTTPSSE},
		{"ws", "ws", TransportWebSocket},
		{"websocket", "websocket", TransportWebSocket},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withArgs(t)
			t.Setenv("MCP_TRANSPORT", tt.value)

			manager := newTestManager(nil)
			got, err := manager.AutoDetectTransport()

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAutoDetectTransport_UnknownEnvFallsThroughToConfig(t *testing.T) {
	withArgs(t)
	t.Setenv("MCP_TRANSPORT", "carrier-pigeon")

	manager := newTestManager(&domain.MCPConfig{TransportType: "websocket"})
	got, err := manager.AutoDetectTransport()

	require.NoError(t, err)
	assert.Equal(t, TransportWebSocket, got)
}

func TestAutoDetectTransport_Configuration(t *testing.T) {
	withArgs(t)
	t.Setenv("MCP_TRANSPORT", "")

	manager := newTestManager(&domain.MCPConfig{TransportType: "http"})
	got, err := manager.AutoDetectTransport()

	require.NoError(t, err)
	assert.Equal(t, TransportHTTPSSE, got)
}

func TestAutoDetectTransport_DefaultsToStdio(t *testing.T) {
	withArgs(t)
	t.Setenv("MCP_TRANSPORT", "")

	manager := newTestManager(nil)
	got, err := manager.AutoDetectTransport()

	require.NoError(t, err)
	assert.Equal(t, TransportStdio, got)
}

func TestCreateTransport(t *testing.T) {
	manager := newTestManager(&domain.MCPConfig{HTTPHost: "localhost", HTTPPort: 8081})

	tests := []struct {
		name          string
		transportType TransportType
		wantType      string
	}{
		{"stdio", TransportStdio, "stdio"},
		{"http-sse", TransportHTTPSSE, "http-sse"},
		{"websocket", TransportWebSocket, "websocket"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport, err := manager.CreateTransport(tt.transportType)

			require.NoError(t, err)
			require.NotNil(t, transport)
			assert.Equal(t, tt.wantType, transport.GetType())
		})
	}
}

func TestCreateTransport_Unsupported(t *testing.T) {
	manager := newTestManager(nil)

	transport, err := manager.CreateTransport(TransportType("smoke-signal"))

	require.Error(t, err)
	assert.Nil(t, transport)
	assert.Contains(t, err.Error(), "unsupported transport type")
}

func TestManager_ClientRegistry(t *testing.T) {
	manager := newTestManager(nil)

	manager.RegisterClient("client-1", "websocket", map[string]string{"remote": "10.0.0.1"})
	manager.RegisterClient("client-2", "http-sse", nil)

	clients := manager.GetClients()
	require.Len(t, clients, 2)

	manager.UpdateClientActivity("client-1")
	manager.UnregisterClient("client-2")

	clients = manager.GetClients()
	require.Len(t, clients, 1)
	assert.Equal(t, "client-1", clients[0].ID)
	assert.Equal(t, "websocket", clients[0].TransportType)
}

func TestManager_ShutdownWithoutTransport(t *testing.T) {
	manager := newTestManager(nil)

	manager.RegisterClient("client-1", "stdio", nil)
	require.NoError(t, manager.Shutdown(context.Background()))

	assert.Nil(t, manager.GetActiveTransport())
	assert.Empty(t, manager.GetClients())
}
