package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	// Time allowed to write a message to the peer.
	wsWriteWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	wsPongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than wsPongWait.
	wsPingPeriod = (wsPongWait * 9) / 10

	// Maximum message size allowed from peer.
	wsMaxMessageSize = 4 * 1024 * 1024
)

// WebSocketTransport implements MCP communication over WebSocket connections
type WebSocketTransport struct {
	logger     *logrus.Logger
	server     *http.Server
	router     *gin.Engine
	upgrader   websocket.Upgrader
	host       string
	port       int
	clients    map[string]*WSClient
	clientsMu  sync.RWMutex
	messagesCh chan WSMessage
	done       chan struct{}
	closed     bool
	mu         sync.RWMutex
}

// WSClient represents a connected MCP client via WebSocket
type WSClient struct {
	ID        string
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func (c *WSClient) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// WSMessage represents a message received via WebSocket
type WSMessage struct {
	ClientID string
	Data     []byte
}

// NewWebSocketTransport creates a new WebSocket transport for remote AI agents
func NewWebSocketTransport(logger *logrus.Logger, host string, port int) *WebSocketTransport {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	transport := &WebSocketTransport{
		logger: logger,
		router: router,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// MCP clients connect from arbitrary local tooling.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		host:       host,
		port:       port,
		clients:    make(map[string]*WSClient),
		messagesCh: make(chan WSMessage, 100),
		done:       make(chan struct{}),
	}

	transport.setupRoutes()

	return transport
}

// setupRoutes configures HTTP routes for WebSocket upgrades
func (t *WebSocketTransport) setupRoutes() {
	t.router.GET("/mcp/ws", t.handleWebSocketConnection)

	t.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"service":   "egfr-calculator",
			"transport": "websocket",
			"clients":   t.GetConnectedClients(),
		})
	})
}

// Start initializes the WebSocket transport
func (t *WebSocketTransport) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return fmt.Errorf("transport is closed")
	}

	addr := fmt.Sprintf("%s:%d", t.host, t.port)
	t.server = &http.Server{
		Addr:    addr,
		Handler: t.router,
	}

	t.logger.WithFields(logrus.Fields{
		"address": addr,
		"type":    "websocket",
	}).Info("Starting WebSocket transport for MCP communication")

	go func() {
		if err := t.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.logger.WithError(err).Error("WebSocket HTTP server failed")
		}
	}()

	return nil
}

// handleWebSocketConnection upgrades an HTTP request and services the peer
func (t *WebSocketTransport) handleWebSocketConnection(c *gin.Context) {
	clientID := c.Query("client_id")
	if clientID == "" {
		clientID = uuid.NewString()
	}

	conn, err := t.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		t.logger.WithError(err).Error("WebSocket upgrade failed")
		return
	}

	client := &WSClient{
		ID:   clientID,
		conn: conn,
		send: make(chan []byte, 50),
		done: make(chan struct{}),
	}

	t.clientsMu.Lock()
	t.clients[clientID] = client
	t.clientsMu.Unlock()

	t.logger.WithField("client_id", clientID).Info("New WebSocket client connected")

	go t.writePump(client)
	t.readPump(client)
}

// readPump forwards inbound frames to the message queue. It exits when
// the peer disconnects or the transport closes.
func (t *WebSocketTransport) readPump(client *WSClient) {
	defer t.removeClient(client)

	client.conn.SetReadLimit(wsMaxMessageSize)
	client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		_, message, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				t.logger.WithError(err).WithField("client_id", client.ID).Warn("WebSocket read failed")
			}
			return
		}

		// Block until queued; TCP backpressure throttles the peer.
		select {
		case t.messagesCh <- WSMessage{ClientID: client.ID, Data: message}:
		case <-t.done:
			return
		}
	}
}

// writePump delivers queued messages and keep-alive pings to the peer
func (t *WebSocketTransport) writePump(client *WSClient) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case message := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				t.logger.WithError(err).WithField("client_id", client.ID).Debug("WebSocket write failed")
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-client.done:
			client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			client.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// removeClient unregisters and tears down a client connection
func (t *WebSocketTransport) removeClient(client *WSClient) {
	t.clientsMu.Lock()
	delete(t.clients, client.ID)
	t.clientsMu.Unlock()

	client.close()
	client.conn.Close()
	t.logger.WithField("client_id", client.ID).Info("WebSocket client disconnected")
}

// ReadMessage reads the next queued client message. It blocks until a
// message arrives or the transport is closed.
func (t *WebSocketTransport) ReadMessage() ([]byte, error) {
	select {
	case msg := <-t.messagesCh:
		return msg.Data, nil
	case <-t.done:
		return nil, io.EOF
	}
}

// WriteMessage sends a message to all connected clients
func (t *WebSocketTransport) WriteMessage(message []byte) error {
	t.clientsMu.RLock()
	defer t.clientsMu.RUnlock()

	if len(t.clients) == 0 {
		return fmt.Errorf("no connected clients")
	}

	for clientID, client := range t.clients {
		select {
		case client.send <- message:
			t.logger.WithField("client_id", clientID).Debug("Message queued for client")
		default:
			t.logger.WithField("client_id", clientID).Warn("Client message queue full, dropping message")
		}
	}

	return nil
}

// WriteJSONMessage writes a JSON object as a message
func (t *WebSocketTransport) WriteJSONMessage(obj interface{}) error {
	data, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return t.WriteMessage(data)
}

// Close closes the WebSocket transport
func (t *WebSocketTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}

	t.closed = true
	close(t.done)

	// Close all client connections
	t.clientsMu.Lock()
	for _, client := range t.clients {
		client.close()
	}
	t.clients = make(map[string]*WSClient)
	t.clientsMu.Unlock()

	// Shutdown HTTP server
	if t.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := t.server.Shutdown(ctx); err != nil {
			t.logger.WithError(err).Error("Error shutting down WebSocket server")
			return err
		}
	}

	t.logger.Info("WebSocket transport closed")
	return nil
}

// IsClosed returns whether the transport is closed
func (t *WebSocketTransport) IsClosed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.closed
}

// GetType returns the transport type
func (t *WebSocketTransport) GetType() string {
	return "websocket"
}

// GetConnectedClients returns the number of connected clients
func (t *WebSocketTransport) GetConnectedClients() int {
	t.clientsMu.RLock()
	defer t.clientsMu.RUnlock()
	return len(t.clients)
}
