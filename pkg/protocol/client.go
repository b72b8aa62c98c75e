// ABOUTME: WebSocket client for Lavalink node communication
// ABOUTME: Handles connection headers, outgoing commands and message routing
package protocol

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/Resonate-Protocol/lavalink-go/internal/version"
	"github.com/disgoorg/snowflake/v2"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// DefaultPort is the port a node listens on unless configured otherwise
	DefaultPort = 2333

	defaultHandshakeTimeout = 10 * time.Second
	dropTimeout             = 100 * time.Millisecond
)

var (
	// ErrNotConnected is returned when sending on a closed or unopened client
	ErrNotConnected = errors.New("not connected")
	// ErrAlreadyConnected is returned by Connect while a connection is open
	ErrAlreadyConnected = errors.New("already connected")
)

// Config holds client configuration
type Config struct {
	Host             string
	Port             int
	Secure           bool // Use wss://
	Password         string
	UserID           snowflake.ID // Bot user ID
	NumShards        int
	ClientName       string
	ResumeKey        string // Sent as Resume-Key when non-empty
	HandshakeTimeout time.Duration
	Logger           *zap.Logger
}

// Client represents a WebSocket connection to one node
type Client struct {
	config  Config
	conn    *websocket.Conn
	mu      sync.RWMutex
	writeMu sync.Mutex
	log     *zap.Logger

	// Message channels
	PlayerUpdates chan PlayerUpdate
	Stats         chan Stats
	Events        chan Event

	// State. ctx belongs to the current connection and is replaced when a
	// new connection follows a closed one.
	connected bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewClient creates a new node client
func NewClient(config Config) *Client {
	if config.Port == 0 {
		config.Port = DefaultPort
	}
	if config.NumShards == 0 {
		config.NumShards = 1
	}
	if config.ClientName == "" {
		config.ClientName = version.ClientName()
	}
	if config.HandshakeTimeout == 0 {
		config.HandshakeTimeout = defaultHandshakeTimeout
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		config:        config,
		log:           config.Logger.With(zap.String("node", config.Host)),
		PlayerUpdates: make(chan PlayerUpdate, 100),
		Stats:         make(chan Stats, 10),
		Events:        make(chan Event, 100),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// URL returns the websocket address of the node
func (c *Client) URL() string {
	scheme := "ws"
	if c.config.Secure {
		scheme = "wss"
	}
	u := url.URL{
		Scheme: scheme,
		Host:   c.config.Host + ":" + strconv.Itoa(c.config.Port),
		Path:   "/",
	}
	return u.String()
}

// Header returns the headers sent when opening the connection
func (c *Client) Header() http.Header {
	h := http.Header{}
	h.Set("Authorization", c.config.Password)
	h.Set("User-Id", c.config.UserID.String())
	h.Set("Num-Shards", strconv.Itoa(c.config.NumShards))
	h.Set("Client-Name", c.config.ClientName)
	if c.config.ResumeKey != "" {
		h.Set("Resume-Key", c.config.ResumeKey)
	}
	return h
}

// Connect dials the node and starts routing incoming messages. A client
// may connect again after its previous connection closed.
func (c *Client) Connect(ctx context.Context) error {
	if c.IsConnected() {
		return ErrAlreadyConnected
	}

	target := c.URL()
	c.log.Info("connecting", zap.String("url", target))

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: c.config.HandshakeTimeout,
	}

	conn, resp, err := dialer.DialContext(ctx, target, c.Header())
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial failed with status %d: %w", resp.StatusCode, err)
		}
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		conn.Close()
		return ErrAlreadyConnected
	}
	if c.ctx.Err() != nil {
		c.ctx, c.cancel = context.WithCancel(context.Background())
	}
	c.conn = conn
	c.connected = true
	connCtx := c.ctx
	c.mu.Unlock()

	go c.readMessages(connCtx, conn)

	return nil
}

// Send writes msg to the node as JSON
func (c *Client) Send(msg Message) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.connected {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to send %s: %w", msg.Opcode(), err)
	}

	c.log.Debug("sent message", zap.Stringer("op", msg.Opcode()))
	return nil
}

// readMessages reads and routes incoming messages from conn
func (c *Client) readMessages(ctx context.Context, conn *websocket.Conn) {
	defer c.close(conn)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				c.log.Warn("read error", zap.Error(err))
			}
			return
		}

		if messageType != websocket.TextMessage {
			c.log.Debug("ignoring non-text message", zap.Int("type", messageType))
			continue
		}

		c.handleMessage(ctx, data)
	}
}

// handleMessage routes a JSON message by its opcode
func (c *Client) handleMessage(ctx context.Context, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.log.Warn("failed to parse message", zap.Error(err))
		return
	}

	op, err := ParseOpcode(env.Op)
	if err != nil {
		c.log.Warn("dropping message", zap.Error(err))
		return
	}

	switch op {
	case OpPlayerUpdate:
		var update PlayerUpdate
		if err := json.Unmarshal(data, &update); err != nil {
			c.log.Warn("failed to parse playerUpdate", zap.Error(err))
			return
		}
		select {
		case c.PlayerUpdates <- update:
		case <-time.After(dropTimeout):
			c.log.Warn("player update channel full, dropping message",
				zap.Stringer("guild", update.GuildID))
		}

	case OpStats:
		var stats Stats
		if err := json.Unmarshal(data, &stats); err != nil {
			c.log.Warn("failed to parse stats", zap.Error(err))
			return
		}
		select {
		case c.Stats <- stats:
		case <-time.After(dropTimeout):
			c.log.Warn("stats channel full, dropping message")
		}

	case OpEvent:
		var event Event
		if err := json.Unmarshal(data, &event); err != nil {
			c.log.Warn("failed to parse event", zap.Error(err))
			return
		}
		c.log.Debug("event", zap.String("type", string(event.Type)), zap.Stringer("guild", event.GuildID))
		select {
		case c.Events <- event:
		case <-ctx.Done():
		}

	default:
		c.log.Warn("unexpected opcode from node", zap.Stringer("op", op))
	}
}

// Done is closed when the current connection has been closed. Before the
// first Connect it belongs to the upcoming connection.
func (c *Client) Done() <-chan struct{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ctx.Done()
}

// Close closes the connection
func (c *Client) Close() {
	c.close(nil)
}

// close shuts down conn, or the current connection when conn is nil. A
// stale conn from an earlier connection is ignored.
func (c *Client) close(conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if conn != nil && conn != c.conn {
		return
	}
	if c.connected {
		c.connected = false
		c.cancel()
		c.writeMu.Lock()
		_ = c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		c.conn.Close()
		c.log.Info("connection closed")
	}
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
