// ABOUTME: High-level connection to one Lavalink node
// ABOUTME: Composes the websocket client, player manager and REST client
package lavalink

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/Resonate-Protocol/lavalink-go/pkg/player"
	"github.com/Resonate-Protocol/lavalink-go/pkg/protocol"
	"github.com/Resonate-Protocol/lavalink-go/pkg/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NodeConfig holds node configuration
type NodeConfig struct {
	Name      string // Label used in logs, defaults to Host
	Host      string
	Port      int
	Secure    bool
	Password  string
	UserID    snowflake.ID
	NumShards int

	// Resume asks the node to keep players alive across reconnects.
	// A random ResumeKey is generated when none is set.
	Resume    bool
	ResumeKey string

	Listener   player.Listener
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Node is a connection to a node together with its players
type Node struct {
	config  NodeConfig
	log     *zap.Logger
	client  *protocol.Client
	players *player.Manager
	rest    *rest.Client

	mu      sync.RWMutex
	stats   *protocol.Stats
	onStats func(protocol.Stats)

	wg sync.WaitGroup
}

// NewNode creates a node. It does not connect.
func NewNode(config NodeConfig) *Node {
	if config.Port == 0 {
		config.Port = protocol.DefaultPort
	}
	if config.NumShards == 0 {
		config.NumShards = 1
	}
	if config.Resume && config.ResumeKey == "" {
		config.ResumeKey = uuid.New().String()
	}
	if config.Name == "" {
		config.Name = config.Host
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	log := config.Logger.Named("lavalink").With(zap.String("node", config.Name))

	client := protocol.NewClient(protocol.Config{
		Host:      config.Host,
		Port:      config.Port,
		Secure:    config.Secure,
		Password:  config.Password,
		UserID:    config.UserID,
		NumShards: config.NumShards,
		ResumeKey: config.ResumeKey,
		Logger:    log,
	})

	return &Node{
		config:  config,
		log:     log,
		client:  client,
		players: player.NewManager(client, config.Listener, log),
		rest: rest.NewClient(rest.Config{
			BaseURL:    restURL(config),
			Password:   config.Password,
			HTTPClient: config.HTTPClient,
			Logger:     log,
		}),
	}
}

func restURL(config NodeConfig) string {
	scheme := "http"
	if config.Secure {
		scheme = "https"
	}
	return scheme + "://" + config.Host + ":" + strconv.Itoa(config.Port)
}

// Name returns the node label
func (n *Node) Name() string {
	return n.config.Name
}

// ResumeKey returns the key sent to the node, empty when resuming is off
func (n *Node) ResumeKey() string {
	return n.config.ResumeKey
}

// Connect opens the websocket and starts applying node messages to players.
// It may be called again after the connection ends; with Resume set the
// node keeps its players for the same resume key.
func (n *Node) Connect(ctx context.Context) error {
	if err := n.client.Connect(ctx); err != nil {
		return fmt.Errorf("node %s: %w", n.config.Name, err)
	}

	n.wg.Add(1)
	go n.route(n.client.Done())

	n.log.Info("connected")
	return nil
}

// route dispatches incoming messages until done is closed
func (n *Node) route(done <-chan struct{}) {
	defer n.wg.Done()

	for {
		select {
		case update := <-n.client.PlayerUpdates:
			n.players.HandlePlayerUpdate(update)

		case event := <-n.client.Events:
			n.players.HandleEvent(event)

		case stats := <-n.client.Stats:
			n.mu.Lock()
			n.stats = &stats
			fn := n.onStats
			n.mu.Unlock()

			if fn != nil {
				fn(stats)
			}

		case <-done:
			n.log.Info("disconnected")
			return
		}
	}
}

// Players returns the player manager
func (n *Node) Players() *player.Manager {
	return n.players
}

// REST returns the REST client for this node
func (n *Node) REST() *rest.Client {
	return n.rest
}

// Stats returns the most recent stats, false if none were received yet
func (n *Node) Stats() (protocol.Stats, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.stats == nil {
		return protocol.Stats{}, false
	}
	return *n.stats, true
}

// OnStats registers fn to be called with every stats message
func (n *Node) OnStats(fn func(protocol.Stats)) {
	n.mu.Lock()
	n.onStats = fn
	n.mu.Unlock()
}

// IsConnected returns connection status
func (n *Node) IsConnected() bool {
	return n.client.IsConnected()
}

// Done is closed once the websocket connection has ended
func (n *Node) Done() <-chan struct{} {
	return n.client.Done()
}

// Close disconnects and waits for message routing to stop
func (n *Node) Close() {
	n.client.Close()
	n.wg.Wait()
}
