// ABOUTME: Registry of players keyed by guild
// ABOUTME: Creates players and applies node updates and events to them
package player

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Resonate-Protocol/lavalink-go/pkg/protocol"
	"github.com/disgoorg/snowflake/v2"
	"go.uber.org/zap"
)

var (
	// ErrPlayerAlreadyExists is returned by Create for a guild that has a player
	ErrPlayerAlreadyExists = errors.New("player already exists for the guild")

	// ErrPlayerNotFound is returned when no player exists for a guild
	ErrPlayerNotFound = errors.New("no player for the guild")
)

// Manager owns the players of one node connection
type Manager struct {
	sender   Sender
	listener Listener
	log      *zap.Logger

	mu      sync.RWMutex
	players map[snowflake.ID]*Player
}

// NewManager creates an empty manager. A nil listener or logger is replaced
// by a no-op.
func NewManager(sender Sender, listener Listener, logger *zap.Logger) *Manager {
	if listener == nil {
		listener = NopListener{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Manager{
		sender:   sender,
		listener: listener,
		log:      logger,
		players:  make(map[snowflake.ID]*Player),
	}
}

// Create adds a player for guildID
func (m *Manager) Create(guildID snowflake.ID) (*Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.players[guildID]; ok {
		return nil, fmt.Errorf("%w: %s", ErrPlayerAlreadyExists, guildID)
	}

	p := newPlayer(guildID, m.sender, m.listener, m.log)
	m.players[guildID] = p
	m.log.Debug("player created", zap.Stringer("guild", guildID))
	return p, nil
}

// Get returns the player for guildID
func (m *Manager) Get(guildID snowflake.ID) (*Player, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.players[guildID]
	return p, ok
}

// Has reports whether a player exists for guildID
func (m *Manager) Has(guildID snowflake.ID) bool {
	_, ok := m.Get(guildID)
	return ok
}

// Len returns the number of players
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.players)
}

// Remove destroys the player on the node and forgets it. The player is
// forgotten even when the destroy message cannot be sent.
func (m *Manager) Remove(guildID snowflake.ID) error {
	m.mu.Lock()
	p, ok := m.players[guildID]
	delete(m.players, guildID)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, guildID)
	}
	return p.Destroy()
}

// States returns snapshots of every player ordered by guild ID
func (m *Manager) States() []State {
	m.mu.RLock()
	states := make([]State, 0, len(m.players))
	for _, p := range m.players {
		states = append(states, p.State())
	}
	m.mu.RUnlock()

	slices.SortFunc(states, func(a, b State) int {
		switch {
		case a.GuildID < b.GuildID:
			return -1
		case a.GuildID > b.GuildID:
			return 1
		}
		return 0
	})
	return states
}

// HandlePlayerUpdate applies a position update from the node
func (m *Manager) HandlePlayerUpdate(update protocol.PlayerUpdate) {
	p, ok := m.Get(update.GuildID)
	if !ok {
		m.log.Debug("player update for unknown guild", zap.Stringer("guild", update.GuildID))
		return
	}
	p.applyUpdate(update.State)
}

// HandleEvent routes a node event to the listener of the guild's player
func (m *Manager) HandleEvent(event protocol.Event) {
	p, ok := m.Get(event.GuildID)
	if !ok {
		m.log.Debug("event for unknown guild",
			zap.Stringer("guild", event.GuildID), zap.String("type", string(event.Type)))
		return
	}

	switch event.Type {
	case protocol.TrackStartEvent:
		m.listener.TrackStart(p, event.Track)

	case protocol.TrackEndEvent:
		// A replaced track ends after its successor was already started.
		if event.Reason != "REPLACED" {
			p.clearTrackIf(event.Track)
		}
		m.listener.TrackEnd(p, event.Track, event.Reason)

	case protocol.TrackExceptionEvent:
		m.listener.TrackException(p, event.Track, event.ExceptionMessage())

	case protocol.TrackStuckEvent:
		m.listener.TrackStuck(p, event.Track, time.Duration(event.ThresholdMs)*time.Millisecond)

	case protocol.WebSocketClosedEvent:
		m.log.Warn("voice websocket closed",
			zap.Stringer("guild", event.GuildID),
			zap.Int("code", event.Code),
			zap.String("reason", event.Reason),
			zap.Bool("byRemote", event.ByRemote))

	default:
		m.log.Warn("unknown event type", zap.String("type", string(event.Type)))
	}
}
