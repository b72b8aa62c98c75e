// ABOUTME: Per-guild player state and commands
// ABOUTME: Sends player commands to the node and tracks the resulting state
package player

import (
	"fmt"
	"sync"
	"time"

	"github.com/Resonate-Protocol/lavalink-go/pkg/protocol"
	"github.com/Resonate-Protocol/lavalink-go/pkg/track"
	"github.com/disgoorg/snowflake/v2"
	"go.uber.org/zap"
)

const (
	// DefaultVolume is the volume of a new player
	DefaultVolume = 100

	// MaxVolume is the highest volume a node accepts
	MaxVolume = 1000
)

// Sender delivers messages to a node. *protocol.Client implements it.
type Sender interface {
	Send(msg protocol.Message) error
}

// State is a snapshot of a player
type State struct {
	GuildID  snowflake.ID
	Track    string            // Encoded track, empty when idle
	Info     *track.Descriptor // Decoded Track, nil when idle or undecodable
	Time     time.Time         // When Position was reported by the node
	Position time.Duration
	Paused   bool
	Volume   int
}

// Playing reports whether a track is loaded
func (s State) Playing() bool {
	return s.Track != ""
}

// EstimatedPosition extrapolates Position to now for an unpaused track
func (s State) EstimatedPosition(now time.Time) time.Duration {
	if !s.Playing() || s.Paused || s.Time.IsZero() {
		return s.Position
	}
	pos := s.Position + now.Sub(s.Time)
	if s.Info != nil && !s.Info.IsStream {
		if d := s.Info.Duration(); d > 0 && pos > d {
			return d
		}
	}
	return pos
}

// Player controls playback for one guild
type Player struct {
	guildID  snowflake.ID
	sender   Sender
	listener Listener
	log      *zap.Logger

	mu       sync.RWMutex
	track    string
	info     *track.Descriptor
	time     time.Time
	position time.Duration
	paused   bool
	volume   int
}

func newPlayer(guildID snowflake.ID, sender Sender, listener Listener, log *zap.Logger) *Player {
	return &Player{
		guildID:  guildID,
		sender:   sender,
		listener: listener,
		log:      log.With(zap.Stringer("guild", guildID)),
		volume:   DefaultVolume,
	}
}

// GuildID returns the guild this player belongs to
func (p *Player) GuildID() snowflake.ID {
	return p.guildID
}

// State returns a snapshot of the player
func (p *Player) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return State{
		GuildID:  p.guildID,
		Track:    p.track,
		Info:     p.info,
		Time:     p.time,
		Position: p.position,
		Paused:   p.paused,
		Volume:   p.volume,
	}
}

// Play starts an encoded track. Zero start and end play the whole track.
func (p *Player) Play(encoded string, start, end time.Duration) error {
	if err := p.sender.Send(protocol.NewPlay(p.guildID, encoded, start, end)); err != nil {
		return fmt.Errorf("play: %w", err)
	}

	// An undecodable blob is still playable by the node.
	info, err := track.DecodeBase64(encoded)
	if err != nil {
		p.log.Warn("could not decode track", zap.Error(err))
	} else {
		p.log.Debug("playing", zap.Stringer("track", info))
	}

	p.mu.Lock()
	p.track = encoded
	p.info = info
	p.position = max(start, 0)
	p.time = time.Now()
	p.paused = false
	p.mu.Unlock()

	return nil
}

// Stop stops the current track
func (p *Player) Stop() error {
	if err := p.sender.Send(protocol.NewStop(p.guildID)); err != nil {
		return fmt.Errorf("stop: %w", err)
	}

	p.clearTrack()
	p.log.Debug("stopped")
	return nil
}

// Pause pauses or resumes playback
func (p *Player) Pause(pause bool) error {
	if err := p.sender.Send(protocol.NewPause(p.guildID, pause)); err != nil {
		return fmt.Errorf("pause: %w", err)
	}

	p.mu.Lock()
	p.paused = pause
	p.mu.Unlock()

	if pause {
		p.listener.PlayerPause(p)
	} else {
		p.listener.PlayerResume(p)
	}
	return nil
}

// Seek moves playback to position
func (p *Player) Seek(position time.Duration) error {
	if position < 0 {
		position = 0
	}
	if err := p.sender.Send(protocol.NewSeek(p.guildID, position)); err != nil {
		return fmt.Errorf("seek: %w", err)
	}

	p.mu.Lock()
	p.position = position
	p.time = time.Now()
	p.mu.Unlock()

	return nil
}

// SetVolume sets the volume, clamped to 0..MaxVolume
func (p *Player) SetVolume(volume int) error {
	volume = min(max(volume, 0), MaxVolume)

	if err := p.sender.Send(protocol.NewVolume(p.guildID, volume)); err != nil {
		return fmt.Errorf("volume: %w", err)
	}

	p.mu.Lock()
	p.volume = volume
	p.mu.Unlock()

	p.log.Debug("volume set", zap.Int("volume", volume))
	return nil
}

// Destroy removes the player from the node. Use Manager.Remove to also
// forget it locally.
func (p *Player) Destroy() error {
	if err := p.sender.Send(protocol.NewDestroy(p.guildID)); err != nil {
		return fmt.Errorf("destroy: %w", err)
	}
	p.clearTrack()
	return nil
}

// UpdateVoice forwards a Discord voice server update for this guild
func (p *Player) UpdateVoice(sessionID, token, endpoint string) error {
	msg := protocol.NewVoiceUpdate(p.guildID, sessionID, token, endpoint)
	if err := p.sender.Send(msg); err != nil {
		return fmt.Errorf("voice update: %w", err)
	}
	return nil
}

func (p *Player) clearTrack() {
	p.mu.Lock()
	p.track = ""
	p.info = nil
	p.position = 0
	p.time = time.Time{}
	p.mu.Unlock()
}

// clearTrackIf clears the current track only if it is still encoded
func (p *Player) clearTrackIf(encoded string) {
	p.mu.Lock()
	if p.track == encoded {
		p.track = ""
		p.info = nil
		p.position = 0
		p.time = time.Time{}
	}
	p.mu.Unlock()
}

func (p *Player) applyUpdate(state protocol.PlayerState) {
	p.mu.Lock()
	p.time = time.UnixMilli(state.Time)
	p.position = time.Duration(state.Position) * time.Millisecond
	p.mu.Unlock()
}
