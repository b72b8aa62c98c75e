// ABOUTME: Lavalink node message type definitions
// ABOUTME: Outgoing player commands and incoming updates, stats and events
package protocol

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// Message is implemented by every message that can be sent to a node
type Message interface {
	Opcode() Opcode
}

// envelope is decoded first to find out which message type follows
type envelope struct {
	Op      string       `json:"op"`
	GuildID snowflake.ID `json:"guildId,omitempty"`
}

// Play starts a track on a guild's player.
// Zero StartTime and EndTime mean "from the beginning" and "until the end".
type Play struct {
	Op        Opcode       `json:"op"`
	GuildID   snowflake.ID `json:"guildId"`
	Track     string       `json:"track"` // Base64-encoded track blob
	StartTime uint64       `json:"startTime"`
	EndTime   uint64       `json:"endTime"`
	NoReplace bool         `json:"noReplace,omitempty"`
}

// NewPlay creates a play message. start and end are truncated to milliseconds.
func NewPlay(guildID snowflake.ID, track string, start, end time.Duration) Play {
	return Play{
		Op:        OpPlay,
		GuildID:   guildID,
		Track:     track,
		StartTime: millis(start),
		EndTime:   millis(end),
	}
}

func (m Play) Opcode() Opcode { return m.Op }

// Pause sets the pause state of a guild's player
type Pause struct {
	Op      Opcode       `json:"op"`
	GuildID snowflake.ID `json:"guildId"`
	Pause   bool         `json:"pause"`
}

// NewPause creates a pause message
func NewPause(guildID snowflake.ID, pause bool) Pause {
	return Pause{Op: OpPause, GuildID: guildID, Pause: pause}
}

func (m Pause) Opcode() Opcode { return m.Op }

// Seek moves a guild's player to a position in milliseconds
type Seek struct {
	Op       Opcode       `json:"op"`
	GuildID  snowflake.ID `json:"guildId"`
	Position int64        `json:"position"`
}

// NewSeek creates a seek message
func NewSeek(guildID snowflake.ID, position time.Duration) Seek {
	return Seek{Op: OpSeek, GuildID: guildID, Position: position.Milliseconds()}
}

func (m Seek) Opcode() Opcode { return m.Op }

// Stop stops the current track of a guild's player
type Stop struct {
	Op      Opcode       `json:"op"`
	GuildID snowflake.ID `json:"guildId"`
}

// NewStop creates a stop message
func NewStop(guildID snowflake.ID) Stop {
	return Stop{Op: OpStop, GuildID: guildID}
}

func (m Stop) Opcode() Opcode { return m.Op }

// Volume sets a guild's player volume in place
type Volume struct {
	Op      Opcode       `json:"op"`
	GuildID snowflake.ID `json:"guildId"`
	Volume  int          `json:"volume"`
}

// NewVolume creates a volume message
func NewVolume(guildID snowflake.ID, volume int) Volume {
	return Volume{Op: OpVolume, GuildID: guildID, Volume: volume}
}

func (m Volume) Opcode() Opcode { return m.Op }

// Destroy removes a guild's player from the node
type Destroy struct {
	Op      Opcode       `json:"op"`
	GuildID snowflake.ID `json:"guildId"`
}

// NewDestroy creates a destroy message
func NewDestroy(guildID snowflake.ID) Destroy {
	return Destroy{Op: OpDestroy, GuildID: guildID}
}

func (m Destroy) Opcode() Opcode { return m.Op }

// VoiceUpdate relays a voice server update received from Discord
type VoiceUpdate struct {
	Op        Opcode           `json:"op"`
	GuildID   snowflake.ID     `json:"guildId"`
	SessionID string           `json:"sessionId"`
	Event     VoiceUpdateEvent `json:"event"`
}

// VoiceUpdateEvent is the raw voice server update payload
type VoiceUpdateEvent struct {
	Token    string       `json:"token"`
	GuildID  snowflake.ID `json:"guild_id"`
	Endpoint string       `json:"endpoint"`
}

// NewVoiceUpdate creates a voice update message
func NewVoiceUpdate(guildID snowflake.ID, sessionID, token, endpoint string) VoiceUpdate {
	return VoiceUpdate{
		Op:        OpVoiceUpdate,
		GuildID:   guildID,
		SessionID: sessionID,
		Event: VoiceUpdateEvent{
			Token:    token,
			GuildID:  guildID,
			Endpoint: endpoint,
		},
	}
}

func (m VoiceUpdate) Opcode() Opcode { return m.Op }

// PlayerUpdate reports the playback position of a guild's player
type PlayerUpdate struct {
	Op      Opcode       `json:"op"`
	GuildID snowflake.ID `json:"guildId"`
	State   PlayerState  `json:"state"`
}

func (m PlayerUpdate) Opcode() Opcode { return m.Op }

// PlayerState is the position snapshot inside a PlayerUpdate
type PlayerState struct {
	Time     int64 `json:"time"`     // Node unix time in ms when the snapshot was taken
	Position int64 `json:"position"` // Track position in ms
}

// Stats is sent periodically by the node
type Stats struct {
	Op             Opcode      `json:"op"`
	Players        int         `json:"players"`
	PlayingPlayers int         `json:"playingPlayers"`
	Uptime         int64       `json:"uptime"` // ms
	Memory         MemoryStats `json:"memory"`
	CPU            CPUStats    `json:"cpu"`
	FrameStats     *FrameStats `json:"frameStats,omitempty"` // Absent when no players are active
}

func (m Stats) Opcode() Opcode { return m.Op }

// UptimeDuration returns Uptime as a time.Duration
func (m Stats) UptimeDuration() time.Duration {
	return time.Duration(m.Uptime) * time.Millisecond
}

// MemoryStats holds JVM memory figures in bytes
type MemoryStats struct {
	Free       int64 `json:"free"`
	Used       int64 `json:"used"`
	Allocated  int64 `json:"allocated"`
	Reservable int64 `json:"reservable"`
}

// CPUStats holds load averages between 0 and 1
type CPUStats struct {
	Cores        int     `json:"cores"`
	SystemLoad   float64 `json:"systemLoad"`
	LavalinkLoad float64 `json:"lavalinkLoad"`
}

// FrameStats counts audio frames over the last minute
type FrameStats struct {
	Sent    int `json:"sent"`
	Nulled  int `json:"nulled"`
	Deficit int `json:"deficit"`
}

// EventType identifies the kind of an Event
type EventType string

const (
	TrackStartEvent      EventType = "TrackStartEvent"
	TrackEndEvent        EventType = "TrackEndEvent"
	TrackExceptionEvent  EventType = "TrackExceptionEvent"
	TrackStuckEvent      EventType = "TrackStuckEvent"
	WebSocketClosedEvent EventType = "WebSocketClosedEvent"
)

// Event is a player event emitted by the node. Which fields are set depends on Type.
type Event struct {
	Op          Opcode       `json:"op"`
	Type        EventType    `json:"type"`
	GuildID     snowflake.ID `json:"guildId"`
	Track       string       `json:"track,omitempty"`
	Reason      string       `json:"reason,omitempty"`    // TrackEndEvent, WebSocketClosedEvent
	Error       string       `json:"error,omitempty"`     // TrackExceptionEvent
	Exception   *Exception   `json:"exception,omitempty"` // TrackExceptionEvent
	ThresholdMs int64        `json:"thresholdMs,omitempty"`
	Code        int          `json:"code,omitempty"`
	ByRemote    bool         `json:"byRemote,omitempty"`
}

func (m Event) Opcode() Opcode { return m.Op }

// ExceptionMessage returns the most specific error text carried by the event
func (m Event) ExceptionMessage() string {
	if m.Exception != nil && m.Exception.Message != "" {
		return m.Exception.Message
	}
	return m.Error
}

// Exception describes a failure while loading or playing a track
type Exception struct {
	Message  string `json:"message"`
	Severity string `json:"severity"` // "COMMON", "SUSPICIOUS" or "FAULT"
	Cause    string `json:"cause,omitempty"`
}

func millis(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	return uint64(d.Milliseconds())
}
