// ABOUTME: Callback interface for player lifecycle events
// ABOUTME: Listener receives pause state changes and node track events
package player

import "time"

// Listener is notified of player state changes and track events.
// Callbacks run on the goroutine that caused them and must not block for long.
type Listener interface {
	PlayerPause(p *Player)
	PlayerResume(p *Player)
	TrackStart(p *Player, track string)
	TrackEnd(p *Player, track string, reason string)
	TrackException(p *Player, track string, message string)
	TrackStuck(p *Player, track string, threshold time.Duration)
}

// NopListener ignores every callback. Embed it to implement only some of them.
type NopListener struct{}

func (NopListener) PlayerPause(*Player) {}
func (NopListener) PlayerResume(*Player) {}
func (NopListener) TrackStart(*Player, string) {}
func (NopListener) TrackEnd(*Player, string, string) {}
func (NopListener) TrackException(*Player, string, string) {}
func (NopListener) TrackStuck(*Player, string, time.Duration) {}
