// ABOUTME: Tests for players and the player manager
// ABOUTME: Uses a recording sender in place of a node connection
package player

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Resonate-Protocol/lavalink-go/internal/tracktest"
	"github.com/Resonate-Protocol/lavalink-go/pkg/protocol"
	"github.com/disgoorg/snowflake/v2"
)

const guild = snowflake.ID(1234)

// fakeSender records sent messages and fails when err is set
type fakeSender struct {
	mu   sync.Mutex
	sent []protocol.Message
	err  error
}

func (s *fakeSender) Send(msg protocol.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *fakeSender) last() protocol.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return nil
	}
	return s.sent[len(s.sent)-1]
}

// recordingListener collects callback names
type recordingListener struct {
	NopListener
	calls []string
}

func (l *recordingListener) PlayerPause(*Player)  { l.calls = append(l.calls, "pause") }
func (l *recordingListener) PlayerResume(*Player) { l.calls = append(l.calls, "resume") }
func (l *recordingListener) TrackStart(_ *Player, track string) {
	l.calls = append(l.calls, "start:"+track)
}
func (l *recordingListener) TrackEnd(_ *Player, track, reason string) {
	l.calls = append(l.calls, "end:"+track+":"+reason)
}
func (l *recordingListener) TrackException(_ *Player, track, message string) {
	l.calls = append(l.calls, "exception:"+message)
}
func (l *recordingListener) TrackStuck(_ *Player, track string, threshold time.Duration) {
	l.calls = append(l.calls, "stuck:"+threshold.String())
}

func newTestManager() (*Manager, *fakeSender, *recordingListener) {
	sender := &fakeSender{}
	listener := &recordingListener{}
	return NewManager(sender, listener, nil), sender, listener
}

func TestManagerCreate(t *testing.T) {
	m, _, _ := newTestManager()

	p, err := m.Create(guild)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if p.GuildID() != guild {
		t.Errorf("expected guild %s, got %s", guild, p.GuildID())
	}

	if _, err := m.Create(guild); !errors.Is(err, ErrPlayerAlreadyExists) {
		t.Errorf("expected ErrPlayerAlreadyExists, got %v", err)
	}

	if !m.Has(guild) || m.Len() != 1 {
		t.Errorf("expected one player, got %d", m.Len())
	}
	if got, ok := m.Get(guild); !ok || got != p {
		t.Error("expected Get to return the created player")
	}
}

func TestManagerRemove(t *testing.T) {
	m, sender, _ := newTestManager()
	m.Create(guild)

	if err := m.Remove(guild); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if m.Has(guild) {
		t.Error("player should be gone")
	}
	if _, ok := sender.last().(protocol.Destroy); !ok {
		t.Errorf("expected destroy message, got %T", sender.last())
	}

	if err := m.Remove(guild); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("expected ErrPlayerNotFound, got %v", err)
	}
}

func TestManagerRemoveSendFailure(t *testing.T) {
	m, sender, _ := newTestManager()
	m.Create(guild)
	sender.err = protocol.ErrNotConnected

	if err := m.Remove(guild); !errors.Is(err, protocol.ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
	if m.Has(guild) {
		t.Error("player should be forgotten even if destroy failed")
	}
}

func TestPlayerDefaults(t *testing.T) {
	m, _, _ := newTestManager()
	p, _ := m.Create(guild)

	state := p.State()
	if state.Volume != DefaultVolume {
		t.Errorf("expected volume %d, got %d", DefaultVolume, state.Volume)
	}
	if state.Playing() || state.Paused {
		t.Errorf("new player should be idle: %+v", state)
	}
}

func TestPlayerPlay(t *testing.T) {
	m, sender, _ := newTestManager()
	p, _ := m.Create(guild)
	encoded := tracktest.Encoded(tracktest.Sample)

	if err := p.Play(encoded, 10*time.Second, 0); err != nil {
		t.Fatalf("play failed: %v", err)
	}

	play, ok := sender.last().(protocol.Play)
	if !ok {
		t.Fatalf("expected play message, got %T", sender.last())
	}
	if play.Track != encoded || play.StartTime != 10000 || play.EndTime != 0 {
		t.Errorf("unexpected play message: %+v", play)
	}

	state := p.State()
	if state.Track != encoded || state.Position != 10*time.Second {
		t.Errorf("unexpected state: %+v", state)
	}
	if state.Info == nil || state.Info.Title != "Never Gonna Give You Up" {
		t.Errorf("expected decoded info, got %+v", state.Info)
	}
}

func TestPlayerPlayUndecodableTrack(t *testing.T) {
	m, _, _ := newTestManager()
	p, _ := m.Create(guild)

	if err := p.Play("not-a-track", 0, 0); err != nil {
		t.Fatalf("undecodable track should still play: %v", err)
	}

	state := p.State()
	if !state.Playing() || state.Info != nil {
		t.Errorf("expected playing without info, got %+v", state)
	}
}

func TestPlayerSendFailureKeepsState(t *testing.T) {
	m, sender, listener := newTestManager()
	p, _ := m.Create(guild)
	sender.err = errors.New("broken pipe")

	if err := p.Play("x", 0, 0); err == nil {
		t.Error("expected play error")
	}
	if err := p.Pause(true); err == nil {
		t.Error("expected pause error")
	}
	if err := p.SetVolume(50); err == nil {
		t.Error("expected volume error")
	}

	state := p.State()
	if state.Playing() || state.Paused || state.Volume != DefaultVolume {
		t.Errorf("state changed despite failed sends: %+v", state)
	}
	if len(listener.calls) != 0 {
		t.Errorf("listener should not be called, got %v", listener.calls)
	}
}

func TestPlayerPause(t *testing.T) {
	m, _, listener := newTestManager()
	p, _ := m.Create(guild)

	p.Pause(true)
	if !p.State().Paused {
		t.Error("expected paused")
	}
	p.Pause(false)
	if p.State().Paused {
		t.Error("expected resumed")
	}

	if len(listener.calls) != 2 || listener.calls[0] != "pause" || listener.calls[1] != "resume" {
		t.Errorf("unexpected callbacks: %v", listener.calls)
	}
}

func TestPlayerVolumeClamp(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{-10, 0},
		{0, 0},
		{150, 150},
		{1000, 1000},
		{5000, 1000},
	}

	for _, tt := range tests {
		m, sender, _ := newTestManager()
		p, _ := m.Create(guild)

		if err := p.SetVolume(tt.in); err != nil {
			t.Fatalf("set volume failed: %v", err)
		}
		if got := p.State().Volume; got != tt.want {
			t.Errorf("volume %d: expected %d, got %d", tt.in, tt.want, got)
		}
		if msg := sender.last().(protocol.Volume); msg.Volume != tt.want {
			t.Errorf("volume %d: expected %d on the wire, got %d", tt.in, tt.want, msg.Volume)
		}
	}
}

func TestPlayerSeekAndStop(t *testing.T) {
	m, sender, _ := newTestManager()
	p, _ := m.Create(guild)
	p.Play(tracktest.Encoded(tracktest.Sample), 0, 0)

	if err := p.Seek(time.Minute); err != nil {
		t.Fatalf("seek failed: %v", err)
	}
	if seek := sender.last().(protocol.Seek); seek.Position != 60000 {
		t.Errorf("expected position 60000, got %d", seek.Position)
	}
	if p.State().Position != time.Minute {
		t.Errorf("expected position 1m, got %v", p.State().Position)
	}

	if err := p.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if p.State().Playing() {
		t.Error("expected idle after stop")
	}
}

func TestPlayerUpdateVoice(t *testing.T) {
	m, sender, _ := newTestManager()
	p, _ := m.Create(guild)

	if err := p.UpdateVoice("session", "token", "endpoint"); err != nil {
		t.Fatalf("voice update failed: %v", err)
	}
	msg := sender.last().(protocol.VoiceUpdate)
	if msg.SessionID != "session" || msg.Event.GuildID != guild {
		t.Errorf("unexpected voice update: %+v", msg)
	}
}

func TestHandlePlayerUpdate(t *testing.T) {
	m, _, _ := newTestManager()
	p, _ := m.Create(guild)

	m.HandlePlayerUpdate(protocol.PlayerUpdate{
		Op:      protocol.OpPlayerUpdate,
		GuildID: guild,
		State:   protocol.PlayerState{Time: 1700000000000, Position: 42000},
	})

	state := p.State()
	if state.Position != 42*time.Second {
		t.Errorf("expected position 42s, got %v", state.Position)
	}
	if !state.Time.Equal(time.UnixMilli(1700000000000)) {
		t.Errorf("unexpected time %v", state.Time)
	}

	// Unknown guilds are ignored.
	m.HandlePlayerUpdate(protocol.PlayerUpdate{GuildID: 99})
}

func TestHandleEvent(t *testing.T) {
	m, _, listener := newTestManager()
	p, _ := m.Create(guild)
	encoded := tracktest.Encoded(tracktest.Sample)
	p.Play(encoded, 0, 0)

	events := []protocol.Event{
		{Type: protocol.TrackStartEvent, GuildID: guild, Track: "a"},
		{Type: protocol.TrackExceptionEvent, GuildID: guild, Track: "a", Error: "boom"},
		{Type: protocol.TrackStuckEvent, GuildID: guild, Track: "a", ThresholdMs: 5000},
		{Type: protocol.TrackEndEvent, GuildID: guild, Track: "a", Reason: "LOAD_FAILED"},
		{Type: protocol.WebSocketClosedEvent, GuildID: guild, Code: 4006},
		{Type: protocol.TrackStartEvent, GuildID: 99, Track: "ignored"},
	}
	for _, e := range events {
		m.HandleEvent(e)
	}

	want := []string{"start:a", "exception:boom", "stuck:5s", "end:a:LOAD_FAILED"}
	if len(listener.calls) != len(want) {
		t.Fatalf("expected %v, got %v", want, listener.calls)
	}
	for i := range want {
		if listener.calls[i] != want[i] {
			t.Errorf("call %d: expected %s, got %s", i, want[i], listener.calls[i])
		}
	}

	if !p.State().Playing() {
		t.Error("end of a different track should not clear the current one")
	}

	m.HandleEvent(protocol.Event{Type: protocol.TrackEndEvent, GuildID: guild, Track: encoded, Reason: "REPLACED"})
	if !p.State().Playing() {
		t.Error("replaced track should not clear the player")
	}

	m.HandleEvent(protocol.Event{Type: protocol.TrackEndEvent, GuildID: guild, Track: encoded, Reason: "FINISHED"})
	if p.State().Playing() {
		t.Error("finished track should clear the player")
	}
}

func TestManagerStatesSorted(t *testing.T) {
	m, _, _ := newTestManager()
	for _, id := range []snowflake.ID{30, 10, 20} {
		m.Create(id)
	}

	states := m.States()
	if len(states) != 3 {
		t.Fatalf("expected 3 states, got %d", len(states))
	}
	for i, want := range []snowflake.ID{10, 20, 30} {
		if states[i].GuildID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, states[i].GuildID)
		}
	}
}

func TestEstimatedPosition(t *testing.T) {
	now := time.Now()
	d := tracktest.Sample

	tests := []struct {
		name  string
		state State
		want  time.Duration
	}{
		{"idle", State{Position: time.Second}, time.Second},
		{"paused", State{Track: "x", Paused: true, Position: time.Second, Time: now.Add(-time.Minute)}, time.Second},
		{"playing", State{Track: "x", Position: time.Second, Time: now.Add(-2 * time.Second)}, 3 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.EstimatedPosition(now); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}

	m, _, _ := newTestManager()
	p, _ := m.Create(guild)
	p.Play(tracktest.Encoded(d), 0, 0)
	capped := p.State().EstimatedPosition(now.Add(time.Hour))
	if capped != time.Duration(d.Length)*time.Millisecond {
		t.Errorf("expected position capped at track length, got %v", capped)
	}
}
