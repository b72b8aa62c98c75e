// ABOUTME: Bubbletea model for the node monitor TUI
// ABOUTME: Defines monitor state, key handling and rendering
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Resonate-Protocol/lavalink-go/pkg/player"
	"github.com/Resonate-Protocol/lavalink-go/pkg/protocol"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/disgoorg/snowflake/v2"
)

const refreshInterval = time.Second

// Model represents the TUI state
type Model struct {
	// Connection
	connected bool
	nodeName  string
	lastError string

	// Node stats
	stats    *protocol.Stats
	statsAge time.Time

	// Players
	players  []player.State
	selected int

	// Debug
	showDebug bool

	// Dimensions
	width  int
	height int

	now     func() time.Time
	control *Control
}

// Init starts the refresh ticker
func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	case PlayersMsg:
		m.applyPlayers(msg)
	case TickMsg:
		return m, tick()
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString(m.renderStats())
	b.WriteString(m.renderPlayers())

	if m.showDebug {
		b.WriteString(m.renderDebug())
	}

	b.WriteString(m.renderHelp())

	return b.String()
}

// renderHeader renders connection status
func (m Model) renderHeader() string {
	connStatus := "Disconnected"
	if m.connected {
		connStatus = "Connected to " + m.nodeName
	}

	s := "┌─ Lavalink Monitor ───────────────────────────────────┐\n"
	s += line("Status: " + connStatus)
	if m.lastError != "" {
		s += line("Error:  " + m.lastError)
	}
	s += "├──────────────────────────────────────────────────────┤\n"
	return s
}

// renderStats renders the node's last stats frame
func (m Model) renderStats() string {
	if m.stats == nil {
		return line("Waiting for node stats")
	}

	st := m.stats
	s := line(fmt.Sprintf("Players: %d (%d playing)   Uptime: %s",
		st.Players, st.PlayingPlayers, formatDuration(st.UptimeDuration())))
	s += line(fmt.Sprintf("CPU:     [%s] %3.0f%% of %d cores",
		renderBar(int(st.CPU.LavalinkLoad*100), 100, 10), st.CPU.LavalinkLoad*100, st.CPU.Cores))
	s += line(fmt.Sprintf("Memory:  %s used / %s allocated",
		formatBytes(st.Memory.Used), formatBytes(st.Memory.Allocated)))
	if st.FrameStats != nil {
		s += line(fmt.Sprintf("Frames:  sent %d  nulled %d  deficit %d",
			st.FrameStats.Sent, st.FrameStats.Nulled, st.FrameStats.Deficit))
	}
	return s
}

// renderPlayers renders one block per guild player
func (m Model) renderPlayers() string {
	s := "├──────────────────────────────────────────────────────┤\n"
	if len(m.players) == 0 {
		return s + line("No players")
	}

	now := m.now()
	for i, p := range m.players {
		cursor := " "
		if i == m.selected {
			cursor = ">"
		}

		state := "idle"
		switch {
		case p.Playing() && p.Paused:
			state = "paused"
		case p.Playing():
			state = "playing"
		}
		s += line(fmt.Sprintf("%s Guild %s  %s  vol %d%%", cursor, p.GuildID, state, p.Volume))

		if !p.Playing() {
			continue
		}
		if p.Info == nil {
			s += line("    (undecodable track)")
			continue
		}

		s += line("    " + p.Info.Title + " - " + p.Info.Author)
		pos := p.EstimatedPosition(now)
		if p.Info.IsStream {
			s += line(fmt.Sprintf("    LIVE %s", formatDuration(pos)))
		} else {
			length := p.Info.Duration()
			s += line(fmt.Sprintf("    [%s] %s / %s",
				renderBar(int(pos/time.Second), int(length/time.Second), 20),
				formatDuration(pos), formatDuration(length)))
		}
	}
	return s
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return "│ ↑/↓:Select  p:Pause  d:Debug  q:Quit                 │\n" +
		"└──────────────────────────────────────────────────────┘\n"
}

// renderDebug renders debug information
func (m Model) renderDebug() string {
	s := "├──────────────────────────────────────────────────────┤\n"
	s += line("DEBUG:")
	if !m.statsAge.IsZero() {
		s += line(fmt.Sprintf("  Stats age: %s", m.now().Sub(m.statsAge).Truncate(time.Second)))
	}
	if m.stats != nil {
		s += line(fmt.Sprintf("  System load: %.2f  Free: %s",
			m.stats.CPU.SystemLoad, formatBytes(m.stats.Memory.Free)))
	}
	return s
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.control != nil {
			select {
			case m.control.Quit <- QuitMsg{}:
			default:
			}
		}
		return m, tea.Quit
	case "up":
		if m.selected > 0 {
			m.selected--
		}
	case "down":
		if m.selected < len(m.players)-1 {
			m.selected++
		}
	case "p", " ":
		if sel, ok := m.selectedPlayer(); ok && sel.Playing() && m.control != nil {
			select {
			case m.control.Pause <- PauseMsg{GuildID: sel.GuildID, Pause: !sel.Paused}:
			default:
			}
		}
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

func (m Model) selectedPlayer() (player.State, bool) {
	if m.selected < 0 || m.selected >= len(m.players) {
		return player.State{}, false
	}
	return m.players[m.selected], true
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Connected != nil {
		m.connected = *msg.Connected
	}
	if msg.NodeName != "" {
		m.nodeName = msg.NodeName
	}
	if msg.Stats != nil {
		m.stats = msg.Stats
		m.statsAge = m.now()
	}
	if msg.Err != nil {
		m.lastError = msg.Err.Error()
	}
}

// applyPlayers replaces the player list, keeping the selection on the same guild
func (m *Model) applyPlayers(msg PlayersMsg) {
	var selectedGuild snowflake.ID
	if sel, ok := m.selectedPlayer(); ok {
		selectedGuild = sel.GuildID
	}

	m.players = msg.Players
	m.selected = 0
	for i, p := range m.players {
		if p.GuildID == selectedGuild {
			m.selected = i
			break
		}
	}
}

// StatusMsg updates connection and stats state. Zero fields are ignored.
type StatusMsg struct {
	Connected *bool
	NodeName  string
	Stats     *protocol.Stats
	Err       error
}

// PlayersMsg carries a fresh snapshot of every player
type PlayersMsg struct {
	Players []player.State
}

// TickMsg triggers a redraw so positions advance
type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// Utility functions
func line(content string) string {
	return fmt.Sprintf("│ %-52s │\n", truncate(content, 52))
}

func renderBar(value, max, width int) string {
	if max <= 0 {
		return strings.Repeat("░", width)
	}
	filled := (value * width) / max
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func truncate(s string, length int) string {
	r := []rune(s)
	if len(r) <= length {
		return s
	}
	return string(r[:length-3]) + "..."
}

func formatDuration(d time.Duration) string {
	d = d.Truncate(time.Second)
	h := int(d / time.Hour)
	mnt := int(d/time.Minute) % 60
	sec := int(d/time.Second) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, mnt, sec)
	}
	return fmt.Sprintf("%d:%02d", mnt, sec)
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
