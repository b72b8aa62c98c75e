// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program for the node monitor
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/disgoorg/snowflake/v2"
)

// PauseMsg asks the owner of the node to pause or resume a guild
type PauseMsg struct {
	GuildID snowflake.ID
	Pause   bool
}

// QuitMsg signals that the user closed the monitor
type QuitMsg struct{}

// Control holds channels the monitor uses to talk back to its owner
type Control struct {
	Pause chan PauseMsg
	Quit  chan QuitMsg
}

// NewControl creates a control handler
func NewControl() *Control {
	return &Control{
		Pause: make(chan PauseMsg, 10),
		Quit:  make(chan QuitMsg, 1),
	}
}

// NewModel creates a new TUI model. control may be nil for a read-only monitor.
func NewModel(control *Control) Model {
	return Model{
		control: control,
		now:     time.Now,
	}
}

// Run creates the monitor program. The caller starts it with Run and feeds it
// StatusMsg and PlayersMsg through Send.
func Run(control *Control) *tea.Program {
	return tea.NewProgram(NewModel(control), tea.WithAltScreen())
}
