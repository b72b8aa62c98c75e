// ABOUTME: monitor command
// ABOUTME: Connects to a node and shows its stats and players in a TUI or as logs
package cli

import (
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/Resonate-Protocol/lavalink-go/internal/ui"
	"github.com/Resonate-Protocol/lavalink-go/pkg/lavalink"
	"github.com/Resonate-Protocol/lavalink-go/pkg/player"
	"github.com/Resonate-Protocol/lavalink-go/pkg/protocol"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const playersRefresh = 500 * time.Millisecond

// logListener logs node track events
type logListener struct {
	log *zap.Logger
}

func (l logListener) PlayerPause(p *player.Player) {
	l.log.Info("player paused", zap.Stringer("guild", p.GuildID()))
}

func (l logListener) PlayerResume(p *player.Player) {
	l.log.Info("player resumed", zap.Stringer("guild", p.GuildID()))
}

func (l logListener) TrackStart(p *player.Player, track string) {
	l.log.Info("track started", zap.Stringer("guild", p.GuildID()))
}

func (l logListener) TrackEnd(p *player.Player, track, reason string) {
	l.log.Info("track ended", zap.Stringer("guild", p.GuildID()), zap.String("reason", reason))
}

func (l logListener) TrackException(p *player.Player, track, message string) {
	l.log.Warn("track exception", zap.Stringer("guild", p.GuildID()), zap.String("message", message))
}

func (l logListener) TrackStuck(p *player.Player, track string, threshold time.Duration) {
	l.log.Warn("track stuck", zap.Stringer("guild", p.GuildID()), zap.Duration("threshold", threshold))
}

func newMonitorCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "monitor",
		Short:       "Connect to the node and watch its stats and players",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{tuiAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.RequireNode(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			node, err := a.newNode(logListener{log: a.log.Named("events")})
			if err != nil {
				return err
			}
			if err := node.Connect(ctx); err != nil {
				return err
			}
			defer node.Close()

			if a.noTUI {
				node.OnStats(func(s protocol.Stats) {
					a.log.Info("node stats",
						zap.Int("players", s.Players),
						zap.Int("playing", s.PlayingPlayers),
						zap.Duration("uptime", s.UptimeDuration()),
						zap.Float64("lavalink_load", s.CPU.LavalinkLoad),
						zap.Int64("memory_used", s.Memory.Used))
				})

				select {
				case <-ctx.Done():
					return nil
				case <-node.Done():
					return errors.New("node connection closed")
				}
			}

			return runMonitorTUI(a, node, ctx.Done())
		},
	}

	cmd.Flags().BoolVar(&a.noTUI, "no-tui", false, "Log stats instead of drawing the TUI")

	return cmd
}

func runMonitorTUI(a *app, node *lavalink.Node, interrupt <-chan struct{}) error {
	control := ui.NewControl()
	prog := ui.Run(control)

	node.OnStats(func(s protocol.Stats) {
		prog.Send(ui.StatusMsg{Stats: &s})
	})

	progDone := make(chan error, 1)
	go func() {
		_, err := prog.Run()
		progDone <- err
	}()

	connected := true
	prog.Send(ui.StatusMsg{Connected: &connected, NodeName: node.Name()})

	ticker := time.NewTicker(playersRefresh)
	defer ticker.Stop()

	nodeDone := node.Done()
	for {
		select {
		case <-ticker.C:
			prog.Send(ui.PlayersMsg{Players: node.Players().States()})

		case req := <-control.Pause:
			p, ok := node.Players().Get(req.GuildID)
			if !ok {
				continue
			}
			if err := p.Pause(req.Pause); err != nil {
				a.log.Warn("pause failed", zap.Stringer("guild", req.GuildID), zap.Error(err))
				prog.Send(ui.StatusMsg{Err: err})
			}

		case <-nodeDone:
			nodeDone = nil
			disconnected := false
			prog.Send(ui.StatusMsg{Connected: &disconnected, Err: errors.New("node connection closed")})

		case <-control.Quit:
			return <-progDone

		case err := <-progDone:
			return err

		case <-interrupt:
			prog.Quit()
			return <-progDone
		}
	}
}
