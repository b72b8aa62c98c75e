// ABOUTME: serve command
// ABOUTME: Runs the HTTP decode service and advertises it over mDNS
package cli

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/Resonate-Protocol/lavalink-go/internal/cache"
	"github.com/Resonate-Protocol/lavalink-go/internal/discovery"
	"github.com/Resonate-Protocol/lavalink-go/internal/server"
	"github.com/Resonate-Protocol/lavalink-go/internal/version"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCommand(a *app) *cobra.Command {
	var (
		noMDNS bool
		noLoad bool
		name   string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP track decode service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var loader cache.Loader
			if !noLoad {
				l, release, err := a.loader(ctx, true)
				if err != nil {
					return err
				}
				defer release()
				loader = l
			}

			srv := server.New(server.Config{
				Addr:         a.cfg.Server.Addr,
				ReadTimeout:  a.cfg.Server.ReadTimeout,
				WriteTimeout: a.cfg.Server.WriteTimeout,
				MaxBatch:     a.cfg.Server.MaxBatch,
			}, a.log, loader)

			if !noMDNS {
				mgr, err := a.advertise(name)
				if err != nil {
					a.log.Warn("mdns advertisement disabled", zap.Error(err))
				} else {
					defer mgr.Stop()
				}
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := srv.Stop(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return <-errCh
		},
	}

	cmd.Flags().BoolVar(&noMDNS, "no-mdns", false, "Disable mDNS advertisement")
	cmd.Flags().BoolVar(&noLoad, "no-load", false, "Disable the /loadtracks proxy to the node")
	cmd.Flags().StringVar(&name, "name", "", "Advertised instance name (default: hostname-lavalink-decode)")

	return cmd
}

func (a *app) advertise(name string) (*discovery.Manager, error) {
	port, err := addrPort(a.cfg.Server.Addr)
	if err != nil {
		return nil, err
	}

	if name == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		name = hostname + "-lavalink-decode"
	}

	mgr := discovery.NewManager(discovery.Config{
		ServiceName: name,
		Service:     discovery.DecodeService,
		Port:        port,
		Text:        []string{"version=" + version.Version, "path=/decodetrack"},
		Logger:      a.log,
	})
	if err := mgr.Advertise(); err != nil {
		mgr.Stop()
		return nil, err
	}
	return mgr, nil
}

// addrPort extracts the port of a listen address such as ":8080"
func addrPort(addr string) (int, error) {
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(p)
	if err != nil || port < 1 || port > 65535 {
		return 0, fmt.Errorf("invalid listen port %q", p)
	}
	return port, nil
}
