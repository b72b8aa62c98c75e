// ABOUTME: Root cobra command and shared setup
// ABOUTME: Loads configuration and builds the logger and node clients for subcommands
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/Resonate-Protocol/lavalink-go/internal/cache"
	"github.com/Resonate-Protocol/lavalink-go/internal/config"
	"github.com/Resonate-Protocol/lavalink-go/internal/logger"
	"github.com/Resonate-Protocol/lavalink-go/pkg/lavalink"
	"github.com/Resonate-Protocol/lavalink-go/pkg/player"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// tuiAnnotation marks commands that draw a TUI and need a quiet console logger
const tuiAnnotation = "tui"

// app carries state shared by every subcommand
type app struct {
	configPath string
	logLevel   string
	noTUI      bool

	cfg config.Config
	log *zap.Logger
}

// NewRootCommand builds the command tree
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "lavalink",
		Short:         "Lavalink client toolkit: decode tracks, query nodes and monitor players",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file (default: ./lavalink.yaml or ~/.config/lavalink-go/config.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override log level (debug, info, warn, error)")

	root.AddCommand(
		newDecodeCommand(a),
		newLoadCommand(a),
		newCacheCommand(a),
		newServeCommand(a),
		newMonitorCommand(a),
		newDiscoverCommand(a),
		newVersionCommand(),
	)

	return root
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cmd.Annotations[tuiAnnotation] == "true" && !a.noTUI {
		cfg.Log.Quiet = true
		if cfg.Log.File == "" {
			cfg.Log.File = "lavalink-monitor.log"
		}
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = log
	return nil
}

// newNode builds a node from configuration without connecting it
func (a *app) newNode(listener player.Listener) (*lavalink.Node, error) {
	userID, err := a.cfg.UserSnowflake()
	if err != nil {
		return nil, err
	}

	n := a.cfg.Node
	return lavalink.NewNode(lavalink.NodeConfig{
		Name:      n.Name,
		Host:      n.Host,
		Port:      n.Port,
		Secure:    n.Secure,
		Password:  n.Password,
		UserID:    userID,
		NumShards: n.NumShards,
		Resume:    n.Resume,
		ResumeKey: n.ResumeKey,
		Listener:  listener,
		Logger:    a.log,
	}), nil
}

// openStore connects to the configured Redis
func (a *app) openStore(ctx context.Context) (*cache.Store, error) {
	r := a.cfg.Redis
	client, err := cache.Connect(ctx, cache.Options{
		Addr:        r.Addr,
		Username:    r.Username,
		Password:    r.Password,
		DB:          r.DB,
		DialTimeout: r.DialTimeout,
		PingTimeout: r.PingTimeout,
	}, a.log)
	if err != nil {
		return nil, err
	}
	return cache.NewStore(client), nil
}

// loader returns the node's REST client, behind the Redis cache when enabled.
// The returned func releases the cache connection.
func (a *app) loader(ctx context.Context, useCache bool) (cache.Loader, func(), error) {
	node, err := a.newNode(nil)
	if err != nil {
		return nil, nil, err
	}

	if !useCache || !a.cfg.Redis.Enabled {
		return node.REST(), func() {}, nil
	}

	store, err := a.openStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	closeStore := func() {
		if err := store.Close(); err != nil {
			a.log.Warn("failed to close redis", zap.Error(err))
		}
	}
	return cache.NewCachedLoader(node.REST(), store, a.cfg.Redis.TTL, a.log), closeStore, nil
}
