// ABOUTME: discover and version commands
// ABOUTME: Lists nodes and decode services found over mDNS, prints build info
package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/Resonate-Protocol/lavalink-go/internal/discovery"
	"github.com/Resonate-Protocol/lavalink-go/internal/version"
	"github.com/spf13/cobra"
)

func newDiscoverCommand(a *app) *cobra.Command {
	var decode bool

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Browse the local network for nodes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			service := discovery.NodeService
			if decode {
				service = discovery.DecodeService
			}

			nodes, err := discovery.Discover(cmd.Context(), service, a.cfg.Discovery.Timeout, a.log)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(nodes) == 0 {
				fmt.Fprintf(out, "no %s services found\n", service)
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tADDRESS\tTXT")
			for _, n := range nodes {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", n.Name, n.Addr(), strings.Join(n.Text, " "))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&decode, "decode", false, "Browse for decode services instead of nodes")

	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// Skips configuration loading
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.ClientName())
		},
	}
}
