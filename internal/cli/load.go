// ABOUTME: load and cache commands
// ABOUTME: Resolves identifiers through the node REST API and manages the load and artwork caches
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/lavalink-go/internal/artwork"
	"github.com/Resonate-Protocol/lavalink-go/pkg/rest"
	"github.com/spf13/cobra"
)

func newLoadCommand(a *app) *cobra.Command {
	var (
		asJSON  bool
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "load <identifier>",
		Short: "Resolve an identifier or search query into tracks",
		Example: "  lavalink load https://www.youtube.com/watch?v=dQw4w9WgXcQ\n" +
			"  lavalink load 'ytsearch:never gonna give you up'",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			loader, release, err := a.loader(ctx, !noCache)
			if err != nil {
				return err
			}
			defer release()

			result, err := loader.LoadTracks(ctx, args[0])
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			printLoadResult(cmd.OutOrStdout(), result)
			if result.Failed() {
				return fmt.Errorf("load failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw load result")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Bypass the Redis cache")

	return cmd
}

func printLoadResult(w io.Writer, result *rest.LoadResult) {
	fmt.Fprintf(w, "Load type: %s\n", result.LoadType)

	if result.Exception != nil {
		fmt.Fprintf(w, "Exception: %s (%s)\n", result.Exception.Message, result.Exception.Severity)
	}
	if result.PlaylistInfo != nil && result.PlaylistInfo.Name != "" {
		fmt.Fprintf(w, "Playlist:  %s\n", result.PlaylistInfo.Name)
	}

	for i, t := range result.Tracks {
		length := "live"
		if !t.Info.IsStream {
			length = formatMillis(t.Info.Length)
		}
		fmt.Fprintf(w, "%3d. %s - %s (%s)\n", i+1, t.Info.Author, t.Info.Title, length)
		fmt.Fprintf(w, "     %s\n", t.Encoded)
	}
}

func newCacheCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the Redis load cache and the artwork directory",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "flush",
			Short: "Delete every cached load result",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := a.openStore(cmd.Context())
				if err != nil {
					return err
				}
				defer store.Close()

				if err := store.Flush(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "cache flushed")
				return nil
			},
		},
		&cobra.Command{
			Use:   "invalidate <identifier>",
			Short: "Delete the cached result of one identifier",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := a.openStore(cmd.Context())
				if err != nil {
					return err
				}
				defer store.Close()

				return store.Invalidate(cmd.Context(), args[0])
			},
		},
		newArtworkCleanCommand(a),
	)

	return cmd
}

func newArtworkCleanCommand(a *app) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "artwork-clean",
		Short: "Remove the artwork directory written by decode --artwork",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dl, err := artwork.NewDownloader(dir, a.log)
			if err != nil {
				return err
			}
			if err := dl.Cleanup(); err != nil {
				return fmt.Errorf("failed to remove %s: %w", dl.Dir(), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", dl.Dir())
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "artwork-dir", "", "Artwork directory (default: OS temp dir)")

	return cmd
}

func formatMillis(ms uint64) string {
	s := ms / 1000
	if s >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", s/3600, s/60%60, s%60)
	}
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
