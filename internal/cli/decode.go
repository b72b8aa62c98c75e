// ABOUTME: decode command
// ABOUTME: Decodes track strings locally and optionally fetches their artwork
package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Resonate-Protocol/lavalink-go/internal/artwork"
	"github.com/Resonate-Protocol/lavalink-go/pkg/rest"
	"github.com/Resonate-Protocol/lavalink-go/pkg/track"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type decodeOptions struct {
	json       bool
	artwork    bool
	artworkDir string
}

// decodeOutput is one line of --json output
type decodeOutput struct {
	Track       string          `json:"track"`
	Version     uint8           `json:"version,omitempty"`
	Info        *rest.TrackInfo `json:"info,omitempty"`
	ArtworkPath string          `json:"artworkPath,omitempty"`
	Error       string          `json:"error,omitempty"`
}

func newDecodeCommand(a *app) *cobra.Command {
	opts := &decodeOptions{}

	cmd := &cobra.Command{
		Use:   "decode [track...]",
		Short: "Decode base64 track strings without contacting a node",
		Long: "Decode base64 track strings without contacting a node.\n" +
			"With no arguments, one track per line is read from stdin.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				var err error
				if args, err = readLines(cmd.InOrStdin()); err != nil {
					return err
				}
			}
			if len(args) == 0 {
				return fmt.Errorf("no tracks given")
			}
			return a.runDecode(cmd, opts, args)
		},
	}

	cmd.Flags().BoolVar(&opts.json, "json", false, "Print one JSON object per track")
	cmd.Flags().BoolVar(&opts.artwork, "artwork", false, "Download artwork of version 3 tracks")
	cmd.Flags().StringVar(&opts.artworkDir, "artwork-dir", "", "Artwork directory (default: OS temp dir)")

	return cmd
}

func (a *app) runDecode(cmd *cobra.Command, opts *decodeOptions, encoded []string) error {
	var dl *artwork.Downloader
	if opts.artwork || opts.artworkDir != "" {
		var err error
		if dl, err = artwork.NewDownloader(opts.artworkDir, a.log); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	failed := 0

	for i, res := range track.DecodeAll(encoded...) {
		entry := decodeOutput{Track: res.Encoded}

		if res.Err != nil {
			failed++
			a.log.Debug("decode failed", zap.Int("index", i), zap.Error(res.Err))
			entry.Error = res.Err.Error()
		} else {
			info := rest.InfoFromDescriptor(res.Track)
			entry.Version = res.Track.Version
			entry.Info = &info

			if dl != nil && res.Track.ArtworkURL != nil {
				path, err := dl.Download(cmd.Context(), *res.Track.ArtworkURL)
				if err != nil {
					a.log.Warn("artwork download failed", zap.String("url", *res.Track.ArtworkURL), zap.Error(err))
				}
				entry.ArtworkPath = path
			}
		}

		if opts.json {
			if err := enc.Encode(entry); err != nil {
				return err
			}
			continue
		}

		if i > 0 {
			fmt.Fprintln(out)
		}
		printDecoded(out, entry, res.Track)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d tracks failed to decode", failed, len(encoded))
	}
	return nil
}

func printDecoded(w io.Writer, entry decodeOutput, d *track.Descriptor) {
	if entry.Error != "" {
		fmt.Fprintf(w, "Error:      %s\n", entry.Error)
		return
	}

	fmt.Fprintf(w, "Title:      %s\n", d.Title)
	fmt.Fprintf(w, "Author:     %s\n", d.Author)
	if d.IsStream {
		fmt.Fprintf(w, "Length:     live\n")
	} else {
		fmt.Fprintf(w, "Length:     %s\n", d.Duration())
	}
	fmt.Fprintf(w, "Identifier: %s\n", d.Identifier)
	fmt.Fprintf(w, "Source:     %s\n", d.SourceName)
	if d.URI != nil {
		fmt.Fprintf(w, "URI:        %s\n", *d.URI)
	}
	if d.ArtworkURL != nil {
		fmt.Fprintf(w, "Artwork:    %s\n", *d.ArtworkURL)
	}
	if d.ISRC != nil {
		fmt.Fprintf(w, "ISRC:       %s\n", *d.ISRC)
	}
	if entry.ArtworkPath != "" {
		fmt.Fprintf(w, "Saved:      %s\n", entry.ArtworkPath)
	}
	fmt.Fprintf(w, "Version:    %d\n", d.Version)
}

// readLines returns the non-empty trimmed lines of r
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}
