// ABOUTME: Tests for the command line tool
// ABOUTME: Runs commands through the cobra tree against httptest nodes
package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Resonate-Protocol/lavalink-go/internal/tracktest"
	"github.com/Resonate-Protocol/lavalink-go/internal/version"
	"github.com/Resonate-Protocol/lavalink-go/pkg/rest"
)

// run executes the root command with an isolated home directory
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "", "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if out != version.ClientName()+"\n" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestDecodeCommand(t *testing.T) {
	out, err := run(t, "", "decode", tracktest.Encoded(tracktest.Sample))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	for _, want := range []string{
		"Title:      Never Gonna Give You Up",
		"Author:     Rick Astley",
		"Length:     3m32s",
		"Identifier: dQw4w9WgXcQ",
		"Source:     youtube",
		"URI:        https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"Version:    2",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestDecodeCommandStdin(t *testing.T) {
	stream := tracktest.Track{Title: "Lofi Radio", Author: "Lofi Girl", Length: 1<<63 - 1, Identifier: "jfKfPfyJRdk", IsStream: true, SourceName: "youtube"}
	stdin := tracktest.Encoded(tracktest.Sample) + "\n\n  " + tracktest.Encoded(stream) + "  \n"

	out, err := run(t, stdin, "decode")
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !strings.Contains(out, "Title:      Lofi Radio") || !strings.Contains(out, "Length:     live") {
		t.Errorf("expected stream track in output:\n%s", out)
	}
	if strings.Count(out, "Title:") != 2 {
		t.Errorf("expected two tracks:\n%s", out)
	}
}

func TestDecodeCommandNoInput(t *testing.T) {
	if _, err := run(t, "", "decode"); err == nil {
		t.Fatal("expected error without tracks")
	}
}

func TestDecodeCommandJSONPartialFailure(t *testing.T) {
	out, err := run(t, "", "decode", "--json", tracktest.Encoded(tracktest.Sample), "AAAA")
	if err == nil || !strings.Contains(err.Error(), "1 of 2") {
		t.Fatalf("expected partial failure error, got %v", err)
	}

	var entries []decodeOutput
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		var e decodeOutput
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("invalid JSON line %q: %v", scanner.Text(), err)
		}
		entries = append(entries, e)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 JSON lines, got %d:\n%s", len(entries), out)
	}
	if entries[0].Info == nil || entries[0].Info.Title != tracktest.Sample.Title || entries[0].Version != 2 {
		t.Errorf("unexpected first entry %+v", entries[0])
	}
	if entries[1].Info != nil || entries[1].Error == "" {
		t.Errorf("expected second entry to carry an error, got %+v", entries[1])
	}
}

func TestDecodeCommandArtwork(t *testing.T) {
	images := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("png bytes"))
	}))
	defer images.Close()

	tr := tracktest.Sample
	tr.ArtworkURL = images.URL + "/vi/dQw4w9WgXcQ/cover.png"
	tr.ISRC = "GBARL9300135"

	dir := t.TempDir()
	out, err := run(t, "", "decode", "--json", "--artwork-dir", dir, tracktest.Encoded(tr))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	var entry decodeOutput
	if err := json.Unmarshal([]byte(out), &entry); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if entry.Version != 3 {
		t.Errorf("expected version 3, got %d", entry.Version)
	}
	if entry.Info.ISRC == nil || *entry.Info.ISRC != "GBARL9300135" {
		t.Errorf("expected ISRC, got %v", entry.Info.ISRC)
	}
	if !strings.HasPrefix(entry.ArtworkPath, dir) {
		t.Fatalf("expected artwork under %s, got %q", dir, entry.ArtworkPath)
	}
	data, err := os.ReadFile(entry.ArtworkPath)
	if err != nil || string(data) != "png bytes" {
		t.Errorf("unexpected artwork file content %q, %v", data, err)
	}
}

func TestCacheArtworkClean(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "art")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "cover.jpg"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "", "cache", "artwork-clean", "--artwork-dir", dir)
	if err != nil {
		t.Fatalf("artwork-clean failed: %v", err)
	}
	if !strings.Contains(out, "removed "+dir) {
		t.Errorf("unexpected output %q", out)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("artwork directory still exists")
	}
}

// pointAtNode directs the node configuration at srv through the environment
func pointAtNode(t *testing.T, srv *httptest.Server) {
	t.Helper()
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	host, port, err := net.SplitHostPort(u.Host)
	if err != nil {
		t.Fatal(err)
	}
	t.Setenv("LAVALINK_HOST", host)
	t.Setenv("LAVALINK_PORT", port)
	t.Setenv("LAVALINK_PASSWORD", "secret")
	t.Setenv("LAVALINK_REDIS_ENABLED", "false")
}

func TestLoadCommand(t *testing.T) {
	var gotIdentifier, gotAuth string
	node := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIdentifier = r.URL.Query().Get("identifier")
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(rest.LoadResult{
			LoadType:     rest.PlaylistLoaded,
			PlaylistInfo: &rest.PlaylistInfo{Name: "Hits", SelectedTrack: -1},
			Tracks: []rest.Track{{
				Encoded: tracktest.Encoded(tracktest.Sample),
				Info:    rest.TrackInfo{Title: "Never Gonna Give You Up", Author: "Rick Astley", Length: 212000},
			}},
		})
	}))
	defer node.Close()
	pointAtNode(t, node)

	out, err := run(t, "", "load", "ytsearch:rick astley")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if gotIdentifier != "ytsearch:rick astley" {
		t.Errorf("unexpected identifier %q", gotIdentifier)
	}
	if gotAuth != "secret" {
		t.Errorf("expected password in Authorization header, got %q", gotAuth)
	}
	for _, want := range []string{"Load type: PLAYLIST_LOADED", "Playlist:  Hits", "1. Rick Astley - Never Gonna Give You Up (3:32)"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestLoadCommandFailure(t *testing.T) {
	node := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(rest.LoadResult{
			LoadType:  rest.LoadFailed,
			Exception: &rest.Exception{Message: "video unavailable", Severity: "COMMON"},
		})
	}))
	defer node.Close()
	pointAtNode(t, node)

	out, err := run(t, "", "load", "https://youtu.be/removed")
	if err == nil {
		t.Fatal("expected error for failed load")
	}
	if !strings.Contains(out, "Exception: video unavailable (COMMON)") {
		t.Errorf("expected exception in output:\n%s", out)
	}
}

func TestInvalidConfigFile(t *testing.T) {
	if _, err := run(t, "", "--config", "/nonexistent/lavalink.yaml", "decode", "x"); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestAddrPort(t *testing.T) {
	tests := []struct {
		addr    string
		want    int
		wantErr bool
	}{
		{":8080", 8080, false},
		{"127.0.0.1:9000", 9000, false},
		{"8080", 0, true},
		{":http", 0, true},
		{":0", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			got, err := addrPort(tt.addr)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error=%v, got %v", tt.wantErr, err)
			}
			if got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestFormatMillis(t *testing.T) {
	if got := formatMillis(212000); got != "3:32" {
		t.Errorf("expected 3:32, got %s", got)
	}
	if got := formatMillis(3723000); got != "1:02:03" {
		t.Errorf("expected 1:02:03, got %s", got)
	}
}
