// ABOUTME: Tests for the high-level node
// ABOUTME: Drives a node against an in-process websocket and REST server
package lavalink

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/Resonate-Protocol/lavalink-go/internal/tracktest"
	"github.com/Resonate-Protocol/lavalink-go/pkg/player"
	"github.com/Resonate-Protocol/lavalink-go/pkg/protocol"
	"github.com/Resonate-Protocol/lavalink-go/pkg/rest"
	"github.com/gorilla/websocket"
)

type startListener struct {
	player.NopListener
	started chan string
}

func (l *startListener) TrackStart(_ *player.Player, track string) {
	l.started <- track
}

func TestNewNodeDefaults(t *testing.T) {
	node := NewNode(NodeConfig{Host: "localhost", Resume: true})

	if node.config.Port != 2333 {
		t.Errorf("expected port 2333, got %d", node.config.Port)
	}
	if node.config.NumShards != 1 {
		t.Errorf("expected 1 shard, got %d", node.config.NumShards)
	}
	if node.ResumeKey() == "" {
		t.Error("expected generated resume key")
	}
	if node.Name() != "localhost" {
		t.Errorf("expected name localhost, got %s", node.Name())
	}
	if _, ok := node.Stats(); ok {
		t.Error("expected no stats before connecting")
	}

	plain := NewNode(NodeConfig{Host: "localhost"})
	if plain.ResumeKey() != "" {
		t.Error("resume key should be empty when resuming is off")
	}
}

func TestNodeEndToEnd(t *testing.T) {
	encoded := tracktest.Encoded(tracktest.Sample)
	conns := make(chan *websocket.Conn, 1)
	upgrader := websocket.Upgrader{}

	mux := http.NewServeMux()
	mux.HandleFunc("/loadtracks", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(rest.LoadResult{
			LoadType: rest.TrackLoaded,
			Tracks:   []rest.Track{{Encoded: encoded}},
		})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns <- conn
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	host, port, _ := net.SplitHostPort(server.Listener.Addr().String())
	p, _ := strconv.Atoi(port)

	listener := &startListener{started: make(chan string, 1)}
	node := NewNode(NodeConfig{Host: host, Port: p, Password: "pw", UserID: 1, Listener: listener})

	statsSeen := make(chan protocol.Stats, 1)
	node.OnStats(func(s protocol.Stats) { statsSeen <- s })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := node.Connect(ctx); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	conn := <-conns

	result, err := node.REST().LoadTracks(ctx, "local")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	pl, err := node.Players().Create(42)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := pl.Play(result.Tracks[0].Encoded, 0, 0); err != nil {
		t.Fatalf("play failed: %v", err)
	}

	conn.WriteMessage(websocket.TextMessage, []byte(`{"op":"stats","players":1,"playingPlayers":1,"uptime":5,"memory":{},"cpu":{}}`))
	conn.WriteMessage(websocket.TextMessage, []byte(`{"op":"playerUpdate","guildId":"42","state":{"time":1,"position":5000}}`))
	conn.WriteMessage(websocket.TextMessage, []byte(`{"op":"event","type":"TrackStartEvent","guildId":"42","track":"`+encoded+`"}`))

	select {
	case s := <-statsSeen:
		if s.PlayingPlayers != 1 {
			t.Errorf("unexpected stats: %+v", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for stats")
	}

	select {
	case tr := <-listener.started:
		if tr != encoded {
			t.Errorf("unexpected track started: %s", tr)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for track start")
	}

	if stats, ok := node.Stats(); !ok || stats.Players != 1 {
		t.Errorf("expected stored stats, got %+v", stats)
	}

	deadline := time.Now().Add(2 * time.Second)
	for pl.State().Position != 5*time.Second && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if pos := pl.State().Position; pos != 5*time.Second {
		t.Errorf("expected position 5s, got %v", pos)
	}
	if info := pl.State().Info; info == nil || info.Identifier != "dQw4w9WgXcQ" {
		t.Errorf("expected decoded track info, got %+v", info)
	}

	node.Close()
	if node.IsConnected() {
		t.Error("expected node to be disconnected")
	}
}

func TestNodeResumesAfterDisconnect(t *testing.T) {
	upgrader := websocket.Upgrader{}
	conns := make(chan *websocket.Conn, 2)
	resumeKeys := make(chan string, 2)
	received := make(chan string, 4)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resumeKeys <- r.Header.Get("Resume-Key")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns <- conn
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var m struct {
				Op string `json:"op"`
			}
			if json.Unmarshal(data, &m) == nil {
				received <- m.Op
			}
		}
	}))
	defer server.Close()

	host, port, _ := net.SplitHostPort(server.Listener.Addr().String())
	p, _ := strconv.Atoi(port)
	node := NewNode(NodeConfig{Host: host, Port: p, Password: "pw", UserID: 1, Resume: true})
	defer node.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := node.Connect(ctx); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	pl, err := node.Players().Create(42)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	done := node.Done()
	(<-conns).Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("node did not notice the disconnect")
	}

	if err := node.Connect(ctx); err != nil {
		t.Fatalf("reconnect failed: %v", err)
	}
	defer (<-conns).Close()

	first, second := <-resumeKeys, <-resumeKeys
	if first == "" || first != second {
		t.Errorf("expected the same resume key on both connections, got %q and %q", first, second)
	}

	if err := pl.Pause(true); err != nil {
		t.Fatalf("pause after reconnect failed: %v", err)
	}
	select {
	case op := <-received:
		if op != "pause" {
			t.Errorf("expected pause at node, got %s", op)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("node never received the pause")
	}
}
