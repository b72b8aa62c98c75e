// ABOUTME: Tests for mDNS discovery
// ABOUTME: Tests manager defaults and query answer conversion
package discovery

import (
	"net"
	"testing"

	"github.com/hashicorp/mdns"
)

func TestNewManager(t *testing.T) {
	mgr := NewManager(Config{ServiceName: "decode", Port: 8080})
	if mgr == nil {
		t.Fatal("expected manager to be created")
	}
	if mgr.config.Service != NodeService {
		t.Errorf("expected default service %s, got %s", NodeService, mgr.config.Service)
	}
	if mgr.config.QueryTimeout == 0 {
		t.Error("expected default query timeout")
	}
	mgr.Stop()
}

func TestEntryToNode(t *testing.T) {
	tests := []struct {
		name  string
		entry *mdns.ServiceEntry
		want  *NodeInfo
	}{
		{
			name: "ipv4",
			entry: &mdns.ServiceEntry{
				Name:       `Main\ Node._lavalink._tcp.local.`,
				AddrV4:     net.ParseIP("192.168.1.20"),
				Port:       2333,
				InfoFields: []string{"version=3"},
			},
			want: &NodeInfo{Name: "Main Node", Host: "192.168.1.20", Port: 2333, Text: []string{"version=3"}},
		},
		{
			name: "host only",
			entry: &mdns.ServiceEntry{
				Name: "node._lavalink._tcp.local.",
				Host: "node.local.",
				Port: 2333,
			},
			want: &NodeInfo{Name: "node", Host: "node.local", Port: 2333},
		},
		{
			name:  "no address",
			entry: &mdns.ServiceEntry{Name: "ghost._lavalink._tcp.local."},
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := entryToNode(tt.entry)
			if tt.want == nil {
				if got != nil {
					t.Errorf("expected nil, got %+v", got)
				}
				return
			}
			if got == nil {
				t.Fatal("expected node, got nil")
			}
			if got.Name != tt.want.Name || got.Host != tt.want.Host || got.Port != tt.want.Port {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
			if len(got.Text) != len(tt.want.Text) {
				t.Errorf("expected text %v, got %v", tt.want.Text, got.Text)
			}
		})
	}
}

func TestNodeInfoAddr(t *testing.T) {
	n := &NodeInfo{Host: "10.0.0.5", Port: 2333}
	if n.Addr() != "10.0.0.5:2333" {
		t.Errorf("unexpected addr %s", n.Addr())
	}
}
