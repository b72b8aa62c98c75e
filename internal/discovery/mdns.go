// ABOUTME: mDNS service discovery for Lavalink nodes
// ABOUTME: Browses for nodes and advertises the local decode service
package discovery

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
	"go.uber.org/zap"
)

const (
	// NodeService is the service type nodes are advertised under
	NodeService = "_lavalink._tcp"

	// DecodeService is the service type of the local decode service
	DecodeService = "_lavalink-decode._tcp"

	defaultQueryTimeout = 3 * time.Second
)

// Config holds discovery configuration
type Config struct {
	ServiceName  string        // Instance name used when advertising
	Service      string        // Service type, defaults to NodeService
	Port         int           // Port advertised
	Text         []string      // TXT records advertised
	QueryTimeout time.Duration // Length of each browse round
	Logger       *zap.Logger
}

// Manager handles mDNS operations
type Manager struct {
	config Config
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
	nodes  chan *NodeInfo
}

// NodeInfo describes a discovered service instance
type NodeInfo struct {
	Name string
	Host string
	Port int
	Text []string
}

// Addr returns host:port
func (n *NodeInfo) Addr() string {
	return net.JoinHostPort(n.Host, fmt.Sprint(n.Port))
}

// NewManager creates a discovery manager
func NewManager(config Config) *Manager {
	if config.Service == "" {
		config.Service = NodeService
	}
	if config.QueryTimeout == 0 {
		config.QueryTimeout = defaultQueryTimeout
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		config: config,
		log:    config.Logger.Named("mdns"),
		ctx:    ctx,
		cancel: cancel,
		nodes:  make(chan *NodeInfo, 10),
	}
}

// Advertise announces the configured service until Stop is called
func (m *Manager) Advertise() error {
	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := mdns.NewMDNSService(
		m.config.ServiceName,
		m.config.Service,
		"",
		"",
		m.config.Port,
		ips,
		m.config.Text,
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	m.log.Info("advertising service",
		zap.String("name", m.config.ServiceName),
		zap.String("type", m.config.Service),
		zap.Int("port", m.config.Port))

	go func() {
		<-m.ctx.Done()
		server.Shutdown()
	}()

	return nil
}

// Browse searches for services in the background until Stop is called
func (m *Manager) Browse() error {
	go m.browseLoop()
	return nil
}

// browseLoop runs query rounds back to back
func (m *Manager) browseLoop() {
	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		entries := make(chan *mdns.ServiceEntry, 10)
		done := make(chan struct{})

		go func() {
			defer close(done)
			for entry := range entries {
				node := entryToNode(entry)
				if node == nil {
					continue
				}

				m.log.Debug("discovered", zap.String("name", node.Name), zap.String("addr", node.Addr()))

				select {
				case m.nodes <- node:
				case <-m.ctx.Done():
				}
			}
		}()

		params := mdns.DefaultParams(m.config.Service)
		params.Timeout = m.config.QueryTimeout
		params.Entries = entries
		params.DisableIPv6 = true

		if err := mdns.Query(params); err != nil {
			m.log.Warn("mdns query failed", zap.Error(err))
		}
		close(entries)
		<-done
	}
}

// Nodes returns the channel of discovered services
func (m *Manager) Nodes() <-chan *NodeInfo {
	return m.nodes
}

// Stop stops advertising and browsing
func (m *Manager) Stop() {
	m.cancel()
}

// Discover browses for timeout and returns each instance once
func Discover(ctx context.Context, service string, timeout time.Duration, log *zap.Logger) ([]*NodeInfo, error) {
	mgr := NewManager(Config{Service: service, QueryTimeout: timeout, Logger: log})
	defer mgr.Stop()

	if err := mgr.Browse(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	seen := make(map[string]bool)
	var found []*NodeInfo
	for {
		select {
		case node := <-mgr.Nodes():
			key := node.Name + "@" + node.Addr()
			if !seen[key] {
				seen[key] = true
				found = append(found, node)
			}
		case <-ctx.Done():
			return found, nil
		}
	}
}

// entryToNode converts a query answer, nil when it carries no address
func entryToNode(entry *mdns.ServiceEntry) *NodeInfo {
	var host string
	switch {
	case entry.AddrV4 != nil:
		host = entry.AddrV4.String()
	case entry.AddrV6 != nil:
		host = entry.AddrV6.String()
	case entry.Host != "":
		host = strings.TrimSuffix(entry.Host, ".")
	default:
		return nil
	}

	return &NodeInfo{
		Name: instanceName(entry.Name),
		Host: host,
		Port: entry.Port,
		Text: entry.InfoFields,
	}
}

// instanceName strips the service and domain from a full mDNS name
func instanceName(full string) string {
	name, _, found := strings.Cut(full, "._")
	if !found {
		return strings.TrimSuffix(full, ".")
	}
	return strings.ReplaceAll(name, `\ `, " ")
}

// getLocalIPs returns local IP addresses
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					ips = append(ips, ipnet.IP)
				}
			}
		}
	}

	return ips, nil
}
