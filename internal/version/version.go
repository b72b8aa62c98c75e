// ABOUTME: Version information for lavalink-go
// ABOUTME: Reported to nodes in the Client-Name header and by the CLI
package version

import "fmt"

const (
	// Version is the current release
	Version = "0.3.0"

	// Product is the client name sent to nodes
	Product = "lavalink-go"
)

// ClientName returns the value sent in the Client-Name header
func ClientName() string {
	return fmt.Sprintf("%s/%s", Product, Version)
}
