// ABOUTME: Redis key layout for cached node responses
// ABOUTME: All keys share the lavalink: namespace
package cache

import "strings"

// KeyPrefixLoad namespaces cached /loadtracks results
const KeyPrefixLoad = "lavalink:load:"

// LoadKey returns the key for a load result of identifier
func LoadKey(identifier string) string {
	return KeyPrefixLoad + strings.TrimSpace(identifier)
}
