// ABOUTME: Entry point for the lavalink command line tool
// ABOUTME: Hands control to the cobra command tree
package main

import "github.com/Resonate-Protocol/lavalink-go/internal/cli"

func main() {
	cli.Execute()
}
