// ABOUTME: Lavalink wire protocol package
// ABOUTME: Defines node messages and the WebSocket client
// Package protocol implements the Lavalink node WebSocket protocol.
//
// Provides opcode-tagged JSON message types and a client that routes
// player updates, stats and events from a node onto typed channels.
//
// Example:
//
//	client := protocol.NewClient(protocol.Config{
//		Host:     "localhost",
//		Password: "youshallnotpass",
//		UserID:   botID,
//	})
//	err := client.Connect(ctx)
//	err = client.Send(protocol.NewPause(guildID, true))
package protocol
