// ABOUTME: High-level Lavalink client package
// ABOUTME: Node connection with players, REST access and stats
// Package lavalink is the entry point for talking to a Lavalink node.
//
// A Node owns the websocket connection, the guild players created on it
// and a REST client for loading tracks.
//
// Example:
//
//	node := lavalink.NewNode(lavalink.NodeConfig{
//		Host:     "localhost",
//		Password: "youshallnotpass",
//		UserID:   botID,
//	})
//	if err := node.Connect(ctx); err != nil {
//		return err
//	}
//	defer node.Close()
//
//	result, err := node.REST().LoadTracks(ctx, "ytsearch:daft punk")
//	p, err := node.Players().Create(guildID)
//	err = p.Play(result.Tracks[0].Encoded, 0, 0)
package lavalink
