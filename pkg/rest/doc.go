// ABOUTME: Node REST API package
// ABOUTME: Track loading and remote track decoding
// Package rest is a client for a node's HTTP API.
//
// Tracks returned by the node carry their encoded blob, which can be
// decoded locally with Track.Decode instead of another round trip.
//
// Example:
//
//	client := rest.NewClient(rest.Config{BaseURL: "http://localhost:2333", Password: "youshallnotpass"})
//	result, err := client.LoadTracks(ctx, "ytsearch:never gonna give you up")
package rest
