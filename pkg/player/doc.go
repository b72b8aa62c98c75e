// ABOUTME: Player registry package
// ABOUTME: Guild players, their commands and lifecycle callbacks
// Package player keeps per-guild player state for a node connection.
//
// A Manager creates one Player per guild. Player commands are sent to the
// node through a Sender and the local state changes only once the send
// succeeded. Updates and events read from the node are applied with
// Manager.HandlePlayerUpdate and Manager.HandleEvent.
package player
