// ABOUTME: Lavalink track blob decoder package
// ABOUTME: Turns encoded track strings into structured track metadata
// Package track decodes the binary track blobs produced by a Lavalink node.
//
// A blob starts with a short header carrying a "versioned" flag, an optional
// format version byte and reserved framing, followed by the track fields in an
// order fixed by the format version. Strings are length-prefixed UTF-8.
//
// Decoding is a pure function of its input: there is no package state, and
// Decode may be called concurrently on distinct buffers.
//
// Example:
//
//	info, err := track.DecodeBase64(encoded)
//	if err != nil {
//	    // the track is unusable, skip it
//	}
//	fmt.Printf("%s - %s (%s)\n", info.Author, info.Title, info.Duration())
package track
