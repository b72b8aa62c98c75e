// ABOUTME: Test helpers producing track blobs
// ABOUTME: Builds encoded tracks for tests of packages that consume them
package tracktest

import (
	"encoding/base64"
	"encoding/binary"
)

// Track holds the fields written by Blob
type Track struct {
	Title      string
	Author     string
	Length     uint64
	Identifier string
	IsStream   bool
	URI        string // Written only when non-empty
	SourceName string

	// Setting either switches Blob to the version 3 layout
	ArtworkURL string
	ISRC       string
}

// Blob encodes t in the version 2 layout, or version 3 when it carries
// artwork or an ISRC
func Blob(t Track) []byte {
	extended := t.ArtworkURL != "" || t.ISRC != ""

	version := byte(2)
	if extended {
		version = 3
	}
	buf := []byte{0x40, 0x00, 0x00, version, 0x00, 0x00}

	buf = putString(buf, t.Title)
	buf = putString(buf, t.Author)
	buf = binary.BigEndian.AppendUint64(buf, t.Length)
	buf = putString(buf, t.Identifier)

	if t.IsStream {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}

	if t.URI != "" {
		buf = putString(append(buf, 1), t.URI)
	} else {
		buf = append(buf, 0, 0)
	}

	if extended {
		buf = putNullable(buf, t.ArtworkURL)
		buf = putNullable(buf, t.ISRC)
	}

	buf = putString(buf, t.SourceName)
	return binary.BigEndian.AppendUint64(buf, 0) // position
}

// Encoded returns the base64 form of Blob(t)
func Encoded(t Track) string {
	return base64.StdEncoding.EncodeToString(Blob(t))
}

// Sample is a typical non-stream track
var Sample = Track{
	Title:      "Never Gonna Give You Up",
	Author:     "Rick Astley",
	Length:     212000,
	Identifier: "dQw4w9WgXcQ",
	URI:        "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	SourceName: "youtube",
}

func putString(buf []byte, s string) []byte {
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(s)))
	return append(buf, s...)
}

func putNullable(buf []byte, s string) []byte {
	if s == "" {
		return append(buf, 0)
	}
	return putString(append(buf, 1), s)
}
