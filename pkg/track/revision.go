// ABOUTME: Known track format revisions and header flag handling
// ABOUTME: Maps a format version to the byte layout used to read the fields
package track

const (
	// ImplicitVersion is reported when the header carries no version byte
	ImplicitVersion = 1

	// LatestVersion is the newest format version this package decodes
	LatestVersion = 3

	// flagVersioned marks a blob that carries an explicit version byte. The
	// two flag bits are bits 30-31 of the big-endian size/flags word, which
	// are the top two bits of its first byte.
	flagVersioned = 1

	// headerFramingSize is the rest of the size/flags word after its first byte
	// that the decoder does not interpret.
	headerFramingSize = 2
)

// revision describes the byte layout of one format version
type revision struct {
	version  uint8
	reserved int         // bytes skipped between the header and the first field
	width    LengthWidth // string length prefix width
	extended bool        // artwork URL and ISRC precede the source name
}

// lookupRevision returns the layout for version. Versions outside the known
// set are rejected rather than guessed at.
func lookupRevision(version uint8) (revision, bool) {
	switch version {
	case 1, 2:
		return revision{version: version, reserved: 2, width: Length16}, true
	case 3:
		return revision{version: version, reserved: 2, width: Length16, extended: true}, true
	default:
		return revision{}, false
	}
}

// isVersioned reports whether the header byte has the versioned flag set
func isVersioned(header uint8) bool {
	flags := (header & 0xC0) >> 6
	return flags&flagVersioned != 0
}
