// ABOUTME: Response types of the node REST API
// ABOUTME: Load results, encoded tracks and their JSON track info
package rest

import (
	"fmt"

	"github.com/Resonate-Protocol/lavalink-go/pkg/track"
)

// LoadType describes the outcome of a track load
type LoadType string

const (
	TrackLoaded    LoadType = "TRACK_LOADED"
	PlaylistLoaded LoadType = "PLAYLIST_LOADED"
	SearchResult   LoadType = "SEARCH_RESULT"
	NoMatches      LoadType = "NO_MATCHES"
	LoadFailed     LoadType = "LOAD_FAILED"
)

// LoadResult is the response of /loadtracks
type LoadResult struct {
	LoadType     LoadType      `json:"loadType"`
	PlaylistInfo *PlaylistInfo `json:"playlistInfo,omitempty"`
	Tracks       []Track       `json:"tracks"`
	Exception    *Exception    `json:"exception,omitempty"`
}

// Failed reports whether the node could not load the identifier
func (r *LoadResult) Failed() bool {
	return r.LoadType == LoadFailed
}

// PlaylistInfo is set when a playlist was loaded
type PlaylistInfo struct {
	Name          string `json:"name,omitempty"`
	SelectedTrack int    `json:"selectedTrack"` // -1 when none
}

// Exception describes a load failure
type Exception struct {
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// Track pairs an encoded track blob with the info the node decoded from it
type Track struct {
	Encoded string    `json:"track"`
	Info    TrackInfo `json:"info"`
}

// Decode decodes the track blob locally without asking the node
func (t Track) Decode() (*track.Descriptor, error) {
	d, err := track.DecodeBase64(t.Encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode track %s: %w", t.Info.Identifier, err)
	}
	return d, nil
}

// TrackInfo is the JSON form of a decoded track
type TrackInfo struct {
	Identifier string  `json:"identifier"`
	IsSeekable bool    `json:"isSeekable"`
	Author     string  `json:"author"`
	Length     uint64  `json:"length"`
	IsStream   bool    `json:"isStream"`
	Position   int64   `json:"position"`
	Title      string  `json:"title"`
	URI        *string `json:"uri"`
	SourceName string  `json:"sourceName"`
	ArtworkURL *string `json:"artworkUrl,omitempty"`
	ISRC       *string `json:"isrc,omitempty"`
}

// InfoFromDescriptor maps a locally decoded descriptor to the node's JSON shape
func InfoFromDescriptor(d *track.Descriptor) TrackInfo {
	return TrackInfo{
		Identifier: d.Identifier,
		IsSeekable: !d.IsStream,
		Author:     d.Author,
		Length:     d.Length,
		IsStream:   d.IsStream,
		Title:      d.Title,
		URI:        d.URI,
		SourceName: d.SourceName,
		ArtworkURL: d.ArtworkURL,
		ISRC:       d.ISRC,
	}
}
