// ABOUTME: HTTP handlers of the decode service
// ABOUTME: Single and batch track decoding, load proxying and health
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Resonate-Protocol/lavalink-go/internal/version"
	"github.com/Resonate-Protocol/lavalink-go/pkg/rest"
	"github.com/Resonate-Protocol/lavalink-go/pkg/track"
	"go.uber.org/zap"
)

const maxBodyBytes = 4 << 20

type errorResponse struct {
	Error string `json:"error"`
}

// decodedTrack is one entry of a /decodetracks response
type decodedTrack struct {
	Track string          `json:"track"`
	Info  *rest.TrackInfo `json:"info,omitempty"`
	Error string          `json:"error,omitempty"`
}

type healthzResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, healthzResponse{
		Status:        "ok",
		Version:       version.Version,
		UptimeSeconds: time.Since(s.started).Seconds(),
	})
}

func (s *Server) handleDecodeTrack(w http.ResponseWriter, r *http.Request) {
	encoded := r.URL.Query().Get("track")
	if encoded == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing track parameter"})
		return
	}

	d, err := track.DecodeBase64(encoded)
	if err != nil {
		s.log.Debug("decode failed", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, rest.InfoFromDescriptor(d))
}

func (s *Server) handleDecodeTracks(w http.ResponseWriter, r *http.Request) {
	var encoded []string
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&encoded); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "body must be a JSON array of encoded tracks"})
		return
	}
	if len(encoded) > s.config.MaxBatch {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "too many tracks in one request"})
		return
	}

	results := track.DecodeAll(encoded...)
	out := make([]decodedTrack, len(results))
	for i, res := range results {
		out[i].Track = res.Encoded
		if res.Err != nil {
			out[i].Error = res.Err.Error()
			continue
		}
		info := rest.InfoFromDescriptor(res.Track)
		out[i].Info = &info
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleLoadTracks(w http.ResponseWriter, r *http.Request) {
	if s.loader == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "no node configured"})
		return
	}

	identifier := r.URL.Query().Get("identifier")
	if identifier == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing identifier parameter"})
		return
	}

	result, err := s.loader.LoadTracks(r.Context(), identifier)
	if err != nil {
		s.log.Warn("load failed", zap.String("identifier", identifier), zap.Error(err))

		var statusErr *rest.StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusUnauthorized {
			writeJSON(w, http.StatusBadGateway, errorResponse{Error: "node rejected credentials"})
			return
		}
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
