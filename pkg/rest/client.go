// ABOUTME: HTTP client for the node REST API
// ABOUTME: Loads tracks by identifier and decodes track blobs remotely
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 4 << 10
)

// StatusError is returned when the node answers with a non-2xx status
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("node returned HTTP %d", e.Code)
	}
	return fmt.Sprintf("node returned HTTP %d: %s", e.Code, e.Body)
}

// Config holds REST client configuration
type Config struct {
	BaseURL    string // e.g. http://localhost:2333
	Password   string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client talks to one node's REST API
type Client struct {
	baseURL  string
	password string
	http     *http.Client
	log      *zap.Logger
}

// NewClient creates a REST client
func NewClient(config Config) *Client {
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	return &Client{
		baseURL:  strings.TrimRight(config.BaseURL, "/"),
		password: config.Password,
		http:     config.HTTPClient,
		log:      config.Logger,
	}
}

// LoadTracks resolves an identifier (URL or "ytsearch:..." query) into tracks
func (c *Client) LoadTracks(ctx context.Context, identifier string) (*LoadResult, error) {
	var result LoadResult
	path := "/loadtracks?identifier=" + url.QueryEscape(identifier)
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, fmt.Errorf("failed to load tracks: %w", err)
	}

	c.log.Debug("loaded tracks",
		zap.String("identifier", identifier),
		zap.String("loadType", string(result.LoadType)),
		zap.Int("tracks", len(result.Tracks)))

	return &result, nil
}

// DecodeTrack asks the node to decode one track blob
func (c *Client) DecodeTrack(ctx context.Context, encoded string) (*TrackInfo, error) {
	var info TrackInfo
	path := "/decodetrack?track=" + url.QueryEscape(encoded)
	if err := c.do(ctx, http.MethodGet, path, nil, &info); err != nil {
		return nil, fmt.Errorf("failed to decode track: %w", err)
	}
	return &info, nil
}

// DecodeTracks asks the node to decode several track blobs in one request
func (c *Client) DecodeTracks(ctx context.Context, encoded []string) ([]Track, error) {
	body, err := json.Marshal(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	var tracks []Track
	if err := c.do(ctx, http.MethodPost, "/decodetracks", body, &tracks); err != nil {
		return nil, fmt.Errorf("failed to decode tracks: %w", err)
	}
	return tracks, nil
}

// do sends a request and decodes a JSON response into out
func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.password)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid response body: %w", err)
	}
	return nil
}
