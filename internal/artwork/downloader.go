// ABOUTME: Artwork downloader for decoded tracks
// ABOUTME: Fetches artwork URLs into a content-addressed cache directory
package artwork

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// DefaultDirName is the directory created under the OS temp dir
const DefaultDirName = "lavalink-artwork"

// Downloader manages artwork downloads
type Downloader struct {
	cacheDir string
	client   *http.Client
	log      *zap.Logger
}

// NewDownloader creates a downloader writing into dir. An empty dir uses
// DefaultDirName under the OS temp dir.
func NewDownloader(dir string, log *zap.Logger) (*Downloader, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), DefaultDirName)
	}
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &Downloader{
		cacheDir: dir,
		client:   &http.Client{},
		log:      log.Named("artwork"),
	}, nil
}

// Dir returns the cache directory
func (d *Downloader) Dir() string {
	return d.cacheDir
}

// Download fetches artwork from rawURL and saves it to the cache. An empty
// URL is not an error and yields an empty path.
func (d *Downloader) Download(ctx context.Context, rawURL string) (string, error) {
	if rawURL == "" {
		return "", nil
	}

	cachePath := filepath.Join(d.cacheDir, cacheName(rawURL))

	if _, err := os.Stat(cachePath); err == nil {
		d.log.Debug("cache hit", zap.String("path", cachePath))
		return cachePath, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("invalid artwork url: %w", err)
	}

	d.log.Debug("downloading", zap.String("url", rawURL))
	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download artwork: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("artwork download failed: HTTP %d", resp.StatusCode)
	}

	// Partial downloads never appear under the cache name
	tmp, err := os.CreateTemp(d.cacheDir, ".partial-*")
	if err != nil {
		return "", fmt.Errorf("failed to create cache file: %w", err)
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to save artwork: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to save artwork: %w", err)
	}
	if err := os.Rename(tmp.Name(), cachePath); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to save artwork: %w", err)
	}

	d.log.Info("artwork saved", zap.String("path", cachePath))
	return cachePath, nil
}

// Cleanup removes the cache directory and everything in it
func (d *Downloader) Cleanup() error {
	return os.RemoveAll(d.cacheDir)
}

func cacheName(rawURL string) string {
	hash := sha256.Sum256([]byte(rawURL))
	return fmt.Sprintf("%x%s", hash[:8], getExtension(rawURL))
}

// getExtension extracts the file extension from a URL path
func getExtension(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	} else {
		p, _, _ = strings.Cut(p, "?")
	}

	ext := filepath.Ext(p)
	if ext == "" || len(ext) > 5 {
		ext = ".jpg"
	}

	return ext
}
