// ABOUTME: Read-through cache in front of a track loader
// ABOUTME: Serves repeated /loadtracks lookups from the cache
package cache

import (
	"context"
	"time"

	"github.com/Resonate-Protocol/lavalink-go/pkg/rest"
	"go.uber.org/zap"
)

// Loader resolves identifiers into tracks. *rest.Client implements it.
type Loader interface {
	LoadTracks(ctx context.Context, identifier string) (*rest.LoadResult, error)
}

// LoadCache stores load results. *Store implements it.
type LoadCache interface {
	GetLoad(ctx context.Context, identifier string) (*rest.LoadResult, error)
	SaveLoad(ctx context.Context, identifier string, result *rest.LoadResult, ttl time.Duration) error
}

// CachedLoader answers from the cache and falls back to the wrapped loader.
// Cache failures are logged and never fail a load.
type CachedLoader struct {
	next  Loader
	cache LoadCache
	ttl   time.Duration
	log   *zap.Logger
}

// NewCachedLoader wraps next with cache
func NewCachedLoader(next Loader, cache LoadCache, ttl time.Duration, log *zap.Logger) *CachedLoader {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedLoader{next: next, cache: cache, ttl: ttl, log: log}
}

// LoadTracks implements Loader
func (l *CachedLoader) LoadTracks(ctx context.Context, identifier string) (*rest.LoadResult, error) {
	cached, err := l.cache.GetLoad(ctx, identifier)
	if err != nil {
		l.log.Warn("cache lookup failed", zap.String("identifier", identifier), zap.Error(err))
	} else if cached != nil {
		l.log.Debug("cache hit", zap.String("identifier", identifier))
		return cached, nil
	}

	result, err := l.next.LoadTracks(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if cacheable(result) {
		if err := l.cache.SaveLoad(ctx, identifier, result, l.ttl); err != nil {
			l.log.Warn("cache store failed", zap.String("identifier", identifier), zap.Error(err))
		}
	}

	return result, nil
}

// cacheable reports whether a result is worth keeping. Failures and empty
// searches may succeed on the next attempt.
func cacheable(result *rest.LoadResult) bool {
	switch result.LoadType {
	case rest.TrackLoaded, rest.PlaylistLoaded, rest.SearchResult:
		return len(result.Tracks) > 0
	default:
		return false
	}
}
