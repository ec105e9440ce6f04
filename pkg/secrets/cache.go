package secrets

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/patrickmn/go-cache"
)

// CachedProvider memoises successful lookups for a fixed TTL. Failures are
// never cached, so a transient backend error is retried on the next action.
type CachedProvider struct {
	next   Provider
	cache  *cache.Cache
	logger *log.Logger
}

func NewCachedProvider(next Provider, ttl time.Duration, logger *log.Logger) *CachedProvider {
	return &CachedProvider{
		next:   next,
		cache:  cache.New(ttl, 2*ttl),
		logger: logger,
	}
}

func (p *CachedProvider) GetSecret(ctx context.Context, name string) (Credentials, error) {
	if cached, found := p.cache.Get(name); found {
		if creds, ok := cached.(Credentials); ok {
			return creds, nil
		}
	}

	creds, err := p.next.GetSecret(ctx, name)
	if err != nil {
		return Credentials{}, err
	}

	p.cache.Set(name, creds, cache.DefaultExpiration)
	p.logger.Debug("Cached secret", "name", name)
	return creds, nil
}

// Invalidate drops a cached entry, e.g. after the platform rejects the credentials.
func (p *CachedProvider) Invalidate(name string) {
	p.cache.Delete(name)
}
