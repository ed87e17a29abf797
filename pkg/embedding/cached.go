package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/patrickmn/go-cache"
)

// CachedProvider wraps another provider with an in-memory TTL cache so a
// repeated query skips the network round trip. Only query embeddings are
// cached; document chunks are embedded once at ingestion and would only
// bloat the cache.
type CachedProvider struct {
	inner EmbeddingProvider
	store *cache.Cache
}

// NewCachedProvider decorates a provider with a query-embedding cache. A
// non-positive TTL falls back to one hour.
func NewCachedProvider(inner EmbeddingProvider, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}
	return &CachedProvider{
		inner: inner,
		store: cache.New(ttl, 10*time.Minute),
	}
}

func (p *CachedProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	if taskType != TaskRetrievalQuery {
		return p.inner.Generate(ctx, text, taskType)
	}

	key := cacheKey(text, taskType)
	if cached, found := p.store.Get(key); found {
		return cached.(*EmbeddingResponse), nil
	}

	res, err := p.inner.Generate(ctx, text, taskType)
	if err != nil {
		return nil, err
	}

	p.store.Set(key, res, cache.DefaultExpiration)
	return res, nil
}

// cacheKey hashes text plus task type; raw query text would make unbounded
// map keys and leak user queries into debug dumps.
func cacheKey(text string, taskType string) string {
	sum := sha256.Sum256([]byte(taskType + "\x00" + text))
	return hex.EncodeToString(sum[:])
}
