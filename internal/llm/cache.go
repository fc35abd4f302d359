package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedChatter запоминает успешные ответы на одинаковые запросы.
// В однообразных логах чанки часто совпадают побайтно.
type CachedChatter struct {
	next   Chatter
	cache  *lru.Cache[string, string]
	hits   atomic.Int64
	misses atomic.Int64
}

// NewCachedChatter оборачивает next в LRU заданного размера.
// При size <= 0 кэш выключен и next возвращается как есть.
func NewCachedChatter(next Chatter, size int) Chatter {
	if size <= 0 {
		return next
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return next
	}
	return &CachedChatter{next: next, cache: cache}
}

func (c *CachedChatter) Chat(ctx context.Context, systemPrompt, userContent string) (string, error) {
	key := cacheKey(systemPrompt, userContent)
	if answer, ok := c.cache.Get(key); ok {
		c.hits.Add(1)
		return answer, nil
	}
	c.misses.Add(1)

	answer, err := c.next.Chat(ctx, systemPrompt, userContent)
	if err != nil {
		return "", err
	}
	c.cache.Add(key, answer)
	return answer, nil
}

// Stats - попадания и промахи кэша на текущий момент
func (c *CachedChatter) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func cacheKey(systemPrompt, userContent string) string {
	h := sha256.New()
	h.Write([]byte(systemPrompt))
	h.Write([]byte{0})
	h.Write([]byte(userContent))
	return hex.EncodeToString(h.Sum(nil))
}
