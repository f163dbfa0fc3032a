// Package rediscache wraps an Embedder with a Redis-backed cache so repeated
// inputs do not hit the embeddings API twice.
package rediscache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	rds "github.com/redis/go-redis/v9"

	"github.com/KamdynS/go-vecstore/embed"
	"github.com/KamdynS/go-vecstore/store"
)

type Cache struct {
	client *rds.Client
	inner  embed.Embedder
	ttl    time.Duration
	prefix string
}

// New wraps inner with a Redis cache. A zero ttl means entries never expire.
func New(client *rds.Client, inner embed.Embedder, ttl time.Duration, prefix string) *Cache {
	if prefix == "" {
		prefix = "embed"
	}
	return &Cache{client: client, inner: inner, ttl: ttl, prefix: prefix}
}

func (c *Cache) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return c.prefix + ":" + hex.EncodeToString(sum[:])
}

// Embed returns the cached vector for text, falling through to the wrapped
// embedder on a miss. Cache write failures do not fail the call.
func (c *Cache) Embed(ctx context.Context, text string) (store.Vector, error) {
	key := c.key(text)
	val, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var vec store.Vector
		if err := json.Unmarshal(val, &vec); err == nil {
			return vec, nil
		}
		// Corrupt entry: drop it and re-embed
		_ = c.client.Del(ctx, key).Err()
	} else if !errors.Is(err, rds.Nil) {
		return nil, err
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(vec); err == nil {
		_ = c.client.Set(ctx, key, b, c.ttl).Err()
	}
	return vec, nil
}

var _ embed.Embedder = (*Cache)(nil)
