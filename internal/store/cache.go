package store

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/standardbeagle/csearch/internal/apperr"
)

// Cache is the hot-set posting mirror (spec.md §4.3 tier 2): a
// network-attached set store keyed by "ng:<ngram>", used for fast
// server-side intersection at query time. Grounded on the original
// saku indexer's Redis usage (SADD into "ng:<ngram>", SINTER across
// keys at query time).
type Cache struct {
	client *redis.Client
}

// NewCache opens a connection to the posting cache at addr.
func NewCache(addr string) *Cache {
	return &Cache{client: redis.NewClient(&redis.Options{Addr: addr})}
}

// Close releases the underlying connection.
func (c *Cache) Close() error { return c.client.Close() }

func cacheKey(ngram string) string { return "ng:" + ngram }

// Merge adds every doc id in grams to its n-gram's cache set. Merge
// never removes ids — that mirrors the persistent store's union
// semantics for a batch and keeps tier 2 a strict superset mirror of
// whatever has ever been written to tier 1 for the ngrams touched,
// consistent even when PutPostings itself ran in Replace mode (a
// Replace rewrite already produced a correct, complete doc-id list
// that Merge simply reflects).
func (c *Cache) Merge(ctx context.Context, grams map[string][]int64) error {
	pipe := c.client.Pipeline()
	for ngram, ids := range grams {
		if len(ids) == 0 {
			continue
		}
		members := make([]any, len(ids))
		for i, id := range ids {
			members[i] = id
		}
		pipe.SAdd(ctx, cacheKey(ngram), members...)
	}
	_, err := pipe.Exec(ctx)
	if err != nil && err != redis.Nil {
		return apperr.New("cache.Merge", apperr.KindStoreUnavailable, err)
	}
	return nil
}

// Intersect returns the intersection of the cache sets for the given
// n-grams, decoded as int64 document ids. An empty ngrams slice returns
// an empty set (the caller is expected to special-case "no required
// clauses" itself rather than call Intersect with nothing).
func (c *Cache) Intersect(ctx context.Context, ngrams []string) (map[int64]struct{}, error) {
	if len(ngrams) == 0 {
		return map[int64]struct{}{}, nil
	}
	keys := make([]string, len(ngrams))
	for i, g := range ngrams {
		keys[i] = cacheKey(g)
	}
	members, err := c.client.SInter(ctx, keys...).Result()
	if err != nil {
		return nil, apperr.New("cache.Intersect", apperr.KindStoreUnavailable, err)
	}
	out := make(map[int64]struct{}, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		out[id] = struct{}{}
	}
	return out, nil
}

// Union returns the union of the cache sets for the given n-grams
// (used to evaluate a disjunction clause before intersecting it with
// the rest of the plan).
func (c *Cache) Union(ctx context.Context, ngrams []string) (map[int64]struct{}, error) {
	if len(ngrams) == 0 {
		return map[int64]struct{}{}, nil
	}
	keys := make([]string, len(ngrams))
	for i, g := range ngrams {
		keys[i] = cacheKey(g)
	}
	members, err := c.client.SUnion(ctx, keys...).Result()
	if err != nil {
		return nil, apperr.New("cache.Union", apperr.KindStoreUnavailable, err)
	}
	out := make(map[int64]struct{}, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		out[id] = struct{}{}
	}
	return out, nil
}
