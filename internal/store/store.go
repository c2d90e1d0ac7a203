// Package store persists Document metadata and the n-gram posting
// index behind two tiers: an authoritative Postgres-backed store (this
// file, grounded on the pgxpool usage in the example pack's
// reposearch store) and a Redis-backed hot-set mirror used for fast
// intersection at query time (cache.go, grounded on the original
// saku indexer's SADD/SINTER usage).
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/standardbeagle/csearch/internal/apperr"
	"github.com/standardbeagle/csearch/internal/varint"
)

// Store is the Document Store (C3): the authoritative persistent tier
// plus the hot posting cache, kept in sync per the ordering guarantee
// in spec.md §5 (persistent store is written first, cache second).
type Store struct {
	pool  *pgxpool.Pool
	Cache *Cache
}

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id            BIGSERIAL PRIMARY KEY,
	path          TEXT NOT NULL UNIQUE,
	size          BIGINT NOT NULL,
	mime_type     TEXT NOT NULL,
	last_modified TIMESTAMPTZ NOT NULL,
	last_indexed  TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS ngram_postings (
	id           BIGSERIAL PRIMARY KEY,
	ngram        TEXT NOT NULL UNIQUE,
	doc_ids      BYTEA NOT NULL DEFAULT '',
	last_updated TIMESTAMPTZ
);
`

// Open connects to the persistent store at uri and ensures the schema
// exists. Schema migrations beyond this idempotent bootstrap are an
// external collaborator (spec.md §1) and out of scope here.
func Open(ctx context.Context, uri string, cache *Cache) (*Store, error) {
	pool, err := pgxpool.New(ctx, uri)
	if err != nil {
		return nil, apperr.New("store.Open", apperr.KindStoreUnavailable, err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, apperr.New("store.Open", apperr.KindStoreUnavailable, err)
	}
	return &Store{pool: pool, Cache: cache}, nil
}

// Close releases the connection pool.
func (s *Store) Close() { s.pool.Close() }

// ListDocuments returns every document whose path begins with prefix.
func (s *Store) ListDocuments(ctx context.Context, prefix string) ([]Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, path, size, mime_type, last_modified, last_indexed
		 FROM documents WHERE path LIKE $1`,
		escapeLikePrefix(prefix)+"%")
	if err != nil {
		return nil, apperr.New("store.ListDocuments", apperr.KindStoreUnavailable, err)
	}
	defer rows.Close()
	return scanDocuments(rows)
}

// UpsertDocuments inserts new documents and updates existing ones
// (matched by path), returning the assigned id for each input document
// in the same order.
func (s *Store) UpsertDocuments(ctx context.Context, docs []Document) ([]int64, error) {
	ids := make([]int64, len(docs))
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, apperr.New("store.UpsertDocuments", apperr.KindStoreUnavailable, err)
	}
	defer tx.Rollback(ctx)

	const q = `
		INSERT INTO documents (path, size, mime_type, last_modified, last_indexed)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (path) DO UPDATE SET
			size          = EXCLUDED.size,
			mime_type     = EXCLUDED.mime_type,
			last_modified = EXCLUDED.last_modified,
			last_indexed  = EXCLUDED.last_indexed
		RETURNING id`

	for i, d := range docs {
		var lastIndexed any
		if d.Indexed() {
			lastIndexed = d.LastIndexed
		}
		if err := tx.QueryRow(ctx, q, d.Path, d.Size, d.MimeType, d.LastModified, lastIndexed).Scan(&ids[i]); err != nil {
			return nil, apperr.New("store.UpsertDocuments", apperr.KindStoreUnavailable, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, apperr.New("store.UpsertDocuments", apperr.KindStoreUnavailable, err)
	}
	return ids, nil
}

// DeleteDocuments removes the documents with the given ids. Postings
// referencing these ids are left untouched (spec.md §4.4's documented
// deferred-cleanup policy); the Query Executor tolerates stale ids.
func (s *Store) DeleteDocuments(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE id = ANY($1)`, ids)
	if err != nil {
		return apperr.New("store.DeleteDocuments", apperr.KindStoreUnavailable, err)
	}
	return nil
}

// PutPostings merges grams (ngram -> doc ids contributed by the current
// batch) into the persistent store under mode, then mirrors the result
// into the hot cache. The persistent write always happens before the
// cache write, so a reader can observe the persistent value slightly
// ahead of the cache but never the reverse.
func (s *Store) PutPostings(ctx context.Context, grams map[string][]int64, mode PostingMode) error {
	if len(grams) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return apperr.New("store.PutPostings", apperr.KindStoreUnavailable, err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	merged := make(map[string][]int64, len(grams))
	for ngram, ids := range grams {
		final := ids
		if mode == Union {
			var existing []byte
			err := tx.QueryRow(ctx, `SELECT doc_ids FROM ngram_postings WHERE ngram = $1`, ngram).Scan(&existing)
			if err != nil && err != pgx.ErrNoRows {
				return apperr.New("store.PutPostings", apperr.KindStoreUnavailable, err)
			}
			if len(existing) > 0 {
				prior, derr := varint.Decode(existing)
				if derr != nil {
					return apperr.New("store.PutPostings", apperr.KindStoreUnavailable, derr)
				}
				final = unionInt64(prior, ids)
			}
		}
		encoded := varint.EncodeAll(toUint64s(final))
		_, err := tx.Exec(ctx, `
			INSERT INTO ngram_postings (ngram, doc_ids, last_updated)
			VALUES ($1, $2, $3)
			ON CONFLICT (ngram) DO UPDATE SET doc_ids = EXCLUDED.doc_ids, last_updated = EXCLUDED.last_updated`,
			ngram, encoded, now)
		if err != nil {
			return apperr.New("store.PutPostings", apperr.KindStoreUnavailable, err)
		}
		merged[ngram] = final
	}
	if err := tx.Commit(ctx); err != nil {
		return apperr.New("store.PutPostings", apperr.KindStoreUnavailable, err)
	}

	if s.Cache != nil {
		if err := s.Cache.Merge(ctx, merged); err != nil {
			return apperr.New("store.PutPostings", apperr.KindStoreUnavailable, err)
		}
	}
	return nil
}

// QueryPostings returns the current doc-id set for each requested
// n-gram, read from the authoritative persistent tier.
func (s *Store) QueryPostings(ctx context.Context, ngrams []string) (map[string]map[int64]struct{}, error) {
	out := make(map[string]map[int64]struct{}, len(ngrams))
	if len(ngrams) == 0 {
		return out, nil
	}
	rows, err := s.pool.Query(ctx, `SELECT ngram, doc_ids FROM ngram_postings WHERE ngram = ANY($1)`, ngrams)
	if err != nil {
		return nil, apperr.New("store.QueryPostings", apperr.KindStoreUnavailable, err)
	}
	defer rows.Close()
	for rows.Next() {
		var ngram string
		var encoded []byte
		if err := rows.Scan(&ngram, &encoded); err != nil {
			return nil, apperr.New("store.QueryPostings", apperr.KindStoreUnavailable, err)
		}
		ids, err := varint.Decode(encoded)
		if err != nil {
			return nil, apperr.New("store.QueryPostings", apperr.KindInvalidEncoding, err)
		}
		set := make(map[int64]struct{}, len(ids))
		for _, id := range ids {
			set[int64(id)] = struct{}{}
		}
		out[ngram] = set
	}
	for _, ngram := range ngrams {
		if _, ok := out[ngram]; !ok {
			out[ngram] = map[int64]struct{}{}
		}
	}
	return out, rows.Err()
}

// FilterDocuments narrows candidate ids by DocFilter and returns the
// surviving documents ordered by last_modified descending. A nil ids
// slice means "no n-gram filter was applied" (spec.md §4.6 step 1: the
// planner returned ANY), so every document is a candidate.
func (s *Store) FilterDocuments(ctx context.Context, ids []int64, filter DocFilter) ([]Document, error) {
	var b strings.Builder
	b.WriteString(`SELECT id, path, size, mime_type, last_modified, last_indexed FROM documents WHERE TRUE`)
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if ids != nil {
		fmt.Fprintf(&b, " AND id = ANY(%s)", arg(ids))
	}
	if filter.SizeLT != nil {
		fmt.Fprintf(&b, " AND size < %s", arg(*filter.SizeLT))
	}
	if filter.SizeGT != nil {
		fmt.Fprintf(&b, " AND size > %s", arg(*filter.SizeGT))
	}
	if filter.PathRegex != "" {
		fmt.Fprintf(&b, " AND path ~ %s", arg(filter.PathRegex))
	}
	b.WriteString(" ORDER BY last_modified DESC")

	rows, err := s.pool.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, apperr.New("store.FilterDocuments", apperr.KindStoreUnavailable, err)
	}
	defer rows.Close()
	return scanDocuments(rows)
}

func scanDocuments(rows pgx.Rows) ([]Document, error) {
	var docs []Document
	for rows.Next() {
		var d Document
		var lastIndexed *time.Time
		if err := rows.Scan(&d.ID, &d.Path, &d.Size, &d.MimeType, &d.LastModified, &lastIndexed); err != nil {
			return nil, apperr.New("store.scanDocuments", apperr.KindStoreUnavailable, err)
		}
		if lastIndexed != nil {
			d.LastIndexed = *lastIndexed
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func escapeLikePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix)
}

func toUint64s(ids []int64) []uint64 {
	out := make([]uint64, len(ids))
	for i, id := range ids {
		out[i] = uint64(id)
	}
	return out
}

func unionInt64(a []uint64, b []int64) []int64 {
	seen := make(map[int64]struct{}, len(a)+len(b))
	out := make([]int64, 0, len(a)+len(b))
	for _, id := range a {
		v := int64(id)
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	for _, id := range b {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
