// Package indexing implements the Incremental Indexer (C4): it
// reconciles the document store against the filesystem, admitting new
// files, retiring deleted ones, and re-extracting n-grams for anything
// that changed — following the teacher's own pipeline.go shape (a
// filepath.Walk scan feeding a bounded worker pool) generalized from a
// tree-sitter symbol pipeline to this sparse n-gram one.
package indexing

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/standardbeagle/csearch/internal/apperr"
	"github.com/standardbeagle/csearch/internal/config"
	"github.com/standardbeagle/csearch/internal/ngram"
	"github.com/standardbeagle/csearch/internal/store"
)

// admitBatchSize, recheckBatchSize, and extractBatchSize follow the
// batch-size recommendations of spec.md §4.4.
const (
	admitBatchSize   = 2000
	recheckBatchSize = 50
	extractBatchSize = 1000
)

// Stats summarizes one reconciliation pass.
type Stats struct {
	Scanned   int
	Deleted   int
	Admitted  int
	Reindexed int
	Skipped   int
}

// Indexer is the Incremental Indexer (C4).
type Indexer struct {
	cfg   *config.Config
	store *store.Store
	log   *slog.Logger
}

// New constructs an Indexer bound to store and config.
func New(cfg *config.Config, st *store.Store, log *slog.Logger) *Indexer {
	if log == nil {
		log = slog.Default()
	}
	return &Indexer{cfg: cfg, store: st, log: log}
}

// Reconcile performs one full scan/diff/delete/admit/recheck/extract
// pass over root, per spec.md §4.4.
func (ix *Indexer) Reconcile(ctx context.Context, root string) (Stats, error) {
	var stats Stats

	fsPaths, err := ix.scan(root)
	if err != nil {
		return stats, err
	}
	stats.Scanned = len(fsPaths)

	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	tracked, err := ix.store.ListDocuments(ctx, prefix)
	if err != nil {
		return stats, err
	}
	trackedByPath := make(map[string]store.Document, len(tracked))
	for _, d := range tracked {
		trackedByPath[d.Path] = d
	}

	fsSet := make(map[string]struct{}, len(fsPaths))
	for _, p := range fsPaths {
		fsSet[p] = struct{}{}
	}

	var added, deleted []string
	var checked []store.Document
	for p := range fsSet {
		if _, ok := trackedByPath[p]; !ok {
			added = append(added, p)
		}
	}
	for p, d := range trackedByPath {
		if _, ok := fsSet[p]; !ok {
			deleted = append(deleted, p)
			continue
		}
		checked = append(checked, d)
	}

	if len(deleted) > 0 {
		ids := make([]int64, 0, len(deleted))
		for _, p := range deleted {
			ids = append(ids, trackedByPath[p].ID)
		}
		if err := ix.store.DeleteDocuments(ctx, ids); err != nil {
			return stats, err
		}
		stats.Deleted = len(ids)
	}

	admitted, err := ix.admit(ctx, added)
	if err != nil {
		return stats, err
	}
	stats.Admitted = len(admitted)

	rechecked, skippedDuringRecheck, err := ix.recheck(ctx, checked)
	if err != nil {
		return stats, err
	}
	stats.Reindexed = len(rechecked)
	stats.Skipped = skippedDuringRecheck

	toExtract := append(admitted, rechecked...)
	if err := ix.extractAndPersist(ctx, toExtract); err != nil {
		return stats, err
	}

	return stats, nil
}

// scan enumerates regular files under root, excluding dotfile path
// components and anything matching cfg.ScanExclude.
func (ix *Indexer) scan(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			ix.log.Warn("scan: skipping entry", "path", path, "error", walkErr)
			return nil
		}
		if path == root {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		relSlash := filepath.ToSlash(rel)
		for _, pattern := range ix.cfg.ScanExclude {
			if ok, _ := doublestar.Match(pattern, relSlash); ok {
				return nil
			}
		}
		if len(ix.cfg.ScanInclude) > 0 && !matchesAny(ix.cfg.ScanInclude, relSlash) {
			return nil
		}
		out = append(out, path)
		return nil
	})
	return out, err
}

// matchesAny reports whether relSlash matches at least one of patterns.
func matchesAny(patterns []string, relSlash string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, relSlash); ok {
			return true
		}
	}
	return false
}

// truncateToSecond drops sub-second precision so a document's stored
// last_modified matches spec.md §3's whole-second contract and survives
// a TIMESTAMPTZ round-trip unchanged, keeping recheck's equality test
// stable across repeated passes with no filesystem changes.
func truncateToSecond(t time.Time) time.Time {
	return time.Unix(t.Unix(), 0)
}

// admit stats, size-gates, mime-detects, and upserts each newly
// discovered path, returning the Documents that are eligible for
// extraction (their mime type is text/*). Unlike the behaviour this
// package's predecessor was documented to have, admitted documents ARE
// returned here for same-pass extraction.
func (ix *Indexer) admit(ctx context.Context, paths []string) ([]store.Document, error) {
	var extractable []store.Document
	for _, batch := range chunk(paths, admitBatchSize) {
		docs := make([]store.Document, 0, len(batch))
		for _, p := range batch {
			info, err := os.Stat(p)
			if err != nil {
				ix.log.Warn("admit: stat failed", "path", p, "error", err)
				continue
			}
			if info.Size() > ix.cfg.MaxFileSizeToIndexBytes() {
				continue
			}
			mime, err := mimetype.DetectFile(p)
			if err != nil {
				ix.log.Warn("admit: mime detection failed", "path", p, "error", err)
				continue
			}
			doc := store.Document{
				Path:         p,
				Size:         info.Size(),
				MimeType:     mime.String(),
				LastModified: truncateToSecond(info.ModTime()),
			}
			if !doc.IsText() {
				continue
			}
			docs = append(docs, doc)
		}
		if len(docs) == 0 {
			continue
		}
		ids, err := ix.store.UpsertDocuments(ctx, docs)
		if err != nil {
			return nil, err
		}
		for i := range docs {
			docs[i].ID = ids[i]
		}
		extractable = append(extractable, docs...)
	}
	return extractable, nil
}

// recheck re-stats every tracked document, updates metadata for those
// that changed, and returns the subset eligible for re-extraction
// along with a count of tracked documents examined but left untouched.
func (ix *Indexer) recheck(ctx context.Context, tracked []store.Document) ([]store.Document, int, error) {
	var toExtract []store.Document
	skipped := 0
	for _, batch := range chunk(tracked, recheckBatchSize) {
		var updates []store.Document
		var extractFlags []bool
		for _, d := range batch {
			info, err := os.Stat(d.Path)
			if err != nil {
				ix.log.Warn("recheck: stat failed", "path", d.Path, "error", err)
				skipped++
				continue
			}
			currentSize := info.Size()
			currentMtime := truncateToSecond(info.ModTime())

			eligible := d.Size != currentSize ||
				!d.LastModified.Equal(currentMtime) ||
				(!d.Indexed() && d.IsText()) ||
				(d.Indexed() && d.LastIndexed.Before(currentMtime))
			if !eligible {
				skipped++
				continue
			}

			mime, err := mimetype.DetectFile(d.Path)
			if err != nil {
				ix.log.Warn("recheck: mime detection failed", "path", d.Path, "error", err)
				skipped++
				continue
			}
			updated := d
			updated.Size = currentSize
			updated.LastModified = currentMtime
			updated.MimeType = mime.String()
			updates = append(updates, updated)
			extractFlags = append(extractFlags, updated.IsText())
		}
		if len(updates) == 0 {
			continue
		}
		ids, err := ix.store.UpsertDocuments(ctx, updates)
		if err != nil {
			return nil, skipped, err
		}
		for i, d := range updates {
			d.ID = ids[i]
			if extractFlags[i] {
				toExtract = append(toExtract, d)
			}
		}
	}
	return toExtract, skipped, nil
}

// extractAndPersist runs C2 over every document in docs, merges the
// resulting gram -> doc-id map into the store under union semantics,
// and stamps each document's LastIndexed. Chunked across a fixed-size
// worker pool per spec.md §5.
func (ix *Indexer) extractAndPersist(ctx context.Context, docs []store.Document) error {
	for _, batch := range chunk(docs, extractBatchSize) {
		grams, indexed, err := ix.extractBatch(ctx, batch)
		if err != nil {
			return err
		}
		if len(indexed) > 0 {
			if _, err := ix.store.UpsertDocuments(ctx, indexed); err != nil {
				return err
			}
		}
		if err := ix.store.PutPostings(ctx, grams, store.Union); err != nil {
			return err
		}
	}
	return nil
}

func (ix *Indexer) extractBatch(ctx context.Context, docs []store.Document) (map[string][]int64, []store.Document, error) {
	type result struct {
		doc   store.Document
		grams ngram.Set
		ok    bool
	}
	results := make([]result, len(docs))

	sem := semaphore.NewWeighted(int64(ix.cfg.IndexWorkers))
	g, gctx := errgroup.WithContext(ctx)
	now := time.Now()

	for i, d := range docs {
		i, d := i, d
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			data, err := os.ReadFile(d.Path)
			if err != nil {
				ix.log.Warn("extract: read failed", "path", d.Path, "error", err)
				return nil
			}
			grams, err := ngram.ExtractText(data, ix.cfg.MaxSparseGramLength)
			if err != nil {
				wrapped := apperr.New("indexing.extractBatch", apperr.KindUnreadableFile, err).WithPath(d.Path)
				ix.log.Warn("extract: unreadable file", "error", wrapped)
				return nil
			}
			d.LastIndexed = now
			results[i] = result{doc: d, grams: grams, ok: true}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	merged := make(map[string][]int64)
	var indexed []store.Document
	for _, r := range results {
		if !r.ok {
			continue
		}
		indexed = append(indexed, r.doc)
		for gram := range r.grams {
			merged[gram] = append(merged[gram], r.doc.ID)
		}
	}
	return merged, indexed, nil
}

func chunk[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	var out [][]T
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[i:end])
	}
	return out
}
