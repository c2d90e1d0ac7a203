// Package query implements the Query Executor (C6): it compiles a
// regex through the planner, intersects n-gram posting sets, applies
// metadata filters, runs the precise verification pass, and resolves
// each surviving path to a reviewable URL and its file contents.
package query

import (
	"context"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/standardbeagle/csearch/internal/apperr"
	"github.com/standardbeagle/csearch/internal/config"
	"github.com/standardbeagle/csearch/internal/giturl"
	"github.com/standardbeagle/csearch/internal/regexplan"
	"github.com/standardbeagle/csearch/internal/store"
	"github.com/standardbeagle/csearch/internal/verify"
)

// verifyChunkSize matches spec.md §4.6 step 4's recommendation of
// roughly 100 paths per verifier invocation.
const verifyChunkSize = 100

// Request is the full input to one search, matching the CLI surface
// described in spec.md §6.
type Request struct {
	Regex         string
	CaseSensitive bool
	Skip          int
	Limit         int
	SizeLT        *int64
	SizeGT        *int64
	PathRegex     string
}

// Result is the response shape spec.md §4.6 step 6 requires.
type Result struct {
	Total   int               `json:"total"`
	Skip    int               `json:"skip"`
	Limit   int               `json:"limit"`
	Matches map[string]string `json:"matches"` // url (or path, if unresolved) -> content
}

// Executor is the Query Executor (C6).
type Executor struct {
	cfg   *config.Config
	store *store.Store
}

// New constructs an Executor.
func New(cfg *config.Config, st *store.Store) *Executor {
	return &Executor{cfg: cfg, store: st}
}

// Search runs req end to end.
func (e *Executor) Search(ctx context.Context, req Request) (*Result, error) {
	// The planner derives required n-grams from the literal runes of the
	// parsed regex as written; it has no notion of case folding. For a
	// case-insensitive search that would let it require grams of one
	// exact casing (e.g. "Hel" from "Hello") and wrongly prune documents
	// that only contain a different casing (e.g. "hello") before the
	// verification pass ever sees them. Rather than teach the planner a
	// second, case-folded gram universe the index was never built with,
	// skip gram narrowing entirely for case-insensitive requests and let
	// the verifier alone decide — still correct, just less selective.
	var plan *regexplan.Plan
	if req.CaseSensitive {
		compiled, err := regexplan.Compile(req.Regex, e.cfg.MaxSparseGramLength)
		if err != nil {
			return nil, err
		}
		plan = compiled
	} else if _, err := regexplan.Compile(req.Regex, e.cfg.MaxSparseGramLength); err != nil {
		// Still validate the pattern so an invalid regex fails fast
		// instead of surfacing as a confusing verifier error later.
		return nil, err
	}

	candidateIDs, err := e.evaluatePlan(ctx, plan)
	if err != nil {
		return nil, err
	}

	docs, err := e.store.FilterDocuments(ctx, candidateIDs, store.DocFilter{
		SizeLT:    req.SizeLT,
		SizeGT:    req.SizeGT,
		PathRegex: req.PathRegex,
	})
	if err != nil {
		return nil, err
	}

	verified, err := e.verify(ctx, docs, req)
	if err != nil {
		return nil, err
	}

	total := len(verified)
	page := paginate(verified, req.Skip, req.Limit)

	matches := make(map[string]string, len(page))
	for _, path := range page {
		content, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		url, err := giturl.Resolve(ctx, path)
		if err != nil || url == "" {
			url = path
		}
		matches[url] = string(content)
	}

	return &Result{Total: total, Skip: req.Skip, Limit: req.Limit, Matches: matches}, nil
}

// evaluatePlan returns nil (meaning "every document is a candidate")
// when plan is nil (ANY), otherwise the intersection of every required
// clause's posting set. Each clause is evaluated as a server-side
// intersection or union against the hot-set cache (spec.md §5: "the
// posting cache... intersection is a server-side operation"), falling
// back to the authoritative persistent tier only when the store has no
// cache configured. A cache error aborts the search.
func (e *Executor) evaluatePlan(ctx context.Context, plan *regexplan.Plan) ([]int64, error) {
	if plan == nil {
		return nil, nil
	}

	var result map[int64]struct{}
	for _, clause := range plan.Clauses {
		clauseSet, err := e.evaluateClause(ctx, clause)
		if err != nil {
			return nil, err
		}
		if result == nil {
			result = clauseSet
			continue
		}
		result = intersect(result, clauseSet)
		if len(result) == 0 {
			break
		}
	}

	ids := make([]int64, 0, len(result))
	for id := range result {
		ids = append(ids, id)
	}
	return ids, nil
}

// evaluateClause resolves one required clause (a single n-gram, or a
// disjunction of several) to its doc-id set.
func (e *Executor) evaluateClause(ctx context.Context, clause regexplan.Clause) (map[int64]struct{}, error) {
	if e.store.Cache != nil {
		if len(clause) == 1 {
			return e.store.Cache.Intersect(ctx, clause)
		}
		return e.store.Cache.Union(ctx, clause)
	}

	postings, err := e.store.QueryPostings(ctx, clause)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]struct{})
	for _, gram := range clause {
		for id := range postings[gram] {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

func intersect(a, b map[int64]struct{}) map[int64]struct{} {
	out := make(map[int64]struct{})
	for id := range a {
		if _, ok := b[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out
}

// verify runs the precise regex pass over docs' paths, chunked across
// a bounded worker pool, and returns the paths that truly match.
func (e *Executor) verify(ctx context.Context, docs []store.Document, req Request) ([]string, error) {
	paths := make([]string, len(docs))
	for i, d := range docs {
		paths[i] = d.Path
	}
	if len(paths) == 0 {
		return nil, nil
	}

	opts := verify.Options{
		CaseSensitive: req.CaseSensitive,
		Multiline:     strings.Contains(req.Regex, "\n"),
	}

	chunks := chunkPaths(paths, verifyChunkSize)
	results := make([][]string, len(chunks))

	sem := semaphore.NewWeighted(int64(e.cfg.IndexWorkers))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range chunks {
		i, c := i, c
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			matched, err := verify.Run(gctx, req.Regex, c, opts)
			if err != nil {
				if apperr.Is(err, apperr.KindVerifierFailure) {
					return nil // per spec.md §7: degrade to empty for this chunk
				}
				return err
			}
			results[i] = matched
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []string
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

func chunkPaths(paths []string, size int) [][]string {
	var out [][]string
	for i := 0; i < len(paths); i += size {
		end := i + size
		if end > len(paths) {
			end = len(paths)
		}
		out = append(out, paths[i:end])
	}
	return out
}

func paginate(items []string, skip, limit int) []string {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(items) {
		return nil
	}
	end := len(items)
	if limit > 0 && skip+limit < end {
		end = skip + limit
	}
	return items[skip:end]
}
