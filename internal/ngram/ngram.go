// Package ngram extracts a sparse set of character n-grams from a text
// buffer using a local-maximum bigram-weight rule. The set is compact —
// sub-linear in document length — while still guaranteeing that any
// literal substring long enough to matter yields at least one gram the
// planner (internal/regexplan) can derive independently from a regex,
// since both sides run the exact same function over the exact same
// tokenization.
//
// The current tokenization strategy reads the whole input as a single
// token (no_tokenize). This must not change without changing the
// planner identically, or the two sides stop agreeing on which grams a
// given literal produces.
package ngram

import (
	"errors"
	"unicode/utf8"
)

// ErrUnreadableFile is returned when a document's bytes cannot be
// decoded as text. The caller is expected to log it and skip the
// document; it never aborts an indexing pass.
var ErrUnreadableFile = errors.New("ngram: unreadable file")

// Set is the deterministic n-gram set produced by Extract.
type Set map[string]struct{}

// MinGramLength is the shortest n-gram Extract ever emits.
const MinGramLength = 3

// Extract returns the sparse n-gram set for token under the local
// maximum weighting rule, bounded by maxGramLen (the MAX_SPARSE_GRAM_LENGTH
// configuration value, K >= 3). Tokens shorter than 3 runes yield no
// grams: the bigram-weight sequence needs at least two entries for any
// start index to have a successor to compare against.
func Extract(token string, maxGramLen int) Set {
	runes := []rune(token)
	n := len(runes)
	if n < MinGramLength {
		return Set{}
	}

	weights := make([]int, n-1)
	for i := 0; i < n-1; i++ {
		weights[i] = int(runes[i]) + int(runes[i+1])
	}

	out := Set{}
	last := len(weights)
	for start := 0; start < last-1; start++ {
		seed := weights[start]
		maxW := -1

		upper := start + maxGramLen
		if upper > last {
			upper = last
		}
		for end := start + 1; end < upper; end++ {
			cur := weights[end]
			if maxW < cur {
				out[string(runes[start:end+2])] = struct{}{}
			}
			if cur == seed {
				continue
			}
			maxW = cur
			if seed < maxW {
				break
			}
		}
	}
	return out
}

// ExtractText runs Extract over the full contents of data, treating the
// document as a single token (the no_tokenize strategy). It returns
// ErrUnreadableFile, and an empty set, if data is not valid UTF-8 text.
func ExtractText(data []byte, maxGramLen int) (Set, error) {
	if !utf8.Valid(data) {
		return Set{}, ErrUnreadableFile
	}
	return Extract(string(data), maxGramLen), nil
}

// Slice returns the set's members as a slice, in no particular order.
func (s Set) Slice() []string {
	out := make([]string, 0, len(s))
	for g := range s {
		out = append(out, g)
	}
	return out
}
