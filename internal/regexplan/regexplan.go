// Package regexplan turns a regular expression into a plan for pruning
// the n-gram index before the expensive verification pass. It walks
// the parsed regexp/syntax tree bottom-up, carrying at each node one of
// four lattice values — EMPTY, EXACT, GRAMS, or ANY — the same shape
// sourcegraph/zoekt's query/regexp.go uses to turn a regex into a
// trigram query, adapted here to the sparse n-gram extractor in
// internal/ngram instead of zoekt's fixed trigrams.
//
// The planner never has to be exact: a Plan only narrows the candidate
// set, and C6 always re-verifies with the real regex. Where a node's
// true semantics can't be captured precisely (alternation blowing up
// the clause count, repetition with a variable count), the planner is
// allowed to give up and fall back to ANY — that can never cause a
// true match to be dropped, only extra candidates to survive to
// verification.
package regexplan

import (
	"fmt"
	"regexp/syntax"
	"sort"

	"github.com/standardbeagle/csearch/internal/apperr"
	"github.com/standardbeagle/csearch/internal/ngram"
)

// maxClauses bounds the CNF distribution performed when two GRAMS
// formulas are combined through alternation. Past this the planner
// gives up precision and reports ANY instead of letting an OR of two
// large literal sets blow up combinatorially.
const maxClauses = 256

// Clause is a disjunction: at least one of these n-grams must be
// present in a document for it to be a candidate.
type Clause []string

// Plan is a conjunction of Clauses: every clause must be satisfiable
// by the document's gram set. A nil Plan means the regex carries no
// useful gram constraint at all (ANY) — every document is a candidate
// and only the verifier decides.
type Plan struct {
	Clauses []Clause
}

// Grams returns the distinct set of n-grams referenced anywhere in the
// plan, for looking up posting lists in one batch.
func (p *Plan) Grams() []string {
	if p == nil {
		return nil
	}
	seen := make(map[string]struct{})
	for _, c := range p.Clauses {
		for _, g := range c {
			seen[g] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for g := range seen {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// kind identifies which lattice value a node carries.
type kind int

const (
	kEmpty kind = iota
	kExact
	kGrams
	kAny
)

// value is the lattice value carried up from a subtree during the
// walk. Exactly one of exact/formula is meaningful, selected by kind.
type value struct {
	kind    kind
	exact   []string
	formula formula
}

// formula is a Plan in progress: an AND of OR-clauses over n-grams.
type formula []Clause

// Compile parses pattern and derives a Plan describing which n-grams
// any matching document must contain. It never fails on a regex that
// Go's regexp/syntax itself accepts; failures are parse errors from
// the regex text.
func Compile(pattern string, maxGramLen int) (*Plan, error) {
	re, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return nil, apperr.New("regexplan.Compile", apperr.KindInvalidRegex, err)
	}
	v := walk(re, maxGramLen)
	return toPlan(v, maxGramLen), nil
}

func toPlan(v value, k int) *Plan {
	switch v.kind {
	case kExact:
		return toPlan(exactToValue(v.exact, k), k)
	case kGrams:
		if len(v.formula) == 0 {
			return nil
		}
		return &Plan{Clauses: append([]Clause(nil), v.formula...)}
	default: // kEmpty, kAny
		return nil
	}
}

// walk derives the lattice value for re by combining the values of its
// subexpressions, following the reduction rules of a literal
// concatenation/alternation algebra: concatenation ANDs constraints,
// alternation ORs them, and anything with unbounded repetition or no
// literal content collapses to ANY.
func walk(re *syntax.Regexp, k int) value {
	switch re.Op {
	case syntax.OpEmptyMatch:
		return value{kind: kEmpty}

	case syntax.OpLiteral:
		return value{kind: kExact, exact: []string{string(re.Rune)}}

	case syntax.OpCapture:
		return walk(re.Sub[0], k)

	case syntax.OpConcat:
		acc := value{kind: kExact, exact: []string{""}}
		for _, sub := range re.Sub {
			acc = concatValues(acc, walk(sub, k), k)
		}
		return acc

	case syntax.OpAlternate:
		if len(re.Sub) == 0 {
			return value{kind: kAny}
		}
		acc := walk(re.Sub[0], k)
		for _, sub := range re.Sub[1:] {
			acc = altValues(acc, walk(sub, k), k)
		}
		return acc

	case syntax.OpPlus:
		return requireOnce(walk(re.Sub[0], k), k)

	case syntax.OpRepeat:
		if re.Min >= 1 {
			return requireOnce(walk(re.Sub[0], k), k)
		}
		return value{kind: kAny}

	default:
		// OpStar, OpQuest, OpCharClass, OpAnyChar(NotNL), anchors,
		// word boundaries, OpNoMatch: none of these guarantee a
		// literal substring will appear in every match.
		return value{kind: kAny}
	}
}

// requireOnce converts a sub-value that must occur at least once (a
// Plus or Repeat with Min>=1) into the constraint that one occurrence
// of it is present. Exact strings lose their exactness under
// repetition (N copies concatenated aren't the same literal) but still
// force their grams to be present.
func requireOnce(v value, k int) value {
	switch v.kind {
	case kExact:
		return exactToValue(v.exact, k)
	case kGrams, kAny:
		return v
	default: // kEmpty
		return value{kind: kAny}
	}
}

// concatValues combines two lattice values across a concatenation
// node. Two EXACT values compose exactly (cross product of the
// literal sets); anything else degrades to ANDing gram formulas.
func concatValues(a, b value, k int) value {
	if a.kind == kEmpty {
		return b
	}
	if b.kind == kEmpty {
		return a
	}
	if a.kind == kExact && b.kind == kExact {
		out := make([]string, 0, len(a.exact)*len(b.exact))
		for _, x := range a.exact {
			for _, y := range b.exact {
				out = append(out, x+y)
			}
		}
		return value{kind: kExact, exact: out}
	}

	fa, anyA := toFormula(a, k)
	fb, anyB := toFormula(b, k)
	switch {
	case anyA && anyB:
		return value{kind: kAny}
	case anyA:
		return value{kind: kGrams, formula: fb}
	case anyB:
		return value{kind: kGrams, formula: fa}
	default:
		return value{kind: kGrams, formula: andFormulas(fa, fb)}
	}
}

// altValues combines two lattice values across an alternation node.
// Two EXACT values union their literal sets; otherwise the grams
// required by either branch are OR'd — and because only ONE branch
// needs to match, a branch that carries no derivable constraint makes
// the whole alternation carry none.
func altValues(a, b value, k int) value {
	if a.kind == kExact && b.kind == kExact {
		seen := make(map[string]struct{}, len(a.exact)+len(b.exact))
		out := make([]string, 0, len(a.exact)+len(b.exact))
		for _, s := range append(append([]string{}, a.exact...), b.exact...) {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
		return value{kind: kExact, exact: out}
	}

	fa, anyA := toFormula(a, k)
	fb, anyB := toFormula(b, k)
	if anyA || anyB {
		return value{kind: kAny}
	}
	combined, ok := orFormulas(fa, fb)
	if !ok {
		return value{kind: kAny}
	}
	return value{kind: kGrams, formula: combined}
}

// toFormula reduces a value to a gram formula, reporting isAny=true when
// the value carries no constraint at all (EMPTY or ANY, or an EXACT
// string too short to yield any grams).
func toFormula(v value, k int) (f formula, isAny bool) {
	switch v.kind {
	case kGrams:
		return v.formula, false
	case kExact:
		ev := exactToValue(v.exact, k)
		if ev.kind == kAny {
			return nil, true
		}
		return ev.formula, false
	default: // kEmpty, kAny
		return nil, true
	}
}

// exactToValue converts a set of literal strings (an EXACT value) into
// a GRAMS formula: a document matches only if, for at least one string
// in the set, every n-gram extracted from that string is present. If
// any string in the set is too short to yield a gram, no sound
// requirement can be derived and the result collapses to ANY.
func exactToValue(strs []string, k int) value {
	if len(strs) == 0 {
		return value{kind: kAny}
	}
	var acc formula
	first := true
	for _, s := range strs {
		grams := ngram.Extract(s, k)
		if len(grams) == 0 {
			return value{kind: kAny}
		}
		f := formulaFromGrams(grams)
		if first {
			acc, first = f, false
			continue
		}
		combined, ok := orFormulas(acc, f)
		if !ok {
			return value{kind: kAny}
		}
		acc = combined
	}
	return value{kind: kGrams, formula: acc}
}

func formulaFromGrams(grams ngram.Set) formula {
	gs := grams.Slice()
	sort.Strings(gs)
	f := make(formula, 0, len(gs))
	for _, g := range gs {
		f = append(f, Clause{g})
	}
	return f
}

// andFormulas conjoins two formulas: concatenation just requires both
// sets of clauses.
func andFormulas(a, b formula) formula {
	out := make(formula, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out
}

// orFormulas distributes an OR of two AND-of-OR formulas into CNF by
// pairing every clause of a with every clause of b, exactly as
// sourcegraph/zoekt's regexp planner does for alternation. The result
// is logically equivalent, not merely sound — but the pairwise product
// can grow quadratically, so callers must be ready to fall back to ANY
// when ok is false.
func orFormulas(a, b formula) (formula, bool) {
	if len(a) == 0 || len(b) == 0 {
		return nil, len(a) == 0 && len(b) == 0
	}
	if len(a)*len(b) > maxClauses {
		return nil, false
	}
	out := make(formula, 0, len(a)*len(b))
	for _, ca := range a {
		for _, cb := range b {
			out = append(out, unionClause(ca, cb))
		}
	}
	return out, true
}

func unionClause(a, b Clause) Clause {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make(Clause, 0, len(a)+len(b))
	for _, g := range a {
		if _, ok := seen[g]; !ok {
			seen[g] = struct{}{}
			out = append(out, g)
		}
	}
	for _, g := range b {
		if _, ok := seen[g]; !ok {
			seen[g] = struct{}{}
			out = append(out, g)
		}
	}
	return out
}

// String renders a Plan for debug logging, following the teacher's
// habit of giving planning/diagnostic types a readable Stringer.
func (p *Plan) String() string {
	if p == nil {
		return "ANY"
	}
	return fmt.Sprintf("%d clause(s)", len(p.Clauses))
}
