// Package matcher compiles phrases and character names into Aho-Corasick
// automata and scans case-folded text with them.
// Every pattern gets its own automaton so that each one can be counted or
// tested independently while keeping roster order explicit.
package matcher

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/coregx/ahocorasick"
)

// ============================================================================
// FOLDING - Used for BOTH pattern compilation AND text scanning
// ============================================================================

// Fold lower-cases s. Patterns and haystacks go through the same fold, so
// match offsets always refer to the folded haystack.
func Fold(s string) string {
	return strings.ToLower(s)
}

// Span is a byte range [Start, End) in a folded haystack.
type Span struct {
	Start int
	End   int
}

// literal is one compiled pattern.
type literal struct {
	pattern string // folded
	ac      *ahocorasick.Automaton
}

func compileLiteral(pattern string) (*literal, error) {
	automaton, err := ahocorasick.NewBuilder().
		AddStrings([]string{pattern}).
		SetMatchKind(ahocorasick.LeftmostLongest).
		SetPrefilter(true).
		Build()
	if err != nil {
		return nil, fmt.Errorf("matcher: compile %q: %w", pattern, err)
	}
	return &literal{pattern: pattern, ac: automaton}, nil
}

// occurrences returns every position of the pattern in haystack, ordered by
// start offset.
func (l *literal) occurrences(haystack []byte) []Span {
	if len(haystack) < len(l.pattern) {
		return nil
	}

	matches := l.ac.FindAllOverlapping(haystack)
	out := make([]Span, 0, len(matches))
	for _, m := range matches {
		out = append(out, Span{Start: m.Start, End: m.End})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].End < out[j].End
	})
	return out
}

// count returns the number of non-overlapping occurrences, scanning left to
// right. All occurrences of one pattern share a length, so taking the earliest
// one each time gives the maximal count.
func (l *literal) count(haystack []byte) int {
	n, lastEnd := 0, 0
	for _, sp := range l.occurrences(haystack) {
		if sp.Start < lastEnd {
			continue
		}
		n++
		lastEnd = sp.End
	}
	return n
}

// ============================================================================
// PhraseMatcher - literal substring counting
// ============================================================================

// PhraseMatcher counts literal, case-insensitive phrase occurrences.
// Matching is not token-boundary aware: "mort" is found inside "mortel".
type PhraseMatcher struct {
	phrases  []string
	literals []*literal
}

// CompilePhrases builds a PhraseMatcher. Phrases keep their order; an empty
// phrase is rejected.
func CompilePhrases(phrases []string) (*PhraseMatcher, error) {
	m := &PhraseMatcher{
		phrases:  make([]string, 0, len(phrases)),
		literals: make([]*literal, 0, len(phrases)),
	}

	for _, p := range phrases {
		if p == "" {
			return nil, fmt.Errorf("matcher: empty phrase")
		}
		lit, err := compileLiteral(Fold(p))
		if err != nil {
			return nil, err
		}
		m.phrases = append(m.phrases, p)
		m.literals = append(m.literals, lit)
	}
	return m, nil
}

// Phrases returns the compiled phrases in configuration order.
func (m *PhraseMatcher) Phrases() []string {
	out := make([]string, len(m.phrases))
	copy(out, m.phrases)
	return out
}

// Count returns, for every phrase, its number of non-overlapping
// case-insensitive occurrences in text. Every phrase has a key.
func (m *PhraseMatcher) Count(text string) map[string]int {
	return m.CountFolded(Fold(text))
}

// CountFolded is Count for text that has already been through Fold.
func (m *PhraseMatcher) CountFolded(folded string) map[string]int {
	counts := make(map[string]int, len(m.phrases))
	haystack := []byte(folded)
	for i, lit := range m.literals {
		counts[m.phrases[i]] = lit.count(haystack)
	}
	return counts
}

// ============================================================================
// NameMatcher - whole-word roster lookup
// ============================================================================

// NameMatcher finds character names as whole words. Names are kept as an
// ordered slice: index order is lookup precedence.
type NameMatcher struct {
	names    []string
	literals []*literal
}

// CompileNames builds a NameMatcher over an ordered roster.
func CompileNames(names []string) (*NameMatcher, error) {
	m := &NameMatcher{
		names:    make([]string, 0, len(names)),
		literals: make([]*literal, 0, len(names)),
	}

	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			return nil, fmt.Errorf("matcher: empty name")
		}
		lit, err := compileLiteral(Fold(n))
		if err != nil {
			return nil, err
		}
		m.names = append(m.names, n)
		m.literals = append(m.literals, lit)
	}
	return m, nil
}

// Names returns the roster in precedence order.
func (m *NameMatcher) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// Len returns the roster size.
func (m *NameMatcher) Len() int {
	return len(m.names)
}

// First scans the roster in order and returns the index of the first name
// that appears as a whole word in text, or -1. Proximity plays no part.
func (m *NameMatcher) First(text string) int {
	haystack := []byte(Fold(text))
	for i, lit := range m.literals {
		if len(lit.wordOccurrences(haystack)) > 0 {
			return i
		}
	}
	return -1
}

// Find returns the whole-word occurrences of roster entry i in an already
// folded haystack.
func (m *NameMatcher) Find(i int, folded []byte) []Span {
	if i < 0 || i >= len(m.literals) {
		return nil
	}
	return m.literals[i].wordOccurrences(folded)
}

func (l *literal) wordOccurrences(haystack []byte) []Span {
	all := l.occurrences(haystack)
	out := all[:0]
	for _, sp := range all {
		if atWordBoundary(haystack, sp, l.pattern) {
			out = append(out, sp)
		}
	}
	return out
}

// IsWordRune reports whether r counts as a word character for boundary
// checks: letters, digits, combining marks and underscore.
func IsWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) || r == '_'
}

// atWordBoundary checks that a match is not glued to surrounding word
// characters. A pattern edge that is itself punctuation needs no boundary.
func atWordBoundary(haystack []byte, sp Span, pattern string) bool {
	first, _ := utf8.DecodeRuneInString(pattern)
	if IsWordRune(first) && sp.Start > 0 {
		prev, _ := utf8.DecodeLastRune(haystack[:sp.Start])
		if IsWordRune(prev) {
			return false
		}
	}

	last, _ := utf8.DecodeLastRuneInString(pattern)
	if IsWordRune(last) && sp.End < len(haystack) {
		next, _ := utf8.DecodeRune(haystack[sp.End:])
		if IsWordRune(next) {
			return false
		}
	}
	return true
}
