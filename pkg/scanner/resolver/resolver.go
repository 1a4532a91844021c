// Package resolver attributes quoted speech to characters.
// It looks at a bounded window of narrative around each quotation and picks
// the first roster name found there. Roster order decides ambiguous windows;
// distance to the quotation is ignored.
package resolver

import (
	"unicode/utf8"

	"github.com/kittclouds/talestat/pkg/matcher"
	"github.com/kittclouds/talestat/pkg/pool"
	"github.com/kittclouds/talestat/pkg/scanner/quotes"
)

// Unknown is the reserved tally key for quotations with no roster match.
const Unknown = "unknown"

// DefaultWindow is the context size in runes taken on each side.
const DefaultWindow = 200

// Tally counts attributed quotations per speaker. Keys are exactly the roster
// plus Unknown.
type Tally map[string]int

// NewTally returns a zeroed tally for roster.
func NewTally(roster []string) Tally {
	t := make(Tally, len(roster)+1)
	for _, name := range roster {
		t[name] = 0
	}
	t[Unknown] = 0
	return t
}

// Total returns the number of attributed quotations.
func (t Tally) Total() int {
	n := 0
	for _, c := range t {
		n += c
	}
	return n
}

// Clone returns an independent copy.
func (t Tally) Clone() Tally {
	out := make(Tally, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Resolver maps quoted spans to speakers.
type Resolver struct {
	names  *matcher.NameMatcher
	roster []string
	window int
}

// New creates a Resolver over an ordered roster. window <= 0 falls back
// to DefaultWindow.
func New(names *matcher.NameMatcher, window int) *Resolver {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Resolver{
		names:  names,
		roster: names.Names(),
		window: window,
	}
}

// Window returns the context size in runes.
func (r *Resolver) Window() int {
	return r.window
}

// Context builds the text searched for speaker names: the tail of the
// preceding narrative, the head of the following narrative, then the head
// of the quotation itself.
func (r *Resolver) Context(q quotes.QuotedSpan) string {
	buf := pool.GetBuffer()
	defer pool.PutBuffer(buf)

	buf.WriteString(lastRunes(q.LeftContext, r.window))
	buf.WriteString(firstRunes(q.RightContext, r.window))
	buf.WriteString(firstRunes(q.Text, r.window))
	return buf.String()
}

// Resolve returns the speaker of q: the first roster name present as a whole
// word in its context, or Unknown.
func (r *Resolver) Resolve(q quotes.QuotedSpan) string {
	idx := r.names.First(r.Context(q))
	if idx < 0 {
		return Unknown
	}
	return r.roster[idx]
}

// Attribute resolves every span and tallies the speakers. The tally total
// always equals len(spans).
func (r *Resolver) Attribute(spans []quotes.QuotedSpan) Tally {
	tally := NewTally(r.roster)
	for _, q := range spans {
		tally[r.Resolve(q)]++
	}
	return tally
}

// firstRunes returns the first n runes of s.
func firstRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	i := 0
	for count := 0; i < len(s) && count < n; count++ {
		_, w := utf8.DecodeRuneInString(s[i:])
		i += w
	}
	return s[:i]
}

// lastRunes returns the last n runes of s.
func lastRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	i := len(s)
	for count := 0; i > 0 && count < n; count++ {
		_, w := utf8.DecodeLastRuneInString(s[:i])
		i -= w
	}
	return s[i:]
}
