// Package quotes splits text into alternating narrative and quoted spans.
//
// The split is purely positional: the text is cut at every delimiter rune,
// even split indices are narrative and odd ones are quoted. Opening and
// closing marks are not paired. When a text holds an odd number of
// delimiters the last segment is still classified by parity, so trailing
// narrative can be reported as a quotation. Callers can detect that case
// with Balanced.
package quotes

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultDelimiters are straight double quotes, curly double quotes,
// guillemets and the straight apostrophe.
const DefaultDelimiters = "\"“”«»'"

// Kind tells narrative text from quoted text.
type Kind int

const (
	Narrative Kind = iota
	Quoted
)

func (k Kind) String() string {
	if k == Quoted {
		return "QUOTED"
	}
	return "NARRATIVE"
}

// Span is one segment of the split. Start and End are byte offsets into the
// original text; delimiters themselves belong to no span.
type Span struct {
	Kind  Kind
	Text  string
	Start int
	End   int
}

// QuotedSpan is a quoted segment together with its neighbouring narrative
// segments.
type QuotedSpan struct {
	Index        int // split index, always odd
	Text         string
	LeftContext  string
	RightContext string
}

// Segmenter splits text on a fixed set of delimiter runes.
type Segmenter struct {
	delimiters string
	set        map[rune]struct{}
}

// New creates a Segmenter recognizing every rune of delimiters.
func New(delimiters string) (*Segmenter, error) {
	if delimiters == "" {
		return nil, fmt.Errorf("quotes: empty delimiter set")
	}
	if !utf8.ValidString(delimiters) {
		return nil, fmt.Errorf("quotes: delimiter set is not valid UTF-8")
	}

	set := make(map[rune]struct{}, utf8.RuneCountInString(delimiters))
	var b strings.Builder
	for _, r := range delimiters {
		if _, dup := set[r]; dup {
			continue
		}
		set[r] = struct{}{}
		b.WriteRune(r)
	}
	return &Segmenter{delimiters: b.String(), set: set}, nil
}

// Default returns a Segmenter over DefaultDelimiters.
func Default() *Segmenter {
	s, _ := New(DefaultDelimiters)
	return s
}

// Delimiters returns the recognized delimiter runes, deduplicated.
func (s *Segmenter) Delimiters() string {
	return s.delimiters
}

// IsDelimiter reports whether r is a recognized quotation mark.
func (s *Segmenter) IsDelimiter(r rune) bool {
	_, ok := s.set[r]
	return ok
}

// Split cuts text at every delimiter. The result always has
// delimiters+1 spans and alternates Narrative, Quoted, Narrative...
func (s *Segmenter) Split(text string) []Span {
	spans := make([]Span, 0, 8)

	start := 0
	for i, r := range text {
		if !s.IsDelimiter(r) {
			continue
		}
		spans = appendSpan(spans, text, start, i)
		start = i + utf8.RuneLen(r)
	}
	return appendSpan(spans, text, start, len(text))
}

func appendSpan(spans []Span, text string, start, end int) []Span {
	kind := Narrative
	if len(spans)%2 == 1 {
		kind = Quoted
	}
	return append(spans, Span{Kind: kind, Text: text[start:end], Start: start, End: end})
}

// Quoted returns the quoted spans of text with their narrative neighbours.
func (s *Segmenter) Quoted(text string) []QuotedSpan {
	return QuotedSpans(s.Split(text))
}

// QuotedSpans extracts the quoted spans from a Split result. A quoted span at
// the very end (odd delimiter count) has an empty right context.
func QuotedSpans(spans []Span) []QuotedSpan {
	out := make([]QuotedSpan, 0, len(spans)/2)
	for i := 1; i < len(spans); i += 2 {
		q := QuotedSpan{
			Index:       i,
			Text:        spans[i].Text,
			LeftContext: spans[i-1].Text,
		}
		if i+1 < len(spans) {
			q.RightContext = spans[i+1].Text
		}
		out = append(out, q)
	}
	return out
}

// Balanced reports whether a Split result came from an even number of
// delimiters, i.e. it starts and ends with a narrative span.
func Balanced(spans []Span) bool {
	return len(spans)%2 == 1
}
