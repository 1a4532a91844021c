// Package discovery suggests roster additions: capitalized words that recur
// in a document, are not stopwords and never appear in lower case.
package discovery

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kittclouds/talestat/pkg/pool"
	"github.com/kittclouds/talestat/pkg/scanner/narrative"
)

// DiscoveryEngine holds the shared, read-only discovery settings. Each call to
// Discover works on its own registry.
type DiscoveryEngine struct {
	threshold int
	roster    []string
	lists     []StopList
	Matcher   *narrative.NarrativeMatcher // Need this to spot dialogue tags
}

// NewEngine creates a new discovery engine. Roster names are never suggested.
func NewEngine(threshold int, roster []string, matcher *narrative.NarrativeMatcher, lists ...StopList) *DiscoveryEngine {
	return &DiscoveryEngine{
		threshold: threshold,
		roster:    append([]string(nil), roster...),
		lists:     lists,
		Matcher:   matcher,
	}
}

// Threshold returns the promotion threshold.
func (e *DiscoveryEngine) Threshold() int {
	return e.threshold
}

// Discover scans text and returns promoted candidates. A threshold of zero
// disables discovery.
func (e *DiscoveryEngine) Discover(text string) []Candidate {
	if e.threshold <= 0 {
		return []Candidate{}
	}

	registry := e.newRegistry()
	words := scanWords(text)

	// Words also seen in lower case are ordinary vocabulary.
	lowered := pool.GetCounts()
	defer pool.PutCounts(lowered)
	for _, w := range words {
		if !isCapitalized(w) {
			lowered[strings.ToLower(w)]++
		}
	}

	for i, w := range words {
		if !isCapitalized(w) {
			continue
		}
		if lowered[strings.ToLower(w)] > 0 {
			registry.Ignore(w)
			continue
		}
		registry.AddToken(w)
		if e.isDialogueTag(words, i) {
			if stats := registry.GetStats(w); stats != nil {
				stats.DialogueTags++
			}
		}
	}
	return registry.GetCandidates()
}

func (e *DiscoveryEngine) newRegistry() *CandidateRegistry {
	r := NewRegistry(e.threshold, e.lists...)
	for _, name := range e.roster {
		for _, part := range strings.Fields(name) {
			r.AddStopWord(part)
		}
	}
	return r
}

func (e *DiscoveryEngine) isDialogueTag(words []string, i int) bool {
	if e.Matcher == nil {
		return false
	}
	if i+1 < len(words) && e.Matcher.IsSpeechVerb(words[i+1]) {
		return true
	}
	return i > 0 && e.Matcher.IsSpeechVerb(words[i-1])
}

// scanWords splits text into maximal letter runs, keeping case.
func scanWords(text string) []string {
	var words []string
	start := -1
	for i, r := range text {
		if unicode.IsLetter(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			words = append(words, text[start:i])
			start = -1
		}
	}
	if start >= 0 {
		words = append(words, text[start:])
	}
	return words
}

func isCapitalized(s string) bool {
	if s == "" {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}
