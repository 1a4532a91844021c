// Package narrative detects dialogue tags: a character name directly next to
// a speech verb ("Harry dit", "dit Ron", "Hermione said").
package narrative

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kljensen/snowball"

	"github.com/kittclouds/talestat/pkg/matcher"
)

// Languages the lexicon is stemmed in.
var languages = []string{"french", "english"}

// speechVerbs lists surface forms per language. Each form is stemmed at
// construction so other conjugations of the same verb match too.
var speechVerbs = map[string][]string{
	"french": {
		"ajouta", "annonça", "balbutia", "chuchota", "continua", "cria",
		"demanda", "déclara", "disait", "dit", "expliqua", "grogna", "gémit",
		"hurla", "interrompit", "lança", "marmonna", "murmura", "protesta",
		"répliqua", "répondit", "reprit", "soupira", "souffla",
		"écria", // s'écria
	},
	"english": {
		"added", "answered", "asked", "called", "cried", "exclaimed",
		"muttered", "replied", "said", "says", "shouted", "snapped", "told",
		"whispered", "yelled",
	},
}

// clitics may sit between a name and its verb ("Harry s'écria").
var clitics = map[string]bool{
	"s": true, "se": true, "lui": true, "leur": true, "l": true, "y": true, "en": true,
}

// NarrativeMatcher recognizes speech verbs.
type NarrativeMatcher struct {
	stems   map[string]map[string]bool // language -> stem
	words   map[string]bool            // surface forms
	overlay map[string]bool            // verbs added at runtime
	size    int
}

// New creates a NarrativeMatcher with the embedded speech verb lexicon
func New() *NarrativeMatcher {
	m := &NarrativeMatcher{
		stems:   make(map[string]map[string]bool, len(languages)),
		words:   make(map[string]bool),
		overlay: make(map[string]bool),
	}
	for _, lang := range languages {
		m.stems[lang] = make(map[string]bool)
	}
	for lang, forms := range speechVerbs {
		for _, f := range forms {
			m.words[f] = true
			m.stems[lang][Stem(f, lang)] = true
			m.size++
		}
	}
	return m
}

// Stem returns the snowball stem of word in language, or the lowercased word
// when the language is unsupported.
func Stem(word, language string) string {
	lower := strings.ToLower(word)
	stemmed, err := snowball.Stem(lower, language, true)
	if err != nil {
		return lower
	}
	return stemmed
}

// IsSpeechVerb reports whether word is a known speech verb.
func (m *NarrativeMatcher) IsSpeechVerb(word string) bool {
	if word == "" {
		return false
	}
	lower := strings.ToLower(word)
	if m.words[lower] || m.overlay[lower] {
		return true
	}
	for _, lang := range languages {
		if m.stems[lang][Stem(lower, lang)] {
			return true
		}
	}
	return false
}

// AddVerb adds a speech verb at runtime, stemmed in every lexicon language.
func (m *NarrativeMatcher) AddVerb(verb string) {
	verb = strings.ToLower(strings.TrimSpace(verb))
	if verb == "" {
		return
	}
	m.overlay[verb] = true
	for _, lang := range languages {
		m.stems[lang][Stem(verb, lang)] = true
	}
}

// OverlaySize returns the number of runtime additions
func (m *NarrativeMatcher) OverlaySize() int {
	return len(m.overlay)
}

// DictionarySize returns the number of embedded surface forms
func (m *NarrativeMatcher) DictionarySize() int {
	return m.size
}

// Tagger counts dialogue tags per roster name.
type Tagger struct {
	names *matcher.NameMatcher
	verbs *NarrativeMatcher
}

// NewTagger wires a roster to a speech verb lexicon.
func NewTagger(names *matcher.NameMatcher, verbs *NarrativeMatcher) *Tagger {
	return &Tagger{names: names, verbs: verbs}
}

// Count returns, for every roster name, how many of its whole-word mentions
// are immediately followed or preceded by a speech verb. folded must have been
// through matcher.Fold.
func (t *Tagger) Count(folded string) map[string]int {
	roster := t.names.Names()
	counts := make(map[string]int, len(roster))
	haystack := []byte(folded)

	for i, name := range roster {
		counts[name] = 0
		for _, sp := range t.names.Find(i, haystack) {
			if t.verbs.IsSpeechVerb(t.wordAfter(folded, sp.End)) ||
				t.verbs.IsSpeechVerb(wordBefore(folded, sp.Start)) {
				counts[name]++
			}
		}
	}
	return counts
}

// wordAfter returns the first word after pos, separated only by spaces,
// skipping one clitic pronoun.
func (t *Tagger) wordAfter(s string, pos int) string {
	word, next := nextWord(s, pos)
	if clitics[word] {
		word, _ = nextWord(s, next)
	}
	return word
}

// nextWord skips spaces and apostrophes after pos and reads a letter run.
func nextWord(s string, pos int) (string, int) {
	i := pos
	for i < len(s) {
		r, w := utf8.DecodeRuneInString(s[i:])
		if !unicode.IsSpace(r) && r != '\'' && r != '’' {
			break
		}
		i += w
	}
	start := i
	for i < len(s) {
		r, w := utf8.DecodeRuneInString(s[i:])
		if !unicode.IsLetter(r) {
			break
		}
		i += w
	}
	return s[start:i], i
}

// wordBefore reads the letter run that ends right before pos, separated only
// by spaces ("», dit Harry").
func wordBefore(s string, pos int) string {
	i := pos
	for i > 0 {
		r, w := utf8.DecodeLastRuneInString(s[:i])
		if !unicode.IsSpace(r) {
			break
		}
		i -= w
	}
	end := i
	for i > 0 {
		r, w := utf8.DecodeLastRuneInString(s[:i])
		if !unicode.IsLetter(r) {
			break
		}
		i -= w
	}
	return s[i:end]
}
