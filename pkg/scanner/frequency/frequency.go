// Package frequency extracts letter tokens from text and ranks them by count.
package frequency

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/orsinium-labs/stopwords"
)

// Entry is one ranked token.
type Entry struct {
	Token string `json:"token"`
	Count int    `json:"count"`
}

// Tokens returns every maximal run of Unicode letters in text, lower-cased,
// in order of appearance.
func Tokens(text string) []string {
	out := make([]string, 0, len(text)/6)

	i := 0
	for i < len(text) {
		// Skip non-letters
		for i < len(text) {
			r, w := utf8.DecodeRuneInString(text[i:])
			if unicode.IsLetter(r) {
				break
			}
			i += w
		}
		start := i

		for i < len(text) {
			r, w := utf8.DecodeRuneInString(text[i:])
			if !unicode.IsLetter(r) {
				break
			}
			i += w
		}

		if start < i {
			out = append(out, strings.ToLower(text[start:i]))
		}
	}
	return out
}

// CountWords returns the number of letter tokens in text without
// materializing them.
func CountWords(text string) int {
	n := 0
	inWord := false
	for _, r := range text {
		if unicode.IsLetter(r) {
			if !inWord {
				n++
				inWord = true
			}
			continue
		}
		inWord = false
	}
	return n
}

// Top ranks the tokens of text and keeps the topN most frequent.
func Top(text string, topN int) []Entry {
	return Rank(Tokens(text), topN, nil)
}

// Rank counts tokens and returns the topN highest counts. Ties keep the order
// in which tokens were first encountered. Tokens for which skip returns true
// are ignored. topN <= 0 yields an empty list.
func Rank(tokens []string, topN int, skip func(string) bool) []Entry {
	if topN <= 0 || len(tokens) == 0 {
		return []Entry{}
	}

	index := make(map[string]int, len(tokens)/4)
	entries := make([]Entry, 0, len(tokens)/4)
	for _, tok := range tokens {
		if skip != nil && skip(tok) {
			continue
		}
		if i, ok := index[tok]; ok {
			entries[i].Count++
			continue
		}
		index[tok] = len(entries)
		entries = append(entries, Entry{Token: tok, Count: 1})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})

	if len(entries) > topN {
		entries = entries[:topN]
	}
	return entries
}

// Stopwords filters function words for one language.
type Stopwords struct {
	Lang string
	list *stopwords.Stopwords
}

// LoadStopwords returns the stopword list for an ISO 639-1 language code.
// Unsupported languages are reported as an error instead of a panic.
func LoadStopwords(lang string) (sw *Stopwords, err error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return nil, fmt.Errorf("frequency: empty stopword language")
	}

	defer func() {
		if r := recover(); r != nil {
			sw = nil
			err = fmt.Errorf("frequency: unsupported stopword language %q", lang)
		}
	}()

	list := stopwords.MustGet(lang)
	if list == nil {
		return nil, fmt.Errorf("frequency: unsupported stopword language %q", lang)
	}
	return &Stopwords{Lang: lang, list: list}, nil
}

// Contains reports whether word (already lower-cased) is a stopword.
func (s *Stopwords) Contains(word string) bool {
	if s == nil || s.list == nil {
		return false
	}
	return s.list.Contains(word)
}
