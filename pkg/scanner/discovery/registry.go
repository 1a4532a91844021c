package discovery

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// StopList is a stopword list such as *stopwords.Stopwords.
type StopList interface {
	Contains(word string) bool
}

// CanonicalToken is the folded registry key of a candidate.
type CanonicalToken string

// Canonicalize folds a raw token. Tokens shorter than two letters or
// containing non-letters are not valid candidates.
func Canonicalize(raw string) (CanonicalToken, string, bool) {
	display := strings.TrimSpace(raw)
	if utf8.RuneCountInString(display) < 2 {
		return "", "", false
	}
	for _, r := range display {
		if !unicode.IsLetter(r) {
			return "", "", false
		}
	}
	return CanonicalToken(strings.ToLower(display)), display, true
}

// CandidateStatus tracks the lifecycle of a discovery candidate
type CandidateStatus int

const (
	StatusWatching CandidateStatus = iota
	StatusPromoted
	StatusIgnored
)

// CandidateStats tracks info about a potential character
type CandidateStats struct {
	Count        int
	Status       CandidateStatus
	DialogueTags int
	Display      string // First display form seen
}

// CandidateRegistry tracks potential new characters within one document.
type CandidateRegistry struct {
	Stats              map[CanonicalToken]*CandidateStats
	PromotionThreshold int
	StopWords          map[string]bool // Roster names and custom words
	stopwordCheckers   []StopList      // Language lists
}

// NewRegistry creates a new registry
func NewRegistry(threshold int, lists ...StopList) *CandidateRegistry {
	r := &CandidateRegistry{
		Stats:              make(map[CanonicalToken]*CandidateStats),
		PromotionThreshold: threshold,
		StopWords:          make(map[string]bool),
	}
	for _, l := range lists {
		if l != nil {
			r.stopwordCheckers = append(r.stopwordCheckers, l)
		}
	}
	return r
}

// AddStopWord adds a custom ignored word
func (r *CandidateRegistry) AddStopWord(word string) {
	r.StopWords[strings.ToLower(word)] = true
}

func (r *CandidateRegistry) isStopWord(key CanonicalToken) bool {
	if r.StopWords[string(key)] {
		return true
	}
	for _, l := range r.stopwordCheckers {
		if l.Contains(string(key)) {
			return true
		}
	}
	return false
}

// AddToken processes a capitalized token. Returns true if promoted this time.
func (r *CandidateRegistry) AddToken(raw string) bool {
	key, display, valid := Canonicalize(raw)
	if !valid || r.isStopWord(key) {
		return false
	}

	stats, exists := r.Stats[key]
	if !exists {
		stats = &CandidateStats{Status: StatusWatching, Display: display}
		r.Stats[key] = stats
	}

	stats.Count++

	// If already ignored/promoted, just count
	if stats.Status != StatusWatching {
		return false
	}

	if stats.Count >= r.PromotionThreshold {
		stats.Status = StatusPromoted
		return true
	}
	return false
}

// Ignore rules a token out regardless of its count.
func (r *CandidateRegistry) Ignore(raw string) {
	key, display, valid := Canonicalize(raw)
	if !valid {
		return
	}
	if stats, ok := r.Stats[key]; ok {
		stats.Status = StatusIgnored
		return
	}
	r.Stats[key] = &CandidateStats{Status: StatusIgnored, Display: display}
}

// GetStatus returns the status of a token
func (r *CandidateRegistry) GetStatus(raw string) CandidateStatus {
	key, _, valid := Canonicalize(raw)
	if !valid {
		return StatusIgnored
	}
	if s, ok := r.Stats[key]; ok {
		return s.Status
	}
	return StatusWatching // Default (conceptually unknown)
}

// GetStats helper
func (r *CandidateRegistry) GetStats(raw string) *CandidateStats {
	key, _, _ := Canonicalize(raw)
	return r.Stats[key]
}

// Candidate is a public view of a promoted candidate
type Candidate struct {
	Token        string  `json:"token"`
	Count        int     `json:"count"`
	DialogueTags int     `json:"dialogue_tags"`
	Kind         string  `json:"kind"`
	Score        float64 `json:"score"`
}

// GetCandidates returns the promoted candidates, best score first, ties
// broken by token.
func (r *CandidateRegistry) GetCandidates() []Candidate {
	list := make([]Candidate, 0)
	for _, stats := range r.Stats {
		if stats.Status != StatusPromoted {
			continue
		}
		kind := InferKind(stats)
		list = append(list, Candidate{
			Token:        stats.Display,
			Count:        stats.Count,
			DialogueTags: stats.DialogueTags,
			Kind:         kind.String(),
			Score:        Score(stats.Count, stats.DialogueTags),
		})
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].Score != list[j].Score {
			return list[i].Score > list[j].Score
		}
		return list[i].Token < list[j].Token
	})
	return list
}
