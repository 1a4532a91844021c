package discovery

// Kind is the guessed nature of a candidate.
type Kind int

const (
	KindUnknown Kind = iota
	KindCharacter
)

func (k Kind) String() string {
	switch k {
	case KindCharacter:
		return "CHARACTER"
	default:
		return "UNKNOWN"
	}
}

// speakerBonus weights a dialogue tag against a plain mention.
const speakerBonus = 2.0

// InferKind guesses the kind of a candidate from narrative evidence. Anything
// that speaks is a character; a bare capitalized word stays unknown.
func InferKind(stats *CandidateStats) Kind {
	if stats != nil && stats.DialogueTags > 0 {
		return KindCharacter
	}
	return KindUnknown
}

// Score ranks candidates: mentions plus weighted dialogue tags.
func Score(count, dialogueTags int) float64 {
	return float64(count) + speakerBonus*float64(dialogueTags)
}
