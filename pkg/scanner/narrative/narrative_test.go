package narrative

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/talestat/pkg/matcher"
)

func TestStem(t *testing.T) {
	tests := []struct {
		input    string
		language string
		expected string
	}{
		{"demandait", "french", "demand"},
		{"Demanda", "french", "demand"},
		{"asked", "english", "ask"},
		{"whispered", "english", "whisper"},
		{"Said", "klingon", "said"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Stem(tt.input, tt.language))
		})
	}
}

func TestNarrativeMatcher_IsSpeechVerb(t *testing.T) {
	m := New()

	for _, w := range []string{"dit", "Demanda", "murmura", "écria", "cria", "said", "replied", "shouted", "told"} {
		assert.True(t, m.IsSpeechVerb(w), w)
	}
	for _, w := range []string{"", "mais", "regarde", "walked", "mange"} {
		assert.False(t, m.IsSpeechVerb(w), w)
	}
}

func TestNarrativeMatcher_Conjugations(t *testing.T) {
	m := New()

	for _, w := range []string{"demandait", "murmurait", "whispers", "shouting", "asks"} {
		assert.True(t, m.IsSpeechVerb(w), w)
	}
}

func TestNarrativeMatcher_AddVerb(t *testing.T) {
	m := New()
	require.False(t, m.IsSpeechVerb("siffla"))
	base := m.DictionarySize()

	m.AddVerb("Siffla")
	m.AddVerb("  ")

	assert.True(t, m.IsSpeechVerb("siffla"))
	assert.True(t, m.IsSpeechVerb("siffle"))
	assert.Equal(t, base, m.DictionarySize())
	assert.Equal(t, 1, m.OverlaySize())
}

func setupTagger(t *testing.T, roster ...string) *Tagger {
	t.Helper()
	names, err := matcher.CompileNames(roster)
	require.NoError(t, err)
	return NewTagger(names, New())
}

func TestTagger_Count(t *testing.T) {
	tg := setupTagger(t, "Harry", "Ron", "Hermione")

	text := matcher.Fold(`Harry dit « Bonjour ». « Salut », répondit Ron. Hermione s'écria « Non ! » Harry regarda Ron.`)
	got := tg.Count(text)

	assert.Equal(t, map[string]int{"Harry": 1, "Ron": 1, "Hermione": 1}, got)
}

func TestTagger_English(t *testing.T) {
	tg := setupTagger(t, "Harry", "Ron")

	got := tg.Count(matcher.Fold(`"Go," said Harry. Harry asked. Ron nodded.`))

	assert.Equal(t, 2, got["Harry"])
	assert.Equal(t, 0, got["Ron"])
}

func TestTagger_EveryNameHasKey(t *testing.T) {
	tg := setupTagger(t, "Harry", "Ron")

	got := tg.Count("")

	assert.Equal(t, map[string]int{"Harry": 0, "Ron": 0}, got)
}

func TestTagger_WholeWordOnly(t *testing.T) {
	tg := setupTagger(t, "Ron")

	got := tg.Count(matcher.Fold("Ronald dit bonjour. dit Ronron."))

	assert.Equal(t, 0, got["Ron"])
}
