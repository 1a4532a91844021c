package matcher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhraseCount(t *testing.T) {
	m, err := CompilePhrases([]string{"cicatrice", "mais", "avada kedavra", "mort", "aa"})
	require.NoError(t, err)

	text := "Sa cicatrice le brûlait, mais il sourit. Avada Kedavra ! La mort, la MORTELLE mort. aaa"
	got := m.Count(text)

	assert.Equal(t, 1, got["cicatrice"])
	assert.Equal(t, 1, got["mais"])
	assert.Equal(t, 1, got["avada kedavra"])
	assert.Equal(t, 3, got["mort"], "substring scan also matches inside MORTELLE")
	assert.Equal(t, 1, got["aa"], "occurrences do not overlap")
}

func TestPhraseCountNonOverlapping(t *testing.T) {
	tests := []struct {
		phrase string
		text   string
		want   int
	}{
		{"aa", "aaaa", 2},
		{"aa", "aaaaa", 2},
		{"aba", "ababa", 1},
		{"ron", "ron ron ronald", 3},
		{"x", "", 0},
	}

	for _, tc := range tests {
		m, err := CompilePhrases([]string{tc.phrase})
		require.NoError(t, err)
		assert.Equal(t, tc.want, m.Count(tc.text)[tc.phrase], "%q in %q", tc.phrase, tc.text)
		assert.Equal(t, strings.Count(strings.ToLower(tc.text), tc.phrase), m.Count(tc.text)[tc.phrase])
	}
}

func TestPhraseCountCaseInsensitive(t *testing.T) {
	phrases := []string{"Harry", "dumbledore", "Avada Kedavra", "sang"}
	m, err := CompilePhrases(phrases)
	require.NoError(t, err)

	text := "Harry regarda Dumbledore. avada kedavra, murmura-t-il. Du sang. HARRY."
	lower := m.Count(text)
	upper := m.Count(strings.ToUpper(text))
	assert.Equal(t, lower, upper)
	assert.Equal(t, 2, lower["Harry"])
}

func TestPhraseCountEveryKeyPresent(t *testing.T) {
	m, err := CompilePhrases([]string{"hermione", "ron"})
	require.NoError(t, err)

	got := m.Count("")
	assert.Equal(t, map[string]int{"hermione": 0, "ron": 0}, got)
}

func TestCompilePhrasesRejectsEmpty(t *testing.T) {
	_, err := CompilePhrases([]string{"harry", ""})
	assert.Error(t, err)
}

func TestPhrasesKeepsOrder(t *testing.T) {
	m, err := CompilePhrases([]string{"mort", "cicatrice", "mais"})
	require.NoError(t, err)
	assert.Equal(t, []string{"mort", "cicatrice", "mais"}, m.Phrases())
}

func TestNameFirstWholeWord(t *testing.T) {
	m, err := CompileNames([]string{"Harry", "Ron"})
	require.NoError(t, err)

	tests := []struct {
		name string
		text string
		want int
	}{
		{"both present, roster order wins", "Ron tendit la main à Harry", 0},
		{"only second", "Ron sourit.", 1},
		{"case-insensitive", "RON sourit.", 1},
		{"not inside longer word", "Ronald et Harrys", -1},
		{"punctuation is a boundary", "«Ron»", 1},
		{"hyphen is a boundary", "Harry-le-survivant", 0},
		{"nothing", "Le Choixpeau chante.", -1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, m.First(tc.text))
		})
	}
}

func TestNameFindOccurrences(t *testing.T) {
	m, err := CompileNames([]string{"Ron"})
	require.NoError(t, err)

	folded := []byte(Fold("Ron, Ronald et ron."))
	got := m.Find(0, folded)
	assert.Equal(t, []Span{{0, 3}, {15, 18}}, got)
	assert.Nil(t, m.Find(3, folded))
}

func TestCompileNamesRejectsBlank(t *testing.T) {
	_, err := CompileNames([]string{"Harry", "  "})
	assert.Error(t, err)
}

func TestNamesAccessors(t *testing.T) {
	m, err := CompileNames([]string{"Harry", "Hermione"})
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, []string{"Harry", "Hermione"}, m.Names())
}
