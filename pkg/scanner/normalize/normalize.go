// Package normalize canonicalizes raw book text before scanning.
package normalize

import "strings"

// lineEndings maps every line-ending convention onto a single '\n'.
// "\r\n" must be listed before "\r" so Windows endings collapse to one break.
var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Text rewrites CRLF and lone CR line endings to LF.
// Case, accents and whitespace runs are left untouched; counters downstream
// handle case folding themselves.
func Text(s string) string {
	if !strings.ContainsRune(s, '\r') {
		return s
	}
	return lineEndings.Replace(s)
}
