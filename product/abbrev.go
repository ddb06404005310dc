package product

import (
	"regexp"
	"strings"
	"unicode"
)

var tokenSplit = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// Abbreviate compresses a promotional title into a short badge label:
// "Buy One Get One Free" becomes "BOGOF", "2 For £10" becomes "2-4-10".
// Single-word titles are upper-cased unchanged. The literal word "for" maps
// to "-4-"; every other token keeps its first letter (upper-cased) plus any
// non-lower-case characters that follow, so digits survive intact.
func Abbreviate(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.IndexFunc(trimmed, unicode.IsSpace) < 0 {
		return strings.ToUpper(trimmed)
	}

	var b strings.Builder
	for _, tok := range tokenSplit.Split(trimmed, -1) {
		if tok == "" {
			continue
		}
		if strings.EqualFold(tok, "for") {
			b.WriteString("-4-")
			continue
		}
		runes := []rune(tok)
		b.WriteString(strings.ToUpper(string(runes[0])))
		for _, r := range runes[1:] {
			if !unicode.IsLower(r) {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}
