package embedder

import (
	"strings"
	"unicode"
)

// NormalizeSymbol splits a compound identifier into lowercase space-separated
// words so that symbol names and natural-language queries land closer in
// vector space. Handles camelCase, PascalCase, snake_case, kebab-case,
// dotted paths, and acronym runs ("parseHTTPResponse" -> "parse http
// response").
func NormalizeSymbol(symbol string) string {
	words := SplitIdentifier(symbol)
	if len(words) == 0 {
		return strings.ToLower(strings.TrimSpace(symbol))
	}
	return strings.Join(words, " ")
}

// SplitIdentifier breaks an identifier into its lowercase word parts.
func SplitIdentifier(ident string) []string {
	var words []string
	var current []rune

	flush := func() {
		if len(current) > 0 {
			words = append(words, strings.ToLower(string(current)))
			current = current[:0]
		}
	}

	runes := []rune(ident)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == '.' || r == '/' || r == ':' || unicode.IsSpace(r):
			flush()
		case unicode.IsUpper(r):
			prevLower := i > 0 && unicode.IsLower(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			// Boundary before an upper rune that follows a lower rune, or
			// that ends an acronym run ("HTTPResponse" -> HTTP | Response).
			if prevLower || (len(current) > 0 && nextLower) {
				flush()
			}
			current = append(current, r)
		case unicode.IsDigit(r):
			if i > 0 && !unicode.IsDigit(runes[i-1]) {
				flush()
			}
			current = append(current, r)
		default:
			if i > 0 && unicode.IsDigit(runes[i-1]) {
				flush()
			}
			current = append(current, r)
		}
	}
	flush()

	return words
}
