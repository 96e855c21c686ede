package match

import "strings"

// legalSuffixes are entity-form tokens stripped from the end of normalized
// names before fuzzy scoring, so "Acme Corp" and "Acme Corporation" compare
// as the same entity.
var legalSuffixes = map[string]struct{}{
	"inc":          {},
	"incorporated": {},
	"llc":          {},
	"lc":           {},
	"ltd":          {},
	"limited":      {},
	"corp":         {},
	"corporation":  {},
	"co":           {},
	"company":      {},
	"lp":           {},
	"llp":          {},
	"lllp":         {},
	"plc":          {},
	"pllc":         {},
	"pc":           {},
	"pa":           {},
	"gmbh":         {},
}

// NormalizeUEI canonicalizes a primary identifier: uppercase with every
// character outside [A-Z0-9-] removed.
func NormalizeUEI(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToUpper(strings.TrimSpace(s)) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeDUNS canonicalizes a secondary identifier to its digits only, so
// "06-985-8217" and "069858217" compare equal.
func NormalizeDUNS(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeName canonicalizes an entity name for fuzzy comparison:
// lowercased, punctuation replaced with spaces, trailing legal-entity
// suffix tokens removed, whitespace collapsed.
func NormalizeName(s string) string {
	lowered := strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	tokens := strings.Fields(b.String())

	// Strip suffix tokens from the end only; "Limited Brands" keeps its
	// leading token.
	for len(tokens) > 1 {
		last := tokens[len(tokens)-1]
		if _, ok := legalSuffixes[last]; !ok {
			break
		}
		tokens = tokens[:len(tokens)-1]
	}

	return strings.Join(tokens, " ")
}
