// Package slug turns human-entered labels and titles into stable ASCII tokens.
package slug

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fold strips combining marks after NFKD decomposition so "Médecin" becomes "Medecin".
var fold = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Make lowercases s, folds accents, and joins every alphanumeric run with sep.
// Leading and trailing separators are dropped, so "  Full Name! " with "_"
// yields "full_name".
func Make(s, sep string) string {
	folded, _, err := transform.String(fold, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(folded) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pending && b.Len() > 0 {
				b.WriteString(sep)
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	return b.String()
}

// FieldName derives the form-data storage key for a descriptor label.
func FieldName(label string) string {
	return Make(label, "_")
}

// URL derives a hyphenated URL slug from a title.
func URL(title string) string {
	return Make(title, "-")
}

// TakenFunc reports whether candidate is already in use.
type TakenFunc func(ctx context.Context, candidate string) (bool, error)

// maxSuffix bounds the "-N" probing in Unique.
const maxSuffix = 1000

// Unique returns base if free, otherwise base-2, base-3 and so on.
func Unique(ctx context.Context, base string, taken TakenFunc) (string, error) {
	if base == "" {
		base = "event"
	}
	candidate := base
	for n := 2; n <= maxSuffix+1; n++ {
		used, err := taken(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", candidate, err)
		}
		if !used {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
	return "", fmt.Errorf("no free slug for %q after %d attempts", base, maxSuffix)
}
