package argo

import (
	"regexp"
	"strings"
)

// Class labels arrive in many shapes: "3A", "3AB", "3 A", "3^ A",
// "3A INFORMATICA", "CLASSE 3 SEZ. A". The canonical form is one year
// digit (1-5) followed by one section letter.

var (
	canonicalClassRe = regexp.MustCompile(`^[1-5][A-Z]$`)
	classPairRe      = regexp.MustCompile(`([1-5])\s*(?:SEZ(?:IONE)?\.?\s*)?[^A-Za-z0-9]{0,2}\s*([A-Za-z])`)
)

// NormalizeClass reduces a raw class label to the canonical 2-character
// form. Multi-letter sections keep only the first letter; a "SEZ."/
// "SEZIONE" token between year and section is skipped. When no
// digit-adjacent-letter pair exists anywhere in the string it returns "".
func NormalizeClass(raw string) string {
	trimmed := strings.ToUpper(strings.TrimSpace(raw))
	if trimmed == "" {
		return ""
	}
	if canonicalClassRe.MatchString(trimmed) {
		return trimmed
	}
	match := classPairRe.FindStringSubmatch(trimmed)
	if match == nil {
		return ""
	}
	return match[1] + strings.ToUpper(match[2])
}

// IsCanonicalClass reports whether label is already in the canonical
// digit+letter form.
func IsCanonicalClass(label string) bool {
	return canonicalClassRe.MatchString(label)
}
