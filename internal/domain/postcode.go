package domain

import (
	"regexp"
	"strings"
)

var postcodePattern = regexp.MustCompile(`^([A-Z]{1,2}[0-9][A-Z0-9]?)([0-9][A-Z]{2})$`)

// PostcodeParts is the canonical decomposition of a UK postcode.
type PostcodeParts struct {
	Normalised    string
	OutwardSector string
	Outward       string
	Inward        string
}

// ParsePostcode validates raw postcode text and returns its canonical parts.
// A false result is the only validity signal; no partial parts are returned.
func ParsePostcode(input string) (PostcodeParts, bool) {
	cleaned := cleanPostcode(input)
	if cleaned == "" {
		return PostcodeParts{}, false
	}

	// GIR 0AA predates the general grammar.
	if cleaned == "GIR0AA" {
		return newPostcodeParts("GIR", "0AA"), true
	}

	m := postcodePattern.FindStringSubmatch(cleaned)
	if m == nil {
		return PostcodeParts{}, false
	}

	return newPostcodeParts(m[1], m[2]), true
}

func newPostcodeParts(outward, inward string) PostcodeParts {
	return PostcodeParts{
		Normalised:    outward + " " + inward,
		OutwardSector: outward + " " + inward[:1],
		Outward:       outward,
		Inward:        inward,
	}
}

// IsValidPostcode reports whether raw parses as a UK postcode.
func IsValidPostcode(raw string) bool {
	_, ok := ParsePostcode(raw)
	return ok
}

// NormalisePostcodeInput formats text while a user is still typing.
// It never validates: it uppercases, drops anything that is not a letter
// or digit, and splits off the last three characters once there are more
// than four.
func NormalisePostcodeInput(raw string) string {
	return spacePostcode(cleanPostcode(raw))
}

// FormatPostcodeForDisplay returns the canonical form when raw parses,
// otherwise the same spacing heuristic as NormalisePostcodeInput.
func FormatPostcodeForDisplay(raw string) string {
	if parts, ok := ParsePostcode(raw); ok {
		return parts.Normalised
	}
	return spacePostcode(cleanPostcode(raw))
}

// IsValidOutward reports whether s is a well-formed outward code (e.g. "SW1A").
func IsValidOutward(s string) bool {
	parts, ok := ParsePostcode(cleanPostcode(s) + "0AA")
	return ok && parts.Outward == cleanPostcode(s)
}

func cleanPostcode(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range strings.ToUpper(raw) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func spacePostcode(cleaned string) string {
	if len(cleaned) <= 4 {
		return cleaned
	}
	return cleaned[:len(cleaned)-3] + " " + cleaned[len(cleaned)-3:]
}
