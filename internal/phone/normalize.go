package phone

import (
	"regexp"
	"strings"
)

var disallowed = regexp.MustCompile(`[^\d+]`)

// Normalize converts a dialed or presented number to E.164 for the given
// country calling code. It returns false when nothing usable is left.
//
// Examples with countryCode "61":
//   - 0412345678   -> +61412345678
//   - 61412345678  -> +61412345678
//   - +61412345678 -> +61412345678
//   - 0412 345 678# -> +61412345678
func Normalize(raw, countryCode string) (string, bool) {
	n := disallowed.ReplaceAllString(raw, "")
	if n == "" || n == "+" {
		return "", false
	}

	switch {
	case strings.HasPrefix(n, "+"):
		return n, true
	case strings.HasPrefix(n, countryCode):
		return "+" + n, true
	case strings.HasPrefix(n, "0"):
		return "+" + countryCode + n[1:], true
	default:
		return "+" + countryCode + n, true
	}
}

// AllowList holds normalized caller numbers permitted to use the service.
// An empty list allows everyone.
type AllowList struct {
	numbers map[string]struct{}
}

// NewAllowList builds an allow-list from already-normalized numbers.
func NewAllowList(numbers []string) *AllowList {
	l := &AllowList{numbers: make(map[string]struct{}, len(numbers))}
	for _, n := range numbers {
		l.numbers[n] = struct{}{}
	}
	return l
}

// Empty reports whether no restriction is configured.
func (l *AllowList) Empty() bool {
	return l == nil || len(l.numbers) == 0
}

// Allows reports whether a normalized caller may proceed.
func (l *AllowList) Allows(number string) bool {
	if l.Empty() {
		return true
	}
	_, ok := l.numbers[number]
	return ok
}
