package fulfill

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultMonths is used when a lot title carries no recognizable duration.
const DefaultMonths = 3

var monthsAllowed = map[int]bool{3: true, 6: true, 12: true}

// Titles mix Russian and English duration spellings. Patterns are tried in
// order, first match wins. RE2's \b is ASCII-only, so boundaries around
// Cyrillic text use explicit character classes instead.
var monthsPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(3|6|12)\s*(?:months|mons|mon|mo|m|месяцев|месяца|месяц|мес|м)(?:[^a-zа-яё0-9]|$)`),
	regexp.MustCompile(`(?:^|[^a-zа-яё0-9])на\s*(3|6|12)\s*(?:месяцев|месяца|месяц|мес|м)(?:[^a-zа-яё0-9]|$)`),
	regexp.MustCompile(`\b(3|6|12)\b`),
}

// ExtractMonths pulls the purchased duration out of a lot title. Only the
// allowed durations count; anything else falls back to DefaultMonths.
func ExtractMonths(title string) int {
	if title == "" {
		return DefaultMonths
	}
	t := strings.ToLower(title)
	for _, p := range monthsPatterns {
		m := p.FindStringSubmatch(t)
		if m == nil {
			continue
		}
		val, err := strconv.Atoi(m[1])
		if err == nil && monthsAllowed[val] {
			return val
		}
	}
	return DefaultMonths
}
