package classification

import "regexp"

// scrubRule pairs a pattern with its placeholder. Order matters: dates run
// before phone numbers so "2024-03-01" is not read as digits.
type scrubRule struct {
	pattern     *regexp.Regexp
	placeholder string
}

// scrubRules is a heuristic, not a PII detector. False negatives are
// expected: unusual name shapes, lowercase names, and non-Latin scripts
// pass through.
var scrubRules = []scrubRule{
	{regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`), "[EMAIL]"},
	{regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}(?:[T ]\d{2}:\d{2}(?::\d{2}(?:\.\d+)?)?(?:Z|[+\-]\d{2}:?\d{2})?)?\b`), "[DATE]"},
	{regexp.MustCompile(`\+?\(?\d[\d\s().\-]{6,}\d`), "[PHONE]"},
	{regexp.MustCompile(`\b(?:Mr|Mrs|Ms|Dr|Prof)\.?\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*`), "[NAME]"},
	{regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)+\b`), "[NAME]"},
}

// Scrub applies every rule in order.
func Scrub(text string) string {
	for _, r := range scrubRules {
		text = r.pattern.ReplaceAllString(text, r.placeholder)
	}
	return text
}

func scrubValue(v any, _ map[string]string) (any, bool) {
	s, ok := v.(string)
	if !ok {
		return nil, false
	}
	return Scrub(s), true
}
