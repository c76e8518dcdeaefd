// Package redact holds the single PII redaction policy. It is applied to every
// message sent to the model provider and to every summary written to the audit
// trail, so both call sites always agree on what counts as PII.
package redact

import (
	"regexp"
	"strings"
)

const (
	PlaceholderEmail    = "[EMAIL]"
	PlaceholderPhone    = "[PHONE]"
	PlaceholderCard     = "[CARD]"
	PlaceholderPassword = "password=[REDACTED]"
)

type rule struct {
	name        string
	pattern     *regexp.Regexp
	replacement string
	// standalone drops matches glued to a longer token by a hyphen or an
	// alphanumeric, such as the trailing group of a UUID.
	standalone  bool
}

func (r rule) apply(text string) (string, bool) {
	if !r.standalone {
		if !r.pattern.MatchString(text) {
			return text, false
		}
		return r.pattern.ReplaceAllString(text, r.replacement), true
	}

	var (
		b    strings.Builder
		last int
		hit  bool
	)
	for _, m := range r.pattern.FindAllStringIndex(text, -1) {
		if gluedToToken(text, m[0], m[1]) {
			continue
		}
		b.WriteString(text[last:m[0]])
		b.WriteString(r.replacement)
		last = m[1]
		hit = true
	}
	if !hit {
		return text, false
	}
	b.WriteString(text[last:])
	return b.String(), true
}

func gluedToToken(text string, start, end int) bool {
	if start > 0 && isTokenByte(text[start-1]) {
		return true
	}
	return end < len(text) && isTokenByte(text[end])
}

func isTokenByte(b byte) bool {
	return b == '-' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// Order matters: card numbers must be removed before the phone rule can
// swallow their leading digit groups. A phone needs a country code, a trunk
// zero or separators, so bare amounts and ids stay intact.
var defaultRules = []rule{
	{
		name:        "card",
		pattern:     regexp.MustCompile(`\b(?:\d[ -]?){14,18}\d\b`),
		replacement: PlaceholderCard,
		standalone:  true,
	},
	{
		name:        "phone",
		pattern:     regexp.MustCompile(`(?:\+\d{1,3}[ -]?\(?\d{2,4}\)?[ -]?\d{3,4}[ -]?\d{3,4}|\b0\d{2,3}[ -]?\d{3,4}[ -]?\d{3,4}|(?:\(\d{3,4}\)|\b\d{3,4})[ -]\d{3,4}[ -]\d{3,4})\b`),
		replacement: PlaceholderPhone,
		standalone:  true,
	},
	{
		name:        "email",
		pattern:     regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
		replacement: PlaceholderEmail,
	},
	{
		name:        "password",
		pattern:     regexp.MustCompile(`(?i)password[:=]\s*[^\s&]+`),
		replacement: PlaceholderPassword,
	},
}

// Sanitizer is safe for concurrent use; compiled patterns are read-only.
type Sanitizer struct {
	rules []rule
}

func New() *Sanitizer {
	return &Sanitizer{rules: defaultRules}
}

var Default = New()

// Redact replaces every PII match with its placeholder. Redact(Redact(x)) == Redact(x).
func (s *Sanitizer) Redact(text string) string {
	if s == nil || text == "" {
		return text
	}
	out := text
	for _, r := range s.rules {
		out, _ = r.apply(out)
	}
	return out
}

// Findings lists the rule names that matched, in rule order. Used as guardrail flags.
func (s *Sanitizer) Findings(text string) []string {
	if s == nil || strings.TrimSpace(text) == "" {
		return nil
	}
	var found []string
	rest := text
	for _, r := range s.rules {
		var hit bool
		if rest, hit = r.apply(rest); hit {
			found = append(found, r.name)
		}
	}
	return found
}

func Redact(text string) string {
	return Default.Redact(text)
}
