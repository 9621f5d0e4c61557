package css

import (
	"regexp"
	"strings"
)

// blockedMarker replaces every dangerous match. It matches none of the
// patterns below, which keeps sanitization idempotent.
const blockedMarker = "/* blocked */"

type pattern struct {
	name string
	re   *regexp.Regexp
}

// Ordering matters: -moz-binding must be neutralized before the generic
// binding pattern runs, otherwise the vendor form would be reported twice.
var blockedPatterns = []pattern{
	{name: "javascript: URLs", re: regexp.MustCompile(`(?i)javascript\s*:`)},
	{name: "vbscript: URLs", re: regexp.MustCompile(`(?i)vbscript\s*:`)},
	{name: "CSS expressions", re: regexp.MustCompile(`(?i)expression\s*\(`)},
	{name: "@import directives", re: regexp.MustCompile(`(?i)@import\b`)},
	{name: "script tags", re: regexp.MustCompile(`(?i)<\s*script`)},
	{name: "vendor binding extensions", re: regexp.MustCompile(`(?i)-moz-binding\s*:`)},
	{name: "behavior bindings", re: regexp.MustCompile(`(?i)\bbehavior\s*:`)},
	{name: "XML bindings", re: regexp.MustCompile(`(?i)\bbinding\s*:`)},
	{name: "data: HTML URIs", re: regexp.MustCompile(`(?i)data\s*:\s*text/html`)},
}

// Result reports the outcome of a sanitization pass.
type Result struct {
	Safe      bool     `json:"safe"`
	Sanitized string   `json:"sanitized"`
	Blocked   []string `json:"blocked,omitempty"`
}

// Sanitize neutralizes script-injection vectors in user-supplied CSS. Every
// match is replaced in place with an inert marker and its pattern name is
// recorded. Safe is true iff nothing matched. The function never fails;
// empty input yields a trivially safe result.
func Sanitize(input string) Result {
	if strings.TrimSpace(input) == "" {
		return Result{Safe: true, Sanitized: input}
	}

	sanitized := input
	var blocked []string
	for _, p := range blockedPatterns {
		if !p.re.MatchString(sanitized) {
			continue
		}
		sanitized = p.re.ReplaceAllString(sanitized, blockedMarker)
		blocked = append(blocked, p.name)
	}

	return Result{
		Safe:      len(blocked) == 0,
		Sanitized: sanitized,
		Blocked:   blocked,
	}
}
