// Package moderation holds the layered content-safety policy applied to
// model-generated narratives before they reach end users. Both checks are
// pure string functions so they can run on any surface (narrative or the
// final assembled explanation).
package moderation

import (
	"regexp"
	"strings"
)

// PolicyViolationPlaceholder replaces a narrative that fails the safety
// check. Consumers always receive a non-empty explanation, never the
// rejected text.
const PolicyViolationPlaceholder = "Analysis hidden due to potential policy violation (e.g. unsupported accusations)."

// Unsupported-accusation shapes: a generated narrative must not assert
// guilt as established fact, or call for punitive action against a person.
var unsafePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:is|are|was|were)\s+(?:definitely|clearly|certainly|undoubtedly|obviously)\s+(?:guilty|corrupt|criminal|fraudulent)\b`),
	regexp.MustCompile(`(?i)\b(?:must|should)\s+be\s+(?:arrested|prosecuted|imprisoned|jailed|fired)\b`),
	regexp.MustCompile(`(?i)\bproves?\s+(?:that\s+)?(?:he|she|they|this person)\s+(?:is|are)\s+(?:guilty|corrupt)\b`),
}

// Assertions of established guilt are rewritten to hedged language when
// sanitizing an assembled explanation.
var reGuiltAssertion = regexp.MustCompile(`(?i)\b(?:definitely|clearly|certainly|undoubtedly|obviously)\s+(guilty|corrupt|criminal|fraudulent)\b`)

// Everything below 0x20 except tab and newline.
var reControlChars = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f]`)

// CheckContentSafety reports whether a narrative is safe to surface.
// Empty input is vacuously safe: a missing narrative is not itself a
// policy violation.
func CheckContentSafety(narrative string) bool {
	if strings.TrimSpace(narrative) == "" {
		return true
	}
	for _, re := range unsafePatterns {
		if re.MatchString(narrative) {
			return false
		}
	}
	return true
}

// SanitizeOutput neutralizes remaining unsafe constructs in the final
// assembled explanation. Idempotent: sanitizing sanitized text is a no-op.
func SanitizeOutput(text string) string {
	out := reControlChars.ReplaceAllString(text, "")
	out = reGuiltAssertion.ReplaceAllString(out, "potentially $1")
	return strings.TrimSpace(out)
}
