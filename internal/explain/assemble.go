// Package explain builds the user-facing explanation surface from the
// heuristic signal set and the moderated AI narrative.
package explain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jayvaidya30/FraudEx/constants"
	"github.com/jayvaidya30/FraudEx/internal/entity"
)

const emptyExplanation = "No risk indicators or analysis available for this document."

// Assemble combines heuristic signals and the (possibly placeholder)
// narrative into one explanation. Either section is omitted when its input
// is empty; the result is never empty.
func Assemble(signals entity.SignalMap, narrative string) string {
	var sections []string

	if findings := renderFindings(signals); len(findings) > 0 {
		sections = append(sections, "Heuristic findings:\n"+strings.Join(findings, "\n"))
	}
	if n := strings.TrimSpace(narrative); n != "" {
		sections = append(sections, "AI narrative:\n"+n)
	}

	if len(sections) == 0 {
		return emptyExplanation
	}
	return strings.Join(sections, "\n\n")
}

// renderFindings lists the known scorer signals first, in rule order, then
// any remaining keys sorted by name so output stays deterministic.
func renderFindings(signals entity.SignalMap) []string {
	var out []string
	seen := map[string]bool{}

	if v, ok := signals[constants.SignalKeywords]; ok {
		out = append(out, "- Suspicious keywords: "+joinValues(v))
		seen[constants.SignalKeywords] = true
	}
	if v, ok := signals[constants.SignalRoundNumbers]; ok {
		out = append(out, "- Large round numbers: "+joinValues(v))
		seen[constants.SignalRoundNumbers] = true
	}
	if v, ok := signals[constants.SignalUrgency]; ok {
		if b, isBool := v.(bool); !isBool || b {
			out = append(out, "- Urgent language detected")
		}
		seen[constants.SignalUrgency] = true
	}

	var rest []string
	for k := range signals {
		if !seen[k] && k != constants.SignalTextPreview {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		out = append(out, fmt.Sprintf("- %s: %s", k, joinValues(signals[k])))
	}
	return out
}

func joinValues(v any) string {
	switch vv := v.(type) {
	case []string:
		return strings.Join(vv, ", ")
	case []any:
		parts := make([]string, 0, len(vv))
		for _, e := range vv {
			parts = append(parts, fmt.Sprintf("%v", e))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", v)
	}
}
