// Package risk computes the deterministic fraud/corruption risk signal
// for a piece of extracted document text. Rule order, weights and the
// emitted sentences are compatibility constants: downstream consumers and
// stored cases depend on them, so they are not configuration-driven.
package risk

import (
	"regexp"
	"strings"

	"github.com/jayvaidya30/FraudEx/constants"
	"github.com/jayvaidya30/FraudEx/internal/entity"
)

const (
	keywordWeight     = 20
	roundNumberWeight = 15
	urgencyWeight     = 10

	maxScore           = 100
	maxRoundNumbers    = 5
	minRoundNumberHits = 3 // rule fires on strictly more than 2 matches
)

// suspiciousKeywords is scanned in order; the keywords signal preserves
// this order.
var suspiciousKeywords = []string{"bribe", "kickback", "undisclosed", "off-book", "cash", "facilitation"}

// Standalone integers with at least three trailing zeros, matched after
// thousands-separators are stripped.
var reRoundNumber = regexp.MustCompile(`\b\d+000\b`)

const noIndicatorsExplanation = "No specific corruption risk indicators detected by heuristic analysis."

// Score applies the heuristic rules to text and returns the clamped score,
// the signals the rules recorded, and a human-readable explanation.
// It is pure and deterministic; keyword and urgency scans are
// case-insensitive, while round numbers are reported as they appear.
func Score(text string) (int, entity.SignalMap, string) {
	signals := entity.SignalMap{}
	score := 0
	var parts []string

	lower := strings.ToLower(text)

	var found []string
	for _, w := range suspiciousKeywords {
		if strings.Contains(lower, w) {
			found = append(found, w)
		}
	}
	if len(found) > 0 {
		signals[constants.SignalKeywords] = found
		score += keywordWeight * len(found)
		parts = append(parts, "Found suspicious keywords: "+strings.Join(found, ", ")+".")
	}

	roundNumbers := reRoundNumber.FindAllString(strings.ReplaceAll(text, ",", ""), -1)
	if len(roundNumbers) >= minRoundNumberHits {
		if len(roundNumbers) > maxRoundNumbers {
			roundNumbers = roundNumbers[:maxRoundNumbers]
		}
		signals[constants.SignalRoundNumbers] = roundNumbers
		score += roundNumberWeight
		parts = append(parts, "Multiple large round numbers detected, which can indicate estimates or artificial pricing.")
	}

	if strings.Contains(lower, "immediate") || strings.Contains(lower, "urgent") {
		score += urgencyWeight
		signals[constants.SignalUrgency] = true
		parts = append(parts, "Urgent language detected.")
	}

	if score > maxScore {
		score = maxScore
	}

	explanation := noIndicatorsExplanation
	if score > 0 {
		explanation = strings.Join(parts, " ")
	}
	return score, signals, explanation
}
