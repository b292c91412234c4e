package risk

import (
	"reflect"
	"strings"
	"testing"

	"github.com/jayvaidya30/FraudEx/constants"
)

func TestScore_EmptyText(t *testing.T) {
	score, signals, explanation := Score("")
	if score != 0 {
		t.Errorf("score = %d, want 0", score)
	}
	if len(signals) != 0 {
		t.Errorf("signals = %v, want empty", signals)
	}
	want := "No specific corruption risk indicators detected by heuristic analysis."
	if explanation != want {
		t.Errorf("explanation = %q, want %q", explanation, want)
	}
}

func TestScore_CleanText(t *testing.T) {
	score, signals, _ := Score("Quarterly report on office supplies and travel.")
	if score != 0 {
		t.Errorf("score = %d, want 0", score)
	}
	if len(signals) != 0 {
		t.Errorf("signals = %v, want empty", signals)
	}
}

func TestScore_Keywords(t *testing.T) {
	score, signals, explanation := Score("The bribe was paid in cash.")
	if score != 40 {
		t.Errorf("score = %d, want 40", score)
	}
	got, ok := signals[constants.SignalKeywords].([]string)
	if !ok {
		t.Fatalf("keywords signal missing or wrong type: %v", signals)
	}
	if !reflect.DeepEqual(got, []string{"bribe", "cash"}) {
		t.Errorf("keywords = %v, want [bribe cash] in scan order", got)
	}
	if !strings.Contains(explanation, "Found suspicious keywords: bribe, cash.") {
		t.Errorf("explanation = %q", explanation)
	}
}

func TestScore_KeywordsCaseInsensitive(t *testing.T) {
	score, signals, _ := Score("UNDISCLOSED payment via KICKBACK scheme")
	if score != 40 {
		t.Errorf("score = %d, want 40", score)
	}
	got := signals[constants.SignalKeywords].([]string)
	if !reflect.DeepEqual(got, []string{"kickback", "undisclosed"}) {
		t.Errorf("keywords = %v, want scan order regardless of text order", got)
	}
}

func TestScore_KeywordCountedOncePerDistinct(t *testing.T) {
	score, signals, _ := Score("cash cash cash cash")
	if score != 20 {
		t.Errorf("score = %d, want 20", score)
	}
	got := signals[constants.SignalKeywords].([]string)
	if !reflect.DeepEqual(got, []string{"cash"}) {
		t.Errorf("keywords = %v, want [cash]", got)
	}
}

func TestScore_RoundNumbersBelowThreshold(t *testing.T) {
	score, signals, _ := Score("invoices for 1000 and 2000")
	if score != 0 {
		t.Errorf("score = %d, want 0 (two hits do not fire the rule)", score)
	}
	if _, ok := signals[constants.SignalRoundNumbers]; ok {
		t.Errorf("round_numbers signal present on two hits: %v", signals)
	}
}

func TestScore_RoundNumbers(t *testing.T) {
	score, signals, explanation := Score("paid 5000 then 10000 then 15000 then 20000")
	if score != 15 {
		t.Errorf("score = %d, want 15", score)
	}
	got, ok := signals[constants.SignalRoundNumbers].([]string)
	if !ok {
		t.Fatalf("round_numbers signal missing: %v", signals)
	}
	if !reflect.DeepEqual(got, []string{"5000", "10000", "15000", "20000"}) {
		t.Errorf("round_numbers = %v", got)
	}
	if !strings.Contains(explanation, "Multiple large round numbers detected") {
		t.Errorf("explanation = %q", explanation)
	}
}

func TestScore_RoundNumbersThousandsSeparators(t *testing.T) {
	score, signals, _ := Score("totals were 5,000 and 10,000 and 250,000")
	if score != 15 {
		t.Errorf("score = %d, want 15", score)
	}
	got := signals[constants.SignalRoundNumbers].([]string)
	if !reflect.DeepEqual(got, []string{"5000", "10000", "250000"}) {
		t.Errorf("round_numbers = %v, want separator-stripped values", got)
	}
}

func TestScore_RoundNumbersCapped(t *testing.T) {
	_, signals, _ := Score("1000 2000 3000 4000 5000 6000 7000")
	got := signals[constants.SignalRoundNumbers].([]string)
	if len(got) != 5 {
		t.Errorf("recorded %d round numbers, want cap of 5", len(got))
	}
}

func TestScore_Urgency(t *testing.T) {
	score, signals, explanation := Score("Payment required IMMEDIATELY.")
	if score != 10 {
		t.Errorf("score = %d, want 10", score)
	}
	if v, ok := signals[constants.SignalUrgency].(bool); !ok || !v {
		t.Errorf("urgency signal = %v, want true", signals[constants.SignalUrgency])
	}
	if !strings.Contains(explanation, "Urgent language detected.") {
		t.Errorf("explanation = %q", explanation)
	}
}

func TestScore_NoUrgencyKeyWhenAbsent(t *testing.T) {
	_, signals, _ := Score("a calm bribe")
	if _, ok := signals[constants.SignalUrgency]; ok {
		t.Errorf("urgency key present without urgent language: %v", signals)
	}
}

func TestScore_ClampedAt100(t *testing.T) {
	text := "bribe kickback undisclosed off-book cash facilitation urgent 1000 2000 3000"
	score, _, _ := Score(text)
	if score != 100 {
		t.Errorf("score = %d, want clamp at 100", score)
	}
}

func TestScore_ExplanationOrder(t *testing.T) {
	_, _, explanation := Score("urgent bribe of 1000 2000 3000")
	ki := strings.Index(explanation, "Found suspicious keywords")
	ri := strings.Index(explanation, "Multiple large round numbers")
	ui := strings.Index(explanation, "Urgent language detected")
	if ki == -1 || ri == -1 || ui == -1 {
		t.Fatalf("explanation missing a rule sentence: %q", explanation)
	}
	if !(ki < ri && ri < ui) {
		t.Errorf("rule sentences out of order: %q", explanation)
	}
}

func TestScore_Deterministic(t *testing.T) {
	text := "urgent bribe 1,000 2,000 3,000 cash"
	s1, sig1, e1 := Score(text)
	s2, sig2, e2 := Score(text)
	if s1 != s2 || e1 != e2 || !reflect.DeepEqual(sig1, sig2) {
		t.Errorf("Score not deterministic: (%d,%v,%q) vs (%d,%v,%q)", s1, sig1, e1, s2, sig2, e2)
	}
}
