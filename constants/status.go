package constants

// CaseStatus is the canonical lifecycle status for rows in cases.
type CaseStatus string

// Stable values (store these exact strings in DB).
const (
	CaseStatusUploaded   CaseStatus = "uploaded"   // document stored, no analysis scheduled
	CaseStatusQueued     CaseStatus = "queued"     // analysis scheduled, waiting for a worker
	CaseStatusProcessing CaseStatus = "processing" // pipeline run in progress
	CaseStatusAnalyzed   CaseStatus = "analyzed"   // terminal: score + explanation present
	CaseStatusFailed     CaseStatus = "failed"     // terminal: explanation holds the diagnostic
)

// IsTerminal reports whether a status ends a pipeline run.
func (s CaseStatus) IsTerminal() bool {
	return s == CaseStatusAnalyzed || s == CaseStatusFailed
}

// Reserved signal keys. The scorer owns "keywords", "round_numbers" and
// "urgency"; the orchestrator owns the extracted text preview.
const (
	SignalKeywords     = "keywords"
	SignalRoundNumbers = "round_numbers"
	SignalUrgency      = "urgency"
	SignalTextPreview  = "extracted_text_preview"
)
