// Package pipeline drives the document analysis run for a case:
// extraction, heuristic scoring, narrative generation, moderation,
// explanation assembly and persistence of the terminal state.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jayvaidya30/FraudEx/constants"
	"github.com/jayvaidya30/FraudEx/internal/explain"
	"github.com/jayvaidya30/FraudEx/internal/extract"
	"github.com/jayvaidya30/FraudEx/internal/moderation"
	"github.com/jayvaidya30/FraudEx/internal/narrative"
	"github.com/jayvaidya30/FraudEx/internal/repository"
	"github.com/jayvaidya30/FraudEx/internal/risk"
)

// Diagnostic sentences persisted on failed runs. Stable: clients and
// stored cases depend on them.
const (
	msgNoFilePath   = "No file path found."
	msgNoText       = "Could not extract text or file empty."
	msgInternalFail = "Internal error during analysis."
)

// PreviewChars bounds the extracted-text preview stored with the signals.
const PreviewChars = 200

// Orchestrator owns every status transition after queued. A run always
// ends with the case in a persisted terminal status (analyzed or failed);
// no code path leaves it in processing.
type Orchestrator struct {
	cases     repository.CaseRepository
	extractor extract.TextExtractor
	analyzer  narrative.Analyzer
	logger    *slog.Logger
}

func NewOrchestrator(cases repository.CaseRepository, tx extract.TextExtractor, an narrative.Analyzer, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{cases: cases, extractor: tx, analyzer: an, logger: logger}
}

// Run executes the full analysis pipeline for caseID. A missing case is
// logged and skipped (there is nothing to mark failed). Re-running an
// analyzed case recomputes and overwrites its results.
func (o *Orchestrator) Run(ctx context.Context, caseID uuid.UUID) {
	c, err := o.cases.GetByID(ctx, caseID)
	if err != nil {
		o.logger.Error("case not found for analysis", "case_id", caseID, "error", err)
		return
	}

	if err := o.cases.UpdateStatus(ctx, caseID, constants.CaseStatusProcessing); err != nil {
		o.logger.Error("failed to enter processing", "case_id", caseID, "error", err)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("analysis panicked", "case_id", caseID, "panic", r)
			o.markFailed(ctx, caseID, msgInternalFail)
		}
	}()

	if c.OriginalFile == "" {
		o.markFailed(ctx, caseID, msgNoFilePath)
		return
	}

	res := o.extractor.Extract(ctx, c.OriginalFile)
	if res.Empty() {
		o.logger.Warn("no text extracted",
			"case_id", caseID, "path", c.OriginalFile, "error", res.Err)
		o.markFailed(ctx, caseID, msgNoText)
		return
	}
	text := res.Text

	score, signals, _ := risk.Score(text)

	nar, err := o.analyzer.Analyze(ctx, text)
	if err != nil {
		// Narrative failures degrade the explanation to heuristic-only
		// content; they never fail the run.
		o.logger.Warn("narrative service failed", "case_id", caseID, "error", err)
		nar = ""
	}
	if !moderation.CheckContentSafety(nar) {
		o.logger.Warn("narrative failed safety check", "case_id", caseID)
		nar = moderation.PolicyViolationPlaceholder
	}

	explanation := explain.Assemble(signals, nar)
	final := moderation.SanitizeOutput(explanation)

	merged := c.Signals.Merge(signals)
	merged[constants.SignalTextPreview] = previewOf(text)

	if err := o.cases.UpdateAnalysis(persistCtx(ctx), caseID, score, merged, final); err != nil {
		o.logger.Error("failed to persist analysis", "case_id", caseID, "error", err)
		o.markFailed(ctx, caseID, msgInternalFail)
		return
	}

	o.logger.Info("analysis completed",
		"case_id", caseID,
		"risk_score", score,
		"method", res.Method,
		"pages", res.Pages,
		"narrative_len", len(nar),
	)
}

func (o *Orchestrator) markFailed(ctx context.Context, caseID uuid.UUID, explanation string) {
	if err := o.cases.UpdateFailure(persistCtx(ctx), caseID, explanation); err != nil {
		o.logger.Error("failed to mark case failed", "case_id", caseID, "error", err)
	}
}

// persistCtx detaches terminal writes from the run's deadline so a timed
// out run still lands in a terminal status.
func persistCtx(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

func previewOf(text string) string {
	runes := []rune(text)
	if len(runes) > PreviewChars {
		runes = runes[:PreviewChars]
	}
	return string(runes)
}
