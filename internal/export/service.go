package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jayvaidya30/FraudEx/constants"
	"github.com/jayvaidya30/FraudEx/internal/entity"
	"github.com/jayvaidya30/FraudEx/internal/repository"
)

// Service is a thin layer over the case repository that produces XLSX
// bytes for exports.
type Service struct {
	cases  repository.CaseRepository
	logger *slog.Logger
}

func NewService(cases repository.CaseRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{cases: cases, logger: logger}
}

// ExportCasesXLSX returns a workbook of the owner's cases, newest first.
// Cases still mid-pipeline appear with their current status and no score.
func (s *Service) ExportCasesXLSX(ctx context.Context, ownerID string) ([]byte, error) {
	start := time.Now()

	cases, err := s.cases.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query cases: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Cases"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	if defIdx, _ := f.GetSheetIndex("Sheet1"); defIdx != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	headers := []string{
		"Case ID",
		"Status",
		"Risk Score",
		"Keywords",
		"Urgent Language",
		"Explanation",
		"Original File",
		"Created At",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, c := range cases {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		score := ""
		if c.RiskScore != nil {
			score = fmt.Sprintf("%d", *c.RiskScore)
		}

		write(1, c.CaseID.String())
		write(2, string(c.Status))
		write(3, score)
		write(4, signalList(c.Signals, constants.SignalKeywords))
		write(5, signalBool(c.Signals, constants.SignalUrgency))
		write(6, c.Explanation)
		write(7, c.OriginalFile)
		write(8, c.CreatedAt.UTC().Format(time.RFC3339))
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info("cases export built",
		"owner_id", ownerID,
		"rows", row-2,
		"bytes", buf.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func signalList(signals entity.SignalMap, key string) string {
	v, ok := signals[key]
	if !ok {
		return ""
	}
	switch vv := v.(type) {
	case []string:
		out := ""
		for i, e := range vv {
			if i > 0 {
				out += ", "
			}
			out += e
		}
		return out
	case []any:
		out := ""
		for i, e := range vv {
			if i > 0 {
				out += ", "
			}
			out += fmt.Sprintf("%v", e)
		}
		return out
	default:
		return fmt.Sprintf("%v", v)
	}
}

func signalBool(signals entity.SignalMap, key string) string {
	if v, ok := signals[key]; ok {
		if b, isBool := v.(bool); isBool && b {
			return "yes"
		}
	}
	return ""
}
