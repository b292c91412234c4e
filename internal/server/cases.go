package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jayvaidya30/FraudEx/constants"
	"github.com/jayvaidya30/FraudEx/internal/async"
	"github.com/jayvaidya30/FraudEx/internal/common"
	"github.com/jayvaidya30/FraudEx/internal/entity"
	"github.com/jayvaidya30/FraudEx/internal/export"
	"github.com/jayvaidya30/FraudEx/internal/repository"
	"github.com/jayvaidya30/FraudEx/internal/storage"
)

// CaseHandler serves the case lifecycle endpoints: upload, list, fetch,
// analysis trigger and export.
type CaseHandler struct {
	cases    repository.CaseRepository
	files    *storage.FileStore
	queue    async.Queue
	exporter *export.Service
	logger   *slog.Logger
}

func NewCaseHandler(
	cases repository.CaseRepository,
	files *storage.FileStore,
	queue async.Queue,
	exporter *export.Service,
	logger *slog.Logger,
) *CaseHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CaseHandler{
		cases:    cases,
		files:    files,
		queue:    queue,
		exporter: exporter,
		logger:   logger.With("component", "case_handler"),
	}
}

type caseResponse struct {
	CaseID       string           `json:"case_id"`
	Status       string           `json:"status"`
	RiskScore    *int             `json:"risk_score"`
	Signals      entity.SignalMap `json:"signals"`
	Explanation  string           `json:"explanation"`
	Filename     string           `json:"filename"`
	OriginalFile string           `json:"original_file,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

func toCaseResponse(c *entity.Case) caseResponse {
	signals := c.Signals
	if signals == nil {
		signals = entity.SignalMap{}
	}
	return caseResponse{
		CaseID:       c.CaseID.String(),
		Status:       string(c.Status),
		RiskScore:    c.RiskScore,
		Signals:      signals,
		Explanation:  c.Explanation,
		Filename:     c.Filename,
		OriginalFile: c.OriginalFile,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

// Upload accepts a multipart form with a "file" part, stores the file by
// content hash and creates a case in the uploaded state.
func (h *CaseHandler) Upload(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file upload"})
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file upload"})
		return
	}
	defer src.Close()

	saved, err := h.files.Save(src, fileHeader.Filename)
	if err != nil {
		h.logger.Warn("upload rejected", "filename", fileHeader.Filename, "error", err)
		c.JSON(common.HTTPStatus(err), gin.H{"error": userMessage(err, "could not store file")})
		return
	}

	now := time.Now().UTC()
	record := &entity.Case{
		CaseID:       uuid.New(),
		OwnerID:      user.ID,
		Status:       constants.CaseStatusUploaded,
		Signals:      entity.SignalMap{},
		OriginalFile: saved.Path,
		Filename:     fileHeader.Filename,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.cases.Create(c.Request.Context(), record); err != nil {
		h.logger.Error("failed to create case", "owner_id", user.ID, "error", err)
		c.JSON(common.HTTPStatus(err), gin.H{"error": "could not create case"})
		return
	}

	h.logger.Info("case uploaded",
		"case_id", record.CaseID,
		"owner_id", user.ID,
		"filename", fileHeader.Filename,
		"size", saved.Size,
	)
	c.JSON(http.StatusCreated, toCaseResponse(record))
}

// List returns the caller's cases, newest first.
func (h *CaseHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	cases, err := h.cases.ListByOwner(c.Request.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to list cases", "owner_id", user.ID, "error", err)
		c.JSON(common.HTTPStatus(err), gin.H{"error": "could not list cases"})
		return
	}

	out := make([]caseResponse, 0, len(cases))
	for _, rec := range cases {
		out = append(out, toCaseResponse(rec))
	}
	c.JSON(http.StatusOK, gin.H{"cases": out})
}

// Get returns a single case. Non-admins only see their own.
func (h *CaseHandler) Get(c *gin.Context) {
	record, ok := h.loadOwnedCase(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toCaseResponse(record))
}

// Analyze queues the case for the analysis pipeline and returns 202.
// The case moves to queued before the response is written, so a poll
// immediately after never observes the pre-trigger status.
func (h *CaseHandler) Analyze(c *gin.Context) {
	record, ok := h.loadOwnedCase(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.cases.UpdateStatus(ctx, record.CaseID, constants.CaseStatusQueued); err != nil {
		h.logger.Error("failed to queue case", "case_id", record.CaseID, "error", err)
		c.JSON(common.HTTPStatus(err), gin.H{"error": "could not queue case"})
		return
	}

	job := async.Job{
		CaseID:      record.CaseID,
		SubmittedAt: time.Now().UTC(),
		TraceID:     common.RequestIDFromContext(ctx),
	}
	if err := h.queue.Enqueue(ctx, job); err != nil {
		h.logger.Error("failed to enqueue analysis", "case_id", record.CaseID, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "analysis queue unavailable"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"case_id": record.CaseID.String(),
		"status":  string(constants.CaseStatusQueued),
	})
}

// Export streams the caller's cases as an XLSX workbook.
func (h *CaseHandler) Export(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	data, err := h.exporter.ExportCasesXLSX(c.Request.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to export cases", "owner_id", user.ID, "error", err)
		c.JSON(common.HTTPStatus(err), gin.H{"error": "could not export cases"})
		return
	}

	filename := fmt.Sprintf("cases-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// loadOwnedCase parses the :id param, fetches the case and enforces the
// owner-or-admin rule. On failure it writes the response and returns
// ok=false.
func (h *CaseHandler) loadOwnedCase(c *gin.Context) (*entity.Case, bool) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return nil, false
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid case id"})
		return nil, false
	}

	record, err := h.cases.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "case not found"})
			return nil, false
		}
		h.logger.Error("failed to fetch case", "case_id", id, "error", err)
		c.JSON(common.HTTPStatus(err), gin.H{"error": "could not fetch case"})
		return nil, false
	}

	if !record.OwnedBy(user.ID, user.IsAdmin()) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return nil, false
	}
	return record, true
}

// userMessage keeps validation detail in client responses while hiding
// internal failure detail.
func userMessage(err error, fallback string) string {
	var appErr *common.AppError
	if errors.As(err, &appErr) && errors.Is(err, common.ErrInvalidInput) {
		return appErr.Message
	}
	return fallback
}
