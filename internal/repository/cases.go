package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jayvaidya30/FraudEx/constants"
	"github.com/jayvaidya30/FraudEx/internal/common"
	"github.com/jayvaidya30/FraudEx/internal/entity"
)

// CaseRepository is the persistence surface the pipeline and handlers
// depend on. Scalar fields are replaced wholesale on update; the signals
// mapping passed to UpdateAnalysis must already be the key-wise merge of
// prior and newly computed signals (the orchestrator owns that merge).
type CaseRepository interface {
	Ping(ctx context.Context) error
	EnsureSchema(ctx context.Context) error
	Create(ctx context.Context, c *entity.Case) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Case, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*entity.Case, error)
	// UpdateStatus moves the case to status without touching results.
	UpdateStatus(ctx context.Context, id uuid.UUID, status constants.CaseStatus) error
	// UpdateFailure marks the case failed with a diagnostic explanation,
	// leaving any previously stored risk score untouched.
	UpdateFailure(ctx context.Context, id uuid.UUID, explanation string) error
	// UpdateAnalysis stores the merged signals, score and explanation and
	// marks the case analyzed.
	UpdateAnalysis(ctx context.Context, id uuid.UUID, score int, signals entity.SignalMap, explanation string) error
}

const createCasesTablePG = `
CREATE TABLE IF NOT EXISTS cases (
	case_id       UUID PRIMARY KEY,
	owner_id      TEXT NOT NULL,
	status        TEXT NOT NULL,
	risk_score    INTEGER,
	signals       JSONB NOT NULL DEFAULT '{}',
	explanation   TEXT NOT NULL DEFAULT '',
	original_file TEXT NOT NULL DEFAULT '',
	filename      TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS cases_owner_idx ON cases (owner_id, created_at DESC);`

type pgCaseRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgresCaseRepository returns a CaseRepository over a pgx pool.
func NewPostgresCaseRepository(pool *pgxpool.Pool, logger *slog.Logger) CaseRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &pgCaseRepository{pool: pool, logger: logger}
}

func (r *pgCaseRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *pgCaseRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, createCasesTablePG); err != nil {
		r.logger.Error("failed to ensure cases schema", "error", err)
		return common.WrapError(err, "ensure schema")
	}
	return nil
}

func (r *pgCaseRepository) Create(ctx context.Context, c *entity.Case) error {
	signals, err := marshalSignals(c.Signals)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err = r.pool.Exec(ctx, `
		INSERT INTO cases (case_id, owner_id, status, signals, explanation, original_file, filename, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`,
		c.CaseID, c.OwnerID, string(c.Status), signals, c.Explanation, c.OriginalFile, c.Filename, now)
	if err != nil {
		r.logger.Error("failed to create case", "case_id", c.CaseID, "error", err)
		return common.WrapError(err, "create case")
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

func (r *pgCaseRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Case, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT case_id, owner_id, status, risk_score, signals, explanation, original_file, filename, created_at, updated_at
		FROM cases WHERE case_id = $1`, id)
	c, err := scanCase(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		r.logger.Error("failed to get case", "case_id", id, "error", err)
		return nil, common.WrapError(err, "get case")
	}
	return c, nil
}

func (r *pgCaseRepository) ListByOwner(ctx context.Context, ownerID string) ([]*entity.Case, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT case_id, owner_id, status, risk_score, signals, explanation, original_file, filename, created_at, updated_at
		FROM cases WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		r.logger.Error("failed to list cases", "owner_id", ownerID, "error", err)
		return nil, common.WrapError(err, "list cases")
	}
	defer rows.Close()

	var out []*entity.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, common.WrapError(err, "scan case")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *pgCaseRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status constants.CaseStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE cases SET status = $2, updated_at = $3 WHERE case_id = $1`,
		id, string(status), time.Now().UTC())
	if err != nil {
		r.logger.Error("failed to update case status", "case_id", id, "status", status, "error", err)
		return common.WrapError(err, "update status")
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgCaseRepository) UpdateFailure(ctx context.Context, id uuid.UUID, explanation string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE cases SET status = $2, explanation = $3, updated_at = $4 WHERE case_id = $1`,
		id, string(constants.CaseStatusFailed), explanation, time.Now().UTC())
	if err != nil {
		r.logger.Error("failed to mark case failed", "case_id", id, "error", err)
		return common.WrapError(err, "update failure")
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgCaseRepository) UpdateAnalysis(ctx context.Context, id uuid.UUID, score int, signals entity.SignalMap, explanation string) error {
	payload, err := marshalSignals(signals)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE cases SET status = $2, risk_score = $3, signals = $4, explanation = $5, updated_at = $6
		WHERE case_id = $1`,
		id, string(constants.CaseStatusAnalyzed), score, payload, explanation, time.Now().UTC())
	if err != nil {
		r.logger.Error("failed to store analysis", "case_id", id, "error", err)
		return common.WrapError(err, "update analysis")
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (*entity.Case, error) {
	var (
		c       entity.Case
		status  string
		score   *int32
		signals []byte
	)
	if err := row.Scan(&c.CaseID, &c.OwnerID, &status, &score, &signals,
		&c.Explanation, &c.OriginalFile, &c.Filename, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Status = constants.CaseStatus(status)
	if score != nil {
		v := int(*score)
		c.RiskScore = &v
	}
	if len(signals) > 0 {
		if err := json.Unmarshal(signals, &c.Signals); err != nil {
			return nil, common.WrapError(err, "decode signals")
		}
	}
	if c.Signals == nil {
		c.Signals = entity.SignalMap{}
	}
	return &c, nil
}

func marshalSignals(m entity.SignalMap) ([]byte, error) {
	if m == nil {
		m = entity.SignalMap{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, common.WrapError(err, "encode signals")
	}
	return b, nil
}
