package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jayvaidya30/FraudEx/constants"
	"github.com/jayvaidya30/FraudEx/internal/common"
	"github.com/jayvaidya30/FraudEx/internal/entity"
)

const createCasesTableSQLite = `
CREATE TABLE IF NOT EXISTS cases (
	case_id       TEXT PRIMARY KEY,
	owner_id      TEXT NOT NULL,
	status        TEXT NOT NULL,
	risk_score    INTEGER,
	signals       TEXT NOT NULL DEFAULT '{}',
	explanation   TEXT NOT NULL DEFAULT '',
	original_file TEXT NOT NULL DEFAULT '',
	filename      TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMP NOT NULL,
	updated_at    TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS cases_owner_idx ON cases (owner_id, created_at DESC);`

// sqliteCaseRepository is the dev-default store. Signals live as JSON text;
// uuids are stored canonically as strings.
type sqliteCaseRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteCaseRepository returns a CaseRepository over a sqlite handle.
func NewSQLiteCaseRepository(db *sql.DB, logger *slog.Logger) CaseRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &sqliteCaseRepository{db: db, logger: logger}
}

func (r *sqliteCaseRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *sqliteCaseRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createCasesTableSQLite); err != nil {
		r.logger.Error("failed to ensure cases schema", "error", err)
		return common.WrapError(err, "ensure schema")
	}
	return nil
}

func (r *sqliteCaseRepository) Create(ctx context.Context, c *entity.Case) error {
	signals, err := marshalSignals(c.Signals)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO cases (case_id, owner_id, status, signals, explanation, original_file, filename, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.CaseID.String(), c.OwnerID, string(c.Status), string(signals), c.Explanation, c.OriginalFile, c.Filename, now, now)
	if err != nil {
		r.logger.Error("failed to create case", "case_id", c.CaseID, "error", err)
		return common.WrapError(err, "create case")
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

func (r *sqliteCaseRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Case, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT case_id, owner_id, status, risk_score, signals, explanation, original_file, filename, created_at, updated_at
		FROM cases WHERE case_id = ?`, id.String())
	c, err := scanSQLiteCase(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		r.logger.Error("failed to get case", "case_id", id, "error", err)
		return nil, common.WrapError(err, "get case")
	}
	return c, nil
}

func (r *sqliteCaseRepository) ListByOwner(ctx context.Context, ownerID string) ([]*entity.Case, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT case_id, owner_id, status, risk_score, signals, explanation, original_file, filename, created_at, updated_at
		FROM cases WHERE owner_id = ? ORDER BY created_at DESC`, ownerID)
	if err != nil {
		r.logger.Error("failed to list cases", "owner_id", ownerID, "error", err)
		return nil, common.WrapError(err, "list cases")
	}
	defer rows.Close()

	var out []*entity.Case
	for rows.Next() {
		c, err := scanSQLiteCase(rows)
		if err != nil {
			return nil, common.WrapError(err, "scan case")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *sqliteCaseRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status constants.CaseStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE cases SET status = ?, updated_at = ? WHERE case_id = ?`,
		string(status), time.Now().UTC(), id.String())
	if err != nil {
		r.logger.Error("failed to update case status", "case_id", id, "status", status, "error", err)
		return common.WrapError(err, "update status")
	}
	return requireRow(res)
}

func (r *sqliteCaseRepository) UpdateFailure(ctx context.Context, id uuid.UUID, explanation string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE cases SET status = ?, explanation = ?, updated_at = ? WHERE case_id = ?`,
		string(constants.CaseStatusFailed), explanation, time.Now().UTC(), id.String())
	if err != nil {
		r.logger.Error("failed to mark case failed", "case_id", id, "error", err)
		return common.WrapError(err, "update failure")
	}
	return requireRow(res)
}

func (r *sqliteCaseRepository) UpdateAnalysis(ctx context.Context, id uuid.UUID, score int, signals entity.SignalMap, explanation string) error {
	payload, err := marshalSignals(signals)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE cases SET status = ?, risk_score = ?, signals = ?, explanation = ?, updated_at = ?
		WHERE case_id = ?`,
		string(constants.CaseStatusAnalyzed), score, string(payload), explanation, time.Now().UTC(), id.String())
	if err != nil {
		r.logger.Error("failed to store analysis", "case_id", id, "error", err)
		return common.WrapError(err, "update analysis")
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return common.WrapError(err, "rows affected")
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func scanSQLiteCase(row rowScanner) (*entity.Case, error) {
	var (
		c       entity.Case
		rawID   string
		status  string
		score   sql.NullInt64
		signals string
	)
	if err := row.Scan(&rawID, &c.OwnerID, &status, &score, &signals,
		&c.Explanation, &c.OriginalFile, &c.Filename, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, common.WrapError(err, "parse case id")
	}
	c.CaseID = id
	c.Status = constants.CaseStatus(status)
	if score.Valid {
		v := int(score.Int64)
		c.RiskScore = &v
	}
	if err := unmarshalSignals(signals, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func unmarshalSignals(raw string, c *entity.Case) error {
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &c.Signals); err != nil {
			return common.WrapError(err, "decode signals")
		}
	}
	if c.Signals == nil {
		c.Signals = entity.SignalMap{}
	}
	return nil
}
