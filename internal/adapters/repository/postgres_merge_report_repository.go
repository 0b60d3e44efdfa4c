package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/zing-commerce/cart-engine/internal/core/domain"
)

var _ domain.MergeReportRepository = (*PostgresMergeReportRepository)(nil)

// PostgresMergeReportRepository persists merge outcomes so that guest lines
// lost during a login-time merge remain visible to support and to the user.
//
// Expected schema:
//
//	CREATE TABLE merge_reports (
//	    id          UUID PRIMARY KEY,
//	    session_id  TEXT NOT NULL,
//	    user_id     TEXT NOT NULL,
//	    attempted   INT NOT NULL,
//	    succeeded   INT NOT NULL,
//	    failures    JSONB NOT NULL DEFAULT '[]',
//	    started_at  TIMESTAMPTZ NOT NULL,
//	    finished_at TIMESTAMPTZ NOT NULL
//	);
type PostgresMergeReportRepository struct {
	db *sqlx.DB
}

func NewPostgresMergeReportRepository(db *sqlx.DB) *PostgresMergeReportRepository {
	return &PostgresMergeReportRepository{db: db}
}

type mergeReportRow struct {
	domain.MergeReport
	FailuresJSON []byte `db:"failures"`
}

func (r *PostgresMergeReportRepository) Create(ctx context.Context, report *domain.MergeReport) error {
	failures := report.Failures
	if failures == nil {
		failures = []domain.MergeFailure{}
	}
	failuresJSON, err := json.Marshal(failures)
	if err != nil {
		return fmt.Errorf("merge report repository: marshal failures: %w", err)
	}

	row := mergeReportRow{MergeReport: *report, FailuresJSON: failuresJSON}

	query := `
		INSERT INTO merge_reports (
			id, session_id, user_id,
			attempted, succeeded, failures,
			started_at, finished_at
		) VALUES (
			:id, :session_id, :user_id,
			:attempted, :succeeded, :failures,
			:started_at, :finished_at
		)`

	_, err = r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		if isUniqueViolation(err) {
			// A merge runs once per login event; a duplicate id means the
			// report was already written.
			return nil
		}
		return fmt.Errorf("merge report repository: insert: %w", err)
	}
	return nil
}

// isUniqueViolation matches code 23505 from either Postgres driver in use
// (pgx for the pooled connection, lib/pq when wired directly).
func isUniqueViolation(err error) bool {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) && pgxErr.Code == "23505" {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (r *PostgresMergeReportRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.MergeReport, error) {
	rows := []mergeReportRow{}

	query := `
		SELECT id, session_id, user_id, attempted, succeeded, failures, started_at, finished_at
		FROM merge_reports
		WHERE user_id = $1
		ORDER BY finished_at DESC`

	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("merge report repository: list: %w", err)
	}

	reports := make([]*domain.MergeReport, 0, len(rows))
	for i := range rows {
		report := rows[i].MergeReport
		if len(rows[i].FailuresJSON) > 0 {
			if err := json.Unmarshal(rows[i].FailuresJSON, &report.Failures); err != nil {
				return nil, fmt.Errorf("merge report repository: decode failures for %s: %w", report.ID, err)
			}
		}
		reports = append(reports, &report)
	}
	return reports, nil
}
