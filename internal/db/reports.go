package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/klu-lostfound/internal/match"
)

// ErrReportNotFound is returned when a report id does not exist
var ErrReportNotFound = errors.New("report not found")

const schema = `
CREATE TABLE IF NOT EXISTS reports (
	id             SERIAL PRIMARY KEY,
	name           TEXT NOT NULL,
	email          TEXT NOT NULL,
	phone          TEXT,
	item_name      TEXT NOT NULL,
	description    TEXT NOT NULL DEFAULT '',
	location       TEXT NOT NULL DEFAULT '',
	image_filename TEXT,
	date_reported  TIMESTAMPTZ NOT NULL DEFAULT now(),
	type           TEXT NOT NULL CHECK (type IN ('lost', 'found')),
	status         TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'resolved', 'expired')),
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS match_history (
	id          SERIAL PRIMARY KEY,
	run_id      UUID NOT NULL,
	mode        TEXT NOT NULL,
	lost_id     INTEGER NOT NULL REFERENCES reports(id),
	found_id    INTEGER NOT NULL REFERENCES reports(id),
	percentage  NUMERIC(5,2) NOT NULL,
	tier        TEXT NOT NULL,
	signal      TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_reports_type_status ON reports(type, status);
CREATE INDEX IF NOT EXISTS idx_match_history_run ON match_history(run_id);
`

const reportColumns = `id, name, email, phone, item_name, description, location,
	image_filename, date_reported, type, status`

// ReportStore reads reports and records match runs
type ReportStore struct {
	db *sql.DB
}

// NewReportStore creates a store over db
func NewReportStore(db *sql.DB) *ReportStore {
	return &ReportStore{db: db}
}

// EnsureSchema creates the tables if they do not exist
func (s *ReportStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// ListReports returns every report of the given type; an empty type returns all
func (s *ReportStore) ListReports(ctx context.Context, typ match.ReportType) ([]match.Report, error) {
	return s.query(ctx, `
		SELECT `+reportColumns+`
		FROM reports
		WHERE ($1 = '' OR type = $1)
		ORDER BY id
	`, string(typ))
}

// ListActive returns the unresolved reports of the given type
func (s *ReportStore) ListActive(ctx context.Context, typ match.ReportType) ([]match.Report, error) {
	return s.query(ctx, `
		SELECT `+reportColumns+`
		FROM reports
		WHERE ($1 = '' OR type = $1) AND status = 'active'
		ORDER BY id
	`, string(typ))
}

// GetReport returns one report by id
func (s *ReportStore) GetReport(ctx context.Context, id int64) (match.Report, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = $1`, id)
	r, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return match.Report{}, fmt.Errorf("report %d: %w", id, ErrReportNotFound)
	}
	if err != nil {
		return match.Report{}, fmt.Errorf("failed to load report %d: %w", id, err)
	}
	return r, nil
}

// SaveMatchRun stores the results of one matching run under a new run id
func (s *ReportStore) SaveMatchRun(ctx context.Context, mode string, results []match.Result) (uuid.UUID, error) {
	runID := uuid.New()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO match_history (run_id, mode, lost_id, found_id, percentage, tier, signal)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range results {
		if _, err := stmt.ExecContext(ctx, runID, mode, r.LostID, r.FoundID, r.Percentage, r.Tier, string(r.Signal)); err != nil {
			return uuid.Nil, fmt.Errorf("failed to save match %d/%d: %w", r.LostID, r.FoundID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("failed to commit match run: %w", err)
	}

	log.Info().Str("run_id", runID.String()).Str("mode", mode).Int("matches", len(results)).Msg("saved match run")
	return runID, nil
}

// InsertReports stores new reports in one transaction and returns how many
// were written. Report ids are assigned by the database.
func (s *ReportStore) InsertReports(ctx context.Context, reports []match.Report) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO reports (name, email, phone, item_name, description, location,
			image_filename, date_reported, type, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range reports {
		reported := r.ReportedAt
		if reported.IsZero() {
			reported = time.Now().UTC()
		}
		status := r.Status
		if status == "" {
			status = "active"
		}
		_, err := stmt.ExecContext(ctx, r.Name, r.Email, nullString(r.Phone), r.ItemName, r.Description,
			r.Location, nullString(r.ImageRef), reported, string(r.Type), status)
		if err != nil {
			return 0, fmt.Errorf("failed to insert report %d (%s): %w", i+1, r.ItemName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit reports: %w", err)
	}
	return len(reports), nil
}

// ExpireReports marks active reports filed more than olderThan ago as expired
// and returns how many changed. Expired reports leave the matching pool.
func (s *ReportStore) ExpireReports(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("expiry age must be positive, got %v", olderThan)
	}
	cutoff := time.Now().UTC().Add(-olderThan)

	res, err := s.db.ExecContext(ctx, `
		UPDATE reports
		SET status = 'expired'
		WHERE status = 'active' AND date_reported < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to expire reports: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count expired reports: %w", err)
	}

	log.Info().Int64("expired", n).Time("cutoff", cutoff).Msg("expired old reports")
	return n, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(row scanner) (match.Report, error) {
	var (
		r        match.Report
		phone    sql.NullString
		image    sql.NullString
		reported time.Time
		typ      string
	)
	err := row.Scan(&r.ID, &r.Name, &r.Email, &phone, &r.ItemName, &r.Description,
		&r.Location, &image, &reported, &typ, &r.Status)
	if err != nil {
		return match.Report{}, err
	}
	r.Phone = phone.String
	r.ImageRef = image.String
	r.ReportedAt = reported
	r.Type = match.ReportType(typ)
	return r, nil
}

func (s *ReportStore) query(ctx context.Context, q string, args ...any) ([]match.Report, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	reports := []match.Report{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read reports: %w", err)
	}
	return reports, nil
}
