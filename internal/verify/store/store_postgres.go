package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"driveid/internal/verify/models"
)

// PostgresStore persists verification runs in PostgreSQL. Step results are
// stored as a JSONB payload; the decision fields are flattened into columns
// so audits can query by status without unpacking the payload.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, run *models.WorkflowResult) error {
	if run == nil {
		return fmt.Errorf("verification run is required")
	}
	steps, err := json.Marshal(run.Steps)
	if err != nil {
		return fmt.Errorf("marshal steps: %w", err)
	}

	query := `
		INSERT INTO verification_runs (
			id, subject_ref, overall_score, overall_status, workflow_status,
			completion, steps, issues, recommendations, next_steps,
			started_at, completed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			overall_score = EXCLUDED.overall_score,
			overall_status = EXCLUDED.overall_status,
			workflow_status = EXCLUDED.workflow_status,
			completion = EXCLUDED.completion,
			steps = EXCLUDED.steps,
			issues = EXCLUDED.issues,
			recommendations = EXCLUDED.recommendations,
			next_steps = EXCLUDED.next_steps,
			completed_at = EXCLUDED.completed_at
	`
	_, err = s.db.ExecContext(ctx, query,
		run.ID,
		run.SubjectRef,
		run.OverallScore,
		string(run.OverallStatus),
		string(run.WorkflowStatus),
		run.Completion,
		steps,
		pq.Array(orEmpty(run.Issues)),
		pq.Array(orEmpty(run.Recommendations)),
		pq.Array(orEmpty(run.NextSteps)),
		run.StartedAt,
		run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert verification run: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, id uuid.UUID) (*models.WorkflowResult, error) {
	query := `
		SELECT id, subject_ref, overall_score, overall_status, workflow_status,
		       completion, steps, issues, recommendations, next_steps,
		       started_at, completed_at
		FROM verification_runs
		WHERE id = $1
	`
	run, err := scanRun(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find verification run: %w", err)
	}
	return run, nil
}

func (s *PostgresStore) ListBySubject(ctx context.Context, subjectRef string, limit int) ([]*models.WorkflowResult, error) {
	query := `
		SELECT id, subject_ref, overall_score, overall_status, workflow_status,
		       completion, steps, issues, recommendations, next_steps,
		       started_at, completed_at
		FROM verification_runs
		WHERE subject_ref = $1
		ORDER BY started_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, subjectRef, limit)
	if err != nil {
		return nil, fmt.Errorf("list verification runs: %w", err)
	}
	defer rows.Close()

	var out []*models.WorkflowResult
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan verification run: %w", err)
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list verification runs: %w", err)
	}
	return out, nil
}

// orEmpty keeps nil slices out of NOT NULL array columns.
func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*models.WorkflowResult, error) {
	var run models.WorkflowResult
	var steps []byte
	var overallStatus, workflowStatus string
	var issues, recommendations, nextSteps pq.StringArray

	err := row.Scan(
		&run.ID,
		&run.SubjectRef,
		&run.OverallScore,
		&overallStatus,
		&workflowStatus,
		&run.Completion,
		&steps,
		&issues,
		&recommendations,
		&nextSteps,
		&run.StartedAt,
		&run.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(steps, &run.Steps); err != nil {
		return nil, fmt.Errorf("unmarshal steps: %w", err)
	}
	run.OverallStatus = models.OverallStatus(overallStatus)
	run.WorkflowStatus = models.WorkflowStatus(workflowStatus)
	run.Issues = issues
	run.Recommendations = recommendations
	run.NextSteps = nextSteps
	return &run, nil
}

// PostgresDirectory stores referee contact usage per subject.
type PostgresDirectory struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db, now: time.Now}
}

func (d *PostgresDirectory) Record(ctx context.Context, phone, nationalID, subjectRef string) error {
	query := `
		INSERT INTO referee_records (contact, subject_ref, recorded_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (contact, subject_ref) DO NOTHING
	`
	for _, contact := range []string{phone, nationalID} {
		if contact == "" {
			continue
		}
		if _, err := d.db.ExecContext(ctx, query, contact, subjectRef, d.now()); err != nil {
			return fmt.Errorf("record referee contact: %w", err)
		}
	}
	return nil
}

func (d *PostgresDirectory) CountSubjects(ctx context.Context, phone, nationalID string) (int, error) {
	query := `
		SELECT COUNT(DISTINCT subject_ref)
		FROM referee_records
		WHERE contact = ANY($1)
	`
	contacts := make([]string, 0, 2)
	for _, contact := range []string{phone, nationalID} {
		if contact != "" {
			contacts = append(contacts, contact)
		}
	}
	if len(contacts) == 0 {
		return 0, nil
	}

	var count int
	if err := d.db.QueryRowContext(ctx, query, pq.Array(contacts)).Scan(&count); err != nil {
		return 0, fmt.Errorf("count referee subjects: %w", err)
	}
	return count, nil
}
