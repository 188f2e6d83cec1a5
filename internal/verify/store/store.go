// Package store persists completed verification runs for audit and exposes
// the referee directory used by the cross-subject reuse check.
package store

import (
	"driveid/pkg/platform/sentinel"
)

// ErrNotFound is returned when a verification run does not exist.
var ErrNotFound = sentinel.ErrNotFound

// Schema holds the DDL for the audit tables. Applied by deployment tooling
// and by the integration test containers.
const Schema = `
CREATE TABLE IF NOT EXISTS verification_runs (
    id              UUID PRIMARY KEY,
    subject_ref     TEXT NOT NULL,
    overall_score   DOUBLE PRECISION NOT NULL,
    overall_status  TEXT NOT NULL,
    workflow_status TEXT NOT NULL,
    completion      DOUBLE PRECISION NOT NULL,
    steps           JSONB NOT NULL,
    issues          TEXT[] NOT NULL DEFAULT '{}',
    recommendations TEXT[] NOT NULL DEFAULT '{}',
    next_steps      TEXT[] NOT NULL DEFAULT '{}',
    started_at      TIMESTAMPTZ NOT NULL,
    completed_at    TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS verification_runs_subject_idx
    ON verification_runs (subject_ref, started_at DESC);

CREATE TABLE IF NOT EXISTS referee_records (
    contact     TEXT NOT NULL,
    subject_ref TEXT NOT NULL,
    recorded_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (contact, subject_ref)
);
`
