// Package models holds the shared vocabulary of the verification engine:
// the claimed identity under test, per-field comparison records, per-source
// results, and the aggregate workflow result.
//
// Everything here is plain data. Results are created by exactly one component
// and never mutated afterwards, so they can be cached and persisted as-is.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Subject is the claimed identity under test. It is owned by the caller
// (the driver-onboarding flow); the engine only reads it. Every field except
// the name parts is optional.
type Subject struct {
	FirstName     string `json:"first_name"`
	MiddleName    string `json:"middle_name,omitempty"`
	Surname       string `json:"surname"`
	DateOfBirth   string `json:"date_of_birth,omitempty"`
	Gender        string `json:"gender,omitempty"`
	Phone         string `json:"phone,omitempty"`
	NIN           string `json:"nin,omitempty"`
	BVN           string `json:"bvn,omitempty"`
	LicenseNumber string `json:"license_number,omitempty"`
}

// FieldComparison records a single field match between the subject and a
// source record. Matched is derived from Similarity >= Threshold and is
// never set independently.
type FieldComparison struct {
	Field        string  `json:"field"`
	SubjectValue string  `json:"subject_value"`
	SourceValue  string  `json:"source_value"`
	Similarity   float64 `json:"similarity"`
	Threshold    float64 `json:"threshold"`
	Matched      bool    `json:"matched"`
	Reason       string  `json:"reason,omitempty"`
}

// SourceResult is the outcome of one verification source (registry, document
// comparison, or referee). Frozen once created; cached copies differ only in
// FromCache.
type SourceResult struct {
	Source      string            `json:"source"`
	Succeeded   bool              `json:"succeeded"`
	Verified    bool              `json:"verified"`
	MatchScore  float64           `json:"match_score"`
	Comparisons []FieldComparison `json:"field_comparisons,omitempty"`
	Metadata    map[string]string `json:"provider_metadata,omitempty"`
	Error       string            `json:"error,omitempty"`
	ErrorKind   string            `json:"error_kind,omitempty"`
	FromCache   bool              `json:"retrieved_from_cache"`
	CheckedAt   time.Time         `json:"timestamp"`
}

// Discrepancies returns the comparisons that fell below their threshold.
func (r SourceResult) Discrepancies() []FieldComparison {
	var out []FieldComparison
	for _, c := range r.Comparisons {
		if !c.Matched {
			out = append(out, c)
		}
	}
	return out
}

// StepStatus is the internal status of one orchestrated verification step.
type StepStatus string

const (
	StepPassed  StepStatus = "passed"
	StepFailed  StepStatus = "failed"
	StepSkipped StepStatus = "skipped"
	StepError   StepStatus = "error"
)

// Step names used across the orchestrator, decision policy, and metrics.
const (
	StepDocument = "document"
	StepNIN      = "nin"
	StepLicense  = "license"
	StepBVN      = "bvn"
	StepReferee  = "referee"
)

// StepResult pairs a step's status with the source result that produced it.
// Result is nil for skipped steps.
type StepResult struct {
	Name       string        `json:"name"`
	Status     StepStatus    `json:"status"`
	SkipReason string        `json:"skip_reason,omitempty"`
	Result     *SourceResult `json:"result,omitempty"`
}

// WorkflowStatus tracks the lifecycle of a verification run.
type WorkflowStatus string

const (
	WorkflowPending    WorkflowStatus = "pending"
	WorkflowInProgress WorkflowStatus = "in_progress"
	WorkflowCompleted  WorkflowStatus = "completed"
	WorkflowFailed     WorkflowStatus = "failed"
)

// OverallStatus is the final verification decision.
type OverallStatus string

const (
	StatusVerified              OverallStatus = "verified"
	StatusConditionallyApproved OverallStatus = "conditionally_approved"
	StatusReviewRequired        OverallStatus = "review_required"
	StatusRejected              OverallStatus = "rejected"
	StatusFailed                OverallStatus = "failed"
	StatusNotFound              OverallStatus = "not_found"
)

// WorkflowResult is the aggregate outcome of one verification run. Steps are
// appended during the run in declared order, then the result is frozen at
// finalization.
type WorkflowResult struct {
	ID              uuid.UUID      `json:"id"`
	SubjectRef      string         `json:"subject_ref"`
	Steps           []StepResult   `json:"steps"`
	OverallScore    float64        `json:"overall_score"`
	OverallStatus   OverallStatus  `json:"overall_status"`
	WorkflowStatus  WorkflowStatus `json:"workflow_status"`
	Completion      float64        `json:"completion_percentage"`
	Issues          []string       `json:"issues,omitempty"`
	Recommendations []string       `json:"recommendations,omitempty"`
	NextSteps       []string       `json:"next_steps,omitempty"`
	StartedAt       time.Time      `json:"started_at"`
	CompletedAt     time.Time      `json:"completed_at"`
}

// Step returns the named step result, or nil if it was not part of the run.
func (w *WorkflowResult) Step(name string) *StepResult {
	for i := range w.Steps {
		if w.Steps[i].Name == name {
			return &w.Steps[i]
		}
	}
	return nil
}
