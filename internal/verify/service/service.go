// Package service is the application layer over the verification engine: it
// validates run requests, executes the workflow, records referee usage, and
// persists results for audit.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"driveid/internal/verify/match"
	"driveid/internal/verify/models"
	"driveid/internal/verify/workflow"
)

// ErrInvalidRequest tags validation failures so the transport layer can map
// them to 400 responses.
var ErrInvalidRequest = errors.New("invalid verification request")

// Runner executes one verification run.
type Runner interface {
	Run(ctx context.Context, req workflow.Request) *models.WorkflowResult
}

// Store persists verification runs.
type Store interface {
	Save(ctx context.Context, run *models.WorkflowResult) error
	Find(ctx context.Context, id uuid.UUID) (*models.WorkflowResult, error)
	ListBySubject(ctx context.Context, subjectRef string, limit int) ([]*models.WorkflowResult, error)
}

// Directory records referee contact usage for the reuse fraud signal.
type Directory interface {
	Record(ctx context.Context, phone, nationalID, subjectRef string) error
}

// Service coordinates verification runs.
type Service struct {
	runner    Runner
	store     Store
	directory Directory
	norm      *match.Normalizer
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithDirectory(directory Directory) Option {
	return func(s *Service) { s.directory = directory }
}

// New builds a Service.
func New(runner Runner, store Store, norm *match.Normalizer, opts ...Option) *Service {
	s := &Service{
		runner: runner,
		store:  store,
		norm:   norm,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Verify validates the request, runs the workflow, and persists the outcome.
// The run result is returned even when the audit write fails: the decision
// has already been made and the caller needs it.
func (s *Service) Verify(ctx context.Context, req workflow.Request) (*models.WorkflowResult, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	result := s.runner.Run(ctx, req)

	if req.Referee != nil && s.directory != nil {
		phone := s.norm.NormalizePhone(req.Referee.Phone)
		if err := s.directory.Record(ctx, phone, req.Referee.NationalID, req.SubjectRef); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "failed to record referee usage",
				"subject_ref", req.SubjectRef,
				"error", err,
			)
		}
	}

	if err := s.store.Save(ctx, result); err != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "failed to persist verification run",
				"run_id", result.ID,
				"subject_ref", req.SubjectRef,
				"error", err,
			)
		}
	}
	return result, nil
}

// Get returns a stored verification run.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.WorkflowResult, error) {
	return s.store.Find(ctx, id)
}

// History returns a subject's verification runs, newest first.
func (s *Service) History(ctx context.Context, subjectRef string, limit int) ([]*models.WorkflowResult, error) {
	if subjectRef == "" {
		return nil, fmt.Errorf("%w: subject_ref is required", ErrInvalidRequest)
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.store.ListBySubject(ctx, subjectRef, limit)
}

func validate(req workflow.Request) error {
	switch {
	case req.SubjectRef == "":
		return fmt.Errorf("%w: subject_ref is required", ErrInvalidRequest)
	case req.Subject.FirstName == "" || req.Subject.Surname == "":
		return fmt.Errorf("%w: subject first name and surname are required", ErrInvalidRequest)
	case req.Document != nil && req.Document.Type == "":
		return fmt.Errorf("%w: document type is required when a document is supplied", ErrInvalidRequest)
	case req.Referee != nil && req.Referee.FullName == "":
		return fmt.Errorf("%w: referee full name is required when a referee is supplied", ErrInvalidRequest)
	}
	return nil
}
