// Package workflow runs the verification state machine: it fans the
// independent source checks out concurrently, joins them under a run-level
// deadline, and hands the assembled steps to the decision policy.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"driveid/internal/verify/document"
	"driveid/internal/verify/metrics"
	"driveid/internal/verify/models"
	"driveid/internal/verify/providers"
	"driveid/internal/verify/referee"
)

const defaultRunTimeout = 30 * time.Second

// RegistryClient is one external registry check (NIN, BVN, license).
type RegistryClient interface {
	Verify(ctx context.Context, identifier string, subject models.Subject) *models.SourceResult
}

// DocumentComparer scores driver-entered fields against OCR output.
type DocumentComparer interface {
	Compare(subjectFields, documentFields map[string]string, docType document.Type) *models.SourceResult
}

// RefereeScorer evaluates a human reference.
type RefereeScorer interface {
	Score(ctx context.Context, ref referee.Reference) *models.SourceResult
}

// DocumentInput is the OCR payload for the document step. SubjectFields
// carries driver-entered values that live outside Subject (a voter card VIN,
// for example); they overlay the fields derived from the Subject.
type DocumentInput struct {
	Type          document.Type     `json:"type"`
	Fields        map[string]string `json:"fields"`
	SubjectFields map[string]string `json:"subject_fields,omitempty"`
}

// Request is one verification run. Document and Referee are optional; their
// steps are skipped when absent.
type Request struct {
	SubjectRef string             `json:"subject_ref"`
	Subject    models.Subject     `json:"subject"`
	Document   *DocumentInput     `json:"document,omitempty"`
	Referee    *referee.Reference `json:"referee,omitempty"`
}

// Orchestrator executes verification runs. Source checks have no data
// dependency on one another, so they run concurrently; step assembly follows
// the declared step order regardless of completion order.
type Orchestrator struct {
	document   DocumentComparer
	nin        RegistryClient
	bvn        RegistryClient
	license    RegistryClient
	referee    RefereeScorer
	policy     Policy
	runTimeout time.Duration
	logger     *slog.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

func WithRunTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.runTimeout = d }
}

func WithPolicy(p Policy) Option {
	return func(o *Orchestrator) { o.policy = p }
}

// NewOrchestrator wires the five source checks. Any nil source is reported
// as a skipped step rather than failing the run.
func NewOrchestrator(doc DocumentComparer, nin, bvn, license RegistryClient, ref RefereeScorer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		document:   doc,
		nin:        nin,
		bvn:        bvn,
		license:    license,
		referee:    ref,
		policy:     DefaultPolicy(),
		runTimeout: defaultRunTimeout,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type stepSpec struct {
	name string
	skip string
	run  func(ctx context.Context) *models.SourceResult
}

type stepSlot struct {
	result *models.SourceResult
	status models.StepStatus
	done   chan struct{}
}

// Run executes every applicable step and finalizes a WorkflowResult. It never
// returns an error: step faults are captured into step results, and a run
// that exceeds the deadline finalizes over the steps that completed in time.
func (o *Orchestrator) Run(ctx context.Context, req Request) *models.WorkflowResult {
	ctx, cancel := context.WithTimeout(ctx, o.runTimeout)
	defer cancel()

	started := o.now()
	result := &models.WorkflowResult{
		ID:             uuid.New(),
		SubjectRef:     req.SubjectRef,
		WorkflowStatus: models.WorkflowInProgress,
		StartedAt:      started,
	}

	specs := o.plan(req)
	slots := make([]*stepSlot, len(specs))
	for i, spec := range specs {
		if spec.skip != "" {
			continue
		}
		slots[i] = &stepSlot{done: make(chan struct{})}
		go o.execute(ctx, spec, slots[i])
	}

	for i, spec := range specs {
		step := models.StepResult{Name: spec.name}
		switch {
		case spec.skip != "":
			step.Status = models.StepSkipped
			step.SkipReason = spec.skip
		default:
			select {
			case <-slots[i].done:
				step.Status = slots[i].status
				step.Result = slots[i].result
			case <-ctx.Done():
				// The deadline hit while this step was still pending. Take a
				// result that raced in just under the wire, otherwise skip.
				select {
				case <-slots[i].done:
					step.Status = slots[i].status
					step.Result = slots[i].result
				default:
					step.Status = models.StepSkipped
					step.SkipReason = "timeout"
				}
			}
		}
		result.Steps = append(result.Steps, step)
	}

	o.policy.Decide(result)
	result.CompletedAt = o.now()

	o.metrics.IncWorkflowOutcome(string(result.OverallStatus))
	o.metrics.ObserveRunLatency(result.CompletedAt.Sub(started))
	if o.logger != nil {
		o.logger.InfoContext(ctx, "verification run finished",
			"run_id", result.ID,
			"subject_ref", req.SubjectRef,
			"overall_status", result.OverallStatus,
			"overall_score", result.OverallScore,
			"workflow_status", result.WorkflowStatus,
		)
	}
	return result
}

// execute runs one step and records its outcome. A panic inside a source
// check is captured here and becomes an error-status step; it never takes
// down the run.
func (o *Orchestrator) execute(ctx context.Context, spec stepSpec, slot *stepSlot) {
	defer close(slot.done)
	defer func() {
		if r := recover(); r != nil {
			slot.status = models.StepError
			slot.result = &models.SourceResult{
				Source:    spec.name,
				Succeeded: false,
				ErrorKind: string(providers.KindServiceError),
				Error:     fmt.Sprintf("step panicked: %v", r),
				CheckedAt: o.now(),
			}
			if o.logger != nil {
				o.logger.ErrorContext(ctx, "verification step panicked",
					"step", spec.name,
					"panic", fmt.Sprintf("%v", r),
				)
			}
		}
	}()

	start := time.Now()
	result := spec.run(ctx)
	o.metrics.ObserveStepLatency(spec.name, time.Since(start))

	if result == nil {
		slot.status = models.StepError
		slot.result = &models.SourceResult{
			Source:    spec.name,
			Succeeded: false,
			ErrorKind: string(providers.KindServiceError),
			Error:     "step returned no result",
			CheckedAt: o.now(),
		}
		return
	}
	slot.result = result
	if result.Succeeded {
		slot.status = models.StepPassed
	} else {
		slot.status = models.StepFailed
	}
}

// plan lays out the five steps in declared order, deciding up front which are
// skipped for missing input or missing wiring.
func (o *Orchestrator) plan(req Request) []stepSpec {
	specs := make([]stepSpec, 0, 5)

	switch {
	case o.document == nil:
		specs = append(specs, stepSpec{name: models.StepDocument, skip: "document comparison not configured"})
	case req.Document == nil:
		specs = append(specs, stepSpec{name: models.StepDocument, skip: "no document provided"})
	default:
		doc := req.Document
		specs = append(specs, stepSpec{name: models.StepDocument, run: func(ctx context.Context) *models.SourceResult {
			return o.document.Compare(subjectDocumentFields(req.Subject, doc.SubjectFields), doc.Fields, doc.Type)
		}})
	}

	specs = append(specs, o.registryStep(models.StepNIN, o.nin, req.Subject.NIN, "no NIN provided", req.Subject))
	specs = append(specs, o.registryStep(models.StepLicense, o.license, req.Subject.LicenseNumber, "no license number provided", req.Subject))
	specs = append(specs, o.registryStep(models.StepBVN, o.bvn, req.Subject.BVN, "no BVN provided", req.Subject))

	switch {
	case o.referee == nil:
		specs = append(specs, stepSpec{name: models.StepReferee, skip: "referee scoring not configured"})
	case req.Referee == nil:
		specs = append(specs, stepSpec{name: models.StepReferee, skip: "no referee provided"})
	default:
		ref := *req.Referee
		specs = append(specs, stepSpec{name: models.StepReferee, run: func(ctx context.Context) *models.SourceResult {
			return o.referee.Score(ctx, ref)
		}})
	}
	return specs
}

func (o *Orchestrator) registryStep(name string, client RegistryClient, identifier, missingReason string, subject models.Subject) stepSpec {
	switch {
	case client == nil:
		return stepSpec{name: name, skip: name + " source not configured"}
	case identifier == "":
		return stepSpec{name: name, skip: missingReason}
	default:
		return stepSpec{name: name, run: func(ctx context.Context) *models.SourceResult {
			return client.Verify(ctx, identifier, subject)
		}}
	}
}

// subjectDocumentFields maps the subject onto document comparison field names
// and overlays extra driver-entered values.
func subjectDocumentFields(s models.Subject, extra map[string]string) map[string]string {
	fields := map[string]string{
		"first_name":     s.FirstName,
		"surname":        s.Surname,
		"date_of_birth":  s.DateOfBirth,
		"gender":         s.Gender,
		"nin":            s.NIN,
		"license_number": s.LicenseNumber,
	}
	for k, v := range extra {
		fields[k] = v
	}
	return fields
}
