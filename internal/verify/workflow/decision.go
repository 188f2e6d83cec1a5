package workflow

import (
	"fmt"

	"driveid/internal/verify/models"
	"driveid/internal/verify/providers"
	pstrings "driveid/pkg/platform/strings"
)

// Default decision thresholds over the weighted score.
const (
	verifiedBar    = 0.85
	conditionalBar = 0.70
	reviewBar      = 0.50
)

// Policy turns assembled step results into the final decision: the weighted
// score, the overall status, and the human-readable issue and recommendation
// lists. It is pure over the steps; all configuration is data.
type Policy struct {
	// Weights are renormalized over the steps that actually ran, so a
	// skipped step takes its weight out of the denominator entirely.
	Weights map[string]float64

	VerifiedBar    float64
	ConditionalBar float64
	ReviewBar      float64
}

// DefaultPolicy returns the standard step weights and thresholds. The two
// registry checks against government records dominate; the referee is a
// tie-breaker signal only.
func DefaultPolicy() Policy {
	return Policy{
		Weights: map[string]float64{
			models.StepDocument: 0.25,
			models.StepNIN:      0.30,
			models.StepLicense:  0.30,
			models.StepBVN:      0.10,
			models.StepReferee:  0.05,
		},
		VerifiedBar:    verifiedBar,
		ConditionalBar: conditionalBar,
		ReviewBar:      reviewBar,
	}
}

// Decide computes the weighted score and final statuses onto w. Failed and
// errored steps contribute zero but keep their weight in the denominator;
// skipped steps are excluded from it. The order of w.Steps never affects the
// score.
func (p Policy) Decide(w *models.WorkflowResult) {
	var total, weightSum float64
	var ran, completed float64
	anyFailed := false
	anyError := false
	criticalFailed := false
	criticalNotFound := true

	for _, step := range w.Steps {
		weight := p.Weights[step.Name]
		switch step.Status {
		case models.StepSkipped:
			if step.SkipReason == "timeout" {
				ran++
			}
			continue
		case models.StepPassed:
			total += step.Result.MatchScore * weight
		case models.StepFailed:
			anyFailed = true
		case models.StepError:
			anyError = true
			anyFailed = true
		}
		ran++
		completed++
		weightSum += weight

		if step.Status != models.StepPassed && (step.Name == models.StepNIN || step.Name == models.StepLicense) {
			criticalFailed = true
			if step.Result == nil || step.Result.ErrorKind != string(providers.KindNotFound) {
				criticalNotFound = false
			}
		}
	}

	if weightSum > 0 {
		w.OverallScore = total / weightSum
	}
	if ran > 0 {
		w.Completion = 100 * completed / ran
	}

	w.OverallStatus = p.status(w.OverallScore, anyFailed, criticalFailed, criticalNotFound)
	if anyError {
		w.WorkflowStatus = models.WorkflowFailed
	} else {
		w.WorkflowStatus = models.WorkflowCompleted
	}

	p.annotate(w)
}

// status applies the decision ladder. A failed NIN or license step is a hard
// override: the run can never come out verified on numeric score alone.
func (p Policy) status(score float64, anyFailed, criticalFailed, criticalNotFound bool) models.OverallStatus {
	switch {
	case criticalFailed && criticalNotFound:
		return models.StatusNotFound
	case criticalFailed:
		return models.StatusFailed
	case score >= p.VerifiedBar:
		return models.StatusVerified
	case score >= p.ConditionalBar:
		// A clean run in this band is approvable with conditions; any failed
		// optional step demotes it to human review instead.
		if anyFailed {
			return models.StatusReviewRequired
		}
		return models.StatusConditionallyApproved
	case score >= p.ReviewBar:
		return models.StatusReviewRequired
	default:
		return models.StatusRejected
	}
}

// Deterministic per-step issue and next-action strings for failed steps, and
// recommendations for steps skipped over missing input.
var (
	stepIssues = map[string]string{
		models.StepDocument: "Document comparison failed - extracted document fields do not match the provided details",
		models.StepNIN:      "NIN verification failed - provided NIN does not match official records",
		models.StepLicense:  "Driver's license verification failed - license not confirmed by FRSC records",
		models.StepBVN:      "BVN verification failed - bank records do not confirm the provided BVN",
		models.StepReferee:  "Referee verification failed - the supplied reference could not be validated",
	}
	stepActions = map[string]string{
		models.StepDocument: "Request a clearer document image and re-run the comparison",
		models.StepNIN:      "Verify NIN manually or request alternative identification",
		models.StepLicense:  "Verify the license manually or request a replacement document",
		models.StepBVN:      "Request a corrected BVN or proceed without bank verification",
		models.StepReferee:  "Request an alternative referee",
	}
	stepSkipRecommendations = map[string]string{
		models.StepDocument: "Upload an identity document to add document comparison",
		models.StepNIN:      "Provide a NIN to verify against the national identity registry",
		models.StepLicense:  "Provide a driver's license number to verify against FRSC records",
		models.StepBVN:      "Provide a BVN to add bank-registry confirmation",
		models.StepReferee:  "Add a referee to strengthen the application",
	}
)

// annotate builds the issue, recommendation, and next-step lists from the
// step outcomes.
func (p Policy) annotate(w *models.WorkflowResult) {
	var issues, recommendations, nextSteps []string

	for _, step := range w.Steps {
		switch step.Status {
		case models.StepFailed:
			issues = append(issues, stepIssues[step.Name])
			nextSteps = append(nextSteps, stepActions[step.Name])
		case models.StepError:
			issues = append(issues, fmt.Sprintf("The %s check could not be completed because of an internal error", step.Name))
			nextSteps = append(nextSteps, "Retry verification; contact support if the error persists")
		case models.StepSkipped:
			if step.SkipReason == "timeout" {
				nextSteps = append(nextSteps, fmt.Sprintf("Retry verification - the %s check did not finish in time", step.Name))
				continue
			}
			recommendations = append(recommendations, stepSkipRecommendations[step.Name])
		}
	}

	if w.OverallStatus == models.StatusReviewRequired {
		nextSteps = append(nextSteps, "Route the application to manual review")
	}

	w.Issues = pstrings.DedupeAndTrim(issues)
	w.Recommendations = pstrings.DedupeAndTrim(recommendations)
	w.NextSteps = pstrings.DedupeAndTrim(nextSteps)
}
