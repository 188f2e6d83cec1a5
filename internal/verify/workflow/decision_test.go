package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driveid/internal/verify/models"
	"driveid/internal/verify/providers"
)

func passedStep(name string, score float64) models.StepResult {
	return models.StepResult{
		Name:   name,
		Status: models.StepPassed,
		Result: &models.SourceResult{Source: name, Succeeded: true, Verified: true, MatchScore: score},
	}
}

func failedStep(name string, kind providers.ErrorKind) models.StepResult {
	return models.StepResult{
		Name:   name,
		Status: models.StepFailed,
		Result: &models.SourceResult{Source: name, Succeeded: false, ErrorKind: string(kind)},
	}
}

func skippedStep(name, reason string) models.StepResult {
	return models.StepResult{Name: name, Status: models.StepSkipped, SkipReason: reason}
}

func decide(steps ...models.StepResult) *models.WorkflowResult {
	w := &models.WorkflowResult{Steps: steps}
	DefaultPolicy().Decide(w)
	return w
}

func TestDecideAllPassed(t *testing.T) {
	w := decide(
		passedStep(models.StepDocument, 1.0),
		passedStep(models.StepNIN, 1.0),
		passedStep(models.StepLicense, 1.0),
		passedStep(models.StepBVN, 1.0),
		passedStep(models.StepReferee, 1.0),
	)

	assert.InDelta(t, 1.0, w.OverallScore, 1e-9)
	assert.Equal(t, models.StatusVerified, w.OverallStatus)
	assert.Equal(t, models.WorkflowCompleted, w.WorkflowStatus)
	assert.InDelta(t, 100.0, w.Completion, 1e-9)
	assert.Empty(t, w.Issues)
}

func TestDecideScoreIsOrderInvariant(t *testing.T) {
	forward := decide(
		passedStep(models.StepDocument, 0.9),
		passedStep(models.StepNIN, 0.7),
		failedStep(models.StepBVN, providers.KindAPIFailure),
		passedStep(models.StepLicense, 0.8),
	)
	reversed := decide(
		passedStep(models.StepLicense, 0.8),
		failedStep(models.StepBVN, providers.KindAPIFailure),
		passedStep(models.StepNIN, 0.7),
		passedStep(models.StepDocument, 0.9),
	)

	assert.InDelta(t, forward.OverallScore, reversed.OverallScore, 1e-9)
	assert.Equal(t, forward.OverallStatus, reversed.OverallStatus)
}

func TestDecideSkippedStepLeavesDenominator(t *testing.T) {
	withSkip := decide(
		passedStep(models.StepDocument, 0.9),
		passedStep(models.StepNIN, 0.9),
		passedStep(models.StepLicense, 0.9),
		skippedStep(models.StepBVN, "no BVN provided"),
	)
	withoutStep := decide(
		passedStep(models.StepDocument, 0.9),
		passedStep(models.StepNIN, 0.9),
		passedStep(models.StepLicense, 0.9),
	)

	assert.InDelta(t, withSkip.OverallScore, withoutStep.OverallScore, 1e-9)
	assert.InDelta(t, 0.9, withSkip.OverallScore, 1e-9)
}

func TestDecideWeightedMean(t *testing.T) {
	w := decide(
		passedStep(models.StepDocument, 0.8),
		passedStep(models.StepNIN, 1.0),
		passedStep(models.StepLicense, 1.0),
		failedStep(models.StepBVN, providers.KindAPIFailure),
		skippedStep(models.StepReferee, "no referee provided"),
	)

	// (0.25*0.8 + 0.30 + 0.30 + 0.10*0) / 0.95
	assert.InDelta(t, 0.8/0.95, w.OverallScore, 1e-9)
	assert.Equal(t, models.StatusReviewRequired, w.OverallStatus)
}

func TestDecideCriticalFailureOverridesScore(t *testing.T) {
	w := decide(
		passedStep(models.StepDocument, 1.0),
		failedStep(models.StepNIN, providers.KindAPIFailure),
		passedStep(models.StepLicense, 1.0),
		passedStep(models.StepBVN, 1.0),
		passedStep(models.StepReferee, 1.0),
	)

	assert.Equal(t, models.StatusFailed, w.OverallStatus)
	assert.Contains(t, w.Issues, "NIN verification failed - provided NIN does not match official records")
	assert.Contains(t, w.NextSteps, "Verify NIN manually or request alternative identification")
}

func TestDecideCriticalNotFound(t *testing.T) {
	w := decide(
		passedStep(models.StepDocument, 1.0),
		failedStep(models.StepNIN, providers.KindNotFound),
		skippedStep(models.StepLicense, "no license number provided"),
	)

	assert.Equal(t, models.StatusNotFound, w.OverallStatus)
}

func TestDecideConditionalBandDemotedByFailure(t *testing.T) {
	// Score in [0.70, 0.85): a clean run is conditionally approved, a run
	// with a failed optional step goes to review instead.
	clean := decide(
		passedStep(models.StepDocument, 0.72),
		passedStep(models.StepNIN, 0.72),
		passedStep(models.StepLicense, 0.72),
		passedStep(models.StepBVN, 0.72),
	)
	require.InDelta(t, 0.72, clean.OverallScore, 1e-9)
	assert.Equal(t, models.StatusConditionallyApproved, clean.OverallStatus)

	demoted := decide(
		passedStep(models.StepDocument, 0.8),
		passedStep(models.StepNIN, 0.8),
		passedStep(models.StepLicense, 0.8),
		failedStep(models.StepBVN, providers.KindAPIFailure),
	)
	require.Greater(t, demoted.OverallScore, 0.70)
	require.Less(t, demoted.OverallScore, 0.85)
	assert.Equal(t, models.StatusReviewRequired, demoted.OverallStatus)
}

func TestDecideLowScoreRejected(t *testing.T) {
	w := decide(
		passedStep(models.StepDocument, 0.2),
		passedStep(models.StepNIN, 0.3),
		passedStep(models.StepLicense, 0.4),
	)

	assert.Less(t, w.OverallScore, 0.50)
	assert.Equal(t, models.StatusRejected, w.OverallStatus)
}

func TestDecideErrorStepFailsWorkflow(t *testing.T) {
	w := decide(
		passedStep(models.StepDocument, 1.0),
		passedStep(models.StepNIN, 1.0),
		models.StepResult{
			Name:   models.StepBVN,
			Status: models.StepError,
			Result: &models.SourceResult{Source: models.StepBVN, Succeeded: false, Error: "step panicked: boom"},
		},
	)

	assert.Equal(t, models.WorkflowFailed, w.WorkflowStatus)
	assert.Contains(t, w.Issues, "The bvn check could not be completed because of an internal error")
}

func TestDecideSkipRecommendationsAndTimeouts(t *testing.T) {
	w := decide(
		passedStep(models.StepNIN, 0.9),
		skippedStep(models.StepBVN, "no BVN provided"),
		skippedStep(models.StepLicense, "timeout"),
	)

	assert.Contains(t, w.Recommendations, "Provide a BVN to add bank-registry confirmation")
	assert.Contains(t, w.NextSteps, "Retry verification - the license check did not finish in time")
	// One of two applicable steps finished before the deadline.
	assert.InDelta(t, 50.0, w.Completion, 1e-9)
}
