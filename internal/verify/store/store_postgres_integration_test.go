//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"driveid/internal/verify/models"
	"driveid/internal/verify/store"
	"driveid/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres  *containers.PostgresContainer
	store     *store.PostgresStore
	directory *store.PostgresDirectory
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgresStore(s.postgres.DB)
	s.directory = store.NewPostgresDirectory(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "verification_runs", "referee_records")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) sampleRun(subjectRef string, started time.Time) *models.WorkflowResult {
	return &models.WorkflowResult{
		ID:             uuid.New(),
		SubjectRef:     subjectRef,
		OverallScore:   0.87,
		OverallStatus:  models.StatusVerified,
		WorkflowStatus: models.WorkflowCompleted,
		Completion:     100,
		Steps: []models.StepResult{
			{
				Name:   models.StepNIN,
				Status: models.StepPassed,
				Result: &models.SourceResult{
					Source:     models.StepNIN,
					Succeeded:  true,
					Verified:   true,
					MatchScore: 0.87,
					Metadata:   map[string]string{"endpoint": "primary"},
					CheckedAt:  started.UTC(),
				},
			},
			{Name: models.StepBVN, Status: models.StepSkipped, SkipReason: "no BVN provided"},
		},
		Issues:          []string{},
		Recommendations: []string{"Provide a BVN to add bank-registry confirmation"},
		NextSteps:       []string{},
		StartedAt:       started.UTC(),
		CompletedAt:     started.Add(2 * time.Second).UTC(),
	}
}

func (s *PostgresStoreSuite) TestSaveAndFindRoundTrip() {
	ctx := context.Background()
	run := s.sampleRun("driver-1", time.Now())

	s.Require().NoError(s.store.Save(ctx, run))

	found, err := s.store.Find(ctx, run.ID)
	s.Require().NoError(err)
	s.Equal(run.ID, found.ID)
	s.Equal(run.SubjectRef, found.SubjectRef)
	s.Equal(models.StatusVerified, found.OverallStatus)
	s.Equal(models.WorkflowCompleted, found.WorkflowStatus)
	s.InDelta(run.OverallScore, found.OverallScore, 1e-9)
	s.Require().Len(found.Steps, 2)
	s.Equal(models.StepPassed, found.Steps[0].Status)
	s.Equal("primary", found.Steps[0].Result.Metadata["endpoint"])
	s.Equal("no BVN provided", found.Steps[1].SkipReason)
	s.Equal(run.Recommendations, found.Recommendations)
}

func (s *PostgresStoreSuite) TestFindMissing() {
	_, err := s.store.Find(context.Background(), uuid.New())
	s.ErrorIs(err, store.ErrNotFound)
}

func (s *PostgresStoreSuite) TestSaveIsIdempotentPerRun() {
	ctx := context.Background()
	run := s.sampleRun("driver-1", time.Now())

	s.Require().NoError(s.store.Save(ctx, run))

	run.OverallStatus = models.StatusReviewRequired
	run.Issues = []string{"manual review requested"}
	s.Require().NoError(s.store.Save(ctx, run))

	found, err := s.store.Find(ctx, run.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusReviewRequired, found.OverallStatus)
	s.Equal([]string{"manual review requested"}, found.Issues)

	runs, err := s.store.ListBySubject(ctx, "driver-1", 10)
	s.Require().NoError(err)
	s.Len(runs, 1)
}

func (s *PostgresStoreSuite) TestListBySubjectNewestFirst() {
	ctx := context.Background()
	base := time.Now()
	older := s.sampleRun("driver-1", base.Add(-time.Hour))
	newer := s.sampleRun("driver-1", base)
	other := s.sampleRun("driver-2", base)

	s.Require().NoError(s.store.Save(ctx, older))
	s.Require().NoError(s.store.Save(ctx, newer))
	s.Require().NoError(s.store.Save(ctx, other))

	runs, err := s.store.ListBySubject(ctx, "driver-1", 10)
	s.Require().NoError(err)
	s.Require().Len(runs, 2)
	s.Equal(newer.ID, runs[0].ID)
	s.Equal(older.ID, runs[1].ID)
}

func (s *PostgresStoreSuite) TestDirectoryCountsDistinctSubjects() {
	ctx := context.Background()

	for _, ref := range []string{"driver-1", "driver-2", "driver-3"} {
		s.Require().NoError(s.directory.Record(ctx, "2348031234567", "12345678901", ref))
	}
	s.Require().NoError(s.directory.Record(ctx, "2348031234567", "", "driver-1"))

	count, err := s.directory.CountSubjects(ctx, "2348031234567", "")
	s.Require().NoError(err)
	s.Equal(3, count)

	count, err = s.directory.CountSubjects(ctx, "", "12345678901")
	s.Require().NoError(err)
	s.Equal(3, count)

	count, err = s.directory.CountSubjects(ctx, "", "")
	s.Require().NoError(err)
	s.Equal(0, count)
}
