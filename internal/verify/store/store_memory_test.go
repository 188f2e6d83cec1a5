package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"driveid/internal/verify/models"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *MemoryStore
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemoryStore()
}

func sampleRun(subjectRef string, started time.Time) *models.WorkflowResult {
	return &models.WorkflowResult{
		ID:             uuid.New(),
		SubjectRef:     subjectRef,
		OverallScore:   0.91,
		OverallStatus:  models.StatusVerified,
		WorkflowStatus: models.WorkflowCompleted,
		Completion:     100,
		Steps: []models.StepResult{
			{
				Name:   models.StepNIN,
				Status: models.StepPassed,
				Result: &models.SourceResult{Source: models.StepNIN, Succeeded: true, Verified: true, MatchScore: 0.91},
			},
		},
		Issues:    []string{"BVN verification failed - bank records do not confirm the provided BVN"},
		StartedAt: started,
	}
}

func (s *MemoryStoreSuite) TestSaveAndFind() {
	ctx := context.Background()
	run := sampleRun("driver-1", time.Now())

	s.Require().NoError(s.store.Save(ctx, run))

	found, err := s.store.Find(ctx, run.ID)
	s.Require().NoError(err)
	s.Equal(run.ID, found.ID)
	s.Equal(models.StatusVerified, found.OverallStatus)
	s.Len(found.Steps, 1)
}

func (s *MemoryStoreSuite) TestFindMissing() {
	_, err := s.store.Find(context.Background(), uuid.New())
	s.ErrorIs(err, ErrNotFound)
}

func (s *MemoryStoreSuite) TestStoredCopyIsIsolated() {
	ctx := context.Background()
	run := sampleRun("driver-1", time.Now())
	s.Require().NoError(s.store.Save(ctx, run))

	run.Issues[0] = "mutated after save"

	found, err := s.store.Find(ctx, run.ID)
	s.Require().NoError(err)
	s.NotEqual("mutated after save", found.Issues[0])

	found.Issues[0] = "mutated after find"
	again, err := s.store.Find(ctx, run.ID)
	s.Require().NoError(err)
	s.NotEqual("mutated after find", again.Issues[0])
}

func (s *MemoryStoreSuite) TestListBySubjectNewestFirst() {
	ctx := context.Background()
	base := time.Now()
	older := sampleRun("driver-1", base.Add(-time.Hour))
	newer := sampleRun("driver-1", base)
	other := sampleRun("driver-2", base)

	s.Require().NoError(s.store.Save(ctx, older))
	s.Require().NoError(s.store.Save(ctx, newer))
	s.Require().NoError(s.store.Save(ctx, other))

	runs, err := s.store.ListBySubject(ctx, "driver-1", 10)
	s.Require().NoError(err)
	s.Require().Len(runs, 2)
	s.Equal(newer.ID, runs[0].ID)
	s.Equal(older.ID, runs[1].ID)

	limited, err := s.store.ListBySubject(ctx, "driver-1", 1)
	s.Require().NoError(err)
	s.Len(limited, 1)
}

func TestMemoryDirectoryCountsDistinctSubjects(t *testing.T) {
	ctx := context.Background()
	dir := NewMemoryDirectory()

	for _, ref := range []string{"driver-1", "driver-2", "driver-3"} {
		if err := dir.Record(ctx, "2348031234567", "12345678901", ref); err != nil {
			t.Fatalf("record referee: %v", err)
		}
	}
	// Same subject again must not inflate the count.
	if err := dir.Record(ctx, "2348031234567", "", "driver-1"); err != nil {
		t.Fatalf("record referee: %v", err)
	}

	count, err := dir.CountSubjects(ctx, "2348031234567", "")
	if err != nil {
		t.Fatalf("count subjects: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 subjects, got %d", count)
	}

	// Either contact alone reaches the same records.
	count, err = dir.CountSubjects(ctx, "", "12345678901")
	if err != nil {
		t.Fatalf("count subjects: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 subjects via national ID, got %d", count)
	}

	count, err = dir.CountSubjects(ctx, "", "")
	if err != nil {
		t.Fatalf("count subjects: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 subjects for empty contacts, got %d", count)
	}
}
