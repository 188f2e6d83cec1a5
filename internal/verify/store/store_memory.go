package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"driveid/internal/verify/models"
)

// MemoryStore keeps verification runs in memory. Used in tests and
// single-node development setups.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]models.WorkflowResult
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[uuid.UUID]models.WorkflowResult)}
}

func (s *MemoryStore) Save(_ context.Context, run *models.WorkflowResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = copyRun(run)
	return nil
}

func (s *MemoryStore) Find(_ context.Context, id uuid.UUID) (*models.WorkflowResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := copyRun(&run)
	return &out, nil
}

func (s *MemoryStore) ListBySubject(_ context.Context, subjectRef string, limit int) ([]*models.WorkflowResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.WorkflowResult
	for id := range s.runs {
		run := s.runs[id]
		if run.SubjectRef != subjectRef {
			continue
		}
		c := copyRun(&run)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// copyRun duplicates the run and its slices so callers cannot mutate stored
// state through a returned pointer.
func copyRun(run *models.WorkflowResult) models.WorkflowResult {
	out := *run
	out.Steps = append([]models.StepResult(nil), run.Steps...)
	out.Issues = append([]string(nil), run.Issues...)
	out.Recommendations = append([]string(nil), run.Recommendations...)
	out.NextSteps = append([]string(nil), run.NextSteps...)
	return out
}

// MemoryDirectory is the in-memory referee directory.
type MemoryDirectory struct {
	mu       sync.RWMutex
	subjects map[string]map[string]struct{} // contact -> subject refs
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{subjects: make(map[string]map[string]struct{})}
}

// Record remembers that the referee identified by phone/nationalID vouched
// for subjectRef.
func (d *MemoryDirectory) Record(_ context.Context, phone, nationalID, subjectRef string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, contact := range []string{phone, nationalID} {
		if contact == "" {
			continue
		}
		if d.subjects[contact] == nil {
			d.subjects[contact] = make(map[string]struct{})
		}
		d.subjects[contact][subjectRef] = struct{}{}
	}
	return nil
}

// CountSubjects returns how many distinct subjects have listed a referee
// with this phone or national ID.
func (d *MemoryDirectory) CountSubjects(_ context.Context, phone, nationalID string) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, contact := range []string{phone, nationalID} {
		if contact == "" {
			continue
		}
		for ref := range d.subjects[contact] {
			seen[ref] = struct{}{}
		}
	}
	return len(seen), nil
}
