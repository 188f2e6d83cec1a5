// Package referee scores a non-institutional verification source: human
// references supplied by the driver. There is no external registry call;
// credibility comes from a rubric over the self-reported reference data plus
// a cross-subject reuse check against previously recorded referees.
package referee

//go:generate mockgen -source=referee.go -destination=mocks/mocks.go -package=mocks Directory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"

	"driveid/internal/verify/match"
	"driveid/internal/verify/models"
	"driveid/internal/verify/providers"
)

// Reference is the self-reported referee record for one subject.
type Reference struct {
	FullName          string `json:"full_name"`
	Occupation        string `json:"occupation"`
	Organization      string `json:"organization,omitempty"`
	Relationship      string `json:"relationship"`
	RelationshipYears int    `json:"relationship_years"`
	NationalID        string `json:"national_id,omitempty"`
	Email             string `json:"email,omitempty"`
	Phone             string `json:"phone,omitempty"`
}

// Directory looks up prior referee records across subjects. Used for the
// reuse fraud signal; backed by the persistence collaborator outside the
// engine.
type Directory interface {
	// CountSubjects returns how many distinct subjects have listed a
	// referee with this phone or national ID.
	CountSubjects(ctx context.Context, phone, nationalID string) (int, error)
}

// maxReuseCount is the number of distinct subjects a referee's phone/ID may
// appear for before the referee is flagged as suspicious. Fixed policy with
// no decay or legitimate-reuse allowance (an HR officer referencing many
// drivers trips it); revisit if that proves too blunt.
const maxReuseCount = 5

// credibilityBar is the minimum rubric score for a referee to count as a
// verifying source.
const credibilityBar = 0.6

// rubricMax is the fixed point budget the rubric is normalized against.
const rubricMax = 10.0

// professionalOccupations qualify for the occupation bonus.
var professionalOccupations = map[string]struct{}{
	"doctor": {}, "lawyer": {}, "engineer": {}, "accountant": {},
	"teacher": {}, "lecturer": {}, "nurse": {}, "banker": {},
	"civil servant": {}, "pharmacist": {}, "architect": {},
}

// professionalRelationships qualify for the relationship-category bonus.
var professionalRelationships = map[string]struct{}{
	"employer": {}, "supervisor": {}, "manager": {}, "colleague": {},
}

// Scorer computes referee credibility. It satisfies the same result contract
// as the registry clients so the orchestrator treats it uniformly.
type Scorer struct {
	norm      *match.Normalizer
	directory Directory
	now       func() time.Time
}

// NewScorer builds a Scorer. directory may be nil, disabling the reuse check.
func NewScorer(norm *match.Normalizer, directory Directory) *Scorer {
	return &Scorer{norm: norm, directory: directory, now: time.Now}
}

// Score evaluates the reference and returns it as a source result. The
// credibility rubric awards points out of a fixed budget of ten:
// professional occupation 2, organization 1, relationship of two or more
// years 2 (one year 1), national ID 1, valid email 1, valid phone 1,
// professional relationship category 2.
func (s *Scorer) Score(ctx context.Context, ref Reference) *models.SourceResult {
	result := &models.SourceResult{
		Source:    models.StepReferee,
		Succeeded: true,
		CheckedAt: s.now(),
		Metadata:  map[string]string{},
	}

	if s.directory != nil && (ref.Phone != "" || ref.NationalID != "") {
		phone := s.norm.NormalizePhone(ref.Phone)
		count, err := s.directory.CountSubjects(ctx, phone, ref.NationalID)
		if err != nil {
			result.Succeeded = false
			result.Verified = false
			result.ErrorKind = string(providers.KindServiceError)
			result.Error = fmt.Sprintf("referee reuse lookup failed: %v", err)
			return result
		}
		result.Metadata["reuse_count"] = fmt.Sprintf("%d", count)
		if count > maxReuseCount {
			// Cross-subject fraud signal: same referee vouching for many
			// unrelated subjects. Auto-disqualifying.
			result.Verified = false
			result.MatchScore = 0
			result.Metadata["suspicious"] = "true"
			result.Error = "referee contact reused across too many subjects"
			return result
		}
	}

	points := s.rubricPoints(ref, result.Metadata)
	result.MatchScore = points / rubricMax
	result.Verified = result.MatchScore >= credibilityBar
	result.Metadata["credibility_points"] = fmt.Sprintf("%.0f", points)
	return result
}

func (s *Scorer) rubricPoints(ref Reference, meta map[string]string) float64 {
	points := 0.0

	if _, ok := professionalOccupations[strings.ToLower(strings.TrimSpace(ref.Occupation))]; ok {
		points += 2
		meta["professional_occupation"] = "true"
	}
	if strings.TrimSpace(ref.Organization) != "" {
		points += 1
	}
	switch {
	case ref.RelationshipYears >= 2:
		points += 2
	case ref.RelationshipYears >= 1:
		points += 1
	}
	if strings.TrimSpace(ref.NationalID) != "" {
		points += 1
	}
	if ref.Email != "" && govalidator.IsEmail(ref.Email) {
		points += 1
	}
	if s.validPhone(ref.Phone) {
		points += 1
	}
	if _, ok := professionalRelationships[strings.ToLower(strings.TrimSpace(ref.Relationship))]; ok {
		points += 2
		meta["professional_relationship"] = "true"
	}
	return points
}

// validPhone accepts a number that normalizes to country-code form.
func (s *Scorer) validPhone(phone string) bool {
	if phone == "" {
		return false
	}
	normalized := s.norm.NormalizePhone(phone)
	return govalidator.IsNumeric(normalized) && len(normalized) == 13
}
