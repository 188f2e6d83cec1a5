// Package document applies the shared similarity machinery to OCR-extracted
// document fields versus driver-entered fields. Unlike the registry clients,
// aggregation here is weight-sensitive: each document type carries its own
// field/weight/threshold table.
package document

import (
	"fmt"
	"time"

	"driveid/internal/verify/match"
	"driveid/internal/verify/models"
)

// Type tags the kind of document the OCR collaborator extracted.
type Type string

const (
	TypeNINSlip        Type = "nin_slip"
	TypeDriversLicense Type = "drivers_license"
	TypeVoterCard      Type = "voter_card"
)

// Document comparison statuses.
const (
	StatusVerified       = "verified"
	StatusPartialMatch   = "partial_match"
	StatusReviewRequired = "review_required"
	StatusFailed         = "failed"
)

// FieldRule is one row of a document type's comparison table. Critical
// fields trigger manual review on any discrepancy.
type FieldRule struct {
	Name      string
	Type      match.FieldType
	Weight    float64
	Threshold float64
	Critical  bool
}

// defaultTables holds the per-document-type comparison tables. The identity
// number always carries the heaviest weight; name fields are lighter since
// OCR mangles them more often.
func defaultTables() map[Type][]FieldRule {
	return map[Type][]FieldRule{
		TypeNINSlip: {
			{Name: "nin", Type: match.FieldIDNum, Weight: 0.40, Threshold: 1.0, Critical: true},
			{Name: "first_name", Type: match.FieldName, Weight: 0.15, Threshold: 0.8},
			{Name: "surname", Type: match.FieldName, Weight: 0.15, Threshold: 0.8},
			{Name: "date_of_birth", Type: match.FieldDate, Weight: 0.20, Threshold: 1.0, Critical: true},
			{Name: "gender", Type: match.FieldGender, Weight: 0.10, Threshold: 1.0},
		},
		TypeDriversLicense: {
			{Name: "license_number", Type: match.FieldLicense, Weight: 0.40, Threshold: 1.0, Critical: true},
			{Name: "first_name", Type: match.FieldName, Weight: 0.15, Threshold: 0.8},
			{Name: "surname", Type: match.FieldName, Weight: 0.15, Threshold: 0.8},
			{Name: "date_of_birth", Type: match.FieldDate, Weight: 0.20, Threshold: 1.0, Critical: true},
			{Name: "gender", Type: match.FieldGender, Weight: 0.10, Threshold: 1.0},
		},
		TypeVoterCard: {
			{Name: "vin", Type: match.FieldIDNum, Weight: 0.40, Threshold: 1.0, Critical: true},
			{Name: "first_name", Type: match.FieldName, Weight: 0.20, Threshold: 0.8},
			{Name: "surname", Type: match.FieldName, Weight: 0.20, Threshold: 0.8},
			{Name: "date_of_birth", Type: match.FieldDate, Weight: 0.20, Threshold: 1.0, Critical: true},
		},
	}
}

// Engine compares driver-entered fields against OCR output.
type Engine struct {
	engine *match.Engine
	tables map[Type][]FieldRule
	now    func() time.Time
}

// NewEngine builds a document comparison engine with the default tables.
func NewEngine(sim *match.Engine) *Engine {
	return &Engine{engine: sim, tables: defaultTables(), now: time.Now}
}

// Compare scores subject fields against OCR-extracted document fields for the
// given document type. The overall score is the weighted sum of per-field
// scores over the sum of weights; registry clients deliberately use an
// unweighted mean instead.
func (e *Engine) Compare(subjectFields, documentFields map[string]string, docType Type) *models.SourceResult {
	result := &models.SourceResult{
		Source:    "document:" + string(docType),
		Succeeded: true,
		CheckedAt: e.now(),
		Metadata:  map[string]string{"document_type": string(docType)},
	}

	rules, ok := e.tables[docType]
	if !ok {
		result.Succeeded = false
		result.ErrorKind = "SERVICE_ERROR"
		result.Error = fmt.Sprintf("unknown document type %q", docType)
		return result
	}

	var weightedTotal, weightSum float64
	discrepancies := 0
	criticalDiscrepancy := false

	for _, rule := range rules {
		subjectValue := subjectFields[rule.Name]
		docValue := documentFields[rule.Name]

		cmp := models.FieldComparison{
			Field:        rule.Name,
			SubjectValue: subjectValue,
			SourceValue:  docValue,
			Threshold:    rule.Threshold,
		}
		switch {
		case subjectValue == "" && docValue == "":
			cmp.Similarity = 1.0
			cmp.Matched = true
			cmp.Reason = "both empty"
		case subjectValue == "" || docValue == "":
			cmp.Similarity = 0.0
			cmp.Matched = false
			cmp.Reason = "one value missing"
		default:
			cmp.Similarity = e.engine.Similarity(subjectValue, docValue, rule.Type)
			cmp.Matched = cmp.Similarity >= rule.Threshold
		}

		result.Comparisons = append(result.Comparisons, cmp)
		weightedTotal += cmp.Similarity * rule.Weight
		weightSum += rule.Weight

		if !cmp.Matched {
			discrepancies++
			if rule.Critical {
				criticalDiscrepancy = true
			}
		}
	}

	if weightSum > 0 {
		result.MatchScore = weightedTotal / weightSum
	}

	status := classify(result.MatchScore, discrepancies)
	result.Verified = status == StatusVerified
	result.Metadata["document_status"] = status
	result.Metadata["manual_review"] = fmt.Sprintf("%t",
		requiresManualReview(result.MatchScore, discrepancies, criticalDiscrepancy))

	return result
}

func classify(score float64, discrepancies int) string {
	switch {
	case score >= 0.9 && discrepancies == 0:
		return StatusVerified
	case score >= 0.8 && discrepancies <= 1:
		return StatusPartialMatch
	case score >= 0.6:
		return StatusReviewRequired
	default:
		return StatusFailed
	}
}

// requiresManualReview is true on any of three independent triggers: a
// midrange score, a discrepancy on a critical field, or more than two
// discrepancies overall.
func requiresManualReview(score float64, discrepancies int, critical bool) bool {
	if score > 0.6 && score < 0.9 {
		return true
	}
	if critical {
		return true
	}
	return discrepancies > 2
}
