package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driveid/internal/verify/match"
	"driveid/internal/verify/models"
)

func newTestEngine() *Engine {
	norm := match.NewNormalizer(match.DefaultPhonePlan())
	return NewEngine(match.NewEngine(norm))
}

func comparison(t *testing.T, result *models.SourceResult, field string) models.FieldComparison {
	t.Helper()
	for _, c := range result.Comparisons {
		if c.Field == field {
			return c
		}
	}
	t.Fatalf("no comparison for field %s", field)
	return models.FieldComparison{}
}

func TestCompareCleanDocument(t *testing.T) {
	e := newTestEngine()

	subject := map[string]string{
		"nin":           "12345678901",
		"first_name":    "Amina",
		"surname":       "Yusuf",
		"date_of_birth": "1992-03-04",
		"gender":        "female",
	}
	ocr := map[string]string{
		"nin":           "12345678901",
		"first_name":    "AMINA",
		"surname":       "Yusuf",
		"date_of_birth": "04/03/1992",
		"gender":        "F",
	}

	result := e.Compare(subject, ocr, TypeNINSlip)

	require.True(t, result.Succeeded)
	assert.True(t, result.Verified)
	assert.Equal(t, StatusVerified, result.Metadata["document_status"])
	assert.Equal(t, "false", result.Metadata["manual_review"])
	assert.InDelta(t, 1.0, result.MatchScore, 0.001)
	assert.Empty(t, result.Discrepancies())
}

func TestCompareEmptyFieldRules(t *testing.T) {
	e := newTestEngine()

	subject := map[string]string{
		"nin":           "12345678901",
		"first_name":    "Amina",
		"surname":       "Yusuf",
		"date_of_birth": "1992-03-04",
	}
	ocr := map[string]string{
		"nin":           "12345678901",
		"first_name":    "Amina",
		"surname":       "",
		"date_of_birth": "1992-03-04",
	}

	result := e.Compare(subject, ocr, TypeNINSlip)

	t.Run("both empty counts as match", func(t *testing.T) {
		g := comparison(t, result, "gender")
		assert.Equal(t, 1.0, g.Similarity)
		assert.True(t, g.Matched)
		assert.Equal(t, "both empty", g.Reason)
	})

	t.Run("one side missing is an automatic non-match", func(t *testing.T) {
		s := comparison(t, result, "surname")
		assert.Equal(t, 0.0, s.Similarity)
		assert.False(t, s.Matched)
		assert.Equal(t, "one value missing", s.Reason)
	})
}

func TestCompareWeightedScore(t *testing.T) {
	e := newTestEngine()

	// Only the ID number mismatches. Weighted: (0*0.4 + 1*0.6) / 1.0 = 0.6,
	// where an unweighted mean would give 0.8.
	subject := map[string]string{
		"nin":           "12345678901",
		"first_name":    "Amina",
		"surname":       "Yusuf",
		"date_of_birth": "1992-03-04",
		"gender":        "female",
	}
	ocr := map[string]string{
		"nin":           "10987654321",
		"first_name":    "Amina",
		"surname":       "Yusuf",
		"date_of_birth": "1992-03-04",
		"gender":        "female",
	}

	result := e.Compare(subject, ocr, TypeNINSlip)

	assert.InDelta(t, 0.6, result.MatchScore, 0.001)
	assert.False(t, result.Verified)
	assert.Equal(t, StatusReviewRequired, result.Metadata["document_status"])
	// Critical-field discrepancy forces manual review regardless of score.
	assert.Equal(t, "true", result.Metadata["manual_review"])
}

func TestCompareStatusLadder(t *testing.T) {
	tests := []struct {
		name          string
		score         float64
		discrepancies int
		want          string
	}{
		{"high score, clean", 0.95, 0, StatusVerified},
		{"high score with discrepancy", 0.92, 1, StatusPartialMatch},
		{"partial", 0.85, 1, StatusPartialMatch},
		{"partial with many discrepancies", 0.85, 2, StatusReviewRequired},
		{"review band", 0.7, 1, StatusReviewRequired},
		{"below floor", 0.5, 3, StatusFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.score, tt.discrepancies))
		})
	}
}

func TestRequiresManualReviewTriggers(t *testing.T) {
	t.Run("midrange score alone", func(t *testing.T) {
		assert.True(t, requiresManualReview(0.75, 0, false))
	})
	t.Run("boundary scores do not trigger on score alone", func(t *testing.T) {
		assert.False(t, requiresManualReview(0.9, 0, false))
		assert.False(t, requiresManualReview(0.6, 0, false))
	})
	t.Run("critical discrepancy alone", func(t *testing.T) {
		assert.True(t, requiresManualReview(0.95, 1, true))
	})
	t.Run("more than two discrepancies alone", func(t *testing.T) {
		assert.True(t, requiresManualReview(0.95, 3, false))
	})
	t.Run("clean high score", func(t *testing.T) {
		assert.False(t, requiresManualReview(0.95, 0, false))
	})
}

func TestCompareUnknownDocumentType(t *testing.T) {
	e := newTestEngine()
	result := e.Compare(nil, nil, Type("passport"))
	assert.False(t, result.Succeeded)
	assert.False(t, result.Verified)
}
