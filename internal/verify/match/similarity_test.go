package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestEngine() *Engine {
	return NewEngine(NewNormalizer(DefaultPhonePlan()))
}

func TestSimilarityIdentity(t *testing.T) {
	e := newTestEngine()

	// similarity(x, x) is 1.0 for every field type.
	for _, ft := range []FieldType{
		FieldName, FieldDate, FieldGender, FieldPhone,
		FieldIDNum, FieldLicense, FieldEmail, FieldGeneric,
	} {
		assert.Equal(t, 1.0, e.Similarity("Value 42", "Value 42", ft), string(ft))
	}
}

func TestSimilarityIdentifiersAreBinary(t *testing.T) {
	e := newTestEngine()

	tests := []struct {
		ft   FieldType
		a, b string
	}{
		{FieldIDNum, "12345678901", "12345678902"},
		{FieldLicense, "ABC123", "ABC124"},
		{FieldEmail, "a@example.com", "b@example.com"},
	}
	for _, tt := range tests {
		got := e.Similarity(tt.a, tt.b, tt.ft)
		assert.Contains(t, []float64{0.0, 1.0}, got, string(tt.ft))
		assert.Equal(t, 0.0, got)
	}

	// Formatting drift still hits the exact-match fast path post-normalization.
	assert.Equal(t, 1.0, e.Similarity("123-456-78901", "12345678901", FieldIDNum))
}

func TestSimilarityDates(t *testing.T) {
	e := newTestEngine()

	t.Run("format noise normalizes away", func(t *testing.T) {
		assert.Equal(t, 1.0, e.Similarity("1990-01-01", "01/01/1990", FieldDate))
	})

	t.Run("different dates score zero", func(t *testing.T) {
		assert.Equal(t, 0.0, e.Similarity("1990-01-01", "1990-01-02", FieldDate))
	})

	t.Run("unparseable side falls back to string similarity", func(t *testing.T) {
		got := e.Similarity("1990.01.01", "1990-01-01", FieldDate)
		assert.Greater(t, got, 0.5)
		assert.Less(t, got, 1.0)
	})
}

func TestSimilarityNames(t *testing.T) {
	e := newTestEngine()

	t.Run("minor typo stays above threshold", func(t *testing.T) {
		got := e.Similarity("John", "Jon", FieldName)
		assert.InDelta(t, 0.8, got, 0.06)
	})

	t.Run("unrelated names score low", func(t *testing.T) {
		got := e.Similarity("John", "Ngozi", FieldName)
		assert.Less(t, got, 0.5)
	})

	t.Run("token order does not matter for full names", func(t *testing.T) {
		got := e.Similarity("Adewale Musa Bello", "Bello Adewale Musa", FieldName)
		assert.Equal(t, 1.0, got)
	})

	t.Run("shared surname scores midrange", func(t *testing.T) {
		got := e.Similarity("Adewale Bello", "Adewale Okafor", FieldName)
		assert.Greater(t, got, 0.5)
		assert.Less(t, got, 0.8)
	})
}

func TestSimilarityPhones(t *testing.T) {
	e := newTestEngine()

	t.Run("trunk and country code forms match", func(t *testing.T) {
		assert.Equal(t, 1.0, e.Similarity("08031234567", "+2348031234567", FieldPhone))
	})

	t.Run("different subscriber numbers do not", func(t *testing.T) {
		assert.Equal(t, 0.0, e.Similarity("08031234567", "08031234568", FieldPhone))
	})
}

func TestSimilarityGeneric(t *testing.T) {
	e := newTestEngine()

	got := e.Similarity("12 Marina Road", "12 Marina Rd", FieldGeneric)
	assert.Greater(t, got, 0.7)
	assert.Less(t, got, 1.0)
}

func TestThresholds(t *testing.T) {
	th := DefaultThresholds()

	assert.Equal(t, 1.0, th.Threshold(FieldIDNum))
	assert.Equal(t, 1.0, th.Threshold(FieldDate))
	assert.Equal(t, 1.0, th.Threshold(FieldGender))
	assert.Equal(t, 0.8, th.Threshold(FieldName))
	assert.Equal(t, 0.9, th.Threshold(FieldPhone))
	assert.Equal(t, 0.8, th.Threshold(FieldGeneric))

	th[FieldName] = 0.9
	assert.Equal(t, 0.9, th.Threshold(FieldName), "deployment override")
}

func TestSoundex(t *testing.T) {
	assert.Equal(t, soundex("john"), soundex("jon"))
	assert.Equal(t, "R163", soundex("Robert"))
	assert.Equal(t, "R163", soundex("Rupert"))
	assert.NotEqual(t, soundex("john"), soundex("ngozi"))
}
