package match

// Thresholds maps a field type to the minimum similarity required to call the
// field matched. Independent of any scoring weights.
type Thresholds map[FieldType]float64

// defaultThreshold applies to field types without an explicit entry.
const defaultThreshold = 0.8

// DefaultThresholds returns the standard table: unique identifiers and
// calendar facts require exact matches, names tolerate fuzz, phones tolerate
// minor formatting drift.
func DefaultThresholds() Thresholds {
	return Thresholds{
		FieldIDNum:   1.0,
		FieldLicense: 1.0,
		FieldEmail:   1.0,
		FieldDate:    1.0,
		FieldGender:  1.0,
		FieldName:    0.8,
		FieldPhone:   0.9,
	}
}

// Threshold returns the minimum similarity for the field type.
func (t Thresholds) Threshold(ft FieldType) float64 {
	if v, ok := t[ft]; ok {
		return v
	}
	return defaultThreshold
}
