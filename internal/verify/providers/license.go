package providers

import (
	"encoding/json"
	"regexp"
	"time"

	"driveid/internal/verify/match"
	"driveid/internal/verify/models"
)

// licensePattern: FRSC driver's-license numbers are three letters followed by
// alphanumerics, 8-12 characters total after normalization.
var licensePattern = regexp.MustCompile(`^[A-Z]{3}[A-Z0-9]{5,9}$`)

// licenseEnvelopeResponse is the current FRSC gateway shape.
type licenseEnvelopeResponse struct {
	License struct {
		LicenseNo    string `json:"license_no"`
		FirstName    string `json:"first_name"`
		LastName     string `json:"last_name"`
		DateOfBirth  string `json:"date_of_birth"`
		Gender       string `json:"gender"`
		IssuedDate   string `json:"issued_date"`
		ExpiryDate   string `json:"expiry_date"`
		StateOfIssue string `json:"state_of_issue"`
		Status       string `json:"status"`
	} `json:"license"`
}

// licenseFlatResponse is the legacy camelCase shape.
type licenseFlatResponse struct {
	LicenseNo   string `json:"licenseNo"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DateOfBirth string `json:"dateOfBirth"`
	Gender      string `json:"gender"`
	ExpiryDate  string `json:"expiryDate"`
	Suspended   bool   `json:"suspended"`
}

// LicenseSource builds the license-authority source configuration. License
// validity changes with every renewal cycle, so the cache TTL is short and
// the inactive penalty is the harshest of the registry sources.
func LicenseSource(endpoints []Endpoint, timeout time.Duration, retries int, cacheTTL time.Duration) SourceConfig {
	return SourceConfig{
		Name:          models.StepLicense,
		Pattern:       licensePattern,
		IdentifierTyp: match.FieldLicense,
		Endpoints:     endpoints,
		Timeout:       timeout,
		RetryAttempts: retries,
		CacheTTL:      cacheTTL,
		Penalty:       0.4,
		Fields: []FieldMapping{
			{Name: "license_number", Type: match.FieldLicense, Subject: func(s models.Subject) string { return s.LicenseNumber }},
			{Name: "first_name", Type: match.FieldName, Subject: func(s models.Subject) string { return s.FirstName }},
			{Name: "surname", Type: match.FieldName, Subject: func(s models.Subject) string { return s.Surname }},
			{Name: "date_of_birth", Type: match.FieldDate, Subject: func(s models.Subject) string { return s.DateOfBirth }},
			{Name: "gender", Type: match.FieldGender, Subject: func(s models.Subject) string { return s.Gender }},
		},
		Decode: decodeLicense,
	}
}

func decodeLicense(body []byte) (Record, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return Record{}, err
	}

	if _, ok := probe["license"]; ok {
		var resp licenseEnvelopeResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return Record{}, err
		}
		if resp.License.LicenseNo == "" {
			return Record{}, errNoShapeMatched
		}
		status := recordStatusFromString(resp.License.Status)
		if status == StatusActive && licenseExpired(resp.License.ExpiryDate) {
			status = StatusInactive
		}
		return Record{
			Fields: map[string]string{
				"license_number": resp.License.LicenseNo,
				"first_name":     resp.License.FirstName,
				"surname":        resp.License.LastName,
				"date_of_birth":  resp.License.DateOfBirth,
				"gender":         resp.License.Gender,
				"expiry_date":    resp.License.ExpiryDate,
				"state_of_issue": resp.License.StateOfIssue,
			},
			Status: status,
		}, nil
	}

	if _, ok := probe["licenseNo"]; ok {
		var resp licenseFlatResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return Record{}, err
		}
		if resp.LicenseNo == "" {
			return Record{}, errNoShapeMatched
		}
		status := StatusActive
		if resp.Suspended {
			status = StatusSuspended
		} else if licenseExpired(resp.ExpiryDate) {
			status = StatusInactive
		}
		return Record{
			Fields: map[string]string{
				"license_number": resp.LicenseNo,
				"first_name":     resp.FirstName,
				"surname":        resp.LastName,
				"date_of_birth":  resp.DateOfBirth,
				"gender":         resp.Gender,
				"expiry_date":    resp.ExpiryDate,
			},
			Status: status,
		}, nil
	}

	return Record{}, errNoShapeMatched
}

func licenseExpired(expiry string) bool {
	if expiry == "" {
		return false
	}
	t, err := time.Parse("2006-01-02", expiry)
	if err != nil {
		return false
	}
	return t.Before(time.Now())
}
