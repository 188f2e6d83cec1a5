package providers

import (
	"encoding/json"
	"regexp"
	"time"

	"driveid/internal/verify/match"
	"driveid/internal/verify/models"
)

// ninPattern: the National Identification Number is exactly 11 digits.
var ninPattern = regexp.MustCompile(`^\d{11}$`)

// ninEntityResponse is the current registry response shape.
type ninEntityResponse struct {
	Entity struct {
		NIN         string `json:"nin"`
		FirstName   string `json:"first_name"`
		LastName    string `json:"last_name"`
		MiddleName  string `json:"middle_name"`
		Gender      string `json:"gender"`
		DateOfBirth string `json:"date_of_birth"`
		PhoneNumber string `json:"phone_number"`
		Status      string `json:"status"`
	} `json:"entity"`
}

// ninFlatResponse is the legacy registry response shape.
type ninFlatResponse struct {
	NIN        string `json:"nin"`
	Firstname  string `json:"firstname"`
	Lastname   string `json:"lastname"`
	Middlename string `json:"middlename"`
	Gender     string `json:"gender"`
	Birthdate  string `json:"birthdate"`
	Telephone  string `json:"telephoneno"`
	Suspended  bool   `json:"suspended"`
	Watchlist  bool   `json:"watchlisted"`
}

// NINSource builds the national-ID registry source configuration.
func NINSource(endpoints []Endpoint, timeout time.Duration, retries int, cacheTTL time.Duration) SourceConfig {
	return SourceConfig{
		Name:          models.StepNIN,
		Pattern:       ninPattern,
		IdentifierTyp: match.FieldIDNum,
		Endpoints:     endpoints,
		Timeout:       timeout,
		RetryAttempts: retries,
		CacheTTL:      cacheTTL,
		Penalty:       0.5,
		Fields:        personFieldMappings(),
		Decode:        decodeNIN,
	}
}

func decodeNIN(body []byte) (Record, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return Record{}, err
	}

	if _, ok := probe["entity"]; ok {
		var resp ninEntityResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return Record{}, err
		}
		if resp.Entity.NIN == "" && resp.Entity.FirstName == "" {
			return Record{}, errNoShapeMatched
		}
		return Record{
			Fields: map[string]string{
				"first_name":    resp.Entity.FirstName,
				"surname":       resp.Entity.LastName,
				"middle_name":   resp.Entity.MiddleName,
				"date_of_birth": resp.Entity.DateOfBirth,
				"gender":        resp.Entity.Gender,
				"phone":         resp.Entity.PhoneNumber,
			},
			Status: recordStatusFromString(resp.Entity.Status),
		}, nil
	}

	if _, ok := probe["firstname"]; ok {
		var resp ninFlatResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return Record{}, err
		}
		status := StatusActive
		if resp.Suspended {
			status = StatusSuspended
		}
		if resp.Watchlist {
			status = StatusWatchlisted
		}
		return Record{
			Fields: map[string]string{
				"first_name":    resp.Firstname,
				"surname":       resp.Lastname,
				"middle_name":   resp.Middlename,
				"date_of_birth": resp.Birthdate,
				"gender":        resp.Gender,
				"phone":         resp.Telephone,
			},
			Status: status,
		}, nil
	}

	return Record{}, errNoShapeMatched
}

// personFieldMappings is the comparison table shared by the person-identity
// registries (NIN, BVN). Declared order keeps comparison output stable.
func personFieldMappings() []FieldMapping {
	return []FieldMapping{
		{Name: "first_name", Type: match.FieldName, Subject: func(s models.Subject) string { return s.FirstName }},
		{Name: "surname", Type: match.FieldName, Subject: func(s models.Subject) string { return s.Surname }},
		{Name: "middle_name", Type: match.FieldName, Subject: func(s models.Subject) string { return s.MiddleName }},
		{Name: "date_of_birth", Type: match.FieldDate, Subject: func(s models.Subject) string { return s.DateOfBirth }},
		{Name: "gender", Type: match.FieldGender, Subject: func(s models.Subject) string { return s.Gender }},
		{Name: "phone", Type: match.FieldPhone, Subject: func(s models.Subject) string { return s.Phone }},
	}
}

func recordStatusFromString(s string) RecordStatus {
	switch s {
	case "inactive":
		return StatusInactive
	case "suspended":
		return StatusSuspended
	case "watchlisted", "watchlist":
		return StatusWatchlisted
	default:
		return StatusActive
	}
}
