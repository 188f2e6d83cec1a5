package providers

import (
	"encoding/json"
	"regexp"
	"time"

	"driveid/internal/verify/match"
	"driveid/internal/verify/models"
)

// bvnPattern: the Bank Verification Number is exactly 11 digits.
var bvnPattern = regexp.MustCompile(`^\d{11}$`)

// bvnEntityResponse is the current banking-registry response shape.
type bvnEntityResponse struct {
	Entity struct {
		BVN          string `json:"bvn"`
		FirstName    string `json:"first_name"`
		LastName     string `json:"last_name"`
		MiddleName   string `json:"middle_name"`
		Gender       string `json:"gender"`
		DateOfBirth  string `json:"date_of_birth"`
		PhoneNumber1 string `json:"phone_number1"`
		Status       string `json:"status"`
	} `json:"entity"`
}

// bvnDataResponse is the alternate aggregator shape.
type bvnDataResponse struct {
	Data struct {
		BVN         string `json:"bvn"`
		FirstName   string `json:"firstName"`
		LastName    string `json:"lastName"`
		MiddleName  string `json:"middleName"`
		Gender      string `json:"gender"`
		DateOfBirth string `json:"dateOfBirth"`
		PhoneNumber string `json:"phoneNumber"`
		Blacklisted bool   `json:"blacklisted"`
	} `json:"data"`
}

// BVNSource builds the bank-verification registry source configuration.
// Bank status changes more often than national identity, so this source
// typically carries a shorter cache TTL.
func BVNSource(endpoints []Endpoint, timeout time.Duration, retries int, cacheTTL time.Duration) SourceConfig {
	return SourceConfig{
		Name:          models.StepBVN,
		Pattern:       bvnPattern,
		IdentifierTyp: match.FieldIDNum,
		Endpoints:     endpoints,
		Timeout:       timeout,
		RetryAttempts: retries,
		CacheTTL:      cacheTTL,
		Penalty:       0.5,
		Fields:        personFieldMappings(),
		Decode:        decodeBVN,
	}
}

func decodeBVN(body []byte) (Record, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return Record{}, err
	}

	if _, ok := probe["entity"]; ok {
		var resp bvnEntityResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return Record{}, err
		}
		if resp.Entity.BVN == "" && resp.Entity.FirstName == "" {
			return Record{}, errNoShapeMatched
		}
		return Record{
			Fields: map[string]string{
				"first_name":    resp.Entity.FirstName,
				"surname":       resp.Entity.LastName,
				"middle_name":   resp.Entity.MiddleName,
				"date_of_birth": resp.Entity.DateOfBirth,
				"gender":        resp.Entity.Gender,
				"phone":         resp.Entity.PhoneNumber1,
			},
			Status: recordStatusFromString(resp.Entity.Status),
		}, nil
	}

	if _, ok := probe["data"]; ok {
		var resp bvnDataResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return Record{}, err
		}
		if resp.Data.BVN == "" && resp.Data.FirstName == "" {
			return Record{}, errNoShapeMatched
		}
		status := StatusActive
		if resp.Data.Blacklisted {
			status = StatusWatchlisted
		}
		return Record{
			Fields: map[string]string{
				"first_name":    resp.Data.FirstName,
				"surname":       resp.Data.LastName,
				"middle_name":   resp.Data.MiddleName,
				"date_of_birth": resp.Data.DateOfBirth,
				"gender":        resp.Data.Gender,
				"phone":         resp.Data.PhoneNumber,
			},
			Status: status,
		}, nil
	}

	return Record{}, errNoShapeMatched
}
