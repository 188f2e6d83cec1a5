// Package providers implements the generic external-verification client and
// the per-source configurations (national ID registry, bank verification
// registry, license authority). One client implementation serves every
// source; sources differ only in their format rules, endpoints, response
// decoding, and field mapping tables.
package providers

import (
	"regexp"
	"time"

	"driveid/internal/verify/match"
	"driveid/internal/verify/models"
)

// RecordStatus classifies the state of a found registry record.
type RecordStatus string

const (
	StatusActive      RecordStatus = "active"
	StatusInactive    RecordStatus = "inactive"
	StatusSuspended   RecordStatus = "suspended"
	StatusWatchlisted RecordStatus = "watchlisted"
)

// Record is a provider response normalized into the canonical field shape.
// Providers differ in field names and casing; Decode funcs flatten at least
// two known shapes into this one.
type Record struct {
	Fields map[string]string
	Status RecordStatus
}

// Active reports whether the underlying identity is in good standing.
func (r Record) Active() bool {
	return r.Status == StatusActive || r.Status == ""
}

// Endpoint is one configured provider endpoint. Sources with a fallback
// registry list two.
type Endpoint struct {
	Name   string
	URL    string
	APIKey string
}

// FieldMapping binds one canonical record field to the subject field it is
// compared against. Mappings are iterated in declared order so comparison
// output is stable.
type FieldMapping struct {
	Name    string
	Type    match.FieldType
	Subject func(models.Subject) string
}

// DecodeFunc normalizes a provider HTTP response body into a Record.
// Implementations must tolerate the source's known response shapes and
// return errNoShapeMatched when none fits, so the client fails closed.
type DecodeFunc func(body []byte) (Record, error)

// SourceConfig fully describes one verification source.
type SourceConfig struct {
	Name          string
	Pattern       *regexp.Regexp
	IdentifierTyp match.FieldType
	Endpoints     []Endpoint
	Timeout       time.Duration
	RetryAttempts int
	CacheTTL      time.Duration

	// Penalty multiplies the match score when the record is found but the
	// identity is inactive, suspended, or watch-listed. Partial signal is
	// preserved for manual review instead of zeroing.
	Penalty float64

	Fields []FieldMapping
	Decode DecodeFunc
}

// endpointFor returns the endpoint used on the given 1-based attempt:
// primary first, then the fallback for every later attempt.
func (c SourceConfig) endpointFor(attempt int) Endpoint {
	if attempt > 1 && len(c.Endpoints) > 1 {
		return c.Endpoints[1]
	}
	return c.Endpoints[0]
}
