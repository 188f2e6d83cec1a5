package providers

import (
	"errors"
	"fmt"
)

// ErrorKind is the normalized failure taxonomy surfaced to callers. Expected
// outcomes (bad input, record absent) travel through SourceResult rather than
// as Go errors; ErrorKind tags both.
type ErrorKind string

const (
	// KindInvalidFormat means the identifier failed format validation.
	// No external call was attempted.
	KindInvalidFormat ErrorKind = "INVALID_FORMAT"

	// KindNotFound means a provider was reached and the record is absent.
	KindNotFound ErrorKind = "NOT_FOUND"

	// KindAPIFailure means retries were exhausted against a
	// reachable-but-erroring provider.
	KindAPIFailure ErrorKind = "API_FAILURE"

	// KindServiceError means an unexpected internal fault.
	KindServiceError ErrorKind = "SERVICE_ERROR"

	// KindTimeout means the call deadline was exceeded.
	KindTimeout ErrorKind = "TIMEOUT"
)

// VerificationError wraps source failures with the taxonomy, the endpoint
// actually used, and the attempt count.
type VerificationError struct {
	Kind       ErrorKind
	Source     string
	Endpoint   string
	Attempts   int
	Message    string
	Underlying error
}

func (e *VerificationError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s [%s] endpoint=%s attempts=%d: %s: %v",
			e.Source, e.Kind, e.Endpoint, e.Attempts, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s [%s] endpoint=%s attempts=%d: %s",
		e.Source, e.Kind, e.Endpoint, e.Attempts, e.Message)
}

func (e *VerificationError) Unwrap() error {
	return e.Underlying
}

// Kind extracts the error kind, defaulting to SERVICE_ERROR for foreign
// errors.
func Kind(err error) ErrorKind {
	var ve *VerificationError
	if errors.As(err, &ve) {
		return ve.Kind
	}
	return KindServiceError
}

// errNoShapeMatched signals that none of the known provider response shapes
// decoded; the client fails closed and reports the record as not found.
var errNoShapeMatched = errors.New("no known response shape matched")
