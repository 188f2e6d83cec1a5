package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"driveid/internal/verify/cache"
	"driveid/internal/verify/match"
	"driveid/internal/verify/metrics"
	"driveid/internal/verify/models"
	pstrings "driveid/pkg/platform/strings"
)

const (
	defaultRetryAttempts = 3
	defaultTimeout       = 10 * time.Second
	backoffBase          = time.Second
)

// errRecordNotFound is internal to the retry loop: a reached provider said
// the record does not exist, which is terminal rather than retryable.
var errRecordNotFound = errors.New("record not found")

// Client verifies identifiers against one external source. It owns format
// validation, caching, retries with exponential backoff, endpoint fallback,
// response normalization, and field-level scoring. One Client instance per
// source; all sources share the implementation.
type Client struct {
	cfg        SourceConfig
	httpClient *http.Client
	norm       *match.Normalizer
	engine     *match.Engine
	thresholds match.Thresholds
	cache      *cache.Cache
	logger     *slog.Logger
	metrics    *metrics.Metrics
	sleep      func(ctx context.Context, d time.Duration) error
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func WithCache(cc *cache.Cache) Option {
	return func(c *Client) { c.cache = cc }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient builds a verification client for one source.
func NewClient(cfg SourceConfig, norm *match.Normalizer, engine *match.Engine, thresholds match.Thresholds, opts ...Option) *Client {
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = defaultRetryAttempts
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
		norm:       norm,
		engine:     engine,
		thresholds: thresholds,
		sleep:      sleepCtx,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Source returns the configured source name.
func (c *Client) Source() string {
	return c.cfg.Name
}

// CacheTTL returns the configured cache retention for this source.
func (c *Client) CacheTTL() time.Duration {
	return c.cfg.CacheTTL
}

// Verify checks the identifier against the source and compares the returned
// record with the subject. Expected failures (bad format, record absent,
// exhausted retries) are reported inside the result, never as panics or
// returned errors.
func (c *Client) Verify(ctx context.Context, identifier string, subject models.Subject) *models.SourceResult {
	normalized := c.norm.Normalize(identifier, c.cfg.IdentifierTyp)

	if !c.cfg.Pattern.MatchString(normalized) {
		// Terminal for this step: no external call, no cache write.
		return c.failure(KindInvalidFormat, "", 0,
			fmt.Sprintf("identifier %s does not match the %s format", pstrings.Mask(identifier, 3), c.cfg.Name))
	}

	key := cache.Key(c.cfg.Name, normalized)
	result, err := c.cache.GetOrFetch(ctx, key, c.cfg.CacheTTL, func(ctx context.Context) (*models.SourceResult, error) {
		return c.fetchAndScore(ctx, normalized, subject), nil
	})
	if err != nil {
		// fetchAndScore never returns an error; anything here is internal.
		return c.failure(KindServiceError, "", 0, err.Error())
	}
	c.metrics.IncCacheLookup(c.cfg.Name, result.FromCache)
	return result
}

// fetchAndScore performs the outbound call with bounded retries, exponential
// backoff, and endpoint fallback, then scores the normalized record against
// the subject.
func (c *Client) fetchAndScore(ctx context.Context, normalized string, subject models.Subject) *models.SourceResult {
	var lastErr error
	endpoint := c.cfg.Endpoints[0]

	for attempt := 1; attempt <= c.cfg.RetryAttempts; attempt++ {
		if attempt > 1 {
			// 1s, 2s, 4s, ... between attempts.
			delay := backoffBase << (attempt - 2)
			if err := c.sleep(ctx, delay); err != nil {
				return c.failure(KindTimeout, endpoint.Name, attempt-1, "verification cancelled during backoff")
			}
		}

		endpoint = c.cfg.endpointFor(attempt)
		record, err := c.call(ctx, endpoint, normalized)
		if err == nil {
			c.metrics.IncProviderAttempt(c.cfg.Name, endpoint.Name, "success")
			return c.score(record, subject, endpoint, attempt)
		}
		if errors.Is(err, errRecordNotFound) || errors.Is(err, errNoShapeMatched) {
			c.metrics.IncProviderAttempt(c.cfg.Name, endpoint.Name, "not_found")
			return c.failure(KindNotFound, endpoint.Name, attempt,
				fmt.Sprintf("no %s record found for %s", c.cfg.Name, pstrings.Mask(normalized, 3)))
		}
		c.metrics.IncProviderAttempt(c.cfg.Name, endpoint.Name, "error")
		if c.logger != nil {
			c.logger.WarnContext(ctx, "provider call failed",
				"source", c.cfg.Name,
				"endpoint", endpoint.Name,
				"attempt", attempt,
				"identifier", pstrings.Mask(normalized, 3),
				"error", err,
			)
		}
		lastErr = err
	}

	result := c.failure(KindAPIFailure, endpoint.Name, c.cfg.RetryAttempts,
		fmt.Sprintf("%s verification failed after %d attempts", c.cfg.Name, c.cfg.RetryAttempts))
	if lastErr != nil {
		result.Error = (&VerificationError{
			Kind:       KindAPIFailure,
			Source:     c.cfg.Name,
			Endpoint:   endpoint.Name,
			Attempts:   c.cfg.RetryAttempts,
			Message:    "retries exhausted",
			Underlying: lastErr,
		}).Error()
	}
	return result
}

// call performs one HTTP attempt against an endpoint and normalizes the
// response into a Record.
func (c *Client) call(ctx context.Context, endpoint Endpoint, normalized string) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	u, err := url.Parse(endpoint.URL)
	if err != nil {
		return Record{}, fmt.Errorf("endpoint url: %w", err)
	}
	q := u.Query()
	q.Set("id", normalized)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Record{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if endpoint.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+endpoint.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Record{}, fmt.Errorf("call %s: %w", endpoint.Name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Record{}, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Record{}, errRecordNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return Record{}, fmt.Errorf("endpoint %s returned status %d", endpoint.Name, resp.StatusCode)
	}

	if !json.Valid(body) {
		return Record{}, fmt.Errorf("endpoint %s returned malformed payload", endpoint.Name)
	}
	return c.cfg.Decode(body)
}

// score builds per-field comparisons in the mapping's declared order and
// aggregates them into an unweighted mean over the fields present on both
// sides. Missing fields are skipped, not scored as zero.
func (c *Client) score(record Record, subject models.Subject, endpoint Endpoint, attempts int) *models.SourceResult {
	result := &models.SourceResult{
		Source:    c.cfg.Name,
		Succeeded: true,
		CheckedAt: c.now(),
		Metadata: map[string]string{
			"endpoint":      endpoint.Name,
			"attempts":      fmt.Sprintf("%d", attempts),
			"record_status": string(record.Status),
		},
	}

	var total float64
	var compared int
	for _, fm := range c.cfg.Fields {
		subjectValue := fm.Subject(subject)
		sourceValue := record.Fields[fm.Name]
		if subjectValue == "" || sourceValue == "" {
			continue
		}
		threshold := c.thresholds.Threshold(fm.Type)
		similarity := c.engine.Similarity(subjectValue, sourceValue, fm.Type)
		result.Comparisons = append(result.Comparisons, models.FieldComparison{
			Field:        fm.Name,
			SubjectValue: subjectValue,
			SourceValue:  sourceValue,
			Similarity:   similarity,
			Threshold:    threshold,
			Matched:      similarity >= threshold,
		})
		total += similarity
		compared++
	}

	if compared > 0 {
		result.MatchScore = total / float64(compared)
	} else {
		// Record found, nothing to compare against.
		result.MatchScore = 1.0
	}

	if record.Active() {
		result.Verified = true
	} else {
		// Found but inactive/suspended/watch-listed: keep partial signal
		// for manual review instead of zeroing the score.
		result.Verified = false
		result.MatchScore *= c.cfg.Penalty
	}
	return result
}

// failure builds a non-succeeded result carrying the error taxonomy.
// Verified is always false when the call did not succeed.
func (c *Client) failure(kind ErrorKind, endpoint string, attempts int, message string) *models.SourceResult {
	result := &models.SourceResult{
		Source:    c.cfg.Name,
		Succeeded: false,
		Verified:  false,
		ErrorKind: string(kind),
		Error:     message,
		CheckedAt: c.now(),
		Metadata:  map[string]string{},
	}
	if endpoint != "" {
		result.Metadata["endpoint"] = endpoint
	}
	if attempts > 0 {
		result.Metadata["attempts"] = fmt.Sprintf("%d", attempts)
	}
	return result
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
