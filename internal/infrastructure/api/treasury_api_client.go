package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/damon-houk/yc-central/internal/domain/entity"
	"github.com/damon-houk/yc-central/internal/infrastructure/logger"
	"github.com/damon-houk/yc-central/internal/infrastructure/metrics"
	"github.com/damon-houk/yc-central/internal/infrastructure/middleware"
	"github.com/damon-houk/yc-central/internal/infrastructure/ratelimit"
)

const (
	defaultBaseURL      = "https://www.alphavantage.co"
	yieldCurvePath      = "/query"
	yieldCurveFunction  = "TREASURY_YIELD_CURVE"
	defaultInterval     = "daily"
	defaultMaxRangeDays = 366
	defaultTimeout      = 30 * time.Second
	maxBodyBytes        = 10 << 20
	dateLayout          = "2006-01-02"
)

// Options configures a TreasuryYieldClient. Zero values take defaults.
type Options struct {
	BaseURL      string
	APIKey       string
	Interval     string
	MaxRangeDays int
	Timeout      time.Duration
	Retry        RetryPolicy
	Logger       logger.Logger
	Metrics      *metrics.Collector

	// Budget defaults to the process-wide budget for BaseURL, 5 per minute
	Budget *ratelimit.Budget

	// HTTPClient is copied. A zero Timeout takes Timeout, and its transport
	// is wrapped with request id and logging middleware.
	HTTPClient *http.Client

	// Sleep waits between retries; tests replace it to observe delays
	Sleep func(ctx context.Context, d time.Duration) error
}

// TreasuryYieldClient implements the TreasuryYieldAPI interface against a
// rate-limited HTTP provider
type TreasuryYieldClient struct {
	baseURL      string
	apiKey       string
	interval     string
	maxRangeDays int
	retry        RetryPolicy
	budget       *ratelimit.Budget
	httpClient   *http.Client
	logger       logger.Logger
	metrics      *metrics.Collector
	sleep        func(ctx context.Context, d time.Duration) error
}

// NewTreasuryYieldClient creates a new yield provider client
func NewTreasuryYieldClient(opts Options) *TreasuryYieldClient {
	log := opts.Logger
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	c := &TreasuryYieldClient{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		apiKey:       opts.APIKey,
		interval:     opts.Interval,
		maxRangeDays: opts.MaxRangeDays,
		retry:        opts.Retry,
		budget:       opts.Budget,
		logger:       log.WithField("component", "treasury_yield_client"),
		metrics:      opts.Metrics,
		sleep:        opts.Sleep,
	}

	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.interval == "" {
		c.interval = defaultInterval
	}
	if c.maxRangeDays <= 0 {
		c.maxRangeDays = defaultMaxRangeDays
	}
	if c.retry.MaxAttempts <= 0 {
		c.retry = DefaultRetryPolicy()
	}
	if c.budget == nil {
		c.budget = ratelimit.Shared(c.baseURL, 5, time.Minute)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := &http.Client{}
	if opts.HTTPClient != nil {
		*httpClient = *opts.HTTPClient
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = timeout
	}
	httpClient.Transport = middleware.Chain(httpClient.Transport, log)
	c.httpClient = httpClient

	if c.sleep == nil {
		c.sleep = sleepContext
	}

	return c
}

// RateLimitRemaining returns the requests left in the current window, or -1 when unlimited
func (c *TreasuryYieldClient) RateLimitRemaining() int {
	return c.budget.Remaining()
}

// Fetch retrieves yields for the requested maturities over [start, end].
// Points are returned sorted by date, then maturity. Non-trading days are simply absent.
func (c *TreasuryYieldClient) Fetch(ctx context.Context, maturities []entity.Maturity, start, end civil.Date) ([]entity.YieldCurvePoint, error) {
	requested, labels, err := validateRequest(maturities, start, end)
	if err != nil {
		return nil, err
	}

	if c.apiKey == "" {
		return nil, &FetchError{Kind: ErrUnauthorized, Err: errors.New("no API key configured")}
	}

	if middleware.GetRequestID(ctx) == "unknown" {
		ctx = middleware.WithRequestID(ctx, "")
	}
	log := c.logger.WithField("request_id", middleware.GetRequestID(ctx))

	windows := splitRange(start, end, c.maxRangeDays)
	log.Info("Fetching treasury yields", map[string]interface{}{
		"maturities": strings.Join(labels, ","),
		"start":      start.String(),
		"end":        end.String(),
		"interval":   c.interval,
		"requests":   len(windows),
	})

	var points []entity.YieldCurvePoint
	for _, w := range windows {
		resp, err := c.fetchWindow(ctx, log, labels, w)
		if err != nil {
			log.Error("Failed to fetch treasury yields", map[string]interface{}{
				"start": w.start.String(),
				"end":   w.end.String(),
				"error": err.Error(),
			})
			return nil, err
		}

		windowPoints, err := resp.points(requested, w.start, w.end)
		if err != nil {
			fetchErr := &FetchError{Kind: ErrInvalidResponse, StatusCode: http.StatusOK, Attempts: 1, Err: err}
			log.Error("Failed to parse treasury yields", map[string]interface{}{
				"start": w.start.String(),
				"end":   w.end.String(),
				"error": fetchErr.Error(),
			})
			return nil, fetchErr
		}
		points = append(points, windowPoints...)
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].Less(points[j])
	})

	log.Info("Treasury yields fetched", map[string]interface{}{
		"points":             len(points),
		"rate_limit_remains": c.budget.Remaining(),
	})

	return points, nil
}

type dateRange struct {
	start civil.Date
	end   civil.Date
}

// splitRange cuts [start, end] into consecutive windows of at most maxDays days
func splitRange(start, end civil.Date, maxDays int) []dateRange {
	var out []dateRange
	for s := start; !s.After(end); {
		e := s.AddDays(maxDays - 1)
		if e.After(end) {
			e = end
		}
		out = append(out, dateRange{start: s, end: e})
		s = e.AddDays(1)
	}
	return out
}

func validateRequest(maturities []entity.Maturity, start, end civil.Date) (map[entity.Maturity]bool, []string, error) {
	if len(maturities) == 0 {
		return nil, nil, fmt.Errorf("%w: at least one maturity is required", ErrInvalidRequest)
	}
	if !start.IsValid() || !end.IsValid() {
		return nil, nil, fmt.Errorf("%w: invalid date range %s..%s", ErrInvalidRequest, start, end)
	}
	if end.Before(start) {
		return nil, nil, fmt.Errorf("%w: start %s is after end %s", ErrInvalidRequest, start, end)
	}

	requested := make(map[entity.Maturity]bool, len(maturities))
	for _, m := range maturities {
		if !m.IsSupported() {
			return nil, nil, fmt.Errorf("%w: unsupported maturity %s", ErrInvalidRequest, m)
		}
		requested[m] = true
	}

	sorted := make([]entity.Maturity, 0, len(requested))
	for m := range requested {
		sorted = append(sorted, m)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	labels := make([]string, len(sorted))
	for i, m := range sorted {
		labels[i] = m.String()
	}

	return requested, labels, nil
}

func (c *TreasuryYieldClient) buildURL(labels []string, w dateRange) string {
	q := url.Values{}
	q.Set("function", yieldCurveFunction)
	q.Set("interval", c.interval)
	q.Set("maturities", strings.Join(labels, ","))
	q.Set("start_date", w.start.In(time.UTC).Format(dateLayout))
	q.Set("end_date", w.end.In(time.UTC).Format(dateLayout))

	return c.baseURL + yieldCurvePath + "?" + q.Encode()
}

// fetchWindow performs one logical request, spending budget and retrying
// transient failures with bounded exponential backoff
func (c *TreasuryYieldClient) fetchWindow(ctx context.Context, log logger.Logger, labels []string, w dateRange) (*YieldResponse, error) {
	reqURL := c.buildURL(labels, w)

	for attempt := 1; ; attempt++ {
		waited, err := c.budget.Wait(ctx)
		c.metrics.ObserveBudget(waited.Seconds(), c.budget.Remaining())
		if err != nil {
			return nil, err
		}
		if waited > 0 {
			log.Debug("Waited for rate limit budget", map[string]interface{}{
				"waited_ms": waited.Milliseconds(),
			})
		}

		resp, err := c.doRequest(ctx, reqURL)
		if err == nil {
			c.metrics.ObserveRequest("ok")
			return resp, nil
		}

		var fetchErr *FetchError
		if !errors.As(err, &fetchErr) {
			return nil, err
		}
		fetchErr.Attempts = attempt
		c.metrics.ObserveRequest(kindLabel(fetchErr.Kind))

		if fetchErr.Kind == ErrRateLimited {
			c.budget.Drain()
		}
		if !fetchErr.Retryable() || attempt >= c.retry.MaxAttempts {
			return nil, fetchErr
		}

		delay := c.retry.Backoff(attempt)
		if fetchErr.RetryAfter > delay {
			delay = fetchErr.RetryAfter
			if delay > c.retry.MaxDelay {
				delay = c.retry.MaxDelay
			}
		}

		log.Warn("Provider request failed, retrying", map[string]interface{}{
			"attempt":      attempt,
			"max_attempts": c.retry.MaxAttempts,
			"backoff":      delay.String(),
			"error":        fetchErr.Error(),
		})
		c.metrics.ObserveRetry(kindLabel(fetchErr.Kind))

		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// doRequest performs a single HTTP exchange and classifies its failure
func (c *TreasuryYieldClient) doRequest(ctx context.Context, reqURL string) (*YieldResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &FetchError{Kind: ErrNetworkError, Err: err}
	}

	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debug("Error closing response body", map[string]interface{}{
				"error": closeErr.Error(),
			})
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &FetchError{Kind: ErrNetworkError, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &FetchError{
			Kind:       ErrRateLimited,
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &FetchError{Kind: ErrUnauthorized, StatusCode: resp.StatusCode}
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, &FetchError{Kind: ErrNetworkError, StatusCode: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		return nil, &FetchError{Kind: ErrInvalidResponse, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status, body: %s", truncate(body, 200))}
	}

	var yieldResp YieldResponse
	if err := json.Unmarshal(body, &yieldResp); err != nil {
		return nil, &FetchError{Kind: ErrInvalidResponse, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	if notice := firstNonEmpty(yieldResp.Note, yieldResp.Information); notice != "" {
		return nil, &FetchError{Kind: ErrRateLimited, StatusCode: resp.StatusCode, Err: errors.New(notice)}
	}
	if yieldResp.ErrorMessage != "" {
		return nil, &FetchError{Kind: ErrInvalidResponse, StatusCode: resp.StatusCode, Err: errors.New(yieldResp.ErrorMessage)}
	}

	return &yieldResp, nil
}

// parseRetryAfter reads the delay-seconds form of Retry-After
func parseRetryAfter(v string) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
