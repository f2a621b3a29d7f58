// Package ycentral fetches US Treasury yields from a rate-limited provider and
// builds yield curves that can be queried at any maturity inside their range.
package ycentral

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	appservice "github.com/damon-houk/yc-central/internal/application/service"
	"github.com/damon-houk/yc-central/internal/config"
	"github.com/damon-houk/yc-central/internal/domain/curve"
	"github.com/damon-houk/yc-central/internal/domain/entity"
	"github.com/damon-houk/yc-central/internal/domain/repository"
	"github.com/damon-houk/yc-central/internal/domain/service"
	"github.com/damon-houk/yc-central/internal/infrastructure/api"
	"github.com/damon-houk/yc-central/internal/infrastructure/cache"
	"github.com/damon-houk/yc-central/internal/infrastructure/db"
	"github.com/damon-houk/yc-central/internal/infrastructure/logger"
	"github.com/damon-houk/yc-central/internal/infrastructure/metrics"
	"github.com/damon-houk/yc-central/internal/infrastructure/ratelimit"
)

type (
	Maturity        = entity.Maturity
	YieldCurvePoint = entity.YieldCurvePoint
	YieldCurve      = curve.YieldCurve
	InversionStatus = curve.InversionStatus
	OutOfRangeError = curve.OutOfRangeError
	FetchError      = api.FetchError
	RetryPolicy     = api.RetryPolicy
	Config          = config.Config
	Logger          = logger.Logger
)

const (
	OneMonth    = entity.OneMonth
	ThreeMonths = entity.ThreeMonths
	SixMonths   = entity.SixMonths
	OneYear     = entity.OneYear
	TwoYears    = entity.TwoYears
	ThreeYears  = entity.ThreeYears
	FiveYears   = entity.FiveYears
	SevenYears  = entity.SevenYears
	TenYears    = entity.TenYears
	TwentyYears = entity.TwentyYears
	ThirtyYears = entity.ThirtyYears
)

var (
	ErrInvalidRequest  = api.ErrInvalidRequest
	ErrRateLimited     = api.ErrRateLimited
	ErrInvalidResponse = api.ErrInvalidResponse
	ErrNetworkError    = api.ErrNetworkError
	ErrUnauthorized    = api.ErrUnauthorized

	ErrOutOfRange        = curve.ErrOutOfRange
	ErrEmptyCurve        = curve.ErrEmptyCurve
	ErrDuplicateMaturity = curve.ErrDuplicateMaturity
	ErrNonFiniteYield    = curve.ErrNonFiniteYield
	ErrMixedDates        = curve.ErrMixedDates
	ErrNoData            = appservice.ErrNoData
)

var (
	Months              = entity.Months
	Years               = entity.Years
	ParseMaturity       = entity.ParseMaturity
	SupportedMaturities = entity.SupportedMaturities
	NewYieldCurvePoint  = entity.NewYieldCurvePoint

	NewCurve         = curve.New
	CurvesFromPoints = curve.FromObservations
	Interpolate      = curve.Interpolate
	InterpolateYears = curve.InterpolateYears
	Slice            = curve.Slice
	Spread           = curve.Spread
	Inversion        = curve.Inversion

	DefaultConfig = config.Default
	LoadConfig    = config.Load
)

// Option customizes a Client
type Option func(*options)

type options struct {
	apiKey     string
	logger     logger.Logger
	registerer prometheus.Registerer
	httpClient *http.Client
}

// WithAPIKey sets the credential instead of reading it from the configured variable
func WithAPIKey(key string) Option {
	return func(o *options) { o.apiKey = key }
}

// WithLogger replaces the JSON logger built from the configured level
func WithLogger(l Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics registers the client's Prometheus instruments with reg
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithHTTPClient sends requests through a copy of c. A zero Timeout takes the
// configured timeout, and request id and logging middleware wrap its transport.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// Client is safe for concurrent use. Every client in the process talking to the
// same provider URL spends from one rate-limit budget.
type Client struct {
	api      *api.TreasuryYieldClient
	provider service.TreasuryYieldAPI
	curves   *appservice.CurveService
	closers  []io.Closer
}

// New builds a client from cfg. A nil cfg means DefaultConfig().
func New(ctx context.Context, cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	o := &options{apiKey: cfg.APIKey()}
	for _, opt := range opts {
		opt(o)
	}

	log := o.logger
	if log == nil {
		level, err := logger.ParseLevel(cfg.Log.Level)
		if err != nil {
			return nil, err
		}
		log = logger.NewJSONLogger(os.Stderr, level)
	}

	var m *metrics.Collector
	if o.registerer != nil {
		m = metrics.New(o.registerer)
	}

	client := api.NewTreasuryYieldClient(api.Options{
		BaseURL:      cfg.Provider.BaseURL,
		APIKey:       o.apiKey,
		Interval:     cfg.Provider.Interval,
		MaxRangeDays: cfg.Provider.MaxRangeDays,
		Timeout:      cfg.Provider.Timeout,
		Retry: api.RetryPolicy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.Retry.BaseDelay,
			MaxDelay:    cfg.Retry.MaxDelay,
		},
		Budget:     ratelimit.Shared(strings.TrimRight(cfg.Provider.BaseURL, "/"), cfg.RateLimit.Requests, cfg.RateLimit.Window),
		HTTPClient: o.httpClient,
		Logger:     log,
		Metrics:    m,
	})

	c := &Client{api: client, provider: client}

	store, closer, err := openCache(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		c.closers = append(c.closers, closer)
	}
	if store != nil {
		c.provider = db.NewCachedYieldRepository(client, store, cfg.Cache.TTL, cfg.Provider.Interval, log, m)
	}

	c.curves = appservice.NewCurveService(c.provider, log)

	log.Debug("Yield client ready", map[string]interface{}{
		"provider":      cfg.Provider.BaseURL,
		"interval":      cfg.Provider.Interval,
		"cache_backend": cfg.Cache.Backend,
		"rate_limit":    fmt.Sprintf("%d/%s", cfg.RateLimit.Requests, cfg.RateLimit.Window),
	})

	return c, nil
}

// NewFromEnv loads configuration from the environment, reading envFile first when given
func NewFromEnv(ctx context.Context, envFile string, opts ...Option) (*Client, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	return New(ctx, cfg, opts...)
}

func openCache(ctx context.Context, cfg config.Cache) (repository.ObservationCache, io.Closer, error) {
	switch cfg.Backend {
	case config.CacheMemory:
		return cache.NewMemoryObservationCache(), nil, nil
	case config.CacheBadger:
		bdb, err := db.OpenBadger(cfg.BadgerPath)
		if err != nil {
			return nil, nil, err
		}
		repo := db.NewBadgerObservationRepository(bdb)
		return repo, repo, nil
	case config.CacheRedis:
		rc, err := cache.InitRedisObservationCache(ctx, &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, nil, err
		}
		return rc, rc, nil
	default:
		return nil, nil, nil
	}
}

// Fetch returns observations for maturities over [start, end], sorted by date then maturity
func (c *Client) Fetch(ctx context.Context, maturities []Maturity, start, end civil.Date) ([]YieldCurvePoint, error) {
	return c.provider.Fetch(ctx, maturities, start, end)
}

// Curves returns one curve per date with data, oldest first
func (c *Client) Curves(ctx context.Context, maturities []Maturity, start, end civil.Date) ([]*YieldCurve, error) {
	return c.curves.Curves(ctx, maturities, start, end)
}

// LatestCurve returns the most recent curve in [start, end], or ErrNoData
func (c *Client) LatestCurve(ctx context.Context, maturities []Maturity, start, end civil.Date) (*YieldCurve, error) {
	return c.curves.LatestCurve(ctx, maturities, start, end)
}

// InversionHistory returns the 10Y-3M and 10Y-2Y spreads per date
func (c *Client) InversionHistory(ctx context.Context, start, end civil.Date) ([]InversionStatus, error) {
	return c.curves.InversionHistory(ctx, start, end)
}

// RateLimitRemaining returns the requests left in the current window, or -1 when unlimited
func (c *Client) RateLimitRemaining() int {
	return c.api.RateLimitRemaining()
}

// Close releases the cache backend
func (c *Client) Close() error {
	var firstErr error
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.closers = nil
	return firstErr
}
