package cwa

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/couchcryptid/weather-digest-service/internal/observability"
	"golang.org/x/time/rate"
)

// Client fetches datasets from the CWA open-data API. Each call is retried on
// timeouts, connection errors, 429 and 5xx with exponential backoff. When a
// request fails certificate verification, one last attempt is made with
// verification disabled.
type Client struct {
	apiKey         string
	baseURL        string
	httpClient     *http.Client
	insecureClient *http.Client
	limiter        *rate.Limiter
	maxRetries     int
	initialBackoff time.Duration
	metrics        *observability.Metrics
	logger         *slog.Logger
}

// Options configures a Client.
type Options struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	RatePerSec float64
}

// NewClient creates a CWA client.
func NewClient(opts Options, metrics *observability.Metrics, logger *slog.Logger) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	limit := rate.Inf
	if opts.RatePerSec > 0 {
		limit = rate.Limit(opts.RatePerSec)
	}
	return &Client{
		apiKey:     opts.APIKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: opts.Timeout},
		insecureClient: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				Proxy:           http.ProxyFromEnvironment,
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // last-resort fallback for the CWA certificate chain
			},
		},
		limiter:        rate.NewLimiter(limit, 1),
		maxRetries:     opts.MaxRetries,
		initialBackoff: time.Second,
		metrics:        metrics,
		logger:         logger,
	}
}

// Fetch returns the "records" object of a dataset. It returns ErrNoData when
// the envelope does not report success.
func (c *Client) Fetch(ctx context.Context, dataset string, query url.Values) (json.RawMessage, error) {
	start := time.Now()
	defer func() {
		c.metrics.FetchDuration.WithLabelValues(dataset).Observe(time.Since(start).Seconds())
	}()

	body, err := c.getWithRetry(ctx, dataset, c.buildURL(dataset, query))
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues(dataset, "error").Inc()
		return nil, err
	}

	records, err := decodeEnvelope(body)
	switch {
	case errors.Is(err, ErrNoData):
		c.metrics.FetchRequests.WithLabelValues(dataset, "empty").Inc()
		return nil, err
	case err != nil:
		c.metrics.FetchRequests.WithLabelValues(dataset, "error").Inc()
		return nil, fmt.Errorf("%s: %w", dataset, err)
	}
	c.metrics.FetchRequests.WithLabelValues(dataset, "success").Inc()
	return records, nil
}

func (c *Client) buildURL(dataset string, query url.Values) string {
	params := url.Values{}
	for k, v := range query {
		params[k] = v
	}
	params.Set("Authorization", c.apiKey)
	params.Set("format", "JSON")
	return fmt.Sprintf("%s/%s?%s", c.baseURL, url.PathEscape(dataset), params.Encode())
}

func (c *Client) getWithRetry(ctx context.Context, dataset, fullURL string) ([]byte, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(max(c.maxRetries, 0))), ctx)

	var body []byte
	var certErr bool
	op := func() error {
		var err error
		body, err = c.get(ctx, c.httpClient, fullURL)
		if err == nil {
			return nil
		}
		if isCertificateError(err) {
			certErr = true
			return backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		c.metrics.FetchRetries.WithLabelValues(dataset).Inc()
		c.logger.Warn("cwa request failed, retrying", "dataset", dataset, "error", err, "wait", wait)
	}

	err := backoff.RetryNotify(op, policy, notify)
	if err == nil {
		return body, nil
	}
	if !certErr {
		return nil, fmt.Errorf("%s request: %w", dataset, err)
	}

	c.logger.Warn("cwa certificate verification failed, retrying without verification", "dataset", dataset, "error", err)
	c.metrics.TLSFallbacks.Inc()
	body, err = c.get(ctx, c.insecureClient, fullURL)
	if err != nil {
		return nil, fmt.Errorf("%s request (tls fallback): %w", dataset, err)
	}
	return body, nil
}

// statusError carries a non-2xx HTTP status. Only 429 and 5xx are retried.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("cwa API error: status %d: %s", e.code, e.body)
}

func (c *Client) get(ctx context.Context, hc *http.Client, fullURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("create request: %w", err))
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		serr := &statusError{code: resp.StatusCode, body: string(snippet)}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, serr
		}
		return nil, backoff.Permanent(serr)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func isCertificateError(err error) bool {
	var (
		unknownAuthority x509.UnknownAuthorityError
		invalid          x509.CertificateInvalidError
		hostname         x509.HostnameError
		verification     *tls.CertificateVerificationError
	)
	return errors.As(err, &unknownAuthority) ||
		errors.As(err, &invalid) ||
		errors.As(err, &hostname) ||
		errors.As(err, &verification)
}
