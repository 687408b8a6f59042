// Package bark pushes the digest to an iOS device through a Bark server.
package bark

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/weather-digest-service/internal/observability"
)

const (
	DefaultBaseURL = "https://api.day.app"
	timeout        = 10 * time.Second
)

// Notifier sends best-effort push notifications. Without a device key every
// call is a no-op.
type Notifier struct {
	key        string
	baseURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewNotifier creates a notifier for the given device key.
func NewNotifier(key, baseURL string, metrics *observability.Metrics, logger *slog.Logger) *Notifier {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Notifier{
		key:        key,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		metrics:    metrics,
		logger:     logger,
	}
}

// Enabled reports whether a device key is configured.
func (n *Notifier) Enabled() bool {
	return n.key != ""
}

// Notify pushes title and body. Failures are logged and counted, never
// returned.
func (n *Notifier) Notify(ctx context.Context, title, body string) {
	if !n.Enabled() {
		return
	}
	if err := n.Send(ctx, title, body); err != nil {
		n.metrics.Published.WithLabelValues("notifier", "error").Inc()
		n.logger.Error("bark push failed", "error", err)
		return
	}
	n.metrics.Published.WithLabelValues("notifier", "success").Inc()
	n.logger.Info("bark push sent")
}

// Send performs one push request.
func (n *Notifier) Send(ctx context.Context, title, body string) error {
	u := fmt.Sprintf("%s/%s/%s/%s", n.baseURL, url.PathEscape(n.key), url.PathEscape(title), url.PathEscape(body))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("bark request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("bark API error: status %d: %s", resp.StatusCode, snippet)
	}
	return nil
}
