package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/couchcryptid/weather-digest-service/internal/domain"
	"github.com/couchcryptid/weather-digest-service/internal/observability"
)

const (
	// Title is the digest title before the run timestamp is appended.
	Title = "天气预报"
	// NoWarnings replaces the warnings section when nothing survives
	// classification.
	NoWarnings = "✅ 当前无天气预警"
	// Pending stands in for any value the run could not obtain.
	Pending = "数据获取中"

	// DefaultFallbackRunes bounds the raw warnings text used when the
	// summarizer fails.
	DefaultFallbackRunes = 300

	fallbackPrefix     = "AI摘要失败，原始预警如下：\n"
	municipalityHeader = "=== 重点市级预警 ==="
	otherHeader        = "=== 其他重要区域预警 ==="
	defaultWeather     = "晴"
	heatReminderC      = 35
	unknownRegion      = "未知地区"
)

// Summarizer turns a prompt into free text.
type Summarizer interface {
	Summarize(ctx context.Context, system, prompt string) (string, error)
}

var (
	errNoSummarizer = errors.New("no summarizer configured")
	errEmptySummary = errors.New("summarizer returned empty text")
)

// Digest is the composed output of one run.
type Digest struct {
	Title    string
	Body     string
	Warnings Buckets
}

// Compositor builds the digest text. A nil summarizer is valid and always
// produces the deterministic fallbacks.
type Compositor struct {
	summarizer    Summarizer
	fallbackRunes int
	metrics       *observability.Metrics
	logger        *slog.Logger
}

// NewCompositor creates a compositor. A non-positive fallbackRunes uses
// DefaultFallbackRunes.
func NewCompositor(s Summarizer, fallbackRunes int, metrics *observability.Metrics, logger *slog.Logger) *Compositor {
	if fallbackRunes <= 0 {
		fallbackRunes = DefaultFallbackRunes
	}
	return &Compositor{
		summarizer:    s,
		fallbackRunes: fallbackRunes,
		metrics:       metrics,
		logger:        logger,
	}
}

// Compose renders daily lines, outlooks and the warnings section in that
// order. Snapshots are rendered in the order given.
func (c *Compositor) Compose(ctx context.Context, snapshots []domain.Snapshot, alerts []domain.Alert) Digest {
	var lines []string

	for _, s := range snapshots {
		lines = append(lines, DailyLine(s), "")
	}
	for _, s := range snapshots {
		lines = append(lines, c.outlook(ctx, s), "")
	}

	buckets := Classify(alerts)
	c.metrics.AlertsDropped.WithLabelValues("county").Add(float64(buckets.DroppedCounty))
	c.metrics.AlertsDropped.WithLabelValues("filtered").Add(float64(buckets.DroppedFiltered))

	if buckets.Len() == 0 {
		lines = append(lines, NoWarnings)
	} else {
		stamp := domain.Now().In(domain.Taipei).Format("01月02日 15:04")
		lines = append(lines, fmt.Sprintf("⚠️ 当前预警摘要（%s）：", stamp), c.digest(ctx, buckets))
	}

	return Digest{
		Title:    Title,
		Body:     strings.Join(lines, "\n"),
		Warnings: buckets,
	}
}

// DailyLine summarizes today for one city.
func DailyLine(s domain.Snapshot) string {
	var text, lo, hi string
	switch {
	case s.Today != nil && len(s.Today.Hourly) > 0:
		text, lo, hi = modeText(s.Today.Hourly), s.Today.TempMin, s.Today.TempMax
	case len(s.Weekly) > 0:
		d := s.Weekly[0]
		text, lo, hi = d.TextDay, d.TempMin, d.TempMax
		if text == "" {
			text = defaultWeather
		}
	default:
		return fmt.Sprintf("【%s】今日天气：%s", s.City, Pending)
	}
	if lo != "" && hi != "" {
		return fmt.Sprintf("【%s】今日天气：%s，%s ~ %s℃", s.City, text, lo, hi)
	}
	return fmt.Sprintf("【%s】今日天气：%s", s.City, text)
}

// modeText returns the most frequent non-empty text; ties go to the one seen
// first.
func modeText(hours []domain.HourRecord) string {
	counts := map[string]int{}
	for _, h := range hours {
		if h.Text != "" {
			counts[h.Text]++
		}
	}
	best, bestN := "", 0
	for _, h := range hours {
		if n := counts[h.Text]; h.Text != "" && n > bestN {
			best, bestN = h.Text, n
		}
	}
	if best == "" {
		return defaultWeather
	}
	return best
}

func (c *Compositor) outlook(ctx context.Context, s domain.Snapshot) string {
	if !s.HasForecast() {
		c.metrics.SummarizerCalls.WithLabelValues("outlook", "skipped").Inc()
		return fmt.Sprintf("🌤️ **%s未来两日天气**：%s", s.City, Pending)
	}
	text, err := c.summarize(ctx, "outlook", outlookPrompt(s))
	if err != nil {
		return OutlookFallback(s)
	}
	return text
}

// OutlookFallback is the deterministic two-day outlook.
func OutlookFallback(s domain.Snapshot) string {
	if len(s.Weekly) < 2 {
		return fmt.Sprintf("🌤️ **%s未来两日**：%s", s.City, Pending)
	}
	first, second := s.Weekly[0], s.Weekly[1]

	var temps []int
	for _, v := range []string{first.TempMin, first.TempMax, second.TempMin, second.TempMax} {
		if n, err := strconv.Atoi(v); err == nil {
			temps = append(temps, n)
		}
	}
	tempRange := Pending
	if len(temps) > 0 {
		tempRange = fmt.Sprintf("%d~%d℃", slices.Min(temps), slices.Max(temps))
	}

	weather := first.TextDay
	if weather == "" {
		weather = defaultWeather
	}
	reminder := "关注天气"
	if strings.Contains(weather, "雷") || strings.Contains(weather, "雨") {
		reminder = "备雨具"
	} else if hi, err := strconv.Atoi(first.TempMax); err == nil && hi >= heatReminderC {
		reminder = "防暑"
	}
	return fmt.Sprintf("🌤️ **%s未来两日**：%s，%s，%s", s.City, weather, tempRange, reminder)
}

func (c *Compositor) digest(ctx context.Context, b Buckets) string {
	text := RenderWarnings(b)
	summary, err := c.summarize(ctx, "digest", digestPrompt(text))
	if err != nil {
		return fallbackPrefix + truncateRunes(text, c.fallbackRunes)
	}
	return summary
}

// summarize calls the summarizer and records the outcome. A nil summarizer
// reports an error so callers take their fallback.
func (c *Compositor) summarize(ctx context.Context, kind, prompt string) (string, error) {
	if c.summarizer == nil {
		c.metrics.SummarizerCalls.WithLabelValues(kind, "skipped").Inc()
		return "", errNoSummarizer
	}
	text, err := c.summarizer.Summarize(ctx, SystemPrompt, prompt)
	if err == nil {
		text = strings.TrimSpace(text)
		if text == "" {
			err = errEmptySummary
		}
	}
	if err != nil {
		c.metrics.SummarizerCalls.WithLabelValues(kind, "error").Inc()
		c.logger.Warn("summarizer failed, using fallback", "kind", kind, "error", err)
		return "", err
	}
	c.metrics.SummarizerCalls.WithLabelValues(kind, "success").Inc()
	return text, nil
}

// RenderWarnings lays out the kept alerts, typhoons first, one line each.
func RenderWarnings(b Buckets) string {
	var lines []string
	for _, a := range b.Typhoon {
		lines = append(lines, renderAlert(a))
	}
	if len(b.Municipality) > 0 {
		lines = append(lines, municipalityHeader)
		for _, a := range b.Municipality {
			lines = append(lines, renderAlert(a))
		}
	}
	if len(b.Other) > 0 {
		lines = append(lines, otherHeader)
		for _, a := range b.Other {
			lines = append(lines, renderAlert(a))
		}
	}
	return strings.Join(lines, "\n")
}

func renderAlert(a domain.Alert) string {
	region := a.Region
	if region == "" {
		region = unknownRegion
	}
	return fmt.Sprintf("[%s] %s: %s%s", region, a.Title, a.Body, validityNote(a.Validity))
}

func validityNote(v domain.Validity) string {
	switch {
	case v.Start != "" && v.End != "":
		return fmt.Sprintf("（%s至%s）", v.Start, v.End)
	case v.Start != "":
		return fmt.Sprintf("（生效：%s）", v.Start)
	case v.End != "":
		return fmt.Sprintf("（结束：%s）", v.End)
	default:
		return ""
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
