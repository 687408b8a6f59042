// Package feed publishes the digest as a single-item RSS 2.0 document.
package feed

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/weather-digest-service/internal/domain"
)

const (
	DefaultPath          = "docs/weather.xml"
	DefaultLink          = "https://eliu-lotso.github.io/qweather/weather.xml"
	DefaultForecastHours = 15

	channelTitle       = "天气快讯"
	channelDescription = "台北新北天气、大雨城市与预警"
	atomNamespace      = "http://www.w3.org/2005/Atom"
)

type rss struct {
	XMLName xml.Name `xml:"rss"`
	Version string   `xml:"version,attr"`
	AtomNS  string   `xml:"xmlns:atom,attr"`
	Channel channel  `xml:"channel"`
}

type channel struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description string   `xml:"description"`
	AtomLink    atomLink `xml:"atom:link"`
	Item        item     `xml:"item"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type item struct {
	Title       string `xml:"title"`
	PubDate     string `xml:"pubDate"`
	GUID        guid   `xml:"guid"`
	Description cdata  `xml:"description"`
}

type guid struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type cdata struct {
	Value string `xml:",cdata"`
}

// Writer replaces the feed file on every run.
type Writer struct {
	path  string
	link  string
	hours int
}

// NewWriter creates a feed writer. Empty values take the package defaults.
func NewWriter(path, link string, forecastHours int) *Writer {
	if path == "" {
		path = DefaultPath
	}
	if link == "" {
		link = DefaultLink
	}
	if forecastHours <= 0 {
		forecastHours = DefaultForecastHours
	}
	return &Writer{path: path, link: link, hours: forecastHours}
}

// Path returns the file the feed is written to.
func (w *Writer) Path() string {
	return w.path
}

// Write renders one item from title and body and atomically replaces the
// feed file. Newlines in body become <br>.
func (w *Writer) Write(title, body string) error {
	data, err := w.Render(title, body)
	if err != nil {
		return err
	}
	return writeAtomic(w.path, data)
}

// Render returns the feed document without writing it.
func (w *Writer) Render(title, body string) ([]byte, error) {
	now := domain.Now().UTC()
	doc := rss{
		Version: "2.0",
		AtomNS:  atomNamespace,
		Channel: channel{
			Title:       channelTitle,
			Link:        w.link,
			Description: channelDescription,
			AtomLink:    atomLink{Href: w.link, Rel: "self", Type: "application/rss+xml"},
			Item: item{
				Title:       fmt.Sprintf("%s（未来 %d 小时预报）", title, w.hours),
				PubDate:     now.Format("Mon, 02 Jan 2006 15:04:05 GMT"),
				GUID:        guid{IsPermaLink: "false", Value: "weather-" + now.Format("20060102T150405")},
				Description: cdata{Value: strings.ReplaceAll(body, "\n", "<br>")},
			},
		},
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal feed: %w", err)
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create feed dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".feed-*.xml")
	if err != nil {
		return fmt.Errorf("create temp feed: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck,gosec // write error takes precedence
		return fmt.Errorf("write temp feed: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp feed: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil { //nolint:gosec // the feed is public
		return fmt.Errorf("chmod feed: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace feed: %w", err)
	}
	return nil
}
