// Package meta fetches lightweight metadata about a link's target, used to
// autofill the title of newly added links.
package meta

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

const (
	defaultFetchTimeout = 5 * time.Second
	maxBodyBytes        = 512 * 1024
)

// Fetcher resolves the document title behind a URL.
type Fetcher struct {
	client *resty.Client
	logger *logrus.Logger
}

// NewFetcher constructs a Fetcher with a short timeout; title autofill must
// never hold up an edit request for long.
func NewFetcher(logger *logrus.Logger, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}

	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", "linkleaf/1.0 (+link title autofill)").
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))

	return &Fetcher{client: client, logger: logger}
}

// Title fetches the target document and extracts its <title>. It falls back
// to the URL's hostname when the fetch or parse fails, so callers always get
// something presentable.
func (f *Fetcher) Title(ctx context.Context, rawURL string) string {
	trimmed := strings.TrimSpace(rawURL)

	title, err := f.fetchTitle(ctx, trimmed)
	if err == nil && title != "" {
		return title
	}

	if err != nil && f.logger != nil {
		f.logger.WithFields(logrus.Fields{
			"url":   trimmed,
			"error": err.Error(),
		}).Debug("title autofill failed, falling back to hostname")
	}

	if parsed, parseErr := url.Parse(trimmed); parseErr == nil && parsed.Hostname() != "" {
		return parsed.Hostname()
	}

	return trimmed
}

func (f *Fetcher) fetchTitle(ctx context.Context, rawURL string) (string, error) {
	if rawURL == "" {
		return "", eris.New("url is required")
	}

	resp, err := f.client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return "", eris.Wrapf(err, "fetching %s", rawURL)
	}

	if resp.IsError() {
		return "", eris.Errorf("fetching %s: status %d", rawURL, resp.StatusCode())
	}

	body := resp.Body()
	if len(body) > maxBodyBytes {
		body = body[:maxBodyBytes]
	}

	return extractTitle(body)
}

func extractTitle(body []byte) (string, error) {
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return "", eris.Wrap(err, "parsing document")
	}

	title := findTitle(doc)
	if title == "" {
		return "", eris.New("document has no title")
	}

	return title, nil
}

func findTitle(node *html.Node) string {
	if node.Type == html.ElementNode && strings.EqualFold(node.Data, "title") {
		var builder strings.Builder
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			if child.Type == html.TextNode {
				builder.WriteString(child.Data)
			}
		}
		return strings.Join(strings.Fields(builder.String()), " ")
	}

	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if title := findTitle(child); title != "" {
			return title
		}
	}

	return ""
}
