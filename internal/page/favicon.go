package page

import (
	"fmt"
	"net/url"
	"strings"
)

const faviconServiceFormat = "https://www.google.com/s2/favicons?domain=%s&sz=64"

// FaviconURL derives a favicon-service URL from a link's target. It returns
// false when the target is malformed or carries no hostname; callers render
// the bundled default asset instead.
func FaviconURL(rawURL string) (string, bool) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", false
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", false
	}

	host := parsed.Hostname()
	if host == "" {
		return "", false
	}

	return fmt.Sprintf(faviconServiceFormat, host), true
}
