package http

import (
	"fmt"
	"net/url"
	"strings"
)

// BuildURL appends path to baseURL, keeping any path prefix the base already
// carries (e.g. an ERP served under /odoo), and sets queryParams.
func BuildURL(baseURL, path string, queryParams map[string]string) (string, error) {
	parsedURL, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("error parsing base URL: %w", err)
	}

	parsedURL = parsedURL.JoinPath(path)

	if len(queryParams) > 0 {
		q := url.Values{}
		for key, value := range queryParams {
			q.Set(key, value)
		}
		parsedURL.RawQuery = q.Encode()
	}

	return parsedURL.String(), nil
}
