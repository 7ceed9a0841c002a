package feed

import (
	"errors"
	"net/http"
)

type Option func(*Client) error

// WithHTTPClient replaces the HTTP client used for uploads.
// Its Timeout should stay zero; the per-upload timeout is applied separately.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) error {
		if httpClient == nil {
			return errors.New("feed: http client cannot be nil")
		}
		c.httpClient = httpClient
		return nil
	}
}

// WithUserAgent overrides the User-Agent header sent with every push.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) error {
		c.userAgent = userAgent
		return nil
	}
}
