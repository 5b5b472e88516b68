// Package scrape extracts coworking listings from the directory site: a list
// of detail-page links from the index page, then one labelled record per
// detail page.
package scrape

import (
	"net"
	"net/http"
	"time"
)

// Default fetch settings.
const (
	DefaultBaseURL   = "https://www.leportagesalarial.com/coworking/"
	DefaultUserAgent = "Mozilla/5.0 (compatible; coworking-map/1.0)"
	DefaultTimeout   = 15 * time.Second

	// containerSelector wraps the article body on both index and detail pages.
	containerSelector = "div.inner-post-entry"

	maxBodyBytes = 2 << 20
)

// LinkMode selects how relative hrefs on the index page become absolute.
type LinkMode string

const (
	// LinkResolve applies RFC 3986 reference resolution against the base URL.
	LinkResolve LinkMode = "resolve"
	// LinkPrefix concatenates base URL and href as plain strings. A base with
	// a trailing slash and an href with a leading one yield "//".
	LinkPrefix LinkMode = "prefix"
)

// ParseLinkMode maps a config value to a LinkMode, defaulting to LinkResolve.
func ParseLinkMode(s string) LinkMode {
	if LinkMode(s) == LinkPrefix {
		return LinkPrefix
	}
	return LinkResolve
}

// Report summarizes a listing extraction pass.
type Report struct {
	Requested   int `json:"requested"`
	Extracted   int `json:"extracted"`
	FetchFailed int `json:"fetch_failed"`
	NoContainer int `json:"no_container"`
}

// Skipped is the number of requested pages that produced no listing.
func (r Report) Skipped() int {
	return r.FetchFailed + r.NoContainer
}

// Extractor fetches and parses directory pages.
type Extractor struct {
	client    *http.Client
	userAgent string
	linkMode  LinkMode
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(e *Extractor) {
		if hc != nil {
			e.client = hc
		}
	}
}

// WithUserAgent sets the User-Agent sent on every request.
func WithUserAgent(ua string) Option {
	return func(e *Extractor) {
		if ua != "" {
			e.userAgent = ua
		}
	}
}

// WithTimeout sets the per-request timeout. The client is copied so a
// client passed to WithHTTPClient is left untouched.
func WithTimeout(d time.Duration) Option {
	return func(e *Extractor) {
		if d > 0 {
			hc := *e.client
			hc.Timeout = d
			e.client = &hc
		}
	}
}

// WithLinkMode sets how relative index links are made absolute.
func WithLinkMode(m LinkMode) Option {
	return func(e *Extractor) {
		e.linkMode = m
	}
}

// NewExtractor creates an Extractor with sensible defaults.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		client: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		userAgent: DefaultUserAgent,
		linkMode:  LinkResolve,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}
