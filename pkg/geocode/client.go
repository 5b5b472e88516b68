// Package geocode resolves free-text postal addresses to coordinates via
// Nominatim (primary) and Google (optional fallback), with rate limiting,
// retries and a pluggable result cache.
package geocode

import (
	"context"
	"net/http"
	"time"
)

// Client resolves a free-text address.
type Client interface {
	// Geocode resolves query. An address with no match is not an error: the
	// result has Matched=false.
	Geocode(ctx context.Context, query string) (*Result, error)
}

// Result holds the geocoding output for an address.
type Result struct {
	Latitude    float64
	Longitude   float64
	DisplayName string
	Source      string // "nominatim" or "google"
	Matched     bool
	Cached      bool
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, query string) (*Result, error)

// Geocode implements Client.
func (f ClientFunc) Geocode(ctx context.Context, query string) (*Result, error) {
	return f(ctx, query)
}

// DefaultUserAgent identifies this application to geocoding services.
// Nominatim's usage policy rejects requests without one.
const DefaultUserAgent = "coworking-map"

// Option configures the HTTP-backed providers.
type Option func(*options)

type options struct {
	httpClient   *http.Client
	baseURL      string
	userAgent    string
	countryCodes string
	language     string
}

func newOptions(baseURL string, opts []Option) options {
	o := options{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		userAgent:  DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		if hc != nil {
			o.httpClient = hc
		}
	}
}

// WithBaseURL overrides the provider endpoint.
func WithBaseURL(u string) Option {
	return func(o *options) {
		if u != "" {
			o.baseURL = u
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		if ua != "" {
			o.userAgent = ua
		}
	}
}

// WithCountryCodes restricts matches to the given ISO 3166-1 alpha-2 codes
// (comma separated, e.g. "fr").
func WithCountryCodes(codes string) Option {
	return func(o *options) {
		o.countryCodes = codes
	}
}

// WithLanguage sets the preferred language of returned place names.
func WithLanguage(lang string) Option {
	return func(o *options) {
		o.language = lang
	}
}
