package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/coworking-map/internal/resilience"
)

// GoogleGeocodeURL is the Google Geocoding API endpoint.
const GoogleGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

// googleGeocodeResponse is the JSON response from the Google Geocoding API.
type googleGeocodeResponse struct {
	Results      []googleResult `json:"results"`
	Status       string         `json:"status"`
	ErrorMessage string         `json:"error_message"`
}

type googleResult struct {
	Geometry struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	FormattedAddress string `json:"formatted_address"`
}

// Google geocodes addresses using the Google Geocoding API.
type Google struct {
	key  string
	opts options
}

// NewGoogle creates a Google client authenticated with key.
func NewGoogle(key string, opts ...Option) *Google {
	return &Google{key: key, opts: newOptions(GoogleGeocodeURL, opts)}
}

// Name identifies the provider.
func (g *Google) Name() string { return "google" }

// Available reports whether an API key is configured.
func (g *Google) Available() bool { return g.key != "" }

// Geocode implements Client.
func (g *Google) Geocode(ctx context.Context, query string) (*Result, error) {
	if g.key == "" {
		return nil, eris.New("geocode: google api key not configured")
	}

	params := url.Values{
		"address": {strings.TrimSpace(query)},
		"key":     {g.key},
	}
	if g.opts.countryCodes != "" {
		params.Set("components", "country:"+strings.ToUpper(g.opts.countryCodes))
	}
	if g.opts.language != "" {
		params.Set("language", g.opts.language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.opts.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: google build request")
	}
	req.Header.Set("User-Agent", g.opts.userAgent)

	resp, err := g.opts.httpClient.Do(req)
	if err != nil {
		return nil, transportError(ctx, err, "geocode: google request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, resilience.StatusError("geocode: google", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "geocode: google read body"), 0)
	}

	var googleResp googleGeocodeResponse
	if err := json.Unmarshal(body, &googleResp); err != nil {
		return nil, eris.Wrap(err, "geocode: google parse response")
	}

	switch googleResp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return &Result{Matched: false, Source: "google"}, nil
	case "OVER_QUERY_LIMIT", "UNKNOWN_ERROR":
		return nil, resilience.NewTransientError(
			eris.Errorf("geocode: google status %s: %s", googleResp.Status, googleResp.ErrorMessage), http.StatusOK)
	case "REQUEST_DENIED", "OVER_DAILY_LIMIT":
		return nil, resilience.NewCriticalError(
			eris.Errorf("geocode: google status %s: %s", googleResp.Status, googleResp.ErrorMessage), http.StatusOK)
	default:
		return nil, eris.Errorf("geocode: google status %s: %s", googleResp.Status, googleResp.ErrorMessage)
	}

	if len(googleResp.Results) == 0 {
		return &Result{Matched: false, Source: "google"}, nil
	}

	result := googleResp.Results[0]
	return &Result{
		Latitude:    result.Geometry.Location.Lat,
		Longitude:   result.Geometry.Location.Lng,
		DisplayName: result.FormattedAddress,
		Source:      "google",
		Matched:     true,
	}, nil
}
