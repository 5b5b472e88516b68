package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/coworking-map/internal/resilience"
)

// NominatimSearchURL is the public OpenStreetMap search endpoint.
const NominatimSearchURL = "https://nominatim.openstreetmap.org/search"

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Nominatim geocodes addresses with an OpenStreetMap Nominatim server.
type Nominatim struct {
	opts options
}

// NewNominatim creates a Nominatim client.
func NewNominatim(opts ...Option) *Nominatim {
	return &Nominatim{opts: newOptions(NominatimSearchURL, opts)}
}

// Name identifies the provider.
func (n *Nominatim) Name() string { return "nominatim" }

// Geocode implements Client.
func (n *Nominatim) Geocode(ctx context.Context, query string) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return &Result{Matched: false, Source: "nominatim"}, nil
	}

	params := url.Values{
		"q":      {query},
		"format": {"jsonv2"},
		"limit":  {"1"},
	}
	if n.opts.countryCodes != "" {
		params.Set("countrycodes", n.opts.countryCodes)
	}
	if n.opts.language != "" {
		params.Set("accept-language", n.opts.language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.opts.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim build request")
	}
	req.Header.Set("User-Agent", n.opts.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.opts.httpClient.Do(req)
	if err != nil {
		return nil, transportError(ctx, err, "geocode: nominatim request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, resilience.StatusError("geocode: nominatim", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "geocode: nominatim read body"), 0)
	}

	var places []nominatimPlace
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim parse response")
	}
	if len(places) == 0 {
		return &Result{Matched: false, Source: "nominatim"}, nil
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: nominatim parse lat %q", places[0].Lat)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: nominatim parse lon %q", places[0].Lon)
	}

	return &Result{
		Latitude:    lat,
		Longitude:   lon,
		DisplayName: places[0].DisplayName,
		Source:      "nominatim",
		Matched:     true,
	}, nil
}

// transportError classifies a failed round trip: cancellation is critical,
// anything else at the network layer is worth retrying.
func transportError(ctx context.Context, err error, msg string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return resilience.NewCriticalError(eris.Wrap(ctxErr, msg), 0)
	}
	return resilience.NewTransientError(eris.Wrap(err, msg), 0)
}
