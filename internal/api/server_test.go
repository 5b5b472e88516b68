package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/coworking-map/internal/dataset"
	"github.com/sells-group/coworking-map/internal/model"
	"github.com/sells-group/coworking-map/internal/pipeline"
	"github.com/sells-group/coworking-map/internal/resilience"
	"github.com/sells-group/coworking-map/internal/scrape"
	"github.com/sells-group/coworking-map/internal/store"
	"github.com/sells-group/coworking-map/pkg/geocode"
)

type fakeExtractor struct {
	listings []model.Listing
}

func (f *fakeExtractor) ExtractLinks(_ context.Context, _ string) ([]string, error) {
	links := make([]string, 0, len(f.listings))
	for _, l := range f.listings {
		links = append(links, l.Key())
	}
	return links, nil
}

func (f *fakeExtractor) ExtractListings(_ context.Context, urls []string) ([]model.Listing, scrape.Report, error) {
	return f.listings, scrape.Report{Requested: len(urls), Extracted: len(f.listings)}, nil
}

func listing(url, name, address string) model.Listing {
	l := model.NewListing(url)
	l.Name = model.Some(name)
	l.Address = model.Some(address)
	return l
}

type harness struct {
	srv   *httptest.Server
	paths pipeline.Paths
	calls *atomic.Int32
	runs  *store.SQLiteStore
}

func newHarness(t *testing.T, client geocode.Client) *harness {
	t.Helper()
	dir := t.TempDir()
	paths := pipeline.Paths{
		Raw:    filepath.Join(dir, "coworking_info.csv"),
		Clean:  filepath.Join(dir, "coworking_info_cleaned.csv"),
		Search: filepath.Join(dir, "search.csv"),
	}

	calls := &atomic.Int32{}
	if client == nil {
		client = geocode.ClientFunc(func(_ context.Context, query string) (*geocode.Result, error) {
			calls.Add(1)
			return &geocode.Result{Latitude: 48.86, Longitude: 2.34, Matched: true, Source: "test"}, nil
		})
	}

	st, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close() }) //nolint:errcheck

	ex := &fakeExtractor{listings: []model.Listing{
		listing("https://example.com/alpha", "Alpha Coworking", "1 rue de Rivoli, Paris"),
		listing("https://example.com/beta", "Béta Space", "2 avenue de l'Opéra, Paris"),
	}}
	p := pipeline.New(paths,
		pipeline.WithExtractor(ex, "https://example.com/"),
		pipeline.WithGeocoder(pipeline.NewGeocoder(client), ""),
		pipeline.WithRunLog(st),
	)

	srv := httptest.NewServer(NewServer(p, WithRuns(st)).Handler())
	t.Cleanup(srv.Close)
	return &harness{srv: srv, paths: paths, calls: calls, runs: st}
}

func (h *harness) do(t *testing.T, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, h.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	var out map[string]any
	if resp.Header.Get("Content-Type") == "application/json" {
		_ = json.NewDecoder(resp.Body).Decode(&out)
	}
	return resp, out
}

func TestHealth(t *testing.T) {
	h := newHarness(t, nil)
	resp, body := h.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestFullFlow(t *testing.T) {
	h := newHarness(t, nil)

	resp, body := h.do(t, http.MethodPost, "/scrape", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, body["rows"])
	assert.True(t, dataset.Exists(h.paths.Raw))

	resp, body = h.do(t, http.MethodPost, "/clean", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, body["rows"])

	resp, body = h.do(t, http.MethodGet, "/datasets/clean", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, body["count"])
	rows := body["rows"].([]any)
	assert.Equal(t, "Beta Space", rows[1].(map[string]any)["Nom"])

	resp, body = h.do(t, http.MethodPost, "/geocode", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	report := body["report"].(map[string]any)
	assert.EqualValues(t, 2, report["resolved"])
	assert.EqualValues(t, 2, h.calls.Load())

	resp, body = h.do(t, http.MethodGet, "/map", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "FeatureCollection", body["type"])
	assert.Len(t, body["features"], 2)
	assert.Empty(t, resp.Header.Get("X-Map-Notice"))

	resp, body = h.do(t, http.MethodPost, "/search", `{"query":"ALPHA"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	results := body["results"].(map[string]any)
	assert.EqualValues(t, 1, results["count"])
	assert.True(t, dataset.Exists(h.paths.Search))

	resp, body = h.do(t, http.MethodGet, "/map/search", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["features"], 1)

	resp, _ = h.do(t, http.MethodGet, "/runs?operation=geocode", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	runs, err := h.runs.ListRuns(context.Background(), store.RunFilter{})
	require.NoError(t, err)
	assert.Len(t, runs, 4)
}

func TestRuns_Filter(t *testing.T) {
	h := newHarness(t, nil)
	h.do(t, http.MethodPost, "/scrape", "")
	h.do(t, http.MethodPost, "/clean", "")

	req, err := http.NewRequest(http.MethodGet, h.srv.URL+"/runs?operation=clean", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	var runs []model.Run
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&runs))
	require.Len(t, runs, 1)
	assert.Equal(t, model.OperationClean, runs[0].Operation)
	assert.Equal(t, model.RunStatusComplete, runs[0].Status)

	resp2, _ := h.do(t, http.MethodGet, "/runs?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}

func TestStatus(t *testing.T) {
	h := newHarness(t, nil)
	h.do(t, http.MethodPost, "/scrape", "")
	h.do(t, http.MethodPost, "/clean", "")
	h.do(t, http.MethodPost, "/geocode", "")
	h.do(t, http.MethodPost, "/clean?again", "")

	resp, body := h.do(t, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 4, body["total"])
	assert.EqualValues(t, 1, body["geocode_hit_rate"])
	ops := body["operations"].(map[string]any)
	assert.EqualValues(t, 2, ops["clean"].(map[string]any)["total"])

	resp, _ = h.do(t, http.MethodGet, "/status?hours=-1", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMissingPrerequisites(t *testing.T) {
	tests := []struct {
		method, path, body, want string
	}{
		{http.MethodPost, "/clean", "", "run scrape first"},
		{http.MethodPost, "/geocode", "", "run clean first"},
		{http.MethodPost, "/search", `{"query":"x"}`, "run clean first"},
		{http.MethodGet, "/map", "", "run clean first"},
		{http.MethodGet, "/map/search", "", "run search first"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			h := newHarness(t, nil)
			resp, body := h.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusConflict, resp.StatusCode)
			assert.Contains(t, body["error"], tt.want)
		})
	}
}

func TestGeocode_EmptyDatasetConflict(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, dataset.Write(h.paths.Clean, model.NewDataset(model.RawColumns, nil)))

	resp, _ := h.do(t, http.MethodPost, "/geocode", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Zero(t, h.calls.Load())
}

func TestGeocode_CriticalIsBadGateway(t *testing.T) {
	client := geocode.ClientFunc(func(_ context.Context, _ string) (*geocode.Result, error) {
		return nil, resilience.NewCriticalError(assert.AnError, http.StatusForbidden)
	})
	h := newHarness(t, client)
	h.do(t, http.MethodPost, "/scrape", "")
	h.do(t, http.MethodPost, "/clean", "")

	resp, body := h.do(t, http.MethodPost, "/geocode", "")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, body["error"], "geocode aborted")
}

func TestMap_NotGeocodedConflict(t *testing.T) {
	h := newHarness(t, nil)
	h.do(t, http.MethodPost, "/scrape", "")
	h.do(t, http.MethodPost, "/clean", "")

	resp, _ := h.do(t, http.MethodGet, "/map", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestMap_NoGeocodedData(t *testing.T) {
	client := geocode.ClientFunc(func(_ context.Context, _ string) (*geocode.Result, error) {
		return &geocode.Result{Matched: false}, nil
	})
	h := newHarness(t, client)
	h.do(t, http.MethodPost, "/scrape", "")
	h.do(t, http.MethodPost, "/clean", "")
	h.do(t, http.MethodPost, "/geocode", "")

	resp, body := h.do(t, http.MethodGet, "/map", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no geocoded data", resp.Header.Get("X-Map-Notice"))
	assert.Empty(t, body["features"])
}

func TestSearchMap_FallsBackToFile(t *testing.T) {
	h := newHarness(t, nil)
	l := listing("https://example.com/x", "X", "Paris")
	l.SetCoordinates(48.8, 2.3)
	ds := model.NewDataset(model.RawColumns, []model.Listing{l})
	ds.EnsureCoordinateColumns()
	require.NoError(t, dataset.Write(h.paths.Search, ds))

	resp, body := h.do(t, http.MethodGet, "/map/search", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["features"], 1)
}

func TestSearch_BadBody(t *testing.T) {
	h := newHarness(t, nil)
	resp, _ := h.do(t, http.MethodPost, "/search", "{not json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSearch_EmptyBodyMatchesAll(t *testing.T) {
	h := newHarness(t, nil)
	h.do(t, http.MethodPost, "/scrape", "")
	h.do(t, http.MethodPost, "/clean", "")

	resp, body := h.do(t, http.MethodPost, "/search", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, body["results"].(map[string]any)["count"])
}

func TestDatasets(t *testing.T) {
	h := newHarness(t, nil)

	resp, _ := h.do(t, http.MethodGet, "/datasets/raw", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = h.do(t, http.MethodGet, "/datasets/other", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	h.do(t, http.MethodPost, "/scrape", "")
	resp, body := h.do(t, http.MethodGet, "/datasets/raw", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{"URL", "Nom", "Adresse", "Téléphone", "Site web", "Accès métro"}, body["columns"])
}

func TestCORSPreflight(t *testing.T) {
	h := newHarness(t, nil)
	req, err := http.NewRequest(http.MethodOptions, h.srv.URL+"/search", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRuns_NotConfigured(t *testing.T) {
	p := pipeline.New(pipeline.Paths{})
	srv := httptest.NewServer(NewServer(p).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/runs")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusConflict, statusFor(pipeline.ErrEmptyDataset))
	assert.Equal(t, http.StatusNotFound, statusFor(dataset.ErrNotFound))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(context.Canceled))
	assert.Equal(t, http.StatusGatewayTimeout, statusFor(context.DeadlineExceeded))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}
