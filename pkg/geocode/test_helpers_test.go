package geocode

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

// newJSONServer serves body with status for every request and counts hits.
func newJSONServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

// newRewriteClient creates an HTTP client that rewrites requests to a test server URL.
// All requests matching the target prefix are redirected to the test server.
func newRewriteClient(testServerURL, targetPrefix string) *http.Client {
	return &http.Client{
		Transport: &rewriteTransport{
			base:         http.DefaultTransport,
			testServer:   testServerURL,
			targetPrefix: targetPrefix,
		},
	}
}

type rewriteTransport struct {
	base         http.RoundTripper
	testServer   string
	targetPrefix string
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	origURL := req.URL.String()
	if strings.HasPrefix(origURL, t.targetPrefix) {
		newReq := req.Clone(req.Context())
		parsed, err := req.URL.Parse(t.testServer + origURL[len(t.targetPrefix):])
		if err != nil {
			return nil, err
		}
		newReq.URL = parsed
		newReq.Host = parsed.Host
		return t.base.RoundTrip(newReq)
	}
	return t.base.RoundTrip(req)
}

// scriptedClient returns the queued responses in order, then repeats the last.
type scriptedClient struct {
	mu        sync.Mutex
	name      string
	responses []scripted
	calls     int
	queries   []string
}

type scripted struct {
	result *Result
	err    error
}

func (s *scriptedClient) Name() string { return s.name }

func (s *scriptedClient) Geocode(_ context.Context, query string) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
	i := s.calls
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	s.calls++
	r := s.responses[i]
	return r.result, r.err
}

func (s *scriptedClient) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// memCache is an in-memory Cache.
type memCache struct {
	mu      sync.Mutex
	entries map[string]Result
	getErr  error
	puts    int
}

func newMemCache() *memCache { return &memCache{entries: make(map[string]Result)} }

func (m *memCache) GetGeocode(_ context.Context, key string) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	r, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *memCache) PutGeocode(_ context.Context, key, _ string, result Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = result
	m.puts++
	return nil
}
