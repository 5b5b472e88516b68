package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/coworking-map/internal/dataset"
	"github.com/sells-group/coworking-map/internal/model"
	"github.com/sells-group/coworking-map/internal/scrape"
)

// listing builds a row from url, name and address; "" leaves a field absent.
func listing(url, name, address string) model.Listing {
	l := model.NewListing(url)
	l.Name = model.ParseText(name)
	l.Address = model.ParseText(address)
	return l
}

func writeDataset(t *testing.T, path string, columns []string, rows ...model.Listing) {
	t.Helper()
	require.NoError(t, dataset.Write(path, model.NewDataset(columns, rows)))
}

func readDataset(t *testing.T, path string) *model.Dataset {
	t.Helper()
	ds, err := dataset.Read(path)
	require.NoError(t, err)
	return ds
}

func testPaths(t *testing.T) Paths {
	dir := t.TempDir()
	return Paths{
		Raw:    filepath.Join(dir, "coworking_info.csv"),
		Clean:  filepath.Join(dir, "coworking_info_cleaned.csv"),
		Search: filepath.Join(dir, "search.csv"),
	}
}

// fakeExtractor returns canned links and listings.
type fakeExtractor struct {
	links    []string
	linksErr error
	listings []model.Listing
	report   scrape.Report
	err      error
	gotURLs  []string
}

func (f *fakeExtractor) ExtractLinks(_ context.Context, _ string) ([]string, error) {
	return f.links, f.linksErr
}

func (f *fakeExtractor) ExtractListings(_ context.Context, urls []string) ([]model.Listing, scrape.Report, error) {
	f.gotURLs = urls
	return f.listings, f.report, f.err
}

// memRunLog records runs in memory.
type memRunLog struct {
	runs     []model.Run
	finished map[string]model.RunStatus
	errs     map[string]string
}

func newMemRunLog() *memRunLog {
	return &memRunLog{finished: map[string]model.RunStatus{}, errs: map[string]string{}}
}

func (m *memRunLog) CreateRun(_ context.Context, op model.Operation) (*model.Run, error) {
	r := model.Run{ID: string(op) + "-" + string(rune('0'+len(m.runs))), Operation: op, Status: model.RunStatusRunning}
	m.runs = append(m.runs, r)
	return &r, nil
}

func (m *memRunLog) FinishRun(_ context.Context, id string, status model.RunStatus, _ map[string]int, runErr string) error {
	m.finished[id] = status
	m.errs[id] = runErr
	return nil
}
