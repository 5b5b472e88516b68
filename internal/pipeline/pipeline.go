// Package pipeline runs the scrape, clean, geocode and search steps over
// the dataset files and records each run.
package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/coworking-map/internal/model"
)

// Paths locates the dataset files.
type Paths struct {
	Raw    string
	Clean  string
	Search string
}

// RunLog records pipeline runs. store.Store satisfies it.
type RunLog interface {
	CreateRun(ctx context.Context, op model.Operation) (*model.Run, error)
	FinishRun(ctx context.Context, runID string, status model.RunStatus, stats map[string]int, runErr string) error
}

// Pipeline wires the steps to their files and collaborators.
type Pipeline struct {
	paths         Paths
	baseURL       string
	extractor     Extractor
	cleaner       *Cleaner
	geocoder      *Geocoder
	addressColumn string
	runs          RunLog
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithExtractor sets the scraper and the index page it starts from.
func WithExtractor(ex Extractor, baseURL string) Option {
	return func(p *Pipeline) {
		p.extractor = ex
		p.baseURL = baseURL
	}
}

// WithGeocoder sets the geocoder and the column holding addresses.
func WithGeocoder(g *Geocoder, addressColumn string) Option {
	return func(p *Pipeline) {
		p.geocoder = g
		p.addressColumn = addressColumn
	}
}

// WithRunLog records every run in rl.
func WithRunLog(rl RunLog) Option {
	return func(p *Pipeline) {
		p.runs = rl
	}
}

// New returns a Pipeline over paths.
func New(paths Paths, opts ...Option) *Pipeline {
	p := &Pipeline{paths: paths, cleaner: NewCleaner(), addressColumn: DefaultAddressColumn}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Paths returns the dataset file locations.
func (p *Pipeline) Paths() Paths { return p.paths }

// Scrape runs the scrape step into the raw file.
func (p *Pipeline) Scrape(ctx context.Context) (*model.Dataset, ScrapeReport, error) {
	if p.extractor == nil {
		return nil, ScrapeReport{}, eris.New("pipeline: extractor not configured")
	}
	var (
		ds     *model.Dataset
		report ScrapeReport
	)
	err := p.record(ctx, model.OperationScrape, func() (map[string]int, error) {
		var err error
		ds, report, err = Scrape(ctx, p.extractor, p.baseURL, p.paths.Raw)
		return report.Stats(), err
	})
	return ds, report, err
}

// Clean runs the clean step from the raw file into the clean file.
func (p *Pipeline) Clean(ctx context.Context) (*model.Dataset, CleanReport, error) {
	var (
		ds     *model.Dataset
		report CleanReport
	)
	err := p.record(ctx, model.OperationClean, func() (map[string]int, error) {
		var err error
		ds, report, err = p.cleaner.Clean(ctx, p.paths.Raw, p.paths.Clean)
		return report.Stats(), err
	})
	return ds, report, err
}

// Geocode fills in coordinates of the clean file.
func (p *Pipeline) Geocode(ctx context.Context) (*model.Dataset, GeocodeReport, error) {
	if p.geocoder == nil {
		return nil, GeocodeReport{}, eris.New("pipeline: geocoder not configured")
	}
	var (
		ds     *model.Dataset
		report GeocodeReport
	)
	err := p.record(ctx, model.OperationGeocode, func() (map[string]int, error) {
		var err error
		ds, report, err = p.geocoder.GeocodeFile(ctx, p.paths.Clean, p.addressColumn)
		return report.Stats(), err
	})
	return ds, report, err
}

// Search filters the clean file into the search file and state.
func (p *Pipeline) Search(ctx context.Context, query string, state *State) (*model.Dataset, error) {
	var ds *model.Dataset
	err := p.record(ctx, model.OperationSearch, func() (map[string]int, error) {
		var err error
		ds, err = SearchFile(ctx, p.paths.Clean, p.paths.Search, query, state)
		if err != nil {
			return nil, err
		}
		return map[string]int{"matches": ds.Len()}, nil
	})
	return ds, err
}

// record runs fn between a CreateRun and a FinishRun. Run log failures are
// logged and never mask the step's own result.
func (p *Pipeline) record(ctx context.Context, op model.Operation, fn func() (map[string]int, error)) error {
	if p.runs == nil {
		_, err := fn()
		return err
	}

	run, err := p.runs.CreateRun(ctx, op)
	if err != nil {
		zap.L().Warn("pipeline: create run failed", zap.String("operation", string(op)), zap.Error(err))
		_, err := fn()
		return err
	}

	stats, stepErr := fn()
	status, msg := model.RunStatusComplete, ""
	if stepErr != nil {
		status, msg = model.RunStatusFailed, stepErr.Error()
	}
	// The step's ctx may be cancelled; the run still needs closing.
	if err := p.runs.FinishRun(context.WithoutCancel(ctx), run.ID, status, stats, msg); err != nil {
		zap.L().Warn("pipeline: finish run failed", zap.String("run_id", run.ID), zap.Error(err))
	}
	return stepErr
}
