package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/coworking-map/internal/dataset"
	"github.com/sells-group/coworking-map/internal/model"
	"github.com/sells-group/coworking-map/internal/scrape"
)

// Extractor is the scraping surface used by the pipeline.
type Extractor interface {
	ExtractLinks(ctx context.Context, baseURL string) ([]string, error)
	ExtractListings(ctx context.Context, urls []string) ([]model.Listing, scrape.Report, error)
}

// ScrapeReport summarizes a scrape.
type ScrapeReport struct {
	Links int `json:"links"`
	scrape.Report
}

// Stats flattens the report for the run log.
func (r ScrapeReport) Stats() map[string]int {
	return map[string]int{
		"links": r.Links, "extracted": r.Extracted,
		"fetch_failed": r.FetchFailed, "no_container": r.NoContainer,
	}
}

// Scrape collects the detail links from baseURL, extracts one listing per
// link and writes the raw dataset to rawPath. When no link is found nothing
// is written and the returned dataset is empty.
func Scrape(ctx context.Context, ex Extractor, baseURL, rawPath string) (*model.Dataset, ScrapeReport, error) {
	links, err := ex.ExtractLinks(ctx, baseURL)
	if err != nil {
		return nil, ScrapeReport{}, err
	}
	report := ScrapeReport{Links: len(links)}
	if len(links) == 0 {
		zap.L().Warn("pipeline: no links found", zap.String("url", baseURL))
		return model.NewDataset(model.RawColumns, nil), report, nil
	}

	listings, extracted, err := ex.ExtractListings(ctx, links)
	report.Report = extracted
	if err != nil {
		return nil, report, err
	}

	ds := model.NewDataset(model.RawColumns, listings)
	if err := dataset.Write(rawPath, ds); err != nil {
		return nil, report, err
	}

	zap.L().Info("pipeline: raw dataset written",
		zap.String("path", rawPath),
		zap.Int("links", report.Links),
		zap.Int("rows", ds.Len()),
		zap.Int("skipped", extracted.Skipped()),
	)
	return ds, report, nil
}
