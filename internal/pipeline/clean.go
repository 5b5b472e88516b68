package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/coworking-map/internal/dataset"
	"github.com/sells-group/coworking-map/internal/model"
	"github.com/sells-group/coworking-map/internal/normalize"
)

// CleanReport summarizes a cleaning pass.
type CleanReport struct {
	Read       int `json:"read"`
	Kept       int `json:"kept"`
	Invalid    int `json:"invalid"`
	Duplicates int `json:"duplicates"`
}

// Stats flattens the report for the run log.
func (r CleanReport) Stats() map[string]int {
	return map[string]int{"read": r.Read, "kept": r.Kept, "invalid": r.Invalid, "duplicates": r.Duplicates}
}

// Cleaner turns the raw scrape into the clean dataset.
type Cleaner struct{}

// NewCleaner returns a Cleaner.
func NewCleaner() *Cleaner { return &Cleaner{} }

// Clean reads rawPath, normalizes and filters it, and writes the result to
// cleanPath. A missing raw file is a PrerequisiteError naming the scrape step.
func (c *Cleaner) Clean(ctx context.Context, rawPath, cleanPath string) (*model.Dataset, CleanReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, CleanReport{}, err
	}

	raw, err := readInput(rawPath, model.OperationScrape)
	if err != nil {
		return nil, CleanReport{}, err
	}

	clean, report := CleanDataset(raw)
	if err := dataset.Write(cleanPath, clean); err != nil {
		return nil, report, err
	}

	zap.L().Info("pipeline: dataset cleaned",
		zap.String("path", cleanPath),
		zap.Int("read", report.Read),
		zap.Int("kept", report.Kept),
		zap.Int("invalid", report.Invalid),
		zap.Int("duplicates", report.Duplicates),
	)
	return clean, report, nil
}

// CleanDataset strips diacritics from the header and every cell, drops rows
// missing URL, Name or Address, and keeps only the first row per URL.
func CleanDataset(raw *model.Dataset) (*model.Dataset, CleanReport) {
	report := CleanReport{Read: raw.Len()}
	out := model.NewDataset(normalize.Strings(raw.Columns), make([]model.Listing, 0, raw.Len()))

	seen := make(map[string]bool, raw.Len())
	for _, row := range raw.Rows {
		l := normalizeListing(row)
		if !l.Valid() {
			report.Invalid++
			continue
		}
		if seen[l.Key()] {
			report.Duplicates++
			continue
		}
		seen[l.Key()] = true
		out.Rows = append(out.Rows, l)
	}
	report.Kept = out.Len()
	return out, report
}

func normalizeListing(l model.Listing) model.Listing {
	n := l.Clone()
	n.URL = n.URL.Map(normalize.Text)
	n.Name = n.Name.Map(normalize.Text)
	n.Address = n.Address.Map(normalize.Text)
	n.Phone = n.Phone.Map(normalize.Text)
	n.Website = n.Website.Map(normalize.Text)
	n.MetroAccess = n.MetroAccess.Map(normalize.Text)
	if l.Extra != nil {
		// Keys follow the normalized header.
		n.Extra = make(map[string]string, len(l.Extra))
		for k, v := range l.Extra {
			n.Extra[normalize.Text(k)] = normalize.Text(v)
		}
	}
	return n
}
