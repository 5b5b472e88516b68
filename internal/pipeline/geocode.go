package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/coworking-map/internal/dataset"
	"github.com/sells-group/coworking-map/internal/model"
	"github.com/sells-group/coworking-map/internal/resilience"
	"github.com/sells-group/coworking-map/pkg/geocode"
)

// DefaultAddressColumn is the column geocoded when none is configured.
const DefaultAddressColumn = model.ColumnAddress

// GeocodeReport summarizes a geocoding pass.
type GeocodeReport struct {
	Total    int  `json:"total"`
	Skipped  int  `json:"skipped"`
	Resolved int  `json:"resolved"`
	NotFound int  `json:"not_found"`
	Failed   int  `json:"failed"`
	Aborted  bool `json:"aborted"`
}

// Stats flattens the report for the run log.
func (r GeocodeReport) Stats() map[string]int {
	return map[string]int{
		"total": r.Total, "skipped": r.Skipped, "resolved": r.Resolved,
		"not_found": r.NotFound, "failed": r.Failed,
	}
}

// Geocoder fills in missing coordinates.
type Geocoder struct {
	client geocode.Client
}

// NewGeocoder returns a Geocoder resolving addresses with client. Throttling,
// retries and caching are the client's concern.
func NewGeocoder(client geocode.Client) *Geocoder {
	return &Geocoder{client: client}
}

// Run resolves every row of ds lacking coordinates, in order, and writes the
// result back into ds keyed by URL. Rows that already carry both coordinates
// are never sent upstream. Per-row failures are logged and counted. A
// critical error or context cancellation stops the pass: ds keeps every
// coordinate resolved so far and the error is returned.
func (g *Geocoder) Run(ctx context.Context, ds *model.Dataset, addressColumn string) (GeocodeReport, error) {
	if addressColumn == "" {
		addressColumn = DefaultAddressColumn
	}
	ds.EnsureCoordinateColumns()

	report := GeocodeReport{Total: ds.Len()}
	// Snapshot keys and addresses so updates never alias the loop.
	type pending struct {
		key     string
		address model.Text
	}
	var todo []pending
	for _, row := range ds.Rows {
		if row.HasCoordinates() {
			report.Skipped++
			continue
		}
		todo = append(todo, pending{key: row.Key(), address: row.Text(addressColumn)})
	}

	for i, p := range todo {
		if err := ctx.Err(); err != nil {
			report.Aborted = true
			return report, err
		}

		log := zap.L().With(zap.String("url", p.key), zap.Int("row", i))
		if !p.address.Present() {
			log.Warn("pipeline: no address to geocode", zap.String("column", addressColumn))
			report.NotFound++
			continue
		}

		result, err := g.client.Geocode(ctx, p.address.Value)
		if err != nil {
			if resilience.IsCritical(err) {
				log.Error("pipeline: geocoding aborted", zap.String("address", p.address.Value), zap.Error(err))
				report.Aborted = true
				return report, eris.Wrap(err, "pipeline: geocode aborted")
			}
			log.Error("pipeline: geocode failed", zap.String("address", p.address.Value), zap.Error(err))
			report.Failed++
			continue
		}
		if result == nil || !result.Matched {
			log.Warn("pipeline: address not found", zap.String("address", p.address.Value))
			report.NotFound++
			continue
		}

		ds.Update(p.key, func(l *model.Listing) {
			if !l.HasCoordinates() {
				l.SetCoordinates(result.Latitude, result.Longitude)
			}
		})
		report.Resolved++
		log.Debug("pipeline: address resolved",
			zap.Float64("lat", result.Latitude),
			zap.Float64("lon", result.Longitude),
			zap.String("source", result.Source),
			zap.Bool("cached", result.Cached),
		)
	}

	zap.L().Info("pipeline: geocoding complete",
		zap.Int("total", report.Total),
		zap.Int("skipped", report.Skipped),
		zap.Int("resolved", report.Resolved),
		zap.Int("not_found", report.NotFound),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

// GeocodeFile geocodes the clean dataset at path in place. The file is
// written back even when the pass stops early, so resolved rows are kept.
func (g *Geocoder) GeocodeFile(ctx context.Context, path, addressColumn string) (*model.Dataset, GeocodeReport, error) {
	ds, err := readInput(path, model.OperationClean)
	if err != nil {
		return nil, GeocodeReport{}, err
	}
	if ds.Len() == 0 {
		return ds, GeocodeReport{}, ErrEmptyDataset
	}

	report, runErr := g.Run(ctx, ds, addressColumn)
	if err := dataset.Write(path, ds); err != nil {
		if runErr != nil {
			zap.L().Error("pipeline: save geocoding progress failed", zap.Error(err))
			return ds, report, runErr
		}
		return ds, report, err
	}
	return ds, report, runErr
}
