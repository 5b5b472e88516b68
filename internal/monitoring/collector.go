// Package monitoring summarizes pipeline health from the run log.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/coworking-map/internal/model"
	"github.com/sells-group/coworking-map/internal/store"
)

// maxRuns bounds how many runs a snapshot reads.
const maxRuns = 10000

// RunLister lists recorded runs. store.Store satisfies it.
type RunLister interface {
	ListRuns(ctx context.Context, filter store.RunFilter) ([]model.Run, error)
}

// OperationStats aggregates the runs of one operation.
type OperationStats struct {
	Total    int        `json:"total"`
	Complete int        `json:"complete"`
	Failed   int        `json:"failed"`
	Running  int        `json:"running"`
	FailRate float64    `json:"fail_rate"`
	AvgSecs  float64    `json:"avg_duration_secs"`
	LastRun  *time.Time `json:"last_run,omitempty"`
	LastErr  string     `json:"last_error,omitempty"`

	// Totals summed from the stats of every finished run.
	Counters map[string]int `json:"counters,omitempty"`
}

// Snapshot is a point-in-time view of pipeline health.
type Snapshot struct {
	Total      int                                `json:"total"`
	Complete   int                                `json:"complete"`
	Failed     int                                `json:"failed"`
	Running    int                                `json:"running"`
	FailRate   float64                            `json:"fail_rate"`
	Operations map[model.Operation]OperationStats `json:"operations"`

	// GeocodeHitRate is resolved over attempted rows across geocode runs.
	GeocodeHitRate float64 `json:"geocode_hit_rate"`

	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// Collector gathers snapshots from the run log.
type Collector struct {
	runs RunLister
	now  func() time.Time
}

// NewCollector creates a new metrics collector.
func NewCollector(runs RunLister) *Collector {
	return &Collector{runs: runs, now: time.Now}
}

// Collect summarizes the runs started within the lookback window. A
// non-positive lookback reads the whole log.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*Snapshot, error) {
	now := c.now().UTC()
	filter := store.RunFilter{Limit: maxRuns}
	if lookbackHours > 0 {
		filter.StartedAfter = now.Add(-time.Duration(lookbackHours) * time.Hour)
	}

	runs, err := c.runs.ListRuns(ctx, filter)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list runs")
	}

	snap := Summarize(runs)
	snap.LookbackHours = lookbackHours
	snap.CollectedAt = now
	return snap, nil
}

// Summarize aggregates runs, which are expected newest first as the store
// returns them.
func Summarize(runs []model.Run) *Snapshot {
	snap := &Snapshot{Operations: make(map[model.Operation]OperationStats)}
	durations := make(map[model.Operation]time.Duration)

	for _, r := range runs {
		op := snap.Operations[r.Operation]
		op.Total++
		snap.Total++

		switch r.Status {
		case model.RunStatusComplete:
			op.Complete++
			snap.Complete++
		case model.RunStatusFailed:
			op.Failed++
			snap.Failed++
			if op.LastErr == "" {
				op.LastErr = r.Error
			}
		case model.RunStatusRunning:
			op.Running++
			snap.Running++
		}

		if r.FinishedAt != nil {
			durations[r.Operation] += r.Duration()
			for k, v := range r.Stats {
				if op.Counters == nil {
					op.Counters = make(map[string]int)
				}
				op.Counters[k] += v
			}
		}
		if op.LastRun == nil || r.StartedAt.After(*op.LastRun) {
			started := r.StartedAt
			op.LastRun = &started
		}
		snap.Operations[r.Operation] = op
	}

	for name, op := range snap.Operations {
		finished := op.Complete + op.Failed
		if finished > 0 {
			op.FailRate = float64(op.Failed) / float64(finished)
			op.AvgSecs = durations[name].Seconds() / float64(finished)
		}
		snap.Operations[name] = op
	}
	if finished := snap.Complete + snap.Failed; finished > 0 {
		snap.FailRate = float64(snap.Failed) / float64(finished)
	}

	if g, ok := snap.Operations[model.OperationGeocode]; ok {
		resolved := g.Counters["resolved"]
		attempted := resolved + g.Counters["not_found"] + g.Counters["failed"]
		if attempted > 0 {
			snap.GeocodeHitRate = float64(resolved) / float64(attempted)
		}
	}
	return snap
}
