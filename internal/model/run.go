package model

import "time"

// Operation names a pipeline step recorded in the run log.
type Operation string

const (
	OperationScrape  Operation = "scrape"
	OperationClean   Operation = "clean"
	OperationGeocode Operation = "geocode"
	OperationSearch  Operation = "search"
)

// RunStatus represents the state of a pipeline run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one recorded execution of a pipeline step.
type Run struct {
	ID         string         `json:"id"`
	Operation  Operation      `json:"operation"`
	Status     RunStatus      `json:"status"`
	Stats      map[string]int `json:"stats,omitempty"`
	Error      string         `json:"error,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
}

// Duration returns how long the run took, or zero while it is running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
