// Package store persists the geocode cache and the pipeline run log in
// SQLite (default) or Postgres.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/coworking-map/internal/model"
	"github.com/sells-group/coworking-map/pkg/geocode"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = eris.New("store: run not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Operation model.Operation `json:"operation,omitempty"`
	Status    model.RunStatus `json:"status,omitempty"`
	Limit     int             `json:"limit,omitempty"`
	Offset    int             `json:"offset,omitempty"`

	// StartedAfter keeps runs started at or after this instant when set.
	StartedAfter time.Time `json:"started_after,omitempty"`
}

// Store defines the persistence interface for the pipeline.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, op model.Operation) (*model.Run, error)
	FinishRun(ctx context.Context, runID string, status model.RunStatus, stats map[string]int, runErr string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Geocode cache. A zero ttl never expires.
	GetCachedGeocode(ctx context.Context, key string) (*geocode.Result, error)
	SetCachedGeocode(ctx context.Context, key, query string, result geocode.Result, ttl time.Duration) error
	DeleteExpiredGeocodes(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open returns the store for driver ("sqlite" or "postgres") and runs its
// migration.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	var (
		st  Store
		err error
	)
	switch driver {
	case "", "sqlite":
		st, err = NewSQLite(dsn)
	case "postgres":
		st, err = NewPostgres(ctx, dsn, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

// GeocodeCache adapts a Store to geocode.Cache with a fixed ttl.
type GeocodeCache struct {
	store Store
	ttl   time.Duration
}

// NewGeocodeCache returns a geocode.Cache backed by st. ttl <= 0 keeps
// entries forever.
func NewGeocodeCache(st Store, ttl time.Duration) *GeocodeCache {
	if ttl < 0 {
		ttl = 0
	}
	return &GeocodeCache{store: st, ttl: ttl}
}

// GetGeocode implements geocode.Cache.
func (c *GeocodeCache) GetGeocode(ctx context.Context, key string) (*geocode.Result, error) {
	return c.store.GetCachedGeocode(ctx, key)
}

// PutGeocode implements geocode.Cache.
func (c *GeocodeCache) PutGeocode(ctx context.Context, key, query string, result geocode.Result) error {
	return c.store.SetCachedGeocode(ctx, key, query, result, c.ttl)
}

// expiresAt returns the expiry for ttl, nil for no expiry.
func expiresAt(now time.Time, ttl time.Duration) *time.Time {
	if ttl == 0 {
		return nil
	}
	t := now.Add(ttl)
	return &t
}
