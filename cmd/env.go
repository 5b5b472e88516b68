package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/coworking-map/internal/config"
	"github.com/sells-group/coworking-map/internal/pipeline"
	"github.com/sells-group/coworking-map/internal/scrape"
	"github.com/sells-group/coworking-map/internal/store"
	"github.com/sells-group/coworking-map/pkg/geocode"
)

// appEnv holds the store and the pipeline wired from cfg.
type appEnv struct {
	Store    store.Store // nil when the store could not be opened
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

func dataPaths(c *config.Config) pipeline.Paths {
	return pipeline.Paths{
		Raw:    c.Data.ResolvedRawPath(),
		Clean:  c.Data.ResolvedCleanPath(),
		Search: c.Data.ResolvedSearchPath(),
	}
}

// initStore opens the run log and geocode cache database.
func initStore(ctx context.Context) (store.Store, error) {
	if err := cfg.Validate("store"); err != nil {
		return nil, err
	}
	return store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
}

// newExtractor builds the page scraper from the scrape settings.
func newExtractor(c config.ScrapeConfig) *scrape.Extractor {
	opts := []scrape.Option{scrape.WithLinkMode(scrape.ParseLinkMode(c.LinkMode))}
	if c.UserAgent != "" {
		opts = append(opts, scrape.WithUserAgent(c.UserAgent))
	}
	if c.TimeoutSecs > 0 {
		opts = append(opts, scrape.WithTimeout(c.Timeout()))
	}
	return scrape.NewExtractor(opts...)
}

// newGeocodeClient assembles provider -> rate limit and retry -> cache.
// cache may be nil.
func newGeocodeClient(c config.GeocodeConfig, cache geocode.Cache) (geocode.Client, error) {
	opts := []geocode.Option{geocode.WithUserAgent(c.UserAgent)}
	if c.CountryCodes != "" {
		opts = append(opts, geocode.WithCountryCodes(c.CountryCodes))
	}

	var providers []geocode.Provider
	switch c.Provider {
	case "nominatim", "":
		providers = append(providers, nominatim(c, opts))
	case "google":
		providers = append(providers, geocode.NewGoogle(c.GoogleAPIKey, opts...))
	case "cascade":
		providers = append(providers, nominatim(c, opts), geocode.NewGoogle(c.GoogleAPIKey, opts...))
	default:
		return nil, eris.Errorf("geocode: unknown provider %q", c.Provider)
	}

	var client geocode.Client = geocode.NewCascade(providers...)
	client = geocode.NewRateLimited(client, c.MinDelay(), geocode.RetryPolicy(c.MaxRetries, c.ErrorWait()))
	if cache != nil && c.CacheEnabled {
		client = geocode.NewCached(client, cache, geocode.WithNegativeCaching(c.CacheMisses))
	}
	return client, nil
}

func nominatim(c config.GeocodeConfig, opts []geocode.Option) *geocode.Nominatim {
	if c.NominatimURL != "" {
		opts = append(opts, geocode.WithBaseURL(c.NominatimURL))
	}
	return geocode.NewNominatim(opts...)
}

// initPipeline opens the store and builds the pipeline. The store is
// optional: when it cannot be opened the steps run without run log or
// geocode cache. Callers should defer env.Close().
func initPipeline(ctx context.Context) (*appEnv, error) {
	env := &appEnv{}

	st, err := initStore(ctx)
	if err != nil {
		zap.L().Warn("store unavailable, running without run log or cache", zap.Error(err))
	} else {
		env.Store = st
	}

	var cache geocode.Cache
	opts := []pipeline.Option{
		pipeline.WithExtractor(newExtractor(cfg.Scrape), cfg.Scrape.BaseURL),
	}
	if env.Store != nil {
		cache = store.NewGeocodeCache(env.Store, cfg.Geocode.CacheTTL())
		opts = append(opts, pipeline.WithRunLog(env.Store))
	}

	client, err := newGeocodeClient(cfg.Geocode, cache)
	if err != nil {
		env.Close()
		return nil, err
	}
	opts = append(opts, pipeline.WithGeocoder(pipeline.NewGeocoder(client), cfg.Geocode.AddressColumn))

	env.Pipeline = pipeline.New(dataPaths(cfg), opts...)
	return env, nil
}
