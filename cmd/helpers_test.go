package main

import (
	"path/filepath"
	"testing"

	"github.com/sells-group/coworking-map/internal/config"
)

// withConfig installs a config rooted in a temp dir for the test.
func withConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	c := &config.Config{}
	c.Scrape.BaseURL = config.DefaultBaseURL
	c.Scrape.LinkMode = "resolve"
	c.Data = config.DataConfig{
		Dir:        dir,
		RawPath:    "coworking_info.csv",
		CleanPath:  "coworking_info_cleaned.csv",
		SearchPath: "search.csv",
	}
	c.Geocode = config.GeocodeConfig{
		Provider:      "nominatim",
		UserAgent:     "coworking-map",
		MaxRetries:    3,
		CacheEnabled:  true,
		AddressColumn: "Adresse",
	}
	c.Store.Driver = "sqlite"
	c.Store.DatabaseURL = filepath.Join(dir, "coworking.db")
	c.Server.Port = 8080

	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
	return c
}
