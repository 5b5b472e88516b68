package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/coworking-map/internal/dataset"
	"github.com/sells-group/coworking-map/internal/mapview"
	"github.com/sells-group/coworking-map/internal/model"
	"github.com/sells-group/coworking-map/internal/pipeline"
)

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Write geocoded rows as GeoJSON",
	Long:  "Writes the geocoded rows of the clean CSV (or of the last search with --search) as a GeoJSON FeatureCollection.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		fromSearch, _ := cmd.Flags().GetBool("search")
		out, _ := cmd.Flags().GetString("out")

		paths := dataPaths(cfg)
		path, step := paths.Clean, model.OperationClean
		if fromSearch {
			path, step = paths.Search, model.OperationSearch
		}

		m, err := loadMap(path, step)
		if err != nil {
			return err
		}
		if m.Empty() {
			fmt.Fprintln(os.Stderr, "No geocoded data.")
			return nil
		}

		if out == "" {
			return writeMap(os.Stdout, m)
		}
		f, err := os.Create(out)
		if err != nil {
			return eris.Wrap(err, "map: create output")
		}
		if err := writeMap(f, m); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return eris.Wrap(err, "map: close output")
		}
		fmt.Fprintf(os.Stderr, "Wrote %d features to %s\n", len(m.Features), out)
		return nil
	},
}

// loadMap reads the dataset at path and builds its map. A missing file is
// reported as a prerequisite of step.
func loadMap(path string, step model.Operation) (*mapview.Map, error) {
	ds, err := dataset.Read(path)
	if errors.Is(err, dataset.ErrNotFound) {
		return nil, &pipeline.PrerequisiteError{Path: path, Step: step}
	}
	if err != nil {
		return nil, err
	}
	m, err := mapview.Build(ds)
	if errors.Is(err, mapview.ErrNoCoordinates) {
		return nil, eris.Wrapf(err, "map: %s has no coordinates, run geocode first", path)
	}
	return m, err
}

func writeMap(w io.Writer, m *mapview.Map) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return eris.Wrap(err, "map: write geojson")
	}
	return nil
}

func init() {
	mapCmd.Flags().Bool("search", false, "map the last search results instead of the clean dataset")
	mapCmd.Flags().String("out", "", "output file (default stdout)")
	rootCmd.AddCommand(mapCmd)
}
