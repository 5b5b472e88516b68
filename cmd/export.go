package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/coworking-map/internal/dataset"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a dataset as a spreadsheet",
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, _ := cmd.Flags().GetString("format")
		name, _ := cmd.Flags().GetString("dataset")
		out, _ := cmd.Flags().GetString("out")

		if format != "xlsx" {
			return eris.Errorf("export: unsupported format %q", format)
		}

		path, err := datasetPath(name)
		if err != nil {
			return err
		}
		ds, err := dataset.Read(path)
		if err != nil {
			return eris.Wrapf(err, "export %s", name)
		}

		if out == "" {
			out = strings.TrimSuffix(path, filepath.Ext(path)) + ".xlsx"
		}
		if err := dataset.ExportXLSX(out, dataset.DefaultSheet, ds); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Exported %d rows to %s\n", ds.Len(), out)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("format", "xlsx", "output format (xlsx)")
	exportCmd.Flags().String("dataset", "clean", "dataset to export (raw, clean or search)")
	exportCmd.Flags().String("out", "", "output file (default next to the dataset)")
	rootCmd.AddCommand(exportCmd)
}
