package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/coworking-map/internal/dataset"
	"github.com/sells-group/coworking-map/internal/model"
	"github.com/sells-group/coworking-map/internal/pipeline"
)

// maxCellWidth bounds the display width of a table cell.
const maxCellWidth = 40

var showCmd = &cobra.Command{
	Use:       "show raw|clean|search",
	Short:     "Print a dataset as a table",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"raw", "clean", "search"},
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := datasetPath(args[0])
		if err != nil {
			return err
		}

		ds, err := readShown(path, args[0])
		if err != nil {
			return err
		}

		limit, _ := cmd.Flags().GetInt("limit")
		if limit > 0 && ds.Len() > limit {
			ds = model.NewDataset(ds.Columns, ds.Rows[:limit])
		}
		if ds.Len() == 0 {
			fmt.Fprintln(os.Stderr, "Dataset is empty.")
			return nil
		}
		return writeTable(os.Stdout, ds)
	},
}

// readShown reads the named dataset. A missing file is reported as a
// prerequisite of the step that writes it.
func readShown(path, name string) (*model.Dataset, error) {
	ds, err := dataset.Read(path)
	if errors.Is(err, dataset.ErrNotFound) {
		return nil, &pipeline.PrerequisiteError{Path: path, Step: producerOf(name)}
	}
	if err != nil {
		return nil, eris.Wrapf(err, "show %s", name)
	}
	return ds, nil
}

// producerOf names the step that writes the named dataset.
func producerOf(name string) model.Operation {
	switch name {
	case "clean":
		return model.OperationClean
	case "search":
		return model.OperationSearch
	default:
		return model.OperationScrape
	}
}

func datasetPath(name string) (string, error) {
	paths := dataPaths(cfg)
	switch name {
	case "raw":
		return paths.Raw, nil
	case "clean":
		return paths.Clean, nil
	case "search":
		return paths.Search, nil
	default:
		return "", eris.Errorf("unknown dataset %q (want raw, clean or search)", name)
	}
}

// writeTable renders ds as a pipe table aligned on display width, so
// accented and wide characters line up.
func writeTable(w io.Writer, ds *model.Dataset) error {
	table := make([][]string, 0, ds.Len()+1)
	table = append(table, ds.Columns)
	for _, l := range ds.Rows {
		row := make([]string, len(ds.Columns))
		for i, c := range ds.Columns {
			row[i] = runewidth.Truncate(l.Cell(c), maxCellWidth, "…")
		}
		table = append(table, row)
	}

	widths := make([]int, len(ds.Columns))
	for _, row := range table {
		for i, cell := range row {
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	for r, row := range table {
		if _, err := fmt.Fprintln(w, formatRow(row, widths)); err != nil {
			return eris.Wrap(err, "write table")
		}
		if r == 0 {
			sep := make([]string, len(widths))
			for i, wd := range widths {
				sep[i] = strings.Repeat("-", wd)
			}
			if _, err := fmt.Fprintln(w, formatRow(sep, widths)); err != nil {
				return eris.Wrap(err, "write table")
			}
		}
	}
	return nil
}

func formatRow(cells []string, widths []int) string {
	var sb strings.Builder
	sb.WriteString("|")
	for i, cell := range cells {
		sb.WriteString(" ")
		sb.WriteString(runewidth.FillRight(cell, widths[i]))
		sb.WriteString(" |")
	}
	return sb.String()
}

func init() {
	showCmd.Flags().Int("limit", 0, "max rows to print (0 prints all)")
	rootCmd.AddCommand(showCmd)
}
