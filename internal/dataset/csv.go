// Package dataset reads and writes listing tables as UTF-8 CSV and exports
// them to XLSX.
package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/coworking-map/internal/model"
)

// ErrNotFound is returned by Read when the dataset file does not exist.
var ErrNotFound = eris.New("dataset: file not found")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Read loads the dataset stored at path. A missing file yields ErrNotFound.
func Read(path string) (*model.Dataset, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	ds, err := Decode(f)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read %s", path)
	}
	return ds, nil
}

// Decode parses a CSV table with a header row. Rows shorter than the header
// leave the missing cells empty.
func Decode(r io.Reader) (*model.Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: read input")
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return model.NewDataset(nil, nil), nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "dataset: read header")
	}

	ds := model.NewDataset(header, nil)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "dataset: read row %d", line)
		}

		var l model.Listing
		for i, col := range header {
			cell := ""
			if i < len(record) {
				cell = record[i]
			}
			if err := l.SetCell(col, cell); err != nil {
				return nil, eris.Wrapf(err, "dataset: row %d column %q", line, col)
			}
		}
		ds.Rows = append(ds.Rows, l)
	}
	return ds, nil
}

// Encode writes ds as CSV with its header row.
func Encode(w io.Writer, ds *model.Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ds.Columns); err != nil {
		return eris.Wrap(err, "dataset: write header")
	}
	record := make([]string, len(ds.Columns))
	for _, row := range ds.Rows {
		for i, col := range ds.Columns {
			record[i] = row.Cell(col)
		}
		if err := cw.Write(record); err != nil {
			return eris.Wrap(err, "dataset: write row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "dataset: flush")
}

// Write replaces the file at path with ds. The table is written to a sibling
// temporary file first and renamed into place.
func Write(path string, ds *model.Dataset) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "dataset: create dir %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return eris.Wrapf(err, "dataset: create temp for %s", path)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if err := Encode(tmp, ds); err != nil {
		tmp.Close() //nolint:errcheck
		return err
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrapf(err, "dataset: close %s", tmp.Name())
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return eris.Wrapf(err, "dataset: rename into %s", path)
	}
	return nil
}

// Exists reports whether a dataset file is present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
