package dataset

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/coworking-map/internal/model"
)

// DefaultSheet is the sheet name used by ExportXLSX when none is given.
const DefaultSheet = "coworkings"

// ExportXLSX writes ds to a single-sheet workbook at path. Coordinates are
// stored as numeric cells; everything else as text.
func ExportXLSX(path, sheetName string, ds *model.Dataset) error {
	if sheetName == "" {
		sheetName = DefaultSheet
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return eris.Wrapf(err, "xlsx: add sheet %q", sheetName)
	}

	header := sheet.AddRow()
	for _, col := range ds.Columns {
		header.AddCell().SetString(col)
	}

	for _, l := range ds.Rows {
		row := sheet.AddRow()
		for _, col := range ds.Columns {
			cell := row.AddCell()
			switch model.FieldOf(col) {
			case model.FieldLatitude:
				setCoord(cell, l.Latitude)
			case model.FieldLongitude:
				setCoord(cell, l.Longitude)
			default:
				cell.SetString(l.Cell(col))
			}
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}

func setCoord(cell *xlsx.Cell, v *float64) {
	if v == nil {
		cell.SetString("")
		return
	}
	cell.SetFloat(*v)
}

// ReadXLSX loads the first sheet of a workbook written by ExportXLSX.
func ReadXLSX(path string) (*model.Dataset, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("xlsx: %s has no sheets", path)
	}

	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return model.NewDataset(nil, nil), nil
	}

	header := rowToStrings(sheet.Rows[0])
	ds := model.NewDataset(header, nil)
	for i, row := range sheet.Rows[1:] {
		cells := rowToStrings(row)
		var l model.Listing
		for j, col := range header {
			cell := ""
			if j < len(cells) {
				cell = cells[j]
			}
			if err := l.SetCell(col, cell); err != nil {
				return nil, eris.Wrapf(err, "xlsx: row %d column %q", i+2, col)
			}
		}
		ds.Rows = append(ds.Rows, l)
	}
	return ds, nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
