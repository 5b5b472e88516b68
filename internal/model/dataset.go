package model

// Dataset is an ordered table of listings with the header it is written with.
type Dataset struct {
	Columns []string
	Rows    []Listing
}

// NewDataset returns a dataset with the given header and rows.
func NewDataset(columns []string, rows []Listing) *Dataset {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Dataset{Columns: cols, Rows: rows}
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.Rows) }

// HasColumn reports whether the header contains a column for f.
func (d *Dataset) HasColumn(f Field) bool {
	for _, c := range d.Columns {
		if FieldOf(c) == f {
			return true
		}
	}
	return false
}

// HasCoordinateColumns reports whether both coordinate columns are present.
func (d *Dataset) HasCoordinateColumns() bool {
	return d.HasColumn(FieldLatitude) && d.HasColumn(FieldLongitude)
}

// EnsureCoordinateColumns appends the coordinate columns when missing.
func (d *Dataset) EnsureCoordinateColumns() {
	if !d.HasColumn(FieldLatitude) {
		d.Columns = append(d.Columns, ColumnLatitude)
	}
	if !d.HasColumn(FieldLongitude) {
		d.Columns = append(d.Columns, ColumnLongitude)
	}
}

// Find returns the position of the row with the given key.
func (d *Dataset) Find(key string) (int, bool) {
	for i := range d.Rows {
		if d.Rows[i].Key() == key {
			return i, true
		}
	}
	return -1, false
}

// Update applies fn to the row identified by key. It reports whether the row
// was found.
func (d *Dataset) Update(key string, fn func(*Listing)) bool {
	i, ok := d.Find(key)
	if !ok {
		return false
	}
	fn(&d.Rows[i])
	return true
}

// Filter returns a new dataset with the same header holding the rows for which
// keep returns true, in their original order.
func (d *Dataset) Filter(keep func(Listing) bool) *Dataset {
	out := NewDataset(d.Columns, make([]Listing, 0, len(d.Rows)))
	for _, r := range d.Rows {
		if keep(r) {
			out.Rows = append(out.Rows, r.Clone())
		}
	}
	return out
}

// Clone returns a deep copy of d.
func (d *Dataset) Clone() *Dataset {
	return d.Filter(func(Listing) bool { return true })
}

// Geocoded returns the rows that carry both coordinates.
func (d *Dataset) Geocoded() []Listing {
	var out []Listing
	for _, r := range d.Rows {
		if r.HasCoordinates() {
			out = append(out, r)
		}
	}
	return out
}
