// Package model defines the coworking listing record and the tabular dataset
// that carries it between pipeline stages.
package model

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/coworking-map/internal/normalize"
)

// Unavailable is the placeholder written to dataset files for a field that
// could not be extracted. It only exists at the file boundary; in memory an
// absent field is a Text with Valid=false.
const Unavailable = "unavailable"

// unavailableAliases are the placeholder spellings recognized when reading.
var unavailableAliases = []string{Unavailable, "indisponible"}

// IsUnavailable reports whether a cell holds the placeholder.
func IsUnavailable(s string) bool {
	s = strings.TrimSpace(s)
	for _, a := range unavailableAliases {
		if strings.EqualFold(s, a) {
			return true
		}
	}
	return false
}

// Text is an optional string value.
type Text struct {
	Value string
	Valid bool
}

// Some returns a present Text.
func Some(s string) Text { return Text{Value: s, Valid: true} }

// None returns an absent Text.
func None() Text { return Text{} }

// ParseText converts a file cell to a Text. Empty cells and the placeholder
// are both absent.
func ParseText(cell string) Text {
	if cell == "" || IsUnavailable(cell) {
		return None()
	}
	return Some(cell)
}

// Present reports whether t holds a real, non-empty value.
func (t Text) Present() bool {
	return t.Valid && strings.TrimSpace(t.Value) != "" && !IsUnavailable(t.Value)
}

// String renders t for a dataset file: the value, or Unavailable when absent.
func (t Text) String() string {
	if !t.Valid {
		return Unavailable
	}
	return t.Value
}

// Map applies f to a present value. Absent values pass through.
func (t Text) Map(f func(string) string) Text {
	if !t.Valid {
		return t
	}
	return Some(f(t.Value))
}

// Column names used in dataset files.
const (
	ColumnURL         = "URL"
	ColumnName        = "Nom"
	ColumnAddress     = "Adresse"
	ColumnPhone       = "Téléphone"
	ColumnWebsite     = "Site web"
	ColumnMetroAccess = "Accès métro"
	ColumnLatitude    = "Latitude"
	ColumnLongitude   = "Longitude"
)

// RawColumns is the header of a freshly scraped dataset.
var RawColumns = []string{
	ColumnURL, ColumnName, ColumnAddress, ColumnPhone, ColumnWebsite, ColumnMetroAccess,
}

// Field identifies a Listing attribute addressable by column name.
type Field int

const (
	FieldExtra Field = iota
	FieldURL
	FieldName
	FieldAddress
	FieldPhone
	FieldWebsite
	FieldMetroAccess
	FieldLatitude
	FieldLongitude
)

var fieldKeys = map[string]Field{
	normalize.Key(ColumnURL):         FieldURL,
	normalize.Key(ColumnName):        FieldName,
	normalize.Key(ColumnAddress):     FieldAddress,
	normalize.Key(ColumnPhone):       FieldPhone,
	normalize.Key(ColumnWebsite):     FieldWebsite,
	normalize.Key(ColumnMetroAccess): FieldMetroAccess,
	normalize.Key(ColumnLatitude):    FieldLatitude,
	normalize.Key(ColumnLongitude):   FieldLongitude,
}

// FieldOf maps a column name to its field. Matching ignores case, surrounding
// whitespace and diacritics, so "Téléphone" and "Telephone" are the same
// column. Unknown columns map to FieldExtra.
func FieldOf(column string) Field {
	if f, ok := fieldKeys[normalize.Key(column)]; ok {
		return f
	}
	return FieldExtra
}

// Listing is one coworking space.
type Listing struct {
	URL         Text
	Name        Text
	Address     Text
	Phone       Text
	Website     Text
	MetroAccess Text

	Latitude  *float64
	Longitude *float64

	// Extra holds cells of columns that map to no known field, keyed by the
	// column name as it appears in the file.
	Extra map[string]string
}

// NewListing returns a listing for url with every other text field absent.
func NewListing(url string) Listing {
	return Listing{URL: Some(url)}
}

// Valid reports whether the listing may be used downstream: URL, Name and
// Address must all be present.
func (l Listing) Valid() bool {
	return l.URL.Present() && l.Name.Present() && l.Address.Present()
}

// HasCoordinates reports whether both coordinates are set.
func (l Listing) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// SetCoordinates sets both coordinates.
func (l *Listing) SetCoordinates(lat, lon float64) {
	l.Latitude = &lat
	l.Longitude = &lon
}

// Key identifies the listing within a dataset.
func (l Listing) Key() string { return l.URL.Value }

func (l *Listing) text(f Field) *Text {
	switch f {
	case FieldURL:
		return &l.URL
	case FieldName:
		return &l.Name
	case FieldAddress:
		return &l.Address
	case FieldPhone:
		return &l.Phone
	case FieldWebsite:
		return &l.Website
	case FieldMetroAccess:
		return &l.MetroAccess
	default:
		return nil
	}
}

// Text returns the value of a text field addressed by column name. Columns
// that are not text fields return an absent Text.
func (l Listing) Text(column string) Text {
	f := FieldOf(column)
	if t := l.text(f); t != nil {
		return *t
	}
	if f == FieldExtra {
		if v, ok := l.Extra[column]; ok {
			return ParseText(v)
		}
	}
	return None()
}

// Cell renders the column value as written to a dataset file.
func (l Listing) Cell(column string) string {
	f := FieldOf(column)
	switch f {
	case FieldLatitude:
		return formatCoord(l.Latitude)
	case FieldLongitude:
		return formatCoord(l.Longitude)
	case FieldExtra:
		return l.Extra[column]
	default:
		return l.text(f).String()
	}
}

// SetCell assigns a file cell to the column's field.
func (l *Listing) SetCell(column, cell string) error {
	f := FieldOf(column)
	switch f {
	case FieldLatitude:
		v, err := parseCoord(cell)
		if err != nil {
			return err
		}
		l.Latitude = v
	case FieldLongitude:
		v, err := parseCoord(cell)
		if err != nil {
			return err
		}
		l.Longitude = v
	case FieldExtra:
		if l.Extra == nil {
			l.Extra = make(map[string]string)
		}
		l.Extra[column] = cell
	default:
		*l.text(f) = ParseText(cell)
	}
	return nil
}

// Clone returns a deep copy of l.
func (l Listing) Clone() Listing {
	c := l
	if l.Latitude != nil {
		v := *l.Latitude
		c.Latitude = &v
	}
	if l.Longitude != nil {
		v := *l.Longitude
		c.Longitude = &v
	}
	if l.Extra != nil {
		c.Extra = make(map[string]string, len(l.Extra))
		for k, v := range l.Extra {
			c.Extra[k] = v
		}
	}
	return c
}

func formatCoord(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func parseCoord(cell string) (*float64, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" || strings.EqualFold(cell, "nan") {
		return nil, nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "model: parse coordinate %q", cell)
	}
	return &v, nil
}
