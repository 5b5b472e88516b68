// Package mapview turns geocoded listings into GeoJSON map data.
package mapview

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/coworking-map/internal/model"
)

// Default viewport, centered on Paris.
const (
	DefaultLatitude  = 48.8566
	DefaultLongitude = 2.3522
	DefaultZoom      = 11
)

// ErrNoCoordinates is returned when the dataset has never been geocoded.
var ErrNoCoordinates = eris.New("mapview: dataset has no coordinate columns")

// Map is a set of point features plus the initial viewport.
type Map struct {
	Latitude  float64
	Longitude float64
	Zoom      int
	Features  []*geojson.Feature
}

// Build returns a point feature for every row with both coordinates. Rows
// without coordinates are left out.
func Build(ds *model.Dataset) (*Map, error) {
	if ds == nil || !ds.HasCoordinateColumns() {
		return nil, ErrNoCoordinates
	}

	m := &Map{
		Latitude:  DefaultLatitude,
		Longitude: DefaultLongitude,
		Zoom:      DefaultZoom,
		Features:  []*geojson.Feature{},
	}
	for _, l := range ds.Geocoded() {
		m.Features = append(m.Features, feature(l))
	}
	return m, nil
}

// Empty reports whether no row could be placed on the map.
func (m *Map) Empty() bool { return len(m.Features) == 0 }

func feature(l model.Listing) *geojson.Feature {
	// GeoJSON orders coordinates longitude first.
	pt := geom.NewPointFlat(geom.XY, []float64{*l.Longitude, *l.Latitude})
	return &geojson.Feature{
		ID:       l.Key(),
		Geometry: pt,
		Properties: map[string]interface{}{
			"name":    l.Name.String(),
			"url":     l.URL.String(),
			"address": l.Address.String(),
		},
	}
}

type mapJSON struct {
	Type     string             `json:"type"`
	Features []*geojson.Feature `json:"features"`
	Center   [2]float64         `json:"center"`
	Zoom     int                `json:"zoom"`
}

// MarshalJSON encodes the map as a FeatureCollection with center ([lat, lon])
// and zoom members.
func (m *Map) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(mapJSON{
		Type:     "FeatureCollection",
		Features: m.Features,
		Center:   [2]float64{m.Latitude, m.Longitude},
		Zoom:     m.Zoom,
	})
	if err != nil {
		return nil, eris.Wrap(err, "mapview: encode geojson")
	}
	return data, nil
}
