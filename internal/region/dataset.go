package region

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"drivermon/internal/fault"
)

//go:embed territories.toml
var embeddedTerritories []byte

// Point is a vertex in degrees.
type Point struct {
	Lon float64
	Lat float64
}

// Territory is one left-hand-traffic area.
type Territory struct {
	Name    string
	Polygon []Point

	minLat, maxLat, minLon, maxLon float64
}

// Dataset is a set of territories whose vehicles are right-hand drive.
type Dataset struct {
	Territories []Territory
}

type datasetFile struct {
	Territory []struct {
		Name    string      `toml:"name"`
		Polygon [][]float64 `toml:"polygon"`
	} `toml:"territory"`
}

// DefaultDataset returns the embedded territory outlines.
func DefaultDataset() (*Dataset, error) {
	return ParseDataset(embeddedTerritories)
}

// LoadDataset reads a dataset from path. An empty path loads the embedded one.
func LoadDataset(path string) (*Dataset, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultDataset()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fault.Wrap(fault.ErrConfiguration, "region", "load dataset", path, err)
	}
	ds, err := ParseDataset(data)
	if err != nil {
		return nil, fault.Wrap(fault.ErrConfiguration, "region", "load dataset", path, err)
	}
	return ds, nil
}

// ParseDataset decodes a TOML territory dataset.
func ParseDataset(data []byte) (*Dataset, error) {
	var file datasetFile
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("parse territories: %w", err)
	}
	if len(file.Territory) == 0 {
		return nil, fmt.Errorf("territory dataset is empty")
	}

	ds := &Dataset{Territories: make([]Territory, 0, len(file.Territory))}
	for i, raw := range file.Territory {
		if len(raw.Polygon) < 3 {
			return nil, fmt.Errorf("territory %d (%s): polygon needs at least 3 vertices", i, raw.Name)
		}
		terr := Territory{Name: raw.Name, Polygon: make([]Point, 0, len(raw.Polygon))}
		for j, pair := range raw.Polygon {
			if len(pair) != 2 {
				return nil, fmt.Errorf("territory %d (%s): vertex %d must be [lon, lat]", i, raw.Name, j)
			}
			p := Point{Lon: pair[0], Lat: pair[1]}
			if !validCoordinate(p.Lat, p.Lon) {
				return nil, fmt.Errorf("territory %d (%s): vertex %d out of range", i, raw.Name, j)
			}
			terr.Polygon = append(terr.Polygon, p)
		}
		terr.computeBounds()
		ds.Territories = append(ds.Territories, terr)
	}
	return ds, nil
}

// Lookup returns the territory containing the coordinate, if any.
func (d *Dataset) Lookup(lat, lon float64) (string, bool) {
	for i := range d.Territories {
		if d.Territories[i].contains(lat, lon) {
			return d.Territories[i].Name, true
		}
	}
	return "", false
}

// Classifier adapts the dataset to the Resolver's classification function.
func (d *Dataset) Classifier() Classifier {
	return func(lat, lon float64) bool {
		_, ok := d.Lookup(lat, lon)
		return ok
	}
}

func (t *Territory) computeBounds() {
	t.minLat, t.maxLat = t.Polygon[0].Lat, t.Polygon[0].Lat
	t.minLon, t.maxLon = t.Polygon[0].Lon, t.Polygon[0].Lon
	for _, p := range t.Polygon[1:] {
		t.minLat = min(t.minLat, p.Lat)
		t.maxLat = max(t.maxLat, p.Lat)
		t.minLon = min(t.minLon, p.Lon)
		t.maxLon = max(t.maxLon, p.Lon)
	}
}

// contains is an even-odd ray cast towards increasing longitude.
func (t *Territory) contains(lat, lon float64) bool {
	if lat < t.minLat || lat > t.maxLat || lon < t.minLon || lon > t.maxLon {
		return false
	}
	inside := false
	n := len(t.Polygon)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := t.Polygon[i], t.Polygon[j]
		if (a.Lat > lat) == (b.Lat > lat) {
			continue
		}
		cross := a.Lon + (lat-a.Lat)*(b.Lon-a.Lon)/(b.Lat-a.Lat)
		if lon < cross {
			inside = !inside
		}
	}
	return inside
}
