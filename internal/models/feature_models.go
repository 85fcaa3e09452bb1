package models

import "encoding/json"

// Geometry types understood in status payloads.
const (
	GeometryPoint   = "Point"
	GeometryPolygon = "Polygon"
)

// FeatureCollection is the GeoJSON-like body returned by the clinician status endpoint.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is one entry of a FeatureCollection.
type Feature struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	Geometry   Geometry               `json:"geometry"`
}

// Geometry keeps coordinates raw because their nesting depends on Type:
// a Point is [x, y], a Polygon is [[[x, y], ...], ...].
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}
