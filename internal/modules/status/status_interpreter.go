// Package status fetches worker status payloads and turns them into location reports.
package status

import (
	"encoding/json"
	"fmt"

	"geo-alert/internal/geo"
	"geo-alert/internal/models"
)

// LocationPolicy decides what happens when a payload carries more than one Point feature.
type LocationPolicy string

const (
	// PolicyLastPointWins keeps the last Point feature and counts the others
	// in LocationReport.ExtraPoints.
	PolicyLastPointWins LocationPolicy = "last_point_wins"
	// PolicySinglePoint rejects payloads with more than one Point feature.
	PolicySinglePoint LocationPolicy = "single_point"
)

// InterpreterInterface turns a feature collection into a location report.
type InterpreterInterface interface {
	Interpret(workerID int, fc *models.FeatureCollection) (*models.LocationReport, error)
}

// Interpreter implements InterpreterInterface.
type Interpreter struct {
	policy LocationPolicy
}

// NewInterpreter creates an interpreter. An empty policy means PolicyLastPointWins.
func NewInterpreter(policy LocationPolicy) *Interpreter {
	if policy == "" {
		policy = PolicyLastPointWins
	}
	return &Interpreter{policy: policy}
}

// Interpret walks the features once, in order. Point features set the
// location; every ring of every Polygon feature becomes one zone.
//
// Returns models.ErrMalformedPayload for unknown geometry types, bad
// coordinates or rings shorter than 3 positions, and models.ErrMissingLocation
// when no Point feature is present. A payload with a location and no polygons
// is valid. Rings with enough positions but fewer than 3 distinct vertices
// become invalid zones, see geo.RawPolygon.
func (i *Interpreter) Interpret(workerID int, fc *models.FeatureCollection) (*models.LocationReport, error) {
	if fc == nil {
		return nil, fmt.Errorf("%w: empty body", models.ErrMalformedPayload)
	}

	report := &models.LocationReport{WorkerID: workerID}
	for idx, feat := range fc.Features {
		switch feat.Geometry.Type {
		case models.GeometryPoint:
			pt, err := decodePoint(feat.Geometry.Coordinates)
			if err != nil {
				return nil, fmt.Errorf("%w: feature %d: %v", models.ErrMalformedPayload, idx, err)
			}
			if report.Location != nil {
				if i.policy == PolicySinglePoint {
					return nil, fmt.Errorf("%w: feature %d: more than one Point feature", models.ErrMalformedPayload, idx)
				}
				report.ExtraPoints++
			}
			report.Location = &pt

		case models.GeometryPolygon:
			zones, err := decodePolygon(feat.Geometry.Coordinates)
			if err != nil {
				return nil, fmt.Errorf("%w: feature %d: %v", models.ErrMalformedPayload, idx, err)
			}
			report.Zones = append(report.Zones, zones...)

		default:
			return nil, fmt.Errorf("%w: feature %d: unsupported geometry type %q", models.ErrMalformedPayload, idx, feat.Geometry.Type)
		}
	}

	if report.Location == nil {
		return nil, models.ErrMissingLocation
	}
	return report, nil
}

func decodePoint(raw json.RawMessage) (geo.Point, error) {
	var coords []float64
	if err := json.Unmarshal(raw, &coords); err != nil {
		return geo.Point{}, fmt.Errorf("point coordinates: %v", err)
	}
	if len(coords) != 2 {
		return geo.Point{}, fmt.Errorf("point has %d coordinates, want 2", len(coords))
	}
	return geo.Point{X: coords[0], Y: coords[1]}, nil
}

func decodePolygon(raw json.RawMessage) ([]geo.Polygon, error) {
	var rings [][][]float64
	if err := json.Unmarshal(raw, &rings); err != nil {
		return nil, fmt.Errorf("polygon coordinates: %v", err)
	}

	zones := make([]geo.Polygon, 0, len(rings))
	for r, ring := range rings {
		if len(ring) < 3 {
			return nil, fmt.Errorf("ring %d has %d positions, want at least 3", r, len(ring))
		}
		vertices := make([]geo.Point, 0, len(ring))
		for v, pos := range ring {
			if len(pos) != 2 {
				return nil, fmt.Errorf("ring %d position %d has %d coordinates, want 2", r, v, len(pos))
			}
			vertices = append(vertices, geo.Point{X: pos[0], Y: pos[1]})
		}
		// A ring with too few distinct vertices is kept as an invalid zone
		// so the evaluator can skip it without dropping the whole report.
		zones = append(zones, geo.RawPolygon(vertices))
	}
	return zones, nil
}
