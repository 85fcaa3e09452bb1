// Package geo provides the planar point and polygon types used to decide
// whether a worker's reported location lies inside an authorized safety zone.
//
// Coordinates are (longitude, latitude) pairs treated as plane coordinates.
// Containment is boundary-inclusive: a point on an edge is inside.
package geo

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Epsilon is the distance, in coordinate units, within which a point is
// considered to lie on a polygon edge.
const Epsilon = 1e-9

// ErrInvalidGeometry is returned for polygons with fewer than 3 distinct vertices.
var ErrInvalidGeometry = errors.New("invalid geometry")

// Point is a location in (longitude, latitude) order.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) String() string {
	return fmt.Sprintf("POINT (%g %g)", p.X, p.Y)
}

// Polygon is a single closed ring. Build it with NewPolygon or RawPolygon;
// the zero value is invalid.
type Polygon struct {
	ring []Point
	bbox [4]float64 // minX, minY, maxX, maxY
	err  error
}

// NewPolygon builds a polygon from a ring of vertices. The ring may or may
// not repeat its first vertex at the end.
func NewPolygon(vertices []Point) (Polygon, error) {
	ring := make([]Point, len(vertices))
	copy(ring, vertices)
	if n := len(ring); n > 1 && ring[0] == ring[n-1] {
		ring = ring[:n-1]
	}

	distinct := make(map[Point]struct{}, len(ring))
	for _, v := range ring {
		if math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsInf(v.X, 0) || math.IsInf(v.Y, 0) {
			return Polygon{}, fmt.Errorf("%w: non-finite vertex %v", ErrInvalidGeometry, v)
		}
		distinct[v] = struct{}{}
	}
	if len(distinct) < 3 {
		return Polygon{}, fmt.Errorf("%w: ring has %d distinct vertices, need at least 3", ErrInvalidGeometry, len(distinct))
	}

	poly := Polygon{ring: ring}
	poly.bbox = [4]float64{ring[0].X, ring[0].Y, ring[0].X, ring[0].Y}
	for _, v := range ring[1:] {
		poly.bbox[0] = math.Min(poly.bbox[0], v.X)
		poly.bbox[1] = math.Min(poly.bbox[1], v.Y)
		poly.bbox[2] = math.Max(poly.bbox[2], v.X)
		poly.bbox[3] = math.Max(poly.bbox[3], v.Y)
	}
	return poly, nil
}

// MustPolygon is like NewPolygon but panics on invalid input. Intended for fixtures.
func MustPolygon(vertices ...Point) Polygon {
	poly, err := NewPolygon(vertices)
	if err != nil {
		panic(err)
	}
	return poly
}

// RawPolygon is like NewPolygon but never fails. A ring NewPolygon rejects
// yields an invalid polygon that carries the rejection; every predicate
// called on it returns that error.
func RawPolygon(vertices []Point) Polygon {
	poly, err := NewPolygon(vertices)
	if err != nil {
		return Polygon{err: err}
	}
	return poly
}

// Valid reports whether the polygon holds a usable ring.
func (poly Polygon) Valid() bool {
	return poly.err == nil && len(poly.ring) >= 3
}

// Err returns nil for a valid polygon, otherwise an error wrapping ErrInvalidGeometry.
func (poly Polygon) Err() error {
	if poly.Valid() {
		return nil
	}
	if poly.err != nil {
		return poly.err
	}
	return ErrInvalidGeometry
}

// Vertices returns a copy of the ring without a closing vertex.
func (poly Polygon) Vertices() []Point {
	out := make([]Point, len(poly.ring))
	copy(out, poly.ring)
	return out
}

// BoundingBox returns minX, minY, maxX, maxY.
func (poly Polygon) BoundingBox() (minX, minY, maxX, maxY float64) {
	return poly.bbox[0], poly.bbox[1], poly.bbox[2], poly.bbox[3]
}

func (poly Polygon) String() string {
	if !poly.Valid() {
		return "POLYGON EMPTY"
	}
	var b strings.Builder
	b.WriteString("POLYGON ((")
	for _, v := range poly.ring {
		fmt.Fprintf(&b, "%g %g, ", v.X, v.Y)
	}
	fmt.Fprintf(&b, "%g %g))", poly.ring[0].X, poly.ring[0].Y)
	return b.String()
}

func (poly Polygon) inBBox(p Point, pad float64) bool {
	return p.X >= poly.bbox[0]-pad && p.X <= poly.bbox[2]+pad &&
		p.Y >= poly.bbox[1]-pad && p.Y <= poly.bbox[3]+pad
}

// PointInPolygon runs an even-odd ray cast toward +X.
//
// Edges are half-open in Y: an edge (a, b) crosses the ray only when
// (a.Y > p.Y) != (b.Y > p.Y). A vertex shared by two edges is therefore
// counted once and horizontal edges are never counted. Points exactly on an
// edge may resolve either way here; use Contains for boundary-inclusive tests.
func PointInPolygon(p Point, poly Polygon) (bool, error) {
	if !poly.Valid() {
		return false, poly.Err()
	}
	if !poly.inBBox(p, 0) {
		return false, nil
	}

	inside := false
	n := len(poly.ring)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := poly.ring[i], poly.ring[j]
		if (a.Y > p.Y) == (b.Y > p.Y) {
			continue
		}
		xCross := a.X + (p.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
		if p.X < xCross {
			inside = !inside
		}
	}
	return inside, nil
}

// PointOnBoundary reports whether p lies within Epsilon of any edge.
func PointOnBoundary(p Point, poly Polygon) (bool, error) {
	if !poly.Valid() {
		return false, poly.Err()
	}
	if !poly.inBBox(p, Epsilon) {
		return false, nil
	}

	n := len(poly.ring)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		if segmentDistance(p, poly.ring[j], poly.ring[i]) <= Epsilon {
			return true, nil
		}
	}
	return false, nil
}

// Contains is boundary-inclusive containment: strictly inside or on an edge.
func Contains(p Point, poly Polygon) (bool, error) {
	on, err := PointOnBoundary(p, poly)
	if err != nil || on {
		return on, err
	}
	return PointInPolygon(p, poly)
}

func segmentDistance(p, a, b Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy))
}
