package geometry

import "math"

// PointInPolygon tests if a point is inside a polygon using ray casting.
func PointInPolygon(p Point2D, polygon []Point2D) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	n := len(polygon)

	for i := 0; i < n; i++ {
		j := (i + 1) % n
		pi, pj := polygon[i], polygon[j]

		// Check if ray from p going right intersects edge pi-pj
		if ((pi.Y > p.Y) != (pj.Y > p.Y)) &&
			(p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X) {
			inside = !inside
		}
	}

	return inside
}

// SegmentDistance returns the distance from point p to the line segment a-b.
func SegmentDistance(p, a, b Point2D) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	lenSq := dx*dx + dy*dy
	if lenSq < 1e-12 {
		return p.Distance(a)
	}

	// Project p onto the segment, clamped to the endpoints.
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	closest := Point2D{X: a.X + t*dx, Y: a.Y + t*dy}
	return p.Distance(closest)
}

// PolylineDistance returns the minimum distance from p to any segment of the
// polyline. A single-point polyline degenerates to point distance; an empty
// polyline returns +Inf.
func PolylineDistance(p Point2D, polyline []Point2D) float64 {
	switch len(polyline) {
	case 0:
		return math.Inf(1)
	case 1:
		return p.Distance(polyline[0])
	}

	min := math.Inf(1)
	for i := 0; i < len(polyline)-1; i++ {
		d := SegmentDistance(p, polyline[i], polyline[i+1])
		if d < min {
			min = d
		}
	}
	return min
}

// PolylineHit reports whether p lies within tolerance of the polyline.
func PolylineHit(p Point2D, polyline []Point2D, tolerance float64) bool {
	return PolylineDistance(p, polyline) <= tolerance
}
