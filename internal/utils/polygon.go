package utils

import (
	"math"
	"sort"
)

// PolygonArea returns the signed shoelace area of a closed polygon.
// Positive values mean clockwise order in image coordinates (y down).
func PolygonArea(pts []Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	sum := 0.0
	for i := range pts {
		a := pts[i]
		b := pts[(i+1)%len(pts)]
		sum += a.X*b.Y - b.X*a.Y
	}
	return sum / 2
}

// ArcLength returns the perimeter of the closed polygon.
func ArcLength(pts []Point) float64 {
	if len(pts) < 2 {
		return 0
	}
	total := 0.0
	for i := range pts {
		total += Distance(pts[i], pts[(i+1)%len(pts)])
	}
	return total
}

// ApproxPolygon simplifies a closed contour with the Douglas–Peucker algorithm.
// The contour is split at its two mutually distant points so the result does
// not depend on where tracing started. Vertices keep their contour order.
func ApproxPolygon(pts []Point, epsilon float64) []Point {
	n := len(pts)
	if n <= 3 || epsilon <= 0 {
		return append([]Point(nil), pts...)
	}

	far := farthestFrom(pts, pts[0])
	start := farthestFrom(pts, pts[far])

	// Rotate so the chain starts at start and append it again to close the loop.
	ring := make([]Point, 0, n+1)
	ring = append(ring, pts[start:]...)
	ring = append(ring, pts[:start]...)
	ring = append(ring, ring[0])
	mid := (far - start + n) % n

	keep := make([]bool, len(ring))
	keep[0] = true
	keep[mid] = true
	keep[n] = true
	dpSimplify(ring, 0, mid, epsilon, keep)
	dpSimplify(ring, mid, n, epsilon, keep)

	out := make([]Point, 0, 8)
	for i := 0; i < n; i++ {
		if keep[i] {
			out = append(out, ring[i])
		}
	}
	return out
}

func farthestFrom(pts []Point, ref Point) int {
	best, bestD := 0, -1.0
	for i, p := range pts {
		if d := Distance(p, ref); d > bestD {
			best, bestD = i, d
		}
	}
	return best
}

func dpSimplify(pts []Point, start, end int, eps float64, keep []bool) {
	if end <= start+1 {
		return
	}
	maxDist := -1.0
	index := -1
	a := pts[start]
	b := pts[end]
	for i := start + 1; i < end; i++ {
		d := perpendicularDistance(pts[i], a, b)
		if d > maxDist {
			maxDist = d
			index = i
		}
	}
	if maxDist > eps {
		keep[index] = true
		dpSimplify(pts, start, index, eps, keep)
		dpSimplify(pts, index, end, eps, keep)
	}
}

func perpendicularDistance(p, a, b Point) float64 {
	vx, vy := b.X-a.X, b.Y-a.Y
	if vx == 0 && vy == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	// Area of parallelogram / base length
	num := math.Abs((p.X-a.X)*vy - (p.Y-a.Y)*vx)
	den := math.Hypot(vx, vy)
	return num / den
}

// ConvexHull computes the convex hull of a set of points using the
// monotone chain algorithm. Returns the hull without duplicating the first
// point at the end.
func ConvexHull(pts []Point) []Point {
	n := len(pts)
	if n <= 1 {
		return append([]Point(nil), pts...)
	}
	p := make([]Point, n)
	copy(p, pts)
	sortPoints(p)
	p = removeDuplicatePoints(p)
	if len(p) <= 2 {
		return p
	}
	lower := buildHalfHull(p, 0, len(p), 1)
	upper := buildHalfHull(p, len(p)-1, -1, -1)
	hull := make([]Point, 0, len(lower)+len(upper)-2)
	hull = append(hull, lower[:len(lower)-1]...)
	hull = append(hull, upper[:len(upper)-1]...)
	return hull
}

func removeDuplicatePoints(p []Point) []Point {
	q := p[:0]
	for i, pt := range p {
		if i == 0 || pt != q[len(q)-1] {
			q = append(q, pt)
		}
	}
	return q
}

func buildHalfHull(p []Point, from, to, step int) []Point {
	half := make([]Point, 0, len(p))
	for i := from; i != to; i += step {
		pt := p[i]
		for len(half) >= 2 && Cross(half[len(half)-2], half[len(half)-1], pt) <= 0 {
			half = half[:len(half)-1]
		}
		half = append(half, pt)
	}
	return half
}

func sortPoints(p []Point) {
	sort.Slice(p, func(i, j int) bool {
		if p[i].X != p[j].X {
			return p[i].X < p[j].X
		}
		return p[i].Y < p[j].Y
	})
}

// Cross returns the z component of (a-o) x (b-o).
func Cross(o, a, b Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// IsConvexQuad reports whether the four points form a strictly convex,
// non-self-intersecting quadrilateral in the given order.
func IsConvexQuad(q [4]Point) bool {
	sign := 0.0
	for i := range 4 {
		c := Cross(q[i], q[(i+1)%4], q[(i+2)%4])
		if c == 0 {
			return false
		}
		if sign == 0 {
			sign = c
		} else if (c > 0) != (sign > 0) {
			return false
		}
	}
	return true
}
