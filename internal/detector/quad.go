package detector

import (
	"math"
	"sort"

	"github.com/MeKo-Tech/docscan/internal/raster"
	"github.com/MeKo-Tech/docscan/internal/utils"
)

// approximateQuad loosens the Douglas–Peucker tolerance from 1% to 5% of
// the perimeter until the contour reduces to exactly four vertices. When no
// tolerance does, the best available decomposition is reduced by quadrant
// selection.
func approximateQuad(contour []utils.Point, w, h int) raster.CornerSet {
	perimeter := utils.ArcLength(contour)
	for _, f := range []float64{0.01, 0.02, 0.03, 0.04, 0.05} {
		approx := utils.ApproxPolygon(contour, f*perimeter)
		if len(approx) == 4 {
			var cs raster.CornerSet
			copy(cs[:], approx)
			return orderCorners(cs)
		}
	}

	best := utils.ApproxPolygon(contour, 0.02*perimeter)
	if len(best) < 4 {
		best = contour
	}
	return orderCorners(reduceByQuadrant(best, contour, w, h))
}

// reduceByQuadrant keeps, for each angular quadrant around the centroid,
// the candidate farthest from the centroid. An empty quadrant is filled
// with the contour point nearest to the matching raster corner.
func reduceByQuadrant(candidates, contour []utils.Point, w, h int) raster.CornerSet {
	c := utils.Centroid(candidates)
	var out raster.CornerSet
	var found [4]bool
	var bestD [4]float64

	for _, p := range candidates {
		q := quadrantOf(p, c)
		if d := utils.Distance(p, c); !found[q] || d > bestD[q] {
			out[q] = p
			bestD[q] = d
			found[q] = true
		}
	}

	targets := raster.FullFrame(w, h)
	for q := range 4 {
		if found[q] {
			continue
		}
		pool := contour
		if len(pool) == 0 {
			pool = candidates
		}
		if len(pool) == 0 {
			out[q] = targets[q]
			continue
		}
		nearest, nearestD := pool[0], math.Inf(1)
		for _, p := range pool {
			if d := utils.Distance(p, targets[q]); d < nearestD {
				nearest, nearestD = p, d
			}
		}
		out[q] = nearest
	}
	return out
}

// quadrantOf returns 0 for top-left, 1 top-right, 2 bottom-right, 3 bottom-left.
func quadrantOf(p, c utils.Point) int {
	right := p.X >= c.X
	below := p.Y >= c.Y
	switch {
	case !right && !below:
		return 0
	case right && !below:
		return 1
	case right && below:
		return 2
	default:
		return 3
	}
}

// orderCorners sorts the points by polar angle about their centroid and
// rotates the sequence so the point with the smallest x+y comes first.
// With y pointing down, increasing angle runs clockwise on screen, which
// yields top-left, top-right, bottom-right, bottom-left.
func orderCorners(cs raster.CornerSet) raster.CornerSet {
	c := utils.Centroid(cs[:])
	pts := cs.Slice()
	sort.SliceStable(pts, func(i, j int) bool {
		return math.Atan2(pts[i].Y-c.Y, pts[i].X-c.X) < math.Atan2(pts[j].Y-c.Y, pts[j].X-c.X)
	})

	first := 0
	for i, p := range pts {
		if p.X+p.Y < pts[first].X+pts[first].Y {
			first = i
		}
	}

	var out raster.CornerSet
	for i := range 4 {
		out[i] = pts[(first+i)%4]
	}
	return out
}
