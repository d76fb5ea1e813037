package session

import (
	"github.com/MeKo-Tech/docscan/internal/raster"
	"github.com/MeKo-Tech/docscan/internal/utils"
)

// DefaultPickRadius is the hit radius for corner handles, in pixels.
const DefaultPickRadius = 20.0

// PickCorner returns the index of the corner nearest to p within radius,
// or -1. A non-positive radius means DefaultPickRadius.
func PickCorner(corners raster.CornerSet, p raster.Point, radius float64) int {
	if radius <= 0 {
		radius = DefaultPickRadius
	}
	best, bestDist := -1, 0.0
	for i, c := range corners {
		d := utils.Distance(c, p)
		if d <= radius && (best < 0 || d < bestDist) {
			best, bestDist = i, d
		}
	}
	return best
}
