package utils

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// genPoint generates a random point.
func genPoint() gopter.Gen {
	return gopter.CombineGens(
		gen.Float64Range(-100, 100),
		gen.Float64Range(-100, 100),
	).Map(func(vals []interface{}) Point {
		return Point{X: vals[0].(float64), Y: vals[1].(float64)}
	})
}

func TestApproxPolygon_OutputIsSubset(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("approximation keeps only input vertices", prop.ForAll(
		func(points []Point, epsilon float64) bool {
			approx := ApproxPolygon(points, epsilon)
			if len(approx) > len(points) {
				return false
			}
			for _, a := range approx {
				found := false
				for _, p := range points {
					if p == a {
						found = true
						break
					}
				}
				if !found {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(12, genPoint()),
		gen.Float64Range(0.1, 10.0),
	))

	properties.TestingRun(t)
}

func TestConvexHull_ContainsAllPoints(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("every point lies inside or on the hull", prop.ForAll(
		func(points []Point) bool {
			hull := ConvexHull(points)
			if len(hull) < 3 {
				return true
			}
			orientation := math.Copysign(1, PolygonArea(hull))
			for _, p := range points {
				for i := range hull {
					if orientation*Cross(hull[i], hull[(i+1)%len(hull)], p) < -1e-9 {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOfN(15, genPoint()),
	))

	properties.TestingRun(t)
}
