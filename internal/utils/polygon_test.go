package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// densify samples points along the closed polygon every step pixels.
func densify(poly []Point, step float64) []Point {
	var out []Point
	for i := range poly {
		a := poly[i]
		b := poly[(i+1)%len(poly)]
		n := int(math.Ceil(Distance(a, b) / step))
		for k := range n {
			t := float64(k) / float64(n)
			out = append(out, Point{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t})
		}
	}
	return out
}

func TestPolygonArea(t *testing.T) {
	square := []Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	assert.InDelta(t, 100, PolygonArea(square), 1e-9)

	reversed := []Point{{0, 10}, {10, 10}, {10, 0}, {0, 0}}
	assert.InDelta(t, -100, PolygonArea(reversed), 1e-9)

	assert.Zero(t, PolygonArea([]Point{{0, 0}, {1, 1}}))
}

func TestArcLength(t *testing.T) {
	assert.InDelta(t, 40, ArcLength([]Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}), 1e-9)
	assert.Zero(t, ArcLength(nil))
}

func TestApproxPolygon(t *testing.T) {
	tests := []struct {
		name    string
		poly    []Point
		epsilon float64
		want    int
	}{
		{"axis aligned rectangle", []Point{{10, 10}, {110, 10}, {110, 60}, {10, 60}}, 1, 4},
		{"skewed quad", []Point{{12, 8}, {140, 20}, {130, 90}, {5, 70}}, 1.5, 4},
		{"triangle", []Point{{0, 0}, {80, 0}, {40, 60}}, 1, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contour := densify(tt.poly, 1)
			got := ApproxPolygon(contour, tt.epsilon)
			require.Len(t, got, tt.want)
			for _, v := range tt.poly {
				nearest := math.Inf(1)
				for _, g := range got {
					nearest = math.Min(nearest, Distance(v, g))
				}
				assert.Less(t, nearest, 2.0, "vertex %v not recovered", v)
			}
		})
	}
}

func TestApproxPolygon_StartIndependent(t *testing.T) {
	contour := densify([]Point{{0, 0}, {100, 0}, {100, 50}, {0, 50}}, 1)
	for _, shift := range []int{0, 17, 75, 200} {
		rotated := append(append([]Point(nil), contour[shift:]...), contour[:shift]...)
		assert.Len(t, ApproxPolygon(rotated, 1), 4, "shift %d", shift)
	}
}

func TestConvexHull(t *testing.T) {
	pts := []Point{{0, 0}, {10, 0}, {5, 5}, {10, 10}, {0, 10}, {5, 1}, {0, 0}}
	hull := ConvexHull(pts)
	require.Len(t, hull, 4)
	assert.InDelta(t, 100, math.Abs(PolygonArea(hull)), 1e-9)
}

func TestIsConvexQuad(t *testing.T) {
	assert.True(t, IsConvexQuad([4]Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}))
	assert.False(t, IsConvexQuad([4]Point{{0, 0}, {10, 10}, {10, 0}, {0, 10}}), "bow tie")
	assert.False(t, IsConvexQuad([4]Point{{0, 0}, {5, 0}, {10, 0}, {0, 10}}), "collinear")
}

func TestCentroidAndBoundingBox(t *testing.T) {
	pts := []Point{{0, 0}, {4, 0}, {4, 2}, {0, 2}}
	assert.Equal(t, Point{X: 2, Y: 1}, Centroid(pts))
	bb := BoundingBox(pts)
	assert.InDelta(t, 4, bb.Width(), 1e-9)
	assert.InDelta(t, 2, bb.Height(), 1e-9)
	assert.Equal(t, Box{}, BoundingBox(nil))
}
