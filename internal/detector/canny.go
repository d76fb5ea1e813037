package detector

import (
	"math"

	"github.com/MeKo-Tech/docscan/internal/mempool"
)

// cannyEdges returns a binary edge map using Sobel gradients, non-maximum
// suppression and hysteresis thresholding. Thresholds are gradient
// magnitudes on the 0..255 intensity scale.
func cannyEdges(g *GrayMap, low, high float64) []bool {
	w, h := g.Width, g.Height
	mag := make([]float64, w*h)
	dir := mempool.GetBytes(w * h)
	defer mempool.PutBytes(dir)

	for y := range h {
		for x := range w {
			p := func(dx, dy int) float64 { return float64(g.at(x+dx, y+dy)) }
			gx := -p(-1, -1) + p(1, -1) - 2*p(-1, 0) + 2*p(1, 0) - p(-1, 1) + p(1, 1)
			gy := -p(-1, -1) - 2*p(0, -1) - p(1, -1) + p(-1, 1) + 2*p(0, 1) + p(1, 1)
			i := y*w + x
			mag[i] = math.Hypot(gx, gy)
			dir[i] = quantizeDirection(math.Atan2(gy, gx))
		}
	}

	// Non-maximum suppression along the gradient direction.
	thin := make([]float64, w*h)
	offsets := [4][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}}
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			o := offsets[dir[i]]
			n1 := mag[(y+o[1])*w+x+o[0]]
			n2 := mag[(y-o[1])*w+x-o[0]]
			if mag[i] >= n1 && mag[i] >= n2 {
				thin[i] = mag[i]
			}
		}
	}

	// Hysteresis: grow strong edges through connected weak ones.
	edges := make([]bool, w*h)
	stack := make([]int, 0, 1024)
	for i, v := range thin {
		if v >= high && !edges[i] {
			edges[i] = true
			stack = append(stack, i)
		}
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		for k := range 8 {
			nx, ny := x+mooreDX[k], y+mooreDY[k]
			if nx < 0 || ny < 0 || nx >= w || ny >= h {
				continue
			}
			ni := ny*w + nx
			if !edges[ni] && thin[ni] >= low {
				edges[ni] = true
				stack = append(stack, ni)
			}
		}
	}
	return edges
}

// quantizeDirection maps a gradient angle to one of four sectors:
// 0 horizontal, 1 diagonal down-right, 2 vertical, 3 diagonal down-left.
func quantizeDirection(angle float64) uint8 {
	if angle < 0 {
		angle += math.Pi
	}
	switch {
	case angle < math.Pi/8 || angle >= 7*math.Pi/8:
		return 0
	case angle < 3*math.Pi/8:
		return 1
	case angle < 5*math.Pi/8:
		return 2
	default:
		return 3
	}
}
