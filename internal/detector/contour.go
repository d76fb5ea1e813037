package detector

import "github.com/MeKo-Tech/docscan/internal/utils"

// Moore neighbourhood in clockwise order (image coordinates): E, SE, S, SW, W, NW, N, NE.
var (
	mooreDX = [8]int{1, 1, 0, -1, -1, -1, 0, 1}
	mooreDY = [8]int{0, 1, 1, 1, 0, -1, -1, -1}
)

// traceOuterContour follows the outer boundary of a labeled component using
// radial sweep over the Moore neighbourhood. Tracing starts at the first
// component pixel in raster order, which always lies on the outer boundary,
// and stops once the first move repeats. Collinear runs are collapsed and
// points are pixel centres.
func traceOuterContour(labels []int, w, h int, st compStats) []utils.Point {
	if st.label <= 0 || len(labels) != w*h {
		return nil
	}

	sx, sy := findStartPixel(labels, w, st)
	if sx < 0 {
		return nil
	}

	pts := make([]utils.Point, 0, 64)
	add := func(x, y int) {
		p := utils.Point{X: float64(x), Y: float64(y)}
		n := len(pts)
		if n > 0 && pts[n-1] == p {
			return
		}
		if n >= 2 && utils.Cross(pts[n-2], pts[n-1], p) == 0 {
			pts = pts[:n-1]
		}
		pts = append(pts, p)
	}
	add(sx, sy)

	// West of the start pixel is background, so it seeds the sweep.
	cx, cy := sx, sy
	px, py := sx-1, sy
	firstX, firstY := -1, -1
	maxSteps := 4*w*h + 8

	for step := range maxSteps {
		nx, ny, ok := nextBoundaryPixel(labels, w, h, st.label, cx, cy, px, py)
		if !ok {
			// isolated pixel
			break
		}
		if step == 0 {
			firstX, firstY = nx, ny
		} else if cx == sx && cy == sy && nx == firstX && ny == firstY {
			break
		}
		px, py = cx, cy
		cx, cy = nx, ny
		add(cx, cy)
	}

	if n := len(pts); n >= 2 && pts[0] == pts[n-1] {
		pts = pts[:n-1]
	}
	return pts
}

func findStartPixel(labels []int, w int, st compStats) (int, int) {
	for y := st.minY; y <= st.maxY; y++ {
		for x := st.minX; x <= st.maxX; x++ {
			if labels[y*w+x] == st.label {
				return x, y
			}
		}
	}
	return -1, -1
}

// nextBoundaryPixel sweeps clockwise around (cx, cy), starting just after
// the previous position (px, py), and returns the first component pixel.
func nextBoundaryPixel(labels []int, w, h, label, cx, cy, px, py int) (int, int, bool) {
	start := (mooreIndex(px-cx, py-cy) + 1) % 8
	for k := range 8 {
		i := (start + k) % 8
		tx, ty := cx+mooreDX[i], cy+mooreDY[i]
		if tx >= 0 && ty >= 0 && tx < w && ty < h && labels[ty*w+tx] == label {
			return tx, ty, true
		}
	}
	return 0, 0, false
}

func mooreIndex(dx, dy int) int {
	for i := range 8 {
		if mooreDX[i] == dx && mooreDY[i] == dy {
			return i
		}
	}
	return 0
}
