package detector

import (
	"container/list"
)

// compStats describes one 4-connected component of a binary mask.
type compStats struct {
	label int
	count int
	minX  int
	minY  int
	maxX  int
	maxY  int
}

// boxArea is the area of the component's bounding box, an upper bound on
// the area enclosed by its outer contour.
func (c compStats) boxArea() int {
	return (c.maxX - c.minX + 1) * (c.maxY - c.minY + 1)
}

// touchesAllBorders reports whether the component spans the whole frame.
func (c compStats) touchesAllBorders(w, h int) bool {
	return c.minX == 0 && c.minY == 0 && c.maxX == w-1 && c.maxY == h-1
}

// connectedComponents labels 4-connected foreground regions of mask.
// Labels start at 1; background pixels keep label 0.
func connectedComponents(mask []bool, w, h int) ([]compStats, []int) {
	labels := make([]int, w*h)
	var comps []compStats
	label := 1

	for y := range h {
		for x := range w {
			idx := y*w + x
			if mask[idx] && labels[idx] == 0 {
				comps = append(comps, floodComponent(mask, labels, w, h, x, y, label))
				label++
			}
		}
	}

	return comps, labels
}

// floodComponent runs a BFS from the seed pixel and collects bounding statistics.
func floodComponent(mask []bool, labels []int, w, h, startX, startY, label int) compStats {
	st := compStats{label: label, minX: startX, minY: startY, maxX: startX, maxY: startY}
	q := list.New()
	start := startY*w + startX
	labels[start] = label
	q.PushBack(start)

	dirs := [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

	for q.Len() > 0 {
		e := q.Front()
		q.Remove(e)
		ci, ok := e.Value.(int)
		if !ok {
			continue
		}
		cx, cy := ci%w, ci/w
		st.count++
		st.minX = min(st.minX, cx)
		st.minY = min(st.minY, cy)
		st.maxX = max(st.maxX, cx)
		st.maxY = max(st.maxY, cy)

		for _, d := range dirs {
			nx, ny := cx+d[0], cy+d[1]
			if nx < 0 || ny < 0 || nx >= w || ny >= h {
				continue
			}
			ni := ny*w + nx
			if mask[ni] && labels[ni] == 0 {
				labels[ni] = label
				q.PushBack(ni)
			}
		}
	}
	return st
}
