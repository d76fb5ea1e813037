package rectify

import (
	"math"

	"github.com/MeKo-Tech/docscan/internal/utils"
)

// pivotEpsilon is the smallest pivot accepted before the system is treated as singular.
const pivotEpsilon = 1e-10

// computeHomography computes the 3x3 matrix H mapping p[i] -> q[i],
// returned row-major with h22 = 1.
func computeHomography(p, q [4]utils.Point) ([9]float64, bool) {
	// 8x8 system A*h = b for the unknowns h00..h21.
	var A [8][8]float64
	var b [8]float64
	for i := range 4 {
		X, Y := p[i].X, p[i].Y
		x, y := q[i].X, q[i].Y
		r := 2 * i
		// x' = (h00 X + h01 Y + h02)/(h20 X + h21 Y + 1)
		A[r] = [8]float64{X, Y, 1, 0, 0, 0, -X * x, -Y * x}
		b[r] = x
		// y' = (h10 X + h11 Y + h12)/(h20 X + h21 Y + 1)
		A[r+1] = [8]float64{0, 0, 0, X, Y, 1, -X * y, -Y * y}
		b[r+1] = y
	}

	h, ok := solve8x8(A, b)
	if !ok {
		return [9]float64{}, false
	}
	for _, v := range h {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return [9]float64{}, false
		}
	}
	return [9]float64{h[0], h[1], h[2], h[3], h[4], h[5], h[6], h[7], 1}, true
}

// solve8x8 solves a*x = b by Gauss-Jordan elimination with partial pivoting.
func solve8x8(a [8][8]float64, b [8]float64) ([8]float64, bool) {
	matrix := a
	vector := b

	// Scale the pivot tolerance to the magnitude of the system.
	scale := 0.0
	for i := range 8 {
		for j := range 8 {
			scale = math.Max(scale, math.Abs(matrix[i][j]))
		}
	}
	if scale == 0 {
		return [8]float64{}, false
	}
	tol := pivotEpsilon * scale

	for i := range 8 {
		if !pivotAndNormalize(&matrix, &vector, i, tol) {
			return [8]float64{}, false
		}
		eliminateColumn(&matrix, &vector, i)
	}
	return vector, true
}

func pivotAndNormalize(matrix *[8][8]float64, vector *[8]float64, col int, tol float64) bool {
	pivotRow := findPivotRow(*matrix, col, tol)
	if pivotRow == -1 {
		return false
	}
	if pivotRow != col {
		swapRows(matrix, vector, col, pivotRow)
	}
	normalizeRow(matrix, vector, col)
	return true
}

// findPivotRow returns the row at or below col with the largest entry in
// col, or -1 if every candidate is within tol of zero.
func findPivotRow(matrix [8][8]float64, col int, tol float64) int {
	maxAbs := math.Abs(matrix[col][col])
	pivotRow := col
	for r := col + 1; r < 8; r++ {
		if v := math.Abs(matrix[r][col]); v > maxAbs {
			maxAbs = v
			pivotRow = r
		}
	}
	if maxAbs <= tol {
		return -1
	}
	return pivotRow
}

func swapRows(matrix *[8][8]float64, vector *[8]float64, row1, row2 int) {
	matrix[row1], matrix[row2] = matrix[row2], matrix[row1]
	vector[row1], vector[row2] = vector[row2], vector[row1]
}

func normalizeRow(matrix *[8][8]float64, vector *[8]float64, row int) {
	div := matrix[row][row]
	for c := row; c < 8; c++ {
		matrix[row][c] /= div
	}
	vector[row] /= div
}

func eliminateColumn(matrix *[8][8]float64, vector *[8]float64, col int) {
	for r := range 8 {
		if r == col {
			continue
		}
		factor := matrix[r][col]
		if factor == 0 {
			continue
		}
		for c := col; c < 8; c++ {
			matrix[r][c] -= factor * matrix[col][c]
		}
		vector[r] -= factor * vector[col]
	}
}

// applyHomography maps (x, y) through h. A point on the line at infinity
// maps to NaN, which samples as out of bounds.
func applyHomography(h [9]float64, x, y float64) (float64, float64) {
	denom := h[6]*x + h[7]*y + h[8]
	if denom == 0 {
		return math.NaN(), math.NaN()
	}
	sx := (h[0]*x + h[1]*y + h[2]) / denom
	sy := (h[3]*x + h[4]*y + h[5]) / denom
	return sx, sy
}
