package detector

import "github.com/MeKo-Tech/docscan/internal/mempool"

// MorphologicalOp represents the type of morphological operation to perform on a mask.
type MorphologicalOp int

const (
	MorphNone MorphologicalOp = iota
	MorphDilate
	MorphErode
	MorphOpening // Erode then Dilate - removes small noise
	MorphClosing // Dilate then Erode - fills gaps
)

// MorphConfig holds configuration for morphological operations.
type MorphConfig struct {
	Operation  MorphologicalOp
	KernelSize int // Size of the square structuring element (e.g., 3 for 3x3)
	Iterations int // Number of times to apply the operation
}

// ApplyMorphology applies a morphological operation to a binary mask and
// returns a new mask. The input is not modified.
func ApplyMorphology(mask []bool, width, height int, config MorphConfig) []bool {
	result := make([]bool, len(mask))
	copy(result, mask)
	if config.Operation == MorphNone || config.KernelSize <= 1 || config.Iterations <= 0 {
		return result
	}

	for range config.Iterations {
		switch config.Operation {
		case MorphDilate:
			result = dilateMask(result, width, height, config.KernelSize)
		case MorphErode:
			result = erodeMask(result, width, height, config.KernelSize)
		case MorphOpening:
			result = erodeMask(result, width, height, config.KernelSize)
			result = dilateMask(result, width, height, config.KernelSize)
		case MorphClosing:
			result = dilateMask(result, width, height, config.KernelSize)
			result = erodeMask(result, width, height, config.KernelSize)
		}
	}

	return result
}

// dilateMask sets a pixel when any pixel under the kernel is set.
func dilateMask(mask []bool, width, height, kernelSize int) []bool {
	return sweepMask(mask, width, height, kernelSize, true)
}

// erodeMask keeps a pixel only when every in-bounds pixel under the kernel is set.
func erodeMask(mask []bool, width, height, kernelSize int) []bool {
	return sweepMask(mask, width, height, kernelSize, false)
}

// sweepMask runs a separable max (dilate) or min (erode) filter: a square
// kernel decomposes into a horizontal pass followed by a vertical pass.
func sweepMask(mask []bool, width, height, kernelSize int, dilate bool) []bool {
	half := kernelSize / 2
	tmp := mempool.GetBool(len(mask))
	defer mempool.PutBool(tmp)
	out := make([]bool, len(mask))

	for y := range height {
		row := y * width
		for x := range width {
			tmp[row+x] = reduceWindow(!dilate, func(k int) (bool, bool) {
				nx := x + k
				if nx < 0 || nx >= width {
					return false, false
				}
				return mask[row+nx], true
			}, half)
		}
	}
	for y := range height {
		for x := range width {
			out[y*width+x] = reduceWindow(!dilate, func(k int) (bool, bool) {
				ny := y + k
				if ny < 0 || ny >= height {
					return false, false
				}
				return tmp[ny*width+x], true
			}, half)
		}
	}
	return out
}

// reduceWindow folds the window [-half, half] with AND (all=true) or OR.
func reduceWindow(all bool, at func(int) (bool, bool), half int) bool {
	for k := -half; k <= half; k++ {
		v, ok := at(k)
		if !ok {
			continue
		}
		if all && !v {
			return false
		}
		if !all && v {
			return true
		}
	}
	return all
}
