package raster

// Luminance returns the Rec.601 luma of an RGB triple.
func Luminance(r, g, b uint8) float64 {
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}

// Luma8 returns Luminance rounded to the nearest level.
func Luma8(r, g, b uint8) uint8 {
	return ClampByte(Luminance(r, g, b))
}

// Gray returns the rounded luminance of every pixel.
func (r *Raster) Gray() []uint8 {
	out := make([]uint8, r.Width*r.Height)
	for i, j := 0, 0; i < len(r.Pix); i, j = i+Channels, j+1 {
		out[j] = Luma8(r.Pix[i], r.Pix[i+1], r.Pix[i+2])
	}
	return out
}

// Histogram counts pixels per luminance level.
type Histogram [256]int

// LuminanceHistogram builds the luminance histogram of the raster.
func (r *Raster) LuminanceHistogram() Histogram {
	var h Histogram
	for i := 0; i < len(r.Pix); i += Channels {
		h[Luma8(r.Pix[i], r.Pix[i+1], r.Pix[i+2])]++
	}
	return h
}

// HistogramOf builds a histogram from gray levels.
func HistogramOf(gray []uint8) Histogram {
	var h Histogram
	for _, v := range gray {
		h[v]++
	}
	return h
}

// Total returns the number of samples.
func (h *Histogram) Total() int {
	n := 0
	for _, c := range h {
		n += c
	}
	return n
}

// Percentile returns the smallest level at or below which at least frac of the samples fall.
func (h *Histogram) Percentile(frac float64) int {
	total := h.Total()
	if total == 0 {
		return 0
	}
	target := frac * float64(total)
	acc := 0
	for level, c := range h {
		acc += c
		if float64(acc) >= target {
			return level
		}
	}
	return 255
}

// OtsuThreshold picks the level maximizing between-class variance.
// Pixels with a level strictly greater than the threshold form the foreground.
// ok is false when the histogram has a single populated level and no split exists.
func (h *Histogram) OtsuThreshold() (threshold int, ok bool) {
	total := h.Total()
	if total == 0 {
		return 0, false
	}

	var sumAll float64
	for i, c := range h {
		sumAll += float64(i) * float64(c)
	}

	var sumB, maxVariance float64
	wB := 0
	for t := range 256 {
		wB += h[t]
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * float64(h[t])
		meanB := sumB / float64(wB)
		meanF := (sumAll - sumB) / float64(wF)

		variance := float64(wB) * float64(wF) * (meanB - meanF) * (meanB - meanF)
		if variance > maxVariance {
			maxVariance = variance
			threshold = t
		}
	}
	return threshold, maxVariance > 0
}
