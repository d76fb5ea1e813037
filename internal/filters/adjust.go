package filters

import (
	"github.com/MeKo-Tech/docscan/internal/raster"
)

type rgbFunc = func(r, g, b uint8) (uint8, uint8, uint8)

// lut3 applies the same lookup table to all three colour channels.
func lut3(table *[256]uint8) rgbFunc {
	return func(r, g, b uint8) (uint8, uint8, uint8) {
		return table[r], table[g], table[b]
	}
}

// BrightnessStage shifts every channel by value/100*255.
func BrightnessStage() Stage {
	return pixelStage{
		name:   StageBrightness,
		active: func(p Params) bool { return p.Brightness != 0 },
		prepare: func(_ *raster.Raster, p Params) rgbFunc {
			shift := p.Brightness / 100 * 255
			var table [256]uint8
			for v := range table {
				table[v] = raster.ClampByte(float64(v) + shift)
			}
			return lut3(&table)
		},
	}
}

// contrastFactor is the classic F = 259(C+255) / (255(259-C)).
func contrastFactor(c float64) float64 {
	if c >= 259 {
		c = 258
	}
	return 259 * (c + 255) / (255 * (259 - c))
}

// ContrastStage remaps every channel to F*(v-128)+128.
func ContrastStage() Stage {
	return pixelStage{
		name:   StageContrast,
		active: func(p Params) bool { return p.Contrast != 0 },
		prepare: func(_ *raster.Raster, p Params) rgbFunc {
			f := contrastFactor(p.Contrast)
			var table [256]uint8
			for v := range table {
				table[v] = raster.ClampByte(f*(float64(v)-128) + 128)
			}
			return lut3(&table)
		},
	}
}

// SaturationStage blends each pixel with its luminance:
// gray + (v-gray)*(1+s).
func SaturationStage() Stage {
	return pixelStage{
		name:   StageSaturation,
		active: func(p Params) bool { return p.Saturation != 0 },
		prepare: func(_ *raster.Raster, p Params) rgbFunc {
			k := 1 + p.Saturation/100
			return func(r, g, b uint8) (uint8, uint8, uint8) {
				gray := raster.Luminance(r, g, b)
				mix := func(v uint8) uint8 { return raster.ClampByte(gray + (float64(v)-gray)*k) }
				return mix(r), mix(g), mix(b)
			}
		},
	}
}

// ColorStage applies temperature (red up, blue down when warm) and then
// tint (green up, red and blue down when positive). Each shift saturates
// at the channel bounds.
func ColorStage() Stage {
	return pixelStage{
		name:   StageColor,
		active: func(p Params) bool { return p.Temperature != 0 || p.Tint != 0 },
		prepare: func(_ *raster.Raster, p Params) rgbFunc {
			temp := p.Temperature / 100 * 30
			gShift := p.Tint / 100 * 20
			rbShift := p.Tint / 100 * 10
			return func(r, g, b uint8) (uint8, uint8, uint8) {
				fr, fg, fb := float64(r), float64(g), float64(b)
				if temp != 0 {
					fr = float64(raster.ClampByte(fr + temp))
					fb = float64(raster.ClampByte(fb - temp))
				}
				if gShift != 0 {
					fg += gShift
					fr -= rbShift
					fb -= rbShift
				}
				return raster.ClampByte(fr), raster.ClampByte(fg), raster.ClampByte(fb)
			}
		},
	}
}
