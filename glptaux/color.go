package glptaux

import (
	"image/color"

	math "github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glgl/math/ms1"
)

// HSV blending after Esme Lamb's (@dedelala) color work presented at
// Gophercon AU 2024: https://github.com/dedelala/disco/tree/main/color

var red = color.RGBA{R: 255, A: 255}

// Luminance returns the relative luminance of linear sRGB radiance.
func Luminance(c ms3.Vec) float32 {
	return 0.2126*c.X + 0.7152*c.Y + 0.0722*c.Z
}

// ColorConversionLuminance creates a false color conversion that maps
// luminance zero to c0 and maxLuminance or above to c1, interpolating in HSV.
// Useful to inspect exposure and fireflies. Returns red for NaN values.
func ColorConversionLuminance(maxLuminance float32, c0, c1 color.Color) ColorConversion {
	hsv0, hsv1 := toHSV(c0), toHSV(c1)
	inv := 1 / maxLuminance
	return func(linear ms3.Vec) color.Color {
		lum := Luminance(linear)
		if math.IsNaN(lum) {
			return red
		}
		blend := lum * inv
		if blend <= 0 {
			return c0
		} else if blend >= 1 {
			return c1
		}
		return hsv0.lerp(hsv1, blend).rgba()
	}
}

// hsv is a color as hue, saturation and value, each in [0,1].
type hsv struct{ h, s, v float32 }

func toHSV(c color.Color) hsv {
	r16, g16, b16, _ := c.RGBA()
	r, g, b := float32(r16)/0xffff, float32(g16)/0xffff, float32(b16)/0xffff
	hi := max(r, g, b)
	chroma := hi - min(r, g, b)
	out := hsv{v: hi}
	if hi > 0 {
		out.s = chroma / hi
	}
	if chroma == 0 {
		return out
	}
	var sector float32
	switch hi {
	case r:
		sector = (g - b) / chroma
	case g:
		sector = 2 + (b-r)/chroma
	default:
		sector = 4 + (r-g)/chroma
	}
	out.h = sector / 6
	if out.h < 0 {
		out.h++
	}
	return out
}

// lerp blends towards c1 taking the short way around the hue circle.
func (c0 hsv) lerp(c1 hsv, t float32) hsv {
	h0, h1 := c0.h, c1.h
	if h1-h0 > 0.5 {
		h0++
	} else if h0-h1 > 0.5 {
		h1++
	}
	h := ms1.Interp(h0, h1, t)
	if h >= 1 {
		h--
	}
	return hsv{h: h, s: ms1.Interp(c0.s, c1.s, t), v: ms1.Interp(c0.v, c1.v, t)}
}

func (c hsv) rgba() color.RGBA {
	chroma := c.s * c.v
	sector := c.h * 6
	x := chroma * (1 - math.Abs(math.Mod(sector, 2)-1))
	var r, g, b float32
	switch int(sector) % 6 {
	case 0:
		r, g = chroma, x
	case 1:
		r, g = x, chroma
	case 2:
		g, b = chroma, x
	case 3:
		g, b = x, chroma
	case 4:
		r, b = x, chroma
	default:
		r, b = chroma, x
	}
	m := c.v - chroma
	to8 := func(f float32) uint8 { return uint8(ms1.Clamp(f+m, 0, 1)*255 + 0.5) }
	return color.RGBA{R: to8(r), G: to8(g), B: to8(b), A: 255}
}
