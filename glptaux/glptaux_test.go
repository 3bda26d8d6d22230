package glptaux

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	math "github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glpt"
	"github.com/soypat/glpt/gleval"
)

func TestTonemapConversion(t *testing.T) {
	gray := func(v uint8) color.RGBA { return color.RGBA{R: v, G: v, B: v, A: 255} }
	one := ms3.Vec{X: 1, Y: 1, Z: 1}
	for _, test := range []struct {
		tm         gleval.Tonemap
		brightness float32
		in         ms3.Vec
		want       color.RGBA
	}{
		{gleval.TonemapGamma, 1, ms3.Vec{}, gray(0)},
		{gleval.TonemapGamma, 1, one, gray(255)},
		{gleval.TonemapGamma, 0.5, one, gray(128)},
		{gleval.TonemapGamma, 1, ms3.Scale(4, one), gray(255)},
		// 1/(1+1) = 0.5 then gamma: 0.5^(1/2.2) = 0.7297.
		{gleval.TonemapReinhard, 1, one, gray(uint8(math.Pow(0.5, 1/2.2)*255 + 0.5))},
		{gleval.TonemapFilmic, 1, ms3.Vec{}, gray(0)},
	} {
		got := TonemapConversion(test.tm, test.brightness)(test.in)
		if got != test.want {
			t.Errorf("%s(%v) brightness %v: got %v, want %v", test.tm, test.in, test.brightness, got, test.want)
		}
	}
	nan := TonemapConversion(gleval.TonemapGamma, 1)(ms3.Vec{X: math.NaN()})
	if nan != red {
		t.Errorf("NaN should map to red, got %v", nan)
	}
	// Filmic approaches white for large radiance.
	c := TonemapConversion(gleval.TonemapFilmic, 1)(ms3.Scale(1000, one)).(color.RGBA)
	if c.R < 250 {
		t.Errorf("filmic did not saturate: %v", c)
	}
}

func TestConvertImage(t *testing.T) {
	const w, h = 2, 3
	linear := make([]float32, 4*w*h)
	// Bottom-left pixel is the first in the linear buffer.
	linear[0], linear[1], linear[2] = 1, 0, 0
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	err := ConvertImage(img, linear, TonemapConversion(gleval.TonemapGamma, 1))
	if err != nil {
		t.Fatal(err)
	}
	if got := img.RGBAAt(0, h-1); got != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("bottom left pixel: got %v", got)
	}
	if got := img.RGBAAt(0, 0); got != (color.RGBA{A: 255}) {
		t.Errorf("top left pixel: got %v", got)
	}
	err = ConvertImage(img, linear[:4], TonemapConversion(gleval.TonemapGamma, 1))
	if err == nil {
		t.Error("expected error on size mismatch")
	}
	err = ConvertImage(img, linear, nil)
	if err == nil {
		t.Error("expected error on nil conversion")
	}
}

func TestColorConversionLuminance(t *testing.T) {
	conv := ColorConversionLuminance(2, color.Black, color.White)
	if got := conv(ms3.Vec{}); got != color.Black {
		t.Errorf("zero luminance: got %v", got)
	}
	if got := conv(ms3.Vec{X: 5, Y: 5, Z: 5}); got != color.White {
		t.Errorf("saturated luminance: got %v", got)
	}
	mid := conv(ms3.Vec{X: 1, Y: 1, Z: 1}).(color.RGBA)
	if mid.R < 120 || mid.R > 135 || mid.R != mid.G || mid.G != mid.B {
		t.Errorf("half luminance should be mid gray, got %v", mid)
	}
	if got := conv(ms3.Vec{Y: math.NaN()}); got != red {
		t.Errorf("NaN luminance: got %v", got)
	}
	if l := Luminance(ms3.Vec{X: 1, Y: 1, Z: 1}); math.Abs(l-1) > 1e-6 {
		t.Errorf("white luminance %v", l)
	}
}

func TestRenderConfigErrors(t *testing.T) {
	var buf bytes.Buffer
	scene := glpt.Scene{
		Projection:  &glpt.Perspective{},
		Environment: glpt.NewConstantEnvironment(glpt.ConstVec3{X: 1, Y: 1, Z: 1}),
		Bounces:     1,
	}
	if err := Render(nil, scene, RenderConfig{Width: 1, Height: 1}); err == nil {
		t.Error("expected error for nil writer")
	}
	if err := Render(&buf, scene, RenderConfig{}); err == nil {
		t.Error("expected error for zero size")
	}
	scene.Bounces = 0
	if err := Render(&buf, scene, RenderConfig{Width: 1, Height: 1, Silent: true}); err == nil {
		t.Error("expected assembly error before GPU use")
	}
}

func TestHSVRoundTrip(t *testing.T) {
	for _, c := range []color.RGBA{
		{R: 255, A: 255},
		{G: 255, A: 255},
		{B: 255, A: 255},
		{R: 255, G: 128, A: 255},
		{R: 40, G: 90, B: 200, A: 255},
		{R: 200, G: 30, B: 120, A: 255},
		{R: 77, G: 77, B: 77, A: 255},
	} {
		got := toHSV(c).rgba()
		if absDiff(got.R, c.R) > 1 || absDiff(got.G, c.G) > 1 || absDiff(got.B, c.B) > 1 {
			t.Errorf("round trip of %v gave %v", c, got)
		}
	}
	// Red to blue crosses magenta, not green.
	mid := toHSV(color.RGBA{R: 255, A: 255}).lerp(toHSV(color.RGBA{B: 255, A: 255}), 0.5).rgba()
	if mid.G != 0 || mid.R != 255 || mid.B != 255 {
		t.Errorf("want magenta, got %v", mid)
	}
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}
