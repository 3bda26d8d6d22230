// Package glptaux provides helpers to get a path traced image out of a scene
// quickly. Applications with specific needs should drive [gleval.Integrator]
// directly.
package glptaux

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"runtime"
	"time"

	math "github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glgl/math/ms1"
	"github.com/soypat/glpt"
	"github.com/soypat/glpt/glbuild"
	"github.com/soypat/glpt/gleval"
	"golang.org/x/image/draw"
)

// ColorConversion maps linear radiance to a display color.
type ColorConversion func(linear ms3.Vec) color.Color

type RenderConfig struct {
	// Width and Height of the accumulation buffer.
	Width, Height int
	// Steps is the number of integrator steps. Defaults to 64.
	Steps          int
	SamplesPerStep int
	// Exposure scales kernel output. Zero means 1.
	Exposure   float32
	Tonemap    gleval.Tonemap
	Brightness float32
	// OutputWidth and OutputHeight rescale the final image when set.
	OutputWidth, OutputHeight int
	// ColorConversion overrides the tonemap when not nil.
	ColorConversion ColorConversion
	Silent          bool
}

func (cfg RenderConfig) withDefaults() RenderConfig {
	if cfg.Steps <= 0 {
		cfg.Steps = 64
	}
	if cfg.Brightness == 0 {
		cfg.Brightness = 1
	}
	if cfg.OutputWidth <= 0 {
		cfg.OutputWidth = cfg.Width
	}
	if cfg.OutputHeight <= 0 {
		cfg.OutputHeight = cfg.Height
	}
	if cfg.ColorConversion == nil {
		cfg.ColorConversion = TonemapConversion(cfg.Tonemap, cfg.Brightness)
	}
	return cfg
}

// Render is an auxiliary function to aid users in getting setup in using glpt quickly.
// It path traces scene on the GPU and writes the result to w as a PNG image.
func Render(w io.Writer, scene glpt.Scene, cfg RenderConfig) (err error) {
	if w == nil {
		return errors.New("Render requires output writer")
	} else if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("invalid render size %dx%d", cfg.Width, cfg.Height)
	}
	cfg = cfg.withDefaults()
	logger := glbuild.Logger()
	log := func(msg string, args ...any) {
		if !cfg.Silent {
			logger.Info(msg, args...)
		}
	}
	if scene.Camera == nil {
		scene.Camera = glpt.NewCamera(ms3.Vec{})
	}
	prog := glpt.NewProgrammer()
	if cfg.Exposure != 0 {
		prog.Exposure = cfg.Exposure
	}
	watch := stopwatch()
	sp, err := prog.Assemble(scene)
	if err != nil {
		return err
	}
	log("assembled kernel", "bytes", len(sp.Source), "materials", len(sp.Materials), "uniforms", len(sp.Uniforms), "took", watch())

	// GL calls must stay on one OS thread.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	terminate, err := gleval.Init1x1GLFW()
	if err != nil {
		return err
	}
	defer terminate()
	it, err := gleval.NewIntegrator(sp.Source, sp.Uniforms, gleval.IntegratorConfig{
		Width:          cfg.Width,
		Height:         cfg.Height,
		SamplesPerStep: cfg.SamplesPerStep,
		Tonemap:        cfg.Tonemap,
	})
	if err != nil {
		return err
	}
	defer it.Delete()
	update := func(s glbuild.UniformSetter) error { return prog.Update(s, scene) }
	watch = stopwatch()
	for i := 0; i < cfg.Steps; i++ {
		err = it.Step(update)
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	linear, err := it.ReadRGBA(nil)
	if err != nil {
		return err
	}
	log("integrated", "steps", cfg.Steps, "took", watch())

	img := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	err = ConvertImage(img, linear, cfg.ColorConversion)
	if err != nil {
		return err
	}
	var out image.Image = img
	if cfg.OutputWidth != cfg.Width || cfg.OutputHeight != cfg.Height {
		scaled := image.NewRGBA(image.Rect(0, 0, cfg.OutputWidth, cfg.OutputHeight))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Src, nil)
		out = scaled
	}
	return png.Encode(w, out)
}

// RenderPNGFile renders scene and saves the result to a PNG file with said filename.
func RenderPNGFile(filename string, scene glpt.Scene, cfg RenderConfig) error {
	fp, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer fp.Close()
	err = Render(fp, scene, cfg)
	if err != nil {
		return err
	}
	return fp.Sync()
}

// ConvertImage converts linear RGBA floats read back from the GPU into dst.
// Rows in linear start at the bottom of the image.
func ConvertImage(dst *image.RGBA, linear []float32, conv ColorConversion) error {
	bounds := dst.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if len(linear) != 4*w*h {
		return fmt.Errorf("linear buffer of %d floats does not fit %dx%d image", len(linear), w, h)
	} else if conv == nil {
		return errors.New("nil color conversion")
	}
	for y := 0; y < h; y++ {
		row := linear[4*w*(h-1-y):]
		for x := 0; x < w; x++ {
			px := row[4*x : 4*x+3]
			dst.Set(bounds.Min.X+x, bounds.Min.Y+y, conv(ms3.Vec{X: px[0], Y: px[1], Z: px[2]}))
		}
	}
	return nil
}

// TonemapConversion returns the CPU equivalent of the GPU tonemap shader tm.
func TonemapConversion(tm gleval.Tonemap, brightness float32) ColorConversion {
	gamma := func(c ms3.Vec) color.Color {
		c = ms3.Vec{X: math.Pow(math.Abs(c.X), 1/2.2), Y: math.Pow(math.Abs(c.Y), 1/2.2), Z: math.Pow(math.Abs(c.Z), 1/2.2)}
		return toRGBA(ms3.Scale(brightness, c))
	}
	switch tm {
	case gleval.TonemapReinhard:
		return func(c ms3.Vec) color.Color {
			return gamma(ms3.Vec{X: c.X / (1 + c.X), Y: c.Y / (1 + c.Y), Z: c.Z / (1 + c.Z)})
		}
	case gleval.TonemapFilmic:
		scale := math.Pow(math.Abs(brightness), 2.2)
		filmic := func(v float32) float32 {
			x := max(v*scale-0.004, 0)
			return (x * (6.2*x + 0.5)) / (x*(6.2*x+1.7) + 0.06)
		}
		return func(c ms3.Vec) color.Color {
			return toRGBA(ms3.Vec{X: filmic(c.X), Y: filmic(c.Y), Z: filmic(c.Z)})
		}
	}
	return gamma
}

func toRGBA(c ms3.Vec) color.RGBA {
	if math.IsNaN(c.X) || math.IsNaN(c.Y) || math.IsNaN(c.Z) {
		return red
	}
	return color.RGBA{
		R: uint8(ms1.Clamp(c.X, 0, 1)*255 + 0.5),
		G: uint8(ms1.Clamp(c.Y, 0, 1)*255 + 0.5),
		B: uint8(ms1.Clamp(c.Z, 0, 1)*255 + 0.5),
		A: 255,
	}
}

func stopwatch() func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}
