// Package gleval runs scene kernels on the GPU. It wraps a kernel in an
// accumulating fragment shader and ping-pongs two float textures so that
// every step blends a new batch of samples into the running average.
package gleval

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Profile selects the GLSL dialect of generated shader sources.
type Profile uint8

const (
	// ProfileCore330 targets desktop OpenGL 3.3 core and later.
	ProfileCore330 Profile = iota
	// ProfileES100 targets OpenGL ES 2.0 and WebGL 1.
	ProfileES100
)

func (p Profile) String() string {
	switch p {
	case ProfileCore330:
		return "core330"
	case ProfileES100:
		return "es100"
	}
	return "Profile(" + strconv.Itoa(int(p)) + ")"
}

// Tonemap selects how accumulated radiance is mapped to display values.
type Tonemap uint8

const (
	TonemapGamma Tonemap = iota
	TonemapReinhard
	TonemapFilmic
)

func (t Tonemap) String() string {
	switch t {
	case TonemapGamma:
		return "gamma"
	case TonemapReinhard:
		return "reinhard"
	case TonemapFilmic:
		return "filmic"
	}
	return "Tonemap(" + strconv.Itoa(int(t)) + ")"
}

// ParseTonemap returns the tonemap named s as returned by [Tonemap.String].
func ParseTonemap(s string) (Tonemap, error) {
	for t := TonemapGamma; t <= TonemapFilmic; t++ {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown tonemap %q", s)
}

// Names of the uniforms the integrator shader declares in addition to the
// scene kernel's.
const (
	UniformTime            = "time"
	UniformWeight          = "weight"
	UniformSize            = "size"
	UniformPreviousTexture = "previousTexture"
	UniformInputTexture    = "inputTexture"
	UniformBrightness      = "brightness"
)

// timeWrap keeps the time uniform small enough for float precision
// in the kernel's hash functions.
const timeWrap = 17364.25434

// IntegratorConfig configures an integrator.
type IntegratorConfig struct {
	Width, Height int
	// SamplesPerStep is how many times the kernel is sampled per pixel on each
	// step. Defaults to 1.
	SamplesPerStep int
	// KernelName is the name of the kernel function. Defaults to "sampleXY".
	KernelName string
	Profile    Profile
	Tonemap    Tonemap
}

func (cfg IntegratorConfig) withDefaults() IntegratorConfig {
	if cfg.SamplesPerStep <= 0 {
		cfg.SamplesPerStep = 1
	}
	if cfg.KernelName == "" {
		cfg.KernelName = "sampleXY"
	}
	return cfg
}

func (cfg IntegratorConfig) validate() error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("invalid integrator size %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Tonemap > TonemapFilmic {
		return fmt.Errorf("invalid tonemap %d", cfg.Tonemap)
	}
	if cfg.Profile > ProfileES100 {
		return fmt.Errorf("invalid profile %d", cfg.Profile)
	}
	return nil
}

// Weight returns the blend weight of the previous average when adding a step
// after samples steps have been accumulated. A zero weight discards the
// previous texture contents.
func Weight(samples int) float32 {
	if samples <= 0 {
		return 0
	}
	return float32(samples) / float32(samples+1)
}

// CompileError is returned when the GPU driver rejects generated shader source.
type CompileError struct {
	Stage  string
	Log    string
	Source string
}

func (e *CompileError) Error() string {
	return "compiling " + e.Stage + " shader: " + e.Log
}

var errEmptyKernel = errors.New("empty kernel source")

func appendHeader(b []byte, profile Profile, fragment bool) []byte {
	switch profile {
	case ProfileES100:
		b = append(b, "#version 100\nprecision highp float;\nprecision highp int;\n"...)
	default:
		b = append(b, "#version 330 core\n"...)
		if fragment {
			b = append(b, "#define texture2D texture\n#define textureCube texture\nout vec4 fragColor;\n"...)
		}
	}
	return b
}

func appendVarying(b []byte, profile Profile, dir, decl string) []byte {
	if profile == ProfileES100 {
		dir = "varying"
	}
	b = append(b, dir...)
	b = append(b, ' ')
	b = append(b, decl...)
	return append(b, ";\n"...)
}

func appendFragOut(b []byte, profile Profile, expr string) []byte {
	if profile == ProfileES100 {
		b = append(b, "  gl_FragColor = "...)
	} else {
		b = append(b, "  fragColor = "...)
	}
	b = append(b, expr...)
	return append(b, ";\n"...)
}

// AppendQuadVertexSource appends the vertex shader drawing a full screen quad
// from a 2D vertex attribute named "vertex".
func AppendQuadVertexSource(b []byte, profile Profile) []byte {
	b = appendHeader(b, profile, false)
	if profile == ProfileES100 {
		b = append(b, "attribute vec2 vertex;\n"...)
	} else {
		b = append(b, "in vec2 vertex;\n"...)
	}
	b = appendVarying(b, profile, "out", "vec2 texCoord")
	return append(b, `void main() {
  texCoord = vertex.xy * 0.5 + 0.5;
  gl_Position = vec4(vertex, 0.0, 1.0);
}
`...)
}

// AppendIntegratorSource appends the fragment shader that samples kernel
// cfg.SamplesPerStep times per pixel and blends the mean with the previous
// texture by the weight uniform.
func AppendIntegratorSource(b []byte, kernel []byte, cfg IntegratorConfig) ([]byte, error) {
	cfg = cfg.withDefaults()
	if len(strings.TrimSpace(string(kernel))) == 0 {
		return b, errEmptyKernel
	}
	b = appendHeader(b, cfg.Profile, true)
	b = appendVarying(b, cfg.Profile, "in", "vec2 texCoord")
	b = append(b, "uniform float time;\nuniform float weight;\nuniform vec2 size;\nuniform sampler2D previousTexture;\n"...)
	b = append(b, kernel...)
	if kernel[len(kernel)-1] != '\n' {
		b = append(b, '\n')
	}
	b = append(b, `void main() {
  vec4 previous = vec4(texture2D(previousTexture, gl_FragCoord.xy / size).rgb, 1.0);
  vec4 sampled = vec4(0.0);
`...)
	b = append(b, "  for (int i = 0; i < "...)
	b = strconv.AppendInt(b, int64(cfg.SamplesPerStep), 10)
	b = append(b, "; i++) {\n    sampled = sampled + "...)
	b = append(b, cfg.KernelName...)
	b = append(b, "(texCoord, time + float(i));\n  }\n"...)
	b = appendFragOut(b, cfg.Profile, "mix(sampled / "+strconv.Itoa(cfg.SamplesPerStep)+".0, previous, weight)")
	return append(b, "}\n"...), nil
}

// AppendTonemapSource appends the fragment shader that maps the accumulated
// texture to display colors.
func AppendTonemapSource(b []byte, tm Tonemap, profile Profile) []byte {
	b = appendHeader(b, profile, true)
	b = appendVarying(b, profile, "in", "vec2 texCoord")
	b = append(b, "uniform sampler2D inputTexture;\nuniform float brightness;\nvoid main() {\n  vec3 color = texture2D(inputTexture, texCoord).rgb;\n"...)
	switch tm {
	case TonemapReinhard:
		b = append(b, "  color = color / (vec3(1.0) + color);\n"...)
		b = appendFragOut(b, profile, "vec4(brightness * pow(abs(color), vec3(1.0 / 2.2)), 1.0)")
	case TonemapFilmic:
		b = append(b, `  color = color * pow(abs(brightness), 2.2);
  vec3 x = max(color - 0.004, vec3(0.0));
`...)
		b = appendFragOut(b, profile, "vec4((x * (6.2 * x + 0.5)) / (x * (6.2 * x + 1.7) + 0.06), 1.0)")
	default:
		b = appendFragOut(b, profile, "vec4(brightness * pow(abs(color), vec3(1.0 / 2.2)), 1.0)")
	}
	return append(b, "}\n"...)
}
