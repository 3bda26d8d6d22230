//go:build !tinygo && cgo

package gleval

import (
	"errors"
	"fmt"
	"image"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glgl/v4.1-core/glgl"
	"github.com/soypat/glpt/glbuild"
	"golang.org/x/image/draw"
)

var _ glbuild.UniformSetter = (*Integrator)(nil)

// Init1x1GLFW starts a 1x1 sized GLFW window so that user can start working with GPU.
// It returns a termination function that should be called when user is done running loads on GPU.
func Init1x1GLFW() (terminate func(), err error) {
	_, terminate, err = glgl.InitWithCurrentWindow33(glgl.WindowConfig{
		Title:   "glpt",
		Version: [2]int{4, 1},
		Width:   1,
		Height:  1,
	})
	return terminate, err
}

// Integrator accumulates samples of a scene kernel into a float texture.
// A GL context must be current on the calling goroutine for all methods.
type Integrator struct {
	cfg      IntegratorConfig
	prog     glgl.Program
	tonemap  glgl.Program
	vao, vbo uint32
	fbo      uint32
	textures [2]uint32
	current  int
	samples  int
	declared []string
	locs     map[string]int32
	start    time.Time
	// Brightness scales display output of [Integrator.Display].
	Brightness float32
}

var quadVertices = [8]float32{-1, -1, -1, 1, 1, -1, 1, 1}

// NewIntegrator compiles kernel into an accumulating program. uniforms lists
// the kernel's uniform names, which are the only names accepted by the
// [glbuild.UniformSetter] methods.
func NewIntegrator(kernel []byte, uniforms []string, cfg IntegratorConfig) (*Integrator, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Profile != ProfileCore330 {
		return nil, fmt.Errorf("integrator requires %s profile, got %s", ProfileCore330, cfg.Profile)
	}
	frag, err := AppendIntegratorSource(nil, kernel, cfg)
	if err != nil {
		return nil, err
	}
	vert := string(AppendQuadVertexSource(nil, cfg.Profile)) + "\x00"
	prog, err := glgl.CompileProgram(glgl.ShaderSource{Vertex: vert, Fragment: string(frag) + "\x00"})
	if err != nil {
		return nil, &CompileError{Stage: "integrator", Log: err.Error(), Source: string(frag)}
	}
	tmSrc := AppendTonemapSource(nil, cfg.Tonemap, cfg.Profile)
	tm, err := glgl.CompileProgram(glgl.ShaderSource{Vertex: vert, Fragment: string(tmSrc) + "\x00"})
	if err != nil {
		prog.Delete()
		return nil, &CompileError{Stage: "tonemap", Log: err.Error(), Source: string(tmSrc)}
	}
	it := &Integrator{
		cfg:        cfg,
		prog:       prog,
		tonemap:    tm,
		declared:   slices.Clone(uniforms),
		locs:       make(map[string]int32),
		start:      time.Now(),
		Brightness: 1,
	}
	err = it.initBuffers()
	if err != nil {
		it.Delete()
		return nil, err
	}
	glbuild.Logger().Debug("integrator ready", "width", cfg.Width, "height", cfg.Height, "samplesPerStep", cfg.SamplesPerStep, "uniforms", len(uniforms))
	return it, nil
}

func (it *Integrator) initBuffers() error {
	gl.GenVertexArrays(1, &it.vao)
	gl.BindVertexArray(it.vao)
	gl.GenBuffers(1, &it.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, it.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, 4*len(quadVertices), gl.Ptr(&quadVertices[0]), gl.STATIC_DRAW)
	for _, prog := range []glgl.Program{it.prog, it.tonemap} {
		attr, err := prog.AttribLocation("vertex\x00")
		if err != nil {
			return err
		}
		gl.EnableVertexAttribArray(attr)
		gl.VertexAttribPointer(attr, 2, gl.FLOAT, false, 0, nil)
	}
	gl.BindVertexArray(0)

	for i := range it.textures {
		gl.GenTextures(1, &it.textures[i])
		gl.BindTexture(gl.TEXTURE_2D, it.textures[i])
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA32F, int32(it.cfg.Width), int32(it.cfg.Height), 0, gl.RGBA, gl.FLOAT, nil)
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)
	gl.GenFramebuffers(1, &it.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, it.fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, it.textures[0], 0)
	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		return glErrOrMessage(fmt.Sprintf("float framebuffer incomplete: status 0x%x", status))
	}
	return glgl.Err()
}

// Samples returns the number of steps accumulated since the last clear.
func (it *Integrator) Samples() int { return it.samples }

// Clear discards the accumulated image. The next step overwrites it.
func (it *Integrator) Clear() { it.samples = 0 }

// Step renders one more batch of samples. update is called with the kernel
// program bound so it can set scene uniforms, typically with a programmer's
// Update method. update may be nil when no uniforms changed.
func (it *Integrator) Step(update func(glbuild.UniformSetter) error) error {
	previous := it.textures[it.current]
	it.current ^= 1
	target := it.textures[it.current]

	it.prog.Bind()
	defer it.prog.Unbind()
	if update != nil {
		if err := update(it); err != nil {
			return fmt.Errorf("updating uniforms: %w", err)
		}
	}
	elapsed := float64(time.Since(it.start).Milliseconds())
	t := math.Mod(elapsed+rand.Float64(), timeWrap)
	it.rawUniform1f(UniformTime, float32(t))
	it.rawUniform1f(UniformWeight, Weight(it.samples))
	if loc := it.location(UniformSize); loc >= 0 {
		gl.Uniform2f(loc, float32(it.cfg.Width), float32(it.cfg.Height))
	}
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, previous)
	if loc := it.location(UniformPreviousTexture); loc >= 0 {
		gl.Uniform1i(loc, 0)
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, it.fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, target, 0)
	gl.Viewport(0, 0, int32(it.cfg.Width), int32(it.cfg.Height))
	gl.BindVertexArray(it.vao)
	gl.DrawArrays(gl.TRIANGLE_STRIP, 0, 4)
	gl.BindVertexArray(0)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	err := glgl.Err()
	if err != nil {
		return err
	}
	it.samples++
	return nil
}

// Display draws the tonemapped accumulation into the default framebuffer
// with the given viewport size.
func (it *Integrator) Display(width, height int) error {
	it.tonemap.Bind()
	defer it.tonemap.Unbind()
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, it.textures[it.current])
	if loc := gl.GetUniformLocation(it.tonemap.ID(), gl.Str(UniformInputTexture+"\x00")); loc >= 0 {
		gl.Uniform1i(loc, 0)
	}
	if loc := gl.GetUniformLocation(it.tonemap.ID(), gl.Str(UniformBrightness+"\x00")); loc >= 0 {
		gl.Uniform1f(loc, it.Brightness)
	}
	gl.Viewport(0, 0, int32(width), int32(height))
	gl.BindVertexArray(it.vao)
	gl.DrawArrays(gl.TRIANGLE_STRIP, 0, 4)
	gl.BindVertexArray(0)
	return glgl.Err()
}

// ReadRGBA reads the accumulated linear radiance as RGBA float quadruplets,
// row by row starting at the bottom of the image. dst is grown as needed.
func (it *Integrator) ReadRGBA(dst []float32) ([]float32, error) {
	n := 4 * it.cfg.Width * it.cfg.Height
	dst = slices.Grow(dst[:0], n)[:n]
	gl.BindFramebuffer(gl.FRAMEBUFFER, it.fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, it.textures[it.current], 0)
	gl.ReadPixels(0, 0, int32(it.cfg.Width), int32(it.cfg.Height), gl.RGBA, gl.FLOAT, gl.Ptr(&dst[0]))
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	err := glgl.Err()
	if err != nil {
		return dst, fmt.Errorf("reading accumulation: %w", err)
	}
	return dst, nil
}

// Delete frees the GPU resources held by the integrator.
func (it *Integrator) Delete() {
	it.prog.Delete()
	it.tonemap.Delete()
	if it.fbo != 0 {
		gl.DeleteFramebuffers(1, &it.fbo)
	}
	for i := range it.textures {
		if it.textures[i] != 0 {
			gl.DeleteTextures(1, &it.textures[i])
		}
	}
	if it.vbo != 0 {
		gl.DeleteBuffers(1, &it.vbo)
	}
	if it.vao != 0 {
		gl.DeleteVertexArrays(1, &it.vao)
	}
}

// location returns the cached uniform location of name. Names the driver
// optimized away have location -1.
func (it *Integrator) location(name string) int32 {
	loc, ok := it.locs[name]
	if !ok {
		loc = gl.GetUniformLocation(it.prog.ID(), gl.Str(name+"\x00"))
		it.locs[name] = loc
	}
	return loc
}

func (it *Integrator) kernelLocation(name string) (int32, error) {
	if !slices.Contains(it.declared, name) {
		return -1, fmt.Errorf("uniform %q not declared by kernel", name)
	}
	return it.location(name), nil
}

func (it *Integrator) rawUniform1f(name string, v float32) {
	if loc := it.location(name); loc >= 0 {
		gl.Uniform1f(loc, v)
	}
}

func (it *Integrator) Uniform1f(name string, v float32) error {
	loc, err := it.kernelLocation(name)
	if err == nil && loc >= 0 {
		gl.Uniform1f(loc, v)
	}
	return err
}

func (it *Integrator) Uniform2f(name string, v ms2.Vec) error {
	loc, err := it.kernelLocation(name)
	if err == nil && loc >= 0 {
		gl.Uniform2f(loc, v.X, v.Y)
	}
	return err
}

func (it *Integrator) Uniform3f(name string, v ms3.Vec) error {
	loc, err := it.kernelLocation(name)
	if err == nil && loc >= 0 {
		gl.Uniform3f(loc, v.X, v.Y, v.Z)
	}
	return err
}

func (it *Integrator) UniformMat3(name string, m [9]float32) error {
	loc, err := it.kernelLocation(name)
	if err == nil && loc >= 0 {
		gl.UniformMatrix3fv(loc, 1, false, &m[0])
	}
	return err
}

func (it *Integrator) Uniform1i(name string, v int32) error {
	loc, err := it.kernelLocation(name)
	if err == nil && loc >= 0 {
		gl.Uniform1i(loc, v)
	}
	return err
}

func (it *Integrator) Texture2D(name string, unit int, texture uint32) error {
	return it.bindTexture(name, unit, gl.TEXTURE_2D, texture)
}

func (it *Integrator) TextureCube(name string, unit int, texture uint32) error {
	return it.bindTexture(name, unit, gl.TEXTURE_CUBE_MAP, texture)
}

func (it *Integrator) bindTexture(name string, unit int, target, texture uint32) error {
	if unit <= 0 {
		return fmt.Errorf("texture unit %d of %q reserved for accumulation", unit, name)
	}
	loc, err := it.kernelLocation(name)
	if err != nil {
		return err
	}
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(target, texture)
	if loc >= 0 {
		gl.Uniform1i(loc, int32(unit))
	}
	gl.ActiveTexture(gl.TEXTURE0)
	return nil
}

// NewTexture uploads img as a mipmapped RGBA8 texture with repeat wrapping,
// suitable for material and environment lookups.
func NewTexture(img image.Image) (uint32, error) {
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Rect.Min != (image.Point{}) || rgba.Stride != 4*rgba.Rect.Dx() {
		rgba = image.NewRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	}
	if len(rgba.Pix) == 0 {
		return 0, errors.New("empty texture image")
	}
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(rgba.Rect.Dx()), int32(rgba.Rect.Dy()), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(&rgba.Pix[0]))
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	err := glgl.Err()
	if err != nil {
		gl.DeleteTextures(1, &tex)
		return 0, fmt.Errorf("uploading texture: %w", err)
	}
	return tex, nil
}

// DeleteTexture frees a texture created by [NewTexture].
func DeleteTexture(tex uint32) {
	gl.DeleteTextures(1, &tex)
}

func glErrOrMessage(defaultMsg string) (err error) {
	err = glgl.Err()
	if err == nil {
		err = errors.New(defaultMsg)
	} else {
		err = fmt.Errorf("%s: %w", defaultMsg, err)
	}
	return err
}
