//go:build tinygo || !cgo

package gleval

import (
	"errors"
	"image"

	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glpt/glbuild"
)

var errNoCGO = errors.New("GPU integration requires cgo build")

// Init1x1GLFW starts a 1x1 sized GLFW window so that user can start working with GPU.
func Init1x1GLFW() (terminate func(), err error) {
	return nil, errNoCGO
}

// Integrator accumulates samples of a scene kernel into a float texture.
// Builds without cgo cannot create one.
type Integrator struct {
	Brightness float32
}

func NewIntegrator(kernel []byte, uniforms []string, cfg IntegratorConfig) (*Integrator, error) {
	return nil, errNoCGO
}

func (it *Integrator) Samples() int                                        { return 0 }
func (it *Integrator) Clear()                                              {}
func (it *Integrator) Step(func(glbuild.UniformSetter) error) error        { return errNoCGO }
func (it *Integrator) Display(width, height int) error                     { return errNoCGO }
func (it *Integrator) ReadRGBA(dst []float32) ([]float32, error)           { return dst, errNoCGO }
func (it *Integrator) Delete()                                             {}
func (it *Integrator) Uniform1f(string, float32) error                     { return errNoCGO }
func (it *Integrator) Uniform2f(string, ms2.Vec) error                     { return errNoCGO }
func (it *Integrator) Uniform3f(string, ms3.Vec) error                     { return errNoCGO }
func (it *Integrator) UniformMat3(string, [9]float32) error                { return errNoCGO }
func (it *Integrator) Uniform1i(string, int32) error                       { return errNoCGO }
func (it *Integrator) Texture2D(name string, unit int, tex uint32) error   { return errNoCGO }
func (it *Integrator) TextureCube(name string, unit int, tex uint32) error { return errNoCGO }

func NewTexture(img image.Image) (uint32, error) { return 0, errNoCGO }

func DeleteTexture(tex uint32) {}
