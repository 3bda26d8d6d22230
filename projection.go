package glpt

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glpt/glbuild"
	"github.com/soypat/glpt/glbuild/glsllib"
)

var (
	_ glbuild.Projection = (*Perspective)(nil)
	_ glbuild.Projection = (*PerspectiveDepth)(nil)
	_ glbuild.Projection = (*Stereographic)(nil)
	_ glbuild.Projection = (*Orthographic)(nil)
	_ CameraRays         = (*Perspective)(nil)
	_ CameraRays         = (*PerspectiveDepth)(nil)
	_ CameraRays         = (*Stereographic)(nil)
	_ CameraRays         = (*Orthographic)(nil)
)

// CameraRays is implemented by projections that can generate their center
// ray on the CPU, for picking.
type CameraRays interface {
	// CameraRay returns the ray through screen position p in camera space.
	// p ranges over [-0.5, 0.5] in both axes.
	CameraRay(p ms2.Vec) Ray
}

type noProjectionParams struct{}

func (noProjectionParams) AppendPreamble(b []byte) []byte { return b }
func (noProjectionParams) AppendSnippets(dst []*glbuild.Snippet) []*glbuild.Snippet { return dst }
func (noProjectionParams) AppendUniforms(dst []string) []string { return dst }
func (noProjectionParams) Update(glbuild.UniformSetter) error { return nil }

// Perspective is a pinhole camera. The screen spans one unit at unit distance.
type Perspective struct{ noProjectionParams }

func (*Perspective) AppendRayDir(b []byte) []byte {
	return append(b, "  vec3 rayDir = rotationMatrix * normalize(vec3(pJittered, 1.0));\n"...)
}

func (*Perspective) CameraRay(p ms2.Vec) Ray {
	return Ray{Dir: ms3.Unit(ms3.Vec{X: p.X, Y: p.Y, Z: 1})}
}

// PerspectiveDepth is a thin lens camera with depth of field. Points at
// FocalLength along the view axis are in focus and DofSpread is the lens radius.
type PerspectiveDepth struct {
	FocalLength float32
	DofSpread   float32
}

// NewPerspectiveDepth returns a thin lens projection with a focal length of 33
// and a lens radius of 0.3.
func NewPerspectiveDepth() *PerspectiveDepth {
	return &PerspectiveDepth{FocalLength: 33, DofSpread: 0.3}
}

func (*PerspectiveDepth) AppendPreamble(b []byte) []byte {
	b = glbuild.AppendUniformDecl(b, "float", "focalLength")
	return glbuild.AppendUniformDecl(b, "float", "dofSpread")
}

func (*PerspectiveDepth) AppendRayDir(b []byte) []byte {
	return append(b, `  vec2 dofOffset = dofSpread * uniformInsideDisk(pseudorandom(seed * 92.72 + 2.9), pseudorandom(seed * 192.72 + 12.9));
  vec3 rayDir = rotationMatrix * normalize(vec3(pJittered - dofOffset / focalLength, 1.0));
  rayPos = rayPos + rotationMatrix * vec3(dofOffset, 0.0);
`...)
}

func (*PerspectiveDepth) AppendSnippets(dst []*glbuild.Snippet) []*glbuild.Snippet {
	return append(dst, glsllib.UniformInsideDisk)
}

func (*PerspectiveDepth) AppendUniforms(dst []string) []string {
	return append(dst, "focalLength", "dofSpread")
}

func (pd *PerspectiveDepth) Update(setter glbuild.UniformSetter) error {
	err := setter.Uniform1f("focalLength", pd.FocalLength)
	if err != nil {
		return err
	}
	return setter.Uniform1f("dofSpread", pd.DofSpread)
}

// CameraRay returns the ray through the lens center.
func (*PerspectiveDepth) CameraRay(p ms2.Vec) Ray {
	return Ray{Dir: ms3.Unit(ms3.Vec{X: p.X, Y: p.Y, Z: 1})}
}

// Stereographic maps the screen onto nearly the full sphere of directions.
type Stereographic struct{ noProjectionParams }

func (*Stereographic) AppendRayDir(b []byte) []byte {
	return append(b, `  p = pJittered * 5.0;
  vec3 rayDir = rotationMatrix * normalize(vec3(2.0 * p.x, 2.0 * p.y, 1.0 - p.x * p.x - p.y * p.y));
`...)
}

func (*Stereographic) CameraRay(p ms2.Vec) Ray {
	p = ms2.Scale(5, p)
	return Ray{Dir: ms3.Unit(ms3.Vec{X: 2 * p.X, Y: 2 * p.Y, Z: 1 - p.X*p.X - p.Y*p.Y})}
}

// Orthographic casts parallel rays from a 90 unit wide window.
type Orthographic struct{ noProjectionParams }

// orthoWidth is the side length of the orthographic view window.
const orthoWidth = 90

func (*Orthographic) AppendRayDir(b []byte) []byte {
	return append(b, `  vec3 rayDir = rotationMatrix * vec3(0.0, 0.0, 1.0);
  rayPos = rayPos + rotationMatrix * vec3(pJittered, 0.0) * 90.0;
`...)
}

func (*Orthographic) CameraRay(p ms2.Vec) Ray {
	return Ray{Pos: ms3.Vec{X: p.X * orthoWidth, Y: p.Y * orthoWidth}, Dir: ms3.Vec{Z: 1}}
}

// Camera positions and orients the view. It binds the rotationMatrix and
// cameraPosition uniforms every scene kernel declares.
type Camera struct {
	Position ms3.Vec
	// Rotation is the column major camera to world rotation.
	Rotation [9]float32
}

// NewCamera returns a camera at position looking down +Z with +Y up.
func NewCamera(position ms3.Vec) *Camera {
	return &Camera{Position: position, Rotation: [9]float32{1, 0, 0, 0, 1, 0, 0, 0, 1}}
}

// Update uploads the camera uniforms.
func (c *Camera) Update(setter glbuild.UniformSetter) error {
	err := setter.UniformMat3("rotationMatrix", c.Rotation)
	if err != nil {
		return err
	}
	return setter.Uniform3f("cameraPosition", c.Position)
}

// ToWorld rotates a camera space direction into world space.
func (c *Camera) ToWorld(v ms3.Vec) ms3.Vec {
	r := &c.Rotation
	return ms3.Vec{
		X: r[0]*v.X + r[3]*v.Y + r[6]*v.Z,
		Y: r[1]*v.X + r[4]*v.Y + r[7]*v.Z,
		Z: r[2]*v.X + r[5]*v.Y + r[8]*v.Z,
	}
}

// Move translates the camera by a camera space offset: +Z forward, +X right.
func (c *Camera) Move(local ms3.Vec) {
	c.Position = ms3.Add(c.Position, c.ToWorld(local))
}

// RotateX pitches the camera by angle radians about its own X axis.
func (c *Camera) RotateX(angle float32) {
	s, co := math32.Sincos(angle)
	c.rotate([9]float32{1, 0, 0, 0, co, s, 0, -s, co})
}

// RotateY yaws the camera by angle radians about its own Y axis.
func (c *Camera) RotateY(angle float32) {
	s, co := math32.Sincos(angle)
	c.rotate([9]float32{co, 0, -s, 0, 1, 0, s, 0, co})
}

// RotateZ rolls the camera by angle radians about its view axis.
func (c *Camera) RotateZ(angle float32) {
	s, co := math32.Sincos(angle)
	c.rotate([9]float32{co, s, 0, -s, co, 0, 0, 0, 1})
}

// rotate post-multiplies the rotation by m, both column major.
func (c *Camera) rotate(m [9]float32) {
	var out [9]float32
	r := &c.Rotation
	for col := 0; col < 3; col++ {
		for row := 0; row < 3; row++ {
			out[col*3+row] = r[row]*m[col*3] + r[3+row]*m[col*3+1] + r[6+row]*m[col*3+2]
		}
	}
	c.Rotation = out
}

// Ray returns the world space ray through screen position p of proj.
func (c *Camera) Ray(proj CameraRays, p ms2.Vec) Ray {
	local := proj.CameraRay(p)
	return Ray{
		Pos: ms3.Add(c.Position, c.ToWorld(local.Pos)),
		Dir: c.ToWorld(local.Dir),
	}
}
