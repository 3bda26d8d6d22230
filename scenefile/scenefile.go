// Package scenefile decodes YAML scene descriptions into glpt scenes.
//
// A minimal scene file:
//
//	bounces: 5
//	camera:
//	  position: [0, 1, -10]
//	environment:
//	  type: constant
//	  radiance: [1, 1, 1]
//	materials:
//	  white: {type: diffuse}
//	  glass: {type: dielectric, ior: 1.5}
//	objects:
//	  - {type: plane, normal: [0, 1, 0], d: 0, material: white}
//	  - {type: sphere, center: [0, 1, 0], radius: 1, material: glass}
package scenefile

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	math "github.com/chewxy/math32"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glpt"
	"github.com/soypat/glpt/glbuild"
	"gopkg.in/yaml.v3"
)

// Vec3 is a YAML sequence of three numbers.
type Vec3 [3]float32

func (v Vec3) vec() ms3.Vec { return ms3.Vec{X: v[0], Y: v[1], Z: v[2]} }

// File is a decoded scene file.
type File struct {
	Bounces     int                     `yaml:"bounces"`
	Exposure    float32                 `yaml:"exposure,omitempty"`
	Camera      CameraSpec              `yaml:"camera"`
	Projection  ProjectionSpec          `yaml:"projection"`
	Environment EnvironmentSpec         `yaml:"environment"`
	Materials   map[string]MaterialSpec `yaml:"materials"`
	Objects     []ObjectSpec            `yaml:"objects"`

	scene     glpt.Scene
	materials map[string]glbuild.Material
}

type CameraSpec struct {
	Position Vec3 `yaml:"position"`
	// Yaw and Pitch in degrees.
	Yaw   float32 `yaml:"yaw,omitempty"`
	Pitch float32 `yaml:"pitch,omitempty"`
}

type ProjectionSpec struct {
	// Type is one of perspective (default), perspectiveDepth, stereographic or orthographic.
	Type        string  `yaml:"type"`
	FocalLength float32 `yaml:"focalLength,omitempty"`
	DofSpread   float32 `yaml:"dofSpread,omitempty"`
}

type EnvironmentSpec struct {
	// Type is one of constant (default) or sky.
	Type     string `yaml:"type"`
	Radiance *Vec3  `yaml:"radiance,omitempty"`
	Horizon  *Vec3  `yaml:"horizon,omitempty"`
	Zenith   *Vec3  `yaml:"zenith,omitempty"`
	// Dynamic makes a constant radiance a uniform.
	Dynamic bool `yaml:"dynamic,omitempty"`
}

// MaterialSpec describes one named material. Composite materials refer to
// other materials by name.
type MaterialSpec struct {
	Type string `yaml:"type"`
	// IOR is the index of refraction of dielectric, shinyBlack and
	// transmit materials and the inner index of fresnel composites.
	IOR float32 `yaml:"ior,omitempty"`
	// OuterIOR defaults to that of air.
	OuterIOR   float32     `yaml:"outerIOR,omitempty"`
	ComplexIOR *[2]float32 `yaml:"complexIOR,omitempty"`
	Exponent   float32     `yaml:"exponent,omitempty"`
	Color      *Vec3       `yaml:"color,omitempty"`
	Ratio      float32     `yaml:"ratio,omitempty"`
	// Material is the wrapped material of emit and attenuate.
	Material string `yaml:"material,omitempty"`
	// A and B are the children of switch and fresnel (reflect, transmit).
	A       string `yaml:"a,omitempty"`
	B       string `yaml:"b,omitempty"`
	Dynamic bool   `yaml:"dynamic,omitempty"`
}

type ObjectSpec struct {
	// Type is one of plane, box or sphere.
	Type     string  `yaml:"type"`
	Material string  `yaml:"material"`
	Normal   Vec3    `yaml:"normal,omitempty"`
	D        float32 `yaml:"d,omitempty"`
	Min      Vec3    `yaml:"min,omitempty"`
	Max      Vec3    `yaml:"max,omitempty"`
	Center   Vec3    `yaml:"center,omitempty"`
	Radius   float32 `yaml:"radius,omitempty"`
	// Velocity and Shutter enable motion blur on spheres.
	Velocity *Vec3       `yaml:"velocity,omitempty"`
	Shutter  *[2]float32 `yaml:"shutter,omitempty"`
	TwoSided bool        `yaml:"twoSided,omitempty"`
	Dynamic  bool        `yaml:"dynamic,omitempty"`
}

// Decode reads a scene file from r and builds its scene with bld. Builder
// configuration errors are returned instead of panicking.
func Decode(r io.Reader, bld *glpt.Builder) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	err := dec.Decode(&f)
	if err != nil {
		return nil, fmt.Errorf("decoding scene file: %w", err)
	}
	prevPanic := bld.NoConfigPanic
	bld.NoConfigPanic = true
	defer func() { bld.NoConfigPanic = prevPanic }()
	prevErrs := len(joinedErrs(bld.Err()))
	err = f.build(bld)
	if err != nil {
		return nil, err
	}
	errs := joinedErrs(bld.Err())
	if len(errs) > prevErrs {
		return nil, errors.Join(errs[prevErrs:]...)
	}
	glbuild.Logger().Debug("decoded scene file", "materials", len(f.materials), "objects", len(f.Objects))
	return &f, nil
}

// Scene returns the decoded scene. Its camera is shared across calls.
func (f *File) Scene() glpt.Scene { return f.scene }

// Programmer returns a programmer with the file's exposure.
func (f *File) Programmer() *glpt.Programmer {
	p := glpt.NewProgrammer()
	if f.Exposure != 0 {
		p.Exposure = f.Exposure
	}
	return p
}

// Material returns the named material, or nil.
func (f *File) Material(name string) glbuild.Material { return f.materials[name] }

func (f *File) build(bld *glpt.Builder) error {
	if f.Bounces <= 0 {
		return fmt.Errorf("scene file needs positive bounces, got %d", f.Bounces)
	}
	f.materials = make(map[string]glbuild.Material, len(f.Materials))
	proj, err := f.Projection.build()
	if err != nil {
		return err
	}
	env, err := f.Environment.build()
	if err != nil {
		return err
	}
	cam := glpt.NewCamera(f.Camera.Position.vec())
	const deg = math.Pi / 180
	cam.RotateY(f.Camera.Yaw * deg)
	cam.RotateX(f.Camera.Pitch * deg)

	objs := make([]glbuild.Traceable, 0, len(f.Objects))
	for i, spec := range f.Objects {
		m, err := f.material(bld, spec.Material, nil)
		if err != nil {
			return fmt.Errorf("object %d: %w", i, err)
		}
		obj, err := spec.build(bld, m)
		if err != nil {
			return fmt.Errorf("object %d: %w", i, err)
		}
		objs = append(objs, obj)
	}
	f.scene = glpt.Scene{
		Traceables:  objs,
		Projection:  proj,
		Environment: env,
		Bounces:     f.Bounces,
		Camera:      cam,
	}
	return nil
}

// joinedErrs splits a Builder's accumulated error into its parts.
func joinedErrs(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

var errCycle = errors.New("material reference cycle")

// material builds the named material once. path holds the names being built
// to detect reference cycles.
func (f *File) material(bld *glpt.Builder, name string, path []string) (glbuild.Material, error) {
	if m, ok := f.materials[name]; ok {
		return m, nil
	}
	if slices.Contains(path, name) {
		return nil, fmt.Errorf("%w: %s", errCycle, strings.Join(append(path, name), " -> "))
	}
	spec, ok := f.Materials[name]
	if !ok {
		if name == "" {
			return nil, errors.New("missing material name")
		}
		return nil, fmt.Errorf("undefined material %q", name)
	}
	path = append(path, name)
	child := func(ref string) (glbuild.Material, error) {
		return f.material(bld, ref, path)
	}
	m, err := spec.build(bld, child)
	if err != nil {
		return nil, fmt.Errorf("material %q: %w", name, err)
	}
	f.materials[name] = m
	return m, nil
}

func (spec MaterialSpec) float(v float32) glpt.FloatValue {
	if spec.Dynamic {
		return &glpt.DynamicFloat{V: v}
	}
	return glpt.ConstFloat(v)
}

func (spec MaterialSpec) vec3(v ms3.Vec) glpt.Vec3Value {
	if spec.Dynamic {
		return &glpt.DynamicVec3{V: v}
	}
	return glpt.ConstVec3(v)
}

func (spec MaterialSpec) outerIOR() float32 {
	if spec.OuterIOR == 0 {
		return 1.0002771
	}
	return spec.OuterIOR
}

func (spec MaterialSpec) build(bld *glpt.Builder, child func(string) (glbuild.Material, error)) (glbuild.Material, error) {
	switch spec.Type {
	case glpt.KindDiffuse:
		return bld.NewDiffuse(), nil
	case glpt.KindAbsorb:
		return bld.NewAbsorb(), nil
	case glpt.KindReflect:
		return bld.NewReflect(), nil
	case glpt.KindTransmit:
		return bld.NewTransmit(spec.float(spec.outerIOR()), spec.float(spec.IOR)), nil
	case "phong", glpt.KindPhongSpecular:
		return bld.NewPhongSpecular(spec.float(spec.Exponent)), nil
	case "dielectric", glpt.KindSmoothDielectric:
		return bld.NewSmoothDielectric(spec.float(spec.IOR)), nil
	case glpt.KindShinyBlack:
		return bld.NewShinyBlack(spec.float(spec.IOR)), nil
	case glpt.KindMetal:
		if spec.ComplexIOR == nil {
			return nil, errors.New("metal requires complexIOR")
		}
		ior := ms2.Vec{X: spec.ComplexIOR[0], Y: spec.ComplexIOR[1]}
		if spec.Dynamic {
			return bld.NewMetal(&glpt.DynamicVec2{V: ior}), nil
		}
		return bld.NewMetal(glpt.ConstVec2(ior)), nil
	case glpt.KindFacetedBall:
		return bld.NewFacetedBall(), nil
	case "emit", "attenuate":
		if spec.Color == nil {
			return nil, fmt.Errorf("%s requires color", spec.Type)
		}
		inner, err := child(spec.Material)
		if err != nil {
			return nil, err
		}
		if spec.Type == "emit" {
			return bld.Emit(inner, spec.vec3(spec.Color.vec())), nil
		}
		return bld.Attenuate(inner, spec.vec3(spec.Color.vec())), nil
	case "switch", "fresnel":
		a, err := child(spec.A)
		if err != nil {
			return nil, err
		}
		b, err := child(spec.B)
		if err != nil {
			return nil, err
		}
		if spec.Type == "fresnel" {
			return bld.FresnelComposite(a, b, spec.outerIOR(), spec.IOR), nil
		}
		if spec.Ratio < 0 || spec.Ratio > 1 {
			return nil, fmt.Errorf("switch ratio %v outside [0, 1]", spec.Ratio)
		}
		ratio := "      ratio = " + string(glbuild.AppendFloat(nil, spec.Ratio)) + ";\n"
		return bld.Switch(a, b, func(glbuild.HitSymbols) string { return ratio }), nil
	case "":
		return nil, errors.New("missing material type")
	}
	return nil, fmt.Errorf("unknown material type %q", spec.Type)
}

func (spec ObjectSpec) build(bld *glpt.Builder, m glbuild.Material) (glbuild.Traceable, error) {
	var flags glpt.ObjectFlags
	if spec.TwoSided {
		flags |= glpt.FlagTwoSided
	}
	if spec.Dynamic {
		flags |= glpt.FlagDynamic
	}
	switch spec.Type {
	case "plane":
		return bld.NewPlane(spec.Normal.vec(), spec.D, m, flags), nil
	case "box":
		return bld.NewBox(spec.Min.vec(), spec.Max.vec(), m, flags), nil
	case "sphere":
		if spec.Velocity != nil {
			flags |= glpt.FlagMotionBlur
		}
		s := bld.NewSphere(spec.Center.vec(), spec.Radius, m, flags)
		if spec.Velocity != nil {
			s.Velocity = spec.Velocity.vec()
			s.Shutter = ms2.Vec{X: 0, Y: 1}
			if spec.Shutter != nil {
				s.Shutter = ms2.Vec{X: spec.Shutter[0], Y: spec.Shutter[1]}
			}
		}
		return s, nil
	case "":
		return nil, errors.New("missing object type")
	}
	return nil, fmt.Errorf("unknown object type %q", spec.Type)
}

func (spec ProjectionSpec) build() (glbuild.Projection, error) {
	switch spec.Type {
	case "", "perspective":
		return &glpt.Perspective{}, nil
	case "perspectiveDepth":
		p := glpt.NewPerspectiveDepth()
		if spec.FocalLength != 0 {
			p.FocalLength = spec.FocalLength
		}
		if spec.DofSpread != 0 {
			p.DofSpread = spec.DofSpread
		}
		return p, nil
	case "stereographic":
		return &glpt.Stereographic{}, nil
	case "orthographic":
		return &glpt.Orthographic{}, nil
	}
	return nil, fmt.Errorf("unknown projection type %q", spec.Type)
}

func (spec EnvironmentSpec) build() (glbuild.Environment, error) {
	switch spec.Type {
	case "", "constant":
		radiance := ms3.Vec{X: 1, Y: 1, Z: 1}
		if spec.Radiance != nil {
			radiance = spec.Radiance.vec()
		}
		if spec.Dynamic {
			return glpt.NewConstantEnvironment(&glpt.DynamicVec3{V: radiance}), nil
		}
		return glpt.NewConstantEnvironment(glpt.ConstVec3(radiance)), nil
	case "sky":
		if spec.Horizon == nil || spec.Zenith == nil {
			return nil, errors.New("sky environment requires horizon and zenith")
		}
		b := []byte("      accumulation = accumulation + attenuation * mix(")
		b = glbuild.AppendVec3(b, spec.Horizon.vec())
		b = append(b, ", "...)
		b = glbuild.AppendVec3(b, spec.Zenith.vec())
		b = append(b, ", clamp(rayDir.y, 0.0, 1.0));\n"...)
		return glpt.NewProceduralEnvironment(string(b)), nil
	}
	return nil, fmt.Errorf("unknown environment type %q", spec.Type)
}
