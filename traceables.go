package glpt

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glpt/glbuild"
	"github.com/soypat/glpt/glbuild/glsllib"
)

// ObjectFlags modify the code generated for a traceable.
type ObjectFlags uint8

const (
	// FlagDynamic binds the object's geometry to uniforms so it can be changed
	// between frames without regenerating the kernel.
	FlagDynamic ObjectFlags = 1 << iota
	// FlagTwoSided makes the object enterable: rays starting inside it hit its
	// far side and the inside flag is set for the material.
	FlagTwoSided
	// FlagMotionBlur moves a sphere along its velocity during the shutter interval.
	FlagMotionBlur
)

func (f ObjectFlags) dynamic() bool  { return f&FlagDynamic != 0 }
func (f ObjectFlags) twoSided() bool { return f&FlagTwoSided != 0 }

var (
	_ glbuild.Traceable = (*Plane)(nil) // Interface implementation compile-time checks.
	_ glbuild.Traceable = (*Box)(nil)
	_ glbuild.Traceable = (*Sphere)(nil)
	_ glbuild.Traceable = (*DistanceField)(nil)
	_ Hitter            = (*Plane)(nil)
	_ Hitter            = (*Box)(nil)
	_ Hitter            = (*Sphere)(nil)
)

// cpuEpsilon is the minimum distance of a valid CPU hit.
const cpuEpsilon = 0.00001

type traceableBase struct {
	prefix   string
	material glbuild.Material
	flags    ObjectFlags
}

func (bld *Builder) newTraceable(kind string, m glbuild.Material, flags ObjectFlags) traceableBase {
	if m == nil {
		bld.configErrorf("nil material for %s", kind)
	}
	return traceableBase{
		prefix:   glbuild.InstanceName(kind, bld.IDs().NextInstance()),
		material: m,
		flags:    flags,
	}
}

func (t *traceableBase) Prefix() string { return t.prefix }

func (t *traceableBase) Material() glbuild.Material { return t.material }

func (t *traceableBase) name(field string) string { return t.prefix + field }

// appendTwoSidedValid appends the validity check of an entry/exit distance pair.
// Two sided objects only need the exit to be ahead of the ray.
func (t *traceableBase) appendTwoSidedValid(b []byte, hit string) []byte {
	b = append(b, '(')
	b = append(b, hit...)
	if t.flags.twoSided() {
		b = append(b, ".y > "...)
	} else {
		b = append(b, ".x > "...)
	}
	b = append(b, glbuild.SmallEpsilon+" && "...)
	b = append(b, hit...)
	b = append(b, ".x < "...)
	b = append(b, hit...)
	return append(b, ".y)"...)
}

func (t *traceableBase) appendTwoSidedT(b []byte, hit string) []byte {
	if !t.flags.twoSided() {
		b = append(b, hit...)
		return append(b, ".x"...)
	}
	b = append(b, '(')
	b = append(b, hit...)
	b = append(b, ".x > "+glbuild.SmallEpsilon+" ? "...)
	b = append(b, hit...)
	b = append(b, ".x : "...)
	b = append(b, hit...)
	return append(b, ".y)"...)
}

func (t *traceableBase) appendTwoSidedInside(b []byte, hit string) []byte {
	if !t.flags.twoSided() {
		return b
	}
	b = append(b, '(')
	b = append(b, hit...)
	return append(b, ".x < 0.0)"...)
}

// Plane is the half space boundary dot(Normal, p) = D. Its intersection
// expression is a float distance.
type Plane struct {
	traceableBase
	Normal ms3.Vec
	D      float32
}

// NewPlane returns the plane of points p with dot(normal, p) = d.
func (bld *Builder) NewPlane(normal ms3.Vec, d float32, m glbuild.Material, flags ObjectFlags) *Plane {
	if normal == (ms3.Vec{}) {
		bld.configErrorf("zero plane normal")
		normal = ms3.Vec{Y: 1}
	}
	return &Plane{traceableBase: bld.newTraceable("plane", m, flags), Normal: ms3.Unit(normal), D: d}
}

func (p *Plane) AppendPreamble(b []byte) []byte {
	if p.flags.dynamic() {
		b = glbuild.AppendUniformDecl(b, "vec3", p.name("normal"))
		return glbuild.AppendUniformDecl(b, "float", p.name("d"))
	}
	b = glbuild.AppendConstVec3Decl(b, p.name("normal"), p.Normal)
	return glbuild.AppendConstFloatDecl(b, p.name("d"), p.D)
}

func (p *Plane) IntersectionType() string { return "float" }

func (p *Plane) AppendIntersection(b []byte, rayPos, rayDir string) []byte {
	b = append(b, "rayIntersectPlane3("...)
	b = append(b, p.name("normal")...)
	b = append(b, ", "...)
	b = append(b, p.name("d")...)
	return appendRayArgs(b, rayPos, rayDir)
}

func (p *Plane) AppendValidCheck(b []byte, hit string) []byte {
	b = append(b, '(')
	b = append(b, hit...)
	return append(b, " > "+glbuild.SmallEpsilon+")"...)
}

func (p *Plane) AppendT(b []byte, hit string) []byte { return append(b, hit...) }

func (p *Plane) AppendInside(b []byte, _ string) []byte { return b }

func (p *Plane) AppendNormal(b []byte, _, _, _, _ string) []byte {
	return append(b, p.name("normal")...)
}

func (p *Plane) AppendSnippets(dst []*glbuild.Snippet) []*glbuild.Snippet {
	return append(dst, glsllib.RayIntersectPlane3)
}

func (p *Plane) AppendUniforms(dst []string) []string {
	if p.flags.dynamic() {
		dst = append(dst, p.name("normal"), p.name("d"))
	}
	return dst
}

func (p *Plane) Update(setter glbuild.UniformSetter) error {
	if !p.flags.dynamic() {
		return nil
	}
	err := setter.Uniform3f(p.name("normal"), p.Normal)
	if err != nil {
		return err
	}
	return setter.Uniform1f(p.name("d"), p.D)
}

// HitTest returns the distance along ray to the plane or +Inf if it is not hit.
func (p *Plane) HitTest(ray Ray) float32 {
	t := (p.D - ms3.Dot(p.Normal, ray.Pos)) / ms3.Dot(p.Normal, ray.Dir)
	if t > cpuEpsilon {
		return t
	}
	return math32.Inf(1)
}

// Box is an axis aligned box. Its intersection expression is the vec2 of
// entry and exit distances.
type Box struct {
	traceableBase
	Min, Max ms3.Vec
}

// NewBox returns the axis aligned box spanning min to max.
func (bld *Builder) NewBox(min, max ms3.Vec, m glbuild.Material, flags ObjectFlags) *Box {
	if min.X >= max.X || min.Y >= max.Y || min.Z >= max.Z {
		bld.configErrorf("bad box bounds min=%v max=%v", min, max)
		min, max = ms3.MinElem(min, max), ms3.MaxElem(min, max)
	}
	return &Box{traceableBase: bld.newTraceable("box", m, flags), Min: min, Max: max}
}

func (bx *Box) bounds() (min, max string) {
	if bx.flags.dynamic() {
		return bx.name("min"), bx.name("max")
	}
	return string(glbuild.AppendVec3(nil, bx.Min)), string(glbuild.AppendVec3(nil, bx.Max))
}

func (bx *Box) AppendPreamble(b []byte) []byte {
	if bx.flags.dynamic() {
		b = glbuild.AppendUniformDecl(b, "vec3", bx.name("min"))
		b = glbuild.AppendUniformDecl(b, "vec3", bx.name("max"))
	}
	return b
}

func (bx *Box) IntersectionType() string { return "vec2" }

func (bx *Box) AppendIntersection(b []byte, rayPos, rayDir string) []byte {
	min, max := bx.bounds()
	b = append(b, "rayIntersectAABB3("...)
	b = append(b, min...)
	b = append(b, ", "...)
	b = append(b, max...)
	return appendRayArgs(b, rayPos, rayDir)
}

func (bx *Box) AppendValidCheck(b []byte, hit string) []byte {
	return bx.appendTwoSidedValid(b, hit)
}

func (bx *Box) AppendT(b []byte, hit string) []byte { return bx.appendTwoSidedT(b, hit) }

func (bx *Box) AppendInside(b []byte, hit string) []byte {
	return bx.appendTwoSidedInside(b, hit)
}

func (bx *Box) AppendNormal(b []byte, hit, hitPos, _, _ string) []byte {
	var center, halfSize string
	if bx.flags.dynamic() {
		min, max := bx.bounds()
		center = "((" + max + " + " + min + ") * 0.5)"
		halfSize = "((" + max + " - " + min + ") * 0.5)"
	} else {
		center = string(glbuild.AppendVec3(nil, ms3.Scale(0.5, ms3.Add(bx.Max, bx.Min))))
		halfSize = string(glbuild.AppendVec3(nil, ms3.Scale(0.5, ms3.Sub(bx.Max, bx.Min))))
	}
	if bx.flags.twoSided() {
		b = append(b, "(sign("...)
		b = append(b, hit...)
		b = append(b, ".x) * "...)
	}
	b = append(b, "normalFastOnAABB3("...)
	b = append(b, center...)
	b = append(b, ", "...)
	b = append(b, halfSize...)
	b = append(b, ", "...)
	b = append(b, hitPos...)
	b = append(b, ')')
	if bx.flags.twoSided() {
		b = append(b, ')')
	}
	return b
}

func (bx *Box) AppendSnippets(dst []*glbuild.Snippet) []*glbuild.Snippet {
	return append(dst, glsllib.RayIntersectAABB3, glsllib.NormalFastOnAABB3)
}

func (bx *Box) AppendUniforms(dst []string) []string {
	if bx.flags.dynamic() {
		dst = append(dst, bx.name("min"), bx.name("max"))
	}
	return dst
}

func (bx *Box) Update(setter glbuild.UniformSetter) error {
	if !bx.flags.dynamic() {
		return nil
	}
	err := setter.Uniform3f(bx.name("min"), bx.Min)
	if err != nil {
		return err
	}
	return setter.Uniform3f(bx.name("max"), bx.Max)
}

// HitTest returns the entry distance along ray into the box or +Inf if the
// box is missed or the ray starts inside it.
func (bx *Box) HitTest(ray Ray) float32 {
	tBack := ms3.DivElem(ms3.Sub(bx.Min, ray.Pos), ray.Dir)
	tFront := ms3.DivElem(ms3.Sub(bx.Max, ray.Pos), ray.Dir)
	tMin := ms3.MinElem(tBack, tFront)
	tMax := ms3.MaxElem(tBack, tFront)
	tNear := maxf(maxf(tMin.X, tMin.Y), tMin.Z)
	tFar := minf(minf(tMax.X, tMax.Y), tMax.Z)
	if tNear >= tFar || tNear < cpuEpsilon {
		return math32.Inf(1)
	}
	return tNear
}

// Sphere is a sphere. Its intersection expression is the vec2 of entry and
// exit distances.
type Sphere struct {
	traceableBase
	Center ms3.Vec
	Radius float32
	// Velocity is the displacement per unit of shutter time. Used with [FlagMotionBlur].
	Velocity ms3.Vec
	// Shutter is the open and close time of the exposure. Used with [FlagMotionBlur].
	Shutter ms2.Vec
}

// NewSphere returns a sphere of the given center and radius.
func (bld *Builder) NewSphere(center ms3.Vec, radius float32, m glbuild.Material, flags ObjectFlags) *Sphere {
	if radius <= 0 {
		bld.configErrorf("bad sphere radius %v", radius)
		radius = absf(radius)
	}
	return &Sphere{traceableBase: bld.newTraceable("sphere", m, flags), Center: center, Radius: radius}
}

func (s *Sphere) blurred() bool { return s.flags&FlagMotionBlur != 0 }

func (s *Sphere) centerRadius() (center, radius string) {
	if s.flags.dynamic() {
		center, radius = s.name("center"), s.name("radius")
	} else {
		center = string(glbuild.AppendVec3(nil, s.Center))
		radius = string(glbuild.AppendFloat(nil, s.Radius))
	}
	if s.blurred() {
		velocity := s.name("velocity")
		if !s.flags.dynamic() {
			velocity = string(glbuild.AppendVec3(nil, s.Velocity))
		}
		shutter := s.name("shutter")
		center = "(" + center + " + " + velocity + " * mix(" + shutter + ".x, " + shutter + ".y, pseudorandom(seed*14.53+1.6)))"
	}
	return center, radius
}

func (s *Sphere) AppendPreamble(b []byte) []byte {
	if s.flags.dynamic() {
		b = glbuild.AppendUniformDecl(b, "vec3", s.name("center"))
		b = glbuild.AppendUniformDecl(b, "float", s.name("radius"))
		if s.blurred() {
			b = glbuild.AppendUniformDecl(b, "vec3", s.name("velocity"))
		}
	}
	if s.blurred() {
		b = glbuild.AppendUniformDecl(b, "vec2", s.name("shutter"))
	}
	return b
}

func (s *Sphere) IntersectionType() string { return "vec2" }

func (s *Sphere) AppendIntersection(b []byte, rayPos, rayDir string) []byte {
	center, radius := s.centerRadius()
	b = append(b, "rayIntersectSphere("...)
	b = append(b, center...)
	b = append(b, ", "...)
	b = append(b, radius...)
	return appendRayArgs(b, rayPos, rayDir)
}

func (s *Sphere) AppendValidCheck(b []byte, hit string) []byte {
	return s.appendTwoSidedValid(b, hit)
}

func (s *Sphere) AppendT(b []byte, hit string) []byte { return s.appendTwoSidedT(b, hit) }

func (s *Sphere) AppendInside(b []byte, hit string) []byte {
	return s.appendTwoSidedInside(b, hit)
}

func (s *Sphere) AppendNormal(b []byte, hit, hitPos, _, _ string) []byte {
	center, radius := s.centerRadius()
	if s.flags.twoSided() {
		b = append(b, "(sign("...)
		b = append(b, hit...)
		b = append(b, ".x) * "...)
	}
	b = append(b, "normalOnSphere("...)
	b = append(b, center...)
	b = append(b, ", "...)
	b = append(b, radius...)
	b = append(b, ", "...)
	b = append(b, hitPos...)
	b = append(b, ')')
	if s.flags.twoSided() {
		b = append(b, ')')
	}
	return b
}

func (s *Sphere) AppendSnippets(dst []*glbuild.Snippet) []*glbuild.Snippet {
	dst = append(dst, glsllib.RayIntersectSphere, glsllib.NormalOnSphere)
	if s.blurred() {
		dst = append(dst, glsllib.Pseudorandom)
	}
	return dst
}

func (s *Sphere) AppendUniforms(dst []string) []string {
	if s.flags.dynamic() {
		dst = append(dst, s.name("center"), s.name("radius"))
		if s.blurred() {
			dst = append(dst, s.name("velocity"))
		}
	}
	if s.blurred() {
		dst = append(dst, s.name("shutter"))
	}
	return dst
}

func (s *Sphere) Update(setter glbuild.UniformSetter) error {
	var err error
	if s.flags.dynamic() {
		err = setter.Uniform3f(s.name("center"), s.Center)
		if err == nil {
			err = setter.Uniform1f(s.name("radius"), s.Radius)
		}
		if err == nil && s.blurred() {
			err = setter.Uniform3f(s.name("velocity"), s.Velocity)
		}
	}
	if err == nil && s.blurred() {
		err = setter.Uniform2f(s.name("shutter"), s.Shutter)
	}
	return err
}

// HitTest returns the nearest distance ahead of ray at which it crosses the
// sphere surface or +Inf if it is not hit. Motion blur is not accounted for.
func (s *Sphere) HitTest(ray Ray) float32 {
	toSphere := ms3.Sub(ray.Pos, s.Center)
	a := ms3.Dot(ray.Dir, ray.Dir)
	b := 2 * ms3.Dot(toSphere, ray.Dir)
	c := ms3.Dot(toSphere, toSphere) - s.Radius*s.Radius
	discriminant := b*b - 4*a*c
	if discriminant > cpuEpsilon {
		sqt := math32.Sqrt(discriminant)
		ta := (-sqt - b) / (2 * a)
		if ta > cpuEpsilon {
			return ta
		}
		tb := (sqt - b) / (2 * a)
		if tb > cpuEpsilon {
			return tb
		}
	}
	return math32.Inf(1)
}

// DistanceField is the solid where a GLSL distance function is negative,
// intersected by sphere tracing. It is always two sided.
type DistanceField struct {
	traceableBase
	marcher *glbuild.Snippet
	normal  *glbuild.Snippet
}

// NewDistanceField returns a traceable for the distance function
//
//	float <fieldName>(vec3 p)
//
// defined in field. The function should be a lower bound of the euclidean
// distance to the surface for the sphere tracer to converge.
func (bld *Builder) NewDistanceField(fieldName string, field *glbuild.Snippet, cfg glsllib.MarcherConfig, m glbuild.Material) *DistanceField {
	if field == nil || fieldName == "" {
		bld.configErrorf("distance field requires a named field function")
		field = glsllib.SdSphere
		fieldName = "sdSphere"
	}
	if cfg.Steps <= 0 || cfg.StepRatio <= 0 || cfg.EndThreshold <= 0 {
		bld.configErrorf("bad marcher configuration %+v", cfg)
		cfg = glsllib.DefaultMarcherConfig()
	}
	base := bld.newTraceable("field", m, FlagTwoSided)
	return &DistanceField{
		traceableBase: base,
		marcher:       glsllib.NewDistanceFieldMarcher(base.prefix+"March", fieldName, cfg, field),
		normal:        glsllib.NewDistanceFieldNormal(base.prefix+"Normal", fieldName, 0.001, 0.0001, field),
	}
}

func (f *DistanceField) AppendPreamble(b []byte) []byte { return b }

func (f *DistanceField) IntersectionType() string { return "vec2" }

func (f *DistanceField) AppendIntersection(b []byte, rayPos, rayDir string) []byte {
	b = append(b, f.name("March")...)
	b = append(b, '(')
	b = append(b, rayPos...)
	b = append(b, ", "...)
	b = append(b, rayDir...)
	return append(b, ')')
}

func (f *DistanceField) AppendValidCheck(b []byte, hit string) []byte {
	b = append(b, '(')
	b = append(b, hit...)
	return append(b, ".x > "+glbuild.SmallEpsilon+")"...)
}

func (f *DistanceField) AppendT(b []byte, hit string) []byte {
	b = append(b, hit...)
	return append(b, ".x"...)
}

func (f *DistanceField) AppendInside(b []byte, hit string) []byte {
	b = append(b, '(')
	b = append(b, hit...)
	return append(b, ".y < 0.0)"...)
}

func (f *DistanceField) AppendNormal(b []byte, _, hitPos, rayPos, rayDir string) []byte {
	b = append(b, f.name("Normal")...)
	b = append(b, '(')
	b = append(b, rayPos...)
	b = append(b, ", "...)
	b = append(b, rayDir...)
	b = append(b, ", "...)
	b = append(b, hitPos...)
	return append(b, ')')
}

func (f *DistanceField) AppendSnippets(dst []*glbuild.Snippet) []*glbuild.Snippet {
	return append(dst, f.marcher, f.normal)
}

func (f *DistanceField) AppendUniforms(dst []string) []string { return dst }

func (f *DistanceField) Update(glbuild.UniformSetter) error { return nil }

func appendRayArgs(b []byte, rayPos, rayDir string) []byte {
	b = append(b, ", "...)
	b = append(b, rayPos...)
	b = append(b, ", "...)
	b = append(b, rayDir...)
	return append(b, ')')
}
