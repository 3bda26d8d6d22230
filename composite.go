package glpt

import (
	"strconv"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glpt/glbuild"
	"github.com/soypat/glpt/glbuild/glsllib"
)

var (
	_ glbuild.Material = (*wrapper)(nil)
	_ glbuild.Material = (*switchMaterial)(nil)
	_ glbuild.Material = (*attenuate)(nil)
	_ glbuild.Material = (*emit)(nil)
)

// wrapper runs extra hit statements around those of the wrapped material.
// It has no dispatch branch of its own.
type wrapper struct {
	materialBase
	m             glbuild.Material
	before, after func(glbuild.HitSymbols) string
	snippets      []*glbuild.Snippet
}

// Wrap returns a material that emits the statements generated by before and
// after around the hit statements of m. Either function may be nil.
func (bld *Builder) Wrap(m glbuild.Material, before, after func(glbuild.HitSymbols) string, snippets ...*glbuild.Snippet) glbuild.Material {
	if m == nil {
		bld.configErrorf("nil material argument to Wrap")
	}
	return &wrapper{materialBase: bld.newStructural(), m: m, before: before, after: after, snippets: snippets}
}

func (w *wrapper) AppendHitStatements(b []byte, sym glbuild.HitSymbols) []byte {
	if w.before != nil {
		b = append(b, w.before(sym)...)
	}
	b = w.m.AppendHitStatements(b, sym)
	if w.after != nil {
		b = append(b, w.after(sym)...)
	}
	return b
}

func (w *wrapper) AppendSnippets(dst []*glbuild.Snippet) []*glbuild.Snippet {
	return append(dst, w.snippets...)
}

func (w *wrapper) ForEachMaterial(fn func(glbuild.Material) error) error {
	return fn(w.m)
}

// switchMaterial chooses between two materials at random on every hit.
type switchMaterial struct {
	materialBase
	a, b     glbuild.Material
	ratio    func(glbuild.HitSymbols) string
	snippets []*glbuild.Snippet
}

// Switch returns a material that behaves as a with probability ratio and as b
// otherwise. ratio generates statements assigning the already declared float
// variable ratio.
func (bld *Builder) Switch(a, b glbuild.Material, ratio func(glbuild.HitSymbols) string, snippets ...*glbuild.Snippet) glbuild.Material {
	if a == nil || b == nil {
		bld.configErrorf("Switch requires two materials, got %v and %v", a, b)
	}
	if ratio == nil {
		bld.configErrorf("nil Switch ratio statements")
		ratio = func(glbuild.HitSymbols) string { return "      ratio = 0.5;\n" }
	}
	return &switchMaterial{materialBase: bld.newStructural(), a: a, b: b, ratio: ratio, snippets: snippets}
}

func (s *switchMaterial) AppendHitStatements(b []byte, sym glbuild.HitSymbols) []byte {
	b = append(b, "      float ratio;\n"...)
	b = append(b, s.ratio(sym)...)
	b = append(b, "      if (pseudorandom(float(bounce) + seed*1.7243 - float("...)
	b = strconv.AppendInt(b, int64(s.id), 10)
	b = append(b, ")) < ratio) {\n"...)
	b = s.a.AppendHitStatements(b, sym)
	b = append(b, "      } else {\n"...)
	b = s.b.AppendHitStatements(b, sym)
	b = append(b, "      }\n"...)
	return b
}

func (s *switchMaterial) AppendSnippets(dst []*glbuild.Snippet) []*glbuild.Snippet {
	return append(dst, s.snippets...)
}

func (s *switchMaterial) ForEachMaterial(fn func(glbuild.Material) error) error {
	err := fn(s.a)
	if err != nil {
		return err
	}
	return fn(s.b)
}

// FresnelComposite returns a material that behaves as reflect with the
// average Fresnel reflectance of a dielectric interface between indices na
// (normal side) and nb, and as transmit otherwise. Past the total internal
// reflection cutoff it always behaves as reflect.
func (bld *Builder) FresnelComposite(reflect, transmit glbuild.Material, na, nb float32) glbuild.Material {
	if na <= 0 || nb <= 0 {
		bld.configErrorf("non-positive fresnel indices of refraction %v, %v", na, nb)
	}
	ratio := func(sym glbuild.HitSymbols) string {
		var b []byte
		b = append(b, "      vec2 fresnelIors = vec2("...)
		b = glbuild.AppendFloats(b, ',', na, nb)
		b = append(b, ");\n      if (inside) { fresnelIors = fresnelIors.yx; }\n"...)
		b = append(b, "      if (abs(dot("+sym.Normal+", "+sym.RayDir+")) < totalInternalReflectionCutoff(fresnelIors.x, fresnelIors.y) + "+glbuild.SmallEpsilon+") {\n"...)
		b = append(b, "        ratio = 1.0;\n      } else {\n"...)
		b = append(b, "        vec2 reflectance = fresnelDielectric("+sym.RayDir+", "+sym.Normal+", refract("+sym.RayDir+", "+sym.Normal+", fresnelIors.x / fresnelIors.y), fresnelIors.x, fresnelIors.y);\n"...)
		b = append(b, "        ratio = (reflectance.x + reflectance.y) / 2.0;\n      }\n"...)
		return string(b)
	}
	return bld.Switch(reflect, transmit, ratio, glsllib.FresnelDielectric, glsllib.TotalInternalReflectionCutoff)
}

// attenuate multiplies the path throughput by a color on hit.
type attenuate struct {
	wrapper
	value Vec3Value
}

// Attenuate returns m with the path attenuation multiplied by value on every hit.
// A constant value of (1,1,1) emits no code.
func (bld *Builder) Attenuate(m glbuild.Material, value Vec3Value) glbuild.Material {
	if m == nil {
		bld.configErrorf("nil material argument to Attenuate")
	}
	if !validValue(value) {
		bld.configErrorf("invalid attenuation %v", value)
		value = ConstVec3{X: 1, Y: 1, Z: 1}
	}
	a := &attenuate{value: value}
	a.wrapper = wrapper{materialBase: bld.newStructural(), m: m, before: a.statements}
	return a
}

func (a *attenuate) name() string { return glbuild.InstanceName("attenuation", a.id) }

func (a *attenuate) trivial() bool {
	c, ok := a.value.(ConstVec3)
	return ok && ms3.Vec(c) == ms3.Vec{X: 1, Y: 1, Z: 1}
}

func (a *attenuate) statements(sym glbuild.HitSymbols) string {
	if a.trivial() {
		return ""
	}
	b := append([]byte(nil), "      attenuation = attenuation * "...)
	b = appendVec3Ref(b, a.value, a.name(), true, sym)
	b = append(b, ";\n"...)
	return string(b)
}

func (a *attenuate) AppendPreamble(b []byte) []byte {
	return appendVec3Decl(b, a.value, a.name(), true)
}

func (a *attenuate) AppendUniforms(dst []string) []string {
	return appendValueUniform(dst, a.value, a.name())
}

func (a *attenuate) Update(setter glbuild.UniformSetter) error {
	return updateValue(setter, a.value, a.name())
}

// emit adds emitted light, scaled by the path throughput, on hit.
type emit struct {
	wrapper
	value Vec3Value
}

// Emit returns m with value added as emitted radiance on every hit.
// A constant value of (0,0,0) emits no code.
func (bld *Builder) Emit(m glbuild.Material, value Vec3Value) glbuild.Material {
	if m == nil {
		bld.configErrorf("nil material argument to Emit")
	}
	if !validValue(value) {
		bld.configErrorf("invalid emission %v", value)
		value = ConstVec3{}
	}
	e := &emit{value: value}
	e.wrapper = wrapper{materialBase: bld.newStructural(), m: m, before: e.statements}
	return e
}

func (e *emit) name() string { return glbuild.InstanceName("emission", e.id) }

func (e *emit) trivial() bool {
	c, ok := e.value.(ConstVec3)
	return ok && ms3.Vec(c) == ms3.Vec{}
}

func (e *emit) statements(sym glbuild.HitSymbols) string {
	if e.trivial() {
		return ""
	}
	b := append([]byte(nil), "      accumulation = accumulation + attenuation * "...)
	b = appendVec3Ref(b, e.value, e.name(), false, sym)
	b = append(b, ";\n"...)
	return string(b)
}

func (e *emit) AppendPreamble(b []byte) []byte {
	if e.trivial() {
		return b
	}
	return appendVec3Decl(b, e.value, e.name(), false)
}

func (e *emit) AppendUniforms(dst []string) []string {
	return appendValueUniform(dst, e.value, e.name())
}

func (e *emit) Update(setter glbuild.UniformSetter) error {
	return updateValue(setter, e.value, e.name())
}
