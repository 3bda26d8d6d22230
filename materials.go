package glpt

import (
	_ "embed"
	"strconv"

	"github.com/soypat/glpt/glbuild"
	"github.com/soypat/glpt/glbuild/glsllib"
)

// Material kinds. Each kind receives one process id from the Builder's allocator.
const (
	KindDiffuse          = "diffuse"
	KindAbsorb           = "absorb"
	KindReflect          = "reflect"
	KindTransmit         = "transmit"
	KindPhongSpecular    = "phongSpecular"
	KindSmoothDielectric = "smoothDielectric"
	KindShinyBlack       = "shinyBlack"
	KindMetal            = "metal"
	KindTexturedFloor    = "texturedFloor"
	KindFacetedBall      = "facetedBall"
)

const advanceRay = "      rayPos = hitPos + " + glbuild.Epsilon + " * rayDir;\n"

// materialBase holds identity and the no-op defaults shared by all materials.
type materialBase struct {
	id  int
	pid int
}

func (bld *Builder) newTerminal(kind string) materialBase {
	ids := bld.IDs()
	return materialBase{id: ids.NextInstance(), pid: ids.ProcessID(kind)}
}

func (bld *Builder) newStructural() materialBase {
	return materialBase{id: bld.IDs().NextInstance()}
}

func (m *materialBase) InstanceID() int { return m.id }
func (m *materialBase) ProcessID() int { return m.pid }
func (m *materialBase) AppendPreamble(b []byte) []byte { return b }
func (m *materialBase) AppendLocals(b []byte) []byte { return b }
func (m *materialBase) AppendProcessStatements(b []byte, _ []glbuild.Traceable) []byte { return b }
func (m *materialBase) AppendSnippets(dst []*glbuild.Snippet) []*glbuild.Snippet { return dst }
func (m *materialBase) AppendUniforms(dst []string) []string { return dst }
func (m *materialBase) ForEachMaterial(func(glbuild.Material) error) error { return nil }
func (m *materialBase) Update(glbuild.UniformSetter) error { return nil }

// AppendHitStatements selects the material's dispatch branch.
func (m *materialBase) AppendHitStatements(b []byte, _ glbuild.HitSymbols) []byte {
	return appendBounceType(b, m.pid)
}

func appendBounceType(b []byte, pid int) []byte {
	b = append(b, "      bounceType = "...)
	b = strconv.AppendInt(b, int64(pid), 10)
	return append(b, ";\n"...)
}

var (
	_ glbuild.Material = (*diffuse)(nil) // Interface implementation compile-time checks.
	_ glbuild.Material = (*absorb)(nil)
	_ glbuild.Material = (*reflectMaterial)(nil)
	_ glbuild.Material = (*transmit)(nil)
	_ glbuild.Material = (*phongSpecular)(nil)
	_ glbuild.Material = (*smoothDielectric)(nil)
	_ glbuild.Material = (*metal)(nil)
	_ glbuild.Material = (*texturedFloor)(nil)
	_ glbuild.Material = (*facetedBall)(nil)
)

type diffuse struct{ materialBase }

// NewDiffuse returns a Lambertian material. Bounce directions are cosine
// weighted around the surface normal.
func (bld *Builder) NewDiffuse() glbuild.Material {
	return &diffuse{materialBase: bld.newTerminal(KindDiffuse)}
}

func (m *diffuse) AppendSnippets(dst []*glbuild.Snippet) []*glbuild.Snippet {
	return append(dst, glsllib.SampleTowardsNormal3, glsllib.SampleDotWeightOnHemisphere)
}

func (m *diffuse) AppendProcessStatements(b []byte, _ []glbuild.Traceable) []byte {
	b = append(b, "      rayDir = sampleTowardsNormal3(normal, sampleDotWeightOnHemisphere(pseudorandom(float(bounce) + seed*164.32+2.5), pseudorandom(float(bounce) + 7.233 * seed + 1.3)));\n"...)
	return append(b, advanceRay...)
}

type absorb struct{ materialBase }

// NewAbsorb returns a material that terminates the path without contributing light.
func (bld *Builder) NewAbsorb() glbuild.Material {
	return &absorb{materialBase: bld.newTerminal(KindAbsorb)}
}

func (m *absorb) AppendProcessStatements(b []byte, _ []glbuild.Traceable) []byte {
	return append(b, "      break;\n"...)
}

type reflectMaterial struct{ materialBase }

// NewReflect returns a perfect mirror.
func (bld *Builder) NewReflect() glbuild.Material {
	return &reflectMaterial{materialBase: bld.newTerminal(KindReflect)}
}

func (m *reflectMaterial) AppendProcessStatements(b []byte, _ []glbuild.Traceable) []byte {
	b = append(b, "      rayDir = reflect(rayDir, normal);\n"...)
	return append(b, advanceRay...)
}

type transmit struct {
	materialBase
	na, nb FloatValue
}

// NewTransmit returns a material that always refracts. na is the index of
// refraction on the normal's side and nb the one behind the surface. Paths
// that undergo total internal reflection are terminated.
func (bld *Builder) NewTransmit(na, nb FloatValue) glbuild.Material {
	if !validValue(na) || !validValue(nb) {
		bld.configErrorf("invalid transmit indices of refraction %v, %v", na, nb)
		na, nb = ConstFloat(1), ConstFloat(1)
	}
	return &transmit{materialBase: bld.newTerminal(KindTransmit), na: na, nb: nb}
}

func (m *transmit) names() (na, nb string) {
	return glbuild.InstanceName("transmitNA", m.id), glbuild.InstanceName("transmitNB", m.id)
}

func (m *transmit) AppendPreamble(b []byte) []byte {
	na, nb := m.names()
	b = appendFloatDecl(b, m.na, na, true)
	return appendFloatDecl(b, m.nb, nb, true)
}

func (m *transmit) AppendLocals(b []byte) []byte {
	return append(b, "  vec2 transmitIORs;\n"...)
}

func (m *transmit) AppendHitStatements(b []byte, _ glbuild.HitSymbols) []byte {
	na, nb := m.names()
	b = append(b, "      transmitIORs = vec2("...)
	b = appendFloatRef(b, m.na, na, true)
	b = append(b, ", "...)
	b = appendFloatRef(b, m.nb, nb, true)
	b = append(b, ");\n      if (inside) {\n        transmitIORs = transmitIORs.yx;\n      }\n"...)
	return appendBounceType(b, m.pid)
}

func (m *transmit) AppendProcessStatements(b []byte, _ []glbuild.Traceable) []byte {
	b = append(b, "      rayDir = refract(rayDir, normal, transmitIORs.x / transmitIORs.y);\n"...)
	b = append(b, "      if (dot(rayDir, rayDir) == 0.0) { break; }\n"...)
	return append(b, advanceRay...)
}

func (m *transmit) AppendUniforms(dst []string) []string {
	na, nb := m.names()
	dst = appendValueUniform(dst, m.na, na)
	return appendValueUniform(dst, m.nb, nb)
}

func (m *transmit) Update(setter glbuild.UniformSetter) error {
	na, nb := m.names()
	err := updateValue(setter, m.na, na)
	if err != nil {
		return err
	}
	return updateValue(setter, m.nb, nb)
}

type phongSpecular struct {
	materialBase
	n FloatValue
}

// NewPhongSpecular returns a glossy material whose lobe around the mirror
// direction has Phong exponent n. Samples falling behind the lobe terminate the path.
func (bld *Builder) NewPhongSpecular(n FloatValue) glbuild.Material {
	if !validValue(n) {
		bld.configErrorf("invalid phong exponent %v", n)
		n = ConstFloat(1)
	}
	return &phongSpecular{materialBase: bld.newTerminal(KindPhongSpecular), n: n}
}

func (m *phongSpecular) name() string { return glbuild.InstanceName("phongN", m.id) }

func (m *phongSpecular) AppendSnippets(dst []*glbuild.Snippet) []*glbuild.Snippet {
	return append(dst, glsllib.SampleTowardsNormal3, glsllib.SampleDotWeightOnHemisphere, glsllib.TwoPi)
}

func (m *phongSpecular) AppendPreamble(b []byte) []byte {
	return appendFloatDecl(b, m.n, m.name(), false)
}

func (m *phongSpecular) AppendLocals(b []byte) []byte {
	return append(b, "  float phongSpecularN;\n"...)
}

func (m *phongSpecular) AppendHitStatements(b []byte, _ glbuild.HitSymbols) []byte {
	b = append(b, "      phongSpecularN = "...)
	b = appendFloatRef(b, m.n, m.name(), false)
	b = append(b, ";\n"...)
	return appendBounceType(b, m.pid)
}

func (m *phongSpecular) AppendProcessStatements(b []byte, _ []glbuild.Traceable) []byte {
	b = append(b, `      vec3 reflectDir = reflect(rayDir, normal);
      rayDir = sampleTowardsNormal3(reflectDir, sampleDotWeightOnHemisphere(pseudorandom(float(bounce) + seed*1642.32+2.52), pseudorandom(float(bounce) + 72.233 * seed + 1.32)));
      float dotty = dot(reflectDir, rayDir);
      float contrib = pow(abs(dotty), phongSpecularN) * (phongSpecularN + 2.0) / (2.0);
      if (dotty < 0.0) { break; }
      attenuation = attenuation * contrib;
`...)
	return append(b, advanceRay...)
}

func (m *phongSpecular) AppendUniforms(dst []string) []string {
	return appendValueUniform(dst, m.n, m.name())
}

func (m *phongSpecular) Update(setter glbuild.UniformSetter) error {
	return updateValue(setter, m.n, m.name())
}

// smoothDielectric implements both smooth dielectric kinds, which differ only
// in what they do with the refracted part of the light.
type smoothDielectric struct {
	materialBase
	ior   FloatValue
	black bool
}

// NewSmoothDielectric returns a glass-like material with the given index of
// refraction. Light is reflected or refracted with Fresnel probabilities and
// always reflected past the total internal reflection cutoff.
func (bld *Builder) NewSmoothDielectric(ior FloatValue) glbuild.Material {
	return bld.newDielectric(KindSmoothDielectric, ior, false)
}

// NewShinyBlack returns a black dielectric: refracted light is absorbed and
// the path continues with the Fresnel reflected fraction only.
func (bld *Builder) NewShinyBlack(ior FloatValue) glbuild.Material {
	return bld.newDielectric(KindShinyBlack, ior, true)
}

func (bld *Builder) newDielectric(kind string, ior FloatValue, black bool) glbuild.Material {
	if !validValue(ior) {
		bld.configErrorf("invalid %s index of refraction %v", kind, ior)
		ior = ConstFloat(1.5)
	}
	return &smoothDielectric{materialBase: bld.newTerminal(kind), ior: ior, black: black}
}

func (m *smoothDielectric) name() string {
	if m.black {
		return glbuild.InstanceName("shinyBlackIOR", m.id)
	}
	return glbuild.InstanceName("dielectricIOR", m.id)
}

func (m *smoothDielectric) AppendSnippets(dst []*glbuild.Snippet) []*glbuild.Snippet {
	return append(dst, glsllib.SellmeierDispersion, glsllib.FresnelDielectric, glsllib.TotalInternalReflectionCutoff)
}

func (m *smoothDielectric) AppendPreamble(b []byte) []byte {
	return appendFloatDecl(b, m.ior, m.name(), true)
}

func (m *smoothDielectric) AppendHitStatements(b []byte, _ glbuild.HitSymbols) []byte {
	b = append(b, "      iorNext = inside ? "+glbuild.AirIOR+" : "...)
	b = appendFloatRef(b, m.ior, m.name(), true)
	b = append(b, ";\n"...)
	return appendBounceType(b, m.pid)
}

func (m *smoothDielectric) AppendProcessStatements(b []byte, _ []glbuild.Traceable) []byte {
	b = append(b, "      if (abs(dot(normal, rayDir)) < totalInternalReflectionCutoff(ior, iorNext) + "+glbuild.SmallEpsilon+") {\n"...)
	b = append(b, "        rayDir = reflect(rayDir, normal);\n      } else {\n"...)
	b = append(b, "        vec3 transmitDir = refract(rayDir, normal, ior / iorNext);\n"...)
	b = append(b, "        vec2 reflectance = fresnelDielectric(rayDir, normal, transmitDir, ior, iorNext);\n"...)
	if m.black {
		b = append(b, "        attenuation = attenuation * (reflectance.x + reflectance.y) / 2.0;\n"...)
		b = append(b, "        rayDir = reflect(rayDir, normal);\n"...)
	} else {
		b = append(b, `        if (pseudorandom(float(bounce) + seed*1.7243 - 15.34) > (reflectance.x + reflectance.y) / 2.0) {
          rayDir = transmitDir;
          ior = iorNext;
        } else {
          rayDir = reflect(rayDir, normal);
        }
`...)
	}
	b = append(b, "      }\n"...)
	return append(b, advanceRay...)
}

func (m *smoothDielectric) AppendUniforms(dst []string) []string {
	return appendValueUniform(dst, m.ior, m.name())
}

func (m *smoothDielectric) Update(setter glbuild.UniformSetter) error {
	return updateValue(setter, m.ior, m.name())
}

type metal struct {
	materialBase
	ior Vec2Value
}

// NewMetal returns a conductor with complex index of refraction ior.X + i*ior.Y.
// Reflected light is attenuated by the average Fresnel reflectance.
func (bld *Builder) NewMetal(ior Vec2Value) glbuild.Material {
	if !validValue(ior) {
		bld.configErrorf("invalid metal index of refraction %v", ior)
		ior = ConstVec2{X: 1, Y: 1}
	}
	return &metal{materialBase: bld.newTerminal(KindMetal), ior: ior}
}

func (m *metal) name() string { return glbuild.InstanceName("metalIOR", m.id) }

func (m *metal) AppendSnippets(dst []*glbuild.Snippet) []*glbuild.Snippet {
	return append(dst, glsllib.Fresnel)
}

func (m *metal) AppendPreamble(b []byte) []byte {
	return appendVec2Decl(b, m.ior, m.name(), true)
}

func (m *metal) AppendLocals(b []byte) []byte {
	return append(b, "  vec2 iorComplex;\n"...)
}

func (m *metal) AppendHitStatements(b []byte, _ glbuild.HitSymbols) []byte {
	b = append(b, "      iorComplex = "...)
	b = appendVec2Ref(b, m.ior, m.name(), true)
	b = append(b, ";\n"...)
	return appendBounceType(b, m.pid)
}

func (m *metal) AppendProcessStatements(b []byte, _ []glbuild.Traceable) []byte {
	b = append(b, "      vec2 reflectance = fresnel(rayDir, normal, ior, iorComplex.x, iorComplex.y);\n"...)
	b = append(b, "      attenuation = attenuation * (reflectance.x + reflectance.y) / 2.0;\n"...)
	b = append(b, "      rayDir = reflect(rayDir, normal);\n"...)
	return append(b, advanceRay...)
}

func (m *metal) AppendUniforms(dst []string) []string {
	return appendValueUniform(dst, m.ior, m.name())
}

func (m *metal) Update(setter glbuild.UniformSetter) error {
	return updateValue(setter, m.ior, m.name())
}

//go:embed glsl/texturedfloor.glsl
var texturedFloorProcess string

// floorUnits is the number of texture units a textured floor binds.
const floorUnits = 3

type texturedFloor struct {
	materialBase
	diffuse, dirt, normal uint32
	// unit is the first of the floor's texture units.
	unit int
}

// NewTexturedFloor returns a varnished wooden floor material for the y=0 plane
// spanning 700x700 units around the origin, shaded with diffuse, dirt and
// normal map textures. Outside the textured area it is a grass colored diffuse.
// Each floor binds its textures to its own three texture units.
func (bld *Builder) NewTexturedFloor(diffuseTexture, dirtTexture, normalTexture uint32) glbuild.Material {
	unit := envTextureUnit + 1 + bld.floors*floorUnits
	bld.floors++
	return &texturedFloor{
		materialBase: bld.newTerminal(KindTexturedFloor),
		diffuse:      diffuseTexture,
		dirt:         dirtTexture,
		normal:       normalTexture,
		unit:         unit,
	}
}

func (m *texturedFloor) names() (diffuse, dirt, normal string) {
	return glbuild.InstanceName("floorDiffuse", m.id), glbuild.InstanceName("floorDirt", m.id), glbuild.InstanceName("floorNormal", m.id)
}

func (m *texturedFloor) AppendSnippets(dst []*glbuild.Snippet) []*glbuild.Snippet {
	return append(dst, glsllib.FresnelDielectric, glsllib.SampleDotWeightOnHemisphere, glsllib.SampleTowardsNormal3, glsllib.TwoPi)
}

func (m *texturedFloor) AppendPreamble(b []byte) []byte {
	diffuse, dirt, normal := m.names()
	b = glbuild.AppendUniformDecl(b, "sampler2D", diffuse)
	b = glbuild.AppendUniformDecl(b, "sampler2D", dirt)
	return glbuild.AppendUniformDecl(b, "sampler2D", normal)
}

func (m *texturedFloor) AppendLocals(b []byte) []byte {
	return append(b, "  vec3 floorDiffuseTex;\n  vec3 floorDirtTex;\n  vec3 floorNormalTex;\n"...)
}

// AppendHitStatements samples the instance's textures so the shared
// dispatch branch only reads the floor locals.
func (m *texturedFloor) AppendHitStatements(b []byte, sym glbuild.HitSymbols) []byte {
	diffuse, dirt, normal := m.names()
	appendSample := func(b []byte, local, sampler, swizzle string) []byte {
		b = append(b, "      "...)
		b = append(b, local...)
		b = append(b, " = texture2D("...)
		b = append(b, sampler...)
		b = append(b, ", "...)
		b = append(b, sym.HitPos...)
		b = append(b, ".xz * 0.003937007874015748)."...)
		b = append(b, swizzle...)
		return append(b, ";\n"...)
	}
	b = appendSample(b, "floorDiffuseTex", diffuse, "rgb")
	b = appendSample(b, "floorDirtTex", dirt, "rgb")
	b = appendSample(b, "floorNormalTex", normal, "rbg")
	return appendBounceType(b, m.pid)
}

func (m *texturedFloor) AppendProcessStatements(b []byte, _ []glbuild.Traceable) []byte {
	return append(b, texturedFloorProcess...)
}

func (m *texturedFloor) AppendUniforms(dst []string) []string {
	diffuse, dirt, normal := m.names()
	return append(dst, diffuse, dirt, normal)
}

func (m *texturedFloor) Update(setter glbuild.UniformSetter) error {
	diffuse, dirt, normal := m.names()
	err := setter.Texture2D(diffuse, m.unit, m.diffuse)
	if err == nil {
		err = setter.Texture2D(dirt, m.unit+1, m.dirt)
	}
	if err == nil {
		err = setter.Texture2D(normal, m.unit+2, m.normal)
	}
	return err
}

//go:embed glsl/facetedball.glsl
var facetedBallProcess string

type facetedBall struct{ materialBase }

// NewFacetedBall returns a procedural soccer ball material for spheres:
// black pentagons and white hexagons with stitched seams under a glossy coat.
func (bld *Builder) NewFacetedBall() glbuild.Material {
	return &facetedBall{materialBase: bld.newTerminal(KindFacetedBall)}
}

func (m *facetedBall) AppendSnippets(dst []*glbuild.Snippet) []*glbuild.Snippet {
	return append(dst,
		glsllib.SampleDotWeightOnHemisphere,
		glsllib.SampleTowardsNormal3,
		glsllib.ClosestIcosahedronPoint,
		glsllib.ClosestDodecahedronPoint,
		glsllib.FresnelDielectric,
		glsllib.Phi,
		glsllib.InvPhi,
		glsllib.HalfPi,
		glsllib.Sqrt5,
		glsllib.Inv2Sqrt2,
	)
}

func (m *facetedBall) AppendProcessStatements(b []byte, _ []glbuild.Traceable) []byte {
	return append(b, facetedBallProcess...)
}
