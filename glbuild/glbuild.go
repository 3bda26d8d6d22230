package glbuild

import (
	"strconv"

	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
)

// GLSL literals shared by generated kernel code.
const (
	// Epsilon is the offset applied along a ray when spawning a new ray from a surface.
	Epsilon = "0.0001"
	// SmallEpsilon is the minimum distance an intersection must have to be valid.
	SmallEpsilon = "0.0000001"
	// AirIOR is the index of refraction of air.
	AirIOR = "1.0002771"
)

// HitSymbols names the GLSL symbols in scope when hit-time code runs.
type HitSymbols struct {
	HitPos string
	Normal string
	RayPos string
	RayDir string
}

// DefaultHitSymbols returns the symbol names used by the scene kernel.
func DefaultHitSymbols() HitSymbols {
	return HitSymbols{
		HitPos: "hitPos",
		Normal: "normal",
		RayPos: "rayPos",
		RayDir: "rayDir",
	}
}

// Material describes how a path bounces off a surface it hit. A Material
// contributes code to several places of the scene kernel:
//   - Preamble: global declarations, emitted once per distinct material instance.
//   - Locals: declarations inside the sample function, emitted once per process kind.
//   - Hit statements: run on the object that was hit; must set bounceType.
//   - Process statements: run in the dispatch branch of its process kind.
type Material interface {
	// InstanceID is unique per constructed material.
	InstanceID() int
	// ProcessID identifies the material's bounce behavior. Materials of the same
	// kind share a ProcessID. Structural composites return 0 and receive no dispatch entry.
	ProcessID() int
	AppendPreamble(b []byte) []byte
	AppendLocals(b []byte) []byte
	AppendHitStatements(b []byte, sym HitSymbols) []byte
	AppendProcessStatements(b []byte, objs []Traceable) []byte
	// AppendSnippets appends the library code the material needs.
	AppendSnippets(dst []*Snippet) []*Snippet
	// AppendUniforms appends the names of the uniforms the material declares.
	AppendUniforms(dst []string) []string
	// ForEachMaterial calls fn on each direct sub-material required by this material.
	ForEachMaterial(fn func(Material) error) error
	// Update sets the material's uniform values on a live program.
	Update(UniformSetter) error
}

// Traceable is a geometric object rays can intersect.
type Traceable interface {
	// Prefix is the instance-unique name prefix for the object's GLSL symbols.
	Prefix() string
	Material() Material
	AppendPreamble(b []byte) []byte
	// IntersectionType is the GLSL type of the intersection expression, "float" or "vec2".
	IntersectionType() string
	AppendIntersection(b []byte, rayPos, rayDir string) []byte
	AppendValidCheck(b []byte, hit string) []byte
	AppendT(b []byte, hit string) []byte
	// AppendInside appends a boolean expression for whether the ray started
	// inside the object. One sided objects append nothing.
	AppendInside(b []byte, hit string) []byte
	AppendNormal(b []byte, hit, hitPos, rayPos, rayDir string) []byte
	AppendSnippets(dst []*Snippet) []*Snippet
	AppendUniforms(dst []string) []string
	Update(UniformSetter) error
}

// Environment contributes radiance to rays that hit nothing.
type Environment interface {
	AppendPreamble(b []byte) []byte
	// AppendEnvironment appends statements that add to accumulation
	// using attenuation, rayPos and rayDir.
	AppendEnvironment(b []byte) []byte
	AppendSnippets(dst []*Snippet) []*Snippet
	AppendUniforms(dst []string) []string
	Update(UniformSetter) error
}

// Projection generates the camera ray for a jittered screen position pJittered.
type Projection interface {
	AppendPreamble(b []byte) []byte
	// AppendRayDir appends statements declaring vec3 rayDir. They may also modify rayPos.
	AppendRayDir(b []byte) []byte
	AppendSnippets(dst []*Snippet) []*Snippet
	AppendUniforms(dst []string) []string
	Update(UniformSetter) error
}

// UniformSetter sets uniform values by name on a live GPU program.
// Matrices are column major.
type UniformSetter interface {
	Uniform1f(name string, v float32) error
	Uniform2f(name string, v ms2.Vec) error
	Uniform3f(name string, v ms3.Vec) error
	UniformMat3(name string, m [9]float32) error
	Uniform1i(name string, v int32) error
	Texture2D(name string, unit int, texture uint32) error
	TextureCube(name string, unit int, texture uint32) error
}

// AppendFloat appends a GLSL float literal. Integral values get a trailing ".0"
// so the result is never parsed as an int.
func AppendFloat(b []byte, v float32) []byte {
	start := len(b)
	b = strconv.AppendFloat(b, float64(v), 'f', -1, 32)
	for _, c := range b[start:] {
		if c == '.' || c == 'N' || c == 'I' {
			return b
		}
	}
	return append(b, ".0"...)
}

// AppendFloats appends float literals separated by sep.
func AppendFloats(b []byte, sep byte, s ...float32) []byte {
	for i, v := range s {
		b = AppendFloat(b, v)
		if sep != 0 && i != len(s)-1 {
			b = append(b, sep)
		}
	}
	return b
}

// AppendVec3 appends a vec3 constructor: vec3(x,y,z)
func AppendVec3(b []byte, v ms3.Vec) []byte {
	b = append(b, "vec3("...)
	b = AppendFloats(b, ',', v.X, v.Y, v.Z)
	return append(b, ')')
}

// AppendVec2 appends a vec2 constructor: vec2(x,y)
func AppendVec2(b []byte, v ms2.Vec) []byte {
	b = append(b, "vec2("...)
	b = AppendFloats(b, ',', v.X, v.Y)
	return append(b, ')')
}

func AppendDefineDecl(b []byte, aliasToDefine, aliasReplace string) []byte {
	b = append(b, "#define "...)
	b = append(b, aliasToDefine...)
	b = append(b, ' ')
	b = append(b, aliasReplace...)
	b = append(b, '\n')
	return b
}

// AppendUniformDecl appends a uniform declaration:
//
//	uniform <typename> <name>;
func AppendUniformDecl(b []byte, typename, name string) []byte {
	b = append(b, "uniform "...)
	b = append(b, typename...)
	b = append(b, ' ')
	b = append(b, name...)
	b = append(b, ";\n"...)
	return b
}

// AppendConstVec3Decl appends a constant vec3 declaration:
//
//	const vec3 <name> = vec3(x,y,z);
func AppendConstVec3Decl(b []byte, name string, v ms3.Vec) []byte {
	b = append(b, "const vec3 "...)
	b = append(b, name...)
	b = append(b, " = "...)
	b = AppendVec3(b, v)
	b = append(b, ";\n"...)
	return b
}

// AppendConstVec2Decl appends a constant vec2 declaration.
func AppendConstVec2Decl(b []byte, name string, v ms2.Vec) []byte {
	b = append(b, "const vec2 "...)
	b = append(b, name...)
	b = append(b, " = "...)
	b = AppendVec2(b, v)
	b = append(b, ";\n"...)
	return b
}

// AppendConstFloatDecl appends a constant float declaration.
func AppendConstFloatDecl(b []byte, name string, v float32) []byte {
	b = append(b, "const float "...)
	b = append(b, name...)
	b = append(b, " = "...)
	b = AppendFloat(b, v)
	b = append(b, ";\n"...)
	return b
}

// AppendInstanceName appends base followed by the decimal id. Used to build
// GLSL symbol names unique to a material or object instance.
func AppendInstanceName(b []byte, base string, id int) []byte {
	b = append(b, base...)
	return strconv.AppendInt(b, int64(id), 10)
}

// InstanceName returns base followed by the decimal id.
func InstanceName(base string, id int) string {
	return string(AppendInstanceName(nil, base, id))
}

// AppendUniqueStrings appends the strings of src not yet present in dst.
func AppendUniqueStrings(dst []string, src ...string) []string {
	for _, s := range src {
		found := false
		for _, d := range dst {
			if d == s {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, s)
		}
	}
	return dst
}
