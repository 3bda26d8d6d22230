package glpt

import (
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glpt/glbuild"
)

// Vec3Value is a vec3 parameter of a material or environment.
// It is one of [ConstVec3], [*DynamicVec3] or [ExprVec3].
type Vec3Value interface{ isVec3Value() }

// ConstVec3 is a value fixed when the kernel is generated.
type ConstVec3 ms3.Vec

// DynamicVec3 is a value bound to a uniform. Changes to V are uploaded on the next update.
type DynamicVec3 struct{ V ms3.Vec }

// ExprVec3 generates a GLSL vec3 expression evaluated at hit time.
type ExprVec3 func(sym glbuild.HitSymbols) string

func (ConstVec3) isVec3Value()    {}
func (*DynamicVec3) isVec3Value() {}
func (ExprVec3) isVec3Value()     {}

// FloatValue is a float parameter. It is one of [ConstFloat], [*DynamicFloat] or [ExprFloat].
type FloatValue interface{ isFloatValue() }

type ConstFloat float32

type DynamicFloat struct{ V float32 }

// ExprFloat is a GLSL float expression.
type ExprFloat string

func (ConstFloat) isFloatValue()    {}
func (*DynamicFloat) isFloatValue() {}
func (ExprFloat) isFloatValue()     {}

// Vec2Value is a vec2 parameter. It is one of [ConstVec2], [*DynamicVec2] or [ExprVec2].
type Vec2Value interface{ isVec2Value() }

type ConstVec2 ms2.Vec

type DynamicVec2 struct{ V ms2.Vec }

// ExprVec2 is a GLSL vec2 expression.
type ExprVec2 string

func (ConstVec2) isVec2Value()    {}
func (*DynamicVec2) isVec2Value() {}
func (ExprVec2) isVec2Value()     {}

// appendFloatDecl declares a dynamic value as a uniform named name. Constants
// are declared as named constants unless inline is set.
func appendFloatDecl(b []byte, v FloatValue, name string, inline bool) []byte {
	switch v := v.(type) {
	case ConstFloat:
		if !inline {
			b = glbuild.AppendConstFloatDecl(b, name, float32(v))
		}
	case *DynamicFloat:
		b = glbuild.AppendUniformDecl(b, "float", name)
	}
	return b
}

func appendFloatRef(b []byte, v FloatValue, name string, inline bool) []byte {
	switch v := v.(type) {
	case ConstFloat:
		if inline {
			return glbuild.AppendFloat(b, float32(v))
		}
		return append(b, name...)
	case *DynamicFloat:
		return append(b, name...)
	case ExprFloat:
		return append(b, v...)
	}
	panic("unreachable")
}

func appendVec2Decl(b []byte, v Vec2Value, name string, inline bool) []byte {
	switch v := v.(type) {
	case ConstVec2:
		if !inline {
			b = glbuild.AppendConstVec2Decl(b, name, ms2.Vec(v))
		}
	case *DynamicVec2:
		b = glbuild.AppendUniformDecl(b, "vec2", name)
	}
	return b
}

func appendVec2Ref(b []byte, v Vec2Value, name string, inline bool) []byte {
	switch v := v.(type) {
	case ConstVec2:
		if inline {
			return glbuild.AppendVec2(b, ms2.Vec(v))
		}
		return append(b, name...)
	case *DynamicVec2:
		return append(b, name...)
	case ExprVec2:
		return append(b, v...)
	}
	panic("unreachable")
}

func appendVec3Decl(b []byte, v Vec3Value, name string, inline bool) []byte {
	switch v := v.(type) {
	case ConstVec3:
		if !inline {
			b = glbuild.AppendConstVec3Decl(b, name, ms3.Vec(v))
		}
	case *DynamicVec3:
		b = glbuild.AppendUniformDecl(b, "vec3", name)
	}
	return b
}

func appendVec3Ref(b []byte, v Vec3Value, name string, inline bool, sym glbuild.HitSymbols) []byte {
	switch v := v.(type) {
	case ConstVec3:
		if inline {
			return glbuild.AppendVec3(b, ms3.Vec(v))
		}
		return append(b, name...)
	case *DynamicVec3:
		return append(b, name...)
	case ExprVec3:
		return append(b, v(sym)...)
	}
	panic("unreachable")
}

// appendValueUniform appends name to dst if v is a dynamic value.
func appendValueUniform(dst []string, v any, name string) []string {
	switch v.(type) {
	case *DynamicFloat, *DynamicVec2, *DynamicVec3:
		dst = append(dst, name)
	}
	return dst
}

func updateValue(setter glbuild.UniformSetter, v any, name string) error {
	switch v := v.(type) {
	case *DynamicFloat:
		return setter.Uniform1f(name, v.V)
	case *DynamicVec2:
		return setter.Uniform2f(name, v.V)
	case *DynamicVec3:
		return setter.Uniform3f(name, v.V)
	}
	return nil
}

// validValue reports whether v is a usable parameter value.
func validValue(v any) bool {
	switch v := v.(type) {
	case ConstFloat, ConstVec2, ConstVec3:
		return true
	case *DynamicFloat:
		return v != nil
	case *DynamicVec2:
		return v != nil
	case *DynamicVec3:
		return v != nil
	case ExprFloat:
		return v != ""
	case ExprVec2:
		return v != ""
	case ExprVec3:
		return v != nil
	}
	return false
}
