package glpt

import (
	"errors"

	"github.com/soypat/glpt/glbuild"
	"github.com/soypat/glpt/glbuild/glsllib"
)

var (
	_ glbuild.Environment = (*ConstantEnvironment)(nil)
	_ glbuild.Environment = (*ProceduralEnvironment)(nil)
	_ glbuild.Environment = (*TextureEnvironment)(nil)
)

// ConstantEnvironment is a uniform sky: every ray that escapes the scene
// receives the same radiance.
type ConstantEnvironment struct {
	Radiance Vec3Value
}

const environmentRadiance = "environmentRadiance"

// NewConstantEnvironment returns an environment of constant radiance.
func NewConstantEnvironment(radiance Vec3Value) *ConstantEnvironment {
	return &ConstantEnvironment{Radiance: radiance}
}

func (env *ConstantEnvironment) AppendPreamble(b []byte) []byte {
	return appendVec3Decl(b, env.Radiance, environmentRadiance, false)
}

func (env *ConstantEnvironment) AppendEnvironment(b []byte) []byte {
	b = append(b, "      accumulation = accumulation + attenuation * "...)
	b = appendVec3Ref(b, env.Radiance, environmentRadiance, false, glbuild.DefaultHitSymbols())
	return append(b, ";\n"...)
}

func (env *ConstantEnvironment) AppendSnippets(dst []*glbuild.Snippet) []*glbuild.Snippet {
	return dst
}

func (env *ConstantEnvironment) AppendUniforms(dst []string) []string {
	return appendValueUniform(dst, env.Radiance, environmentRadiance)
}

func (env *ConstantEnvironment) Update(setter glbuild.UniformSetter) error {
	return updateValue(setter, env.Radiance, environmentRadiance)
}

// ProceduralEnvironment computes escaped ray radiance with arbitrary GLSL statements.
type ProceduralEnvironment struct {
	statements string
	snippets   []*glbuild.Snippet
}

// NewProceduralEnvironment returns an environment running statements for
// escaped rays. The statements should add to accumulation scaled by
// attenuation and may read rayPos and rayDir.
func NewProceduralEnvironment(statements string, snippets ...*glbuild.Snippet) *ProceduralEnvironment {
	return &ProceduralEnvironment{statements: statements, snippets: snippets}
}

func (env *ProceduralEnvironment) AppendPreamble(b []byte) []byte { return b }

func (env *ProceduralEnvironment) AppendEnvironment(b []byte) []byte {
	return append(b, env.statements...)
}

func (env *ProceduralEnvironment) AppendSnippets(dst []*glbuild.Snippet) []*glbuild.Snippet {
	return append(dst, env.snippets...)
}

func (env *ProceduralEnvironment) AppendUniforms(dst []string) []string { return dst }

func (env *ProceduralEnvironment) Update(glbuild.UniformSetter) error { return nil }

// EnvironmentMapping selects how a texture environment is looked up.
type EnvironmentMapping uint8

const (
	// MappingRectilinear looks up an equirectangular 2D texture.
	MappingRectilinear EnvironmentMapping = iota
	// MappingCubemap looks up a cube map texture by ray direction.
	MappingCubemap
)

// envTextureUnit is the texture unit the environment texture is bound to.
const envTextureUnit = 1

// TextureEnvironment lights escaped rays from an environment map texture.
type TextureEnvironment struct {
	// Texture is the GL texture name.
	Texture uint32
	Mapping EnvironmentMapping
	// Multiplier scales the texture radiance.
	Multiplier float32
	// Rotation turns a rectilinear map around the vertical axis, in turns.
	Rotation float32
	// Half maps the top half of the sphere onto the whole texture height.
	Half bool
}

func (env *TextureEnvironment) sampler() string {
	if env.Mapping == MappingCubemap {
		return "samplerCube"
	}
	return "sampler2D"
}

func (env *TextureEnvironment) AppendPreamble(b []byte) []byte {
	b = glbuild.AppendUniformDecl(b, env.sampler(), "envTexture")
	return glbuild.AppendUniformDecl(b, "float", "envRotation")
}

func (env *TextureEnvironment) AppendEnvironment(b []byte) []byte {
	b = append(b, "      accumulation = accumulation + attenuation * "...)
	if env.Mapping == MappingCubemap {
		b = append(b, "textureCube(envTexture, rayDir).rgb"...)
	} else {
		b = append(b, "texture2D(envTexture, vec2(-atan(rayDir.z, rayDir.x) / TWO_PI + 0.5 + envRotation, (0.5 - asin(rayDir.y) / PI)"...)
		if env.Half {
			b = append(b, " * 2.0"...)
		}
		b = append(b, ")).rgb"...)
	}
	b = append(b, " * "...)
	b = glbuild.AppendFloat(b, env.Multiplier)
	return append(b, ";\n"...)
}

func (env *TextureEnvironment) AppendSnippets(dst []*glbuild.Snippet) []*glbuild.Snippet {
	return append(dst, glsllib.Pi, glsllib.TwoPi)
}

func (env *TextureEnvironment) AppendUniforms(dst []string) []string {
	return append(dst, "envTexture", "envRotation")
}

func (env *TextureEnvironment) Update(setter glbuild.UniformSetter) error {
	var err error
	if env.Mapping == MappingCubemap {
		err = setter.TextureCube("envTexture", envTextureUnit, env.Texture)
	} else {
		err = setter.Texture2D("envTexture", envTextureUnit, env.Texture)
	}
	return errors.Join(err, setter.Uniform1f("envRotation", env.Rotation))
}
