package glsllib

import (
	"strconv"
	"strings"

	"github.com/soypat/glpt/glbuild"
)

// MarcherConfig configures a sphere tracer generated by [NewDistanceFieldMarcher].
type MarcherConfig struct {
	// Steps is the fixed number of marching iterations.
	Steps int
	// StepRatio scales each step. Values below 1 make marching more conservative.
	StepRatio float32
	// EndThreshold is the largest last step for which the march counts as a hit.
	EndThreshold float32
}

// DefaultMarcherConfig returns the settings known to work for well behaved distance fields.
func DefaultMarcherConfig() MarcherConfig {
	return MarcherConfig{
		Steps:        65,
		StepRatio:    1,
		EndThreshold: 0.1,
	}
}

// NewDistanceFieldMarcher generates a sphere tracer for the distance field
// function fieldName, which must be defined in one of fieldSnippets:
//
//	vec2 <marcherName>(vec3 rayPos, vec3 rayDir)
//
// The returned x component is the distance along the ray or -1 on a miss.
// The y component is the field value just before the hit point; it is
// negative when the ray started inside the field's solid.
func NewDistanceFieldMarcher(marcherName, fieldName string, cfg MarcherConfig, fieldSnippets ...*glbuild.Snippet) *glbuild.Snippet {
	var b []byte
	b = append(b, "vec2 "...)
	b = append(b, marcherName...)
	b = append(b, "(vec3 rayPos, vec3 rayDir) {\n"...)
	b = append(b, "  float t = 0.0;\n  float dt = 0.0;\n"...)
	b = append(b, "  for (int tests = 0; tests < "...)
	b = strconv.AppendInt(b, int64(cfg.Steps), 10)
	b = append(b, "; tests++) {\n"...)
	b = append(b, "    vec3 p = rayT(rayPos, rayDir, t);\n"...)
	b = append(b, "    float dist = abs("...)
	b = append(b, fieldName...)
	b = append(b, "(p));\n    dt = dist * "...)
	b = glbuild.AppendFloat(b, cfg.StepRatio)
	b = append(b, ";\n    t = t + dt;\n  }\n"...)
	b = append(b, "  return vec2(dt > "...)
	b = glbuild.AppendFloat(b, cfg.EndThreshold)
	b = append(b, " ? -1.0 : t, "...)
	b = append(b, fieldName...)
	b = append(b, "(rayT(rayPos, rayDir, t - 0.001)));\n}\n"...)
	deps := append([]*glbuild.Snippet{RayT}, fieldSnippets...)
	return glbuild.NewSnippet(string(b), deps...)
}

// NewDistanceFieldNormal generates a function computing the normalized
// gradient of fieldName by central differences of size gradientDistance,
// evaluated offsetDistance back along the ray from the hit position:
//
//	vec3 <normalName>(vec3 rayPos, vec3 rayDir, vec3 hitPos)
func NewDistanceFieldNormal(normalName, fieldName string, offsetDistance, gradientDistance float32, fieldSnippets ...*glbuild.Snippet) *glbuild.Snippet {
	var b []byte
	b = append(b, "vec3 "...)
	b = append(b, normalName...)
	b = append(b, "(vec3 rayPos, vec3 rayDir, vec3 hitPos) {\n"...)
	b = append(b, "  vec3 testPoint = hitPos - rayDir * "...)
	b = glbuild.AppendFloat(b, offsetDistance)
	b = append(b, ";\n  return normalize(vec3(\n"...)
	offset := string(glbuild.AppendFloat(nil, gradientDistance))
	gradients := [3]string{"vec3(%, 0.0, 0.0)", "vec3(0.0, %, 0.0)", "vec3(0.0, 0.0, %)"}
	for i, g := range gradients {
		delta := strings.Replace(g, "%", offset, 1)
		b = append(b, "    "...)
		b = append(b, fieldName...)
		b = append(b, "(testPoint + "...)
		b = append(b, delta...)
		b = append(b, ") - "...)
		b = append(b, fieldName...)
		b = append(b, "(testPoint - "...)
		b = append(b, delta...)
		b = append(b, ')')
		if i < 2 {
			b = append(b, ',')
		}
		b = append(b, '\n')
	}
	b = append(b, "  ));\n}\n"...)
	return glbuild.NewSnippet(string(b), fieldSnippets...)
}
