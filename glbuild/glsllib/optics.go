package glsllib

import (
	_ "embed"

	"github.com/soypat/glpt/glbuild"
)

//go:embed totalInternalReflectionCutoff.glsl
var tirCutoffSrc string

// TotalInternalReflectionCutoff returns the cosine below which light going
// from IOR na to nb is totally internally reflected.
//
//	float totalInternalReflectionCutoff(float na, float nb)
var TotalInternalReflectionCutoff = glbuild.NewSnippet(tirCutoffSrc)

//go:embed fresnelDielectric.glsl
var fresnelDielectricSrc string

//	vec2 fresnelDielectric(vec3 incident, vec3 normal, vec3 transmitted, float na, float nb)
var FresnelDielectric = glbuild.NewSnippet(fresnelDielectricSrc)

//go:embed fresnel.glsl
var fresnelSrc string

// Fresnel computes reflectance against a conductor with complex index nb+ik.
//
//	vec2 fresnel(vec3 incident, vec3 normal, float na, float nb, float k)
var Fresnel = glbuild.NewSnippet(fresnelSrc)

//go:embed sampleFresnelDielectric.glsl
var sampleFresnelDielectricSrc string

//	vec3 sampleFresnelDielectric(vec3 incident, vec3 normal, float na, float nb, float xi1)
var SampleFresnelDielectric = glbuild.NewSnippet(sampleFresnelDielectricSrc, FresnelDielectric)

//go:embed sellmeierDispersion.glsl
var sellmeierDispersionSrc string

//	float sellmeierDispersion(float bx, float by, float bz, float cx, float cy, float cz, float wavelength)
var SellmeierDispersion = glbuild.NewSnippet(sellmeierDispersionSrc)
