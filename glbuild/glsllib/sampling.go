package glsllib

import (
	_ "embed"

	"github.com/soypat/glpt/glbuild"
)

//go:embed boxMuller.glsl
var boxMullerSrc string

//	vec2 boxMuller(float xi1, float xi2)
var BoxMuller = glbuild.NewSnippet(boxMullerSrc, TwoPi)

//go:embed uniformInsideDisk.glsl
var uniformInsideDiskSrc string

// UniformInsideDisk maps two uniform numbers to a uniformly distributed point in the unit disk.
//
//	vec2 uniformInsideDisk(float xi1, float xi2)
var UniformInsideDisk = glbuild.NewSnippet(uniformInsideDiskSrc, TwoPi)

//go:embed sampleUniformOnSphere.glsl
var sampleUniformOnSphereSrc string

//	vec3 sampleUniformOnSphere(float xi1, float xi2)
var SampleUniformOnSphere = glbuild.NewSnippet(sampleUniformOnSphereSrc, TwoPi)

//go:embed sampleUniformOnHemisphere.glsl
var sampleUniformOnHemisphereSrc string

// SampleUniformOnHemisphere samples the hemisphere z >= 0 uniformly.
//
//	vec3 sampleUniformOnHemisphere(float xi1, float xi2)
var SampleUniformOnHemisphere = glbuild.NewSnippet(sampleUniformOnHemisphereSrc, SampleUniformOnSphere)

//go:embed sampleDotWeightOnHemisphere.glsl
var sampleDotWeightOnHemisphereSrc string

// SampleDotWeightOnHemisphere samples the hemisphere z >= 0 weighted by the cosine to (0,0,1).
//
//	vec3 sampleDotWeightOnHemisphere(float xi1, float xi2)
var SampleDotWeightOnHemisphere = glbuild.NewSnippet(sampleDotWeightOnHemisphereSrc, TwoPi)

//go:embed samplePowerDotWeightOnHemisphere.glsl
var samplePowerDotWeightOnHemisphereSrc string

// SamplePowerDotWeightOnHemisphere samples the hemisphere z >= 0 weighted by the cosine to (0,0,1) raised to n.
//
//	vec3 samplePowerDotWeightOnHemisphere(float n, float xi1, float xi2)
var SamplePowerDotWeightOnHemisphere = glbuild.NewSnippet(samplePowerDotWeightOnHemisphereSrc, TwoPi)

//go:embed constructBasis3.glsl
var constructBasis3Src string

// ConstructBasis3 returns an orthonormal basis whose third column is normal.
//
//	mat3 constructBasis3(vec3 normal)
var ConstructBasis3 = glbuild.NewSnippet(constructBasis3Src)

//go:embed sampleBasis3.glsl
var sampleBasis3Src string

//	vec3 sampleBasis3(mat3 basis, vec3 sampleDir)
var SampleBasis3 = glbuild.NewSnippet(sampleBasis3Src)

//go:embed sampleTowardsNormal3.glsl
var sampleTowardsNormal3Src string

// SampleTowardsNormal3 rotates a direction sampled around (0,0,1) so it is sampled around normal.
//
//	vec3 sampleTowardsNormal3(vec3 normal, vec3 sampleDir)
var SampleTowardsNormal3 = glbuild.NewSnippet(sampleTowardsNormal3Src)
