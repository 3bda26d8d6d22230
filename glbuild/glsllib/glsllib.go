// Package glsllib is a library of GLSL snippets shared by path tracing kernels.
// Snippets are package level so that programs depending on the same function
// share a single snippet and emit it once.
package glsllib

import (
	_ "embed"

	"github.com/soypat/glpt/glbuild"
)

// Significant digits kept in constant definitions.
const constantLength = 33

func define(name, value string) *glbuild.Snippet {
	if len(value) > constantLength {
		value = value[:constantLength]
	}
	return glbuild.NewSnippet(string(glbuild.AppendDefineDecl(nil, name, value)))
}

var (
	Pi        = define("PI", "3.1415926535897932384626433832795028841971693993751058")
	TwoPi     = define("TWO_PI", "6.2831853071795864769252867665590057683943387987502116")
	HalfPi    = define("HALF_PI", "1.5707963267948966192313216916397514420985846996875529")
	Phi       = define("PHI", "1.618033988749894848204586834365638117720309179805763")
	InvPhi    = define("INV_PHI", "0.6180339887498948482045868343656381177203091798057629")
	Sqrt2     = define("SQRT_2", "1.414213562373095048801688724209698078569671875376948")
	Sqrt5     = define("SQRT_5", "2.236067977499789696409173668731276235440618359611526")
	Inv2Sqrt2 = define("INV_2_SQRT_2", "0.3535533905932737622004221810524245196424179688442370")
)

//go:embed rand.glsl
var randSrc string

// Rand hashes a 2D coordinate to [0,1).
//
//	highp float rand(vec2 co)
var Rand = glbuild.NewSnippet(randSrc)

//go:embed pseudorandom.glsl
var pseudorandomSrc string

// Pseudorandom returns a per-fragment pseudorandom number in [0,1) for seed u.
// It reads gl_FragCoord so it is only usable in fragment shaders.
//
//	float pseudorandom(float u)
var Pseudorandom = glbuild.NewSnippet(pseudorandomSrc, Rand)

//go:embed rayT.glsl
var rayTSrc string

// RayT evaluates the point at distance t along a ray.
//
//	vec3 rayT(vec3 rayPos, vec3 rayDir, float t)
var RayT = glbuild.NewSnippet(rayTSrc)

//go:embed rayIntersectPlane3.glsl
var rayIntersectPlane3Src string

// RayIntersectPlane3 returns the ray distance to the plane dot(normal,p)=d.
//
//	float rayIntersectPlane3(vec3 normal, float d, vec3 rayPos, vec3 rayDir)
var RayIntersectPlane3 = glbuild.NewSnippet(rayIntersectPlane3Src)

//go:embed rayIntersectAABB3.glsl
var rayIntersectAABB3Src string

// RayIntersectAABB3 intersects a ray with an axis aligned box using the slab
// method. It returns vec2(tNear, tFar); there is an intersection only when tNear < tFar.
//
//	vec2 rayIntersectAABB3(vec3 boxMinCorner, vec3 boxMaxCorner, vec3 rayPos, vec3 rayDir)
var RayIntersectAABB3 = glbuild.NewSnippet(rayIntersectAABB3Src)

//go:embed normalOnAABB3.glsl
var normalOnAABB3Src string

// NormalOnAABB3 returns the face normal of the box face closest to point.
//
//	vec3 normalOnAABB3(vec3 boxCenter, vec3 boxHalfSize, vec3 point)
var NormalOnAABB3 = glbuild.NewSnippet(normalOnAABB3Src)

//go:embed normalFastOnAABB3.glsl
var normalFastOnAABB3Src string

// NormalFastOnAABB3 is a branchless box normal. Points very close to edges or
// corners get a normal blended between faces.
//
//	vec3 normalFastOnAABB3(vec3 boxCenter, vec3 boxHalfSize, vec3 point)
var NormalFastOnAABB3 = glbuild.NewSnippet(normalFastOnAABB3Src)

//go:embed rayIntersectSphere.glsl
var rayIntersectSphereSrc string

// RayIntersectSphere returns vec2(tNear, tFar); there is an intersection only when tNear < tFar.
//
//	vec2 rayIntersectSphere(vec3 center, float radius, vec3 rayPos, vec3 rayDir)
var RayIntersectSphere = glbuild.NewSnippet(rayIntersectSphereSrc)

//go:embed normalOnSphere.glsl
var normalOnSphereSrc string

//	vec3 normalOnSphere(vec3 center, float radius, vec3 point)
var NormalOnSphere = glbuild.NewSnippet(normalOnSphereSrc)

//go:embed closestIcosahedronPoint.glsl
var closestIcosahedronPointSrc string

// ClosestIcosahedronPoint returns the icosahedron vertex closest in direction to n.
//
//	vec3 closestIcosahedronPoint(vec3 n)
var ClosestIcosahedronPoint = glbuild.NewSnippet(closestIcosahedronPointSrc, Phi)

//go:embed closestDodecahedronPoint.glsl
var closestDodecahedronPointSrc string

// ClosestDodecahedronPoint returns the dodecahedron vertex closest in direction to n.
//
//	vec3 closestDodecahedronPoint(vec3 n)
var ClosestDodecahedronPoint = glbuild.NewSnippet(closestDodecahedronPointSrc, Phi, InvPhi)
