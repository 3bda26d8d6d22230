package glsllib

import (
	_ "embed"

	"github.com/soypat/glpt/glbuild"
)

// Distance field primitives, see https://iquilezles.org/articles/distfunctions.
var (
	//go:embed sdSphere.glsl
	sdSphereSrc string
	//go:embed udBox.glsl
	udBoxSrc string
	//go:embed sdBox.glsl
	sdBoxSrc string
	//go:embed udRoundBox.glsl
	udRoundBoxSrc string
	//go:embed sdTorus.glsl
	sdTorusSrc string
	//go:embed sdCylinder.glsl
	sdCylinderSrc string
	//go:embed sdCone.glsl
	sdConeSrc string
	//go:embed sdPlane.glsl
	sdPlaneSrc string
	//go:embed sdHexPrism.glsl
	sdHexPrismSrc string
	//go:embed sdTriPrism.glsl
	sdTriPrismSrc string
	//go:embed sdCapsule.glsl
	sdCapsuleSrc string
	//go:embed sdCappedCylinder.glsl
	sdCappedCylinderSrc string
	//go:embed dOps.glsl
	dOpsSrc string
	//go:embed sMinExp.glsl
	sMinExpSrc string
	//go:embed sMaxExp.glsl
	sMaxExpSrc string
)

var (
	SdSphere         = glbuild.NewSnippet(sdSphereSrc)         // float sdSphere(vec3 p, float s)
	UdBox            = glbuild.NewSnippet(udBoxSrc)            // float udBox(vec3 p, vec3 b)
	SdBox            = glbuild.NewSnippet(sdBoxSrc)            // float sdBox(vec3 p, vec3 b)
	UdRoundBox       = glbuild.NewSnippet(udRoundBoxSrc)       // float udRoundBox(vec3 p, vec3 b, float r)
	SdTorus          = glbuild.NewSnippet(sdTorusSrc)          // float sdTorus(vec3 p, vec2 t)
	SdCylinder       = glbuild.NewSnippet(sdCylinderSrc)       // float sdCylinder(vec3 p, vec3 c)
	SdCone           = glbuild.NewSnippet(sdConeSrc)           // float sdCone(vec3 p, vec2 c)
	SdPlane          = glbuild.NewSnippet(sdPlaneSrc)          // float sdPlane(vec3 p, vec3 n, float d)
	SdHexPrism       = glbuild.NewSnippet(sdHexPrismSrc)       // float sdHexPrism(vec3 p, vec2 h)
	SdTriPrism       = glbuild.NewSnippet(sdTriPrismSrc)       // float sdTriPrism(vec3 p, vec2 h)
	SdCapsule        = glbuild.NewSnippet(sdCapsuleSrc)        // float sdCapsule(vec3 p, vec3 a, vec3 b, float r)
	SdCappedCylinder = glbuild.NewSnippet(sdCappedCylinderSrc) // float sdCappedCylinder(vec3 p, vec2 h)
	SMinExp          = glbuild.NewSnippet(sMinExpSrc)          // float sMinExp(float a, float b, float k)
	SMaxExp          = glbuild.NewSnippet(sMaxExpSrc)          // float sMaxExp(float a, float b, float k)
)

// DistanceOps defines dUnion, dDifference and dIntersection of two distances.
var DistanceOps = glbuild.NewSnippet(dOpsSrc)
