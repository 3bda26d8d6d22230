package glsllib_test

import (
	"strings"
	"testing"

	"github.com/soypat/glpt/glbuild"
	"github.com/soypat/glpt/glbuild/glsllib"
)

var library = []*glbuild.Snippet{
	glsllib.Pi, glsllib.TwoPi, glsllib.HalfPi, glsllib.Phi, glsllib.InvPhi,
	glsllib.Sqrt2, glsllib.Sqrt5, glsllib.Inv2Sqrt2,
	glsllib.Rand, glsllib.Pseudorandom, glsllib.RayT,
	glsllib.RayIntersectPlane3, glsllib.RayIntersectAABB3, glsllib.NormalOnAABB3,
	glsllib.NormalFastOnAABB3, glsllib.RayIntersectSphere, glsllib.NormalOnSphere,
	glsllib.ClosestIcosahedronPoint, glsllib.ClosestDodecahedronPoint,
	glsllib.BoxMuller, glsllib.UniformInsideDisk, glsllib.SampleUniformOnSphere,
	glsllib.SampleUniformOnHemisphere, glsllib.SampleDotWeightOnHemisphere,
	glsllib.SamplePowerDotWeightOnHemisphere, glsllib.ConstructBasis3,
	glsllib.SampleBasis3, glsllib.SampleTowardsNormal3,
	glsllib.TotalInternalReflectionCutoff, glsllib.FresnelDielectric, glsllib.Fresnel,
	glsllib.SampleFresnelDielectric, glsllib.SellmeierDispersion,
	glsllib.SdSphere, glsllib.UdBox, glsllib.SdBox, glsllib.UdRoundBox, glsllib.SdTorus,
	glsllib.SdCylinder, glsllib.SdCone, glsllib.SdPlane, glsllib.SdHexPrism,
	glsllib.SdTriPrism, glsllib.SdCapsule, glsllib.SdCappedCylinder,
	glsllib.DistanceOps, glsllib.SMinExp, glsllib.SMaxExp,
}

func TestLibraryFlattens(t *testing.T) {
	for _, s := range library {
		if strings.TrimSpace(s.Source()) == "" {
			t.Errorf("snippet %d has empty source", s.ID())
		}
		if _, err := glbuild.Flatten(nil, s); err != nil {
			t.Errorf("snippet %d: %s", s.ID(), err)
		}
	}
	all, err := glbuild.FlattenAll(nil, library...)
	if err != nil {
		t.Fatal(err)
	}
	src := string(all)
	for _, decl := range []string{
		"#define TWO_PI ", "float rand(vec2 co)", "float pseudorandom(float u)",
		"vec3 sampleTowardsNormal3(", "vec2 fresnel(",
	} {
		if n := strings.Count(src, decl); n != 1 {
			t.Errorf("want %q declared once, got %d", decl, n)
		}
	}
}

func TestConstantTruncation(t *testing.T) {
	const want = "#define PI 3.1415926535897932384626433832795\n"
	if got := glsllib.Pi.Source(); got != want {
		t.Errorf("want %q, got %q", want, got)
	}
}

func TestDependencyOrder(t *testing.T) {
	src := glsllib.SampleUniformOnHemisphere.String()
	iTwoPi := strings.Index(src, "#define TWO_PI")
	iSphere := strings.Index(src, "vec3 sampleUniformOnSphere(")
	iHemi := strings.Index(src, "vec3 sampleUniformOnHemisphere(")
	if iTwoPi < 0 || iSphere < 0 || iHemi < 0 {
		t.Fatalf("missing declarations in:\n%s", src)
	}
	if !(iTwoPi < iSphere && iSphere < iHemi) {
		t.Errorf("dependencies out of order:\n%s", src)
	}
}

func TestDistanceFieldGenerators(t *testing.T) {
	field := glbuild.NewSnippet("float field(vec3 p) { return sdSphere(p, 1.0); }\n", glsllib.SdSphere)
	march := glsllib.NewDistanceFieldMarcher("marchField", "field", glsllib.DefaultMarcherConfig(), field)
	normal := glsllib.NewDistanceFieldNormal("normalField", "field", 0.001, 0.0001, field)
	src, err := glbuild.FlattenAll(nil, march, normal)
	if err != nil {
		t.Fatal(err)
	}
	s := string(src)
	for _, want := range []string{
		"vec2 marchField(vec3 rayPos, vec3 rayDir)",
		"tests < 65;",
		"float dist = abs(field(p));",
		"dt = dist * 1.0;",
		"dt > 0.1 ? -1.0 : t",
		"field(rayT(rayPos, rayDir, t - 0.001))",
		"vec3 normalField(vec3 rayPos, vec3 rayDir, vec3 hitPos)",
		"hitPos - rayDir * 0.001;",
		"field(testPoint + vec3(0.0, 0.0001, 0.0))",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("generated source missing %q:\n%s", want, s)
		}
	}
	if strings.Count(s, "float field(vec3 p)") != 1 {
		t.Error("field function should be emitted once")
	}
	if strings.Index(s, "vec3 rayT(") > strings.Index(s, "vec2 marchField(") {
		t.Error("rayT must precede the marcher")
	}
}
